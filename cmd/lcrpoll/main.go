// cmd/lcrpoll/main.go
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tamzrod/lcrmeter/internal/config"
	"github.com/tamzrod/lcrmeter/internal/fault"
	"github.com/tamzrod/lcrmeter/internal/httpapi"
	"github.com/tamzrod/lcrmeter/internal/observability"
	"github.com/tamzrod/lcrmeter/internal/poller"
	"github.com/tamzrod/lcrmeter/internal/sampler"
	"github.com/tamzrod/lcrmeter/internal/status"
	"github.com/tamzrod/lcrmeter/internal/writer"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal().Msg("usage: lcrpoll <config.yaml|config.toml>")
	}

	// --------------------
	// Load + validate + normalize config
	// --------------------

	cfg, err := config.LoadAndPrepare(os.Args[1])
	if err != nil {
		log.Fatal().Err(err).Msg("config failed")
	}

	logger := observability.InitLogger("lcrpoll", cfg.Log.Level, cfg.Log.NoColor)
	observability.RegisterMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --------------------
	// Poller + sampler
	// --------------------

	smp, err := sampler.New(sampler.Config{
		Population:   cfg.Sampler.Population,
		MaxDeviation: cfg.Sampler.MaxDeviation,
		HistoryLimit: cfg.Sampler.HistoryLimit,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("sampler build failed")
	}

	p, line, err := poller.Build(cfg, smp)
	if err != nil {
		logger.Fatal().Err(err).Msg("poller build failed")
	}
	p.SetObserver(observability.NewFrameTracer(logger))

	// --------------------
	// Sinks (DATA + STATUS)
	// --------------------

	plan := writer.BuildPlan(cfg.Sinks)
	clients, closeWriters, err := writer.BuildEndpointClients(plan, time.Duration(cfg.Sinks.TimeoutMs)*time.Millisecond)
	if err != nil {
		logger.Fatal().Err(err).Msg("writer clients failed")
	}
	defer closeWriters()

	board := httpapi.NewBoard()
	sinks := []writer.Sink{board, writer.New(plan, clients)}

	if cfg.Sinks.CSVPath != "" {
		csvSink, err := writer.OpenCSV(cfg.Sinks.CSVPath)
		if err != nil {
			logger.Fatal().Err(err).Msg("data log open failed")
		}
		defer csvSink.Close()
		sinks = append(sinks, csvSink)
	}

	statusWriter, statusEnabled := writer.NewStatusWriter(plan, clients)

	// --------------------
	// HTTP view (optional)
	// --------------------

	writes := make(chan poller.WriteRequest)
	var api *httpapi.Server
	if cfg.HTTP.Addr != "" {
		api = httpapi.New(cfg.HTTP.Addr, cfg.HTTP.CORSOrigins, board, writes, logger)
		go func() {
			if err := api.Serve(); err != nil {
				logger.Error().Err(err).Msg("http server stopped")
			}
		}()
	}

	// --------------------
	// Orchestrator + poll loop
	// --------------------

	out := make(chan poller.CycleResult)
	orchestrated := make(chan struct{})
	go func() {
		defer close(orchestrated)
		orchestrate(logger, out, sinks, board, statusWriter, statusEnabled)
	}()

	logger.Info().
		Str("port", cfg.Serial.Port).
		Int("baud", cfg.Serial.BaudRate).
		Str("variant", cfg.Device.Variant).
		Uint8("slave", cfg.Device.SlaveAddress).
		Int("interval_ms", cfg.Poll.IntervalMs).
		Msg("polling started")

	// Run returns only after the in-flight cycle is delivered.
	p.Run(ctx, out, writes)

	logger.Info().Msg("stopping")
	if err := poller.Quiesce(time.Duration(cfg.Poll.QuiesceMs)*time.Millisecond, line); err != nil {
		logger.Warn().Err(err).Msg("serial close failed")
	}
	<-orchestrated

	if api != nil {
		shCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := api.Shutdown(shCtx); err != nil {
			logger.Warn().Err(err).Msg("http shutdown failed")
		}
	}
}

// orchestrate owns the status tracker: cycle results drive health and
// a 1 Hz ticker drives seconds-in-error. It returns once out is closed.
func orchestrate(
	logger zerolog.Logger,
	out <-chan poller.CycleResult,
	sinks []writer.Sink,
	board *httpapi.Board,
	statusWriter writer.StatusWriter,
	statusEnabled bool,
) {
	tracker := status.NewTracker()

	publish := func() {
		snap := tracker.Snapshot()
		board.SetStatus(snap)
		if !statusEnabled {
			return
		}
		if err := statusWriter.WriteStatus(snap); err != nil {
			logger.Warn().Err(err).Msg("status write failed")
		}
	}

	// Full block write on start (identity re-assert).
	publish()

	secTicker := time.NewTicker(time.Second)
	defer secTicker.Stop()

	for {
		select {
		case res, ok := <-out:
			if !ok {
				return
			}
			observability.LogCycle(logger, res)
			observability.RecordCycle(res)

			for _, s := range sinks {
				if err := s.Write(res); err != nil {
					logger.Warn().Err(err).Msg("sink write failed")
				}
			}

			if res.Aborted {
				tracker.Failure(errorCode(res.Err))
			} else {
				tracker.Success(uint16(res.Record.Kind))
			}
			publish()

		case <-secTicker.C:
			if tracker.Second() {
				publish()
			}
		}
	}
}

// errorCode extracts the fault code; other errors report 1.
func errorCode(err error) uint16 {
	if err == nil {
		return 0
	}
	var fe *fault.Error
	if errors.As(err, &fe) {
		return fe.Code()
	}
	return 1
}

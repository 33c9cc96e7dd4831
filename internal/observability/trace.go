// internal/observability/trace.go
package observability

import (
	"encoding/hex"
	"errors"

	"github.com/rs/zerolog"

	"github.com/tamzrod/lcrmeter/internal/fault"
	"github.com/tamzrod/lcrmeter/internal/poller"
)

// FrameTracer logs raw traffic at debug level.
type FrameTracer struct {
	log zerolog.Logger
}

func NewFrameTracer(logger zerolog.Logger) *FrameTracer {
	return &FrameTracer{log: logger}
}

func (t *FrameTracer) Request(step poller.State, b []byte) {
	t.log.Debug().Str("step", step.String()).Str("tx", hex.EncodeToString(b)).Msg("frame")
}

func (t *FrameTracer) Response(step poller.State, b []byte) {
	t.log.Debug().Str("step", step.String()).Str("rx", hex.EncodeToString(b)).Msg("frame")
}

// LogCycle writes one line per cycle: debug for records, warn for faults.
func LogCycle(logger zerolog.Logger, res poller.CycleResult) {
	if res.Aborted {
		ev := logger.Warn().Str("step", res.Step.String()).Err(res.Err)
		if fe := asFault(res.Err); fe != nil {
			ev = ev.Str("kind", fe.Kind.String()).Uint16("code", fe.Code())
			if len(fe.Raw) > 0 {
				ev = ev.Str("raw", hex.EncodeToString(fe.Raw))
			}
		}
		ev.Msg("poll cycle aborted")
		return
	}

	rec := res.Record
	ev := logger.Debug().
		Uint64("seq", rec.Seq).
		Str("kind", rec.Kind.String()).
		Str("circuit", rec.Circuit).
		Float32("primary", rec.Primary).
		Float32("tangent", rec.Tangent).
		Float32("freq", rec.Frequency).
		Int("range", rec.RangeIndex).
		Dur("took", res.Duration)
	ev.Msg("record")

	if res.Estimate != nil {
		logger.Info().
			Str("kind", res.Estimate.Kind.String()).
			Float64("mean", res.Estimate.Mean).
			Float64("stddev", res.Estimate.StdDev).
			Float64("tg_mean", res.Estimate.TangentMean).
			Float64("tg_stddev", res.Estimate.TangentStdDev).
			Int("n", res.Estimate.Count).
			Msg("estimate")
	}
}

func asFault(err error) *fault.Error {
	var fe *fault.Error
	if errors.As(err, &fe) {
		return fe
	}
	return nil
}

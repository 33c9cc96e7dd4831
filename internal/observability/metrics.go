// internal/observability/metrics.go
package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/tamzrod/lcrmeter/internal/fault"
	"github.com/tamzrod/lcrmeter/internal/poller"
	"github.com/tamzrod/lcrmeter/internal/sampler"
)

var (
	registerOnce sync.Once

	pollCycles = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lcrmeter",
			Subsystem: "poll",
			Name:      "cycles_total",
			Help:      "Poll cycles by result.",
		},
		[]string{"result"},
	)
	pollFaults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lcrmeter",
			Subsystem: "poll",
			Name:      "faults_total",
			Help:      "Aborted poll cycles by fault kind.",
		},
		[]string{"kind"},
	)
	cycleDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "lcrmeter",
			Subsystem: "poll",
			Name:      "cycle_duration_seconds",
			Help:      "Poll cycle duration in seconds.",
			Buckets:   []float64{0.1, 0.25, 0.5, 0.75, 1, 1.5, 2, 5},
		},
	)
	primaryValue = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "lcrmeter",
			Name:      "primary_value",
			Help:      "Last primary value by kind.",
		},
		[]string{"kind"},
	)
	estimates = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lcrmeter",
			Name:      "estimates_total",
			Help:      "Filled populations by outcome.",
		},
		[]string{"outcome"},
	)
	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "lcrmeter",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)
	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "lcrmeter",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

func RegisterMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			pollCycles, pollFaults, cycleDuration, primaryValue, estimates,
			httpRequests, httpDuration,
		)
	})
}

// RecordCycle updates the poll metrics from one cycle result.
func RecordCycle(res poller.CycleResult) {
	RegisterMetrics()
	cycleDuration.Observe(res.Duration.Seconds())

	if res.Aborted {
		pollCycles.WithLabelValues("aborted").Inc()
		pollFaults.WithLabelValues(faultLabel(res.Err)).Inc()
		return
	}

	pollCycles.WithLabelValues("ok").Inc()
	if res.Record != nil {
		primaryValue.WithLabelValues(res.Record.Kind.String()).Set(float64(res.Record.Primary))
	}
	if res.Outcome != sampler.Pending {
		estimates.WithLabelValues(res.Outcome.String()).Inc()
	}
}

func faultLabel(err error) string {
	if k := fault.KindOf(err); k != fault.None {
		return k.String()
	}
	return "other"
}

func RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	RegisterMetrics()
	statusLabel := strconv.Itoa(status)
	httpRequests.WithLabelValues(method, path, statusLabel).Inc()
	httpDuration.WithLabelValues(method, path, statusLabel).Observe(duration.Seconds())
}

// internal/httpapi/board.go
package httpapi

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/tamzrod/lcrmeter/internal/measure"
	"github.com/tamzrod/lcrmeter/internal/poller"
	"github.com/tamzrod/lcrmeter/internal/status"
)

// Board holds the latest state for HTTP readers. It is written by the
// orchestrator goroutine and read by request handlers.
type Board struct {
	mu sync.RWMutex

	latest   *measure.Record
	estimate *measure.Estimate
	lastErr  string
	lastStep string
	snap     status.Snapshot

	// session is the sampler's published view; its history is shared
	// read-only with the poll goroutine.
	session *measure.Session

	started time.Time
}

func NewBoard() *Board {
	return &Board{
		snap:    status.Initial(),
		started: time.Now(),
	}
}

// Write records one cycle. It satisfies writer.Sink.
func (b *Board) Write(res poller.CycleResult) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if res.Aborted {
		b.lastStep = res.Step.String()
		if res.Err != nil {
			b.lastErr = res.Err.Error()
		}
		return nil
	}

	rec := res.Record
	if b.latest != nil && b.latest.Kind != rec.Kind {
		b.estimate = nil
	}
	b.latest = rec
	b.session = res.Session
	b.lastErr, b.lastStep = "", ""
	if res.Estimate != nil {
		b.estimate = res.Estimate
	}
	return nil
}

// SetStatus replaces the loop status snapshot.
func (b *Board) SetStatus(s status.Snapshot) {
	b.mu.Lock()
	b.snap = s
	b.mu.Unlock()
}

// num32 and num64 encode NaN and Inf as null; encoding/json refuses them.
type (
	num32 float32
	num64 float64
)

func (n num32) MarshalJSON() ([]byte, error) {
	return appendNumber(float64(n), 32), nil
}

func (n num64) MarshalJSON() ([]byte, error) {
	return appendNumber(float64(n), 64), nil
}

func appendNumber(f float64, bits int) []byte {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return []byte("null")
	}
	return strconv.AppendFloat(nil, f, 'g', -1, bits)
}

// Latest is the JSON view of the board.
type Latest struct {
	Record     *recordView     `json:"record,omitempty"`
	Estimate   *estimateView   `json:"estimate,omitempty"`
	Population *populationView `json:"population,omitempty"`
	Health     string          `json:"health"`
	LastError  string          `json:"last_error,omitempty"`
	LastStep   string          `json:"last_step,omitempty"`
	ErrorCode  uint16          `json:"error_code"`
	Cycles     uint32          `json:"cycles"`
	Faults     uint32          `json:"faults"`
}

type recordView struct {
	Seq           uint64    `json:"seq"`
	At            time.Time `json:"at"`
	Kind          string    `json:"kind"`
	Unit          string    `json:"unit,omitempty"`
	Circuit       string    `json:"circuit"`
	Frequency     num32     `json:"frequency_hz"`
	Primary       num32     `json:"primary"`
	Tangent       num32     `json:"tangent"`
	RangeIndex    int       `json:"range_index"`
	RangeLabel    string    `json:"range_label,omitempty"`
	Integration   bool      `json:"integration"`
	Averaging     bool      `json:"averaging"`
	FixedRange    bool      `json:"fixed_range"`
	ChannelSelect uint8     `json:"channel_select"`
}

type estimateView struct {
	Kind          string `json:"kind"`
	Mean          num64  `json:"mean"`
	StdDev        num64  `json:"stddev"`
	TangentMean   num64  `json:"tangent_mean"`
	TangentStdDev num64  `json:"tangent_stddev"`
	Count         int    `json:"count"`
}

type populationView struct {
	Kind   string `json:"kind"`
	Filled int    `json:"filled"`
	Size   int    `json:"size"`
}

type pointView struct {
	At    time.Time `json:"at"`
	Value num32     `json:"value"`
}

// Snapshot copies the board into its JSON view.
func (b *Board) Snapshot() Latest {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := Latest{
		Health:    healthName(b.snap.Health),
		LastError: b.lastErr,
		LastStep:  b.lastStep,
		ErrorCode: b.snap.LastErrorCode,
		Cycles:    b.snap.Cycles,
		Faults:    b.snap.Faults,
	}
	if r := b.latest; r != nil {
		out.Record = &recordView{
			Seq:           r.Seq,
			At:            r.At,
			Kind:          r.Kind.String(),
			Unit:          r.Kind.Unit(),
			Circuit:       r.Circuit,
			Frequency:     num32(r.Frequency),
			Primary:       num32(r.Primary),
			Tangent:       num32(r.Tangent),
			RangeIndex:    r.RangeIndex,
			RangeLabel:    r.RangeLabel,
			Integration:   r.Integration,
			Averaging:     r.Averaging,
			FixedRange:    r.FixedRange,
			ChannelSelect: r.ChannelSelect,
		}
	}
	if e := b.estimate; e != nil {
		out.Estimate = &estimateView{
			Kind:          e.Kind.String(),
			Mean:          num64(e.Mean),
			StdDev:        num64(e.StdDev),
			TangentMean:   num64(e.TangentMean),
			TangentStdDev: num64(e.TangentStdDev),
			Count:         e.Count,
		}
	}
	if ss := b.session; ss != nil {
		out.Population = &populationView{Kind: ss.Kind.String(), Filled: ss.Filled, Size: ss.Size}
	}
	return out
}

// History copies the live kind's series out of the published session.
func (b *Board) History() (string, []pointView) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.latest == nil {
		return "", nil
	}
	var hist []measure.Point
	if b.session != nil {
		hist = b.session.History
	}
	pts := make([]pointView, len(hist))
	for i, p := range hist {
		pts[i] = pointView{At: p.At, Value: num32(p.Value)}
	}
	return b.latest.Kind.String(), pts
}

func healthName(h uint16) string {
	switch h {
	case status.HealthOK:
		return "ok"
	case status.HealthError:
		return "error"
	default:
		return "unknown"
	}
}

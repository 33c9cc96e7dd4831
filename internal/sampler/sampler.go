// internal/sampler/sampler.go
package sampler

import (
	"errors"
	"math"
	"time"

	"github.com/tamzrod/lcrmeter/internal/measure"
)

// Outcome of adding one sample.
type Outcome uint8

const (
	// Pending: the population is not full yet.
	Pending Outcome = iota
	// Accepted: the population filled and produced an estimate.
	Accepted
	// Rejected: the population filled but held an outlier.
	Rejected
)

func (o Outcome) String() string {
	switch o {
	case Accepted:
		return "accepted"
	case Rejected:
		return "rejected"
	default:
		return "pending"
	}
}

// Config controls population size and the outlier rule.
type Config struct {
	Population   int
	MaxDeviation float64
	HistoryLimit int
}

// session is the state of the one live kind. Replacing it is the only
// way buffers and history are discarded.
type session struct {
	kind    measure.Kind
	primary []float64
	tangent []float64
	cursor  int
	filled  bool
	history []measure.Point
}

// Sampler keeps a fixed-size population for the active kind and
// produces an estimate every time the population fills.
// It is owned by the polling goroutine and is not safe for concurrent use.
type Sampler struct {
	cfg  Config
	live *session
}

// New validates cfg and returns an empty sampler.
func New(cfg Config) (*Sampler, error) {
	if cfg.Population < 2 {
		return nil, errors.New("sampler: population must be >= 2")
	}
	if cfg.MaxDeviation <= 0 {
		return nil, errors.New("sampler: max deviation must be > 0")
	}
	if cfg.HistoryLimit < 0 {
		return nil, errors.New("sampler: history limit must be >= 0")
	}
	return &Sampler{cfg: cfg}, nil
}

// Add records one sample. A kind different from the live one discards
// the live population and history first.
func (s *Sampler) Add(kind measure.Kind, at time.Time, primary, tangent float32) (measure.Estimate, Outcome) {
	if s.live == nil || s.live.kind != kind {
		s.live = s.newSession(kind)
	}
	ss := s.live

	s.appendHistory(measure.Point{At: at, Value: primary})

	ss.primary[ss.cursor] = float64(primary)
	ss.tangent[ss.cursor] = float64(tangent)

	if ss.cursor+1 < s.cfg.Population {
		ss.cursor++
		return measure.Estimate{}, Pending
	}

	ss.cursor = 0
	ss.filled = true

	mean := average(ss.primary)
	for _, x := range ss.primary {
		if math.Abs(x) > mean*s.cfg.MaxDeviation {
			return measure.Estimate{}, Rejected
		}
	}

	tmean := average(ss.tangent)
	return measure.Estimate{
		Kind:          kind,
		Mean:          mean,
		StdDev:        stddev(ss.primary, mean),
		TangentMean:   tmean,
		TangentStdDev: stddev(ss.tangent, tmean),
		Count:         len(ss.primary),
	}, Accepted
}

// Reset drops the live session.
func (s *Sampler) Reset() {
	s.live = nil
}

// Active returns the live kind and how many samples the current
// population holds.
func (s *Sampler) Active() (measure.Kind, int, bool) {
	if s.live == nil {
		return 0, 0, false
	}
	if s.live.filled {
		return s.live.kind, s.cfg.Population, true
	}
	return s.live.kind, s.live.cursor, true
}

// History returns the live kind's primary value series. The slice is
// capped at its length and its points are never modified afterwards, so
// it may be handed to other goroutines without copying.
func (s *Sampler) History() []measure.Point {
	if s.live == nil {
		return nil
	}
	h := s.live.history
	return h[:len(h):len(h)]
}

// View bundles Active and History for publication.
func (s *Sampler) View() measure.Session {
	kind, n, ok := s.Active()
	if !ok {
		return measure.Session{Size: s.cfg.Population}
	}
	return measure.Session{Kind: kind, Filled: n, Size: s.cfg.Population, History: s.History()}
}

func (s *Sampler) newSession(kind measure.Kind) *session {
	return &session{
		kind:    kind,
		primary: make([]float64, s.cfg.Population),
		tangent: make([]float64, s.cfg.Population),
	}
}

func (s *Sampler) appendHistory(p measure.Point) {
	if s.cfg.HistoryLimit == 0 {
		return
	}
	h := append(s.live.history, p)
	if over := len(h) - s.cfg.HistoryLimit; over > 0 {
		h = append(h[:0:0], h[over:]...)
	}
	s.live.history = h
}

func average(xs []float64) float64 {
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// stddev is the sample standard deviation (n-1 denominator).
func stddev(xs []float64, mean float64) float64 {
	var sq float64
	for _, x := range xs {
		d := x - mean
		sq += d * d
	}
	return math.Sqrt(sq / float64(len(xs)-1))
}

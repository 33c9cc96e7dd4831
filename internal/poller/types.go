// internal/poller/types.go
package poller

import (
	"time"

	"github.com/tamzrod/lcrmeter/internal/measure"
	"github.com/tamzrod/lcrmeter/internal/sampler"
)

// State is one step of the read chain.
type State uint8

const (
	StateIdle State = iota
	StateReadStatus
	StateReadPrimary
	StateReadTangent
	StateReadFrequency
	StateReadRange
	StateEmit
)

func (s State) String() string {
	switch s {
	case StateReadStatus:
		return "status"
	case StateReadPrimary:
		return "primary"
	case StateReadTangent:
		return "tangent"
	case StateReadFrequency:
		return "frequency"
	case StateReadRange:
		return "range"
	case StateEmit:
		return "emit"
	default:
		return "idle"
	}
}

// CycleResult is what one tick produces.
// Either Record is set, or Err is set and Aborted is true.
type CycleResult struct {
	At       time.Time
	Duration time.Duration

	Record   *measure.Record
	Estimate *measure.Estimate
	Outcome  sampler.Outcome

	// Session is the sampler's live kind after this cycle's sample.
	Session *measure.Session

	// Step is the state that failed when Aborted.
	Step    State
	Err     error
	Aborted bool
}

// WriteRequest asks the runner to write one register between ticks.
// Result, if non-nil, receives the outcome and must be buffered.
type WriteRequest struct {
	Register uint16
	Value    uint16
	Result   chan<- error
}

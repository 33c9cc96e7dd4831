// internal/measure/measure.go
package measure

import (
	"fmt"
	"time"
)

// Kind is the quantity the instrument currently reports as primary.
type Kind uint8

const (
	R Kind = iota // resistance
	L             // inductance
	C             // capacitance
	M             // mutual inductance
)

// Kinds lists every kind in register order.
var Kinds = []Kind{R, L, C, M}

func (k Kind) String() string {
	switch k {
	case R:
		return "R"
	case L:
		return "L"
	case C:
		return "C"
	case M:
		return "M"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// Unit is the SI unit of the primary value, empty for M.
func (k Kind) Unit() string {
	switch k {
	case R:
		return "Ohm"
	case L:
		return "H"
	case C:
		return "F"
	default:
		return ""
	}
}

// Equivalent-circuit tags.
const (
	Series   = "S"
	Parallel = "P"
)

// Record is one completed poll cycle. It is never mutated after
// it leaves the poller.
type Record struct {
	Seq uint64
	At  time.Time

	Circuit   string
	Frequency float32
	Kind      Kind
	Primary   float32
	Tangent   float32

	// RangeIndex is the displayed interval number (wire index + 1).
	RangeIndex int
	RangeLabel string

	Integration   bool
	Averaging     bool
	FixedRange    bool
	ChannelSelect uint8
}

// Estimate is a batch mean/standard deviation over one full population.
type Estimate struct {
	Kind          Kind
	Mean          float64
	StdDev        float64
	TangentMean   float64
	TangentStdDev float64
	Count         int
}

// Point is one entry of the primary value history.
type Point struct {
	At    time.Time
	Value float32
}

// Session is a read-only view of the sampler's live kind. History is
// shared with the sampler, which never rewrites points it has handed out.
type Session struct {
	Kind    Kind
	Filled  int // samples held by the current population
	Size    int
	History []Point
}

// internal/poller/registers.go
package poller

import (
	"github.com/tamzrod/lcrmeter/internal/frame"
	"github.com/tamzrod/lcrmeter/internal/measure"
)

// Register map. All reads use function 0x03 and one register.
const (
	RegFrequency uint16 = 120
	RegStatus    uint16 = 200
	RegRange     uint16 = 201
)

// primaryRegs holds the value and tangent register per kind.
var primaryRegs = map[measure.Kind][2]uint16{
	measure.R: {104, 106},
	measure.L: {108, 110},
	measure.C: {112, 114},
	measure.M: {116, 118},
}

func wordRead(slave byte, reg uint16) frame.Descriptor {
	return frame.Descriptor{
		Slave:            slave,
		Function:         frame.FuncReadHolding,
		Start:            reg,
		Count:            1,
		BytesPerRegister: 2,
	}
}

func floatRead(slave byte, reg uint16) frame.Descriptor {
	return frame.Descriptor{
		Slave:            slave,
		Function:         frame.FuncReadHolding,
		Start:            reg,
		Count:            1,
		BytesPerRegister: 4,
	}
}

// StatusWord is the decoded main status register.
type StatusWord struct {
	Circuit       string
	Integration   bool
	Averaging     bool
	FixedRange    bool
	ChannelSelect uint8
	Primary       measure.Kind
}

// DecodeStatus splits the status register into its fields.
func DecodeStatus(w uint16) StatusWord {
	s := StatusWord{
		Circuit:       measure.Parallel,
		Integration:   w&(1<<4) != 0,
		Averaging:     w&(1<<9) != 0,
		FixedRange:    w&(1<<8) != 0,
		ChannelSelect: uint8(w & 0x07),
		Primary:       measure.Kind(w >> 14),
	}
	if w&(1<<3) != 0 {
		s.Circuit = measure.Series
	}
	return s
}

// rangeLabels per kind, indexed by the wire range index.
// M has no interval descriptions.
var rangeLabels = map[measure.Kind][10]string{
	measure.R: {
		"10^-5 .. 1 Ohm",
		"1 .. 10 Ohm",
		"10 .. 100 Ohm",
		"100 .. 1000 Ohm",
		"1000 .. 10^4 Ohm",
		"10^4 .. 10^5 Ohm",
		"10^5 .. 10^6 Ohm",
		"10^6 .. 10^7 Ohm",
		"10^7 .. 10^8 Ohm",
		"10^8 .. 10^11 Ohm",
	},
	measure.L: {
		"10^-10 .. 16*10^-5 H",
		"16*10^-5 .. 16*10^-4 H",
		"16*10^-4 .. 16*10^-3 H",
		"16*10^-3 .. 16*10^-2 H",
		"16*10^-2 .. 1.6 H",
		"1.6 .. 16 H",
		"16 .. 160 H",
		"160 .. 16*10^2 H",
		"16*10^2 .. 16*10^3 H",
		"16*10^3 .. 1*10^8 H",
	},
	measure.C: {
		"16*10^-5 .. 10 F",
		"16*10^-5 .. 16*10^-4 F",
		"16*10^-9 .. 16*10^-4 F",
		"16*10^-9 .. 16*10^-8 F",
		"16*10^-8 .. 16*10^-7 F",
		"16*10^-12 .. 16*10^-7 F",
		"16*10^-12 .. 16*10^-11 F",
		"16*10^-11 .. 16*10^-10 F",
		"16*10^-15 .. 16*10^-10 F",
		"1*10^-16 .. 16*10^-15 F",
	},
}

// RangeLabel returns the interval text for a wire index (0..9).
// Unknown combinations yield "".
func RangeLabel(kind measure.Kind, index int) string {
	labels, ok := rangeLabels[kind]
	if !ok || index < 0 || index >= len(labels) {
		return ""
	}
	return labels[index]
}

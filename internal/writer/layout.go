// internal/writer/layout.go
package writer

import (
	"math"

	"github.com/tamzrod/lcrmeter/internal/measure"
)

// Record block layout, relative to a target's base address.
// Floats and 32-bit counters occupy two registers, high word first.
const (
	RegSeq        = 0  // 2 regs
	RegKind       = 2  // 0..3 = R,L,C,M
	RegCircuit    = 3  // 1 = series, 0 = parallel
	RegPrimary    = 4  // 2 regs float32
	RegTangent    = 6  // 2 regs float32
	RegFrequency  = 8  // 2 regs float32
	RegRangeIndex = 10 // displayed number, 1..16
	RegFlags      = 11 // bit0 integration, bit1 averaging, bit2 fixed range, bits 8..10 channel select
	RegTimestamp  = 12 // 2 regs unix seconds
	RecordRegs    = 14

	RegMean          = 14 // 2 regs float32
	RegStdDev        = 16
	RegTangentMean   = 18
	RegTangentStdDev = 20
	RegEstimateCount = 22
	EstimateRegs     = 9

	BlockRegs = RecordRegs + EstimateRegs
)

// EncodeRecord lays out rec into RecordRegs registers.
func EncodeRecord(rec *measure.Record) []uint16 {
	regs := make([]uint16, RecordRegs)

	putU32(regs[RegSeq:], uint32(rec.Seq))
	regs[RegKind] = uint16(rec.Kind)
	if rec.Circuit == measure.Series {
		regs[RegCircuit] = 1
	}
	putF32(regs[RegPrimary:], rec.Primary)
	putF32(regs[RegTangent:], rec.Tangent)
	putF32(regs[RegFrequency:], rec.Frequency)
	regs[RegRangeIndex] = uint16(rec.RangeIndex)

	var flags uint16
	if rec.Integration {
		flags |= 1 << 0
	}
	if rec.Averaging {
		flags |= 1 << 1
	}
	if rec.FixedRange {
		flags |= 1 << 2
	}
	flags |= uint16(rec.ChannelSelect&0x07) << 8
	regs[RegFlags] = flags

	putU32(regs[RegTimestamp:], uint32(rec.At.Unix()))
	return regs
}

// EncodeEstimate lays out est into EstimateRegs registers.
func EncodeEstimate(est *measure.Estimate) []uint16 {
	regs := make([]uint16, EstimateRegs)
	putF32(regs[0:], float32(est.Mean))
	putF32(regs[2:], float32(est.StdDev))
	putF32(regs[4:], float32(est.TangentMean))
	putF32(regs[6:], float32(est.TangentStdDev))
	regs[8] = uint16(est.Count)
	return regs
}

func putU32(dst []uint16, v uint32) {
	dst[0] = uint16(v >> 16)
	dst[1] = uint16(v)
}

func putF32(dst []uint16, v float32) {
	putU32(dst, math.Float32bits(v))
}

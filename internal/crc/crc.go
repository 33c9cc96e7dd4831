// internal/crc/crc.go
package crc

// Profile describes one CRC algorithm in the Rocksoft parameter model.
// Poly and Init are always given in normal (MSB-first) form, even for
// reflected profiles: the reflected engine reverses them itself.
type Profile struct {
	Name   string
	Width  int // 8 or 16
	Poly   uint16
	Init   uint16
	RefIn  bool
	RefOut bool
	XorOut uint16

	// Check is the published value over "123456789". Zero when unknown.
	Check uint16
}

// checkInput is the standard check string used by every CRC catalogue.
var checkInput = []byte("123456789")

// Compute returns the checksum of data under profile p.
// The result occupies the low p.Width bits.
func Compute(p Profile, data []byte) uint16 {
	if p.RefIn && p.RefOut {
		return shiftLSB(p, data) ^ (p.XorOut & p.mask())
	}
	return shiftMSB(p, data) ^ (p.XorOut & p.mask())
}

// CheckValue computes the checksum of the standard check input.
func (p Profile) CheckValue() uint16 {
	return Compute(p, checkInput)
}

// Verify reports whether the computed check value matches the published one.
func (p Profile) Verify() bool {
	return p.CheckValue() == p.Check
}

func (p Profile) mask() uint16 {
	if p.Width >= 16 {
		return 0xFFFF
	}
	return uint16(1)<<uint(p.Width) - 1
}

// shiftMSB is the non-reflected engine: bytes enter at the top of the
// register and the bit tested is the one leaving the MSB end.
func shiftMSB(p Profile, data []byte) uint16 {
	mask := p.mask()
	top := uint16(1) << uint(p.Width-1)
	reg := p.Init & mask

	for _, b := range data {
		if p.RefIn {
			b = reflect8(b)
		}
		reg ^= uint16(b) << uint(p.Width-8)
		for i := 0; i < 8; i++ {
			if reg&top != 0 {
				reg = (reg << 1) ^ p.Poly
			} else {
				reg <<= 1
			}
			reg &= mask
		}
	}

	if p.RefOut {
		reg = reflect(reg, p.Width)
	}
	return reg
}

// shiftLSB is the reflected engine: bytes enter at the bottom of the
// register, the polynomial is bit-reversed and the bit tested is the one
// leaving the LSB end. Output reflection is implicit.
func shiftLSB(p Profile, data []byte) uint16 {
	poly := reflect(p.Poly, p.Width)
	reg := reflect(p.Init&p.mask(), p.Width)

	for _, b := range data {
		reg ^= uint16(b)
		for i := 0; i < 8; i++ {
			if reg&0x0001 != 0 {
				reg = (reg >> 1) ^ poly
			} else {
				reg >>= 1
			}
		}
	}
	return reg & p.mask()
}

// reflect reverses the low width bits of v.
func reflect(v uint16, width int) uint16 {
	var out uint16
	for i := 0; i < width; i++ {
		if v&(1<<uint(i)) != 0 {
			out |= 1 << uint(width-1-i)
		}
	}
	return out
}

func reflect8(b byte) byte {
	return byte(reflect(uint16(b), 8))
}

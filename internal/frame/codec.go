// internal/frame/codec.go
package frame

import "github.com/tamzrod/lcrmeter/internal/crc"

// BuildRead encodes a plain register-read request:
// slave, function, start hi/lo, count hi/lo, CRC lo/hi.
func BuildRead(d Descriptor) []byte {
	return appendCRC([]byte{
		d.Slave,
		d.Function,
		byte(d.Start >> 8),
		byte(d.Start),
		byte(d.Count >> 8),
		byte(d.Count),
	})
}

// BuildWrite encodes a plain write request. The count field carries
// the value to write.
func BuildWrite(slave, function byte, register, value uint16) []byte {
	return appendCRC([]byte{
		slave,
		function,
		byte(register >> 8),
		byte(register),
		byte(value >> 8),
		byte(value),
	})
}

// appendCRC appends the Modbus CRC, low byte first.
func appendCRC(b []byte) []byte {
	sum := crc.Compute(crc.Modbus, b)
	return append(b, byte(sum), byte(sum>>8))
}

// CheckCRC reports whether the trailing two bytes of b hold the Modbus
// CRC (lo, hi) of everything before them.
func CheckCRC(b []byte) bool {
	n := len(b)
	if n < 3 {
		return false
	}
	sum := crc.Compute(crc.Modbus, b[:n-2])
	return b[n-2] == byte(sum) && b[n-1] == byte(sum>>8)
}

// internal/frame/mmk.go
package frame

import (
	"errors"
	"fmt"

	"github.com/tamzrod/lcrmeter/internal/crc"
)

// MMK framing markers.
const (
	DLE byte = 0x10
	STX byte = 0x02
	ETX byte = 0x04
)

// mmkInfoLen is the information part before the CRC.
const mmkInfoLen = 5

var (
	ErrMMKMarkers  = errors.New("frame: mmk start/end markers missing")
	ErrMMKStuffing = errors.New("frame: mmk stray unescaped marker byte")
	ErrMMKLength   = errors.New("frame: mmk payload length")
	ErrMMKChecksum = errors.New("frame: mmk checksum mismatch")
)

// BuildMMK encodes an encapsulated request. The info part is slave,
// function, address hi/lo and a one-byte register count, followed by the
// Buypass CRC (hi, lo). Payload bytes equal to DLE are doubled; the
// markers are not.
func BuildMMK(d Descriptor) []byte {
	info := []byte{
		d.Slave,
		d.Function,
		byte(d.Start >> 8),
		byte(d.Start),
		byte(d.Count),
	}
	sum := crc.Compute(crc.Buypass, info)
	return stuff(append(info, byte(sum>>8), byte(sum)))
}

// stuff wraps payload in markers, doubling every DLE inside it.
func stuff(payload []byte) []byte {
	out := make([]byte, 0, len(payload)*2+4)
	out = append(out, DLE, STX)
	for _, b := range payload {
		if b == DLE {
			out = append(out, DLE)
		}
		out = append(out, b)
	}
	return append(out, DLE, ETX)
}

// UnstuffMMK strips the markers and collapses doubled DLE bytes.
func UnstuffMMK(b []byte) ([]byte, error) {
	n := len(b)
	if n < 4 || b[0] != DLE || b[1] != STX || b[n-2] != DLE || b[n-1] != ETX {
		return nil, ErrMMKMarkers
	}

	body := b[2 : n-2]
	out := make([]byte, 0, len(body))
	for i := 0; i < len(body); i++ {
		if body[i] == DLE {
			if i+1 >= len(body) || body[i+1] != DLE {
				return nil, ErrMMKStuffing
			}
			i++
		}
		out = append(out, body[i])
	}
	return out, nil
}

// ParseMMKRequest decodes an encapsulated request back into its
// descriptor fields and verifies the Buypass CRC. BytesPerRegister is
// left zero; the wire format does not carry it.
func ParseMMKRequest(b []byte) (Descriptor, error) {
	payload, err := UnstuffMMK(b)
	if err != nil {
		return Descriptor{}, err
	}
	if len(payload) != mmkInfoLen+2 {
		return Descriptor{}, fmt.Errorf("%w: got %d bytes", ErrMMKLength, len(payload))
	}

	sum := crc.Compute(crc.Buypass, payload[:mmkInfoLen])
	if payload[5] != byte(sum>>8) || payload[6] != byte(sum) {
		return Descriptor{}, ErrMMKChecksum
	}

	return Descriptor{
		Slave:    payload[0],
		Function: payload[1],
		Start:    uint16(payload[2])<<8 | uint16(payload[3]),
		Count:    uint16(payload[4]),
	}, nil
}

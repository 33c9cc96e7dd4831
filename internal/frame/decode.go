// internal/frame/decode.go
package frame

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Float32 decodes the first four data bytes as an IEEE-754 value sent
// most significant byte first.
func Float32(payload []byte) (float32, error) {
	if len(payload) < 4 {
		return 0, fmt.Errorf("frame: float payload needs 4 bytes, got %d", len(payload))
	}
	return math.Float32frombits(binary.BigEndian.Uint32(payload[:4])), nil
}

// Uint16 decodes the first two data bytes, most significant first.
func Uint16(payload []byte) (uint16, error) {
	if len(payload) < 2 {
		return 0, fmt.Errorf("frame: word payload needs 2 bytes, got %d", len(payload))
	}
	return binary.BigEndian.Uint16(payload[:2]), nil
}

// internal/frame/validate.go
package frame

import "github.com/tamzrod/lcrmeter/internal/fault"

// Exception codes that classify a short reply.
const (
	excUnsupportedFunction byte = 81
	excUnsupportedAddress  byte = 82
)

// Validate checks a raw reply against the request that produced it and
// returns the data bytes. Checks run in a fixed order and stop at the
// first failure. raw is never modified.
func Validate(raw []byte, d Descriptor) ([]byte, error) {
	n := len(raw)

	if n < 5 {
		return nil, fail(fault.FrameTooShort, fault.SubNone, raw)
	}

	if !CheckCRC(raw) {
		return nil, fail(fault.CrcMismatch, fault.SubNone, raw)
	}

	if raw[0] != d.Slave {
		return nil, fail(fault.AddressMismatch, fault.SubNone, raw)
	}

	if n != d.ExpectedTotal() {
		switch raw[1] {
		case excUnsupportedFunction:
			return nil, fail(fault.ByteCountMismatch, fault.UnsupportedFunction, raw)
		case excUnsupportedAddress:
			return nil, fail(fault.ByteCountMismatch, fault.UnsupportedAddress, raw)
		default:
			return nil, fail(fault.ByteCountMismatch, fault.UnspecifiedSlaveError, raw)
		}
	}

	if raw[1] != d.Function || int(raw[2]) != d.ExpectedData() {
		return nil, fail(fault.FunctionOrCountMismatch, fault.SubNone, raw)
	}

	return raw[3 : n-2], nil
}

func fail(kind fault.Kind, sub fault.Sub, raw []byte) error {
	e := fault.New(kind, nil).WithRaw(raw)
	e.Sub = sub
	return e
}

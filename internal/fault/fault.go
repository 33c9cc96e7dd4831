// internal/fault/fault.go
package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a failed exchange with the meter.
type Kind uint8

const (
	None Kind = iota
	PortOpenFailure
	WriteTimeout
	NoResponse
	FrameTooShort
	CrcMismatch
	AddressMismatch
	ByteCountMismatch
	FunctionOrCountMismatch
)

func (k Kind) String() string {
	switch k {
	case None:
		return "none"
	case PortOpenFailure:
		return "port_open_failure"
	case WriteTimeout:
		return "write_timeout"
	case NoResponse:
		return "no_response"
	case FrameTooShort:
		return "frame_too_short"
	case CrcMismatch:
		return "crc_mismatch"
	case AddressMismatch:
		return "address_mismatch"
	case ByteCountMismatch:
		return "byte_count_mismatch"
	case FunctionOrCountMismatch:
		return "function_or_count_mismatch"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Sub refines ByteCountMismatch using the exception code in the reply.
type Sub uint8

const (
	SubNone Sub = iota
	UnsupportedFunction
	UnsupportedAddress
	UnspecifiedSlaveError
)

func (s Sub) String() string {
	switch s {
	case UnsupportedFunction:
		return "unsupported function"
	case UnsupportedAddress:
		return "unsupported address"
	case UnspecifiedSlaveError:
		return "unspecified slave error"
	default:
		return ""
	}
}

// Error is the single error type produced by the transport and validator.
// Raw carries the received bytes when there were any.
type Error struct {
	Kind Kind
	Sub  Sub
	Step string
	Raw  []byte
	Err  error
}

func (e *Error) Error() string {
	msg := e.Kind.String()
	if e.Sub != SubNone {
		msg += " (" + e.Sub.String() + ")"
	}
	if e.Step != "" {
		msg = e.Step + ": " + msg
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if len(e.Raw) > 0 {
		msg += fmt.Sprintf(" [% X]", e.Raw)
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Code is the numeric value published into the status block.
// Kinds map to 1..8; the sub-kind occupies the high byte.
func (e *Error) Code() uint16 {
	return uint16(e.Sub)<<8 | uint16(e.Kind)
}

// New builds an Error for kind, wrapping cause when non-nil.
func New(kind Kind, cause error) *Error {
	return &Error{Kind: kind, Err: cause}
}

// WithRaw returns a copy of e carrying a copy of raw.
func (e *Error) WithRaw(raw []byte) *Error {
	c := *e
	c.Raw = append([]byte(nil), raw...)
	return &c
}

// WithStep returns a copy of e tagged with the poll step that failed.
func (e *Error) WithStep(step string) *Error {
	c := *e
	c.Step = step
	return &c
}

// KindOf extracts the Kind from any error chain. Non-fault errors
// report None.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return None
}

// Is reports whether err is a fault of the given kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// internal/poller/line/port.go
package line

import (
	"errors"
	"fmt"
	"time"

	gbserial "github.com/goburrow/serial"
	"go.bug.st/serial"
)

// Port is the serial line as seen by the transport.
// Read returns (0, nil) when nothing is pending.
type Port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error

	// ResetOutputBuffer discards bytes queued but not yet sent.
	ResetOutputBuffer() error
}

// Opener opens the line described by cfg.
type Opener func(cfg Config) (Port, error)

// Supported drivers.
const (
	DriverBugst    = "bugst"
	DriverGoburrow = "goburrow"
)

// OpenerFor returns the opener for a driver name. Empty selects bugst.
func OpenerFor(driver string) (Opener, error) {
	switch driver {
	case "", DriverBugst:
		return openBugst, nil
	case DriverGoburrow:
		return openGoburrow, nil
	default:
		return nil, fmt.Errorf("line: unknown serial driver %q", driver)
	}
}

// ------------------------------------------------------------
// go.bug.st/serial
// ------------------------------------------------------------

func openBugst(cfg Config) (Port, error) {
	p, err := serial.Open(cfg.Port, &serial.Mode{
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	})
	if err != nil {
		return nil, err
	}
	if err := p.SetReadTimeout(cfg.ReadTimeout); err != nil {
		p.Close()
		return nil, err
	}
	return p, nil
}

// ------------------------------------------------------------
// github.com/goburrow/serial
// ------------------------------------------------------------

type goburrowPort struct {
	gbserial.Port
}

func openGoburrow(cfg Config) (Port, error) {
	p, err := gbserial.Open(&gbserial.Config{
		Address:  cfg.Port,
		BaudRate: cfg.BaudRate,
		DataBits: 8,
		StopBits: 1,
		Parity:   "N",
		Timeout:  cfg.ReadTimeout,
	})
	if err != nil {
		return nil, err
	}
	return &goburrowPort{Port: p}, nil
}

func (p *goburrowPort) Read(b []byte) (int, error) {
	n, err := p.Port.Read(b)
	if errors.Is(err, gbserial.ErrTimeout) {
		return n, nil
	}
	return n, err
}

// The goburrow driver has no output flush; nothing is buffered on
// our side between writes.
func (p *goburrowPort) ResetOutputBuffer() error { return nil }

// SilentIntervalFor returns the pause the device needs between the end
// of a request and the start of processing at the given baud rate.
func SilentIntervalFor(baud int) time.Duration {
	switch {
	case baud == 19200:
		return time.Millisecond
	case baud == 9600 || baud > 19200:
		return 2 * time.Millisecond
	default:
		return time.Millisecond
	}
}

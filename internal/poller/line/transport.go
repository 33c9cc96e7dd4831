// internal/poller/line/transport.go
package line

import (
	"context"
	"errors"
	"time"

	"github.com/tamzrod/lcrmeter/internal/fault"
)

// Config is the resolved line configuration.
// Framing is fixed: 8 data bits, no parity, one stop bit, no handshake.
type Config struct {
	Port     string
	BaudRate int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ResponseTimeout time.Duration
	SettleDelay     time.Duration
	SilentInterval  time.Duration
}

// maxReply bounds how much is kept per exchange. Bytes beyond it are
// read and discarded, up to maxDrain in total.
const (
	maxReply = 512
	maxDrain = 8 * maxReply
)

var errWriteStuck = errors.New("line: previous write still in progress")

// Transport owns the serial line. It is not safe for concurrent use:
// exactly one poller drives it.
type Transport struct {
	cfg  Config
	open Opener
	port Port

	// pending is the result of a write that outlived its timeout.
	// No new write starts until it has reported.
	pending chan error

	// Sleep is replaceable in tests.
	Sleep func(time.Duration)
}

// New returns a transport; the line is opened lazily on first use.
func New(cfg Config, open Opener) *Transport {
	if cfg.SilentInterval == 0 {
		cfg.SilentInterval = SilentIntervalFor(cfg.BaudRate)
	}
	if cfg.WriteTimeout <= 0 {
		cfg.WriteTimeout = 100 * time.Millisecond
	}
	return &Transport{
		cfg:   cfg,
		open:  open,
		Sleep: time.Sleep,
	}
}

// Send performs the write half of an exchange: open, flush, settle,
// write, silent interval. No reply is read.
func (t *Transport) Send(ctx context.Context, frame []byte) error {
	if err := t.awaitPending(); err != nil {
		return err
	}
	if t.port == nil {
		p, err := t.open(t.cfg)
		if err != nil {
			return fault.New(fault.PortOpenFailure, err)
		}
		t.port = p
	}

	// stale output is not an error worth aborting for
	_ = t.port.ResetOutputBuffer()

	t.Sleep(t.cfg.SettleDelay)

	if err := t.write(ctx, frame); err != nil {
		return err
	}

	t.Sleep(t.cfg.SilentInterval)
	return nil
}

// SendAndAwait performs a full exchange: Send, then wait the fixed
// response timeout and take whatever has arrived as one buffer.
func (t *Transport) SendAndAwait(ctx context.Context, frame []byte) ([]byte, error) {
	if err := t.Send(ctx, frame); err != nil {
		return nil, err
	}

	t.Sleep(t.cfg.ResponseTimeout)

	raw, err := t.drain()
	if len(raw) == 0 {
		return nil, fault.New(fault.NoResponse, err)
	}
	return raw, nil
}

// Close releases the line. A later Send reopens it.
func (t *Transport) Close() error {
	if t.port == nil {
		return nil
	}
	err := t.port.Close()
	t.port = nil
	return err
}

// write runs the blocking write with a deadline. On timeout the port
// is closed so the stuck Write can return, and the write is kept as
// pending until it does.
func (t *Transport) write(ctx context.Context, frame []byte) error {
	wctx, cancel := context.WithTimeout(ctx, t.cfg.WriteTimeout)
	defer cancel()

	port := t.port
	done := make(chan error, 1)
	go func() {
		_, err := port.Write(frame)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			return fault.New(fault.WriteTimeout, err)
		}
		return nil
	case <-wctx.Done():
		t.pending = done
		_ = t.port.Close()
		t.port = nil
		return fault.New(fault.WriteTimeout, wctx.Err())
	}
}

// awaitPending waits up to one write timeout for an abandoned write.
func (t *Transport) awaitPending() error {
	if t.pending == nil {
		return nil
	}
	timer := time.NewTimer(t.cfg.WriteTimeout)
	defer timer.Stop()

	select {
	case <-t.pending:
		t.pending = nil
		return nil
	case <-timer.C:
		return fault.New(fault.WriteTimeout, errWriteStuck)
	}
}

// drain reads until the port reports nothing pending. Only the first
// maxReply bytes are kept.
func (t *Transport) drain() ([]byte, error) {
	out := make([]byte, 0, 64)
	buf := make([]byte, 64)
	for total := 0; total < maxDrain; {
		n, err := t.port.Read(buf)
		total += n
		if room := maxReply - len(out); room > 0 {
			out = append(out, buf[:min(n, room)]...)
		}
		if err != nil {
			return out, err
		}
		if n == 0 {
			break
		}
	}
	return out, nil
}

// internal/poller/poller.go
package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/tamzrod/lcrmeter/internal/fault"
	"github.com/tamzrod/lcrmeter/internal/frame"
	"github.com/tamzrod/lcrmeter/internal/measure"
	"github.com/tamzrod/lcrmeter/internal/sampler"
)

// Transport abstracts the serial line.
type Transport interface {
	Send(ctx context.Context, frame []byte) error
	SendAndAwait(ctx context.Context, frame []byte) ([]byte, error)
}

// Sampler receives every emitted record.
type Sampler interface {
	Add(kind measure.Kind, at time.Time, primary, tangent float32) (measure.Estimate, sampler.Outcome)
	Reset()
	View() measure.Session
}

// Observer sees raw traffic. Implementations must not retain the slices.
type Observer interface {
	Request(step State, b []byte)
	Response(step State, b []byte)
}

type nopObserver struct{}

func (nopObserver) Request(State, []byte)  {}
func (nopObserver) Response(State, []byte) {}

// Config is the minimal runtime config the poller needs.
type Config struct {
	Slave    byte
	Variant  frame.Variant
	Interval time.Duration
}

// Poller runs the read chain once per tick.
// It is the only user of its transport.
type Poller struct {
	cfg     Config
	tr      Transport
	sampler Sampler
	obs     Observer

	seq      uint64
	lastKind measure.Kind
	haveKind bool

	now func() time.Time
}

// New creates a poller with immutable config.
func New(cfg Config, tr Transport, smp Sampler) (*Poller, error) {
	if cfg.Interval <= 0 {
		return nil, errors.New("poller: interval must be > 0")
	}
	if tr == nil {
		return nil, errors.New("poller: transport required")
	}
	switch cfg.Variant {
	case "":
		cfg.Variant = frame.VariantRTU
	case frame.VariantRTU, frame.VariantMMK:
	default:
		return nil, fmt.Errorf("poller: unknown variant %q", cfg.Variant)
	}
	return &Poller{
		cfg:     cfg,
		tr:      tr,
		sampler: smp,
		obs:     nopObserver{},
		now:     time.Now,
	}, nil
}

// SetObserver installs a traffic observer. Nil restores the no-op one.
func (p *Poller) SetObserver(o Observer) {
	if o == nil {
		o = nopObserver{}
	}
	p.obs = o
}

// cycle collects decoded values during one pass.
type cycle struct {
	slave  byte
	status StatusWord
	prim   float32
	tan    float32
	freq   float32
	rng    int
}

// transition consumes the payload of the current state and names the
// next state with the request it needs.
type transition func(c *cycle, payload []byte) (State, frame.Descriptor, error)

var transitions = map[State]transition{
	StateReadStatus: func(c *cycle, payload []byte) (State, frame.Descriptor, error) {
		w, err := frame.Uint16(payload)
		if err != nil {
			return 0, frame.Descriptor{}, err
		}
		c.status = DecodeStatus(w)
		return StateReadPrimary, floatRead(c.slave, primaryRegs[c.status.Primary][0]), nil
	},
	StateReadPrimary: func(c *cycle, payload []byte) (State, frame.Descriptor, error) {
		v, err := frame.Float32(payload)
		if err != nil {
			return 0, frame.Descriptor{}, err
		}
		c.prim = v
		return StateReadTangent, floatRead(c.slave, primaryRegs[c.status.Primary][1]), nil
	},
	StateReadTangent: func(c *cycle, payload []byte) (State, frame.Descriptor, error) {
		v, err := frame.Float32(payload)
		if err != nil {
			return 0, frame.Descriptor{}, err
		}
		c.tan = v
		return StateReadFrequency, floatRead(c.slave, RegFrequency), nil
	},
	StateReadFrequency: func(c *cycle, payload []byte) (State, frame.Descriptor, error) {
		v, err := frame.Float32(payload)
		if err != nil {
			return 0, frame.Descriptor{}, err
		}
		c.freq = v
		return StateReadRange, wordRead(c.slave, RegRange), nil
	},
	StateReadRange: func(c *cycle, payload []byte) (State, frame.Descriptor, error) {
		w, err := frame.Uint16(payload)
		if err != nil {
			return 0, frame.Descriptor{}, err
		}
		c.rng = int(w & 0x0F)
		return StateEmit, frame.Descriptor{}, nil
	},
}

// Tick performs exactly one poll cycle.
// All-or-nothing: any failure aborts the cycle and nothing is emitted.
func (p *Poller) Tick(ctx context.Context) CycleResult {
	start := p.now()
	res := CycleResult{At: start}

	c := &cycle{slave: p.cfg.Slave}
	state, d := StateReadStatus, wordRead(c.slave, RegStatus)

	for state != StateEmit {
		if err := ctx.Err(); err != nil {
			return p.abort(res, state, err, start)
		}

		payload, err := p.exchange(ctx, state, d)
		if err != nil {
			return p.abort(res, state, err, start)
		}

		next, nd, err := transitions[state](c, payload)
		if err != nil {
			return p.abort(res, state, err, start)
		}
		state, d = next, nd
	}

	p.emit(&res, c)
	res.Duration = p.now().Sub(start)
	return res
}

// exchange sends one request and validates its reply.
func (p *Poller) exchange(ctx context.Context, state State, d frame.Descriptor) ([]byte, error) {
	req, err := frame.Build(p.cfg.Variant, d)
	if err != nil {
		return nil, err
	}
	p.obs.Request(state, req)

	raw, err := p.tr.SendAndAwait(ctx, req)
	if err != nil {
		return nil, err
	}
	p.obs.Response(state, raw)

	return frame.Validate(raw, d)
}

func (p *Poller) emit(res *CycleResult, c *cycle) {
	kind := c.status.Primary
	if p.haveKind && p.lastKind != kind && p.sampler != nil {
		p.sampler.Reset()
	}
	p.lastKind, p.haveKind = kind, true

	p.seq++
	rec := &measure.Record{
		Seq:           p.seq,
		At:            res.At,
		Circuit:       c.status.Circuit,
		Frequency:     c.freq,
		Kind:          kind,
		Primary:       c.prim,
		Tangent:       c.tan,
		RangeIndex:    c.rng + 1,
		RangeLabel:    RangeLabel(kind, c.rng),
		Integration:   c.status.Integration,
		Averaging:     c.status.Averaging,
		FixedRange:    c.status.FixedRange,
		ChannelSelect: c.status.ChannelSelect,
	}
	res.Record = rec

	if p.sampler == nil {
		return
	}
	est, outcome := p.sampler.Add(kind, rec.At, rec.Primary, rec.Tangent)
	res.Outcome = outcome
	if outcome == sampler.Accepted {
		res.Estimate = &est
	}
	view := p.sampler.View()
	res.Session = &view
}

func (p *Poller) abort(res CycleResult, state State, err error, start time.Time) CycleResult {
	var fe *fault.Error
	if errors.As(err, &fe) {
		err = fe.WithStep(state.String())
	} else {
		err = fmt.Errorf("poller: %s: %w", state, err)
	}
	res.Step = state
	res.Err = err
	res.Aborted = true
	res.Duration = p.now().Sub(start)
	return res
}

// Write sends a single-register write and does not wait for a reply.
// It must be called from the goroutine that drives Tick.
func (p *Poller) Write(ctx context.Context, register, value uint16) error {
	req := frame.BuildWrite(p.cfg.Slave, frame.FuncWriteSingle, register, value)
	p.obs.Request(StateIdle, req)
	return p.tr.Send(ctx, req)
}

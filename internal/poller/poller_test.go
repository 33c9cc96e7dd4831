// internal/poller/poller_test.go
package poller

import (
	"context"
	"encoding/binary"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/tamzrod/lcrmeter/internal/crc"
	"github.com/tamzrod/lcrmeter/internal/fault"
	"github.com/tamzrod/lcrmeter/internal/frame"
	"github.com/tamzrod/lcrmeter/internal/measure"
	"github.com/tamzrod/lcrmeter/internal/sampler"
)

// fakeDevice answers register reads the way the meter does.
type fakeDevice struct {
	slave  byte
	status uint16
	rng    uint16
	floats map[uint16]float32

	failAt  uint16
	garbage bool

	requests [][]byte
	sent     [][]byte
}

func newDevice(status, rng uint16) *fakeDevice {
	return &fakeDevice{
		slave:  0x0A,
		status: status,
		rng:    rng,
		floats: map[uint16]float32{
			104: 12.5, 106: 0.002,
			108: 0.001, 110: 0.02,
			112: 1e-9, 114: 0.0005,
			116: 0.3, 118: 0.1,
			120: 1000,
		},
	}
}

func reply(b ...byte) []byte {
	sum := crc.Compute(crc.Modbus, b)
	return append(b, byte(sum), byte(sum>>8))
}

func (d *fakeDevice) register(req []byte) uint16 {
	if req[0] == frame.DLE {
		desc, err := frame.ParseMMKRequest(req)
		if err != nil {
			return 0xFFFF
		}
		return desc.Start
	}
	return binary.BigEndian.Uint16(req[2:4])
}

func (d *fakeDevice) Send(_ context.Context, b []byte) error {
	d.sent = append(d.sent, append([]byte(nil), b...))
	return nil
}

func (d *fakeDevice) SendAndAwait(_ context.Context, req []byte) ([]byte, error) {
	d.requests = append(d.requests, append([]byte(nil), req...))
	reg := d.register(req)

	if d.failAt != 0 && reg == d.failAt {
		if d.garbage {
			return []byte{0x0A, 0x03, 0x04, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, nil
		}
		return nil, fault.New(fault.NoResponse, nil)
	}

	switch reg {
	case RegStatus:
		return reply(d.slave, 0x03, 0x02, byte(d.status>>8), byte(d.status)), nil
	case RegRange:
		return reply(d.slave, 0x03, 0x02, byte(d.rng>>8), byte(d.rng)), nil
	}
	v, ok := d.floats[reg]
	if !ok {
		return reply(d.slave, 82, 0x02), nil
	}
	bits := math.Float32bits(v)
	return reply(d.slave, 0x03, 0x04, byte(bits>>24), byte(bits>>16), byte(bits>>8), byte(bits)), nil
}

type countingSampler struct {
	adds   int
	resets int
	kinds  []measure.Kind
}

func (s *countingSampler) Add(kind measure.Kind, _ time.Time, _, _ float32) (measure.Estimate, sampler.Outcome) {
	s.adds++
	s.kinds = append(s.kinds, kind)
	return measure.Estimate{}, sampler.Pending
}

func (s *countingSampler) Reset() { s.resets++ }

func (s *countingSampler) View() measure.Session {
	if len(s.kinds) == 0 {
		return measure.Session{}
	}
	return measure.Session{Kind: s.kinds[len(s.kinds)-1], Filled: s.adds}
}

func newPoller(t *testing.T, tr Transport, smp Sampler, variant frame.Variant) *Poller {
	t.Helper()
	p, err := New(Config{Slave: 0x0A, Variant: variant, Interval: time.Second}, tr, smp)
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}
	return p
}

func TestNew_Validation(t *testing.T) {
	dev := newDevice(0, 0)
	if _, err := New(Config{Slave: 1}, dev, nil); err == nil {
		t.Fatalf("expected error for zero interval")
	}
	if _, err := New(Config{Slave: 1, Interval: time.Second}, nil, nil); err == nil {
		t.Fatalf("expected error for nil transport")
	}
	if _, err := New(Config{Slave: 1, Interval: time.Second, Variant: "ascii"}, dev, nil); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}

func TestTick_FullCycle(t *testing.T) {
	dev := newDevice(0x0008, 0x0002) // R, series, range index 2
	smp := &countingSampler{}
	p := newPoller(t, dev, smp, frame.VariantRTU)

	res := p.Tick(context.Background())
	if res.Err != nil || res.Aborted {
		t.Fatalf("Tick err=%v", res.Err)
	}

	rec := res.Record
	if rec == nil {
		t.Fatalf("expected record")
	}
	if rec.Circuit != "S" || rec.Kind != measure.R || rec.RangeIndex != 3 {
		t.Fatalf("unexpected record %+v", rec)
	}
	if rec.Primary != 12.5 || rec.Tangent != 0.002 || rec.Frequency != 1000 {
		t.Fatalf("unexpected values %+v", rec)
	}
	if rec.RangeLabel != "10 .. 100 Ohm" {
		t.Fatalf("unexpected label %q", rec.RangeLabel)
	}
	if rec.Seq != 1 {
		t.Fatalf("expected seq 1, got %d", rec.Seq)
	}
	if smp.adds != 1 {
		t.Fatalf("expected sampler called once, got %d", smp.adds)
	}
	if res.Session == nil || res.Session.Kind != measure.R || res.Session.Filled != 1 {
		t.Fatalf("expected session view published, got %+v", res.Session)
	}

	wantRegs := []uint16{RegStatus, 104, 106, RegFrequency, RegRange}
	if len(dev.requests) != len(wantRegs) {
		t.Fatalf("expected %d requests, got %d", len(wantRegs), len(dev.requests))
	}
	for i, r := range wantRegs {
		if got := dev.register(dev.requests[i]); got != r {
			t.Fatalf("request %d: expected register %d, got %d", i, r, got)
		}
	}
}

func TestTick_MMKVariant(t *testing.T) {
	dev := newDevice(0xC000, 0) // M
	p := newPoller(t, dev, &countingSampler{}, frame.VariantMMK)

	res := p.Tick(context.Background())
	if res.Err != nil {
		t.Fatalf("Tick err=%v", res.Err)
	}
	if res.Record.Kind != measure.M || res.Record.RangeLabel != "" {
		t.Fatalf("unexpected record %+v", res.Record)
	}
	for _, req := range dev.requests {
		if req[0] != frame.DLE || req[1] != frame.STX {
			t.Fatalf("expected mmk framing, got % X", req)
		}
	}
}

func TestTick_AbortsOnFailure(t *testing.T) {
	dev := newDevice(0x0000, 0)
	dev.failAt = 106
	smp := &countingSampler{}
	p := newPoller(t, dev, smp, frame.VariantRTU)

	res := p.Tick(context.Background())
	if !res.Aborted || res.Record != nil {
		t.Fatalf("expected aborted cycle, got %+v", res)
	}
	if res.Step != StateReadTangent {
		t.Fatalf("expected tangent step, got %v", res.Step)
	}
	if !fault.Is(res.Err, fault.NoResponse) {
		t.Fatalf("expected NoResponse, got %v", res.Err)
	}
	if smp.adds != 0 {
		t.Fatalf("expected sampler untouched")
	}
	if len(dev.requests) != 3 {
		t.Fatalf("expected no retry, got %d requests", len(dev.requests))
	}

	// next tick starts over from status
	dev.failAt = 0
	res = p.Tick(context.Background())
	if res.Err != nil || res.Record.Seq != 1 {
		t.Fatalf("expected clean second cycle, got %+v", res)
	}
	if dev.register(dev.requests[3]) != RegStatus {
		t.Fatalf("expected chain to restart at status")
	}
}

func TestTick_ValidationFailure(t *testing.T) {
	dev := newDevice(0x0000, 0)
	dev.failAt = RegFrequency
	dev.garbage = true
	p := newPoller(t, dev, nil, frame.VariantRTU)

	res := p.Tick(context.Background())
	if !fault.Is(res.Err, fault.CrcMismatch) {
		t.Fatalf("expected CrcMismatch, got %v", res.Err)
	}
	if res.Step != StateReadFrequency {
		t.Fatalf("expected frequency step, got %v", res.Step)
	}
}

func TestTick_ChannelSwitchResetsSampler(t *testing.T) {
	dev := newDevice(0x0000, 0) // R
	smp, err := sampler.New(sampler.Config{Population: 3, MaxDeviation: 1.01, HistoryLimit: 10})
	if err != nil {
		t.Fatalf("sampler.New err=%v", err)
	}
	p := newPoller(t, dev, smp, frame.VariantRTU)

	p.Tick(context.Background())
	p.Tick(context.Background())
	if k, n, _ := smp.Active(); k != measure.R || n != 2 {
		t.Fatalf("expected 2 R samples, got %v %d", k, n)
	}

	dev.status = 0x4000 // L
	p.Tick(context.Background())
	if k, n, _ := smp.Active(); k != measure.L || n != 1 {
		t.Fatalf("expected fresh L population, got %v %d", k, n)
	}

	dev.status = 0x0000
	p.Tick(context.Background())
	if k, n, _ := smp.Active(); k != measure.R || n != 1 {
		t.Fatalf("expected R to restart from empty, got %v %d", k, n)
	}
}

func TestTick_ResetCalledOnSwitch(t *testing.T) {
	dev := newDevice(0x0000, 0)
	smp := &countingSampler{}
	p := newPoller(t, dev, smp, frame.VariantRTU)

	p.Tick(context.Background())
	p.Tick(context.Background())
	dev.status = 0x8000 // C
	p.Tick(context.Background())

	if smp.resets != 1 {
		t.Fatalf("expected one reset, got %d", smp.resets)
	}
}

func TestWrite_NoReply(t *testing.T) {
	dev := newDevice(0, 0)
	p := newPoller(t, dev, nil, frame.VariantMMK)

	if err := p.Write(context.Background(), 300, 0x0102); err != nil {
		t.Fatalf("Write err=%v", err)
	}
	if len(dev.requests) != 0 || len(dev.sent) != 1 {
		t.Fatalf("expected one send without await")
	}
	w := dev.sent[0]
	if w[0] != 0x0A || w[1] != frame.FuncWriteSingle || !frame.CheckCRC(w) {
		t.Fatalf("unexpected write frame % X", w)
	}
}

func TestDecodeStatus(t *testing.T) {
	s := DecodeStatus(0b1100_0011_0001_0101)
	if s.Primary != measure.M || s.Circuit != measure.Parallel {
		t.Fatalf("unexpected kind/circuit %+v", s)
	}
	if !s.Integration || !s.Averaging || !s.FixedRange || s.ChannelSelect != 5 {
		t.Fatalf("unexpected flags %+v", s)
	}
}

func TestRangeLabel_Bounds(t *testing.T) {
	if RangeLabel(measure.C, 9) == "" {
		t.Fatalf("expected label for C index 9")
	}
	if RangeLabel(measure.R, 10) != "" || RangeLabel(measure.M, 0) != "" {
		t.Fatalf("expected empty labels outside table")
	}
}

func TestRun_EmitsAndWrites(t *testing.T) {
	dev := newDevice(0x0008, 1)
	p, err := New(Config{Slave: 0x0A, Interval: 5 * time.Millisecond}, dev, &countingSampler{})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan CycleResult)
	writes := make(chan WriteRequest, 1)
	done := make(chan struct{})
	go func() {
		p.Run(ctx, out, writes)
		close(done)
	}()

	result := make(chan error, 1)
	writes <- WriteRequest{Register: 10, Value: 1, Result: result}
	if err := <-result; err != nil {
		t.Fatalf("write err=%v", err)
	}

	select {
	case res := <-out:
		if res.Record == nil {
			t.Fatalf("expected record, got err=%v", res.Err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for cycle")
	}

	cancel()
	for range out {
	}
	<-done
}

// cancelOnFirst cancels the run context from inside the first exchange.
type cancelOnFirst struct {
	*fakeDevice
	cancel context.CancelFunc
	once   sync.Once
}

func (c *cancelOnFirst) SendAndAwait(ctx context.Context, req []byte) ([]byte, error) {
	c.once.Do(c.cancel)
	return c.fakeDevice.SendAndAwait(ctx, req)
}

func TestRun_DeliversCycleInFlightAtCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	tr := &cancelOnFirst{fakeDevice: newDevice(0x0008, 1), cancel: cancel}
	p, err := New(Config{Slave: 0x0A, Interval: 5 * time.Millisecond}, tr, &countingSampler{})
	if err != nil {
		t.Fatalf("New() err=%v", err)
	}

	out := make(chan CycleResult)
	go p.Run(ctx, out, nil)

	select {
	case res, ok := <-out:
		if !ok || res.Record == nil || res.Aborted {
			t.Fatalf("expected completed record, got ok=%v %+v", ok, res)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timeout waiting for cycle")
	}

	select {
	case _, ok := <-out:
		if ok {
			t.Fatalf("expected no further cycles after cancel")
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected out closed after cancel")
	}
}

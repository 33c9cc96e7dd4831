// internal/status/status_test.go
package status

import "testing"

func TestTracker_ErrorThenRecovery(t *testing.T) {
	tr := NewTracker()
	if tr.Snapshot().Health != HealthUnknown || tr.Snapshot().ActiveKind != NoKind {
		t.Fatalf("unexpected boot snapshot %+v", tr.Snapshot())
	}

	// unknown counts as not healthy
	if !tr.Second() {
		t.Fatalf("expected seconds to tick before first success")
	}

	tr.Failure(0x0207)
	tr.Second()
	s := tr.Snapshot()
	if s.Health != HealthError || s.LastErrorCode != 0x0207 || s.SecondsInError != 2 || s.Faults != 1 {
		t.Fatalf("unexpected error snapshot %+v", s)
	}

	tr.Success(2)
	s = tr.Snapshot()
	if s.Health != HealthOK || s.LastErrorCode != 0 || s.SecondsInError != 0 || s.ActiveKind != 2 || s.Cycles != 1 {
		t.Fatalf("unexpected recovered snapshot %+v", s)
	}
	if tr.Second() {
		t.Fatalf("expected no tick while healthy")
	}
}

func TestTracker_FailureCodeZero(t *testing.T) {
	tr := NewTracker()
	tr.Failure(0)
	if tr.Snapshot().LastErrorCode != 1 {
		t.Fatalf("expected generic code 1, got %d", tr.Snapshot().LastErrorCode)
	}
}

func TestTracker_SecondsSaturate(t *testing.T) {
	tr := &Tracker{snap: Snapshot{Health: HealthError, SecondsInError: 0xFFFF}}
	if tr.Second() || tr.Snapshot().SecondsInError != 0xFFFF {
		t.Fatalf("expected seconds to saturate")
	}
}

func TestEncode_Counters(t *testing.T) {
	regs := Encode(Snapshot{Cycles: 0x00012345, Faults: 7})
	if len(regs) != SlotsPerDevice {
		t.Fatalf("expected %d regs, got %d", SlotsPerDevice, len(regs))
	}
	if regs[SlotCyclesHi] != 0x0001 || regs[SlotCyclesLo] != 0x2345 || regs[SlotFaultsLo] != 7 {
		t.Fatalf("unexpected counters % X", regs)
	}
}

func TestEncodeName(t *testing.T) {
	regs := EncodeName("LCR\x01")
	if regs[0] != uint16('L')<<8|uint16('C') || regs[1] != uint16('R')<<8|uint16('?') {
		t.Fatalf("unexpected name regs % X", regs)
	}
	for _, r := range regs[2:] {
		if r != 0 {
			t.Fatalf("expected zero padding, got % X", regs)
		}
	}
}

// internal/status/snapshot.go
package status

// Snapshot represents exactly what the status writer is allowed to deliver.
type Snapshot struct {
	Health         uint16
	LastErrorCode  uint16
	SecondsInError uint16
	ActiveKind     uint16
	Cycles         uint32
	Faults         uint32
}

// Initial is the boot-state snapshot.
func Initial() Snapshot {
	return Snapshot{Health: HealthUnknown, ActiveKind: NoKind}
}

// Tracker derives the snapshot from cycle outcomes and a 1 Hz clock.
// It is owned by a single goroutine.
type Tracker struct {
	snap Snapshot
}

// NewTracker starts in the boot state.
func NewTracker() *Tracker {
	return &Tracker{snap: Initial()}
}

// Snapshot returns the current state.
func (t *Tracker) Snapshot() Snapshot { return t.snap }

// Success records a completed cycle for the given kind.
func (t *Tracker) Success(kind uint16) {
	t.snap.Health = HealthOK
	t.snap.LastErrorCode = 0
	t.snap.SecondsInError = 0
	t.snap.ActiveKind = kind
	t.snap.Cycles++
}

// Failure records an aborted cycle. Code 0 is reported as 1.
func (t *Tracker) Failure(code uint16) {
	if code == 0 {
		code = 1
	}
	t.snap.Health = HealthError
	t.snap.LastErrorCode = code
	t.snap.Faults++
}

// Second advances seconds-in-error while not healthy.
// It reports whether the snapshot changed.
func (t *Tracker) Second() bool {
	if t.snap.Health == HealthOK {
		return false
	}
	if t.snap.SecondsInError == 0xFFFF {
		return false
	}
	t.snap.SecondsInError++
	return true
}

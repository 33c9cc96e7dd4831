// internal/writer/types.go
package writer

import "github.com/tamzrod/lcrmeter/internal/poller"

// Endpoint protocols.
const (
	ProtocolModbus = "modbus"
	ProtocolIngest = "ingest"
)

// Target is one remote register memory receiving every record.
type Target struct {
	Endpoint    string
	Protocol    string
	UnitID      uint8
	BaseAddress uint16
}

// StatusPlan places the loop status block in a remote memory.
type StatusPlan struct {
	Endpoint   string
	Protocol   string
	UnitID     uint16
	BaseSlot   uint16
	DeviceName string
}

// Plan is the fully-built delivery plan.
type Plan struct {
	Targets []Target
	Status  *StatusPlan // nil => status disabled
}

// Sink receives every cycle result, successful or not.
type Sink interface {
	Write(res poller.CycleResult) error
}

// EndpointClient is the exact contract the writers use.
type EndpointClient interface {
	WriteRegisters(area byte, unitID uint8, addr uint16, regs []uint16) error
	Close() error
}

// areaHoldingRegisters is the only area written.
const areaHoldingRegisters byte = 3

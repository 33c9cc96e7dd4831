// internal/writer/writer.go
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tamzrod/lcrmeter/internal/poller"
)

// recordWriter mirrors every record into the plan's targets.
type recordWriter struct {
	plan    Plan
	clients map[string]EndpointClient
}

// New returns the record mirror for plan.
func New(plan Plan, clients map[string]EndpointClient) Sink {
	return &recordWriter{
		plan:    plan,
		clients: clients,
	}
}

// Write delivers one record. Aborted cycles write nothing.
func (w *recordWriter) Write(res poller.CycleResult) error {
	if res.Aborted || res.Record == nil {
		return nil
	}

	recRegs := EncodeRecord(res.Record)
	var estRegs []uint16
	if res.Estimate != nil {
		estRegs = EncodeEstimate(res.Estimate)
	}

	var errs []string

	for _, tgt := range w.plan.Targets {
		cli := w.clients[tgt.Endpoint]
		if cli == nil {
			errs = append(errs, fmt.Sprintf(
				"writer: missing client for endpoint %s",
				tgt.Endpoint,
			))
			continue
		}

		if err := cli.WriteRegisters(areaHoldingRegisters, tgt.UnitID, tgt.BaseAddress+RegSeq, recRegs); err != nil {
			errs = append(errs, fmt.Sprintf(
				"writer: ep=%s unit=%d addr=%d err=%v",
				tgt.Endpoint, tgt.UnitID, tgt.BaseAddress, err,
			))
			continue
		}

		if estRegs == nil {
			continue
		}
		addr := tgt.BaseAddress + RegMean
		if err := cli.WriteRegisters(areaHoldingRegisters, tgt.UnitID, addr, estRegs); err != nil {
			errs = append(errs, fmt.Sprintf(
				"writer: estimate ep=%s unit=%d addr=%d err=%v",
				tgt.Endpoint, tgt.UnitID, addr, err,
			))
		}
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, " | "))
	}
	return nil
}

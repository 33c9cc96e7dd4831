// internal/writer/builder.go
package writer

import (
	"fmt"
	"time"

	cfg "github.com/tamzrod/lcrmeter/internal/config"
	wingest "github.com/tamzrod/lcrmeter/internal/writer/ingest"
	wmodbus "github.com/tamzrod/lcrmeter/internal/writer/modbus"
)

// BuildPlan converts the sinks config into a delivery Plan.
// Assumes config has already passed validation and normalization.
func BuildPlan(sc cfg.SinksConfig) Plan {
	var plan Plan

	for _, t := range sc.Targets {
		plan.Targets = append(plan.Targets, Target{
			Endpoint:    t.Endpoint,
			Protocol:    t.Protocol,
			UnitID:      t.UnitID,
			BaseAddress: t.BaseAddress,
		})
	}

	if st := sc.Status; st != nil {
		plan.Status = &StatusPlan{
			Endpoint:   st.Endpoint,
			Protocol:   st.Protocol,
			UnitID:     st.UnitID,
			BaseSlot:   st.BaseSlot,
			DeviceName: st.DeviceName,
		}
	}

	return plan
}

// dialer opens one endpoint client; replaced in tests.
type dialer func(protocol, endpoint string, timeout time.Duration) (EndpointClient, error)

func dialEndpoint(protocol, endpoint string, timeout time.Duration) (EndpointClient, error) {
	switch protocol {
	case ProtocolIngest:
		return wingest.NewEndpointClient(wingest.Config{Endpoint: endpoint, Timeout: timeout})
	case ProtocolModbus, "":
		return wmodbus.NewEndpointClient(wmodbus.Config{Endpoint: endpoint, Timeout: timeout})
	default:
		return nil, fmt.Errorf("writer: unknown protocol %q", protocol)
	}
}

// BuildEndpointClients creates one client per unique endpoint
// (data targets and status share clients).
func BuildEndpointClients(plan Plan, timeout time.Duration) (map[string]EndpointClient, func() error, error) {
	return buildEndpointClients(plan, timeout, dialEndpoint)
}

func buildEndpointClients(plan Plan, timeout time.Duration, dial dialer) (map[string]EndpointClient, func() error, error) {
	unique := map[string]string{}
	for _, t := range plan.Targets {
		unique[t.Endpoint] = t.Protocol
	}
	if plan.Status != nil {
		unique[plan.Status.Endpoint] = plan.Status.Protocol
	}

	clients := make(map[string]EndpointClient, len(unique))
	closeAll := func() error {
		var last error
		for _, c := range clients {
			if err := c.Close(); err != nil {
				last = err
			}
		}
		return last
	}

	for endpoint, protocol := range unique {
		c, err := dial(protocol, endpoint, timeout)
		if err != nil {
			_ = closeAll()
			return nil, nil, err
		}
		clients[endpoint] = c
	}

	return clients, closeAll, nil
}

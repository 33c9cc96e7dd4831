// internal/config/validate.go
package config

import (
	"errors"
	"fmt"
)

// record block size in registers, mirrored from the writer layout
const recordBlockRegs = 23

// Validate checks configuration correctness.
// It performs declarative validation only.
// It MUST NOT mutate configuration.
// Zero values mean "use the default" and are accepted.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config: nil")
	}

	// ------------------------------------------------------------
	// SERIAL
	// ------------------------------------------------------------

	s := cfg.Serial
	switch s.Driver {
	case "", "bugst", "goburrow":
	default:
		return fmt.Errorf("serial.driver %q: must be bugst or goburrow", s.Driver)
	}
	if s.BaudRate < 0 {
		return errors.New("serial.baud_rate must be > 0")
	}
	for name, v := range map[string]int{
		"serial.read_timeout_ms":     s.ReadTimeoutMs,
		"serial.write_timeout_ms":    s.WriteTimeoutMs,
		"serial.response_timeout_ms": s.ResponseTimeoutMs,
		"serial.settle_delay_ms":     s.SettleDelayMs,
	} {
		if v < 0 {
			return fmt.Errorf("%s must be >= 0", name)
		}
	}

	// ------------------------------------------------------------
	// DEVICE + POLL
	// ------------------------------------------------------------

	switch cfg.Device.Variant {
	case "", "rtu", "mmk":
	default:
		return fmt.Errorf("device.variant %q: must be rtu or mmk", cfg.Device.Variant)
	}

	if cfg.Poll.IntervalMs < 0 || cfg.Poll.IntervalMs > MaxIntervalMs {
		return fmt.Errorf("poll.interval_ms must be within 1..%d", MaxIntervalMs)
	}
	if cfg.Poll.QuiesceMs < 0 {
		return errors.New("poll.quiesce_ms must be >= 0")
	}

	// ------------------------------------------------------------
	// SAMPLER
	// ------------------------------------------------------------

	if cfg.Sampler.Population != 0 && cfg.Sampler.Population < 2 {
		return errors.New("sampler.population must be >= 2")
	}
	if cfg.Sampler.MaxDeviation < 0 {
		return errors.New("sampler.max_deviation must be > 0")
	}
	if cfg.Sampler.HistoryLimit < 0 {
		return errors.New("sampler.history_limit must be >= 0")
	}

	// ------------------------------------------------------------
	// SINKS
	// ------------------------------------------------------------

	return validateSinks(cfg.Sinks)
}

func validateSinks(sc SinksConfig) error {
	type span struct {
		start, end uint32
		who        string
	}

	if sc.TimeoutMs < 0 {
		return errors.New("sinks.timeout_ms must be >= 0")
	}

	// key = endpoint | unit_id
	spans := make(map[string][]span)
	protocols := make(map[string]string)

	claim := func(endpoint, protocol string, unitID uint16, start, n uint32, who string) error {
		if endpoint == "" {
			return fmt.Errorf("%s: endpoint required", who)
		}
		if protocol == "" {
			protocol = DefaultProtocol
		}
		if protocol != "modbus" && protocol != "ingest" {
			return fmt.Errorf("%s: protocol %q must be modbus or ingest", who, protocol)
		}
		if prev, ok := protocols[endpoint]; ok && prev != protocol {
			return fmt.Errorf("%s: endpoint %s used with protocols %s and %s", who, endpoint, prev, protocol)
		}
		protocols[endpoint] = protocol

		end := start + n - 1
		if end > 0xFFFF {
			return fmt.Errorf("%s: block exceeds register space", who)
		}

		key := fmt.Sprintf("%s|%d", endpoint, unitID)
		for _, sp := range spans[key] {
			if start <= sp.end && sp.start <= end {
				return fmt.Errorf(
					"register overlap: endpoint=%s unit_id=%d [%d..%d] used by %s and %s",
					endpoint, unitID, start, end, sp.who, who,
				)
			}
		}
		spans[key] = append(spans[key], span{start: start, end: end, who: who})
		return nil
	}

	for i, t := range sc.Targets {
		who := fmt.Sprintf("sinks.targets[%d]", i)
		if err := claim(t.Endpoint, t.Protocol, uint16(t.UnitID), uint32(t.BaseAddress), recordBlockRegs, who); err != nil {
			return err
		}
	}

	st := sc.Status
	if st == nil {
		return nil
	}

	for i := 0; i < len(st.DeviceName); i++ {
		if st.DeviceName[i] > 0x7F {
			return errors.New("sinks.status: device_name must contain ASCII characters only")
		}
	}
	if st.UnitID > 255 {
		return fmt.Errorf("sinks.status: unit_id %d out of range", st.UnitID)
	}

	// status block geometry: 20 slots per base slot
	return claim(st.Endpoint, st.Protocol, st.UnitID, uint32(st.BaseSlot)*20, 20, "sinks.status")
}

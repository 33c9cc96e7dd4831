// internal/config/config.go
package config

type Config struct {
	Serial  SerialConfig  `yaml:"serial" toml:"serial"`
	Device  DeviceConfig  `yaml:"device" toml:"device"`
	Poll    PollConfig    `yaml:"poll" toml:"poll"`
	Sampler SamplerConfig `yaml:"sampler" toml:"sampler"`
	Sinks   SinksConfig   `yaml:"sinks" toml:"sinks"`
	HTTP    HTTPConfig    `yaml:"http" toml:"http"`
	Log     LogConfig     `yaml:"log" toml:"log"`
}

// ---- SERIAL LINE ----

// SerialConfig is the line setup. Framing (8N1, no handshake) is fixed.
type SerialConfig struct {
	Port              string `yaml:"port" toml:"port"`
	BaudRate          int    `yaml:"baud_rate" toml:"baud_rate"`
	Driver            string `yaml:"driver" toml:"driver"` // bugst | goburrow
	ReadTimeoutMs     int    `yaml:"read_timeout_ms" toml:"read_timeout_ms"`
	WriteTimeoutMs    int    `yaml:"write_timeout_ms" toml:"write_timeout_ms"`
	ResponseTimeoutMs int    `yaml:"response_timeout_ms" toml:"response_timeout_ms"`
	SettleDelayMs     int    `yaml:"settle_delay_ms" toml:"settle_delay_ms"`
}

// ---- METER ----

type DeviceConfig struct {
	SlaveAddress uint8  `yaml:"slave_address" toml:"slave_address"`
	Variant      string `yaml:"variant" toml:"variant"` // rtu | mmk
}

// ---- POLL ----

type PollConfig struct {
	IntervalMs int `yaml:"interval_ms" toml:"interval_ms"`
	QuiesceMs  int `yaml:"quiesce_ms" toml:"quiesce_ms"`
}

// ---- SAMPLER ----

type SamplerConfig struct {
	Population   int     `yaml:"population" toml:"population"`
	MaxDeviation float64 `yaml:"max_deviation" toml:"max_deviation"`
	HistoryLimit int     `yaml:"history_limit" toml:"history_limit"`
}

// ---- SINKS ----

type SinksConfig struct {
	CSVPath   string         `yaml:"csv_path" toml:"csv_path"`
	TimeoutMs int            `yaml:"timeout_ms" toml:"timeout_ms"`
	Targets   []TargetConfig `yaml:"targets" toml:"targets"`
	Status    *StatusConfig  `yaml:"status" toml:"status"` // nil => disabled
}

// TargetConfig is one remote memory receiving every record.
type TargetConfig struct {
	Endpoint    string `yaml:"endpoint" toml:"endpoint"`
	Protocol    string `yaml:"protocol" toml:"protocol"` // modbus | ingest
	UnitID      uint8  `yaml:"unit_id" toml:"unit_id"`
	BaseAddress uint16 `yaml:"base_address" toml:"base_address"`
}

// StatusConfig places the loop status block.
type StatusConfig struct {
	Endpoint   string `yaml:"endpoint" toml:"endpoint"`
	Protocol   string `yaml:"protocol" toml:"protocol"`
	UnitID     uint16 `yaml:"unit_id" toml:"unit_id"`
	BaseSlot   uint16 `yaml:"base_slot" toml:"base_slot"`
	DeviceName string `yaml:"device_name" toml:"device_name"`
}

// ---- HTTP ----

type HTTPConfig struct {
	Addr        string   `yaml:"addr" toml:"addr"` // empty => disabled
	CORSOrigins []string `yaml:"cors_origins" toml:"cors_origins"`
}

// ---- LOG ----

type LogConfig struct {
	Level   string `yaml:"level" toml:"level"`
	NoColor bool   `yaml:"no_color" toml:"no_color"`
}

// internal/config/defaults.go
package config

// Defaults applied by Normalize to zero-valued fields.
const (
	DefaultPort              = "COM1"
	DefaultBaudRate          = 9600
	DefaultDriver            = "bugst"
	DefaultReadTimeoutMs     = 10
	DefaultWriteTimeoutMs    = 100
	DefaultResponseTimeoutMs = 120
	DefaultSettleDelayMs     = 50

	DefaultSlaveAddress uint8 = 0x0A
	DefaultVariant            = "rtu"

	DefaultIntervalMs = 1000
	MaxIntervalMs     = 180000
	DefaultQuiesceMs  = 200

	DefaultPopulation   = 30
	DefaultMaxDeviation = 1.01
	DefaultHistoryLimit = 10000

	DefaultSinkTimeoutMs = 2000
	DefaultProtocol      = "modbus"

	DefaultLogLevel = "info"
)

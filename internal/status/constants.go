// internal/status/constants.go
package status

// Meter status block layout constants.
// These values define the protocol and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of logical slots per meter.
const SlotsPerDevice = 20

// ---- LIVE SLOTS ----

// SlotHealthCode holds the loop health state.
const SlotHealthCode = 0

// SlotLastErrorCode holds the fault code of the last aborted cycle.
const SlotLastErrorCode = 1

// SlotSecondsInError holds how long (seconds) the loop has been failing.
const SlotSecondsInError = 2

// SlotActiveKind holds the primary kind of the last record (0..3 = R,L,C,M).
const SlotActiveKind = 3

// SlotCyclesHi and SlotCyclesLo hold the completed cycle counter.
const (
	SlotCyclesHi = 4
	SlotCyclesLo = 5
)

// SlotFaultsHi and SlotFaultsLo hold the aborted cycle counter.
const (
	SlotFaultsHi = 6
	SlotFaultsLo = 7
)

// SlotLiveEnd is the last slot compared on incremental writes (inclusive).
const SlotLiveEnd = SlotFaultsLo

// Slots 8..10 are reserved.

// ---- DEVICE NAME ----

// SlotDeviceNameStart is the first slot used for the device name.
// Device name is always placed at the END of the status block.
const SlotDeviceNameStart = 11

// SlotDeviceNameSlots is the number of slots reserved for the device name.
const SlotDeviceNameSlots = 8

// SlotDeviceNameEnd is the last slot used for the device name (inclusive).
const SlotDeviceNameEnd = SlotDeviceNameStart + SlotDeviceNameSlots - 1

// DeviceNameMaxChars is the maximum number of ASCII characters stored.
const DeviceNameMaxChars = 16

// ---- HEALTH CODES ----

const (
	HealthUnknown uint16 = 0
	HealthOK      uint16 = 1
	HealthError   uint16 = 2
)

// NoKind marks SlotActiveKind before the first record.
const NoKind uint16 = 0xFFFF

// internal/status/constants.go
package status

// Device Status Block layout constants.
// These values define the block layout and MUST NOT be configurable.

// ---- BLOCK GEOMETRY ----

// SlotsPerDevice is the fixed number of registers per device block.
const SlotsPerDevice = 20

// ---- SLOT INDICES ----

const (
	SlotHealthCode     = 0 // device health state
	SlotLastErrorCode  = 1 // last error code, see Code*
	SlotSecondsInError = 2 // seconds spent outside HealthOK, saturating

	// Slots 3-10 are reserved and written as zero.
	SlotReservedStart = 3
	SlotReservedEnd   = 10
)

// ---- DEVICE NAME ----

// The device name always sits at the END of the block: 16 ASCII characters
// packed two per register, high byte first.
const (
	SlotDeviceNameStart = 11
	SlotDeviceNameSlots = 8
	SlotDeviceNameEnd   = SlotDeviceNameStart + SlotDeviceNameSlots - 1
	DeviceNameMaxChars  = 16
)

// ---- HEALTH CODES ----

const (
	HealthUnknown  uint16 = 0
	HealthOK       uint16 = 1
	HealthError    uint16 = 2
	HealthStale    uint16 = 3
	HealthDisabled uint16 = 4
)

// ---- ERROR CODES ----

// Codes 1-255 are Modbus exception codes passed through from the source.
// Codes from 0x8000 up classify failures seen by the client itself.
const (
	CodeGeneric    uint16 = 1
	CodeConnect    uint16 = 0x8001
	CodeTimeout    uint16 = 0x8002
	CodeTransport  uint16 = 0x8003
	CodeValidation uint16 = 0x8004
	CodeException  uint16 = 0x8005
	CodeProtocol   uint16 = 0x8006
)

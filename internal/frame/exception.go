// internal/frame/exception.go
package frame

import "fmt"

// ExceptionCode is the single data byte of a device exception response.
type ExceptionCode uint8

const (
	ExceptionIllegalFunction    ExceptionCode = 0x01
	ExceptionIllegalDataAddress ExceptionCode = 0x02
	ExceptionIllegalDataValue   ExceptionCode = 0x03
	ExceptionDeviceFailure      ExceptionCode = 0x04
	ExceptionAcknowledge        ExceptionCode = 0x05
	ExceptionDeviceBusy         ExceptionCode = 0x06
	ExceptionNegativeAck        ExceptionCode = 0x07
	ExceptionMemoryParity       ExceptionCode = 0x08
	ExceptionGatewayPath        ExceptionCode = 0x0A
	ExceptionGatewayTarget      ExceptionCode = 0x0B
)

var exceptionNames = map[ExceptionCode]string{
	ExceptionIllegalFunction:    "illegal function",
	ExceptionIllegalDataAddress: "illegal data address",
	ExceptionIllegalDataValue:   "illegal data value",
	ExceptionDeviceFailure:      "device failure",
	ExceptionAcknowledge:        "acknowledge",
	ExceptionDeviceBusy:         "device busy",
	ExceptionNegativeAck:        "negative acknowledge",
	ExceptionMemoryParity:       "memory parity error",
	ExceptionGatewayPath:        "gateway path unavailable",
	ExceptionGatewayTarget:      "gateway target failed to respond",
}

func (c ExceptionCode) String() string {
	if s, ok := exceptionNames[c]; ok {
		return s
	}
	return "unknown exception"
}

// ExceptionError is returned when the device answers with fc|0x80.
type ExceptionError struct {
	Function FunctionCode
	Code     ExceptionCode
}

func (e *ExceptionError) Error() string {
	return fmt.Sprintf("modbus exception: fc=%d code=%d (%s)", e.Function, uint8(e.Code), e.Code)
}

// ModbusCode exposes the raw exception code to status reporting.
func (e *ExceptionError) ModbusCode() uint16 {
	return uint16(e.Code)
}

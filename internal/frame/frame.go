// internal/frame/frame.go
package frame

// Modbus/TCP framing. Every frame starts with an 8-byte header:
//
//   CheckHead(2) ProtocolID(2=0) Length(2) Station(1) Function(1)
//
// The check head takes the place of the MBAP transaction identifier and must
// be echoed by the device. Length counts every byte after the length field.

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// FunctionCode is threaded through framing as opaque data.
type FunctionCode uint8

const (
	ReadCoils              FunctionCode = 0x01
	ReadDiscreteInputs     FunctionCode = 0x02
	ReadHoldingRegisters   FunctionCode = 0x03
	ReadInputRegisters     FunctionCode = 0x04
	WriteSingleCoil        FunctionCode = 0x05
	WriteMultipleRegisters FunctionCode = 0x10
)

// IsBitRead reports whether fc returns a packed bitmap (coils/discrete inputs).
func (fc FunctionCode) IsBitRead() bool {
	return fc == ReadCoils || fc == ReadDiscreteInputs
}

const (
	// HeaderSize is the fixed response header read before the body.
	HeaderSize = 8
	// ReadFrameSize is the total size of every read command.
	ReadFrameSize = 12
	// MaxBodyLength bounds a response body (PDU limit minus function code).
	MaxBodyLength = 253

	// MaxReadRegisters is the protocol limit for one register read.
	MaxReadRegisters = 125
	// MaxWriteRegisters is the protocol limit for one register write.
	MaxWriteRegisters = 123
	// BatchWindow is the register window the batch coalescer plans with.
	// It keeps four registers of headroom below MaxReadRegisters so the
	// widest value starting at the window's end still fits one read.
	BatchWindow = MaxReadRegisters - 4

	coilOn  uint16 = 0xFF00
	coilOff uint16 = 0x0000
)

var (
	ErrOddPayload        = errors.New("frame: write payload must have an even byte count")
	ErrEmptyPayload      = errors.New("frame: write payload is empty")
	ErrPayloadTooLarge   = errors.New("frame: write payload exceeds register limit")
	ErrBadCount          = errors.New("frame: read count out of range")
	ErrShortFrame        = errors.New("frame: frame too short")
	ErrBadLength         = errors.New("frame: length field out of range")
	ErrCheckHeadMismatch = errors.New("frame: response validation failed: check head mismatch")
	ErrFunctionMismatch  = errors.New("frame: response function code mismatch")
	ErrByteCount         = errors.New("frame: response byte count mismatch")
	ErrNotReadFrame      = errors.New("frame: not a read command")
)

// ReadRequest is the decoded form of a read command.
type ReadRequest struct {
	CheckHead CheckHead
	Station   uint8
	Function  FunctionCode
	Address   uint16
	Count     uint16
}

// Header is a parsed 8-byte response (or request) header.
type Header struct {
	CheckHead  CheckHead
	ProtocolID uint16
	Length     uint16
	Station    uint8
	Function   FunctionCode
}

// BodyLength is the number of bytes following the 8-byte header.
func (h Header) BodyLength() int {
	return int(h.Length) - 2
}

// IsException reports whether the device answered with an exception.
func (h Header) IsException() bool {
	return h.Function&0x80 != 0
}

func putHeader(buf []byte, head CheckHead, length uint16, station uint8, fc FunctionCode) {
	buf[0], buf[1] = head[0], head[1]
	binary.BigEndian.PutUint16(buf[2:4], 0)
	binary.BigEndian.PutUint16(buf[4:6], length)
	buf[6] = station
	buf[7] = byte(fc)
}

// BuildRead builds a 12-byte read command.
// Count is registers for FC 3/4 and bits for FC 1/2.
func BuildRead(head CheckHead, station uint8, fc FunctionCode, addr, count uint16) []byte {
	buf := make([]byte, ReadFrameSize)
	// Length = Station(1) + FC(1) + Address(2) + Count(2)
	putHeader(buf, head, 6, station, fc)
	binary.BigEndian.PutUint16(buf[8:10], addr)
	binary.BigEndian.PutUint16(buf[10:12], count)
	return buf
}

// BuildWriteRegisters builds a multi-register write command.
// data is the raw register bytes, already in wire order.
func BuildWriteRegisters(head CheckHead, station uint8, fc FunctionCode, addr uint16, data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, ErrEmptyPayload
	}
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("%w: %d bytes", ErrOddPayload, len(data))
	}
	if len(data)/2 > MaxWriteRegisters {
		return nil, fmt.Errorf("%w: %d registers", ErrPayloadTooLarge, len(data)/2)
	}

	buf := make([]byte, 13+len(data))
	// Length = Station(1) + FC(1) + Address(2) + Quantity(2) + ByteCount(1) + data
	putHeader(buf, head, uint16(7+len(data)), station, fc)
	binary.BigEndian.PutUint16(buf[8:10], addr)
	binary.BigEndian.PutUint16(buf[10:12], uint16(len(data)/2))
	buf[12] = byte(len(data))
	copy(buf[13:], data)
	return buf, nil
}

// BuildWriteCoil builds a single-coil write command.
func BuildWriteCoil(head CheckHead, station uint8, fc FunctionCode, addr uint16, on bool) []byte {
	buf := make([]byte, 12)
	putHeader(buf, head, 6, station, fc)
	binary.BigEndian.PutUint16(buf[8:10], addr)
	if on {
		binary.BigEndian.PutUint16(buf[10:12], coilOn)
	} else {
		binary.BigEndian.PutUint16(buf[10:12], coilOff)
	}
	return buf
}

// DecodeRead parses a read command built by BuildRead.
func DecodeRead(b []byte) (ReadRequest, error) {
	if len(b) != ReadFrameSize {
		return ReadRequest{}, fmt.Errorf("%w: %d bytes", ErrNotReadFrame, len(b))
	}
	h, err := ParseHeader(b[:HeaderSize])
	if err != nil {
		return ReadRequest{}, err
	}
	if h.Length != 6 {
		return ReadRequest{}, fmt.Errorf("%w: length %d", ErrNotReadFrame, h.Length)
	}
	return ReadRequest{
		CheckHead: h.CheckHead,
		Station:   h.Station,
		Function:  h.Function,
		Address:   binary.BigEndian.Uint16(b[8:10]),
		Count:     binary.BigEndian.Uint16(b[10:12]),
	}, nil
}

// ParseHeader decodes the first 8 bytes of a frame and checks that the
// length field describes a plausible body.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("%w: %d bytes (minimum %d)", ErrShortFrame, len(b), HeaderSize)
	}
	h := Header{
		CheckHead:  CheckHead{b[0], b[1]},
		ProtocolID: binary.BigEndian.Uint16(b[2:4]),
		Length:     uint16(b[4])<<8 | uint16(b[5]),
		Station:    b[6],
		Function:   FunctionCode(b[7]),
	}
	if n := h.BodyLength(); n < 0 || n > MaxBodyLength {
		return h, fmt.Errorf("%w: body of %d bytes", ErrBadLength, n)
	}
	return h, nil
}

// Validate checks a response against the request that produced it.
// A check head mismatch is a validation failure, never a transport error.
func Validate(request, response []byte) error {
	if len(request) < 2 || len(response) < HeaderSize {
		return ErrShortFrame
	}
	if request[0] != response[0] || request[1] != response[1] {
		return fmt.Errorf("%w: sent %02x%02x, received %02x%02x",
			ErrCheckHeadMismatch, request[0], request[1], response[0], response[1])
	}
	return nil
}

// Check validates the response and classifies device exceptions.
// It returns the response header on success.
func Check(request, response []byte) (Header, error) {
	if err := Validate(request, response); err != nil {
		return Header{}, err
	}
	h, err := ParseHeader(response)
	if err != nil {
		return h, err
	}
	if len(response) != HeaderSize+h.BodyLength() {
		return h, fmt.Errorf("%w: header says %d body bytes, frame has %d",
			ErrShortFrame, h.BodyLength(), len(response)-HeaderSize)
	}
	if h.IsException() {
		code := uint8(0)
		if len(response) > HeaderSize {
			code = response[HeaderSize]
		}
		return h, &ExceptionError{Function: h.Function &^ 0x80, Code: ExceptionCode(code)}
	}
	if len(request) >= HeaderSize && FunctionCode(request[7]) != h.Function {
		return h, fmt.Errorf("%w: sent 0x%02x, received 0x%02x",
			ErrFunctionMismatch, request[7], byte(h.Function))
	}
	return h, nil
}

// ReadPayload returns the data bytes of a read response (FC 1-4), after
// checking the byte count against the requested quantity.
func ReadPayload(response []byte, fc FunctionCode, count uint16) ([]byte, error) {
	if len(response) < HeaderSize+1 {
		return nil, fmt.Errorf("%w: no byte count", ErrShortFrame)
	}
	body := response[HeaderSize:]
	byteCount := int(body[0])
	if len(body)-1 != byteCount {
		return nil, fmt.Errorf("%w: byte count %d, payload %d", ErrByteCount, byteCount, len(body)-1)
	}

	want := 2 * int(count)
	if fc.IsBitRead() {
		want = (int(count) + 7) / 8
	}
	if byteCount != want {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrByteCount, byteCount, want)
	}

	out := make([]byte, byteCount)
	copy(out, body[1:])
	return out, nil
}

// internal/client/typed.go
package client

import (
	"fmt"

	"github.com/tamzrod/modbus-tcpclient/internal/frame"
	"github.com/tamzrod/modbus-tcpclient/internal/outcome"
	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

// Typed helpers read from holding registers and write with FC 16.

func readTyped[T any](c *Client, addr uint16, station uint8, t value.DataType) (outcome.Outcome[T], error) {
	raw, err := c.Read(addr, station, frame.ReadHoldingRegisters, uint16(t.Registers()), true)
	if err != nil {
		return outcome.Outcome[T]{}, err
	}
	return outcome.Then(raw, func(b []byte) (T, error) {
		var zero T
		v, err := value.Decode(t, b, value.ABCD)
		if err != nil {
			return zero, err
		}
		typed, ok := v.(T)
		if !ok {
			return zero, fmt.Errorf("decoded %T, want %T", v, zero)
		}
		return typed, nil
	}), nil
}

func writeTyped(c *Client, addr uint16, station uint8, t value.DataType, v any) (outcome.Outcome[struct{}], error) {
	b, err := value.Encode(t, v, c.order)
	if err != nil {
		return outcome.Outcome[struct{}]{}, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}
	return c.Write(addr, b, station, frame.WriteMultipleRegisters)
}

func (c *Client) ReadInt16(addr uint16, station uint8) (outcome.Outcome[int16], error) {
	return readTyped[int16](c, addr, station, value.Int16)
}

func (c *Client) ReadUint16(addr uint16, station uint8) (outcome.Outcome[uint16], error) {
	return readTyped[uint16](c, addr, station, value.Uint16)
}

func (c *Client) ReadInt32(addr uint16, station uint8) (outcome.Outcome[int32], error) {
	return readTyped[int32](c, addr, station, value.Int32)
}

func (c *Client) ReadUint32(addr uint16, station uint8) (outcome.Outcome[uint32], error) {
	return readTyped[uint32](c, addr, station, value.Uint32)
}

func (c *Client) ReadInt64(addr uint16, station uint8) (outcome.Outcome[int64], error) {
	return readTyped[int64](c, addr, station, value.Int64)
}

func (c *Client) ReadUint64(addr uint16, station uint8) (outcome.Outcome[uint64], error) {
	return readTyped[uint64](c, addr, station, value.Uint64)
}

func (c *Client) ReadFloat32(addr uint16, station uint8) (outcome.Outcome[float32], error) {
	return readTyped[float32](c, addr, station, value.Float32)
}

func (c *Client) ReadFloat64(addr uint16, station uint8) (outcome.Outcome[float64], error) {
	return readTyped[float64](c, addr, station, value.Float64)
}

// ReadBit reads one coil (FC 1) or discrete input (FC 2).
func (c *Client) ReadBit(addr uint16, station uint8, fc frame.FunctionCode) (outcome.Outcome[bool], error) {
	raw, err := c.Read(addr, station, fc, 1, false)
	if err != nil {
		return outcome.Outcome[bool]{}, err
	}
	return outcome.Then(raw, func(b []byte) (bool, error) {
		return value.BitAt(b, 0)
	}), nil
}

func (c *Client) WriteInt16(addr uint16, station uint8, v int16) (outcome.Outcome[struct{}], error) {
	return writeTyped(c, addr, station, value.Int16, v)
}

func (c *Client) WriteUint16(addr uint16, station uint8, v uint16) (outcome.Outcome[struct{}], error) {
	return writeTyped(c, addr, station, value.Uint16, v)
}

func (c *Client) WriteInt32(addr uint16, station uint8, v int32) (outcome.Outcome[struct{}], error) {
	return writeTyped(c, addr, station, value.Int32, v)
}

func (c *Client) WriteUint32(addr uint16, station uint8, v uint32) (outcome.Outcome[struct{}], error) {
	return writeTyped(c, addr, station, value.Uint32, v)
}

func (c *Client) WriteInt64(addr uint16, station uint8, v int64) (outcome.Outcome[struct{}], error) {
	return writeTyped(c, addr, station, value.Int64, v)
}

func (c *Client) WriteUint64(addr uint16, station uint8, v uint64) (outcome.Outcome[struct{}], error) {
	return writeTyped(c, addr, station, value.Uint64, v)
}

func (c *Client) WriteFloat32(addr uint16, station uint8, v float32) (outcome.Outcome[struct{}], error) {
	return writeTyped(c, addr, station, value.Float32, v)
}

func (c *Client) WriteFloat64(addr uint16, station uint8, v float64) (outcome.Outcome[struct{}], error) {
	return writeTyped(c, addr, station, value.Float64, v)
}

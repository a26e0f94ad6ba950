// internal/batch/spec.go
package batch

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/tamzrod/modbus-tcpclient/internal/frame"
	"github.com/tamzrod/modbus-tcpclient/internal/value"
)

// ErrInvalidSpec marks a programmer/configuration mistake in a batch.
// It is never retried.
var ErrInvalidSpec = errors.New("batch: invalid address spec")

// AddressSpec is one value a batch should read.
type AddressSpec struct {
	Address  uint16
	Type     value.DataType
	Station  uint8
	Function frame.FunctionCode
}

// Result is one decoded value of a batch.
type Result struct {
	Address  uint16
	Station  uint8
	Function frame.FunctionCode
	Type     value.DataType
	Value    any
}

// Validate checks that s can be served by a read.
func (s AddressSpec) Validate() error {
	if !s.Type.Valid() {
		return fmt.Errorf("%w: address %d: %v", ErrInvalidSpec, s.Address, s.Type)
	}
	if s.Function.IsBitRead() != (s.Type == value.Bit) {
		return fmt.Errorf("%w: address %d: type %v cannot be read with fc %d",
			ErrInvalidSpec, s.Address, s.Type, s.Function)
	}
	if int(s.Address)+s.Type.Registers() > 0x10000 {
		return fmt.Errorf("%w: address %d: %v runs past register 65535",
			ErrInvalidSpec, s.Address, s.Type)
	}
	return nil
}

func (s AddressSpec) end() int {
	return int(s.Address) + s.Type.Registers()
}

func (s AddressSpec) String() string {
	return fmt.Sprintf("%d:%d:%d:%s", s.Function, s.Station, s.Address, s.Type)
}

// ParseSpec parses "fc:station:address:type", or "address:type" using the
// function code and station of def.
func ParseSpec(s string, def AddressSpec) (AddressSpec, error) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	spec := def

	switch len(parts) {
	case 2:
	case 4:
		fc, err := strconv.ParseUint(parts[0], 10, 8)
		if err != nil {
			return AddressSpec{}, fmt.Errorf("%w: function code %q", ErrInvalidSpec, parts[0])
		}
		station, err := strconv.ParseUint(parts[1], 10, 8)
		if err != nil {
			return AddressSpec{}, fmt.Errorf("%w: station %q", ErrInvalidSpec, parts[1])
		}
		spec.Function = frame.FunctionCode(fc)
		spec.Station = uint8(station)
		parts = parts[2:]
	default:
		return AddressSpec{}, fmt.Errorf("%w: %q (want fc:station:address:type or address:type)", ErrInvalidSpec, s)
	}

	addr, err := ParseAddress(parts[0])
	if err != nil {
		return AddressSpec{}, err
	}
	t, err := value.ParseDataType(parts[1])
	if err != nil {
		return AddressSpec{}, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}

	spec.Address = addr
	spec.Type = t
	return spec, spec.Validate()
}

// ParseAddress parses a register offset in [0,65535].
func ParseAddress(s string) (uint16, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("%w: address %q", ErrInvalidSpec, s)
	}
	return uint16(v), nil
}

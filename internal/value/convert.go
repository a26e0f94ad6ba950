// internal/value/convert.go
package value

import (
	"fmt"
	"strconv"
)

// ToRegisters splits wire bytes into big-endian 16-bit registers.
// The length of b must be even.
func ToRegisters(b []byte) ([]uint16, error) {
	if len(b)%2 != 0 {
		return nil, fmt.Errorf("value: odd byte count %d", len(b))
	}
	out := make([]uint16, len(b)/2)
	for i := range out {
		out[i] = uint16(b[2*i])<<8 | uint16(b[2*i+1])
	}
	return out, nil
}

// FromRegisters is the inverse of ToRegisters.
func FromRegisters(regs []uint16) []byte {
	out := make([]byte, len(regs)*2)
	for i, r := range regs {
		out[2*i] = byte(r >> 8)
		out[2*i+1] = byte(r)
	}
	return out
}

// ParseLiteral parses s as a value of type t, returning the Go type Encode
// expects for t (bool for Bit).
func ParseLiteral(t DataType, s string) (any, error) {
	switch t {
	case Bit:
		return strconv.ParseBool(s)
	case Int16:
		v, err := strconv.ParseInt(s, 0, 16)
		return int16(v), err
	case Uint16:
		v, err := strconv.ParseUint(s, 0, 16)
		return uint16(v), err
	case Int32:
		v, err := strconv.ParseInt(s, 0, 32)
		return int32(v), err
	case Uint32:
		v, err := strconv.ParseUint(s, 0, 32)
		return uint32(v), err
	case Int64:
		return strconv.ParseInt(s, 0, 64)
	case Uint64:
		return strconv.ParseUint(s, 0, 64)
	case Float32:
		v, err := strconv.ParseFloat(s, 32)
		return float32(v), err
	case Float64:
		return strconv.ParseFloat(s, 64)
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, t)
	}
}

// internal/value/types.go
package value

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strings"
)

// DataType is the closed set of values a batch can decode.
type DataType uint8

const (
	Invalid DataType = iota
	Bit
	Int16
	Uint16
	Int32
	Uint32
	Int64
	Uint64
	Float32
	Float64
)

var (
	ErrUnsupportedType = errors.New("value: unsupported data type")
	ErrShortBuffer     = errors.New("value: buffer too short")
)

var typeNames = map[DataType]string{
	Bit:     "bit",
	Int16:   "int16",
	Uint16:  "uint16",
	Int32:   "int32",
	Uint32:  "uint32",
	Int64:   "int64",
	Uint64:  "uint64",
	Float32: "float32",
	Float64: "float64",
}

func (t DataType) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("DataType(%d)", uint8(t))
}

// Valid reports whether t is one of the supported types.
func (t DataType) Valid() bool {
	_, ok := typeNames[t]
	return ok
}

// Registers is the number of 16-bit registers a value of type t occupies.
// A bit occupies one coil/discrete input, counted as 1.
func (t DataType) Registers() int {
	switch t {
	case Bit, Int16, Uint16:
		return 1
	case Int32, Uint32, Float32:
		return 2
	case Int64, Uint64, Float64:
		return 4
	default:
		return 0
	}
}

// Bytes is the wire width of a register-backed value.
func (t DataType) Bytes() int {
	return 2 * t.Registers()
}

// ParseDataType maps a config/CLI name to a DataType.
// "float" and "double" are accepted as aliases.
func ParseDataType(s string) (DataType, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	switch name {
	case "bool", "coil":
		return Bit, nil
	case "float":
		return Float32, nil
	case "double":
		return Float64, nil
	}
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnsupportedType, s)
}

// UnmarshalText lets config files and flags name types directly.
func (t *DataType) UnmarshalText(b []byte) error {
	v, err := ParseDataType(string(b))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// MarshalText is the inverse of UnmarshalText.
func (t DataType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, ErrUnsupportedType
	}
	return []byte(t.String()), nil
}

// Extract returns a copy of width bytes of raw starting at offset.
func Extract(raw []byte, offset, width int) ([]byte, error) {
	if offset < 0 || width < 0 || offset+width > len(raw) {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d",
			ErrShortBuffer, width, offset, len(raw))
	}
	out := make([]byte, width)
	copy(out, raw[offset:offset+width])
	return out, nil
}

// BitAt returns coil index i of a packed coil/discrete-input response:
// byte i/8, bit i%8, with bit 0 the least significant.
func BitAt(packed []byte, i int) (bool, error) {
	if i < 0 || i/8 >= len(packed) {
		return false, fmt.Errorf("%w: bit %d outside %d bytes", ErrShortBuffer, i, len(packed))
	}
	return packed[i/8]&(1<<uint(i%8)) != 0, nil
}

// Decode interprets wire bytes of a register-backed value.
// raw must hold exactly t.Bytes() bytes in the given order.
func Decode(t DataType, raw []byte, order ByteOrder) (any, error) {
	if !t.Valid() || t == Bit {
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, t)
	}
	if len(raw) != t.Bytes() {
		return nil, fmt.Errorf("%w: %v needs %d bytes, have %d",
			ErrShortBuffer, t, t.Bytes(), len(raw))
	}

	b := Reorder(raw, order)
	switch t {
	case Int16:
		return int16(binary.BigEndian.Uint16(b)), nil
	case Uint16:
		return binary.BigEndian.Uint16(b), nil
	case Int32:
		return int32(binary.BigEndian.Uint32(b)), nil
	case Uint32:
		return binary.BigEndian.Uint32(b), nil
	case Float32:
		return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
	case Int64:
		return int64(binary.BigEndian.Uint64(b)), nil
	case Uint64:
		return binary.BigEndian.Uint64(b), nil
	default: // Float64
		return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
	}
}

// Encode produces wire bytes for v, which must have the Go type matching t
// (int16 for Int16, float32 for Float32, and so on).
func Encode(t DataType, v any, order ByteOrder) ([]byte, error) {
	var b []byte

	switch t {
	case Int16:
		x, ok := v.(int16)
		if !ok {
			return nil, mismatch(t, v)
		}
		b = binary.BigEndian.AppendUint16(nil, uint16(x))
	case Uint16:
		x, ok := v.(uint16)
		if !ok {
			return nil, mismatch(t, v)
		}
		b = binary.BigEndian.AppendUint16(nil, x)
	case Int32:
		x, ok := v.(int32)
		if !ok {
			return nil, mismatch(t, v)
		}
		b = binary.BigEndian.AppendUint32(nil, uint32(x))
	case Uint32:
		x, ok := v.(uint32)
		if !ok {
			return nil, mismatch(t, v)
		}
		b = binary.BigEndian.AppendUint32(nil, x)
	case Float32:
		x, ok := v.(float32)
		if !ok {
			return nil, mismatch(t, v)
		}
		b = binary.BigEndian.AppendUint32(nil, math.Float32bits(x))
	case Int64:
		x, ok := v.(int64)
		if !ok {
			return nil, mismatch(t, v)
		}
		b = binary.BigEndian.AppendUint64(nil, uint64(x))
	case Uint64:
		x, ok := v.(uint64)
		if !ok {
			return nil, mismatch(t, v)
		}
		b = binary.BigEndian.AppendUint64(nil, x)
	case Float64:
		x, ok := v.(float64)
		if !ok {
			return nil, mismatch(t, v)
		}
		b = binary.BigEndian.AppendUint64(nil, math.Float64bits(x))
	default:
		return nil, fmt.Errorf("%w: %v", ErrUnsupportedType, t)
	}

	return Reorder(b, order), nil
}

func mismatch(t DataType, v any) error {
	return fmt.Errorf("value: %v cannot hold %T", t, v)
}

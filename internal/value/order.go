// internal/value/order.go
package value

import (
	"fmt"
	"strings"
)

// ByteOrder is the wire layout of a multi-register value.
// Letters name the bytes of a 32-bit value from most to least significant.
type ByteOrder uint8

const (
	// ABCD: most significant word first, most significant byte first.
	ABCD ByteOrder = iota
	// BADC: most significant word first, bytes swapped inside each word.
	BADC
	// CDAB: least significant word first, most significant byte first.
	CDAB
	// DCBA: fully little-endian.
	DCBA
)

func (o ByteOrder) String() string {
	switch o {
	case ABCD:
		return "ABCD"
	case BADC:
		return "BADC"
	case CDAB:
		return "CDAB"
	case DCBA:
		return "DCBA"
	default:
		return fmt.Sprintf("ByteOrder(%d)", uint8(o))
	}
}

// ParseByteOrder accepts the four canonical names (case-insensitive).
func ParseByteOrder(s string) (ByteOrder, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", "ABCD":
		return ABCD, nil
	case "BADC":
		return BADC, nil
	case "CDAB":
		return CDAB, nil
	case "DCBA":
		return DCBA, nil
	default:
		return ABCD, fmt.Errorf("value: unknown byte order %q", s)
	}
}

func (o ByteOrder) swapWords() bool { return o == CDAB || o == DCBA }
func (o ByteOrder) swapBytes() bool { return o == BADC || o == DCBA }

// Reorder converts b between wire order and canonical big-endian order.
// The transform is its own inverse, so it serves both directions.
// b is treated as one value of len(b) bytes; an odd length is returned
// unchanged apart from the copy.
func Reorder(b []byte, order ByteOrder) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	if len(out)%2 != 0 {
		return out
	}

	words := len(out) / 2
	if order.swapWords() {
		for i, j := 0, words-1; i < j; i, j = i+1, j-1 {
			out[2*i], out[2*j] = out[2*j], out[2*i]
			out[2*i+1], out[2*j+1] = out[2*j+1], out[2*i+1]
		}
	}
	if order.swapBytes() {
		for i := 0; i < words; i++ {
			out[2*i], out[2*i+1] = out[2*i+1], out[2*i]
		}
	}
	return out
}

// UnmarshalText accepts the names understood by ParseByteOrder.
func (o *ByteOrder) UnmarshalText(b []byte) error {
	v, err := ParseByteOrder(string(b))
	if err != nil {
		return err
	}
	*o = v
	return nil
}

package brisc

import (
	"fmt"
	"strings"
)

// Bit represents a three-valued logic level.
type Bit byte

const (
	Bit0 Bit = iota
	Bit1
	BitX // unknown or don't-care
)

// String returns "0", "1" or "x".
func (b Bit) String() string {
	switch b {
	case Bit0:
		return "0"
	case Bit1:
		return "1"
	case BitX:
		return "x"
	default:
		return fmt.Sprintf("Bit(%d)", b)
	}
}

// Known returns true if b is 0 or 1.
func (b Bit) Known() bool { return b == Bit0 || b == Bit1 }

// ParseBit returns the bit for the characters 0, 1, x and X.
func ParseBit(c byte) (Bit, bool) {
	switch c {
	case '0':
		return Bit0, true
	case '1':
		return Bit1, true
	case 'x', 'X':
		return BitX, true
	}
	return BitX, false
}

// Three-valued gate functions. A known controlling input decides the output
// even when the other input is unknown.

func bitNot(a Bit) Bit {
	switch a {
	case Bit0:
		return Bit1
	case Bit1:
		return Bit0
	}
	return BitX
}

func bitAnd(a, b Bit) Bit {
	if a == Bit0 || b == Bit0 {
		return Bit0
	} else if a == Bit1 && b == Bit1 {
		return Bit1
	}
	return BitX
}

func bitOr(a, b Bit) Bit {
	if a == Bit1 || b == Bit1 {
		return Bit1
	} else if a == Bit0 && b == Bit0 {
		return Bit0
	}
	return BitX
}

func bitXor(a, b Bit) Bit {
	if !a.Known() || !b.Known() {
		return BitX
	} else if a != b {
		return Bit1
	}
	return Bit0
}

// bitMux returns a if s is 0 and b if s is 1. An unknown select still
// resolves when both data inputs agree.
func bitMux(a, b, s Bit) Bit {
	switch s {
	case Bit0:
		return a
	case Bit1:
		return b
	}
	if a == b && a.Known() {
		return a
	}
	return BitX
}

// Bits represents an ordered vector of bits. The order is defined by the
// signal vector the bits belong to; literals are stored most-significant first.
type Bits []Bit

// NewBits returns a vector of n copies of b.
func NewBits(n int, b Bit) Bits {
	a := make(Bits, n)
	for i := range a {
		a[i] = b
	}
	return a
}

// ParseBits parses a string over 0, 1, x and X. Underscores are ignored.
func ParseBits(s string) (Bits, error) {
	a := make(Bits, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			continue
		}
		b, ok := ParseBit(s[i])
		if !ok {
			return nil, fmt.Errorf("invalid bit character %q at position %d", s[i], i)
		}
		a = append(a, b)
	}
	return a, nil
}

// MustParseBits parses s. Panic on error.
func MustParseBits(s string) Bits {
	a, err := ParseBits(s)
	if err != nil {
		panic(err)
	}
	return a
}

// String returns the bits in vector order.
func (a Bits) String() string {
	var buf strings.Builder
	buf.Grow(len(a))
	for _, b := range a {
		buf.WriteString(b.String())
	}
	return buf.String()
}

// Equal returns true if a and other are bitwise identical.
func (a Bits) Equal(other Bits) bool {
	if len(a) != len(other) {
		return false
	}
	for i := range a {
		if a[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of a.
func (a Bits) Clone() Bits {
	if a == nil {
		return nil
	}
	other := make(Bits, len(a))
	copy(other, a)
	return other
}

// Reverse returns a copy of a in reverse order.
func (a Bits) Reverse() Bits {
	other := make(Bits, len(a))
	for i := range a {
		other[len(a)-1-i] = a[i]
	}
	return other
}

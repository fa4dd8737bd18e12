package dut

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Value is one observation read back from a device. A Value is either
// available and holds an integer, or it is Unavailable. Unavailable never
// equals any available value, including 0.
type Value struct {
	v  int64
	ok bool
}

// Unavailable is the value of a read that produced no usable answer.
var Unavailable = Value{}

// Available wraps a concrete integer.
func Available(v int64) Value {
	return Value{v: v, ok: true}
}

// Get returns the integer and whether it is available.
func (v Value) Get() (int64, bool) {
	return v.v, v.ok
}

// IsAvailable reports whether the value holds an integer.
func (v Value) IsAvailable() bool {
	return v.ok
}

// Uint32 returns the low 32 bits of the value for register reads.
func (v Value) Uint32() (uint32, bool) {
	return uint32(v.v), v.ok
}

// Equal reports whether two values are the same, treating two unavailable
// values as equal.
func (v Value) Equal(o Value) bool {
	return v == o
}

func (v Value) String() string {
	if !v.ok {
		return "unavailable"
	}

	return FormatHex(v.v)
}

// Radix selects how a bare response token without a base prefix is read.
type Radix int

const (
	// RadixHex reads tokens as hexadecimal with an optional 0x prefix.
	// Devices print register contents without a prefix.
	RadixHex Radix = iota
	// RadixAuto reads bare tokens as decimal without leading zeros and
	// honours 0x/0o/0b prefixes.
	RadixAuto
)

// ParseRadix converts a configuration string to a Radix.
func ParseRadix(s string) (Radix, error) {
	switch strings.ToLower(s) {
	case "", "hex":
		return RadixHex, nil
	case "auto":
		return RadixAuto, nil
	default:
		return RadixHex, fmt.Errorf("unknown radix %q", s)
	}
}

func (r Radix) String() string {
	if r == RadixAuto {
		return "auto"
	}

	return "hex"
}

// ParseValue decodes a device response. Empty or malformed text is
// Unavailable.
func ParseValue(text string, radix Radix) Value {
	s := strings.TrimSpace(text)
	if s == "" {
		return Unavailable
	}

	neg := false
	switch s[0] {
	case '-':
		neg = true
		s = s[1:]
	case '+':
		s = s[1:]
	}

	s, base, ok := digits(s, radix)
	if !ok {
		return Unavailable
	}

	u, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return Unavailable
	}

	switch {
	case !neg && u <= math.MaxInt64:
		return Available(int64(u))
	case neg && u <= math.MaxInt64:
		return Available(-int64(u))
	case neg && u == math.MaxInt64+1:
		return Available(math.MinInt64)
	default:
		return Unavailable
	}
}

// digits strips the base prefix of an unsigned token. In hex mode only 0x
// is a prefix, since b and o are hex digits there. In auto mode a bare
// decimal may not have leading zeros unless it is all zeros.
func digits(s string, radix Radix) (string, int, bool) {
	if len(s) > 2 && s[0] == '0' {
		switch s[1] {
		case 'x', 'X':
			return s[2:], 16, true
		case 'o', 'O':
			if radix == RadixAuto {
				return s[2:], 8, true
			}
		case 'b', 'B':
			if radix == RadixAuto {
				return s[2:], 2, true
			}
		}
	}

	if radix == RadixHex {
		return s, 16, true
	}

	if len(s) > 1 && s[0] == '0' && strings.Trim(s, "0") != "" {
		return s, 10, false
	}

	return s, 10, true
}

// FormatHex prints an integer the way the command line expects it: a
// lower-case 0x prefix and a leading minus for negative numbers.
func FormatHex(v int64) string {
	if v < 0 {
		return "-0x" + strconv.FormatUint(uint64(-(v+1))+1, 16)
	}

	return "0x" + strconv.FormatUint(uint64(v), 16)
}

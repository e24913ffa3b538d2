package pattern

import (
	"fmt"
	"strconv"
	"strings"
)

// Base selects how alternatives are written in generated code.
type Base int

const (
	Binary Base = iota
	Hexadecimal
	Decimal
)

var baseNames = map[Base]string{
	Binary:      "bin",
	Hexadecimal: "hex",
	Decimal:     "dec",
}

func (b Base) String() string {
	if s, ok := baseNames[b]; ok {
		return s
	}
	return fmt.Sprintf("Base(%d)", int(b))
}

// ParseBase maps a configuration value ("bin", "hex" or "dec") to a Base.
// The empty string selects Binary.
func ParseBase(s string) (Base, error) {
	if s == "" {
		return Binary, nil
	}
	for b, name := range baseNames {
		if strings.EqualFold(s, name) {
			return b, nil
		}
	}
	return Binary, fmt.Errorf("unknown literal base %q", s)
}

// FormatValue writes v as a Go integer literal. Binary literals are padded to
// the pattern length so that they line up with the pattern as written.
func FormatValue(v uint64, n int, base Base) string {
	switch base {
	case Hexadecimal:
		return "0x" + strconv.FormatUint(v, 16)
	case Decimal:
		return strconv.FormatUint(v, 10)
	default:
		s := strconv.FormatUint(v, 2)
		if len(s) < n {
			s = strings.Repeat("0", n-len(s)) + s
		}
		return "0b" + s
	}
}

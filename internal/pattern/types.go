package pattern

import (
	"fmt"
	"strings"
)

// BitRange is a half-open range of bit positions. Bit 0 is the least
// significant bit of the value a pattern matches.
type BitRange struct {
	Start int
	End   int
}

// Width returns the number of bits covered by the range.
func (r BitRange) Width() int {
	return r.End - r.Start
}

func (r BitRange) String() string {
	return fmt.Sprintf("[%d,%d)", r.Start, r.End)
}

// Capture is a named bit field declared with brackets in a pattern.
type Capture struct {
	Name  string
	Range BitRange
}

// Pattern is the parsed form of a pattern string.
type Pattern struct {
	// Source is the pattern as written.
	Source string
	// Bits is the canonical bit string over '0', '1' and 'x', in written order.
	Bits string
	// Captures lists the captures in the order their brackets open.
	Captures []Capture
}

// Len returns the number of significant bits of the pattern.
func (p *Pattern) Len() int {
	return len(p.Bits)
}

// Wildcards returns the number of 'x' positions in the pattern.
func (p *Pattern) Wildcards() int {
	return strings.Count(p.Bits, "x")
}

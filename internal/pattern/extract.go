package pattern

import (
	"fmt"
	"math/big"
)

// MaxWidth is the widest capture an extraction can hold.
const MaxWidth = 128

var widths = [...]int{8, 16, 32, 64, 128}

// Extraction recovers a capture from a matched value as (v >> Shift) & Mask,
// held in an unsigned integer of Width bits.
type Extraction struct {
	Shift int
	Mask  *big.Int
	Width int
}

// Synthesize computes the extraction of a bit range.
func Synthesize(r BitRange) (Extraction, error) {
	w, err := Width(r.Width())
	if err != nil {
		return Extraction{}, err
	}
	return Extraction{
		Shift: r.Start,
		Mask:  Mask(r.Width()),
		Width: w,
	}, nil
}

// Width returns the smallest unsigned integer size that holds n bits.
func Width(n int) (int, error) {
	for _, w := range widths {
		if n <= w {
			return w, nil
		}
	}
	return 0, fmt.Errorf("%w: %d bits do not fit in %d", ErrPatternTooWide, n, MaxWidth)
}

// Mask returns 2^n - 1.
func Mask(n int) *big.Int {
	m := new(big.Int).Lsh(big.NewInt(1), uint(n))
	return m.Sub(m, big.NewInt(1))
}

// MaskLiteral renders the mask as a hexadecimal Go literal.
func (e Extraction) MaskLiteral() string {
	return "0x" + e.Mask.Text(16)
}

// TypeName returns the Go type the extraction is held in.
func (e Extraction) TypeName() string {
	return fmt.Sprintf("uint%d", e.Width)
}

// Apply evaluates the extraction against v. Masks wider than 64 bits are
// truncated to the value's width.
func (e Extraction) Apply(v uint64) uint64 {
	if e.Shift >= 64 {
		return 0
	}
	m := e.Mask.Uint64()
	if e.Mask.BitLen() > 64 {
		m = ^uint64(0)
	}
	return (v >> e.Shift) & m
}

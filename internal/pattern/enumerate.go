package pattern

import (
	"fmt"
	"iter"
	"strconv"
	"strings"
)

// Assignments yields every assignment of k wildcard cells in binary counting
// order. Cell 0 is the least significant counting cell, so the sequence for
// k = 2 is 00, 10, 01, 11 (cells printed in index order). The yielded slice
// is reused between iterations. Each range over the sequence starts over.
func Assignments(k int) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		cells := make([]byte, k)
		for {
			if !yield(cells) {
				return
			}
			if !advance(cells) {
				return
			}
		}
	}
}

// advance adds one to the counter. It returns false once every cell was 1,
// leaving all cells rolled back to 0.
func advance(cells []byte) bool {
	for i := range cells {
		if cells[i] == 0 {
			cells[i] = 1
			return true
		}
		cells[i] = 0
	}
	return false
}

// Substitute replaces the wildcards of bits, in left-to-right order, with the
// cells of the assignment.
func Substitute(bits string, assignment []byte) string {
	var sb strings.Builder
	sb.Grow(len(bits))
	n := 0
	for i := 0; i < len(bits); i++ {
		if bits[i] == 'x' && n < len(assignment) {
			sb.WriteByte('0' + assignment[n])
			n++
			continue
		}
		sb.WriteByte(bits[i])
	}
	return sb.String()
}

// Alternatives yields the concrete value of every wildcard assignment of the
// canonical bit string. A value that does not parse as an unsigned 64-bit
// base-2 integer is yielded with an error wrapping ErrInvalidAlternative.
func Alternatives(bits string) iter.Seq2[uint64, error] {
	return func(yield func(uint64, error) bool) {
		for a := range Assignments(strings.Count(bits, "x")) {
			s := Substitute(bits, a)
			v, err := strconv.ParseUint(s, 2, 64)
			if err != nil {
				yield(0, newError(bits, -1, fmt.Errorf("%w: %v", ErrInvalidAlternative, err)))
				return
			}
			if !yield(v, nil) {
				return
			}
		}
	}
}

// Enumerate collects every alternative of the canonical bit string. It fails
// with ErrTooManyAlternatives when the pattern represents more than limit
// values; a limit of zero or less disables the check.
func Enumerate(bits string, limit int) ([]uint64, error) {
	k := strings.Count(bits, "x")
	if limit > 0 && (k >= 63 || 1<<k > limit) {
		return nil, newError(bits, -1, fmt.Errorf("%w: %d wildcards exceed the limit of %d values", ErrTooManyAlternatives, k, limit))
	}
	values := make([]uint64, 0, capacity(k))
	for v, err := range Alternatives(bits) {
		if err != nil {
			return nil, err
		}
		values = append(values, v)
	}
	return values, nil
}

func capacity(k int) int {
	if k > 16 {
		return 1 << 16
	}
	return 1 << k
}

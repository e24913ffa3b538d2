// Package compiler compiles the patterns of one switch case into integer
// alternatives and capture extractions.
package compiler

import (
	"fmt"
	"slices"

	"github.com/gnoswap-labs/bitpat/internal/pattern"
)

// Position is one pattern position of a case: the whole case for a single
// subject, or one element of a tuple case.
type Position struct {
	Pattern string
	// IsPattern is false for positions holding anything but a pattern
	// literal. Those pass through untouched and capture nothing.
	IsPattern bool
}

// Options bounds the compilation.
type Options struct {
	// MaxAlternatives caps the values one pattern, or the product of a
	// tuple case, may expand to. Zero means no limit.
	MaxAlternatives int
}

// Compiled is the result for one position.
type Compiled struct {
	// Pattern is nil for pass-through positions.
	Pattern *pattern.Pattern
	Values  []uint64
}

// Binding extracts one capture from the subject at Position.
type Binding struct {
	Position   int
	Capture    pattern.Capture
	Extraction pattern.Extraction
}

// Arm is a compiled switch case.
type Arm struct {
	Positions []Compiled
	Bindings  []Binding
}

// Compile parses and expands every pattern position of a case. Anonymous
// captures are numbered from zero for each case; each position starts from
// the total number of captures of the positions before it.
func Compile(positions []Position, opts Options) (*Arm, error) {
	arm := &Arm{Positions: make([]Compiled, len(positions))}
	anon := 0

	for i, pos := range positions {
		if !pos.IsPattern {
			continue
		}

		p, next, err := pattern.Parse(pos.Pattern, anon)
		if err != nil {
			return nil, err
		}
		anon = next

		values, err := pattern.Enumerate(p.Bits, opts.MaxAlternatives)
		if err != nil {
			return nil, err
		}
		arm.Positions[i] = Compiled{Pattern: p, Values: values}

		for _, c := range p.Captures {
			e, err := pattern.Synthesize(c.Range)
			if err != nil {
				return nil, &pattern.Error{Pattern: pos.Pattern, Offset: -1, Err: fmt.Errorf("capture %s: %w", c.Name, err)}
			}
			arm.Bindings = append(arm.Bindings, Binding{Position: i, Capture: c, Extraction: e})
		}
	}

	return arm, nil
}

// HasPatterns reports whether any position holds a pattern.
func (a *Arm) HasPatterns() bool {
	for _, p := range a.Positions {
		if p.Pattern != nil {
			return true
		}
	}
	return false
}

// Effective returns the bindings visible in the case body. When a name is
// bound more than once the later binding shadows the earlier ones.
func (a *Arm) Effective() []Binding {
	last := make(map[string]int, len(a.Bindings))
	for i, b := range a.Bindings {
		last[b.Capture.Name] = i
	}
	out := make([]Binding, 0, len(last))
	for i, b := range a.Bindings {
		if last[b.Capture.Name] == i {
			out = append(out, b)
		}
	}
	return out
}

// Combinations returns the cartesian product of the position values, first
// position varying slowest. Pass-through positions hold a zero placeholder.
func (a *Arm) Combinations(limit int) ([][]uint64, error) {
	total := 1
	for _, p := range a.Positions {
		if p.Pattern == nil {
			continue
		}
		total *= len(p.Values)
		if limit > 0 && total > limit {
			return nil, fmt.Errorf("%w: tuple case expands to more than %d values", pattern.ErrTooManyAlternatives, limit)
		}
	}

	combos := [][]uint64{make([]uint64, 0, len(a.Positions))}
	for _, p := range a.Positions {
		if p.Pattern == nil {
			for i := range combos {
				combos[i] = append(combos[i], 0)
			}
			continue
		}
		next := make([][]uint64, 0, len(combos)*len(p.Values))
		for _, c := range combos {
			for _, v := range p.Values {
				next = append(next, append(slices.Clone(c), v))
			}
		}
		combos = next
	}
	return combos, nil
}

// Matches reports whether every pattern position accepts the subject value
// at the same index.
func (a *Arm) Matches(subjects []uint64) bool {
	for i, p := range a.Positions {
		if p.Pattern == nil {
			continue
		}
		if i >= len(subjects) || !slices.Contains(p.Values, subjects[i]) {
			return false
		}
	}
	return true
}

// Eval computes the binding's value for the given subjects.
func (b Binding) Eval(subjects []uint64) uint64 {
	return b.Extraction.Apply(subjects[b.Position])
}

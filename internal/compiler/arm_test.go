package compiler

import (
	"errors"
	"testing"

	"github.com/gnoswap-labs/bitpat/internal/pattern"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func patterns(srcs ...string) []Position {
	out := make([]Position, len(srcs))
	for i, s := range srcs {
		out[i] = Position{Pattern: s, IsPattern: true}
	}
	return out
}

func TestCompileTupleCase(t *testing.T) {
	t.Parallel()
	arm, err := Compile(patterns("[:xx]xx_11[11]", "[xx]_xx11[var1: 00]"), Options{})
	require.NoError(t, err)

	subjects := []uint64{0b0000_1111, 0b1111_1100}
	assert.True(t, arm.Matches(subjects))

	got := make(map[string]uint64)
	for _, b := range arm.Bindings {
		got[b.Capture.Name] = b.Eval(subjects)
	}
	assert.Equal(t, map[string]uint64{"_0": 0, "_1": 3, "_2": 3, "var1": 0}, got)

	// the second position continues numbering after every capture of the first
	names := make([]string, 0, len(arm.Bindings))
	positions := make([]int, 0, len(arm.Bindings))
	for _, b := range arm.Bindings {
		names = append(names, b.Capture.Name)
		positions = append(positions, b.Position)
	}
	assert.Equal(t, []string{"_0", "_1", "_2", "var1"}, names)
	assert.Equal(t, []int{0, 0, 1, 1}, positions)
}

func TestCompileMiss(t *testing.T) {
	t.Parallel()
	arm, err := Compile(patterns("[:xx]xx_11[11]", "[xx]_xx11[var1: 00]"), Options{})
	require.NoError(t, err)

	assert.False(t, arm.Matches([]uint64{0b1001_0011, 0b1111_1100}))
	assert.False(t, arm.Matches([]uint64{0b0000_1111, 0b1111_1101}))
}

func TestCompileNamedOffset(t *testing.T) {
	t.Parallel()
	arm, err := Compile(patterns("[a:xx][x]", "[x]"), Options{})
	require.NoError(t, err)

	var names []string
	for _, b := range arm.Bindings {
		names = append(names, b.Capture.Name)
	}
	assert.Equal(t, []string{"a", "_0", "_2"}, names)
}

func TestCompilePassThrough(t *testing.T) {
	t.Parallel()
	arm, err := Compile([]Position{
		{Pattern: "[v:xx]01", IsPattern: true},
		{IsPattern: false},
	}, Options{})
	require.NoError(t, err)

	require.Len(t, arm.Positions, 2)
	assert.Nil(t, arm.Positions[1].Pattern)
	assert.Len(t, arm.Positions[0].Values, 4)
	assert.True(t, arm.HasPatterns())
	assert.True(t, arm.Matches([]uint64{0b1101}))
}

func TestEffectiveShadowing(t *testing.T) {
	t.Parallel()
	arm, err := Compile(patterns("[v:xx]00", "[v:x]1"), Options{})
	require.NoError(t, err)
	require.Len(t, arm.Bindings, 2)

	eff := arm.Effective()
	require.Len(t, eff, 1)
	assert.Equal(t, 1, eff[0].Position)
	assert.Equal(t, pattern.BitRange{Start: 1, End: 2}, eff[0].Capture.Range)
}

func TestCombinations(t *testing.T) {
	t.Parallel()
	arm, err := Compile([]Position{
		{Pattern: "x1", IsPattern: true},
		{IsPattern: false},
		{Pattern: "1x", IsPattern: true},
	}, Options{})
	require.NoError(t, err)

	combos, err := arm.Combinations(0)
	require.NoError(t, err)
	assert.Equal(t, [][]uint64{
		{0b01, 0, 0b10},
		{0b01, 0, 0b11},
		{0b11, 0, 0b10},
		{0b11, 0, 0b11},
	}, combos)

	_, err = arm.Combinations(3)
	assert.True(t, errors.Is(err, pattern.ErrTooManyAlternatives))
}

func TestCompileErrors(t *testing.T) {
	t.Parallel()
	_, err := Compile(patterns("01", "0z"), Options{})
	assert.True(t, errors.Is(err, pattern.ErrUnsupportedChar))

	_, err = Compile(patterns("xxxx"), Options{MaxAlternatives: 8})
	assert.True(t, errors.Is(err, pattern.ErrTooManyAlternatives))
}

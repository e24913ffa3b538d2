package pattern

import (
	"errors"
	"math/big"
	"testing"

	"github.com/funvibe/funbit/pkg/funbit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWidth(t *testing.T) {
	t.Parallel()
	tests := []struct {
		bits int
		want int
	}{
		{1, 8}, {8, 8}, {9, 16}, {16, 16}, {17, 32},
		{32, 32}, {33, 64}, {64, 64}, {65, 128}, {128, 128},
	}
	for _, tt := range tests {
		got, err := Width(tt.bits)
		require.NoError(t, err)
		assert.Equal(t, tt.want, got, "width of %d bits", tt.bits)
	}

	_, err := Width(129)
	assert.True(t, errors.Is(err, ErrPatternTooWide))
}

func TestMask(t *testing.T) {
	t.Parallel()
	for _, w := range []int{1, 2, 7, 8, 31, 63, 64, 65, 127, 128} {
		want := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(w)), big.NewInt(1))
		got := Mask(w)
		assert.Zero(t, want.Cmp(got), "mask of %d bits", w)
		assert.Equal(t, w, got.BitLen())
	}
}

func TestSynthesize(t *testing.T) {
	t.Parallel()
	e, err := Synthesize(BitRange{Start: 8, End: 14})
	require.NoError(t, err)
	assert.Equal(t, 8, e.Shift)
	assert.Equal(t, 8, e.Width)
	assert.Equal(t, "0x3f", e.MaskLiteral())
	assert.Equal(t, "uint8", e.TypeName())

	e, err = Synthesize(BitRange{Start: 0, End: 128})
	require.NoError(t, err)
	assert.Equal(t, 128, e.Width)
	assert.Equal(t, "0xffffffffffffffffffffffffffffffff", e.MaskLiteral())

	_, err = Synthesize(BitRange{Start: 0, End: 129})
	assert.True(t, errors.Is(err, ErrPatternTooWide))
}

func TestApply(t *testing.T) {
	t.Parallel()
	p, _, err := Parse("[op_1_var3233: x11x_10]0x[_op2__ : xxxx]11", 0)
	require.NoError(t, err)

	v := uint64(0b111010_0_1_1010_11)
	op, err := Synthesize(p.Captures[0].Range)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b111010), op.Apply(v))

	op2, err := Synthesize(p.Captures[1].Range)
	require.NoError(t, err)
	assert.Equal(t, uint64(0b1010), op2.Apply(v))
}

// TestApplyAgainstBitSyntax checks extraction against an independent
// MSB-first segment matcher.
func TestApplyAgainstBitSyntax(t *testing.T) {
	t.Parallel()
	tests := []struct {
		src   string
		value uint64
	}{
		{"[hi:xxxx][lo:xxxx]", 0xa5},
		{"1 [a:xxx] 0 [b:xxxxxxx] [c:xxxx]", 0b1_101_0_1100110_0011},
		{"[op:xxxxxx] [rs:xxxxx] [rt:xxxxx] [imm:xxxxxxxxxxxxxxxx]", 0x8c_a4_00_10},
	}

	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			t.Parallel()
			p, _, err := Parse(tt.src, 0)
			require.NoError(t, err)

			builder := funbit.NewBuilder()
			funbit.AddInteger(builder, int64(tt.value), funbit.WithSize(uint(p.Len())))
			bs, err := funbit.Build(builder)
			require.NoError(t, err)

			for _, c := range p.Captures {
				// split the value into the bits before, inside and after the capture
				var before, field, after uint
				matcher := funbit.NewMatcher()
				if lead := p.Len() - c.Range.End; lead > 0 {
					funbit.Integer(matcher, &before, funbit.WithSize(uint(lead)))
				}
				funbit.Integer(matcher, &field, funbit.WithSize(uint(c.Range.Width())))
				if c.Range.Start > 0 {
					funbit.Integer(matcher, &after, funbit.WithSize(uint(c.Range.Start)))
				}
				_, err := funbit.Match(matcher, bs)
				require.NoError(t, err)

				e, err := Synthesize(c.Range)
				require.NoError(t, err)
				assert.Equal(t, uint64(field), e.Apply(tt.value), "capture %s", c.Name)
			}
		})
	}
}

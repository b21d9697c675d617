package fixed_test

import (
	"testing"

	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
	"pgregory.net/rapid"
)

func TestFromInt_RoundTrip(t *testing.T) {
	for _, i := range []int{-2048, -3, -1, 0, 1, 2, 100, 2047} {
		assert.Equal(t, i, fixed.FromInt(i).Int(), "int %d", i)
	}
}

func TestFromInt_Saturates(t *testing.T) {
	assert.Equal(t, fixed.Max, fixed.FromInt(5000))
	assert.Equal(t, fixed.Min, fixed.FromInt(-5000))
}

func TestMul_Exact(t *testing.T) {
	two := fixed.FromInt(2)
	assert.Equal(t, fixed.FromInt(2), fixed.One.Mul(two))
	assert.Equal(t, fixed.NegOne.Mul(two), fixed.FromInt(-2))
	assert.Equal(t, fixed.Half, fixed.Half.Mul(fixed.One))
	assert.Equal(t, fixed.FromRatio(1, 4), fixed.Half.Mul(fixed.Half))
}

func TestMul_RoundsTowardNegativeInfinity(t *testing.T) {
	// -1/16 * 1/2 = -1/32, which floors to -1/16.
	assert.Equal(t, fixed.Fixed(-1), fixed.Fixed(-1).Mul(fixed.Half))
	// 1/16 * 1/2 = 1/32, which floors to 0.
	assert.Equal(t, fixed.Zero, fixed.Fixed(1).Mul(fixed.Half))
}

func TestDiv_TruncatesTowardZero(t *testing.T) {
	assert.Equal(t, fixed.FromRatio(1, 3), fixed.One.Div(fixed.FromInt(3)))
	assert.Equal(t, fixed.FromRatio(-1, 3), fixed.NegOne.Div(fixed.FromInt(3)))
	assert.Equal(t, fixed.FromInt(-2), fixed.FromInt(4).Div(fixed.FromInt(-2)))
}

func TestDiv_ByZero(t *testing.T) {
	assert.Equal(t, fixed.Max, fixed.One.Div(fixed.Zero))
	assert.Equal(t, fixed.Min, fixed.NegOne.Div(fixed.Zero))
	assert.Equal(t, fixed.Zero, fixed.Zero.Div(fixed.Zero))
	_, ok := fixed.One.CheckedDiv(fixed.Zero)
	assert.False(t, ok)
}

func TestSaturatingAndWrapping(t *testing.T) {
	assert.Equal(t, fixed.Max, fixed.Max.Add(fixed.One))
	assert.Equal(t, fixed.Min, fixed.Min.Sub(fixed.One))
	assert.Equal(t, fixed.Max, fixed.Min.Neg())
	assert.Equal(t, fixed.Min.Add(fixed.Fixed(15)), fixed.Max.WrappingAdd(fixed.One))
	assert.Equal(t, fixed.Max, fixed.Min.WrappingSub(fixed.Epsilon))
	assert.Equal(t, fixed.Min, fixed.Min.WrappingNeg())
}

func TestRatio(t *testing.T) {
	r := fixed.FromRatio(3, 2).Ratio()
	assert.Equal(t, fixed.Ratio{Num: 24, Den: 16}, r)
	assert.Equal(t, fixed.Ratio{Num: 3, Den: 2}, r.Reduced())
	assert.Equal(t, "3/2", fixed.FromRatio(3, 2).String())
	assert.Equal(t, "-2", fixed.FromInt(-2).String())
	assert.Equal(t, fixed.FromRatio(3, 2), r.Fixed())
}

func TestParse(t *testing.T) {
	cases := map[string]fixed.Fixed{
		"2":     fixed.FromInt(2),
		"-3/16": fixed.Fixed(-3),
		"2.5":   fixed.FromRatio(5, 2),
		"-0.5":  fixed.Half.Neg(),
		" 1/4 ": fixed.FromRatio(1, 4),
	}
	for in, want := range cases {
		got, err := fixed.Parse(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	for _, bad := range []string{"", "1/0", "x", "1.", "a/2"} {
		_, err := fixed.Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestYAML_RoundTrip(t *testing.T) {
	type doc struct {
		Speed fixed.Fixed `yaml:"speed"`
		Grav  fixed.Fixed `yaml:"grav"`
	}
	var d doc
	require.NoError(t, yaml.Unmarshal([]byte("speed: 2\ngrav: 1/4\n"), &d))
	assert.Equal(t, fixed.FromInt(2), d.Speed)
	assert.Equal(t, fixed.FromRatio(1, 4), d.Grav)

	out, err := yaml.Marshal(d)
	require.NoError(t, err)
	var back doc
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, d, back)
}

func TestPropertyAdd_Commutative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := fixed.Fixed(rapid.Int16().Draw(rt, "a"))
		b := fixed.Fixed(rapid.Int16().Draw(rt, "b"))
		assert.Equal(rt, a.Add(b), b.Add(a))
		assert.Equal(rt, a.Mul(b), b.Mul(a))
		assert.Equal(rt, a.WrappingAdd(b), b.WrappingAdd(a))
	})
}

func TestPropertyAddSub_InverseWithinRange(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := fixed.Fixed(rapid.Int16Range(-1000, 1000).Draw(rt, "a"))
		b := fixed.Fixed(rapid.Int16Range(-1000, 1000).Draw(rt, "b"))
		assert.Equal(rt, a, a.Add(b).Sub(b))
	})
}

func TestPropertyWrappingAddSub_AlwaysInverse(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		a := fixed.Fixed(rapid.Int16().Draw(rt, "a"))
		b := fixed.Fixed(rapid.Int16().Draw(rt, "b"))
		assert.Equal(rt, a, a.WrappingAdd(b).WrappingSub(b))
	})
}

func TestPropertyRatio_Exact(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		f := fixed.Fixed(rapid.Int16().Draw(rt, "f"))
		assert.Equal(rt, f, f.Ratio().Fixed())
		assert.Equal(rt, f, f.Ratio().Reduced().Fixed())
		parsed, err := fixed.Parse(f.String())
		require.NoError(rt, err)
		assert.Equal(rt, f, parsed)
	})
}

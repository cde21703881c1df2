package dice_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/cory-johannsen/monsterbattle/internal/game/dice"
)

// fixedSource replays a scripted sequence of draws.
type fixedSource struct {
	ints   []int
	floats []float64
}

func (f *fixedSource) Intn(n int) int {
	v := f.ints[0]
	f.ints = f.ints[1:]
	return v % n
}

func (f *fixedSource) Float64() float64 {
	v := f.floats[0]
	f.floats = f.floats[1:]
	return v
}

func TestChance_StrictlyBelowThreshold(t *testing.T) {
	src := &fixedSource{floats: []float64{0.29, 0.3, 0.31}}
	assert.True(t, dice.Chance(src, 0.3))
	assert.False(t, dice.Chance(src, 0.3), "a draw equal to p must fail")
	assert.False(t, dice.Chance(src, 0.3))
}

func TestUniform_Bounds(t *testing.T) {
	src := &fixedSource{floats: []float64{0, 0.5}}
	assert.InDelta(t, 0.9, dice.Uniform(src, 0.9, 1.1), 1e-9)
	assert.InDelta(t, 1.0, dice.Uniform(src, 0.9, 1.1), 1e-9)
}

func TestIntRange_PanicsOnInvertedRange(t *testing.T) {
	assert.Panics(t, func() { dice.IntRange(dice.NewCryptoSource(), 5, 4) })
}

func TestWeightedIndex_SkipsZeroWeights(t *testing.T) {
	src := dice.NewSeededSource(7)
	for i := 0; i < 200; i++ {
		idx := dice.WeightedIndex(src, []int{0, 3, 0, 1})
		assert.Contains(t, []int{1, 3}, idx)
	}
}

func TestWeightedIndex_PanicsWithoutPositiveWeight(t *testing.T) {
	assert.Panics(t, func() { dice.WeightedIndex(dice.NewCryptoSource(), []int{0, 0}) })
}

func TestSeededSource_Reproducible(t *testing.T) {
	a := dice.NewSeededSource(42)
	b := dice.NewSeededSource(42)
	for i := 0; i < 50; i++ {
		require.Equal(t, a.Intn(1000), b.Intn(1000))
		require.Equal(t, a.Float64(), b.Float64())
	}
}

func TestCryptoSource_IntnPanicsOnNonPositive(t *testing.T) {
	assert.PanicsWithValue(t, "dice: Intn called with n <= 0", func() {
		dice.NewCryptoSource().Intn(0)
	})
}

func TestRoller_DelegatesToSource(t *testing.T) {
	src := &fixedSource{ints: []int{4}, floats: []float64{0.25}}
	r := dice.NewLoggedRoller(src, zaptest.NewLogger(t))
	assert.Equal(t, 4, r.Intn(6))
	assert.Equal(t, 0.25, r.Float64())
}

func TestCryptoSource_Ranges_Property(t *testing.T) {
	src := dice.NewCryptoSource()
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(1, 10000).Draw(rt, "n")
		v := src.Intn(n)
		if v < 0 || v >= n {
			rt.Fatalf("Intn(%d) returned %d", n, v)
		}
		f := src.Float64()
		if f < 0 || f >= 1 {
			rt.Fatalf("Float64 returned %v", f)
		}
	})
}

func TestPick_Distinct_Property(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		n := rapid.IntRange(0, 30).Draw(rt, "n")
		k := rapid.IntRange(0, n).Draw(rt, "k")
		seed := rapid.Int64().Draw(rt, "seed")
		got := dice.Pick(dice.NewSeededSource(seed), n, k)
		if len(got) != k {
			rt.Fatalf("expected %d indexes, got %d", k, len(got))
		}
		seen := make(map[int]bool, k)
		for _, idx := range got {
			if idx < 0 || idx >= n || seen[idx] {
				rt.Fatalf("invalid or repeated index %d in %v", idx, got)
			}
			seen[idx] = true
		}
	})
}

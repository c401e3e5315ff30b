package simdops

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rampPair(n int) (a, b []float32) {
	a = make([]float32, n)
	b = make([]float32, n)
	for i := range n {
		a[i] = float32(math.Sin(float64(i) * 0.37))
		b[i] = float32(math.Cos(float64(i)*0.11)) * 0.5
	}
	return a, b
}

func referenceDot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}

func TestDotScalar_MatchesReference(t *testing.T) {
	for _, n := range []int{1, 2, 3, 4, 5, 7, 8, 63, 64, 2048} {
		a, b := rampPair(n)
		want := referenceDot(a, b)
		got := DotScalar(a, b)
		assert.InDelta(t, want, float64(got), 1e-4, "n=%d", n)
	}
}

func TestDotScalar_Empty(t *testing.T) {
	assert.Zero(t, DotScalar(nil, nil))
	assert.Zero(t, DotScalar([]float32{}, []float32{}))
}

func TestDotScalar_Deterministic(t *testing.T) {
	a, b := rampPair(1000)
	first := DotScalar(a, b)
	for range 10 {
		require.Equal(t, first, DotScalar(a, b))
	}
}

func TestDotScalar_LaneOrder(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5, 6, 7, 8}
	b := []float32{1, 1, 1, 1, 1, 1, 1, 1}
	// lanes: (1+5) (2+6) (3+7) (4+8) reduced as (6+8)+(10+12)
	assert.Equal(t, float32(36), DotScalar(a, b))
}

func TestAccelerated_MatchesScalar(t *testing.T) {
	simd := Accelerated()
	for _, n := range []int{4, 8, 16, 100, 1024, 2048} {
		a, b := rampPair(n)
		scalar := DotScalar(a, b)
		fast := simd.Dot(a, b)
		assert.InDelta(t, float64(scalar), float64(fast), 1e-3, "n=%d", n)
	}
}

func TestSelect(t *testing.T) {
	assert.Same(t, Scalar(), Select(false))
	assert.Same(t, Best(), Select(true))
	assert.False(t, Scalar().Accelerated)
	assert.True(t, Accelerated().Accelerated)

	if HasVectorUnit() {
		assert.Same(t, Accelerated(), Best())
	} else {
		assert.Same(t, Scalar(), Best())
	}
}

func TestCPUInfo(t *testing.T) {
	assert.NotEmpty(t, CPUInfo())
}

func BenchmarkDotScalar(b *testing.B) {
	x, y := rampPair(2048)
	b.ReportAllocs()
	for b.Loop() {
		_ = DotScalar(x, y)
	}
}

func BenchmarkDotAccelerated(b *testing.B) {
	ops := Accelerated()
	x, y := rampPair(2048)
	b.ReportAllocs()
	for b.Loop() {
		_ = ops.Dot(x, y)
	}
}

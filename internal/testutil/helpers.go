// Package testutil provides reusable test helpers for FIR convolution tests.
package testutil

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
)

// Default tolerances for various test scenarios.
const (
	// ExactTolerance is used where integer-valued inputs make float32 results exact.
	ExactTolerance = 0
	// StreamTolerance bounds the difference between float32 engine output and a
	// float64 reference for unit-scale signals and kernels up to MaxLength taps.
	StreamTolerance = 1e-3
	// DBTolerance is used for magnitude comparisons in decibels.
	DBTolerance = 0.01
)

// DirectConvolve returns the first len(input) samples of the linear convolution
// of input with kernel, computed in float64 in direct form. Samples before the
// start of input are zero.
func DirectConvolve(input, kernel []float32) []float64 {
	out := make([]float64, len(input))
	for n := range input {
		var acc float64
		for k, h := range kernel {
			if n-k < 0 {
				break
			}
			acc += float64(h) * float64(input[n-k])
		}
		out[n] = acc
	}
	return out
}

// Noise returns n deterministic uniform samples in [-1, 1).
func Noise(seed uint64, n int) []float32 {
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(rng.Float64()*2 - 1)
	}
	return s
}

// Sine returns n samples of a unit-amplitude sine at freq cycles per sample.
func Sine(freq float64, n int) []float32 {
	s := make([]float32, n)
	for i := range s {
		s[i] = float32(math.Sin(2 * math.Pi * freq * float64(i)))
	}
	return s
}

// Impulse returns a unit impulse of length n with the one at index at.
func Impulse(n, at int) []float32 {
	s := make([]float32, n)
	s[at] = 1
	return s
}

// AssertSliceInDelta verifies that actual matches expected element-wise within
// tolerance and that the lengths agree.
func AssertSliceInDelta(t *testing.T, expected []float64, actual []float32, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if !assert.Len(t, actual, len(expected), msgAndArgs...) {
		return false
	}
	for i := range expected {
		if !assert.InDelta(t, expected[i], float64(actual[i]), tolerance,
			"sample %d differs: want %f, got %f", i, expected[i], actual[i]) {
			return false
		}
	}
	return true
}

// AssertAllZero verifies that every element of s is zero.
func AssertAllZero(t *testing.T, s []float32, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		if v != 0 {
			return assert.Fail(t, "non-zero sample", "s[%d]=%f", i, v)
		}
	}
	return true
}

// AssertNoNaNOrInf verifies that no elements in the slice are NaN or Inf.
func AssertNoNaNOrInf(t *testing.T, s []float32, msgAndArgs ...any) bool {
	t.Helper()
	for i, v := range s {
		f := float64(v)
		if math.IsNaN(f) {
			return assert.Fail(t, "found NaN", "s[%d] is NaN", i)
		}
		if math.IsInf(f, 0) {
			return assert.Fail(t, "found Inf", "s[%d] is Inf", i)
		}
	}
	return true
}

// AssertRelativeError verifies that the relative error between actual and expected is within tolerance.
func AssertRelativeError(t *testing.T, expected, actual, tolerance float64, msgAndArgs ...any) bool {
	t.Helper()
	if expected == 0 {
		return assert.InDelta(t, expected, actual, tolerance, msgAndArgs...)
	}
	relError := math.Abs(actual-expected) / math.Abs(expected)
	return assert.LessOrEqual(t, relError, tolerance,
		"relative error %e exceeds tolerance %e (expected=%f, actual=%f)",
		relError, tolerance, expected, actual)
}

// Package simdops provides the dot-product kernels used by the convolution engine.
//
// Two implementations share one numeric contract: a pure Go scalar fallback that
// accumulates in four independent lanes, and an accelerated variant backed by
// github.com/tphakala/simd. The accelerated variant is chosen at runtime when the
// CPU reports the required vector extensions, and never when built with the
// purego tag.
package simdops

import (
	"github.com/tphakala/simd/cpu"
	"github.com/tphakala/simd/f32"
)

// LaneWidth is the number of float32 elements the scalar kernel accumulates
// side by side. Kernel storage is padded to a multiple of this value.
const LaneWidth = 4

// laneMask is used with &^ to round a length down to a multiple of LaneWidth.
const laneMask = LaneWidth - 1

// DotFunc computes sum(a[i] * b[i]) over two slices of equal length.
type DotFunc func(a, b []float32) float32

// Ops bundles a dot-product implementation with a description of it.
// Values are package-level singletons; callers hold pointers.
type Ops struct {
	// Name identifies the implementation ("scalar" or "simd").
	Name string

	// Accelerated reports whether Dot uses hardware vector instructions.
	Accelerated bool

	// Dot computes the dot product. Both slices must have the same length;
	// implementations do not check.
	Dot DotFunc
}

var (
	scalarOps = Ops{
		Name: "scalar",
		Dot:  DotScalar,
	}
	simdOps = Ops{
		Name:        "simd",
		Accelerated: true,
		Dot:         f32.DotProductUnsafe,
	}
)

// Scalar returns the portable fallback implementation.
func Scalar() *Ops {
	return &scalarOps
}

// Accelerated returns the SIMD implementation regardless of CPU support.
// Most callers want Best.
func Accelerated() *Ops {
	return &simdOps
}

// Best returns the accelerated implementation when the CPU supports it,
// otherwise the scalar fallback.
func Best() *Ops {
	if hasVectorUnit {
		return &simdOps
	}
	return &scalarOps
}

// Select returns Best, or Scalar when allowSIMD is false.
func Select(allowSIMD bool) *Ops {
	if !allowSIMD {
		return Scalar()
	}
	return Best()
}

// CPUInfo describes the instruction set the accelerated path dispatches to.
func CPUInfo() string {
	return cpu.Info()
}

// DotScalar is the reference dot product. It keeps LaneWidth partial sums and
// reduces them pairwise at the end, so the summation order is fixed for a given
// length.
func DotScalar(a, b []float32) float32 {
	n := len(a)
	if n == 0 {
		return 0
	}
	b = b[:n]

	var s0, s1, s2, s3 float32
	blocked := n &^ laneMask
	for i := 0; i < blocked; i += LaneWidth {
		s0 += a[i] * b[i]
		s1 += a[i+1] * b[i+1]
		s2 += a[i+2] * b[i+2]
		s3 += a[i+3] * b[i+3]
	}

	// Tail for lengths that are not lane aligned.
	for i := blocked; i < n; i++ {
		s0 += a[i] * b[i]
	}

	return (s0 + s1) + (s2 + s3)
}

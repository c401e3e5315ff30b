// Package window generates window-function tables used to prepare impulse
// responses before they are installed in a convolver.
//
// The main use is tapering the tail of a measured impulse response that is
// longer than the kernel capacity, so truncation does not leave a hard edge.
package window

import (
	"fmt"
	"math"
	"strings"

	"github.com/tphakala/simd/f32"
)

const (
	// Window normalization
	windowNormalizationFactor = 2.0

	// Kaiser β from attenuation (Kaiser & Schafer)
	kaiserAttHigh          = 50.0
	kaiserAttMedium        = 21.0
	kaiserBetaHighCoeff1   = 0.1102
	kaiserBetaHighOffset   = 8.7
	kaiserBetaMediumCoeff1 = 0.5842
	kaiserBetaMediumPower  = 0.4
	kaiserBetaMediumCoeff2 = 0.07886

	// DefaultKaiserBeta gives roughly 80 dB sidelobe rejection.
	DefaultKaiserBeta = 8.0
)

// Shape selects a window function.
type Shape int

const (
	// Rectangular applies no taper.
	Rectangular Shape = iota
	// Hann is a raised cosine.
	Hann
	// Kaiser uses a Bessel I₀ window with an adjustable β.
	Kaiser
)

// String returns the lower-case name of the shape.
func (s Shape) String() string {
	switch s {
	case Rectangular:
		return "rect"
	case Hann:
		return "hann"
	case Kaiser:
		return "kaiser"
	default:
		return fmt.Sprintf("Shape(%d)", int(s))
	}
}

// ParseShape parses a shape name as produced by Shape.String.
func ParseShape(name string) (Shape, error) {
	switch strings.ToLower(name) {
	case "rect", "rectangular", "none":
		return Rectangular, nil
	case "hann", "hanning":
		return Hann, nil
	case "kaiser":
		return Kaiser, nil
	default:
		return Rectangular, fmt.Errorf("unknown window shape %q", name)
	}
}

// Table returns a symmetric window of the given length. beta is only used by
// Kaiser. The peak value is 1.
func Table(shape Shape, length int, beta float64) []float64 {
	switch shape {
	case Hann:
		return HannWindow(length)
	case Kaiser:
		return KaiserWindow(length, beta)
	default:
		w := make([]float64, max(length, 0))
		for i := range w {
			w[i] = 1
		}
		return w
	}
}

// HannWindow generates a symmetric Hann window: w[n] = 0.5 - 0.5·cos(2πn/(N-1)).
func HannWindow(length int) []float64 {
	if length < 1 {
		return []float64{}
	}
	window := make([]float64, length)
	if length == 1 {
		window[0] = 1
		return window
	}

	denom := float64(length - 1)
	for n := range length {
		window[n] = 0.5 - 0.5*math.Cos(2*math.Pi*float64(n)/denom)
	}
	return window
}

// KaiserWindow generates a Kaiser window of the specified length and β parameter.
//
// Larger β trades a wider main lobe for lower sidelobes. The window is
// symmetric, w[i] = w[length-1-i], and peaks at 1 in the center.
func KaiserWindow(length int, beta float64) []float64 {
	if length < 1 {
		return []float64{}
	}

	window := make([]float64, length)
	if length == 1 {
		window[0] = 1
		return window
	}

	// w[n] = I₀(β·sqrt(1 - ((n - α)/α)²)) / I₀(β), α = (N-1)/2
	alpha := float64(length-1) / windowNormalizationFactor
	i0Beta := BesselI0(beta)

	for n := range length {
		x := (float64(n) - alpha) / alpha
		arg := beta * math.Sqrt(max(0, 1.0-x*x))
		window[n] = BesselI0(arg) / i0Beta
	}

	return window
}

// KaiserBeta returns the β that yields approximately the given sidelobe
// attenuation in dB.
func KaiserBeta(attenuation float64) float64 {
	if attenuation > kaiserAttHigh {
		return kaiserBetaHighCoeff1 * (attenuation - kaiserBetaHighOffset)
	} else if attenuation >= kaiserAttMedium {
		delta := attenuation - kaiserAttMedium
		return kaiserBetaMediumCoeff1*math.Pow(delta, kaiserBetaMediumPower) + kaiserBetaMediumCoeff2*delta
	}
	return 0.0
}

// FadeOut multiplies the last n samples of kernel by the falling half of a
// window of the given shape, so the kernel decays smoothly to zero. n is
// clamped to len(kernel). The kernel is modified in place.
func FadeOut(kernel []float32, n int, shape Shape, beta float64) {
	n = min(n, len(kernel))
	if n <= 0 || shape == Rectangular {
		return
	}

	// The falling half of a 2n+1 window, excluding the peak: n values from
	// just below 1 down to the window edge.
	full := Table(shape, 2*n+1, beta)
	fall := full[n+1:]

	tail := kernel[len(kernel)-n:]
	for i := range tail {
		tail[i] = float32(float64(tail[i]) * fall[i])
	}
}

// Normalize scales kernel so its samples sum to gain. A kernel with zero sum
// is left unchanged. It returns the applied scale factor.
func Normalize(kernel []float32, gain float64) float64 {
	sum := float64(f32.Sum(kernel))
	if sum == 0 {
		return 1
	}
	scale := gain / sum
	f32.Scale(kernel, kernel, float32(scale))
	return scale
}

// BesselI0 computes the modified Bessel function of the first kind, order
// zero, by summing its power series until terms fall below float64 precision.
func BesselI0(x float64) float64 {
	const epsilon = 1e-17

	half := x / 2
	sum := 1.0
	term := 1.0
	for k := 1; k < 500; k++ {
		f := half / float64(k)
		term *= f * f
		sum += term
		if term < epsilon*sum {
			break
		}
	}
	return sum
}

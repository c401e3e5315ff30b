// Package analysis inspects FIR kernels: gain, peak position and frequency
// response. It is used by the command-line tools and tests, never on the
// real-time path.
package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"
	"gonum.org/v1/gonum/dsp/fourier"
)

const (
	// DefaultFFTSize is used by MagnitudeResponse when fftSize is 0.
	DefaultFFTSize = 4096

	// defaultNumPoints is used by FrequencyResponse when numPoints is 0.
	defaultNumPoints = 512

	minMagnitude = 1e-10 // Avoid log(0)
	dbMultiplier = 20.0  // 20*log10 for magnitude

	// A real FFT of size N has N/2 + 1 unique complex coefficients.
	fftHermitianDivisor = 2
)

// ErrFFTSize indicates an FFT size smaller than the kernel.
var ErrFFTSize = errors.New("analysis: fft size smaller than kernel")

// Response holds a sampled frequency response.
type Response struct {
	// Frequencies are normalized to the sample rate (0 to 0.5).
	Frequencies []float64
	Magnitude   []float64
	Phase       []float64
}

// Float64s converts a kernel to float64.
func Float64s(kernel []float32) []float64 {
	out := make([]float64, len(kernel))
	for i, v := range kernel {
		out[i] = float64(v)
	}
	return out
}

// DCGain returns the sum of the kernel samples, the filter's gain at 0 Hz.
func DCGain(kernel []float32) float64 {
	if len(kernel) == 0 {
		return 0
	}
	return f64.Sum(Float64s(kernel))
}

// PeakIndex returns the index of the sample with the largest magnitude, or -1
// for an empty kernel. Ties resolve to the earliest index.
func PeakIndex(kernel []float32) int {
	peak := -1
	var peakAbs float64
	for i, v := range kernel {
		a := math.Abs(float64(v))
		if peak < 0 || a > peakAbs {
			peak, peakAbs = i, a
		}
	}
	return peak
}

// Energy returns the sum of squared kernel samples.
func Energy(kernel []float32) float64 {
	k := Float64s(kernel)
	return f64.DotProduct(k, k)
}

// MagnitudeResponse returns |H(k)| for k = 0..fftSize/2 using a real FFT of
// the zero-padded kernel. fftSize 0 selects DefaultFFTSize.
func MagnitudeResponse(kernel []float32, fftSize int) ([]float64, error) {
	if fftSize == 0 {
		fftSize = DefaultFFTSize
	}
	if fftSize < len(kernel) || fftSize < 1 {
		return nil, fmt.Errorf("%w: %d < %d", ErrFFTSize, fftSize, len(kernel))
	}

	padded := make([]float64, fftSize)
	for i, v := range kernel {
		padded[i] = float64(v)
	}

	fft := fourier.NewFFT(fftSize)
	coeffs := fft.Coefficients(nil, padded)

	mag := make([]float64, fftSize/fftHermitianDivisor+1)
	for k := range mag {
		re, im := real(coeffs[k]), imag(coeffs[k])
		mag[k] = math.Sqrt(re*re + im*im)
	}
	return mag, nil
}

// FrequencyResponse evaluates the DTFT of the kernel at numPoints frequencies
// from 0 up to (but excluding) Nyquist. numPoints 0 selects 512.
func FrequencyResponse(kernel []float32, numPoints int) Response {
	if numPoints <= 0 {
		numPoints = defaultNumPoints
	}

	response := Response{
		Frequencies: make([]float64, numPoints),
		Magnitude:   make([]float64, numPoints),
		Phase:       make([]float64, numPoints),
	}

	for k := range numPoints {
		freq := float64(k) / float64(2*numPoints)
		response.Frequencies[k] = freq

		// H(e^jω) = Σ h[n]·e^(-jωn)
		var realPart, imagPart float64
		omega := 2 * math.Pi * freq
		for n, h := range kernel {
			angle := omega * float64(n)
			realPart += float64(h) * math.Cos(angle)
			imagPart -= float64(h) * math.Sin(angle)
		}

		response.Magnitude[k] = math.Sqrt(realPart*realPart + imagPart*imagPart)
		response.Phase[k] = math.Atan2(imagPart, realPart)
	}

	return response
}

// MagnitudeDB converts linear magnitude to decibels.
func MagnitudeDB(magnitude float64) float64 {
	if magnitude < minMagnitude {
		magnitude = minMagnitude
	}
	return dbMultiplier * math.Log10(magnitude)
}

// BinFrequency returns the frequency in Hz of FFT bin k.
func BinFrequency(k, fftSize int, sampleRate float64) float64 {
	return float64(k) * sampleRate / float64(fftSize)
}

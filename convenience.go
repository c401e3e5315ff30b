package fir

import (
	"fmt"

	"github.com/tphakala/go-audio-fir/internal/engine"
	"github.com/tphakala/go-audio-fir/internal/kernel"
)

// Convolve returns the full linear convolution of input with impulse:
// len(input)+len(impulse)-1 samples, including the tail that rings out after
// the input ends. An empty impulse yields len(input) zeros.
//
// Impulses longer than MaxKernelLength are rejected with ErrImpulseTooLong.
func Convolve[T kernel.Sample](input []float32, impulse []T) ([]float32, error) {
	e, err := oneShotEngine(impulse)
	if err != nil {
		return nil, err
	}

	tail := max(e.Len(), 1) - 1
	output := make([]float32, len(input)+tail)
	e.Process(input, output)
	if tail > 0 {
		e.Process(make([]float32, tail), output[len(input):])
	}

	return output, nil
}

// FilterMono filters input with impulse and returns as many samples as it was
// given. Use Convolve to keep the tail.
func FilterMono[T kernel.Sample](input []float32, impulse []T) ([]float32, error) {
	e, err := oneShotEngine(impulse)
	if err != nil {
		return nil, err
	}

	output := make([]float32, len(input))
	e.Process(input, output)

	return output, nil
}

// FilterStereo filters both channels of a stereo signal with the same impulse.
func FilterStereo[T kernel.Sample](left, right []float32, impulse []T) (leftOut, rightOut []float32, err error) {
	leftOut, err = FilterMono(left, impulse)
	if err != nil {
		return nil, nil, err
	}

	rightOut, err = FilterMono(right, impulse)
	if err != nil {
		return nil, nil, err
	}

	return leftOut, rightOut, nil
}

func oneShotEngine[T kernel.Sample](impulse []T) (*engine.Engine, error) {
	if len(impulse) > MaxKernelLength {
		return nil, fmt.Errorf("%w: %d samples (max %d)", ErrImpulseTooLong, len(impulse), MaxKernelLength)
	}

	e := engine.New(0, 0, nil)
	if err := engine.Set(e, impulse); err != nil {
		return nil, err
	}
	return e, nil
}

// InterleaveToStereo converts two mono channels to interleaved stereo.
// Output format: [L0, R0, L1, R1, L2, R2, ...]
func InterleaveToStereo(left, right []float32) []float32 {
	minLen := min(len(left), len(right))
	result := make([]float32, minLen*stereoChannels)
	for i := range minLen {
		result[i*stereoChannels] = left[i]
		result[i*stereoChannels+1] = right[i]
	}
	return result
}

// DeinterleaveFromStereo converts interleaved stereo to two mono channels.
// Input format: [L0, R0, L1, R1, L2, R2, ...]
func DeinterleaveFromStereo(interleaved []float32) (left, right []float32) {
	numSamples := len(interleaved) / stereoChannels
	left = make([]float32, numSamples)
	right = make([]float32, numSamples)
	for i := range numSamples {
		left[i] = interleaved[i*stereoChannels]
		right[i] = interleaved[i*stereoChannels+1]
	}
	return left, right
}

package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	fir "github.com/tphakala/go-audio-fir"
	"github.com/tphakala/go-audio-fir/internal/window"
)

// impulseForChannel returns which impulse channel filters output channel ch.
// A mono impulse serves every channel; otherwise the counts must match.
func impulseForChannel(irChannels, ch int) (int, error) {
	switch irChannels {
	case 1:
		return 0, nil
	case 0:
		return 0, fmt.Errorf("impulse response has no channels")
	}
	if ch >= irChannels {
		return 0, fmt.Errorf("input channel %d has no matching impulse channel (impulse has %d)", ch, irChannels)
	}
	return ch, nil
}

// effectiveRegion returns the part of ir a convolver with the given offset and
// length limit will install. The slice aliases ir.
func effectiveRegion(ir []float32, offset, length int) []float32 {
	if offset >= len(ir) {
		return nil
	}
	limit := length
	if limit <= 0 || limit > fir.MaxKernelLength {
		limit = fir.MaxKernelLength
	}
	return ir[offset : offset+min(len(ir)-offset, limit)]
}

// prepareImpulse returns a copy of ir with the last fade samples of its
// effective region tapered to zero.
func prepareImpulse(ir []float32, offset, length, fade int, shape window.Shape, beta float64) []float32 {
	kernel := append([]float32(nil), ir...)
	if fade > 0 {
		window.FadeOut(effectiveRegion(kernel, offset, length), fade, shape, beta)
	}
	return kernel
}

// newBlock allocates one buffer per channel.
func newBlock(channels, frames int) [][]float32 {
	block := make([][]float32, channels)
	for ch := range block {
		block[ch] = make([]float32, frames)
	}
	return block
}

// sliceBlock reslices every channel of block to n frames in place and returns
// it. n may grow a channel back up to its capacity.
func sliceBlock(block [][]float32, n int) [][]float32 {
	for ch := range block {
		block[ch] = block[ch][:n]
	}
	return block
}

// progressTracker handles progress reporting.
type progressTracker struct {
	totalFrames  int64
	lastProgress int
}

// newProgressTracker creates a new progress tracker.
func newProgressTracker(totalFrames int64) *progressTracker {
	return &progressTracker{
		totalFrames: totalFrames,
	}
}

// reportIfNeeded logs progress if threshold crossed.
func (p *progressTracker) reportIfNeeded(currentFrames int64) {
	if p.totalFrames == 0 || !log.IsLevelEnabled(logrus.DebugLevel) {
		return
	}

	progress := int(float64(currentFrames) / float64(p.totalFrames) * percentScale)
	if progress >= p.lastProgress+progressInterval {
		log.WithField("percent", progress).Debug("Progress")
		p.lastProgress = progress
	}
}

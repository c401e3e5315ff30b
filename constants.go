package fir

import (
	"github.com/tphakala/go-audio-fir/internal/history"
	"github.com/tphakala/go-audio-fir/internal/kernel"
)

// MaxKernelLength is the longest impulse response a channel can hold.
const MaxKernelLength = kernel.MaxLength

// HistoryLength is the number of past input samples each channel retains.
const HistoryLength = history.Capacity

// Channel constants
const (
	stereoChannels = 2   // Stereo channel count (used by interleave functions)
	maxChannels    = 256 // Maximum supported channel count
)

// Memory accounting
const (
	bytesPerFloat32 = 4
	kernelCapacity  = (kernel.MaxLength + kernel.LaneWidth - 1) / kernel.LaneWidth * kernel.LaneWidth
	// Mirrored history plus padded kernel storage per channel.
	channelFootprint = (2*history.Capacity + kernelCapacity) * bytesPerFloat32
)

const algorithmName = "direct-form FIR"

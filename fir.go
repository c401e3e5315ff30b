package fir

import (
	"errors"
	"fmt"

	"github.com/tphakala/go-audio-fir/internal/kernel"
)

// Config holds convolver configuration.
type Config struct {
	// Channels is the number of independent audio channels to filter.
	// Each channel gets its own history and kernel.
	Channels int

	// Offset is the number of leading impulse samples skipped when an impulse
	// is installed. Use it to drop pre-delay from measured responses.
	Offset int

	// MaxLength limits how many impulse samples are used after Offset.
	// Zero means as many as fit, up to MaxKernelLength. Larger values are
	// clamped to MaxKernelLength.
	MaxLength int

	// Flags for additional options.
	Flags Flags

	// EnableParallel enables parallel channel processing in ProcessMulti.
	// When true, channels are filtered concurrently using goroutines.
	// Has no effect on mono audio.
	EnableParallel bool
}

// Flags provides additional processing options.
type Flags uint32

const (
	// FlagNoSIMD disables SIMD optimizations even when available.
	FlagNoSIMD Flags = 1 << iota
)

// Common errors returned by the convolver.
var (
	// ErrInvalidConfig indicates invalid configuration parameters.
	ErrInvalidConfig = errors.New("invalid convolver configuration")

	// ErrChannelMismatch indicates a channel index or channel count that does
	// not match the configuration.
	ErrChannelMismatch = errors.New("channel mismatch")

	// ErrBufferTooSmall indicates an output buffer shorter than its input.
	ErrBufferTooSmall = errors.New("output buffer too small")

	// ErrLengthOutOfRange is returned by SetLength for values above
	// MaxKernelLength (the value is clamped) or below zero (ignored).
	// The convolver remains usable.
	ErrLengthOutOfRange = kernel.ErrLengthOutOfRange

	// ErrImpulseTooLong is returned when an impulse has more than
	// MaxKernelLength usable samples and no MaxLength is configured.
	// The truncated kernel is installed.
	ErrImpulseTooLong = kernel.ErrImpulseTooLong
)

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Channels < 1 {
		return fmt.Errorf("%w: channels must be at least 1", ErrInvalidConfig)
	}

	if c.Channels > maxChannels {
		return fmt.Errorf("%w: too many channels (max %d)", ErrInvalidConfig, maxChannels)
	}

	if c.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", ErrInvalidConfig)
	}

	if c.MaxLength < 0 {
		return fmt.Errorf("%w: max length must not be negative", ErrInvalidConfig)
	}

	return nil
}

// Info describes a convolver's current configuration.
type Info struct {
	// Algorithm describes the filtering algorithm in use.
	Algorithm string

	// KernelLength is the longest effective kernel across channels.
	KernelLength int

	// PaddedLength is the stored length of that kernel including lane padding.
	// It equals the number of multiply-adds per output sample.
	PaddedLength int

	// MaxLength is the kernel length limit applied to the next impulse.
	MaxLength int

	// Offset is the impulse offset applied to the next impulse.
	Offset int

	// Latency is the processing latency in samples. Direct-form filtering
	// adds none beyond the kernel itself.
	Latency int

	// MemoryUsage is the approximate memory usage in bytes.
	MemoryUsage int64

	// SIMDEnabled indicates if SIMD optimizations are active.
	SIMDEnabled bool

	// SIMDType describes the SIMD instruction set in use.
	SIMDType string
}

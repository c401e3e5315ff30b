package fir

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/tphakala/go-audio-fir/internal/engine"
	"github.com/tphakala/go-audio-fir/internal/kernel"
	"github.com/tphakala/go-audio-fir/internal/simdops"
)

// Convolver streams one or more audio channels through FIR filters.
//
// Each channel owns an independent engine, so channels may carry different
// impulse responses. All buffers are allocated by New; Process never allocates.
// A Convolver is not safe for concurrent use.
type Convolver struct {
	config  Config
	ops     *simdops.Ops
	engines []*engine.Engine

	// Per-channel results for ProcessMulti.
	active []bool
}

// New creates a convolver with the specified configuration. All channels start
// with an empty kernel and produce silence until an impulse is installed.
func New(config *Config) (*Convolver, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: config is nil", ErrInvalidConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	ops := simdops.Select(config.Flags&FlagNoSIMD == 0)

	c := &Convolver{
		config:  *config,
		ops:     ops,
		engines: make([]*engine.Engine, config.Channels),
		active:  make([]bool, config.Channels),
	}
	for ch := range c.engines {
		c.engines[ch] = engine.New(config.Offset, config.MaxLength, ops)
	}

	return c, nil
}

// Channels returns the configured channel count.
func (c *Convolver) Channels() int {
	return len(c.engines)
}

// SetLength sets the maximum kernel length for impulses installed afterwards.
// Zero removes the limit. Values above MaxKernelLength are clamped and
// reported with ErrLengthOutOfRange; negative values are rejected with the
// same error and leave the limit unchanged.
func (c *Convolver) SetLength(n int) error {
	var err error
	for _, e := range c.engines {
		err = e.SetLength(n)
	}
	if n >= 0 {
		c.config.MaxLength = min(n, MaxKernelLength)
	}
	return err
}

// SetOffset sets the number of leading samples skipped from impulses installed
// afterwards. Negative values are treated as zero.
func (c *Convolver) SetOffset(n int) {
	for _, e := range c.engines {
		e.SetOffset(n)
	}
	c.config.Offset = max(n, 0)
}

// SetImpulse installs the same impulse response on every channel. Integer
// samples are converted without scaling. A returned ErrImpulseTooLong is
// advisory: the truncated kernel is active.
func SetImpulse[T kernel.Sample](c *Convolver, impulse []T) error {
	var err error
	for _, e := range c.engines {
		err = engine.Set(e, impulse)
	}
	return err
}

// SetChannelImpulse installs an impulse response on a single channel.
func SetChannelImpulse[T kernel.Sample](c *Convolver, channel int, impulse []T) error {
	if channel < 0 || channel >= len(c.engines) {
		return fmt.Errorf("%w: channel %d out of range (have %d)", ErrChannelMismatch, channel, len(c.engines))
	}
	return engine.Set(c.engines[channel], impulse)
}

// Reset clears the input history of every channel. Kernels are kept. The
// history is zeroed lazily on the next Process call.
func (c *Convolver) Reset() {
	for _, e := range c.engines {
		e.Reset()
	}
}

// Process filters a mono block through channel 0. It writes
// min(len(input), len(output)) samples and reports whether a non-empty kernel
// is installed; with no kernel the output is silence.
func (c *Convolver) Process(input, output []float32) bool {
	return c.engines[0].Process(input, output)
}

// ProcessMulti filters one block per channel. input and output must hold one
// slice per channel and each output slice must be at least as long as its
// input. It reports whether any channel has a non-empty kernel.
//
// When EnableParallel is set, channels are processed concurrently.
func (c *Convolver) ProcessMulti(input, output [][]float32) (bool, error) {
	if len(input) != len(c.engines) || len(output) != len(c.engines) {
		return false, fmt.Errorf("%w: expected %d channels, got %d in and %d out",
			ErrChannelMismatch, len(c.engines), len(input), len(output))
	}
	for ch := range input {
		if len(output[ch]) < len(input[ch]) {
			return false, fmt.Errorf("%w: channel %d has %d input and %d output samples",
				ErrBufferTooSmall, ch, len(input[ch]), len(output[ch]))
		}
	}

	// Sequential processing (default or when parallel disabled)
	if !c.config.EnableParallel || len(c.engines) <= 1 {
		for ch, e := range c.engines {
			c.active[ch] = e.Process(input[ch], output[ch])
		}
		return c.anyActive(), nil
	}

	// Parallel processing: each goroutine owns exactly one engine.
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for ch, e := range c.engines {
		g.Go(func() error {
			c.active[ch] = e.Process(input[ch], output[ch])
			return nil
		})
	}
	// Engines have no error path; the group only bounds concurrency.
	_ = g.Wait()

	return c.anyActive(), nil
}

func (c *Convolver) anyActive() bool {
	for _, a := range c.active {
		if a {
			return true
		}
	}
	return false
}

// Impulse returns the active kernel of a channel in time order, after offset
// and length limits were applied.
func (c *Convolver) Impulse(channel int) ([]float32, error) {
	if channel < 0 || channel >= len(c.engines) {
		return nil, fmt.Errorf("%w: channel %d out of range (have %d)", ErrChannelMismatch, channel, len(c.engines))
	}
	return c.engines[channel].Impulse(nil), nil
}

// Info returns information about the convolver.
func (c *Convolver) Info() Info {
	info := Info{
		Algorithm:   algorithmName,
		MaxLength:   c.config.MaxLength,
		Offset:      c.config.Offset,
		MemoryUsage: int64(len(c.engines)) * channelFootprint,
		SIMDEnabled: c.ops.Accelerated,
		SIMDType:    "none",
	}
	if info.MaxLength == 0 {
		info.MaxLength = MaxKernelLength
	}
	if c.ops.Accelerated {
		info.SIMDType = simdops.CPUInfo()
	}

	for _, e := range c.engines {
		if e.Len() > info.KernelLength {
			info.KernelLength = e.Len()
			info.PaddedLength = e.PaddedLen()
		}
	}

	return info
}

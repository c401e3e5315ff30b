// Package fir provides streaming time-domain FIR convolution in pure Go.
//
// A [Convolver] filters audio block by block through an impulse response of up
// to [MaxKernelLength] samples. Memory is allocated once at construction and
// the processing path never allocates, which makes it suitable for real-time
// audio callbacks. Output is identical no matter how the caller splits the
// stream into blocks.
//
// # Features
//
//   - Direct-form convolution with zero added latency
//   - Optional SIMD acceleration (AVX2/NEON) via github.com/tphakala/simd
//   - Multi-channel support with per-channel impulse responses
//   - Impulse offset and length limits for trimming measured responses
//   - Integer or floating-point impulse samples
//   - Pure Go implementation with no CGO dependencies
//
// # Quick Start
//
// For simple one-shot filtering:
//
//	output, err := fir.FilterMono(input, impulse)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// For streaming with a reusable convolver:
//
//	c, err := fir.New(&fir.Config{Channels: 2})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := fir.SetImpulse(c, impulse); err != nil {
//	    log.Printf("impulse truncated: %v", err)
//	}
//
//	for block := range audioBlocks {
//	    if _, err := c.ProcessMulti(block.In, block.Out); err != nil {
//	        log.Fatal(err)
//	    }
//	}
//
// # Errors
//
// [ErrLengthOutOfRange] and [ErrImpulseTooLong] are advisory: the value is
// clamped or the kernel truncated, and the convolver keeps working. Compare
// with errors.Is. Configuration and shape errors wrap [ErrInvalidConfig],
// [ErrChannelMismatch] or [ErrBufferTooSmall].
//
// # Kernel Changes
//
// Installing a new impulse replaces the kernel immediately and keeps the input
// history, so the next output sample already uses the new kernel over the
// existing past input. [Convolver.SetOffset] and [Convolver.SetLength] only
// affect impulses installed afterwards. [Convolver.Reset] clears the history.
//
// # Thread Safety
//
// A [Convolver] must not be used from multiple goroutines at once. With
// [Config.EnableParallel], [Convolver.ProcessMulti] fans channels out to
// goroutines internally; each goroutine owns one channel.
package fir

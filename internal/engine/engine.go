// Package engine implements the streaming FIR convolution engine.
//
// An Engine owns one kernel store, one mirrored history ring and a dot-product
// implementation. Process consumes input in chunks bounded by the ring's wrap
// point and evaluates one dot product per output sample against a contiguous
// history window, so the output is independent of how the caller splits the
// stream into blocks.
package engine

import (
	"github.com/tphakala/go-audio-fir/internal/history"
	"github.com/tphakala/go-audio-fir/internal/kernel"
	"github.com/tphakala/go-audio-fir/internal/simdops"
)

// maxChunk bounds the number of samples written to the history per inner
// iteration.
const maxChunk = 2048

// noCopy may be embedded into structs which must not be copied after first use.
// See https://golang.org/issues/8005#issuecomment-190753527.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// Engine is a single-channel streaming FIR filter.
//
// All buffers are allocated by New; Process never allocates. An Engine is not
// safe for concurrent use.
type Engine struct {
	_ noCopy

	kernel  *kernel.Store
	history *history.Ring
	ops     *simdops.Ops
}

// New returns an engine with an empty (silent) kernel. maxLength is clamped to
// kernel.MaxLength; 0 means unbounded. A nil ops selects simdops.Best.
func New(offset, maxLength int, ops *simdops.Ops) *Engine {
	if ops == nil {
		ops = simdops.Best()
	}
	return &Engine{
		kernel:  kernel.NewStore(offset, maxLength),
		history: history.NewRing(),
		ops:     ops,
	}
}

// SetLength sets the maximum kernel length used by the next Set.
// See kernel.Store.SetLength.
func (e *Engine) SetLength(n int) error {
	return e.kernel.SetLength(n)
}

// SetOffset sets the number of leading impulse samples skipped by the next Set.
func (e *Engine) SetOffset(n int) {
	e.kernel.SetOffset(n)
}

// Set installs a new impulse response, replacing the current kernel. The history
// is left untouched. A non-nil error is advisory: the truncated kernel is active.
func Set[T kernel.Sample](e *Engine, samples []T) error {
	_, err := kernel.Install(e.kernel, samples)
	return err
}

// Reset schedules the history to be zeroed on the next Process. The kernel and
// the cursor are kept.
func (e *Engine) Reset() {
	e.history.Clear()
}

// Len returns the effective kernel length.
func (e *Engine) Len() int { return e.kernel.Len() }

// PaddedLen returns the stored kernel length including lane padding.
func (e *Engine) PaddedLen() int { return e.kernel.PaddedLen() }

// Offset returns the configured impulse offset.
func (e *Engine) Offset() int { return e.kernel.Offset() }

// MaxLen returns the configured maximum kernel length (0 = unbounded).
func (e *Engine) MaxLen() int { return e.kernel.MaxLen() }

// Ops returns the dot-product implementation in use.
func (e *Engine) Ops() *simdops.Ops { return e.ops }

// Impulse appends the active kernel in time order to dst.
func (e *Engine) Impulse(dst []float32) []float32 {
	return e.kernel.Impulse(dst)
}

// Process filters min(len(input), len(output)) samples from input into output
// and reports whether a non-empty kernel is installed. With a silent kernel the
// output is zeroed; the input is still recorded in the history.
//
// input and output may be the same slice.
func (e *Engine) Process(input, output []float32) bool {
	e.history.Prepare()

	n := min(len(input), len(output))
	taps := e.kernel.Taps()
	width := len(taps)
	dot := e.ops.Dot

	for n > 0 {
		chunk := min(n, e.history.Remaining(), maxChunk)
		start := e.history.Cursor()

		e.history.Write(input[:chunk])
		e.history.Advance(chunk)

		if width == 0 {
			clear(output[:chunk])
		} else {
			for i := range chunk {
				output[i] = dot(e.history.Window(start+i+1, width), taps)
			}
		}

		input = input[chunk:]
		output = output[chunk:]
		n -= chunk
	}

	return e.kernel.Len() > 0
}

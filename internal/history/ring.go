// Package history implements the input history of the convolution engine.
//
// The Ring stores every sample twice, at cursor and cursor+Capacity, so the most
// recent N samples (N ≤ Capacity) ending at any position are one contiguous
// slice of the backing array. Readers never wrap.
package history

import "fmt"

// Capacity is the logical number of samples the ring remembers.
const Capacity = 4096

// Ring is a fixed-size mirrored circular buffer of float32 samples.
// It is not safe for concurrent use.
type Ring struct {
	data         []float32 // 2*Capacity, lower and upper mirror
	cursor       int       // next write position, always in [0, Capacity)
	pendingClear bool
}

// NewRing returns a zero-filled ring.
func NewRing() *Ring {
	return &Ring{
		data: make([]float32, 2*Capacity),
	}
}

// Cursor returns the next write position.
func (r *Ring) Cursor() int { return r.cursor }

// Remaining returns how many samples can be written before the cursor wraps.
func (r *Ring) Remaining() int { return Capacity - r.cursor }

// Write stores samples at the cursor in both mirrors without moving the
// cursor. len(samples) must not exceed Remaining; callers split their input at
// the wrap boundary.
func (r *Ring) Write(samples []float32) {
	if len(samples) > Capacity-r.cursor {
		panic(fmt.Sprintf("history: write of %d samples crosses wrap boundary at cursor %d", len(samples), r.cursor))
	}
	copy(r.data[r.cursor:], samples)
	copy(r.data[r.cursor+Capacity:], samples)
}

// Advance moves the cursor forward by n samples, wrapping at Capacity.
func (r *Ring) Advance(n int) {
	r.cursor = (r.cursor + n) % Capacity
}

// Clear schedules both mirrors to be zeroed by the next Prepare. Nothing is
// touched until then.
func (r *Ring) Clear() {
	r.pendingClear = true
}

// Pending reports whether a Clear is waiting for Prepare.
func (r *Ring) Pending() bool { return r.pendingClear }

// Prepare performs a scheduled clear. It is a no-op otherwise.
func (r *Ring) Prepare() {
	if !r.pendingClear {
		return
	}
	clear(r.data)
	r.pendingClear = false
}

// Window returns the length most recent samples ending just before logical
// position end, in time order. end must be in [0, Capacity] (0 and Capacity
// name the same position) and length in [0, Capacity]. The slice aliases the
// ring.
func (r *Ring) Window(end, length int) []float32 {
	hi := end + Capacity
	return r.data[hi-length : hi : hi]
}

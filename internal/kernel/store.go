// Package kernel holds the impulse response used by the convolution engine.
//
// Samples are stored time-reversed behind leading zero padding, so a forward dot
// product against a time-ordered history window of the padded length yields the
// convolution sum directly. The store is sized once for the hard capacity and
// never reallocates.
package kernel

import (
	"errors"

	"github.com/tphakala/go-audio-fir/internal/simdops"
)

// MaxLength is the hard capacity of a kernel in samples.
const MaxLength = 2044

// LaneWidth is the padding granularity of the stored kernel.
const LaneWidth = simdops.LaneWidth

// paddedCapacity is MaxLength rounded up to a multiple of LaneWidth.
const paddedCapacity = (MaxLength + LaneWidth - 1) / LaneWidth * LaneWidth

// Advisory errors. The store stays usable after either one.
var (
	// ErrLengthOutOfRange indicates a configured maximum above MaxLength.
	// The maximum is clamped to MaxLength.
	ErrLengthOutOfRange = errors.New("kernel: length out of range")

	// ErrImpulseTooLong indicates an unbounded store was given more than
	// MaxLength usable samples. The kernel is installed truncated.
	ErrImpulseTooLong = errors.New("kernel: impulse too long")
)

// Sample is the set of numeric types accepted by Install. Values are converted
// to float32 as-is; no scaling is applied to integer types.
type Sample interface {
	~int8 | ~int16 | ~int32 | ~int64 | ~int |
		~uint8 | ~uint16 | ~uint32 | ~uint64 | ~uint |
		~float32 | ~float64
}

// Store owns the reversed, padded kernel samples.
type Store struct {
	taps      []float32 // full padded capacity; taps[:padded] is live
	length    int       // effective length
	padded    int       // length rounded up to LaneWidth
	offset    int       // read offset applied on the next Install
	maxLength int       // 0 means MaxLength
}

// NewStore returns an empty store. maxLength is clamped to MaxLength and
// negative values are treated as 0 (unbounded).
func NewStore(offset, maxLength int) *Store {
	s := &Store{
		taps: make([]float32, paddedCapacity),
	}
	s.SetOffset(offset)
	if maxLength > 0 {
		s.maxLength = min(maxLength, MaxLength)
	}
	return s
}

// SetLength sets the maximum number of samples taken from the next installed
// impulse. Zero means unbounded (capped at MaxLength). Values above MaxLength are
// clamped and reported with ErrLengthOutOfRange. Negative values are rejected
// with ErrLengthOutOfRange and leave the setting unchanged.
func (s *Store) SetLength(n int) error {
	if n < 0 {
		return ErrLengthOutOfRange
	}
	if n > MaxLength {
		s.maxLength = MaxLength
		return ErrLengthOutOfRange
	}
	s.maxLength = n
	return nil
}

// SetOffset sets how many leading samples the next Install skips.
func (s *Store) SetOffset(n int) {
	s.offset = max(n, 0)
}

// Offset returns the configured read offset.
func (s *Store) Offset() int { return s.offset }

// MaxLen returns the configured maximum length (0 = unbounded).
func (s *Store) MaxLen() int { return s.maxLength }

// Len returns the effective kernel length.
func (s *Store) Len() int { return s.length }

// PaddedLen returns the stored length including leading zero padding.
func (s *Store) PaddedLen() int { return s.padded }

// Taps returns the live reversed kernel. The slice aliases the store and is
// only valid until the next Install.
func (s *Store) Taps() []float32 {
	return s.taps[:s.padded]
}

// Impulse appends the effective kernel in time order to dst and returns it.
func (s *Store) Impulse(dst []float32) []float32 {
	for i := s.padded - 1; i >= s.padded-s.length; i-- {
		dst = append(dst, s.taps[i])
	}
	return dst
}

// Install replaces the kernel with samples[offset:], limited by the configured
// maximum. It returns the effective length. The previous kernel is discarded
// even when an error is returned.
func Install[T Sample](s *Store, samples []T) (int, error) {
	var err error

	usable := len(samples) - s.offset
	length := 0
	if usable > 0 {
		limit := s.maxLength
		if limit == 0 {
			limit = MaxLength
			if usable > MaxLength {
				err = ErrImpulseTooLong
			}
		}
		length = min(usable, limit)
	}

	padded := (length + LaneWidth - 1) / LaneWidth * LaneWidth
	lead := padded - length

	clear(s.taps[:lead])
	if length > 0 {
		src := samples[s.offset : s.offset+length]
		for i, v := range src {
			s.taps[padded-1-i] = float32(v)
		}
	}

	s.length = length
	s.padded = padded

	return length, err
}

// Package audiofile reads WAV and AIFF files into per-channel float32 blocks and
// writes float32 blocks back out as PCM WAV.
//
// Samples are normalized by the maximum positive value of the source bit
// depth, so full-scale PCM maps to [-1, 1].
package audiofile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/go-audio/aiff"
	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// Container identifies a file format.
type Container string

// Supported containers.
const (
	WAV  Container = "wav"
	AIFF Container = "aiff"
)

const (
	// readChunkFrames is the number of frames decoded per PCMBuffer call.
	readChunkFrames = 8192

	magicLen = 12

	// Sample format constants
	bitsPerSample16 = 16
	bitsPerSample24 = 24
	bitsPerSample32 = 32
)

// Errors returned by Open and Create.
var (
	ErrUnknownContainer  = errors.New("audiofile: not a WAV or AIFF file")
	ErrInvalidFile       = errors.New("audiofile: invalid file")
	ErrUnsupportedFormat = errors.New("audiofile: unsupported sample format")
)

// Format describes the PCM layout of a file.
type Format struct {
	Container  Container
	SampleRate int
	Channels   int
	BitDepth   int
	// Frames is the number of sample frames. For WAV it is derived from the
	// header and may be 0 for streams of unknown length.
	Frames int64
}

// Reader decodes PCM frames from a WAV or AIFF file.
type Reader struct {
	path   string
	file   *os.File
	format Format

	// WAV files are streamed through the decoder; AIFF files are decoded up
	// front into mem.
	dec *wav.Decoder
	mem []int

	buf      *audio.IntBuffer
	pending  []int // decoded samples not yet returned by Read
	pos      int64 // current frame
	invScale float64
}

// Open opens path and detects its container from the file header.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}

	r, err := newReader(path, f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return r, nil
}

func newReader(path string, f *os.File) (*Reader, error) {
	container, err := sniff(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	r := &Reader{path: path, file: f}

	switch container {
	case WAV:
		err = r.openWAV()
	case AIFF:
		err = r.openAIFF()
	}
	if err != nil {
		return nil, err
	}

	scale := maxValue(r.format.BitDepth)
	if scale == 0 {
		return nil, fmt.Errorf("%w: %s is %d-bit", ErrUnsupportedFormat, path, r.format.BitDepth)
	}
	r.invScale = 1 / scale

	if r.format.Channels < 1 {
		return nil, fmt.Errorf("%w: %s has no channels", ErrInvalidFile, path)
	}

	return r, nil
}

// sniff reads the container magic and rewinds f.
func sniff(f io.ReadSeeker) (Container, error) {
	var magic [magicLen]byte
	if _, err := io.ReadFull(f, magic[:]); err != nil {
		return "", ErrUnknownContainer
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}

	switch {
	case bytes.Equal(magic[0:4], []byte("RIFF")) && bytes.Equal(magic[8:12], []byte("WAVE")):
		return WAV, nil
	case bytes.Equal(magic[0:4], []byte("FORM")) &&
		(bytes.Equal(magic[8:12], []byte("AIFF")) || bytes.Equal(magic[8:12], []byte("AIFC"))):
		return AIFF, nil
	default:
		return "", ErrUnknownContainer
	}
}

func (r *Reader) openWAV() error {
	dec := wav.NewDecoder(r.file)
	if !dec.IsValidFile() {
		return fmt.Errorf("%w: %s", ErrInvalidFile, r.path)
	}

	format := dec.Format()
	r.format = Format{
		Container:  WAV,
		SampleRate: format.SampleRate,
		Channels:   format.NumChannels,
		BitDepth:   int(dec.BitDepth),
	}

	// Duration is only used to report the frame count.
	if duration, err := dec.Duration(); err == nil {
		r.format.Frames = int64(math.Round(duration.Seconds() * float64(format.SampleRate)))
	}

	r.dec = dec
	r.buf = &audio.IntBuffer{
		Data:   make([]int, readChunkFrames*max(format.NumChannels, 1)),
		Format: format,
	}
	return nil
}

func (r *Reader) openAIFF() error {
	dec := aiff.NewDecoder(r.file)
	if !dec.IsValidFile() {
		return fmt.Errorf("%w: %s", ErrInvalidFile, r.path)
	}

	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return fmt.Errorf("failed to decode %s: %w", r.path, err)
	}
	if buf.Format == nil || buf.Format.NumChannels < 1 {
		return fmt.Errorf("%w: %s", ErrInvalidFile, r.path)
	}

	r.format = Format{
		Container:  AIFF,
		SampleRate: buf.Format.SampleRate,
		Channels:   buf.Format.NumChannels,
		BitDepth:   buf.SourceBitDepth,
		Frames:     int64(len(buf.Data) / buf.Format.NumChannels),
	}
	r.mem = buf.Data
	r.pending = r.mem
	return nil
}

// Format returns the file's PCM layout.
func (r *Reader) Format() Format {
	return r.format
}

// Position returns the index of the next frame Read returns.
func (r *Reader) Position() int64 {
	return r.pos
}

// Read decodes up to len(dst[0]) frames into dst, one slice per channel, and
// returns the number of frames read. At end of file it returns 0, io.EOF.
func (r *Reader) Read(dst [][]float32) (int, error) {
	channels := r.format.Channels
	if len(dst) != channels {
		return 0, fmt.Errorf("audiofile: read into %d channels, file has %d", len(dst), channels)
	}
	want := len(dst[0])
	for _, d := range dst[1:] {
		want = min(want, len(d))
	}

	frames := 0
	for frames < want {
		if len(r.pending) == 0 {
			if err := r.fill(); err != nil {
				return frames, err
			}
			if len(r.pending) == 0 {
				break
			}
		}

		n := min(want-frames, len(r.pending)/channels)
		deinterleave(r.pending[:n*channels], dst, frames, channels, r.invScale)
		r.pending = r.pending[n*channels:]
		r.pos += int64(n)
		frames += n
	}

	if frames == 0 && want > 0 {
		return 0, io.EOF
	}
	return frames, nil
}

// fill decodes the next chunk of a WAV stream into pending.
func (r *Reader) fill() error {
	if r.dec == nil {
		return nil
	}

	r.buf.Data = r.buf.Data[:cap(r.buf.Data)]
	n, err := r.dec.PCMBuffer(r.buf)
	if err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read audio data: %w", err)
	}

	// Drop a trailing partial frame.
	n -= n % r.format.Channels
	r.pending = r.buf.Data[:n]
	return nil
}

// Seek positions the reader so the next Read starts at frame. Seeking past the
// end leaves the reader at end of file.
func (r *Reader) Seek(frame int64) error {
	if frame < 0 {
		return fmt.Errorf("audiofile: negative seek to frame %d", frame)
	}

	if r.dec == nil {
		total := int64(len(r.mem) / r.format.Channels)
		r.pos = min(frame, total)
		r.pending = r.mem[r.pos*int64(r.format.Channels):]
		return nil
	}

	if frame < r.pos {
		if err := r.rewindWAV(); err != nil {
			return err
		}
	}
	return r.skip(frame - r.pos)
}

// rewindWAV restarts decoding from the first frame.
func (r *Reader) rewindWAV() error {
	if _, err := r.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("failed to rewind %s: %w", r.path, err)
	}
	r.dec = wav.NewDecoder(r.file)
	if !r.dec.IsValidFile() {
		return fmt.Errorf("%w: %s", ErrInvalidFile, r.path)
	}
	r.pending = nil
	r.pos = 0
	return nil
}

func (r *Reader) skip(frames int64) error {
	channels := int64(r.format.Channels)
	for frames > 0 {
		if len(r.pending) == 0 {
			if err := r.fill(); err != nil {
				return err
			}
			if len(r.pending) == 0 {
				return nil
			}
		}
		n := min(frames, int64(len(r.pending))/channels)
		r.pending = r.pending[n*channels:]
		r.pos += n
		frames -= n
	}
	return nil
}

// Close closes the underlying file.
func (r *Reader) Close() error {
	return r.file.Close()
}

// ReadAll opens path and decodes every frame into per-channel slices.
func ReadAll(path string) ([][]float32, Format, error) {
	r, err := Open(path)
	if err != nil {
		return nil, Format{}, err
	}
	defer func() { _ = r.Close() }()

	format := r.Format()
	out := make([][]float32, format.Channels)
	block := make([][]float32, format.Channels)
	for ch := range block {
		block[ch] = make([]float32, readChunkFrames)
	}

	for {
		n, err := r.Read(block)
		for ch := range out {
			out[ch] = append(out[ch], block[ch][:n]...)
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, Format{}, err
		}
	}

	format.Frames = int64(len(out[0]))
	return out, format, nil
}

// deinterleave converts interleaved int samples into dst[ch][offset:].
func deinterleave(data []int, dst [][]float32, offset, channels int, invScale float64) {
	frames := len(data) / channels

	// Fast path for mono
	if channels == 1 {
		buf := dst[0][offset:]
		for i := range frames {
			buf[i] = float32(float64(data[i]) * invScale)
		}
		return
	}

	for i := range frames {
		base := i * channels
		for ch := range channels {
			dst[ch][offset+i] = float32(float64(data[base+ch]) * invScale)
		}
	}
}

// maxValue returns the maximum positive sample value for the given bit depth,
// or 0 for unsupported depths.
func maxValue(bitDepth int) float64 {
	switch bitDepth {
	case bitsPerSample16, bitsPerSample24, bitsPerSample32:
		return float64(audio.IntMaxSignedValue(bitDepth))
	default:
		return 0
	}
}

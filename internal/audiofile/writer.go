package audiofile

import (
	"fmt"
	"math"
	"os"

	"github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// wavFormatPCM is the WAVE format tag for integer PCM.
const wavFormatPCM = 1

// Writer encodes per-channel float32 blocks as PCM WAV.
type Writer struct {
	file    *os.File
	enc     *wav.Encoder
	buf     *audio.IntBuffer
	format  Format
	maxVal  float64
	frames  int64
	clipped int64
}

// Create creates path and writes a WAV header for format. Only SampleRate,
// Channels and BitDepth are used.
func Create(path string, format Format) (*Writer, error) {
	maxVal := maxValue(format.BitDepth)
	if maxVal == 0 {
		return nil, fmt.Errorf("%w: %d-bit output", ErrUnsupportedFormat, format.BitDepth)
	}
	if format.Channels < 1 || format.SampleRate < 1 {
		return nil, fmt.Errorf("%w: %d channels at %d Hz", ErrUnsupportedFormat, format.Channels, format.SampleRate)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create output file: %w", err)
	}

	format.Container = WAV
	format.Frames = 0

	return &Writer{
		file:   f,
		enc:    wav.NewEncoder(f, format.SampleRate, format.BitDepth, format.Channels, wavFormatPCM),
		format: format,
		maxVal: maxVal,
		buf: &audio.IntBuffer{
			Format: &audio.Format{
				NumChannels: format.Channels,
				SampleRate:  format.SampleRate,
			},
			SourceBitDepth: format.BitDepth,
		},
	}, nil
}

// Write interleaves and encodes one block. Every channel slice must have the
// same length. Samples outside [-1, 1] are clipped.
func (w *Writer) Write(src [][]float32) error {
	channels := w.format.Channels
	if len(src) != channels {
		return fmt.Errorf("audiofile: write of %d channels, file has %d", len(src), channels)
	}
	frames := len(src[0])
	for ch, s := range src {
		if len(s) != frames {
			return fmt.Errorf("audiofile: channel %d has %d frames, want %d", ch, len(s), frames)
		}
	}
	if frames == 0 {
		return nil
	}

	total := frames * channels
	if cap(w.buf.Data) < total {
		w.buf.Data = make([]int, total)
	}
	w.buf.Data = w.buf.Data[:total]
	w.clipped += int64(interleave(src, w.buf.Data, w.maxVal))

	if err := w.enc.Write(w.buf); err != nil {
		return fmt.Errorf("failed to write audio data: %w", err)
	}
	w.frames += int64(frames)
	return nil
}

// Frames returns the number of frames written so far.
func (w *Writer) Frames() int64 {
	return w.frames
}

// Clipped returns the number of samples clipped to full scale so far.
func (w *Writer) Clipped() int64 {
	return w.clipped
}

// Close finalizes the WAV header and closes the file.
func (w *Writer) Close() error {
	if err := w.enc.Close(); err != nil {
		_ = w.file.Close()
		return fmt.Errorf("failed to finalize WAV: %w", err)
	}
	return w.file.Close()
}

// interleave converts per-channel float32 blocks to interleaved integer PCM,
// clipping to [-1, 1], and returns the number of clipped samples.
func interleave(src [][]float32, dst []int, maxVal float64) int {
	channels := len(src)
	clipped := 0
	for ch, s := range src {
		for i, v := range s {
			sample := float64(v)
			if math.IsNaN(sample) {
				sample = 0
			}
			if sample > 1.0 {
				sample = 1.0
				clipped++
			} else if sample < -1.0 {
				sample = -1.0
				clipped++
			}
			dst[i*channels+ch] = int(math.Round(sample * maxVal))
		}
	}
	return clipped
}

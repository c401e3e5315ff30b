// Command fir-wav filters a WAV file through an impulse response.
//
// Usage:
//
//	fir-wav -ir room.wav input.wav output.wav
//	fir-wav -ir cab.aiff -offset 32 -length 1024 input.wav output.wav
//	fir-wav -ir eq.wav -fade 256 -window kaiser input.wav output.wav
//	fir-wav -ir ir.wav -block 64 -parallel=false input.wav out.wav
//
// Each input channel is filtered by the matching impulse channel. A mono
// impulse is applied to every channel. The kernel tail is flushed after the
// input ends unless -tail=false is given.
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	fir "github.com/tphakala/go-audio-fir"
	"github.com/tphakala/go-audio-fir/internal/audiofile"
	"github.com/tphakala/go-audio-fir/internal/window"
)

const (
	defaultBlockSize = 1024
	minRequiredArgs  = 2
	progressInterval = 10 // Log progress every N%
	percentScale     = 100
)

var log = logrus.New()

func main() {
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := run(); err != nil {
		log.WithError(err).Fatal("fir-wav failed")
	}
}

type options struct {
	irPath     string
	inputPath  string
	outputPath string
	offset     int
	length     int
	blockSize  int
	fade       int
	shape      window.Shape
	beta       float64
	normalize  bool
	tail       bool
	parallel   bool
	noSIMD     bool
}

func run() error {
	irPath := flag.String("ir", "", "Impulse response file (WAV or AIFF)")
	offset := flag.Int("offset", 0, "Skip this many leading impulse samples")
	length := flag.Int("length", 0, fmt.Sprintf("Maximum kernel length in samples (0 = up to %d)", fir.MaxKernelLength))
	blockSize := flag.Int("block", defaultBlockSize, "Frames per processing call")
	fade := flag.Int("fade", 0, "Taper the last N kernel samples to zero (0 = off)")
	windowName := flag.String("window", "hann", "Fade window: hann, kaiser, rect")
	beta := flag.Float64("beta", window.DefaultKaiserBeta, "Kaiser window beta")
	normalize := flag.Bool("normalize", false, "Scale each impulse channel to unity DC gain")
	tail := flag.Bool("tail", true, "Append the kernel tail after the input ends")
	parallel := flag.Bool("parallel", true, "Enable parallel channel processing")
	noSIMD := flag.Bool("nosimd", false, "Disable SIMD acceleration")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	args := flag.Args()
	if len(args) < minRequiredArgs || *irPath == "" {
		fmt.Fprintf(os.Stderr, "Usage: %s -ir impulse.wav [options] input.wav output.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return errors.New("insufficient arguments")
	}

	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	shape, err := window.ParseShape(*windowName)
	if err != nil {
		return err
	}
	if *blockSize < 1 {
		return fmt.Errorf("block size must be positive, got %d", *blockSize)
	}
	if *offset < 0 || *length < 0 || *fade < 0 {
		return errors.New("offset, length and fade must not be negative")
	}

	opts := options{
		irPath:     *irPath,
		inputPath:  args[0],
		outputPath: args[1],
		offset:     *offset,
		length:     *length,
		blockSize:  *blockSize,
		fade:       *fade,
		shape:      shape,
		beta:       *beta,
		normalize:  *normalize,
		tail:       *tail,
		parallel:   *parallel,
		noSIMD:     *noSIMD,
	}

	start := time.Now()
	stats, err := filterFile(&opts)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	fmt.Printf("Filtered %s -> %s\n", filepath.Base(opts.inputPath), filepath.Base(opts.outputPath))
	fmt.Printf("  %d Hz, %d channels, %d-bit, kernel %d taps (%s)\n",
		stats.sampleRate, stats.channels, stats.bitDepth, stats.kernelLength, stats.simd)
	fmt.Printf("  %d frames -> %d frames\n", stats.inputFrames, stats.outputFrames)
	if stats.clipped > 0 {
		fmt.Printf("  %d samples clipped\n", stats.clipped)
	}
	if elapsed > 0 && stats.sampleRate > 0 {
		fmt.Printf("  Duration: %.2fs, Speed: %.1fx realtime\n",
			elapsed.Seconds(),
			float64(stats.inputFrames)/float64(stats.sampleRate)/elapsed.Seconds())
	}

	return nil
}

type filterStats struct {
	sampleRate   int
	channels     int
	bitDepth     int
	kernelLength int
	simd         string
	inputFrames  int64
	outputFrames int64
	clipped      int64
}

func filterFile(opts *options) (stats *filterStats, err error) {
	// 1. Load and prepare the impulse response
	ir, irFormat, err := audiofile.ReadAll(opts.irPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load impulse response: %w", err)
	}
	log.WithFields(logrus.Fields{
		"path":        opts.irPath,
		"container":   irFormat.Container,
		"sample_rate": irFormat.SampleRate,
		"channels":    irFormat.Channels,
		"frames":      irFormat.Frames,
	}).Debug("Impulse response loaded")

	// 2. Open input
	input, err := audiofile.Open(opts.inputPath)
	if err != nil {
		return nil, err
	}
	defer func() { _ = input.Close() }()

	format := input.Format()
	log.WithFields(logrus.Fields{
		"path":        opts.inputPath,
		"sample_rate": format.SampleRate,
		"channels":    format.Channels,
		"bit_depth":   format.BitDepth,
		"frames":      format.Frames,
	}).Debug("Input opened")

	if irFormat.SampleRate != format.SampleRate {
		log.WithFields(logrus.Fields{
			"ir_rate":    irFormat.SampleRate,
			"input_rate": format.SampleRate,
		}).Warn("Impulse response sample rate differs from input; filtering without conversion")
	}

	// 3. Create the convolver and install per-channel kernels
	convolver, err := newConvolver(opts, ir, format.Channels)
	if err != nil {
		return nil, err
	}
	info := convolver.Info()

	// 4. Create output
	output, err := audiofile.Create(opts.outputPath, audiofile.Format{
		SampleRate: format.SampleRate,
		Channels:   format.Channels,
		BitDepth:   format.BitDepth,
	})
	if err != nil {
		return nil, err
	}
	// Close output, capturing close errors on success path (WAV header update)
	defer func() {
		if closeErr := output.Close(); err == nil {
			err = closeErr
		}
	}()

	stats = &filterStats{
		sampleRate:   format.SampleRate,
		channels:     format.Channels,
		bitDepth:     format.BitDepth,
		kernelLength: info.KernelLength,
		simd:         info.SIMDType,
	}

	// 5. Main processing loop
	in := newBlock(format.Channels, opts.blockSize)
	out := newBlock(format.Channels, opts.blockSize)
	progress := newProgressTracker(format.Frames)

	for {
		n, readErr := input.Read(sliceBlock(in, opts.blockSize))
		if n > 0 {
			if _, err := convolver.ProcessMulti(sliceBlock(in, n), sliceBlock(out, n)); err != nil {
				return nil, err
			}
			if err := output.Write(sliceBlock(out, n)); err != nil {
				return nil, err
			}
			stats.inputFrames += int64(n)
			progress.reportIfNeeded(stats.inputFrames)
		}
		if errors.Is(readErr, io.EOF) {
			break
		}
		if readErr != nil {
			return nil, readErr
		}
	}

	// 6. Flush the kernel tail
	if opts.tail {
		if err := flushTail(convolver, output, in, out, info.KernelLength-1); err != nil {
			return nil, err
		}
	}

	stats.outputFrames = output.Frames()
	stats.clipped = output.Clipped()
	return stats, nil
}

// newConvolver builds a convolver with one kernel per input channel.
func newConvolver(opts *options, ir [][]float32, channels int) (*fir.Convolver, error) {
	var flags fir.Flags
	if opts.noSIMD {
		flags |= fir.FlagNoSIMD
	}

	c, err := fir.New(&fir.Config{
		Channels:       channels,
		Offset:         opts.offset,
		MaxLength:      opts.length,
		Flags:          flags,
		EnableParallel: opts.parallel,
	})
	if err != nil {
		return nil, err
	}

	for ch := range channels {
		src, err := impulseForChannel(len(ir), ch)
		if err != nil {
			return nil, err
		}

		kernel := prepareImpulse(ir[src], opts.offset, opts.length, opts.fade, opts.shape, opts.beta)
		if opts.normalize {
			region := effectiveRegion(kernel, opts.offset, opts.length)
			scale := window.Normalize(region, 1)
			log.WithFields(logrus.Fields{"channel": ch, "scale": scale}).Debug("Impulse normalized")
		}

		if err := fir.SetChannelImpulse(c, ch, kernel); err != nil {
			if !errors.Is(err, fir.ErrImpulseTooLong) {
				return nil, err
			}
			log.WithFields(logrus.Fields{
				"channel":  ch,
				"samples":  len(kernel) - opts.offset,
				"max_taps": fir.MaxKernelLength,
			}).Warn("Impulse response truncated")
		}
	}

	info := c.Info()
	log.WithFields(logrus.Fields{
		"kernel_length": info.KernelLength,
		"padded_length": info.PaddedLength,
		"offset":        info.Offset,
		"simd":          info.SIMDType,
		"memory_bytes":  info.MemoryUsage,
	}).Debug("Convolver ready")

	return c, nil
}

// flushTail feeds silence through the convolver so the last input samples ring
// out, writing tail frames in total.
func flushTail(c *fir.Convolver, output *audiofile.Writer, in, out [][]float32, tail int) error {
	blockSize := cap(in[0])
	for _, ch := range sliceBlock(in, blockSize) {
		clear(ch)
	}

	for tail > 0 {
		n := min(tail, blockSize)
		if _, err := c.ProcessMulti(sliceBlock(in, n), sliceBlock(out, n)); err != nil {
			return err
		}
		if err := output.Write(sliceBlock(out, n)); err != nil {
			return err
		}
		tail -= n
	}
	return nil
}

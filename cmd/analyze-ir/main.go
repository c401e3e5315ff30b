// Command analyze-ir prints what a convolver would install from an impulse
// response file: effective length, gain, peak position and a coarse magnitude
// response per channel.
//
// Usage:
//
//	analyze-ir room.wav
//	analyze-ir -offset 64 -length 1024 -fade 128 cab.aiff
package main

import (
	"errors"
	"flag"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	fir "github.com/tphakala/go-audio-fir"
	"github.com/tphakala/go-audio-fir/internal/analysis"
	"github.com/tphakala/go-audio-fir/internal/audiofile"
	"github.com/tphakala/go-audio-fir/internal/window"
)

const (
	// Display parameters
	lowestBandHz = 31.25 // First octave band center
	octaveStep   = 2.0
	barScaleDB   = 2.0 // dB per bar character
	barFloorDB   = -60.0
	msPerSecond  = 1000.0
	minFFTSize   = 64
)

var log = logrus.New()

func main() {
	log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	if err := run(); err != nil {
		log.WithError(err).Fatal("analyze-ir failed")
	}
}

func run() error {
	offset := flag.Int("offset", 0, "Skip this many leading impulse samples")
	length := flag.Int("length", 0, fmt.Sprintf("Maximum kernel length in samples (0 = up to %d)", fir.MaxKernelLength))
	fade := flag.Int("fade", 0, "Taper the last N kernel samples to zero before analysis")
	windowName := flag.String("window", "hann", "Fade window: hann, kaiser, rect")
	beta := flag.Float64("beta", window.DefaultKaiserBeta, "Kaiser window beta")
	fftSize := flag.Int("fft", analysis.DefaultFFTSize, "FFT size for the magnitude response")
	verbose := flag.Bool("v", false, "Verbose output")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprintf(os.Stderr, "Usage: %s [options] impulse.wav\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		return errors.New("missing impulse response path")
	}
	if *verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	shape, err := window.ParseShape(*windowName)
	if err != nil {
		return err
	}

	path := flag.Arg(0)
	ir, format, err := audiofile.ReadAll(path)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"container": format.Container,
		"bit_depth": format.BitDepth,
	}).Debug("Impulse response loaded")

	fmt.Printf("=== %s ===\n", filepath.Base(path))
	fmt.Printf("  Format: %s, %d Hz, %d-bit, %d channels, %d frames\n",
		format.Container, format.SampleRate, format.BitDepth, format.Channels, format.Frames)

	for ch, samples := range ir {
		if err := analyzeChannel(ch, samples, float64(format.SampleRate), *offset, *length, *fade, shape, *beta, *fftSize); err != nil {
			return err
		}
	}
	return nil
}

func analyzeChannel(ch int, samples []float32, sampleRate float64, offset, length, fade int, shape window.Shape, beta float64, fftSize int) error {
	c, err := fir.New(&fir.Config{Channels: 1, Offset: offset, MaxLength: length})
	if err != nil {
		return err
	}
	if err := fir.SetImpulse(c, samples); err != nil && !errors.Is(err, fir.ErrImpulseTooLong) {
		return err
	}

	kernel, err := c.Impulse(0)
	if err != nil {
		return err
	}
	window.FadeOut(kernel, fade, shape, beta)

	fmt.Printf("\nChannel %d:\n", ch)
	fmt.Printf("  Effective length: %d taps (padded %d, %d dropped)\n",
		len(kernel), c.Info().PaddedLength, max(len(samples)-offset-len(kernel), 0))
	if len(kernel) == 0 {
		fmt.Println("  Kernel is empty; output would be silent")
		return nil
	}

	dc := analysis.DCGain(kernel)
	peak := analysis.PeakIndex(kernel)
	energy := analysis.Energy(kernel)

	fmt.Printf("  DC gain: %.6f (%.2f dB)\n", dc, analysis.MagnitudeDB(math.Abs(dc)))
	fmt.Printf("  Peak: tap %d, value %.6f", peak, kernel[peak])
	if sampleRate > 0 {
		fmt.Printf(" (%.2f ms)", float64(peak)/sampleRate*msPerSecond)
	}
	fmt.Println()
	fmt.Printf("  Energy: %.6f (%.2f dB)\n", energy, 10*math.Log10(max(energy, 1e-20)))

	if sampleRate <= 0 {
		return nil
	}

	size := max(fftSize, nextPowerOfTwo(len(kernel)), minFFTSize)
	mag, err := analysis.MagnitudeResponse(kernel, size)
	if err != nil {
		return err
	}

	fmt.Println("  Magnitude response (octave bands):")
	for freq := lowestBandHz; freq < sampleRate/2; freq *= octaveStep {
		bin := int(math.Round(freq * float64(size) / sampleRate))
		db := analysis.MagnitudeDB(mag[min(bin, len(mag)-1)])
		fmt.Printf("    %8.0f Hz %7.2f dB %s\n",
			analysis.BinFrequency(bin, size, sampleRate), db, bar(db))
	}
	return nil
}

// bar draws a level meter from barFloorDB up to db.
func bar(db float64) string {
	return strings.Repeat("#", int((max(db, barFloorDB)-barFloorDB)/barScaleDB))
}

func nextPowerOfTwo(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}
	return p
}

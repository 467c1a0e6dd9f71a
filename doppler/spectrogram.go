package doppler

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-doppler/dsp/core"
	"github.com/cwbudde/algo-doppler/dsp/spectrum"
	"github.com/cwbudde/algo-doppler/dsp/window"
)

const (
	// DefaultFFTLength is the spectrum length in slow-time samples.
	DefaultFFTLength = 256
	// DefaultHop is the distance between consecutive spectra.
	DefaultHop = 5
)

var (
	// ErrTooShort is returned when the signal does not yield a single
	// spectrum.
	ErrTooShort = errors.New("doppler: signal too short for spectrogram")
	// ErrInvalidFFTLength is returned for FFT lengths that are not a
	// positive power of two.
	ErrInvalidFFTLength = errors.New("doppler: FFT length must be a positive power of two")
	// ErrInvalidHop is returned for hops <= 0.
	ErrInvalidHop = errors.New("doppler: hop must be > 0")
)

// Image is a row-major matrix of pixel values.
type Image struct {
	Rows, Cols int
	Pix        []float64
}

// NewImage allocates a zeroed rows x cols image.
func NewImage(rows, cols int) *Image {
	return &Image{Rows: rows, Cols: cols, Pix: make([]float64, rows*cols)}
}

// At returns the pixel at row r, column c.
func (img *Image) At(r, c int) float64 { return img.Pix[r*img.Cols+c] }

// Set stores v at row r, column c.
func (img *Image) Set(r, c int, v float64) { img.Pix[r*img.Cols+c] = v }

// Max returns the largest pixel value.
func (img *Image) Max() float64 {
	if len(img.Pix) == 0 {
		return 0
	}
	m := img.Pix[0]
	for _, v := range img.Pix[1:] {
		m = max(m, v)
	}
	return m
}

// Option configures [Spectrogram].
type Option func(*config)

type config struct {
	fftLen int
	hop    int
	window window.Type
}

// WithFFTLength sets the number of slow-time samples per spectrum.
func WithFFTLength(n int) Option {
	return func(c *config) { c.fftLen = n }
}

// WithHop sets the slow-time distance between spectra.
func WithHop(n int) Option {
	return func(c *config) { c.hop = n }
}

// WithWindow sets the taper applied before each FFT. Windows are symmetric.
func WithWindow(t window.Type) Option {
	return func(c *config) { c.window = t }
}

// NumSpectra returns the spectrogram width for a signal of n samples,
// (n-fftLen)/hop truncated toward zero. The last full frame is not used.
func NumSpectra(n, fftLen, hop int) int {
	return (n - fftLen) / hop
}

// Spectrogram computes the magnitude spectrogram of a complex slow-time
// signal. Row 0 is the highest positive frequency and row fftLen-1 the most
// negative one, so flow towards the transducer appears in the upper half.
// Columns are time.
func Spectrogram(samples []complex128, opts ...Option) (*Image, error) {
	cfg := config{fftLen: DefaultFFTLength, hop: DefaultHop, window: window.TypeHann}
	for _, opt := range opts {
		opt(&cfg)
	}

	if !core.IsPowerOfTwo(cfg.fftLen) {
		return nil, fmt.Errorf("%w: %d", ErrInvalidFFTLength, cfg.fftLen)
	}
	if cfg.hop <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidHop, cfg.hop)
	}

	cols := NumSpectra(len(samples), cfg.fftLen, cfg.hop)
	if cols <= 0 {
		return nil, fmt.Errorf("%w: %d samples, FFT length %d, hop %d", ErrTooShort, len(samples), cfg.fftLen, cfg.hop)
	}

	plan, err := algofft.NewPlan64(cfg.fftLen)
	if err != nil {
		return nil, fmt.Errorf("doppler: failed to create FFT plan: %w", err)
	}

	win := window.Generate(cfg.window, cfg.fftLen)
	buf := make([]complex128, cfg.fftLen)
	mag := make([]float64, cfg.fftLen)
	img := NewImage(cfg.fftLen, cols)

	for c := range cols {
		frame := samples[c*cfg.hop : c*cfg.hop+cfg.fftLen]
		for i, z := range frame {
			buf[i] = z * complex(win[i], 0)
		}
		if err := plan.Forward(buf, buf); err != nil {
			return nil, fmt.Errorf("doppler: FFT of spectrum %d failed: %w", c, err)
		}
		spectrum.FFTShift(buf)
		spectrum.Reverse(buf)
		spectrum.MagnitudeTo(mag, buf)
		for r, v := range mag {
			img.Set(r, c, v)
		}
	}
	return img, nil
}

package audio

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/cwbudde/algo-doppler/dsp/interp"
)

const (
	// DefaultSampleRate is the playback rate of rendered audio [Hz].
	DefaultSampleRate = 44100
	// PeakLevel is the absolute sample value of the loudest rendered sample.
	PeakLevel = 32000

	bitDepth     = 16
	numChannels  = 1
	wavFormatPCM = 1
)

var (
	// ErrSilent is returned when the signal has no non-zero sample.
	ErrSilent = errors.New("audio: signal is silent")
	// ErrInvalidRate is returned for sample rates <= 0.
	ErrInvalidRate = errors.New("audio: sample rate must be > 0")
)

// Option configures [Render].
type Option func(*renderConfig)

type renderConfig struct {
	mode interp.Mode
}

// WithInterpolation selects the resampling method. The default is linear.
func WithInterpolation(m interp.Mode) Option {
	return func(c *renderConfig) { c.mode = m }
}

// Render resamples (times, values) onto a uniform grid at rate samples per
// second covering [times[0], times[len-1]), normalizes to a peak of
// PeakLevel and truncates to int16.
func Render(times, values []float64, rate float64, opts ...Option) ([]int16, error) {
	if !(rate > 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidRate, rate)
	}
	cfg := renderConfig{mode: interp.ModeLinear}
	for _, opt := range opts {
		opt(&cfg)
	}

	_, resampled, err := interp.Uniform(times, values, rate, cfg.mode)
	if err != nil {
		return nil, fmt.Errorf("audio: resample: %w", err)
	}

	peak := 0.0
	for _, v := range resampled {
		peak = max(peak, math.Abs(v))
	}
	if peak == 0 || math.IsNaN(peak) {
		return nil, ErrSilent
	}

	out := make([]int16, len(resampled))
	scale := PeakLevel / peak
	for i, v := range resampled {
		out[i] = int16(v * scale)
	}
	return out, nil
}

// WriteWAV encodes samples as mono 16-bit PCM at sampleRate.
func WriteWAV(w io.WriteSeeker, samples []int16, sampleRate int) error {
	if sampleRate <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidRate, sampleRate)
	}

	data := make([]int, len(samples))
	for i, s := range samples {
		data[i] = int(s)
	}
	buf := &goaudio.IntBuffer{
		Format:         &goaudio.Format{NumChannels: numChannels, SampleRate: sampleRate},
		Data:           data,
		SourceBitDepth: bitDepth,
	}

	enc := wav.NewEncoder(w, sampleRate, bitDepth, numChannels, wavFormatPCM)
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("audio: write wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("audio: write wav: %w", err)
	}
	return nil
}

// WriteWAVFile creates path and writes samples to it with [WriteWAV].
func WriteWAVFile(path string, samples []int16, sampleRate int) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("audio: %w", err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return WriteWAV(f, samples, sampleRate)
}

package doppler

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-doppler/dsp/analytic"
	"github.com/cwbudde/algo-doppler/dsp/core"
)

var (
	// ErrInvalidSamplePos is returned for sample positions outside [0, 1].
	ErrInvalidSamplePos = errors.New("doppler: sample position must be in [0, 1]")
	// ErrEmptyInput is returned for empty RF matrices or slow-time signals.
	ErrEmptyInput = errors.New("doppler: empty input")
)

// SlowTimeSignal is the complex Doppler signal at one depth.
type SlowTimeSignal struct {
	// SampleIndex is the fast-time sample that was extracted.
	SampleIndex int
	// FFTSize is the zero-padded length of the Hilbert transform.
	FFTSize int
	// Samples has one value per beam.
	Samples []complex128
}

// Real returns the in-phase component.
func (s *SlowTimeSignal) Real() []float64 {
	out := make([]float64, len(s.Samples))
	for i, z := range s.Samples {
		out[i] = real(z)
	}
	return out
}

// SampleIndex maps a relative depth in [0, 1] to a fast-time sample index:
// int(samplePos*(numSamples-1)).
func SampleIndex(samplePos float64, numSamples int) (int, error) {
	if !(samplePos >= 0 && samplePos <= 1) {
		return 0, fmt.Errorf("%w: %g", ErrInvalidSamplePos, samplePos)
	}
	if numSamples <= 0 {
		return 0, fmt.Errorf("%w: %d samples per line", ErrEmptyInput, numSamples)
	}
	return int(samplePos * float64(numSamples-1)), nil
}

// SlowTime extracts the analytic slow-time signal at samplePos from rf, a
// num_samples x num_beams matrix. Each column is zero-padded to the next
// power of two before the Hilbert transform.
func SlowTime(rf *mat.Dense, samplePos float64) (*SlowTimeSignal, error) {
	if rf == nil || rf.IsEmpty() {
		return nil, ErrEmptyInput
	}
	numSamples, numBeams := rf.Dims()

	idx, err := SampleIndex(samplePos, numSamples)
	if err != nil {
		return nil, err
	}

	fftSize := core.NextPowerOfTwo(numSamples)
	tr := analytic.NewTransformer()
	line := make([]float64, numSamples)
	out := &SlowTimeSignal{
		SampleIndex: idx,
		FFTSize:     fftSize,
		Samples:     make([]complex128, numBeams),
	}
	for b := range numBeams {
		mat.Col(line, b, rf)
		z, err := tr.AnalyticAt(line, fftSize, idx)
		if err != nil {
			return nil, fmt.Errorf("doppler: beam %d: %w", b, err)
		}
		out.Samples[b] = z
	}
	return out, nil
}

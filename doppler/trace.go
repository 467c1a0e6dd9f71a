package doppler

import (
	"fmt"
	"math"
)

// Trace holds per-spectrum Doppler statistics, one value per spectrogram
// column, in Hz.
type Trace struct {
	// Mean is the power-weighted mean frequency.
	Mean []float64
	// Spread is the power-weighted standard deviation around Mean.
	Spread []float64
	// Peak is the frequency of the strongest bin.
	Peak []float64
}

// RowFrequency returns the Doppler frequency of spectrogram row r for a
// spectrogram with rows bins at pulse repetition frequency prf. Row 0 is
// the highest positive frequency.
func RowFrequency(r, rows int, prf float64) float64 {
	return float64(rows/2-1-r) * prf / float64(rows)
}

// SpectralTrace computes the Doppler statistics of a linear-magnitude
// spectrogram as returned by [Spectrogram]. Silent columns get zeros.
func SpectralTrace(img *Image, prf float64) (*Trace, error) {
	if img == nil || img.Rows == 0 || img.Cols == 0 {
		return nil, ErrEmptyInput
	}
	if !(prf > 0) {
		return nil, fmt.Errorf("doppler: pulse repetition frequency must be > 0: %g", prf)
	}

	freqs := make([]float64, img.Rows)
	for r := range freqs {
		freqs[r] = RowFrequency(r, img.Rows, prf)
	}

	tr := &Trace{
		Mean:   make([]float64, img.Cols),
		Spread: make([]float64, img.Cols),
		Peak:   make([]float64, img.Cols),
	}
	for c := range img.Cols {
		energy, weighted, peak := 0.0, 0.0, 0
		for r := range img.Rows {
			v := img.At(r, c)
			p := v * v
			energy += p
			weighted += freqs[r] * p
			if v > img.At(peak, c) {
				peak = r
			}
		}
		if energy == 0 {
			continue
		}
		mean := weighted / energy

		sq := 0.0
		for r := range img.Rows {
			v := img.At(r, c)
			d := freqs[r] - mean
			sq += d * d * v * v
		}

		tr.Mean[c] = mean
		tr.Spread[c] = math.Sqrt(sq / energy)
		tr.Peak[c] = freqs[peak]
	}
	return tr, nil
}

package doppler

import (
	"fmt"

	"github.com/cwbudde/algo-doppler/dsp/filter"
)

// WallFilter high-pass filters a slow-time signal to suppress slow tissue
// and vessel wall echoes. The in-phase and quadrature parts run through
// identical Butterworth cascades of the given order. prf is the slow-time
// sample rate.
func WallFilter(samples []complex128, cutoffHz, prf float64, order int) ([]complex128, error) {
	if len(samples) == 0 {
		return nil, ErrEmptyInput
	}
	coeffs, err := filter.ButterworthHP(cutoffHz, order, prf)
	if err != nil {
		return nil, fmt.Errorf("doppler: wall filter: %w", err)
	}

	re := make([]float64, len(samples))
	im := make([]float64, len(samples))
	for i, z := range samples {
		re[i] = real(z)
		im[i] = imag(z)
	}
	filter.NewChain(coeffs).ProcessBlock(re)
	filter.NewChain(coeffs).ProcessBlock(im)

	out := make([]complex128, len(samples))
	for i := range out {
		out[i] = complex(re[i], im[i])
	}
	return out, nil
}

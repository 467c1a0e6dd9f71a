package conv

import (
	"errors"

	"github.com/cwbudde/algo-vecmath"
)

// Errors returned by convolution functions.
var (
	ErrEmptyInput       = errors.New("conv: empty input")
	ErrEmptyKernel      = errors.New("conv: empty kernel")
	ErrLengthMismatch   = errors.New("conv: buffer length mismatch")
	ErrInvalidAlignment = errors.New("conv: kernel alignment out of range")
)

// directThreshold is the kernel length below which Convolve stays in the
// time domain.
const directThreshold = 64

// Direct performs direct time-domain linear convolution of a and b.
// Returns a new slice of length len(a) + len(b) - 1.
//
// This is an O(N*M) algorithm suitable for short kernels.
// For longer kernels, use FFT-based methods like OverlapAdd.
func Direct(a, b []float64) ([]float64, error) {
	if len(a) == 0 {
		return nil, ErrEmptyInput
	}
	if len(b) == 0 {
		return nil, ErrEmptyKernel
	}

	result := make([]float64, len(a)+len(b)-1)

	DirectTo(result, a, b)
	return result, nil
}

// DirectTo performs direct convolution, writing to a pre-allocated destination.
// dst must have length len(a) + len(b) - 1.
func DirectTo(dst, a, b []float64) {
	m := len(b)

	for i := range dst {
		dst[i] = 0
	}

	temp := make([]float64, m)
	for i, v := range a {
		if v == 0 {
			continue
		}
		vecmath.ScaleBlock(temp, b, v)
		vecmath.AddBlockInPlace(dst[i:i+m], temp)
	}
}

// Convolve computes the full linear convolution, picking direct convolution
// for short kernels and overlap-add otherwise.
func Convolve(signal, kernel []float64) ([]float64, error) {
	if len(kernel) < directThreshold {
		return Direct(signal, kernel)
	}
	return OverlapAddConvolve(signal, kernel)
}

// Centered trims a full convolution result so that sample center of the
// kernel lines up with each input sample. The result has len(signal)
// samples: out[i] = full[i+center].
func Centered(full []float64, signalLen, center int) ([]float64, error) {
	if signalLen <= 0 {
		return nil, ErrEmptyInput
	}
	if center < 0 || center+signalLen > len(full) {
		return nil, ErrInvalidAlignment
	}

	out := make([]float64, signalLen)
	copy(out, full[center:center+signalLen])
	return out, nil
}

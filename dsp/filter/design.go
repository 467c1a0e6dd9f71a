package filter

import (
	"errors"
	"fmt"
	"math"
)

const defaultQ = 1 / math.Sqrt2

var (
	// ErrInvalidFrequency is returned for cutoffs outside (0, fs/2).
	ErrInvalidFrequency = errors.New("filter: cutoff must be in (0, sampleRate/2)")
	// ErrInvalidOrder is returned for filter orders < 1.
	ErrInvalidOrder = errors.New("filter: order must be >= 1")
)

// Highpass designs an RBJ cookbook high-pass section at freq with quality
// factor q. Non-positive q uses 1/sqrt(2).
func Highpass(freq, q, sampleRate float64) (Coefficients, error) {
	w0, err := normalizedW0(freq, sampleRate)
	if err != nil {
		return Coefficients{}, err
	}
	if !(q > 0) || math.IsInf(q, 0) {
		q = defaultQ
	}

	cw := math.Cos(w0)
	alpha := math.Sin(w0) / (2 * q)

	b0 := (1 + cw) / 2
	b1 := -(1 + cw)
	b2 := (1 + cw) / 2
	a0 := 1 + alpha
	a1 := -2 * cw
	a2 := 1 - alpha

	return Coefficients{B0: b0 / a0, B1: b1 / a0, B2: b2 / a0, A1: a1 / a0, A2: a2 / a0}, nil
}

// ButterworthHP designs a high-pass Butterworth cascade. For odd orders the
// last section is first order (B2 = A2 = 0).
func ButterworthHP(freq float64, order int, sampleRate float64) ([]Coefficients, error) {
	if order < 1 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrder, order)
	}
	if _, err := normalizedW0(freq, sampleRate); err != nil {
		return nil, err
	}

	sections := make([]Coefficients, 0, (order+1)/2)
	for i := order/2 - 1; i >= 0; i-- {
		c, err := Highpass(freq, butterworthQ(order, i), sampleRate)
		if err != nil {
			return nil, err
		}
		sections = append(sections, c)
	}
	if order%2 != 0 {
		sections = append(sections, firstOrderHP(freq, sampleRate))
	}
	return sections, nil
}

func butterworthQ(order, index int) float64 {
	theta := math.Pi * float64(2*index+1) / (2 * float64(order))
	s := math.Sin(theta)
	if s == 0 {
		return defaultQ
	}
	return 1 / (2 * s)
}

func firstOrderHP(freq, sampleRate float64) Coefficients {
	k := math.Tan(math.Pi * freq / sampleRate)
	norm := 1 / (1 + k)
	return Coefficients{B0: norm, B1: -norm, A1: (k - 1) * norm}
}

func normalizedW0(freq, sampleRate float64) (float64, error) {
	if !(sampleRate > 0) || math.IsInf(sampleRate, 0) || !(freq > 0) || freq >= sampleRate/2 {
		return 0, fmt.Errorf("%w: %g Hz at %g Hz", ErrInvalidFrequency, freq, sampleRate)
	}
	return 2 * math.Pi * freq / sampleRate, nil
}

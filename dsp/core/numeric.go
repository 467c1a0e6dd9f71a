package core

import "math"

// NextPowerOfTwo returns the smallest power of two >= n.
// Values below 1 return 1.
func NextPowerOfTwo(n int) int {
	if n <= 1 {
		return 1
	}

	p := 1
	for p < n {
		p <<= 1
	}

	return p
}

// IsPowerOfTwo reports whether n is a positive power of two.
func IsPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}

// Arange returns evenly spaced values in the half-open interval [start, stop).
//
// The length is ceil((stop-start)/step), and element i is start+i*step, so
// the grid matches the usual numerical-array convention. A non-positive step
// or an empty interval yields nil.
func Arange(start, stop, step float64) []float64 {
	if step <= 0 || math.IsNaN(step) || stop <= start {
		return nil
	}

	n := int(math.Ceil((stop - start) / step))
	if n <= 0 {
		return nil
	}

	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}

	return out
}

// Package analytic computes analytic signals with the FFT-based Hilbert
// transform.
//
// For a real input x of length n, the analytic signal z satisfies
// Re(z) = x and Im(z) = H{x}: the spectrum is kept at DC (and at Nyquist for
// even n), doubled at positive frequencies and zeroed at negative ones.
//
// The transform is computed with power-of-two plans in practice. Callers
// that process many lines of the same length should reuse a [Transformer]
// so the FFT plan is created once.
package analytic

// Package spectrum provides FFT-adjacent spectrum-domain utilities.
//
// The package intentionally does not implement FFT itself. It operates on
// complex spectrum bins produced by external FFT backends: magnitude and
// power extraction, zero-frequency centering and axis reversal.
package spectrum

// Package conv provides linear convolution routines.
//
// Two strategies are available:
//
//   - Direct convolution: O(N*M) time-domain convolution, best for short kernels
//   - Overlap-add (OLA): FFT-based block convolution for long signals with
//     medium kernels, such as RF lines convolved with an excitation pulse
//
// # Usage
//
//	result, err := conv.Convolve(signal, kernel)  // Auto-selects the algorithm
//	result, err := conv.Direct(signal, kernel)    // Force direct convolution
//
// For repeated convolution with the same kernel, create a reusable convolver:
//
//	c, err := conv.NewOverlapAdd(kernel, 0)
//	result, err := c.Process(signal)
//
// [Centered] aligns a full convolution result to a kernel reference sample,
// which is how a pulse with a known center index is applied to a line of
// point reflections.
package conv

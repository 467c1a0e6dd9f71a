// Package filter provides IIR biquad sections, cascades of them, and the
// Butterworth high-pass designs used as Doppler wall filters.
//
// Sections use the Direct Form II Transposed structure with a0 normalized
// to 1:
//
//	y  = B0*x + d0
//	d0 = B1*x - A1*y + d1
//	d1 = B2*x - A2*y
package filter

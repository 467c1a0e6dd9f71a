// Package audio renders the Doppler slow-time signal as audible PCM and
// writes it as a mono 16-bit WAV file.
package audio

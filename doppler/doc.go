// Package doppler turns simulated RF lines into a pulsed-wave Doppler
// spectrogram.
//
// [SlowTime] picks one depth sample from every beam's analytic signal,
// giving the complex slow-time signal. [Spectrogram] slides a windowed FFT
// over it. [NormalizeMax] and [LogCompress] map magnitudes to display grey
// levels.
package doppler

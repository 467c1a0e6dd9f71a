// Package rfsim is the RF line simulator used by the PW Doppler demo.
//
// A [Simulator] is configured through setters (sound speed, output type,
// scatterers, excitation, scan sequence, beam profile) and then produces one
// RF line per scan-sequence beam with [Simulator.SimulateLines]. Engines are
// looked up by algorithm name:
//
//	sim, err := rfsim.New(rfsim.AlgorithmSpline)
//
// The "spline" engine runs on the CPU. The "gpu_spline2" name is registered
// so configurations that request it fail with [ErrAlgorithmUnavailable]
// instead of an unknown-algorithm error.
package rfsim

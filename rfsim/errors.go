package rfsim

import "errors"

// Errors returned by simulators.
var (
	ErrUnknownAlgorithm     = errors.New("rfsim: unknown algorithm")
	ErrAlgorithmUnavailable = errors.New("rfsim: algorithm not available in this build")
	ErrNotConfigured        = errors.New("rfsim: simulator not fully configured")
	ErrInvalidOutputType    = errors.New("rfsim: invalid output type")
	ErrInvalidParameter     = errors.New("rfsim: invalid parameter")
	ErrInvalidScanSequence  = errors.New("rfsim: invalid scan sequence")
)

package rfsim

import (
	"context"
	"fmt"
	"math"

	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/cwbudde/algo-doppler/phantom"
)

// OutputType selects what SimulateLines returns.
type OutputType string

const (
	// OutputRF returns the raw radio-frequency lines.
	OutputRF OutputType = "rf"
	// OutputEnvelope returns the envelope (magnitude of the analytic signal).
	OutputEnvelope OutputType = "env"
)

// ParseOutputType validates an output type name.
func ParseOutputType(s string) (OutputType, error) {
	switch OutputType(s) {
	case OutputRF, OutputEnvelope:
		return OutputType(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidOutputType, s)
	}
}

// Excitation is the transmitted pulse as seen by the receiver.
type Excitation struct {
	Samples []float64
	// CenterIndex is the sample that corresponds to zero delay.
	CenterIndex int
	SampleRate  float64
}

// Validate checks the excitation fields.
func (e Excitation) Validate() error {
	switch {
	case len(e.Samples) == 0:
		return fmt.Errorf("%w: empty excitation", ErrInvalidParameter)
	case e.CenterIndex < 0 || e.CenterIndex >= len(e.Samples):
		return fmt.Errorf("%w: excitation center index %d out of range [0,%d)", ErrInvalidParameter, e.CenterIndex, len(e.Samples))
	case !(e.SampleRate > 0):
		return fmt.Errorf("%w: excitation sample rate must be > 0: %g", ErrInvalidParameter, e.SampleRate)
	}
	return nil
}

// BeamProfile weights a scatterer by its offset from the beam axis.
type BeamProfile interface {
	Weight(lateral, elevational float64) float64
}

// GaussianBeamProfile is an analytical separable Gaussian beam.
type GaussianBeamProfile struct {
	SigmaLateral     float64
	SigmaElevational float64
}

// Weight returns exp(-l^2/(2 sl^2) - e^2/(2 se^2)).
func (g GaussianBeamProfile) Weight(lateral, elevational float64) float64 {
	l := lateral / g.SigmaLateral
	e := elevational / g.SigmaElevational
	return math.Exp(-0.5 * (l*l + e*e))
}

// Simulator produces RF lines for a configured scan.
type Simulator interface {
	SetVerbose(bool)
	SetPrintDebug(bool)
	// SetParameters sets the speed of sound [m/s].
	SetParameters(soundSpeed float64) error
	SetOutputType(OutputType) error
	SetSplineScatterers(*phantom.Spline) error
	SetExcitation(Excitation) error
	SetScanSequence(*ScanSequence) error
	SetAnalyticalBeamProfile(sigmaLateral, sigmaElevational float64) error
	SetUseAllAvailableCores()
	// SimulateLines returns a num_samples x num_beams matrix, one column per
	// scan-sequence beam.
	SimulateLines(ctx context.Context) (*mat.Dense, error)
}

// Option configures a simulator at construction.
type Option func(*options)

type options struct {
	logger  *zap.Logger
	workers int
}

func defaultOptions() options {
	return options{logger: zap.NewNop()}
}

// WithLogger sets the logger used for verbose and debug output.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithWorkers fixes the number of worker goroutines used when all cores are
// enabled. Values <= 0 use runtime.NumCPU().
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

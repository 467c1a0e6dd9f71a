package rfsim

import (
	"context"
	"fmt"
	"math"
	"runtime"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cwbudde/algo-doppler/dsp/analytic"
	"github.com/cwbudde/algo-doppler/dsp/conv"
	"github.com/cwbudde/algo-doppler/phantom"
)

// SplineSimulator is the CPU engine for spline phantoms. Every scatterer is
// evaluated at the beam timestamp, weighted by the beam profile and deposited
// as an impulse at its two-way time of flight. The impulse line is then
// convolved with the excitation.
//
// Setters are not safe for concurrent use. SimulateLines parallelizes
// internally.
type SplineSimulator struct {
	opts options

	verbose    bool
	printDebug bool
	allCores   bool

	soundSpeed float64
	outputType OutputType
	scatterers *phantom.Spline
	excitation *Excitation
	scan       *ScanSequence
	profile    BeamProfile
}

// NewSplineSimulator returns an unconfigured CPU spline engine.
func NewSplineSimulator(opts ...Option) *SplineSimulator {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &SplineSimulator{opts: o, outputType: OutputRF}
}

// SetVerbose enables an Info log line per simulation run.
func (s *SplineSimulator) SetVerbose(v bool) { s.verbose = v }

// SetPrintDebug enables Debug timing logs.
func (s *SplineSimulator) SetPrintDebug(v bool) { s.printDebug = v }

// SetUseAllAvailableCores spreads beams over the configured worker count
// instead of a single worker.
func (s *SplineSimulator) SetUseAllAvailableCores() {
	s.allCores = true
}

// SetParameters sets the speed of sound [m/s].
func (s *SplineSimulator) SetParameters(soundSpeed float64) error {
	if !(soundSpeed > 0) || math.IsInf(soundSpeed, 0) {
		return fmt.Errorf("%w: sound speed must be > 0: %g", ErrInvalidParameter, soundSpeed)
	}
	s.soundSpeed = soundSpeed
	return nil
}

// SetOutputType selects RF lines or their envelope.
func (s *SplineSimulator) SetOutputType(t OutputType) error {
	t, err := ParseOutputType(string(t))
	if err != nil {
		return err
	}
	s.outputType = t
	return nil
}

// SetSplineScatterers validates and installs the phantom.
func (s *SplineSimulator) SetSplineScatterers(sp *phantom.Spline) error {
	if sp == nil {
		return fmt.Errorf("%w: nil phantom", ErrInvalidParameter)
	}
	if err := sp.Validate(); err != nil {
		return err
	}
	s.scatterers = sp
	return nil
}

// SetExcitation stores a copy of the excitation pulse.
func (s *SplineSimulator) SetExcitation(e Excitation) error {
	if err := e.Validate(); err != nil {
		return err
	}
	e.Samples = append([]float64(nil), e.Samples...)
	s.excitation = &e
	return nil
}

// SetScanSequence validates and installs the beams to simulate.
func (s *SplineSimulator) SetScanSequence(seq *ScanSequence) error {
	if seq == nil {
		return fmt.Errorf("%w: nil scan sequence", ErrInvalidScanSequence)
	}
	if err := seq.Validate(); err != nil {
		return err
	}
	s.scan = seq
	return nil
}

// SetAnalyticalBeamProfile installs a Gaussian beam profile with the given
// lateral and elevational widths [m].
func (s *SplineSimulator) SetAnalyticalBeamProfile(sigmaLateral, sigmaElevational float64) error {
	if !(sigmaLateral > 0) || !(sigmaElevational > 0) {
		return fmt.Errorf("%w: beam widths must be > 0: lateral=%g elevational=%g",
			ErrInvalidParameter, sigmaLateral, sigmaElevational)
	}
	s.profile = GaussianBeamProfile{SigmaLateral: sigmaLateral, SigmaElevational: sigmaElevational}
	return nil
}

// NumSamples returns the RF line length for the current configuration.
func (s *SplineSimulator) NumSamples() (int, error) {
	if err := s.checkConfigured(); err != nil {
		return 0, err
	}
	return s.numSamples(), nil
}

func (s *SplineSimulator) numSamples() int {
	return int(2 * s.scan.Length * s.excitation.SampleRate / s.soundSpeed)
}

func (s *SplineSimulator) checkConfigured() error {
	var missing []string
	if s.soundSpeed == 0 {
		missing = append(missing, "parameters")
	}
	if s.scatterers == nil {
		missing = append(missing, "scatterers")
	}
	if s.excitation == nil {
		missing = append(missing, "excitation")
	}
	if s.scan == nil {
		missing = append(missing, "scan sequence")
	}
	if s.profile == nil {
		missing = append(missing, "beam profile")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %v", ErrNotConfigured, missing)
	}
	return nil
}

func (s *SplineSimulator) workers(numBeams int) int {
	if !s.allCores {
		return 1
	}
	n := s.opts.workers
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return max(1, min(n, numBeams))
}

// SimulateLines simulates every beam of the scan sequence.
func (s *SplineSimulator) SimulateLines(ctx context.Context) (*mat.Dense, error) {
	if err := s.checkConfigured(); err != nil {
		return nil, err
	}

	numSamples := s.numSamples()
	if numSamples <= 0 {
		return nil, fmt.Errorf("%w: line length %g m gives no samples", ErrInvalidScanSequence, s.scan.Length)
	}

	lo, hi := s.scatterers.Domain()
	for i, ts := range s.scan.Timestamps {
		if ts < lo || ts > hi {
			return nil, fmt.Errorf("rfsim: beam %d: %w: t=%g not in [%g, %g]", i, phantom.ErrOutsideDomain, ts, lo, hi)
		}
	}

	numBeams := s.scan.NumBeams()
	workers := s.workers(numBeams)
	log := s.opts.logger
	if s.verbose {
		log.Info("simulating RF lines",
			zap.Int("beams", numBeams),
			zap.Int("samples", numSamples),
			zap.Int("scatterers", s.scatterers.NumScatterers()),
			zap.Int("workers", workers),
			zap.String("output", string(s.outputType)))
	}

	out := mat.NewDense(numSamples, numBeams, nil)
	start := time.Now()

	g, ctx := errgroup.WithContext(ctx)
	for w := range workers {
		g.Go(func() error {
			bw, err := s.newBeamWorker(numSamples)
			if err != nil {
				return err
			}
			for b := w; b < numBeams; b += workers {
				if err := ctx.Err(); err != nil {
					return err
				}
				line, err := bw.simulate(b)
				if err != nil {
					return fmt.Errorf("rfsim: beam %d: %w", b, err)
				}
				out.SetCol(b, line)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.printDebug {
		log.Debug("simulation finished", zap.Duration("elapsed", time.Since(start)))
	}
	return out, nil
}

// beamWorker holds per-goroutine scratch state.
type beamWorker struct {
	s          *SplineSimulator
	numSamples int
	basis      []float64
	impulses   []float64
	convolver  *conv.OverlapAdd
}

func (s *SplineSimulator) newBeamWorker(numSamples int) (*beamWorker, error) {
	oa, err := conv.NewOverlapAdd(s.excitation.Samples, 0)
	if err != nil {
		return nil, err
	}
	return &beamWorker{
		s:          s,
		numSamples: numSamples,
		basis:      make([]float64, s.scatterers.Degree+1),
		impulses:   make([]float64, numSamples),
		convolver:  oa,
	}, nil
}

func (bw *beamWorker) simulate(beam int) ([]float64, error) {
	s := bw.s
	scan := s.scan
	origin := scan.Origins[beam]
	dir := scan.Directions[beam]
	lat := scan.LateralDirs[beam]
	ele := r3.Cross(dir, lat)

	first, err := s.scatterers.Basis(scan.Timestamps[beam], bw.basis)
	if err != nil {
		return nil, err
	}

	for i := range bw.impulses {
		bw.impulses[i] = 0
	}

	samplesPerMeter := 2 * s.excitation.SampleRate / s.soundSpeed
	for i := range s.scatterers.NumScatterers() {
		pos, amp := s.scatterers.Combine(i, first, bw.basis)
		rel := r3.Sub(pos, origin)

		radial := r3.Dot(rel, dir)
		if radial < 0 || radial > scan.Length {
			continue
		}
		w := amp * s.profile.Weight(r3.Dot(rel, lat), r3.Dot(rel, ele))
		if w == 0 {
			continue
		}

		idx := radial * samplesPerMeter
		k := int(idx)
		frac := idx - float64(k)
		if k < bw.numSamples {
			bw.impulses[k] += w * (1 - frac)
		}
		if k+1 < bw.numSamples {
			bw.impulses[k+1] += w * frac
		}
	}

	full, err := bw.convolver.Process(bw.impulses)
	if err != nil {
		return nil, err
	}
	line, err := conv.Centered(full, bw.numSamples, s.excitation.CenterIndex)
	if err != nil {
		return nil, err
	}

	if s.outputType == OutputEnvelope {
		return analytic.Envelope(line)
	}
	return line, nil
}

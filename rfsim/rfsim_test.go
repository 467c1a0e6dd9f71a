package rfsim

import (
	"context"
	"errors"
	"go/ast"
	"go/parser"
	"go/token"
	"math"
	"math/cmplx"
	"testing"

	"go.uber.org/goleak"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/cwbudde/algo-doppler/dsp/analytic"
	"github.com/cwbudde/algo-doppler/dsp/core"
	"github.com/cwbudde/algo-doppler/dsp/signal"
	"github.com/cwbudde/algo-doppler/internal/testutil"
	"github.com/cwbudde/algo-doppler/phantom"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	testFS     = 100e6
	testFC     = 5e6
	testC      = 1540.0
	testLength = 0.01
	testPRF    = 5000.0
)

var (
	axial   = r3.Vec{Z: 1}
	lateral = r3.Vec{X: 1}
)

// movingScatterer travels along z from z0 at t=0 to z1 at t=t1.
func movingScatterer(z0, z1, t1 float64) *phantom.Spline {
	return &phantom.Spline{
		Degree: 1,
		Knots:  []float64{0, 0, t1, t1},
		Nodes: [][]phantom.Node{{
			{Z: z0, Amplitude: 1},
			{Z: z1, Amplitude: 1},
		}},
	}
}

func testExcitation(t *testing.T) Excitation {
	t.Helper()
	p, err := signal.NewGenerator(core.WithSampleRate(testFS)).GaussianPulse(testFC, 0.2, 16)
	if err != nil {
		t.Fatalf("GaussianPulse() error = %v", err)
	}
	return Excitation{Samples: p.Samples, CenterIndex: p.CenterIndex, SampleRate: p.SampleRate}
}

func configured(t *testing.T, sp *phantom.Spline, numBeams int, opts ...Option) *SplineSimulator {
	t.Helper()
	sim := NewSplineSimulator(opts...)
	seq, err := NewFixedAxisSequence(numBeams, testPRF, r3.Vec{}, axial, lateral, testLength)
	if err != nil {
		t.Fatalf("NewFixedAxisSequence() error = %v", err)
	}
	steps := []error{
		sim.SetParameters(testC),
		sim.SetOutputType(OutputRF),
		sim.SetSplineScatterers(sp),
		sim.SetExcitation(testExcitation(t)),
		sim.SetScanSequence(seq),
		sim.SetAnalyticalBeamProfile(0.5e-3, 1e-3),
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("setup step %d: %v", i, err)
		}
	}
	return sim
}

func argMaxAbs(x []float64) int {
	best := 0
	for i, v := range x {
		if math.Abs(v) > math.Abs(x[best]) {
			best = i
		}
	}
	return best
}

func TestNewRegistry(t *testing.T) {
	sim, err := New(AlgorithmSpline)
	if err != nil {
		t.Fatalf("New(spline) error = %v", err)
	}
	if _, ok := sim.(*SplineSimulator); !ok {
		t.Fatalf("New(spline) = %T, want *SplineSimulator", sim)
	}

	if _, err := New(AlgorithmGPUSpline); !errors.Is(err, ErrAlgorithmUnavailable) {
		t.Fatalf("New(gpu_spline2) error = %v, want ErrAlgorithmUnavailable", err)
	}
	if _, err := New("raytrace"); !errors.Is(err, ErrUnknownAlgorithm) {
		t.Fatalf("New(raytrace) error = %v, want ErrUnknownAlgorithm", err)
	}
}

func TestRegistryDuplicate(t *testing.T) {
	r := DefaultRegistry()
	err := r.Register(AlgorithmSpline, func(...Option) (Simulator, error) { return nil, nil })
	if !errors.Is(err, errDuplicateAlgorithm) {
		t.Fatalf("Register duplicate error = %v", err)
	}
	if got := r.Algorithms(); len(got) != 2 || got[0] != AlgorithmGPUSpline || got[1] != AlgorithmSpline {
		t.Fatalf("Algorithms() = %v", got)
	}
}

func TestRegistryRegister(t *testing.T) {
	var r Registry
	if err := r.Register("", nil); err == nil {
		t.Fatal("expected error for empty registration")
	}
	stub := NewSplineSimulator()
	if err := r.Register("stub", func(...Option) (Simulator, error) { return stub, nil }); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	sim, err := r.New("stub")
	if err != nil || sim != Simulator(stub) {
		t.Fatalf("New(stub) = %v, %v", sim, err)
	}
	if got := r.Algorithms(); len(got) != 1 || got[0] != "stub" {
		t.Fatalf("Algorithms() = %v", got)
	}
}

func TestNotConfigured(t *testing.T) {
	sim := NewSplineSimulator()
	if err := sim.SetParameters(testC); err != nil {
		t.Fatal(err)
	}
	if _, err := sim.SimulateLines(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("SimulateLines() error = %v, want ErrNotConfigured", err)
	}
}

func TestSetterValidation(t *testing.T) {
	sim := NewSplineSimulator()
	if err := sim.SetOutputType("iq"); !errors.Is(err, ErrInvalidOutputType) {
		t.Fatalf("SetOutputType(iq) error = %v", err)
	}
	if err := sim.SetParameters(0); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("SetParameters(0) error = %v", err)
	}
	if err := sim.SetAnalyticalBeamProfile(0, 1); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("SetAnalyticalBeamProfile(0, 1) error = %v", err)
	}
	if err := sim.SetExcitation(Excitation{Samples: []float64{1}, CenterIndex: 1, SampleRate: 1}); !errors.Is(err, ErrInvalidParameter) {
		t.Fatalf("SetExcitation(bad center) error = %v", err)
	}
	if err := sim.SetSplineScatterers(&phantom.Spline{Degree: 1}); !errors.Is(err, phantom.ErrInvalidPhantom) {
		t.Fatalf("SetSplineScatterers(empty) error = %v", err)
	}
}

func TestScanSequenceValidate(t *testing.T) {
	good := func() *ScanSequence {
		s, err := NewFixedAxisSequence(3, testPRF, r3.Vec{}, axial, lateral, testLength)
		if err != nil {
			t.Fatalf("NewFixedAxisSequence() error = %v", err)
		}
		return s
	}

	s := good()
	if s.NumBeams() != 3 {
		t.Fatalf("NumBeams() = %d, want 3", s.NumBeams())
	}
	if s.Timestamps[2] != 2/testPRF {
		t.Fatalf("Timestamps[2] = %g, want %g", s.Timestamps[2], 2/testPRF)
	}

	tests := []struct {
		name   string
		mutate func(*ScanSequence)
	}{
		{"ragged", func(s *ScanSequence) { s.Origins = s.Origins[:1] }},
		{"zero length", func(s *ScanSequence) { s.Length = 0 }},
		{"non-unit direction", func(s *ScanSequence) { s.Directions[1] = r3.Vec{Z: 2} }},
		{"parallel lateral", func(s *ScanSequence) { s.LateralDirs[0] = axial }},
		{"empty", func(s *ScanSequence) { *s = ScanSequence{Length: 1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := good()
			tt.mutate(s)
			if err := s.Validate(); !errors.Is(err, ErrInvalidScanSequence) {
				t.Fatalf("Validate() error = %v, want ErrInvalidScanSequence", err)
			}
		})
	}

	if _, err := NewFixedAxisSequence(0, testPRF, r3.Vec{}, axial, lateral, testLength); !errors.Is(err, ErrInvalidScanSequence) {
		t.Fatalf("NewFixedAxisSequence(0) error = %v", err)
	}
}

func TestGaussianBeamProfile(t *testing.T) {
	p := GaussianBeamProfile{SigmaLateral: 0.5e-3, SigmaElevational: 1e-3}
	if got := p.Weight(0, 0); got != 1 {
		t.Fatalf("Weight(0, 0) = %g, want 1", got)
	}
	want := math.Exp(-0.5)
	if got := p.Weight(0.5e-3, 0); math.Abs(got-want) > 1e-12 {
		t.Fatalf("Weight(sigma_l, 0) = %g, want %g", got, want)
	}
	if got := p.Weight(0, 1e-3); math.Abs(got-want) > 1e-12 {
		t.Fatalf("Weight(0, sigma_e) = %g, want %g", got, want)
	}
}

func TestStaticScattererTimeOfFlight(t *testing.T) {
	const depth = 0.005
	sim := configured(t, movingScatterer(depth, depth, 1), 2)

	n, err := sim.NumSamples()
	if err != nil {
		t.Fatal(err)
	}
	length := testLength
	if want := int(2 * length * testFS / testC); n != want {
		t.Fatalf("NumSamples() = %d, want %d", n, want)
	}

	rf, err := sim.SimulateLines(context.Background())
	if err != nil {
		t.Fatalf("SimulateLines() error = %v", err)
	}
	rows, cols := rf.Dims()
	if rows != n || cols != 2 {
		t.Fatalf("Dims() = %dx%d, want %dx2", rows, cols, n)
	}

	want := 2 * depth / testC * testFS
	line := mat.Col(nil, 0, rf)
	if got := argMaxAbs(line); math.Abs(float64(got)-want) > 1 {
		t.Fatalf("peak at sample %d, want %.2f", got, want)
	}
	if !mat.Equal(rf.ColView(0), rf.ColView(1)) {
		t.Fatal("static scatterer lines differ between beams")
	}
}

func TestEnvelopeOutput(t *testing.T) {
	const depth = 0.004
	sim := configured(t, movingScatterer(depth, depth, 1), 1)
	if err := sim.SetOutputType(OutputEnvelope); err != nil {
		t.Fatal(err)
	}

	env, err := sim.SimulateLines(context.Background())
	if err != nil {
		t.Fatalf("SimulateLines() error = %v", err)
	}
	line := mat.Col(nil, 0, env)
	for i, v := range line {
		if v < 0 {
			t.Fatalf("envelope[%d] = %g < 0", i, v)
		}
	}
	want := 2 * depth / testC * testFS
	if got := argMaxAbs(line); math.Abs(float64(got)-want) > 2 {
		t.Fatalf("envelope peak at sample %d, want %.2f", got, want)
	}
}

func TestOffAxisScattererIsAttenuated(t *testing.T) {
	const depth = 0.005
	onAxis := configured(t, movingScatterer(depth, depth, 1), 1)
	offAxis := configured(t, &phantom.Spline{
		Degree: 1,
		Knots:  []float64{0, 0, 1, 1},
		Nodes: [][]phantom.Node{{
			{X: 0.5e-3, Z: depth, Amplitude: 1},
			{X: 0.5e-3, Z: depth, Amplitude: 1},
		}},
	}, 1)

	a, err := onAxis.SimulateLines(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := offAxis.SimulateLines(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	ratio := mat.Max(b) / mat.Max(a)
	if want := math.Exp(-0.5); math.Abs(ratio-want) > 1e-9 {
		t.Fatalf("off-axis/on-axis peak ratio = %g, want %g", ratio, want)
	}
}

// meanPhaseStep returns the average slow-time phase increment at sample idx.
func meanPhaseStep(t *testing.T, rf *mat.Dense, idx int) float64 {
	t.Helper()
	rows, cols := rf.Dims()
	tr := analytic.NewTransformer()
	n := core.NextPowerOfTwo(rows)

	var acc complex128
	var prev complex128
	for b := range cols {
		z, err := tr.AnalyticAt(mat.Col(nil, b, rf), n, idx)
		if err != nil {
			t.Fatalf("AnalyticAt() error = %v", err)
		}
		if b > 0 {
			acc += z * cmplx.Conj(prev)
		}
		prev = z
	}
	return cmplx.Phase(acc)
}

func TestMovingScattererDopplerSign(t *testing.T) {
	// 0.1 m/s over 10 ms crossing 5 mm depth; the expected phase step per
	// pulse is 2*pi*fc*(2*v/prf)/c.
	const (
		v  = 0.1
		t1 = 0.01
	)
	want := 2 * math.Pi * testFC * (2 * v / testPRF) / testC
	gate := 0.005
	idx := int(2 * gate / testC * testFS)

	tests := []struct {
		name   string
		z0, z1 float64
		sign   float64
	}{
		{"towards transducer", 0.0055, 0.0045, 1},
		{"away from transducer", 0.0045, 0.0055, -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sim := configured(t, movingScatterer(tt.z0, tt.z1, t1), 40)
			rf, err := sim.SimulateLines(context.Background())
			if err != nil {
				t.Fatalf("SimulateLines() error = %v", err)
			}
			got := meanPhaseStep(t, rf, idx)
			if math.Abs(got-tt.sign*want) > 0.25 {
				t.Fatalf("phase step = %.3f rad, want %.3f", got, tt.sign*want)
			}
		})
	}
}

func TestParallelMatchesSerial(t *testing.T) {
	sp, err := phantom.GenerateFlow(phantom.FlowConfig{
		NumScatterers:    50,
		Center:           r3.Vec{Z: 0.005},
		BeamAngle:        math.Pi / 3,
		Radius:           1e-3,
		Length:           0.004,
		PeakVelocity:     0.3,
		Pulsatility:      0.5,
		HeartRate:        1,
		Duration:         0.01,
		Degree:           3,
		NumControlPoints: 8,
		Seed:             7,
	})
	if err != nil {
		t.Fatalf("GenerateFlow() error = %v", err)
	}

	serial := configured(t, sp, 12)
	parallel := configured(t, sp, 12, WithWorkers(3))
	parallel.SetUseAllAvailableCores()

	a, err := serial.SimulateLines(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	b, err := parallel.SimulateLines(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !mat.Equal(a, b) {
		t.Fatal("parallel output differs from serial output")
	}
}

func TestSimulateLinesCanceled(t *testing.T) {
	sim := configured(t, movingScatterer(0.005, 0.005, 1), 8, WithWorkers(2))
	sim.SetUseAllAvailableCores()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := sim.SimulateLines(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("SimulateLines() error = %v, want context.Canceled", err)
	}
}

func TestTimestampOutsidePhantomDomain(t *testing.T) {
	// 5 beams at 5 kHz end at 0.8 ms; the phantom only covers 0.5 ms.
	sim := configured(t, movingScatterer(0.005, 0.005, 0.5e-3), 5)
	if _, err := sim.SimulateLines(context.Background()); !errors.Is(err, phantom.ErrOutsideDomain) {
		t.Fatalf("SimulateLines() error = %v, want ErrOutsideDomain", err)
	}
}

func TestEngineBuildsWithoutCgo(t *testing.T) {
	imports := testutil.TransitiveImports(t, "..", ".")
	if !imports[testutil.ModulePath+"/phantom"] {
		t.Fatal("expected the engine to import the phantom model")
	}
	for _, banned := range []string{"C", "gonum.org/v1/hdf5", testutil.ModulePath + "/phantom/h5"} {
		if imports[banned] {
			t.Fatalf("rfsim transitively imports %q", banned)
		}
	}
}

func TestExportedDeclarationsDocumented(t *testing.T) {
	fset := token.NewFileSet()
	for _, name := range []string{"spline.go", "registry.go", "simulator.go", "scan.go"} {
		f, err := parser.ParseFile(fset, name, nil, parser.ParseComments)
		if err != nil {
			t.Fatal(err)
		}
		for _, decl := range f.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || !fn.Name.IsExported() {
				continue
			}
			if fn.Doc == nil {
				t.Errorf("%s: %s has no doc comment", fset.Position(fn.Pos()), fn.Name.Name)
			}
		}
	}
}

package signal

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-doppler/dsp/core"
)

// DefaultBandwidthReference is the level, in dB relative to the envelope
// peak, at which the fractional bandwidth of a Gaussian pulse is measured.
const DefaultBandwidthReference = -6.0

// Generator creates excitation signals from a shared configuration.
type Generator struct {
	cfg core.ProcessorConfig
	bwr float64
}

// Option configures a Generator.
type Option func(*Generator)

// WithBandwidthReference sets the reference level in dB used for the
// fractional bandwidth of Gaussian pulses. Values >= 0 are ignored.
func WithBandwidthReference(db float64) Option {
	return func(g *Generator) {
		if db < 0 {
			g.bwr = db
		}
	}
}

// NewGenerator creates a configured signal generator.
func NewGenerator(opts ...core.ProcessorOption) *Generator {
	return &Generator{
		cfg: core.ApplyProcessorOptions(opts...),
		bwr: DefaultBandwidthReference,
	}
}

// NewGeneratorWithOptions creates a configured signal generator with signal-specific options.
func NewGeneratorWithOptions(coreOpts []core.ProcessorOption, opts ...Option) *Generator {
	g := NewGenerator(coreOpts...)
	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}
	return g
}

// Config returns the generator processor configuration.
func (g *Generator) Config() core.ProcessorConfig {
	return g.cfg
}

// Pulse is a sampled excitation waveform.
type Pulse struct {
	Times       []float64
	Samples     []float64
	CenterIndex int
	SampleRate  float64
}

// GaussianPulse samples a Gaussian-modulated sinusoid with center frequency
// fc and fractional bandwidth bw over [-cycles/fc, cycles/fc).
// CenterIndex is len(Times)/2, the sample closest to t = 0.
func (g *Generator) GaussianPulse(fc, bw, cycles float64) (*Pulse, error) {
	if fc <= 0 {
		return nil, fmt.Errorf("pulse center frequency must be > 0: %f", fc)
	}
	if cycles <= 0 {
		return nil, fmt.Errorf("pulse cycles must be > 0: %f", cycles)
	}
	if g.cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("pulse sample rate must be > 0: %f", g.cfg.SampleRate)
	}

	half := cycles / fc
	t := core.Arange(-half, half, 1/g.cfg.SampleRate)
	if len(t) == 0 {
		return nil, fmt.Errorf("pulse support is shorter than one sample: %g s at %g Hz", 2*half, g.cfg.SampleRate)
	}

	samples, err := GaussPulse(t, fc, bw, g.bwr)
	if err != nil {
		return nil, err
	}

	return &Pulse{
		Times:       t,
		Samples:     samples,
		CenterIndex: len(t) / 2,
		SampleRate:  g.cfg.SampleRate,
	}, nil
}

// GaussPulse evaluates the in-phase component of a Gaussian-modulated
// sinusoid at the instants t:
//
//	y(t) = exp(-a t^2) cos(2 pi fc t),  a = -(pi fc bw)^2 / (4 ln(10^(bwr/20)))
//
// bw is the fractional bandwidth measured at bwr dB below the envelope peak.
func GaussPulse(t []float64, fc, bw, bwr float64) ([]float64, error) {
	if fc < 0 {
		return nil, fmt.Errorf("gauss pulse center frequency must be >= 0: %f", fc)
	}
	if bw <= 0 {
		return nil, fmt.Errorf("gauss pulse fractional bandwidth must be > 0: %f", bw)
	}
	if bwr >= 0 {
		return nil, fmt.Errorf("gauss pulse reference level must be < 0 dB: %f", bwr)
	}

	ref := math.Pow(10, bwr/20)
	a := -(math.Pi * fc * bw) * (math.Pi * fc * bw) / (4 * math.Log(ref))

	out := make([]float64, len(t))
	for i, ti := range t {
		out[i] = math.Exp(-a*ti*ti) * math.Cos(2*math.Pi*fc*ti)
	}
	return out, nil
}

// Normalize scales data to target peak amplitude and returns a new slice.
func Normalize(data []float64, targetPeak float64) ([]float64, error) {
	if targetPeak < 0 {
		return nil, fmt.Errorf("normalize target peak must be >= 0: %f", targetPeak)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("normalize input must not be empty")
	}

	maxAbs := 0.0
	for _, v := range data {
		av := math.Abs(v)
		if av > maxAbs {
			maxAbs = av
		}
	}

	out := make([]float64, len(data))
	if maxAbs == 0 || targetPeak == 0 {
		return out, nil
	}

	scale := targetPeak / maxAbs
	for i, v := range data {
		out[i] = v * scale
	}
	return out, nil
}

// Package pwscan runs the PW Doppler demo pipeline: configure a simulator,
// simulate a repeated beam through a spline phantom, extract the slow-time
// signal at one depth and turn it into a spectrogram, plots and audio.
package pwscan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gonum.org/v1/gonum/spatial/r3"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-doppler/audio"
	"github.com/cwbudde/algo-doppler/doppler"
	"github.com/cwbudde/algo-doppler/dsp/core"
	"github.com/cwbudde/algo-doppler/dsp/signal"
	"github.com/cwbudde/algo-doppler/internal/config"
	"github.com/cwbudde/algo-doppler/internal/render"
	"github.com/cwbudde/algo-doppler/phantom"
	"github.com/cwbudde/algo-doppler/phantom/h5"
	"github.com/cwbudde/algo-doppler/rfsim"
)

// Output file names inside Config.OutDir.
const (
	ExcitationPlot  = "excitation.png"
	SlowTimePlot    = "slowtime.png"
	SpectrogramPlot = "spectrogram.png"
)

// Beam geometry: every pulse is fired from the origin straight down z.
var (
	beamOrigin    = r3.Vec{}
	beamDirection = r3.Vec{Z: 1}
	beamLateral   = r3.Vec{X: 1}
)

// Result holds the intermediate and final products of one run.
type Result struct {
	Excitation *signal.Pulse
	NumSamples int
	// Times are the beam timestamps [s].
	Times    []float64
	SlowTime *doppler.SlowTimeSignal
	// Filtered is the slow-time signal after the optional wall filter.
	Filtered []complex128
	// Magnitude is the max-normalized spectrogram.
	Magnitude *doppler.Image
	// Spectrogram holds the log-compressed grey levels.
	Spectrogram *doppler.Image
	// Trace holds the per-column Doppler statistics of Magnitude.
	Trace *doppler.Trace
	Audio []int16
	// Files lists every file written, in order.
	Files   []string
	Elapsed time.Duration
}

// Run loads the phantom at scattererFile and runs the pipeline on it.
func Run(ctx context.Context, cfg config.Config, scattererFile string, sim rfsim.Simulator, logger *zap.Logger) (*Result, error) {
	sp, err := h5.Load(scattererFile)
	if err != nil {
		return nil, fmt.Errorf("pwscan: load phantom: %w", err)
	}
	return RunPhantom(ctx, cfg, sp, sim, logger)
}

// RunPhantom runs the pipeline on an in-memory phantom.
func RunPhantom(ctx context.Context, cfg config.Config, sp *phantom.Spline, sim rfsim.Simulator, logger *zap.Logger) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	r := &runner{cfg: cfg, sim: sim, log: logger, res: &Result{}}
	if err := r.run(ctx, sp); err != nil {
		return nil, err
	}
	return r.res, nil
}

type runner struct {
	cfg config.Config
	sim rfsim.Simulator
	log *zap.Logger
	res *Result
}

func (r *runner) run(ctx context.Context, sp *phantom.Spline) error {
	if err := r.configure(); err != nil {
		return fmt.Errorf("pwscan: configure simulator: %w", err)
	}

	if err := r.sim.SetSplineScatterers(sp); err != nil {
		return fmt.Errorf("pwscan: set scatterers: %w", err)
	}
	r.log.Info("loaded phantom", zap.Int("scatterers", sp.NumScatterers()))

	if err := r.excitation(); err != nil {
		return err
	}

	seq, err := rfsim.NewFixedAxisSequence(r.cfg.NumBeams, r.cfg.PRF, beamOrigin, beamDirection, beamLateral, r.cfg.LineLength)
	if err != nil {
		return fmt.Errorf("pwscan: scan sequence: %w", err)
	}
	if err := r.sim.SetScanSequence(seq); err != nil {
		return fmt.Errorf("pwscan: set scan sequence: %w", err)
	}
	r.res.Times = seq.Timestamps

	if err := r.sim.SetAnalyticalBeamProfile(r.cfg.SigmaLateral, r.cfg.SigmaElevational); err != nil {
		return fmt.Errorf("pwscan: set beam profile: %w", err)
	}

	start := time.Now()
	rf, err := r.sim.SimulateLines(ctx)
	if err != nil {
		return fmt.Errorf("pwscan: simulate: %w", err)
	}
	r.res.Elapsed = time.Since(start)
	r.res.NumSamples, _ = rf.Dims()
	r.log.Info("simulated RF lines",
		zap.Duration("elapsed", r.res.Elapsed),
		zap.Int("beams", r.cfg.NumBeams),
		zap.Int("samples", r.res.NumSamples))

	if err := ctx.Err(); err != nil {
		return err
	}

	st, err := doppler.SlowTime(rf, r.cfg.SamplePos)
	if err != nil {
		return fmt.Errorf("pwscan: slow-time: %w", err)
	}
	r.res.SlowTime = st
	r.log.Info("extracted slow-time signal",
		zap.Int("sample_idx", st.SampleIndex),
		zap.Int("fft_size", st.FFTSize))

	samples := st.Samples
	if r.cfg.WallFilterHz > 0 {
		samples, err = doppler.WallFilter(samples, r.cfg.WallFilterHz, r.cfg.PRF, r.cfg.WallFilterOrder)
		if err != nil {
			return fmt.Errorf("pwscan: %w", err)
		}
		r.log.Info("applied wall filter",
			zap.Float64("cutoff_hz", r.cfg.WallFilterHz),
			zap.Int("order", r.cfg.WallFilterOrder))
	}
	r.res.Filtered = samples

	inPhase := make([]float64, len(samples))
	for i, z := range samples {
		inPhase[i] = real(z)
	}
	if err := r.plot(SlowTimePlot, func(path string) error {
		return render.SlowTime(path, r.res.Times, inPhase)
	}); err != nil {
		return err
	}

	if err := r.spectrogram(samples); err != nil {
		return err
	}

	if r.cfg.StoreAudio {
		if err := r.audio(inPhase); err != nil {
			return err
		}
	}
	return nil
}

func (r *runner) configure() error {
	debug := r.log.Core().Enabled(zapcore.DebugLevel)
	r.sim.SetVerbose(debug)
	r.sim.SetPrintDebug(debug)
	if !r.cfg.UseGPU {
		r.sim.SetUseAllAvailableCores()
	}
	if err := r.sim.SetParameters(r.cfg.SoundSpeed); err != nil {
		return err
	}
	return r.sim.SetOutputType(rfsim.OutputRF)
}

func (r *runner) excitation() error {
	gen := signal.NewGenerator(core.WithSampleRate(r.cfg.FS))
	pulse, err := gen.GaussianPulse(r.cfg.FC, r.cfg.BW, r.cfg.ExcitationCycles)
	if err != nil {
		return fmt.Errorf("pwscan: excitation: %w", err)
	}
	r.res.Excitation = pulse

	err = r.sim.SetExcitation(rfsim.Excitation{
		Samples:     pulse.Samples,
		CenterIndex: pulse.CenterIndex,
		SampleRate:  pulse.SampleRate,
	})
	if err != nil {
		return fmt.Errorf("pwscan: set excitation: %w", err)
	}
	r.log.Debug("excitation ready",
		zap.Int("samples", len(pulse.Samples)),
		zap.Int("center_index", pulse.CenterIndex))

	return r.plot(ExcitationPlot, func(path string) error {
		return render.Excitation(path, pulse.Times, pulse.Samples)
	})
}

func (r *runner) spectrogram(samples []complex128) error {
	wt, err := r.cfg.WindowType()
	if err != nil {
		return err
	}
	img, err := doppler.Spectrogram(samples,
		doppler.WithFFTLength(r.cfg.FFTLength),
		doppler.WithHop(r.cfg.Hop),
		doppler.WithWindow(wt))
	if err != nil {
		return fmt.Errorf("pwscan: spectrogram: %w", err)
	}
	if err := doppler.NormalizeMax(img); err != nil {
		return fmt.Errorf("pwscan: spectrogram: %w", err)
	}
	r.res.Magnitude = &doppler.Image{Rows: img.Rows, Cols: img.Cols, Pix: append([]float64(nil), img.Pix...)}

	tr, err := doppler.SpectralTrace(r.res.Magnitude, r.cfg.PRF)
	if err != nil {
		return fmt.Errorf("pwscan: doppler trace: %w", err)
	}
	r.res.Trace = tr
	r.log.Debug("doppler trace", zap.Float64("mean_hz", average(tr.Mean)), zap.Float64("spread_hz", average(tr.Spread)))

	if err := doppler.LogCompress(img, r.cfg.DynamicRange); err != nil {
		return fmt.Errorf("pwscan: spectrogram: %w", err)
	}
	r.res.Spectrogram = img
	r.log.Info("computed spectrogram", zap.Int("spectra", img.Cols), zap.Int("bins", img.Rows))

	times := r.res.Times
	return r.plot(SpectrogramPlot, func(path string) error {
		return render.Spectrogram(path, img, times[0], times[len(times)-1])
	})
}

func (r *runner) audio(inPhase []float64) error {
	mode, err := r.cfg.InterpMode()
	if err != nil {
		return err
	}
	pcm, err := audio.Render(r.res.Times, inPhase, float64(r.cfg.AudioRate), audio.WithInterpolation(mode))
	if err != nil {
		return fmt.Errorf("pwscan: audio: %w", err)
	}
	r.res.Audio = pcm

	path, err := r.outPath(r.cfg.AudioFile)
	if err != nil {
		return err
	}
	if err := audio.WriteWAVFile(path, pcm, r.cfg.AudioRate); err != nil {
		return fmt.Errorf("pwscan: %w", err)
	}
	r.res.Files = append(r.res.Files, path)
	r.log.Info("stored audio", zap.String("path", path), zap.Int("samples", len(pcm)))
	return nil
}

func (r *runner) plot(name string, draw func(path string) error) error {
	if !r.cfg.Plots {
		return nil
	}
	path, err := r.outPath(name)
	if err != nil {
		return err
	}
	if err := draw(path); err != nil {
		return fmt.Errorf("pwscan: %w", err)
	}
	r.res.Files = append(r.res.Files, path)
	r.log.Debug("wrote plot", zap.String("path", path))
	return nil
}

// outPath resolves name against OutDir, creating the directory.
func (r *runner) outPath(name string) (string, error) {
	if filepath.IsAbs(name) {
		return name, nil
	}
	if err := os.MkdirAll(r.cfg.OutDir, 0o755); err != nil {
		return "", fmt.Errorf("pwscan: create output directory: %w", err)
	}
	return filepath.Join(r.cfg.OutDir, name), nil
}

func average(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/cwbudde/algo-doppler/internal/config"
	"github.com/cwbudde/algo-doppler/internal/pwscan"
	"github.com/cwbudde/algo-doppler/rfsim"
)

// scanFlags holds flag values; only flags the user set override the loaded
// configuration.
type scanFlags struct {
	cfg config.Config
}

func newScanCmd() *cobra.Command {
	cmd, _ := newScanCmdWithFlags()
	return cmd
}

func newScanCmdWithFlags() (*cobra.Command, *scanFlags) {
	sf := &scanFlags{cfg: config.Default()}
	cmd := &cobra.Command{
		Use:   "scan [flags] <scatterer_file>",
		Short: "Simulate a PW Doppler scan of an HDF5 spline phantom",
		Long: `Loads the spline phantom (datasets nodes, knot_vector, spline_degree),
simulates num_beams RF lines along the z axis, extracts the slow-time signal
at sample_pos and writes excitation.png, slowtime.png and spectrogram.png
to the output directory. With --store-audio the Doppler audio is written as
a 16-bit WAV file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, sf, args[0])
		},
	}

	c := &sf.cfg
	f := cmd.Flags()
	f.Float64Var(&c.SamplePos, "sample-pos", c.SamplePos, "Relative depth of the Doppler gate in [0, 1]")
	f.Float64Var(&c.PRF, "prf", c.PRF, "Pulse repetition frequency [Hz]")
	f.IntVar(&c.NumBeams, "num-beams", c.NumBeams, "Number of pulses")
	f.Float64Var(&c.FS, "fs", c.FS, "RF sampling frequency [Hz]")
	f.Float64Var(&c.FC, "fc", c.FC, "Pulse center frequency [Hz]")
	f.Float64Var(&c.BW, "bw", c.BW, "Fractional pulse bandwidth")
	f.Float64Var(&c.SigmaLateral, "sigma-lateral", c.SigmaLateral, "Lateral beam width [m]")
	f.Float64Var(&c.SigmaElevational, "sigma-elevational", c.SigmaElevational, "Elevational beam width [m]")
	f.BoolVar(&c.UseGPU, "use-gpu", c.UseGPU, "Use the GPU spline algorithm")
	f.BoolVar(&c.StoreAudio, "store-audio", c.StoreAudio, "Write the Doppler audio as WAV")
	f.StringVar(&c.AudioFile, "audio-file", c.AudioFile, "Audio file name, relative to --out-dir")
	f.StringVar(&c.OutDir, "out-dir", c.OutDir, "Directory for plots and audio")
	f.BoolVar(&c.Plots, "plots", c.Plots, "Render PNG plots")
	f.StringVar(&c.Window, "window", c.Window, "Spectrogram window (rectangular, hann, hamming, blackman)")
	f.Float64Var(&c.WallFilterHz, "wall-filter", c.WallFilterHz, "Wall filter cutoff [Hz] (0: off)")
	f.IntVar(&c.WallFilterOrder, "wall-filter-order", c.WallFilterOrder, "Wall filter order")
	f.IntVar(&c.FFTLength, "fft-len", c.FFTLength, "Spectrogram FFT length")
	f.IntVar(&c.Hop, "hop", c.Hop, "Spectrogram hop in pulses")
	f.Float64Var(&c.DynamicRange, "dynamic-range", c.DynamicRange, "Display dynamic range [dB]")
	f.IntVar(&c.Workers, "workers", c.Workers, "Simulation goroutines (0: all CPUs)")

	return cmd, sf
}

// overrides copies each explicitly set flag into cfg.
func (sf *scanFlags) overrides(cmd *cobra.Command, cfg *config.Config) {
	src := &sf.cfg
	apply := map[string]func(){
		"sample-pos":        func() { cfg.SamplePos = src.SamplePos },
		"prf":               func() { cfg.PRF = src.PRF },
		"num-beams":         func() { cfg.NumBeams = src.NumBeams },
		"fs":                func() { cfg.FS = src.FS },
		"fc":                func() { cfg.FC = src.FC },
		"bw":                func() { cfg.BW = src.BW },
		"sigma-lateral":     func() { cfg.SigmaLateral = src.SigmaLateral },
		"sigma-elevational": func() { cfg.SigmaElevational = src.SigmaElevational },
		"use-gpu":           func() { cfg.UseGPU = src.UseGPU },
		"store-audio":       func() { cfg.StoreAudio = src.StoreAudio },
		"audio-file":        func() { cfg.AudioFile = src.AudioFile },
		"out-dir":           func() { cfg.OutDir = src.OutDir },
		"plots":             func() { cfg.Plots = src.Plots },
		"window":            func() { cfg.Window = src.Window },
		"wall-filter":       func() { cfg.WallFilterHz = src.WallFilterHz },
		"wall-filter-order": func() { cfg.WallFilterOrder = src.WallFilterOrder },
		"fft-len":           func() { cfg.FFTLength = src.FFTLength },
		"hop":               func() { cfg.Hop = src.Hop },
		"dynamic-range":     func() { cfg.DynamicRange = src.DynamicRange },
		"workers":           func() { cfg.Workers = src.Workers },
	}
	for name, fn := range apply {
		if cmd.Flags().Changed(name) {
			fn()
		}
	}
}

// resolveConfig layers defaults, --config, environment and flags.
func (sf *scanFlags) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return config.Config{}, err
	}
	sf.overrides(cmd, &cfg)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func runScan(cmd *cobra.Command, sf *scanFlags, scattererFile string) error {
	cfg, err := sf.resolveConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sim, err := rfsim.New(cfg.Algorithm(), rfsim.WithLogger(logger), rfsim.WithWorkers(cfg.Workers))
	if err != nil {
		return err
	}

	logger.Info("starting scan",
		zap.String("phantom", scattererFile),
		zap.String("algorithm", cfg.Algorithm()),
		zap.Int("beams", cfg.NumBeams),
		zap.Float64("prf", cfg.PRF))

	res, err := pwscan.Run(ctx, cfg, scattererFile, sim, logger)
	if err != nil {
		return err
	}
	return printSummary(cmd.OutOrStdout(), res)
}

func printSummary(w io.Writer, res *pwscan.Result) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"RF samples per line", fmt.Sprint(res.NumSamples)},
		{"Beams", fmt.Sprint(len(res.Times))},
		{"Gate sample", fmt.Sprint(res.SlowTime.SampleIndex)},
		{"Hilbert FFT size", fmt.Sprint(res.SlowTime.FFTSize)},
		{"Spectra", fmt.Sprint(res.Spectrogram.Cols)},
		{"Mean Doppler [Hz]", fmt.Sprintf("%.1f", meanOf(res.Trace.Mean))},
		{"Simulation time", res.Elapsed.String()},
	}
	for _, f := range res.Files {
		rows = append(rows, [2]string{"Wrote", f})
	}
	for _, r := range rows {
		if _, err := fmt.Fprintf(tw, "%s\t%s\n", r[0], r[1]); err != nil {
			return fmt.Errorf("failed to write summary: %w", err)
		}
	}
	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush summary: %w", err)
	}
	return nil
}

func meanOf(x []float64) float64 {
	if len(x) == 0 {
		return 0
	}
	return stat.Mean(x, nil)
}

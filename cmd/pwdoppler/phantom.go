package main

import (
	"math"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-doppler/phantom"
	"github.com/cwbudde/algo-doppler/phantom/h5"
)

type phantomFlags struct {
	cfg      phantom.FlowConfig
	depth    float64
	angleDeg float64
}

func newPhantomCmd() *cobra.Command {
	def := phantom.DefaultFlowConfig()
	pf := &phantomFlags{cfg: def, depth: def.Center.Z, angleDeg: def.BeamAngle * 180 / math.Pi}

	cmd := &cobra.Command{
		Use:   "phantom [flags] <out_file>",
		Short: "Write a pulsatile vessel flow phantom as HDF5",
		Long: `Generates scatterers in laminar pulsatile flow through a straight vessel
centered on the beam axis and stores their B-spline trajectories in the
layout read by "pwdoppler scan".`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPhantom(pf, args[0])
		},
	}

	c := &pf.cfg
	f := cmd.Flags()
	f.IntVar(&c.NumScatterers, "scatterers", c.NumScatterers, "Number of scatterers")
	f.Float64Var(&pf.depth, "depth", pf.depth, "Vessel center depth [m]")
	f.Float64Var(&pf.angleDeg, "angle", pf.angleDeg, "Angle between vessel and beam [deg]")
	f.Float64Var(&c.Radius, "radius", c.Radius, "Vessel radius [m]")
	f.Float64Var(&c.Length, "vessel-length", c.Length, "Vessel length [m]")
	f.Float64Var(&c.PeakVelocity, "velocity", c.PeakVelocity, "Centerline velocity [m/s]")
	f.Float64Var(&c.Pulsatility, "pulsatility", c.Pulsatility, "Relative velocity modulation in [0, 1)")
	f.Float64Var(&c.HeartRate, "heart-rate", c.HeartRate, "Pulsation frequency [Hz]")
	f.Float64Var(&c.Duration, "duration", c.Duration, "Covered time [s]")
	f.IntVar(&c.Degree, "degree", c.Degree, "Spline degree")
	f.IntVar(&c.NumControlPoints, "control-points", c.NumControlPoints, "Control points per scatterer")
	f.Uint64Var(&c.Seed, "seed", c.Seed, "Random seed")

	return cmd
}

func runPhantom(pf *phantomFlags, outFile string) error {
	cfg := pf.cfg
	cfg.Center.Z = pf.depth
	cfg.BeamAngle = pf.angleDeg * math.Pi / 180

	sp, err := phantom.GenerateFlow(cfg)
	if err != nil {
		return err
	}
	if err := h5.Save(outFile, sp); err != nil {
		return err
	}

	logger.Info("wrote phantom",
		zap.String("path", outFile),
		zap.Int("scatterers", sp.NumScatterers()),
		zap.Int("control_points", sp.NumControlPoints()),
		zap.Int("degree", sp.Degree))
	return nil
}

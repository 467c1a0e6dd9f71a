package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cwbudde/algo-doppler/internal/pwscan"
	"github.com/cwbudde/algo-doppler/phantom/h5"
	"github.com/cwbudde/algo-doppler/rfsim"
)

func useConfig(t *testing.T, content string) {
	t.Helper()
	path := ""
	if content != "" {
		path = filepath.Join(t.TempDir(), "pwdoppler.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	configPath = path
	t.Cleanup(func() { configPath = "" })
}

func TestAlgorithmsCmd(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetArgs([]string{"algorithms"})
	t.Cleanup(func() { rootCmd.SetOut(nil); rootCmd.SetArgs(nil) })

	require.NoError(t, rootCmd.Execute())
	assert.Contains(t, out.String(), "gpu_spline2  unavailable")
	assert.Contains(t, out.String(), "spline       available")
}

func TestResolveConfigPrecedence(t *testing.T) {
	useConfig(t, "prf: 4000\nnum_beams: 300\nhop: 9\nfc: 3000000\n")
	t.Setenv("PWDOPPLER_PRF", "6000")
	t.Setenv("PWDOPPLER_HOP", "7")

	cmd, sf := newScanCmdWithFlags()
	require.NoError(t, cmd.ParseFlags([]string{"--prf", "8000", "--window", "blackman"}))

	cfg, err := sf.resolveConfig(cmd)
	require.NoError(t, err)

	assert.Equal(t, 8000.0, cfg.PRF, "flag beats env and file")
	assert.Equal(t, 7, cfg.Hop, "env beats file")
	assert.Equal(t, 300, cfg.NumBeams, "file beats default")
	assert.Equal(t, 3e6, cfg.FC)
	assert.Equal(t, "blackman", cfg.Window)
	assert.Equal(t, 0.5, cfg.SamplePos, "default kept")
}

func TestScanUnavailableAlgorithm(t *testing.T) {
	useConfig(t, "")
	logger = zap.NewNop()

	cmd := newScanCmd()
	cmd.SetArgs([]string{"--use-gpu", "missing.h5"})
	cmd.SetOut(&bytes.Buffer{})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	assert.ErrorIs(t, cmd.Execute(), rfsim.ErrAlgorithmUnavailable)
}

func TestScanInvalidFlag(t *testing.T) {
	useConfig(t, "")
	logger = zap.NewNop()

	cmd := newScanCmd()
	cmd.SetArgs([]string{"--sample-pos", "2", "missing.h5"})
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true

	require.Error(t, cmd.Execute())
}

func TestPhantomThenScan(t *testing.T) {
	logger = zap.NewNop()
	dir := t.TempDir()
	phantomFile := filepath.Join(dir, "vessel.h5")

	gen := newPhantomCmd()
	gen.SetArgs([]string{
		"--scatterers", "800",
		"--depth", "0.005",
		"--vessel-length", "0.006",
		"--radius", "0.0015",
		"--duration", "0.1",
		"--control-points", "12",
		phantomFile,
	})
	require.NoError(t, gen.Execute())

	sp, err := h5.Load(phantomFile)
	require.NoError(t, err)
	assert.Equal(t, 800, sp.NumScatterers())
	assert.Equal(t, 12, sp.NumControlPoints())

	useConfig(t, "line_length: 0.01\n")
	outDir := filepath.Join(dir, "out")
	var out bytes.Buffer
	scan := newScanCmd()
	scan.SetOut(&out)
	scan.SetArgs([]string{"--num-beams", "300", "--store-audio", "--out-dir", outDir, "--workers", "2", phantomFile})
	require.NoError(t, scan.Execute())

	for _, name := range []string{pwscan.ExcitationPlot, pwscan.SlowTimePlot, pwscan.SpectrogramPlot, "pw_audio.wav"} {
		_, err := os.Stat(filepath.Join(outDir, name))
		assert.NoError(t, err, name)
	}
	assert.Contains(t, out.String(), "Spectra")
	assert.Contains(t, out.String(), filepath.Join(outDir, "pw_audio.wav"))
}

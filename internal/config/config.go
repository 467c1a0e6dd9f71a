// Package config holds the pwdoppler run configuration and its layered
// loading: built-in defaults, an optional YAML file, then PWDOPPLER_*
// environment variables. Command-line flags are applied on top by the
// command.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/cwbudde/algo-doppler/dsp/core"
	"github.com/cwbudde/algo-doppler/dsp/interp"
	"github.com/cwbudde/algo-doppler/dsp/window"
	"github.com/cwbudde/algo-doppler/rfsim"
)

// EnvPrefix prefixes every environment variable read by ApplyEnv.
const EnvPrefix = "PWDOPPLER_"

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid configuration")

// Config is the full set of run parameters.
type Config struct {
	// SamplePos is the relative depth in [0, 1] of the Doppler gate.
	SamplePos float64 `yaml:"sample_pos" env:"SAMPLE_POS"`
	// PRF is the pulse repetition frequency [Hz].
	PRF float64 `yaml:"prf" env:"PRF"`
	// NumBeams is the number of transmitted pulses.
	NumBeams int `yaml:"num_beams" env:"NUM_BEAMS"`
	// FS is the RF sampling frequency [Hz].
	FS float64 `yaml:"fs" env:"FS"`
	// FC is the pulse center frequency [Hz].
	FC float64 `yaml:"fc" env:"FC"`
	// BW is the fractional pulse bandwidth.
	BW float64 `yaml:"bw" env:"BW"`
	// SigmaLateral and SigmaElevational are the Gaussian beam widths [m].
	SigmaLateral     float64 `yaml:"sigma_lateral" env:"SIGMA_LATERAL"`
	SigmaElevational float64 `yaml:"sigma_elevational" env:"SIGMA_ELEVATIONAL"`
	UseGPU           bool    `yaml:"use_gpu" env:"USE_GPU"`
	StoreAudio       bool    `yaml:"store_audio" env:"STORE_AUDIO"`

	SoundSpeed       float64 `yaml:"sound_speed" env:"SOUND_SPEED"`
	LineLength       float64 `yaml:"line_length" env:"LINE_LENGTH"`
	ExcitationCycles float64 `yaml:"excitation_cycles" env:"EXCITATION_CYCLES"`

	// WallFilterHz is the high-pass cutoff applied to the slow-time signal;
	// 0 disables the wall filter.
	WallFilterHz    float64 `yaml:"wall_filter_hz" env:"WALL_FILTER_HZ"`
	WallFilterOrder int     `yaml:"wall_filter_order" env:"WALL_FILTER_ORDER"`

	FFTLength    int     `yaml:"fft_len" env:"FFT_LEN"`
	Hop          int     `yaml:"hop" env:"HOP"`
	Window       string  `yaml:"window" env:"WINDOW"`
	DynamicRange float64 `yaml:"dynamic_range" env:"DYNAMIC_RANGE"`

	AudioRate   int    `yaml:"audio_rate" env:"AUDIO_RATE"`
	AudioFile   string `yaml:"audio_file" env:"AUDIO_FILE"`
	AudioInterp string `yaml:"audio_interp" env:"AUDIO_INTERP"`

	// OutDir receives plots and audio.
	OutDir string `yaml:"out_dir" env:"OUT_DIR"`
	// Plots enables PNG rendering.
	Plots bool `yaml:"plots" env:"PLOTS"`
	// Workers caps simulation goroutines; 0 uses every CPU.
	Workers int `yaml:"workers" env:"WORKERS"`
}

// Default returns the built-in defaults.
func Default() Config {
	return Config{
		SamplePos:        0.5,
		PRF:              5000,
		NumBeams:         5000,
		FS:               100e6,
		FC:               5e6,
		BW:               0.2,
		SigmaLateral:     0.5e-3,
		SigmaElevational: 1e-3,
		SoundSpeed:       1540,
		LineLength:       0.1,
		ExcitationCycles: 16,
		WallFilterOrder:  2,
		FFTLength:        256,
		Hop:              5,
		Window:           window.TypeHann.String(),
		DynamicRange:     60,
		AudioRate:        44100,
		AudioFile:        "pw_audio.wav",
		AudioInterp:      interp.ModeLinear.String(),
		OutDir:           ".",
		Plots:            true,
	}
}

// Load returns the defaults overlaid with the YAML file at path (skipped
// when path is empty) and the environment.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		if err := cfg.LoadFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := cfg.ApplyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadFile overlays the YAML file at path onto c. Unknown keys are errors.
func (c *Config) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := c.decode(bytes.NewReader(data)); err != nil {
		return fmt.Errorf("config: parse %s: %w", path, err)
	}
	return nil
}

func (c *Config) decode(r io.Reader) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// ApplyEnv overrides fields from PWDOPPLER_* environment variables. Unset
// variables leave fields untouched.
func (c *Config) ApplyEnv() error {
	if err := env.ParseWithOptions(c, env.Options{Prefix: EnvPrefix}); err != nil {
		return fmt.Errorf("config: parse env: %w", err)
	}
	return nil
}

// Algorithm returns the simulator algorithm name for UseGPU.
func (c *Config) Algorithm() string {
	if c.UseGPU {
		return rfsim.AlgorithmGPUSpline
	}
	return rfsim.AlgorithmSpline
}

// WindowType parses Window.
func (c *Config) WindowType() (window.Type, error) {
	return window.ParseType(c.Window)
}

// InterpMode parses AudioInterp.
func (c *Config) InterpMode() (interp.Mode, error) {
	return interp.ParseMode(c.AudioInterp)
}

// Validate reports every out-of-range field.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
		}
	}

	check(c.SamplePos >= 0 && c.SamplePos <= 1, "sample_pos must be in [0, 1]: %g", c.SamplePos)
	check(c.PRF > 0, "prf must be > 0: %g", c.PRF)
	check(c.NumBeams > 0, "num_beams must be > 0: %d", c.NumBeams)
	check(c.FS > 0, "fs must be > 0: %g", c.FS)
	check(c.FC > 0, "fc must be > 0: %g", c.FC)
	check(c.BW > 0, "bw must be > 0: %g", c.BW)
	check(c.SigmaLateral > 0, "sigma_lateral must be > 0: %g", c.SigmaLateral)
	check(c.SigmaElevational > 0, "sigma_elevational must be > 0: %g", c.SigmaElevational)
	check(c.SoundSpeed > 0, "sound_speed must be > 0: %g", c.SoundSpeed)
	check(c.LineLength > 0, "line_length must be > 0: %g", c.LineLength)
	check(c.ExcitationCycles > 0, "excitation_cycles must be > 0: %g", c.ExcitationCycles)
	check(c.WallFilterHz >= 0 && c.WallFilterHz < c.PRF/2, "wall_filter_hz must be in [0, prf/2): %g", c.WallFilterHz)
	check(c.WallFilterOrder >= 1, "wall_filter_order must be >= 1: %d", c.WallFilterOrder)
	check(core.IsPowerOfTwo(c.FFTLength), "fft_len must be a power of two: %d", c.FFTLength)
	check(c.Hop > 0, "hop must be > 0: %d", c.Hop)
	check(c.DynamicRange > 0, "dynamic_range must be > 0: %g", c.DynamicRange)
	check(c.AudioRate > 0, "audio_rate must be > 0: %d", c.AudioRate)
	check(c.Workers >= 0, "workers must be >= 0: %d", c.Workers)
	check(!c.StoreAudio || c.AudioFile != "", "audio_file must be set when store_audio is on")

	if _, err := c.WindowType(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}
	if _, err := c.InterpMode(); err != nil {
		errs = append(errs, fmt.Errorf("%w: %w", ErrInvalid, err))
	}

	return errors.Join(errs...)
}

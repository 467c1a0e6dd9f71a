package interp

import (
	"errors"
	"fmt"
	"strings"

	gonuminterp "gonum.org/v1/gonum/interp"

	"github.com/cwbudde/algo-doppler/dsp/core"
)

var (
	errTooFewPoints     = errors.New("interp: need at least 2 points")
	errMismatchedLength = errors.New("interp: xs and ys must have same length")
	errInvalidRate      = errors.New("interp: rate must be > 0")
	errNotIncreasing    = errors.New("interp: xs must be strictly increasing")
)

// Mode selects the interpolation algorithm.
type Mode int

const (
	ModeLinear Mode = iota
	ModeFritschButland
	ModeAkima
)

// String returns the mode name.
func (m Mode) String() string {
	switch m {
	case ModeLinear:
		return "linear"
	case ModeFritschButland:
		return "fritsch-butland"
	case ModeAkima:
		return "akima"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode resolves a mode name (case-insensitive).
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "linear":
		return ModeLinear, nil
	case "fritsch-butland", "monotone":
		return ModeFritschButland, nil
	case "akima":
		return ModeAkima, nil
	default:
		return 0, fmt.Errorf("interp: unknown mode %q", name)
	}
}

func newPredictor(m Mode) gonuminterp.FittablePredictor {
	switch m {
	case ModeFritschButland:
		return &gonuminterp.FritschButland{}
	case ModeAkima:
		return &gonuminterp.AkimaSpline{}
	default:
		return &gonuminterp.PiecewiseLinear{}
	}
}

// Fit returns a predictor through the points (xs[i], ys[i]).
// xs must be strictly increasing.
func Fit(xs, ys []float64, m Mode) (gonuminterp.Predictor, error) {
	if len(xs) != len(ys) {
		return nil, errMismatchedLength
	}
	if len(xs) < 2 {
		return nil, errTooFewPoints
	}
	for i := 1; i < len(xs); i++ {
		if xs[i] <= xs[i-1] {
			return nil, fmt.Errorf("%w: xs[%d]=%g after %g", errNotIncreasing, i, xs[i], xs[i-1])
		}
	}

	p := newPredictor(m)
	if err := p.Fit(xs, ys); err != nil {
		return nil, fmt.Errorf("interp: %s fit: %w", m, err)
	}
	return p, nil
}

// Uniform resamples (xs, ys) onto the grid [xs[0], xs[len-1]) with spacing
// 1/rate and returns the grid and the interpolated values.
func Uniform(xs, ys []float64, rate float64, m Mode) (grid, values []float64, err error) {
	if rate <= 0 {
		return nil, nil, errInvalidRate
	}

	p, err := Fit(xs, ys, m)
	if err != nil {
		return nil, nil, err
	}

	grid = core.Arange(xs[0], xs[len(xs)-1], 1/rate)
	values = make([]float64, len(grid))
	for i, x := range grid {
		values[i] = p.Predict(x)
	}
	return grid, values, nil
}

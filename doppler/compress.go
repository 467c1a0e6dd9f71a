package doppler

import (
	"errors"
	"fmt"
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// MaxGrey is the grey level of a full-scale pixel after [LogCompress].
const MaxGrey = 127

var (
	// ErrSilent is returned when normalizing an image without energy.
	ErrSilent = errors.New("doppler: image has no positive values")
	// ErrInvalidDynamicRange is returned for dynamic ranges <= 0.
	ErrInvalidDynamicRange = errors.New("doppler: dynamic range must be > 0")
)

// NormalizeMax scales img in place so its largest pixel is 1.
func NormalizeMax(img *Image) error {
	m := img.Max()
	if !(m > 0) || math.IsInf(m, 0) {
		return fmt.Errorf("%w: max=%g", ErrSilent, m)
	}
	vecmath.ScaleBlock(img.Pix, img.Pix, 1/m)
	return nil
}

// LogCompress maps normalized magnitudes p in (0, 1] to grey levels
//
//	g = 127*30*log10(p)/dynamicRangeDB + 127
//
// in place and clamps negative levels (including p = 0) to 0.
func LogCompress(img *Image, dynamicRangeDB float64) error {
	if !(dynamicRangeDB > 0) {
		return fmt.Errorf("%w: %g", ErrInvalidDynamicRange, dynamicRangeDB)
	}
	for i, p := range img.Pix {
		g := MaxGrey*30*math.Log10(p)/dynamicRangeDB + MaxGrey
		if !(g >= 0) {
			g = 0
		}
		img.Pix[i] = g
	}
	return nil
}

// Package render draws the pwdoppler figures as PNG files with gonum/plot.
package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/cwbudde/algo-doppler/doppler"
)

// Figure size.
const (
	Width  = 8 * vg.Inch
	Height = 4 * vg.Inch
)

var (
	errMismatchedLength = errors.New("render: x and y lengths differ")
	errEmptySeries      = errors.New("render: empty series")
	errEmptyImage       = errors.New("render: empty image")
)

func linePlot(path, title, xLabel string, xs, ys []float64) error {
	if len(xs) != len(ys) {
		return fmt.Errorf("%w: %d vs %d", errMismatchedLength, len(xs), len(ys))
	}
	if len(xs) == 0 {
		return errEmptySeries
	}

	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel

	l, err := plotter.NewLine(pts)
	if err != nil {
		return fmt.Errorf("render: %s: %w", title, err)
	}
	p.Add(l)

	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

// Excitation plots the transmitted pulse.
func Excitation(path string, times, samples []float64) error {
	return linePlot(path, "Excitation", "Time [s]", times, samples)
}

// SlowTime plots the real part of the slow-time signal.
func SlowTime(path string, times, values []float64) error {
	return linePlot(path, "Slow-time signal", "Time [s]", times, values)
}

// GreyImage maps img linearly onto 8-bit grey levels, its minimum to black
// and its maximum to white. Row 0 of img is the top image row.
func GreyImage(img *doppler.Image) (*image.Gray, error) {
	if img == nil || img.Rows == 0 || img.Cols == 0 {
		return nil, errEmptyImage
	}

	lo, hi := img.Pix[0], img.Pix[0]
	for _, v := range img.Pix {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	scale := 0.0
	if hi > lo {
		scale = 255 / (hi - lo)
	}

	g := image.NewGray(image.Rect(0, 0, img.Cols, img.Rows))
	for r := range img.Rows {
		for c := range img.Cols {
			g.SetGray(c, r, color.Gray{Y: uint8((img.At(r, c)-lo)*scale + 0.5)})
		}
	}
	return g, nil
}

// Spectrogram draws img over [t0, t1] x [-1, 1] with hidden frequency ticks
// and a dashed white line at zero Doppler.
func Spectrogram(path string, img *doppler.Image, t0, t1 float64) error {
	if !(t1 > t0) {
		return fmt.Errorf("render: empty time range [%g, %g]", t0, t1)
	}
	g, err := GreyImage(img)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "PW Doppler spectrogram"
	p.X.Label.Text = "Time [s]"
	p.Y.Tick.Marker = plot.ConstantTicks(nil)
	p.Add(plotter.NewImage(g, t0, -1, t1, 1))

	zero, err := plotter.NewLine(plotter.XYs{{X: t0, Y: 0}, {X: t1, Y: 0}})
	if err != nil {
		return fmt.Errorf("render: zero line: %w", err)
	}
	zero.LineStyle.Color = color.White
	zero.LineStyle.Dashes = []vg.Length{vg.Points(4), vg.Points(4)}
	p.Add(zero)

	if err := p.Save(Width, Height, path); err != nil {
		return fmt.Errorf("render: save %s: %w", path, err)
	}
	return nil
}

package analytic

import (
	"errors"
	"fmt"
	"math/cmplx"

	algofft "github.com/MeKo-Christian/algo-fft"

	"github.com/cwbudde/algo-doppler/dsp/core"
)

// ErrEmptyInput is returned for empty input signals.
var ErrEmptyInput = errors.New("analytic: empty input")

// Transformer computes analytic signals and caches FFT plans by size.
// A Transformer is not safe for concurrent use.
type Transformer struct {
	plans map[int]*algofft.Plan[complex128]
	buf   []complex128
}

// NewTransformer returns an empty Transformer.
func NewTransformer() *Transformer {
	return &Transformer{plans: make(map[int]*algofft.Plan[complex128])}
}

func (tr *Transformer) plan(n int) (*algofft.Plan[complex128], error) {
	if p, ok := tr.plans[n]; ok {
		return p, nil
	}
	p, err := algofft.NewPlan64(n)
	if err != nil {
		return nil, fmt.Errorf("analytic: failed to create FFT plan of size %d: %w", n, err)
	}
	tr.plans[n] = p
	return p, nil
}

// Analytic returns the n-point analytic signal of x. x is zero-padded when
// shorter than n and truncated when longer. n <= 0 uses len(x).
func (tr *Transformer) Analytic(x []float64, n int) ([]complex128, error) {
	out, err := tr.transform(x, n)
	if err != nil {
		return nil, err
	}
	return append([]complex128(nil), out...), nil
}

// AnalyticAt returns sample idx of the n-point analytic signal of x without
// copying the full result.
func (tr *Transformer) AnalyticAt(x []float64, n, idx int) (complex128, error) {
	out, err := tr.transform(x, n)
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx >= len(out) {
		return 0, fmt.Errorf("analytic: sample index %d out of range [0,%d)", idx, len(out))
	}
	return out[idx], nil
}

// transform leaves the analytic signal in tr.buf.
func (tr *Transformer) transform(x []float64, n int) ([]complex128, error) {
	if len(x) == 0 {
		return nil, ErrEmptyInput
	}
	if n <= 0 {
		n = len(x)
	}

	p, err := tr.plan(n)
	if err != nil {
		return nil, err
	}

	if cap(tr.buf) < n {
		tr.buf = make([]complex128, n)
	}
	buf := tr.buf[:n]
	for i := range buf {
		buf[i] = 0
	}
	for i := 0; i < min(n, len(x)); i++ {
		buf[i] = complex(x[i], 0)
	}

	if err := p.Forward(buf, buf); err != nil {
		return nil, fmt.Errorf("analytic: forward FFT failed: %w", err)
	}

	applyHilbertMask(buf)

	if err := p.Inverse(buf, buf); err != nil {
		return nil, fmt.Errorf("analytic: inverse FFT failed: %w", err)
	}

	return buf, nil
}

// applyHilbertMask doubles positive frequencies and zeroes negative ones.
func applyHilbertMask(spec []complex128) {
	n := len(spec)
	half := (n + 1) / 2
	for k := 1; k < half; k++ {
		spec[k] *= 2
	}
	start := half
	if n%2 == 0 {
		// Nyquist bin is shared between both halves and kept as is.
		start = n/2 + 1
	}
	for k := start; k < n; k++ {
		spec[k] = 0
	}
}

// Analytic is a one-shot helper around [Transformer.Analytic].
func Analytic(x []float64, n int) ([]complex128, error) {
	return NewTransformer().Analytic(x, n)
}

// Envelope returns |z| for the analytic signal z of x. The transform is
// computed on the next power of two and truncated back to len(x).
func Envelope(x []float64) ([]float64, error) {
	z, err := Analytic(x, core.NextPowerOfTwo(len(x)))
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(x))
	for i := range out {
		out[i] = cmplx.Abs(z[i])
	}
	return out, nil
}

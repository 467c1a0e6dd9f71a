package phantom

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/spatial/r3"
)

var (
	// ErrInvalidPhantom wraps every structural validation failure.
	ErrInvalidPhantom = errors.New("phantom: invalid spline phantom")
	// ErrOutsideDomain is returned when evaluating outside the knot domain.
	ErrOutsideDomain = errors.New("phantom: time outside spline domain")
)

// Node is one spline control node.
type Node struct {
	X, Y, Z   float64
	Amplitude float64
}

// Pos returns the spatial part of the node.
func (n Node) Pos() r3.Vec {
	return r3.Vec{X: n.X, Y: n.Y, Z: n.Z}
}

// Spline is a spline scatterer phantom.
type Spline struct {
	Degree int
	Knots  []float64
	// Nodes is indexed [scatterer][control point].
	Nodes [][]Node
}

// NumScatterers returns the number of scatterers.
func (s *Spline) NumScatterers() int { return len(s.Nodes) }

// NumControlPoints returns the control-point count per scatterer.
func (s *Spline) NumControlPoints() int {
	if len(s.Nodes) == 0 {
		return 0
	}
	return len(s.Nodes[0])
}

// Validate checks the structural invariants of the phantom.
func (s *Spline) Validate() error {
	if s.Degree < 0 {
		return fmt.Errorf("%w: degree must be >= 0: %d", ErrInvalidPhantom, s.Degree)
	}
	if len(s.Nodes) == 0 {
		return fmt.Errorf("%w: no scatterers", ErrInvalidPhantom)
	}

	c := len(s.Nodes[0])
	if c < s.Degree+1 {
		return fmt.Errorf("%w: %d control points is too few for degree %d", ErrInvalidPhantom, c, s.Degree)
	}
	for i, nodes := range s.Nodes {
		if len(nodes) != c {
			return fmt.Errorf("%w: scatterer %d has %d control points, want %d", ErrInvalidPhantom, i, len(nodes), c)
		}
	}

	if want := c + s.Degree + 1; len(s.Knots) != want {
		return fmt.Errorf("%w: knot vector has %d values, want %d", ErrInvalidPhantom, len(s.Knots), want)
	}
	for i := 1; i < len(s.Knots); i++ {
		if s.Knots[i] < s.Knots[i-1] {
			return fmt.Errorf("%w: knot vector decreases at index %d", ErrInvalidPhantom, i)
		}
	}

	lo, hi := s.Domain()
	if !(hi > lo) {
		return fmt.Errorf("%w: empty spline domain [%g, %g]", ErrInvalidPhantom, lo, hi)
	}
	return nil
}

// Domain returns the parameter interval [knots[d], knots[C]] on which the
// basis functions form a partition of unity.
func (s *Spline) Domain() (lo, hi float64) {
	c := len(s.Knots) - s.Degree - 1
	if c <= 0 || s.Degree >= len(s.Knots) {
		return 0, 0
	}
	return s.Knots[s.Degree], s.Knots[c]
}

// Basis evaluates the Degree+1 non-zero basis functions at t into dst and
// returns the index of the first control point they apply to. dst must
// have room for Degree+1 values.
func (s *Spline) Basis(t float64, dst []float64) (first int, err error) {
	d := s.Degree
	if len(dst) < d+1 {
		return 0, fmt.Errorf("phantom: basis buffer has %d values, want %d", len(dst), d+1)
	}

	lo, hi := s.Domain()
	if t < lo || t > hi {
		return 0, fmt.Errorf("%w: t=%g not in [%g, %g]", ErrOutsideDomain, t, lo, hi)
	}

	span := s.findSpan(t)
	basisFuncs(s.Knots, d, span, t, dst[:d+1])
	return span - d, nil
}

// findSpan returns k with knots[k] <= t < knots[k+1], clamped to the last
// non-empty span at the right edge of the domain.
func (s *Spline) findSpan(t float64) int {
	c := len(s.Knots) - s.Degree - 1
	if t >= s.Knots[c] {
		k := c - 1
		for k > s.Degree && s.Knots[k] == s.Knots[k+1] {
			k--
		}
		return k
	}

	lo, hi := s.Degree, c
	for hi-lo > 1 {
		mid := (lo + hi) / 2
		if t < s.Knots[mid] {
			hi = mid
		} else {
			lo = mid
		}
	}
	return lo
}

// basisFuncs is the triangular Cox-de Boor evaluation of the d+1 basis
// functions that are non-zero on span.
func basisFuncs(knots []float64, d, span int, t float64, n []float64) {
	left := make([]float64, d+1)
	right := make([]float64, d+1)

	n[0] = 1
	for j := 1; j <= d; j++ {
		left[j] = t - knots[span+1-j]
		right[j] = knots[span+j] - t
		saved := 0.0
		for r := 0; r < j; r++ {
			den := right[r+1] + left[j-r]
			temp := 0.0
			if den != 0 {
				temp = n[r] / den
			}
			n[r] = saved + right[r+1]*temp
			saved = left[j-r] * temp
		}
		n[j] = saved
	}
}

// Combine returns the position and amplitude of scatterer i given basis
// values from [Spline.Basis].
func (s *Spline) Combine(i, first int, basis []float64) (r3.Vec, float64) {
	var pos r3.Vec
	amp := 0.0
	nodes := s.Nodes[i]
	for j, b := range basis {
		if b == 0 {
			continue
		}
		n := nodes[first+j]
		pos = r3.Add(pos, r3.Scale(b, n.Pos()))
		amp += b * n.Amplitude
	}
	return pos, amp
}

// Evaluate returns the position and amplitude of scatterer i at time t.
func (s *Spline) Evaluate(i int, t float64) (r3.Vec, float64, error) {
	if i < 0 || i >= len(s.Nodes) {
		return r3.Vec{}, 0, fmt.Errorf("phantom: scatterer index %d out of range [0,%d)", i, len(s.Nodes))
	}
	basis := make([]float64, s.Degree+1)
	first, err := s.Basis(t, basis)
	if err != nil {
		return r3.Vec{}, 0, err
	}
	pos, amp := s.Combine(i, first, basis)
	return pos, amp, nil
}

// ClampedUniformKnots returns the knot vector of a clamped uniform B-spline
// with numCS control points on [t0, t1]: degree+1 repeated knots at each end
// and uniformly spaced interior knots.
func ClampedUniformKnots(numCS, degree int, t0, t1 float64) ([]float64, error) {
	if degree < 0 || numCS < degree+1 {
		return nil, fmt.Errorf("%w: %d control points is too few for degree %d", ErrInvalidPhantom, numCS, degree)
	}
	if !(t1 > t0) {
		return nil, fmt.Errorf("%w: empty interval [%g, %g]", ErrInvalidPhantom, t0, t1)
	}

	knots := make([]float64, numCS+degree+1)
	interior := numCS - degree
	for i := range knots {
		switch {
		case i <= degree:
			knots[i] = t0
		case i >= numCS:
			knots[i] = t1
		default:
			knots[i] = t0 + (t1-t0)*float64(i-degree)/float64(interior)
		}
	}
	return knots, nil
}

// Greville returns the Greville abscissae of a knot vector: the average of
// degree consecutive knots per control point. Placing control points on a
// curve sampled at these parameters reproduces linear motion exactly.
func Greville(knots []float64, degree int) []float64 {
	numCS := len(knots) - degree - 1
	if numCS <= 0 {
		return nil
	}
	out := make([]float64, numCS)
	for j := range out {
		if degree == 0 {
			out[j] = 0.5 * (knots[j] + knots[j+1])
			continue
		}
		sum := 0.0
		for k := 1; k <= degree; k++ {
			sum += knots[j+k]
		}
		out[j] = sum / float64(degree)
	}
	return out
}

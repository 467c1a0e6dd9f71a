package phantom

import "fmt"

// Dataset names used in phantom files.
const (
	DatasetNodes  = "nodes"
	DatasetKnots  = "knot_vector"
	DatasetDegree = "spline_degree"
)

// FromArrays builds a phantom from a flat row-major node array with shape
// dims = [N, C, K], K in {3, 4}. Without an amplitude column every node gets
// amplitude 1.
func FromArrays(degree int, knots, nodes []float64, dims []uint) (*Spline, error) {
	if len(dims) != 3 {
		return nil, fmt.Errorf("%w: %s must be 3-dimensional, got %d dimensions", ErrInvalidPhantom, DatasetNodes, len(dims))
	}
	n, c, k := int(dims[0]), int(dims[1]), int(dims[2])
	if k != 3 && k != 4 {
		return nil, fmt.Errorf("%w: %s last dimension must be 3 or 4, got %d", ErrInvalidPhantom, DatasetNodes, k)
	}
	if len(nodes) != n*c*k {
		return nil, fmt.Errorf("%w: %s has %d values for shape %v", ErrInvalidPhantom, DatasetNodes, len(nodes), dims)
	}

	s := &Spline{
		Degree: degree,
		Knots:  append([]float64(nil), knots...),
		Nodes:  make([][]Node, n),
	}
	for i := range s.Nodes {
		s.Nodes[i] = make([]Node, c)
		for j := range s.Nodes[i] {
			v := nodes[(i*c+j)*k:]
			node := Node{X: v[0], Y: v[1], Z: v[2], Amplitude: 1}
			if k == 4 {
				node.Amplitude = v[3]
			}
			s.Nodes[i][j] = node
		}
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

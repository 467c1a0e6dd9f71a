// Package phantom models spline scatterer phantoms.
//
// A phantom is a set of point scatterers whose trajectories are B-spline
// curves sharing one knot vector and degree. Each scatterer owns C control
// nodes (x, y, z, amplitude); its position at time t is
//
//	p(t) = sum_j B_{j,d}(t) * node_j
//
// where B_{j,d} are the B-spline basis functions of degree d over the knot
// vector (len = C + d + 1).
//
// Phantom files (package h5) hold three HDF5 datasets, which [FromArrays]
// turns back into a Spline:
//
//	nodes          float32 [N][C][4] (or [N][C][3] without amplitudes)
//	knot_vector    float32 [C+d+1]
//	spline_degree  integer scalar
package phantom

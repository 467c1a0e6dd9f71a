// Package h5 reads and writes spline phantoms in the HDF5 layout
// (datasets nodes, knot_vector and spline_degree).
//
// It links against libhdf5 through cgo; the phantom model itself does not.
package h5

import (
	"errors"
	"fmt"

	"gonum.org/v1/hdf5"

	"github.com/cwbudde/algo-doppler/phantom"
)

// Load reads and validates a spline phantom from an HDF5 file.
func Load(path string) (_ *phantom.Spline, err error) {
	f, err := hdf5.OpenFile(path, hdf5.F_ACC_RDONLY)
	if err != nil {
		return nil, fmt.Errorf("h5: open %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	nodes, dims, err := readFloats(f, phantom.DatasetNodes)
	if err != nil {
		return nil, err
	}
	knots, _, err := readFloats(f, phantom.DatasetKnots)
	if err != nil {
		return nil, err
	}
	degree, _, err := readFloats(f, phantom.DatasetDegree)
	if err != nil {
		return nil, err
	}
	if len(degree) != 1 {
		return nil, fmt.Errorf("%w: %s must be a scalar, got %d values", phantom.ErrInvalidPhantom, phantom.DatasetDegree, len(degree))
	}

	s, err := phantom.FromArrays(int(degree[0]), knots, nodes, dims)
	if err != nil {
		return nil, fmt.Errorf("h5: %s: %w", path, err)
	}
	return s, nil
}

// Save writes s to path in the phantom file layout, truncating any existing
// file. Nodes and knots are stored as 32-bit floats.
func Save(path string, s *phantom.Spline) (err error) {
	if err := s.Validate(); err != nil {
		return err
	}

	f, err := hdf5.CreateFile(path, hdf5.F_ACC_TRUNC)
	if err != nil {
		return fmt.Errorf("h5: create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	n, c := s.NumScatterers(), s.NumControlPoints()
	nodes := make([]float32, 0, n*c*4)
	for _, row := range s.Nodes {
		for _, node := range row {
			nodes = append(nodes, float32(node.X), float32(node.Y), float32(node.Z), float32(node.Amplitude))
		}
	}
	if err := writeDataset(f, phantom.DatasetNodes, hdf5.T_NATIVE_FLOAT, []uint{uint(n), uint(c), 4}, &nodes); err != nil {
		return err
	}

	knots := make([]float32, len(s.Knots))
	for i, v := range s.Knots {
		knots[i] = float32(v)
	}
	if err := writeDataset(f, phantom.DatasetKnots, hdf5.T_NATIVE_FLOAT, []uint{uint(len(knots))}, &knots); err != nil {
		return err
	}

	degree := int32(s.Degree)
	return writeDataset(f, phantom.DatasetDegree, hdf5.T_NATIVE_INT32, nil, &degree)
}

// writeDataset writes data to a new dataset; nil dims creates a scalar.
func writeDataset(f *hdf5.File, name string, dtype *hdf5.Datatype, dims []uint, data any) (err error) {
	var space *hdf5.Dataspace
	if dims == nil {
		space, err = hdf5.CreateDataspace(hdf5.S_SCALAR)
	} else {
		space, err = hdf5.CreateSimpleDataspace(dims, nil)
	}
	if err != nil {
		return fmt.Errorf("h5: dataspace for %s: %w", name, err)
	}
	defer func() {
		err = errors.Join(err, space.Close())
	}()

	ds, err := f.CreateDataset(name, dtype, space)
	if err != nil {
		return fmt.Errorf("h5: create dataset %s: %w", name, err)
	}
	defer func() {
		err = errors.Join(err, ds.Close())
	}()

	if err := ds.Write(data); err != nil {
		return fmt.Errorf("h5: write %s: %w", name, err)
	}
	return nil
}

// readFloats reads a numeric dataset of any supported storage type and
// returns its values as float64 together with its shape.
func readFloats(f *hdf5.File, name string) (_ []float64, _ []uint, err error) {
	ds, err := f.OpenDataset(name)
	if err != nil {
		return nil, nil, fmt.Errorf("h5: open dataset %s: %w", name, err)
	}
	defer func() {
		err = errors.Join(err, ds.Close())
	}()

	space := ds.Space()
	dims, _, err := space.SimpleExtentDims()
	closeErr := space.Close()
	if err != nil {
		return nil, nil, fmt.Errorf("h5: shape of %s: %w", name, err)
	}
	if closeErr != nil {
		return nil, nil, fmt.Errorf("h5: shape of %s: %w", name, closeErr)
	}

	count := 1
	for _, d := range dims {
		count *= int(d)
	}

	dtype, err := ds.Datatype()
	if err != nil {
		return nil, nil, fmt.Errorf("h5: datatype of %s: %w", name, err)
	}
	defer func() {
		err = errors.Join(err, dtype.Close())
	}()

	out := make([]float64, count)
	switch class, size := dtype.Class(), dtype.Size(); {
	case class == hdf5.T_FLOAT && size == 4:
		buf := make([]float32, count)
		if err := ds.Read(&buf); err != nil {
			return nil, nil, fmt.Errorf("h5: read %s: %w", name, err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case class == hdf5.T_FLOAT && size == 8:
		if err := ds.Read(&out); err != nil {
			return nil, nil, fmt.Errorf("h5: read %s: %w", name, err)
		}
	case class == hdf5.T_INTEGER && size == 4:
		buf := make([]int32, count)
		if err := ds.Read(&buf); err != nil {
			return nil, nil, fmt.Errorf("h5: read %s: %w", name, err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	case class == hdf5.T_INTEGER && size == 8:
		buf := make([]int64, count)
		if err := ds.Read(&buf); err != nil {
			return nil, nil, fmt.Errorf("h5: read %s: %w", name, err)
		}
		for i, v := range buf {
			out[i] = float64(v)
		}
	default:
		return nil, nil, fmt.Errorf("%w: %s has unsupported storage (class %v, %d bytes)", phantom.ErrInvalidPhantom, name, class, size)
	}

	return out, dims, nil
}

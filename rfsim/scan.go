package rfsim

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

const unitTolerance = 1e-6

// ScanSequence lists the beams to simulate. All slices have one entry per
// beam.
type ScanSequence struct {
	Origins     []r3.Vec
	Directions  []r3.Vec
	LateralDirs []r3.Vec
	// Length is the line length along the beam direction [m].
	Length     float64
	Timestamps []float64
}

// NewFixedAxisSequence repeats one beam numBeams times, fired at
// timestamps i/prf.
func NewFixedAxisSequence(numBeams int, prf float64, origin, direction, lateral r3.Vec, length float64) (*ScanSequence, error) {
	if numBeams <= 0 {
		return nil, fmt.Errorf("%w: beam count must be > 0: %d", ErrInvalidScanSequence, numBeams)
	}
	if !(prf > 0) {
		return nil, fmt.Errorf("%w: pulse repetition frequency must be > 0: %g", ErrInvalidScanSequence, prf)
	}

	s := &ScanSequence{
		Origins:     make([]r3.Vec, numBeams),
		Directions:  make([]r3.Vec, numBeams),
		LateralDirs: make([]r3.Vec, numBeams),
		Length:      length,
		Timestamps:  make([]float64, numBeams),
	}
	for i := range numBeams {
		s.Origins[i] = origin
		s.Directions[i] = direction
		s.LateralDirs[i] = lateral
		s.Timestamps[i] = float64(i) / prf
	}

	if err := s.Validate(); err != nil {
		return nil, err
	}
	return s, nil
}

// NumBeams returns the number of beams.
func (s *ScanSequence) NumBeams() int { return len(s.Timestamps) }

// Validate checks slice lengths, line length and beam frames.
func (s *ScanSequence) Validate() error {
	n := len(s.Timestamps)
	if n == 0 {
		return fmt.Errorf("%w: no beams", ErrInvalidScanSequence)
	}
	if len(s.Origins) != n || len(s.Directions) != n || len(s.LateralDirs) != n {
		return fmt.Errorf("%w: origins/directions/lateral/timestamps lengths %d/%d/%d/%d differ",
			ErrInvalidScanSequence, len(s.Origins), len(s.Directions), len(s.LateralDirs), n)
	}
	if !(s.Length > 0) {
		return fmt.Errorf("%w: line length must be > 0: %g", ErrInvalidScanSequence, s.Length)
	}
	for i := range n {
		d, l := s.Directions[i], s.LateralDirs[i]
		if math.Abs(r3.Norm(d)-1) > unitTolerance || math.Abs(r3.Norm(l)-1) > unitTolerance {
			return fmt.Errorf("%w: beam %d directions must be unit vectors", ErrInvalidScanSequence, i)
		}
		if math.Abs(r3.Dot(d, l)) > unitTolerance {
			return fmt.Errorf("%w: beam %d lateral direction is not orthogonal to the beam", ErrInvalidScanSequence, i)
		}
	}
	return nil
}

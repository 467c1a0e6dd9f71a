package spectrum_test

import (
	"fmt"

	"github.com/cwbudde/algo-doppler/dsp/spectrum"
)

func ExampleFFTShift() {
	bins := []float64{0, 1, 2, 3, -4, -3, -2, -1}
	spectrum.FFTShift(bins)
	fmt.Println(bins)

	// Output:
	// [-4 -3 -2 -1 0 1 2 3]
}

func ExampleMagnitude() {
	fmt.Println(spectrum.Magnitude([]complex128{complex(3, 4)}))

	// Output:
	// [5]
}

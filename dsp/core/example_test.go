package core_test

import (
	"fmt"

	"github.com/cwbudde/algo-doppler/dsp/core"
)

func ExampleApplyProcessorOptions() {
	cfg := core.ApplyProcessorOptions(core.WithSampleRate(50e6))

	fmt.Printf("sampleRate=%.0f\n", cfg.SampleRate)

	// Output:
	// sampleRate=50000000
}

func ExampleNextPowerOfTwo() {
	fmt.Println(core.NextPowerOfTwo(12987))

	// Output:
	// 16384
}

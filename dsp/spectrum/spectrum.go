package spectrum

import (
	"sync"

	"github.com/cwbudde/algo-vecmath"
)

// scratchBuf holds pooled scratch memory for complex-to-real unpacking.
type scratchBuf struct {
	data []float64
}

var scratchPool = sync.Pool{
	New: func() any { return &scratchBuf{} },
}

func getScratch(n int) (re, im []float64, buf *scratchBuf) {
	buf = scratchPool.Get().(*scratchBuf)
	need := 2 * n
	if cap(buf.data) < need {
		buf.data = make([]float64, need)
	} else {
		buf.data = buf.data[:need]
	}
	return buf.data[:n], buf.data[n:need], buf
}

func putScratch(buf *scratchBuf) {
	scratchPool.Put(buf)
}

func split(in []complex128, re, im []float64) {
	for i, c := range in {
		re[i] = real(c)
		im[i] = imag(c)
	}
}

// Magnitude returns |X[k]| for each complex spectrum bin.
//
// Scratch buffers are pooled internally, so in steady state this allocates
// only the output slice.
func Magnitude(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	MagnitudeTo(out, in)
	return out
}

// MagnitudeTo writes |X[k]| into dst, which must have len(in) elements.
func MagnitudeTo(dst []float64, in []complex128) {
	re, im, buf := getScratch(len(in))
	split(in, re, im)
	vecmath.Magnitude(dst, re, im)
	putScratch(buf)
}

// Power returns |X[k]|^2 for each complex spectrum bin.
func Power(in []complex128) []float64 {
	if len(in) == 0 {
		return nil
	}

	out := make([]float64, len(in))
	re, im, buf := getScratch(len(in))
	split(in, re, im)
	vecmath.Power(out, re, im)
	putScratch(buf)
	return out
}

// FFTShift rotates x in place so the zero-frequency bin moves to the center:
// bin 0 ends up at index len(x)/2, negative frequencies come first.
func FFTShift[T any](x []T) {
	n := len(x)
	if n < 2 {
		return
	}
	rotate(x, n-n/2)
}

// IFFTShift undoes [FFTShift].
func IFFTShift[T any](x []T) {
	n := len(x)
	if n < 2 {
		return
	}
	rotate(x, n/2)
}

// Reverse reverses x in place.
func Reverse[T any](x []T) {
	for i, j := 0, len(x)-1; i < j; i, j = i+1, j-1 {
		x[i], x[j] = x[j], x[i]
	}
}

// rotate left-rotates x by k positions.
func rotate[T any](x []T, k int) {
	k %= len(x)
	if k == 0 {
		return
	}
	Reverse(x[:k])
	Reverse(x[k:])
	Reverse(x)
}

package audio

import (
	"math"
	"math/cmplx"
)

// FFT is a radix-2 transform of a fixed power-of-two length.
type FFT struct {
	bitReverseTable []int
	wTable          []complex128
	inverse         bool
	buf             []complex128
}

// NewFFT creates a transform. length must be a power of two.
func NewFFT(length int, inverse bool) *FFT {
	return &FFT{
		bitReverseTable: makeBitReverseTable(length),
		wTable:          makeWTable(length),
		inverse:         inverse,
		buf:             make([]complex128, length),
	}
}

func makeBitReverseTable(n int) []int {
	array := make([]int, n)
	for i := 0; i < n; i++ {
		array[i] = bitReverse(i, n)
	}
	return array
}

func bitReverse(k, n int) int {
	m := 0
	for ; n > 1; n = n >> 1 {
		m = m<<1 + k&1
		k = k >> 1
	}
	return m
}

func makeWTable(n int) []complex128 {
	array := make([]complex128, n+1)
	w := -2.0 * math.Pi / float64(n)
	for i := 0; i <= n; i++ {
		array[i] = cmplx.Exp(complex(0, w*float64(i)))
	}
	return array
}

// Len returns the transform length.
func (fft *FFT) Len() int {
	return len(fft.bitReverseTable)
}

// Calc transforms x in place. x must have the transform length.
func (fft *FFT) Calc(x []complex128) {
	n := len(x)
	if n != len(fft.bitReverseTable) {
		panic("fft: length mismatch")
	}
	for i := 0; i < n; i++ {
		rev := fft.bitReverseTable[i]
		if i < rev {
			x[i], x[rev] = x[rev], x[i]
		}
	}
	for m := 1; m < n; m = m << 1 {
		step := m << 1
		for k := 0; k < m; k++ {
			idx := n / step * k
			if fft.inverse {
				idx = n - idx
			}
			w := fft.wTable[idx]
			for i := k; i < n; i += step {
				j := i + m
				tmp := x[j] * w
				x[j] = x[i] - tmp
				x[i] = x[i] + tmp
			}
		}
	}
	if fft.inverse {
		for i := 0; i < n; i++ {
			x[i] /= complex(float64(n), 0)
		}
	}
}

func (fft *FFT) load(x []float64) []complex128 {
	cx := fft.buf
	if len(cx) != len(x) {
		cx = make([]complex128, len(x))
	}
	for i := range x {
		cx[i] = complex(x[i], 0)
	}
	fft.Calc(cx)
	return cx
}

// CalcReal replaces x with the real part of its transform and returns it.
func (fft *FFT) CalcReal(x []float64) []float64 {
	cx := fft.load(x)
	for i := range x {
		x[i] = real(cx[i])
	}
	return x
}

// CalcAbs replaces x with the magnitude of its transform and returns it.
func (fft *FFT) CalcAbs(x []float64) []float64 {
	cx := fft.load(x)
	for i := range x {
		x[i] = cmplx.Abs(cx[i])
	}
	return x
}

package audio

import (
	"math"
	"testing"
)

func expectEqual(t *testing.T, actual, expected interface{}) {
	if actual != expected {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func expectNearlyEqual(t *testing.T, actual, expected float64) {
	if math.Abs(actual-expected) > 0.0001 {
		t.Errorf("expected %v, but got: %v", expected, actual)
	}
}

func TestBitreverse(t *testing.T) {
	expectEqual(t, bitReverse(0, 8), 0)
	expectEqual(t, bitReverse(1, 8), 4)
	expectEqual(t, bitReverse(2, 8), 2)
	expectEqual(t, bitReverse(3, 8), 6)
	expectEqual(t, bitReverse(4, 8), 1)
	expectEqual(t, bitReverse(5, 8), 5)
	expectEqual(t, bitReverse(6, 8), 3)
	expectEqual(t, bitReverse(7, 8), 7)
}

func TestFFT(t *testing.T) {
	fft := NewFFT(8, false)
	x := []float64{0, 0.25, 0.5, 0.75, 1, 0.75, 0.5, 0.25}
	x = fft.CalcReal(x)
	expectNearlyEqual(t, x[0], 4)
	expectNearlyEqual(t, x[1], -(1 + math.Sqrt(2)/2))
	expectNearlyEqual(t, x[2], 0)
	expectNearlyEqual(t, x[3], -(1 - math.Sqrt(2)/2))
	expectNearlyEqual(t, x[4], 0)
	expectNearlyEqual(t, x[5], -(1 - math.Sqrt(2)/2))
	expectNearlyEqual(t, x[6], 0)
	expectNearlyEqual(t, x[7], -(1 + math.Sqrt(2)/2))
}

func TestInverseFFT(t *testing.T) {
	forward := NewFFT(8, false)
	inverse := NewFFT(8, true)
	src := []float64{0, 0.25, 0.5, 0.75, 1, 0.75, 0.5, 0.25}
	x := make([]complex128, len(src))
	for i, v := range src {
		x[i] = complex(v, 0)
	}
	forward.Calc(x)
	inverse.Calc(x)
	for i, v := range src {
		expectNearlyEqual(t, real(x[i]), v)
		expectNearlyEqual(t, imag(x[i]), 0)
	}
}

func TestFFTAbs(t *testing.T) {
	size := 64
	fft := NewFFT(size, false)
	x := make([]float64, size)
	for i := range x {
		x[i] = math.Sin(2 * math.Pi * 4 * float64(i) / float64(size))
	}
	x = fft.CalcAbs(x)
	expectNearlyEqual(t, x[4], float64(size)/2)
	expectNearlyEqual(t, x[size-4], float64(size)/2)
	expectNearlyEqual(t, x[3], 0)
	expectNearlyEqual(t, x[0], 0)
}

func TestAnalyzer(t *testing.T) {
	sys := NewSystem(Options{})
	// 16 cycles per 1024 samples lands exactly on bin 16.
	freq := float64(sys.SampleRate()) * 16 / 1024
	osc := NewOscNode(sys, "sin")
	osc.SetFreqValue(freq)
	analyzer := NewAnalyzer(sys, 1000, osc)
	expectEqual(t, analyzer.Size(), 1024)

	var tick int64
	for i := 0; i < 1024/sys.BlockSize(); i++ {
		tick++
		analyzer.Render(tick)
	}
	samples := analyzer.Samples()
	expectEqual(t, len(samples), 1024)
	expectNearlyEqual(t, samples[0], 0)

	spectrum := analyzer.Spectrum()
	expectEqual(t, len(spectrum), 512)
	peak := 0
	for i, v := range spectrum {
		if v > spectrum[peak] {
			peak = i
		}
	}
	expectEqual(t, peak, 16)
	if spectrum[peak] < 0.4 || spectrum[peak] > 0.6 {
		t.Errorf("expected a han-windowed peak near 0.5, but got: %v", spectrum[peak])
	}
	if spectrum[100] > 0.001 {
		t.Errorf("expected silence far from the peak, but got: %v", spectrum[100])
	}
}

func TestWindow(t *testing.T) {
	w, ok := Window("hann")
	expectEqual(t, ok, true)
	expectNearlyEqual(t, w(0), 0)
	expectNearlyEqual(t, w(0.5), 1)
	_, ok = Window("unknown")
	expectEqual(t, ok, false)
}

package audio

import (
	"math"
)

// WindowFunc returns the window weight at x in [0, 1).
type WindowFunc func(x float64) float64

func han(x float64) float64 {
	return 0.5 - 0.5*math.Cos(2.0*math.Pi*x)
}

func blackman(x float64) float64 {
	return 0.42 - 0.5*math.Cos(2.0*math.Pi*x) + 0.08*math.Cos(4.0*math.Pi*x)
}

func hamming(x float64) float64 {
	return 0.54 - 0.46*math.Cos(2.0*math.Pi*x)
}

func rectangular(x float64) float64 {
	return 1
}

var windows = map[string]WindowFunc{
	"han":         han,
	"hann":        han,
	"blackman":    blackman,
	"hamming":     hamming,
	"rectangular": rectangular,
}

// Window returns the window function registered as name.
func Window(name string) (WindowFunc, bool) {
	w, ok := windows[name]
	return w, ok
}

func applyWindow(data []float64, w WindowFunc) {
	n := len(data)
	for i := 0; i < n; i++ {
		data[i] *= w(float64(i) / float64(n))
	}
}

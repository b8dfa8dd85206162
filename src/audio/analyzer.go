package audio

const defaultFFTSize = 2048

// Analyzer keeps the latest mono samples of its input and computes spectra from them.
// It passes its input through, so it can sit inline or be started as a listener.
type Analyzer struct {
	Object
	fft    *FFT
	window WindowFunc
	ring   []float64
	pos    int
	out    []float64
}

// NewAnalyzer creates an analyzer over size samples. size is rounded up to a power
// of two of at least 256; 0 selects 2048.
func NewAnalyzer(sys *System, size int, nodes ...Node) *Analyzer {
	if size <= 0 {
		size = defaultFFTSize
	}
	n2 := 256
	for n2 < size {
		n2 <<= 1
	}
	n := &Analyzer{
		fft:    NewFFT(n2, false),
		window: han,
		ring:   make([]float64, n2),
		out:    make([]float64, n2),
	}
	n.init(sys, n, "fft", true)
	n.fixedRate = true
	n.role = roleListener
	n.Append(nodes...)
	return n
}

// Listen joins the system's listener set at the next tick boundary.
func (n *Analyzer) Listen() {
	n.Play()
}

// Unlisten leaves the listener set at the next tick boundary.
func (n *Analyzer) Unlisten() {
	n.Pause()
}

// Size returns the transform length.
func (n *Analyzer) Size() int {
	return len(n.ring)
}

// SetWindow selects the window by name. Unknown names are ignored.
func (n *Analyzer) SetWindow(name string) bool {
	w, ok := Window(name)
	if ok {
		n.window = w
	}
	return ok
}

// Samples returns the buffered samples, oldest first.
func (n *Analyzer) Samples() []float64 {
	size := len(n.ring)
	samples := make([]float64, size)
	copy(samples, n.ring[n.pos:])
	copy(samples[size-n.pos:], n.ring[:n.pos])
	return samples
}

// Spectrum returns the windowed magnitude spectrum up to the Nyquist frequency,
// scaled so that a full-scale sine peaks near 1.
func (n *Analyzer) Spectrum() []float64 {
	size := len(n.ring)
	// ring:   | 4 | 1 | 2 | 3 |
	// pos:        ^
	// out:    | 1 | 2 | 3 | 4 |
	copy(n.out, n.ring[n.pos:])
	copy(n.out[size-n.pos:], n.ring[:n.pos])
	applyWindow(n.out, n.window)
	n.fft.CalcAbs(n.out)
	result := make([]float64, size/2)
	for i := range result {
		result[i] = n.out[i] * 2 / float64(size)
	}
	return result
}

func (n *Analyzer) process(tickID int64) {
	n.inputAudio(tickID)
	l, r := n.cells[1], n.cells[2]
	size := len(n.ring)
	for i := range l {
		n.ring[n.pos] = (l[i] + r[i]) * 0.5
		n.pos++
		if n.pos >= size {
			n.pos = 0
		}
	}
	n.outputAudio()
}

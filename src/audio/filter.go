package audio

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

const firOrder = 50

var filterAliases = map[string]string{
	"lpf":       "lowpass",
	"hpf":       "highpass",
	"bpf":       "bandpass",
	"bef":       "notch",
	"brf":       "notch",
	"apf":       "allpass",
	"peq":       "peaking",
	"lshelf":    "lowshelf",
	"hshelf":    "highshelf",
	"bandpass2": "bandpass-q",
}

// FilterKinds lists the accepted filter types.
var FilterKinds = []string{
	"none", "lowpass", "highpass", "bandpass", "bandpass-q", "notch", "allpass",
	"peaking", "lowshelf", "highshelf", "lowpass-fir", "highpass-fir",
}

func canonicalFilterKind(kind string) (string, bool) {
	if alias, ok := filterAliases[kind]; ok {
		kind = alias
	}
	for _, k := range FilterKinds {
		if k == kind {
			return kind, true
		}
	}
	return kind, false
}

// filterCoeffs returns feedforward (a) and feedback (b) coefficients normalized by a0.
// fc is the cutoff divided by the sample rate.
func filterCoeffs(kind string, fc, q, dBgain float64) ([]float64, []float64) {
	if q <= 0 {
		q = 0.0001
	}
	// from RBJ's cookbook
	w0 := 2 * math.Pi * fc
	cos := math.Cos(w0)
	sin := math.Sin(w0)
	alpha := sin / (2 * q)
	A := math.Pow(10, dBgain/40)
	var b0, b1, b2, a0, a1, a2 float64
	switch kind {
	case "lowpass":
		b0, b1, b2 = (1-cos)/2, 1-cos, (1-cos)/2
		a0, a1, a2 = 1+alpha, -2*cos, 1-alpha
	case "highpass":
		b0, b1, b2 = (1+cos)/2, -(1 + cos), (1+cos)/2
		a0, a1, a2 = 1+alpha, -2*cos, 1-alpha
	case "bandpass-q":
		b0, b1, b2 = sin/2, 0, -sin/2
		a0, a1, a2 = 1+alpha, -2*cos, 1-alpha
	case "bandpass":
		b0, b1, b2 = alpha, 0, -alpha
		a0, a1, a2 = 1+alpha, -2*cos, 1-alpha
	case "notch":
		b0, b1, b2 = 1, -2*cos, 1
		a0, a1, a2 = 1+alpha, -2*cos, 1-alpha
	case "allpass":
		b0, b1, b2 = 1-alpha, -2*cos, 1+alpha
		a0, a1, a2 = 1+alpha, -2*cos, 1-alpha
	case "peaking":
		b0, b1, b2 = 1+alpha*A, -2*cos, 1-alpha*A
		a0, a1, a2 = 1+alpha/A, -2*cos, 1-alpha/A
	case "lowshelf":
		sq := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) - (A-1)*cos + sq)
		b1 = 2 * A * ((A - 1) - (A+1)*cos)
		b2 = A * ((A + 1) - (A-1)*cos - sq)
		a0 = (A + 1) + (A-1)*cos + sq
		a1 = -2 * ((A - 1) + (A+1)*cos)
		a2 = (A + 1) + (A-1)*cos - sq
	case "highshelf":
		sq := 2 * math.Sqrt(A) * alpha
		b0 = A * ((A + 1) + (A-1)*cos + sq)
		b1 = -2 * A * ((A - 1) + (A+1)*cos)
		b2 = A * ((A + 1) + (A-1)*cos - sq)
		a0 = (A + 1) - (A-1)*cos + sq
		a1 = 2 * ((A - 1) - (A+1)*cos)
		a2 = (A + 1) - (A-1)*cos - sq
	case "lowpass-fir":
		return firCoeffs(firOrder, fc, false), nil
	case "highpass-fir":
		return firCoeffs(firOrder, fc, true), nil
	default:
		return []float64{1}, nil
	}
	return []float64{b0 / a0, b1 / a0, b2 / a0}, []float64{a1 / a0, a2 / a0}
}

// firCoeffs builds a Hamming-windowed sinc filter of even order N.
func firCoeffs(N int, fc float64, highpass bool) []float64 {
	w0 := 2 * math.Pi * fc
	h := make([]float64, N+1)
	for i := 0; i <= N; i++ {
		n := float64(i - N/2)
		if highpass {
			h[i] = sinc(math.Pi*n) - 2*fc*sinc(w0*n)
		} else {
			h[i] = 2 * fc * sinc(w0*n)
		}
	}
	applyWindow(h, hamming)
	return h
}

func sinc(x float64) float64 {
	if math.Abs(x) < 0.000000001 {
		return 1
	}
	return math.Sin(x) / x
}

func filterMemory(a, b []float64) []float64 {
	return make([]float64, int(math.Max(float64(len(a)-1), float64(len(b)))))
}

func processFilter(in []float64, out []float64, a []float64, b []float64, past []float64) {
	for i := 0; i < len(in); i++ {
		out[i] = processFilterEach(in[i], a, b, past)
	}
}

func processFilterEach(in float64, a []float64, b []float64, past []float64) float64 {
	// apply b
	for j := 0; j < len(b); j++ {
		in -= past[j] * b[j]
	}
	// apply a
	o := in * a[0]
	for j := 1; j < len(a); j++ {
		o += past[j-1] * a[j]
	}
	// unshift past
	for j := len(past) - 2; j >= 0; j-- {
		past[j+1] = past[j]
	}
	if len(past) > 0 {
		past[0] = in
	}
	return o
}

func impulseResponse(a []float64, b []float64, n int) []float64 {
	in := make([]float64, n)
	out := make([]float64, n)
	in[0] = 1
	processFilter(in, out, a, b, filterMemory(a, b))
	return out
}

// BiquadNode filters both channels of its input.
// The cutoff is a node, so envelopes and oscillators can sweep it.
type BiquadNode struct {
	Object
	filterKind string
	freq       Node
	q          float64
	gain       float64
	a, b       []float64
	pastL      []float64
	pastR      []float64
	lastFreq   float64
	dirty      bool
}

// NewBiquadNode creates a filter. Unknown kinds select "lowpass".
func NewBiquadNode(sys *System, kind string, nodes ...Node) *BiquadNode {
	n := &BiquadNode{
		filterKind: "lowpass",
		freq:       NewValue(sys, 340),
		q:          1,
		dirty:      true,
	}
	n.init(sys, n, "biquad", true)
	n.fixedRate = true
	n.SetFilterKind(kind)
	n.Append(nodes...)
	return n
}

// FilterKind returns the canonical filter type.
func (n *BiquadNode) FilterKind() string {
	return n.filterKind
}

// SetFilterKind changes the filter type and clears the filter memory.
// Unknown kinds are ignored.
func (n *BiquadNode) SetFilterKind(kind string) bool {
	kind, ok := canonicalFilterKind(kind)
	if !ok {
		log.Printf("[WARN] unknown filter kind %q\n", kind)
		return false
	}
	if kind != n.filterKind {
		n.filterKind = kind
		n.a, n.b = nil, nil
	}
	n.dirty = true
	return true
}

// Freq returns the cutoff input.
func (n *BiquadNode) Freq() Node {
	return n.freq
}

// SetFreq uses node as the cutoff in Hz.
func (n *BiquadNode) SetFreq(node Node) {
	if isValidNode(node) {
		n.freq = node
		n.dirty = true
	}
}

// SetFreqValue sets a constant cutoff in Hz.
func (n *BiquadNode) SetFreqValue(hz float64) {
	n.SetFreq(NewValue(n.sys, hz))
}

// Q returns the resonance.
func (n *BiquadNode) Q() float64 {
	return n.q
}

// SetQ sets the resonance. Values <= 0 are ignored.
func (n *BiquadNode) SetQ(q float64) {
	if q > 0 {
		n.q = q
		n.dirty = true
	}
}

// Gain returns the shelf and peak gain in dB.
func (n *BiquadNode) Gain() float64 {
	return n.gain
}

// SetGain sets the shelf and peak gain in dB.
func (n *BiquadNode) SetGain(dB float64) {
	n.gain = dB
	n.dirty = true
}

func (n *BiquadNode) cutoff(freq float64) float64 {
	nyquist := float64(n.sys.sampleRate) / 2
	if freq < 1 {
		freq = 1
	}
	if freq > nyquist-1 {
		freq = nyquist - 1
	}
	return freq / float64(n.sys.sampleRate)
}

func (n *BiquadNode) update(freq float64) {
	if !n.dirty && freq == n.lastFreq {
		return
	}
	a, b := filterCoeffs(n.filterKind, n.cutoff(freq), n.q, n.gain)
	if len(a) != len(n.a) || len(b) != len(n.b) {
		n.pastL = filterMemory(a, b)
		n.pastR = filterMemory(a, b)
	}
	n.a, n.b = a, b
	n.lastFreq = freq
	n.dirty = false
}

// Response returns the magnitude response over size/2 bins up to the Nyquist frequency.
// size must be a power of two.
func (n *BiquadNode) Response(size int) []float64 {
	a, b := filterCoeffs(n.filterKind, n.cutoff(n.freq.base().Value()), n.q, n.gain)
	h := impulseResponse(a, b, size)
	NewFFT(size, false).CalcAbs(h)
	return h[:size/2]
}

func (n *BiquadNode) process(tickID int64) {
	n.inputAudio(tickID)
	if !n.bypassed && n.filterKind != "none" {
		freq := n.freq.base()
		freq.Render(tickID)
		n.update(freq.cells[0][0])
		processFilter(n.cells[1], n.cells[1], n.a, n.b, n.pastL)
		processFilter(n.cells[2], n.cells[2], n.a, n.b, n.pastR)
	}
	n.outputAudio()
}

type filterParams struct {
	kind string
	freq float64
	q    float64
	gain float64
}

type filterJSON struct {
	Kind string  `json:"kind"`
	Freq float64 `json:"freq"`
	Q    float64 `json:"q"`
	Gain float64 `json:"gain"`
}

func newFilterParams() *filterParams {
	return &filterParams{kind: "none", freq: 1000, q: 1, gain: 0}
}

func (f *filterParams) applyJSON(data json.RawMessage) {
	var j filterJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to filterParams")
		return
	}
	f.kind = j.Kind
	f.freq = j.Freq
	f.q = j.Q
	f.gain = j.Gain
}

func (f *filterParams) toJSON() json.RawMessage {
	return toRawMessage(&filterJSON{
		Kind: f.kind,
		Freq: f.freq,
		Q:    f.q,
		Gain: f.gain,
	})
}

func (f *filterParams) set(key string, value string) error {
	switch key {
	case "kind":
		kind, ok := canonicalFilterKind(value)
		if !ok {
			return ErrInvalidCommand
		}
		f.kind = kind
	case "freq", "q", "gain":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		switch key {
		case "freq":
			f.freq = v
		case "q":
			f.q = v
		case "gain":
			f.gain = v
		}
	default:
		return ErrInvalidCommand
	}
	return nil
}

func (f *filterParams) apply(n *BiquadNode) {
	n.SetFilterKind(f.kind)
	n.SetFreqValue(f.freq)
	n.SetQ(f.q)
	n.SetGain(f.gain)
}

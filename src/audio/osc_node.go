package audio

// OscNode multiplies its input (or a constant 1 without children) by a wavetable oscillator.
// Frequency and phase are nodes; audio-rate inputs drive the oscillator per sample.
type OscNode struct {
	Object
	osc   *Oscillator
	wave  string
	freq  Node
	phase Node
	tmp   Block
}

// NewOscNode creates an audio-rate oscillator at 440Hz. An unknown wave leaves a sine table.
func NewOscNode(sys *System, wave string, nodes ...Node) *OscNode {
	n := newOscNode(sys, "osc")
	n.SetWave(wave)
	n.Append(nodes...)
	return n
}

func newOscNode(sys *System, kind string) *OscNode {
	n := &OscNode{
		osc:   NewOscillator(sys.sampleRate),
		wave:  "sin",
		freq:  NewValue(sys, 440),
		phase: NewValue(sys, 0),
		tmp:   newBlock(sys.blockSize),
	}
	n.init(sys, n, kind, true)
	n.osc.SetStep(sys.blockSize)
	return n
}

// Oscillator exposes the engine.
func (n *OscNode) Oscillator() *Oscillator {
	return n.osc
}

// Wave returns the last accepted wave name.
func (n *OscNode) Wave() string {
	return n.wave
}

// SetWave selects a table by name or expression. Unknown names are ignored.
func (n *OscNode) SetWave(key string) bool {
	if !n.osc.SetWaveName(key) {
		return false
	}
	n.wave = key
	return true
}

// SetWaveFunc samples f over one cycle, x in [0, 1).
func (n *OscNode) SetWaveFunc(f func(x float64) float64) {
	n.osc.SetWaveFunc(f)
	n.wave = ""
}

// SetWaveSamples uses samples as the table.
func (n *OscNode) SetWaveSamples(samples []float64) {
	n.osc.SetWave(samples)
	n.wave = ""
}

// Freq returns the frequency input.
func (n *OscNode) Freq() Node {
	return n.freq
}

// SetFreq uses node as the frequency input. Invalid nodes are ignored.
func (n *OscNode) SetFreq(node Node) {
	if isValidNode(node) {
		n.freq = node
	}
}

// SetFreqValue sets a constant frequency in Hz.
func (n *OscNode) SetFreqValue(hz float64) {
	n.freq = NewValue(n.sys, hz)
}

// SetFreqTime sets the frequency from a period given as a duration string.
// A period that resolves to 0 is ignored.
func (n *OscNode) SetFreqTime(period string) {
	ms := n.sys.Resolve(period)
	if ms > 0 {
		n.SetFreqValue(1000 / ms)
	}
}

// Phase returns the phase input.
func (n *OscNode) Phase() Node {
	return n.phase
}

// SetPhase uses node as a phase offset in radians and turns feedback off.
func (n *OscNode) SetPhase(node Node) {
	if isValidNode(node) {
		n.phase = node
		n.osc.Feedback = false
	}
}

// SetPhaseValue sets a constant phase offset in radians and turns feedback off.
func (n *OscNode) SetPhaseValue(rad float64) {
	n.SetPhase(NewValue(n.sys, rad))
}

// SetFeedback uses node as the feedback amount and turns feedback on.
func (n *OscNode) SetFeedback(node Node) {
	if isValidNode(node) {
		n.phase = node
		n.osc.Feedback = true
	}
}

// SetFeedbackValue sets a constant feedback amount and turns feedback on.
func (n *OscNode) SetFeedbackValue(amount float64) {
	n.SetFeedback(NewValue(n.sys, amount))
}

// Bang rewinds the phase.
func (n *OscNode) Bang(args ...interface{}) {
	n.osc.Reset()
	n.emit(EventBang, args...)
}

// Clone copies the configuration into a new node. Frequency and phase inputs are shared.
func (n *OscNode) Clone() *OscNode {
	c := newOscNode(n.sys, n.kind)
	c.osc = n.osc.Clone()
	c.wave = n.wave
	c.freq = n.freq
	c.phase = n.phase
	c.ar = n.ar
	c.mul = n.mul
	c.add = n.add
	return c
}

func (n *OscNode) process(tickID int64) {
	l, r := n.cells[1], n.cells[2]
	if len(n.nodes) > 0 {
		n.inputAudio(tickID)
	} else {
		l.fill(1)
		r.fill(1)
	}
	freq := n.freq.base()
	phase := n.phase.base()
	freq.Render(tickID)
	phase.Render(tickID)

	osc := n.osc
	osc.Phase = phase.cells[0][0]
	if n.ar {
		freqAR := freq.ar
		phaseAR := phase.ar && !osc.Feedback
		switch {
		case freqAR && phaseAR:
			osc.ProcessFreqsPhases(n.tmp, freq.cells[0], phase.cells[0])
		case freqAR:
			osc.ProcessFreqs(n.tmp, freq.cells[0])
		case phaseAR:
			osc.Frequency = freq.cells[0][0]
			osc.ProcessPhases(n.tmp, phase.cells[0])
		default:
			osc.Frequency = freq.cells[0][0]
			osc.Process(n.tmp)
		}
		l.multiply(n.tmp)
		r.multiply(n.tmp)
	} else {
		osc.Frequency = freq.cells[0][0]
		value := osc.Next()
		l.scale(value)
		r.scale(value)
	}
	n.outputAudio()
}

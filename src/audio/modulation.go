package audio

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- Ratio ----- //

// RatioNode scales a source by factor raised to the sum of its children:
//   out = source * factor^(sum of children)
// With factor 2 a child value of 1 is one octave up. It runs at control rate by default.
type RatioNode struct {
	Object
	source Node
	factor float64
}

// NewRatioNode creates a ratio node. An invalid source is replaced by 0.
func NewRatioNode(sys *System, source Node, factor float64, nodes ...Node) *RatioNode {
	n := &RatioNode{factor: factor}
	n.init(sys, n, "ratio", false)
	n.Append(nodes...)
	n.SetSource(source)
	return n
}

// Source returns the source input.
func (n *RatioNode) Source() Node {
	return n.source
}

// SetSource replaces the source input. Invalid nodes are replaced by 0.
func (n *RatioNode) SetSource(node Node) {
	if !isValidNode(node) {
		node = NewValue(n.sys, 0)
	}
	n.source = node
	n.refresh()
}

// refresh recomputes the output from the last rendered inputs without advancing them.
func (n *RatioNode) refresh() {
	exp := 0.0
	for _, child := range n.nodes {
		if o := child.base(); o.state == Playing {
			exp += o.cells[0][0]
		}
	}
	n.outputControl(n.source.base().cells[0][0] * math.Pow(n.factor, exp))
}

func (n *RatioNode) process(tickID int64) {
	src := n.source.base()
	src.Render(tickID)
	if !n.ar {
		exp := n.inputControl(tickID)
		n.outputControl(src.cells[0][0] * math.Pow(n.factor, exp))
		return
	}
	n.inputAudio(tickID)
	l := n.cells[1]
	for i := range l {
		l[i] = src.cells[0][i] * math.Pow(n.factor, l[i])
	}
	copy(n.cells[2], l)
	n.outputAudio()
}

// ----- Gain ----- //

// GainNode multiplies its input by a gain input.
type GainNode struct {
	Object
	gain Node
}

// NewGainNode creates an audio-rate gain stage with a gain of 1.
func NewGainNode(sys *System, nodes ...Node) *GainNode {
	n := &GainNode{gain: NewValue(sys, 1)}
	n.init(sys, n, "gain", true)
	n.fixedRate = true
	n.Append(nodes...)
	return n
}

// Gain returns the gain input.
func (n *GainNode) Gain() Node {
	return n.gain
}

// SetGain uses node as the gain input. Invalid nodes are ignored.
func (n *GainNode) SetGain(node Node) {
	if isValidNode(node) {
		n.gain = node
	}
}

// SetGainValue sets a constant gain.
func (n *GainNode) SetGainValue(gain float64) {
	n.gain = NewValue(n.sys, gain)
}

func (n *GainNode) process(tickID int64) {
	n.inputAudio(tickID)
	if !n.bypassed {
		g := n.gain.base()
		g.Render(tickID)
		if g.ar {
			n.cells[1].multiply(g.cells[0])
			n.cells[2].multiply(g.cells[0])
		} else {
			n.cells[1].scale(g.cells[0][0])
			n.cells[2].scale(g.cells[0][0])
		}
	}
	n.outputAudio()
}

// ----- Destination ----- //

const (
	destNone = iota
	destVibrato
	destTremolo
	destFreq
	destFilterFreq
)

var destinationNames = []string{"none", "vibrato", "tremolo", "freq", "filter_freq"}

func destinationFromString(s string) (int, bool) {
	for i, name := range destinationNames {
		if name == s {
			return i, true
		}
	}
	return destNone, false
}

func destinationToString(dest int) string {
	if dest < 0 || dest >= len(destinationNames) {
		return "none"
	}
	return destinationNames[dest]
}

const (
	numLfos      = 3
	numModEnvs   = 3
	maxGlideTime = 5000
)

// ----- LFO Params ----- //

// lfoParams drives one shared control-rate oscillator.
//   vibrato:     amount in cents
//   tremolo:     amount 0..1, the gain swings between 1-amount and 1
//   filter_freq: amount in 4-octave units (16^amount)
type lfoParams struct {
	enabled     bool
	destination int
	wave        string
	freq        float64
	amount      float64
}

type lfoJSON struct {
	Enabled     bool    `json:"enabled"`
	Destination string  `json:"destination"`
	Wave        string  `json:"wave"`
	Freq        float64 `json:"freq"`
	Amount      float64 `json:"amount"`
}

func newLfoParams() *lfoParams {
	return &lfoParams{
		destination: destNone,
		wave:        "sin",
		freq:        5,
	}
}

func (l *lfoParams) applyJSON(data json.RawMessage) {
	var j lfoJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to lfoParams")
		return
	}
	l.enabled = j.Enabled
	if dest, ok := destinationFromString(j.Destination); ok && dest != destFreq {
		l.destination = dest
	}
	if _, ok := GetWavetable(j.Wave); ok {
		l.wave = j.Wave
	}
	if j.Freq >= 0 {
		l.freq = j.Freq
	}
	l.amount = j.Amount
}

func (l *lfoParams) toJSON() json.RawMessage {
	return toRawMessage(&lfoJSON{
		Enabled:     l.enabled,
		Destination: destinationToString(l.destination),
		Wave:        l.wave,
		Freq:        l.freq,
		Amount:      l.amount,
	})
}

func (l *lfoParams) set(key string, value string) error {
	switch key {
	case "enabled":
		l.enabled = value == "true"
	case "destination":
		dest, ok := destinationFromString(value)
		if !ok || dest == destFreq {
			return ErrInvalidCommand
		}
		l.destination = dest
	case "wave":
		if _, ok := GetWavetable(value); !ok {
			return ErrInvalidCommand
		}
		l.wave = value
	case "freq", "amount":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if key == "freq" {
			if v < 0 {
				return ErrInvalidCommand
			}
			l.freq = v
		} else {
			l.amount = v
		}
	default:
		return ErrInvalidCommand
	}
	return nil
}

// active returns the destination, or destNone when disabled.
func (l *lfoParams) active() int {
	if !l.enabled {
		return destNone
	}
	return l.destination
}

// apply configures n so that its output is the modulation value of the destination.
func (l *lfoParams) apply(n *OscNode) {
	n.SetWave(l.wave)
	n.SetFreqValue(l.freq)
	switch l.active() {
	case destVibrato:
		n.SetMul(l.amount / 1200)
		n.SetAdd(0)
	case destTremolo:
		n.SetMul(l.amount / 2)
		n.SetAdd(-l.amount / 2)
	case destFilterFreq:
		n.SetMul(l.amount * 4)
		n.SetAdd(0)
	default:
		n.SetMul(0)
		n.SetAdd(0)
	}
}

// newLfoNode creates the control-rate oscillator driven by lfoParams.
func newLfoNode(sys *System) *OscNode {
	n := NewOscNode(sys, "sin")
	n.kind = "lfo"
	n.ToControlRate()
	return n
}

// ----- Modulation Envelope Params ----- //

const (
	modEnvComing = "coming"
	modEnvGoing  = "going"
)

// modEnvParams is a one-shot envelope started on every note.
//   coming: holds 1 for delay, then falls to 0 over attack, resting at 0
//   going:  holds 0 for delay, then rises to 1 over attack, resting at 1
// The value is scaled by amount in octaves for freq and filter_freq.
type modEnvParams struct {
	enabled     bool
	destination int
	kind        string
	delay       float64
	attack      float64
	amount      float64
}

type modEnvJSON struct {
	Enabled     bool    `json:"enabled"`
	Destination string  `json:"destination"`
	Kind        string  `json:"kind"`
	Delay       float64 `json:"delay"`
	Attack      float64 `json:"attack"`
	Amount      float64 `json:"amount"`
}

func newModEnvParams() *modEnvParams {
	return &modEnvParams{
		destination: destNone,
		kind:        modEnvComing,
	}
}

func validModEnvKind(kind string) bool {
	return kind == modEnvComing || kind == modEnvGoing
}

func validModEnvDestination(dest int) bool {
	return dest == destNone || dest == destFreq || dest == destFilterFreq
}

func (m *modEnvParams) applyJSON(data json.RawMessage) {
	var j modEnvJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to modEnvParams")
		return
	}
	m.enabled = j.Enabled
	if dest, ok := destinationFromString(j.Destination); ok && validModEnvDestination(dest) {
		m.destination = dest
	}
	if validModEnvKind(j.Kind) {
		m.kind = j.Kind
	}
	m.delay = j.Delay
	m.attack = j.Attack
	m.amount = j.Amount
}

func (m *modEnvParams) toJSON() json.RawMessage {
	return toRawMessage(&modEnvJSON{
		Enabled:     m.enabled,
		Destination: destinationToString(m.destination),
		Kind:        m.kind,
		Delay:       m.delay,
		Attack:      m.attack,
		Amount:      m.amount,
	})
}

func (m *modEnvParams) set(key string, value string) error {
	switch key {
	case "enabled":
		m.enabled = value == "true"
	case "destination":
		dest, ok := destinationFromString(value)
		if !ok || !validModEnvDestination(dest) {
			return ErrInvalidCommand
		}
		m.destination = dest
	case "kind":
		if !validModEnvKind(value) {
			return ErrInvalidCommand
		}
		m.kind = value
	case "delay", "attack", "amount":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		switch key {
		case "delay":
			m.delay = v
		case "attack":
			m.attack = v
		case "amount":
			m.amount = v
		}
	default:
		return ErrInvalidCommand
	}
	return nil
}

func (m *modEnvParams) active() int {
	if !m.enabled {
		return destNone
	}
	return m.destination
}

// newNode builds the envelope. It rests at its final value until banged.
// Segments shorter than 10ms are raised to 10ms.
func (m *modEnvParams) newNode(sys *System) *EnvNode {
	from, to := 1.0, envZero
	if m.kind == modEnvGoing {
		from, to = envZero, 1.0
	}
	n := NewEnvNode(sys, to, []Segment{
		{Value: from, Time: m.delay, Curve: CurveSet},
		{Value: to, Time: m.attack, Curve: CurveLinear},
	})
	n.kind = "env.mod"
	n.SetMul(m.amount)
	return n
}

package audio

import (
	"log"
	"math"
)

const (
	defaultPoly = 4
	maxPoly     = 64
	baseFreq    = 440.0
)

var midiFreqs = func() [128]float64 {
	var table [128]float64
	for i := range table {
		table[i] = baseFreq * math.Pow(2, float64(i-69)/12)
	}
	return table
}()

// MidiToFreq returns the equal-tempered frequency of a note number, A4 = 69 = 440Hz.
func MidiToFreq(note int) float64 {
	if note >= 0 && note < len(midiFreqs) {
		return midiFreqs[note]
	}
	return baseFreq * math.Pow(2, float64(note-69)/12)
}

// FreqToMidi returns the nearest note number.
func FreqToMidi(freq float64) int {
	if freq <= 0 {
		return 0
	}
	return int(math.Floor(math.Log2(freq/baseFreq)*12 + 69 + 0.5))
}

// Releaser is implemented by voices that end gracefully on note off.
type Releaser interface {
	Release()
}

// NoteParams is passed to a VoiceFactory for every new voice.
type NoteParams struct {
	Frequency  float64
	NoteNumber int
	Velocity   int
	Gain       float64
	Extra      map[string]interface{}
	// Done removes the voice at the next tick boundary. Call it when the voice
	// has finished sounding.
	Done func()
}

// VoiceFactory builds a voice. Returning nil produces no voice.
type VoiceFactory func(p NoteParams) Node

type voice struct {
	node  Node
	note  int
	keyed bool
}

// VoiceManager renders a bounded set of voices built by a factory.
// When the set exceeds the polyphony, the oldest voice is dropped.
type VoiceManager struct {
	Object
	factory    VoiceFactory
	poly       int
	voices     []*voice
	byKey      map[int]*voice
	rendering  []*voice
	endPending bool
}

// NewVoiceManager creates a manager. It stays Ended until the first voice.
func NewVoiceManager(sys *System, poly int, factory VoiceFactory) *VoiceManager {
	n := &VoiceManager{
		factory: factory,
		byKey:   make(map[int]*voice),
	}
	n.init(sys, n, "SynthDef", true)
	n.fixedRate = true
	n.state = Ended
	n.SetPoly(poly)
	return n
}

// Poly returns the polyphony.
func (n *VoiceManager) Poly() int {
	return n.poly
}

// SetPoly sets the polyphony, clamped to 1..64. 0 selects the default of 4.
func (n *VoiceManager) SetPoly(poly int) {
	if poly == 0 {
		poly = defaultPoly
	}
	if poly < 1 {
		poly = 1
	}
	if poly > maxPoly {
		poly = maxPoly
	}
	n.poly = poly
	for len(n.voices) > n.poly {
		n.remove(n.voices[0])
	}
}

// SetFactory replaces the factory used for new voices.
func (n *VoiceManager) SetFactory(factory VoiceFactory) {
	n.factory = factory
}

// Voices returns the active voice nodes, oldest first.
func (n *VoiceManager) Voices() []Node {
	nodes := make([]Node, len(n.voices))
	for i, v := range n.voices {
		nodes[i] = v.node
	}
	return nodes
}

// VoiceAt returns the voice playing note.
func (n *VoiceManager) VoiceAt(note int) (Node, bool) {
	v, ok := n.byKey[note]
	if !ok {
		return nil, false
	}
	return v.node, true
}

// NoteOn starts a voice for note. Velocity <= 0 releases the note instead.
func (n *VoiceManager) NoteOn(note int, velocity int, extra map[string]interface{}) {
	n.noteOn(note, MidiToFreq(note), velocity, extra)
}

// NoteOnWithFreq starts a voice keyed by the nearest note of freq.
func (n *VoiceManager) NoteOnWithFreq(freq float64, velocity int, extra map[string]interface{}) {
	n.noteOn(FreqToMidi(freq), freq, velocity, extra)
}

func (n *VoiceManager) noteOn(note int, freq float64, velocity int, extra map[string]interface{}) {
	if velocity <= 0 {
		n.NoteOff(note)
		return
	}
	if velocity > 127 {
		velocity = 127
	}
	if old, ok := n.byKey[note]; ok {
		n.remove(old)
	}
	n.start(&voice{note: note, keyed: true}, freq, velocity, extra)
}

// NoteOff releases the voice playing note when it supports release.
func (n *VoiceManager) NoteOff(note int) {
	v, ok := n.byKey[note]
	if !ok {
		return
	}
	if r, ok := v.node.(Releaser); ok {
		r.Release()
	}
}

// NoteOffWithFreq releases the voice keyed by the nearest note of freq.
func (n *VoiceManager) NoteOffWithFreq(freq float64) {
	n.NoteOff(FreqToMidi(freq))
}

// Synth starts a voice without a note key. It ends only by itself.
func (n *VoiceManager) Synth(extra map[string]interface{}) {
	freq := baseFreq
	velocity := 64
	if extra != nil {
		if f, ok := extra["freq"].(float64); ok && f > 0 {
			freq = f
		}
		if v, ok := extra["velocity"].(int); ok && v > 0 {
			velocity = v
		}
	}
	if velocity > 127 {
		velocity = 127
	}
	n.start(&voice{note: FreqToMidi(freq)}, freq, velocity, extra)
}

func (n *VoiceManager) start(v *voice, freq float64, velocity int, extra map[string]interface{}) {
	if n.factory == nil {
		return
	}
	node := n.factory(NoteParams{
		Frequency:  freq,
		NoteNumber: v.note,
		Velocity:   velocity,
		Gain:       float64(velocity) / 128,
		Extra:      extra,
		Done: func() {
			n.sys.nextTick(func() {
				n.remove(v)
			})
		},
	})
	if !isValidNode(node) {
		return
	}
	v.node = node
	n.voices = append(n.voices, v)
	if v.keyed {
		n.byKey[v.note] = v
	}
	n.state = Playing
	n.endPending = false
	if len(n.voices) > n.poly {
		log.Printf("poly %d exceeded, stealing note %d\n", n.poly, n.voices[0].note)
		n.remove(n.voices[0])
	}
}

func (n *VoiceManager) remove(v *voice) {
	for i, w := range n.voices {
		if w == v {
			n.voices = append(n.voices[:i], n.voices[i+1:]...)
			break
		}
	}
	if v.keyed && n.byKey[v.note] == v {
		delete(n.byKey, v.note)
	}
}

// AllNoteOff releases every voice that supports release.
func (n *VoiceManager) AllNoteOff() {
	for _, v := range n.voices {
		if r, ok := v.node.(Releaser); ok {
			r.Release()
		}
	}
}

// AllSoundOff drops every voice immediately.
func (n *VoiceManager) AllSoundOff() {
	n.voices = nil
	n.byKey = make(map[int]*voice)
}

func (n *VoiceManager) process(tickID int64) {
	l, r := n.cells[1], n.cells[2]
	if n.state != Playing {
		l.zero()
		r.zero()
		n.outputAudio()
		return
	}
	if len(n.voices) == 0 {
		l.zero()
		r.zero()
		if !n.endPending {
			n.endPending = true
			n.sys.nextTick(n.onEnded)
		}
		n.outputAudio()
		return
	}
	// voices may be removed while they render
	n.rendering = append(n.rendering[:0], n.voices...)
	for i, v := range n.rendering {
		o := v.node.base()
		o.Render(tickID)
		if i == 0 {
			copy(l, o.cells[1])
			copy(r, o.cells[2])
		} else {
			l.accumulate(o.cells[1])
			r.accumulate(o.cells[2])
		}
	}
	for i := range n.rendering {
		n.rendering[i] = nil
	}
	n.outputAudio()
}

func (n *VoiceManager) onEnded() {
	if !n.endPending {
		return
	}
	n.endPending = false
	if len(n.voices) > 0 {
		return
	}
	n.state = Ended
	n.emit(EventEnded)
}

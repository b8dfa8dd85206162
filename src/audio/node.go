package audio

import (
	"reflect"
)

// Rate is the computation rate of a node.
type Rate int

const (
	// AudioRate recomputes one value per sample.
	AudioRate Rate = iota
	// ControlRate recomputes one value per block.
	ControlRate
)

func (r Rate) String() string {
	if r == AudioRate {
		return "ar"
	}
	return "kr"
}

// PlaybackState tells whether a node still contributes to its parents.
type PlaybackState int

const (
	// Ended nodes are skipped by their parents and by the system.
	Ended PlaybackState = iota
	// Playing nodes are rendered.
	Playing
)

// role selects the active set a node joins when it is started.
type role int

const (
	roleSound role = iota
	roleTimer
	roleListener
)

// Node is an element of the signal graph.
// Concrete nodes embed Object and implement process.
type Node interface {
	base() *Object
	process(tickID int64)
	Bang(args ...interface{})
}

// Object holds the state shared by all nodes.
type Object struct {
	notifier

	sys       *System
	self      Node
	kind      string
	role      role
	nodes     []Node
	cells     [3]Block // mono, left, right
	ar        bool
	fixedRate bool
	mul       float64
	add       float64
	bypassed  bool
	state     PlaybackState
	buddies   []Node
	lastTick  int64
}

func (o *Object) init(sys *System, self Node, kind string, ar bool) {
	o.sys = sys
	o.self = self
	o.kind = kind
	o.ar = ar
	o.mul = 1
	o.state = Playing
	o.lastTick = -1
	size := sys.blockSize
	o.cells = [3]Block{newBlock(size), newBlock(size), newBlock(size)}
}

func (o *Object) base() *Object {
	return o
}

func isValidNode(n Node) bool {
	if n == nil {
		return false
	}
	v := reflect.ValueOf(n)
	if v.Kind() == reflect.Ptr && v.IsNil() {
		return false
	}
	return n.base().sys != nil
}

// System returns the system the node was created for.
func (o *Object) System() *System {
	return o.sys
}

// Kind returns the registry key the node was created with.
func (o *Object) Kind() string {
	return o.kind
}

// Nodes returns a copy of the child list.
func (o *Object) Nodes() []Node {
	nodes := make([]Node, len(o.nodes))
	copy(nodes, o.nodes)
	return nodes
}

// Append adds children in order. Invalid children are ignored.
func (o *Object) Append(nodes ...Node) {
	appended := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		if !isValidNode(n) {
			continue
		}
		o.nodes = append(o.nodes, n)
		appended = append(appended, n)
	}
	if len(appended) > 0 {
		o.emit(EventAppend, appended)
	}
}

// Remove removes the first occurrence of each given child.
func (o *Object) Remove(nodes ...Node) {
	removed := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		for i, child := range o.nodes {
			if child == n {
				o.nodes = append(o.nodes[:i], o.nodes[i+1:]...)
				removed = append(removed, n)
				break
			}
		}
	}
	if len(removed) > 0 {
		o.emit(EventRemove, removed)
	}
}

// RemoveAll drops every child.
func (o *Object) RemoveAll() {
	if len(o.nodes) == 0 {
		return
	}
	removed := o.nodes
	o.nodes = nil
	o.emit(EventRemove, removed)
}

// Render computes the node's output for tickID at most once.
func (o *Object) Render(tickID int64) {
	if o.lastTick == tickID {
		return
	}
	o.lastTick = tickID
	o.self.process(tickID)
}

// Mono returns the mixdown block of the last rendered tick.
func (o *Object) Mono() Block { return o.cells[0] }

// L returns the left block of the last rendered tick.
func (o *Object) L() Block { return o.cells[1] }

// R returns the right block of the last rendered tick.
func (o *Object) R() Block { return o.cells[2] }

// Value returns the first mono sample, the node's control value.
func (o *Object) Value() float64 { return o.cells[0][0] }

// Mul returns the output multiplier.
func (o *Object) Mul() float64 { return o.mul }

// SetMul sets the output multiplier.
func (o *Object) SetMul(value float64) {
	o.mul = value
	o.emit(EventSetMul, value)
}

// Add returns the output offset.
func (o *Object) Add() float64 { return o.add }

// SetAdd sets the output offset.
func (o *Object) SetAdd(value float64) {
	o.add = value
	o.emit(EventSetAdd, value)
}

// Bypassed reports whether effect processing is skipped.
func (o *Object) Bypassed() bool { return o.bypassed }

// Bypass toggles effect processing. Nodes without an effect ignore it.
func (o *Object) Bypass(bypassed bool) { o.bypassed = bypassed }

// State returns the playback state.
func (o *Object) State() PlaybackState { return o.state }

// Rate returns the current computation rate.
func (o *Object) Rate() Rate {
	if o.ar {
		return AudioRate
	}
	return ControlRate
}

// IsAR reports whether the node runs at audio rate.
func (o *Object) IsAR() bool { return o.ar }

// ToAudioRate switches to audio rate. It returns false for nodes locked to one rate.
func (o *Object) ToAudioRate() bool { return o.setRate(true) }

// ToControlRate switches to control rate. It returns false for nodes locked to one rate.
func (o *Object) ToControlRate() bool { return o.setRate(false) }

// SetRate switches to r. It returns false for nodes locked to one rate.
func (o *Object) SetRate(r Rate) bool { return o.setRate(r == AudioRate) }

func (o *Object) setRate(ar bool) bool {
	if o.fixedRate {
		return o.ar == ar
	}
	if o.ar != ar {
		o.ar = ar
		o.emit(EventRate, ar)
	}
	return true
}

// Bang emits a bang event. Nodes with a trigger behavior override it.
func (o *Object) Bang(args ...interface{}) {
	o.emit(EventBang, args...)
}

// AddBuddies registers nodes that start and stop together with this one.
func (o *Object) AddBuddies(nodes ...Node) {
	for _, n := range nodes {
		if isValidNode(n) && n != o.self {
			o.buddies = append(o.buddies, n)
		}
	}
}

// RemoveBuddies unregisters buddies.
func (o *Object) RemoveBuddies(nodes ...Node) {
	for _, n := range nodes {
		for i, b := range o.buddies {
			if b == n {
				o.buddies = append(o.buddies[:i], o.buddies[i+1:]...)
				break
			}
		}
	}
}

// Play joins the system's active set for the node's role at the next tick boundary.
func (o *Object) Play() {
	o.activate(true)
}

// Pause leaves the active set at the next tick boundary.
func (o *Object) Pause() {
	o.deactivate(true)
}

func (o *Object) activate(cascade bool) {
	self := o.self
	o.sys.nextTick(func() {
		if o.sys.attach(self, o.role) {
			o.emit(EventPlay)
		}
	})
	if cascade {
		for _, b := range o.buddies {
			b.base().activate(false)
		}
	}
}

func (o *Object) deactivate(cascade bool) {
	self := o.self
	o.sys.nextTick(func() {
		if o.sys.detach(self, o.role) {
			o.emit(EventPause)
		}
	})
	if cascade {
		for _, b := range o.buddies {
			b.base().deactivate(false)
		}
	}
}

// inputAudio sums the playing children into the left and right blocks.
func (o *Object) inputAudio(tickID int64) {
	l, r := o.cells[1], o.cells[2]
	first := true
	for _, n := range o.nodes {
		child := n.base()
		if child.state != Playing {
			continue
		}
		child.Render(tickID)
		if first {
			copy(l, child.cells[1])
			copy(r, child.cells[2])
			first = false
		} else {
			l.accumulate(child.cells[1])
			r.accumulate(child.cells[2])
		}
	}
	if first {
		l.zero()
		r.zero()
	}
}

// inputControl sums the control values of the playing children.
func (o *Object) inputControl(tickID int64) float64 {
	value := 0.0
	for _, n := range o.nodes {
		child := n.base()
		if child.state != Playing {
			continue
		}
		child.Render(tickID)
		value += child.cells[0][0]
	}
	return value
}

// outputAudio applies mul/add to both channels and recomputes the mixdown.
func (o *Object) outputAudio() {
	l, r, mono := o.cells[1], o.cells[2], o.cells[0]
	l.mulAdd(o.mul, o.add)
	r.mulAdd(o.mul, o.add)
	for i := range mono {
		mono[i] = (l[i] + r[i]) * 0.5
	}
}

// outputControl applies mul/add to value and holds it across all blocks.
func (o *Object) outputControl(value float64) {
	value = value*o.mul + o.add
	o.cells[0].fill(value)
	o.cells[1].fill(value)
	o.cells[2].fill(value)
}

// renderInputs fills the left and right blocks from the children at the node's rate.
func (o *Object) renderInputs(tickID int64) {
	if o.ar {
		o.inputAudio(tickID)
		return
	}
	value := o.inputControl(tickID)
	o.cells[1].fill(value)
	o.cells[2].fill(value)
}

// renderOutputs applies mul/add at the node's rate.
func (o *Object) renderOutputs() {
	if o.ar {
		o.outputAudio()
		return
	}
	o.outputControl(o.cells[1][0])
}

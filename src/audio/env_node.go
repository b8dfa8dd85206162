package audio

// EnvNode multiplies its input (or a constant 1 without children) by an envelope.
// It runs at control rate by default.
type EnvNode struct {
	Object
	env *Envelope
	tmp Block
}

// NewEnvNode creates an envelope node with an explicit table.
func NewEnvNode(sys *System, initValue float64, segments []Segment, nodes ...Node) *EnvNode {
	n := newEnvNode(sys, "env")
	n.env.SetSegments(initValue, segments)
	n.Append(nodes...)
	return n
}

// NewEnvPreset creates an envelope node from a named preset such as "adsr".
// Unknown kinds fall back to "perc".
func NewEnvPreset(sys *System, kind string, p EnvParams, nodes ...Node) *EnvNode {
	table, ok := envPresetTable(kind, p)
	if !ok {
		kind = "perc"
		table, _ = envPresetTable(kind, p)
	}
	n := newEnvNode(sys, kind)
	n.env.SetSegments(table.init, table.segments)
	n.env.SetReleaseIndex(table.releaseIndex)
	if p.Curve != "" {
		n.env.SetCurveName(p.Curve)
	}
	n.Append(nodes...)
	return n
}

func newEnvNode(sys *System, kind string) *EnvNode {
	n := &EnvNode{
		env: NewEnvelope(sys.sampleRate),
		tmp: newBlock(sys.blockSize),
	}
	n.init(sys, n, kind, false)
	n.env.SetStep(sys.blockSize)
	n.env.OnEvent = n.onEnvelopeEvent
	n.hook(EventRate, func(args ...interface{}) {
		if n.ar {
			n.env.SetStep(1)
		} else {
			n.env.SetStep(n.sys.blockSize)
		}
	})
	return n
}

func (n *EnvNode) onEnvelopeEvent(event string) {
	switch event {
	case EventEnded:
		n.sys.nextTick(func() {
			n.emit(EventEnded)
		})
	case EventSustained:
		n.emit(EventSustained)
	}
}

// Envelope exposes the engine for table and curve configuration.
func (n *EnvNode) Envelope() *Envelope {
	return n.env
}

// SetTable replaces the envelope table and resets it.
func (n *EnvNode) SetTable(initValue float64, segments []Segment) {
	n.env.SetSegments(initValue, segments)
}

// EnvStatus returns the engine status.
func (n *EnvNode) EnvStatus() EnvStatus {
	return n.env.Status()
}

// Bang restarts the envelope from its first segment.
func (n *EnvNode) Bang(args ...interface{}) {
	n.env.Gate()
	n.emit(EventBang, args...)
}

// Release moves to the release segment when one is configured.
func (n *EnvNode) Release() {
	before := n.env.Status()
	n.env.Release()
	if before != EnvRelease && n.env.Status() == EnvRelease {
		n.emit(EventReleased)
	}
}

// Reset returns the envelope to Wait.
func (n *EnvNode) Reset() {
	n.env.Reset()
}

// Clone copies the configuration into a new node with a fresh cursor.
// Children and observers are not copied.
func (n *EnvNode) Clone() *EnvNode {
	c := newEnvNode(n.sys, n.kind)
	c.env = n.env.Clone()
	c.env.OnEvent = c.onEnvelopeEvent
	c.ar = n.ar
	c.mul = n.mul
	c.add = n.add
	return c
}

func (n *EnvNode) process(tickID int64) {
	l, r := n.cells[1], n.cells[2]
	if len(n.nodes) > 0 {
		n.inputAudio(tickID)
	} else {
		l.fill(1)
		r.fill(1)
	}
	if n.ar {
		n.env.Process(n.tmp)
		l.multiply(n.tmp)
		r.multiply(n.tmp)
	} else {
		value := n.env.Next()
		l.scale(value)
		r.scale(value)
	}
	n.outputAudio()
}

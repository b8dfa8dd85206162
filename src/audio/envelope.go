package audio

import (
	"math"
	"strings"
)

// envZero stands in for 0 wherever a value must stay usable as a gain or ratio.
const envZero = 1e-6

// minSegmentTime is the shortest segment duration in milliseconds.
const minSegmentTime = 10

// CurveKind is the interpolation law between two segment endpoints.
type CurveKind int

const (
	// CurveDefault uses the envelope's curve.
	CurveDefault CurveKind = iota
	CurveSet
	CurveLinear
	CurveExponential
	CurveSine
	CurveWelch
	CurveCurve
	CurveSquared
	CurveCubed
)

var curveNames = map[string]CurveKind{
	"set":         CurveSet,
	"lin":         CurveLinear,
	"linear":      CurveLinear,
	"exp":         CurveExponential,
	"exponential": CurveExponential,
	"sin":         CurveSine,
	"sine":        CurveSine,
	"wel":         CurveWelch,
	"welch":       CurveWelch,
	"sqr":         CurveSquared,
	"squared":     CurveSquared,
	"cub":         CurveCubed,
	"cubed":       CurveCubed,
}

// ParseCurve looks up a curve kind by name.
func ParseCurve(name string) (CurveKind, bool) {
	kind, ok := curveNames[strings.ToLower(name)]
	return kind, ok
}

// EnvStatus is the state of an Envelope.
type EnvStatus int

const (
	EnvWait EnvStatus = iota
	EnvGate
	EnvSustain
	EnvRelease
	EnvEnd
)

func (s EnvStatus) String() string {
	switch s {
	case EnvGate:
		return "gate"
	case EnvSustain:
		return "sustain"
	case EnvRelease:
		return "release"
	case EnvEnd:
		return "end"
	}
	return "wait"
}

// Segment moves the envelope to Value in Time milliseconds.
type Segment struct {
	Value      float64
	Time       float64
	Curve      CurveKind
	CurveParam float64
}

// Envelope is a multi-segment curve generator driven by gate and release.
type Envelope struct {
	sampleRate   int
	step         int
	initValue    float64
	segments     []Segment
	curve        CurveKind
	curveParam   float64
	releaseIndex int
	loopIndex    int

	status  EnvStatus
	index   int
	counter int
	value   float64
	seg     envSegment

	// OnEvent is called with EventSustained or EventEnded when the status enters Sustain or End.
	OnEvent func(event string)
}

// NewEnvelope creates an envelope in Wait holding envZero.
func NewEnvelope(sampleRate int) *Envelope {
	e := &Envelope{
		sampleRate:   sampleRate,
		step:         1,
		initValue:    envZero,
		curve:        CurveLinear,
		releaseIndex: -1,
		loopIndex:    -1,
	}
	e.Reset()
	return e
}

// SetSegments replaces the table. Zero values become envZero and short segments
// are stretched to the minimum duration.
func (e *Envelope) SetSegments(initValue float64, segments []Segment) {
	e.initValue = nonZero(initValue)
	e.segments = make([]Segment, len(segments))
	for i, seg := range segments {
		seg.Value = nonZero(seg.Value)
		if seg.Time < minSegmentTime || math.IsNaN(seg.Time) {
			seg.Time = minSegmentTime
		}
		e.segments[i] = seg
	}
	e.Reset()
}

// Segments returns a copy of the table.
func (e *Envelope) Segments() (float64, []Segment) {
	segments := make([]Segment, len(e.segments))
	copy(segments, e.segments)
	return e.initValue, segments
}

// SetCurve sets the curve used by segments with CurveDefault. For CurveCurve,
// param is the bend; a bend below 0.001 in magnitude falls back to linear.
func (e *Envelope) SetCurve(kind CurveKind, param float64) {
	if kind == CurveDefault {
		kind = CurveLinear
	}
	if kind == CurveCurve && math.Abs(param) < 0.001 {
		kind = CurveLinear
	}
	e.curve = kind
	e.curveParam = param
}

// SetCurveName sets the curve from a name. Unknown names are ignored.
func (e *Envelope) SetCurveName(name string) {
	if kind, ok := ParseCurve(name); ok {
		e.SetCurve(kind, 0)
	}
}

// SetReleaseIndex marks the segment entered on release. -1 disables release.
func (e *Envelope) SetReleaseIndex(index int) {
	if index < -1 {
		index = -1
	}
	e.releaseIndex = index
}

// SetLoopIndex marks the segment Gate loops back to. -1 disables looping.
func (e *Envelope) SetLoopIndex(index int) {
	if index < -1 {
		index = -1
	}
	e.loopIndex = index
}

// ReleaseIndex returns the release segment index or -1.
func (e *Envelope) ReleaseIndex() int { return e.releaseIndex }

// LoopIndex returns the loop segment index or -1.
func (e *Envelope) LoopIndex() int { return e.loopIndex }

// SetStep sets how many samples one call to Next covers.
func (e *Envelope) SetStep(step int) {
	if step < 1 {
		step = 1
	}
	e.step = step
}

// Status returns the current status.
func (e *Envelope) Status() EnvStatus { return e.status }

// Value returns the last value.
func (e *Envelope) Value() float64 { return nonZero(e.value) }

// Reset returns to Wait at the initial value.
func (e *Envelope) Reset() {
	e.status = EnvWait
	e.index = 0
	e.counter = 0
	e.value = e.initValue
	e.seg = envSegment{kind: CurveSet, value: e.initValue}
}

// Gate arms the envelope from the start of the table.
func (e *Envelope) Gate() {
	e.Reset()
	e.status = EnvGate
}

// Release jumps to the release segment. It has no effect without a release
// segment or outside Gate and Sustain.
func (e *Envelope) Release() {
	if e.releaseIndex < 0 {
		return
	}
	if e.status != EnvGate && e.status != EnvSustain {
		return
	}
	e.status = EnvRelease
	if e.index < e.releaseIndex {
		e.index = e.releaseIndex
	}
	e.counter = 0
}

// Clone copies the configuration with a fresh cursor.
func (e *Envelope) Clone() *Envelope {
	c := &Envelope{
		sampleRate:   e.sampleRate,
		step:         e.step,
		initValue:    e.initValue,
		segments:     make([]Segment, len(e.segments)),
		curve:        e.curve,
		curveParam:   e.curveParam,
		releaseIndex: e.releaseIndex,
		loopIndex:    e.loopIndex,
	}
	copy(c.segments, e.segments)
	c.Reset()
	return c
}

// Next advances one step and returns the value.
func (e *Envelope) Next() float64 {
	e.advance()
	if e.status == EnvGate || e.status == EnvRelease {
		e.value = e.seg.next()
		e.counter--
		if e.counter <= 0 {
			e.advance()
		}
	}
	return nonZero(e.value)
}

// Process fills block with consecutive steps.
func (e *Envelope) Process(block []float64) {
	for i := range block {
		block[i] = e.Next()
	}
}

// advance starts segments until one with remaining steps is current,
// or the status stops walking.
func (e *Envelope) advance() {
	for e.counter <= 0 && (e.status == EnvGate || e.status == EnvRelease) {
		if e.index >= len(e.segments) {
			if e.status == EnvGate && e.loopIndex >= 0 && e.loopIndex < e.index {
				e.index = e.loopIndex
				continue
			}
			e.status = EnvEnd
			e.notify(EventEnded)
			return
		}
		if e.status == EnvGate && e.index == e.releaseIndex {
			if e.loopIndex >= 0 && e.loopIndex < e.releaseIndex {
				e.index = e.loopIndex
				continue
			}
			e.status = EnvSustain
			e.notify(EventSustained)
			return
		}
		e.start(e.segments[e.index])
		e.index++
	}
}

func (e *Envelope) start(seg Segment) {
	kind, param := seg.Curve, seg.CurveParam
	if kind == CurveDefault {
		kind, param = e.curve, e.curveParam
	}
	if kind == CurveCurve && math.Abs(param) < 0.001 {
		kind = CurveLinear
	}
	steps := int(math.Ceil(seg.Time*0.001*float64(e.sampleRate)/float64(e.step) - 1e-9))
	if steps < 1 {
		steps = 1
		kind = CurveSet
	}
	e.counter = steps
	e.seg = newEnvSegment(kind, param, e.value, seg.Value, steps)
}

func (e *Envelope) notify(event string) {
	if e.OnEvent != nil {
		e.OnEvent(event)
	}
}

func nonZero(value float64) float64 {
	if value == 0 || math.IsNaN(value) {
		return envZero
	}
	return value
}

// envSegment holds the recurrence state for one segment.
type envSegment struct {
	kind   CurveKind
	value  float64
	end    float64
	grow   float64
	a2, b1 float64
	y1, y2 float64
}

func newEnvSegment(kind CurveKind, param, value, end float64, steps int) envSegment {
	s := envSegment{kind: kind, value: value, end: end}
	counter := float64(steps)
	switch kind {
	case CurveLinear:
		s.grow = (end - value) / counter
	case CurveExponential:
		if value == 0 {
			s.grow = 0
		} else {
			s.grow = math.Pow(end/value, 1/counter)
		}
	case CurveSine:
		w := math.Pi / counter
		s.a2 = (end + value) * 0.5
		s.b1 = 2 * math.Cos(w)
		s.y1 = (end - value) * 0.5
		s.y2 = s.y1 * math.Sin(math.Pi*0.5-w)
		s.value = s.a2 - s.y1
	case CurveWelch:
		w := (math.Pi * 0.5) / counter
		s.b1 = 2 * math.Cos(w)
		if end >= value {
			s.a2 = value
			s.y1 = 0
			s.y2 = -math.Sin(w) * (end - value)
		} else {
			s.a2 = end
			s.y1 = value - end
			s.y2 = math.Cos(w) * (value - end)
		}
		s.value = s.a2 + s.y1
	case CurveCurve:
		a1 := (end - value) / (1.0 - math.Exp(param))
		s.a2 = value + a1
		s.b1 = a1
		s.grow = math.Exp(param / counter)
	case CurveSquared:
		s.y1 = math.Sqrt(value)
		s.y2 = math.Sqrt(end)
		s.grow = (s.y2 - s.y1) / counter
	case CurveCubed:
		s.y1 = math.Cbrt(value)
		s.y2 = math.Cbrt(end)
		s.grow = (s.y2 - s.y1) / counter
	}
	return s
}

func (s *envSegment) next() float64 {
	switch s.kind {
	case CurveSet:
		s.value = s.end
	case CurveLinear:
		s.value += s.grow
	case CurveExponential:
		s.value *= s.grow
	case CurveSine:
		y0 := s.b1*s.y1 - s.y2
		s.value = s.a2 - y0
		s.y2 = s.y1
		s.y1 = y0
	case CurveWelch:
		y0 := s.b1*s.y1 - s.y2
		s.value = s.a2 + y0
		s.y2 = s.y1
		s.y1 = y0
	case CurveCurve:
		s.b1 *= s.grow
		s.value = s.a2 - s.b1
	case CurveSquared:
		s.y1 += s.grow
		s.value = s.y1 * s.y1
	case CurveCubed:
		s.y1 += s.grow
		s.value = s.y1 * s.y1 * s.y1
	}
	return s.value
}

package audio

import (
	"encoding/json"
	"log"
	"strconv"
)

// ----- Delay ----- //

type delay struct {
	cursor int
	past   []float64
}

func (d *delay) setTime(sampleRate int, millis float64) {
	if millis < 10 {
		millis = 10
	}
	length := int(float64(sampleRate) * millis / 1000)
	if cap(d.past) >= length {
		d.past = d.past[0:length]
	} else {
		d.past = make([]float64, length)
	}
	if d.cursor >= len(d.past) {
		d.cursor = 0
	}
}

func (d *delay) step(in float64) {
	d.past[d.cursor] = in
	d.cursor++
	if d.cursor >= len(d.past) {
		d.cursor = 0
	}
}

func (d *delay) getDelayed() float64 {
	return d.past[d.cursor]
}

func (d *delay) clear() {
	for i := range d.past {
		d.past[i] = 0
	}
}

// ----- Echo ----- //

type echoParams struct {
	enabled      bool
	delay        float64
	feedbackGain float64
	mix          float64
}

type echoJSON struct {
	Enabled      bool    `json:"enabled"`
	Delay        float64 `json:"delay"`
	FeedbackGain float64 `json:"feedbackGain"`
	Mix          float64 `json:"mix"`
}

func newEchoParams() *echoParams {
	return &echoParams{enabled: false, delay: 250, feedbackGain: 0.3, mix: 0.3}
}

func (l *echoParams) applyJSON(data json.RawMessage) {
	var j echoJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to echoParams")
		return
	}
	l.enabled = j.Enabled
	l.delay = j.Delay
	l.feedbackGain = j.FeedbackGain
	l.mix = j.Mix
}

func (l *echoParams) toJSON() json.RawMessage {
	return toRawMessage(&echoJSON{
		Enabled:      l.enabled,
		Delay:        l.delay,
		FeedbackGain: l.feedbackGain,
		Mix:          l.mix,
	})
}

func (l *echoParams) set(key string, value string) error {
	if key == "enabled" {
		l.enabled = value == "true"
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "delay":
		l.delay = v
	case "feedbackGain":
		l.feedbackGain = v
	case "mix":
		l.mix = v
	default:
		return ErrInvalidCommand
	}
	return nil
}

func (l *echoParams) apply(n *EchoNode) {
	n.Bypass(!l.enabled)
	n.SetDelay(l.delay)
	n.SetFeedback(l.feedbackGain)
	n.SetMix(l.mix)
}

// EchoNode adds a feedback delay to both channels of its input.
type EchoNode struct {
	Object
	delayL       *delay
	delayR       *delay
	time         float64
	feedbackGain float64 // [0,1)
	mix          float64 // [0,1]
}

// NewEchoNode creates an echo with a 250ms delay.
func NewEchoNode(sys *System, nodes ...Node) *EchoNode {
	n := &EchoNode{
		delayL:       &delay{},
		delayR:       &delay{},
		feedbackGain: 0.3,
		mix:          0.3,
	}
	n.init(sys, n, "echo", true)
	n.fixedRate = true
	n.SetDelay(250)
	n.Append(nodes...)
	return n
}

// Delay returns the delay time in milliseconds.
func (n *EchoNode) Delay() float64 {
	return n.time
}

// SetDelay sets the delay time in milliseconds, at least 10.
func (n *EchoNode) SetDelay(millis float64) {
	n.delayL.setTime(n.sys.sampleRate, millis)
	n.delayR.setTime(n.sys.sampleRate, millis)
	n.time = millis
}

// SetFeedback sets the feedback gain, clamped to [0, 0.99].
func (n *EchoNode) SetFeedback(gain float64) {
	if gain < 0 {
		gain = 0
	}
	if gain > 0.99 {
		gain = 0.99
	}
	n.feedbackGain = gain
}

// SetMix sets the wet level, clamped to [0, 1].
func (n *EchoNode) SetMix(mix float64) {
	if mix < 0 {
		mix = 0
	}
	if mix > 1 {
		mix = 1
	}
	n.mix = mix
}

// Bang clears the delay lines.
func (n *EchoNode) Bang(args ...interface{}) {
	n.delayL.clear()
	n.delayR.clear()
	n.emit(EventBang, args...)
}

func (n *EchoNode) step(d *delay, in float64) float64 {
	delayed := d.getDelayed()
	d.step(in + delayed*n.feedbackGain)
	return in + delayed*n.mix
}

func (n *EchoNode) process(tickID int64) {
	n.inputAudio(tickID)
	if !n.bypassed {
		l, r := n.cells[1], n.cells[2]
		for i := range l {
			l[i] = n.step(n.delayL, l[i])
			r[i] = n.step(n.delayR, r[i])
		}
	}
	n.outputAudio()
}

package audio

import (
	"testing"
)

func TestRegistryKinds(t *testing.T) {
	sys := NewSystem(Options{})
	kinds := sys.Kinds()
	for _, kind := range []string{"+", "number", "sin", "+saw", "square", "adsr", "env", "sched", "SynthDef", "OscGen", "lpf", "echo", "formant", "fft", "gain", "ratio"} {
		found := false
		for _, k := range kinds {
			if k == kind {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected %q to be registered", kind)
		}
	}
}

func TestRegistryNew(t *testing.T) {
	sys := NewSystem(Options{})
	osc, ok := sys.New("sin", 880.0).(*OscNode)
	expectEqual(t, ok, true)
	expectEqual(t, osc.Kind(), "sin")
	expectNearlyEqual(t, osc.Freq().base().Value(), 880)

	kr := sys.New("saw.kr", nil)
	expectEqual(t, kr.base().IsAR(), false)
	expectEqual(t, kr.base().Kind(), "saw")

	number := sys.New("number.ar", 1.5)
	expectEqual(t, number.base().IsAR(), false)
	expectNearlyEqual(t, number.base().Value(), 1.5)

	_, ok = sys.New("adsr", nil).(*EnvNode)
	expectEqual(t, ok, true)

	lpf, ok := sys.New("lpf", 1000).(*BiquadNode)
	expectEqual(t, ok, true)
	expectEqual(t, lpf.FilterKind(), "lowpass")
	expectNearlyEqual(t, lpf.Freq().base().Value(), 1000)

	biquad := sys.New("biquad", "hpf").(*BiquadNode)
	expectEqual(t, biquad.FilterKind(), "highpass")

	sched := sys.New("sched", 5).(*ScheduleNode)
	expectEqual(t, sched.MaxRemain(), 5)

	analyzer := sys.New("fft", 512).(*Analyzer)
	expectEqual(t, analyzer.Size(), 512)
}

func TestRegistryEnvTable(t *testing.T) {
	sys := NewSystem(Options{})
	env := sys.New("env", EnvTable{
		Segments:    []Segment{{Value: 1, Time: 10}, {Value: 0, Time: 10}},
		ReleaseNode: 2,
	}).(*EnvNode)
	expectEqual(t, env.Envelope().ReleaseIndex(), 1)
	expectEqual(t, env.Envelope().LoopIndex(), -1)

	plain := sys.New("env", nil).(*EnvNode)
	expectEqual(t, plain.Envelope().ReleaseIndex(), -1)
}

func TestRegistryUnknown(t *testing.T) {
	sys := NewSystem(Options{})
	child := NewValue(sys, 1)
	n := sys.New("nothing", nil, child)
	sum, ok := n.(*Sum)
	expectEqual(t, ok, true)
	expectEqual(t, len(sum.Nodes()), 1)

	sys.Register("nothing", func(sys *System, params interface{}, nodes []Node) Node {
		return nil
	})
	_, ok = sys.New("nothing", nil).(*Sum)
	expectEqual(t, ok, true)
}

func TestRegistryCustom(t *testing.T) {
	sys := NewSystem(Options{})
	sys.Register("double", func(sys *System, params interface{}, nodes []Node) Node {
		n := NewSum(sys, nodes...)
		n.SetMul(2)
		return n
	})
	n := sys.New("double", nil, NewValue(sys, 0.25))
	n.base().Render(1)
	expectNearlyEqual(t, n.base().L()[0], 0.5)
}

func TestRegistrySynthDef(t *testing.T) {
	sys := NewSystem(Options{})
	def := sys.New("SynthDef", func(p NoteParams) Node {
		return NewOscNode(sys, "sin")
	}).(*VoiceManager)
	def.NoteOn(60, 100, nil)
	expectEqual(t, len(def.Voices()), 1)

	gen := sys.New("OscGen", OscGenParams{Wave: "tri"}).(*VoiceManager)
	gen.NoteOn(60, 100, nil)
	expectEqual(t, len(gen.Voices()), 1)
}

func TestRegistryModulation(t *testing.T) {
	sys := NewSystem(Options{})
	ratio := sys.New("ratio", 440.0, NewValue(sys, -1)).(*RatioNode)
	ratio.Render(1)
	expectNearlyEqual(t, ratio.Value(), 220)

	gain := sys.New("gain", 0.25, NewValue(sys, 2)).(*GainNode)
	gain.Render(1)
	expectNearlyEqual(t, gain.L()[0], 0.5)
	expectEqual(t, sys.New("gain.kr", nil).base().IsAR(), true)
}

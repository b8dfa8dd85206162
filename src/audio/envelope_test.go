package audio

import (
	"testing"
)

func TestEnvelopeLinear(t *testing.T) {
	env := NewEnvelope(44100)
	env.SetSegments(0, []Segment{{Value: 1, Time: 10}})
	expectEqual(t, env.Status(), EnvWait)
	expectNearlyEqual(t, env.Next(), envZero)

	env.Gate()
	expectEqual(t, env.Status(), EnvGate)
	var value float64
	for i := 0; i < 440; i++ {
		value = env.Next()
	}
	expectEqual(t, env.Status(), EnvGate)
	expectNearlyEqual(t, value, 440.0/441)
	value = env.Next()
	expectEqual(t, env.Status(), EnvEnd)
	expectNearlyEqual(t, value, 1)
	expectNearlyEqual(t, env.Next(), 1)
}

func TestEnvelopeMinimumTime(t *testing.T) {
	env := NewEnvelope(44100)
	env.SetSegments(0, []Segment{{Value: 1, Time: 0}})
	_, segments := env.Segments()
	expectNearlyEqual(t, segments[0].Time, minSegmentTime)
}

func TestEnvelopeStep(t *testing.T) {
	env := NewEnvelope(44100)
	env.SetStep(64)
	env.SetSegments(0, []Segment{{Value: 1, Time: 10}})
	env.Gate()
	// ceil(441 / 64) = 7
	for i := 0; i < 6; i++ {
		env.Next()
	}
	expectEqual(t, env.Status(), EnvGate)
	env.Next()
	expectEqual(t, env.Status(), EnvEnd)
}

func TestEnvelopeSustainAndRelease(t *testing.T) {
	p := DefaultEnvParams("adsr")
	table, ok := envPresetTable("adsr", p)
	expectEqual(t, ok, true)

	var events []string
	env := NewEnvelope(44100)
	env.SetSegments(table.init, table.segments)
	env.SetReleaseIndex(table.releaseIndex)
	env.OnEvent = func(event string) {
		events = append(events, event)
	}
	env.Gate()
	for i := 0; i < 44100; i++ {
		env.Next()
	}
	expectEqual(t, env.Status(), EnvSustain)
	expectNearlyEqual(t, env.Value(), p.Sustain)
	expectEqual(t, len(events), 1)
	expectEqual(t, events[0], EventSustained)

	env.Release()
	expectEqual(t, env.Status(), EnvRelease)
	for i := 0; i < 44100; i++ {
		env.Next()
	}
	expectEqual(t, env.Status(), EnvEnd)
	expectNearlyEqual(t, env.Value(), 0)
	expectEqual(t, len(events), 2)
	expectEqual(t, events[1], EventEnded)
}

func TestEnvelopeReleaseDuringAttack(t *testing.T) {
	env := NewEnvelope(44100)
	env.SetSegments(0, []Segment{{Value: 1, Time: 100}, {Value: 0.5, Time: 100}, {Value: 0, Time: 10}})
	env.SetReleaseIndex(2)
	env.Gate()
	for i := 0; i < 100; i++ {
		env.Next()
	}
	before := env.Value()
	env.Release()
	// the release segment starts from the current value
	after := env.Next()
	if after >= before {
		t.Errorf("expected release to fall from %v, but got: %v", before, after)
	}
	for i := 0; i < 441; i++ {
		env.Next()
	}
	expectEqual(t, env.Status(), EnvEnd)
}

func TestEnvelopeReleaseWithoutIndex(t *testing.T) {
	env := NewEnvelope(44100)
	env.SetSegments(0, []Segment{{Value: 1, Time: 10}})
	env.Gate()
	env.Release()
	expectEqual(t, env.Status(), EnvGate)
}

func TestEnvelopeLoop(t *testing.T) {
	env := NewEnvelope(44100)
	env.SetSegments(0, []Segment{{Value: 1, Time: 10}, {Value: 0.5, Time: 10}})
	env.SetLoopIndex(0)
	env.Gate()
	for i := 0; i < 441*2; i++ {
		env.Next()
	}
	expectNearlyEqual(t, env.Value(), 0.5)
	for i := 0; i < 441; i++ {
		env.Next()
	}
	expectEqual(t, env.Status(), EnvGate)
	expectNearlyEqual(t, env.Value(), 1)
}

func TestEnvelopeCurves(t *testing.T) {
	for _, name := range []string{"set", "lin", "exp", "sin", "wel", "sqr", "cub"} {
		kind, ok := ParseCurve(name)
		expectEqual(t, ok, true)
		env := NewEnvelope(44100)
		env.SetSegments(0.01, []Segment{{Value: 1, Time: 10, Curve: kind}})
		env.Gate()
		var value float64
		for i := 0; i < 441; i++ {
			value = env.Next()
		}
		if value < 0.99 || value > 1.01 {
			t.Errorf("curve %s: expected to end near 1, but got: %v", name, value)
		}
	}
	_, ok := ParseCurve("unknown")
	expectEqual(t, ok, false)
}

func TestEnvelopeClone(t *testing.T) {
	env := NewEnvelope(44100)
	env.SetSegments(0, []Segment{{Value: 1, Time: 10}})
	env.SetReleaseIndex(0)
	env.Gate()
	env.Next()
	c := env.Clone()
	expectEqual(t, c.Status(), EnvWait)
	expectEqual(t, c.ReleaseIndex(), 0)
	init, segments := c.Segments()
	expectNearlyEqual(t, init, envZero)
	expectEqual(t, len(segments), 1)
}

func TestEnvNodeEnded(t *testing.T) {
	sys := NewSystem(Options{})
	env := NewEnvPreset(sys, "perc", EnvParams{Attack: 10, Release: 10, Level: 1})
	ended := 0
	env.On(EventEnded, func(args ...interface{}) {
		ended++
	})
	env.Bang()
	var tick int64
	for i := 0; i < 30; i++ {
		tick++
		env.Render(tick)
	}
	expectEqual(t, env.EnvStatus(), EnvEnd)
	expectEqual(t, ended, 1)
}

func TestEnvNodeRelease(t *testing.T) {
	sys := NewSystem(Options{})
	env := NewEnvPreset(sys, "adsr", DefaultEnvParams("adsr"))
	released := 0
	env.On(EventReleased, func(args ...interface{}) {
		released++
	})
	env.Bang()
	env.Render(1)
	expectEqual(t, env.EnvStatus(), EnvGate)
	env.Release()
	env.Release()
	expectEqual(t, env.EnvStatus(), EnvRelease)
	expectEqual(t, released, 1)
}

func TestEnvNodeUnknownPreset(t *testing.T) {
	sys := NewSystem(Options{})
	env := NewEnvPreset(sys, "unknown", DefaultEnvParams("perc"))
	expectEqual(t, env.Kind(), "perc")
}

func TestEnvPresetZeroLevel(t *testing.T) {
	table, ok := envPresetTable("adsr", EnvParams{Attack: 10, Decay: 10, Sustain: 0.5, Release: 10})
	expectEqual(t, ok, true)
	expectNearlyEqual(t, table.segments[0].Value, 1)
	expectNearlyEqual(t, table.segments[1].Value, 0.5)

	table, _ = envPresetTable("perc", EnvParams{Level: 0.3})
	expectNearlyEqual(t, table.segments[0].Value, 0.3)
	table, _ = envPresetTable("env.cutoff", EnvParams{})
	expectNearlyEqual(t, table.init, 1)
}

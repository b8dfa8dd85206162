package audio

import (
	"math"
	"path/filepath"
	"testing"
)

func TestOscillatorAccumulator(t *testing.T) {
	// one table index per sample
	osc := NewOscillator(32768)
	osc.Frequency = 32
	expectNearlyEqual(t, osc.Next(), 0)
	expectNearlyEqual(t, osc.Accumulator(), 1)
	for i := 1; i < 256; i++ {
		osc.Next()
	}
	expectNearlyEqual(t, osc.Next(), 1)
	for i := 257; i < 1024; i++ {
		osc.Next()
	}
	expectNearlyEqual(t, osc.Accumulator(), 0)
	osc.Next()
	osc.Reset()
	expectNearlyEqual(t, osc.Accumulator(), 0)
}

func TestOscillatorStep(t *testing.T) {
	osc := NewOscillator(32768)
	osc.Frequency = 32
	osc.SetStep(64)
	osc.Next()
	expectNearlyEqual(t, osc.Accumulator(), 64)
}

func TestOscillatorPhase(t *testing.T) {
	osc := NewOscillator(44100)
	osc.Phase = math.Pi / 2
	expectNearlyEqual(t, osc.Next(), 1)
}

func TestOscillatorProcess(t *testing.T) {
	sr := 44100
	osc := NewOscillator(sr)
	cell := make([]float64, 256)
	osc.Process(cell)
	for i, v := range cell {
		expectNearlyEqual(t, v, math.Sin(2*math.Pi*440*float64(i)/float64(sr)))
	}
	expectNearlyEqual(t, osc.Value(), cell[255])

	freqs := make([]float64, 256)
	for i := range freqs {
		freqs[i] = 440
	}
	other := NewOscillator(sr)
	got := make([]float64, 256)
	other.ProcessFreqs(got, freqs)
	for i := range got {
		expectNearlyEqual(t, got[i], cell[i])
	}
}

func TestOscillatorClone(t *testing.T) {
	osc := NewOscillator(44100)
	osc.SetWaveName("saw")
	osc.Next()
	c := osc.Clone()
	expectNearlyEqual(t, c.Accumulator(), 0)
	expectNearlyEqual(t, c.Frequency, 440)
	expectNearlyEqual(t, c.Wave()[100], osc.Wave()[100])
}

func TestOscillatorWaveName(t *testing.T) {
	osc := NewOscillator(44100)
	expectEqual(t, osc.SetWaveName("unknown"), false)
	expectNearlyEqual(t, osc.Wave()[256], 1)
	expectEqual(t, osc.SetWaveName("pulse"), true)
	expectNearlyEqual(t, osc.Wave()[700], -1)
}

func TestOscNode(t *testing.T) {
	sys := NewSystem(Options{})
	n := NewOscNode(sys, "sin")
	n.Render(1)
	for i, v := range n.L() {
		expectNearlyEqual(t, v, math.Sin(2*math.Pi*440*float64(i)/44100))
	}

	expectEqual(t, n.SetWave("unknown"), false)
	expectEqual(t, n.Wave(), "sin")

	m := NewOscNode(sys, "sin", NewValue(sys, 0.5))
	m.SetPhaseValue(math.Pi / 2)
	m.Render(1)
	expectNearlyEqual(t, m.L()[0], 0.5)
}

func TestOscNodeAudioRateFreq(t *testing.T) {
	sys := NewSystem(Options{})
	a := NewOscNode(sys, "tri")
	b := NewOscNode(sys, "tri")
	b.SetFreq(NewSum(sys, NewValue(sys, 440)))
	a.Render(1)
	b.Render(1)
	for i := range a.L() {
		expectNearlyEqual(t, b.L()[i], a.L()[i])
	}
}

func TestOscNodeControlRate(t *testing.T) {
	sys := NewSystem(Options{})
	n := NewOscNode(sys, "saw")
	expectEqual(t, n.ToControlRate(), true)
	n.Render(1)
	first := n.L()[0]
	expectNearlyEqual(t, n.L()[sys.BlockSize()-1], first)
	n.Render(2)
	if n.L()[0] == first {
		t.Errorf("expected the value to move between blocks")
	}
}

func TestOscNodeFreqTime(t *testing.T) {
	sys := NewSystem(Options{})
	n := NewOscNode(sys, "sin")
	n.SetFreqTime("l4")
	expectNearlyEqual(t, n.Freq().base().Value(), 2)
	n.SetFreqTime("abc")
	expectNearlyEqual(t, n.Freq().base().Value(), 2)
}

func TestOscNodeClone(t *testing.T) {
	sys := NewSystem(Options{})
	n := NewOscNode(sys, "saw")
	n.SetFreqValue(220)
	n.SetMul(0.5)
	n.Render(1)
	c := n.Clone()
	expectEqual(t, c.Wave(), "saw")
	expectNearlyEqual(t, c.Mul(), 0.5)
	expectNearlyEqual(t, c.Oscillator().Accumulator(), 0)
	c.Render(1)
	expectNearlyEqual(t, c.L()[10], n.L()[10])
}

func TestWavetableExpressions(t *testing.T) {
	square, ok := GetWavetable("square")
	expectEqual(t, ok, true)
	pulse, _ := GetWavetable("pulse")
	expectEqual(t, len(square), tableSize)
	expectNearlyEqual(t, square[700], pulse[700])

	positive, ok := GetWavetable("+sin")
	expectEqual(t, ok, true)
	expectNearlyEqual(t, positive[0], 0.5)
	expectNearlyEqual(t, positive[768], 0)

	negative, _ := GetWavetable("-sin")
	expectNearlyEqual(t, negative[256], -1)

	halfRect, ok := GetWavetable("sin(@1)")
	expectEqual(t, ok, true)
	expectNearlyEqual(t, halfRect[256], 1)
	expectNearlyEqual(t, halfRect[768], 0)

	narrow, ok := GetWavetable("pulse(@0:25)")
	expectEqual(t, ok, true)
	expectNearlyEqual(t, narrow[200], 1)
	expectNearlyEqual(t, narrow[300], -1)

	_, ok = GetWavetable("unknown")
	expectEqual(t, ok, false)
}

func TestWavetableBytes(t *testing.T) {
	wave, ok := GetWavetable("wavb(7f80)")
	expectEqual(t, ok, true)
	expectNearlyEqual(t, wave[0], 1)
	expectNearlyEqual(t, wave[511], 1)
	expectNearlyEqual(t, wave[512], -1)

	_, ok = GetWavetable("wavb(7f)")
	expectEqual(t, ok, false)
	_, ok = GetWavetable("wavb(7f8)")
	expectEqual(t, ok, false)
	_, ok = GetWavetable("wavb(7f8000)")
	expectEqual(t, ok, false)
}

func TestWavetableColor(t *testing.T) {
	wave, ok := GetWavetable("wavc(00000000)")
	expectEqual(t, ok, true)
	expectNearlyEqual(t, wave[0], 0)
	expectNearlyEqual(t, wave[256], 1)
}

func TestSetWavetable(t *testing.T) {
	SetWavetableFunc("test-ramp", func(x float64) float64 {
		return x
	})
	wave, ok := GetWavetable("test-ramp")
	expectEqual(t, ok, true)
	expectNearlyEqual(t, wave[512], 0.5)

	SetWavetable("test-short", []float64{1, -1})
	wave, _ = GetWavetable("test-short")
	expectEqual(t, len(wave), tableSize)
	expectNearlyEqual(t, wave[1000], -1)
}

func TestWavetableBank(t *testing.T) {
	bank := NewWavetableBank()
	bank.AddBandLimited("saw-69", BandLimitedPartials(69, 44100), func(n int, phase float64) float64 {
		return math.Sin(phase*float64(n)) / float64(n)
	})
	bank.Add("two", []float64{1, -1})
	expectEqual(t, BandLimitedPartials(69, 44100), 50)

	path := filepath.Join(t.TempDir(), "tables.bin")
	expectNoError(t, bank.Save(path))

	loaded := NewWavetableBank()
	expectNoError(t, loaded.Load(path))
	names := loaded.Names()
	expectEqual(t, len(names), 2)
	expectEqual(t, names[0], "saw-69")
	expectEqual(t, names[1], "two")
	original, _ := bank.Get("saw-69")
	restored, ok := loaded.Get("saw-69")
	expectEqual(t, ok, true)
	for i := range original {
		expectNearlyEqual(t, restored[i], original[i])
	}

	loaded.Register()
	wave, ok := GetWavetable("two")
	expectEqual(t, ok, true)
	expectNearlyEqual(t, wave[0], 1)

	expectEqual(t, NewWavetableBank().Load(filepath.Join(t.TempDir(), "missing")) != nil, true)
}

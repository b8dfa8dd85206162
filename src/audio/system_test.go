package audio

import (
	"testing"
)

func TestSystemDefaults(t *testing.T) {
	sys := NewSystem(Options{SampleRate: 12345, BlockSize: 100})
	expectEqual(t, sys.SampleRate(), 44100)
	expectEqual(t, sys.BlockSize(), 64)
	expectEqual(t, sys.StreamSize(), 1024)
	expectNearlyEqual(t, sys.Amp(), 0.8)
	expectEqual(t, sys.Status(), StatusStopped)

	sys = NewSystem(Options{SampleRate: 8000, BlockSize: 32, StreamMsec: 1})
	expectEqual(t, sys.StreamSize(), 256)
}

func TestSystemAutoPlayPause(t *testing.T) {
	sink := &NullSink{}
	sys := NewSystem(Options{Sink: sink})
	n := NewSum(sys)
	n.Play()
	expectEqual(t, sys.Status(), StatusPlaying)
	expectEqual(t, sink.Plays, 1)
	expectEqual(t, sink.Playing(), true)
	expectEqual(t, sys.IsActive(n), true)

	n.Pause()
	// edits while playing wait for the tick boundary
	expectEqual(t, sys.IsActive(n), true)
	sys.Process()
	expectEqual(t, sys.IsActive(n), false)
	expectEqual(t, sys.Status(), StatusStopped)
	expectEqual(t, sink.Pauses, 1)
	expectEqual(t, sink.Playing(), false)
}

func TestSystemPlayEvents(t *testing.T) {
	sys := NewSystem(Options{})
	plays := 0
	sys.On(EventPlay, func(args ...interface{}) {
		plays++
	})
	n := NewSum(sys)
	nodePlays := 0
	n.On(EventPlay, func(args ...interface{}) {
		nodePlays++
	})
	n.Play()
	n.Play()
	sys.Process()
	expectEqual(t, plays, 1)
	expectEqual(t, nodePlays, 1)
}

func TestSystemCurrentTime(t *testing.T) {
	sys := NewSystem(Options{})
	NewSum(sys).Play()
	sys.Process()
	expectNearlyEqual(t, sys.CurrentTime(), 1024*1000/44100.0)
	expectEqual(t, sys.TickID(), int64(16))
	expectNearlyEqual(t, sys.TickDuration(), 64*1000/44100.0)

	sys.Reset()
	expectNearlyEqual(t, sys.CurrentTime(), 0)
	expectEqual(t, sys.Status(), StatusStopped)
}

func TestSystemCurrentTimeBlockSizes(t *testing.T) {
	for _, sampleRate := range []int{22050, 44100, 48000} {
		for _, blockSize := range []int{32, 64, 128, 256} {
			sys := NewSystem(Options{SampleRate: sampleRate, BlockSize: blockSize})
			expectEqual(t, sys.BlockSize(), blockSize)
			NewSum(sys).Play()
			ticksPerProcess := sys.StreamSize() / blockSize
			for i := 1; i <= 5; i++ {
				sys.Process()
				ticks := i * ticksPerProcess
				expectEqual(t, sys.TickID(), int64(ticks))
				expectNearlyEqual(t, sys.CurrentTime(), float64(ticks*blockSize)*1000/float64(sampleRate))
			}
		}
	}
}

func TestSystemClip(t *testing.T) {
	sys := NewSystem(Options{})
	loud := NewSum(sys, NewValue(sys, 5))
	loud.Play()
	l, r := sys.Process()
	expectEqual(t, len(l), sys.StreamSize())
	for i := range l {
		if l[i] != 1 || r[i] != 1 {
			t.Fatalf("expected clipped output at %d, but got: %v %v", i, l[i], r[i])
		}
	}
	loud.SetMul(-1)
	l, _ = sys.Process()
	expectEqual(t, l[0], -1.0)
}

func TestSystemAmp(t *testing.T) {
	sys := NewSystem(Options{Amp: 0.5})
	NewSum(sys, NewValue(sys, 0.5)).Play()
	l, _ := sys.Process()
	expectNearlyEqual(t, l[0], 0.25)
	sys.SetAmp(-1)
	expectNearlyEqual(t, sys.Amp(), 0.5)
}

func TestSystemNextTick(t *testing.T) {
	sys := NewSystem(Options{})
	called := 0
	sys.NextTick(func() {
		called++
	})
	expectEqual(t, called, 1)

	NewSum(sys).Play()
	sys.NextTick(func() {
		called++
		// actions queued while draining run in the same drain
		sys.NextTick(func() {
			called++
		})
	})
	expectEqual(t, called, 1)
	sys.Process()
	expectEqual(t, called, 3)
}

func TestSystemDo(t *testing.T) {
	sys := NewSystem(Options{})
	n := NewSum(sys, NewValue(sys, 0.5))
	n.Play()
	done := make(chan struct{})
	go func() {
		sys.Do(func() {
			n.SetMul(2)
		})
		close(done)
	}()
	<-done
	l, _ := sys.Process()
	expectNearlyEqual(t, l[0], 0.8)
}

func TestSystemEndedRootIsSkipped(t *testing.T) {
	sys := NewSystem(Options{})
	vm := NewVoiceManager(sys, 1, nil)
	vm.Play()
	NewSum(sys, NewValue(sys, 0.25)).Play()
	l, _ := sys.Process()
	expectNearlyEqual(t, l[len(l)-1], 0.2)
}

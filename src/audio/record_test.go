package audio

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestRec(t *testing.T) {
	sys := NewSystem(Options{})
	result, err := sys.Rec(context.Background(), RecOptions{RecDuration: 100, Channels: 2}, func(outlet *Outlet) {
		outlet.Send(NewValue(sys, 0.5))
	})
	expectNoError(t, err)
	expectEqual(t, result.SampleRate, 44100)
	expectEqual(t, result.Channels, 2)
	expectEqual(t, len(result.Buffers), 3)
	expectEqual(t, result.Len(), 4410)
	expectEqual(t, len(result.Buffers[1]), 4410)
	expectNearlyEqual(t, result.Buffers[0][0], 0.4)
	expectNearlyEqual(t, result.Buffers[1][4409], 0.4)
	expectEqual(t, sys.Status(), StatusStopped)
	expectNearlyEqual(t, sys.CurrentTime(), 0)
}

func TestRecMono(t *testing.T) {
	sys := NewSystem(Options{})
	result, err := sys.Rec(context.Background(), RecOptions{}, func(outlet *Outlet) {
		outlet.Send(NewOscNode(sys, "sin"))
		outlet.Done("finished")
	})
	expectNoError(t, err)
	expectEqual(t, result.Channels, 1)
	expectEqual(t, len(result.Buffers), 1)
	expectEqual(t, result.Len(), sys.StreamSize())
	expectEqual(t, len(result.Args), 1)
	expectEqual(t, result.Args[0], "finished")
}

func TestRecDoneFromSchedule(t *testing.T) {
	sys := NewSystem(Options{})
	result, err := sys.Rec(context.Background(), RecOptions{}, func(outlet *Outlet) {
		sched := NewScheduleNode(sys, 0)
		sched.SchedFunc(50, func(args ...interface{}) {
			outlet.Done()
		})
		sched.Start()
	})
	expectNoError(t, err)
	// 50ms lands in the third stream
	expectEqual(t, result.Len(), sys.StreamSize()*3)
}

func TestRecErrors(t *testing.T) {
	sys := NewSystem(Options{})
	_, err := sys.Rec(context.Background(), RecOptions{}, nil)
	expectEqual(t, err, ErrNoRecFunc)

	var nested error
	_, err = sys.Rec(context.Background(), RecOptions{RecDuration: 10}, func(outlet *Outlet) {
		_, nested = sys.Rec(context.Background(), RecOptions{}, func(outlet *Outlet) {})
	})
	expectNoError(t, err)
	expectEqual(t, errors.Is(nested, ErrRecInProgress), true)

	_, err = sys.Rec(context.Background(), RecOptions{MaxDuration: 50}, func(outlet *Outlet) {})
	expectEqual(t, errors.Is(err, ErrMaxDurationExceeded), true)
	expectEqual(t, sys.Status(), StatusStopped)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = sys.Rec(ctx, RecOptions{}, func(outlet *Outlet) {})
	expectEqual(t, errors.Is(err, context.Canceled), true)

	sys.Play()
	_, err = sys.Rec(context.Background(), RecOptions{}, func(outlet *Outlet) {})
	expectEqual(t, errors.Is(err, ErrNotStopped), true)
}

func TestWAV(t *testing.T) {
	sys := NewSystem(Options{})
	result, err := sys.Rec(context.Background(), RecOptions{RecDuration: 20, Channels: 2}, func(outlet *Outlet) {
		outlet.Send(NewOscNode(sys, "sin"))
	})
	expectNoError(t, err)

	path := filepath.Join(t.TempDir(), "out.wav")
	f, err := os.Create(path)
	expectNoError(t, err)
	expectNoError(t, WriteWAV(f, result))
	expectNoError(t, f.Close())

	f, err = os.Open(path)
	expectNoError(t, err)
	defer f.Close()
	decoded, err := ReadWAV(f)
	expectNoError(t, err)
	expectEqual(t, decoded.SampleRate, 44100)
	expectEqual(t, decoded.Channels, 2)
	expectEqual(t, decoded.Len(), result.Len())
	for i := 0; i < decoded.Len(); i++ {
		if d := decoded.Buffers[1][i] - result.Buffers[1][i]; d > 0.001 || d < -0.001 {
			t.Fatalf("sample %d: expected %v, but got: %v", i, result.Buffers[1][i], decoded.Buffers[1][i])
		}
	}

	expectEqual(t, WriteWAV(f, &RecResult{}) != nil, true)
}

package audio

import (
	"fmt"
	"testing"
	"time"
)

func expectNoError(t *testing.T, err error) {
	if err != nil {
		t.Errorf("expected no error, but got: %v", err)
	}
}

func TestBenchmark(t *testing.T) {
	polyphony := 10
	times := 1000

	e, err := NewEngineWithSink(&Config{}, &NullSink{})
	expectNoError(t, err)
	defer func() {
		expectNoError(t, e.Close())
	}()
	expectNoError(t, e.Update([]string{"set", "poly", fmt.Sprint(polyphony)}))
	expectNoError(t, e.Update([]string{"set", "wave", "saw"}))
	expectNoError(t, e.Update([]string{"set", "filter", "kind", "lowpass"}))
	expectNoError(t, e.Update([]string{"set", "formant", "enabled", "true"}))
	expectNoError(t, e.Update([]string{"set", "echo", "enabled", "true"}))
	e.sys.Do(func() {
		e.echo.Play()
		e.analyzer.Listen()
	})
	e.sys.Process()
	for n := 0; n < polyphony; n++ {
		e.AddMidiEvent([]byte{0x90, byte(60 + n), 100})
	}
	start := time.Now()
	for n := 0; n < times; n++ {
		e.sys.Process()
	}
	elapsed := time.Since(start)
	averageProcessTime := float64(elapsed) / float64(times) / float64(time.Millisecond)
	fmt.Printf("average process time: %.2fms\n", averageProcessTime)
}

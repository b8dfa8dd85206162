package audio

import (
	"sync"
)

// Renderer produces stereo streams on demand.
type Renderer interface {
	Process() (left, right []float64)
	SampleRate() int
	StreamSize() int
}

// Sink is a raw sample sink. After Play it pulls from the renderer once per
// backend period until Pause. Pause must not wait for an in-flight Process.
type Sink interface {
	Play(r Renderer) error
	Pause() error
}

// NullSink never pulls. Callers drive Process themselves.
type NullSink struct {
	sync.Mutex
	Plays  int
	Pauses int
	r      Renderer
}

// Play records the call.
func (s *NullSink) Play(r Renderer) error {
	s.Lock()
	defer s.Unlock()
	s.Plays++
	s.r = r
	return nil
}

// Pause records the call.
func (s *NullSink) Pause() error {
	s.Lock()
	defer s.Unlock()
	s.Pauses++
	s.r = nil
	return nil
}

// Playing reports whether Play was called more recently than Pause.
func (s *NullSink) Playing() bool {
	s.Lock()
	defer s.Unlock()
	return s.r != nil
}

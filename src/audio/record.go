package audio

import (
	"context"
	"runtime"
	"time"
)

const (
	defaultMaxRecDuration = 10 * 60 * 1000
	recYieldInterval      = 20 * time.Millisecond
)

// RecOptions configures an offline render. Zero fields take defaults.
type RecOptions struct {
	// RecDuration stops the render after this many milliseconds. 0 renders until Done.
	RecDuration float64
	// MaxDuration fails the render after this many milliseconds. Defaults to 10 minutes.
	MaxDuration float64
	// Channels is 1 or 2. Anything else selects 1.
	Channels int
}

// RecResult holds rendered audio.
// Buffers is [mono] for one channel and [mixed, left, right] for two.
type RecResult struct {
	SampleRate int
	Channels   int
	Buffers    [][]float64
	// Args are the values passed to Outlet.Done.
	Args []interface{}
}

// Len returns the number of frames.
func (r *RecResult) Len() int {
	if len(r.Buffers) == 0 {
		return 0
	}
	return len(r.Buffers[0])
}

// Outlet is handed to the function passed to Rec.
type Outlet struct {
	inlet *Sum
	done  bool
	args  []interface{}
}

// Send routes nodes into the recording.
func (o *Outlet) Send(nodes ...Node) {
	o.inlet.Append(nodes...)
}

// Done ends the recording after the current stream.
func (o *Outlet) Done(args ...interface{}) {
	o.done = true
	o.args = args
}

// Rec renders the graph built by fn into memory as fast as possible.
// The system must be stopped, and it is reset before and after the render.
func (s *System) Rec(ctx context.Context, opts RecOptions, fn func(outlet *Outlet)) (*RecResult, error) {
	if fn == nil {
		return nil, ErrNoRecFunc
	}
	s.mu.Lock()
	if s.recording {
		s.mu.Unlock()
		return nil, ErrRecInProgress
	}
	if s.status != StatusStopped {
		s.mu.Unlock()
		return nil, ErrNotStopped
	}
	s.recording = true
	s.status = StatusRecording
	s.reset()
	s.allocStreams()
	outlet := &Outlet{inlet: NewSum(s)}
	outlet.inlet.fixedRate = true
	s.roots = append(s.roots, outlet.inlet)
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.status = StatusStopped
		s.reset()
		s.recording = false
		s.mu.Unlock()
	}()

	channels := opts.Channels
	if channels != 2 {
		channels = 1
	}
	maxDuration := opts.MaxDuration
	if maxDuration <= 0 {
		maxDuration = defaultMaxRecDuration
	}

	fn(outlet)

	var bufL, bufR []float64
	lastYield := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.process()
		bufL = append(bufL, s.streamL...)
		bufR = append(bufR, s.streamR...)
		currentTime := s.CurrentTime()
		s.mu.Unlock()

		if currentTime >= maxDuration {
			return nil, ErrMaxDurationExceeded
		}
		if opts.RecDuration > 0 && currentTime >= opts.RecDuration {
			break
		}
		if outlet.done {
			break
		}
		if time.Since(lastYield) > recYieldInterval {
			runtime.Gosched()
			lastYield = time.Now()
		}
	}

	length := len(bufL)
	if opts.RecDuration > 0 {
		if n := int(opts.RecDuration * float64(s.sampleRate) * 0.001); n < length {
			length = n
		}
	}
	result := &RecResult{
		SampleRate: s.sampleRate,
		Channels:   channels,
		Args:       outlet.args,
	}
	left, right := bufL[:length], bufR[:length]
	mixed := make([]float64, length)
	for i := range mixed {
		mixed[i] = (left[i] + right[i]) * 0.5
	}
	if channels == 2 {
		result.Buffers = [][]float64{mixed, left, right}
	} else {
		result.Buffers = [][]float64{mixed}
	}
	return result, nil
}

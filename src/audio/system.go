package audio

import (
	"log"
	"math"
	"sync"

	"github.com/jinjor/desktop-synth/src/timevalue"
)

const (
	defaultSampleRate = 44100
	defaultBlockSize  = 64
	defaultStreamMsec = 20
	defaultAmp        = 0.8
	minStreamBits     = 8
	maxStreamBits     = 14
)

var acceptedSampleRates = []int{8000, 11025, 12000, 16000, 22050, 24000, 32000, 44100, 48000}
var acceptedBlockSizes = []int{32, 64, 128, 256}

// Status is the state of the render loop.
type Status int

const (
	// StatusStopped means no render loop is running.
	StatusStopped Status = iota
	// StatusPlaying means a sink pulls streams from the system.
	StatusPlaying
	// StatusRecording means the system renders into memory.
	StatusRecording
)

func (s Status) String() string {
	switch s {
	case StatusPlaying:
		return "playing"
	case StatusRecording:
		return "recording"
	}
	return "stopped"
}

// DurationResolver converts a duration string into milliseconds. Unparseable input yields 0.
type DurationResolver func(str string) float64

// Options configures a System. Zero fields take defaults.
type Options struct {
	SampleRate int
	BlockSize  int
	StreamMsec int
	Amp        float64
	Sink       Sink
	Resolver   DurationResolver
}

// System is the root driver: it owns the tick clock and the active sets.
//
// Graph methods are not safe for concurrent use. While a sink is pulling
// streams, mutate the graph only inside Do; Process and Do are serialized so
// that edits land between passes.
type System struct {
	notifier

	mu         sync.Mutex
	sink       Sink
	resolve    DurationResolver
	registry   map[string]Factory
	sampleRate int
	blockSize  int
	streamMsec int
	streamSize int
	amp        float64
	status     Status
	tickID     int64
	ticks      int64
	nextTicks  []func()
	roots      []Node
	timers     []Node
	listeners  []Node
	streamL    Block
	streamR    Block
	recording  bool
}

// NewSystem creates an independent driver.
func NewSystem(opts Options) *System {
	s := &System{
		sink:       opts.Sink,
		resolve:    opts.Resolver,
		sampleRate: defaultSampleRate,
		blockSize:  defaultBlockSize,
		streamMsec: defaultStreamMsec,
		amp:        defaultAmp,
	}
	if containsInt(acceptedSampleRates, opts.SampleRate) {
		s.sampleRate = opts.SampleRate
	} else if opts.SampleRate != 0 {
		log.Printf("[WARN] unsupported sample rate %d, using %d\n", opts.SampleRate, defaultSampleRate)
	}
	if containsInt(acceptedBlockSizes, opts.BlockSize) {
		s.blockSize = opts.BlockSize
	} else if opts.BlockSize != 0 {
		log.Printf("[WARN] unsupported block size %d, using %d\n", opts.BlockSize, defaultBlockSize)
	}
	if opts.StreamMsec > 0 {
		s.streamMsec = opts.StreamMsec
	}
	if opts.Amp > 0 {
		s.amp = opts.Amp
	}
	if s.sink == nil {
		s.sink = &NullSink{}
	}
	if s.resolve == nil {
		sampleRate := s.sampleRate
		s.resolve = func(str string) float64 {
			return timevalue.Parse(str, sampleRate)
		}
	}
	s.streamSize = streamSizeFor(s.streamMsec, s.sampleRate)
	s.registry = make(map[string]Factory)
	registerDefaults(s)
	return s
}

func containsInt(list []int, value int) bool {
	for _, v := range list {
		if v == value {
			return true
		}
	}
	return false
}

// streamSizeFor returns the power of two closest above streamMsec worth of samples.
func streamSizeFor(streamMsec, sampleRate int) int {
	samples := float64(streamMsec) / 1000 * float64(sampleRate)
	bits := int(math.Ceil(math.Log2(samples)))
	if bits < minStreamBits {
		bits = minStreamBits
	}
	if bits > maxStreamBits {
		bits = maxStreamBits
	}
	return 1 << bits
}

// SampleRate returns the engine sample rate.
func (s *System) SampleRate() int { return s.sampleRate }

// BlockSize returns the length of every Block.
func (s *System) BlockSize() int { return s.blockSize }

// StreamSize returns the number of samples produced by one Process call.
func (s *System) StreamSize() int { return s.streamSize }

// Status returns the render loop status.
func (s *System) Status() Status { return s.status }

// TickID returns the id of the last rendered tick.
func (s *System) TickID() int64 { return s.tickID }

// Amp returns the master gain.
func (s *System) Amp() float64 { return s.amp }

// SetAmp sets the master gain. Negative and NaN values are ignored.
func (s *System) SetAmp(amp float64) {
	if amp >= 0 {
		s.amp = amp
	}
}

// TickDuration returns the length of one tick in milliseconds.
func (s *System) TickDuration() float64 {
	return float64(s.blockSize) * 1000 / float64(s.sampleRate)
}

// CurrentTime returns the elapsed time since the last reset in milliseconds.
func (s *System) CurrentTime() float64 {
	return float64(s.ticks) * float64(s.blockSize) * 1000 / float64(s.sampleRate)
}

// Resolve converts a duration string into milliseconds.
func (s *System) Resolve(str string) float64 {
	return s.resolve(str)
}

// Sink returns the bound sink.
func (s *System) Sink() Sink { return s.sink }

// Do runs f between two process passes.
func (s *System) Do(f func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f()
}

// NextTick runs action now when stopped, otherwise at the end of the current tick.
func (s *System) NextTick(action func()) {
	s.nextTick(action)
}

func (s *System) nextTick(action func()) {
	if s.status == StatusStopped {
		action()
		return
	}
	s.nextTicks = append(s.nextTicks, action)
}

func (s *System) drainNextTicks() {
	for len(s.nextTicks) > 0 {
		actions := s.nextTicks
		s.nextTicks = nil
		for _, action := range actions {
			action()
		}
	}
}

// Play starts the sink. It does nothing unless stopped.
func (s *System) Play() {
	s.play()
}

// Pause stops the sink. It does nothing unless playing.
func (s *System) Pause() {
	s.pause()
}

func (s *System) play() {
	if s.status != StatusStopped {
		return
	}
	s.status = StatusPlaying
	s.allocStreams()
	if err := s.sink.Play(s); err != nil {
		log.Printf("failed to start sink: %v\n", err)
		s.status = StatusStopped
		return
	}
	s.emit(EventPlay)
}

func (s *System) pause() {
	if s.status != StatusPlaying {
		return
	}
	s.status = StatusStopped
	if err := s.sink.Pause(); err != nil {
		log.Printf("failed to stop sink: %v\n", err)
	}
	s.emit(EventPause)
}

func (s *System) allocStreams() {
	if len(s.streamL) != s.streamSize {
		s.streamL = newBlock(s.streamSize)
		s.streamR = newBlock(s.streamSize)
	}
}

// Reset clears the clock and the active sets. The sink binding is kept.
func (s *System) Reset() {
	s.reset()
	if s.status == StatusPlaying {
		s.pause()
	}
}

func (s *System) reset() {
	s.ticks = 0
	s.nextTicks = nil
	s.roots = nil
	s.timers = nil
	s.listeners = nil
}

func (s *System) set(r role) *[]Node {
	switch r {
	case roleTimer:
		return &s.timers
	case roleListener:
		return &s.listeners
	}
	return &s.roots
}

func (s *System) attach(n Node, r role) bool {
	set := s.set(r)
	for _, m := range *set {
		if m == n {
			return false
		}
	}
	*set = append(*set, n)
	if s.status == StatusStopped {
		s.play()
	}
	return true
}

func (s *System) detach(n Node, r role) bool {
	set := s.set(r)
	for i, m := range *set {
		if m == n {
			*set = append((*set)[:i], (*set)[i+1:]...)
			if s.status == StatusPlaying && s.idle() {
				s.pause()
			}
			return true
		}
	}
	return false
}

func (s *System) idle() bool {
	return len(s.roots) == 0 && len(s.timers) == 0 && len(s.listeners) == 0
}

// IsActive reports whether n belongs to one of the active sets.
func (s *System) IsActive(n Node) bool {
	for _, set := range [][]Node{s.roots, s.timers, s.listeners} {
		for _, m := range set {
			if m == n {
				return true
			}
		}
	}
	return false
}

// Process renders one stream. Sinks call it once per backend period.
// The returned slices are reused by the next call.
func (s *System) Process() (left, right []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allocStreams()
	s.process()
	return s.streamL, s.streamR
}

func (s *System) process() {
	s.streamL.zero()
	s.streamR.zero()
	bs := s.blockSize
	ticks := s.streamSize / bs
	for t := 0; t < ticks; t++ {
		s.tickID++
		tickID := s.tickID
		for _, timer := range s.timers {
			timer.base().Render(tickID)
		}
		l := s.streamL[t*bs : (t+1)*bs]
		r := s.streamR[t*bs : (t+1)*bs]
		for _, root := range s.roots {
			o := root.base()
			if o.state != Playing {
				continue
			}
			o.Render(tickID)
			l.accumulate(o.cells[1])
			r.accumulate(o.cells[2])
		}
		for _, listener := range s.listeners {
			listener.base().Render(tickID)
		}
		s.ticks++
		s.drainNextTicks()
	}
	amp := s.amp
	for i := range s.streamL {
		s.streamL[i] = clip(s.streamL[i] * amp)
		s.streamR[i] = clip(s.streamR[i] * amp)
	}
}

package audio

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"strconv"
	"sync"
)

const (
	defaultBufferSizeInBytes = 4096
	defaultVelocity          = 100
	analyzerSize             = 2048
)

// ----- Changes ----- //

// Changes records which parts of the engine state changed since a reporter last looked.
type Changes struct {
	sync.Mutex
	dict map[string]struct{}
}

func newChanges() *Changes {
	return &Changes{dict: make(map[string]struct{})}
}

// Add marks key as changed.
func (c *Changes) Add(key string) {
	c.Lock()
	c.dict[key] = struct{}{}
	c.Unlock()
}

// Has reports whether key changed.
func (c *Changes) Has(key string) bool {
	c.Lock()
	_, ok := c.dict[key]
	c.Unlock()
	return ok
}

// Delete clears key.
func (c *Changes) Delete(key string) {
	c.Lock()
	delete(c.dict, key)
	c.Unlock()
}

// ----- Engine ----- //

// Engine is a playable synthesizer: voices → tremolo → filter → formant → echo, with an
// analyzer listening to the output. Shared LFOs and modulation envelopes drive pitch,
// tremolo and cutoff. Commands arrive on CommandCh or through Update and
// are applied between process passes.
type Engine struct {
	sys       *System
	sink      Sink
	CommandCh chan []string
	Changes   *Changes

	params      *params
	presets     *presetManager
	voices      *VoiceManager
	lfos        []*OscNode
	tremolo     *GainNode
	tremoloGain *Sum
	filterFreq  *RatioNode
	filterEnvs  []*EnvNode
	filter      *BiquadNode
	formant     *FormantNode
	echo        *EchoNode
	analyzer    *Analyzer

	closeOnce sync.Once
	done      chan struct{}
}

// NewEngine opens the output device and builds the engine.
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		config = &Config{}
	}
	sampleRate := config.SampleRate
	if !containsInt(acceptedSampleRates, sampleRate) {
		sampleRate = defaultSampleRate
	}
	deviceRate := config.DeviceRate
	if deviceRate <= 0 {
		deviceRate = sampleRate
	}
	bufferSizeInBytes := config.BufferSizeInBytes
	if bufferSizeInBytes <= 0 {
		bufferSizeInBytes = defaultBufferSizeInBytes
	}
	sink, err := NewOtoSink(deviceRate, bufferSizeInBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}
	e, err := newEngine(config, sink)
	if err != nil {
		if cerr := sink.Close(); cerr != nil {
			log.Printf("failed to close audio device: %v\n", cerr)
		}
		return nil, err
	}
	return e, nil
}

// NewEngineWithSink builds the engine on an existing sink.
func NewEngineWithSink(config *Config, sink Sink) (*Engine, error) {
	if config == nil {
		config = &Config{}
	}
	return newEngine(config, sink)
}

func newEngine(config *Config, sink Sink) (*Engine, error) {
	if config.Wavetables != "" {
		bank := NewWavetableBank()
		if err := bank.Load(config.Wavetables); err != nil {
			return nil, fmt.Errorf("failed to load wavetables: %w", err)
		}
		bank.Register()
	}
	sys := NewSystem(Options{
		SampleRate: config.SampleRate,
		BlockSize:  config.BlockSize,
		StreamMsec: config.StreamMsec,
		Sink:       sink,
	})
	e := &Engine{
		sys:       sys,
		sink:      sink,
		CommandCh: make(chan []string, 256),
		Changes:   newChanges(),
		params:    newParams(),
		presets:   newPresetManager(config.PresetDir),
		done:      make(chan struct{}),
	}
	if config.Sound != nil {
		e.params.applyJSON(config.Sound)
	}
	e.voices = NewVoiceManager(sys, e.params.poly, nil)
	e.lfos = make([]*OscNode, numLfos)
	for i := range e.lfos {
		e.lfos[i] = newLfoNode(sys)
	}
	e.tremoloGain = NewSum(sys)
	e.tremoloGain.ToControlRate()
	e.tremolo = NewGainNode(sys, e.voices)
	e.tremolo.SetGain(e.tremoloGain)
	e.filterFreq = NewRatioNode(sys, nil, 2)
	e.filter = NewBiquadNode(sys, "lowpass", e.tremolo)
	e.formant = NewFormantNode(sys, "a", e.filter)
	e.echo = NewEchoNode(sys, e.formant)
	e.analyzer = NewAnalyzer(sys, analyzerSize, e.echo)
	e.applyParams()
	go e.processCommands()
	return e, nil
}

// System exposes the underlying system.
func (e *Engine) System() *System {
	return e.sys
}

func (e *Engine) processCommands() {
	for command := range e.CommandCh {
		if err := e.Update(command); err != nil {
			log.Printf("failed to apply command: %v\n", err)
		}
	}
	close(e.done)
	log.Println("processCommands() ended.")
}

// applyParams pushes params into the graph. Callers hold the system lock.
func (e *Engine) applyParams() {
	p := e.params
	e.sys.SetAmp(p.amp)
	e.voices.SetPoly(p.poly)
	e.voices.SetMul(p.oscParams.level)

	var freqMods, tremoloMods, filterMods []Node
	for i, lp := range p.lfoParams {
		lp.apply(e.lfos[i])
		switch lp.active() {
		case destVibrato:
			freqMods = append(freqMods, e.lfos[i])
		case destTremolo:
			tremoloMods = append(tremoloMods, e.lfos[i])
		case destFilterFreq:
			filterMods = append(filterMods, e.lfos[i])
		}
	}
	var freqEnvs []*EnvNode
	e.filterEnvs = nil
	for _, mp := range p.modEnvParams {
		switch mp.active() {
		case destFreq:
			freqEnvs = append(freqEnvs, mp.newNode(e.sys))
		case destFilterFreq:
			env := mp.newNode(e.sys)
			e.filterEnvs = append(e.filterEnvs, env)
			filterMods = append(filterMods, env)
		}
	}
	e.tremoloGain.RemoveAll()
	e.tremoloGain.Append(NewValue(e.sys, 1))
	e.tremoloGain.Append(tremoloMods...)

	glide := 0.0
	if p.poly == 1 {
		glide = float64(p.glideTime)
	}
	e.voices.SetFactory(oscGenFactory(e.sys, OscGenParams{
		Wave:      p.oscParams.wave,
		EnvKind:   p.envKind,
		EnvParams: *p.envParams,
		FreqRatio: p.oscParams.freqRatio(),
		Glide:     glide,
		FreqMods:  freqMods,
		FreqEnvs:  freqEnvs,
	}))

	p.filterParams.apply(e.filter)
	e.filterFreq.RemoveAll()
	e.filterFreq.Append(filterMods...)
	e.filterFreq.SetSource(NewValue(e.sys, p.filterParams.freq))
	e.filter.SetFreq(e.filterFreq)
	p.formantParams.apply(e.formant)
	p.echoParams.apply(e.echo)
}

// Update applies one command and reports why it could not be applied.
func (e *Engine) Update(command []string) error {
	var err error
	e.sys.Do(func() {
		err = e.update(command)
	})
	if err != nil {
		return commandError(command, err)
	}
	return nil
}

func (e *Engine) update(command []string) error {
	if len(command) == 0 {
		return ErrInvalidCommand
	}
	switch command[0] {
	case "note_on":
		if len(command) < 2 || len(command) > 3 {
			return ErrInvalidCommand
		}
		note, err := parseNote(command[1])
		if err != nil {
			return err
		}
		velocity := defaultVelocity
		if len(command) == 3 {
			velocity, err = strconv.Atoi(command[2])
			if err != nil {
				return err
			}
		}
		e.noteOn(note, velocity)
	case "note_off":
		if len(command) != 2 {
			return ErrInvalidCommand
		}
		note, err := parseNote(command[1])
		if err != nil {
			return err
		}
		e.voices.NoteOff(note)
	case "all_note_off":
		e.voices.AllNoteOff()
	case "all_sound_off":
		e.voices.AllSoundOff()
	case "mono":
		e.params.poly = 1
		e.applyParams()
		e.Changes.Add("data")
	case "poly":
		e.params.poly = defaultPoly
		e.applyParams()
		e.Changes.Add("data")
	case "set":
		if err := e.params.set(command[1:]); err != nil {
			return err
		}
		e.applyParams()
		e.Changes.Add("data")
		if len(command) > 1 && command[1] == "filter" {
			e.Changes.Add("filter-shape")
		}
	case "preset":
		if len(command) != 2 {
			return ErrInvalidCommand
		}
		if err := e.presets.applyToParams(command[1], e.params); err != nil {
			return err
		}
		e.applyParams()
		e.Changes.Add("data")
		e.Changes.Add("filter-shape")
	default:
		return ErrUnknownCommand
	}
	return nil
}

// noteOn starts a voice and restarts the filter envelopes.
func (e *Engine) noteOn(note int, velocity int) {
	e.voices.NoteOn(note, velocity, nil)
	if velocity <= 0 {
		return
	}
	for _, env := range e.filterEnvs {
		env.Bang()
	}
}

func parseNote(s string) (int, error) {
	note, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if note < 0 || note > 127 {
		return 0, ErrInvalidCommand
	}
	return note, nil
}

// AddMidiEvent applies a raw MIDI channel message.
func (e *Engine) AddMidiEvent(data []byte) {
	if len(data) < 3 {
		return
	}
	e.sys.Do(func() {
		switch {
		case data[0]>>4 == 8 || data[0]>>4 == 9 && data[2] == 0:
			log.Printf("got note-off: %v\n", data)
			e.voices.NoteOff(int(data[1]))
		case data[0]>>4 == 9 && data[2] > 0:
			log.Printf("got note-on: %v\n", data)
			e.noteOn(int(data[1]), int(data[2]))
		case data[0]>>4 == 0xB && data[1] == 120:
			e.voices.AllSoundOff()
		case data[0]>>4 == 0xB && data[1] == 123:
			e.voices.AllNoteOff()
		}
	})
}

// Start plays until ctx is cancelled.
func (e *Engine) Start(ctx context.Context) error {
	e.sys.Do(func() {
		e.echo.Play()
		e.analyzer.Listen()
	})
	<-ctx.Done()
	e.sys.Do(e.sys.Reset)
	log.Println("Start() ended.")
	return nil
}

// Close stops the command loop and releases the sink.
func (e *Engine) Close() error {
	var err error
	e.closeOnce.Do(func() {
		log.Println("Closing Engine...")
		close(e.CommandCh)
		<-e.done
		e.sys.Do(e.sys.Pause)
		if c, ok := e.sink.(io.Closer); ok {
			err = c.Close()
		}
	})
	return err
}

// GetFFT returns the magnitude spectrum of the output.
func (e *Engine) GetFFT() []float64 {
	var spectrum []float64
	e.sys.Do(func() {
		spectrum = e.analyzer.Spectrum()
	})
	return spectrum
}

// GetFilterShape returns the magnitude response of the filter.
func (e *Engine) GetFilterShape() []float64 {
	var shape []float64
	e.sys.Do(func() {
		if e.filter.FilterKind() == "none" {
			shape = make([]float64, analyzerSize/2)
			for i := range shape {
				shape[i] = 1
			}
			return
		}
		shape = e.filter.Response(analyzerSize)
	})
	return shape
}

// Presets returns the preset names.
func (e *Engine) Presets() ([]string, error) {
	return e.presets.names()
}

type engineJSON struct {
	Params json.RawMessage `json:"params"`
}

// ApplyJSON replaces the sound with a JSON document produced by ToJSON.
func (e *Engine) ApplyJSON(data []byte) {
	var j engineJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to Engine", err)
		return
	}
	e.sys.Do(func() {
		e.params.applyJSON(j.Params)
		e.applyParams()
	})
}

// ToJSON returns the sound as JSON.
func (e *Engine) ToJSON() []byte {
	var data json.RawMessage
	e.sys.Do(func() {
		data = toRawMessage(&engineJSON{
			Params: e.params.toJSON(),
		})
	})
	return data
}

// NoteEvent is a note of an offline render. Times are milliseconds.
type NoteEvent struct {
	Note     int
	Velocity int
	Start    float64
	Length   float64
}

// Render records notes played with the current sound. The engine must not be started.
func (e *Engine) Render(ctx context.Context, opts RecOptions, notes []NoteEvent) (*RecResult, error) {
	return e.sys.Rec(ctx, opts, func(outlet *Outlet) {
		e.voices.AllSoundOff()
		e.echo.Bang()
		sched := NewScheduleNode(e.sys, len(notes)*2)
		for _, n := range notes {
			n := n
			sched.SchedFunc(n.Start, func(args ...interface{}) {
				e.noteOn(n.Note, n.Velocity)
			})
			sched.SchedFunc(n.Start+n.Length, func(args ...interface{}) {
				e.voices.NoteOff(n.Note)
			})
		}
		sched.Start()
		outlet.Send(e.echo)
	})
}

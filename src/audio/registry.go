package audio

import (
	"log"
	"sort"
	"strings"
)

// Factory builds a node of a registered kind. params is kind specific and may be nil.
type Factory func(sys *System, params interface{}, nodes []Node) Node

// EnvTable is the params of the "env" kind.
// ReleaseNode and LoopNode are positions in the table counting Init as 0,
// so node n is Segments[n-1]. 0 means none.
type EnvTable struct {
	Init        float64
	Segments    []Segment
	ReleaseNode int
	LoopNode    int
}

// Register binds kind to f, replacing any previous binding.
func (s *System) Register(kind string, f Factory) {
	if kind == "" || f == nil {
		return
	}
	s.registry[kind] = f
}

// Kinds returns the registered kinds in sorted order.
func (s *System) Kinds() []string {
	kinds := make([]string, 0, len(s.registry))
	for k := range s.registry {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}

// New creates a node by kind. A ".ar" or ".kr" suffix selects the rate when the
// kind allows it. Unknown kinds produce a Sum of nodes.
func (s *System) New(kind string, params interface{}, nodes ...Node) Node {
	name, rate := kind, ""
	if strings.HasSuffix(kind, ".ar") || strings.HasSuffix(kind, ".kr") {
		name, rate = kind[:len(kind)-3], kind[len(kind)-2:]
	}
	f, ok := s.registry[name]
	if !ok {
		log.Printf("[WARN] unknown node kind %q\n", kind)
		return NewSum(s, nodes...)
	}
	n := f(s, params, nodes)
	if !isValidNode(n) {
		log.Printf("[WARN] factory of %q returned no node\n", kind)
		return NewSum(s, nodes...)
	}
	switch rate {
	case "ar":
		n.base().ToAudioRate()
	case "kr":
		n.base().ToControlRate()
	}
	return n
}

func floatParam(params interface{}) (float64, bool) {
	switch v := params.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}

func intParam(params interface{}) int {
	switch v := params.(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}

func registerDefaults(s *System) {
	s.Register("+", func(sys *System, params interface{}, nodes []Node) Node {
		return NewSum(sys, nodes...)
	})
	s.Register("number", func(sys *System, params interface{}, nodes []Node) Node {
		v, _ := floatParam(params)
		return NewValue(sys, v)
	})
	s.Register("func", func(sys *System, params interface{}, nodes []Node) Node {
		action, _ := params.(func(args ...interface{}))
		return NewFunc(sys, action)
	})

	osc := func(wave string) Factory {
		return func(sys *System, params interface{}, nodes []Node) Node {
			n := NewOscNode(sys, wave, nodes...)
			n.kind = wave
			if freq, ok := floatParam(params); ok {
				n.SetFreqValue(freq)
			}
			return n
		}
	}
	s.Register("osc", func(sys *System, params interface{}, nodes []Node) Node {
		wave, _ := params.(string)
		n := NewOscNode(sys, wave, nodes...)
		return n
	})
	for _, wave := range append([]string{"square"}, BuiltinWaves...) {
		s.Register(wave, osc(wave))
		s.Register("+"+wave, osc("+"+wave))
	}

	s.Register("env", func(sys *System, params interface{}, nodes []Node) Node {
		t, ok := params.(EnvTable)
		if !ok {
			return NewEnvNode(sys, envZero, nil, nodes...)
		}
		n := NewEnvNode(sys, t.Init, t.Segments, nodes...)
		n.env.SetReleaseIndex(t.ReleaseNode - 1)
		n.env.SetLoopIndex(t.LoopNode - 1)
		return n
	})
	for _, kind := range EnvPresets {
		kind := kind
		s.Register(kind, func(sys *System, params interface{}, nodes []Node) Node {
			p, ok := params.(EnvParams)
			if !ok {
				p = DefaultEnvParams(kind)
			}
			return NewEnvPreset(sys, kind, p, nodes...)
		})
	}

	schedule := func(sys *System, params interface{}, nodes []Node) Node {
		return NewScheduleNode(sys, intParam(params))
	}
	s.Register("schedule", schedule)
	s.Register("sched", schedule)

	s.Register("SynthDef", func(sys *System, params interface{}, nodes []Node) Node {
		factory, _ := params.(VoiceFactory)
		if factory == nil {
			if f, ok := params.(func(NoteParams) Node); ok {
				factory = f
			}
		}
		return NewVoiceManager(sys, 0, factory)
	})
	s.Register("OscGen", func(sys *System, params interface{}, nodes []Node) Node {
		p, _ := params.(OscGenParams)
		return NewOscGen(sys, p)
	})

	biquad := func(filterKind string) Factory {
		return func(sys *System, params interface{}, nodes []Node) Node {
			kind := filterKind
			if k, ok := params.(string); ok && kind == "" {
				kind = k
			}
			if kind == "" {
				kind = "lowpass"
			}
			n := NewBiquadNode(sys, kind, nodes...)
			if freq, ok := floatParam(params); ok {
				n.SetFreqValue(freq)
			}
			return n
		}
	}
	s.Register("biquad", biquad(""))
	for alias := range filterAliases {
		s.Register(alias, biquad(alias))
	}
	for _, kind := range []string{"notch", "peaking", "lowshelf", "highshelf", "allpass"} {
		s.Register(kind, biquad(kind))
	}

	s.Register("echo", func(sys *System, params interface{}, nodes []Node) Node {
		n := NewEchoNode(sys, nodes...)
		if ms, ok := floatParam(params); ok {
			n.SetDelay(ms)
		}
		return n
	})
	s.Register("formant", func(sys *System, params interface{}, nodes []Node) Node {
		vowel, _ := params.(string)
		return NewFormantNode(sys, vowel, nodes...)
	})
	s.Register("gain", func(sys *System, params interface{}, nodes []Node) Node {
		n := NewGainNode(sys, nodes...)
		if gain, ok := floatParam(params); ok {
			n.SetGainValue(gain)
		}
		return n
	})
	// ratio scales a constant (or node) source by 2^(sum of nodes)
	s.Register("ratio", func(sys *System, params interface{}, nodes []Node) Node {
		source, ok := params.(Node)
		if !ok {
			v, _ := floatParam(params)
			source = NewValue(sys, v)
		}
		return NewRatioNode(sys, source, 2, nodes...)
	})
	s.Register("fft", func(sys *System, params interface{}, nodes []Node) Node {
		return NewAnalyzer(sys, intParam(params), nodes...)
	})
}

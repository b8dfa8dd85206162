package audio

import (
	"encoding/json"
	"log"
	"strconv"
)

// ----- Envelope Params ----- //

// EnvParams configures the envelope presets. Times are milliseconds.
// Times below 10ms are raised to 10ms. A Level of 0 or less means the full level 1.
type EnvParams struct {
	Attack      float64
	Decay       float64
	Sustain     float64 // level
	Hold        float64
	Fade        float64
	Release     float64
	Delay       float64
	SustainTime float64
	Duration    float64
	Level       float64
	Curve       string
}

// DefaultEnvParams returns the defaults of the given preset.
func DefaultEnvParams(kind string) EnvParams {
	p := EnvParams{
		Attack:      10,
		Decay:       300,
		Sustain:     0.5,
		Hold:        500,
		Fade:        5000,
		Release:     1000,
		Delay:       100,
		SustainTime: 1000,
		Duration:    1000,
		Level:       1,
	}
	switch kind {
	case "ahdsfr":
		p.Hold = 10
	case "env.cutoff":
		p.Release = 100
	}
	return p
}

type envParamsJSON struct {
	Attack      float64 `json:"attack"`
	Decay       float64 `json:"decay"`
	Sustain     float64 `json:"sustain"`
	Hold        float64 `json:"hold"`
	Fade        float64 `json:"fade"`
	Release     float64 `json:"release"`
	Delay       float64 `json:"delay"`
	SustainTime float64 `json:"sustainTime"`
	Duration    float64 `json:"duration"`
	Level       float64 `json:"level"`
	Curve       string  `json:"curve"`
}

func (p *EnvParams) applyJSON(data json.RawMessage) {
	j := envParamsJSON(*p)
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to envParams")
		return
	}
	*p = EnvParams(j)
}

func (p *EnvParams) toJSON() json.RawMessage {
	j := envParamsJSON(*p)
	return toRawMessage(&j)
}

func (p *EnvParams) set(key string, value string) error {
	if key == "curve" {
		if _, ok := ParseCurve(value); !ok {
			return ErrInvalidCommand
		}
		p.Curve = value
		return nil
	}
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return err
	}
	switch key {
	case "attack":
		p.Attack = v
	case "decay":
		p.Decay = v
	case "sustain":
		p.Sustain = v
	case "hold":
		p.Hold = v
	case "fade":
		p.Fade = v
	case "release":
		p.Release = v
	case "delay":
		p.Delay = v
	case "sustainTime":
		p.SustainTime = v
	case "duration":
		p.Duration = v
	case "level":
		p.Level = v
	default:
		return ErrInvalidCommand
	}
	return nil
}

// ----- Presets ----- //

type envTable struct {
	init         float64
	segments     []Segment
	releaseIndex int
}

func atLeast(value, min float64) float64 {
	if value < min {
		return min
	}
	return value
}

func envPresetTable(kind string, p EnvParams) (envTable, bool) {
	a := atLeast(p.Attack, minSegmentTime)
	d := atLeast(p.Decay, minSegmentTime)
	s := atLeast(p.Sustain, envZero)
	h := atLeast(p.Hold, minSegmentTime)
	f := atLeast(p.Fade, minSegmentTime)
	r := atLeast(p.Release, minSegmentTime)
	dl := atLeast(p.Delay, minSegmentTime)
	lv := p.Level
	if lv <= 0 {
		lv = 1
	}
	seg := func(value, time float64) Segment {
		return Segment{Value: value, Time: time}
	}
	switch kind {
	case "perc":
		return envTable{envZero, []Segment{seg(lv, a), seg(envZero, r)}, -1}, true
	case "adsr":
		return envTable{envZero, []Segment{seg(lv, a), seg(s, d), seg(envZero, r)}, 2}, true
	case "adshr":
		return envTable{envZero, []Segment{seg(lv, a), seg(s, d), seg(s, h), seg(envZero, r)}, -1}, true
	case "asr":
		return envTable{envZero, []Segment{seg(s, a), seg(envZero, r)}, 1}, true
	case "dadsr":
		return envTable{envZero, []Segment{seg(envZero, dl), seg(lv, a), seg(s, d), seg(envZero, r)}, 3}, true
	case "ahdsfr":
		return envTable{envZero, []Segment{seg(lv, a), seg(lv, h), seg(s, d), seg(envZero, f), seg(envZero, r)}, 4}, true
	case "linen":
		st := atLeast(p.SustainTime, minSegmentTime)
		return envTable{envZero, []Segment{seg(lv, a), seg(lv, st), seg(envZero, r)}, -1}, true
	case "env.tri":
		dur := atLeast(p.Duration, 2*minSegmentTime) * 0.5
		return envTable{envZero, []Segment{seg(lv, dur), seg(envZero, dur)}, -1}, true
	case "env.cutoff":
		return envTable{lv, []Segment{seg(envZero, r)}, -1}, true
	}
	return envTable{}, false
}

// EnvPresets lists the preset kinds.
var EnvPresets = []string{"perc", "adsr", "adshr", "asr", "dadsr", "ahdsfr", "linen", "env.tri", "env.cutoff"}

package audio

import (
	"encoding/json"
	"log"
	"strconv"
)

// params is the sound of the live engine. It is applied to the graph by Engine.
type params struct {
	amp           float64
	poly          int
	oscParams     *oscParams
	envKind       string
	envParams     *EnvParams
	filterParams  *filterParams
	formantParams *formantParams
	echoParams    *echoParams
	glideTime     int // ms, mono only
	lfoParams     []*lfoParams
	modEnvParams  []*modEnvParams
}

func newParams() *params {
	env := DefaultEnvParams("adsr")
	env.Decay = 100
	env.Sustain = 0.7
	env.Release = 200
	lfos := make([]*lfoParams, numLfos)
	for i := range lfos {
		lfos[i] = newLfoParams()
	}
	modEnvs := make([]*modEnvParams, numModEnvs)
	for i := range modEnvs {
		modEnvs[i] = newModEnvParams()
	}
	return &params{
		amp:           defaultAmp,
		poly:          defaultPoly,
		oscParams:     newOscParams(),
		envKind:       "adsr",
		envParams:     &env,
		filterParams:  newFilterParams(),
		formantParams: newFormantParams(),
		echoParams:    newEchoParams(),
		glideTime:     100,
		lfoParams:     lfos,
		modEnvParams:  modEnvs,
	}
}

type paramsJSON struct {
	Amp       float64           `json:"amp"`
	Poly      int               `json:"poly"`
	GlideTime int               `json:"glideTime"`
	Osc       json.RawMessage   `json:"osc"`
	EnvKind   string            `json:"envKind"`
	Env       json.RawMessage   `json:"env"`
	Filter    json.RawMessage   `json:"filter"`
	Formant   json.RawMessage   `json:"formant"`
	Echo      json.RawMessage   `json:"echo"`
	Lfos      []json.RawMessage `json:"lfos"`
	Envelopes []json.RawMessage `json:"envelopes"`
}

func (p *params) applyJSON(data json.RawMessage) {
	j := paramsJSON{Amp: p.amp, Poly: p.poly, GlideTime: p.glideTime}
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Printf("failed to apply JSON to params: %v\n", err)
		return
	}
	if j.Amp >= 0 {
		p.amp = j.Amp
	}
	if j.Poly > 0 {
		p.poly = j.Poly
	}
	if j.EnvKind != "" {
		if _, ok := envPresetTable(j.EnvKind, *p.envParams); ok {
			p.envKind = j.EnvKind
		} else {
			log.Printf("[WARN] unknown envelope kind %q\n", j.EnvKind)
		}
	}
	if j.Osc != nil {
		p.oscParams.applyJSON(j.Osc)
	}
	if j.Env != nil {
		p.envParams.applyJSON(j.Env)
	}
	if j.Filter != nil {
		p.filterParams.applyJSON(j.Filter)
	}
	if j.Formant != nil {
		p.formantParams.applyJSON(j.Formant)
	}
	if j.Echo != nil {
		p.echoParams.applyJSON(j.Echo)
	}
	if j.GlideTime >= 0 && j.GlideTime <= maxGlideTime {
		p.glideTime = j.GlideTime
	}
	if j.Lfos != nil {
		if len(j.Lfos) == len(p.lfoParams) {
			for i, data := range j.Lfos {
				p.lfoParams[i].applyJSON(data)
			}
		} else {
			log.Println("failed to apply JSON to lfo params")
		}
	}
	if j.Envelopes != nil {
		if len(j.Envelopes) == len(p.modEnvParams) {
			for i, data := range j.Envelopes {
				p.modEnvParams[i].applyJSON(data)
			}
		} else {
			log.Println("failed to apply JSON to envelope params")
		}
	}
}

func (p *params) toJSON() json.RawMessage {
	lfos := make([]json.RawMessage, len(p.lfoParams))
	for i, l := range p.lfoParams {
		lfos[i] = l.toJSON()
	}
	envelopes := make([]json.RawMessage, len(p.modEnvParams))
	for i, m := range p.modEnvParams {
		envelopes[i] = m.toJSON()
	}
	return toRawMessage(&paramsJSON{
		Amp:       p.amp,
		Poly:      p.poly,
		GlideTime: p.glideTime,
		Osc:       p.oscParams.toJSON(),
		EnvKind:   p.envKind,
		Env:       p.envParams.toJSON(),
		Filter:    p.filterParams.toJSON(),
		Formant:   p.formantParams.toJSON(),
		Echo:      p.echoParams.toJSON(),
		Lfos:      lfos,
		Envelopes: envelopes,
	})
}

// set applies one "set" command: amp <v>, poly <n>, glide_time <ms>, wave <expr>,
// env_kind <kind>, <group> <key> <value> for osc, adsr, filter, formant and echo,
// or lfo|envelope <index> <key> <value>.
func (p *params) set(command []string) error {
	if len(command) < 2 {
		return ErrInvalidCommand
	}
	switch command[0] {
	case "amp":
		v, err := strconv.ParseFloat(command[1], 64)
		if err != nil {
			return err
		}
		if v < 0 {
			return ErrInvalidCommand
		}
		p.amp = v
		return nil
	case "poly":
		v, err := strconv.Atoi(command[1])
		if err != nil {
			return err
		}
		if v < 1 || v > maxPoly {
			return ErrInvalidCommand
		}
		p.poly = v
		return nil
	case "glide_time":
		v, err := strconv.Atoi(command[1])
		if err != nil {
			return err
		}
		if v < 0 || v > maxGlideTime {
			return ErrInvalidCommand
		}
		p.glideTime = v
		return nil
	case "lfo", "envelope":
		if len(command) != 4 {
			return ErrInvalidCommand
		}
		index, err := strconv.Atoi(command[1])
		if err != nil {
			return err
		}
		if command[0] == "lfo" {
			if index < 0 || index >= len(p.lfoParams) {
				return ErrInvalidCommand
			}
			return p.lfoParams[index].set(command[2], command[3])
		}
		if index < 0 || index >= len(p.modEnvParams) {
			return ErrInvalidCommand
		}
		return p.modEnvParams[index].set(command[2], command[3])
	case "wave":
		return p.oscParams.set("wave", command[1])
	case "env_kind":
		if _, ok := envPresetTable(command[1], *p.envParams); !ok {
			return ErrInvalidCommand
		}
		p.envKind = command[1]
		return nil
	}
	if len(command) != 3 {
		return ErrInvalidCommand
	}
	switch command[0] {
	case "osc":
		return p.oscParams.set(command[1], command[2])
	case "adsr", "env":
		return p.envParams.set(command[1], command[2])
	case "filter":
		return p.filterParams.set(command[1], command[2])
	case "formant":
		return p.formantParams.set(command[1], command[2])
	case "echo":
		return p.echoParams.set(command[1], command[2])
	}
	return ErrUnknownCommand
}

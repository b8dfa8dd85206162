package audio

import (
	"encoding/json"
	"log"
	"math"
	"strconv"
)

// ----- OSC Params ----- //

type oscParams struct {
	wave   string
	octave int     // -2 ~ 2
	coarse int     // -12 ~ 12
	fine   int     // -100 ~ 100 cent
	level  float64 // 0 ~ 1
}

type oscJSON struct {
	Wave   string  `json:"wave"`
	Octave int     `json:"octave"`
	Coarse int     `json:"coarse"`
	Fine   int     `json:"fine"`
	Level  float64 `json:"level"`
}

func newOscParams() *oscParams {
	return &oscParams{wave: "sin", level: 1.0}
}

func (o *oscParams) applyJSON(data json.RawMessage) {
	var j oscJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to oscParams")
		return
	}
	if _, ok := GetWavetable(j.Wave); !ok {
		log.Printf("[WARN] unknown wave %q\n", j.Wave)
	} else {
		o.wave = j.Wave
	}
	o.octave = j.Octave
	o.coarse = j.Coarse
	o.fine = j.Fine
	o.level = j.Level
}

func (o *oscParams) toJSON() json.RawMessage {
	return toRawMessage(&oscJSON{
		Wave:   o.wave,
		Octave: o.octave,
		Coarse: o.coarse,
		Fine:   o.fine,
		Level:  o.level,
	})
}

func (o *oscParams) set(key string, value string) error {
	switch key {
	case "wave":
		if _, ok := GetWavetable(value); !ok {
			return ErrInvalidCommand
		}
		o.wave = value
	case "octave", "coarse", "fine":
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		switch key {
		case "octave":
			o.octave = int(v)
		case "coarse":
			o.coarse = int(v)
		case "fine":
			o.fine = int(v)
		}
	case "level":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		o.level = v
	default:
		return ErrInvalidCommand
	}
	return nil
}

// freqRatio is the transposition applied on top of the note frequency.
func (o *oscParams) freqRatio() float64 {
	return math.Pow(2, float64(o.octave)+float64(o.coarse)/12+float64(o.fine)/100/12)
}

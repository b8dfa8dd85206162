package audio

// OscGenParams configures NewOscGen.
type OscGenParams struct {
	// Wave names the oscillator table when Osc is nil.
	Wave string
	// Osc is cloned for every voice when set.
	Osc *OscNode
	// Env is cloned for every voice when set.
	Env *EnvNode
	// EnvKind and EnvParams select an envelope preset when Env is nil.
	// A zero EnvParams takes the preset defaults.
	EnvKind   string
	EnvParams EnvParams
	// FreqRatio transposes every note. 0 means 1.
	FreqRatio float64
	Poly      int
	// Glide slides each voice from the previous note's frequency over Glide ms.
	Glide float64
	// FreqMods are shared modulators in octaves: freq * 2^(sum of FreqMods).
	FreqMods []Node
	// FreqEnvs are cloned and banged for every voice and summed with FreqMods.
	FreqEnvs []*EnvNode
}

// NewOscGen creates a voice manager whose voices are an oscillator inside an
// envelope. The envelope's gain is scaled by velocity/128 and the voice ends
// with the envelope.
func NewOscGen(sys *System, p OscGenParams) *VoiceManager {
	n := NewVoiceManager(sys, p.Poly, nil)
	n.kind = "OscGen"
	n.SetFactory(oscGenFactory(sys, p))
	return n
}

func oscGenFactory(sys *System, p OscGenParams) VoiceFactory {
	wave := p.Wave
	if wave == "" {
		wave = "sin"
	}
	envKind := p.EnvKind
	if envKind == "" {
		envKind = "adsr"
	}
	envParams := p.EnvParams
	if envParams == (EnvParams{}) {
		envParams = DefaultEnvParams(envKind)
	}
	ratio := p.FreqRatio
	if ratio <= 0 {
		ratio = 1
	}
	lastFreq := 0.0
	return func(note NoteParams) Node {
		var osc *OscNode
		if p.Osc != nil {
			osc = p.Osc.Clone()
		} else {
			osc = NewOscNode(sys, wave)
		}
		freq := note.Frequency * ratio
		var source Node
		if p.Glide > 0 && lastFreq > 0 && lastFreq != freq {
			glide := NewEnvNode(sys, lastFreq, []Segment{
				{Value: freq, Time: p.Glide, Curve: CurveExponential},
			})
			glide.kind = "env.glide"
			glide.Bang()
			source = glide
		}
		lastFreq = freq
		mods := append([]Node(nil), p.FreqMods...)
		for _, template := range p.FreqEnvs {
			env := template.Clone()
			env.Bang()
			mods = append(mods, env)
		}
		if source == nil && len(mods) == 0 {
			osc.SetFreqValue(freq)
		} else {
			if source == nil {
				source = NewValue(sys, freq)
			}
			osc.SetFreq(NewRatioNode(sys, source, 2, mods...))
		}

		var env *EnvNode
		if p.Env != nil {
			env = p.Env.Clone()
		} else {
			env = NewEnvPreset(sys, envKind, envParams)
		}
		env.Append(osc)
		env.SetMul(env.Mul() * note.Gain)
		done := note.Done
		env.Once(EventEnded, func(args ...interface{}) {
			done()
		})
		env.Bang()
		return env
	}
}

package audio

import (
	"encoding/json"
	"log"
	"strconv"
)

// ----- Formant ----- //

var formantFreqs = map[string][]float64{
	"a": {800, 1200, 2500, 3500},
	"e": {500, 1900, 2500, 3500},
	"i": {300, 2300, 2900, 3500},
	"o": {500, 800, 2500, 3500},
	"u": {300, 1200, 2500, 3500},
}

type formantBand struct {
	a, b         []float64
	pastL, pastR []float64
}

// FormantNode shapes its input with parallel band-pass filters tuned to a vowel.
type FormantNode struct {
	Object
	vowel string
	tone  float64
	q     float64
	bands []*formantBand
	inL   Block
	inR   Block
}

// NewFormantNode creates a formant filter for vowel a, e, i, o or u.
// Unknown vowels select "a".
func NewFormantNode(sys *System, vowel string, nodes ...Node) *FormantNode {
	n := &FormantNode{
		vowel: "a",
		tone:  1,
		q:     1,
		inL:   newBlock(sys.blockSize),
		inR:   newBlock(sys.blockSize),
	}
	n.init(sys, n, "formant", true)
	n.fixedRate = true
	n.SetVowel(vowel)
	n.Append(nodes...)
	return n
}

// Vowel returns the vowel.
func (n *FormantNode) Vowel() string {
	return n.vowel
}

// SetVowel selects the formant frequencies. Unknown vowels are ignored.
func (n *FormantNode) SetVowel(vowel string) bool {
	if _, ok := formantFreqs[vowel]; !ok {
		return false
	}
	n.vowel = vowel
	n.update()
	return true
}

// SetTone scales every formant frequency. Values <= 0 are ignored.
func (n *FormantNode) SetTone(tone float64) {
	if tone > 0 {
		n.tone = tone
		n.update()
	}
}

// SetQ sets the resonance of every band. Values <= 0 are ignored.
func (n *FormantNode) SetQ(q float64) {
	if q > 0 {
		n.q = q
		n.update()
	}
}

func (n *FormantNode) update() {
	freqs := formantFreqs[n.vowel]
	if len(n.bands) != len(freqs) {
		n.bands = make([]*formantBand, len(freqs))
	}
	nyquist := float64(n.sys.sampleRate) / 2
	for i, freq := range freqs {
		freq *= n.tone
		if freq > nyquist-1 {
			freq = nyquist - 1
		}
		a, b := filterCoeffs("bandpass-q", freq/float64(n.sys.sampleRate), n.q, 0)
		band := n.bands[i]
		if band == nil {
			band = &formantBand{pastL: filterMemory(a, b), pastR: filterMemory(a, b)}
			n.bands[i] = band
		}
		band.a, band.b = a, b
	}
}

func (n *FormantNode) process(tickID int64) {
	n.inputAudio(tickID)
	if !n.bypassed {
		l, r := n.cells[1], n.cells[2]
		copy(n.inL, l)
		copy(n.inR, r)
		l.zero()
		r.zero()
		for _, band := range n.bands {
			for i := range l {
				l[i] += processFilterEach(n.inL[i], band.a, band.b, band.pastL)
				r[i] += processFilterEach(n.inR[i], band.a, band.b, band.pastR)
			}
		}
	}
	n.outputAudio()
}

// ----- Formant Params ----- //

type formantParams struct {
	enabled bool
	vowel   string
	tone    float64
	q       float64
}

type formantJSON struct {
	Enabled bool    `json:"enabled"`
	Vowel   string  `json:"vowel"`
	Tone    float64 `json:"tone"`
	Q       float64 `json:"q"`
}

func newFormantParams() *formantParams {
	return &formantParams{vowel: "a", tone: 1, q: 1}
}

func (f *formantParams) applyJSON(data json.RawMessage) {
	var j formantJSON
	err := json.Unmarshal(data, &j)
	if err != nil {
		log.Println("failed to apply JSON to formantParams")
		return
	}
	f.enabled = j.Enabled
	if _, ok := formantFreqs[j.Vowel]; ok {
		f.vowel = j.Vowel
	}
	f.tone = j.Tone
	f.q = j.Q
}

func (f *formantParams) toJSON() json.RawMessage {
	return toRawMessage(&formantJSON{
		Enabled: f.enabled,
		Vowel:   f.vowel,
		Tone:    f.tone,
		Q:       f.q,
	})
}

func (f *formantParams) set(key string, value string) error {
	switch key {
	case "enabled":
		f.enabled = value == "true"
	case "vowel":
		if _, ok := formantFreqs[value]; !ok {
			return ErrInvalidCommand
		}
		f.vowel = value
	case "tone", "q":
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		if key == "tone" {
			f.tone = v
		} else {
			f.q = v
		}
	default:
		return ErrInvalidCommand
	}
	return nil
}

func (f *formantParams) apply(n *FormantNode) {
	n.Bypass(!f.enabled)
	n.SetVowel(f.vowel)
	n.SetTone(f.tone)
	n.SetQ(f.q)
}

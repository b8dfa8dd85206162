package audio

import (
	"math"
)

const (
	tableSize = 1024
	tableMask = tableSize - 1
)

// Oscillator reads a wavetable with linear interpolation.
//
// The table holds tableSize samples plus a copy of the first one, so
// interpolation across the wrap point reads index tableSize without a branch.
type Oscillator struct {
	sampleRate int
	wave       []float64
	step       int
	coeff      float64
	radToInc   float64

	// Frequency is in Hz.
	Frequency float64
	// Phase is a read offset in radians, or the feedback amount when Feedback is set.
	Phase float64
	// Feedback derives the read offset from the previous output sample.
	Feedback bool

	x       float64
	lastOut float64
	value   float64
}

// NewOscillator creates a sine oscillator at 440Hz.
func NewOscillator(sampleRate int) *Oscillator {
	o := &Oscillator{
		sampleRate: sampleRate,
		wave:       make([]float64, tableSize+1),
		step:       1,
		coeff:      tableSize / float64(sampleRate),
		radToInc:   tableSize / (2 * math.Pi),
		Frequency:  440,
	}
	o.SetWaveName("sin")
	return o
}

// SetWave copies samples into the table, resampling by index scaling when the length differs.
// Empty input is ignored.
func (o *Oscillator) SetWave(samples []float64) {
	if len(samples) == 0 {
		return
	}
	wave := make([]float64, tableSize+1)
	if len(samples) == tableSize {
		copy(wave, samples)
	} else {
		dx := float64(len(samples)) / tableSize
		for i := 0; i < tableSize; i++ {
			wave[i] = samples[int(float64(i)*dx)]
		}
	}
	wave[tableSize] = wave[0]
	o.wave = wave
}

// SetWaveFunc samples f over one cycle, x in [0, 1).
func (o *Oscillator) SetWaveFunc(f func(x float64) float64) {
	if f == nil {
		return
	}
	wave := make([]float64, tableSize+1)
	for i := 0; i < tableSize; i++ {
		wave[i] = f(float64(i) / tableSize)
	}
	wave[tableSize] = wave[0]
	o.wave = wave
}

// SetWaveName loads a registered table or table expression. It returns false
// and keeps the current table when key is unknown.
func (o *Oscillator) SetWaveName(key string) bool {
	wave, ok := GetWavetable(key)
	if !ok {
		return false
	}
	o.SetWave(wave)
	return true
}

// Wave returns a copy of the table without the guard sample.
func (o *Oscillator) Wave() []float64 {
	wave := make([]float64, tableSize)
	copy(wave, o.wave)
	return wave
}

// SetStep sets how many samples one call to Next covers.
func (o *Oscillator) SetStep(step int) {
	if step < 1 {
		step = 1
	}
	o.step = step
}

// Reset rewinds the phase accumulator.
func (o *Oscillator) Reset() {
	o.x = 0
	o.lastOut = 0
}

// Accumulator returns the table read position in [0, tableSize).
func (o *Oscillator) Accumulator() float64 {
	return o.x
}

// Value returns the last output sample.
func (o *Oscillator) Value() float64 {
	return o.value
}

// Clone copies the configuration with a rewound accumulator. The table is shared
// because tables are never written in place.
func (o *Oscillator) Clone() *Oscillator {
	c := *o
	c.Reset()
	c.value = 0
	return &c
}

func (o *Oscillator) read(phase float64) float64 {
	index := math.Floor(phase)
	frac := phase - index
	i := int(index) & tableMask
	x0 := o.wave[i]
	return x0 + frac*(o.wave[i+1]-x0)
}

func (o *Oscillator) advance(dx float64) {
	o.x += dx
	for o.x >= tableSize {
		o.x -= tableSize
	}
	for o.x < 0 {
		o.x += tableSize
	}
}

// Next returns one sample and advances by step samples.
func (o *Oscillator) Next() float64 {
	var value float64
	if o.Feedback {
		value = o.read(o.x + o.lastOut*o.radToInc*o.Phase)
		o.lastOut = value
	} else {
		value = o.read(o.x + o.Phase*o.radToInc)
	}
	o.advance(o.Frequency * o.coeff * float64(o.step))
	o.value = value
	return value
}

// Process fills cell at a constant frequency and phase.
func (o *Oscillator) Process(cell []float64) {
	dx := o.Frequency * o.coeff
	if o.Feedback {
		fb := o.radToInc * o.Phase
		last := o.lastOut
		for i := range cell {
			last = o.read(o.x + last*fb)
			cell[i] = last
			o.advance(dx)
		}
		o.lastOut = last
	} else {
		offset := o.Phase * o.radToInc
		for i := range cell {
			cell[i] = o.read(o.x + offset)
			o.advance(dx)
		}
	}
	o.setValue(cell)
}

// ProcessFreqs fills cell with a per-sample frequency.
func (o *Oscillator) ProcessFreqs(cell, freqs []float64) {
	if o.Feedback {
		fb := o.radToInc * o.Phase
		last := o.lastOut
		for i := range cell {
			last = o.read(o.x + last*fb)
			cell[i] = last
			o.advance(freqs[i] * o.coeff)
		}
		o.lastOut = last
	} else {
		offset := o.Phase * o.radToInc
		for i := range cell {
			cell[i] = o.read(o.x + offset)
			o.advance(freqs[i] * o.coeff)
		}
	}
	o.setValue(cell)
}

// ProcessPhases fills cell with a per-sample phase offset in radians.
// In feedback mode phases is ignored.
func (o *Oscillator) ProcessPhases(cell, phases []float64) {
	if o.Feedback {
		o.Process(cell)
		return
	}
	dx := o.Frequency * o.coeff
	for i := range cell {
		cell[i] = o.read(o.x + phases[i]*o.radToInc)
		o.advance(dx)
	}
	o.setValue(cell)
}

// ProcessFreqsPhases fills cell with per-sample frequency and phase offset.
// In feedback mode phases is ignored.
func (o *Oscillator) ProcessFreqsPhases(cell, freqs, phases []float64) {
	if o.Feedback {
		o.ProcessFreqs(cell, freqs)
		return
	}
	for i := range cell {
		cell[i] = o.read(o.x + phases[i]*o.radToInc)
		o.advance(freqs[i] * o.coeff)
	}
	o.setValue(cell)
}

func (o *Oscillator) setValue(cell []float64) {
	if len(cell) > 0 {
		o.value = cell[len(cell)-1]
	}
}

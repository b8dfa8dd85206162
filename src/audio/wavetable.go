package audio

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"regexp"
	"strconv"
	"sync"
)

var wavetables = struct {
	sync.RWMutex
	tables map[string][]float64
}{
	tables: make(map[string][]float64),
}

var waveAliases = map[string]string{
	"square": "pulse",
}

var builtinWaves = map[string]func() []float64{
	"sin": func() []float64 {
		return sampleWave(func(x float64) float64 {
			return math.Sin(2 * math.Pi * x)
		})
	},
	"cos": func() []float64 {
		return sampleWave(func(x float64) float64 {
			return math.Cos(2 * math.Pi * x)
		})
	},
	"pulse": func() []float64 {
		return sampleWave(func(x float64) float64 {
			if x < 0.5 {
				return 1
			}
			return -1
		})
	},
	"tri": func() []float64 {
		return sampleWave(func(x float64) float64 {
			x -= 0.25
			return 1.0 - 4.0*math.Abs(math.Floor(x+0.5)-x)
		})
	},
	"saw": func() []float64 {
		return sampleWave(func(x float64) float64 {
			return 2.0 * (x - math.Floor(x+0.5))
		})
	},
	"fami": func() []float64 {
		return steppedWave([]float64{
			+0.000, +0.125, +0.250, +0.375, +0.500, +0.625, +0.750, +0.875,
			+0.875, +0.750, +0.625, +0.500, +0.375, +0.250, +0.125, +0.000,
			-0.125, -0.250, -0.375, -0.500, -0.625, -0.750, -0.875, -1.000,
			-1.000, -0.875, -0.750, -0.625, -0.500, -0.375, -0.250, -0.125,
		})
	},
	"konami": func() []float64 {
		return steppedWave([]float64{
			-0.625, -0.875, -0.125, +0.750, +0.500, +0.125, +0.500, +0.750,
			+0.250, -0.125, +0.500, +0.875, +0.625, +0.000, +0.250, +0.375,
			-0.125, -0.750, +0.000, +0.625, +0.125, -0.500, -0.375, -0.125,
			-0.750, -1.000, -0.625, +0.000, -0.375, -0.875, -0.625, -0.250,
		})
	},
}

// BuiltinWaves lists the names of the built-in tables.
var BuiltinWaves = []string{"sin", "cos", "pulse", "tri", "saw", "fami", "konami"}

func sampleWave(f func(x float64) float64) []float64 {
	wave := make([]float64, tableSize)
	for i := range wave {
		wave[i] = f(float64(i) / tableSize)
	}
	return wave
}

func steppedWave(d []float64) []float64 {
	wave := make([]float64, tableSize)
	for i := range wave {
		wave[i] = d[i*len(d)/tableSize]
	}
	return wave
}

func resampleWave(samples []float64) []float64 {
	wave := make([]float64, tableSize)
	if len(samples) == tableSize {
		copy(wave, samples)
		return wave
	}
	dx := float64(len(samples)) / tableSize
	for i := range wave {
		wave[i] = samples[int(float64(i)*dx)]
	}
	return wave
}

// SetWavetable registers a named table. Empty input is ignored.
func SetWavetable(name string, samples []float64) {
	if len(samples) == 0 {
		return
	}
	wave := resampleWave(samples)
	wavetables.Lock()
	wavetables.tables[name] = wave
	wavetables.Unlock()
}

// SetWavetableFunc registers a table sampled from f over one cycle, x in [0, 1).
func SetWavetableFunc(name string, f func(x float64) float64) {
	if f == nil {
		return
	}
	SetWavetable(name, sampleWave(f))
}

func lookupWave(name string) ([]float64, bool) {
	if alias, ok := waveAliases[name]; ok {
		name = alias
	}
	wavetables.RLock()
	wave, ok := wavetables.tables[name]
	wavetables.RUnlock()
	if ok {
		c := make([]float64, len(wave))
		copy(c, wave)
		return c, true
	}
	if gen, ok := builtinWaves[name]; ok {
		return gen(), true
	}
	return nil, false
}

var (
	waveShapeRe = regexp.MustCompile(`^([\-+]?)(\w+)(?:\((@[0-7])?:?(\d+)?\))?$`)
	waveBytesRe = regexp.MustCompile(`^wavb\(((?:[0-9a-fA-F][0-9a-fA-F])+)\)$`)
	waveColorRe = regexp.MustCompile(`^wavc\(([0-9a-fA-F]{8})\)$`)
)

// GetWavetable resolves a table name or expression into tableSize samples.
//
//	[+|-]name[(@shape[:width])]   shaped copy of a named table
//	wavb(<hex bytes>)             2..1024 signed 8-bit steps
//	wavc(<8 hex digits>)          additive harmonics from 7 nibble amplitudes
func GetWavetable(key string) ([]float64, bool) {
	if wave, ok := lookupWave(key); ok {
		return wave, true
	}
	if m := waveShapeRe.FindStringSubmatch(key); m != nil {
		if wave, ok := shapeWave(m[1], m[2], m[3], m[4]); ok {
			wavetables.Lock()
			wavetables.tables[key] = wave
			wavetables.Unlock()
			c := make([]float64, len(wave))
			copy(c, wave)
			return c, true
		}
	}
	if m := waveBytesRe.FindStringSubmatch(key); m != nil {
		return waveBytes(m[1])
	}
	if m := waveColorRe.FindStringSubmatch(key); m != nil {
		return waveColor(m[1]), true
	}
	return nil, false
}

func shapeWave(sign, name, shape, width string) ([]float64, bool) {
	wave, ok := lookupWave(name)
	if !ok {
		return nil, false
	}
	switch shape {
	case "@1":
		for i := 512; i < 1024; i++ {
			wave[i] = 0
		}
	case "@2":
		for i := 512; i < 1024; i++ {
			wave[i] = math.Abs(wave[i])
		}
	case "@3":
		for i := 256; i < 512; i++ {
			wave[i] = 0
		}
		for i := 512; i < 768; i++ {
			wave[i] = math.Abs(wave[i])
		}
		for i := 768; i < 1024; i++ {
			wave[i] = 0
		}
	case "@4":
		shaped := make([]float64, tableSize)
		for i := 0; i < 512; i++ {
			shaped[i] = wave[i<<1]
		}
		wave = shaped
	case "@5":
		shaped := make([]float64, tableSize)
		for i := 0; i < 512; i++ {
			shaped[i] = math.Abs(wave[i<<1])
		}
		wave = shaped
	}

	if width != "" {
		if w, err := strconv.Atoi(width); err == nil && w != 50 {
			wave = dutyCycle(wave, float64(w)*0.01)
		}
	}

	switch sign {
	case "+":
		for i := range wave {
			wave[i] = wave[i]*0.5 + 0.5
		}
	case "-":
		for i := range wave {
			wave[i] *= -1
		}
	}
	return wave, true
}

// dutyCycle squeezes the first half cycle into width of the table.
func dutyCycle(wave []float64, width float64) []float64 {
	if width < 0 {
		width = 0
	}
	if width > 1 {
		width = 1
	}
	shaped := make([]float64, tableSize)
	imax := int(tableSize * width)
	i := 0
	for ; i < imax; i++ {
		shaped[i] = wave[int(float64(i)/float64(imax)*512)]
	}
	jmax := tableSize - imax
	for j := 0; i < tableSize; i, j = i+1, j+1 {
		shaped[i] = wave[int(float64(j)/float64(jmax)*512+512)]
	}
	return shaped
}

func waveBytes(src string) ([]float64, bool) {
	n := len(src) / 2
	if n < 2 || n > tableSize || n&(n-1) != 0 {
		return nil, false
	}
	wave := make([]float64, tableSize)
	repeat := tableSize / n
	k := 0
	for i := 0; i < n; i++ {
		b, err := strconv.ParseUint(src[i*2:i*2+2], 16, 8)
		if err != nil {
			return nil, false
		}
		var x float64
		if b&0x80 != 0 {
			x = float64(int(b)-256) / 128.0
		} else {
			x = float64(b) / 127.0
		}
		for j := 0; j < repeat; j++ {
			wave[k] = x
			k++
		}
	}
	return wave, true
}

func waveColor(src string) []float64 {
	wave := make([]float64, tableSize)
	color, err := strconv.ParseUint(src, 16, 32)
	if err != nil {
		return wave
	}
	var bar [8]float64
	bar[0] = 1
	for i := 0; i < 7; i++ {
		bar[i+1] = float64(color&0x0f) * 0.0625
		color >>= 4
	}
	for i, amp := range bar {
		x, dx := 0.0, float64(i+1)/tableSize
		for j := range wave {
			wave[j] += math.Sin(2*math.Pi*x) * amp
			x += dx
		}
	}
	normalize(wave)
	return wave
}

func normalize(wave []float64) {
	peak := 0.0
	for _, v := range wave {
		if a := math.Abs(v); a > peak {
			peak = a
		}
	}
	if peak > 0 {
		for i := range wave {
			wave[i] /= peak
		}
	}
}

// ----- Wavetable Bank ----- //

// BandLimitedPartials returns how many harmonics of note stay below Nyquist.
func BandLimitedPartials(note int, sampleRate int) int {
	partials := int(float64(sampleRate) / 2 / MidiToFreq(note))
	if partials < 1 {
		partials = 1
	}
	return partials
}

// WavetableBank is an ordered set of named tables that can be stored on disk.
type WavetableBank struct {
	names  []string
	tables map[string][]float64
}

// NewWavetableBank creates an empty bank.
func NewWavetableBank() *WavetableBank {
	return &WavetableBank{
		tables: make(map[string][]float64),
	}
}

// Add stores a table resampled to tableSize. A table with the same name is replaced.
func (b *WavetableBank) Add(name string, samples []float64) {
	if len(samples) == 0 {
		return
	}
	if _, ok := b.tables[name]; !ok {
		b.names = append(b.names, name)
	}
	b.tables[name] = resampleWave(samples)
}

// AddBandLimited sums partials of calcPartialAtPhase and normalizes the result.
func (b *WavetableBank) AddBandLimited(name string, partials int, calcPartialAtPhase func(n int, phase float64) float64) {
	wave := make([]float64, tableSize)
	for i := range wave {
		phase := 2.0 * math.Pi / tableSize * float64(i)
		value := 0.0
		for n := 1; n <= partials; n++ {
			value += calcPartialAtPhase(n, phase)
		}
		wave[i] = value
	}
	normalize(wave)
	b.Add(name, wave)
}

// Names returns the table names in insertion order.
func (b *WavetableBank) Names() []string {
	names := make([]string, len(b.names))
	copy(names, b.names)
	return names
}

// Get returns the named table.
func (b *WavetableBank) Get(name string) ([]float64, bool) {
	wave, ok := b.tables[name]
	return wave, ok
}

// Register makes every table of the bank available to oscillators.
func (b *WavetableBank) Register() {
	for _, name := range b.names {
		SetWavetable(name, b.tables[name])
	}
}

// IO
//   all = { number_of_tables int32, tables []table }
//   table = { name_length int32, name []byte, number_of_samples int32, samples []float64 }

// Save writes the bank in big-endian binary form.
func (b *WavetableBank) Save(path string) error {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return err
	}
	defer file.Close()
	w := bufio.NewWriter(file)
	if err := binary.Write(w, binary.BigEndian, int32(len(b.names))); err != nil {
		return err
	}
	for _, name := range b.names {
		if err := binary.Write(w, binary.BigEndian, int32(len(name))); err != nil {
			return err
		}
		if _, err := w.WriteString(name); err != nil {
			return err
		}
		values := b.tables[name]
		if err := binary.Write(w, binary.BigEndian, int32(len(values))); err != nil {
			return err
		}
		if err := binary.Write(w, binary.BigEndian, values); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return file.Close()
}

// Load appends the tables stored at path.
func (b *WavetableBank) Load(path string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()
	r := bufio.NewReader(file)
	var numTables int32
	if err := binary.Read(r, binary.BigEndian, &numTables); err != nil {
		return err
	}
	if numTables < 0 || numTables > 65536 {
		return fmt.Errorf("invalid number of tables: %d", numTables)
	}
	for i := 0; i < int(numTables); i++ {
		var nameLength int32
		if err := binary.Read(r, binary.BigEndian, &nameLength); err != nil {
			return err
		}
		if nameLength < 0 || nameLength > 1024 {
			return fmt.Errorf("invalid name length: %d", nameLength)
		}
		name := make([]byte, nameLength)
		if err := binary.Read(r, binary.BigEndian, name); err != nil {
			return err
		}
		var numSamples int32
		if err := binary.Read(r, binary.BigEndian, &numSamples); err != nil {
			return err
		}
		if numSamples <= 0 || numSamples > 1<<20 {
			return fmt.Errorf("invalid number of samples: %d", numSamples)
		}
		values := make([]float64, numSamples)
		if err := binary.Read(r, binary.BigEndian, values); err != nil {
			return err
		}
		b.Add(string(name), values)
	}
	return nil
}

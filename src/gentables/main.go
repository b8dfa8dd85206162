package main

import (
	"flag"
	"fmt"
	"log"
	"math"
	"path/filepath"

	"github.com/jinjor/desktop-synth/src/audio"
	"golang.org/x/sync/errgroup"
)

const sampleRate = 44100

// one table per octave of C
var notes = []int{24, 36, 48, 60, 72, 84, 96, 108}

func main() {
	out := flag.String("o", "bandlimited.wt", "output file")
	flag.Parse()
	log.SetFlags(log.Lshortfile)

	waves := []struct {
		name string
		calc func(n int, phase float64) float64
	}{
		{"square", calcPartialSquareAtPhase},
		{"saw", calcPartialSawAtPhase},
	}
	banks := make([]*audio.WavetableBank, len(waves))
	var g errgroup.Group
	for i, w := range waves {
		i, w := i, w
		g.Go(func() error {
			bank := audio.NewWavetableBank()
			for _, note := range notes {
				bank.AddBandLimited(fmt.Sprintf("%s-%d", w.name, note), audio.BandLimitedPartials(note, sampleRate), w.calc)
			}
			banks[i] = bank
			log.Printf("generated %s wave\n", w.name)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	all := audio.NewWavetableBank()
	for _, bank := range banks {
		for _, name := range bank.Names() {
			wave, _ := bank.Get(name)
			all.Add(name, wave)
		}
	}
	path := filepath.Clean(*out)
	if err := all.Save(path); err != nil {
		log.Fatalf("error: %v\n", err)
	}
	log.Printf("Successfully generated %d wavetables into %s.\n", len(all.Names()), path)
}

func calcPartialSquareAtPhase(n int, phase float64) float64 {
	if n%2 == 1 {
		x := float64(n)
		return math.Sin(x*phase) / x
	}
	return 0.0
}

func calcPartialSawAtPhase(n int, phase float64) float64 {
	x := float64(n)
	return math.Sin(x*phase) / x
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/jinjor/desktop-synth/src/audio"
	"github.com/spf13/cobra"
)

var renderOpts struct {
	out      string
	notes    string
	velocity int
	length   string
	stagger  string
	tail     string
	channels int
}

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render notes into a WAV file",
	Long: `Render notes with the configured sound into a 16-bit WAV file.

Durations accept milliseconds or duration strings such as "2sec", "l8" or "bpm90 l4".

Examples:
  desktop-synth render -o chord.wav --notes 60,64,67
  desktop-synth render -o arp.wav --notes 60,64,67,72 --stagger l16 --length l8`,
	RunE: runRender,
}

func init() {
	f := renderCmd.Flags()
	f.StringVarP(&renderOpts.out, "out", "o", "", "output WAV path")
	f.StringVar(&renderOpts.notes, "notes", "60", "comma separated MIDI note numbers")
	f.IntVar(&renderOpts.velocity, "velocity", 100, "note velocity")
	f.StringVar(&renderOpts.length, "length", "1sec", "note length")
	f.StringVar(&renderOpts.stagger, "stagger", "0", "delay between note starts")
	f.StringVar(&renderOpts.tail, "tail", "1sec", "time rendered after the last note off")
	f.IntVar(&renderOpts.channels, "channels", 2, "1 or 2")
	_ = renderCmd.MarkFlagRequired("out")
}

func parseNotes(s string) ([]int, error) {
	var notes []int
	for _, item := range strings.Split(s, ",") {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		note, err := strconv.Atoi(item)
		if err != nil {
			return nil, fmt.Errorf("invalid note %q: %w", item, err)
		}
		if note < 0 || note > 127 {
			return nil, fmt.Errorf("note out of range: %d", note)
		}
		notes = append(notes, note)
	}
	if len(notes) == 0 {
		return nil, fmt.Errorf("no notes")
	}
	return notes, nil
}

// buildScore places notes stagger apart and returns the total duration.
func buildScore(notes []int, velocity int, length, stagger, tail float64) ([]audio.NoteEvent, float64) {
	events := make([]audio.NoteEvent, len(notes))
	end := 0.0
	for i, note := range notes {
		start := float64(i) * stagger
		events[i] = audio.NoteEvent{Note: note, Velocity: velocity, Start: start, Length: length}
		if start+length > end {
			end = start + length
		}
	}
	return events, end + tail
}

func runRender(cmd *cobra.Command, args []string) error {
	config, err := loadConfig()
	if err != nil {
		return err
	}
	notes, err := parseNotes(renderOpts.notes)
	if err != nil {
		return err
	}
	e, err := audio.NewEngineWithSink(config, &audio.NullSink{})
	if err != nil {
		return err
	}
	defer e.Close()
	sys := e.System()
	length := sys.Resolve(renderOpts.length)
	if length <= 0 {
		return fmt.Errorf("invalid length %q", renderOpts.length)
	}
	score, duration := buildScore(notes, renderOpts.velocity, length, sys.Resolve(renderOpts.stagger), sys.Resolve(renderOpts.tail))

	ctx, stop := withSignal(context.Background())
	defer stop()
	result, err := e.Render(ctx, audio.RecOptions{RecDuration: duration, Channels: renderOpts.channels}, score)
	if err != nil {
		return err
	}
	file, err := os.Create(renderOpts.out)
	if err != nil {
		return err
	}
	defer file.Close()
	if err := audio.WriteWAV(file, result); err != nil {
		return err
	}
	log.Printf("rendered %d frames to %s\n", result.Len(), renderOpts.out)
	return file.Close()
}

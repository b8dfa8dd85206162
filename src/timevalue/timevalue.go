// Package timevalue parses duration strings into milliseconds.
//
//	"<n>Hz"                    period of a frequency, 1000/n
//	"<n>", "<n>ms"             milliseconds
//	"<n>sec", "<n>min"         seconds and minutes
//	"[hh:]mm:ss[.fff]"         clock time
//	"[bpm<n> ]l<len>[.]"       note length, "l4" is a quarter note, dots extend it
//	"[bpm<n> ]<ticks>ticks"    480 ticks per quarter note
//	"[bpm<n> ]<bars>.<beats>.<units>"
//	"<n>samples[/<rate>Hz]"    sample count at rate, or at the default rate
//
// The tempo defaults to 120 and is clamped to 5..300. Anything else is 0.
package timevalue

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	// DefaultBPM is the tempo used when a string carries no bpm prefix.
	DefaultBPM   = 120
	ticksPerBeat = 480
	minBPM       = 5
	maxBPM       = 300
)

var (
	bpmRe     = regexp.MustCompile(`(?i)^bpm(\d+(?:\.\d+)?)`)
	hzRe      = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?)Hz$`)
	lengthRe  = regexp.MustCompile(`(?i)l(\d+)?(\.*)$`)
	unitRe    = regexp.MustCompile(`(?i)^(\d+(?:\.\d+)?|\.\d+)(?:(min|sec|m)s?)?$`)
	clockRe   = regexp.MustCompile(`^(?:([0-5]?[0-9]):)?([0-5]?[0-9]):([0-5]?[0-9])(?:\.([0-9]{1,3}))?$`)
	barsRe    = regexp.MustCompile(`(\d+)\.(\d+)\.(\d+)$`)
	ticksRe   = regexp.MustCompile(`(?i)(\d+)ticks$`)
	samplesRe = regexp.MustCompile(`(?i)^(\d+)samples(?:/(\d+)Hz)?$`)
)

var dots = []float64{1, 1.5, 1.75, 1.875}

func bpm(str string) float64 {
	m := bpmRe.FindStringSubmatch(str)
	if m == nil {
		return DefaultBPM
	}
	v, _ := strconv.ParseFloat(m[1], 64)
	if v < minBPM {
		v = minBPM
	}
	if v > maxBPM {
		v = maxBPM
	}
	return v
}

func atof(s string) float64 {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// Parse converts str into milliseconds. sampleRate is used by the samples form
// when no rate is given.
func Parse(str string, sampleRate int) float64 {
	if m := hzRe.FindStringSubmatch(str); m != nil {
		hz := atof(m[1])
		if hz == 0 {
			return 0
		}
		return 1000 / hz
	}
	if m := lengthRe.FindStringSubmatch(str); m != nil {
		length := 4.0
		if m[1] != "" {
			length = atof(m[1])
		}
		if length == 0 {
			return 0
		}
		ms := 60 / bpm(str) * (4 / length) * 1000
		if len(m[2]) < len(dots) {
			ms *= dots[len(m[2])]
		}
		return ms
	}
	if m := unitRe.FindStringSubmatch(str); m != nil {
		v := atof(m[1])
		switch strings.ToLower(m[2]) {
		case "min":
			return v * 60 * 1000
		case "sec":
			return v * 1000
		}
		return v
	}
	if m := clockRe.FindStringSubmatch(str); m != nil {
		x := atof(m[1])*3600 + atof(m[2])*60 + atof(m[3])
		frac := (m[4] + "00")[:3]
		return x*1000 + atof(frac)
	}
	if m := barsRe.FindStringSubmatch(str); m != nil {
		x := (atof(m[1])*4+atof(m[2]))*ticksPerBeat + atof(m[3])
		return 60 / bpm(str) * (x / ticksPerBeat) * 1000
	}
	if m := ticksRe.FindStringSubmatch(str); m != nil {
		return 60 / bpm(str) * (atof(m[1]) / ticksPerBeat) * 1000
	}
	if m := samplesRe.FindStringSubmatch(str); m != nil {
		rate := float64(sampleRate)
		if m[2] != "" {
			rate = atof(m[2])
		}
		if rate <= 0 {
			return 0
		}
		return atof(m[1]) * 1000 / rate
	}
	return 0
}

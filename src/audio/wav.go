package audio

import (
	"errors"
	"fmt"
	"io"
	"math"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

const wavBitDepth = 16

// WriteWAV encodes a recording as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, r *RecResult) error {
	if r == nil || len(r.Buffers) == 0 {
		return errors.New("empty recording")
	}
	channels := r.Channels
	var sources [][]float64
	if channels == 2 && len(r.Buffers) == 3 {
		sources = r.Buffers[1:]
	} else {
		channels = 1
		sources = r.Buffers[:1]
	}
	nframes := len(sources[0])
	enc := wav.NewEncoder(w, r.SampleRate, wavBitDepth, channels, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: channels,
			SampleRate:  r.SampleRate,
		},
		Data:           make([]int, nframes*channels),
		SourceBitDepth: wavBitDepth,
	}
	for i := 0; i < nframes; i++ {
		for ch, src := range sources {
			buf.Data[i*channels+ch] = int(clip(src[i]) * 32767)
		}
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("failed to write wav: %w", err)
	}
	return enc.Close()
}

// ReadWAV decodes a PCM file into the layout Rec produces.
func ReadWAV(r io.ReadSeeker) (*RecResult, error) {
	dec := wav.NewDecoder(r)
	if !dec.IsValidFile() {
		return nil, errors.New("invalid wav file")
	}
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to read wav: %w", err)
	}
	channels := buf.Format.NumChannels
	if channels < 1 {
		return nil, errors.New("invalid wav file")
	}
	bitDepth := int(dec.BitDepth)
	if bitDepth == 0 {
		bitDepth = wavBitDepth
	}
	factor := math.Pow(2, float64(bitDepth-1))
	nframes := len(buf.Data) / channels
	result := &RecResult{
		SampleRate: buf.Format.SampleRate,
		Channels:   1,
	}
	mixed := make([]float64, nframes)
	if channels >= 2 {
		result.Channels = 2
		left := make([]float64, nframes)
		right := make([]float64, nframes)
		for i := 0; i < nframes; i++ {
			left[i] = float64(buf.Data[i*channels]) / factor
			right[i] = float64(buf.Data[i*channels+1]) / factor
			mixed[i] = (left[i] + right[i]) * 0.5
		}
		result.Buffers = [][]float64{mixed, left, right}
		return result, nil
	}
	for i := 0; i < nframes; i++ {
		mixed[i] = float64(buf.Data[i]) / factor
	}
	result.Buffers = [][]float64{mixed}
	return result, nil
}

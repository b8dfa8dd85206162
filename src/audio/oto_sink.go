package audio

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/hajimehoshi/oto"
)

const (
	channelNum      = 2
	bitDepthInBytes = 2
	bytesPerSample  = bitDepthInBytes * channelNum
)

// OtoSink plays streams through an oto player.
type OtoSink struct {
	otoContext        *oto.Context
	deviceRate        int
	bufferSizeInBytes int

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewOtoSink opens the output device at deviceRate.
func NewOtoSink(deviceRate int, bufferSizeInBytes int) (*OtoSink, error) {
	otoContext, err := oto.NewContext(deviceRate, channelNum, bitDepthInBytes, bufferSizeInBytes)
	if err != nil {
		return nil, err
	}
	return &OtoSink{
		otoContext:        otoContext,
		deviceRate:        deviceRate,
		bufferSizeInBytes: bufferSizeInBytes,
	}, nil
}

// Play starts a player goroutine pulling from r.
func (s *OtoSink) Play(r Renderer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	reader := newStreamReader(ctx, r, s.deviceRate)
	go func() {
		p := s.otoContext.NewPlayer()
		defer func() {
			if err := p.Close(); err != nil {
				log.Printf("failed to close player: %v\n", err)
			}
		}()
		log.Println("player started")
		// block until Pause() called
		if _, err := io.CopyBuffer(p, reader, make([]byte, s.bufferSizeInBytes)); err != nil {
			log.Printf("failed to write to player: %v\n", err)
		}
		log.Println("player stopped")
	}()
	return nil
}

// Pause stops the player. The player goroutine exits on its next read.
func (s *OtoSink) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
	return nil
}

// Close stops playing and releases the device.
func (s *OtoSink) Close() error {
	if err := s.Pause(); err != nil {
		return err
	}
	return s.otoContext.Close()
}

// streamReader converts rendered streams into interleaved 16-bit frames.
//
// When the device rate differs from the engine rate, frames are picked by
// nearest-sample stepping (samples are dropped or duplicated). This is an
// accepted approximation and is not sample accurate.
type streamReader struct {
	ctx   context.Context
	r     Renderer
	step  float64
	pos   float64
	left  []float64
	right []float64
}

func newStreamReader(ctx context.Context, r Renderer, deviceRate int) *streamReader {
	step := 1.0
	if deviceRate > 0 && deviceRate != r.SampleRate() {
		step = float64(r.SampleRate()) / float64(deviceRate)
	}
	return &streamReader{ctx: ctx, r: r, step: step}
}

func (sr *streamReader) Read(buf []byte) (int, error) {
	select {
	case <-sr.ctx.Done():
		return 0, io.EOF
	default:
	}
	n := 0
	for n+bytesPerSample <= len(buf) {
		for sr.pos >= float64(len(sr.left)) {
			sr.pos -= float64(len(sr.left))
			sr.left, sr.right = sr.r.Process()
		}
		i := int(sr.pos)
		writeFrame(buf[n:n+bytesPerSample], sr.left[i], sr.right[i])
		n += bytesPerSample
		sr.pos += sr.step
	}
	return n, nil
}

func writeFrame(buf []byte, left, right float64) {
	const max = 32767
	l := int16(clip(left) * max)
	r := int16(clip(right) * max)
	buf[0] = byte(l)
	buf[1] = byte(l >> 8)
	buf[2] = byte(r)
	buf[3] = byte(r >> 8)
}

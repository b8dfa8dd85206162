package audio

import (
	"context"
	"log"
	"strings"

	"gitlab.com/gomidi/midi"
	"gitlab.com/gomidi/rtmididrv"
)

// MidiInPorts returns the names of the available MIDI input ports.
func MidiInPorts() ([]string, error) {
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, err
	}
	defer drv.Close()
	ins, err := drv.Ins()
	if err != nil {
		return nil, err
	}
	names := make([]string, len(ins))
	for i, in := range ins {
		names[i] = in.String()
	}
	return names, nil
}

func findMidiIn(ins []midi.In, portName string) (midi.In, bool) {
	for _, in := range ins {
		if strings.Contains(in.String(), portName) {
			return in, true
		}
	}
	return nil, false
}

// ListenToMidiIn forwards raw messages from a MIDI input port until ctx is done.
// The first port whose name contains portName is opened; an empty portName picks
// the first port. The channel is closed when listening stops.
func ListenToMidiIn(ctx context.Context, portName string) <-chan []byte {
	ch := make(chan []byte, 65536)
	go func() {
		defer close(ch)
		drv, err := rtmididrv.New()
		if err != nil {
			log.Printf("failed to initialize MIDI driver: %v\n", err)
			return
		}
		defer func() {
			err := drv.Close()
			if err != nil {
				log.Printf("failed to close MIDI driver: %v\n", err)
			}
		}()
		ins, err := drv.Ins()
		if err != nil {
			log.Printf("failed to get MIDI IN: %v\n", err)
			return
		}
		log.Printf("MIDI IN: %v\n", ins)

		in, ok := findMidiIn(ins, portName)
		if !ok {
			log.Printf("[WARN] no MIDI IN matches %q\n", portName)
			return
		}
		if err := in.Open(); err != nil {
			log.Printf("failed to open MIDI IN: %v\n", err)
			return
		}
		log.Printf("opened MIDI IN %s\n", in.String())
		defer func() {
			err := in.Close()
			if err != nil {
				log.Printf("failed to close MIDI IN: %v\n", err)
			}
		}()
		if err := in.SetListener(func(data []byte, deltaMicroseconds int64) {
			if len(data) == 0 || data[0] < 0x80 || data[0] >= 0xF0 {
				return
			}
			msg := append([]byte(nil), data...)
			select {
			case ch <- msg:
			default:
				log.Println("[WARN] MIDI queue is full")
			}
		}); err != nil {
			log.Printf("failed to set MIDI listener: %v\n", err)
			return
		}
		defer func() {
			err := in.StopListening()
			if err != nil {
				log.Printf("failed to stop listening: %v\n", err)
			}
		}()
		<-ctx.Done()
	}()
	return ch
}

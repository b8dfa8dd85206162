package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jinjor/desktop-synth/src/audio"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const defaultSockFileName = "/tmp/desktop-synth.sock"

var (
	sockFileName string
	midiEnabled  bool
	midiPort     string
	listMidi     bool
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play and accept commands over a unix socket",
	Long: `Open the audio device and wait for a client on a unix socket.

The client sends one command per line, space separated and URL-escaped,
for example "note_on 60 100" or "set filter kind lowpass".
The engine reports "fft", "data" and "filter-shape" lines back.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVarP(&sockFileName, "socket", "s", defaultSockFileName, "unix socket path")
	playCmd.Flags().BoolVar(&midiEnabled, "midi", false, "listen to MIDI input")
	playCmd.Flags().StringVar(&midiPort, "midi-port", "", "substring of the MIDI input port name")
	playCmd.Flags().BoolVar(&listMidi, "list-midi", false, "print MIDI input ports and exit")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if listMidi {
		ports, err := audio.MidiInPorts()
		if err != nil {
			return err
		}
		for _, port := range ports {
			fmt.Fprintln(cmd.OutOrStdout(), port)
		}
		return nil
	}
	config, err := loadConfig()
	if err != nil {
		return err
	}
	ctx, stop := withSignal(context.Background())
	defer stop()

	e, err := audio.NewEngine(config)
	if err != nil {
		return err
	}
	defer e.Close()

	err = withIPCConnection(ctx, sockFileName, func(conn net.Conn) error {
		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return e.Start(ctx)
		})
		g.Go(func() error {
			return receiveCommands(ctx, conn, e.CommandCh)
		})
		g.Go(func() error {
			return sendReports(ctx, conn, e)
		})
		if midiEnabled {
			g.Go(func() error {
				for data := range audio.ListenToMidiIn(ctx, midiPort) {
					e.AddMidiEvent(data)
				}
				log.Println("MIDI listener ended.")
				return nil
			})
		}
		return g.Wait()
	})
	if err != nil {
		return err
	}
	log.Println("play ended.")
	return nil
}

func withIPCConnection(ctx context.Context, path string, f func(net.Conn) error) error {
	os.Remove(path)
	listener, err := new(net.ListenConfig).Listen(ctx, "unix", path)
	if err != nil {
		return err
	}
	defer func() {
		log.Println("Closing IPC...")
		err := listener.Close()
		if err != nil {
			log.Printf("failed to close listener: %v\n", err)
		}
		os.Remove(path)
	}()
	log.Printf("start listening on %s\n", path)
	conn, err := listener.Accept()
	if err != nil {
		return err
	}
	defer func() {
		err := conn.Close()
		if err != nil {
			log.Printf("failed to close connection: %v\n", err)
		}
	}()
	return f(conn)
}

func receiveCommands(ctx context.Context, conn io.Reader, commandCh chan<- []string) error {
	reader := bufio.NewReader(conn)
	var line []byte
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("Connection interrupted")
			break loop
		default:
		}
		next, isPrefix, err := reader.ReadLine()
		if err == io.EOF {
			break loop
		}
		if err != nil {
			return err
		}
		line = append(line, next...)
		if isPrefix {
			continue
		}
		command, err := parseCommand(string(line))
		if err != nil {
			return err
		}
		line = []byte{}
		if len(command) == 0 {
			continue
		}
		commandCh <- command
		log.Printf("received: %s\n", strings.Join(command, " "))
	}
	log.Println("receiveCommands() ended.")
	return nil
}

// parseCommand splits a line on spaces and unescapes each item.
func parseCommand(line string) ([]string, error) {
	items := strings.Fields(line)
	for i, item := range items {
		escaped, err := url.QueryUnescape(item)
		if err != nil {
			return nil, err
		}
		items[i] = escaped
	}
	return items, nil
}

func formatFloats(prefix string, values []float64) string {
	var b strings.Builder
	b.WriteString(prefix)
	for _, value := range values {
		b.WriteByte(' ')
		b.WriteString(strconv.FormatFloat(value, 'f', 6, 64))
	}
	b.WriteByte('\n')
	return b.String()
}

// reports returns the lines to send for the current engine state.
func reports(e *audio.Engine) []string {
	var lines []string
	if result := e.GetFFT(); result != nil {
		lines = append(lines, formatFloats("fft", result))
	}
	if e.Changes.Has("data") {
		e.Changes.Delete("data")
		lines = append(lines, "data "+string(e.ToJSON())+"\n")
	}
	if e.Changes.Has("filter-shape") {
		e.Changes.Delete("filter-shape")
		lines = append(lines, formatFloats("filter-shape", e.GetFilterShape()))
	}
	return lines
}

func sendReports(ctx context.Context, conn io.Writer, e *audio.Engine) error {
	t := time.NewTicker(time.Second / 60)
	defer t.Stop()
loop:
	for {
		select {
		case <-ctx.Done():
			log.Println("sendReports() interrupted")
			break loop
		case <-t.C:
			for _, line := range reports(e) {
				select {
				case <-ctx.Done():
					log.Println("sendReports() interrupted")
					break loop
				default:
				}
				if _, err := conn.Write([]byte(line)); err != nil {
					return err
				}
			}
		}
	}
	log.Println("sendReports() ended.")
	return nil
}

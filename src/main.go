package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/jinjor/desktop-synth/src/audio"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "desktop-synth",
	Short: "Polyphonic software synthesizer",
	Long: `desktop-synth plays a subtractive synthesizer on the default audio device.

It is driven over a unix socket (play), over HTTP (serve),
or renders notes offline into a WAV file (render).`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a JSON config file")
	rootCmd.AddCommand(playCmd, serveCmd, renderCmd)
}

func main() {
	log.SetFlags(log.Lshortfile)
	log.Printf("NumCPU: %v\n", runtime.NumCPU())
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	log.Println("main() ended.")
}

func loadConfig() (*audio.Config, error) {
	if configPath == "" {
		return &audio.Config{}, nil
	}
	return audio.LoadConfig(configPath)
}

// withSignal returns a context cancelled on interrupt or SIGTERM.
func withSignal(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-signalCh:
			log.Printf("Caught signal %s: shutting down...\n", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, func() {
		signal.Stop(signalCh)
		cancel()
	}
}

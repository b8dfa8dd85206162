package main

import (
	"context"
	"encoding/json"
	"errors"
	"io/ioutil"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jinjor/desktop-synth/src/audio"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Play and accept commands over HTTP",
	Long: `Open the audio device and serve a small HTTP API.

  POST /notes/{note}/on?velocity=100
  POST /notes/{note}/off
  POST /commands          one command per line
  GET  /sound, PUT /sound
  GET  /presets
  GET  /fft, GET /filter-shape
  GET  /health`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "127.0.0.1:8080", "listen address")
}

func runServe(cmd *cobra.Command, args []string) error {
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

	srv := &http.Server{
		Addr:         serveAddr,
		Handler:      newRouter(e),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return e.Start(ctx)
	})
	g.Go(func() error {
		log.Printf("serving on %s\n", serveAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newRouter(e *audio.Engine) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Post("/notes/{note}/on", func(w http.ResponseWriter, req *http.Request) {
		command := []string{"note_on", chi.URLParam(req, "note")}
		if v := req.URL.Query().Get("velocity"); v != "" {
			command = append(command, v)
		}
		writeCommandResult(w, e.Update(command))
	})
	r.Post("/notes/{note}/off", func(w http.ResponseWriter, req *http.Request) {
		writeCommandResult(w, e.Update([]string{"note_off", chi.URLParam(req, "note")}))
	})
	r.Post("/commands", func(w http.ResponseWriter, req *http.Request) {
		body, err := ioutil.ReadAll(req.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		for _, line := range strings.Split(string(body), "\n") {
			command, err := parseCommand(line)
			if err != nil {
				http.Error(w, err.Error(), http.StatusBadRequest)
				return
			}
			if len(command) == 0 {
				continue
			}
			if err := e.Update(command); err != nil {
				writeCommandResult(w, err)
				return
			}
		}
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/sound", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(e.ToJSON())
	})
	r.Put("/sound", func(w http.ResponseWriter, req *http.Request) {
		body, err := ioutil.ReadAll(req.Body)
		if err != nil || !json.Valid(body) {
			http.Error(w, "invalid JSON", http.StatusBadRequest)
			return
		}
		e.ApplyJSON(body)
		e.Changes.Add("data")
		e.Changes.Add("filter-shape")
		w.WriteHeader(http.StatusNoContent)
	})
	r.Get("/presets", func(w http.ResponseWriter, req *http.Request) {
		names, err := e.Presets()
		if err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}
		writeJSON(w, names)
	})
	r.Get("/fft", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, e.GetFFT())
	})
	r.Get("/filter-shape", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, e.GetFilterShape())
	})
	return r
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("failed to write response: %v\n", err)
	}
}

func writeCommandResult(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, audio.ErrUnknownCommand):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusBadRequest)
	}
}

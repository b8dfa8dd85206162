package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/jinjor/desktop-synth/src/audio"
)

func expectEqual(t *testing.T, actual interface{}, expected interface{}) {
	t.Helper()
	if !reflect.DeepEqual(actual, expected) {
		t.Fatalf("expected %v, but got %v", expected, actual)
	}
}

func expectNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func newTestEngine(t *testing.T) *audio.Engine {
	e, err := audio.NewEngineWithSink(&audio.Config{}, &audio.NullSink{})
	expectNoError(t, err)
	return e
}

func TestParseCommand(t *testing.T) {
	command, err := parseCommand("  set filter kind low%20pass ")
	expectNoError(t, err)
	expectEqual(t, command, []string{"set", "filter", "kind", "low pass"})

	command, err = parseCommand("")
	expectNoError(t, err)
	expectEqual(t, len(command), 0)

	_, err = parseCommand("set %zz")
	expectEqual(t, err != nil, true)
}

func TestFormatFloats(t *testing.T) {
	expectEqual(t, formatFloats("fft", []float64{0.5, 1}), "fft 0.500000 1.000000\n")
	expectEqual(t, formatFloats("fft", nil), "fft\n")
}

func TestParseNotes(t *testing.T) {
	notes, err := parseNotes("60, 64,67,")
	expectNoError(t, err)
	expectEqual(t, notes, []int{60, 64, 67})

	_, err = parseNotes("")
	expectEqual(t, err != nil, true)
	_, err = parseNotes("60,x")
	expectEqual(t, err != nil, true)
	_, err = parseNotes("128")
	expectEqual(t, err != nil, true)
}

func TestBuildScore(t *testing.T) {
	score, duration := buildScore([]int{60, 64, 67}, 90, 500, 100, 1000)
	expectEqual(t, len(score), 3)
	expectEqual(t, score[0], audio.NoteEvent{Note: 60, Velocity: 90, Start: 0, Length: 500})
	expectEqual(t, score[2].Start, 200.0)
	expectEqual(t, duration, 1700.0)

	_, duration = buildScore([]int{60}, 100, 500, 0, 0)
	expectEqual(t, duration, 500.0)
}

func TestReceiveCommands(t *testing.T) {
	commandCh := make(chan []string, 10)
	input := "note_on 60 100\n\nnote_off 60\nset osc kind saw\n"
	err := receiveCommands(context.Background(), strings.NewReader(input), commandCh)
	expectNoError(t, err)
	close(commandCh)
	var received [][]string
	for command := range commandCh {
		received = append(received, command)
	}
	expectEqual(t, received, [][]string{
		{"note_on", "60", "100"},
		{"note_off", "60"},
		{"set", "osc", "kind", "saw"},
	})
}

func TestReceiveCommandsInvalidEscape(t *testing.T) {
	commandCh := make(chan []string, 10)
	err := receiveCommands(context.Background(), strings.NewReader("set %zz\n"), commandCh)
	expectEqual(t, err != nil, true)
	expectEqual(t, len(commandCh), 0)
}

func TestReports(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()

	lines := reports(e)
	expectEqual(t, len(lines), 1)
	expectEqual(t, strings.HasPrefix(lines[0], "fft "), true)

	expectNoError(t, e.Update([]string{"set", "filter", "freq", "500"}))
	lines = reports(e)
	expectEqual(t, len(lines), 3)
	expectEqual(t, strings.HasPrefix(lines[1], "data {"), true)
	expectEqual(t, strings.HasPrefix(lines[2], "filter-shape "), true)
	expectEqual(t, len(reports(e)), 1)
}

func TestSendReports(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()
	expectNoError(t, e.Update([]string{"mono"}))

	var b strings.Builder
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	expectNoError(t, sendReports(ctx, &b, e))
	out := b.String()
	expectEqual(t, strings.HasPrefix(out, "fft "), true)
	expectEqual(t, strings.Count(out, "\ndata {"), 1)
}

func serve(h http.Handler, method string, target string, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRouterNotes(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()
	r := newRouter(e)

	expectEqual(t, serve(r, "GET", "/health", "").Code, http.StatusOK)
	expectEqual(t, serve(r, "POST", "/notes/60/on?velocity=90", "").Code, http.StatusNoContent)
	expectEqual(t, serve(r, "POST", "/notes/60/off", "").Code, http.StatusNoContent)
	expectEqual(t, serve(r, "POST", "/notes/128/on", "").Code, http.StatusBadRequest)
	expectEqual(t, serve(r, "POST", "/notes/x/off", "").Code, http.StatusBadRequest)
	expectEqual(t, serve(r, "GET", "/notes/60/on", "").Code, http.StatusMethodNotAllowed)
}

func TestRouterCommands(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()
	r := newRouter(e)

	rec := serve(r, "POST", "/commands", "note_on 60\n\nset amp 0.5\nall_note_off\n")
	expectEqual(t, rec.Code, http.StatusNoContent)
	expectEqual(t, e.System().Amp(), 0.5)

	expectEqual(t, serve(r, "POST", "/commands", "unknown 1").Code, http.StatusNotFound)
	expectEqual(t, serve(r, "POST", "/commands", "note_on").Code, http.StatusBadRequest)
	expectEqual(t, serve(r, "POST", "/commands", "set %zz").Code, http.StatusBadRequest)
}

func TestRouterSound(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()
	r := newRouter(e)

	rec := serve(r, "GET", "/sound", "")
	expectEqual(t, rec.Code, http.StatusOK)
	expectEqual(t, rec.Header().Get("Content-Type"), "application/json")
	var sound struct {
		Params struct {
			Amp  float64 `json:"amp"`
			Poly int     `json:"poly"`
		} `json:"params"`
	}
	expectNoError(t, json.Unmarshal(rec.Body.Bytes(), &sound))
	expectEqual(t, sound.Params.Amp, e.System().Amp())

	expectEqual(t, serve(r, "PUT", "/sound", `{"params":{"amp":0.3,"poly":2}}`).Code, http.StatusNoContent)
	expectEqual(t, e.System().Amp(), 0.3)
	expectEqual(t, e.Changes.Has("data"), true)
	expectEqual(t, serve(r, "PUT", "/sound", "{").Code, http.StatusBadRequest)

	rec = serve(r, "GET", "/sound", "")
	expectNoError(t, json.Unmarshal(rec.Body.Bytes(), &sound))
	expectEqual(t, sound.Params.Poly, 2)
}

func TestRouterAnalysis(t *testing.T) {
	e := newTestEngine(t)
	defer e.Close()
	r := newRouter(e)

	var values []float64
	rec := serve(r, "GET", "/fft", "")
	expectEqual(t, rec.Code, http.StatusOK)
	expectNoError(t, json.Unmarshal(rec.Body.Bytes(), &values))
	expectEqual(t, len(values), len(e.GetFFT()))

	rec = serve(r, "GET", "/filter-shape", "")
	expectEqual(t, rec.Code, http.StatusOK)
	expectNoError(t, json.Unmarshal(rec.Body.Bytes(), &values))
	expectEqual(t, len(values), len(e.GetFilterShape()))

	expectEqual(t, serve(r, "GET", "/presets", "").Code, http.StatusNotFound)
}

package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hoptrace/hoptrace/internal/capture"
)

// ServeCmd runs a demo pipeline server with the capture middleware mounted.
// It stands in for the real workout service so operators can record sessions
// end to end: import a workout, sync it to the phone, store it on the backend.
type ServeCmd struct {
	Addr string `default:"${config_serve_addr}" help:"Address to listen on"`
}

// Run executes the serve command
func (c *ServeCmd) Run(globals *Globals) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle signals for graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	opts := []capture.Option{
		capture.WithLogger(newServeLogger(globals.Verbose)),
	}
	if points := configuredCapturePoints(globals); points != nil {
		opts = append(opts, capture.WithCapturePoints(points))
	}
	mw := capture.NewMiddleware(globals.CaptureDir, opts...)

	srv := &http.Server{
		Addr:    c.Addr,
		Handler: mw.Wrap(newPipelineHandler()),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	if !globals.Quiet {
		fmt.Fprintf(globals.Stdout, "Pipeline server listening on %s (captures -> %s)\n", c.Addr, globals.CaptureDir)
		fmt.Fprintf(globals.Stdout, "Activate capture with header '%s: session-name=<name>' or %s=true\n",
			capture.Header, capture.EnvVar)
	}

	select {
	case <-ctx.Done():
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return outputErrorCommon(globals, "SERVE_FAILED", err.Error())
	}
}

// configuredCapturePoints translates config route entries into the
// middleware's map, or nil when the config leaves routes empty.
func configuredCapturePoints(globals *Globals) map[capture.Route]string {
	if globals.Config == nil || len(globals.Config.Capture.Routes) == 0 {
		return nil
	}
	points := make(map[capture.Route]string, len(globals.Config.Capture.Routes))
	for _, rc := range globals.Config.Capture.Routes {
		points[capture.Route{Method: rc.Method, Path: rc.Path}] = rc.Point
	}
	return points
}

// newPipelineHandler builds the demo workout pipeline. State is in-memory
// and per-process; the point is producing realistic capture traffic.
func newPipelineHandler() http.Handler {
	store := &workoutStore{}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/workouts/import/stream", func(w http.ResponseWriter, r *http.Request) {
		var payload any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
			return
		}
		store.put(payload)
		writeJSON(w, http.StatusOK, map[string]any{"status": "imported", "workout": payload})
	})
	mux.HandleFunc("GET /workouts/incoming", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "pending", "workout": store.get()})
	})
	mux.HandleFunc("POST /api/workouts/save/stream", func(w http.ResponseWriter, r *http.Request) {
		var payload any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]any{"error": "invalid JSON body"})
			return
		}
		store.put(payload)
		writeJSON(w, http.StatusOK, map[string]any{"status": "stored", "workout": payload})
	})
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
	})
	return mux
}

type workoutStore struct {
	mu     sync.Mutex
	latest any
}

func (s *workoutStore) put(w any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.latest = w
}

func (s *workoutStore) get() any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.latest
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

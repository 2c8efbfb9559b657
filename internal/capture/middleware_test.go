package capture

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newPipelineApp builds a small workout pipeline server with the capture
// middleware mounted, mirroring the endpoints the middleware watches by
// default.
func newPipelineApp(captureDir string, opts ...Option) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/workouts/import/stream", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "ok", "url": body["url"]})
	})
	mux.HandleFunc("POST /api/workouts/save/stream", func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"saved": true, "preview_id": body["preview_id"]})
	})
	mux.HandleFunc("GET /workouts/incoming", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"workouts": []any{}})
	})
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status": "healthy"})
	})
	mux.HandleFunc("GET /events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"tick\":1}\n\n")
	})

	return NewMiddleware(captureDir, opts...).Wrap(mux)
}

func findSnapshots(t *testing.T, captureDir string) []string {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(captureDir, "*", "*.json"))
	require.NoError(t, err)
	sort.Strings(matches)
	return matches
}

func doRequest(app http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	app.ServeHTTP(w, req)
	return w
}

func TestMiddleware(t *testing.T) {
	t.Run("unmatched endpoint passes through with no side effects", func(t *testing.T) {
		dir := t.TempDir()
		app := newPipelineApp(dir)

		resp := doRequest(app, "GET", "/health", "", map[string]string{Header: "session-name=test"})
		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"status":"healthy"}`, resp.Body.String())
		assert.Empty(t, findSnapshots(t, dir))
	})

	t.Run("header activation writes a snapshot", func(t *testing.T) {
		dir := t.TempDir()
		app := newPipelineApp(dir)

		resp := doRequest(app, "POST", "/api/workouts/import/stream",
			`{"url":"https://youtube.com/watch?v=abc"}`,
			map[string]string{Header: "session-name=my-test"})
		require.Equal(t, http.StatusOK, resp.Code)

		files := findSnapshots(t, dir)
		require.Len(t, files, 1)

		data := readSnapshotFile(t, files[0])
		assert.Equal(t, "web-ingest", data["capture_point"])
		assert.Equal(t, "my-test", data["session"])
		assert.Equal(t, "/api/workouts/import/stream", data["endpoint"])
		assert.Equal(t, "POST", data["method"])
		assert.Equal(t, map[string]any{"url": "https://youtube.com/watch?v=abc"}, data["request_payload"])
		assert.EqualValues(t, 200, data["response_status"])
		assert.Equal(t, false, data["streaming"])
	})

	t.Run("env var activation captures into the default session", func(t *testing.T) {
		t.Setenv(EnvVar, "true")
		dir := t.TempDir()
		app := newPipelineApp(dir)

		resp := doRequest(app, "GET", "/workouts/incoming", "", nil)
		require.Equal(t, http.StatusOK, resp.Code)

		files := findSnapshots(t, dir)
		require.Len(t, files, 1)

		data := readSnapshotFile(t, files[0])
		assert.Equal(t, "phone-sync-request", data["capture_point"])
		assert.Equal(t, DefaultSessionName, data["session"])
		assert.Equal(t, map[string]any{"workouts": []any{}}, data["response_payload"])
		assert.Equal(t, false, data["streaming"])
	})

	t.Run("no activation means no capture", func(t *testing.T) {
		dir := t.TempDir()
		app := newPipelineApp(dir)

		resp := doRequest(app, "POST", "/api/workouts/import/stream",
			`{"url":"https://youtube.com/watch?v=abc"}`, nil)
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Empty(t, findSnapshots(t, dir))
	})

	t.Run("captures in one session are sequential", func(t *testing.T) {
		dir := t.TempDir()
		app := newPipelineApp(dir)
		headers := map[string]string{Header: "session-name=multi-test"}

		doRequest(app, "POST", "/api/workouts/import/stream", `{"url":"https://youtube.com/1"}`, headers)
		doRequest(app, "POST", "/api/workouts/save/stream", `{"preview_id":"p1"}`, headers)

		files := findSnapshots(t, dir)
		require.Len(t, files, 2)
		assert.Equal(t, "001_web-ingest.json", filepath.Base(files[0]))
		assert.Equal(t, "002_backend-stored.json", filepath.Base(files[1]))
	})

	t.Run("repeated capture point never overwrites", func(t *testing.T) {
		dir := t.TempDir()
		app := newPipelineApp(dir)
		headers := map[string]string{Header: "session-name=dup-test"}

		doRequest(app, "POST", "/api/workouts/import/stream", `{"url":"https://youtube.com/1"}`, headers)
		doRequest(app, "POST", "/api/workouts/import/stream", `{"url":"https://youtube.com/2"}`, headers)

		files := findSnapshots(t, dir)
		require.Len(t, files, 2)
		assert.Equal(t, "001_web-ingest.json", filepath.Base(files[0]))
		assert.Equal(t, "002_web-ingest.json", filepath.Base(files[1]))

		first := readSnapshotFile(t, files[0])["request_payload"].(map[string]any)
		second := readSnapshotFile(t, files[1])["request_payload"].(map[string]any)
		assert.Equal(t, "https://youtube.com/1", first["url"])
		assert.Equal(t, "https://youtube.com/2", second["url"])
	})

	t.Run("credential headers are masked in snapshots", func(t *testing.T) {
		dir := t.TempDir()
		app := newPipelineApp(dir)

		doRequest(app, "POST", "/api/workouts/import/stream", `{"url":"https://example.com"}`,
			map[string]string{
				Header:          "session-name=auth-test",
				"Authorization": "Bearer secret-token",
			})

		files := findSnapshots(t, dir)
		require.Len(t, files, 1)

		headers := readSnapshotFile(t, files[0])["request_headers"].(map[string]any)
		assert.Equal(t, HeaderMask, headers["Authorization"])
		assert.Equal(t, "application/json", headers["Content-Type"])
	})

	t.Run("event stream responses are recorded without a payload", func(t *testing.T) {
		dir := t.TempDir()
		app := newPipelineApp(dir, WithCapturePoints(map[Route]string{
			{Method: http.MethodGet, Path: "/events"}: "web-ingest",
		}))

		resp := doRequest(app, "GET", "/events", "", map[string]string{Header: "session-name=sse-test"})
		require.Equal(t, http.StatusOK, resp.Code)
		assert.Contains(t, resp.Body.String(), "data:")

		files := findSnapshots(t, dir)
		require.Len(t, files, 1)

		data := readSnapshotFile(t, files[0])
		assert.Equal(t, true, data["streaming"])
		assert.Nil(t, data["response_payload"])
	})

	t.Run("write failure never breaks the response", func(t *testing.T) {
		// Point the capture root at a regular file so MkdirAll fails.
		tmp := t.TempDir()
		blocked := filepath.Join(tmp, "not-a-dir")
		require.NoError(t, os.WriteFile(blocked, []byte("x"), 0o644))

		var outcome Outcome
		app := newPipelineApp(blocked, WithOutcomeFunc(func(o Outcome) { outcome = o }))

		resp := doRequest(app, "POST", "/api/workouts/import/stream",
			`{"url":"https://example.com"}`,
			map[string]string{Header: "session-name=fail-test"})

		assert.Equal(t, http.StatusOK, resp.Code)
		assert.JSONEq(t, `{"status":"ok","url":"https://example.com"}`, resp.Body.String())
		assert.False(t, outcome.Written)
		assert.NotEmpty(t, outcome.Reason)
	})

	t.Run("custom capture points override the defaults", func(t *testing.T) {
		dir := t.TempDir()
		app := newPipelineApp(dir, WithCapturePoints(map[Route]string{
			{Method: http.MethodGet, Path: "/health"}: "health-check",
		}))

		resp := doRequest(app, "GET", "/health", "", map[string]string{Header: "session-name=custom-test"})
		require.Equal(t, http.StatusOK, resp.Code)

		files := findSnapshots(t, dir)
		require.Len(t, files, 1)
		assert.Equal(t, "health-check", readSnapshotFile(t, files[0])["capture_point"])
	})
}

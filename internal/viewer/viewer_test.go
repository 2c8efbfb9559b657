package viewer

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hoptrace/hoptrace/internal/domain"
)

func writeSnap(t *testing.T, captureDir, session, name string, snap domain.Snapshot) {
	t.Helper()
	dir := filepath.Join(captureDir, session)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	b, err := json.Marshal(snap)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), b, 0o644))
}

func TestGenerateHTML(t *testing.T) {
	dir := t.TempDir()
	writeSnap(t, dir, "s1", "001_web-ingest.json", domain.Snapshot{
		CapturePoint:    "web-ingest",
		Session:         "s1",
		Timestamp:       100,
		Endpoint:        "/api/workouts/import/stream",
		Method:          "POST",
		ResponsePayload: map[string]any{"id": "w_1"},
	})

	page, err := GenerateHTML(dir, "s1")
	require.NoError(t, err)
	assert.Contains(t, page, "Session: s1")
	assert.Contains(t, page, "web-ingest")
	assert.Contains(t, page, "CLEAN")
}

func TestGenerateHTMLEscapesScriptBreakout(t *testing.T) {
	dir := t.TempDir()
	writeSnap(t, dir, "s1", "001_web-ingest.json", domain.Snapshot{
		CapturePoint:    "web-ingest",
		Session:         "s1",
		Timestamp:       100,
		ResponsePayload: map[string]any{"note": "</script><script>alert(1)</script>"},
	})

	page, err := GenerateHTML(dir, "s1")
	require.NoError(t, err)
	assert.NotContains(t, page, "</script><script>alert(1)")
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	writeSnap(t, dir, "alpha", "001_web-ingest.json", domain.Snapshot{CapturePoint: "web-ingest", Timestamp: 100})
	writeSnap(t, dir, "beta", "001_web-ingest.json", domain.Snapshot{CapturePoint: "web-ingest", Timestamp: 100})

	sessions, err := Generate(dir)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"alpha", "beta"}, sessions)

	for _, s := range sessions {
		_, err := os.Stat(filepath.Join(dir, s, FileName))
		assert.NoError(t, err)
	}
}

func TestHandlerServesViewerPages(t *testing.T) {
	dir := t.TempDir()
	writeSnap(t, dir, "s1", "001_web-ingest.json", domain.Snapshot{CapturePoint: "web-ingest", Timestamp: 100})
	_, err := Generate(dir)
	require.NoError(t, err)

	srv := httptest.NewServer(Handler(dir))
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/s1/" + FileName)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

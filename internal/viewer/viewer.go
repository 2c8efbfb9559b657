// Package viewer generates a static interactive trace viewer for captured
// sessions and serves the capture directory over HTTP.
package viewer

import (
	"encoding/json"
	"fmt"
	"html"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/hoptrace/hoptrace/internal/domain"
	"github.com/hoptrace/hoptrace/internal/replay"
)

// FileName is the viewer page written into each session directory.
const FileName = "trace-viewer.html"

// GenerateHTML builds the trace viewer page for one session: a snapshot
// timeline on the left, payload and diff detail on the right, all data
// embedded so the page works as a plain static file.
func GenerateHTML(captureDir, sessionName string) (string, error) {
	snapshots := replay.LoadSession(captureDir, sessionName)
	result := replay.ReplaySession(captureDir, sessionName, nil)
	if snapshots == nil {
		snapshots = []domain.Snapshot{}
	}
	if result.Diffs == nil {
		result.Diffs = []domain.HopDiff{}
	}

	snapshotsJSON, err := json.Marshal(snapshots)
	if err != nil {
		return "", err
	}
	diffsJSON, err := json.Marshal(result.Diffs)
	if err != nil {
		return "", err
	}

	status := "clean"
	if !result.IsClean {
		status = "corrupted"
	}

	return fmt.Sprintf(pageTemplate,
		html.EscapeString(sessionName),
		html.EscapeString(sessionName),
		status,
		strings.ToUpper(status),
		escapeScript(string(snapshotsJSON)),
		escapeScript(string(diffsJSON)),
	), nil
}

// Generate writes a trace-viewer.html into every session directory under
// captureDir and returns the session names processed.
func Generate(captureDir string) ([]string, error) {
	entries, err := os.ReadDir(captureDir)
	if err != nil {
		return nil, err
	}

	var generated []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		page, err := GenerateHTML(captureDir, entry.Name())
		if err != nil {
			return generated, err
		}
		out := filepath.Join(captureDir, entry.Name(), FileName)
		if err := os.WriteFile(out, []byte(page), 0o644); err != nil {
			return generated, err
		}
		generated = append(generated, entry.Name())
	}
	return generated, nil
}

// Handler serves the capture directory, viewer pages included.
func Handler(captureDir string) http.Handler {
	return http.FileServer(http.Dir(captureDir))
}

// escapeScript keeps embedded JSON from breaking out of its script tag.
func escapeScript(s string) string {
	return strings.ReplaceAll(s, "</script>", "<\\/script>")
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Trace Viewer - %s</title>
<style>
* { box-sizing: border-box; margin: 0; padding: 0; }
body { font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; background: #1a1a2e; color: #eee; line-height: 1.6; }
.header { background: #16213e; padding: 20px; border-bottom: 2px solid #0f3460; }
.header h1 { color: #00d9ff; font-size: 1.5rem; display: inline-block; }
.status { display: inline-block; padding: 4px 12px; border-radius: 4px; font-weight: bold; margin-left: 10px; }
.status.clean { background: #28a745; color: white; }
.status.corrupted { background: #dc3545; color: white; }
.container { display: flex; min-height: calc(100vh - 80px); }
.timeline { width: 280px; background: #16213e; padding: 20px; border-right: 1px solid #0f3460; overflow-y: auto; }
.timeline h2 { font-size: 1rem; margin-bottom: 12px; color: #00d9ff; }
.hop { padding: 10px; margin-bottom: 8px; background: #0f3460; border-radius: 6px; cursor: pointer; }
.hop:hover, .hop.active { background: #1f4a80; }
.hop .point { font-weight: bold; }
.hop .meta { font-size: 0.8rem; color: #9ab; }
.detail { flex: 1; padding: 20px; overflow-x: auto; }
.detail h2 { font-size: 1rem; color: #00d9ff; margin: 12px 0; }
pre { background: #0f1626; padding: 12px; border-radius: 6px; font-size: 0.85rem; overflow-x: auto; }
table { border-collapse: collapse; width: 100%%; margin-top: 8px; }
th, td { text-align: left; padding: 6px 10px; border-bottom: 1px solid #0f3460; font-size: 0.85rem; }
.t-added { color: #28a745; }
.t-removed { color: #dc3545; }
.t-changed, .t-type_changed { color: #ffc107; }
</style>
</head>
<body>
<div class="header">
  <h1>Session: %s</h1>
  <span class="status %s">%s</span>
</div>
<div class="container">
  <div class="timeline">
    <h2>Pipeline Hops</h2>
    <div id="hops"></div>
  </div>
  <div class="detail">
    <h2>Diffs</h2>
    <table id="diffs"><thead><tr><th>Hop</th><th>Path</th><th>Type</th><th>Old</th><th>New</th></tr></thead><tbody></tbody></table>
    <h2>Snapshot</h2>
    <pre id="snapshot">Select a hop on the left.</pre>
  </div>
</div>
<script>
const snapshots = %s;
const diffs = %s;

const hops = document.getElementById('hops');
snapshots.forEach((s, i) => {
  const div = document.createElement('div');
  div.className = 'hop';
  const when = new Date(s.timestamp * 1000).toLocaleTimeString();
  div.innerHTML = '<div class="point"></div><div class="meta"></div>';
  div.querySelector('.point').textContent = s.capture_point;
  div.querySelector('.meta').textContent = s.method + ' ' + s.endpoint + ' @ ' + when;
  div.onclick = () => {
    document.querySelectorAll('.hop').forEach(h => h.classList.remove('active'));
    div.classList.add('active');
    document.getElementById('snapshot').textContent = JSON.stringify(s, null, 2);
  };
  hops.appendChild(div);
});

const tbody = document.querySelector('#diffs tbody');
diffs.forEach(d => {
  const tr = document.createElement('tr');
  ['hop_name', 'path', 'type'].forEach(k => {
    const td = document.createElement('td');
    td.textContent = d[k];
    if (k === 'type') td.className = 't-' + d[k];
    tr.appendChild(td);
  });
  [d.old_value, d.new_value].forEach(v => {
    const td = document.createElement('td');
    td.textContent = v === null ? 'N/A' : JSON.stringify(v);
    tr.appendChild(td);
  });
  tbody.appendChild(tr);
});
</script>
</body>
</html>
`

package replay

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/hoptrace/hoptrace/internal/domain"
)

// LoadSession reads every snapshot recorded for a session, sorted by
// capture timestamp. Unreadable or malformed files are skipped; a missing
// session directory loads as empty.
func LoadSession(captureDir, sessionName string) []domain.Snapshot {
	entries, err := os.ReadDir(filepath.Join(captureDir, sessionName))
	if err != nil {
		return nil
	}

	var snapshots []domain.Snapshot
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || name == "metadata.json" {
			continue
		}
		b, err := os.ReadFile(filepath.Join(captureDir, sessionName, name))
		if err != nil {
			continue
		}
		var snap domain.Snapshot
		if err := json.Unmarshal(b, &snap); err != nil {
			continue
		}
		snapshots = append(snapshots, snap)
	}

	sort.SliceStable(snapshots, func(i, j int) bool {
		return snapshots[i].Timestamp < snapshots[j].Timestamp
	})
	return snapshots
}

// SessionInfo summarizes one recorded session for listings.
type SessionInfo struct {
	Name         string    `json:"name"`
	Snapshots    int       `json:"snapshots"`
	FirstCapture time.Time `json:"first_capture,omitzero"`
}

// ListSessions returns a summary of every session directory under
// captureDir, sorted by name. A missing capture root lists as empty.
func ListSessions(captureDir string) []SessionInfo {
	entries, err := os.ReadDir(captureDir)
	if err != nil {
		return nil
	}

	var sessions []SessionInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info := SessionInfo{Name: entry.Name()}
		if snaps := LoadSession(captureDir, entry.Name()); len(snaps) > 0 {
			info.Snapshots = len(snaps)
			sec, frac := int64(snaps[0].Timestamp), snaps[0].Timestamp
			info.FirstCapture = time.Unix(sec, int64((frac-float64(sec))*1e9))
		}
		sessions = append(sessions, info)
	}

	sort.Slice(sessions, func(i, j int) bool { return sessions[i].Name < sessions[j].Name })
	return sessions
}

// Package analytics folds per-run metadata records into pipeline health,
// trend, and breakdown reports. Records come from metadata.json files
// produced by the run harness; anything malformed or incomplete is skipped
// so one bad record never sinks a whole report.
package analytics

import (
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
)

// HopTiming is the recorded latency for one hop in one run.
type HopTiming struct {
	LatencyMS float64 `json:"latency_ms"`
}

// HopDiffCount is the recorded diff count for one hop in one run.
type HopDiffCount struct {
	DiffCount int `json:"diff_count"`
}

// Tags label a run for breakdown grouping.
type Tags struct {
	WorkoutType string `json:"workout_type"`
	Source      string `json:"source"`
	DeviceType  string `json:"device_type"`
}

// Metadata is one run's summary record.
type Metadata struct {
	Timestamp   float64                 `json:"timestamp"`
	Timing      map[string]HopTiming    `json:"timing"`
	DiffSummary map[string]HopDiffCount `json:"diff_summary"`
	Tags        Tags                    `json:"tags"`
}

// Corrupt reports whether any hop in the run recorded at least one diff.
func (m *Metadata) Corrupt() bool {
	for _, d := range m.DiffSummary {
		if d.DiffCount > 0 {
			return true
		}
	}
	return false
}

// loadMetadata reads one metadata.json; the second return is false when the
// file is unreadable or malformed.
func loadMetadata(path string) (*Metadata, bool) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var m Metadata
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, false
	}
	return &m, true
}

// findMetadataFiles scans captureDir recursively for metadata.json files.
// Unreadable directories are skipped.
func findMetadataFiles(captureDir string) []string {
	info, err := os.Stat(captureDir)
	if err != nil || !info.IsDir() {
		return nil
	}

	var files []string
	filepath.WalkDir(captureDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && d.Name() == "metadata.json" {
			files = append(files, path)
		}
		return nil
	})
	return files
}

// eachMetadata invokes fn for every loadable metadata record under
// captureDir.
func eachMetadata(captureDir string, fn func(*Metadata)) {
	for _, path := range findMetadataFiles(captureDir) {
		if m, ok := loadMetadata(path); ok {
			fn(m)
		}
	}
}

// Package output renders engine results for operators (tables) and agents
// (NDJSON, one JSON object per line with a type discriminator).
package output

import (
	"encoding/json"
	"io"

	"github.com/hoptrace/hoptrace/internal/analytics"
	"github.com/hoptrace/hoptrace/internal/domain"
	"github.com/hoptrace/hoptrace/internal/replay"
)

const schemaVersion = 1

// NDJSONWriter emits machine-readable result lines.
type NDJSONWriter struct {
	enc *json.Encoder
}

// NewNDJSONWriter creates a writer emitting to w.
func NewNDJSONWriter(w io.Writer) *NDJSONWriter {
	return &NDJSONWriter{enc: json.NewEncoder(w)}
}

func (w *NDJSONWriter) write(m map[string]any) error {
	m["schemaVersion"] = schemaVersion
	return w.enc.Encode(m)
}

// WriteSessionList emits one session_list line.
func (w *NDJSONWriter) WriteSessionList(sessions []replay.SessionInfo) error {
	return w.write(map[string]any{
		"type":     "session_list",
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// WriteReplayResult emits one replay_result line. Snapshots are reduced to
// their capture points; the full diff list is always included.
func (w *NDJSONWriter) WriteReplayResult(result domain.ReplayResult) error {
	return w.write(map[string]any{
		"type":                 "replay_result",
		"session":              result.SessionName,
		"snapshot_count":       len(result.Snapshots),
		"stages":               result.StagesSeen(),
		"is_clean":             result.IsClean,
		"first_corruption_hop": result.FirstCorruptionHop,
		"diffs":                result.Diffs,
	})
}

// WriteHealth emits one health_report line.
func (w *NDJSONWriter) WriteHealth(hops []analytics.HopHealth) error {
	rows := make([]map[string]any, 0, len(hops))
	for _, h := range hops {
		rows = append(rows, map[string]any{
			"name":           h.Name,
			"total_runs":     h.TotalRuns,
			"clean_runs":     h.CleanRuns,
			"clean_rate":     h.CleanRate(),
			"avg_latency_ms": h.AvgLatencyMS,
		})
	}
	return w.write(map[string]any{"type": "health_report", "hops": rows})
}

// WriteTrends emits one trend_report line.
func (w *NDJSONWriter) WriteTrends(trends []analytics.WeeklyTrend) error {
	rows := make([]map[string]any, 0, len(trends))
	for _, t := range trends {
		rows = append(rows, map[string]any{
			"week_start":      t.WeekStart,
			"total_runs":      t.TotalRuns,
			"corrupt_runs":    t.CorruptRuns,
			"corruption_rate": t.CorruptionRate(),
		})
	}
	return w.write(map[string]any{"type": "trend_report", "weeks": rows})
}

// WriteBreakdown emits one breakdown_report line.
func (w *NDJSONWriter) WriteBreakdown(b analytics.Breakdown) error {
	group := func(stats []analytics.GroupStat) []map[string]any {
		rows := make([]map[string]any, 0, len(stats))
		for _, g := range stats {
			rows = append(rows, map[string]any{
				"label":           g.Label,
				"total_runs":      g.TotalRuns,
				"corrupt_runs":    g.CorruptRuns,
				"corruption_rate": g.CorruptionRate(),
			})
		}
		return rows
	}
	return w.write(map[string]any{
		"type":      "breakdown_report",
		"by_type":   group(b.ByType),
		"by_source": group(b.BySource),
		"by_device": group(b.ByDevice),
	})
}

// WriteError emits one error line so agents always get machine-readable
// failures.
func (w *NDJSONWriter) WriteError(code, message string, hint ...string) error {
	m := map[string]any{
		"type":    "error",
		"code":    code,
		"message": message,
	}
	if len(hint) > 0 && hint[0] != "" {
		m["hint"] = hint[0]
	}
	return w.write(m)
}

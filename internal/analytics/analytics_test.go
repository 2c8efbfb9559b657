package analytics

import (
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeMetadata drops a metadata.json under its own run directory.
func writeMetadata(t *testing.T, captureDir, run, content string) {
	t.Helper()
	dir := filepath.Join(captureDir, run)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "metadata.json"), []byte(content), 0o644))
}

const cleanRun = `{
  "timestamp": 1756000000,
  "timing": {"web-ingest": {"latency_ms": 120}, "backend-stored": {"latency_ms": 80}},
  "diff_summary": {"backend-stored": {"diff_count": 0}},
  "tags": {"workout_type": "running", "source": "youtube", "device_type": "garmin"}
}`

const corruptRun = `{
  "timestamp": 1756000000,
  "timing": {"web-ingest": {"latency_ms": 200}, "backend-stored": {"latency_ms": 100}},
  "diff_summary": {"backend-stored": {"diff_count": 3}},
  "tags": {"workout_type": "cycling", "source": "manual", "device_type": "apple"}
}`

func TestHealthReport(t *testing.T) {
	t.Run("nonexistent directory reports empty", func(t *testing.T) {
		assert.Empty(t, HealthReport(filepath.Join(t.TempDir(), "nope")))
	})

	t.Run("empty directory reports empty", func(t *testing.T) {
		assert.Empty(t, HealthReport(t.TempDir()))
	})

	t.Run("aggregates totals, clean counts and latency per hop", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, "run1", cleanRun)
		writeMetadata(t, dir, "run2", corruptRun)

		report := HealthReport(dir)
		require.Len(t, report, 2)

		// Sorted by hop name.
		backend := report[0]
		web := report[1]
		assert.Equal(t, "backend-stored", backend.Name)
		assert.Equal(t, "web-ingest", web.Name)

		assert.Equal(t, 2, web.TotalRuns)
		assert.Equal(t, 1, web.CleanRuns)
		assert.InDelta(t, 160.0, web.AvgLatencyMS, 0.001)
		assert.InDelta(t, 50.0, web.CleanRate(), 0.001)

		assert.InDelta(t, 90.0, backend.AvgLatencyMS, 0.001)
	})

	t.Run("malformed metadata is skipped", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, "run1", cleanRun)
		writeMetadata(t, dir, "run2", "{broken")

		report := HealthReport(dir)
		require.Len(t, report, 2)
		assert.Equal(t, 1, report[0].TotalRuns)
	})

	t.Run("zero runs never divide", func(t *testing.T) {
		h := HopHealth{Name: "web-ingest"}
		assert.Equal(t, 0.0, h.CleanRate())
	})
}

func TestWeekKey(t *testing.T) {
	// 2026-08-26 is a Wednesday; its week starts Monday 2026-08-24.
	wed := time.Date(2026, 8, 26, 15, 0, 0, 0, time.Local)
	key, ok := WeekKey(float64(wed.Unix()))
	require.True(t, ok)
	assert.Equal(t, "2026-08-24", key)

	// A Monday maps to itself.
	mon := time.Date(2026, 8, 24, 1, 0, 0, 0, time.Local)
	key, ok = WeekKey(float64(mon.Unix()))
	require.True(t, ok)
	assert.Equal(t, "2026-08-24", key)
}

func TestTrendReport(t *testing.T) {
	metaAt := func(ts int64, corrupt bool) string {
		diffCount := "0"
		if corrupt {
			diffCount = "2"
		}
		return `{
  "timestamp": ` + timeString(ts) + `,
  "timing": {"web-ingest": {"latency_ms": 100}},
  "diff_summary": {"web-ingest": {"diff_count": ` + diffCount + `}},
  "tags": {}
}`
	}

	t.Run("groups runs by ISO week", func(t *testing.T) {
		dir := t.TempDir()
		week1 := time.Date(2026, 8, 18, 12, 0, 0, 0, time.Local) // Tue, week of 08-17
		week2 := time.Date(2026, 8, 26, 12, 0, 0, 0, time.Local) // Wed, week of 08-24

		writeMetadata(t, dir, "a", metaAt(week1.Unix(), false))
		writeMetadata(t, dir, "b", metaAt(week2.Unix(), true))
		writeMetadata(t, dir, "c", metaAt(week2.Unix(), false))

		trends := TrendReport(dir, 8)
		require.Len(t, trends, 2)
		assert.Equal(t, "2026-08-17", trends[0].WeekStart)
		assert.Equal(t, 1, trends[0].TotalRuns)
		assert.Equal(t, 0, trends[0].CorruptRuns)
		assert.Equal(t, "2026-08-24", trends[1].WeekStart)
		assert.Equal(t, 2, trends[1].TotalRuns)
		assert.Equal(t, 1, trends[1].CorruptRuns)
		assert.InDelta(t, 50.0, trends[1].CorruptionRate(), 0.001)
	})

	t.Run("restricts to the most recent weeks", func(t *testing.T) {
		dir := t.TempDir()
		base := time.Date(2026, 6, 1, 12, 0, 0, 0, time.Local)
		for i := 0; i < 4; i++ {
			writeMetadata(t, dir, "run"+timeString(int64(i)), metaAt(base.AddDate(0, 0, 7*i).Unix(), false))
		}

		trends := TrendReport(dir, 2)
		require.Len(t, trends, 2)
		// Ascending order, latest two weeks kept.
		assert.Less(t, trends[0].WeekStart, trends[1].WeekStart)
		assert.Equal(t, "2026-06-15", trends[0].WeekStart)
		assert.Equal(t, "2026-06-22", trends[1].WeekStart)
	})

	t.Run("records without a timestamp are skipped", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, "a", `{"timing": {}, "diff_summary": {}, "tags": {}}`)
		assert.Empty(t, TrendReport(dir, 8))
	})
}

func TestBreakdownReport(t *testing.T) {
	t.Run("groups by each tag independently", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, "run1", cleanRun)
		writeMetadata(t, dir, "run2", corruptRun)

		b := BreakdownReport(dir)

		require.Len(t, b.ByType, 2)
		// Corrupt group sorts first.
		assert.Equal(t, "cycling", b.ByType[0].Label)
		assert.Equal(t, 1, b.ByType[0].CorruptRuns)
		assert.InDelta(t, 100.0, b.ByType[0].CorruptionRate(), 0.001)
		assert.Equal(t, "running", b.ByType[1].Label)

		require.Len(t, b.BySource, 2)
		assert.Equal(t, "manual", b.BySource[0].Label)

		require.Len(t, b.ByDevice, 2)
		assert.Equal(t, "apple", b.ByDevice[0].Label)
	})

	t.Run("missing tags fall into unknown", func(t *testing.T) {
		dir := t.TempDir()
		writeMetadata(t, dir, "run1", `{
  "timestamp": 1756000000,
  "timing": {"web-ingest": {"latency_ms": 10}},
  "diff_summary": {"web-ingest": {"diff_count": 1}},
  "tags": {}
}`)

		b := BreakdownReport(dir)
		require.Len(t, b.ByType, 1)
		assert.Equal(t, "unknown", b.ByType[0].Label)
		assert.Equal(t, 1, b.ByType[0].CorruptRuns)
	})

	t.Run("empty capture root yields empty groups", func(t *testing.T) {
		b := BreakdownReport(t.TempDir())
		assert.Empty(t, b.ByType)
		assert.Empty(t, b.BySource)
		assert.Empty(t, b.ByDevice)
	})
}

func timeString(v int64) string {
	return strconv.FormatInt(v, 10)
}

package analytics

import (
	"math"
	"sort"
	"time"
)

// DefaultTrendWeeks is how far back the trend report looks by default.
const DefaultTrendWeeks = 8

// WeeklyTrend counts runs and corrupted runs for one ISO week.
type WeeklyTrend struct {
	WeekStart   string `json:"week_start"` // Monday of the week, YYYY-MM-DD
	TotalRuns   int    `json:"total_runs"`
	CorruptRuns int    `json:"corrupt_runs"`
}

// CorruptionRate is the percentage of runs in the week with any diff.
func (t WeeklyTrend) CorruptionRate() float64 {
	if t.TotalRuns == 0 {
		return 0
	}
	return float64(t.CorruptRuns) / float64(t.TotalRuns) * 100
}

// WeekKey maps a unix timestamp to the Monday of its week, formatted
// YYYY-MM-DD. Returns false for non-finite timestamps.
func WeekKey(timestamp float64) (string, bool) {
	if math.IsNaN(timestamp) || math.IsInf(timestamp, 0) {
		return "", false
	}
	t := time.Unix(int64(timestamp), 0)
	daysSinceMonday := (int(t.Weekday()) + 6) % 7
	monday := t.AddDate(0, 0, -daysSinceMonday)
	return monday.Format("2006-01-02"), true
}

// TrendReport folds metadata records into weekly corruption counts,
// restricted to the most recent weeks (by week key) and returned in
// ascending week order. Records without a timestamp are skipped.
func TrendReport(captureDir string, weeks int) []WeeklyTrend {
	if weeks <= 0 {
		weeks = DefaultTrendWeeks
	}

	type acc struct{ total, corrupt int }
	byWeek := make(map[string]*acc)

	eachMetadata(captureDir, func(m *Metadata) {
		if m.Timestamp == 0 {
			return
		}
		key, ok := WeekKey(m.Timestamp)
		if !ok {
			return
		}
		a, found := byWeek[key]
		if !found {
			a = &acc{}
			byWeek[key] = a
		}
		a.total++
		if m.Corrupt() {
			a.corrupt++
		}
	})

	keys := make([]string, 0, len(byWeek))
	for k := range byWeek {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	if len(keys) > weeks {
		keys = keys[:weeks]
	}
	sort.Strings(keys)

	results := make([]WeeklyTrend, 0, len(keys))
	for _, k := range keys {
		results = append(results, WeeklyTrend{
			WeekStart:   k,
			TotalRuns:   byWeek[k].total,
			CorruptRuns: byWeek[k].corrupt,
		})
	}
	return results
}

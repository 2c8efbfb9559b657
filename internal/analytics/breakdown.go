package analytics

import (
	"sort"

	"github.com/samber/lo"
)

// unknownLabel groups runs whose metadata carries no value for a tag.
const unknownLabel = "unknown"

// GroupStat counts runs and corrupted runs for one tag value.
type GroupStat struct {
	Label       string `json:"label"`
	TotalRuns   int    `json:"total_runs"`
	CorruptRuns int    `json:"corrupt_runs"`
}

// CorruptionRate is the percentage of the group's runs with any diff.
func (g GroupStat) CorruptionRate() float64 {
	if g.TotalRuns == 0 {
		return 0
	}
	return float64(g.CorruptRuns) / float64(g.TotalRuns) * 100
}

// Breakdown groups corruption rates by each tag dimension independently.
type Breakdown struct {
	ByType   []GroupStat `json:"by_type"`
	BySource []GroupStat `json:"by_source"`
	ByDevice []GroupStat `json:"by_device"`
}

// BreakdownReport folds metadata records into per-tag corruption rates,
// each dimension sorted by descending corruption rate (ties by label so
// output stays deterministic).
func BreakdownReport(captureDir string) Breakdown {
	type acc struct{ total, corrupt int }
	byType := make(map[string]*acc)
	bySource := make(map[string]*acc)
	byDevice := make(map[string]*acc)

	bump := func(m map[string]*acc, label string, corrupt bool) {
		if label == "" {
			label = unknownLabel
		}
		a, ok := m[label]
		if !ok {
			a = &acc{}
			m[label] = a
		}
		a.total++
		if corrupt {
			a.corrupt++
		}
	}

	eachMetadata(captureDir, func(m *Metadata) {
		corrupt := m.Corrupt()
		bump(byType, m.Tags.WorkoutType, corrupt)
		bump(bySource, m.Tags.Source, corrupt)
		bump(byDevice, m.Tags.DeviceType, corrupt)
	})

	collect := func(m map[string]*acc) []GroupStat {
		stats := lo.MapToSlice(m, func(label string, a *acc) GroupStat {
			return GroupStat{Label: label, TotalRuns: a.total, CorruptRuns: a.corrupt}
		})
		sort.Slice(stats, func(i, j int) bool {
			ri, rj := stats[i].CorruptionRate(), stats[j].CorruptionRate()
			if ri != rj {
				return ri > rj
			}
			return stats[i].Label < stats[j].Label
		})
		return stats
	}

	return Breakdown{
		ByType:   collect(byType),
		BySource: collect(bySource),
		ByDevice: collect(byDevice),
	}
}

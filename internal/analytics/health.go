package analytics

import (
	"sort"

	"github.com/samber/lo"
)

// HopHealth aggregates reliability metrics for a single hop.
type HopHealth struct {
	Name         string  `json:"name"`
	TotalRuns    int     `json:"total_runs"`
	CleanRuns    int     `json:"clean_runs"`
	AvgLatencyMS float64 `json:"avg_latency_ms"`
}

// CleanRate is the percentage of runs with no diffs anywhere.
func (h HopHealth) CleanRate() float64 {
	if h.TotalRuns == 0 {
		return 0
	}
	return float64(h.CleanRuns) / float64(h.TotalRuns) * 100
}

// HealthReport folds every metadata record under captureDir into per-hop
// health, sorted by hop name. A missing or empty capture root reports
// empty.
func HealthReport(captureDir string) []HopHealth {
	type acc struct {
		total     int
		clean     int
		latencies []float64
	}
	hops := make(map[string]*acc)

	eachMetadata(captureDir, func(m *Metadata) {
		clean := !m.Corrupt()
		for name, timing := range m.Timing {
			a, ok := hops[name]
			if !ok {
				a = &acc{}
				hops[name] = a
			}
			a.total++
			a.latencies = append(a.latencies, timing.LatencyMS)
			if clean {
				a.clean++
			}
		}
	})

	results := lo.MapToSlice(hops, func(name string, a *acc) HopHealth {
		avg := 0.0
		if len(a.latencies) > 0 {
			avg = lo.Sum(a.latencies) / float64(len(a.latencies))
		}
		return HopHealth{
			Name:         name,
			TotalRuns:    a.total,
			CleanRuns:    a.clean,
			AvgLatencyMS: avg,
		}
	})

	sort.Slice(results, func(i, j int) bool { return results[i].Name < results[j].Name })
	return results
}

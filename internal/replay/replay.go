// Package replay walks captured sessions through the pipeline stage order
// and localizes the first hop where a response payload diverges.
package replay

import (
	"strings"

	"github.com/hoptrace/hoptrace/internal/diff"
	"github.com/hoptrace/hoptrace/internal/domain"
)

// Device-specific export paths. Each device class moves data through a
// different subset of the pipeline, so replaying with the full stage list
// would flag missing intermediate hops on devices that legitimately skip
// them.
var devicePaths = map[string][]string{
	"garmin": {domain.PointWebIngest, domain.PointBackendStored},
	"apple":  {domain.PointWebIngest, domain.PointPhoneSync, domain.PointBackendStored},
	"strava": {domain.PointWebIngest, domain.PointCompletion, domain.PointBackendStored},
}

// ReplaySession loads a session's snapshots and diffs consecutive present
// stages' response payloads in pipeline order. Only the first snapshot per
// capture point participates in the comparison; later repeats stay
// available in Snapshots for other tooling.
//
// A session with zero snapshots returns an empty, clean result with no
// snapshots, which callers can tell apart from a populated clean run.
func ReplaySession(captureDir, sessionName string, stages []string) domain.ReplayResult {
	if len(stages) == 0 {
		stages = domain.DefaultPipelineStages
	}

	result := domain.ReplayResult{SessionName: sessionName, IsClean: true}

	snapshots := LoadSession(captureDir, sessionName)
	if len(snapshots) == 0 {
		return result
	}
	result.Snapshots = snapshots

	// First snapshot per capture point.
	byPoint := make(map[string]*domain.Snapshot, len(snapshots))
	for i := range snapshots {
		snap := &snapshots[i]
		if _, ok := byPoint[snap.CapturePoint]; !ok {
			byPoint[snap.CapturePoint] = snap
		}
	}

	var prev *domain.Snapshot
	for _, stage := range stages {
		curr, ok := byPoint[stage]
		if !ok {
			continue
		}
		if prev != nil {
			hop := prev.CapturePoint + " -> " + curr.CapturePoint
			changes := diff.Compute(prev.ResponsePayload, curr.ResponsePayload, "")
			for _, c := range changes {
				result.Diffs = append(result.Diffs, domain.HopDiff{
					HopName:  hop,
					Path:     c.Path,
					DiffType: c.Type,
					OldValue: c.Old,
					NewValue: c.New,
				})
			}
			if len(changes) > 0 && result.FirstCorruptionHop == "" {
				result.FirstCorruptionHop = curr.CapturePoint
			}
		}
		prev = curr
	}

	result.IsClean = len(result.Diffs) == 0
	return result
}

// DevicePathDiffs replays a session against the stage subset a device class
// actually traverses. Unknown devices fall back to the full pipeline.
func DevicePathDiffs(captureDir, sessionName, device string) domain.ReplayResult {
	stages, ok := devicePaths[strings.ToLower(device)]
	if !ok {
		stages = domain.DefaultPipelineStages
	}
	return ReplaySession(captureDir, sessionName, stages)
}

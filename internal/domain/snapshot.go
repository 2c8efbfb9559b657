package domain

// Capture point names for the default workout pipeline, in hop order.
const (
	PointWebIngest     = "web-ingest"          // Initial workout data from the web UI
	PointPhoneSync     = "phone-sync-request"  // Phone polling for pending workouts
	PointCompletion    = "completion-received" // Workout completion event
	PointBackendStored = "backend-stored"      // Final storage in the backend
)

// DefaultPipelineStages lists the capture points of the full pipeline in the
// order data flows through them. Replay compares consecutive present stages.
var DefaultPipelineStages = []string{
	PointWebIngest,
	PointPhoneSync,
	PointCompletion,
	PointBackendStored,
}

// Snapshot is one captured hop observation, persisted as
// <capture_dir>/<session>/NNN_<capture_point>.json. Write-once; the engine
// never mutates or deletes a snapshot after it is written.
type Snapshot struct {
	CapturePoint    string            `json:"capture_point"`
	Session         string            `json:"session"`
	Timestamp       float64           `json:"timestamp"` // seconds since epoch
	Endpoint        string            `json:"endpoint"`
	Method          string            `json:"method"`
	RequestPayload  any               `json:"request_payload"`
	RequestHeaders  map[string]string `json:"request_headers"`
	ResponseStatus  *int              `json:"response_status"`
	ResponsePayload any               `json:"response_payload"` // nil when the response body was streamed
	Streaming       bool              `json:"streaming"`
	ChatContext     map[string]any    `json:"chat_context,omitempty"`
}

// DiffType classifies one structural difference between two payloads.
type DiffType string

const (
	DiffAdded       DiffType = "added"        // Key/index present only after
	DiffRemoved     DiffType = "removed"      // Key/index present only before
	DiffChanged     DiffType = "changed"      // Same type, different value
	DiffTypeChanged DiffType = "type_changed" // Different runtime type
)

// HopDiff is one atomic difference attributed to a pipeline transition.
// Computed on demand, never persisted on its own.
type HopDiff struct {
	HopName  string   `json:"hop_name"` // "prev-point -> curr-point"
	Path     string   `json:"path"`     // dotted/bracket locator, e.g. metrics.splits[2].pace
	DiffType DiffType `json:"type"`
	OldValue any      `json:"old_value"` // nil for added/removed
	NewValue any      `json:"new_value"` // nil for added/removed
}

// ReplayResult is the outcome of replaying one captured session.
//
// An empty Snapshots slice means the session had nothing to replay, which is
// a distinct condition from a populated session with no diffs; callers must
// check Snapshots before trusting IsClean.
type ReplayResult struct {
	SessionName        string     `json:"session_name"`
	Snapshots          []Snapshot `json:"snapshots"`
	Diffs              []HopDiff  `json:"diffs"`
	FirstCorruptionHop string     `json:"first_corruption_hop,omitempty"`
	IsClean            bool       `json:"is_clean"`
}

// StagesSeen returns the capture points present in the result, first-seen
// order, without duplicates.
func (r *ReplayResult) StagesSeen() []string {
	seen := make(map[string]bool, len(r.Snapshots))
	var stages []string
	for _, s := range r.Snapshots {
		if !seen[s.CapturePoint] {
			seen[s.CapturePoint] = true
			stages = append(stages, s.CapturePoint)
		}
	}
	return stages
}

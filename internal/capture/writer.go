package capture

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/hoptrace/hoptrace/internal/domain"
)

// HeaderMask replaces the value of any credential-bearing header in
// persisted snapshots.
const HeaderMask = "***"

// Header names containing any of these fragments (case-insensitive) are
// masked before a snapshot is written.
var sensitiveFragments = []string{
	"auth",
	"cookie",
	"api-key",
	"apikey",
	"token",
	"secret",
}

// Record carries one hop observation into WriteSnapshot.
type Record struct {
	CapturePoint    string
	Endpoint        string
	Method          string
	RequestPayload  any
	RequestHeaders  map[string]string
	ResponseStatus  *int
	ResponsePayload any
	Streaming       bool
	ChatContext     map[string]any
}

// WriteSnapshot serializes one hop observation to the session's next
// sequential snapshot file and returns the written path. The session
// directory is created on first write; request headers are sanitized
// before they touch disk.
func WriteSnapshot(s *Session, rec Record) (string, error) {
	if s == nil {
		return "", errors.New("nil capture session")
	}

	path := s.NextFilename(rec.CapturePoint)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}

	now := s.now()
	snap := domain.Snapshot{
		CapturePoint:    rec.CapturePoint,
		Session:         s.Name(),
		Timestamp:       float64(now.UnixNano()) / 1e9,
		Endpoint:        rec.Endpoint,
		Method:          rec.Method,
		RequestPayload:  rec.RequestPayload,
		RequestHeaders:  SanitizeHeaders(rec.RequestHeaders),
		ResponseStatus:  rec.ResponseStatus,
		ResponsePayload: rec.ResponsePayload,
		Streaming:       rec.Streaming,
		ChatContext:     rec.ChatContext,
	}

	b, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return "", err
	}
	b = append(b, '\n')
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// SanitizeHeaders returns a copy of headers with credential-bearing values
// masked. A nil map stays nil; an empty map stays empty.
func SanitizeHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for name, value := range headers {
		if sensitiveHeader(name) {
			out[name] = HeaderMask
			continue
		}
		out[name] = value
	}
	return out
}

func sensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, frag := range sensitiveFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

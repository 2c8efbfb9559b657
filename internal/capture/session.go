package capture

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

const (
	// Header is the control header that activates capture for a single
	// request. Its value is parsed as key=value; only the "session-name"
	// key is recognized.
	Header = "X-Capture-Session"

	// EnvVar activates capture process-wide under the "default" session
	// when set to a truthy value (true/1/yes, case-insensitive).
	EnvVar = "HOPTRACE_CAPTURE"

	// DefaultSessionName is used for env-var activated captures.
	DefaultSessionName = "default"
)

// Session names are path components; anything outside this class (slashes,
// dots, whitespace) must never reach the filesystem.
var sessionNameRe = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// Session is the identity and sequencing state for one recording run.
// Immutable after creation except for the sequence counter.
type Session struct {
	name       string
	captureDir string
	startedAt  time.Time
	clk        clock.Clock

	mu       sync.Mutex
	sequence int
}

// NewSession creates a session rooted at captureDir. The name must match
// [A-Za-z0-9_-]+.
func NewSession(name, captureDir string) (*Session, error) {
	return NewSessionWithClock(name, captureDir, clock.New())
}

// NewSessionWithClock is NewSession with an injectable clock for tests.
func NewSessionWithClock(name, captureDir string, clk clock.Clock) (*Session, error) {
	if !sessionNameRe.MatchString(name) {
		return nil, fmt.Errorf("invalid session name %q: must match [A-Za-z0-9_-]+", name)
	}
	return &Session{
		name:       name,
		captureDir: captureDir,
		startedAt:  clk.Now(),
		clk:        clk,
	}, nil
}

// Name returns the validated session name.
func (s *Session) Name() string { return s.name }

// CaptureDir returns the root directory all sessions are stored under.
func (s *Session) CaptureDir() string { return s.captureDir }

// Dir returns the directory snapshots for this session are written to.
func (s *Session) Dir() string { return filepath.Join(s.captureDir, s.name) }

// StartedAt returns the session creation time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// SequenceCount returns how many filenames have been handed out so far.
func (s *Session) SequenceCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sequence
}

// NextFilename reserves the next sequence number and returns the snapshot
// path for capturePoint: <captureDir>/<name>/NNN_<capturePoint>.json,
// 1-indexed. The reserve-and-name step is atomic, so concurrent captures
// under the same session never collide or overwrite.
func (s *Session) NextFilename(capturePoint string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	return filepath.Join(s.captureDir, s.name, fmt.Sprintf("%03d_%s.json", s.sequence, capturePoint))
}

func (s *Session) now() time.Time { return s.clk.Now() }

// Resolver decides, per request, whether capture is active and under which
// session. It keeps one Session object per name so sequence numbers stay
// globally ordered across requests.
type Resolver struct {
	captureDir string
	clk        clock.Clock

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewResolver creates a resolver storing sessions under captureDir.
func NewResolver(captureDir string) *Resolver {
	return NewResolverWithClock(captureDir, clock.New())
}

// NewResolverWithClock is NewResolver with an injectable clock for tests.
func NewResolverWithClock(captureDir string, clk clock.Clock) *Resolver {
	return &Resolver{
		captureDir: captureDir,
		clk:        clk,
		sessions:   make(map[string]*Session),
	}
}

// Resolve returns the active session for a request, or nil when capture is
// off. The control header takes priority over the env flag; a malformed or
// invalid header value resolves to nil rather than an error, so a bad
// directive can never break the request it annotates.
func (r *Resolver) Resolve(headers http.Header) *Session {
	if raw := headers.Get(Header); raw != "" {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(key) != "session-name" {
			return nil
		}
		return r.session(strings.TrimSpace(value))
	}

	if truthy(os.Getenv(EnvVar)) {
		return r.session(DefaultSessionName)
	}
	return nil
}

// session returns the cached session for name, creating it on first use.
// Invalid names yield nil.
func (r *Resolver) session(name string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.sessions[name]; ok {
		return s
	}
	s, err := NewSessionWithClock(name, r.captureDir, r.clk)
	if err != nil {
		return nil
	}
	r.sessions[name] = s
	return s
}

func truthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	}
	return false
}

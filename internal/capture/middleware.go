package capture

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"
)

// Route identifies an endpoint eligible for capture.
type Route struct {
	Method string
	Path   string
}

// DefaultCapturePoints maps the monitored pipeline endpoints to their
// capture point names.
func DefaultCapturePoints() map[Route]string {
	return map[Route]string{
		{Method: http.MethodPost, Path: "/api/workouts/import/stream"}: "web-ingest",
		{Method: http.MethodGet, Path: "/workouts/incoming"}:           "phone-sync-request",
		{Method: http.MethodPost, Path: "/api/workouts/save/stream"}:   "backend-stored",
	}
}

// Outcome reports how a capture attempt ended. Failures are soft: the
// request is never affected, but tests and callers can observe the reason
// without scraping logs.
type Outcome struct {
	CapturePoint string
	Written      bool
	Path         string
	Reason       string // set when Written is false
}

// Middleware intercepts requests on configured routes and records one
// snapshot per matched request. Requests on unmatched routes, or without an
// active session, pass through with zero filesystem side effects.
type Middleware struct {
	resolver  *Resolver
	points    map[Route]string
	logger    *zap.Logger
	onOutcome func(Outcome)
}

// Option configures a Middleware.
type Option func(*Middleware)

// WithCapturePoints overrides the default route to capture point mapping.
func WithCapturePoints(points map[Route]string) Option {
	return func(m *Middleware) { m.points = points }
}

// WithLogger sets the logger used for swallowed capture errors.
func WithLogger(logger *zap.Logger) Option {
	return func(m *Middleware) { m.logger = logger }
}

// WithClock injects the clock used for snapshot timestamps.
func WithClock(clk clock.Clock) Option {
	return func(m *Middleware) { m.resolver.clk = clk }
}

// WithOutcomeFunc registers a hook invoked once per capture attempt.
func WithOutcomeFunc(fn func(Outcome)) Option {
	return func(m *Middleware) { m.onOutcome = fn }
}

// NewMiddleware creates a capture middleware storing snapshots under
// captureDir.
func NewMiddleware(captureDir string, opts ...Option) *Middleware {
	m := &Middleware{
		resolver: NewResolver(captureDir),
		points:   DefaultCapturePoints(),
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Resolver exposes the middleware's session resolver.
func (m *Middleware) Resolver() *Resolver { return m.resolver }

// Wrap returns a handler that serves next unchanged and records a snapshot
// after the response completes. Any failure while capturing is logged and
// swallowed; the original response is always returned with its original
// status and body.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		point, ok := m.points[Route{Method: r.Method, Path: r.URL.Path}]
		if !ok {
			next.ServeHTTP(w, r)
			return
		}
		sess := m.resolver.Resolve(r.Header)
		if sess == nil {
			next.ServeHTTP(w, r)
			return
		}

		// Buffer the request body so the wrapped handler still sees it.
		var reqBody []byte
		if r.Body != nil {
			reqBody, _ = io.ReadAll(r.Body)
			r.Body.Close()
			r.Body = io.NopCloser(bytes.NewReader(reqBody))
		}

		rec := newResponseRecorder(w)
		next.ServeHTTP(rec, r)

		m.record(sess, point, r, reqBody, rec)
	})
}

// record writes the snapshot for a completed request. Best effort only.
func (m *Middleware) record(sess *Session, point string, r *http.Request, reqBody []byte, rec *responseRecorder) {
	status := rec.status

	// A response is streamed iff its content type indicates an event
	// stream; streamed bodies are opaque and recorded without a payload.
	streaming := strings.HasPrefix(rec.Header().Get("Content-Type"), "text/event-stream")

	var responsePayload any
	if !streaming {
		responsePayload = decodeJSON(rec.body.Bytes())
	}

	record := Record{
		CapturePoint:    point,
		Endpoint:        r.URL.Path,
		Method:          r.Method,
		RequestPayload:  decodeJSON(reqBody),
		RequestHeaders:  flattenHeaders(r.Header),
		ResponseStatus:  &status,
		ResponsePayload: responsePayload,
		Streaming:       streaming,
	}

	path, err := WriteSnapshot(sess, record)
	if err != nil {
		m.logger.Warn("snapshot write failed",
			zap.String("session", sess.Name()),
			zap.String("capture_point", point),
			zap.Error(err))
		m.emit(Outcome{CapturePoint: point, Reason: err.Error()})
		return
	}
	m.emit(Outcome{CapturePoint: point, Written: true, Path: path})
}

func (m *Middleware) emit(o Outcome) {
	if m.onOutcome != nil {
		m.onOutcome(o)
	}
}

// decodeJSON parses b as JSON, returning nil for empty or non-JSON bodies.
func decodeJSON(b []byte) any {
	if len(bytes.TrimSpace(b)) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return nil
	}
	return v
}

// flattenHeaders keeps the first value of each header.
func flattenHeaders(h http.Header) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for name, values := range h {
		if len(values) > 0 {
			out[name] = values[0]
		}
	}
	return out
}

// responseRecorder passes writes through to the wrapped ResponseWriter while
// teeing the body and status for the snapshot.
type responseRecorder struct {
	http.ResponseWriter
	status int
	body   bytes.Buffer
}

func newResponseRecorder(w http.ResponseWriter) *responseRecorder {
	return &responseRecorder{ResponseWriter: w, status: http.StatusOK}
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	r.body.Write(b)
	return r.ResponseWriter.Write(b)
}

// Flush keeps streaming handlers working through the recorder.
func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

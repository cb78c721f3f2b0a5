package eventbridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kingrea/blockout/internal/attribute"
	"github.com/kingrea/blockout/internal/bake"
	"github.com/kingrea/blockout/internal/selection"
)

// ErrBadRequest marks processor errors caused by the event itself, such as
// an unknown operation or arguments that do not decode.
var ErrBadRequest = errors.New("eventbridge: bad request")

var errServerDisabled = errors.New("eventbridge: server disabled")

// Scene is the document state reported back to the host after each event
// and on /health.
type Scene struct {
	Active   string             `json:"active,omitempty"`
	Mode     string             `json:"mode"`
	Selected int                `json:"selected_edges"`
	Sliders  map[string]float64 `json:"sliders,omitempty"`
}

// Server is the HTTP listener a host posts document, slider and operator
// events to. Each accepted event bumps the revision returned to the host.
type Server struct {
	settings  Settings
	processor EventProcessor
	scene     func() Scene
	logger    Logger
	metrics   http.Handler
	clock     func() time.Time
	revision  atomic.Int64

	mu       sync.Mutex
	server   *http.Server
	listener net.Listener
}

// Option customizes server construction.
type Option func(*Server)

// WithProcessor sets the event processor. The default accepts everything.
func WithProcessor(p EventProcessor) Option {
	return func(s *Server) {
		if p != nil {
			s.processor = p
		}
	}
}

// WithScene reports the document state in responses.
func WithScene(fn func() Scene) Option {
	return func(s *Server) {
		s.scene = fn
	}
}

// WithLogger overrides the default no-op logger.
func WithLogger(l Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics mounts a Prometheus handler on /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

// WithClock allows tests to control timestamps.
func WithClock(clock func() time.Time) Option {
	return func(s *Server) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// NewServer prepares a bridge server. Zero limits in settings take their
// defaults.
func NewServer(settings Settings, opts ...Option) *Server {
	settings.fillDefaults()
	s := &Server{
		settings:  settings,
		processor: EventProcessorFunc(func(Event) error { return nil }),
		logger:    nopLogger{},
		clock:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Start binds the listener and serves in the background until Shutdown.
func (s *Server) Start(ctx context.Context) error {
	if !s.settings.Enabled {
		return errServerDisabled
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener != nil {
		return fmt.Errorf("eventbridge: server already started")
	}
	addr := s.settings.Address()
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("eventbridge: listen %s: %w", addr, err)
	}
	server := &http.Server{
		Handler:      s.routes(),
		ReadTimeout:  s.settings.Timeout,
		WriteTimeout: s.settings.Timeout,
		IdleTimeout:  idleFactor * s.settings.Timeout,
	}
	if ctx != nil {
		server.BaseContext = func(net.Listener) context.Context { return ctx }
	}
	s.listener = listener
	s.server = server
	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Printf("eventbridge: serve: %v", err)
		}
	}()
	s.logger.Printf("eventbridge: listening on %s", listener.Addr())
	return nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/events", s.handleEvents)
	if s.metrics != nil {
		mux.Handle("/metrics", s.metrics)
	}
	return mux
}

// Shutdown stops accepting connections and waits for in-flight events.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.server == nil {
		return nil
	}
	if err := s.server.Shutdown(ctx); err != nil {
		return err
	}
	s.server = nil
	s.listener = nil
	return nil
}

// BaseURL returns the bound URL once started, else the configured one.
func (s *Server) BaseURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return s.settings.URL()
	}
	return "http://" + s.listener.Addr().String()
}

// Revision counts the events processed without error.
func (s *Server) Revision() int64 {
	return s.revision.Load()
}

type healthResponse struct {
	Version  string `json:"version"`
	Schema   int    `json:"schema"`
	Revision int64  `json:"revision"`
	Scene    *Scene `json:"scene,omitempty"`
}

// EventResult is the body of a successful /events response.
type EventResult struct {
	EventID    string    `json:"event_id"`
	Type       string    `json:"type"`
	Operation  string    `json:"operation,omitempty"`
	Revision   int64     `json:"revision"`
	ServerTime time.Time `json:"server_time"`
	Scene      *Scene    `json:"scene,omitempty"`
}

// EventError is the body of a rejected /events response.
type EventError struct {
	EventID string `json:"event_id,omitempty"`
	Code    string `json:"code"`
	Error   string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		writeJSON(w, http.StatusMethodNotAllowed, EventError{Code: "method_not_allowed", Error: "method not allowed"})
		return
	}
	writeJSON(w, http.StatusOK, healthResponse{
		Version:  ProtocolVersion,
		Schema:   EventSchemaVersion,
		Revision: s.Revision(),
		Scene:    s.snapshot(),
	})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, EventError{Code: "method_not_allowed", Error: "method not allowed"})
		return
	}
	evt, status, err := s.readEvent(w, r)
	if err != nil {
		writeJSON(w, status, EventError{EventID: evt.EventID, Code: "invalid_event", Error: err.Error()})
		return
	}
	if err := s.processor.HandleEvent(evt); err != nil {
		status, code := statusFor(err)
		s.logger.Printf("eventbridge: %s %s: %v", evt.Type, evt.EventID, err)
		writeJSON(w, status, EventError{EventID: evt.EventID, Code: code, Error: err.Error()})
		return
	}
	result := EventResult{
		EventID:    evt.EventID,
		Type:       evt.Type,
		Revision:   s.revision.Add(1),
		ServerTime: evt.ServerTime,
		Scene:      s.snapshot(),
	}
	if evt.Type == TypeOperator {
		if op, err := evt.Operator(); err == nil {
			result.Operation = op.Operation
		}
	}
	writeJSON(w, http.StatusOK, result)
}

// readEvent decodes, normalizes, validates and stamps one posted event.
func (s *Server) readEvent(w http.ResponseWriter, r *http.Request) (Event, int, error) {
	var evt Event
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.settings.MaxBodyBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return evt, http.StatusRequestEntityTooLarge, fmt.Errorf("payload exceeds %d bytes", maxErr.Limit)
		}
		return evt, http.StatusBadRequest, fmt.Errorf("read body: %w", err)
	}
	if err := json.Unmarshal(body, &evt); err != nil {
		return evt, http.StatusBadRequest, fmt.Errorf("invalid JSON: %w", err)
	}
	evt.Normalize()
	if err := evt.Validate(); err != nil {
		return evt, http.StatusBadRequest, err
	}
	evt.StampServerTime(s.clock())
	return evt, http.StatusOK, nil
}

func (s *Server) snapshot() *Scene {
	if s.scene == nil {
		return nil
	}
	scene := s.scene()
	return &scene
}

// statusFor maps a processor error to the HTTP status and code the host
// sees. Errors about the scene's state are the host's to fix, so they are
// 4xx; anything unrecognised is a 500.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, attribute.ErrUnknownAttribute):
		return http.StatusBadRequest, "unknown_attribute"
	case errors.Is(err, selection.ErrNoSelection):
		return http.StatusUnprocessableEntity, "no_selection"
	case errors.Is(err, selection.ErrNoActiveObject), errors.Is(err, selection.ErrNotMesh):
		return http.StatusUnprocessableEntity, "no_active_mesh"
	case errors.Is(err, attribute.ErrAttributeMissing), errors.Is(err, attribute.ErrSizeMismatch):
		return http.StatusConflict, "schema_mismatch"
	case errors.Is(err, bake.ErrMissingReferenceModifier):
		return http.StatusConflict, "missing_reference_modifier"
	default:
		return http.StatusInternalServerError, "processing_failed"
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

package eventbridge

import (
	"errors"
	"strings"
	"sync"
)

const (
	defaultBacklogLimit = 50
	defaultDedupeWindow = 1024
)

// Handler processes one routed event synchronously.
type Handler func(Event) error

// RouterOption customizes Router construction.
type RouterOption func(*Router)

// Router delivers bridge events to handlers subscribed by event type. A
// handler runs on the caller's goroutine, so delivery order is posting
// order. Events for a type nobody handles yet are buffered, and repeated
// event IDs are dropped.
type Router struct {
	mu           sync.Mutex
	handlers     map[string][]*registration
	backlog      map[string][]Event
	recentIDs    map[string]struct{}
	recentOrder  []string
	backlogLimit int
	dedupeWindow int
	logger       Logger
}

type registration struct {
	handler Handler
}

// NewRouter constructs a router with sane defaults.
func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		handlers:     map[string][]*registration{},
		backlog:      map[string][]Event{},
		recentIDs:    map[string]struct{}{},
		recentOrder:  make([]string, 0, defaultDedupeWindow),
		backlogLimit: defaultBacklogLimit,
		dedupeWindow: defaultDedupeWindow,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// RouterWithLogger injects a logger for drop/diagnostic messages.
func RouterWithLogger(logger Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

// RouterWithBacklogLimit overrides the backlog size for pre-subscription buffering.
func RouterWithBacklogLimit(limit int) RouterOption {
	return func(r *Router) {
		if limit > 0 {
			r.backlogLimit = limit
		}
	}
}

// RouterWithDedupeWindow controls how many recent event IDs are retained.
func RouterWithDedupeWindow(size int) RouterOption {
	return func(r *Router) {
		if size > 0 {
			r.dedupeWindow = size
		}
	}
}

// Subscribe registers handler for an event type and replays any buffered
// events of that type to it. The returned func removes the handler.
func (r *Router) Subscribe(eventType string, handler Handler) func() {
	kind := normalizeType(eventType)
	reg := &registration{handler: handler}
	r.mu.Lock()
	r.handlers[kind] = append(r.handlers[kind], reg)
	backlog := r.backlog[kind]
	delete(r.backlog, kind)
	r.mu.Unlock()
	for _, event := range backlog {
		if err := handler(event); err != nil {
			r.logf("eventbridge: replay %s %s: %v", event.Type, event.EventID, err)
		}
	}
	return func() {
		r.remove(kind, reg)
	}
}

// HandleEvent satisfies the EventProcessor interface.
func (r *Router) HandleEvent(event Event) error {
	return r.Route(event)
}

// Route runs every handler for the event's type, or buffers the event when
// there is none. Handler errors are joined.
func (r *Router) Route(event Event) error {
	if event.EventID != "" && r.isDuplicate(event.EventID) {
		return nil
	}
	kind := normalizeType(event.Type)
	if kind == "" {
		return nil
	}
	r.mu.Lock()
	regs := append([]*registration(nil), r.handlers[kind]...)
	if len(regs) == 0 {
		r.bufferLocked(kind, event)
		r.mu.Unlock()
		return nil
	}
	r.mu.Unlock()
	var errs []error
	for _, reg := range regs {
		if err := reg.handler(event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Pending reports how many events of a type are buffered.
func (r *Router) Pending(eventType string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.backlog[normalizeType(eventType)])
}

func (r *Router) remove(kind string, reg *registration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	regs := r.handlers[kind]
	for i, candidate := range regs {
		if candidate == reg {
			r.handlers[kind] = append(regs[:i], regs[i+1:]...)
			break
		}
	}
	if len(r.handlers[kind]) == 0 {
		delete(r.handlers, kind)
	}
}

func (r *Router) bufferLocked(kind string, event Event) {
	queue := r.backlog[kind]
	if len(queue) >= r.backlogLimit {
		queue = queue[1:]
		r.logf("eventbridge: backlog drop for %s (limit %d)", kind, r.backlogLimit)
	}
	r.backlog[kind] = append(queue, event)
}

func (r *Router) isDuplicate(eventID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.recentIDs[eventID]; ok {
		return true
	}
	r.recentIDs[eventID] = struct{}{}
	r.recentOrder = append(r.recentOrder, eventID)
	if len(r.recentOrder) > r.dedupeWindow {
		oldest := r.recentOrder[0]
		r.recentOrder = r.recentOrder[1:]
		delete(r.recentIDs, oldest)
	}
	return false
}

func (r *Router) logf(format string, args ...any) {
	if r.logger != nil {
		r.logger.Printf(format, args...)
	}
}

func normalizeType(eventType string) string {
	return strings.TrimSpace(strings.ToLower(eventType))
}

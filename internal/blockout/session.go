// Package blockout exposes the entry points an artist (or a host
// application) invokes: building the managed modifier stack, flagging and
// baking edges, mirroring and slider edits. A Session owns one document and
// serialises every entry point, so the HTTP bridge and the TUI can share it.
package blockout

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kingrea/blockout/internal/assets"
	"github.com/kingrea/blockout/internal/bake"
	"github.com/kingrea/blockout/internal/config"
	"github.com/kingrea/blockout/internal/document"
	"github.com/kingrea/blockout/internal/logging"
	"github.com/kingrea/blockout/internal/metrics"
	"github.com/kingrea/blockout/internal/selection"
	"github.com/kingrea/blockout/internal/slider"
	"github.com/kingrea/blockout/internal/stack"
)

// ErrNoDocument means an entry point ran before Open.
var ErrNoDocument = errors.New("blockout: no document open")

// Reporter surfaces one line per outcome to the user. logbook.Logbook
// implements it.
type Reporter interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Deps wires a Session's collaborators. Every field is optional.
type Deps struct {
	Config   *config.Config
	Reporter Reporter
	Logger   *logging.Logger
	Metrics  *metrics.Recorder
	Geometry document.Geometry
	Importer *assets.Importer
}

// Session runs entry points against one document.
type Session struct {
	mu  sync.Mutex
	doc *document.Document

	settings config.ModifierConfig
	reporter Reporter
	logger   *logging.Logger
	metrics  *metrics.Recorder

	importer   *assets.Importer
	stack      *stack.Manager
	reconciler *stack.Reconciler
	sliders    *slider.Engine
	baker      *bake.Engine

	// sliderErr holds the outcome of the last slider hook run.
	sliderErr error
}

// New builds a session. Call Open before any entry point.
func New(deps Deps) *Session {
	cfg := deps.Config
	if cfg == nil {
		cfg = config.Default(".")
	}
	s := &Session{
		settings: cfg.Project.Modifiers,
		reporter: deps.Reporter,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		importer: deps.Importer,
	}
	if s.reporter == nil {
		s.reporter = nopReporter{}
	}
	if s.logger == nil {
		s.logger = logging.Nop()
	}
	if s.importer == nil {
		s.importer = assets.NewImporter(cfg.LibraryPath(), s.metrics)
	}
	s.stack = stack.NewManager(s.importer, s.logger, s.metrics)
	s.reconciler = stack.NewReconciler(s.metrics)
	s.sliders = slider.New(s.writeEdges, s.metrics)
	s.baker = bake.New(deps.Geometry, s.sliders, s.metrics)
	return s
}

// Open binds doc to the session, subscribes to its slider updates and
// records every object's current stack as the reorder baseline.
func (s *Session) Open(doc *document.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc = doc
	for _, obj := range doc.Objects {
		s.reconciler.Prime(obj)
	}
	s.sliders.Attach(doc, func(err error) { s.sliderErr = err })
}

// View runs fn with the document while holding the session lock.
func (s *Session) View(fn func(doc *document.Document)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc != nil {
		fn(s.doc)
	}
}

// Save persists the document through repo.
func (s *Session) Save(repo *document.Repository) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil {
		return ErrNoDocument
	}
	return repo.Save(s.doc)
}

// SliderState reports the slider engine's state.
func (s *Session) SliderState() slider.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sliders.State()
}

// begin takes the lock and returns the open document. The returned func
// records the operation and releases the lock.
func (s *Session) begin(op string) (*document.Document, func(*error), error) {
	s.mu.Lock()
	started := time.Now()
	done := func(errp *error) {
		var err error
		if errp != nil {
			err = *errp
		}
		s.metrics.Operation(op, started, err)
		s.mu.Unlock()
	}
	if s.doc == nil {
		err := ErrNoDocument
		done(&err)
		return nil, nil, err
	}
	return s.doc, done, nil
}

// resolveObjects returns the meshes an entry point acts on, warning when
// there are none.
func (s *Session) resolveObjects(doc *document.Document) []*document.Object {
	objects := selection.ResolveObjects(doc)
	if len(objects) == 0 {
		s.warn("No selected objects")
	}
	return objects
}

func (s *Session) info(format string, args ...any) {
	s.reporter.Info(format, args...)
	s.logger.Printf(format, args...)
}

func (s *Session) warn(format string, args ...any) {
	s.reporter.Warn(format, args...)
	s.logger.Warnf(format, args...)
}

// fail reports err under op and returns it unchanged.
func (s *Session) fail(op string, err error) error {
	if err == nil {
		return nil
	}
	s.reporter.Error("%s: %v", op, err)
	s.logger.Errorf("%s: %v", op, err)
	return err
}

type nopReporter struct{}

func (nopReporter) Info(string, ...any)  {}
func (nopReporter) Warn(string, ...any)  {}
func (nopReporter) Error(string, ...any) {}

func describe(objects []*document.Object) string {
	if len(objects) == 1 {
		return objects[0].Name
	}
	return fmt.Sprintf("%d objects", len(objects))
}

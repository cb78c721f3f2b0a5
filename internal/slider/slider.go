// Package slider keeps the scene's weight sliders and the per-edge float
// attributes they edit in step, in both directions, without either path
// observing the other's writes.
//
// The engine is a three-state machine. Every transition starts from Idle:
//
//	Idle -> SyncingFromSelection -> Idle   (document changed, slider follows mean)
//	Idle -> SyncingFromUser      -> Idle   (slider edited, edges follow slider)
//
// A trigger that arrives while the engine is not Idle is a write made by the
// other path and is dropped.
package slider

import (
	"errors"
	"fmt"
	"math"

	"github.com/kingrea/blockout/internal/attribute"
	"github.com/kingrea/blockout/internal/document"
)

// Epsilon is the display-scale tolerance below which the slider is left alone.
const Epsilon = 1e-6

// State is the engine's position in the sync state machine.
type State int

const (
	Idle State = iota
	SyncingFromSelection
	SyncingFromUser
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case SyncingFromSelection:
		return "syncing_from_selection"
	case SyncingFromUser:
		return "syncing_from_user"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Monitored lists the float attributes that have a slider.
var Monitored = []string{attribute.ChamferWeight, attribute.FilletWeighted}

// IsMonitored reports whether attr has a slider.
func IsMonitored(attr string) bool {
	for _, name := range Monitored {
		if name == attr {
			return true
		}
	}
	return false
}

// WriteFunc stores value on edges of obj. It is the shared edge-attribute
// write path, so mirrored attributes stay consistent.
type WriteFunc func(doc *document.Document, obj *document.Object, attr string, edges []int, value float64) error

// Metrics observes sync passes.
type Metrics interface {
	SliderSync(direction string)
}

// Engine is the slider state machine.
type Engine struct {
	state   State
	write   WriteFunc
	metrics Metrics
}

// New returns an idle engine. A nil write uses attribute.Write.
func New(write WriteFunc, metrics Metrics) *Engine {
	if write == nil {
		write = func(_ *document.Document, obj *document.Object, attr string, edges []int, value float64) error {
			return attribute.Write(obj.Mesh, attr, edges, value)
		}
	}
	return &Engine{write: write, metrics: metrics}
}

// State returns the current state.
func (e *Engine) State() State {
	return e.state
}

// Attach subscribes the engine to doc's slider update hook so a slider
// write made by anyone reaches OnSliderEdited. sink receives the outcome of
// every hook run, nil included; a nil sink drops it.
func (e *Engine) Attach(doc *document.Document, sink func(error)) {
	doc.OnSliderUpdate(func(name string, value float64) {
		_, err := e.OnSliderEdited(doc, name, value)
		if sink != nil {
			sink(err)
		}
	})
}

// OnDocumentChanged moves each monitored slider to the mean of its
// attribute over the active mesh's selected edges. Attributes that are
// absent, and empty selections, are skipped. It returns the sliders it set.
func (e *Engine) OnDocumentChanged(doc *document.Document) ([]string, error) {
	if e.state != Idle || doc.Mode != document.ModeEdit {
		return nil, nil
	}
	obj := doc.ActiveObject()
	if !obj.IsMesh() {
		return nil, nil
	}
	edges := obj.Mesh.SelectedEdges()
	if len(edges) == 0 {
		return nil, nil
	}

	e.state = SyncingFromSelection
	defer func() { e.state = Idle }()

	var updated []string
	var errs []error
	for _, attr := range Monitored {
		if !attribute.Present(obj.Mesh, attr) {
			continue
		}
		mean, err := attribute.Mean(obj.Mesh, attr, edges)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		display := mean * 100
		if math.Abs(doc.Slider(attr)-display) <= Epsilon {
			continue
		}
		doc.SetSlider(attr, display)
		updated = append(updated, attr)
		e.observe("from_selection")
	}
	return updated, errors.Join(errs...)
}

// OnSliderEdited writes pct/100 to every selected edge of the active mesh.
// It is a no-op unless the engine is Idle and attr is monitored. It
// reports whether it wrote.
func (e *Engine) OnSliderEdited(doc *document.Document, attr string, pct float64) (bool, error) {
	if e.state != Idle || !IsMonitored(attr) {
		return false, nil
	}
	obj := doc.ActiveObject()
	if !obj.IsMesh() {
		return false, nil
	}
	edges := obj.Mesh.SelectedEdges()
	if len(edges) == 0 {
		return false, nil
	}

	e.state = SyncingFromUser
	defer func() { e.state = Idle }()

	if err := e.write(doc, obj, attr, edges, pct/100); err != nil {
		return false, err
	}
	e.observe("from_user")
	return true, nil
}

// Reset sets a slider without the write-back reaching any edge.
func (e *Engine) Reset(doc *document.Document, attr string, value float64) {
	if e.state != Idle {
		doc.SetSlider(attr, value)
		return
	}
	e.state = SyncingFromSelection
	defer func() { e.state = Idle }()
	doc.SetSlider(attr, value)
}

func (e *Engine) observe(direction string) {
	if e.metrics != nil {
		e.metrics.SliderSync(direction)
	}
}

package blockout

import (
	"encoding/json"
	"fmt"

	"github.com/kingrea/blockout/internal/bake"
	"github.com/kingrea/blockout/internal/document"
	"github.com/kingrea/blockout/internal/eventbridge"
)

// Operation names accepted in operator events.
const (
	OpAddModifiers      = "add_modifiers"
	OpToggleVisibility  = "toggle_visibility"
	OpSetEdgeAttribute  = "set_edge_attribute"
	OpSelectByAttribute = "select_by_attribute"
	OpApplyAttribute    = "apply_attribute"
	OpSmartMirror       = "smart_mirror"
)

// EdgeArgs are the operator arguments of the edge entry points.
type EdgeArgs struct {
	Attribute string  `json:"attribute"`
	Value     float64 `json:"value"`
	Toggle    bool    `json:"toggle"`
	Segments  int     `json:"segments"`
	Width     float64 `json:"width"`
}

// Subscribe routes bridge events to the session's entry points and returns
// a func that removes every subscription.
func (s *Session) Subscribe(router *eventbridge.Router) func() {
	cancels := []func(){
		router.Subscribe(eventbridge.TypeDocumentChanged, func(e eventbridge.Event) error {
			s.focus(e.Object)
			return s.OnDocumentChanged()
		}),
		router.Subscribe(eventbridge.TypeSliderEdited, func(e eventbridge.Event) error {
			if e.Value == nil {
				return fmt.Errorf("%w: slider_edited without value", eventbridge.ErrBadRequest)
			}
			s.focus(e.Object)
			return s.EditSlider(e.Attribute, *e.Value)
		}),
		router.Subscribe(eventbridge.TypeOperator, func(e eventbridge.Event) error {
			s.focus(e.Object)
			op, err := e.Operator()
			if err != nil {
				return fmt.Errorf("%w: %v", eventbridge.ErrBadRequest, err)
			}
			return s.RunOperator(op)
		}),
	}
	return func() {
		for _, cancel := range cancels {
			cancel()
		}
	}
}

// RunOperator dispatches one operator payload.
func (s *Session) RunOperator(op eventbridge.OperatorPayload) error {
	switch op.Operation {
	case OpAddModifiers:
		opts := DefaultOptions()
		if err := decodeArgs(op, &opts); err != nil {
			return err
		}
		_, err := s.AddModifiers(opts)
		return err
	case OpToggleVisibility:
		_, err := s.ToggleModifierVisibility()
		return err
	case OpSetEdgeAttribute:
		args := EdgeArgs{Toggle: true}
		if err := decodeArgs(op, &args); err != nil {
			return err
		}
		_, err := s.SetEdgeAttribute(args.Attribute, args.Value, args.Toggle)
		return err
	case OpSelectByAttribute:
		var args EdgeArgs
		if err := decodeArgs(op, &args); err != nil {
			return err
		}
		_, err := s.SelectByAttribute(args.Attribute)
		return err
	case OpApplyAttribute:
		var args EdgeArgs
		if err := decodeArgs(op, &args); err != nil {
			return err
		}
		_, err := s.ApplyAttribute(args.Attribute, bake.Overrides{Segments: args.Segments, Width: args.Width})
		return err
	case OpSmartMirror:
		opts := MirrorOptions{Y: true}
		if err := decodeArgs(op, &opts); err != nil {
			return err
		}
		return s.SmartMirror(opts)
	default:
		return fmt.Errorf("%w: unknown operation %q", eventbridge.ErrBadRequest, op.Operation)
	}
}

func decodeArgs(op eventbridge.OperatorPayload, dst any) error {
	if len(op.Args) == 0 {
		return nil
	}
	if err := json.Unmarshal(op.Args, dst); err != nil {
		return fmt.Errorf("%w: %s args: %v", eventbridge.ErrBadRequest, op.Operation, err)
	}
	return nil
}

// focus makes the named object active when the host reports one.
func (s *Session) focus(name string) {
	if name == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.doc == nil || s.doc.Object(name) == nil {
		return
	}
	s.doc.Active = name
}

// BridgeScene reports the active object, mode, selection size and sliders
// for bridge responses.
func (s *Session) BridgeScene() eventbridge.Scene {
	var scene eventbridge.Scene
	s.View(func(doc *document.Document) {
		scene.Mode = string(doc.Mode)
		if len(doc.Scene.Sliders) > 0 {
			scene.Sliders = make(map[string]float64, len(doc.Scene.Sliders))
			for name, value := range doc.Scene.Sliders {
				scene.Sliders[name] = value
			}
		}
		obj := doc.ActiveObject()
		if obj == nil {
			return
		}
		scene.Active = obj.Name
		if obj.IsMesh() {
			scene.Selected = len(obj.Mesh.SelectedEdges())
		}
	})
	return scene
}

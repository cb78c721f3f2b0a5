package blockout

import (
	"fmt"
	"strings"

	"github.com/kingrea/blockout/internal/document"
	"github.com/kingrea/blockout/internal/selection"
)

// The calls below stand in for what an artist does directly in a host:
// switching modes, picking edges and adding their own modifiers.

// SetMode switches the interaction mode and, when selectMode is non-empty,
// the mesh select mode.
func (s *Session) SetMode(mode document.Mode, selectMode document.SelectMode) (err error) {
	doc, done, err := s.begin("set_mode")
	if err != nil {
		return err
	}
	defer done(&err)

	if err := doc.SetMode(document.Mode(strings.ToUpper(string(mode)))); err != nil {
		return s.fail("set mode", err)
	}
	switch document.SelectMode(strings.ToUpper(string(selectMode))) {
	case "":
	case document.SelectVertex, document.SelectEdge, document.SelectFace:
		doc.SelectMode = document.SelectMode(strings.ToUpper(string(selectMode)))
	default:
		return s.fail("set mode", fmt.Errorf("unknown select mode %q", selectMode))
	}
	return nil
}

// SetActive makes the named object active and selected.
func (s *Session) SetActive(name string) (err error) {
	doc, done, err := s.begin("set_active")
	if err != nil {
		return err
	}
	defer done(&err)
	return s.fail("set active", doc.SetActive(name))
}

// SelectEdges replaces the active mesh's edge selection. An empty list
// clears it.
func (s *Session) SelectEdges(indices []int) (err error) {
	doc, done, err := s.begin("select_edges")
	if err != nil {
		return err
	}
	defer done(&err)

	obj, err := selection.ActiveMesh(doc)
	if err != nil {
		return s.fail("select edges", err)
	}
	if err := obj.Mesh.SelectEdges(indices...); err != nil {
		return s.fail("select edges", err)
	}
	return nil
}

// AddUserModifier appends an unmanaged modifier to the active object, the
// way an artist adds one by hand. The next OnDocumentChanged moves it ahead
// of the managed stack.
func (s *Session) AddUserModifier(kind document.ModifierKind, name string) (mod *document.Modifier, err error) {
	doc, done, err := s.begin("add_user_modifier")
	if err != nil {
		return nil, err
	}
	defer done(&err)

	obj := doc.ActiveObject()
	if obj == nil {
		return nil, s.fail("add modifier", selection.ErrNoActiveObject)
	}
	kind = document.ModifierKind(strings.ToUpper(string(kind)))
	if name == "" {
		name = strings.ToLower(string(kind))
	}
	return obj.AddModifier(name, kind), nil
}

// Package selection translates the document's interactive selection into
// edge index sets for the attribute store, and owns the mode round trips
// that selection writes require.
package selection

import (
	"errors"
	"fmt"

	"github.com/kingrea/blockout/internal/attribute"
	"github.com/kingrea/blockout/internal/document"
)

var (
	// ErrNoSelection means an edge operation ran with nothing selected.
	ErrNoSelection = errors.New("selection: no edges selected")
	// ErrNoActiveObject means the operation needs an active object.
	ErrNoActiveObject = errors.New("selection: no active object")
	// ErrNotMesh means the object carries no mesh data.
	ErrNotMesh = errors.New("selection: object is not a mesh")
)

// Predicate decides whether an attribute value selects its edge.
type Predicate func(value float64) bool

// Positive is the default predicate: value > 0.
func Positive(value float64) bool {
	return value > 0
}

// CurrentEdgeSelection returns the selected edge indices of obj in
// ascending order. A face selection made in face select mode is converted
// to its boundary loop first.
func CurrentEdgeSelection(doc *document.Document, obj *document.Object) ([]int, error) {
	if !obj.IsMesh() {
		return nil, notMesh(obj)
	}
	mesh := obj.Mesh
	if doc.Mode == document.ModeEdit && doc.SelectMode == document.SelectFace && len(mesh.SelectedFaces()) > 0 {
		mesh.RegionToLoop()
	}
	edges := mesh.SelectedEdges()
	if len(edges) == 0 {
		return nil, fmt.Errorf("%w on %s", ErrNoSelection, obj.Name)
	}
	return edges, nil
}

// SelectByAttribute replaces obj's edge selection with the edges whose attr
// value satisfies pred (Positive when nil). It runs in object mode and puts
// the caller's mode back on every path. It returns the number selected.
func SelectByAttribute(doc *document.Document, obj *document.Object, attr string, pred Predicate) (int, error) {
	if !obj.IsMesh() {
		return 0, notMesh(obj)
	}
	if pred == nil {
		pred = Positive
	}
	selected := 0
	err := WithMode(doc, document.ModeObject, func() error {
		values, err := attribute.Read(obj.Mesh, attr, AllEdges(obj.Mesh))
		if err != nil {
			return err
		}
		obj.Mesh.DeselectAllEdges()
		for idx, value := range values {
			if pred(value) {
				obj.Mesh.SetEdgeSelect(idx, true)
				selected++
			}
		}
		return nil
	})
	return selected, err
}

// AllEdges returns 0..len(edges)-1.
func AllEdges(mesh *document.Mesh) []int {
	out := make([]int, len(mesh.Edges))
	for i := range out {
		out[i] = i
	}
	return out
}

// ResolveObjects returns the objects an entry point acts on: the selected
// objects, or the active object when nothing is selected in edit mode,
// filtered to meshes.
func ResolveObjects(doc *document.Document) []*document.Object {
	candidates := doc.SelectedObjects()
	if len(candidates) == 0 && doc.Mode == document.ModeEdit {
		if active := doc.ActiveObject(); active != nil {
			candidates = []*document.Object{active}
		}
	}
	var out []*document.Object
	for _, obj := range candidates {
		if obj.IsMesh() {
			out = append(out, obj)
		}
	}
	return out
}

// ActiveMesh returns the active object, requiring mesh data.
func ActiveMesh(doc *document.Document) (*document.Object, error) {
	obj := doc.ActiveObject()
	if obj == nil {
		return nil, ErrNoActiveObject
	}
	if !obj.IsMesh() {
		return nil, notMesh(obj)
	}
	return obj, nil
}

func notMesh(obj *document.Object) error {
	if obj == nil {
		return ErrNoActiveObject
	}
	return fmt.Errorf("%w: %s", ErrNotMesh, obj.Name)
}

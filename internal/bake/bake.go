// Package bake collapses attribute-driven modifier previews into real
// geometry. Apply reads the flagged edges of the selection, averages their
// weights, clears the flags and issues the destructive operation the
// matching managed modifier was previewing.
package bake

import (
	"errors"
	"fmt"

	"github.com/kingrea/blockout/internal/attribute"
	"github.com/kingrea/blockout/internal/document"
	"github.com/kingrea/blockout/internal/selection"
	"github.com/kingrea/blockout/internal/stack"
)

// ErrMissingReferenceModifier means the managed modifier a bake copies its
// parameters from has been removed.
var ErrMissingReferenceModifier = errors.New("bake: reference modifier missing")

// Reference modifier roles.
const (
	RoleConstrained = "Bevel_Constrained"
	RoleWeighted    = "Bevel_Weighted"
	RoleChamfer     = "EdgeChamfer"
)

// Overrides replace the live modifier's segment count or width when set.
type Overrides struct {
	Segments int
	Width    float64
}

// Result summarises one Apply call.
type Result struct {
	Attribute  string
	Baked      int
	Deselected int
	Average    float64
	Operation  document.OpKind
}

// SliderResetter zeroes a slider without writing through to edges.
type SliderResetter interface {
	Reset(doc *document.Document, attr string, value float64)
}

// Metrics observes baked edge counts.
type Metrics interface {
	EdgesBaked(attr string, n int)
}

// Engine performs Apply.
type Engine struct {
	geometry document.Geometry
	sliders  SliderResetter
	metrics  Metrics
}

// New returns an engine. A nil geometry uses document.Recorder.
func New(geometry document.Geometry, sliders SliderResetter, metrics Metrics) *Engine {
	if geometry == nil {
		geometry = document.Recorder{}
	}
	return &Engine{geometry: geometry, sliders: sliders, metrics: metrics}
}

// ReferenceRole returns the managed modifier role a bake of attr reads.
func ReferenceRole(attr string) string {
	switch attr {
	case attribute.FilletConstrained:
		return RoleConstrained
	case attribute.FilletWeighted:
		return RoleWeighted
	case attribute.ChamferWeight:
		return RoleChamfer
	default:
		return ""
	}
}

// Apply bakes attr on obj's selected edges. Every precondition is checked
// before the mesh is touched. The caller's mode is restored on return.
func (e *Engine) Apply(doc *document.Document, obj *document.Object, attr string, ov Overrides) (res Result, err error) {
	res.Attribute = attr
	if !attribute.IsEdgeFlag(attr) {
		return res, fmt.Errorf("%w: %q cannot be applied", attribute.ErrUnknownAttribute, attr)
	}
	if !obj.IsMesh() {
		return res, fmt.Errorf("%w: %s", selection.ErrNotMesh, obj.Name)
	}
	var ref *document.Modifier
	if role := ReferenceRole(attr); role != "" {
		ref = stack.Find(obj, role)
		if ref == nil || ref.Bevel == nil {
			return res, fmt.Errorf("%w: %s on %s", ErrMissingReferenceModifier, stack.QualifiedName(role), obj.Name)
		}
	}
	layer, err := attribute.Layer(obj.Mesh, attr)
	if err != nil {
		return res, err
	}
	var marker *document.Layer
	if attr == attribute.FilletConstrained || attr == attribute.FilletWeighted {
		if marker, err = attribute.Layer(obj.Mesh, attribute.FreestyleEdge); err != nil {
			return res, err
		}
	}
	edges, err := selection.CurrentEdgeSelection(doc, obj)
	if err != nil {
		return res, err
	}

	prior := doc.Mode
	defer func() {
		if restoreErr := doc.SetMode(prior); restoreErr != nil {
			err = errors.Join(err, restoreErr)
		}
	}()
	if err := doc.SetMode(document.ModeObject); err != nil {
		return res, err
	}

	var flagged []int
	sum := 0.0
	for _, idx := range edges {
		value := layer.Values[idx]
		if layer.Kind == document.KindBoolean {
			if !attribute.Flagged(value) {
				obj.Mesh.SetEdgeSelect(idx, false)
				res.Deselected++
				continue
			}
		} else {
			if value <= 0 {
				obj.Mesh.SetEdgeSelect(idx, false)
				res.Deselected++
				continue
			}
			sum += value
		}
		flagged = append(flagged, idx)
		layer.Values[idx] = 0
	}
	res.Baked = len(flagged)
	if res.Baked > 0 {
		res.Average = sum / float64(res.Baked)
	}

	if err := doc.SetMode(document.ModeEdit); err != nil {
		return res, err
	}
	if res.Baked == 0 {
		return res, nil
	}

	switch attr {
	case attribute.FilletConstrained:
		zero(marker, flagged)
		segments := pick(ov.Segments, ref.Bevel.Segments)
		err = withAutomerge(doc, true, func() error {
			return e.geometry.Bevel(doc, obj, document.BevelRequest{
				Offset:     1,
				OffsetPct:  100,
				OffsetType: "PERCENT",
				Segments:   segments,
				Profile:    0.5,
				Affect:     "EDGES",
				MiterInner: "SHARP",
				MiterOuter: "ARC",
			})
		})
		res.Operation = document.OpBevel
	case attribute.FilletWeighted:
		zero(marker, flagged)
		err = e.geometry.Bevel(doc, obj, liveBevel(ref.Bevel, res.Average, ov))
		res.Operation = document.OpBevel
	case attribute.ChamferWeight:
		if e.sliders != nil {
			e.sliders.Reset(doc, attr, 0)
		} else {
			doc.SetSlider(attr, 0)
		}
		err = e.geometry.Bevel(doc, obj, liveBevel(ref.Bevel, res.Average, ov))
		res.Operation = document.OpBevel
	case attribute.PanelEdge:
		err = withAutomerge(doc, false, func() error {
			return e.geometry.EdgeSplit(doc, obj)
		})
		res.Operation = document.OpEdgeSplit
	case attribute.SharpEdge:
	}
	if err != nil {
		return res, err
	}
	if e.metrics != nil {
		e.metrics.EdgesBaked(attr, res.Baked)
	}
	return res, nil
}

// liveBevel copies the preview modifier's parameters so the bake matches
// what the modifier showed.
func liveBevel(mod *document.BevelSettings, average float64, ov Overrides) document.BevelRequest {
	width := mod.Width
	if ov.Width > 0 {
		width = ov.Width
	}
	return document.BevelRequest{
		Offset:       average * width,
		OffsetType:   mod.OffsetType,
		Segments:     pick(ov.Segments, mod.Segments),
		Profile:      mod.Profile,
		Affect:       "EDGES",
		MiterInner:   "SHARP",
		MiterOuter:   "ARC",
		ClampOverlap: mod.ClampOverlap,
		LoopSlide:    mod.LoopSlide,
	}
}

// zero clears the marker layer on edges. The layer was validated before
// the scan, so the indices are in range.
func zero(layer *document.Layer, edges []int) {
	for _, idx := range edges {
		layer.Values[idx] = 0
	}
}

func withAutomerge(doc *document.Document, want bool, fn func() error) error {
	prior := doc.Tools.Automerge
	doc.Tools.Automerge = want
	defer func() { doc.Tools.Automerge = prior }()
	return fn()
}

func pick(override, live int) int {
	if override > 0 {
		return override
	}
	return live
}

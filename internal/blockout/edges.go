package blockout

import (
	"errors"
	"fmt"

	"github.com/kingrea/blockout/internal/attribute"
	"github.com/kingrea/blockout/internal/bake"
	"github.com/kingrea/blockout/internal/document"
	"github.com/kingrea/blockout/internal/selection"
)

// mirrorOf returns the attribute kept in step with attr, if any.
func mirrorOf(attr string) string {
	switch attr {
	case attribute.PanelEdge:
		return attribute.UVSeam
	case attribute.FilletConstrained, attribute.FilletWeighted:
		return attribute.FreestyleEdge
	default:
		return ""
	}
}

// writeEdges is the single edge-attribute write path. Panel flags are
// mirrored into uv_seam and fillet flags into freestyle_edge. Both layers
// are validated before either is written.
func (s *Session) writeEdges(_ *document.Document, obj *document.Object, attr string, edges []int, value float64) error {
	mirror := mirrorOf(attr)
	if mirror != "" {
		if _, err := attribute.Layer(obj.Mesh, mirror); err != nil {
			return err
		}
	}
	if err := attribute.Write(obj.Mesh, attr, edges, value); err != nil {
		return err
	}
	if mirror == "" {
		return nil
	}
	flag := 0.0
	if attribute.Flagged(value) {
		flag = 1
	}
	return attribute.Write(obj.Mesh, mirror, edges, flag)
}

// SetEdgeAttribute writes value to attr on the active mesh's selected
// edges. With toggle set the value is chosen by majority: when fewer than
// half of the selection is flagged every edge is set to 1, otherwise every
// edge is cleared. It returns the value written.
func (s *Session) SetEdgeAttribute(attr string, value float64, toggle bool) (written float64, err error) {
	doc, done, err := s.begin("set_edge_attribute")
	if err != nil {
		return 0, err
	}
	defer done(&err)

	if !attribute.IsEdgeFlag(attr) {
		return 0, s.fail("set edge attribute", fmt.Errorf("%w: %q", attribute.ErrUnknownAttribute, attr))
	}
	obj, err := selection.ActiveMesh(doc)
	if err != nil {
		return 0, s.fail("set edge attribute", err)
	}
	edges, err := selection.CurrentEdgeSelection(doc, obj)
	if err != nil {
		return 0, s.fail("set edge attribute", err)
	}
	err = selection.WithMode(doc, document.ModeObject, func() error {
		if _, err := attribute.EnsureSchema(obj.Mesh); err != nil {
			return err
		}
		if toggle {
			flagged, err := attribute.CountFlagged(obj.Mesh, attr, edges)
			if err != nil {
				return err
			}
			value = 0
			if float64(flagged)/float64(len(edges)) < 0.5 {
				value = 1
			}
		}
		return s.writeEdges(doc, obj, attr, edges, value)
	})
	if err != nil {
		return 0, s.fail("set edge attribute", err)
	}
	s.info("Set %s = %g on %d edges of %s", attr, value, len(edges), obj.Name)
	return value, nil
}

// SelectByAttribute replaces the edge selection of every resolved mesh with
// the edges flagged in attr. It returns the total selected.
func (s *Session) SelectByAttribute(attr string) (total int, err error) {
	doc, done, err := s.begin("select_by_attribute")
	if err != nil {
		return 0, err
	}
	defer done(&err)

	if _, err := attribute.Require(attr); err != nil {
		return 0, s.fail("select by attribute", err)
	}
	objects := s.resolveObjects(doc)
	var errs []error
	for _, obj := range objects {
		if !attribute.Present(obj.Mesh, attr) {
			if _, err := attribute.EnsureSchema(obj.Mesh); err != nil {
				errs = append(errs, s.fail("select by attribute", fmt.Errorf("%s: %w", obj.Name, err)))
				continue
			}
		}
		n, err := selection.SelectByAttribute(doc, obj, attr, nil)
		if err != nil {
			errs = append(errs, s.fail("select by attribute", fmt.Errorf("%s: %w", obj.Name, err)))
			continue
		}
		total += n
	}
	if len(objects) > 0 {
		s.info("Selected %d edges by %s on %s", total, attr, describe(objects))
	}
	return total, errors.Join(errs...)
}

// ApplyAttribute bakes attr on the active mesh's selection into geometry.
func (s *Session) ApplyAttribute(attr string, ov bake.Overrides) (res bake.Result, err error) {
	doc, done, err := s.begin("apply_attribute")
	if err != nil {
		return res, err
	}
	defer done(&err)

	obj, err := selection.ActiveMesh(doc)
	if err != nil {
		return res, s.fail("apply attribute", err)
	}
	res, err = s.baker.Apply(doc, obj, attr, ov)
	if err != nil {
		return res, s.fail("apply attribute", err)
	}
	if res.Baked == 0 {
		s.warn("No %s edges in selection", attr)
		return res, nil
	}
	s.info("Applied %s to %d edges of %s", attr, res.Baked, obj.Name)
	return res, nil
}

// EditSlider is the host's slider write: it stores pct on the scene, and
// the slider engine writes pct/100 to the selected edges.
func (s *Session) EditSlider(attr string, pct float64) (err error) {
	doc, done, err := s.begin("edit_slider")
	if err != nil {
		return err
	}
	defer done(&err)

	if _, err := attribute.Require(attr); err != nil {
		return s.fail("edit slider", err)
	}
	if err := checkSliderRange(attr, pct); err != nil {
		return s.fail("edit slider", err)
	}
	s.sliderErr = nil
	doc.SetSlider(attr, pct)
	if s.sliderErr != nil {
		return s.fail("edit slider", s.sliderErr)
	}
	return nil
}

// checkSliderRange bounds the chamfer slider to 0..100. The fillet slider
// only has a soft maximum of 100, so weights above 1 are allowed.
func checkSliderRange(attr string, pct float64) error {
	if pct < 0 {
		return fmt.Errorf("slider %s: %g is negative", attr, pct)
	}
	if attr != attribute.FilletWeighted && pct > 100 {
		return fmt.Errorf("slider %s: %g outside 0..100", attr, pct)
	}
	return nil
}

// OnDocumentChanged is the observer entry: it keeps user modifiers on the
// active object ahead of the managed stack and syncs sliders to the
// selection.
func (s *Session) OnDocumentChanged() (err error) {
	doc, done, err := s.begin("document_changed")
	if err != nil {
		return err
	}
	defer done(&err)

	active := doc.ActiveObject()
	if !active.IsMesh() {
		return nil
	}
	if moved := s.reconciler.Observe(active); moved > 0 {
		s.logger.Printf("moved %d modifiers ahead of the managed stack on %s", moved, active.Name)
	}
	if _, err := s.sliders.OnDocumentChanged(doc); err != nil {
		return s.fail("slider sync", err)
	}
	return nil
}

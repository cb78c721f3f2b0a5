package slider

import (
	"errors"
	"math"
	"testing"

	"github.com/kingrea/blockout/internal/attribute"
	"github.com/kingrea/blockout/internal/document"
)

func setup(t *testing.T) (*document.Document, *document.Object, *Engine) {
	doc, cube, engine, _ := setupWithSink(t)
	return doc, cube, engine
}

func setupWithSink(t *testing.T) (*document.Document, *document.Object, *Engine, *[]error) {
	t.Helper()
	doc := document.NewSample()
	cube := doc.Object("Cube")
	if _, err := attribute.EnsureSchema(cube.Mesh); err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if err := doc.SetMode(document.ModeEdit); err != nil {
		t.Fatalf("edit: %v", err)
	}
	engine := New(nil, nil)
	var errs []error
	engine.Attach(doc, func(err error) {
		if err != nil {
			errs = append(errs, err)
		}
	})
	return doc, cube, engine, &errs
}

func TestSliderRoundTrip(t *testing.T) {
	doc, cube, engine := setup(t)
	layer := cube.Mesh.Layer(attribute.ChamferWeight)
	layer.Values[0], layer.Values[1], layer.Values[2] = 0.2, 0.4, 0.6
	_ = cube.Mesh.SelectEdges(0, 1, 2)

	updated, err := engine.OnDocumentChanged(doc)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if len(updated) != 1 || updated[0] != attribute.ChamferWeight {
		t.Fatalf("updated = %v", updated)
	}
	if got := doc.Slider(attribute.ChamferWeight); math.Abs(got-40) > 1e-9 {
		t.Fatalf("slider = %v, want 40", got)
	}
	if layer.Values[0] != 0.2 || layer.Values[2] != 0.6 {
		t.Fatalf("selection sync wrote back to edges: %v", layer.Values[:3])
	}

	doc.SetSlider(attribute.ChamferWeight, 55)
	for _, idx := range []int{0, 1, 2} {
		if math.Abs(layer.Values[idx]-0.55) > 1e-12 {
			t.Fatalf("edge %d = %v, want 0.55", idx, layer.Values[idx])
		}
	}
	if layer.Values[3] != 0 {
		t.Fatalf("unselected edge written")
	}
	if engine.State() != Idle {
		t.Fatalf("state = %s", engine.State())
	}
}

func TestSyncSkipsWithinEpsilon(t *testing.T) {
	doc, cube, engine := setup(t)
	layer := cube.Mesh.Layer(attribute.FilletWeighted)
	layer.Values[4] = 0.5
	_ = cube.Mesh.SelectEdges(4)
	doc.Scene.Sliders[attribute.FilletWeighted] = 50 + Epsilon/2
	updated, err := engine.OnDocumentChanged(doc)
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	for _, name := range updated {
		if name == attribute.FilletWeighted {
			t.Fatalf("slider within epsilon was rewritten")
		}
	}
}

func TestSyncNeedsEditModeAndSelection(t *testing.T) {
	doc, _, engine := setup(t)
	if updated, _ := engine.OnDocumentChanged(doc); len(updated) != 0 {
		t.Fatalf("empty selection updated %v", updated)
	}
	_ = doc.SetMode(document.ModeObject)
	if updated, _ := engine.OnDocumentChanged(doc); len(updated) != 0 {
		t.Fatalf("object mode updated %v", updated)
	}
}

func TestEditIgnoredWhileSyncing(t *testing.T) {
	doc, cube, engine := setup(t)
	_ = cube.Mesh.SelectEdges(1)
	engine.state = SyncingFromSelection
	wrote, err := engine.OnSliderEdited(doc, attribute.ChamferWeight, 90)
	if err != nil || wrote {
		t.Fatalf("edit while syncing: wrote=%v err=%v", wrote, err)
	}
	engine.state = Idle
	if wrote, _ := engine.OnSliderEdited(doc, attribute.PanelEdge, 90); wrote {
		t.Fatalf("unmonitored attribute written")
	}
}

func TestResetDoesNotWriteEdges(t *testing.T) {
	doc, cube, engine := setup(t)
	layer := cube.Mesh.Layer(attribute.ChamferWeight)
	layer.Values[1] = 0.3
	_ = cube.Mesh.SelectEdges(1)
	engine.Reset(doc, attribute.ChamferWeight, 0)
	if layer.Values[1] != 0.3 {
		t.Fatalf("reset wrote edge value %v", layer.Values[1])
	}
	if doc.Slider(attribute.ChamferWeight) != 0 {
		t.Fatalf("slider not reset")
	}
}

func TestAttachReportsWriteErrors(t *testing.T) {
	doc, cube, _, errs := setupWithSink(t)
	_ = cube.Mesh.SelectEdges(0)
	layer := cube.Mesh.Layer(attribute.ChamferWeight)
	layer.Values = layer.Values[:2]

	doc.SetSlider(attribute.ChamferWeight, 30)
	if len(*errs) != 1 || !errors.Is((*errs)[0], attribute.ErrSizeMismatch) {
		t.Fatalf("errors = %v", *errs)
	}
}

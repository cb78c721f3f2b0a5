package stack

import (
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/kingrea/blockout/internal/assets"
	"github.com/kingrea/blockout/internal/document"
)

type recordingLogger struct {
	warnings []string
}

func (l *recordingLogger) Warnf(format string, args ...any) {
	l.warnings = append(l.warnings, fmt.Sprintf(format, args...))
}

func bevelSpec(segments int) Spec {
	settings := document.DefaultBevelSettings()
	settings.Segments = segments
	return Spec{Role: "Bevel_Weighted", Kind: document.ModifierBevel, Settings: settings}
}

func TestEnsureIsIdempotent(t *testing.T) {
	doc := document.NewSample()
	cube := doc.Object("Cube")
	m := NewManager(nil, nil, nil)
	first, created, err := m.Ensure(doc, cube, bevelSpec(10))
	if err != nil || !created {
		t.Fatalf("first ensure: created=%v err=%v", created, err)
	}
	if first.Name != " BP_Bevel_Weighted" || !first.Owned || first.ShowExpanded {
		t.Fatalf("unexpected modifier %+v", first)
	}
	second, created, err := m.Ensure(doc, cube, bevelSpec(3))
	if err != nil || created {
		t.Fatalf("second ensure: created=%v err=%v", created, err)
	}
	if second != first || second.Bevel.Segments != 10 {
		t.Fatalf("second ensure modified the first modifier: segments=%d", second.Bevel.Segments)
	}
	if len(cube.Modifiers) != 1 {
		t.Fatalf("stack has %d modifiers", len(cube.Modifiers))
	}
}

func TestEnsureIgnoresUserModifierWithSameName(t *testing.T) {
	doc := document.NewSample()
	cube := doc.Object("Cube")
	cube.AddModifier(" BP_Bevel_Weighted", document.ModifierBevel)
	mod, created, err := NewManager(nil, nil, nil).Ensure(doc, cube, bevelSpec(4))
	if err != nil || !created {
		t.Fatalf("ensure: created=%v err=%v", created, err)
	}
	if mod.Name != " BP_Bevel_Weighted.001" {
		t.Fatalf("name = %q", mod.Name)
	}
}

func TestEnsureFallsBackToCustomProperty(t *testing.T) {
	doc := document.NewSample()
	cube := doc.Object("Cube")
	logger := &recordingLogger{}
	spec := bevelSpec(2)
	spec.Inputs = map[string]any{"Socket_4": 3, "segments": "many", "width": 0.25}
	mod, _, err := NewManager(nil, logger, nil).Ensure(doc, cube, spec)
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	if mod.Props["Socket_4"] != 3 {
		t.Fatalf("props = %v", mod.Props)
	}
	if mod.Bevel.Width != 0.25 {
		t.Fatalf("width = %v, later keys must still apply", mod.Bevel.Width)
	}
	if len(logger.warnings) != 2 {
		t.Fatalf("warnings = %v", logger.warnings)
	}
}

func TestEnsureNodeModifierImportsGroup(t *testing.T) {
	doc := document.NewSample()
	cube := doc.Object("Cube")
	m := NewManager(assets.NewImporter("", nil), nil, nil)
	mod, _, err := m.Ensure(doc, cube, Spec{
		Role:   "EdgeDetect",
		Kind:   document.ModifierNodes,
		Inputs: map[string]any{"Angle threshold": 0.7},
	})
	if err != nil {
		t.Fatalf("ensure: %v", err)
	}
	group := doc.NodeGroup("BP_EdgeDetect")
	if group == nil || mod.Nodes.GroupKey != group.Key {
		t.Fatalf("node group not bound")
	}
	if mod.Nodes.Inputs["Angle threshold"] != 0.7 || mod.Nodes.Inputs["Weight attribute"] != "chamfer_weight" {
		t.Fatalf("inputs = %v", mod.Nodes.Inputs)
	}
}

func TestEnsureNodeModifierMissingAsset(t *testing.T) {
	doc := document.NewSample()
	cube := doc.Object("Cube")
	m := NewManager(assets.NewImporter(filepath.Join(t.TempDir(), "none.yaml"), nil), nil, nil)
	_, _, err := m.Ensure(doc, cube, Spec{Role: "PanelSplit", Kind: document.ModifierNodes})
	if !errors.Is(err, assets.ErrAssetUnavailable) {
		t.Fatalf("expected ErrAssetUnavailable, got %v", err)
	}
	if len(cube.Modifiers) != 0 {
		t.Fatalf("modifier created despite missing asset")
	}
}

func TestReconcilerMovesNewUserModifierBeforeManaged(t *testing.T) {
	doc := document.NewSample()
	cube := doc.Object("Cube")
	m := NewManager(nil, nil, nil)
	var managed []*document.Modifier
	for _, role := range []string{"A", "B", "C"} {
		mod, _, err := m.Ensure(doc, cube, Spec{Role: role, Kind: document.ModifierWeld})
		if err != nil {
			t.Fatalf("ensure %s: %v", role, err)
		}
		managed = append(managed, mod)
	}
	r := NewReconciler(nil)
	if moved := r.Observe(cube); moved != 0 {
		t.Fatalf("baseline observation moved %d", moved)
	}
	user := cube.AddModifier("Mirror", document.ModifierMirror)
	if moved := r.Observe(cube); moved != 1 {
		t.Fatalf("moved = %d, want 1", moved)
	}
	want := []*document.Modifier{user, managed[0], managed[1], managed[2]}
	for i, mod := range want {
		if cube.Modifiers[i] != mod {
			t.Fatalf("position %d = %s, want %s", i, cube.Modifiers[i].Name, mod.Name)
		}
	}
	if moved := r.Observe(cube); moved != 0 {
		t.Fatalf("second observation moved %d", moved)
	}
}

func TestReconcilerLeavesEarlierUserModifiers(t *testing.T) {
	doc := document.NewSample()
	cube := doc.Object("Cube")
	r := NewReconciler(nil)
	r.Prime(cube)
	cube.AddModifier("Array", document.ModifierGeneric)
	if moved := r.Observe(cube); moved != 0 {
		t.Fatalf("moved = %d with no managed modifiers", moved)
	}
}

func TestToggleVisibilityMajority(t *testing.T) {
	doc := document.NewSample()
	cube := doc.Object("Cube")
	m := NewManager(nil, nil, nil)
	for _, role := range []string{"A", "B", "C", "D"} {
		if _, _, err := m.Ensure(doc, cube, Spec{Role: role, Kind: document.ModifierWeld}); err != nil {
			t.Fatalf("ensure: %v", err)
		}
	}
	user := cube.AddModifier("User", document.ModifierGeneric)
	res := ToggleVisibility([]*document.Object{cube})
	if res.Total != 4 || res.Shown {
		t.Fatalf("first toggle = %+v, want hide", res)
	}
	for _, mod := range Owned(cube) {
		if mod.ShowViewport {
			t.Fatalf("%s still visible", mod.Name)
		}
	}
	if !user.ShowViewport {
		t.Fatalf("user modifier must not be touched")
	}
	Owned(cube)[0].ShowViewport = true
	Owned(cube)[1].ShowViewport = true
	if res := ToggleVisibility([]*document.Object{cube}); res.Shown {
		t.Fatalf("exactly half visible should hide, got %+v", res)
	}
	if res := ToggleVisibility(nil); res.Total != 0 || res.Shown {
		t.Fatalf("empty toggle = %+v", res)
	}
}

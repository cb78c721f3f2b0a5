package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/kingrea/blockout/internal/attribute"
	"github.com/kingrea/blockout/internal/blockout"
	"github.com/kingrea/blockout/internal/config"
	"github.com/kingrea/blockout/internal/document"
	"github.com/kingrea/blockout/internal/eventbridge"
	"github.com/kingrea/blockout/internal/stack"
)

func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(append([]string{"--project", dir}, args...))
	err := root.Execute()
	return out.String(), err
}

func mustExecute(t *testing.T, dir string, args ...string) string {
	t.Helper()
	out, err := execute(t, dir, args...)
	if err != nil {
		t.Fatalf("blockout %s: %v\n%s", strings.Join(args, " "), err, out)
	}
	return out
}

func initProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	mustExecute(t, dir, "init")
	return dir
}

func loadScene(t *testing.T, dir string) *document.Document {
	t.Helper()
	repo := document.NewRepository(filepath.Join(dir, config.BlockoutDir, "state", "scene.json"))
	doc, err := repo.Load()
	if err != nil {
		t.Fatalf("load scene: %v", err)
	}
	return doc
}

func readEdge(t *testing.T, doc *document.Document, attr string, idx int) float64 {
	t.Helper()
	values, err := attribute.Read(doc.Object("Cube").Mesh, attr, []int{idx})
	if err != nil {
		t.Fatalf("read %s: %v", attr, err)
	}
	return values[0]
}

func TestInitWritesScaffold(t *testing.T) {
	dir := t.TempDir()
	out := mustExecute(t, dir, "init")
	for _, rel := range []string{"config.yaml", "assets/nodes.yaml", "state/scene.json"} {
		if _, err := os.Stat(filepath.Join(dir, config.BlockoutDir, rel)); err != nil {
			t.Fatalf("expected %s: %v", rel, err)
		}
	}
	if !strings.Contains(out, "scene.json") {
		t.Fatalf("init output should name the scene: %q", out)
	}
	again := mustExecute(t, dir, "init")
	if !strings.Contains(again, "Kept") {
		t.Fatalf("second init should keep the scene: %q", again)
	}
}

func TestCommandsRequireInit(t *testing.T) {
	_, err := execute(t, t.TempDir(), "select", "0")
	if err == nil || !strings.Contains(err.Error(), "blockout init") {
		t.Fatalf("expected init hint, got %v", err)
	}
}

func TestEdgeSetTogglesAndPersists(t *testing.T) {
	dir := initProject(t)
	mustExecute(t, dir, "select", "0,1")
	out := mustExecute(t, dir, "edge", "set", attribute.PanelEdge)
	if !strings.Contains(out, "panel_edge = 1") {
		t.Fatalf("unexpected output %q", out)
	}
	doc := loadScene(t, dir)
	if readEdge(t, doc, attribute.PanelEdge, 1) != 1 || readEdge(t, doc, attribute.UVSeam, 1) != 1 {
		t.Fatalf("panel flag should be saved with its uv seam")
	}

	status := mustExecute(t, dir, "status")
	if !strings.Contains(status, "panel_edge") || !strings.Contains(status, "active: Cube") {
		t.Fatalf("status missing flags:\n%s", status)
	}

	mustExecute(t, dir, "edge", "set", attribute.PanelEdge)
	if got := readEdge(t, loadScene(t, dir), attribute.PanelEdge, 0); got != 0 {
		t.Fatalf("second toggle should clear, got %v", got)
	}
}

func TestEdgeSetExplicitValue(t *testing.T) {
	dir := initProject(t)
	mustExecute(t, dir, "select", "4")
	mustExecute(t, dir, "edge", "set", attribute.ChamferWeight, "--value", "0.25")
	if got := readEdge(t, loadScene(t, dir), attribute.ChamferWeight, 4); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}

func TestSliderWritesSelectedEdges(t *testing.T) {
	dir := initProject(t)
	mustExecute(t, dir, "mode", "edit", "edge")
	mustExecute(t, dir, "select", "2")
	mustExecute(t, dir, "edge", "set", attribute.ChamferWeight)
	if got := loadScene(t, dir).Slider(attribute.ChamferWeight); got != 100 {
		t.Fatalf("slider should follow the selection, got %v", got)
	}
	mustExecute(t, dir, "slider", attribute.ChamferWeight, "40")
	doc := loadScene(t, dir)
	if got := readEdge(t, doc, attribute.ChamferWeight, 2); got != 0.4 {
		t.Fatalf("expected 0.4, got %v", got)
	}
	if _, err := execute(t, dir, "slider", attribute.ChamferWeight, "140"); err == nil {
		t.Fatalf("expected range error")
	}
}

func TestAddModifiersThenApplyWeightedFillet(t *testing.T) {
	dir := initProject(t)
	out := mustExecute(t, dir, "add-modifiers")
	if !strings.Contains(out, "Created") {
		t.Fatalf("unexpected output %q", out)
	}
	doc := loadScene(t, dir)
	if len(doc.Object("Cube").Modifiers) == 0 {
		t.Fatalf("expected managed modifiers to be saved")
	}

	mustExecute(t, dir, "select", "0", "1")
	mustExecute(t, dir, "edge", "set", attribute.FilletWeighted, "--value", "0.6")
	out = mustExecute(t, dir, "edge", "apply", attribute.FilletWeighted)
	if !strings.Contains(out, "Baked 2 edges") {
		t.Fatalf("unexpected output %q", out)
	}
	if ops := loadScene(t, dir).OpLog; len(ops) != 1 {
		t.Fatalf("expected one geometry op, got %d", len(ops))
	}
}

func TestUserModifierMovesAheadOfManagedStack(t *testing.T) {
	dir := initProject(t)
	mustExecute(t, dir, "add-modifiers", "--simplified")
	mustExecute(t, dir, "modifier", "add", "mirror", "mine")
	mods := loadScene(t, dir).Object("Cube").Modifiers
	if len(mods) == 0 || mods[0].Name != "mine" {
		t.Fatalf("user modifier should lead the stack, got %d modifiers", len(mods))
	}
}

func TestMirrorAndVisibility(t *testing.T) {
	dir := initProject(t)
	mustExecute(t, dir, "mirror", "--axes", "xz")
	mod := stack.Find(loadScene(t, dir).Object("Cube"), blockout.RoleSmartMirror)
	if mod == nil || mod.Mirror == nil {
		t.Fatalf("expected a managed mirror modifier")
	}
	if mod.Mirror.Axis != [3]bool{true, false, true} || mod.Mirror.MirrorObject != "Root" {
		t.Fatalf("mirror = %+v", mod.Mirror)
	}
	out := mustExecute(t, dir, "visibility")
	if !strings.Contains(out, "Hiding 1 modifiers") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := execute(t, dir, "mirror", "--axes", "w"); err == nil {
		t.Fatalf("expected unknown axis error")
	}
}

func TestBridgeProcessorRoutesAndSaves(t *testing.T) {
	dir := initProject(t)
	e := &env{projectDir: dir}
	s, err := e.open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer e.close()
	if err := s.SelectEdges([]int{5}); err != nil {
		t.Fatalf("select: %v", err)
	}
	router := eventbridge.NewRouter()
	defer s.Subscribe(router)()
	process := bridgeProcessor(e, s, router)

	args, _ := json.Marshal(blockout.EdgeArgs{Attribute: attribute.SharpEdge, Toggle: true})
	payload, _ := json.Marshal(eventbridge.OperatorPayload{Operation: blockout.OpSetEdgeAttribute, Args: args})
	event := eventbridge.Event{
		Version: eventbridge.EventSchemaVersion,
		EventID: "evt-1",
		Type:    eventbridge.TypeOperator,
		Object:  "Cube",
		Payload: payload,
	}
	if err := process.HandleEvent(event); err != nil {
		t.Fatalf("handle: %v", err)
	}
	if got := readEdge(t, loadScene(t, dir), attribute.SharpEdge, 5); got != 1 {
		t.Fatalf("sharp_edge not saved, got %v", got)
	}
}

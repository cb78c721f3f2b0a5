package tui

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/blockout/internal/assets"
	"github.com/kingrea/blockout/internal/attribute"
	"github.com/kingrea/blockout/internal/blockout"
	"github.com/kingrea/blockout/internal/document"
	"github.com/kingrea/blockout/internal/logbook"
	"github.com/kingrea/blockout/internal/selection"
)

func newTestApp(t *testing.T, opts ...AppOption) (*App, *document.Document, *logbook.Logbook) {
	t.Helper()
	lb, err := logbook.New(filepath.Join(t.TempDir(), "logs", "journal.log"))
	if err != nil {
		t.Fatalf("logbook: %v", err)
	}
	session := blockout.New(blockout.Deps{Reporter: lb, Importer: assets.NewImporter("", nil)})
	doc := document.NewSample()
	session.Open(doc)
	opts = append([]AppOption{WithLogbook(lb)}, opts...)
	return NewApp(session, opts...), doc, lb
}

func press(t *testing.T, app *App, keys ...string) *App {
	t.Helper()
	for _, key := range keys {
		var msg tea.KeyMsg
		switch key {
		case "tab":
			msg = tea.KeyMsg{Type: tea.KeyTab}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
		}
		model, _ := app.Update(msg)
		next, ok := model.(*App)
		if !ok {
			t.Fatalf("unexpected model type: %T", model)
		}
		app = next
	}
	return app
}

func TestSnapshotListsActiveMeshEdges(t *testing.T) {
	app, _, _ := newTestApp(t)
	if app.snap.Object != "Cube" {
		t.Fatalf("expected Cube active, got %q", app.snap.Object)
	}
	if len(app.snap.Rows) != 12 {
		t.Fatalf("expected 12 edge rows, got %d", len(app.snap.Rows))
	}
	if _, ok := app.snap.Rows[0].Values[attribute.PanelEdge]; ok {
		t.Fatalf("panel flag should be absent before the schema exists")
	}
}

func TestSpaceSelectsEdgeUnderCursor(t *testing.T) {
	app, doc, _ := newTestApp(t)
	app = press(t, app, "j", "j", "space")
	got := doc.ActiveObject().Mesh.SelectedEdges()
	if len(got) != 1 || got[0] != 2 {
		t.Fatalf("expected edge 2 selected, got %v", got)
	}
	if !app.snap.Rows[2].Selected {
		t.Fatalf("snapshot should mark edge 2 selected")
	}

	app = press(t, app, "space")
	if n := len(doc.ActiveObject().Mesh.SelectedEdges()); n != 0 {
		t.Fatalf("second press should deselect, got %d selected", n)
	}

	app = press(t, app, "a")
	if n := len(doc.ActiveObject().Mesh.SelectedEdges()); n != 12 {
		t.Fatalf("select all should pick 12 edges, got %d", n)
	}
	press(t, app, "a")
	if n := len(doc.ActiveObject().Mesh.SelectedEdges()); n != 0 {
		t.Fatalf("second select all should clear, got %d", n)
	}
}

func TestFlagKeyTogglesPanelEdge(t *testing.T) {
	app, doc, _ := newTestApp(t)
	app = press(t, app, "space", "1")
	if app.err != nil {
		t.Fatalf("unexpected error: %v", app.err)
	}
	mesh := doc.ActiveObject().Mesh
	for _, attr := range []string{attribute.PanelEdge, attribute.UVSeam} {
		values, err := attribute.Read(mesh, attr, []int{0})
		if err != nil {
			t.Fatalf("read %s: %v", attr, err)
		}
		if values[0] != 1 {
			t.Fatalf("expected %s set on edge 0, got %v", attr, values[0])
		}
	}
	if got := formatFlag(attribute.PanelEdge, app.snap.Rows[0].Values); got != "✓" {
		t.Fatalf("expected flagged cell, got %q", got)
	}

	app = press(t, app, "1")
	values, _ := attribute.Read(mesh, attribute.PanelEdge, []int{0})
	if values[0] != 0 {
		t.Fatalf("second toggle should clear, got %v", values[0])
	}
}

func TestFlagKeyWithoutSelectionReportsError(t *testing.T) {
	app, doc, _ := newTestApp(t)
	app = press(t, app, "1")
	if !errors.Is(app.err, selection.ErrNoSelection) {
		t.Fatalf("expected ErrNoSelection, got %v", app.err)
	}
	if !strings.HasPrefix(app.statusMsg, "Error:") {
		t.Fatalf("expected error status, got %q", app.statusMsg)
	}
	if doc.Mode != document.ModeObject {
		t.Fatalf("mode should be unchanged, got %s", doc.Mode)
	}
}

func TestSliderKeysWriteSelectedEdges(t *testing.T) {
	app, doc, _ := newTestApp(t)
	app = press(t, app, "j", "j", "space", "2", "e")
	if doc.Mode != document.ModeEdit {
		t.Fatalf("expected edit mode, got %s", doc.Mode)
	}
	if got := app.snap.Sliders[attribute.ChamferWeight]; got != 100 {
		t.Fatalf("slider should follow the selection to 100, got %v", got)
	}

	app = press(t, app, "[")
	if app.err != nil {
		t.Fatalf("unexpected error: %v", app.err)
	}
	values, err := attribute.Read(doc.ActiveObject().Mesh, attribute.ChamferWeight, []int{2})
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if values[0] != 0.9 {
		t.Fatalf("expected chamfer 0.9 on edge 2, got %v", values[0])
	}
	if got := app.snap.Sliders[attribute.ChamferWeight]; got != 90 {
		t.Fatalf("expected slider 90, got %v", got)
	}
}

func TestActionMenuAddsModifiers(t *testing.T) {
	app, doc, _ := newTestApp(t)
	app = press(t, app, "tab", "enter")
	if app.err != nil {
		t.Fatalf("unexpected error: %v", app.err)
	}
	mods := doc.ActiveObject().Modifiers
	if len(mods) == 0 {
		t.Fatalf("expected managed modifiers on the cube")
	}
	if len(app.snap.Modifiers) != len(mods) {
		t.Fatalf("snapshot lists %d modifiers, document has %d", len(app.snap.Modifiers), len(mods))
	}
	view := app.View()
	if !strings.Contains(view, "Added") {
		t.Fatalf("log panel should show the add report:\n%s", view)
	}
}

func TestChangesAreSavedThroughRepository(t *testing.T) {
	repo := document.NewRepository(filepath.Join(t.TempDir(), "state", "scene.json"))
	app, _, _ := newTestApp(t, WithRepository(repo))
	press(t, app, "space")

	loaded, err := repo.Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got := loaded.ActiveObject().Mesh.SelectedEdges()
	if len(got) != 1 || got[0] != 0 {
		t.Fatalf("expected saved selection [0], got %v", got)
	}
}

func TestViewRendersPanels(t *testing.T) {
	app, _, _ := newTestApp(t)
	model, _ := app.Update(tea.WindowSizeMsg{Width: 140, Height: 40})
	view := model.(*App).View()
	for _, want := range []string{"BLOCKOUT", "Cube", "EDGE", "ACTIONS", attribute.ChamferWeight} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestQuitKey(t *testing.T) {
	app, _, _ := newTestApp(t)
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected tea.QuitMsg")
	}
}

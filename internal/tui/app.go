// internal/tui/app.go
//
// This is the terminal front end for blockout. It uses bubbletea, which
// follows The Elm Architecture:
//
// 1. Model: the App below, a cached snapshot of the session's document
// 2. Update: key presses call Session entry points, then refresh the snapshot
// 3. View: the snapshot rendered with lipgloss
//
// Every edit goes through the Session, exactly as an HTTP bridge event would,
// and is followed by OnDocumentChanged so reorder and slider sync run.

package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/kingrea/blockout/internal/attribute"
	"github.com/kingrea/blockout/internal/bake"
	"github.com/kingrea/blockout/internal/blockout"
	"github.com/kingrea/blockout/internal/document"
	"github.com/kingrea/blockout/internal/logbook"
	"github.com/kingrea/blockout/internal/slider"
)

// panelFocus says which panel receives navigation keys.
type panelFocus int

const (
	focusEdges panelFocus = iota
	focusActions
)

// sliderStep is the percentage one slider key press moves.
const sliderStep = 10.0

// logLines is how many journal lines the log panel shows.
const logLines = 8

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithRepository saves the document after every change.
func WithRepository(repo *document.Repository) AppOption {
	return func(a *App) {
		a.repo = repo
	}
}

// WithLogbook shows the report journal under the main panels.
func WithLogbook(lb *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = lb
	}
}

// edgeRow is one edge of the active mesh as the edge panel shows it.
type edgeRow struct {
	Index    int
	V1, V2   int
	Selected bool
	Values   map[string]float64 // keyed by edge flag; absent when the layer is missing
}

// snapshot is the document state the view renders. It is copied out under
// the session lock so View never touches the live document.
type snapshot struct {
	Object     string
	Mode       document.Mode
	SelectMode document.SelectMode
	Rows       []edgeRow
	Sliders    map[string]float64
	Modifiers  []modifierRow
}

type modifierRow struct {
	Name    string
	Kind    document.ModifierKind
	Owned   bool
	Visible bool
}

// actionItem implements list.Item for the action menu.
type actionItem struct {
	title string
	desc  string
	run   func(a *App) (string, error)
}

func (i actionItem) Title() string       { return i.title }
func (i actionItem) Description() string { return i.desc }
func (i actionItem) FilterValue() string { return i.title }

// App is the main application model.
type App struct {
	session *blockout.Session
	repo    *document.Repository
	logbook *logbook.Logbook

	actions list.Model
	bar     progress.Model
	focus   panelFocus
	cursor  int
	snap    snapshot

	statusMsg string
	err       error

	width  int
	height int
}

// NewApp builds the model over an opened session.
func NewApp(session *blockout.Session, opts ...AppOption) *App {
	actions := list.New(buildActions(), list.NewDefaultDelegate(), 0, 0)
	actions.Title = "ACTIONS"
	actions.SetShowStatusBar(false)
	actions.SetFilteringEnabled(false)
	actions.SetShowHelp(false)

	a := &App{
		session: session,
		actions: actions,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithWidth(24)),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.refresh()
	return a
}

func buildActions() []list.Item {
	items := []list.Item{
		actionItem{
			title: "Add modifiers",
			desc:  "Build the full managed stack on selected meshes",
			run: func(a *App) (string, error) {
				res, err := a.session.AddModifiers(blockout.DefaultOptions())
				return fmt.Sprintf("Created %d modifiers", res.Created), err
			},
		},
		actionItem{
			title: "Add modifiers (simplified)",
			desc:  "SubD, panel and chamfer only",
			run: func(a *App) (string, error) {
				opts := blockout.DefaultOptions()
				opts.Simplified = true
				res, err := a.session.AddModifiers(opts)
				return fmt.Sprintf("Created %d modifiers", res.Created), err
			},
		},
		actionItem{
			title: "Toggle modifier visibility",
			desc:  "Show or hide every managed modifier",
			run: func(a *App) (string, error) {
				res, err := a.session.ToggleModifierVisibility()
				if res.Total == 0 {
					return "No managed modifiers", err
				}
				state := "hidden"
				if res.Shown {
					state = "shown"
				}
				return fmt.Sprintf("%d modifiers %s", res.Total, state), err
			},
		},
		actionItem{
			title: "Smart mirror",
			desc:  "Mirror on Y across the nearest empty ancestor",
			run: func(a *App) (string, error) {
				return "Mirror configured", a.session.SmartMirror(blockout.MirrorOptions{Y: true})
			},
		},
	}
	for _, attr := range []string{attribute.PanelEdge, attribute.ChamferWeight, attribute.FilletConstrained, attribute.FilletWeighted} {
		attr := attr
		items = append(items, actionItem{
			title: "Apply " + attr,
			desc:  "Bake flagged selected edges into geometry",
			run: func(a *App) (string, error) {
				res, err := a.session.ApplyAttribute(attr, bake.Overrides{})
				return fmt.Sprintf("Baked %d edges", res.Baked), err
			},
		})
	}
	for _, attr := range attribute.EdgeFlags() {
		attr := attr
		items = append(items, actionItem{
			title: "Select by " + attr,
			desc:  "Replace the edge selection with flagged edges",
			run: func(a *App) (string, error) {
				n, err := a.session.SelectByAttribute(attr)
				return fmt.Sprintf("Selected %d edges", n), err
			},
		})
	}
	return items
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return nil
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.actions.SetSize(max(20, msg.Width/3), max(6, msg.Height-14))
		return a, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c", "q":
			return a, tea.Quit
		case "tab":
			if a.focus == focusEdges {
				a.focus = focusActions
			} else {
				a.focus = focusEdges
			}
			return a, nil
		case "e":
			return a, a.toggleMode()
		case "ctrl+s":
			return a, a.save()
		}
		if a.focus == focusActions {
			if key == "enter" {
				return a, a.runSelectedAction()
			}
			var cmd tea.Cmd
			a.actions, cmd = a.actions.Update(msg)
			return a, cmd
		}
		return a, a.handleEdgeKey(key)
	}
	return a, nil
}

func (a *App) handleEdgeKey(key string) tea.Cmd {
	switch key {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.snap.Rows)-1 {
			a.cursor++
		}
	case " ":
		a.toggleEdgeSelection()
	case "a":
		a.toggleSelectAll()
	case "1", "2", "3", "4", "5":
		flags := attribute.EdgeFlags()
		idx := int(key[0] - '1')
		if idx < len(flags) {
			attr := flags[idx]
			a.perform(func() (string, error) {
				v, err := a.session.SetEdgeAttribute(attr, 0, true)
				return fmt.Sprintf("%s = %g", attr, v), err
			})
		}
	case "[", "]":
		a.nudgeSlider(attribute.ChamferWeight, key == "]")
	case "{", "}":
		a.nudgeSlider(attribute.FilletWeighted, key == "}")
	case "v":
		a.perform(func() (string, error) {
			_, err := a.session.ToggleModifierVisibility()
			return "Toggled modifier visibility", err
		})
	}
	return nil
}

func (a *App) toggleEdgeSelection() {
	if a.cursor >= len(a.snap.Rows) {
		return
	}
	var selected []int
	for _, row := range a.snap.Rows {
		on := row.Selected
		if row.Index == a.snap.Rows[a.cursor].Index {
			on = !on
		}
		if on {
			selected = append(selected, row.Index)
		}
	}
	a.perform(func() (string, error) {
		return fmt.Sprintf("%d edges selected", len(selected)), a.session.SelectEdges(selected)
	})
}

func (a *App) toggleSelectAll() {
	var selected []int
	all := true
	for _, row := range a.snap.Rows {
		all = all && row.Selected
	}
	if !all {
		for _, row := range a.snap.Rows {
			selected = append(selected, row.Index)
		}
	}
	a.perform(func() (string, error) {
		return fmt.Sprintf("%d edges selected", len(selected)), a.session.SelectEdges(selected)
	})
}

func (a *App) nudgeSlider(attr string, up bool) {
	value := a.snap.Sliders[attr]
	if up {
		value += sliderStep
	} else {
		value -= sliderStep
	}
	value = clamp(value, 0, 100)
	a.perform(func() (string, error) {
		return fmt.Sprintf("%s slider %.0f%%", attr, value), a.session.EditSlider(attr, value)
	})
}

func (a *App) toggleMode() tea.Cmd {
	next := document.ModeEdit
	if a.snap.Mode == document.ModeEdit {
		next = document.ModeObject
	}
	a.perform(func() (string, error) {
		return "Mode " + string(next), a.session.SetMode(next, "")
	})
	return nil
}

func (a *App) runSelectedAction() tea.Cmd {
	item, ok := a.actions.SelectedItem().(actionItem)
	if !ok {
		return nil
	}
	a.perform(func() (string, error) { return item.run(a) })
	return nil
}

func (a *App) save() tea.Cmd {
	if a.repo == nil {
		a.statusMsg = "No document file configured"
		return nil
	}
	if err := a.session.Save(a.repo); err != nil {
		a.err = err
		a.statusMsg = "Save failed: " + err.Error()
		return nil
	}
	a.err = nil
	a.statusMsg = "Saved " + filepath.Base(a.repo.Path())
	return nil
}

// perform runs one entry point, lets the observer react, persists, and
// refreshes the snapshot.
func (a *App) perform(fn func() (string, error)) {
	status, err := fn()
	if err == nil {
		err = a.session.OnDocumentChanged()
	}
	if err == nil && a.repo != nil {
		err = a.session.Save(a.repo)
	}
	a.err = err
	if err != nil {
		a.statusMsg = "Error: " + err.Error()
	} else {
		a.statusMsg = status
	}
	a.refresh()
}

// refresh copies the active mesh into the snapshot.
func (a *App) refresh() {
	snap := snapshot{Sliders: map[string]float64{}}
	a.session.View(func(doc *document.Document) {
		snap.Mode = doc.Mode
		snap.SelectMode = doc.SelectMode
		for _, attr := range slider.Monitored {
			snap.Sliders[attr] = doc.Slider(attr)
		}
		obj := doc.ActiveObject()
		if obj == nil {
			return
		}
		snap.Object = obj.Name
		for _, mod := range obj.Modifiers {
			snap.Modifiers = append(snap.Modifiers, modifierRow{
				Name:    mod.Name,
				Kind:    mod.Kind,
				Owned:   mod.Owned,
				Visible: mod.ShowViewport,
			})
		}
		if !obj.IsMesh() {
			return
		}
		for i, edge := range obj.Mesh.Edges {
			row := edgeRow{Index: i, V1: edge.V1, V2: edge.V2, Selected: edge.Select, Values: map[string]float64{}}
			for _, attr := range attribute.EdgeFlags() {
				if values, err := attribute.Read(obj.Mesh, attr, []int{i}); err == nil {
					row.Values[attr] = values[0]
				}
			}
			snap.Rows = append(snap.Rows, row)
		}
	})
	a.snap = snap
	if a.cursor >= len(snap.Rows) {
		a.cursor = max(0, len(snap.Rows)-1)
	}
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(32, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
		rightWidth = 0
	}

	header := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#FF6B6B")).
		MarginBottom(1).
		Render("⬡ BLOCKOUT")

	left := lipgloss.JoinVertical(lipgloss.Left,
		a.renderObjectPanel(),
		"",
		a.renderEdgePanel(),
		"",
		a.renderSliderPanel(),
	)
	leftBox := a.panelStyle(a.focus == focusEdges).Width(max(20, leftWidth)).Render(left)
	body := leftBox
	if rightWidth > 0 {
		right := lipgloss.JoinVertical(lipgloss.Left, a.actions.View(), "", a.renderModifierPanel())
		rightBox := a.panelStyle(a.focus == focusActions).Width(max(20, rightWidth)).Render(right)
		body = lipgloss.JoinHorizontal(lipgloss.Top, leftBox, rightBox)
	}

	sections := []string{header, body}
	if logPanel := a.renderLogPanel(); logPanel != "" {
		sections = append(sections, logPanel)
	}
	statusColor := lipgloss.Color("#888888")
	if a.err != nil {
		statusColor = lipgloss.Color("#FF6B6B")
	}
	footer := lipgloss.NewStyle().
		Foreground(statusColor).
		MarginTop(1).
		Render(a.statusMsg)
	help := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666666")).
		Render("j/k move · space select · a all · 1-5 toggle flag · [ ] chamfer · { } fillet · e mode · v visibility · tab actions · ctrl+s save · q quit")
	sections = append(sections, footer, help)
	return strings.Join(sections, "\n")
}

func (a *App) panelStyle(focused bool) lipgloss.Style {
	border := lipgloss.Color("#444444")
	if focused {
		border = lipgloss.Color("#5B8DEF")
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1)
}

func (a *App) renderObjectPanel() string {
	name := a.snap.Object
	if name == "" {
		name = "no active object"
	}
	title := lipgloss.NewStyle().Bold(true).Render(name)
	mode := lipgloss.NewStyle().
		Foreground(lipgloss.Color("#AAAAAA")).
		Render(fmt.Sprintf("%s · %s select", a.snap.Mode, strings.ToLower(string(a.snap.SelectMode))))
	return title + "  " + mode
}

// flagColumns are the edge panel's columns after the edge itself.
var flagColumns = []struct {
	attr  string
	label string
}{
	{attribute.PanelEdge, "PNL"},
	{attribute.ChamferWeight, "CHM"},
	{attribute.FilletConstrained, "CON"},
	{attribute.FilletWeighted, "WFL"},
	{attribute.SharpEdge, "SHP"},
}

func (a *App) renderEdgePanel() string {
	if len(a.snap.Rows) == 0 {
		return lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("No mesh edges")
	}
	var b strings.Builder
	head := "    EDGE      "
	for _, col := range flagColumns {
		head += fmt.Sprintf(" %5s", col.label)
	}
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Render(head))
	selectedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166"))
	cursorStyle := lipgloss.NewStyle().Reverse(true)
	for i, row := range a.snap.Rows {
		mark := " "
		if row.Selected {
			mark = "●"
		}
		line := fmt.Sprintf("%s %2d  %d-%d", mark, row.Index, row.V1, row.V2)
		line = fmt.Sprintf("%-14s", line)
		for _, col := range flagColumns {
			line += fmt.Sprintf(" %5s", formatFlag(col.attr, row.Values))
		}
		switch {
		case i == a.cursor && a.focus == focusEdges:
			line = cursorStyle.Render(line)
		case row.Selected:
			line = selectedStyle.Render(line)
		}
		b.WriteString("\n")
		b.WriteString(line)
	}
	return b.String()
}

func formatFlag(attr string, values map[string]float64) string {
	value, ok := values[attr]
	if !ok {
		return "-"
	}
	if spec, _ := attribute.Lookup(attr); spec.IsFloat() {
		if value == 0 {
			return "·"
		}
		return fmt.Sprintf("%.2f", value)
	}
	if attribute.Flagged(value) {
		return "✓"
	}
	return "·"
}

func (a *App) renderSliderPanel() string {
	label := lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	var lines []string
	for _, attr := range slider.Monitored {
		pct := a.snap.Sliders[attr]
		lines = append(lines, fmt.Sprintf("%s %s %3.0f%%",
			label.Render(fmt.Sprintf("%-16s", attr)),
			a.bar.ViewAs(clamp(pct/100, 0, 1)),
			pct,
		))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderModifierPanel() string {
	head := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF")).Render("MODIFIERS")
	if len(a.snap.Modifiers) == 0 {
		return head + "\n" + lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).Render("none")
	}
	owned := lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	hidden := lipgloss.NewStyle().Foreground(lipgloss.Color("#555555"))
	lines := []string{head}
	for _, mod := range a.snap.Modifiers {
		line := fmt.Sprintf("%s (%s)", mod.Name, strings.ToLower(string(mod.Kind)))
		switch {
		case !mod.Visible:
			line = hidden.Render(line + " hidden")
		case mod.Owned:
			line = owned.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderLogPanel() string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#5B8DEF")).
		Render(fmt.Sprintf("LOG · %s · %d entries", fileName, total))
	styles := map[logbook.Level]lipgloss.Style{
		logbook.LevelInfo:  lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA")),
		logbook.LevelWarn:  lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166")),
		logbook.LevelError: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	}
	rendered := make([]string, len(lines))
	for i, line := range lines {
		rendered[i] = styles[logbook.LevelOf(line)].Render(logbook.Message(line))
	}
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		Padding(0, 1).
		Render(fmt.Sprintf("%s\n%s", head, strings.Join(rendered, "\n")))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}

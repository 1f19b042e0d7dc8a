package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/kinboard/pkg/canvas"
	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
	"github.com/matzehuels/kinboard/pkg/store"
	"github.com/matzehuels/kinboard/pkg/store/file"
)

// tuiHandleRadius is wider than the pointer default because a terminal
// cell is coarse.
const tuiHandleRadius = 18.0

// Rows taken by the header and the footer.
const (
	headerRows = 1
	footerRows = 1
)

func (c *CLI) tuiCommand() *cobra.Command {
	var edit bool
	cmd := &cobra.Command{
		Use:   "tui",
		Short: "Open the interactive canvas in the terminal",
		Long: `Open the family canvas in the terminal.

Drag on empty space to pan. Unlock with "l" to drag cards around and to drag
from a card's handle (●) to another handle to connect two members. Dropping
a connection on empty canvas opens the form for a new member there. Click a
connection to edit or delete it.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runTUI(cmd.Context(), cmd.Flags().Changed("edit"), edit)
		},
	}
	cmd.Flags().BoolVar(&edit, "edit", false, "start unlocked")
	return cmd
}

func (c *CLI) runTUI(ctx context.Context, override, edit bool) error {
	svc, done, err := c.openService(ctx)
	if err != nil {
		return err
	}
	defer done()

	locked := c.cfg.Canvas.Locked
	if override {
		locked = !edit
	}
	ctrl := canvas.New(svc, canvas.Options{
		CardSize:     c.cfg.CardSize(),
		HandleRadius: tuiHandleRadius,
		Locked:       locked,
		Localize:     c.cfg.Localized(),
		Logger:       loggerFromContext(ctx),
	})
	if err := ctrl.Reload(ctx); err != nil {
		return err
	}

	p := tea.NewProgram(newCanvasModel(ctx, ctrl), tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))

	if fs, ok := store.Unwrap(svc.Store).(*file.Store); ok {
		watchCtx, cancel := context.WithCancel(ctx)
		defer cancel()
		go func() {
			err := fs.Watch(watchCtx, func(s family.Snapshot) { p.Send(snapshotMsg(s)) })
			if err != nil && watchCtx.Err() == nil {
				loggerFromContext(ctx).Warn("watch store file", "err", err)
			}
		}()
	}

	_, err = p.Run()
	return err
}

// =============================================================================
// Key bindings
// =============================================================================

type canvasKeys struct {
	ZoomIn, ZoomOut, Recenter key.Binding
	Left, Right, Up, Down     key.Binding
	Lock, Locale, Reload      key.Binding
	Add, Edit, Delete         key.Binding
	Quit                      key.Binding
}

func defaultCanvasKeys() canvasKeys {
	return canvasKeys{
		ZoomIn:   key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+/-", "zoom")),
		ZoomOut:  key.NewBinding(key.WithKeys("-", "_")),
		Recenter: key.NewBinding(key.WithKeys("c", "home"), key.WithHelp("c", "find me")),
		Left:     key.NewBinding(key.WithKeys("left", "h")),
		Right:    key.NewBinding(key.WithKeys("right")),
		Up:       key.NewBinding(key.WithKeys("up", "k")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("arrows", "pan")),
		Lock:     key.NewBinding(key.WithKeys("l"), key.WithHelp("l", "lock")),
		Locale:   key.NewBinding(key.WithKeys("z"), key.WithHelp("z", "中文")),
		Reload:   key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
		Add:      key.NewBinding(key.WithKeys("n", "a"), key.WithHelp("n", "new")),
		Edit:     key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
		Delete:   key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete")),
		Quit:     key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

// ShortHelp implements help.KeyMap.
func (k canvasKeys) ShortHelp() []key.Binding {
	return []key.Binding{k.Down, k.ZoomIn, k.Recenter, k.Lock, k.Add, k.Edit, k.Delete, k.Locale, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k canvasKeys) FullHelp() [][]key.Binding { return [][]key.Binding{k.ShortHelp()} }

// =============================================================================
// Model
// =============================================================================

// snapshotMsg delivers a tree changed outside the TUI.
type snapshotMsg family.Snapshot

// canvasModel is the bubbletea model for the interactive canvas. The
// controller is shared by pointer; the model adds terminal geometry and the
// open form.
type canvasModel struct {
	ctx  context.Context
	ctrl *canvas.Controller
	keys canvasKeys
	help help.Model

	width, height int
	ready         bool
	status        string
	failed        bool

	form      *huh.Form
	memberDft *memberDraft
	connDft   *connectionDraft
}

func newCanvasModel(ctx context.Context, ctrl *canvas.Controller) canvasModel {
	return canvasModel{ctx: ctx, ctrl: ctrl, keys: defaultCanvasKeys(), help: help.New()}
}

func (m canvasModel) Init() tea.Cmd {
	return nil
}

// pointer maps a terminal cell to a container-relative screen point.
func (m canvasModel) pointer(x, y int) geometry.Point {
	return screenOf(x, y-headerRows)
}

func (m canvasModel) canvasRows() int {
	return max(m.height-headerRows-footerRows, 1)
}

func (m canvasModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.width, m.height = ws.Width, ws.Height
		m.ctrl.SetContainer(geometry.Size{W: float64(m.width) * cellW, H: float64(m.canvasRows()) * cellH})
		m.help.Width = m.width
		if !m.ready {
			m.ctrl.RecenterOnSelf()
			m.ready = true
		}
		if m.form != nil {
			m.form = m.form.WithWidth(min(m.width, 72))
		}
		return m, nil
	}

	if s, ok := msg.(snapshotMsg); ok {
		m.ctrl.SetSnapshot(family.Snapshot(s))
		m.setStatus("Tree changed on disk, reloaded", nil)
		return m, nil
	}

	if m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case tea.MouseMsg:
		return m.updateMouse(msg)
	case tea.KeyMsg:
		return m.updateKey(msg)
	}
	return m, nil
}

func (m canvasModel) updateMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	p := m.pointer(msg.X, msg.Y)
	switch msg.Action {
	case tea.MouseActionPress:
		switch msg.Button {
		case tea.MouseButtonLeft:
			if msg.Y < headerRows || msg.Y >= headerRows+m.canvasRows() {
				return m, nil
			}
			m.ctrl.PointerDown(m.ctrl.HitTest(p), p)
		case tea.MouseButtonWheelUp:
			m.ctrl.ZoomIn()
		case tea.MouseButtonWheelDown:
			m.ctrl.ZoomOut()
		}
	case tea.MouseActionMotion:
		m.ctrl.PointerMove(p)
	case tea.MouseActionRelease:
		res, err := m.ctrl.PointerUp(m.ctx, m.ctrl.HitTest(p), p)
		m.setStatus(describeResult(res), err)
		return m.openForm()
	}
	return m, nil
}

func (m canvasModel) updateKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	const panStep = 4
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.ZoomIn):
		m.ctrl.ZoomIn()
	case key.Matches(msg, m.keys.ZoomOut):
		m.ctrl.ZoomOut()
	case key.Matches(msg, m.keys.Recenter):
		if !m.ctrl.RecenterOnSelf() {
			m.setStatus("No member is marked as you", nil)
		}
	case key.Matches(msg, m.keys.Left):
		m.pan(panStep*cellW, 0)
	case key.Matches(msg, m.keys.Right):
		m.pan(-panStep*cellW, 0)
	case key.Matches(msg, m.keys.Up):
		m.pan(0, panStep/2*cellH)
	case key.Matches(msg, m.keys.Down):
		m.pan(0, -panStep/2*cellH)
	case key.Matches(msg, m.keys.Lock):
		if m.ctrl.ToggleLock() {
			m.setStatus("Locked", nil)
		} else {
			m.setStatus("Editing: drag cards, connect handles", nil)
		}
	case key.Matches(msg, m.keys.Locale):
		m.ctrl.SetLocalize(!m.ctrl.Localized())
	case key.Matches(msg, m.keys.Reload):
		m.setStatus("Reloaded", m.ctrl.Reload(m.ctx))
	case key.Matches(msg, m.keys.Add):
		m.ctrl.OpenCreateMember()
		return m.openForm()
	case key.Matches(msg, m.keys.Edit):
		id := m.ctrl.Selected()
		if id == "" {
			m.setStatus("Click a card first", nil)
			return m, nil
		}
		if _, err := m.ctrl.OpenEditMember(id); err != nil {
			m.setStatus("", err)
			return m, nil
		}
		return m.openForm()
	case key.Matches(msg, m.keys.Delete):
		id := m.ctrl.Selected()
		if id == "" || m.ctrl.Locked() {
			m.setStatus("Unlock and click a card to delete it", nil)
			return m, nil
		}
		name := id
		if mem, ok := m.ctrl.Snapshot().Member(id); ok {
			name = mem.Name
		}
		m.setStatus("Deleted "+name, m.ctrl.DeleteMember(m.ctx, id))
	}
	return m, nil
}

func (m *canvasModel) pan(dx, dy float64) {
	m.ctrl.SetViewport(m.ctrl.Viewport().Pan(geometry.Point{X: dx, Y: dy}))
}

func (m *canvasModel) setStatus(s string, err error) {
	m.failed = err != nil
	if err != nil {
		m.status = errors.UserMessage(err)
		return
	}
	if s != "" {
		m.status = s
	}
}

func describeResult(res canvas.Result) string {
	switch res.Outcome {
	case canvas.OutcomeMoved:
		return "Moved"
	case canvas.OutcomeConnected:
		return "Connected"
	case canvas.OutcomePending:
		return "New member"
	}
	return ""
}

// =============================================================================
// Forms
// =============================================================================

// openForm shows the form the controller asked for, if any.
func (m canvasModel) openForm() (tea.Model, tea.Cmd) {
	f := m.ctrl.Form()
	switch f.Kind {
	case canvas.FormCreateMember, canvas.FormEditMember:
		title := "New member"
		if f.Kind == canvas.FormEditMember {
			title = "Edit " + f.Member.Name
		}
		m.memberDft = newMemberDraft(*f.Member)
		m.form = m.memberDft.form(title)
	case canvas.FormEditConnection:
		m.connDft = newConnectionDraft(*f.Connection)
		m.form = m.connDft.form()
	default:
		return m, nil
	}
	m.form = m.form.WithWidth(min(max(m.width, 40), 72)).WithShowHelp(true)
	return m, m.form.Init()
}

func (m canvasModel) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if k, ok := msg.(tea.KeyMsg); ok && k.String() == "esc" {
		m.closeForm()
		m.ctrl.CancelForm()
		return m, nil
	}

	next, cmd := m.form.Update(msg)
	if f, ok := next.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		m.submitForm()
		m.closeForm()
		// A rejected member keeps its form open in the controller.
		return m.openForm()
	case huh.StateAborted:
		m.closeForm()
		m.ctrl.CancelForm()
		return m, nil
	}
	return m, cmd
}

func (m *canvasModel) submitForm() {
	switch {
	case m.memberDft != nil:
		saved, err := m.ctrl.SubmitMember(m.ctx, m.memberDft.Member())
		m.setStatus("Saved "+saved.Name, err)
	case m.connDft != nil:
		conn := m.connDft.Connection()
		if m.connDft.Delete() {
			m.setStatus("Deleted connection", m.ctrl.DeleteConnection(m.ctx, conn.ID))
			return
		}
		m.setStatus("Saved connection", m.ctrl.SaveConnection(m.ctx, conn))
	}
}

func (m *canvasModel) closeForm() {
	m.form, m.memberDft, m.connDft = nil, nil, nil
}

// =============================================================================
// View
// =============================================================================

var (
	tuiHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	tuiErrorStyle  = lipgloss.NewStyle().Foreground(colorRed)
)

func (m canvasModel) View() string {
	if !m.ready {
		return ""
	}
	var b strings.Builder
	b.WriteString(m.header())
	b.WriteString("\n")

	if m.form != nil {
		b.WriteString(m.form.View())
		return b.String()
	}

	b.WriteString(drawCanvas(m.ctrl.Model(), m.width, m.canvasRows()).String())
	b.WriteString("\n")
	b.WriteString(m.footer())
	return b.String()
}

func (m canvasModel) header() string {
	mode := "locked"
	if !m.ctrl.Locked() {
		mode = "editing"
	}
	if st := m.ctrl.State(); st.Mode() != canvas.ModeIdle {
		mode = string(st.Mode())
	}
	locale := "EN"
	if m.ctrl.Localized() {
		locale = "中文"
	}
	snap := m.ctrl.Snapshot()
	parts := []string{
		tuiHeaderStyle.Render(appName),
		mode,
		fmt.Sprintf("%d%%", m.ctrl.Viewport().Percent()),
		locale,
		fmt.Sprintf("%d members", len(snap.Members)),
	}
	return strings.Join(parts, StyleDim.Render(" · "))
}

func (m canvasModel) footer() string {
	if m.status == "" {
		return m.help.View(m.keys)
	}
	if m.failed {
		return tuiErrorStyle.Render(iconError + " " + m.status)
	}
	return StyleDim.Render(iconInfo+" "+m.status) + "  " + m.help.View(m.keys)
}

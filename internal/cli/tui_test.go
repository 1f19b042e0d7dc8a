package cli

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/kinboard/pkg/canvas"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
	"github.com/matzehuels/kinboard/pkg/store/memory"
)

func newTestModel(t *testing.T, locked bool) (canvasModel, *memory.Store) {
	t.Helper()
	st := memory.New(family.Seed())
	ctrl := canvas.New(family.NewService(st, nil), canvas.Options{
		HandleRadius: tuiHandleRadius,
		Locked:       locked,
	})
	if err := ctrl.Reload(context.Background()); err != nil {
		t.Fatal(err)
	}
	m := newCanvasModel(context.Background(), ctrl)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(canvasModel), st
}

func send(m canvasModel, msg tea.Msg) canvasModel {
	next, _ := m.Update(msg)
	return next.(canvasModel)
}

func TestGridText(t *testing.T) {
	g := newGrid(8, 2)
	g.text(1, 0, "儿子ab", 5, "")
	g.set(-1, 0, 'x', "")
	g.set(0, 5, 'x', "")

	rows := g.plain()
	if rows[0] != " 儿子a  " {
		t.Errorf("row 0 = %q", rows[0])
	}
	if rows[1] != strings.Repeat(" ", 8) {
		t.Errorf("row 1 = %q", rows[1])
	}
}

func TestCellMapping(t *testing.T) {
	vp := geometry.Viewport{Scale: 1, Offset: geometry.Point{X: 100, Y: -70}}
	x, y := cellOf(geometry.Point{X: 500, Y: 150}, vp)
	if x != 60 || y != 4 {
		t.Errorf("cellOf = %d,%d, want 60,4", x, y)
	}
	if p := screenOf(60, 4); p != (geometry.Point{X: 605, Y: 90}) {
		t.Errorf("screenOf = %+v", p)
	}
}

func TestDrawCanvas(t *testing.T) {
	m, _ := newTestModel(t, true)
	rows := drawCanvas(m.ctrl.Model(), m.width, m.canvasRows()).plain()
	out := strings.Join(rows, "\n")

	for _, want := range []string{"Arthur Robinson", iconSelf + " John Robinson", "Son", "╭", "╯"} {
		if !strings.Contains(out, want) {
			t.Errorf("canvas missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "●") {
		t.Error("locked canvas shows handles")
	}
}

func TestModelDragsCard(t *testing.T) {
	m, st := newTestModel(t, false)

	// The viewport is centred on John; Arthur's card starts at cell (60, 5).
	m = send(m, tea.MouseMsg{X: 65, Y: 7, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if mode := m.ctrl.State().Mode(); mode != canvas.ModeDragging {
		t.Fatalf("mode after press = %s", mode)
	}
	m = send(m, tea.MouseMsg{X: 75, Y: 9, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	m = send(m, tea.MouseMsg{X: 75, Y: 9, Action: tea.MouseActionRelease, Button: tea.MouseButtonNone})

	if m.status != "Moved" || m.failed {
		t.Errorf("status = %q (failed %v)", m.status, m.failed)
	}
	members, err := st.ListMembers(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got := members[0].Position(); got != (geometry.Point{X: 600, Y: 190}) {
		t.Errorf("stored position = %+v, want (600, 190)", got)
	}
}

func TestModelKeys(t *testing.T) {
	m, _ := newTestModel(t, true)

	m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'+'}})
	if got := m.ctrl.Viewport().Percent(); got != 110 {
		t.Errorf("zoom = %d%%, want 110%%", got)
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'l'}})
	if m.ctrl.Locked() {
		t.Error("l should unlock")
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'a'}})
	if m.form == nil || m.ctrl.Form().Kind != canvas.FormCreateMember {
		t.Fatal("a should open the create form")
	}

	m = send(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.form != nil || m.ctrl.Form().Kind != canvas.FormNone {
		t.Error("esc should close the form")
	}
}

func TestModelView(t *testing.T) {
	m, _ := newTestModel(t, true)
	view := m.View()
	for _, want := range []string{appName, "locked", "100%", "2 members"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

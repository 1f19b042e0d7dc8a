package cli

import (
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/kinboard/pkg/canvas"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
)

// A terminal cell stands for cellW x cellH screen units, so a default card
// at 100% zoom is 26 columns by 5 rows.
const (
	cellW = 10.0
	cellH = 20.0

	curveSamples = 96
)

// wide marks the second column of a double-width rune.
const wide = -1

// grid is a character canvas with one foreground color per cell.
type grid struct {
	w, h  int
	runes []rune
	fg    []lipgloss.Color
}

func newGrid(w, h int) *grid {
	g := &grid{w: w, h: h, runes: make([]rune, w*h), fg: make([]lipgloss.Color, w*h)}
	for i := range g.runes {
		g.runes[i] = ' '
	}
	return g
}

func (g *grid) set(x, y int, r rune, c lipgloss.Color) {
	if x < 0 || y < 0 || x >= g.w || y >= g.h {
		return
	}
	g.runes[y*g.w+x] = r
	g.fg[y*g.w+x] = c
}

// text writes s starting at column x, clipped to maxW columns.
func (g *grid) text(x, y int, s string, maxW int, c lipgloss.Color) {
	col := 0
	for _, r := range s {
		rw := lipgloss.Width(string(r))
		if col+rw > maxW {
			return
		}
		g.set(x+col, y, r, c)
		if rw == 2 {
			g.set(x+col+1, y, wide, c)
		}
		col += rw
	}
}

// plain returns the rows without styling.
func (g *grid) plain() []string {
	rows := make([]string, g.h)
	for y := range g.h {
		var b strings.Builder
		for x := range g.w {
			if r := g.runes[y*g.w+x]; r != wide {
				b.WriteRune(r)
			}
		}
		rows[y] = b.String()
	}
	return rows
}

// String renders the grid, styling runs of cells that share a color.
func (g *grid) String() string {
	var out strings.Builder
	for y := range g.h {
		var (
			run   strings.Builder
			color lipgloss.Color
		)
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if color == "" {
				out.WriteString(run.String())
			} else {
				out.WriteString(lipgloss.NewStyle().Foreground(color).Render(run.String()))
			}
			run.Reset()
		}
		for x := range g.w {
			i := y*g.w + x
			if g.runes[i] == wide {
				continue
			}
			if g.fg[i] != color {
				flush()
				color = g.fg[i]
			}
			run.WriteRune(g.runes[i])
		}
		flush()
		if y < g.h-1 {
			out.WriteByte('\n')
		}
	}
	return out.String()
}

// cellOf maps a world point to the grid cell it is drawn in.
func cellOf(p geometry.Point, vp geometry.Viewport) (int, int) {
	s := geometry.WorldToScreen(p, vp)
	return int(math.Floor(s.X / cellW)), int(math.Floor(s.Y / cellH))
}

// screenOf maps a grid cell to the screen point at its centre.
func screenOf(x, y int) geometry.Point {
	return geometry.Point{X: (float64(x) + 0.5) * cellW, Y: (float64(y) + 0.5) * cellH}
}

var (
	cardBorder   = colorGray
	selfBorder   = colorYellow
	selectBorder = colorCyan
	dragBorder   = colorBlue
	edgeDefault  = colorDim
	previewColor = colorCyan
)

var genderColor = map[family.Gender]lipgloss.Color{
	family.Male:   colorBlue,
	family.Female: colorPink,
}

// drawCanvas draws a render model onto a w x h grid: connections first,
// then cards over them, then connection labels on top.
func drawCanvas(rm canvas.RenderModel, w, h int) *grid {
	g := newGrid(w, h)
	vp := rm.Viewport

	for _, e := range rm.Edges {
		drawEdge(g, e, vp)
	}
	if p := rm.Preview; p != nil {
		for i := 0; i <= curveSamples; i++ {
			t := float64(i) / curveSamples
			pt := geometry.Point{X: p.From.X + (p.To.X-p.From.X)*t, Y: p.From.Y + (p.To.Y-p.From.Y)*t}
			x, y := cellOf(pt, vp)
			g.set(x, y, '•', previewColor)
		}
	}
	for _, n := range rm.Nodes {
		drawNode(g, n, rm.CardSize, vp, !rm.Locked)
	}
	for _, e := range rm.Edges {
		if e.Label == "" {
			continue
		}
		x, y := cellOf(e.LabelPos, vp)
		label := " " + e.Label + " "
		g.text(x-lipgloss.Width(label)/2, y, label, lipgloss.Width(label), colorWhite)
	}
	return g
}

func drawEdge(g *grid, e canvas.EdgeView, vp geometry.Viewport) {
	color := lipgloss.Color(e.Color)
	if e.Color == family.DefaultColor {
		color = edgeDefault
	}
	mark := '·'
	step := 1
	switch e.DashArray {
	case geometry.DashArray(geometry.LineDashed):
		mark, step = '╌', 2
	case geometry.DashArray(geometry.LineDotted):
		mark, step = '.', 3
	}
	lastX, lastY := math.MinInt, math.MinInt
	n := 0
	for i := 0; i <= curveSamples; i++ {
		x, y := cellOf(e.Curve.At(float64(i)/curveSamples), vp)
		if x == lastX && y == lastY {
			continue
		}
		lastX, lastY = x, y
		if n%step == 0 {
			g.set(x, y, mark, color)
		}
		n++
	}
}

func drawNode(g *grid, n canvas.NodeView, card geometry.Size, vp geometry.Viewport, handles bool) {
	x0, y0 := cellOf(n.Position, vp)
	x1, y1 := cellOf(n.Position.Add(geometry.Point{X: card.W, Y: card.H}), vp)
	x1, y1 = x1-1, y1-1

	border := cardBorder
	switch {
	case n.Dragging:
		border = dragBorder
	case n.Selected:
		border = selectBorder
	case n.IsSelf:
		border = selfBorder
	}

	if x1-x0 < 2 || y1-y0 < 2 {
		g.text(x0, y0, n.Name, max(x1-x0+1, 1), border)
		return
	}

	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			var r rune
			switch {
			case y == y0 && x == x0:
				r = '╭'
			case y == y0 && x == x1:
				r = '╮'
			case y == y1 && x == x0:
				r = '╰'
			case y == y1 && x == x1:
				r = '╯'
			case y == y0 || y == y1:
				r = '─'
			case x == x0 || x == x1:
				r = '│'
			default:
				r = ' '
			}
			g.set(x, y, r, border)
		}
	}

	inner := x1 - x0 - 3
	name := n.Name
	if n.IsSelf {
		name = iconSelf + " " + name
	}
	lines := []struct {
		s string
		c lipgloss.Color
	}{
		{name, genderColor[n.Gender]},
		{n.Relation, colorGray},
		{n.BirthDate, colorDim},
	}
	for i, l := range lines {
		if y0+1+i >= y1 {
			break
		}
		g.text(x0+2, y0+1+i, l.s, inner, l.c)
	}

	if !handles {
		return
	}
	for _, h := range geometry.Handles {
		x, y := cellOf(geometry.AnchorPosition(n.Position, card, h), vp)
		switch h {
		case geometry.HandleRight:
			x--
		case geometry.HandleBottom:
			y--
		}
		g.set(x, y, '●', border)
	}
}

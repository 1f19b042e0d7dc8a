// Package svg renders a canvas.RenderModel as a standalone SVG document.
//
// By default the picture is fitted to its content with a margin. With
// [WithViewport] the model's pan and zoom are applied instead and the
// document has the container's size, which reproduces what the interactive
// canvas shows.
package svg

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"math"
	"strconv"

	"github.com/matzehuels/kinboard/pkg/canvas"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
)

// DefaultMargin surrounds fitted content.
const DefaultMargin = 40.0

const (
	background   = "#f8fafc"
	cardFill     = "#ffffff"
	cardStroke   = "#d1d5db"
	selfStroke   = "#f59e0b"
	selectStroke = "#3b82f6"
	textColor    = "#111827"
	mutedColor   = "#6b7280"
	previewColor = "#3b82f6"
	handleRadius = 6.0
)

var genderAccent = map[family.Gender]string{
	family.Male:   "#3b82f6",
	family.Female: "#ec4899",
}

// Option configures rendering.
type Option func(*renderer)

type renderer struct {
	margin    float64
	container *geometry.Size
	handles   *bool
	title     string
}

// WithMargin sets the margin around fitted content.
func WithMargin(m float64) Option { return func(r *renderer) { r.margin = m } }

// WithViewport applies the model's viewport and sizes the document to
// container.
func WithViewport(container geometry.Size) Option {
	return func(r *renderer) { r.container = &container }
}

// WithHandles forces connection handles on or off. By default they are drawn
// when the model is unlocked.
func WithHandles(on bool) Option { return func(r *renderer) { r.handles = &on } }

// WithTitle sets the document title.
func WithTitle(t string) Option { return func(r *renderer) { r.title = t } }

// Render draws m.
func Render(m canvas.RenderModel, opts ...Option) []byte {
	r := renderer{margin: DefaultMargin}
	for _, opt := range opts {
		opt(&r)
	}
	showHandles := !m.Locked
	if r.handles != nil {
		showHandles = *r.handles
	}

	var buf bytes.Buffer
	var transform string
	if r.container != nil {
		w, h := r.container.W, r.container.H
		fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %s %s" width="%.0f" height="%.0f">`+"\n",
			num(w), num(h), w, h)
		transform = fmt.Sprintf(` transform="translate(%s %s) scale(%s)"`,
			num(m.Viewport.Offset.X), num(m.Viewport.Offset.Y), num(scaleOf(m.Viewport)))
	} else {
		lo, hi := bounds(m)
		pad := geometry.Point{X: r.margin, Y: r.margin}
		lo, hi = lo.Sub(pad), hi.Add(pad)
		w, h := hi.X-lo.X, hi.Y-lo.Y
		fmt.Fprintf(&buf, `<svg xmlns="http://www.w3.org/2000/svg" viewBox="%s %s %s %s" width="%.0f" height="%.0f">`+"\n",
			num(lo.X), num(lo.Y), num(w), num(h), w, h)
	}
	if r.title != "" {
		fmt.Fprintf(&buf, "  <title>%s</title>\n", escape(r.title))
	}
	renderDefs(&buf)
	fmt.Fprintf(&buf, `  <rect class="background" x="-100000" y="-100000" width="200000" height="200000" fill="%s"/>`+"\n", background)

	fmt.Fprintf(&buf, "  <g class=\"world\"%s>\n", transform)
	for _, e := range m.Edges {
		renderEdge(&buf, e)
	}
	if m.Preview != nil {
		fmt.Fprintf(&buf, `    <path class="preview" d="%s" fill="none" stroke="%s" stroke-width="2" stroke-dasharray="%s"/>`+"\n",
			m.Preview.Path, previewColor, m.Preview.DashArray)
	}
	for _, n := range m.Nodes {
		renderNode(&buf, n, m.CardSize, showHandles)
	}
	for _, e := range m.Edges {
		renderEdgeLabel(&buf, e)
	}
	buf.WriteString("  </g>\n")
	buf.WriteString("</svg>\n")
	return buf.Bytes()
}

func renderDefs(buf *bytes.Buffer) {
	buf.WriteString(`  <defs>
    <filter id="card-shadow" x="-10%" y="-10%" width="120%" height="140%">
      <feDropShadow dx="0" dy="2" stdDeviation="3" flood-opacity="0.12"/>
    </filter>
  </defs>
`)
}

func renderEdge(buf *bytes.Buffer, e canvas.EdgeView) {
	dash := ""
	if e.DashArray != "" {
		dash = fmt.Sprintf(` stroke-dasharray="%s"`, e.DashArray)
	}
	fmt.Fprintf(buf, `    <path id="edge-%s" class="edge" d="%s" fill="none" stroke="%s" stroke-width="2"%s/>`+"\n",
		escape(e.ID), e.Path, escape(e.Color), dash)
}

func renderEdgeLabel(buf *bytes.Buffer, e canvas.EdgeView) {
	if e.Label == "" {
		return
	}
	w := textWidth(e.Label, 12) + 16
	fmt.Fprintf(buf, `    <g class="edge-label" data-edge="%s">`+"\n", escape(e.ID))
	fmt.Fprintf(buf, `      <rect x="%s" y="%s" width="%s" height="22" rx="11" fill="%s" stroke="%s"/>`+"\n",
		num(e.LabelPos.X-w/2), num(e.LabelPos.Y-11), num(w), cardFill, escape(e.Color))
	fmt.Fprintf(buf, `      <text x="%s" y="%s" text-anchor="middle" dominant-baseline="central" font-family="sans-serif" font-size="12" fill="%s">%s</text>`+"\n",
		num(e.LabelPos.X), num(e.LabelPos.Y), mutedColor, escape(e.Label))
	buf.WriteString("    </g>\n")
}

func renderNode(buf *bytes.Buffer, n canvas.NodeView, card geometry.Size, handles bool) {
	stroke, width := cardStroke, 1.0
	switch {
	case n.Selected:
		stroke, width = selectStroke, 2
	case n.IsSelf:
		stroke, width = selfStroke, 3
	}
	opacity := ""
	if n.Dragging {
		opacity = ` opacity="0.85"`
	}

	x, y := n.Position.X, n.Position.Y
	fmt.Fprintf(buf, `    <g id="member-%s" class="card"%s>`+"\n", escape(n.ID), opacity)
	fmt.Fprintf(buf, `      <rect x="%s" y="%s" width="%s" height="%s" rx="12" fill="%s" stroke="%s" stroke-width="%s" filter="url(#card-shadow)"/>`+"\n",
		num(x), num(y), num(card.W), num(card.H), cardFill, stroke, num(width))
	if accent, ok := genderAccent[n.Gender]; ok {
		fmt.Fprintf(buf, `      <rect x="%s" y="%s" width="6" height="%s" rx="3" fill="%s"/>`+"\n",
			num(x), num(y+12), num(card.H-24), accent)
	}

	tx := x + 20
	fmt.Fprintf(buf, `      <text x="%s" y="%s" font-family="sans-serif" font-size="16" font-weight="600" fill="%s">%s</text>`+"\n",
		num(tx), num(y+card.H*0.36), textColor, escape(n.Name))
	relClass := "relation"
	if !n.HasRelation {
		relClass = "role"
	}
	fmt.Fprintf(buf, `      <text class="%s" x="%s" y="%s" font-family="sans-serif" font-size="13" fill="%s">%s</text>`+"\n",
		relClass, num(tx), num(y+card.H*0.6), mutedColor, escape(n.Relation))
	if n.BirthDate != "" {
		fmt.Fprintf(buf, `      <text x="%s" y="%s" font-family="sans-serif" font-size="11" fill="%s">b. %s</text>`+"\n",
			num(tx), num(y+card.H*0.82), mutedColor, escape(n.BirthDate))
	}

	if handles {
		for _, h := range geometry.Handles {
			a := geometry.AnchorPosition(n.Position, card, h)
			fmt.Fprintf(buf, `      <circle class="handle" data-handle="%s" cx="%s" cy="%s" r="%s" fill="%s" stroke="%s"/>`+"\n",
				h, num(a.X), num(a.Y), num(handleRadius), cardFill, selectStroke)
		}
	}
	buf.WriteString("    </g>\n")
}

// bounds returns the box around every card and connection.
func bounds(m canvas.RenderModel) (geometry.Point, geometry.Point) {
	if len(m.Nodes) == 0 {
		return geometry.Point{}, geometry.Point{X: m.CardSize.W, Y: m.CardSize.H}
	}
	lo := geometry.Point{X: math.Inf(1), Y: math.Inf(1)}
	hi := geometry.Point{X: math.Inf(-1), Y: math.Inf(-1)}
	grow := func(p geometry.Point) {
		lo = geometry.Point{X: math.Min(lo.X, p.X), Y: math.Min(lo.Y, p.Y)}
		hi = geometry.Point{X: math.Max(hi.X, p.X), Y: math.Max(hi.Y, p.Y)}
	}
	for _, n := range m.Nodes {
		grow(n.Position)
		grow(n.Position.Add(geometry.Point{X: m.CardSize.W, Y: m.CardSize.H}))
	}
	for _, e := range m.Edges {
		for _, p := range []geometry.Point{e.Curve.C1, e.Curve.C2} {
			grow(p)
		}
	}
	return lo, hi
}

func scaleOf(vp geometry.Viewport) float64 {
	if vp.Scale == 0 {
		return 1
	}
	return vp.Scale
}

// textWidth estimates rendered width for a sans-serif font. Wide (CJK) runes
// count as a full em.
func textWidth(s string, size float64) float64 {
	w := 0.0
	for _, r := range s {
		if r > 0x2E80 {
			w += size
		} else {
			w += size * 0.6
		}
	}
	return w
}

func num(v float64) string {
	return strconv.FormatFloat(math.Round(v*100)/100, 'f', -1, 64)
}

func escape(s string) string {
	var buf bytes.Buffer
	xml.EscapeText(&buf, []byte(s))
	return buf.String()
}

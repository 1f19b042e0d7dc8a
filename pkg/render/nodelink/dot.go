package nodelink

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/goccy/go-graphviz"

	"github.com/matzehuels/kinboard/pkg/canvas"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
	"github.com/matzehuels/kinboard/pkg/kinship"
	"github.com/matzehuels/kinboard/pkg/render"
)

// pointsPerInch converts canvas units (treated as points) to Graphviz inches.
const pointsPerInch = 72.0

// Options configures node-link diagram rendering.
type Options struct {
	// Localize uses the alternate names and labels.
	Localize bool

	// Relations adds the relationship-to-self path under each name.
	Relations bool

	// CardSize is the box size in canvas units. Zero means the canvas default.
	CardSize geometry.Size

	// Free lets Graphviz place members instead of pinning them.
	Free bool
}

// ToDOT converts a snapshot to Graphviz DOT. Connections whose endpoints are
// missing are skipped.
func ToDOT(s family.Snapshot, opts Options) string {
	card := opts.CardSize
	if card.W <= 0 || card.H <= 0 {
		card = canvas.DefaultCardSize
	}

	var buf bytes.Buffer
	buf.WriteString("digraph G {\n")
	if opts.Free {
		buf.WriteString("  layout=dot;\n")
		buf.WriteString("  rankdir=TB;\n")
	} else {
		buf.WriteString("  layout=neato;\n")
		buf.WriteString("  splines=true;\n")
	}
	buf.WriteString("  bgcolor=\"transparent\";\n")
	fmt.Fprintf(&buf, "  node [shape=box, style=\"rounded,filled\", fillcolor=white, color=\"#d1d5db\", fontname=\"Helvetica\", fontsize=14, fixedsize=true, width=%s, height=%s];\n",
		inches(card.W), inches(card.H))
	buf.WriteString("  edge [fontname=\"Helvetica\", fontsize=11, fontcolor=\"#6b7280\"];\n")
	buf.WriteString("\n")

	var labels map[string]string
	if opts.Relations {
		labels = kinship.Labels(s.Members, s.Connections, opts.Localize)
	}
	for _, m := range s.Members {
		attrs := []string{fmt.Sprintf("label=%q", nodeLabel(m, labels, opts.Localize))}
		if !opts.Free {
			center := m.Position().Add(card.Half())
			attrs = append(attrs, fmt.Sprintf("pos=\"%s,%s!\"", num(center.X), num(-center.Y)))
		}
		if m.IsSelf {
			attrs = append(attrs, "color=\"#f59e0b\"", "penwidth=3")
		}
		fmt.Fprintf(&buf, "  %q [%s];\n", m.ID, strings.Join(attrs, ", "))
	}

	buf.WriteString("\n")
	for _, c := range s.Connections {
		if _, ok := s.Member(c.SourceID); !ok {
			continue
		}
		if _, ok := s.Member(c.TargetID); !ok {
			continue
		}
		attrs := []string{
			fmt.Sprintf("label=%q", c.DisplayLabel(opts.Localize)),
			fmt.Sprintf("color=%q", c.StrokeColor()),
		}
		if !opts.Free {
			attrs = append(attrs, "tailport="+port(c.SourceHandle), "headport="+port(c.TargetHandle))
		}
		switch c.LineStyle {
		case geometry.LineDashed:
			attrs = append(attrs, "style=dashed")
		case geometry.LineDotted:
			attrs = append(attrs, "style=dotted")
		}
		fmt.Fprintf(&buf, "  %q -> %q [%s];\n", c.SourceID, c.TargetID, strings.Join(attrs, ", "))
	}

	buf.WriteString("}\n")
	return buf.String()
}

func nodeLabel(m family.Member, relations map[string]string, localize bool) string {
	label := m.DisplayName(localize)
	if rel, ok := relations[m.ID]; ok {
		return label + "\n" + rel
	}
	if m.IsSelf {
		return label + "\n(me)"
	}
	return label
}

// port maps a card handle to a Graphviz compass point.
func port(h geometry.Handle) string {
	switch h {
	case geometry.HandleTop:
		return "n"
	case geometry.HandleRight:
		return "e"
	case geometry.HandleBottom:
		return "s"
	case geometry.HandleLeft:
		return "w"
	}
	return "c"
}

func inches(v float64) string {
	return strconv.FormatFloat(v/pointsPerInch, 'f', 3, 64)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RenderSVG renders a DOT graph to SVG using Graphviz.
// Returns the SVG bytes ready for display or further conversion with [render.ToPDF] or [render.ToPNG].
func RenderSVG(ctx context.Context, dot string) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("init graphviz: %w", err)
	}
	defer gv.Close()

	g, err := graphviz.ParseBytes([]byte(dot))
	if err != nil {
		return nil, fmt.Errorf("parse DOT: %w", err)
	}
	defer g.Close()

	if strings.Contains(dot, "layout=neato;") {
		gv.SetLayout(graphviz.NEATO)
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, g, graphviz.SVG, &buf); err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	return normalizeViewBox(buf.Bytes()), nil
}

var (
	svgTagRe  = regexp.MustCompile(`<svg[^>]*>`)
	viewBoxRe = regexp.MustCompile(`viewBox="([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)\s+([0-9.]+)"`)
)

// normalizeViewBox replaces Graphviz's pt-sized svg tag with a plain pixel
// one so browsers and rsvg-convert agree on the size.
func normalizeViewBox(svg []byte) []byte {
	match := viewBoxRe.FindSubmatch(svg)
	if match == nil {
		return svg
	}

	w, _ := strconv.ParseFloat(string(match[3]), 64)
	h, _ := strconv.ParseFloat(string(match[4]), 64)
	if w == 0 || h == 0 {
		return svg
	}

	tag := fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 %.2f %.2f" width="%.0f" height="%.0f">`,
		w, h, w, h)
	return svgTagRe.ReplaceAll(svg, []byte(tag))
}

// RenderPDF renders a DOT graph as PDF via SVG conversion.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPDF(ctx context.Context, dot string) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPDF(svg)
}

// RenderPNG renders a DOT graph as PNG via SVG conversion.
// A scale of 2.0 produces a 2x resolution image suitable for high-DPI displays.
// Requires librsvg: brew install librsvg (macOS), apt install librsvg2-bin (Linux).
func RenderPNG(ctx context.Context, dot string, scale float64) ([]byte, error) {
	svg, err := RenderSVG(ctx, dot)
	if err != nil {
		return nil, err
	}
	return render.ToPNG(svg, scale)
}

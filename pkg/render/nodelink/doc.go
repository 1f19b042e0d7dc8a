// Package nodelink renders a family tree as a Graphviz node-link diagram.
//
// # Overview
//
// Members become boxes and connections become labeled arrows. Unlike a
// regular Graphviz layout, every member is pinned at its canvas position, so
// the diagram has the same shape as the interactive canvas while Graphviz
// takes care of edge routing and label placement.
//
// # Usage
//
// Convert a snapshot to DOT, then render to SVG:
//
//	dot := nodelink.ToDOT(snap, nodelink.Options{})
//	svg, err := nodelink.RenderSVG(ctx, dot)
//
// For PDF or PNG output, use the render functions:
//
//	pdf, err := nodelink.RenderPDF(ctx, dot)
//	png, err := nodelink.RenderPNG(ctx, dot, 2.0)  // 2x scale
//
// # Options
//
//   - Localize: use the alternate names and labels
//   - Relations: add each member's relationship to self under the name
//   - CardSize: box size in canvas units (defaults to the canvas card)
//   - Free: drop the pinned positions and let Graphviz lay out top-down
//
// # DOT Format
//
// Positions are written as pos="x,y!" in points with the y axis flipped,
// since Graphviz grows upward and the canvas grows downward. The layout
// engine is neato, which honours pinned positions; free layouts use dot.
// Connection colors and line styles carry over as edge color and style.
//
// # Dependencies
//
// This package uses [github.com/goccy/go-graphviz] for in-process SVG
// rendering. PDF and PNG conversion requires librsvg (rsvg-convert).
package nodelink

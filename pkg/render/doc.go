// Package render turns a family tree into pictures.
//
// # Overview
//
// Two renderers share this package tree:
//
//   - [svg] draws a [canvas.RenderModel] the way the interactive canvas shows
//     it: cards at their stored positions, curved connections leaving from
//     handles, labels at the connection midpoints.
//   - [nodelink] emits Graphviz DOT with every member pinned at its canvas
//     position and renders it through Graphviz (neato), for tools that
//     consume DOT or for Graphviz's own styling.
//
// # Format Conversion
//
// [ToPDF] and [ToPNG] convert any SVG to other formats using the external
// rsvg-convert tool (from librsvg):
//
//	svg := svg.Render(model)
//	pdf, err := render.ToPDF(svg)
//	png, err := render.ToPNG(svg, 2.0)  // 2x scale
//
// [svg]: github.com/matzehuels/kinboard/pkg/render/svg
// [nodelink]: github.com/matzehuels/kinboard/pkg/render/nodelink
// [canvas.RenderModel]: github.com/matzehuels/kinboard/pkg/canvas.RenderModel
package render

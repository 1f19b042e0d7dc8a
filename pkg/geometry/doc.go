// Package geometry maps points between the canvas coordinate spaces and
// builds the curve paths drawn for connections.
//
// # Coordinate Spaces
//
// Three spaces are involved when a member card is drawn or dragged:
//
//   - World space: where member positions are stored. A member's (X, Y) is the
//     top-left corner of its fixed-size card and never depends on zoom or pan.
//   - Screen space: pixels inside the viewport container, as delivered by
//     pointer events (already relative to the container's top-left corner).
//   - Content space: world space after the viewport transform, i.e. what the
//     presentation layer translates by Offset and scales by Scale.
//
// [ScreenToWorld] and [WorldToScreen] convert between the first two using a
// [Viewport]:
//
//	world  = (screen - offset) / scale
//	screen = world*scale + offset
//
// # Edge Paths
//
// [EdgePath] returns a cubic Bézier whose control points are pushed outward
// along each end's handle normal, so a curve always leaves and enters a card
// perpendicular to the edge it is attached to:
//
//	start := geometry.AnchorPosition(source, size, geometry.HandleBottom)
//	end := geometry.AnchorPosition(target, size, geometry.HandleTop)
//	d := geometry.EdgePath(start, geometry.HandleBottom, end, geometry.HandleTop).String()
//	// "M 630 250 C 630 330, 630 370, 630 450"
//
// All functions in this package are pure.
package geometry

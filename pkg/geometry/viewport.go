package geometry

import "math"

// Zoom limits and step.
const (
	MinScale  = 0.5
	MaxScale  = 2.0
	ZoomStep  = 0.1
	unitScale = 1.0
)

// Viewport is the pan/zoom transform between world and screen space.
// Offset is the screen position of the world origin.
type Viewport struct {
	Scale  float64 `json:"scale"`
	Offset Point   `json:"offset"`
}

// NewViewport returns the identity viewport.
func NewViewport() Viewport {
	return Viewport{Scale: unitScale}
}

// ScreenToWorld converts a container-relative screen point to world space.
func ScreenToWorld(p Point, vp Viewport) Point {
	s := vp.scale()
	return Point{(p.X - vp.Offset.X) / s, (p.Y - vp.Offset.Y) / s}
}

// WorldToScreen converts a world point to container-relative screen space.
func WorldToScreen(p Point, vp Viewport) Point {
	s := vp.scale()
	return Point{p.X*s + vp.Offset.X, p.Y*s + vp.Offset.Y}
}

// Pan moves the viewport by a raw screen delta. Panning is a screen-space
// operation so the delta is not divided by the scale.
func (vp Viewport) Pan(delta Point) Viewport {
	vp.Offset = vp.Offset.Add(delta)
	return vp
}

// ZoomIn raises the scale by one step, clamped to MaxScale.
func (vp Viewport) ZoomIn() Viewport { return vp.WithScale(vp.scale() + ZoomStep) }

// ZoomOut lowers the scale by one step, clamped to MinScale.
func (vp Viewport) ZoomOut() Viewport { return vp.WithScale(vp.scale() - ZoomStep) }

// WithScale returns vp with the scale clamped to [MinScale, MaxScale]. The
// value is rounded to two decimals so repeated steps do not drift.
func (vp Viewport) WithScale(s float64) Viewport {
	s = math.Round(s*100) / 100
	vp.Scale = clamp(s, MinScale, MaxScale)
	return vp
}

// CenterOn returns vp with the offset chosen so that world lands in the
// middle of a container of the given size, at the current scale.
func (vp Viewport) CenterOn(world Point, container Size) Viewport {
	s := vp.scale()
	vp.Offset = Point{container.W/2 - world.X*s, container.H/2 - world.Y*s}
	return vp
}

// Center returns the world point currently shown at the middle of the
// container.
func (vp Viewport) Center(container Size) Point {
	return ScreenToWorld(Point{container.W / 2, container.H / 2}, vp)
}

// Percent returns the zoom level as a whole percentage.
func (vp Viewport) Percent() int {
	return int(math.Round(vp.scale() * 100))
}

// scale guards against a zero-value Viewport.
func (vp Viewport) scale() float64 {
	if vp.Scale == 0 {
		return unitScale
	}
	return vp.Scale
}

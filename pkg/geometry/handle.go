package geometry

import "fmt"

// Handle names one of the four sides of a member card that a connection can
// attach to.
type Handle string

const (
	HandleTop    Handle = "top"
	HandleRight  Handle = "right"
	HandleBottom Handle = "bottom"
	HandleLeft   Handle = "left"
)

// Handles lists all handles in hit-test order.
var Handles = []Handle{HandleTop, HandleRight, HandleBottom, HandleLeft}

// Valid reports whether h is one of the four known sides.
func (h Handle) Valid() bool {
	switch h {
	case HandleTop, HandleRight, HandleBottom, HandleLeft:
		return true
	}
	return false
}

// ParseHandle converts a string to a Handle.
func ParseHandle(s string) (Handle, error) {
	h := Handle(s)
	if !h.Valid() {
		return "", fmt.Errorf("unknown handle %q (want top, right, bottom or left)", s)
	}
	return h, nil
}

// Normal returns the unit vector pointing out of the card through h.
// Screen y grows downward, so top is (0, -1).
func (h Handle) Normal() Point {
	switch h {
	case HandleTop:
		return Point{0, -1}
	case HandleBottom:
		return Point{0, 1}
	case HandleLeft:
		return Point{-1, 0}
	case HandleRight:
		return Point{1, 0}
	}
	return Point{}
}

// AnchorPosition returns the midpoint of the card side named by h, for a card
// of the given size whose top-left corner is at topLeft.
func AnchorPosition(topLeft Point, size Size, h Handle) Point {
	switch h {
	case HandleTop:
		return Point{topLeft.X + size.W/2, topLeft.Y}
	case HandleRight:
		return Point{topLeft.X + size.W, topLeft.Y + size.H/2}
	case HandleBottom:
		return Point{topLeft.X + size.W/2, topLeft.Y + size.H}
	case HandleLeft:
		return Point{topLeft.X, topLeft.Y + size.H/2}
	}
	return topLeft
}

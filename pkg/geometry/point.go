package geometry

import (
	"math"
	"strconv"
)

// Point is a 2D coordinate. Which space it lives in is decided by the caller.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add returns p translated by q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y} }

// Sub returns the vector from q to p.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y} }

// Scale multiplies both components by k.
func (p Point) Scale(k float64) Point { return Point{p.X * k, p.Y * k} }

// Manhattan returns |dx| + |dy| between p and q.
func Manhattan(p, q Point) float64 {
	return math.Abs(q.X-p.X) + math.Abs(q.Y-p.Y)
}

// Midpoint returns the point halfway between p and q.
func Midpoint(p, q Point) Point {
	return Point{(p.X + q.X) / 2, (p.Y + q.Y) / 2}
}

// Size is the width and height of a member card in world units.
type Size struct {
	W float64 `json:"w" toml:"width"`
	H float64 `json:"h" toml:"height"`
}

// Half returns the vector from a card's top-left corner to its centre.
func (s Size) Half() Point { return Point{s.W / 2, s.H / 2} }

// Rect is an axis-aligned rectangle anchored at its top-left corner.
type Rect struct {
	Min  Point
	Size Size
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Min.X && p.X <= r.Min.X+r.Size.W &&
		p.Y >= r.Min.Y && p.Y <= r.Min.Y+r.Size.H
}

// fmtNum formats a coordinate the shortest way that round-trips, so 500 is
// written "500" and 130.5 is written "130.5".
func fmtNum(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

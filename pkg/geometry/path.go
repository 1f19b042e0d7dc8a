package geometry

import "fmt"

// Control-point distance bounds for [EdgePath].
const (
	MinControlDistance = 50.0
	MaxControlDistance = 200.0

	// controlFactor scales the Manhattan distance between the ends.
	controlFactor = 0.4
)

// Curve is a cubic Bézier from Start to End with control points C1 and C2.
type Curve struct {
	Start Point `json:"start"`
	C1    Point `json:"c1"`
	C2    Point `json:"c2"`
	End   Point `json:"end"`
}

// String renders the curve as SVG path data.
func (c Curve) String() string {
	return fmt.Sprintf("M %s %s C %s %s, %s %s, %s %s",
		fmtNum(c.Start.X), fmtNum(c.Start.Y),
		fmtNum(c.C1.X), fmtNum(c.C1.Y),
		fmtNum(c.C2.X), fmtNum(c.C2.Y),
		fmtNum(c.End.X), fmtNum(c.End.Y))
}

// Midpoint returns where a connection label is centred: halfway between the
// two anchors, not the curve's parametric midpoint.
func (c Curve) Midpoint() Point {
	return Midpoint(c.Start, c.End)
}

// At evaluates the curve at parameter t in [0, 1].
func (c Curve) At(t float64) Point {
	u := 1 - t
	a := u * u * u
	b := 3 * u * u * t
	d := 3 * u * t * t
	e := t * t * t
	return Point{
		X: a*c.Start.X + b*c.C1.X + d*c.C2.X + e*c.End.X,
		Y: a*c.Start.Y + b*c.C1.Y + d*c.C2.Y + e*c.End.Y,
	}
}

// ControlDistance returns how far control points sit from their anchors:
// 0.4 times the Manhattan distance, clamped to [50, 200].
func ControlDistance(start, end Point) float64 {
	return clamp(Manhattan(start, end)*controlFactor, MinControlDistance, MaxControlDistance)
}

// EdgePath builds the curve for a connection leaving start through
// startHandle and arriving at end through endHandle. The result depends only
// on its four inputs.
func EdgePath(start Point, startHandle Handle, end Point, endHandle Handle) Curve {
	d := ControlDistance(start, end)
	return Curve{
		Start: start,
		C1:    start.Add(startHandle.Normal().Scale(d)),
		C2:    end.Add(endHandle.Normal().Scale(d)),
		End:   end,
	}
}

// LinePath renders the straight preview segment drawn while a connection is
// being dragged out of a handle.
func LinePath(from, to Point) string {
	return fmt.Sprintf("M %s %s L %s %s", fmtNum(from.X), fmtNum(from.Y), fmtNum(to.X), fmtNum(to.Y))
}

func clamp(v, lo, hi float64) float64 {
	return min(hi, max(lo, v))
}

package canvas

import (
	"math"

	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
)

// edgeSamples is how many points along a connection curve are tested.
const edgeSamples = 24

// DefaultEdgeTolerance is the hover width around a connection curve.
const DefaultEdgeTolerance = 7.5

// HitOptions configures HitTest.
type HitOptions struct {
	CardSize      geometry.Size
	HandleRadius  float64
	EdgeTolerance float64
	// Handles enables handle hits; locked canvases hide their handles.
	Handles bool
}

// HitTest returns what lies under a world point: a handle, a card, an edge or
// empty canvas, checked in that order. Members later in the snapshot are
// drawn on top, so they are checked first.
func HitTest(s family.Snapshot, world geometry.Point, opts HitOptions) Target {
	if opts.CardSize.W <= 0 || opts.CardSize.H <= 0 {
		opts.CardSize = DefaultCardSize
	}
	if opts.HandleRadius <= 0 {
		opts.HandleRadius = DefaultHandleRadius
	}
	if opts.EdgeTolerance <= 0 {
		opts.EdgeTolerance = DefaultEdgeTolerance
	}

	if opts.Handles {
		for i := len(s.Members) - 1; i >= 0; i-- {
			m := s.Members[i]
			for _, h := range geometry.Handles {
				a := geometry.AnchorPosition(m.Position(), opts.CardSize, h)
				if dist(a, world) <= opts.HandleRadius {
					return HandleOf(m.ID, h)
				}
			}
		}
	}

	for i := len(s.Members) - 1; i >= 0; i-- {
		m := s.Members[i]
		if (geometry.Rect{Min: m.Position(), Size: opts.CardSize}).Contains(world) {
			return Card(m.ID)
		}
	}

	for i := len(s.Connections) - 1; i >= 0; i-- {
		conn := s.Connections[i]
		curve, ok := connectionCurve(s, conn, opts.CardSize)
		if !ok {
			continue
		}
		for k := 0; k <= edgeSamples; k++ {
			if dist(curve.At(float64(k)/edgeSamples), world) <= opts.EdgeTolerance {
				return Edge(conn.ID)
			}
		}
	}

	return Empty
}

// connectionCurve returns the drawn curve of conn, or false when an endpoint
// is missing.
func connectionCurve(s family.Snapshot, conn family.Connection, card geometry.Size) (geometry.Curve, bool) {
	src, ok := s.Member(conn.SourceID)
	if !ok {
		return geometry.Curve{}, false
	}
	dst, ok := s.Member(conn.TargetID)
	if !ok {
		return geometry.Curve{}, false
	}
	start := geometry.AnchorPosition(src.Position(), card, conn.SourceHandle)
	end := geometry.AnchorPosition(dst.Position(), card, conn.TargetHandle)
	return geometry.EdgePath(start, conn.SourceHandle, end, conn.TargetHandle), true
}

func dist(p, q geometry.Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

package geometry

import (
	"math"
	"testing"
)

var card = Size{W: 260, H: 100}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAnchorPosition(t *testing.T) {
	tl := Point{X: 100, Y: 40}
	tests := []struct {
		handle Handle
		want   Point
	}{
		{HandleTop, Point{230, 40}},
		{HandleRight, Point{360, 90}},
		{HandleBottom, Point{230, 140}},
		{HandleLeft, Point{100, 90}},
	}

	for _, tt := range tests {
		t.Run(string(tt.handle), func(t *testing.T) {
			if got := AnchorPosition(tl, card, tt.handle); got != tt.want {
				t.Errorf("AnchorPosition(%v) = %v, want %v", tt.handle, got, tt.want)
			}
		})
	}
}

func TestScreenWorldRoundTrip(t *testing.T) {
	vp := Viewport{Scale: 1.5, Offset: Point{X: -120, Y: 35}}
	screen := Point{X: 400, Y: 310}

	world := ScreenToWorld(screen, vp)
	want := Point{X: (400 + 120) / 1.5, Y: (310 - 35) / 1.5}
	if !approx(world.X, want.X) || !approx(world.Y, want.Y) {
		t.Fatalf("ScreenToWorld() = %v, want %v", world, want)
	}

	back := WorldToScreen(world, vp)
	if !approx(back.X, screen.X) || !approx(back.Y, screen.Y) {
		t.Errorf("WorldToScreen(ScreenToWorld(p)) = %v, want %v", back, screen)
	}
}

func TestScreenToWorldZeroViewport(t *testing.T) {
	got := ScreenToWorld(Point{X: 10, Y: 20}, Viewport{})
	if got != (Point{X: 10, Y: 20}) {
		t.Errorf("ScreenToWorld with zero viewport = %v, want identity", got)
	}
}

func TestControlDistanceClamp(t *testing.T) {
	tests := []struct {
		name       string
		start, end Point
		want       float64
	}{
		{"short clamps to min", Point{0, 0}, Point{10, 10}, 50},
		{"mid range", Point{0, 0}, Point{200, 100}, 120},
		{"long clamps to max", Point{0, 0}, Point{1000, 1000}, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ControlDistance(tt.start, tt.end); !approx(got, tt.want) {
				t.Errorf("ControlDistance() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEdgePath(t *testing.T) {
	start := AnchorPosition(Point{500, 150}, card, HandleBottom)
	end := AnchorPosition(Point{500, 450}, card, HandleTop)

	got := EdgePath(start, HandleBottom, end, HandleTop).String()
	want := "M 630 250 C 630 330, 630 370, 630 450"
	if got != want {
		t.Errorf("EdgePath() = %q, want %q", got, want)
	}
}

func TestEdgePathNormals(t *testing.T) {
	start := Point{0, 0}
	end := Point{300, 300}
	c := EdgePath(start, HandleRight, end, HandleLeft)

	if c.C1 != (Point{200, 0}) {
		t.Errorf("C1 = %v, want right of start", c.C1)
	}
	if c.C2 != (Point{100, 300}) {
		t.Errorf("C2 = %v, want left of end", c.C2)
	}
	if c.At(0) != start || c.At(1) != end {
		t.Errorf("curve endpoints = %v..%v, want %v..%v", c.At(0), c.At(1), start, end)
	}
}

func TestEdgePathDeterministic(t *testing.T) {
	start, end := Point{12.5, 7}, Point{-40, 333.25}
	first := EdgePath(start, HandleLeft, end, HandleBottom).String()
	for i := 0; i < 100; i++ {
		if got := EdgePath(start, HandleLeft, end, HandleBottom).String(); got != first {
			t.Fatalf("EdgePath() run %d = %q, want %q", i, got, first)
		}
	}
}

func TestLinePath(t *testing.T) {
	if got := LinePath(Point{1.5, 2}, Point{3, 4.25}); got != "M 1.5 2 L 3 4.25" {
		t.Errorf("LinePath() = %q", got)
	}
}

func TestDashArray(t *testing.T) {
	tests := map[LineStyle]string{
		LineSolid:  "",
		LineDashed: "8 4",
		LineDotted: "2 2",
		"":         "",
		"wavy":     "",
	}
	for style, want := range tests {
		if got := DashArray(style); got != want {
			t.Errorf("DashArray(%q) = %q, want %q", style, got, want)
		}
	}
}

func TestZoomClamp(t *testing.T) {
	vp := NewViewport()
	for i := 0; i < 20; i++ {
		vp = vp.ZoomIn()
	}
	if vp.Scale != MaxScale {
		t.Errorf("ZoomIn x20 scale = %v, want %v", vp.Scale, MaxScale)
	}
	for i := 0; i < 30; i++ {
		vp = vp.ZoomOut()
	}
	if vp.Scale != MinScale {
		t.Errorf("ZoomOut x30 scale = %v, want %v", vp.Scale, MinScale)
	}
	if got := vp.ZoomIn().Scale; got != 0.6 {
		t.Errorf("ZoomIn from min = %v, want 0.6", got)
	}
}

func TestCenterOn(t *testing.T) {
	container := Size{W: 800, H: 600}
	vp := Viewport{Scale: 2}.CenterOn(Point{500, 450}, container)

	if got := WorldToScreen(Point{500, 450}, vp); got != (Point{400, 300}) {
		t.Errorf("centred point on screen = %v, want container centre", got)
	}
	if got := vp.Center(container); got != (Point{500, 450}) {
		t.Errorf("Center() = %v, want %v", got, Point{500, 450})
	}
}

func TestParseHandle(t *testing.T) {
	if h, err := ParseHandle("left"); err != nil || h != HandleLeft {
		t.Errorf("ParseHandle(left) = %v, %v", h, err)
	}
	if _, err := ParseHandle("middle"); err == nil {
		t.Error("ParseHandle(middle) error = nil, want error")
	}
}

func TestRectContains(t *testing.T) {
	r := Rect{Min: Point{10, 10}, Size: card}
	if !r.Contains(Point{10, 10}) || !r.Contains(Point{270, 110}) {
		t.Error("Contains() should include edges")
	}
	if r.Contains(Point{9, 50}) {
		t.Error("Contains() should exclude points left of the rect")
	}
}

package svg

import (
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/matzehuels/kinboard/pkg/canvas"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
)

func seedModel(locked bool) canvas.RenderModel {
	return canvas.Project(family.Seed(), canvas.Idle{}, geometry.NewViewport(), canvas.ProjectOptions{Locked: locked})
}

func wellFormed(t *testing.T, doc []byte) {
	t.Helper()
	dec := xml.NewDecoder(strings.NewReader(string(doc)))
	for {
		_, err := dec.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			t.Fatalf("malformed SVG: %v\n%s", err, doc)
		}
	}
}

func TestRenderFitted(t *testing.T) {
	out := Render(seedModel(true), WithTitle("Robinson & family"))
	wellFormed(t, out)
	s := string(out)

	for _, want := range []string{
		// cards span (500,150)-(760,550); margin 40
		`viewBox="460 110 340 480"`,
		`<title>Robinson &amp; family</title>`,
		`d="M 630 250 C 630 330, 630 370, 630 450"`,
		`id="member-1"`,
		`>Arthur Robinson<`,
		`class="relation"`,
		`>Son<`,
		`class="role"`,
		`>Father<`,
	} {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q", want)
		}
	}
	if strings.Contains(s, `class="handle"`) {
		t.Error("handles drawn on a locked canvas")
	}
}

func TestRenderHandlesWhenUnlocked(t *testing.T) {
	s := string(Render(seedModel(false)))
	if got := strings.Count(s, `class="handle"`); got != 8 {
		t.Errorf("handles = %d, want 8", got)
	}
	s = string(Render(seedModel(false), WithHandles(false)))
	if strings.Contains(s, `class="handle"`) {
		t.Error("WithHandles(false) ignored")
	}
}

func TestRenderViewport(t *testing.T) {
	m := seedModel(true)
	m.Viewport = geometry.Viewport{Scale: 1.5, Offset: geometry.Point{X: -100, Y: 20}}
	out := Render(m, WithViewport(geometry.Size{W: 800, H: 600}))
	wellFormed(t, out)
	s := string(out)
	if !strings.Contains(s, `viewBox="0 0 800 600"`) {
		t.Error("viewport size not applied")
	}
	if !strings.Contains(s, `transform="translate(-100 20) scale(1.5)"`) {
		t.Error("viewport transform not applied")
	}
}

func TestRenderPreviewAndDashes(t *testing.T) {
	s := family.Seed()
	s.Connections[0].LineStyle = geometry.LineDotted
	st := canvas.Connecting{SourceID: "2", Handle: geometry.HandleLeft, Pointer: geometry.Point{X: 300, Y: 500}, HasPointer: true}
	m := canvas.Project(s, st, geometry.NewViewport(), canvas.ProjectOptions{})

	out := string(Render(m))
	if !strings.Contains(out, `stroke-dasharray="2 2"`) {
		t.Error("dotted edge not dashed")
	}
	if !strings.Contains(out, `class="preview" d="M 500 500 L 300 500"`) {
		t.Error("preview line missing")
	}
	if !strings.Contains(out, `stroke-dasharray="5 5"`) {
		t.Error("preview not dashed")
	}
}

func TestRenderEmpty(t *testing.T) {
	m := canvas.Project(family.Snapshot{}, canvas.Idle{}, geometry.NewViewport(), canvas.ProjectOptions{})
	wellFormed(t, Render(m))
}

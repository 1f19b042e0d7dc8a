package family

import (
	"strings"
	"testing"

	"github.com/matzehuels/kinboard/pkg/geometry"
)

func TestDisplayName(t *testing.T) {
	m := Member{Name: "John", NameZh: "约翰"}
	if got := m.DisplayName(false); got != "John" {
		t.Errorf("DisplayName(false) = %q", got)
	}
	if got := m.DisplayName(true); got != "约翰" {
		t.Errorf("DisplayName(true) = %q", got)
	}
	m.NameZh = ""
	if got := m.DisplayName(true); got != "John" {
		t.Errorf("DisplayName(true) without NameZh = %q, want fallback", got)
	}
}

func TestDisplayLabel(t *testing.T) {
	c := Connection{Label: "Son"}
	if got := c.DisplayLabel(true); got != "Son" {
		t.Errorf("DisplayLabel(true) without LabelZh = %q", got)
	}
	c.LabelZh = "儿子"
	if got := c.DisplayLabel(true); got != "儿子" {
		t.Errorf("DisplayLabel(true) = %q", got)
	}
}

func TestNewConnectionDefaults(t *testing.T) {
	c := NewConnection("1", geometry.HandleRight, "2", geometry.HandleTop)
	if c.ID == "" || c.Label != DefaultLabel || c.LabelZh != DefaultLabelZh {
		t.Errorf("NewConnection() = %+v", c)
	}
	if c.StrokeColor() != DefaultColor {
		t.Errorf("StrokeColor() = %q, want default", c.StrokeColor())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		value   any
		wantErr string
	}{
		{"valid member", Member{ID: "1", Name: "Ada", Gender: Female}, ""},
		{"missing name", Member{ID: "1", Gender: Female}, "Name is required"},
		{"bad gender", Member{ID: "1", Name: "Ada", Gender: "other"}, "Gender must be one of"},
		{"valid connection", Connection{ID: "c", SourceID: "1", TargetID: "2", SourceHandle: "top", TargetHandle: "left"}, ""},
		{"self loop", Connection{ID: "c", SourceID: "1", TargetID: "1", SourceHandle: "top", TargetHandle: "left"}, "TargetID must differ"},
		{"bad handle", Connection{ID: "c", SourceID: "1", TargetID: "2", SourceHandle: "middle", TargetHandle: "left"}, "SourceHandle must be one of"},
		{"bad color", Connection{ID: "c", SourceID: "1", TargetID: "2", SourceHandle: "top", TargetHandle: "left", Color: "green"}, "hex color"},
		{"bad style", Connection{ID: "c", SourceID: "1", TargetID: "2", SourceHandle: "top", TargetHandle: "left", LineStyle: "wavy"}, "LineStyle"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.value)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestSeedHasSingleSelf(t *testing.T) {
	n := 0
	for _, m := range Seed().Members {
		if m.IsSelf {
			n++
		}
	}
	if n != 1 {
		t.Errorf("Seed() has %d selves, want 1", n)
	}
}

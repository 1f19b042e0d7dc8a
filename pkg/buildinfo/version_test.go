package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	oldV, oldC := Version, Commit
	t.Cleanup(func() { Version, Commit = oldV, oldC })

	Version, Commit = "v0.3.0", "0123456789abcdef"
	got := Template()
	if !strings.HasPrefix(got, "{{.Name}} v0.3.0 (0123456") {
		t.Errorf("Template() = %q", got)
	}
	if !strings.Contains(String(), "commit: 0123456789abcdef") {
		t.Errorf("String() = %q", String())
	}
}

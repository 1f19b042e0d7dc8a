package cli

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/kinboard/pkg/errors"
)

// execute runs one kinboard command against a file store in dir and
// returns what it wrote to stdout.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	c := New(io.Discard, LogInfo)
	root := c.RootCommand()

	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(append([]string{
		"--config", filepath.Join(dir, "config.toml"),
		"--store", "file",
		"--store-path", filepath.Join(dir, "tree.json"),
	}, args...))
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func TestRootCommandRegistersSubcommands(t *testing.T) {
	root := New(io.Discard, LogInfo).RootCommand()
	for _, name := range []string{"init", "member", "connection", "relation", "family", "render", "export", "import", "tui", "serve", "config", "completion"} {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestInitThenRelation(t *testing.T) {
	dir := t.TempDir()

	if _, err := execute(t, dir, "init"); err != nil {
		t.Fatalf("init: %v", err)
	}
	if _, err := execute(t, dir, "init"); !errors.Is(err, errors.ErrCodeConflict) {
		t.Errorf("second init err = %v, want CONFLICT", err)
	}

	out, err := execute(t, dir, "relation", "Arthur Robinson")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "Arthur Robinson: Son" {
		t.Errorf("relation = %q", out)
	}

	out, err = execute(t, dir, "--zh", "relation", "1")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "亚瑟·罗宾逊: 儿子" {
		t.Errorf("localized relation = %q", out)
	}
}

func TestMemberAddFrom(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, dir, "init"); err != nil {
		t.Fatal(err)
	}

	if _, err := execute(t, dir, "member", "add", "--name", "Emma Robinson", "--role", "Daughter", "--gender", "female", "--from", "john robinson"); err != nil {
		t.Fatalf("member add: %v", err)
	}

	out, err := execute(t, dir, "relation", "Emma Robinson")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != "Emma Robinson: Daughter" {
		t.Errorf("relation = %q", out)
	}

	out, err = execute(t, dir, "member", "list")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Emma Robinson") || !strings.Contains(out, "Arthur Robinson") {
		t.Errorf("member list:\n%s", out)
	}
}

func TestMemberAddValidates(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "member", "add", "--role", "Uncle")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("err = %v, want INVALID_INPUT", err)
	}
}

func TestRenderDOTToStdout(t *testing.T) {
	dir := t.TempDir()
	if _, err := execute(t, dir, "init"); err != nil {
		t.Fatal(err)
	}
	out, err := execute(t, dir, "render", "-f", "dot")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"1" -> "2"`) {
		t.Errorf("dot output:\n%s", out)
	}

	if _, err := execute(t, dir, "render", "-f", "png"); err == nil {
		t.Error("png without -o should fail")
	}
	if _, err := execute(t, dir, "render", "-f", "jpeg"); err == nil {
		t.Error("unknown format should fail")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	src, dst := t.TempDir(), t.TempDir()
	if _, err := execute(t, src, "init"); err != nil {
		t.Fatal(err)
	}
	file := filepath.Join(src, "tree.yaml")
	if _, err := execute(t, src, "export", "-o", file); err != nil {
		t.Fatalf("export: %v", err)
	}
	if _, err := execute(t, dst, "import", file); err != nil {
		t.Fatalf("import: %v", err)
	}
	out, err := execute(t, dst, "relation", "1")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "Son") {
		t.Errorf("imported relation = %q", out)
	}
}

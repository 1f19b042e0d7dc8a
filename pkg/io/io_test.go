package io

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
)

func TestJSONRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteJSON(family.Seed(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"sourceHandle": "bottom"`) {
		t.Errorf("unexpected JSON:\n%s", buf.String())
	}
	got, err := ReadJSON(&buf)
	if err != nil {
		t.Fatal(err)
	}
	assertSeed(t, got)
}

func TestYAMLRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteYAML(family.Seed(), &buf); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "nameZh: 亚瑟·罗宾逊") {
		t.Errorf("unexpected YAML:\n%s", buf.String())
	}
	got, err := ReadYAML(&buf)
	if err != nil {
		t.Fatal(err)
	}
	assertSeed(t, got)
}

func assertSeed(t *testing.T, got family.Snapshot) {
	t.Helper()
	want := family.Seed()
	if len(got.Members) != len(want.Members) || len(got.Connections) != len(want.Connections) {
		t.Fatalf("got %d members, %d connections", len(got.Members), len(got.Connections))
	}
	for i := range want.Members {
		if got.Members[i] != want.Members[i] {
			t.Errorf("member %d = %+v, want %+v", i, got.Members[i], want.Members[i])
		}
	}
	if got.Connections[0] != want.Connections[0] {
		t.Errorf("connection = %+v", got.Connections[0])
	}
}

func TestReadRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		code errors.Code
	}{
		{"malformed", `{"members": [`, errors.ErrCodeInvalidFormat},
		{"unknown field", `{"members": [], "connections": [], "extra": 1}`, errors.ErrCodeInvalidFormat},
		{"future version", `{"version": 9, "members": [], "connections": []}`, errors.ErrCodeUnsupported},
		{"invalid member", `{"members": [{"id": "1", "name": ""}], "connections": []}`, errors.ErrCodeInvalidInput},
		{"duplicate member", `{"members": [{"id": "1", "name": "a"}, {"id": "1", "name": "b"}], "connections": []}`, errors.ErrCodeConflict},
		{"dangling connection", `{"members": [{"id": "1", "name": "a"}], "connections": [
			{"id": "c", "sourceId": "1", "targetId": "9", "sourceHandle": "top", "targetHandle": "top", "label": "x"}]}`, errors.ErrCodeMemberNotFound},
		{"self loop", `{"members": [{"id": "1", "name": "a"}], "connections": [
			{"id": "c", "sourceId": "1", "targetId": "1", "sourceHandle": "top", "targetHandle": "top", "label": "x"}]}`, errors.ErrCodeInvalidInput},
		{"bad handle", `{"members": [{"id": "1", "name": "a"}, {"id": "2", "name": "b"}], "connections": [
			{"id": "c", "sourceId": "1", "targetId": "2", "sourceHandle": "middle", "targetHandle": "top", "label": "x"}]}`, errors.ErrCodeInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadJSON(strings.NewReader(tt.doc))
			if !errors.Is(err, tt.code) {
				t.Errorf("err = %v, want %s", err, tt.code)
			}
		})
	}
}

func TestReadKeepsFirstSelf(t *testing.T) {
	doc := `{"members": [
		{"id": "a", "name": "A", "isSelf": true},
		{"id": "b", "name": "B", "isSelf": true}
	], "connections": []}`
	got, err := ReadJSON(strings.NewReader(doc))
	if err != nil {
		t.Fatal(err)
	}
	if !got.Members[0].IsSelf || got.Members[1].IsSelf {
		t.Errorf("self flags = %v, %v", got.Members[0].IsSelf, got.Members[1].IsSelf)
	}
	if got.Members[0].Gender != family.Male {
		t.Errorf("gender default = %q", got.Members[0].Gender)
	}
}

func TestWriteSQL(t *testing.T) {
	s := family.Seed()
	s.Members[0].Name = "Arthur O'Brien"
	s.Members[0].X = 500.6

	var buf bytes.Buffer
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	if err := WriteSQL(s, &buf, at); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{
		"-- Generated on 2024-05-01T12:00:00Z",
		"CREATE TABLE IF NOT EXISTS members (",
		"FOREIGN KEY(target_id) REFERENCES members(id)",
		"VALUES ('1', 'Arthur O''Brien', '亚瑟·罗宾逊', 'Patriarch', '1940', '', 'London, UK', 'https://picsum.photos/id/1025/200/200', '', 'male', 0, 501, 150);",
		"VALUES ('2', 'John Robinson',",
		"'male', 1, 500, 450);",
		"VALUES ('c1', '1', '2', 'bottom', 'top', 'Son', '儿子', '', '');",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestFormats(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		ok   bool
	}{
		{"tree.json", FormatJSON, true},
		{"tree.YML", FormatYAML, true},
		{"dump.sql", FormatSQL, true},
		{"tree.csv", "", false},
		{"tree", "", false},
	}
	for _, tt := range tests {
		got, err := FormatFromPath(tt.in)
		if (err == nil) != tt.ok || got != tt.want {
			t.Errorf("FormatFromPath(%q) = %q, %v", tt.in, got, err)
		}
	}
}

func TestExportImportFile(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"tree.json", "tree.yaml"} {
		path := filepath.Join(dir, name)
		if err := Export(family.Seed(), path); err != nil {
			t.Fatalf("Export(%s): %v", name, err)
		}
		got, err := Import(path)
		if err != nil {
			t.Fatalf("Import(%s): %v", name, err)
		}
		assertSeed(t, got)
	}

	if err := Export(family.Seed(), filepath.Join(dir, "tree.sql")); err != nil {
		t.Fatal(err)
	}
	if _, err := Import(filepath.Join(dir, "tree.sql")); !errors.Is(err, errors.ErrCodeUnsupported) {
		t.Errorf("sql import err = %v", err)
	}
	if _, err := Import(filepath.Join(dir, "missing.json")); !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("missing file err = %v", err)
	}
}

func TestImportExampleTree(t *testing.T) {
	s, err := Import(filepath.Join("..", "..", "examples", "robinsons.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if len(s.Members) != 5 || len(s.Connections) != 4 {
		t.Fatalf("got %d members, %d connections", len(s.Members), len(s.Connections))
	}
	self, ok := s.Self()
	if !ok || self.ID != "2" {
		t.Errorf("self = %+v", self)
	}
	if got := s.Members[4].DeathDate; got != "2019" {
		t.Errorf("death date = %q", got)
	}
}

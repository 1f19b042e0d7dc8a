package io

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
)

// Format is a serialization format.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatSQL  Format = "sql"
)

// Formats lists the supported export formats.
var Formats = []Format{FormatJSON, FormatYAML, FormatSQL}

// ParseFormat converts a flag value to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "sql":
		return FormatSQL, nil
	}
	return "", errors.New(errors.ErrCodeInvalidFormat, "unknown format %q (want json, yaml or sql)", s)
}

// FormatFromPath infers the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	if ext == "" {
		return "", errors.New(errors.ErrCodeInvalidFormat, "cannot infer format of %s", path)
	}
	return ParseFormat(ext)
}

const documentVersion = 1

type document struct {
	Version     int                 `json:"version" yaml:"version"`
	Members     []family.Member     `json:"members" yaml:"members"`
	Connections []family.Connection `json:"connections" yaml:"connections"`
}

func newDocument(s family.Snapshot) document {
	d := document{Version: documentVersion, Members: s.Members, Connections: s.Connections}
	if d.Members == nil {
		d.Members = []family.Member{}
	}
	if d.Connections == nil {
		d.Connections = []family.Connection{}
	}
	return d
}

// WriteJSON encodes s as indented JSON.
func WriteJSON(s family.Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(newDocument(s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// WriteYAML encodes s as YAML.
func WriteYAML(s family.Snapshot, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(newDocument(s)); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return enc.Close()
}

// WriteSQL writes s as SQL statements. generated is stamped in the header.
func WriteSQL(s family.Snapshot, w io.Writer, generated time.Time) error {
	var b strings.Builder
	fmt.Fprintf(&b, "-- Family Tree Export\n-- Generated on %s\n\n", generated.UTC().Format(time.RFC3339))
	b.WriteString(`CREATE TABLE IF NOT EXISTS members (
  id TEXT PRIMARY KEY,
  name TEXT,
  name_zh TEXT,
  role TEXT,
  birth_date TEXT,
  death_date TEXT,
  location TEXT,
  avatar TEXT,
  bio TEXT,
  gender TEXT,
  is_self BOOLEAN,
  x INTEGER,
  y INTEGER
);

CREATE TABLE IF NOT EXISTS connections (
  id TEXT PRIMARY KEY,
  source_id TEXT,
  target_id TEXT,
  source_handle TEXT,
  target_handle TEXT,
  label TEXT,
  label_zh TEXT,
  color TEXT,
  line_style TEXT,
  FOREIGN KEY(source_id) REFERENCES members(id),
  FOREIGN KEY(target_id) REFERENCES members(id)
);

`)
	for _, m := range s.Members {
		fmt.Fprintf(&b, "INSERT INTO members (id, name, name_zh, role, birth_date, death_date, location, avatar, bio, gender, is_self, x, y) VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %d, %d, %d);\n",
			quote(m.ID), quote(m.Name), quote(m.NameZh), quote(m.Role), quote(m.BirthDate), quote(m.DeathDate),
			quote(m.Location), quote(m.Avatar), quote(m.Bio), quote(string(m.Gender)), boolInt(m.IsSelf),
			int64(math.Round(m.X)), int64(math.Round(m.Y)))
	}
	b.WriteString("\n")
	for _, c := range s.Connections {
		fmt.Fprintf(&b, "INSERT INTO connections (id, source_id, target_id, source_handle, target_handle, label, label_zh, color, line_style) VALUES (%s, %s, %s, %s, %s, %s, %s, %s, %s);\n",
			quote(c.ID), quote(c.SourceID), quote(c.TargetID), quote(string(c.SourceHandle)), quote(string(c.TargetHandle)),
			quote(c.Label), quote(c.LabelZh), quote(c.Color), quote(string(c.LineStyle)))
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// quote renders a SQL string literal.
func quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Write encodes s in format f.
func Write(s family.Snapshot, w io.Writer, f Format) error {
	switch f {
	case FormatJSON:
		return WriteJSON(s, w)
	case FormatYAML:
		return WriteYAML(s, w)
	case FormatSQL:
		return WriteSQL(s, w, time.Now())
	}
	return errors.New(errors.ErrCodeInvalidFormat, "unknown format %q", f)
}

// Export writes s to path in the format its extension names.
func Export(s family.Snapshot, path string) error {
	f, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := Write(s, out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

package io

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
)

// ReadJSON decodes and checks a JSON tree.
func ReadJSON(r io.Reader) (family.Snapshot, error) {
	var d document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&d); err != nil {
		return family.Snapshot{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}
	return check(d)
}

// ReadYAML decodes and checks a YAML tree.
func ReadYAML(r io.Reader) (family.Snapshot, error) {
	var d document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return family.Snapshot{}, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode")
	}
	return check(d)
}

// Read decodes a tree in format f. SQL cannot be read.
func Read(r io.Reader, f Format) (family.Snapshot, error) {
	switch f {
	case FormatJSON:
		return ReadJSON(r)
	case FormatYAML:
		return ReadYAML(r)
	}
	return family.Snapshot{}, errors.New(errors.ErrCodeUnsupported, "cannot import %s", f)
}

// Import reads the tree at path in the format its extension names.
func Import(path string) (family.Snapshot, error) {
	f, err := FormatFromPath(path)
	if err != nil {
		return family.Snapshot{}, err
	}
	in, err := os.Open(path)
	if os.IsNotExist(err) {
		return family.Snapshot{}, errors.New(errors.ErrCodeFileNotFound, "%s", path)
	}
	if err != nil {
		return family.Snapshot{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()
	return Read(in, f)
}

func check(d document) (family.Snapshot, error) {
	if d.Version > documentVersion {
		return family.Snapshot{}, errors.New(errors.ErrCodeUnsupported, "document version %d is newer than %d", d.Version, documentVersion)
	}

	members := make(map[string]bool, len(d.Members))
	selfSeen := false
	for i, m := range d.Members {
		if m.Gender == "" {
			m.Gender = family.Male
		}
		if err := family.Validate(m); err != nil {
			return family.Snapshot{}, fmt.Errorf("member %d (%s): %w", i, m.ID, err)
		}
		if members[m.ID] {
			return family.Snapshot{}, errors.New(errors.ErrCodeConflict, "duplicate member id %s", m.ID)
		}
		members[m.ID] = true
		if m.IsSelf {
			if selfSeen {
				m.IsSelf = false
			}
			selfSeen = true
		}
		d.Members[i] = m
	}

	conns := make(map[string]bool, len(d.Connections))
	for i, c := range d.Connections {
		if err := family.Validate(c); err != nil {
			return family.Snapshot{}, fmt.Errorf("connection %d (%s): %w", i, c.ID, err)
		}
		if conns[c.ID] {
			return family.Snapshot{}, errors.New(errors.ErrCodeConflict, "duplicate connection id %s", c.ID)
		}
		conns[c.ID] = true
		for _, end := range []string{c.SourceID, c.TargetID} {
			if !members[end] {
				return family.Snapshot{}, errors.New(errors.ErrCodeMemberNotFound, "connection %s points at unknown member %s", c.ID, end)
			}
		}
	}

	return family.Snapshot{Members: d.Members, Connections: d.Connections}, nil
}

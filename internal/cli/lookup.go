package cli

import (
	"strings"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
)

// findMember resolves a member by exact id, unique id prefix, or exact name.
func findMember(s family.Snapshot, ref string) (family.Member, error) {
	if m, ok := s.Member(ref); ok {
		return m, nil
	}
	var matches []family.Member
	for _, m := range s.Members {
		if strings.HasPrefix(m.ID, ref) || strings.EqualFold(m.Name, ref) || m.NameZh == ref {
			matches = append(matches, m)
		}
	}
	switch len(matches) {
	case 0:
		return family.Member{}, errors.New(errors.ErrCodeMemberNotFound, "no member matches %q", ref)
	case 1:
		return matches[0], nil
	}
	return family.Member{}, errors.New(errors.ErrCodeInvalidID, "%q matches %d members", ref, len(matches))
}

// findConnection resolves a connection by exact id or unique id prefix.
func findConnection(s family.Snapshot, ref string) (family.Connection, error) {
	if c, ok := family.FindConnection(s.Connections, ref); ok {
		return c, nil
	}
	var matches []family.Connection
	for _, c := range s.Connections {
		if strings.HasPrefix(c.ID, ref) {
			matches = append(matches, c)
		}
	}
	switch len(matches) {
	case 0:
		return family.Connection{}, errors.New(errors.ErrCodeConnectionNotFound, "no connection matches %q", ref)
	case 1:
		return matches[0], nil
	}
	return family.Connection{}, errors.New(errors.ErrCodeInvalidID, "%q matches %d connections", ref, len(matches))
}

func errRequired(field string) error {
	return errors.New(errors.ErrCodeInvalidInput, "%s is required", field)
}

package cli

import (
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
)

// memberDraft holds the member form fields while huh edits them.
type memberDraft struct {
	member family.Member
}

func newMemberDraft(m family.Member) *memberDraft {
	if m.Gender == "" {
		m.Gender = family.Male
	}
	return &memberDraft{member: m}
}

// Member returns the edited member with surrounding whitespace trimmed.
func (d *memberDraft) Member() family.Member {
	m := d.member
	m.Name = strings.TrimSpace(m.Name)
	m.NameZh = strings.TrimSpace(m.NameZh)
	m.Role = strings.TrimSpace(m.Role)
	m.Avatar = strings.TrimSpace(m.Avatar)
	return m
}

// form builds the huh form for the draft. Creating and editing share it; the
// title is the only difference.
func (d *memberDraft) form(title string) *huh.Form {
	m := &d.member
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Value(&m.Name).Validate(required("name")),
			huh.NewInput().Title("Name (中文)").Value(&m.NameZh),
			huh.NewInput().Title("Role").Placeholder("e.g. Daughter").Value(&m.Role),
			huh.NewSelect[family.Gender]().Title("Gender").
				Options(huh.NewOption("Male", family.Male), huh.NewOption("Female", family.Female)).
				Value(&m.Gender),
			huh.NewConfirm().Title("This is me").Value(&m.IsSelf),
		).Title(title),
		huh.NewGroup(
			huh.NewInput().Title("Born").Value(&m.BirthDate),
			huh.NewInput().Title("Died").Value(&m.DeathDate),
			huh.NewInput().Title("Location").Value(&m.Location),
			huh.NewInput().Title("Avatar URL").Value(&m.Avatar),
			huh.NewText().Title("Bio").Value(&m.Bio),
		).Title("Details"),
	)
}

// connectionDraft holds the connection form fields while huh edits them.
type connectionDraft struct {
	conn   family.Connection
	style  string
	remove bool
}

func newConnectionDraft(c family.Connection) *connectionDraft {
	style := string(c.LineStyle)
	if style == "" {
		style = string(geometry.LineSolid)
	}
	return &connectionDraft{conn: c, style: style}
}

// Connection returns the edited connection.
func (d *connectionDraft) Connection() family.Connection {
	c := d.conn
	c.Label = strings.TrimSpace(c.Label)
	c.LabelZh = strings.TrimSpace(c.LabelZh)
	c.Color = strings.TrimSpace(c.Color)
	c.LineStyle = geometry.LineStyle(d.style)
	return c
}

// Delete reports whether the user asked to remove the connection.
func (d *connectionDraft) Delete() bool { return d.remove }

func (d *connectionDraft) form() *huh.Form {
	c := &d.conn
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Label").Value(&c.Label),
			huh.NewInput().Title("Label (中文)").Value(&c.LabelZh),
			huh.NewInput().Title("Color").Placeholder(family.DefaultColor).Value(&c.Color),
			huh.NewSelect[string]().Title("Line").
				Options(
					huh.NewOption("Solid", string(geometry.LineSolid)),
					huh.NewOption("Dashed", string(geometry.LineDashed)),
					huh.NewOption("Dotted", string(geometry.LineDotted)),
				).
				Value(&d.style),
			huh.NewConfirm().Title("Delete this connection").Value(&d.remove),
		).Title("Edit connection"),
	)
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return errRequired(field)
		}
		return nil
	}
}

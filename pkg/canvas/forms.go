package canvas

import (
	"context"
	"slices"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
)

// FormKind names the form a presentation layer should show.
type FormKind int

const (
	FormNone FormKind = iota
	FormCreateMember
	FormEditMember
	FormEditConnection
)

func (k FormKind) String() string {
	switch k {
	case FormCreateMember:
		return "create-member"
	case FormEditMember:
		return "edit-member"
	case FormEditConnection:
		return "edit-connection"
	}
	return "none"
}

// MarshalText encodes the kind by name.
func (k FormKind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// Form is the open form and the record it starts from.
type Form struct {
	Kind       FormKind           `json:"kind"`
	Member     *family.Member     `json:"member,omitempty"`
	Connection *family.Connection `json:"connection,omitempty"`
}

// Form returns the form the presentation layer should show.
func (c *Controller) Form() Form { return c.form }

// OpenCreateMember opens the create form without a pending connection, as the
// floating add button does. Any pending connection is discarded.
func (c *Controller) OpenCreateMember() Form {
	c.pending = nil
	c.form = Form{Kind: FormCreateMember, Member: c.draftMember()}
	return c.form
}

// OpenEditMember opens the edit form for an existing member.
func (c *Controller) OpenEditMember(id string) (Form, error) {
	m, ok := c.snap.Member(id)
	if !ok {
		return Form{}, errors.New(errors.ErrCodeMemberNotFound, "member %s", id)
	}
	c.pending = nil
	c.selected = id
	c.form = Form{Kind: FormEditMember, Member: &m}
	return c.form, nil
}

// OpenEditConnection opens the edit form for an existing connection.
func (c *Controller) OpenEditConnection(id string) (Form, error) {
	if _, err := c.openConnection(id); err != nil {
		return Form{}, err
	}
	if c.form.Kind != FormEditConnection || c.form.Connection.ID != id {
		return Form{}, errors.New(errors.ErrCodeConnectionNotFound, "connection %s", id)
	}
	return c.form, nil
}

// CancelForm closes the open form and discards any pending connection.
func (c *Controller) CancelForm() {
	c.form = Form{}
	c.pending = nil
}

// draftMember is the starting record of the create form. The first member of
// an empty tree defaults to being the self member.
func (c *Controller) draftMember() *family.Member {
	m := family.NewMember("", "", family.Male)
	if len(c.snap.Members) == 0 {
		m.Role = "Me"
		m.IsSelf = true
	}
	return &m
}

// SubmitMember saves the member from the open form. A member not yet in the
// tree is created: at the pending connection's position when there is one,
// in which case the connection is created too, or at the viewport centre
// when it has no position. A member that fails validation leaves the form,
// now holding the rejected input, and the pending connection open for
// correction; otherwise both are cleared whatever the store returns.
func (c *Controller) SubmitMember(ctx context.Context, m family.Member) (family.Member, error) {
	draft := m
	if m.ID == "" {
		m.ID = family.NewID()
	}
	if m.Gender == "" {
		m.Gender = family.Male
	}
	if err := family.Validate(m); err != nil {
		if c.form.Kind == FormCreateMember || c.form.Kind == FormEditMember {
			c.form.Member = &draft
		}
		return m, err
	}

	pending := c.pending
	c.form = Form{}
	c.pending = nil

	exists := c.memberIndex(m.ID) >= 0
	if !exists {
		switch {
		case pending != nil:
			m = m.MoveTo(pending.Position)
		case m.X == 0 && m.Y == 0:
			m = m.MoveTo(c.vp.Center(c.container))
		}
	}

	c.applyMember(m, exists)
	if err := c.svc.SaveMember(ctx, m, exists); err != nil {
		return m, err
	}

	if exists || pending == nil {
		return m, nil
	}
	if _, ok := c.snap.Member(pending.SourceID); !ok {
		return m, nil
	}

	conn := family.NewConnection(pending.SourceID, pending.SourceHandle, m.ID, geometry.HandleTop)
	if m.Role != "" {
		conn.Label, conn.LabelZh = m.Role, m.Role
	}
	c.snap.Connections = append(c.snap.Connections, conn)
	if err := c.svc.SaveConnection(ctx, conn, false); err != nil {
		return m, err
	}
	c.logger.Debug("connected new member", "source", pending.SourceID, "member", m.ID, "label", conn.Label)
	return m, nil
}

// applyMember writes m into the local tree, clearing other self flags.
func (c *Controller) applyMember(m family.Member, exists bool) {
	if m.IsSelf {
		for i := range c.snap.Members {
			if c.snap.Members[i].ID != m.ID {
				c.snap.Members[i].IsSelf = false
			}
		}
	}
	if exists {
		c.snap.Members[c.memberIndex(m.ID)] = m
	} else {
		c.snap.Members = append(c.snap.Members, m)
	}
	c.selected = m.ID
}

// SaveConnection saves the connection from the open form, creating it when
// it is not in the tree yet.
func (c *Controller) SaveConnection(ctx context.Context, conn family.Connection) error {
	c.form = Form{}
	if conn.ID == "" {
		conn.ID = family.NewID()
	}
	if err := family.Validate(conn); err != nil {
		return err
	}

	i := c.connectionIndex(conn.ID)
	exists := i >= 0
	if exists {
		c.snap.Connections[i] = conn
	} else {
		c.snap.Connections = append(c.snap.Connections, conn)
	}
	return c.svc.SaveConnection(ctx, conn, exists)
}

// DeleteConnection removes a connection.
func (c *Controller) DeleteConnection(ctx context.Context, id string) error {
	c.form = Form{}
	if i := c.connectionIndex(id); i >= 0 {
		c.snap.Connections = slices.Delete(c.snap.Connections, i, i+1)
	}
	return c.svc.DeleteConnection(ctx, id)
}

// DeleteMember removes a member and every connection touching it.
func (c *Controller) DeleteMember(ctx context.Context, id string) error {
	c.form = Form{}
	c.snap.Members = slices.DeleteFunc(c.snap.Members, func(m family.Member) bool { return m.ID == id })
	c.snap.Connections = slices.DeleteFunc(c.snap.Connections, func(conn family.Connection) bool { return conn.Touches(id) })
	if c.selected == id {
		c.selected = ""
	}
	if d, ok := c.state.(DraggingNode); ok && d.ID == id {
		c.state = Idle{}
	}
	if s, ok := c.state.(Connecting); ok && s.SourceID == id {
		c.state = Idle{}
	}
	return c.svc.DeleteMember(ctx, id)
}

func (c *Controller) connectionIndex(id string) int {
	return slices.IndexFunc(c.snap.Connections, func(conn family.Connection) bool { return conn.ID == id })
}

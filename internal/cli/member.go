package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
	"github.com/matzehuels/kinboard/pkg/kinship"
)

// memberOpts holds the flags shared by "member add" and "member edit".
type memberOpts struct {
	name, nameZh, role, gender string
	born, died, location       string
	avatar, bio                string
	self                       bool
	x, y                       float64
	from                       string // add only: connect from this member
	interactive                bool
}

func (o *memberOpts) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.name, "name", "", "display name")
	fs.StringVar(&o.nameZh, "name-zh", "", "Chinese name")
	fs.StringVar(&o.role, "role", "", "role, e.g. Daughter")
	fs.StringVar(&o.gender, "gender", "", "male or female")
	fs.StringVar(&o.born, "born", "", "birth date")
	fs.StringVar(&o.died, "died", "", "death date")
	fs.StringVar(&o.location, "location", "", "where they live")
	fs.StringVar(&o.avatar, "avatar", "", "avatar image URL")
	fs.StringVar(&o.bio, "bio", "", "short biography")
	fs.BoolVar(&o.self, "self", false, "mark as the self member")
	fs.Float64Var(&o.x, "x", 0, "card position x")
	fs.Float64Var(&o.y, "y", 0, "card position y")
	fs.BoolVarP(&o.interactive, "interactive", "i", false, "edit in a form")
}

// apply copies every flag the user set onto m.
func (o *memberOpts) apply(fs *pflag.FlagSet, m family.Member) family.Member {
	set := func(name string, dst *string, v string) {
		if fs.Changed(name) {
			*dst = v
		}
	}
	set("name", &m.Name, o.name)
	set("name-zh", &m.NameZh, o.nameZh)
	set("role", &m.Role, o.role)
	set("born", &m.BirthDate, o.born)
	set("died", &m.DeathDate, o.died)
	set("location", &m.Location, o.location)
	set("avatar", &m.Avatar, o.avatar)
	set("bio", &m.Bio, o.bio)
	if fs.Changed("gender") {
		m.Gender = family.Gender(o.gender)
	}
	if fs.Changed("self") {
		m.IsSelf = o.self
	}
	if fs.Changed("x") {
		m.X = o.x
	}
	if fs.Changed("y") {
		m.Y = o.y
	}
	return m
}

func (c *CLI) memberCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "member",
		Aliases: []string{"members", "m"},
		Short:   "List and edit family members",
	}
	cmd.AddCommand(c.memberListCommand())
	cmd.AddCommand(c.memberAddCommand())
	cmd.AddCommand(c.memberEditCommand())
	cmd.AddCommand(c.memberDeleteCommand())
	return cmd
}

func (c *CLI) memberListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List members and how they relate to you",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			if len(snap.Members) == 0 {
				printInfo("No members yet")
				printNextStep("Start with the sample tree", appName+" init")
				return nil
			}
			zh := c.cfg.Localized()
			fmt.Fprintln(cmd.OutOrStdout(), memberTable(snap.Members, kinship.Labels(snap.Members, snap.Connections, zh), zh))
			return nil
		},
	}
}

func (c *CLI) memberAddCommand() *cobra.Command {
	var opts memberOpts
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a member",
		Long: `Add a member to the tree.

With --from the new member is placed below that member and connected to it,
the same way dropping a connection on empty canvas does.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runMemberAdd(cmd.Context(), cmd.Flags(), &opts)
		},
	}
	opts.register(cmd.Flags())
	cmd.Flags().StringVar(&opts.from, "from", "", "connect from this member (id, id prefix or name)")
	return cmd
}

func (c *CLI) runMemberAdd(ctx context.Context, fs *pflag.FlagSet, opts *memberOpts) error {
	svc, done, err := c.openService(ctx)
	if err != nil {
		return err
	}
	defer done()

	snap, err := svc.Load(ctx)
	if err != nil {
		return err
	}

	m := family.NewMember("", "", family.Male)
	if len(snap.Members) == 0 {
		m.Role, m.IsSelf = "Me", true
	}
	m = opts.apply(fs, m)

	var from *family.Member
	if opts.from != "" {
		src, err := findMember(snap, opts.from)
		if err != nil {
			return err
		}
		from = &src
		if !fs.Changed("x") && !fs.Changed("y") {
			card := c.cfg.CardSize()
			m = m.MoveTo(src.Position().Add(geometry.Point{Y: card.H * 3}))
		}
	}

	if opts.interactive {
		d := newMemberDraft(m)
		if err := d.form("New member").RunWithContext(ctx); err != nil {
			return err
		}
		m = d.Member()
	}
	if err := family.Validate(m); err != nil {
		return err
	}
	if err := svc.SaveMember(ctx, m, false); err != nil {
		return err
	}
	printSuccess("Added %s", StyleHighlight.Render(m.Name))
	printKeyValue("id", m.ID)

	if from == nil {
		return nil
	}
	conn := family.NewConnection(from.ID, geometry.HandleBottom, m.ID, geometry.HandleTop)
	if m.Role != "" {
		conn.Label, conn.LabelZh = m.Role, m.Role
	}
	if err := svc.SaveConnection(ctx, conn, false); err != nil {
		return err
	}
	printSuccess("Connected %s %s %s", from.Name, iconArrow, m.Name)
	return nil
}

func (c *CLI) memberEditCommand() *cobra.Command {
	var opts memberOpts
	cmd := &cobra.Command{
		Use:   "edit <member>",
		Short: "Edit a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, done, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer done()

			snap, err := svc.Load(ctx)
			if err != nil {
				return err
			}
			m, err := findMember(snap, args[0])
			if err != nil {
				return err
			}
			m = opts.apply(cmd.Flags(), m)
			if opts.interactive {
				d := newMemberDraft(m)
				if err := d.form("Edit "+m.Name).RunWithContext(ctx); err != nil {
					return err
				}
				m = d.Member()
			}
			if err := family.Validate(m); err != nil {
				return err
			}
			if err := svc.SaveMember(ctx, m, true); err != nil {
				return err
			}
			printSuccess("Updated %s", StyleHighlight.Render(m.Name))
			return nil
		},
	}
	opts.register(cmd.Flags())
	return cmd
}

func (c *CLI) memberDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <member>",
		Aliases: []string{"rm"},
		Short:   "Delete a member and its connections",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, done, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer done()

			snap, err := svc.Load(ctx)
			if err != nil {
				return err
			}
			m, err := findMember(snap, args[0])
			if err != nil {
				return err
			}
			if err := svc.DeleteMember(ctx, m.ID); err != nil {
				return err
			}
			printSuccess("Deleted %s", m.Name)
			return nil
		},
	}
}

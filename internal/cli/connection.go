package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/geometry"
)

type connectionOpts struct {
	label, labelZh       string
	color, style         string
	fromHandle, toHandle string
	interactive          bool
}

func (o *connectionOpts) register(fs *pflag.FlagSet) {
	fs.StringVar(&o.label, "label", "", "relationship label, e.g. Son")
	fs.StringVar(&o.labelZh, "label-zh", "", "Chinese label")
	fs.StringVar(&o.color, "color", "", "stroke color, e.g. #80ec13")
	fs.StringVar(&o.style, "style", "", "line style: solid, dashed, dotted")
	fs.StringVar(&o.fromHandle, "from-handle", string(geometry.HandleBottom), "source handle: top, right, bottom, left")
	fs.StringVar(&o.toHandle, "to-handle", string(geometry.HandleTop), "target handle: top, right, bottom, left")
}

func (o *connectionOpts) apply(fs *pflag.FlagSet, c family.Connection) family.Connection {
	if fs.Changed("label") {
		c.Label = o.label
	}
	if fs.Changed("label-zh") {
		c.LabelZh = o.labelZh
	}
	if fs.Changed("color") {
		c.Color = o.color
	}
	if fs.Changed("style") {
		c.LineStyle = geometry.LineStyle(o.style)
	}
	if fs.Changed("from-handle") {
		c.SourceHandle = geometry.Handle(o.fromHandle)
	}
	if fs.Changed("to-handle") {
		c.TargetHandle = geometry.Handle(o.toHandle)
	}
	return c
}

func (c *CLI) connectionCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "connection",
		Aliases: []string{"connections", "conn", "c"},
		Short:   "List and edit connections between members",
	}
	cmd.AddCommand(c.connectionListCommand())
	cmd.AddCommand(c.connectionAddCommand())
	cmd.AddCommand(c.connectionEditCommand())
	cmd.AddCommand(c.connectionDeleteCommand())
	return cmd
}

func (c *CLI) connectionListCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List connections",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			if len(snap.Connections) == 0 {
				printInfo("No connections yet")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), connectionTable(snap, c.cfg.Localized()))
			return nil
		},
	}
}

func (c *CLI) connectionAddCommand() *cobra.Command {
	var opts connectionOpts
	cmd := &cobra.Command{
		Use:   "add <from> <to>",
		Short: "Connect two members",
		Args:  cobra.ExactArgs(2),
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
			from, err := findMember(snap, args[0])
			if err != nil {
				return err
			}
			to, err := findMember(snap, args[1])
			if err != nil {
				return err
			}
			conn := family.NewConnection(from.ID, geometry.Handle(opts.fromHandle), to.ID, geometry.Handle(opts.toHandle))
			conn = opts.apply(cmd.Flags(), conn)
			if err := family.Validate(conn); err != nil {
				return err
			}
			if err := svc.SaveConnection(ctx, conn, false); err != nil {
				return err
			}
			printSuccess("Connected %s %s %s", from.Name, iconArrow, to.Name)
			printKeyValue("id", conn.ID)
			return nil
		},
	}
	opts.register(cmd.Flags())
	return cmd
}

func (c *CLI) connectionEditCommand() *cobra.Command {
	var opts connectionOpts
	cmd := &cobra.Command{
		Use:   "edit <connection>",
		Short: "Edit a connection's label and style",
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
			conn, err := findConnection(snap, args[0])
			if err != nil {
				return err
			}
			conn = opts.apply(cmd.Flags(), conn)
			if opts.interactive {
				d := newConnectionDraft(conn)
				if err := d.form().RunWithContext(ctx); err != nil {
					return err
				}
				if d.Delete() {
					if err := svc.DeleteConnection(ctx, conn.ID); err != nil {
						return err
					}
					printSuccess("Deleted connection %s", shortID(conn.ID))
					return nil
				}
				conn = d.Connection()
			}
			if err := family.Validate(conn); err != nil {
				return err
			}
			if err := svc.SaveConnection(ctx, conn, true); err != nil {
				return err
			}
			printSuccess("Updated connection %s", shortID(conn.ID))
			return nil
		},
	}
	opts.register(cmd.Flags())
	cmd.Flags().BoolVarP(&opts.interactive, "interactive", "i", false, "edit in a form")
	return cmd
}

func (c *CLI) connectionDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "delete <connection>",
		Aliases: []string{"rm"},
		Short:   "Delete a connection",
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
			conn, err := findConnection(snap, args[0])
			if err != nil {
				return err
			}
			if err := svc.DeleteConnection(ctx, conn.ID); err != nil {
				return err
			}
			printSuccess("Deleted connection %s", shortID(conn.ID))
			return nil
		},
	}
}

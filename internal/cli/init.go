package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/kinboard/pkg/errors"
	"github.com/matzehuels/kinboard/pkg/family"
)

func (c *CLI) initCommand() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Seed the store with a starter tree",
		Long: `Seed the configured store with a starter tree of two members: a patriarch
and his son, the son marked as you. Edit or replace them from there.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			svc, done, err := c.openService(ctx)
			if err != nil {
				return err
			}
			defer done()

			current, err := svc.Load(ctx)
			if err != nil {
				return err
			}
			if len(current.Members) > 0 && !force {
				return errors.New(errors.ErrCodeConflict, "store already holds %d members (use --force to replace them)", len(current.Members))
			}
			seed := family.Seed()
			if err := svc.Replace(ctx, seed); err != nil {
				return err
			}
			printSuccess("Seeded %s store with %d members", c.cfg.Store.Backend, len(seed.Members))
			printNextStep("Open the canvas", appName+" tui")
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "replace an existing tree")
	return cmd
}

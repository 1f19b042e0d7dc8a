package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/kinboard/pkg/buildinfo"
	"github.com/matzehuels/kinboard/pkg/config"
)

// RootCommand creates the root cobra command with all subcommands registered.
// The CLI logger is attached to every command's context before it runs.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:          appName,
		Short:        "Kinboard draws your family as an interactive graph",
		Long:         `Kinboard keeps a family tree as members and labeled connections on an infinite canvas, and tells you how everyone is related to you.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.Path()+")")
	flags.StringVar(&c.backend, "store", "", "store backend: memory, file, badger, redis, mongo")
	flags.StringVar(&c.storePath, "store-path", "", "path for the file and badger backends")
	flags.BoolVar(&c.zh, "zh", false, "use Chinese names and labels")

	root.AddCommand(c.initCommand())
	root.AddCommand(c.memberCommand())
	root.AddCommand(c.connectionCommand())
	root.AddCommand(c.relationCommand())
	root.AddCommand(c.familyCommand())
	root.AddCommand(c.renderCommand())
	root.AddCommand(c.exportCommand())
	root.AddCommand(c.importCommand())
	root.AddCommand(c.tuiCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.completionCommand())

	return root
}

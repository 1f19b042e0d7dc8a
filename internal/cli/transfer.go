package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kinboard/pkg/family"
	kio "github.com/matzehuels/kinboard/pkg/io"
)

func (c *CLI) exportCommand() *cobra.Command {
	var output, format string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export the tree as JSON, YAML or SQL",
		Long: `Export the tree.

The format follows the -o extension (.json, .yaml, .sql) unless --format is
given. Without -o the document is written to stdout. JSON and YAML exports
can be read back with "kinboard import"; the SQL export is a script of
CREATE TABLE and INSERT statements for loading into a database.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := exportFormat(format, output)
			if err != nil {
				return err
			}
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			if output == "" {
				return kio.Write(snap, cmd.OutOrStdout(), f)
			}
			if err := exportFile(snap, output, f); err != nil {
				return err
			}
			printSuccess("Exported %d members and %d connections", len(snap.Members), len(snap.Connections))
			printFile(output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&output, "output", "o", "", "output file")
	cmd.Flags().StringVarP(&format, "format", "f", "", "json, yaml or sql")
	return cmd
}

func exportFormat(format, output string) (kio.Format, error) {
	switch {
	case format != "":
		return kio.ParseFormat(format)
	case output != "":
		return kio.FormatFromPath(output)
	}
	return kio.FormatJSON, nil
}

func exportFile(snap family.Snapshot, path string, f kio.Format) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := kio.Write(snap, out, f); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func (c *CLI) importCommand() *cobra.Command {
	var merge bool
	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Replace the tree with a JSON or YAML export",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := kio.Import(args[0])
			if err != nil {
				return err
			}
			return c.runImport(cmd.Context(), snap, merge)
		},
	}
	cmd.Flags().BoolVar(&merge, "merge", false, "add to the current tree instead of replacing it")
	return cmd
}

func (c *CLI) runImport(ctx context.Context, snap family.Snapshot, merge bool) error {
	svc, done, err := c.openService(ctx)
	if err != nil {
		return err
	}
	defer done()

	if !merge {
		if err := svc.Replace(ctx, snap); err != nil {
			return err
		}
		printSuccess("Imported %d members and %d connections", len(snap.Members), len(snap.Connections))
		return nil
	}

	current, err := svc.Load(ctx)
	if err != nil {
		return err
	}
	added := 0
	for _, m := range snap.Members {
		if _, ok := current.Member(m.ID); ok {
			continue
		}
		if err := svc.SaveMember(ctx, m, false); err != nil {
			return err
		}
		added++
	}
	for _, conn := range snap.Connections {
		if _, ok := family.FindConnection(current.Connections, conn.ID); ok {
			continue
		}
		if err := svc.SaveConnection(ctx, conn, false); err != nil {
			return err
		}
	}
	printSuccess("Merged %d new members", added)
	return nil
}

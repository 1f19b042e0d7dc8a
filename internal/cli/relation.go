package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/kinboard/pkg/family"
	"github.com/matzehuels/kinboard/pkg/kinship"
)

func (c *CLI) relationCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "relation <member>",
		Short: "Show how a member is related to you",
		Long: `Show how a member is related to the self member.

The relation is the chain of connection labels on the shortest path from
you, at most three connections long. Members further away, or not connected
at all, have no relation.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			m, err := findMember(snap, args[0])
			if err != nil {
				return err
			}
			self, ok := snap.Self()
			if !ok {
				printInfo("No member is marked as you")
				printNextStep("Mark yourself", appName+" member edit <member> --self")
				return nil
			}

			zh := c.cfg.Localized()
			label, ok := kinship.Resolve(m.ID, snap.Members, snap.Connections, zh)
			switch {
			case m.ID == self.ID:
				fmt.Fprintln(cmd.OutOrStdout(), m.DisplayName(zh)+" is you")
			case !ok:
				fmt.Fprintf(cmd.OutOrStdout(), "%s has no relation to %s within three connections\n",
					m.DisplayName(zh), self.DisplayName(zh))
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", m.DisplayName(zh), StyleHighlight.Render(label))
			}
			return nil
		},
	}
}

func (c *CLI) familyCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "family <member>",
		Short: "List a member's immediate family",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := c.loadSnapshot(cmd.Context())
			if err != nil {
				return err
			}
			m, err := findMember(snap, args[0])
			if err != nil {
				return err
			}
			zh := c.cfg.Localized()
			fmt.Fprint(cmd.OutOrStdout(), formatFamily(m, family.ImmediateFamily(snap, m.ID, zh), zh))
			return nil
		},
	}
}

// formatFamily renders the immediate-family listing.
func formatFamily(m family.Member, relatives []family.Relative, localize bool) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(m.DisplayName(localize)))
	b.WriteString("\n")
	if len(relatives) == 0 {
		b.WriteString(StyleDim.Render("  no connections"))
		b.WriteString("\n")
		return b.String()
	}
	for _, r := range relatives {
		fmt.Fprintf(&b, "  %s %s %s\n", StyleDim.Render(iconArrow), r.Member.DisplayName(localize), StyleDim.Render("("+r.Relation+")"))
	}
	return b.String()
}

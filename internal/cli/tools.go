package cli

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/thinky-dev/thinky/internal/tools"
)

var (
	toolsVerbose bool
	toolsAll     bool
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List the tools used by registered agents",
	Long: `List every tool referenced by a registered agent, each name once. With --all
the whole built-in catalog is listed instead.`,
	Args: cobra.NoArgs,
	RunE: runTools,
}

func init() {
	toolsCmd.Flags().BoolVar(&toolsVerbose, "verbose", false, "Include each tool's input schema")
	toolsCmd.Flags().BoolVar(&toolsAll, "all", false, "List the built-in catalog, not only tools in use")
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	var list []tools.Tool

	if toolsAll {
		catalog := tools.Builtin()
		for _, name := range catalog.Names() {
			t, _ := catalog.Get(name)
			list = append(list, t)
		}
	} else {
		reg, _, err := discoverAgents(cmd.Context())
		if err != nil {
			return err
		}
		seen := make(map[string]bool)
		for _, id := range reg.IDs() {
			a, err := reg.Get(id)
			if err != nil {
				return err
			}
			for _, t := range a.Tools {
				if !seen[t.Name()] {
					seen[t.Name()] = true
					list = append(list, t)
				}
			}
		}
	}

	if len(list) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No tools in use.")
		return nil
	}

	if toolsVerbose {
		for _, t := range list {
			schema, err := json.MarshalIndent(t.InputSchema(), "  ", "  ")
			if err != nil {
				return fmt.Errorf("marshaling schema of %s: %w", t.Name(), err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n  %s\n  %s\n\n", t.Name(), t.Description(), schema)
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tDESCRIPTION")
	for _, t := range list {
		fmt.Fprintf(w, "%s\t%s\n", t.Name(), t.Description())
	}
	return w.Flush()
}

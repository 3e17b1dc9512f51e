package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List registered agents",
	Long:  `Discover the agent directory and list every registered agent in registration order.`,
	Args:  cobra.NoArgs,
	RunE:  runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

// listEntry represents a registered agent for display.
type listEntry struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Provider    string   `json:"provider,omitempty"`
	Model       string   `json:"model,omitempty"`
	Tools       []string `json:"tools"`
}

func runList(cmd *cobra.Command, args []string) error {
	reg, report, err := discoverAgents(cmd.Context())
	if err != nil {
		return err
	}

	entries := []listEntry{}
	for _, id := range reg.IDs() {
		a, err := reg.Get(id)
		if err != nil {
			return err
		}
		entry := listEntry{
			Name:        a.Name,
			Description: a.Description,
			Provider:    a.Provider,
			Model:       a.Model,
			Tools:       []string{},
		}
		for _, t := range a.Tools {
			entry.Tools = append(entry.Tools, t.Name())
		}
		entries = append(entries, entry)
	}

	if listJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	}

	if len(entries) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No agents registered in %s\n", report.Module.SearchRoot)
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROVIDER\tMODEL\tTOOLS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", e.Name, orDash(e.Provider), orDash(e.Model), orDash(strings.Join(e.Tools, ",")))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if n := len(report.Failed); n > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "%d unit(s) failed to load; run with -v for details\n", n)
	}
	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

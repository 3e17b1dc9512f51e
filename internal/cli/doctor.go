package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thinky-dev/thinky/internal/branding"
	"github.com/thinky-dev/thinky/internal/config"
	"github.com/thinky-dev/thinky/internal/llm"
)

func init() {
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Health check for the current " + branding.DisplayName() + " setup",
	Long: `Check the configuration file, the provider settings, the agent directory and
the run store. Exits with an error when any check fails.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		failed := 0

		checkConfigFile(out)
		if !checkProvider(out) {
			failed++
		}
		if !checkAgents(cmd, out) {
			failed++
		}
		if !checkStore(out) {
			failed++
		}

		if failed > 0 {
			return fmt.Errorf("%d check(s) failed", failed)
		}
		return nil
	},
}

func checkConfigFile(out io.Writer) {
	fmt.Fprintln(out, "Configuration:")
	path := config.FilePath()
	if _, err := os.Stat(path); err != nil {
		fmt.Fprintf(out, "  [INFO] no config file at %s, using defaults and environment\n", path)
		return
	}
	fmt.Fprintf(out, "  [ OK ] %s\n", path)
}

func checkProvider(out io.Writer) bool {
	fmt.Fprintln(out, "Provider:")
	s := config.Current()
	p, err := llm.Select(llmSettings(s))
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}
	model := s.Model
	if model == "" {
		model = "provider default"
	}
	fmt.Fprintf(out, "  [ OK ] %s (model: %s)\n", p.Name(), model)
	return true
}

func checkAgents(cmd *cobra.Command, out io.Writer) bool {
	fmt.Fprintln(out, "Agents:")
	reg, report, err := discoverAgents(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}
	fmt.Fprintf(out, "  [ OK ] %d agent(s) from %s\n", reg.Len(), report.Module.SearchRoot)
	for _, f := range report.Failed {
		fmt.Fprintf(out, "  [WARN] %s\n", f)
	}
	return true
}

func checkStore(out io.Writer) bool {
	fmt.Fprintln(out, "Run store:")
	s := config.Current()
	st, err := openStore(s)
	if err != nil {
		fmt.Fprintf(out, "  [FAIL] %v\n", err)
		return false
	}
	defer st.Close()
	fmt.Fprintf(out, "  [ OK ] %s\n", s.DBPath)
	return true
}

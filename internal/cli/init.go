package cli

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/thinky-dev/thinky/internal/branding"
	"github.com/thinky-dev/thinky/internal/llm"
	"github.com/thinky-dev/thinky/internal/scaffold"
)

var (
	initProvider   string
	initBaseURL    string
	initAPIKey     string
	initAPIVersion string
	initModel      string
	initDir        string
)

func init() {
	initCmd.Flags().StringVar(&initProvider, "provider", llm.ProviderOllama, "LLM provider ("+strings.Join(llm.ValidProviders, ", ")+")")
	initCmd.Flags().StringVar(&initBaseURL, "base-url", "", "Provider base URL (ollama) or endpoint (azure)")
	initCmd.Flags().StringVar(&initAPIKey, "api-key", "", "API key written to .env")
	initCmd.Flags().StringVar(&initAPIVersion, "api-version", "", "Azure OpenAI API version")
	initCmd.Flags().StringVar(&initModel, "model", "", "Default model")
	initCmd.Flags().StringVar(&initDir, "dir", "", "Output directory (default ./<name>)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init <name>",
	Short: "Create a new agent project",
	Long: `Create a new agent project with a .env wired to the chosen provider and an
agents/ directory holding a starter definition. The project name is
lowercased and punctuation becomes "_".`,
	Args: cobra.ExactArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	data, err := scaffold.NewProjectData(args[0], initProvider)
	if err != nil {
		return err
	}
	if initBaseURL != "" {
		data.BaseURL = initBaseURL
	}
	data.APIKey = initAPIKey
	data.APIVersion = initAPIVersion
	data.Model = initModel

	dir := initDir
	if dir == "" {
		dir = data.Name
	}

	result, err := scaffold.Generate(data, dir)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created project %s in %s\n", data.Name, result.OutputDir)
	for _, f := range result.Files {
		fmt.Fprintf(out, "  %s\n", filepath.FromSlash(f))
	}
	for _, w := range result.Warnings {
		fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", w)
	}

	fmt.Fprintf(out, "\nNext steps:\n  cd %s\n  %s list\n  %s run assistant \"what time is it?\"\n",
		result.OutputDir, branding.CLIName(), branding.CLIName())
	return nil
}

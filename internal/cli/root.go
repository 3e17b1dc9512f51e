package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thinky-dev/thinky/internal/branding"
	"github.com/thinky-dev/thinky/internal/config"
	"github.com/thinky-dev/thinky/internal/discover"
	"github.com/thinky-dev/thinky/internal/logging"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	verbosity  int
	agentsFlag string
	logFormat  string
)

// logger is replaced in PersistentPreRunE once flags and config are read.
var logger = zap.NewNop()

var rootCmd = &cobra.Command{
	Use:   branding.CLIName(),
	Short: branding.Description(),
	Long: branding.DisplayName() + ` discovers agent definitions in a directory, registers each agent by
name, and runs them from the command line or over HTTP.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}

		format := logFormat
		if format == "" {
			format = config.Current().LogFormat
		}
		l, err := logging.New(verbosity, format)
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v info, -vv debug)")
	rootCmd.PersistentFlags().StringVar(&agentsFlag, "agents", "", "Agent directory (default $"+discover.EnvAgentDir+")")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "Log format: console or json")
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date

	err := rootCmd.ExecuteContext(context.Background())
	if err != nil {
		fmt.Fprintln(rootCmd.ErrOrStderr(), "Error:", err)
	}
	return err
}

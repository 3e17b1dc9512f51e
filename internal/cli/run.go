package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/thinky-dev/thinky/internal/config"
	"github.com/thinky-dev/thinky/internal/runner"
)

var (
	runModel     string
	runSession   string
	runShowSteps bool
)

var runCmd = &cobra.Command{
	Use:   "run <agent> <input>",
	Short: "Run an agent once and print its response",
	Long: `Discover the agent directory, build a fresh instance of the named agent and
send it the input. Remaining arguments are joined with spaces. The run is
recorded in the run store and can be inspected later with "trace".`,
	Args: cobra.MinimumNArgs(2),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runModel, "model", "", "Override the agent's model")
	runCmd.Flags().StringVar(&runSession, "session", "", "Session id stored with the run")
	runCmd.Flags().BoolVar(&runShowSteps, "steps", false, "Print tool calls to stderr")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	name, input := args[0], strings.Join(args[1:], " ")

	reg, _, err := discoverAgents(ctx)
	if err != nil {
		return err
	}
	a, err := reg.Get(name)
	if err != nil {
		return fmt.Errorf("%q: %w", name, err)
	}

	s := config.Current()
	shutdown, err := startTelemetry(ctx, s)
	if err != nil {
		return err
	}
	defer flushTelemetry(ctx, shutdown)

	st, err := openStore(s)
	if err != nil {
		return err
	}
	defer st.Close()

	r := runner.New(llmSettings(s),
		runner.WithLogger(logger),
		runner.WithRecorder(st),
	)
	res, err := r.Run(ctx, a, input, runner.Options{Model: runModel, SessionID: runSession})

	if runShowSteps && res != nil {
		for _, step := range res.Steps {
			line := fmt.Sprintf("[turn %d] %s(%s) -> %s", step.Turn, step.Tool, step.Arguments, step.Output)
			if step.Error != "" {
				line = fmt.Sprintf("[turn %d] %s(%s) failed: %s", step.Turn, step.Tool, step.Arguments, step.Error)
			}
			fmt.Fprintln(cmd.ErrOrStderr(), line)
		}
	}
	if err != nil {
		return fmt.Errorf("running %s: %w", a.Name, err)
	}

	logger.Info("run finished",
		zap.String("run_id", res.RunID),
		zap.String("model", res.Model),
		zap.Int("turns", res.Turns),
		zap.Duration("duration", res.Duration),
	)
	fmt.Fprintln(cmd.OutOrStdout(), res.Output)
	return nil
}

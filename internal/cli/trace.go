package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thinky-dev/thinky/internal/config"
)

var traceCmd = &cobra.Command{
	Use:   "trace <run-id>",
	Short: "Show a recorded run with its tool steps",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore(config.Current())
		if err != nil {
			return err
		}
		defer st.Close()

		run, err := st.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}

		data, err := json.MarshalIndent(run, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling run: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(traceCmd)
}

package cli

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/thinky-dev/thinky/internal/api"
	"github.com/thinky-dev/thinky/internal/branding"
	"github.com/thinky-dev/thinky/internal/config"
	"github.com/thinky-dev/thinky/internal/metrics"
	"github.com/thinky-dev/thinky/internal/runner"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"api"},
	Short:   "Serve registered agents over HTTP",
	Long: `Discover the agent directory, then start the HTTP API. Discovery errors abort
startup. The server shuts down gracefully on SIGINT or SIGTERM.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Listen host (default from config, 127.0.0.1)")
	serveCmd.Flags().IntVar(&servePort, "port", 0, "Listen port (default from config, 8000)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg, _, err := discoverAgents(ctx)
	if err != nil {
		return err
	}

	s := config.Current()
	host, port := s.ServerHost, s.ServerPort
	if serveHost != "" {
		host = serveHost
	}
	if servePort != 0 {
		port = servePort
	}

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

	m := metrics.NewCollector(branding.CLIName(), logger)
	m.SetAgentsRegistered(reg.Len())

	r := runner.New(llmSettings(s),
		runner.WithLogger(logger),
		runner.WithRecorder(st),
		runner.WithMetrics(m),
	)
	srv := api.NewServer(reg, r, st, m, logger)

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	fmt.Fprintf(cmd.OutOrStdout(), "Serving %d agent(s) on http://%s\n", reg.Len(), addr)
	return srv.ListenAndServe(ctx, addr)
}

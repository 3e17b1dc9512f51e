package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/thinky-dev/thinky/internal/config"
	"github.com/thinky-dev/thinky/internal/discover"
	"github.com/thinky-dev/thinky/internal/llm"
	"github.com/thinky-dev/thinky/internal/manifest"
	"github.com/thinky-dev/thinky/internal/registry"
	"github.com/thinky-dev/thinky/internal/store"
	"github.com/thinky-dev/thinky/internal/telemetry"
	"github.com/thinky-dev/thinky/internal/tools"
)

// discoverAgents fills a fresh registry from the agent directory (--agents,
// then config and AGENT_DIR_PATH). Broken units are logged and reported;
// only configuration and path errors are returned.
func discoverAgents(ctx context.Context) (*registry.Registry, *discover.Report, error) {
	dir := agentsFlag
	if dir == "" {
		dir = config.Current().AgentDir
	}

	reg := registry.New()
	loader := manifest.NewLoader(reg, tools.Builtin(),
		manifest.WithVersion(buildVersion),
		manifest.WithLogger(logger),
	)
	d := discover.New(loader, discover.WithLogger(logger))

	report, err := d.DiscoverAndImport(ctx, dir)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("agents discovered",
		zap.String("import_path", report.Module.ImportPath),
		zap.Int("registered", reg.Len()),
		zap.Int("failed", len(report.Failed)),
	)
	return reg, report, nil
}

func llmSettings(s config.Settings) llm.Settings {
	return llm.Settings{
		Provider:   s.Provider,
		BaseURL:    s.BaseURL,
		APIKey:     s.APIKey,
		APIVersion: s.APIVersion,
		Model:      s.Model,
	}
}

func startTelemetry(ctx context.Context, s config.Settings) (func(context.Context) error, error) {
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Endpoint:       s.OTLPEndpoint,
		Insecure:       s.OTLPInsecure,
		ServiceVersion: buildVersion,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("initializing telemetry: %w", err)
	}
	return shutdown, nil
}

// flushTelemetry runs shutdown on a context that survives cancellation so
// spans of an interrupted command are still exported.
func flushTelemetry(ctx context.Context, shutdown func(context.Context) error) {
	if err := shutdown(context.WithoutCancel(ctx)); err != nil {
		logger.Warn("telemetry shutdown", zap.Error(err))
	}
}

func openStore(s config.Settings) (*store.Store, error) {
	st, err := store.Open(s.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening run store %s: %w", s.DBPath, err)
	}
	return st, nil
}

// Package runner executes agents against an LLM provider and records the
// outcome.
package runner

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/thinky-dev/thinky/internal/agent"
	"github.com/thinky-dev/thinky/internal/llm"
	"github.com/thinky-dev/thinky/internal/metrics"
	"github.com/thinky-dev/thinky/internal/store"
	"github.com/thinky-dev/thinky/internal/telemetry"
)

// ErrNoResponse means the agent finished without producing output.
var ErrNoResponse = errors.New("agent did not return a response")

// SelectFunc builds a provider from settings. llm.Select is the default.
type SelectFunc func(llm.Settings) (llm.Provider, error)

// Recorder persists finished runs.
type Recorder interface {
	Save(ctx context.Context, run *store.AgentRun) error
}

// Options carry per-run metadata.
type Options struct {
	Model     string // overrides the agent's model when set
	SessionID string
	UserID    string
}

// Result is the outcome of one run.
type Result struct {
	RunID    string
	AgentID  string
	Provider string
	Model    string
	Input    string
	Output   string
	Steps    []llm.Step
	Turns    int
	Duration time.Duration
}

type Option func(*Runner)

func WithLogger(l *zap.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Runner) { r.recorder = rec }
}

func WithMetrics(c *metrics.Collector) Option {
	return func(r *Runner) { r.metrics = c }
}

func WithSelectFunc(fn SelectFunc) Option {
	return func(r *Runner) { r.selectProvider = fn }
}

// Runner runs agents. It is safe for concurrent use.
type Runner struct {
	settings       llm.Settings
	selectProvider SelectFunc
	recorder       Recorder
	metrics        *metrics.Collector
	logger         *zap.Logger
}

// New returns a runner whose default provider comes from settings. An
// agent that names a provider overrides settings.Provider.
func New(settings llm.Settings, opts ...Option) *Runner {
	r := &Runner{
		settings:       settings,
		selectProvider: llm.Select,
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = r.logger.With(zap.String("component", "runner"))
	return r
}

// Run sends input to the agent and returns its final output. Every run,
// successful or not, is handed to the recorder when one is configured.
func (r *Runner) Run(ctx context.Context, a *agent.Agent, input string, opts Options) (*Result, error) {
	start := time.Now()
	res := &Result{
		RunID:   uuid.NewString(),
		AgentID: a.Name,
		Input:   input,
		Model:   a.Model,
	}
	if opts.Model != "" {
		res.Model = opts.Model
	}

	ctx, span := telemetry.Tracer().Start(ctx, "agent.run",
		oteltrace.WithAttributes(
			attribute.String("agent.name", a.Name),
			attribute.String("run.id", res.RunID),
			attribute.String("session.id", opts.SessionID),
		),
	)
	defer span.End()

	err := r.run(ctx, a, res)
	res.Duration = time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	r.record(ctx, res, opts, err)
	return res, err
}

func (r *Runner) run(ctx context.Context, a *agent.Agent, res *Result) error {
	settings := r.settings
	if a.Provider != "" {
		settings.Provider = a.Provider
	}
	provider, err := r.selectProvider(settings)
	if err != nil {
		return err
	}
	res.Provider = provider.Name()

	r.logger.Debug("running agent",
		zap.String("agent", a.Name),
		zap.String("provider", res.Provider),
		zap.String("run_id", res.RunID),
	)

	resp, err := provider.Generate(ctx, llm.Request{
		Model:        res.Model,
		Instructions: a.Instructions,
		Input:        res.Input,
		Temperature:  a.Temperature,
		MaxTurns:     a.Turns(),
		Tools:        a.Tools,
	}, r.toolCaller(a))
	if resp != nil {
		res.Steps = resp.Steps
		res.Turns = resp.Turns
		if resp.Model != "" {
			res.Model = resp.Model
		}
		if r.metrics != nil {
			r.metrics.RecordTokens(res.Provider, res.Model, resp.InputTokens, resp.OutputTokens)
		}
	}
	if err != nil {
		return fmt.Errorf("running agent %s: %w", a.Name, err)
	}

	if strings.TrimSpace(resp.Text) == "" {
		return fmt.Errorf("%w: %s", ErrNoResponse, a.Name)
	}
	res.Output = resp.Text
	return nil
}

// toolCaller executes the agent's tools, each in its own span.
func (r *Runner) toolCaller(a *agent.Agent) llm.ToolCaller {
	return llm.ToolCallerFunc(func(ctx context.Context, name, arguments string) (string, error) {
		ctx, span := telemetry.Tracer().Start(ctx, "tool."+name,
			oteltrace.WithAttributes(attribute.String("tool.name", name)),
		)
		defer span.End()

		tool, ok := a.Tool(name)
		if !ok {
			err := fmt.Errorf("unknown tool %q", name)
			span.SetStatus(codes.Error, err.Error())
			r.logger.Warn("unknown tool call", zap.String("agent", a.Name), zap.String("tool", name))
			if r.metrics != nil {
				r.metrics.RecordToolCall(name, true)
			}
			return "", err
		}

		out, err := tool.Execute(ctx, arguments)
		if r.metrics != nil {
			r.metrics.RecordToolCall(name, err != nil)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			r.logger.Warn("tool execution failed", zap.String("tool", name), zap.Error(err))
			return "", err
		}
		return out, nil
	})
}

func (r *Runner) record(ctx context.Context, res *Result, opts Options, runErr error) {
	status := store.StatusSuccess
	if runErr != nil {
		status = store.StatusError
	}
	if r.metrics != nil {
		r.metrics.RecordAgentRun(res.AgentID, status, res.Duration)
	}
	if r.recorder == nil {
		return
	}

	steps := res.Steps
	if steps == nil {
		steps = []llm.Step{}
	}
	stepsJSON, err := json.Marshal(steps)
	if err != nil {
		r.logger.Warn("encoding run steps", zap.Error(err))
		stepsJSON = []byte("[]")
	}

	run := &store.AgentRun{
		ID:         res.RunID,
		AgentID:    res.AgentID,
		SessionID:  opts.SessionID,
		UserID:     opts.UserID,
		Model:      res.Model,
		Message:    res.Input,
		Response:   res.Output,
		Steps:      stepsJSON,
		Status:     status,
		DurationMS: res.Duration.Milliseconds(),
	}
	if runErr != nil {
		run.Error = runErr.Error()
	}

	// The run is recorded even when the caller's context was cancelled.
	if err := r.recorder.Save(context.WithoutCancel(ctx), run); err != nil {
		r.logger.Warn("failed to save run", zap.String("run_id", res.RunID), zap.Error(err))
	}
}

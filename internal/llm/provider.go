package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/thinky-dev/thinky/internal/agent"
	"github.com/thinky-dev/thinky/internal/tools"
)

// Provider names accepted by Select.
const (
	ProviderOpenAI    = "openai"
	ProviderAzure     = "azure"
	ProviderOllama    = "ollama"
	ProviderAnthropic = "anthropic"
)

// ValidProviders lists the provider names in the order they are reported.
var ValidProviders = []string{ProviderOpenAI, ProviderAzure, ProviderOllama, ProviderAnthropic}

var (
	ErrUnknownProvider = errors.New("unknown provider")
	ErrMissingSetting  = errors.New("missing provider setting")
	ErrMaxTurns        = errors.New("turn limit reached before a final answer")
)

// Settings selects and configures a provider. They are usually read from
// PROVIDER, BASE_URL, API_KEY and MODEL.
type Settings struct {
	Provider   string
	BaseURL    string
	APIKey     string
	APIVersion string // azure only
	Model      string // default model when an agent does not name one
	HTTPClient *http.Client
}

// Request is one agent invocation.
type Request struct {
	Model        string
	Instructions string
	Input        string
	Temperature  *float64
	MaxTurns     int
	Tools        []tools.Tool
}

// ToolCaller executes a tool the model asked for.
type ToolCaller interface {
	CallTool(ctx context.Context, name, arguments string) (string, error)
}

// ToolCallerFunc adapts a function to ToolCaller.
type ToolCallerFunc func(ctx context.Context, name, arguments string) (string, error)

func (f ToolCallerFunc) CallTool(ctx context.Context, name, arguments string) (string, error) {
	return f(ctx, name, arguments)
}

// Step records one tool call made during generation.
type Step struct {
	Turn      int    `json:"turn"`
	Tool      string `json:"tool"`
	Arguments string `json:"arguments"`
	Output    string `json:"output,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Response is the final answer of a model/tool loop.
type Response struct {
	Text         string
	Model        string
	Turns        int
	Steps        []Step
	InputTokens  int64
	OutputTokens int64
}

// Provider runs the model/tool loop for a request. Generate calls the model,
// executes requested tools through the caller and feeds results back until
// the model answers without tool calls or MaxTurns is reached.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request, caller ToolCaller) (*Response, error)
}

// Select builds the provider named in s.Provider.
func Select(s Settings) (Provider, error) {
	name := strings.ToLower(strings.TrimSpace(s.Provider))
	if name == "" {
		return nil, fmt.Errorf("%w: set PROVIDER to one of %s", ErrMissingSetting, strings.Join(ValidProviders, ", "))
	}

	client := s.HTTPClient
	if client == nil {
		client = &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)}
	}

	switch name {
	case ProviderOpenAI:
		return NewOpenAI(s.BaseURL, s.APIKey, s.Model, client), nil
	case ProviderAzure:
		if s.BaseURL == "" || s.APIKey == "" {
			return nil, fmt.Errorf("%w: azure needs BASE_URL (or AZURE_OPENAI_ENDPOINT) and API_KEY", ErrMissingSetting)
		}
		return NewAzure(s.BaseURL, s.APIKey, s.APIVersion, s.Model, client), nil
	case ProviderOllama:
		if s.BaseURL == "" {
			return nil, fmt.Errorf("%w: missing BASE_URL environment variable required for 'ollama' provider", ErrMissingSetting)
		}
		return NewOllama(s.BaseURL, s.Model, client), nil
	case ProviderAnthropic:
		return NewAnthropic(s.BaseURL, s.APIKey, s.Model, client), nil
	default:
		return nil, fmt.Errorf("%w: %q is not a valid provider, choose one of: %s", ErrUnknownProvider, s.Provider, strings.Join(ValidProviders, ", "))
	}
}

func turns(req Request) int {
	if req.MaxTurns <= 0 {
		return agent.DefaultMaxTurns
	}
	return req.MaxTurns
}

// callTool runs one tool call and records it as a step. Tool failures are
// returned to the model as text rather than aborting the loop.
func callTool(ctx context.Context, caller ToolCaller, turn int, name, args string) (string, Step) {
	step := Step{Turn: turn, Tool: name, Arguments: args}
	if caller == nil {
		step.Error = "no tool caller configured"
		return "error: " + step.Error, step
	}
	out, err := caller.CallTool(ctx, name, args)
	if err != nil {
		step.Error = err.Error()
		return "error: " + err.Error(), step
	}
	step.Output = out
	return out, step
}

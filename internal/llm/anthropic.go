package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/thinky-dev/thinky/internal/tools"
)

const defaultAnthropicMaxTokens = 4096

// AnthropicProvider wraps the Anthropic Messages API.
type AnthropicProvider struct {
	client    *anthropic.Client
	model     string
	maxTokens int64
}

func NewAnthropic(baseURL, apiKey, model string, httpClient *http.Client) *AnthropicProvider {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if model == "" {
		model = string(anthropic.ModelClaude3_5Sonnet20241022)
	}

	client := anthropic.NewClient(opts...)
	return &AnthropicProvider{client: &client, model: model, maxTokens: defaultAnthropicMaxTokens}
}

func (a *AnthropicProvider) Name() string { return ProviderAnthropic }

func (a *AnthropicProvider) Generate(ctx context.Context, req Request, caller ToolCaller) (*Response, error) {
	model := req.Model
	if model == "" {
		model = a.model
	}

	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(model),
		MaxTokens: a.maxTokens,
	}
	if req.Instructions != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.Instructions}}
	}
	if req.Temperature != nil {
		params.Temperature = anthropic.Float(*req.Temperature)
	}
	if len(req.Tools) > 0 {
		params.Tools = anthropicTools(req.Tools)
	}

	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(req.Input)),
	}

	out := &Response{Model: model}
	for turn := 1; turn <= turns(req); turn++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params.Messages = messages
		resp, err := a.client.Messages.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("anthropic api error: %w", err)
		}

		out.Turns = turn
		out.InputTokens += resp.Usage.InputTokens
		out.OutputTokens += resp.Usage.OutputTokens
		if resp.Model != "" {
			out.Model = string(resp.Model)
		}

		var (
			text      []string
			assistant []anthropic.ContentBlockParamUnion
			uses      []anthropic.ToolUseBlock
		)
		for _, block := range resp.Content {
			switch block.Type {
			case "text":
				tb := block.AsText()
				if tb.Text != "" {
					text = append(text, tb.Text)
					assistant = append(assistant, anthropic.NewTextBlock(tb.Text))
				}
			case "tool_use":
				tu := block.AsToolUse()
				uses = append(uses, tu)
				assistant = append(assistant, anthropic.NewToolUseBlock(tu.ID, json.RawMessage(tu.Input), tu.Name))
			}
		}

		if len(uses) == 0 {
			out.Text = strings.Join(text, "\n")
			return out, nil
		}

		messages = append(messages, anthropic.NewAssistantMessage(assistant...))

		results := make([]anthropic.ContentBlockParamUnion, 0, len(uses))
		for _, tu := range uses {
			result, step := callTool(ctx, caller, turn, tu.Name, string(tu.Input))
			out.Steps = append(out.Steps, step)
			results = append(results, anthropic.NewToolResultBlock(tu.ID, result, step.Error != ""))
		}
		messages = append(messages, anthropic.NewUserMessage(results...))
	}

	return out, fmt.Errorf("anthropic: %w (%d)", ErrMaxTurns, turns(req))
}

// anthropicTools converts tool schemas to Anthropic tool params.
func anthropicTools(ts []tools.Tool) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, len(ts))
	for i, t := range ts {
		schema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		params := t.InputSchema()
		if props, ok := params["properties"]; ok {
			schema.Properties = props
		}
		switch req := params["required"].(type) {
		case []string:
			schema.Required = req
		case []any:
			for _, r := range req {
				if s, ok := r.(string); ok {
					schema.Required = append(schema.Required, s)
				}
			}
		}

		tool := anthropic.ToolUnionParamOfTool(schema, t.Name())
		if tool.OfTool != nil && t.Description() != "" {
			tool.OfTool.Description = anthropic.String(t.Description())
		}
		out[i] = tool
	}
	return out
}

package llm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/azure"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/responses"
	"github.com/openai/openai-go/v3/shared"
)

const (
	defaultOpenAIModel = "gpt-4o-mini"
	defaultAzureAPIVer = "2025-03-01-preview"
	ollamaPlaceholder  = "placeholder-ollama-key"
)

// OpenAIProvider talks to any endpoint that speaks the OpenAI Responses API:
// OpenAI itself, Azure OpenAI and Ollama.
type OpenAIProvider struct {
	name   string
	client *openai.Client
	model  string
}

func NewOpenAI(baseURL, apiKey, model string, httpClient *http.Client) *OpenAIProvider {
	var opts []option.RequestOption
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	return newOpenAICompatible(ProviderOpenAI, model, httpClient, opts...)
}

func NewAzure(endpoint, apiKey, apiVersion, model string, httpClient *http.Client) *OpenAIProvider {
	if apiVersion == "" {
		apiVersion = defaultAzureAPIVer
	}
	return newOpenAICompatible(ProviderAzure, model, httpClient,
		azure.WithEndpoint(endpoint, apiVersion),
		azure.WithAPIKey(apiKey),
	)
}

// NewOllama expects the OpenAI-compatible base URL, e.g. http://localhost:11434/v1.
func NewOllama(baseURL, model string, httpClient *http.Client) *OpenAIProvider {
	return newOpenAICompatible(ProviderOllama, model, httpClient,
		option.WithBaseURL(baseURL),
		option.WithAPIKey(ollamaPlaceholder),
	)
}

func newOpenAICompatible(name, model string, httpClient *http.Client, opts ...option.RequestOption) *OpenAIProvider {
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	if model == "" {
		model = defaultOpenAIModel
	}
	client := openai.NewClient(opts...)
	return &OpenAIProvider{name: name, client: &client, model: model}
}

func (o *OpenAIProvider) Name() string { return o.name }

func (o *OpenAIProvider) Generate(ctx context.Context, req Request, caller ToolCaller) (*Response, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(model),
		Tools: functionTools(req),
	}
	if req.Instructions != "" {
		params.Instructions = openai.String(req.Instructions)
	}
	if req.Temperature != nil {
		params.Temperature = openai.Float(*req.Temperature)
	}

	input := []responses.ResponseInputItemUnionParam{
		responses.ResponseInputItemParamOfMessage(req.Input, "user"),
	}

	out := &Response{Model: model}
	for turn := 1; turn <= turns(req); turn++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params.Input = responses.ResponseNewParamsInputUnion{OfInputItemList: input}
		resp, err := o.client.Responses.New(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", o.name, err)
		}

		out.Turns = turn
		out.InputTokens += resp.Usage.InputTokens
		out.OutputTokens += resp.Usage.OutputTokens
		if resp.Model != "" {
			out.Model = string(resp.Model)
		}

		input = append(input, outputToInput(resp.Output)...)

		var calls []responses.ResponseFunctionToolCall
		for _, item := range resp.Output {
			if item.Type == "function_call" {
				calls = append(calls, item.AsFunctionCall())
			}
		}
		if len(calls) == 0 {
			out.Text = resp.OutputText()
			return out, nil
		}

		for _, fc := range calls {
			result, step := callTool(ctx, caller, turn, fc.Name, fc.Arguments)
			out.Steps = append(out.Steps, step)
			input = append(input, responses.ResponseInputItemParamOfFunctionCallOutput(fc.CallID, result))
		}
	}

	return out, fmt.Errorf("%s: %w (%d)", o.name, ErrMaxTurns, turns(req))
}

func functionTools(req Request) []responses.ToolUnionParam {
	var out []responses.ToolUnionParam
	for _, t := range req.Tools {
		out = append(out, responses.ToolUnionParam{
			OfFunction: &responses.FunctionToolParam{
				Name:        t.Name(),
				Description: openai.String(t.Description()),
				Parameters:  t.InputSchema(),
				Strict:      openai.Bool(false),
			},
		})
	}
	return out
}

// outputToInput feeds model output back as input for the next turn.
func outputToInput(output []responses.ResponseOutputItemUnion) []responses.ResponseInputItemUnionParam {
	var items []responses.ResponseInputItemUnionParam
	for _, item := range output {
		switch item.Type {
		case "message":
			v := item.AsMessage().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfOutputMessage: &v})
		case "function_call":
			v := item.AsFunctionCall().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfFunctionCall: &v})
		case "reasoning":
			v := item.AsReasoning().ToParam()
			items = append(items, responses.ResponseInputItemUnionParam{OfReasoning: &v})
		}
	}
	return items
}

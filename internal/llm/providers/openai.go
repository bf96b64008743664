// Package providers implements llm.Provider against concrete upstream
// backends: an OpenAI-compatible chat-completions endpoint, Anthropic's
// Messages API, and Amazon Bedrock's runtime API.
package providers

import (
	"context"
	"encoding/json"
	"errors"
	"io"

	"github.com/agentmesh/core/internal/llm"
	"github.com/agentmesh/core/pkg/models"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements llm.Provider against any OpenAI-compatible
// chat-completions endpoint (OpenAI itself, Azure OpenAI, vLLM, Ollama's
// OpenAI shim, ...) via sashabaranov/go-openai.
type OpenAIProvider struct {
	client  *openai.Client
	model   string
	baseURL string
}

// NewOpenAIProvider constructs a provider against the public OpenAI API.
// It fails with a KindConfig error if apiKey is empty, per the LLM client's
// construction-time validation contract.
func NewOpenAIProvider(apiKey, model string) (*OpenAIProvider, error) {
	if apiKey == "" {
		return nil, llm.ConfigErrorf("openai", "missing API key")
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAIProvider{client: openai.NewClient(apiKey), model: model}, nil
}

// NewCompatibleProvider builds a provider against a self-hosted
// OpenAI-compatible endpoint (base URL override), used for local inference
// servers that speak the same wire dialect.
func NewCompatibleProvider(apiKey, baseURL, model string) (*OpenAIProvider, error) {
	if baseURL == "" {
		return nil, llm.ConfigErrorf("openai-compatible", "missing base URL")
	}
	cfg := openai.DefaultConfig(apiKey)
	cfg.BaseURL = baseURL
	return &OpenAIProvider{client: openai.NewClientWithConfig(cfg), model: model, baseURL: baseURL}, nil
}

func (p *OpenAIProvider) Name() string         { return "openai" }
func (p *OpenAIProvider) SupportsTools() bool  { return true }
func (p *OpenAIProvider) DefaultModel() string { return p.model }

// Stream issues a streaming chat completion and translates OpenAI's SSE
// frames into models.ChatDelta, buffering tool-call argument fragments
// across chunks and surfacing the assembled calls only on the terminal
// delta: the chunk that carries a FinishReason, or stream EOF.
func (p *OpenAIProvider) Stream(ctx context.Context, req llm.Request) (<-chan models.ChatDelta, error) {
	oaiReq := openai.ChatCompletionRequest{
		Model:       firstNonEmpty(req.Model, p.model),
		Messages:    toOpenAIMessages(req),
		Stream:      true,
		Temperature: float32(req.Temperature),
		TopP:        float32(req.TopP),
		Stop:        req.StopSequences,
	}
	if req.MaxTokens > 0 {
		oaiReq.MaxTokens = req.MaxTokens
	}
	if len(req.Tools) > 0 {
		oaiReq.Tools = toOpenAITools(req.Tools)
		oaiReq.ToolChoice = toOpenAIToolChoice(req.ToolChoice)
	}

	stream, err := p.client.CreateChatCompletionStream(ctx, oaiReq)
	if err != nil {
		return nil, translateOpenAIErr(err)
	}

	out := make(chan models.ChatDelta)
	go p.pump(stream, out)
	return out, nil
}

func (p *OpenAIProvider) pump(stream *openai.ChatCompletionStream, out chan<- models.ChatDelta) {
	defer close(out)
	defer stream.Close()

	pending := map[int]*models.ToolCall{}
	flush := func(finish models.FinishReason, usage models.Usage) {
		calls := make([]models.ToolCall, 0, len(pending))
		for _, tc := range pending {
			if tc.ID != "" && tc.Name != "" {
				calls = append(calls, *tc)
			}
		}
		out <- models.ChatDelta{Done: true, Finish: finish, ToolCalls: calls, Usage: usage}
	}

	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			flush(models.FinishStop, models.Usage{})
			return
		}
		if err != nil {
			out <- models.ChatDelta{Err: translateOpenAIErr(err)}
			return
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		if choice.Delta.Content != "" {
			out <- models.ChatDelta{Content: choice.Delta.Content}
		}
		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			cur, ok := pending[idx]
			if !ok {
				cur = &models.ToolCall{}
				pending[idx] = cur
			}
			if tc.ID != "" {
				cur.ID = tc.ID
			}
			if tc.Function.Name != "" {
				cur.Name = tc.Function.Name
			}
			if tc.Function.Arguments != "" {
				cur.Arguments = mergeArgFragment(cur.Arguments, tc.Function.Arguments)
			}
		}
		if choice.FinishReason != "" {
			usage := models.Usage{}
			if resp.Usage != nil {
				usage = models.Usage{
					PromptTokens:     resp.Usage.PromptTokens,
					CompletionTokens: resp.Usage.CompletionTokens,
					TotalTokens:      resp.Usage.TotalTokens,
				}
			}
			flush(mapFinishReason(string(choice.FinishReason)), usage)
			return
		}
	}
}

// mergeArgFragment accumulates streamed JSON argument fragments. Until the
// accumulated text forms a complete JSON object it is held under the
// "__raw__" key; each new fragment re-attempts the parse, and once it
// succeeds the parsed object replaces the raw text.
func mergeArgFragment(args map[string]any, fragment string) map[string]any {
	raw, _ := args["__raw__"].(string)
	raw += fragment
	var parsed map[string]any
	if json.Unmarshal([]byte(raw), &parsed) == nil {
		parsed["__raw__"] = nil
		delete(parsed, "__raw__")
		return parsed
	}
	return map[string]any{"__raw__": raw}
}

func mapFinishReason(r string) models.FinishReason {
	switch r {
	case "tool_calls":
		return models.FinishToolCalls
	case "length":
		return models.FinishLength
	case "content_filter":
		return models.FinishContent
	case "":
		return models.FinishStop
	default:
		return models.FinishStop
	}
}

func toOpenAIMessages(req llm.Request) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(req.Messages)+1)
	if req.System != "" {
		out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	for _, m := range req.Messages {
		msg := openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content}
		if m.Role == models.RoleTool {
			msg.ToolCallID = m.ToolCallID
			msg.Role = openai.ChatMessageRoleTool
		}
		for _, tc := range m.ToolCalls {
			args, _ := json.Marshal(tc.Arguments)
			msg.ToolCalls = append(msg.ToolCalls, openai.ToolCall{
				ID:   tc.ID,
				Type: openai.ToolTypeFunction,
				Function: openai.FunctionCall{
					Name:      tc.Name,
					Arguments: string(args),
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func toOpenAITools(schemas []models.ToolSchema) []openai.Tool {
	out := make([]openai.Tool, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        s.Name,
				Description: s.Description,
				Parameters:  functionSchemaParams(s),
			},
		})
	}
	return out
}

func toOpenAIToolChoice(choice models.ToolChoice) any {
	switch choice.Mode {
	case "none":
		return "none"
	case "named":
		return openai.ToolChoice{Type: openai.ToolTypeFunction, Function: openai.ToolFunction{Name: choice.Name}}
	default:
		return "auto"
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

func translateOpenAIErr(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return llm.UpstreamErrorf("openai", apiErr.HTTPStatusCode, apiErr.Message)
	}
	return llm.TransportErrorf("openai", err.Error())
}

package providers

import (
	"context"
	"encoding/json"

	"github.com/agentmesh/core/internal/llm"
	"github.com/agentmesh/core/pkg/models"
	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicProvider implements llm.Provider against Anthropic's Messages
// API. It is a second Provider behind the same Client facade as
// OpenAIProvider, demonstrating that the unified chat/stream/tools
// interface generalizes across wire dialects, not just OpenAI's.
type AnthropicProvider struct {
	client anthropic.Client
	model  string
}

// NewAnthropicProvider constructs a provider against the public Anthropic
// API.
func NewAnthropicProvider(apiKey, model string) (*AnthropicProvider, error) {
	if apiKey == "" {
		return nil, llm.ConfigErrorf("anthropic", "missing API key")
	}
	if model == "" {
		model = string(anthropic.ModelClaude3_5SonnetLatest)
	}
	return &AnthropicProvider{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}, nil
}

func (p *AnthropicProvider) Name() string         { return "anthropic" }
func (p *AnthropicProvider) SupportsTools() bool  { return true }
func (p *AnthropicProvider) DefaultModel() string { return p.model }

// Stream issues a streaming Messages call and translates Anthropic's
// content-block delta events into models.ChatDelta. Anthropic reports tool
// use as discrete content blocks rather than index-keyed fragments, so
// assembly here is simpler than the OpenAI provider's: one accumulator per
// content_block_start, flushed on content_block_stop.
func (p *AnthropicProvider) Stream(ctx context.Context, req llm.Request) (<-chan models.ChatDelta, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(firstNonEmpty(req.Model, p.model)),
		MaxTokens: int64(maxOr(req.MaxTokens, 4096)),
		Messages:  toAnthropicMessages(req.Messages),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if len(req.Tools) > 0 {
		params.Tools = toAnthropicTools(req.Tools)
	}

	stream := p.client.Messages.NewStreaming(ctx, params)

	out := make(chan models.ChatDelta)
	go p.pump(stream, out)
	return out, nil
}

func (p *AnthropicProvider) pump(stream *anthropic.MessageStreamer, out chan<- models.ChatDelta) {
	defer close(out)

	var toolCalls []models.ToolCall
	var currentToolArgs []byte
	var currentToolIdx = -1
	usage := models.Usage{}
	finish := models.FinishStop

	for stream.Next() {
		event := stream.Current()
		switch evt := event.AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if evt.ContentBlock.Type == "tool_use" {
				toolCalls = append(toolCalls, models.ToolCall{
					ID:   evt.ContentBlock.ID,
					Name: evt.ContentBlock.Name,
				})
				currentToolIdx = len(toolCalls) - 1
				currentToolArgs = nil
			}
		case anthropic.ContentBlockDeltaEvent:
			switch d := evt.Delta.AsAny().(type) {
			case anthropic.TextDelta:
				out <- models.ChatDelta{Content: d.Text}
			case anthropic.InputJSONDelta:
				currentToolArgs = append(currentToolArgs, d.PartialJSON...)
			}
		case anthropic.ContentBlockStopEvent:
			if currentToolIdx >= 0 && currentToolIdx < len(toolCalls) {
				var args map[string]any
				if json.Unmarshal(currentToolArgs, &args) == nil {
					toolCalls[currentToolIdx].Arguments = args
				}
				currentToolIdx = -1
			}
		case anthropic.MessageDeltaEvent:
			usage.CompletionTokens = int(evt.Usage.OutputTokens)
			if stop := evt.Delta.StopReason; stop != "" {
				finish = mapAnthropicStopReason(string(stop))
			}
		}
	}
	if err := stream.Err(); err != nil {
		out <- models.ChatDelta{Err: llm.TransportErrorf("anthropic", err.Error())}
		return
	}
	if len(toolCalls) > 0 && finish == models.FinishStop {
		finish = models.FinishToolCalls
	}
	out <- models.ChatDelta{Done: true, Finish: finish, ToolCalls: toolCalls, Usage: usage}
}

func mapAnthropicStopReason(reason string) models.FinishReason {
	switch reason {
	case "tool_use":
		return models.FinishToolCalls
	case "max_tokens":
		return models.FinishLength
	default:
		return models.FinishStop
	}
}

func toAnthropicMessages(msgs []models.ChatMessage) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case models.RoleUser:
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		case models.RoleAssistant:
			out = append(out, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		case models.RoleTool:
			content, _ := json.Marshal(m.Content)
			out = append(out, anthropic.NewUserMessage(anthropic.NewToolResultBlock(m.ToolCallID, string(content), false)))
		}
	}
	return out
}

func toAnthropicTools(schemas []models.ToolSchema) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(schemas))
	for _, s := range schemas {
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        s.Name,
				Description: anthropic.String(s.Description),
				InputSchema: anthropic.ToolInputSchemaParam{Properties: functionSchemaParams(s)["properties"]},
			},
		})
	}
	return out
}

func maxOr(v, fallback int) int {
	if v > 0 {
		return v
	}
	return fallback
}

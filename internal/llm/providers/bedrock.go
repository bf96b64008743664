package providers

import (
	"context"
	"encoding/json"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"

	"github.com/agentmesh/core/internal/llm"
	"github.com/agentmesh/core/pkg/models"
)

// BedrockProvider implements llm.Provider against AWS Bedrock's
// model-agnostic Converse API, giving the Client access to any foundation
// model Bedrock hosts (Anthropic Claude, Amazon Nova, Meta Llama, ...)
// through the same streaming contract as the OpenAI and Anthropic
// providers.
type BedrockProvider struct {
	client *bedrockruntime.Client
	model  string
}

// BedrockConfig configures AWS credentials and the default model ID.
type BedrockConfig struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	DefaultModel    string
}

// NewBedrockProvider loads AWS config (explicit credentials if supplied,
// otherwise the default provider chain) and constructs a Bedrock runtime
// client.
func NewBedrockProvider(ctx context.Context, cfg BedrockConfig) (*BedrockProvider, error) {
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, llm.ConfigErrorf("bedrock", err.Error())
	}
	model := cfg.DefaultModel
	if model == "" {
		model = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	return &BedrockProvider{client: bedrockruntime.NewFromConfig(awsCfg), model: model}, nil
}

func (p *BedrockProvider) Name() string         { return "bedrock" }
func (p *BedrockProvider) SupportsTools() bool  { return true }
func (p *BedrockProvider) DefaultModel() string { return p.model }

// Stream issues a ConverseStream call and translates Bedrock's event stream
// into models.ChatDelta. A tool_use content block's input arrives as
// successive string fragments under ContentBlockDeltaMemberToolUse and is
// only valid JSON once ContentBlockStop closes the block, mirroring the
// accumulate-then-parse pattern used by the OpenAI and Anthropic providers.
func (p *BedrockProvider) Stream(ctx context.Context, req llm.Request) (<-chan models.ChatDelta, error) {
	messages, err := toBedrockMessages(req.Messages)
	if err != nil {
		return nil, llm.TransportErrorf("bedrock", err.Error())
	}

	in := &bedrockruntime.ConverseStreamInput{
		ModelId:  strPtr(firstNonEmpty(req.Model, p.model)),
		Messages: messages,
	}
	if req.System != "" {
		in.System = []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: req.System}}
	}
	if req.MaxTokens > 0 {
		mt := int32(req.MaxTokens) //nolint:gosec // caller-provided, bounded by model limits upstream
		in.InferenceConfig = &types.InferenceConfiguration{MaxTokens: &mt}
	}
	if len(req.Tools) > 0 {
		in.ToolConfig = toBedrockToolConfig(req.Tools)
	}

	out, err := p.client.ConverseStream(ctx, in)
	if err != nil {
		return nil, llm.UpstreamErrorf("bedrock", 0, err.Error())
	}

	deltas := make(chan models.ChatDelta)
	go p.pump(out, deltas)
	return deltas, nil
}

func (p *BedrockProvider) pump(stream *bedrockruntime.ConverseStreamOutput, out chan<- models.ChatDelta) {
	defer close(out)
	eventStream := stream.GetStream()
	defer eventStream.Close()

	var current *models.ToolCall
	var toolArgs strings.Builder
	var toolCalls []models.ToolCall
	finish := models.FinishStop

	for event := range eventStream.Events() {
		switch ev := event.(type) {
		case *types.ConverseStreamOutputMemberContentBlockStart:
			if tu, ok := ev.Value.Start.(*types.ContentBlockStartMemberToolUse); ok {
				current = &models.ToolCall{ID: strVal(tu.Value.ToolUseId), Name: strVal(tu.Value.Name)}
				toolArgs.Reset()
			}
		case *types.ConverseStreamOutputMemberContentBlockDelta:
			switch delta := ev.Value.Delta.(type) {
			case *types.ContentBlockDeltaMemberText:
				if delta.Value != "" {
					out <- models.ChatDelta{Content: delta.Value}
				}
			case *types.ContentBlockDeltaMemberToolUse:
				if delta.Value.Input != nil {
					toolArgs.WriteString(*delta.Value.Input)
				}
			}
		case *types.ConverseStreamOutputMemberContentBlockStop:
			if current != nil {
				var args map[string]any
				if json.Unmarshal([]byte(toolArgs.String()), &args) == nil {
					current.Arguments = args
				}
				toolCalls = append(toolCalls, *current)
				current = nil
				finish = models.FinishToolCalls
			}
		case *types.ConverseStreamOutputMemberMessageStop:
			out <- models.ChatDelta{Done: true, Finish: finish, ToolCalls: toolCalls}
			return
		}
	}
	if err := eventStream.Err(); err != nil {
		out <- models.ChatDelta{Err: llm.TransportErrorf("bedrock", err.Error())}
		return
	}
	out <- models.ChatDelta{Done: true, Finish: finish, ToolCalls: toolCalls}
}

func toBedrockMessages(msgs []models.ChatMessage) ([]types.Message, error) {
	out := make([]types.Message, 0, len(msgs))
	for _, m := range msgs {
		role := types.ConversationRoleUser
		if m.Role == models.RoleAssistant {
			role = types.ConversationRoleAssistant
		}
		var content []types.ContentBlock
		if m.Content != "" {
			content = append(content, &types.ContentBlockMemberText{Value: m.Content})
		}
		if m.Role == models.RoleTool {
			content = append(content, &types.ContentBlockMemberToolResult{
				Value: types.ToolResultBlock{
					ToolUseId: strPtr(m.ToolCallID),
					Content:   []types.ToolResultContentBlock{&types.ToolResultContentBlockMemberText{Value: m.Content}},
				},
			})
		}
		if len(content) == 0 {
			continue
		}
		out = append(out, types.Message{Role: role, Content: content})
	}
	return out, nil
}

func toBedrockToolConfig(schemas []models.ToolSchema) *types.ToolConfiguration {
	tools := make([]types.Tool, 0, len(schemas))
	for _, s := range schemas {
		doc := functionSchemaParams(s)
		raw, _ := json.Marshal(doc)
		tools = append(tools, &types.ToolMemberToolSpec{
			Value: types.ToolSpecification{
				Name:        strPtr(s.Name),
				Description: strPtr(s.Description),
				InputSchema: &types.ToolInputSchemaMemberJson{Value: bedrockDocument(raw)},
			},
		})
	}
	return &types.ToolConfiguration{Tools: tools}
}

// bedrockDocument adapts a raw JSON schema into the smithy "document" shape
// the Bedrock SDK expects for ToolInputSchemaMemberJson. We keep this as a
// narrow conversion point rather than pulling in the full smithy document
// codec, since our schemas are always plain JSON objects.
func bedrockDocument(raw []byte) bedrockJSONDocument {
	return bedrockJSONDocument(raw)
}

type bedrockJSONDocument []byte

func (d bedrockJSONDocument) MarshalSmithyDocument() ([]byte, error) { return d, nil }

func strPtr(s string) *string { return &s }

func strVal(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

package llm

import (
	"time"

	"github.com/agentmesh/core/pkg/models"
)

// ChatOptions carries the generation parameters accepted by Chat,
// ChatStream, and ChatWithTools. The zero value is a valid, provider-default
// request.
type ChatOptions struct {
	Model            string
	Temperature      float64
	MaxTokens        int
	TopP             float64
	StopSequences    []string
	Tools            []models.ToolSchema
	ToolChoice       models.ToolChoice
	TimeoutOverride  time.Duration
	MaxRetries       int
	disableRateLimit bool // test hook only
}

// WithToolsAuto returns a copy of opts with ToolChoice set to "auto" and
// Tools populated, as chat_with_tools documents.
func WithToolsAuto(opts ChatOptions, tools []models.ToolSchema) ChatOptions {
	opts.Tools = tools
	opts.ToolChoice = models.ToolChoice{Mode: "auto"}
	return opts
}

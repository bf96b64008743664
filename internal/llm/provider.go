package llm

import (
	"context"

	"github.com/agentmesh/core/pkg/models"
)

// Request is the normalized completion request a Provider receives. The
// Client builds this from ChatOptions plus the caller's message history.
type Request struct {
	Model         string
	System        string
	Messages      []models.ChatMessage
	Tools         []models.ToolSchema
	ToolChoice    models.ToolChoice
	Temperature   float64
	MaxTokens     int
	TopP          float64
	StopSequences []string
}

// Provider is the transport-level seam implemented once per upstream
// backend (OpenAI-compatible, Anthropic, Bedrock, ...). It always streams;
// Client.Chat drains the stream for callers that want a single response.
//
// Implementations must be safe for concurrent use: the Client may issue
// many simultaneous Stream calls against the same Provider.
type Provider interface {
	// Name identifies the provider for error attribution and logging.
	Name() string
	// SupportsTools reports whether this backend accepts the Tools field.
	SupportsTools() bool
	// DefaultModel returns the model used when Request.Model is empty.
	DefaultModel() string
	// Stream issues the request and returns a channel of deltas. The
	// channel is closed after a terminal delta (Done == true) or an error
	// delta; Stream itself returns a non-nil error only for failures that
	// occur before any delta could be produced (e.g. request construction).
	Stream(ctx context.Context, req Request) (<-chan models.ChatDelta, error)
}

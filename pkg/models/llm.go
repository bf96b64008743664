// Package models holds the wire-level domain types shared by the LLM
// client, the tool registry, the agent runtime, the message bus, and the
// state-graph engine. Keeping them in one leaf package avoids import
// cycles between those subsystems.
package models

import "time"

// Role identifies the speaker of a ChatMessage.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ChatMessage is one turn in a conversation sent to or received from an LLM
// provider.
type ChatMessage struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	Name       string     `json:"name,omitempty"`
}

// ToolCall is a single tool invocation requested by the model.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolChoice selects how the model is permitted to call tools.
type ToolChoice struct {
	// Mode is "auto", "none", or "named".
	Mode string `json:"mode"`
	// Name is the tool to force when Mode == "named".
	Name string `json:"name,omitempty"`
}

// FinishReason enumerates why a completion stopped.
type FinishReason string

const (
	FinishStop      FinishReason = "stop"
	FinishLength    FinishReason = "length"
	FinishToolCalls FinishReason = "tool_calls"
	FinishContent   FinishReason = "content_filter"
	FinishError     FinishReason = "error"
)

// Usage reports token accounting for a single completion.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatResponse is the normalized result of a blocking or fully-drained
// streaming chat call, regardless of which upstream provider served it.
type ChatResponse struct {
	Content      string       `json:"content"`
	FinishReason FinishReason `json:"finish_reason"`
	Usage        Usage        `json:"usage"`
	ToolCalls    []ToolCall   `json:"tool_calls,omitempty"`
	Model        string       `json:"model,omitempty"`
	CreatedAt    time.Time    `json:"created_at"`
}

// ChatDelta is a single increment from a streamed chat call. Tool-call
// deltas are buffered by the client and surfaced only on the terminal
// delta (Done == true), per the streaming contract in the LLM client spec.
type ChatDelta struct {
	Content string       `json:"content,omitempty"`
	Done    bool         `json:"done,omitempty"`
	Finish  FinishReason `json:"finish_reason,omitempty"`
	// ToolCalls is populated only on the terminal delta.
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Usage     Usage      `json:"usage,omitempty"`
	Err       error      `json:"-"`
}

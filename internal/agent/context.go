// Package agent implements the runtime cooperating agents execute under:
// a base agent with bounded conversation memory, a single-shot Planner, a
// bounded ReAct loop, and a ReAct-derived judge that arbitrates debates.
package agent

import (
	"github.com/agentmesh/core/pkg/models"
)

// DefaultMaxTurns bounds how many messages a ConversationContext retains
// besides the system prompt, preventing an unbounded context window from a
// long-running agent.
const DefaultMaxTurns = 40

// ConversationContext is the bounded message history a BaseAgent consults
// on every chat call. The system prompt is pinned and never evicted; once
// the turn count exceeds MaxTurns, the oldest non-system turns are dropped.
type ConversationContext struct {
	systemPrompt string
	turns        []models.ChatMessage
	maxTurns     int
}

// NewConversationContext builds a context pinned to systemPrompt. A
// maxTurns of 0 uses DefaultMaxTurns.
func NewConversationContext(systemPrompt string, maxTurns int) *ConversationContext {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &ConversationContext{systemPrompt: systemPrompt, maxTurns: maxTurns}
}

// Append adds a turn, trimming the oldest turns if the bound is exceeded.
func (c *ConversationContext) Append(msg models.ChatMessage) {
	c.turns = append(c.turns, msg)
	if over := len(c.turns) - c.maxTurns; over > 0 {
		c.turns = c.turns[over:]
	}
}

// Messages returns the system prompt followed by the retained turns, ready
// to hand to an llm.Client.
func (c *ConversationContext) Messages() []models.ChatMessage {
	out := make([]models.ChatMessage, 0, len(c.turns)+1)
	if c.systemPrompt != "" {
		out = append(out, models.ChatMessage{Role: models.RoleSystem, Content: c.systemPrompt})
	}
	out = append(out, c.turns...)
	return out
}

// Reset clears retained turns, keeping the system prompt.
func (c *ConversationContext) Reset() {
	c.turns = nil
}

// Len reports the number of retained (non-system) turns.
func (c *ConversationContext) Len() int { return len(c.turns) }

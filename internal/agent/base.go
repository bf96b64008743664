package agent

import (
	"context"
	"fmt"

	"github.com/agentmesh/core/internal/llm"
	"github.com/agentmesh/core/internal/tools"
	"github.com/agentmesh/core/pkg/models"
)

// State is the lifecycle phase of an agent's current turn.
type State string

const (
	StateIdle     State = "idle"
	StateThinking State = "thinking"
	StateActing   State = "acting"
	StateDone     State = "done"
	StateError    State = "error"
)

// Sampling holds the default generation parameters an agent applies when a
// call doesn't override them.
type Sampling struct {
	Temperature float64
	MaxTokens   int
	TopP        float64
}

// BaseAgent is the common substrate every strategy (Planner, ReAct, judge)
// embeds: a name, role, LLM reference, optional tool registry, bounded
// context, system prompt, lifecycle state, and default sampling.
type BaseAgent struct {
	Name     string
	Role     string
	LLM      *llm.Client
	Tools    *tools.Registry
	Context  *ConversationContext
	Sampling Sampling

	state State
}

// NewBaseAgent constructs an agent with a fresh bounded context pinned to
// systemPrompt.
func NewBaseAgent(name, role string, client *llm.Client, systemPrompt string) *BaseAgent {
	return &BaseAgent{
		Name:     name,
		Role:     role,
		LLM:      client,
		Context:  NewConversationContext(systemPrompt, DefaultMaxTurns),
		Sampling: Sampling{Temperature: 0.7, TopP: 1.0},
		state:    StateIdle,
	}
}

// State reports the agent's current lifecycle phase.
func (a *BaseAgent) State() State { return a.state }

// ChatOption customizes a single Chat call without mutating the agent's
// defaults.
type ChatOption func(*chatSettings)

type chatSettings struct {
	remember bool
}

// WithoutMemory disables appending this turn to the bounded context,
// letting a caller issue a one-off side-channel exchange (e.g. a judge
// poll) without polluting the agent's conversation history.
func WithoutMemory() ChatOption {
	return func(s *chatSettings) { s.remember = false }
}

// Chat appends message as a user turn, invokes the LLM once against the
// system prompt plus retained context, appends the assistant reply, and
// returns its content. Passing WithoutMemory skips both appends.
func (a *BaseAgent) Chat(ctx context.Context, message string, opts ...ChatOption) (string, error) {
	if a.LLM == nil {
		a.state = StateError
		return "", ErrNoLLM
	}
	settings := chatSettings{remember: true}
	for _, o := range opts {
		o(&settings)
	}

	a.state = StateThinking
	userTurn := models.ChatMessage{Role: models.RoleUser, Content: message}

	var messages []models.ChatMessage
	if settings.remember {
		a.Context.Append(userTurn)
		messages = a.Context.Messages()
	} else {
		messages = append(a.Context.Messages(), userTurn)
	}

	resp, err := a.LLM.Chat(ctx, messages, llm.ChatOptions{
		Temperature: a.Sampling.Temperature,
		MaxTokens:   a.Sampling.MaxTokens,
		TopP:        a.Sampling.TopP,
	})
	if err != nil {
		a.state = StateError
		return "", fmt.Errorf("agent %s: chat: %w", a.Name, err)
	}

	if settings.remember {
		a.Context.Append(models.ChatMessage{Role: models.RoleAssistant, Content: resp.Content})
	}
	a.state = StateDone
	return resp.Content, nil
}

// Executor is implemented by strategies (Planner, ReAct) that drive
// multi-turn behavior beyond a single Chat call.
type Executor interface {
	Execute(ctx context.Context, task string) (any, error)
}

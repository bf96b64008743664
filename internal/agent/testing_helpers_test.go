package agent

import (
	"context"

	"github.com/agentmesh/core/internal/llm"
	"github.com/agentmesh/core/pkg/models"
)

// scriptedProvider replays a fixed sequence of reply strings, one per
// Stream call, as single-chunk completions. It lets agent tests drive a
// BaseAgent through several turns without a real upstream.
type scriptedProvider struct {
	replies []string
	calls   int
}

func (p *scriptedProvider) Name() string         { return "scripted" }
func (p *scriptedProvider) SupportsTools() bool  { return true }
func (p *scriptedProvider) DefaultModel() string { return "scripted-model" }

func (p *scriptedProvider) Stream(_ context.Context, _ llm.Request) (<-chan models.ChatDelta, error) {
	idx := p.calls
	p.calls++
	reply := ""
	if idx < len(p.replies) {
		reply = p.replies[idx]
	}
	ch := make(chan models.ChatDelta, 2)
	ch <- models.ChatDelta{Content: reply}
	ch <- models.ChatDelta{Done: true, Finish: models.FinishStop}
	close(ch)
	return ch, nil
}

func newTestAgent(t interface{ Fatalf(string, ...any) }, replies []string, systemPrompt string) *BaseAgent {
	client, err := llm.New(llm.Config{Provider: &scriptedProvider{replies: replies}})
	if err != nil {
		t.Fatalf("llm.New: %v", err)
	}
	return NewBaseAgent("tester", "assistant", client, systemPrompt)
}

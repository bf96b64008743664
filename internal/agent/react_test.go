package agent

import (
	"context"
	"testing"

	"github.com/agentmesh/core/internal/tools"
	"github.com/agentmesh/core/pkg/models"
)

func TestReActReachesFinalAnswer(t *testing.T) {
	base := newTestAgent(t, []string{
		"Thought: let me think",
		"Final Answer: 42",
	}, "ignored")
	r := NewReAct(base, 5)

	result, err := r.Execute(context.Background(), "what is the answer?")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	run := result.(*Run)
	if run.Status != models.StatusCompleted || run.Answer != "42" {
		t.Fatalf("unexpected run: %+v", run)
	}
}

func TestReActExhaustsIterationBudget(t *testing.T) {
	base := newTestAgent(t, []string{
		"Thought: one",
		"Thought: two",
	}, "ignored")
	r := NewReAct(base, 2)

	result, err := r.Execute(context.Background(), "loop forever")
	if err == nil {
		t.Fatal("expected ErrIterationExhausted")
	}
	run := result.(*Run)
	if run.Status != models.StatusTruncated {
		t.Fatalf("expected truncated status, got %s", run.Status)
	}
}

func TestReActDispatchesActionToToolRegistry(t *testing.T) {
	registry := tools.NewRegistry()
	_ = registry.Register(tools.Tool{
		Schema: models.ToolSchema{
			Name: "lookup",
			Params: []models.ToolParam{
				{Name: "term", Kind: models.ParamString, Required: true},
			},
		},
		Run: func(_ context.Context, args map[string]any) (*models.ToolResult, error) {
			return models.Succeeded("result for " + args["term"].(string)), nil
		},
	})

	base := newTestAgent(t, []string{
		`Action: lookup({"term": "go"})`,
		"Final Answer: found it",
	}, "ignored")
	base.Tools = registry
	r := NewReAct(base, 5)

	result, err := r.Execute(context.Background(), "look something up")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	run := result.(*Run)
	if run.Answer != "found it" {
		t.Fatalf("unexpected answer: %q", run.Answer)
	}

	var sawObservation bool
	for _, step := range run.Steps {
		if step.Kind == models.ReActObservation {
			sawObservation = true
		}
	}
	if !sawObservation {
		t.Fatal("expected an observation step from the tool dispatch")
	}
}

func TestReActTreatsUnrecognisedTextAsFinalAnswer(t *testing.T) {
	base := newTestAgent(t, []string{"just a plain reply"}, "ignored")
	r := NewReAct(base, 5)

	result, err := r.Execute(context.Background(), "hi")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	run := result.(*Run)
	if run.Answer != "just a plain reply" || run.Status != models.StatusCompleted {
		t.Fatalf("unexpected run: %+v", run)
	}
}

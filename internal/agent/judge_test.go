package agent

import (
	"context"
	"testing"

	"github.com/agentmesh/core/pkg/models"
)

func TestJudgeEvaluateParsesJSONVerdict(t *testing.T) {
	reply := `{"decision":"CONSENSUS","confidence":0.95,"reason":"agents agree","suggestions":["ship it"]}`
	base := newTestAgent(t, []string{reply}, "ignored")
	j := NewJudge(base)

	turns := []models.DebateTurn{
		{AgentID: "a", Content: "I think X", Round: 1},
		{AgentID: "b", Content: "Agreed, X", Round: 1},
	}
	judgment, err := j.Evaluate(context.Background(), turns, 1)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if judgment.Decision != models.DecisionConsensus || judgment.Confidence != 0.95 {
		t.Fatalf("unexpected judgment: %+v", judgment)
	}
}

func TestParseJudgmentFallsBackOnUnparsableResponse(t *testing.T) {
	judgment := ParseJudgment("I can't decide, sorry.")
	if judgment.Decision != models.DecisionContinue {
		t.Fatalf("expected fallback CONTINUE decision, got %+v", judgment)
	}
}

func TestParseJudgmentFromCodeFencedJSON(t *testing.T) {
	text := "```json\n{\"decision\":\"DIVERGENCE\",\"confidence\":0.4,\"reason\":\"no agreement\"}\n```"
	judgment := ParseJudgment(text)
	if judgment.Decision != models.DecisionDivergence {
		t.Fatalf("expected DIVERGENCE, got %+v", judgment)
	}
}

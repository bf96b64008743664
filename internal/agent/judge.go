package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/agentmesh/core/pkg/models"
)

const judgeSystemPrompt = `You are an impartial judge arbitrating a multi-agent debate.
You will be given the debate transcript so far and the current round number.
Respond with a single JSON object: {"decision": "CONSENSUS"|"SUFFICIENT"|"DIVERGENCE"|"CONTINUE"|"TIMEOUT", "confidence": 0.0-1.0, "reason": "...", "suggestions": ["..."]}
Use CONSENSUS when agents agree, SUFFICIENT when the discussion has produced a usable answer even without full agreement,
DIVERGENCE when positions are incompatible and unlikely to converge, CONTINUE when more rounds would help, and TIMEOUT only if instructed to stop.`

// Judge is a ReAct-derived strategy that reads a debate transcript and
// produces a models.Judgment the orchestrator consults to decide whether a
// debate round terminates early.
type Judge struct {
	*BaseAgent
}

// NewJudge wraps base with the judge's system prompt.
func NewJudge(base *BaseAgent) *Judge {
	base.Context = NewConversationContext(judgeSystemPrompt, DefaultMaxTurns)
	return &Judge{BaseAgent: base}
}

// Evaluate asks the judge to arbitrate turns as of round and parses its
// response into a models.Judgment. A response that fails to parse as JSON
// falls back to a low-confidence CONTINUE, since a judge that can't be
// understood shouldn't be allowed to terminate the debate.
func (j *Judge) Evaluate(ctx context.Context, turns []models.DebateTurn, round int) (*models.Judgment, error) {
	reply, err := j.Chat(ctx, renderTranscript(turns, round), WithoutMemory())
	if err != nil {
		return nil, err
	}
	return ParseJudgment(reply), nil
}

// ParseJudgment extracts a models.Judgment from free-form judge output,
// preferring fenced or strict JSON and falling back to a conservative
// CONTINUE verdict when no JSON can be recovered.
func ParseJudgment(text string) *models.Judgment {
	result := ParseAssistantText(text)
	if result.Step.Kind == "json" {
		if j, err := judgmentFromJSON(result.Step.JSON); err == nil {
			return j
		}
	}
	return &models.Judgment{
		Decision:   models.DecisionContinue,
		Confidence: 0.0,
		Reason:     "judge response could not be parsed as a judgment",
	}
}

func judgmentFromJSON(doc map[string]any) (*models.Judgment, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var j models.Judgment
	if err := json.Unmarshal(raw, &j); err != nil {
		return nil, err
	}
	if j.Decision == "" {
		return nil, fmt.Errorf("judge: missing decision field")
	}
	return &j, nil
}

func renderTranscript(turns []models.DebateTurn, round int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Round: %d\n\n", round)
	for _, t := range turns {
		fmt.Fprintf(&b, "[round %d] %s: %s\n", t.Round, t.AgentID, t.Content)
	}
	return b.String()
}

package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/agentmesh/core/pkg/models"
)

const plannerSystemPrompt = `You are a planning agent. Given a goal, produce a structured plan.
Respond with a numbered list of steps, each on its own line in the form:
1. <description> -> <expected output>
End with a line "Resources: <comma-separated resources>" and a line "Estimated cost: <text>" if applicable.`

// Planner is the single-shot strategy: given a goal, it emits a structured
// Plan parsed from the LLM's free-form response via the lenient parser.
type Planner struct {
	*BaseAgent
}

// NewPlanner wraps base with the planner's system prompt. base's own
// system prompt is replaced, since a Planner's output format is rigid and
// must not compete with a caller-supplied persona prompt.
func NewPlanner(base *BaseAgent) *Planner {
	base.Context = NewConversationContext(plannerSystemPrompt, DefaultMaxTurns)
	return &Planner{BaseAgent: base}
}

// Execute asks the LLM for a plan toward goal and parses the response into
// a models.Plan.
func (p *Planner) Execute(ctx context.Context, goal string) (any, error) {
	reply, err := p.Chat(ctx, goal, WithoutMemory())
	if err != nil {
		return nil, err
	}
	return ParsePlan(reply)
}

var (
	planStepRe  = regexp.MustCompile(`(?m)^\s*\d+[.)]\s*(.+?)(?:\s*->\s*(.+))?$`)
	resourcesRe = regexp.MustCompile(`(?im)^Resources:\s*(.+)$`)
	estCostRe   = regexp.MustCompile(`(?im)^Estimated cost:\s*(.+)$`)
)

// ParsePlan extracts a models.Plan from free-form planner output. It tries
// strict JSON first (a model that was asked to emit JSON directly), then
// falls back to the numbered-list format the default prompt requests.
func ParsePlan(text string) (*models.Plan, error) {
	result := ParseAssistantText(stripCodeFence(text))
	if result.Step.Kind == "json" {
		return planFromJSON(result.Step.JSON)
	}
	return planFromText(text)
}

func planFromJSON(doc map[string]any) (*models.Plan, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("planner: re-marshal parsed json: %w", err)
	}
	var plan models.Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("planner: plan shape mismatch: %w", err)
	}
	return &plan, nil
}

func planFromText(text string) (*models.Plan, error) {
	plan := &models.Plan{}
	for _, m := range planStepRe.FindAllStringSubmatch(text, -1) {
		desc := strings.TrimSpace(m[1])
		expected := strings.TrimSpace(m[2])
		if desc == "" {
			continue
		}
		plan.Steps = append(plan.Steps, models.PlanStep{Description: desc, ExpectedOutput: expected})
	}
	if m := resourcesRe.FindStringSubmatch(text); m != nil {
		for _, r := range strings.Split(m[1], ",") {
			if r = strings.TrimSpace(r); r != "" {
				plan.RequiredResources = append(plan.RequiredResources, r)
			}
		}
	}
	if m := estCostRe.FindStringSubmatch(text); m != nil {
		plan.EstimatedCost = strings.TrimSpace(m[1])
	}
	if len(plan.Steps) == 0 {
		return nil, fmt.Errorf("planner: could not extract any steps from response")
	}
	return plan, nil
}

func stripCodeFence(text string) string {
	if m := codeFenceRe.FindStringSubmatch(text); m != nil {
		return strings.TrimSpace(m[1])
	}
	return text
}

package agent

import (
	"context"
	"testing"

	"github.com/agentmesh/core/pkg/models"
)

func TestPlannerParsesNumberedListFormat(t *testing.T) {
	reply := "1. Gather requirements -> a written brief\n" +
		"2. Draft the design -> a design doc\n" +
		"Resources: time, reviewer\n" +
		"Estimated cost: 2 days\n"
	base := newTestAgent(t, []string{reply}, "ignored")
	planner := NewPlanner(base)

	result, err := planner.Execute(context.Background(), "ship the feature")
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if _, ok := result.(*models.Plan); !ok {
		t.Fatalf("expected *models.Plan, got %T", result)
	}

	parsed, err := ParsePlan(reply)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if len(parsed.Steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(parsed.Steps))
	}
	if parsed.Steps[0].ExpectedOutput != "a written brief" {
		t.Fatalf("unexpected expected output: %q", parsed.Steps[0].ExpectedOutput)
	}
	if parsed.EstimatedCost != "2 days" {
		t.Fatalf("unexpected estimated cost: %q", parsed.EstimatedCost)
	}
	if len(parsed.RequiredResources) != 2 {
		t.Fatalf("expected 2 resources, got %v", parsed.RequiredResources)
	}
}

func TestPlannerParsesJSONPlan(t *testing.T) {
	reply := `{"goal":"ship it","steps":[{"description":"build","expected_output":"binary"}]}`
	parsed, err := ParsePlan(reply)
	if err != nil {
		t.Fatalf("ParsePlan: %v", err)
	}
	if parsed.Goal != "ship it" || len(parsed.Steps) != 1 {
		t.Fatalf("unexpected plan: %+v", parsed)
	}
}

func TestPlannerFailsOnUnparsableResponse(t *testing.T) {
	_, err := ParsePlan("I have no idea what you're asking.")
	if err == nil {
		t.Fatal("expected error for unparsable plan")
	}
}

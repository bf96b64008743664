package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/agentmesh/core/internal/graph"
	"github.com/agentmesh/core/internal/tools"
	"github.com/agentmesh/core/pkg/models"
)

// registerDemoTools installs a small set of illustrative tools so the demo
// graph has something concrete to invoke: agentcore itself ships no
// business-specific tools, only the registry that hosts them.
func registerDemoTools(registry *tools.Registry) {
	registry.Register(tools.Tool{
		Schema: models.ToolSchema{
			Name:        "word_count",
			Description: "Counts the words in the supplied text.",
			Params: []models.ToolParam{
				{Name: "text", Kind: models.ParamString, Required: true},
			},
			Returns:  "number",
			Category: "text",
		},
		Run: func(ctx context.Context, args map[string]any) (*models.ToolResult, error) {
			text, _ := args["text"].(string)
			return &models.ToolResult{Success: true, Payload: len(strings.Fields(text))}, nil
		},
	})
}

// buildDemoGraph assembles a four-node triage workflow: classify the
// input, then route to either an escalation or an auto-respond branch,
// and once that branch completes, fan out to an audit-log node.
func buildDemoGraph(store graph.CheckpointStore, registry *tools.Registry) (*graph.CompiledGraph, error) {
	builder := graph.NewBuilder(nil)

	if err := builder.AddNode("classify", classifyNode, graph.NodeConfig{}); err != nil {
		return nil, err
	}
	if err := builder.AddNode("escalate", escalateNode, graph.NodeConfig{}); err != nil {
		return nil, err
	}
	if err := builder.AddNode("auto_respond", autoRespondNode(registry), graph.NodeConfig{}); err != nil {
		return nil, err
	}
	if err := builder.AddNode("audit_log", auditLogNode, graph.NodeConfig{}); err != nil {
		return nil, err
	}

	builder.SetEntryPoint("classify")
	builder.AddConditionalEdge("classify", routeByUrgency, map[string]string{
		"urgent": "escalate",
		"normal": "auto_respond",
	})
	builder.AddParallelEdge("escalate", []string{"audit_log"})
	builder.AddParallelEdge("auto_respond", []string{"audit_log"})
	builder.SetExitPoint("audit_log")

	if errs := builder.Validate(); errs != nil {
		return nil, fmt.Errorf("invalid demo graph: %v", errs)
	}

	return builder.Compile(graph.Config{
		IterationBudget: graph.DefaultIterationBudget,
		Persist:         store != nil,
	}, store)
}

func classifyNode(state map[string]any) (map[string]any, error) {
	text, _ := state["input"].(string)
	urgency := "normal"
	if strings.Contains(strings.ToLower(text), "urgent") {
		urgency = "urgent"
	}
	return map[string]any{"urgency": urgency}, nil
}

func routeByUrgency(state map[string]any) (string, error) {
	urgency, _ := state["urgency"].(string)
	if urgency == "" {
		return "normal", nil
	}
	return urgency, nil
}

func escalateNode(state map[string]any) (map[string]any, error) {
	return map[string]any{"response": "escalated to a human operator"}, nil
}

func autoRespondNode(registry *tools.Registry) graph.NodeFunc {
	return func(state map[string]any) (map[string]any, error) {
		text, _ := state["input"].(string)
		result, err := registry.Execute(context.Background(), "word_count", map[string]any{"text": text})
		if err != nil {
			return nil, err
		}
		return map[string]any{"response": fmt.Sprintf("acknowledged (%v words)", result.Payload)}, nil
	}
}

func auditLogNode(state map[string]any) (map[string]any, error) {
	return map[string]any{"audited": true}, nil
}

package main

import (
	"testing"

	"github.com/agentmesh/core/internal/tools"
)

func TestBuildRootCmdIncludesSubcommands(t *testing.T) {
	cmd := buildRootCmd()
	names := map[string]bool{}
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}

	required := []string{"run", "serve", "status"}
	for _, name := range required {
		if !names[name] {
			t.Fatalf("expected subcommand %q to be registered", name)
		}
	}
}

func TestBuildDemoGraphCompiles(t *testing.T) {
	registry := tools.NewRegistry()
	registerDemoTools(registry)
	if _, err := buildDemoGraph(nil, registry); err != nil {
		t.Fatalf("buildDemoGraph: %v", err)
	}
}

func TestClassifyNodeRoutesOnUrgentKeyword(t *testing.T) {
	out, err := classifyNode(map[string]any{"input": "this is URGENT"})
	if err != nil {
		t.Fatalf("classifyNode: %v", err)
	}
	if out["urgency"] != "urgent" {
		t.Fatalf("expected urgent classification, got %v", out["urgency"])
	}

	out, err = classifyNode(map[string]any{"input": "just checking in"})
	if err != nil {
		t.Fatalf("classifyNode: %v", err)
	}
	if out["urgency"] != "normal" {
		t.Fatalf("expected normal classification, got %v", out["urgency"])
	}
}

func TestAutoRespondNodeUsesWordCountTool(t *testing.T) {
	registry := tools.NewRegistry()
	registerDemoTools(registry)
	node := autoRespondNode(registry)

	out, err := node(map[string]any{"input": "four little words here"})
	if err != nil {
		t.Fatalf("autoRespondNode: %v", err)
	}
	if out["response"] == "" {
		t.Fatal("expected a non-empty response")
	}
}

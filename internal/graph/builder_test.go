package graph

import (
	"strings"
	"testing"
)

func noopFn(state map[string]any) (map[string]any, error) { return nil, nil }

func TestValidateRequiresEntryPoint(t *testing.T) {
	b := NewBuilder(nil)
	b.AddNode("a", noopFn, NodeConfig{})

	err := b.Validate()
	if err == nil {
		t.Fatal("expected validation error for missing entry point")
	}
	if !strings.Contains(err.Error(), "no entry point") {
		t.Fatalf("expected no-entry-point error, got %v", err)
	}
}

func TestValidateCatchesDanglingEdge(t *testing.T) {
	b := NewBuilder(nil)
	b.AddNode("a", noopFn, NodeConfig{})
	b.SetEntryPoint("a")
	b.AddEdge("a", "missing")

	err := b.Validate()
	if err == nil {
		t.Fatal("expected validation error for dangling edge")
	}
}

func TestValidateCatchesUnreachableNode(t *testing.T) {
	b := NewBuilder(nil)
	b.AddNode("a", noopFn, NodeConfig{})
	b.AddNode("isolated", noopFn, NodeConfig{})
	b.SetEntryPoint("a")
	b.SetExitPoint("a")

	err := b.Validate()
	if err == nil {
		t.Fatal("expected validation error for unreachable node")
	}
	if !strings.Contains(err.Error(), "isolated") {
		t.Fatalf("expected error naming the unreachable node, got %v", err)
	}
}

func TestValidateCatchesEmptyConditionalBranchMap(t *testing.T) {
	b := NewBuilder(nil)
	b.AddNode("a", noopFn, NodeConfig{})
	b.SetEntryPoint("a")
	b.SetExitPoint("a")
	b.AddConditionalEdge("a", func(map[string]any) (string, error) { return "x", nil }, nil)

	err := b.Validate()
	if err == nil {
		t.Fatal("expected validation error for empty branch map")
	}
}

func TestValidatePassesOnWellFormedGraph(t *testing.T) {
	b := NewBuilder(nil)
	b.AddNode("preprocess", noopFn, NodeConfig{})
	b.AddNode("analyze", noopFn, NodeConfig{})
	b.SetEntryPoint("preprocess")
	b.SetExitPoint("analyze")
	b.AddEdge("preprocess", "analyze")

	if err := b.Validate(); err != nil {
		t.Fatalf("expected valid graph, got %v", err)
	}
}

func TestCompileRejectsPersistWithoutStore(t *testing.T) {
	b := NewBuilder(nil)
	b.AddNode("a", noopFn, NodeConfig{})
	b.SetEntryPoint("a")
	b.SetExitPoint("a")

	_, err := b.Compile(Config{Persist: true}, nil)
	if err == nil {
		t.Fatal("expected error when Persist is set without a store")
	}
}

func TestCompileDefaultsIterationBudget(t *testing.T) {
	b := NewBuilder(nil)
	b.AddNode("a", noopFn, NodeConfig{})
	b.SetEntryPoint("a")
	b.SetExitPoint("a")

	g, err := b.Compile(Config{}, nil)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if g.config.IterationBudget != DefaultIterationBudget {
		t.Fatalf("expected default iteration budget %d, got %d", DefaultIterationBudget, g.config.IterationBudget)
	}
}

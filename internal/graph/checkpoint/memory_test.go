package checkpoint

import (
	"context"
	"testing"

	"github.com/agentmesh/core/pkg/models"
)

func TestMemorySaveLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	cp := models.Checkpoint{
		WorkflowID:     "wf-1",
		Step:           3,
		State:          map[string]any{"x": 1.0},
		CompletedNodes: []string{"a", "b"},
		Status:         models.GraphRunning,
	}
	if err := store.Save(ctx, cp); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := store.Load(ctx, "wf-1")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.Step != 3 || len(got.CompletedNodes) != 2 {
		t.Fatalf("unexpected checkpoint: %+v", got)
	}
}

func TestMemoryLoadMissingReturnsNilNil(t *testing.T) {
	store := NewMemory()
	got, err := store.Load(context.Background(), "missing")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", got, err)
	}
}

func TestMemoryListAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewMemory()
	store.Save(ctx, models.Checkpoint{WorkflowID: "b"})
	store.Save(ctx, models.Checkpoint{WorkflowID: "a"})

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 || ids[0] != "a" || ids[1] != "b" {
		t.Fatalf("expected sorted [a b], got %v", ids)
	}

	if err := store.Delete(ctx, "a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ids, _ = store.List(ctx)
	if len(ids) != 1 || ids[0] != "b" {
		t.Fatalf("expected [b] after delete, got %v", ids)
	}
}

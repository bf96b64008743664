package checkpoint

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentmesh/core/pkg/models"
)

func TestFileSaveLoadRoundTrips(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewFile(dir)
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}

	cp := models.Checkpoint{
		WorkflowID:     "wf-7",
		Step:           2,
		State:          map[string]any{"processed": "hello"},
		CompletedNodes: []string{"preprocess"},
		Status:         models.GraphRunning,
	}
	if err := store.Save(ctx, cp); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := store.Load(ctx, "wf-7")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got == nil || got.State["processed"] != "hello" {
		t.Fatalf("unexpected checkpoint: %+v", got)
	}

	if _, err := os.Stat(filepath.Join(dir, "wf-7.json")); err != nil {
		t.Fatalf("expected checkpoint file on disk: %v", err)
	}
}

func TestFileLoadMissingReturnsNilNil(t *testing.T) {
	store, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	got, err := store.Load(context.Background(), "nonexistent")
	if err != nil || got != nil {
		t.Fatalf("expected (nil, nil), got (%+v, %v)", got, err)
	}
}

func TestFileListAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewFile(t.TempDir())
	if err != nil {
		t.Fatalf("NewFile: %v", err)
	}
	store.Save(ctx, models.Checkpoint{WorkflowID: "wf-a"})
	store.Save(ctx, models.Checkpoint{WorkflowID: "wf-b"})

	ids, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("expected 2 ids, got %v", ids)
	}

	if err := store.Delete(ctx, "wf-a"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	ids, _ = store.List(ctx)
	if len(ids) != 1 || ids[0] != "wf-b" {
		t.Fatalf("expected [wf-b], got %v", ids)
	}
}

func TestFileSaveOverwritesAtomically(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, _ := NewFile(dir)

	store.Save(ctx, models.Checkpoint{WorkflowID: "wf-x", Step: 1})
	store.Save(ctx, models.Checkpoint{WorkflowID: "wf-x", Step: 2})

	got, _ := store.Load(ctx, "wf-x")
	if got.Step != 2 {
		t.Fatalf("expected latest save to win, got step %d", got.Step)
	}

	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("expected exactly one file after overwrite, got %d", len(entries))
	}
}

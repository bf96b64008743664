package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/agentmesh/core/pkg/models"
)

// File is an on-disk checkpoint store: one JSON file per workflow id,
// written with write-to-temp-then-rename so a crash mid-write never leaves
// a corrupt checkpoint behind, and readers tolerate a missing file.
type File struct {
	dir string
}

// NewFile builds a store rooted at dir, creating it if necessary.
func NewFile(dir string) (*File, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("checkpoint: create dir %q: %w", dir, err)
	}
	return &File{dir: dir}, nil
}

func (f *File) path(workflowID string) string {
	return filepath.Join(f.dir, workflowID+".json")
}

func (f *File) Save(_ context.Context, cp models.Checkpoint) error {
	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}

	tmp, err := os.CreateTemp(f.dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("checkpoint: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op once the rename below succeeds

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("checkpoint: write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("checkpoint: close temp file: %w", err)
	}
	if err := os.Rename(tmpName, f.path(cp.WorkflowID)); err != nil {
		return fmt.Errorf("checkpoint: atomic rename: %w", err)
	}
	return nil
}

func (f *File) Load(_ context.Context, workflowID string) (*models.Checkpoint, error) {
	data, err := os.ReadFile(f.path(workflowID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("checkpoint: read %q: %w", workflowID, err)
	}
	var cp models.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal %q: %w", workflowID, err)
	}
	return &cp, nil
}

func (f *File) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("checkpoint: list dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") || strings.HasPrefix(name, ".tmp-") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	sort.Strings(ids)
	return ids, nil
}

func (f *File) Delete(_ context.Context, workflowID string) error {
	if err := os.Remove(f.path(workflowID)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("checkpoint: delete %q: %w", workflowID, err)
	}
	return nil
}

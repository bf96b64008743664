package graph

import (
	"context"

	"github.com/agentmesh/core/pkg/models"
)

// CheckpointStore persists workflow progress. Implementations live under
// internal/graph/checkpoint; CompiledGraph depends only on this interface
// so the engine is agnostic to where checkpoints land.
type CheckpointStore interface {
	Save(ctx context.Context, cp models.Checkpoint) error
	// Load returns nil, nil when no checkpoint exists for workflowID.
	Load(ctx context.Context, workflowID string) (*models.Checkpoint, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, workflowID string) error
}

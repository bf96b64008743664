// Package checkpoint provides pluggable persistence for the state-graph
// engine's workflow progress: an in-memory store for tests, an on-disk
// store for single-process durability, and SQLite/Redis stores for
// sharing checkpoints across processes.
package checkpoint

import (
	"context"
	"errors"

	"github.com/agentmesh/core/pkg/models"
)

// ErrNotFound names the "no checkpoint" outcome as a typed value. The
// stores in this package never return it: their Load returns (nil, nil)
// when no checkpoint exists for a workflow id, per the
// graph.CheckpointStore contract.
var ErrNotFound = errors.New("checkpoint: not found")

// Store mirrors graph.CheckpointStore; it is declared independently here so
// this package has zero dependency on internal/graph, avoiding an import
// cycle between the engine and its persistence implementations.
type Store interface {
	Save(ctx context.Context, cp models.Checkpoint) error
	Load(ctx context.Context, workflowID string) (*models.Checkpoint, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, workflowID string) error
}

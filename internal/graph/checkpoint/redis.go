package checkpoint

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/agentmesh/core/pkg/models"
)

// Redis is a checkpoint store backed by one Redis string key per workflow
// id (plus a set indexing the known ids), for deployments that want checkpoints shared across multiple graph
// engine processes.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps an existing client. keyPrefix namespaces checkpoint keys
// (e.g. "agentcore:checkpoint:") so the store can share a Redis instance
// with other collaborators.
func NewRedis(client *redis.Client, keyPrefix string) *Redis {
	if keyPrefix == "" {
		keyPrefix = "agentcore:checkpoint:"
	}
	return &Redis{client: client, prefix: keyPrefix}
}

func (r *Redis) key(workflowID string) string { return r.prefix + workflowID }

// indexKey holds the set of known workflow ids so List doesn't need a
// Redis SCAN over the whole keyspace.
func (r *Redis) indexKey() string { return r.prefix + "__index__" }

func (r *Redis) Save(ctx context.Context, cp models.Checkpoint) error {
	data, err := json.Marshal(cp)
	if err != nil {
		return fmt.Errorf("checkpoint: marshal: %w", err)
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, r.key(cp.WorkflowID), data, 0)
	pipe.SAdd(ctx, r.indexKey(), cp.WorkflowID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("checkpoint: redis pipeline: %w", err)
	}
	return nil
}

func (r *Redis) Load(ctx context.Context, workflowID string) (*models.Checkpoint, error) {
	data, err := r.client.Get(ctx, r.key(workflowID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("checkpoint: redis get: %w", err)
	}
	var cp models.Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return nil, fmt.Errorf("checkpoint: unmarshal: %w", err)
	}
	return &cp, nil
}

func (r *Redis) List(ctx context.Context) ([]string, error) {
	ids, err := r.client.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("checkpoint: redis smembers: %w", err)
	}
	return ids, nil
}

func (r *Redis) Delete(ctx context.Context, workflowID string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.key(workflowID))
	pipe.SRem(ctx, r.indexKey(), workflowID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("checkpoint: redis pipeline: %w", err)
	}
	return nil
}

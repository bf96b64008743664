package graph

import (
	"time"

	"github.com/agentmesh/core/internal/backoff"
)

// NodeFunc is a node's execution body: it reads a read-only view of the
// current state and returns a partial state to merge back in.
type NodeFunc func(state map[string]any) (map[string]any, error)

// NodeConfig carries per-node execution policy and metadata.
type NodeConfig struct {
	// Retries is the maximum number of attempts (1-indexed, matching
	// backoff.Do); 0 defaults to 1 (no retrying).
	Retries int
	// RetryPolicy overrides backoff.NodePolicy() for this node.
	RetryPolicy backoff.Policy
	// Timeout bounds a single attempt; 0 means no per-attempt timeout.
	Timeout time.Duration
	// ContinueOnError demotes an exhausted node to skipped instead of
	// failing the whole workflow.
	ContinueOnError bool
	Metadata        map[string]any
}

// Node is a named execution unit in the graph.
type Node struct {
	Name   string
	Fn     NodeFunc
	Config NodeConfig
}

func (n Node) maxAttempts() int {
	if n.Config.Retries <= 0 {
		return 1
	}
	return n.Config.Retries
}

func (n Node) retryPolicy() backoff.Policy {
	if n.Config.RetryPolicy != (backoff.Policy{}) {
		return n.Config.RetryPolicy
	}
	return backoff.NodePolicy()
}

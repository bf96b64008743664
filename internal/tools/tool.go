// Package tools implements the uniform tool-invocation layer agents call
// into: a thread-safe registry, argument validation against a declared
// schema, and dual-dialect schema emission (OpenAI-style function schemas
// and MCP tool schemas) so the same registry can back either wire protocol
// without the tool author caring which one is in play.
package tools

import (
	"context"

	"github.com/agentmesh/core/pkg/models"
)

// Executor is the function a tool author supplies. It receives already
// validated arguments and should never panic; Registry.Execute recovers
// from panics anyway and turns them into a failure result, but a well
// behaved executor reports failure through its return value.
type Executor func(ctx context.Context, args map[string]any) (*models.ToolResult, error)

// Tool pairs a schema with the executor that implements it.
type Tool struct {
	Schema models.ToolSchema
	Run    Executor
}

// Name is a convenience accessor mirroring the schema's name, used as the
// registry key.
func (t Tool) Name() string { return t.Schema.Name }

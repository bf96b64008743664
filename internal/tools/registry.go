package tools

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/agentmesh/core/pkg/models"
)

// Registry is the thread-safe home for every tool an agent runtime can
// invoke. It is the single source of truth a ReAct loop, a Planner, or a
// graph node's tool-calling edge all consult.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds tool under its schema name. It fails with
// ErrAlreadyRegistered rather than silently overwriting, since a tool name
// collision almost always indicates two subsystems registered the same
// capability under the same name by accident.
func (r *Registry) Register(tool Tool) error {
	if tool.Schema.Name == "" {
		return fmt.Errorf("tools: register: schema name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[tool.Schema.Name]; exists {
		return fmt.Errorf("%w: %s", ErrAlreadyRegistered, tool.Schema.Name)
	}
	r.tools[tool.Schema.Name] = tool
	return nil
}

// Unregister removes a tool by name. Unregistering an absent tool is a
// no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tools, name)
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// List returns every registered schema, optionally filtered to one
// category, sorted by name for deterministic output.
func (r *Registry) List(category string) []models.ToolSchema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.ToolSchema, 0, len(r.tools))
	for _, t := range r.tools {
		if category != "" && t.Schema.Category != category {
			continue
		}
		out = append(out, t.Schema)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks args against the named tool's schema without executing
// it.
func (r *Registry) Validate(name string, args map[string]any) error {
	t, ok := r.Get(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return Validate(t.Schema, args)
}

// Execute validates args against the tool's schema, then runs it. Invalid
// args never reach the executor: they come back as a failure result with no
// side effects. A panicking executor is recovered and reported the same
// way, so a misbehaving tool can never take down its caller.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]any) (result *models.ToolResult, err error) {
	t, ok := r.Get(name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if verr := Validate(t.Schema, args); verr != nil {
		return models.Failure(verr.Error()), nil
	}

	defer func() {
		if p := recover(); p != nil {
			result = models.Failure(fmt.Sprintf("tool %q panicked: %v", name, p))
			err = nil
		}
	}()

	res, runErr := t.Run(ctx, args)
	if runErr != nil {
		return models.Failure(runErr.Error()), nil
	}
	if res == nil {
		return models.Succeeded(nil), nil
	}
	return res, nil
}

package graph

import (
	"errors"
	"fmt"
)

// ErrUnknownNode is returned when an edge references a node name that was
// never registered with the builder.
var ErrUnknownNode = errors.New("graph: unknown node")

// ErrNoEntryPoint is returned by Validate/Compile when no entry point has
// been set.
var ErrNoEntryPoint = errors.New("graph: no entry point set")

// ErrAlreadyRunning is returned when Resume is called against a checkpoint
// whose workflow has already completed.
var ErrAlreadyRunning = errors.New("graph: workflow already completed")

// ValidationError collects every defect Validate finds in one builder
// pass, so callers see the whole list instead of the first failure.
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("graph: %d validation error(s): %v", len(e.Errors), e.Errors)
}

// NodeExecutionError wraps the error a node's function returned after its
// retry budget was exhausted.
type NodeExecutionError struct {
	Node string
	Err  error
}

func (e *NodeExecutionError) Error() string {
	return fmt.Sprintf("graph: node %q exhausted retries: %v", e.Node, e.Err)
}

func (e *NodeExecutionError) Unwrap() error { return e.Err }

// RoutingMissing is raised when a conditional edge's router returns a key
// absent from its branch map. It is never retried.
type RoutingMissing struct {
	Node string
	Key  string
}

func (e *RoutingMissing) Error() string {
	return fmt.Sprintf("graph: router at node %q returned unmapped key %q", e.Node, e.Key)
}

// IterationBudgetExceeded is raised when total node activations exceed the
// graph's configured iteration budget.
type IterationBudgetExceeded struct {
	Budget int
}

func (e *IterationBudgetExceeded) Error() string {
	return fmt.Sprintf("graph: exceeded iteration budget of %d node activations", e.Budget)
}

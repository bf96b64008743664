package graph

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/agentmesh/core/internal/backoff"
	"github.com/agentmesh/core/pkg/models"
)

// CompiledGraph is a validated, ready-to-run graph. It is safe to Invoke
// concurrently for distinct workflow ids; a single workflow id must not be
// driven by two concurrent Invoke/Resume calls.
type CompiledGraph struct {
	nodes    map[string]Node
	outgoing map[string][]Edge
	entry    string
	exits    map[string]bool
	schema   *StateSchema
	config   Config
	store    CheckpointStore
}

// work is one pending activation on the worklist.
type work struct {
	node string
}

// run carries the mutable per-invocation state the worklist loop threads
// through; a fresh run is built per Invoke/Stream/Resume call so the
// CompiledGraph itself stays reusable and stateless between runs.
type run struct {
	workflowID string
	state      *StateManager
	worklist   []work
	completed  []string
	activations int
	events     chan models.GraphEvent
}

// Invoke runs the graph to completion (or failure) and returns the final
// result. It is Stream with the event channel drained internally.
func (g *CompiledGraph) Invoke(ctx context.Context, workflowID string, initial map[string]any) (*models.ExecutionResult, error) {
	events, result := g.Stream(ctx, workflowID, initial)
	for range events {
		// drain; Invoke callers don't want the event stream, only the result
	}
	return result(), nil
}

// Stream begins a run and returns a channel of GraphEvents plus a result
// accessor valid once the channel closes. The stream is finite: it closes
// when the workflow reaches a terminal status.
func (g *CompiledGraph) Stream(ctx context.Context, workflowID string, initial map[string]any) (<-chan models.GraphEvent, func() *models.ExecutionResult) {
	r := &run{
		workflowID: workflowID,
		state:      NewStateManager(g.schema, initial),
		worklist:   []work{{node: g.entry}},
		events:     make(chan models.GraphEvent, 16),
	}
	var result *models.ExecutionResult
	var mu sync.Mutex
	done := make(chan struct{})

	go func() {
		defer close(r.events)
		defer close(done)
		res := g.execute(ctx, r)
		mu.Lock()
		result = res
		mu.Unlock()
	}()

	return r.events, func() *models.ExecutionResult {
		<-done
		mu.Lock()
		defer mu.Unlock()
		return result
	}
}

// Resume seeds a run from a prior checkpoint's step counter and completed
// set rather than from scratch, then continues the worklist from the
// checkpointed node frontier.
func (g *CompiledGraph) Resume(ctx context.Context, workflowID string) (*models.ExecutionResult, error) {
	if g.store == nil {
		return nil, fmt.Errorf("graph: Resume requires a CheckpointStore")
	}
	cp, err := g.store.Load(ctx, workflowID)
	if err != nil {
		return nil, fmt.Errorf("graph: load checkpoint: %w", err)
	}
	if cp == nil {
		return nil, fmt.Errorf("graph: no checkpoint for workflow %q", workflowID)
	}
	if cp.Status == models.GraphCompleted {
		return nil, ErrAlreadyRunning
	}

	r := &run{
		workflowID: workflowID,
		state:      NewStateManager(g.schema, cp.State),
		completed:  append([]string(nil), cp.CompletedNodes...),
		// events left nil: Resume returns a result, not a stream; emit is a
		// no-op against a nil channel.
	}
	r.state.step = cp.Step
	r.worklist = g.frontierAfter(cp.CompletedNodes)
	return g.execute(ctx, r), nil
}

// frontierAfter reconstructs the pending worklist from a checkpoint's
// completed-node list by following outgoing FIXED edges one step past the
// last completed node. Conditional/parallel frontiers are not statically
// reconstructible from the completed list alone, so resume is exact only
// for graphs whose in-flight edge at checkpoint time was FIXED.
func (g *CompiledGraph) frontierAfter(completedNodes []string) []work {
	if len(completedNodes) == 0 {
		return []work{{node: g.entry}}
	}
	last := completedNodes[len(completedNodes)-1]
	var next []work
	for _, e := range g.outgoing[last] {
		if e.Kind == EdgeFixed && e.Dst != END {
			next = append(next, work{node: e.Dst})
		}
	}
	return next
}

func (g *CompiledGraph) execute(ctx context.Context, r *run) *models.ExecutionResult {
	var cancel context.CancelFunc
	if g.config.TotalTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, g.config.TotalTimeout)
		defer cancel()
	}

	for len(r.worklist) > 0 {
		if err := ctx.Err(); err != nil {
			return g.fail(ctx, r, models.StatusCancelled, err)
		}

		item := r.worklist[0]
		r.worklist = r.worklist[1:]

		r.activations++
		if r.activations > g.config.IterationBudget {
			return g.fail(ctx, r, models.StatusIterationExhausted, &IterationBudgetExceeded{Budget: g.config.IterationBudget})
		}

		node, ok := g.nodes[item.node]
		if !ok {
			return g.fail(ctx, r, models.StatusFailed, fmt.Errorf("%w: %s", ErrUnknownNode, item.node))
		}

		partial, err := g.runNode(ctx, node, r)
		state := r.state.Snapshot()
		if err != nil {
			if !node.Config.ContinueOnError {
				return g.fail(ctx, r, models.StatusFailed, err)
			}
			g.emit(r, models.GraphEvent{Kind: models.EventNodeFailed, Node: node.Name, Err: err.Error()})
		} else {
			state = r.state.Merge(partial)
			g.emit(r, models.GraphEvent{Kind: models.EventNodeCompleted, Node: node.Name, PartialState: partial})
			g.emit(r, models.GraphEvent{Kind: models.EventStateUpdated, State: state})
		}
		r.completed = append(r.completed, node.Name)
		g.checkpoint(ctx, r, models.GraphRunning)

		nexts, routeErr := g.nextWork(ctx, r, node.Name, state)
		if routeErr != nil {
			return g.fail(ctx, r, models.StatusFailed, routeErr)
		}
		r.worklist = append(r.worklist, nexts...)

		if g.exits[node.Name] && len(r.worklist) == 0 {
			break
		}
	}

	finalState := r.state.Snapshot()
	g.checkpoint(ctx, r, models.GraphCompleted)
	g.emit(r, models.GraphEvent{Kind: models.EventWorkflowComplete, State: finalState})
	return &models.ExecutionResult{Status: models.StatusCompleted, State: finalState, CompletedNodes: r.completed}
}

func (g *CompiledGraph) runNode(ctx context.Context, node Node, r *run) (map[string]any, error) {
	g.emit(r, models.GraphEvent{Kind: models.EventNodeStarted, Node: node.Name})

	result, err := backoff.Do(ctx, node.retryPolicy(), node.maxAttempts(), backoff.AlwaysRetry, func(int) (map[string]any, error) {
		attemptCtx := ctx
		if node.Config.Timeout > 0 {
			var cancel context.CancelFunc
			attemptCtx, cancel = context.WithTimeout(ctx, node.Config.Timeout)
			defer cancel()
		}
		if err := attemptCtx.Err(); err != nil {
			return nil, err
		}
		return node.Fn(r.state.Snapshot())
	})
	if err != nil {
		return nil, &NodeExecutionError{Node: node.Name, Err: err}
	}
	return result.Value, nil
}

func (g *CompiledGraph) nextWork(ctx context.Context, r *run, completedNode string, state map[string]any) ([]work, error) {
	var next []work
	for _, e := range g.outgoing[completedNode] {
		switch e.Kind {
		case EdgeFixed:
			if e.Dst != END {
				next = append(next, work{node: e.Dst})
			}
		case EdgeConditional:
			key, err := e.Router(state)
			if err != nil {
				return nil, fmt.Errorf("graph: router at node %q: %w", completedNode, err)
			}
			target, ok := e.Branch[key]
			if !ok {
				return nil, &RoutingMissing{Node: completedNode, Key: key}
			}
			if target != END {
				next = append(next, work{node: target})
			}
		case EdgeParallel:
			results, err := g.runParallelBranch(ctx, r, e.Fanout)
			if err != nil {
				return nil, err
			}
			next = append(next, results...)
		}
	}
	return next, nil
}

// branchOutcome is one parallel branch's completion. Outcomes are consumed
// in the order they arrive on the results channel, so they merge in
// completion order rather than fan-out order.
type branchOutcome struct {
	node    string
	partial map[string]any
	err     error
}

// joinTargets returns, for one fan-out's target set, how many of those
// targets hold a direct FIXED edge into each shared downstream node. A
// count of 2 or more marks that node as a join: it must not run until every
// contributing branch has merged, rather than once per branch that reaches
// it.
func (g *CompiledGraph) joinTargets(targets []string) map[string]int {
	expected := make(map[string]int)
	for _, name := range targets {
		for _, e := range g.outgoing[name] {
			if e.Kind == EdgeFixed && e.Dst != END {
				expected[e.Dst]++
			}
		}
	}
	return expected
}

// runParallelBranch runs every target node concurrently against
// independent read-views of the canonical state, merges each partial
// result into the canonical state as it completes (so merge order follows
// completion order, not fan-out order), and returns the downstream work
// generated by each branch's own outgoing edges. A downstream node reached
// by a direct FIXED edge from two or more targets is a join: it is held
// back, via an expected/arrived count, until every contributing branch has
// merged, and then enqueued exactly once. Nodes reached through
// conditional or nested parallel edges, or by only one branch, are
// enqueued as soon as their branch completes.
func (g *CompiledGraph) runParallelBranch(ctx context.Context, r *run, targets []string) ([]work, error) {
	results := make(chan branchOutcome, len(targets))
	var wg sync.WaitGroup
	for _, name := range targets {
		node, ok := g.nodes[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownNode, name)
		}
		wg.Add(1)
		go func(node Node) {
			defer wg.Done()
			partial, err := g.runNode(ctx, node, r)
			results <- branchOutcome{node: node.Name, partial: partial, err: err}
		}(node)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	expected := g.joinTargets(targets)
	arrived := make(map[string]int, len(expected))

	var next []work
	for outcome := range results {
		state := r.state.Snapshot()
		if outcome.err != nil {
			node := g.nodes[outcome.node]
			if !node.Config.ContinueOnError {
				return nil, outcome.err
			}
			g.emit(r, models.GraphEvent{Kind: models.EventNodeFailed, Node: outcome.node, Err: outcome.err.Error()})
		} else {
			state = r.state.Merge(outcome.partial)
			g.emit(r, models.GraphEvent{Kind: models.EventNodeCompleted, Node: outcome.node, PartialState: outcome.partial})
			g.emit(r, models.GraphEvent{Kind: models.EventStateUpdated, State: state})
		}
		r.completed = append(r.completed, outcome.node)

		branchNext, err := g.nextWork(ctx, r, outcome.node, state)
		if err != nil {
			return nil, err
		}
		for _, w := range branchNext {
			if expected[w.node] >= 2 {
				arrived[w.node]++
				if arrived[w.node] < expected[w.node] {
					continue
				}
			}
			next = append(next, w)
		}
	}
	return next, nil
}

func (g *CompiledGraph) emit(r *run, ev models.GraphEvent) {
	if r.events == nil {
		return
	}
	ev.Timestamp = time.Now()
	select {
	case r.events <- ev:
	default:
		// Events channel is buffered generously for normal fan-out sizes;
		// a full buffer means nobody is draining Stream, which is a caller
		// bug. Drop rather than block the worklist loop.
	}
}

func (g *CompiledGraph) checkpoint(ctx context.Context, r *run, status models.GraphStatus) {
	if !g.config.Persist || g.store == nil {
		return
	}
	cp := models.Checkpoint{
		WorkflowID:     r.workflowID,
		Step:           r.state.Step(),
		State:          r.state.Snapshot(),
		CompletedNodes: append([]string(nil), r.completed...),
		Status:         status,
		Timestamp:      time.Now(),
	}
	_ = g.store.Save(ctx, cp) // best-effort persistence: a Save error is ignored and does not fail the run
}

func (g *CompiledGraph) fail(ctx context.Context, r *run, status models.RunStatus, err error) *models.ExecutionResult {
	graphStatus := models.GraphFailed
	if status == models.StatusCancelled {
		graphStatus = models.GraphCancelled
	}
	g.checkpoint(ctx, r, graphStatus)
	g.emit(r, models.GraphEvent{Kind: models.EventWorkflowFailed, Err: err.Error()})
	kind := "Execution"
	switch err.(type) {
	case *IterationBudgetExceeded:
		kind = "IterationBudget"
	case *RoutingMissing:
		kind = "RoutingMissing"
	case *NodeExecutionError:
		kind = "Execution"
	}
	if status == models.StatusCancelled {
		kind = "Cancellation"
	}
	return &models.ExecutionResult{
		Status:         status,
		State:          r.state.Snapshot(),
		CompletedNodes: r.completed,
		Err:            err.Error(),
		ErrKind:        kind,
	}
}

package graph

import (
	"fmt"
	"sort"
	"time"
)

// DefaultIterationBudget caps total node activations per run, guarding
// against a conditional edge that loops forever.
const DefaultIterationBudget = 100

// Config is a compiled graph's execution configuration.
type Config struct {
	IterationBudget int
	TotalTimeout    time.Duration
	// Persist enables checkpointing through the supplied Store on every
	// successful merge. Nil Store with Persist true is a builder error
	// surfaced at Compile.
	Persist bool
}

// Builder assembles a graph's nodes and edges before validation/compile.
type Builder struct {
	nodes   map[string]Node
	order   []string
	edges   []Edge
	entry   string
	exits   map[string]bool
	schema  *StateSchema
}

// NewBuilder starts an empty graph builder, optionally typed by schema (nil
// is valid: every field defaults to overwrite semantics).
func NewBuilder(schema *StateSchema) *Builder {
	return &Builder{
		nodes: make(map[string]Node),
		exits: make(map[string]bool),
		schema: schema,
	}
}

// AddNode registers a named node. Name must be unique.
func (b *Builder) AddNode(name string, fn NodeFunc, config NodeConfig) error {
	if name == "" {
		return fmt.Errorf("graph: node name must not be empty")
	}
	if _, exists := b.nodes[name]; exists {
		return fmt.Errorf("graph: duplicate node name %q", name)
	}
	b.nodes[name] = Node{Name: name, Fn: fn, Config: config}
	b.order = append(b.order, name)
	return nil
}

// AddEdge adds a FIXED edge from src to dst.
func (b *Builder) AddEdge(src, dst string) {
	b.edges = append(b.edges, Edge{Kind: EdgeFixed, Src: src, Dst: dst})
}

// AddConditionalEdge adds a CONDITIONAL edge: router picks a key at run
// time, branch resolves that key to a target (possibly END).
func (b *Builder) AddConditionalEdge(src string, router RouterFunc, branch map[string]string) {
	b.edges = append(b.edges, Edge{Kind: EdgeConditional, Src: src, Router: router, Branch: branch})
}

// AddParallelEdge fans out from src to every target concurrently.
func (b *Builder) AddParallelEdge(src string, targets []string) {
	b.edges = append(b.edges, Edge{Kind: EdgeParallel, Src: src, Fanout: targets})
}

// SetEntryPoint designates the single node the worklist seeds with.
func (b *Builder) SetEntryPoint(name string) { b.entry = name }

// SetExitPoint marks name as a valid terminal node; a run succeeds once any
// exit point is reached and the worklist has nothing left for it.
func (b *Builder) SetExitPoint(name string) { b.exits[name] = true }

// Validate checks name existence, unique entry, reachability from entry,
// and (where statically analysable) branch-map totality. It always returns
// every error found rather than stopping at the first.
func (b *Builder) Validate() *ValidationError {
	var errs []string

	if b.entry == "" {
		errs = append(errs, ErrNoEntryPoint.Error())
	} else if _, ok := b.nodes[b.entry]; !ok {
		errs = append(errs, fmt.Sprintf("entry point %q is not a registered node", b.entry))
	}

	for _, e := range b.edges {
		if _, ok := b.nodes[e.Src]; !ok {
			errs = append(errs, fmt.Sprintf("edge source %q is not a registered node", e.Src))
		}
		switch e.Kind {
		case EdgeFixed:
			if e.Dst != END {
				if _, ok := b.nodes[e.Dst]; !ok {
					errs = append(errs, fmt.Sprintf("edge target %q is not a registered node", e.Dst))
				}
			}
		case EdgeConditional:
			if len(e.Branch) == 0 {
				errs = append(errs, fmt.Sprintf("conditional edge from %q has an empty branch map", e.Src))
			}
			for key, target := range e.Branch {
				if target != END {
					if _, ok := b.nodes[target]; !ok {
						errs = append(errs, fmt.Sprintf("conditional edge from %q: branch %q targets unregistered node %q", e.Src, key, target))
					}
				}
			}
		case EdgeParallel:
			for _, target := range e.Fanout {
				if _, ok := b.nodes[target]; !ok {
					errs = append(errs, fmt.Sprintf("parallel edge from %q targets unregistered node %q", e.Src, target))
				}
			}
		}
	}

	for exit := range b.exits {
		if _, ok := b.nodes[exit]; !ok {
			errs = append(errs, fmt.Sprintf("exit point %q is not a registered node", exit))
		}
	}

	if b.entry != "" {
		if reachable := b.reachableFrom(b.entry); len(b.exits) > 0 {
			reachesExit := false
			for exit := range b.exits {
				if reachable[exit] {
					reachesExit = true
					break
				}
			}
			if !reachesExit {
				errs = append(errs, "no path from entry point reaches any exit point")
			}
		}
		for name := range b.nodes {
			if !b.reachableFrom(b.entry)[name] {
				errs = append(errs, fmt.Sprintf("node %q is unreachable from the entry point", name))
			}
		}
	}

	sort.Strings(errs)
	if len(errs) > 0 {
		return &ValidationError{Errors: errs}
	}
	return nil
}

func (b *Builder) reachableFrom(start string) map[string]bool {
	seen := map[string]bool{start: true}
	queue := []string{start}
	adj := b.adjacency()
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if next == END || seen[next] {
				continue
			}
			seen[next] = true
			queue = append(queue, next)
		}
	}
	return seen
}

func (b *Builder) adjacency() map[string][]string {
	adj := make(map[string][]string)
	for _, e := range b.edges {
		switch e.Kind {
		case EdgeFixed:
			adj[e.Src] = append(adj[e.Src], e.Dst)
		case EdgeConditional:
			for _, target := range e.Branch {
				adj[e.Src] = append(adj[e.Src], target)
			}
		case EdgeParallel:
			adj[e.Src] = append(adj[e.Src], e.Fanout...)
		}
	}
	return adj
}

// Compile validates the graph and returns a CompiledGraph ready for
// Invoke/Stream/Resume. A nil store with Persist true is a builder error.
func (b *Builder) Compile(config Config, store CheckpointStore) (*CompiledGraph, error) {
	if verr := b.Validate(); verr != nil {
		return nil, verr
	}
	if config.Persist && store == nil {
		return nil, fmt.Errorf("graph: Persist is set but no CheckpointStore was supplied")
	}
	if config.IterationBudget <= 0 {
		config.IterationBudget = DefaultIterationBudget
	}

	outgoing := make(map[string][]Edge)
	for _, e := range b.edges {
		outgoing[e.Src] = append(outgoing[e.Src], e)
	}

	return &CompiledGraph{
		nodes:    b.nodes,
		outgoing: outgoing,
		entry:    b.entry,
		exits:    b.exits,
		schema:   b.schema,
		config:   config,
		store:    store,
	}, nil
}

package graph

import (
	"sync"
	"time"

	"github.com/agentmesh/core/pkg/models"
)

// FieldSpec declares the merge strategy for one state field. Fields with no
// explicit spec default to MergeOverwrite.
type FieldSpec struct {
	Name     string
	Strategy models.MergeStrategy
}

// StateSchema is the set of field specs a graph was compiled with. It is
// optional: unknown fields fall back to overwrite semantics so a node can
// introduce a new field without a builder-time declaration.
type StateSchema struct {
	fields map[string]models.MergeStrategy
}

// NewStateSchema builds a schema from field specs.
func NewStateSchema(specs ...FieldSpec) *StateSchema {
	s := &StateSchema{fields: make(map[string]models.MergeStrategy, len(specs))}
	for _, spec := range specs {
		s.fields[spec.Name] = spec.Strategy
	}
	return s
}

func (s *StateSchema) strategyFor(field string) models.MergeStrategy {
	if s == nil {
		return models.MergeOverwrite
	}
	if strategy, ok := s.fields[field]; ok && strategy != "" {
		return strategy
	}
	return models.MergeOverwrite
}

// StateManager owns the canonical workflow state and its snapshot history.
// It is accessed from a single scheduler loop; parallel branches read a
// cloned view and re-enter only through Merge, which is itself guarded by a
// mutex so completion-order merges serialize correctly.
type StateManager struct {
	mu        sync.Mutex
	schema    *StateSchema
	state     map[string]any
	step      int
	snapshots []models.StateSnapshot
}

// NewStateManager seeds a manager with the invoker's initial arguments.
func NewStateManager(schema *StateSchema, initial map[string]any) *StateManager {
	state := make(map[string]any, len(initial))
	for k, v := range initial {
		state[k] = v
	}
	return &StateManager{schema: schema, state: state}
}

// Snapshot returns a deep-enough copy of the current state for a node or
// parallel branch to read without racing the next merge.
func (m *StateManager) Snapshot() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneState(m.state)
}

// Step returns the current step counter.
func (m *StateManager) Step() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.step
}

// Merge folds partial into the canonical state, one field at a time, using
// the schema's declared strategy per field. It returns the post-merge state
// and bumps the step counter, recording a snapshot.
func (m *StateManager) Merge(partial map[string]any) map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()
	for field, value := range partial {
		m.state[field] = mergeField(m.schema.strategyFor(field), m.state[field], value)
	}
	m.step++
	m.snapshots = append(m.snapshots, models.StateSnapshot{
		Step:      m.step,
		Timestamp: time.Now(),
		State:     cloneState(m.state),
	})
	return cloneState(m.state)
}

// Snapshots returns the append-only history of merges so far.
func (m *StateManager) Snapshots() []models.StateSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.StateSnapshot, len(m.snapshots))
	copy(out, m.snapshots)
	return out
}

func mergeField(strategy models.MergeStrategy, old, partial any) any {
	switch strategy {
	case models.MergeKeep:
		if old != nil {
			return old
		}
		return partial
	case models.MergeAppend:
		return appendField(old, partial)
	case models.MergeDeep:
		return deepMergeField(old, partial)
	case models.MergeOverwrite:
		fallthrough
	default:
		return partial
	}
}

func appendField(old, partial any) any {
	oldList, oldOK := toSlice(old)
	partialList, partialOK := toSlice(partial)
	if !oldOK && old != nil {
		oldList = []any{old}
	}
	if !partialOK && partial != nil {
		partialList = []any{partial}
	}
	out := make([]any, 0, len(oldList)+len(partialList))
	out = append(out, oldList...)
	out = append(out, partialList...)
	return out
}

func toSlice(v any) ([]any, bool) {
	switch t := v.(type) {
	case []any:
		return t, true
	case nil:
		return nil, true
	default:
		return nil, false
	}
}

func deepMergeField(old, partial any) any {
	oldMap, oldOK := old.(map[string]any)
	partialMap, partialOK := partial.(map[string]any)
	if !partialOK {
		return partial
	}
	if !oldOK {
		oldMap = map[string]any{}
	}
	out := make(map[string]any, len(oldMap)+len(partialMap))
	for k, v := range oldMap {
		out[k] = v
	}
	for k, v := range partialMap {
		out[k] = v
	}
	return out
}

func cloneState(state map[string]any) map[string]any {
	out := make(map[string]any, len(state))
	for k, v := range state {
		out[k] = v
	}
	return out
}

package checkpoint

import (
	"context"
	"sort"
	"sync"

	"github.com/agentmesh/core/pkg/models"
)

// Memory is an in-process checkpoint store, suitable for tests and
// single-run demos where durability across restarts doesn't matter.
type Memory struct {
	mu    sync.RWMutex
	byID  map[string]models.Checkpoint
}

// NewMemory builds an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]models.Checkpoint)}
}

func (m *Memory) Save(_ context.Context, cp models.Checkpoint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byID[cp.WorkflowID] = cp
	return nil
}

func (m *Memory) Load(_ context.Context, workflowID string) (*models.Checkpoint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	cp, ok := m.byID[workflowID]
	if !ok {
		return nil, nil
	}
	out := cp
	return &out, nil
}

func (m *Memory) List(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.byID))
	for id := range m.byID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (m *Memory) Delete(_ context.Context, workflowID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.byID, workflowID)
	return nil
}

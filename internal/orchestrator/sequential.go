package orchestrator

import (
	"context"
	"fmt"
)

// SequentialResult is one participant's contribution to a sequential run.
type SequentialResult struct {
	AgentID string
	Output  string
}

// Sequential runs every roster participant in registration order, each
// receiving the previous participant's output appended to task.
func (o *Orchestrator) Sequential(ctx context.Context, task string) ([]SequentialResult, error) {
	ids := o.Roster.IDs()
	if len(ids) == 0 {
		return nil, ErrEmptyRoster
	}

	results := make([]SequentialResult, 0, len(ids))
	current := task
	for _, id := range ids {
		p, err := o.Roster.get(id)
		if err != nil {
			return results, err
		}
		output, err := p.Chat(ctx, current)
		if err != nil {
			return results, fmt.Errorf("sequential: agent %s: %w", id, err)
		}
		results = append(results, SequentialResult{AgentID: id, Output: output})
		current = fmt.Sprintf("%s\n\n%s", task, output)
	}
	return results, nil
}

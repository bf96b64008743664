package orchestrator

import (
	"context"
	"fmt"
	"sync"
)

// ParallelResult is one participant's contribution to a parallel run. Err
// is set rather than aborting the whole fan-out, so one participant's
// failure doesn't discard the others' output.
type ParallelResult struct {
	AgentID string
	Output  string
	Err     error
}

// Parallel dispatches task to every roster participant concurrently and
// collects all outputs, preserving roster order in the returned slice
// regardless of completion order.
func (o *Orchestrator) Parallel(ctx context.Context, task string) ([]ParallelResult, error) {
	ids := o.Roster.IDs()
	if len(ids) == 0 {
		return nil, ErrEmptyRoster
	}

	results := make([]ParallelResult, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			results[i].AgentID = id
			p, err := o.Roster.get(id)
			if err != nil {
				results[i].Err = err
				return
			}
			output, err := p.Chat(ctx, task)
			if err != nil {
				results[i].Err = fmt.Errorf("parallel: agent %s: %w", id, err)
				return
			}
			results[i].Output = output
		}(i, id)
	}
	wg.Wait()
	return results, nil
}

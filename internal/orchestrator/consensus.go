package orchestrator

import (
	"context"
	"fmt"

	"github.com/agentmesh/core/pkg/models"
)

// ConsensusOptions configures a Consensus run.
type ConsensusOptions struct {
	MaxRounds int
	// Threshold is the minimum judge confidence, in (0,1], at which a
	// CONSENSUS verdict ends the run; 0 defaults to 0.6.
	Threshold float64
}

// ConsensusResult is the outcome of a Consensus run.
type ConsensusResult struct {
	Rounds     int
	Converged  bool
	Transcript []models.DebateTurn
	Positions  map[string]string // agent id -> final position
}

// Consensus iteratively polls every participant, has the judge evaluate the
// whole transcript after each round, and stops once the judge returns
// CONSENSUS with confidence at least Threshold or MaxRounds is exhausted.
// Positions are not grouped into equivalence classes, and the fraction of
// participants sharing a position is not counted.
func (o *Orchestrator) Consensus(ctx context.Context, task string, opts ConsensusOptions) (*ConsensusResult, error) {
	ids := o.Roster.IDs()
	if len(ids) == 0 {
		return nil, ErrEmptyRoster
	}
	if o.Judge == nil {
		return nil, ErrNoJudge
	}
	maxRounds := opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = 1
	}
	threshold := opts.Threshold
	if threshold <= 0 {
		threshold = 0.6
	}

	result := &ConsensusResult{Positions: make(map[string]string)}

	for round := 1; round <= maxRounds; round++ {
		result.Rounds = round
		for _, id := range ids {
			p, err := o.Roster.get(id)
			if err != nil {
				return result, err
			}
			prompt := fmt.Sprintf("Task: %s\n\nState your current position in one or two sentences.", task)
			output, err := p.Chat(ctx, prompt)
			if err != nil {
				return result, fmt.Errorf("consensus: agent %s: %w", id, err)
			}
			result.Positions[id] = output
			result.Transcript = append(result.Transcript, turnMessage(id, output, round))
		}

		verdict, err := o.Judge.Evaluate(ctx, result.Transcript, round)
		if err != nil {
			return result, fmt.Errorf("consensus: judge evaluation: %w", err)
		}
		if verdict.Decision == models.DecisionConsensus && verdict.Confidence >= threshold {
			result.Converged = true
			return result, nil
		}
	}
	return result, nil
}

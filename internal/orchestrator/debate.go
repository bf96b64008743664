package orchestrator

import (
	"context"
	"fmt"

	"github.com/agentmesh/core/pkg/models"
)

// DefaultDebateConfidenceThreshold is the judge confidence required to
// terminate a debate early on CONSENSUS or DIVERGENCE.
const DefaultDebateConfidenceThreshold = 0.7

// DebateResult is the outcome of a Debate run: the full transcript, the
// judge's final verdict, and an LLM-produced summary.
type DebateResult struct {
	Transcript []models.DebateTurn
	Verdict    *models.Judgment
	Summary    string
}

// DebateOptions configures a Debate run.
type DebateOptions struct {
	Rounds              int
	ConfidenceThreshold float64
	// Summarizer produces the final summary from the transcript; if nil,
	// the last turn's content is used verbatim.
	Summarizer func(ctx context.Context, transcript []models.DebateTurn) (string, error)
}

// Debate runs up to opts.Rounds rounds where every participant contributes
// once per round, consulting the judge after each round and terminating
// early on CONSENSUS or DIVERGENCE at or above the confidence threshold.
func (o *Orchestrator) Debate(ctx context.Context, task string, opts DebateOptions) (*DebateResult, error) {
	ids := o.Roster.IDs()
	if len(ids) == 0 {
		return nil, ErrEmptyRoster
	}
	if o.Judge == nil {
		return nil, ErrNoJudge
	}
	threshold := opts.ConfidenceThreshold
	if threshold <= 0 {
		threshold = DefaultDebateConfidenceThreshold
	}
	rounds := opts.Rounds
	if rounds <= 0 {
		rounds = 1
	}

	result := &DebateResult{}

	for round := 1; round <= rounds; round++ {
		for _, id := range ids {
			p, err := o.Roster.get(id)
			if err != nil {
				return result, err
			}
			prompt := fmt.Sprintf("Debate task: %s\n\nRespond with your position for round %d.", task, round)
			output, err := p.Chat(ctx, prompt)
			if err != nil {
				return result, fmt.Errorf("debate: agent %s: %w", id, err)
			}
			result.Transcript = append(result.Transcript, turnMessage(id, output, round))
		}

		verdict, err := o.Judge.Evaluate(ctx, result.Transcript, round)
		if err != nil {
			return result, fmt.Errorf("debate: judge evaluation: %w", err)
		}
		result.Verdict = verdict
		if verdict.Confidence >= threshold &&
			(verdict.Decision == models.DecisionConsensus || verdict.Decision == models.DecisionDivergence) {
			break
		}
		if round == rounds {
			result.Verdict = &models.Judgment{
				Decision:   models.DecisionTimeout,
				Confidence: verdict.Confidence,
				Reason:     "debate exhausted its round budget without reaching consensus or divergence",
			}
		}
	}

	summary, err := o.summarize(ctx, result.Transcript, opts.Summarizer)
	if err != nil {
		return result, fmt.Errorf("debate: summary: %w", err)
	}
	result.Summary = summary
	return result, nil
}

func (o *Orchestrator) summarize(ctx context.Context, transcript []models.DebateTurn, summarizer func(context.Context, []models.DebateTurn) (string, error)) (string, error) {
	if summarizer != nil {
		return summarizer(ctx, transcript)
	}
	if len(transcript) == 0 {
		return "", nil
	}
	return transcript[len(transcript)-1].Content, nil
}

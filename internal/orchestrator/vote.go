package orchestrator

import (
	"context"
	"fmt"
	"strings"
)

// Ballot is one participant's vote: the chosen option and their rationale.
type Ballot struct {
	AgentID   string
	Option    string
	Rationale string
}

// VoteResult is the outcome of a Vote run.
type VoteResult struct {
	Ballots []Ballot
	Winner  string
	Tally   map[string]int
}

// Vote asks every participant to pick one of options and give a rationale,
// then returns the majority choice. Ties are broken by the first vote
// received for whichever tied option appears earliest in the ballot
// order, matching the roster's registration order.
func (o *Orchestrator) Vote(ctx context.Context, task string, options []string) (*VoteResult, error) {
	ids := o.Roster.IDs()
	if len(ids) == 0 {
		return nil, ErrEmptyRoster
	}
	if len(options) == 0 {
		return nil, fmt.Errorf("orchestrator: vote requires at least one option")
	}

	prompt := fmt.Sprintf(
		"Task: %s\n\nChoose exactly one of the following options and justify it:\n%s\n\nRespond as: Option: <choice>\nRationale: <why>",
		task, strings.Join(options, ", "),
	)

	result := &VoteResult{Tally: make(map[string]int)}
	for _, id := range ids {
		p, err := o.Roster.get(id)
		if err != nil {
			return result, err
		}
		reply, err := p.Chat(ctx, prompt)
		if err != nil {
			return result, fmt.Errorf("vote: agent %s: %w", id, err)
		}
		ballot := Ballot{AgentID: id}
		ballot.Option, ballot.Rationale = parseBallot(reply, options)
		result.Ballots = append(result.Ballots, ballot)
		if ballot.Option != "" {
			result.Tally[ballot.Option]++
		}
	}

	result.Winner = majority(result.Ballots, result.Tally)
	return result, nil
}

func parseBallot(reply string, options []string) (option, rationale string) {
	lines := strings.Split(reply, "\n")
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if v, ok := strings.CutPrefix(line, "Option:"); ok {
			option = matchOption(strings.TrimSpace(v), options)
		}
		if v, ok := strings.CutPrefix(line, "Rationale:"); ok {
			rationale = strings.TrimSpace(v)
		}
	}
	if option == "" {
		option = matchOption(reply, options)
	}
	return option, rationale
}

func matchOption(text string, options []string) string {
	lower := strings.ToLower(text)
	for _, o := range options {
		if strings.Contains(lower, strings.ToLower(o)) {
			return o
		}
	}
	return ""
}

// majority picks the option with the highest vote count, breaking ties by
// whichever tied option's first ballot was cast earliest.
func majority(ballots []Ballot, tally map[string]int) string {
	best := ""
	bestCount := -1
	for _, b := range ballots {
		if b.Option == "" {
			continue
		}
		count := tally[b.Option]
		if count > bestCount {
			best = b.Option
			bestCount = count
		}
	}
	return best
}

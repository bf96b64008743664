// Package orchestrator drives a roster of agents through one of five
// coordination modes -- sequential, parallel, debate, vote, and consensus
// -- built on top of the agent runtime and the ReAct judge.
package orchestrator

import (
	"context"
	"fmt"

	"github.com/agentmesh/core/internal/agent"
	"github.com/agentmesh/core/pkg/models"
)

// Participant is the minimal shape orchestration modes need from a roster
// member: a single-turn chat call. Its identity is the id it is registered
// under in the Roster. *agent.BaseAgent satisfies this directly.
type Participant interface {
	Chat(ctx context.Context, message string, opts ...agent.ChatOption) (string, error)
}

// Roster pairs participant ids with their agents, preserving registration
// order so Sequential and Vote's tie-break rules are deterministic.
type Roster struct {
	ids   []string
	byID  map[string]Participant
}

// NewRoster builds an empty roster.
func NewRoster() *Roster {
	return &Roster{byID: make(map[string]Participant)}
}

// Add registers a participant under id, preserving insertion order.
func (r *Roster) Add(id string, p Participant) {
	if _, exists := r.byID[id]; !exists {
		r.ids = append(r.ids, id)
	}
	r.byID[id] = p
}

// IDs returns participant ids in registration order.
func (r *Roster) IDs() []string {
	out := make([]string, len(r.ids))
	copy(out, r.ids)
	return out
}

func (r *Roster) get(id string) (Participant, error) {
	p, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownParticipant, id)
	}
	return p, nil
}

// Orchestrator owns a roster and drives it through one coordination mode
// per call; modes are stateless with respect to each other so the same
// Orchestrator can run Sequential then Vote on the same roster.
type Orchestrator struct {
	Roster *Roster
	Judge  *agent.Judge
}

// New builds an Orchestrator around roster. judge may be nil for modes
// that don't need arbitration (Sequential, Parallel).
func New(roster *Roster, judge *agent.Judge) *Orchestrator {
	return &Orchestrator{Roster: roster, Judge: judge}
}

// turnMessage renders one agent's turn for inclusion in a debate or
// consensus transcript.
func turnMessage(agentID, content string, round int) models.DebateTurn {
	return models.DebateTurn{AgentID: agentID, Content: content, Round: round}
}

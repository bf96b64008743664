package orchestrator

import "errors"

var (
	// ErrUnknownParticipant is returned when a roster lookup misses.
	ErrUnknownParticipant = errors.New("orchestrator: unknown participant")
	// ErrEmptyRoster is returned by any mode invoked with no participants.
	ErrEmptyRoster = errors.New("orchestrator: roster is empty")
	// ErrNoJudge is returned by Debate and Consensus when no judge was
	// configured.
	ErrNoJudge = errors.New("orchestrator: no judge configured")
)

package agent

import "errors"

var (
	// ErrNoLLM is returned when an agent is asked to chat or execute without
	// an LLM client configured.
	ErrNoLLM = errors.New("agent: no LLM client configured")
	// ErrIterationExhausted marks a ReAct run that hit max_iterations
	// without reaching a Final Answer.
	ErrIterationExhausted = errors.New("agent: iteration budget exhausted")
)

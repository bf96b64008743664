package tools

import "errors"

var (
	// ErrAlreadyRegistered is returned by Register when a tool with the same
	// name is already present.
	ErrAlreadyRegistered = errors.New("tools: name already registered")
	// ErrNotFound is returned by Validate and Execute when no tool matches
	// name; Get reports a miss through its bool result instead.
	ErrNotFound = errors.New("tools: not found")
)

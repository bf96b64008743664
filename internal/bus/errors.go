package bus

import "errors"

var (
	// ErrUnknownReceiver is returned by send when the receiver id is not
	// registered.
	ErrUnknownReceiver = errors.New("bus: unknown receiver")
	// ErrAlreadyRegistered is returned by register for a duplicate agent id.
	ErrAlreadyRegistered = errors.New("bus: agent already registered")
	// ErrBackpressure is returned by Enqueue when the inbox is full and the
	// incoming message's priority doesn't justify evicting a queued one.
	ErrBackpressure = errors.New("bus: inbox backpressure")
	// ErrInboxClosed is returned by Enqueue after the receiver has been
	// unregistered.
	ErrInboxClosed = errors.New("bus: inbox closed")
	// ErrReplyTimeout is returned by RequestReply when no matching response
	// arrives before the deadline.
	ErrReplyTimeout = errors.New("bus: reply timed out")
)

package maestro

import "context"

// Backend delivers set-target commands to a Maestro.
type Backend interface {
	// Send issues one set-target command for a channel. Transport and
	// device trouble is reported inside the CommandResult, never as a
	// Go error; the error return is reserved for context cancellation.
	// Arguments are assumed validated by the caller.
	Send(ctx context.Context, channel, target int) (CommandResult, error)

	// Close releases the transport. Safe to call more than once.
	Close() error
}

package ratelimit

import "context"

// Limiter enforces the global message-per-second ceiling across all senders.
type Limiter interface {
	// Acquire blocks until a send slot frees within the trailing one-second
	// window, records the acquisition, and returns. It fails only when the
	// context is done.
	Acquire(ctx context.Context) error
}

package events

import "context"

// Publisher publishes envelopes to the event bus.
type Publisher interface {
	Publish(ctx context.Context, env Envelope) error
}

// Handler processes one received envelope. Returning an error causes the
// envelope to be redelivered where the transport supports it.
type Handler func(ctx context.Context, env Envelope) error

// Subscriber delivers envelopes from the event bus. Receive blocks until
// the context is cancelled.
type Subscriber interface {
	Receive(ctx context.Context, fn Handler) error
}

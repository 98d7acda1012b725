package events

import (
	"context"
	"sync"
)

// Bus is an in-process event bus implementing Publisher and Subscriber.
// This is intended for tests and single-binary development setups.
// Production should use the Pub/Sub pair.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Envelope
	next int
}

// NewBus creates a new in-process event bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Envelope)}
}

// Publish delivers the envelope to every subscriber. A subscriber that has
// fallen more than a buffer behind misses the envelope rather than
// blocking the publisher.
func (b *Bus) Publish(_ context.Context, env Envelope) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- env:
		default:
		}
	}
	return nil
}

// Receive processes envelopes until the context is cancelled.
func (b *Bus) Receive(ctx context.Context, fn Handler) error {
	ch := make(chan Envelope, 64)

	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	defer func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case env := <-ch:
			// Redelivery is not supported in-process; errors are dropped.
			_ = fn(ctx, env)
		}
	}
}

// Ensure Bus implements both sides of the bus.
var (
	_ Publisher  = (*Bus)(nil)
	_ Subscriber = (*Bus)(nil)
)

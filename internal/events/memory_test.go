package events_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dearxcorex/MakeItFast/internal/events"
)

func TestBus_PublishReachesSubscriber(t *testing.T) {
	bus := events.NewBus()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan events.Envelope, 1)
	ready := make(chan struct{})
	go func() {
		close(ready)
		_ = bus.Receive(ctx, func(_ context.Context, env events.Envelope) error {
			received <- env
			return nil
		})
	}()
	<-ready
	// Receive registers its channel just after the goroutine starts; give
	// the registration a moment before publishing.
	time.Sleep(10 * time.Millisecond)

	sent := events.NewStationUpdate(7, "Phuket", json.RawMessage(`{"id":7}`))
	require.NoError(t, bus.Publish(ctx, sent))

	select {
	case env := <-received:
		assert.Equal(t, events.TypeUpdate, env.Type)
		assert.Equal(t, int64(7), env.ID)
		assert.Equal(t, "Phuket", env.Province)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for envelope")
	}
}

func TestBus_PublishWithoutSubscribersIsQuiet(t *testing.T) {
	bus := events.NewBus()
	env := events.NewStationUpdate(1, "Bangkok", nil)
	assert.NoError(t, bus.Publish(context.Background(), env))
}

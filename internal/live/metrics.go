package live

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/dearxcorex/MakeItFast/internal/events"
)

const meterName = "github.com/dearxcorex/MakeItFast/internal/live"

// hubMetrics tracks connection churn and fan-out volume. All recording
// happens on the hub loop, which has no request context, so a background
// context carries the measurements.
type hubMetrics struct {
	connections  metric.Int64UpDownCounter
	slowDrops    metric.Int64Counter
	messagesSent metric.Int64Counter
}

func newHubMetrics() (*hubMetrics, error) {
	meter := otel.Meter(meterName)

	connections, err := meter.Int64UpDownCounter(
		"live.connections",
		metric.WithDescription("Number of open websocket connections"),
		metric.WithUnit("{connection}"),
	)
	if err != nil {
		return nil, err
	}

	slowDrops, err := meter.Int64Counter(
		"live.clients.dropped",
		metric.WithDescription("Clients dropped for not draining their send buffer"),
		metric.WithUnit("{client}"),
	)
	if err != nil {
		return nil, err
	}

	messagesSent, err := meter.Int64Counter(
		"live.messages.sent",
		metric.WithDescription("Envelopes fanned out to subscribers"),
		metric.WithUnit("{message}"),
	)
	if err != nil {
		return nil, err
	}

	return &hubMetrics{
		connections:  connections,
		slowDrops:    slowDrops,
		messagesSent: messagesSent,
	}, nil
}

func (m *hubMetrics) addConnection() {
	m.connections.Add(context.Background(), 1)
}

func (m *hubMetrics) removeConnection() {
	m.connections.Add(context.Background(), -1)
}

func (m *hubMetrics) recordSlowDrop() {
	m.slowDrops.Add(context.Background(), 1)
}

func (m *hubMetrics) recordFanout(env events.Envelope, subscribers int) {
	if subscribers == 0 {
		return
	}
	m.messagesSent.Add(context.Background(), int64(subscribers), metric.WithAttributes(
		attribute.String("event.type", string(env.Type)),
	))
}

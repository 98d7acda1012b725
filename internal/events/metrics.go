package events

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/dearxcorex/MakeItFast/internal/events"

// InstrumentedPublisher wraps a Publisher and records publish latency and
// outcome. The API wires it around the Pub/Sub publisher; tests wrap the
// in-memory bus the same way.
type InstrumentedPublisher struct {
	inner Publisher

	publishDuration metric.Float64Histogram
	publishTotal    metric.Int64Counter
}

// NewInstrumentedPublisher creates the publish instruments and wraps inner.
func NewInstrumentedPublisher(inner Publisher) (*InstrumentedPublisher, error) {
	meter := otel.Meter(meterName)

	publishDuration, err := meter.Float64Histogram(
		"events.publish.duration",
		metric.WithDescription("Duration of event publish calls in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	publishTotal, err := meter.Int64Counter(
		"events.publish.total",
		metric.WithDescription("Total number of event publish calls"),
		metric.WithUnit("{event}"),
	)
	if err != nil {
		return nil, err
	}

	return &InstrumentedPublisher{
		inner:           inner,
		publishDuration: publishDuration,
		publishTotal:    publishTotal,
	}, nil
}

// Publish forwards to the wrapped publisher and records the call.
func (p *InstrumentedPublisher) Publish(ctx context.Context, env Envelope) error {
	start := time.Now()
	err := p.inner.Publish(ctx, env)

	attrs := []attribute.KeyValue{
		attribute.String("event.type", string(env.Type)),
		attribute.String("event.resource", env.Resource),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Metrics use a background context so a cancelled request cannot lose
	// the measurement of its own publish.
	mctx := context.Background()
	p.publishDuration.Record(mctx, time.Since(start).Seconds(), metric.WithAttributes(attrs...))
	p.publishTotal.Add(mctx, 1, metric.WithAttributes(attrs...))

	return err
}

var _ Publisher = (*InstrumentedPublisher)(nil)

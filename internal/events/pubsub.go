package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub/v2"
	"github.com/rs/zerolog"
)

// PubSubPublisher publishes envelopes to a Google Pub/Sub topic.
type PubSubPublisher struct {
	client    *pubsub.Client
	publisher *pubsub.Publisher
	logger    zerolog.Logger
}

// PubSubPublisherConfig holds configuration for the Pub/Sub publisher.
type PubSubPublisherConfig struct {
	ProjectID string
	TopicName string
	Logger    zerolog.Logger
}

// NewPubSubPublisher creates a publisher for the station change topic.
func NewPubSubPublisher(ctx context.Context, cfg PubSubPublisherConfig) (*PubSubPublisher, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	return &PubSubPublisher{
		client:    client,
		publisher: client.Publisher(cfg.TopicName),
		logger:    cfg.Logger,
	}, nil
}

// Publish sends one envelope and waits for the server acknowledgement.
// Waiting keeps ordering simple at the cost of latency; station writes are
// rare enough that batching would never fill anyway.
func (p *PubSubPublisher) Publish(ctx context.Context, env Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encoding envelope: %w", err)
	}

	result := p.publisher.Publish(ctx, &pubsub.Message{
		Data: data,
		Attributes: map[string]string{
			"type":     string(env.Type),
			"resource": env.Resource,
			"province": env.Province,
		},
	})

	id, err := result.Get(ctx)
	if err != nil {
		return fmt.Errorf("publishing envelope: %w", err)
	}

	p.logger.Debug().
		Str("message_id", id).
		Str("type", string(env.Type)).
		Int64("station_id", env.ID).
		Msg("published station change")
	return nil
}

// Close flushes pending messages and releases the client.
func (p *PubSubPublisher) Close() error {
	p.publisher.Stop()
	return p.client.Close()
}

// PubSubSubscriber receives envelopes from a Google Pub/Sub subscription.
type PubSubSubscriber struct {
	client           *pubsub.Client
	subscriber       *pubsub.Subscriber
	subscriptionName string
	logger           zerolog.Logger
}

// PubSubSubscriberConfig holds configuration for the Pub/Sub subscriber.
type PubSubSubscriberConfig struct {
	ProjectID        string
	SubscriptionName string
	Logger           zerolog.Logger
}

// NewPubSubSubscriber creates a subscriber on the station change
// subscription. Each live replica uses its own subscription so every
// replica sees every change.
func NewPubSubSubscriber(ctx context.Context, cfg PubSubSubscriberConfig) (*PubSubSubscriber, error) {
	client, err := pubsub.NewClient(ctx, cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("creating pubsub client: %w", err)
	}

	subscriber := client.Subscriber(cfg.SubscriptionName)

	// Configure receive settings.
	subscriber.ReceiveSettings.MaxOutstandingMessages = 100
	subscriber.ReceiveSettings.MaxExtension = 10 * time.Minute

	return &PubSubSubscriber{
		client:           client,
		subscriber:       subscriber,
		subscriptionName: cfg.SubscriptionName,
		logger:           cfg.Logger,
	}, nil
}

// Receive processes envelopes until the context is cancelled.
func (s *PubSubSubscriber) Receive(ctx context.Context, fn Handler) error {
	s.logger.Info().
		Str("subscription", s.subscriptionName).
		Msg("starting station change subscriber")

	return s.subscriber.Receive(ctx, func(ctx context.Context, msg *pubsub.Message) {
		var env Envelope
		if err := json.Unmarshal(msg.Data, &env); err != nil {
			s.logger.Error().Err(err).Str("message_id", msg.ID).Msg("failed to parse envelope")
			// Malformed payloads never become valid; redelivery would loop.
			msg.Ack()
			return
		}

		if err := fn(ctx, env); err != nil {
			s.logger.Error().Err(err).Str("message_id", msg.ID).Msg("envelope handler failed")
			msg.Nack()
			return
		}

		msg.Ack()
	})
}

// Close closes the Pub/Sub client.
func (s *PubSubSubscriber) Close() error {
	return s.client.Close()
}

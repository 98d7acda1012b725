package stationapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dearxcorex/MakeItFast/internal/api/models"
	"github.com/dearxcorex/MakeItFast/internal/events"
	"github.com/dearxcorex/MakeItFast/internal/station"
)

const (
	// feedWriteWait bounds how long a control or subscribe write may take.
	feedWriteWait = 10 * time.Second

	// feedReadWait bounds the silence the feed tolerates before it assumes
	// the connection is dead. The server pings well inside this window.
	feedReadWait = 90 * time.Second

	feedMaxMessageSize int64 = 4 * 1024 * 1024

	// TopicAllStations subscribes to every station change.
	TopicAllStations = "stations"
)

// Reconciler receives feed records. *tracker.Store satisfies it.
type Reconciler interface {
	// ReplaceAll swaps in a complete snapshot.
	ReplaceAll(stations []*station.Station)

	// ReconcileRemote folds individual authoritative records in.
	ReconcileRemote(stations []*station.Station)

	// RemoveStation drops a deleted station.
	RemoveStation(id int64)
}

// FeedConfig holds configuration for the live feed consumer.
type FeedConfig struct {
	// URL is the websocket endpoint, e.g. ws://localhost:8081/v1/live.
	URL string

	// Topic to subscribe to (defaults to TopicAllStations). Province
	// topics take the form "stations/<province>".
	Topic string

	// TokenProvider returns the current access token, attached as a bearer
	// header on the upgrade request. Optional.
	TokenProvider func() string

	Logger zerolog.Logger
}

// Feed consumes the live station feed and folds every event into a
// Reconciler. It reconnects forever with exponential backoff; each
// reconnect yields a fresh INIT snapshot from the server, so anything
// missed while disconnected heals itself.
type Feed struct {
	url           string
	topic         string
	tokenProvider func() string
	logger        zerolog.Logger
}

// NewFeed creates a new live feed consumer.
func NewFeed(cfg FeedConfig) *Feed {
	topic := cfg.Topic
	if topic == "" {
		topic = TopicAllStations
	}
	return &Feed{
		url:           cfg.URL,
		topic:         topic,
		tokenProvider: cfg.TokenProvider,
		logger:        cfg.Logger,
	}
}

// subscribeMessage is the frame sent after connecting.
type subscribeMessage struct {
	Type   string   `json:"type"`
	Topics []string `json:"topics"`
}

// Run consumes the feed until the context is cancelled.
func (f *Feed) Run(ctx context.Context, rec Reconciler) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Second
	bo.MaxInterval = time.Minute
	bo.MaxElapsedTime = 0 // reconnect forever

	for {
		err := f.consume(ctx, rec, bo)
		if ctx.Err() != nil {
			return ctx.Err()
		}

		wait := bo.NextBackOff()
		f.logger.Warn().Err(err).Dur("retry_in", wait).Msg("live feed disconnected")

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// consume runs one connection: dial, subscribe, then read until failure.
func (f *Feed) consume(ctx context.Context, rec Reconciler, bo *backoff.ExponentialBackOff) error {
	header := http.Header{}
	if f.tokenProvider != nil {
		if token := f.tokenProvider(); token != "" {
			header.Set("Authorization", "Bearer "+token)
		}
	}

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, f.url, header)
	if err != nil {
		if resp != nil {
			resp.Body.Close()
		}
		return err
	}
	defer conn.Close()

	// Unblock the blocking read when the context ends.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	conn.SetReadLimit(feedMaxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(feedReadWait))
	conn.SetPingHandler(func(appData string) error {
		_ = conn.SetReadDeadline(time.Now().Add(feedReadWait))
		return conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(feedWriteWait))
	})

	sub := subscribeMessage{Type: "SUBSCRIBE", Topics: []string{f.topic}}
	_ = conn.SetWriteDeadline(time.Now().Add(feedWriteWait))
	if err := conn.WriteJSON(sub); err != nil {
		return err
	}

	f.logger.Info().Str("topic", f.topic).Msg("live feed connected")

	for {
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(feedReadWait))
		bo.Reset() // data flowing again; next outage starts the ladder over

		var env events.Envelope
		if err := json.Unmarshal(message, &env); err != nil {
			f.logger.Warn().Err(err).Msg("malformed feed envelope, skipping")
			continue
		}
		f.apply(rec, env)
	}
}

// apply folds one envelope into the reconciler.
func (f *Feed) apply(rec Reconciler, env events.Envelope) {
	if env.Resource != events.ResourceStation {
		return
	}

	switch env.Type {
	case events.TypeInit:
		var items []models.Station
		if err := json.Unmarshal(env.Data, &items); err != nil {
			f.logger.Warn().Err(err).Msg("malformed snapshot, skipping")
			return
		}
		stations := toDomainList(items)
		// A snapshot scoped to one province must not wipe the rest of the
		// working copy.
		if f.topic == TopicAllStations {
			rec.ReplaceAll(stations)
		} else {
			rec.ReconcileRemote(stations)
		}
		f.logger.Debug().Int("stations", len(stations)).Msg("feed snapshot applied")

	case events.TypeNew, events.TypeUpdate:
		var item models.Station
		if err := json.Unmarshal(env.Data, &item); err != nil {
			f.logger.Warn().Err(err).Int64("station", env.ID).Msg("malformed feed record, skipping")
			return
		}
		rec.ReconcileRemote([]*station.Station{toDomain(&item)})

	case events.TypeDelete:
		rec.RemoveStation(env.ID)
	}
}

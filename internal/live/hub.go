// Package live fans station change events out to websocket subscribers.
//
// The hub keeps an in-memory copy of every station, loaded once at startup
// and kept current by the event bus. Subscribers receive an INIT snapshot
// for each topic they subscribe to, then the individual change envelopes as
// writes land. Reconnecting re-subscribes, which re-delivers a snapshot, so
// anything missed while away heals itself.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/dearxcorex/MakeItFast/internal/api/models"
	"github.com/dearxcorex/MakeItFast/internal/events"
)

// Topics understood by the hub. TopicStations carries every change;
// province topics narrow the feed to one province.
const (
	TopicStations       = "stations"
	topicProvincePrefix = "stations/"
)

// provinceTopic returns the topic name scoped to one province.
func provinceTopic(province string) string {
	return topicProvincePrefix + province
}

// validTopic reports whether clients may subscribe to the given topic.
func validTopic(topic string) bool {
	if topic == TopicStations {
		return true
	}
	return len(topic) > len(topicProvincePrefix) && strings.HasPrefix(topic, topicProvincePrefix)
}

// StationLister supplies the station list for the initial cache load.
// *station.Service satisfies it.
type StationLister interface {
	List(ctx context.Context) (*models.StationListResponse, error)
}

// HubConfig holds configuration for the live hub.
type HubConfig struct {
	// Stations loads the initial working copy.
	Stations StationLister

	// Subscriber delivers station changes from the event bus. Optional;
	// without one the hub serves snapshots only.
	Subscriber events.Subscriber

	// CheckOrigin overrides the upgrade origin check. The default accepts
	// any origin: the feed carries read-only public data.
	CheckOrigin func(r *http.Request) bool

	Logger zerolog.Logger
}

// Hub owns every websocket connection and the station cache behind the
// snapshots. All maps belong to the Run goroutine; the HTTP handler and
// the connection pumps talk to it over channels only, so the hub needs no
// locking.
type Hub struct {
	register     chan *client
	unregister   chan *client
	subscription chan *subscription
	inbound      chan events.Envelope

	connections map[*client]struct{}
	topics      map[string]map[*client]struct{}
	stations    map[int64]models.Station

	lister     StationLister
	subscriber events.Subscriber
	upgrader   websocket.Upgrader
	logger     zerolog.Logger
	metrics    *hubMetrics
}

// NewHub creates a hub. Call Load before Run.
func NewHub(cfg HubConfig) (*Hub, error) {
	metrics, err := newHubMetrics()
	if err != nil {
		return nil, err
	}

	checkOrigin := cfg.CheckOrigin
	if checkOrigin == nil {
		checkOrigin = func(*http.Request) bool { return true }
	}

	return &Hub{
		register:     make(chan *client),
		unregister:   make(chan *client),
		subscription: make(chan *subscription),
		inbound:      make(chan events.Envelope, 256),
		connections:  map[*client]struct{}{},
		topics:       map[string]map[*client]struct{}{},
		stations:     map[int64]models.Station{},
		lister:       cfg.Stations,
		subscriber:   cfg.Subscriber,
		upgrader:     websocket.Upgrader{CheckOrigin: checkOrigin},
		logger:       cfg.Logger,
		metrics:      metrics,
	}, nil
}

// Load fills the station cache. The hub cannot serve snapshots without it,
// so a failure here is fatal to startup.
func (h *Hub) Load(ctx context.Context) error {
	resp, err := h.lister.List(ctx)
	if err != nil {
		return fmt.Errorf("load stations: %w", err)
	}

	for _, st := range resp.Items {
		h.stations[st.ID] = st
	}

	h.logger.Info().Int("stations", len(h.stations)).Msg("station cache loaded")
	return nil
}

// Run owns all hub state until the context ends. On return every client
// has been closed.
func (h *Hub) Run(ctx context.Context) error {
	if h.subscriber != nil {
		go h.receive(ctx)
	}

	h.logger.Info().Msg("hub running")
	for {
		select {
		case c := <-h.register:
			h.addConnection(c)
		case c := <-h.unregister:
			h.dropConnection(c)
		case s := <-h.subscription:
			h.applySubscription(s)
		case env := <-h.inbound:
			h.handleEnvelope(env)
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		}
	}
}

// ServeHTTP upgrades the request and hands the connection to the hub.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ws, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		h.logger.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := newClient(ws, h)
	h.register <- c

	go c.listenWrite()
	c.listenRead()
}

// receive pumps bus envelopes into the hub loop. Reconnecting is the
// subscriber's concern.
func (h *Hub) receive(ctx context.Context) {
	err := h.subscriber.Receive(ctx, func(ctx context.Context, env events.Envelope) error {
		select {
		case h.inbound <- env:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})
	if err != nil && ctx.Err() == nil {
		h.logger.Error().Err(err).Msg("event subscriber stopped")
	}
}

func (h *Hub) addConnection(c *client) {
	h.connections[c] = struct{}{}
	h.metrics.addConnection()
	h.logger.Debug().Int("connections", len(h.connections)).Msg("client connected")
}

func (h *Hub) dropConnection(c *client) {
	if _, ok := h.connections[c]; !ok {
		return
	}

	delete(h.connections, c)
	for topic := range c.topics {
		h.removeFromTopic(c, topic)
	}
	c.close()
	h.metrics.removeConnection()
	h.logger.Debug().Int("connections", len(h.connections)).Msg("client disconnected")
}

func (h *Hub) removeFromTopic(c *client, topic string) {
	set, ok := h.topics[topic]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.topics, topic)
	}
}

func (h *Hub) applySubscription(s *subscription) {
	c := s.client
	if _, ok := h.connections[c]; !ok {
		return
	}

	switch s.Type {
	case ActionSubscribe:
		for _, topic := range s.Topics {
			if !validTopic(topic) {
				h.logger.Debug().Str("topic", topic).Msg("ignoring unknown topic")
				continue
			}
			set, ok := h.topics[topic]
			if !ok {
				set = map[*client]struct{}{}
				h.topics[topic] = set
			}
			set[c] = struct{}{}
			c.topics[topic] = struct{}{}
			h.sendSnapshot(c, topic)
			h.logger.Debug().Str("topic", topic).Msg("client subscribed")
		}
	case ActionUnsubscribe:
		for _, topic := range s.Topics {
			h.removeFromTopic(c, topic)
			delete(c.topics, topic)
			h.logger.Debug().Str("topic", topic).Msg("client unsubscribed")
		}
	default:
		h.logger.Debug().Str("type", s.Type).Msg("ignoring unknown subscription action")
	}
}

// sendSnapshot delivers the INIT envelope for one topic. Every subscribe
// gets a fresh snapshot, so a reconnecting client heals deletions it
// missed while away.
func (h *Hub) sendSnapshot(c *client, topic string) {
	province := ""
	if topic != TopicStations {
		province = strings.TrimPrefix(topic, topicProvincePrefix)
	}

	items := make([]models.Station, 0, len(h.stations))
	for _, st := range h.stations {
		if province != "" && st.Province != province {
			continue
		}
		items = append(items, st)
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].Name != items[j].Name {
			return items[i].Name < items[j].Name
		}
		return items[i].ID < items[j].ID
	})

	data, err := json.Marshal(items)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal snapshot")
		return
	}
	payload, err := json.Marshal(events.NewStationSnapshot(province, data))
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal snapshot envelope")
		return
	}

	h.trySend(c, payload)
	h.logger.Debug().Str("topic", topic).Int("stations", len(items)).Msg("sent snapshot")
}

// handleEnvelope folds one bus envelope into the cache and fans it out to
// every subscriber of a matching topic.
func (h *Hub) handleEnvelope(env events.Envelope) {
	if env.Resource != events.ResourceStation {
		return
	}

	switch env.Type {
	case events.TypeNew, events.TypeUpdate:
		var st models.Station
		if err := json.Unmarshal(env.Data, &st); err != nil {
			h.logger.Warn().Err(err).Int64("station", env.ID).Msg("malformed station envelope, skipping")
			return
		}
		h.stations[st.ID] = st
	case events.TypeDelete:
		delete(h.stations, env.ID)
	default:
		// Snapshots are synthesized per connection, never relayed.
		return
	}

	payload, err := json.Marshal(env)
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to marshal envelope")
		return
	}

	targets := map[*client]struct{}{}
	for c := range h.topics[TopicStations] {
		targets[c] = struct{}{}
	}
	if env.Province != "" {
		for c := range h.topics[provinceTopic(env.Province)] {
			targets[c] = struct{}{}
		}
	}

	for c := range targets {
		h.trySend(c, payload)
	}
	h.metrics.recordFanout(env, len(targets))
}

// trySend queues a frame without blocking. A client whose buffer is full
// is dropped: one stalled reader must not hold up the fan-out.
func (h *Hub) trySend(c *client, payload []byte) {
	select {
	case c.send <- payload:
	default:
		h.logger.Warn().Msg("dropping slow client")
		h.metrics.recordSlowDrop()
		h.dropConnection(c)
	}
}

func (h *Hub) closeAll() {
	for c := range h.connections {
		c.close()
		h.metrics.removeConnection()
	}
	h.connections = map[*client]struct{}{}
	h.topics = map[string]map[*client]struct{}{}
}

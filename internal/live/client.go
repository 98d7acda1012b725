package live

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

const (
	// writeWait bounds a single message or control write to the peer.
	writeWait = 10 * time.Second

	// pongWait is how long the hub waits for a pong before declaring the
	// peer dead.
	pongWait = 60 * time.Second

	// pingPeriod must be comfortably below pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize caps inbound frames. Clients only ever send small
	// subscription messages.
	maxMessageSize int64 = 4 * 1024

	// sendBuffer is how many outbound frames may queue per client before
	// the hub considers it too slow and drops it.
	sendBuffer = 64
)

// Subscription actions accepted from clients.
const (
	ActionSubscribe   = "SUBSCRIBE"
	ActionUnsubscribe = "UNSUBSCRIBE"
)

// subscription is the only message clients send: an action plus the topics
// it applies to.
type subscription struct {
	client *client
	Type   string   `json:"type"`
	Topics []string `json:"topics"`
}

// client is one websocket peer. All bookkeeping lives in the hub loop; the
// pumps only move bytes.
type client struct {
	ws     *websocket.Conn
	send   chan []byte
	hub    *Hub
	logger zerolog.Logger

	closeOnce sync.Once

	// topics holds the client's active subscriptions. Owned by the hub
	// loop goroutine.
	topics map[string]struct{}
}

func newClient(ws *websocket.Conn, hub *Hub) *client {
	return &client{
		ws:     ws,
		send:   make(chan []byte, sendBuffer),
		hub:    hub,
		logger: hub.logger,
		topics: map[string]struct{}{},
	}
}

// close shuts the connection down exactly once. Closing the socket stops
// the read pump; closing send stops the write pump. Only the hub loop
// calls this, after the client has left every map, so no further sends can
// hit the closed channel.
func (c *client) close() {
	c.closeOnce.Do(func() {
		_ = c.ws.Close()
		close(c.send)
	})
}

// listenRead pumps subscription messages from the peer into the hub until
// the connection dies.
func (c *client) listenRead() {
	defer func() {
		c.hub.unregister <- c
	}()

	c.ws.SetReadLimit(maxMessageSize)
	_ = c.ws.SetReadDeadline(time.Now().Add(pongWait))
	c.ws.SetPongHandler(func(string) error {
		return c.ws.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.ws.ReadMessage()
		if err != nil {
			return
		}

		s := &subscription{client: c}
		if err := json.Unmarshal(message, s); err != nil {
			c.logger.Debug().Err(err).Str("data", string(message)).Msg("ignoring malformed subscription message")
			continue
		}
		c.hub.subscription <- s
	}
}

// listenWrite pumps queued frames to the peer and keeps the connection
// alive with pings.
func (c *client) listenWrite() {
	write := func(mt int, payload []byte) error {
		if err := c.ws.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
			return err
		}
		return c.ws.WriteMessage(mt, payload)
	}

	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			if !ok {
				_ = write(websocket.CloseMessage, []byte{})
				return
			}
			if err := write(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			if err := write(websocket.PingMessage, []byte{}); err != nil {
				return
			}
		}
	}
}

// internal/realtime/hub.go
//
// Websocket fan-out of game state changes.
// Every client watches the single shared game. On connect a client receives a
// "snapshot" message; afterwards each transition is sent as "reset", "advance"
// or "fail". Incoming client messages are ignored apart from keep-alive control
// frames.
//
// Notes:
//   - Joins and broadcasts share one queue, so a client is added exactly
//     between the events its snapshot already reflects and the ones it does not.

package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/simonsays/internal/game"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512

	// Per-client outbound queue; slow clients past this are dropped.
	sendBuffer = 32
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Same policy as the HTTP API: any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Message is the JSON frame sent to subscribers.
type Message struct {
	Event     string     `json:"event"`
	GameState game.State `json:"gameState"`
}

// Client is one websocket subscriber.
type Client struct {
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
}

// Snapshotter hands out the current state while no transition is being
// published. *game.Game satisfies it.
type Snapshotter interface {
	Snapshot(fn func(game.State))
}

// delivery is a broadcast frame, a client joining or a client leaving.
type delivery struct {
	data  []byte
	join  *Client
	leave *Client
}

// Hub maintains the set of active clients and fans out messages.
// All client-set mutations happen on the Run goroutine.
type Hub struct {
	clients   map[*Client]bool
	broadcast chan delivery
	done      chan struct{}
}

// NewHub creates a hub; call Run to start it.
func NewHub() *Hub {
	return &Hub{
		clients:   make(map[*Client]bool),
		broadcast: make(chan delivery, 64),
		done:      make(chan struct{}),
	}
}

// Run processes joins and broadcasts until ctx is cancelled, then closes
// every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			for c := range h.clients {
				h.unregisterClient(c)
			}
			return

		case d := <-h.broadcast:
			switch {
			case d.join != nil:
				h.clients[d.join] = true
				log.Debug().Int("clients", len(h.clients)).Msg("websocket client registered")
				continue
			case d.leave != nil:
				h.unregisterClient(d.leave)
				continue
			}
			for c := range h.clients {
				select {
				case c.send <- d.data:
				default:
					log.Warn().Msg("websocket client too slow, dropping")
					h.unregisterClient(c)
				}
			}
		}
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Publish is a game.Listener broadcasting the transition to every client.
// It never blocks the caller once the hub has stopped.
func (h *Hub) Publish(ev game.Event) {
	data, err := json.Marshal(Message{Event: string(ev.Kind), GameState: ev.State})
	if err != nil {
		log.Error().Err(err).Msg("marshal websocket message")
		return
	}
	h.enqueue(delivery{data: data})
}

// enqueue reports false when the hub has stopped.
func (h *Hub) enqueue(d delivery) bool {
	select {
	case h.broadcast <- d:
		return true
	case <-h.done:
		return false
	}
}

// ServeWS upgrades the request and subscribes the connection. The first
// message is a snapshot taken from src; every later message is a transition
// published after that snapshot.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, src Snapshotter) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written an HTTP error.
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	c := &Client{hub: h, conn: conn, send: make(chan []byte, sendBuffer)}
	joined := false
	src.Snapshot(func(s game.State) {
		first, err := json.Marshal(Message{Event: "snapshot", GameState: s})
		if err != nil {
			log.Error().Err(err).Msg("marshal snapshot")
			return
		}
		c.send <- first
		joined = h.enqueue(delivery{join: c})
	})
	if !joined {
		_ = conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// unregisterClient must only be called from Run.
func (h *Hub) unregisterClient(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
		log.Debug().Int("clients", len(h.clients)).Msg("websocket client unregistered")
	}
}

// readPump drains the connection so control frames are processed, and
// unregisters the client when the peer goes away.
func (c *Client) readPump() {
	defer func() {
		c.hub.enqueue(delivery{leave: c})
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Debug().Err(err).Msg("websocket read")
			}
			return
		}
	}
}

// writePump sends queued messages and periodic pings.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

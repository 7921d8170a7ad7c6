// Package realtime keeps the registry of open websocket connections and pushes
// campaign events to the connections of one user.
package realtime

import (
	"log/slog"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

// clientMessage is what a browser may send after connecting. Only "auth" is understood.
type clientMessage struct {
	Type   string `json:"type"`
	UserID string `json:"userId"`
}

// client is one open connection. gorilla allows a single concurrent writer, so
// writes go through writeMu.
type client struct {
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *client) write(msg []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return c.conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub tracks open connections. A connection receives broadcasts only after it
// has claimed a user id with an auth message.
type Hub struct {
	mu       sync.Mutex
	conns    map[*client]string
	byUser   map[string]map[*client]struct{}
	upgrader websocket.Upgrader
}

// NewHub builds a hub accepting upgrades from allowedOrigins. Requests without an
// Origin header are accepted; "*" accepts every origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{
		conns:  make(map[*client]string),
		byUser: make(map[string]map[*client]struct{}),
	}
	h.upgrader = websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
		},
	}
	return h
}

func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.WarnContext(r.Context(), "websocket upgrade failed", "module", "realtime", "error", err)
		return
	}
	c := &client{conn: conn}
	defer h.remove(c)

	h.mu.Lock()
	h.conns[c] = ""
	h.mu.Unlock()

	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			return
		}
		if msg.Type == "auth" && msg.UserID != "" {
			h.tag(c, msg.UserID)
		}
	}
}

func (h *Hub) tag(c *client, userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	prev, ok := h.conns[c]
	if !ok {
		return
	}
	if prev != "" {
		h.untagLocked(c, prev)
	}
	h.conns[c] = userID
	set := h.byUser[userID]
	if set == nil {
		set = make(map[*client]struct{})
		h.byUser[userID] = set
	}
	set[c] = struct{}{}
}

func (h *Hub) untagLocked(c *client, userID string) {
	set := h.byUser[userID]
	delete(set, c)
	if len(set) == 0 {
		delete(h.byUser, userID)
	}
}

func (h *Hub) remove(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	userID, ok := h.conns[c]
	if !ok {
		return
	}
	if userID != "" {
		h.untagLocked(c, userID)
	}
	delete(h.conns, c)
	c.conn.Close()
}

// Broadcast writes msg as a text frame to every connection tagged with userID and
// returns the number of successful writes. A connection that fails a write is dropped.
// Writes happen outside the registry lock.
func (h *Hub) Broadcast(userID string, msg []byte) int {
	h.mu.Lock()
	targets := make([]*client, 0, len(h.byUser[userID]))
	for c := range h.byUser[userID] {
		targets = append(targets, c)
	}
	h.mu.Unlock()

	sent := 0
	for _, c := range targets {
		if err := c.write(msg); err != nil {
			slog.Debug("dropping websocket connection after failed write", "module", "realtime", "user_id", userID, "error", err)
			h.remove(c)
			continue
		}
		sent++
	}
	return sent
}

// Connections reports open connections and how many of them are tagged with a user.
func (h *Hub) Connections() (total, authenticated int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, userID := range h.conns {
		if userID != "" {
			authenticated++
		}
	}
	return len(h.conns), authenticated
}

// Close drops every connection.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		h.removeLocked(c)
	}
}

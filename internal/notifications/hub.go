package notifications

import (
	"context"
	"errors"
	"sync"

	"photoshare/internal/models"
	"photoshare/internal/observability"

	"github.com/gofiber/websocket/v2"
)

const (
	hubName = "feed"

	maxConnsPerUser = 8
	maxTotalConns   = 10000
)

var (
	ErrServerConnLimit = errors.New("server connection limit reached")
	ErrUserConnLimit   = errors.New("user connection limit reached")
	ErrHubClosed       = errors.New("hub is shut down")
)

// Hub tracks live feed connections, keyed by viewer identity. Anonymous
// viewers share the empty key.
type Hub struct {
	mu     sync.RWMutex
	conns  map[string]map[*Client]struct{}
	total  int
	closed bool
	// audience decides per viewer whether events are delivered. Nil delivers
	// to everyone.
	audience func(viewer models.ID) bool
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string]map[*Client]struct{})}
}

// SetAudience installs the per-viewer delivery check used by Broadcast and
// BroadcastAll.
func (h *Hub) SetAudience(allow func(viewer models.ID) bool) {
	h.mu.Lock()
	h.audience = allow
	h.mu.Unlock()
}

func (h *Hub) admits(viewer models.ID) bool {
	return h.audience == nil || h.audience(viewer)
}

// Register adds a connection for userID.
func (h *Hub) Register(userID models.ID, conn *websocket.Conn) (*Client, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}
	if h.total >= maxTotalConns {
		return nil, ErrServerConnLimit
	}

	key := userID.Canonical()
	m, ok := h.conns[key]
	if !ok {
		m = make(map[*Client]struct{})
		h.conns[key] = m
	}
	if key != "" && len(m) >= maxConnsPerUser {
		return nil, ErrUserConnLimit
	}

	client := newClient(h, conn, userID)
	m[client] = struct{}{}
	h.total++
	observability.FeedConnections.Inc()
	return client, nil
}

// Unregister removes client and closes its send queue. Safe to call twice.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	key := client.UserID.Canonical()
	m, ok := h.conns[key]
	if !ok {
		return
	}
	if _, exists := m[client]; !exists {
		return
	}
	delete(m, client)
	if len(m) == 0 {
		delete(h.conns, key)
	}
	h.total--
	observability.FeedConnections.Dec()
	close(client.Send)
}

// Count returns the number of live connections.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.total
}

// Broadcast sends message to every connection of userID.
func (h *Hub) Broadcast(userID models.ID, message string) {
	if userID.IsZero() {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	if !h.admits(userID) {
		return
	}
	for c := range h.conns[userID.Canonical()] {
		c.TrySend(data)
	}
}

// BroadcastAll sends message to every connection whose viewer passes the
// audience check. Connections are grouped by viewer, so the check runs once
// per viewer.
func (h *Hub) BroadcastAll(message string) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	data := []byte(message)
	for _, clients := range h.conns {
		admitted, checked := false, false
		for c := range clients {
			if !checked {
				admitted, checked = h.admits(c.UserID), true
			}
			if !admitted {
				break
			}
			c.TrySend(data)
		}
	}
}

// StartWiring forwards messages from the Notifier's channels to local clients.
func (h *Hub) StartWiring(ctx context.Context, n *Notifier) error {
	return n.StartSubscriber(ctx, func(channel, payload string) {
		if channel == FeedChannel {
			h.BroadcastAll(payload)
			return
		}
		userID, ok := userFromChannel(channel)
		if !ok {
			observability.Logger.Warn("invalid feed channel", "channel", channel)
			return
		}
		h.Broadcast(userID, payload)
	})
}

// Shutdown closes every send queue. Each WritePump then writes a going-away
// frame and closes its connection, so the socket keeps a single writer.
func (h *Hub) Shutdown(_ context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	h.closed = true

	for _, clients := range h.conns {
		for client := range clients {
			close(client.Send)
			observability.FeedConnections.Dec()
		}
	}
	h.conns = make(map[string]map[*Client]struct{})
	h.total = 0
	return nil
}

func (h *Hub) isClosed() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.closed
}

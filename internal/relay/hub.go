// Package relay republishes every message an EventMachine decodes to any
// number of TCP subscribers. It is optional, additive tooling: a Node
// functions identically with no relay attached.
package relay

import (
	"sync"

	"github.com/antgateway/ant-core/internal/logging"
	"github.com/antgateway/ant-core/internal/message"
	"github.com/antgateway/ant-core/internal/metrics"
)

// BackpressurePolicy decides what a Hub does to a client whose outbound
// buffer is full.
type BackpressurePolicy int

const (
	PolicyDrop BackpressurePolicy = iota
	PolicyKick
)

// Client is a single relay subscriber's outbound mailbox.
type Client struct {
	Out       chan message.Message
	Closed    chan struct{}
	closeOnce sync.Once
}

// Close signals the client is closed. Idempotent.
func (c *Client) Close() {
	c.closeOnce.Do(func() {
		close(c.Closed)
	})
}

// Hub fans out decoded messages to every connected relay client,
// honoring a backpressure policy for clients that fall behind.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	OutBufSize int
	Policy     BackpressurePolicy
}

// New creates a Hub with default settings.
func New() *Hub { return &Hub{clients: make(map[*Client]struct{})} }

// Add registers a client with the hub.
func (h *Hub) Add(c *Client) {
	h.mu.Lock()
	prev := len(h.clients)
	h.clients[c] = struct{}{}
	cur := len(h.clients)
	h.mu.Unlock()
	metrics.SetRelayClients(cur)
	if prev == 0 && cur == 1 {
		logging.L().Info("relay_clients_first_connected")
	}
}

// Remove unregisters a client; safe to call multiple times.
func (h *Hub) Remove(c *Client) {
	h.mu.Lock()
	_, existed := h.clients[c]
	if existed {
		delete(h.clients, c)
	}
	cur := len(h.clients)
	h.mu.Unlock()
	select {
	case <-c.Closed:
	default:
		c.Close()
	}
	metrics.SetRelayClients(cur)
	if existed && cur == 0 {
		logging.L().Info("relay_clients_last_disconnected")
	}
}

// Broadcast delivers msg to every connected client, honoring the
// backpressure policy. It never blocks, and its signature matches
// eventmachine.CallbackFunc, so eventmachine.CallbackFunc(h.Broadcast)
// registers it as a callback.
func (h *Hub) Broadcast(msg message.Message) {
	clients := h.Snapshot()
	metrics.SetRelayBroadcastFanout(len(clients))
	for _, c := range clients {
		select {
		case c.Out <- msg:
		default:
			if h.Policy == PolicyKick {
				metrics.IncRelayKick()
				c.Close() // signal writer to exit; server removes on disconnect
			} else {
				metrics.IncRelayDrop()
			}
		}
	}
}

// Snapshot returns a slice copy of current clients.
func (h *Hub) Snapshot() []*Client {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()
	return clients
}

// Count returns the number of active clients.
func (h *Hub) Count() int { h.mu.RLock(); n := len(h.clients); h.mu.RUnlock(); return n }

// Package gateway is the websocket side of the relay: it owns the open
// connections, decodes what clients send and delivers what the engine emits.
package gateway

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/domain/event"
	"context"
	"log/slog"
	"sync"
)

var _ contract.Gateway = (*Hub)(nil)

// Closer is implemented by sinks that can be shut down from the hub.
type Closer interface {
	Close()
}

// Hub tracks every open connection, joined or not.
// Safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	log     *slog.Logger
	clients map[domain.ConnectionID]contract.EventSink
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:     log,
		clients: make(map[domain.ConnectionID]contract.EventSink),
	}
}

func (h *Hub) Add(connID domain.ConnectionID, sink contract.EventSink) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[connID] = sink
}

// Remove forgets connID. Removing twice is a no-op.
func (h *Hub) Remove(connID domain.ConnectionID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, connID)
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) BroadcastToAll(ctx context.Context, e event.Outbound) {
	h.broadcast(ctx, e, func(domain.ConnectionID) bool { return true })
}

func (h *Hub) BroadcastToOthers(ctx context.Context, sender domain.ConnectionID, e event.Outbound) {
	h.broadcast(ctx, e, func(id domain.ConnectionID) bool { return id != sender })
}

// CloseAll closes every sink; each writer then closes its socket,
// which in turn produces the disconnect of its connection.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sink := range h.clients {
		if closer, ok := sink.(Closer); ok {
			closer.Close()
		}
	}
}

func (h *Hub) broadcast(ctx context.Context, e event.Outbound, accept func(domain.ConnectionID) bool) {
	h.mu.RLock()
	recipients := make(map[domain.ConnectionID]contract.EventSink, len(h.clients))
	for id, sink := range h.clients {
		if accept(id) {
			recipients[id] = sink
		}
	}
	h.mu.RUnlock()

	for id, sink := range recipients {
		if err := sink.Consume(ctx, e); err != nil {
			h.log.Debug("Event not delivered", "conn_id", id, "event", e.Name(), "error", err)
		}
	}
}

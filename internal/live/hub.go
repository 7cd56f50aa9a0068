// Package live pushes reload notifications to open dashboard pages over
// websockets.
package live

import (
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"

	"spendwise/internal/log"
	"spendwise/internal/state"
)

var ErrClientClosed = errors.New("client is closed")

const EventReloaded = "expenses.reloaded"

// Event is the message sent to every connected page.
type Event struct {
	Type    string `json:"type"`
	Version uint64 `json:"version"`
}

// Subscriber is a connected page.
type Subscriber interface {
	ID() string
	Send(data []byte) error
	Close() error
}

// Hub tracks subscribers and fans events out to them. It is safe for
// concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]Subscriber
	logger  *log.Logger

	sent    atomic.Int64
	dropped atomic.Int64
}

func NewHub(logger *log.Logger) *Hub {
	return &Hub{
		clients: make(map[string]Subscriber),
		logger:  logger.WithComponent(log.ComponentLive),
	}
}

func (h *Hub) Register(c Subscriber) {
	h.mu.Lock()
	h.clients[c.ID()] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("Live client registered", log.FieldClientID, c.ID(), "clients", n)
}

func (h *Hub) Unregister(c Subscriber) {
	h.mu.Lock()
	_, ok := h.clients[c.ID()]
	delete(h.clients, c.ID())
	h.mu.Unlock()
	if ok {
		h.logger.Debug("Live client unregistered", log.FieldClientID, c.ID())
	}
}

// Broadcast sends ev to every subscriber. A subscriber whose buffer is full
// is dropped and closed.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("Failed to encode live event", log.FieldError, err)
		return
	}

	h.mu.RLock()
	clients := make([]Subscriber, 0, len(h.clients))
	for _, c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		if err := c.Send(data); err != nil {
			h.dropped.Add(1)
			h.logger.Warn("Dropping slow live client", log.FieldClientID, c.ID(), log.FieldError, err)
			h.Unregister(c)
			_ = c.Close()
			continue
		}
		h.sent.Add(1)
	}
	h.logger.Debug("Broadcast live event", "type", ev.Type, log.FieldVersion, ev.Version, "clients", len(clients))
}

// OnReload adapts Broadcast for state.AppState.OnReload.
func (h *Hub) OnReload(snap state.Snapshot) {
	h.Broadcast(Event{Type: EventReloaded, Version: snap.Version})
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

type Metrics struct {
	Clients int
	Sent    int64
	Dropped int64
}

func (h *Hub) GetMetrics() Metrics {
	return Metrics{Clients: h.ClientCount(), Sent: h.sent.Load(), Dropped: h.dropped.Load()}
}

// CloseAll disconnects every subscriber.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[string]Subscriber)
	h.mu.Unlock()
	for _, c := range clients {
		_ = c.Close()
	}
}

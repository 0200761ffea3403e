package services

import (
	"sync"
)

// Event types pushed to connected clients.
const (
	EventSession       = "session"        // session changed for a specific user
	EventServices      = "services"       // public service catalog changed
	EventQuoteProgress = "quote_progress" // upload batch progress for a specific user
)

// Event is a real-time change notification. UserID scopes delivery: zero
// means broadcast, otherwise only that user's subscribers receive it.
type Event struct {
	Type    string      `json:"type"`
	Seq     uint64      `json:"seq,omitempty"`
	UserID  uint        `json:"-"`
	Payload interface{} `json:"payload,omitempty"`
}

type hubClient struct {
	userID uint
	types  map[string]bool
	ch     chan Event
}

// EventHub manages subscriber connections and event fan-out.
type EventHub struct {
	clients map[string]*hubClient
	mu      sync.RWMutex
}

// NewEventHub creates a new hub instance
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[string]*hubClient),
	}
}

// Subscribe registers a client interested in the given event types.
// userID scopes user-targeted events; pass 0 for anonymous subscribers.
func (h *EventHub) Subscribe(clientID string, userID uint, types ...string) <-chan Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	wanted := make(map[string]bool, len(types))
	for _, t := range types {
		wanted[t] = true
	}

	// Buffered channel to prevent blocking
	client := &hubClient{
		userID: userID,
		types:  wanted,
		ch:     make(chan Event, 100),
	}
	h.clients[clientID] = client
	return client.ch
}

// Unsubscribe removes a client from the hub
func (h *EventHub) Unsubscribe(clientID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if client, ok := h.clients[clientID]; ok {
		close(client.ch)
		delete(h.clients, clientID)
	}
}

// Publish delivers an event to every matching subscriber.
func (h *EventHub) Publish(event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.clients {
		if len(client.types) > 0 && !client.types[event.Type] {
			continue
		}
		if event.UserID != 0 && client.userID != event.UserID {
			continue
		}
		// Non-blocking send - drop event if client buffer is full
		select {
		case client.ch <- event:
		default:
			// Client is slow, skip this event
		}
	}
}

// ClientCount returns the number of connected clients
func (h *EventHub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Global hub instance
var globalEventHub *EventHub
var eventHubOnce sync.Once

// GetEventHub returns the global event hub singleton
func GetEventHub() *EventHub {
	eventHubOnce.Do(func() {
		globalEventHub = NewEventHub()
	})
	return globalEventHub
}

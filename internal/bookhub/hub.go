// Package bookhub broadcasts book-update events to subscribers, namely
// the /book/stream SSE endpoint. The pin and directional analyses read
// the book directly and do not subscribe.
package bookhub

import (
	"context"
	"encoding/json"
	"sync"
)

// Update is one broadcasted book-state event.
type Update struct {
	Ts          int64   `json:"ts"`
	DealerGamma float64 `json:"dealer_gamma"`
	StrikeCount int     `json:"strike_count"`
}

// Hub fans a stream of Updates out to any number of registered
// subscribers, dropping updates for a subscriber whose channel is full
// rather than blocking the publisher.
type Hub struct {
	mu          sync.Mutex
	subscribers map[chan Update]bool
	register    chan chan Update
	unregister  chan chan Update
	broadcast   chan Update
	done        chan struct{}
}

// New returns a Hub. Call Run in its own goroutine to start it.
func New() *Hub {
	return &Hub{
		subscribers: make(map[chan Update]bool),
		register:    make(chan chan Update),
		unregister:  make(chan chan Update),
		broadcast:   make(chan Update, 64),
		done:        make(chan struct{}),
	}
}

// Run drives the hub's registration and fan-out loop until ctx is
// cancelled. Subscribe/Unsubscribe/Publish stop blocking on its channels
// once it returns.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for sub := range h.subscribers {
				close(sub)
			}
			h.subscribers = nil
			h.mu.Unlock()
			return
		case sub := <-h.register:
			h.mu.Lock()
			h.subscribers[sub] = true
			h.mu.Unlock()
		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.subscribers[sub]; ok {
				delete(h.subscribers, sub)
				close(sub)
			}
			h.mu.Unlock()
		case update := <-h.broadcast:
			h.mu.Lock()
			for sub := range h.subscribers {
				select {
				case sub <- update:
				default:
				}
			}
			h.mu.Unlock()
		}
	}
}

// Subscribe registers a new subscriber channel. Callers must eventually
// call Unsubscribe. If the hub has already stopped, Subscribe returns a
// closed channel instead of blocking forever.
func (h *Hub) Subscribe() chan Update {
	ch := make(chan Update, 16)
	select {
	case h.register <- ch:
		return ch
	case <-h.done:
		close(ch)
		return ch
	}
}

// Unsubscribe removes and closes a subscriber channel. A no-op once the
// hub has stopped, since Run already closed every subscriber channel.
func (h *Hub) Unsubscribe(ch chan Update) {
	select {
	case h.unregister <- ch:
	case <-h.done:
	}
}

// Publish broadcasts an update to all subscribers.
func (h *Hub) Publish(u Update) {
	select {
	case h.broadcast <- u:
	case <-h.done:
	default:
	}
}

// MarshalSSE renders an Update as an SSE "data:" payload.
func (u Update) MarshalSSE() ([]byte, error) {
	return json.Marshal(u)
}

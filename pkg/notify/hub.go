package notify

import (
	"context"
	"sync"
)

// HubSubscription receives live notifications. Slow consumers lose
// notifications rather than blocking delivery.
type HubSubscription struct {
	C chan Notification
}

// Hub is a Sink that fans notifications out to in-process subscribers; the
// WebSocket surface reads from it so live delivery works without Redis.
type Hub struct {
	mu   sync.Mutex
	subs map[*HubSubscription]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{subs: map[*HubSubscription]struct{}{}}
}

// Subscribe registers a live consumer. The caller must Unsubscribe when done.
func (h *Hub) Subscribe() *HubSubscription {
	sub := &HubSubscription{C: make(chan Notification, 64)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

// Unsubscribe deregisters and closes a subscription.
func (h *Hub) Unsubscribe(sub *HubSubscription) {
	h.mu.Lock()
	if _, ok := h.subs[sub]; ok {
		delete(h.subs, sub)
		close(sub.C)
	}
	h.mu.Unlock()
}

func (h *Hub) Notify(_ context.Context, n Notification) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs {
		select {
		case sub.C <- n:
		default:
		}
	}
}

// Package event provides state-change notification for the client stores.
// Views acquire a subscription on mount and release it by cancelling the
// context they subscribed with.
package event

import (
	"context"
	"sync"
)

// Hub fan-outs published values to all active subscribers.
type Hub[T any] struct {
	mu   sync.RWMutex
	subs map[int]chan T
	next int
}

// NewHub initialises an empty hub.
func NewHub[T any]() *Hub[T] {
	return &Hub[T]{subs: make(map[int]chan T)}
}

// Subscribe registers a subscriber and returns a channel which will receive
// published values. The channel is closed when the provided context ends.
func (h *Hub[T]) Subscribe(ctx context.Context) <-chan T {
	ch := make(chan T, 16)

	h.mu.Lock()
	id := h.next
	h.next++
	h.subs[id] = ch
	h.mu.Unlock()

	go func() {
		<-ctx.Done()
		h.mu.Lock()
		delete(h.subs, id)
		close(ch)
		h.mu.Unlock()
	}()

	return ch
}

// Publish fan-outs the value to all subscribers.
func (h *Hub[T]) Publish(v T) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- v:
		default:
			// Drop when subscriber is slow to avoid blocking.
		}
	}
}

// Len reports the number of active subscribers.
func (h *Hub[T]) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

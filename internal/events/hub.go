// Package events fans schedule changes out to in-process observers.
package events

import (
	"context"
	"log/slog"
	"sync"

	"github.com/example/trainer-scheduler/internal/scheduler"
)

// Kind names the store operation that produced an update.
type Kind string

const (
	KindCreated Kind = "created"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
	KindRefresh Kind = "refreshed"
)

// Update describes one store mutation. Events always carries the full
// collection after the mutation; Changed and RemovedIDs carry the diff.
type Update struct {
	Kind       Kind
	Changed    []scheduler.Event
	RemovedIDs []string
	Events     []scheduler.Event
}

// Listener receives updates synchronously on the publishing goroutine.
type Listener func(ctx context.Context, update Update)

type subscription struct {
	id       uint64
	listener Listener
}

// Hub is an ordered observer list. Listeners run in registration order.
type Hub struct {
	mu     sync.Mutex
	nextID uint64
	subs   []subscription
	logger *slog.Logger
}

// NewHub constructs an empty hub.
func NewHub(logger *slog.Logger) *Hub {
	if logger == nil {
		logger = slog.Default()
	}
	return &Hub{logger: logger}
}

// Subscribe registers listener and returns a function removing it. Removal is
// idempotent and applies from the next Publish on.
func (h *Hub) Subscribe(listener Listener) (unsubscribe func()) {
	if listener == nil {
		return func() {}
	}

	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs = append(h.subs, subscription{id: id, listener: listener})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.remove(id) })
	}
}

// Len returns the number of registered listeners.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

// Publish delivers update to the listeners registered when the call starts.
// A panicking listener is logged and skipped.
func (h *Hub) Publish(ctx context.Context, update Update) {
	h.mu.Lock()
	subs := make([]subscription, len(h.subs))
	copy(subs, h.subs)
	h.mu.Unlock()

	for _, sub := range subs {
		h.deliver(ctx, sub, update)
	}
}

func (h *Hub) deliver(ctx context.Context, sub subscription, update Update) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.ErrorContext(ctx, "listener panicked", "subscription", sub.id, "kind", update.Kind, "panic", r)
		}
	}()
	sub.listener(ctx, update)
}

func (h *Hub) remove(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for i, sub := range h.subs {
		if sub.id == id {
			h.subs = append(h.subs[:i:i], h.subs[i+1:]...)
			return
		}
	}
}

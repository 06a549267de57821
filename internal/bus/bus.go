// Package bus provides a synchronous, instance-scoped event bus.
//
// Subscribers are invoked in registration order, in-line with Publish.
// The bus carries no process-global state: each page tree owns its own
// instance, so subscriptions die with the tree.
package bus

import (
	"sync"
)

// Handler processes an Event; return error to signal failure.
type Handler func(Event) error

// Event is implemented by every published payload.
type Event interface {
	Name() string
}

// Bus is a simple synchronous pub/sub event bus.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[string][]Handler
}

func New() *Bus { return &Bus{subscribers: map[string][]Handler{}} }

// Subscribe registers a handler for a given event name.
func (b *Bus) Subscribe(event string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subscribers[event] = append(b.subscribers[event], h)
	b.mu.Unlock()
}

// Publish delivers an event to all handlers synchronously.
// The first handler error aborts delivery and is returned to the caller.
func (b *Bus) Publish(e Event) error {
	b.mu.RLock()
	hs := append([]Handler(nil), b.subscribers[e.Name()]...)
	b.mu.RUnlock()
	for _, h := range hs {
		if err := h(e); err != nil {
			return err
		}
	}
	return nil
}

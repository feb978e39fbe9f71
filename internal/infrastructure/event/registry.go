package event

import (
	"sync"

	"github.com/dealerhub/inventory/internal/domain/shared"
)

// HandlerRegistry tracks which handlers want which event types. Handlers
// registered without types are wildcards and see everything.
type HandlerRegistry struct {
	mu       sync.RWMutex
	byType   map[string][]shared.EventHandler
	wildcard []shared.EventHandler
}

// NewHandlerRegistry creates an empty registry.
func NewHandlerRegistry() *HandlerRegistry {
	return &HandlerRegistry{
		byType:   make(map[string][]shared.EventHandler),
		wildcard: make([]shared.EventHandler, 0),
	}
}

// Register subscribes a handler to the given event types, or to all events
// when none are given.
func (r *HandlerRegistry) Register(handler shared.EventHandler, eventTypes ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(eventTypes) == 0 {
		r.wildcard = append(r.wildcard, handler)
		return
	}

	for _, eventType := range eventTypes {
		r.byType[eventType] = append(r.byType[eventType], handler)
	}
}

// Unregister removes a handler from every subscription.
func (r *HandlerRegistry) Unregister(handler shared.EventHandler) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.wildcard = withoutHandler(r.wildcard, handler)

	for eventType, handlers := range r.byType {
		r.byType[eventType] = withoutHandler(handlers, handler)
		if len(r.byType[eventType]) == 0 {
			delete(r.byType, eventType)
		}
	}
}

// GetHandlers returns the handlers interested in eventType, type-specific
// subscriptions first, then wildcards.
func (r *HandlerRegistry) GetHandlers(eventType string) []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	typed := r.byType[eventType]
	handlers := make([]shared.EventHandler, 0, len(typed)+len(r.wildcard))
	handlers = append(handlers, typed...)
	handlers = append(handlers, r.wildcard...)

	return handlers
}

// GetAllHandlers returns every registered handler exactly once.
func (r *HandlerRegistry) GetAllHandlers() []shared.EventHandler {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seen := make(map[shared.EventHandler]bool)
	all := make([]shared.EventHandler, 0)

	appendUnique := func(handlers []shared.EventHandler) {
		for _, h := range handlers {
			if !seen[h] {
				seen[h] = true
				all = append(all, h)
			}
		}
	}

	appendUnique(r.wildcard)
	for _, handlers := range r.byType {
		appendUnique(handlers)
	}

	return all
}

func withoutHandler(handlers []shared.EventHandler, target shared.EventHandler) []shared.EventHandler {
	kept := make([]shared.EventHandler, 0, len(handlers))
	for _, h := range handlers {
		if h != target {
			kept = append(kept, h)
		}
	}
	return kept
}

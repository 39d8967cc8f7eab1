// Package bridge delivers upstream platform events to subscribed
// handlers and lets the engine emit derived events.
package bridge

import (
	"log"
	"sync"

	"streamcast/internal/models"

	"github.com/google/uuid"
)

// Handler receives one event. The event is read-only; handlers must not
// mutate it.
type Handler func(event models.Event)

// Bridge is the event subscription surface consumed by the engine.
// Subscribe returns an unsubscribe func scoped to that registration.
type Bridge interface {
	Subscribe(eventType string, handler Handler) (unsubscribe func())
	Emit(event models.Event)
}

// Local is an in-process Bridge. Handlers run in their own goroutine per
// event so subscribers never block or observe each other.
type Local struct {
	mu       sync.RWMutex
	handlers map[string]map[string]Handler // eventType -> token -> handler
}

// NewLocal creates an empty in-process bridge
func NewLocal() *Local {
	return &Local{handlers: make(map[string]map[string]Handler)}
}

func (b *Local) Subscribe(eventType string, handler Handler) func() {
	token := uuid.New().String()

	b.mu.Lock()
	if b.handlers[eventType] == nil {
		b.handlers[eventType] = make(map[string]Handler)
	}
	b.handlers[eventType][token] = handler
	b.mu.Unlock()

	return func() {
		b.mu.Lock()
		delete(b.handlers[eventType], token)
		b.mu.Unlock()
	}
}

func (b *Local) Emit(event models.Event) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Type]))
	for _, h := range b.handlers[event.Type] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	for _, h := range handlers {
		h := h
		go func() {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("BRIDGE: Handler for %s panicked: %v", event.Type, r)
				}
			}()
			h(event)
		}()
	}
}

// SubscriberCount reports registered handlers for an event type
func (b *Local) SubscriberCount(eventType string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers[eventType])
}

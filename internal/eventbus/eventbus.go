package eventbus

import (
	"log"
	"runtime/debug"
	"sync"

	"foxgrep/internal/domain"
)

// Re-export domain types for convenience
type DomainEvent = domain.DomainEvent
type EventType = domain.EventType

// Event type constants
const (
	EventSearchRequested = domain.EventSearchRequested
	EventSearchStarted   = domain.EventSearchStarted
	EventResultChunk     = domain.EventResultChunk
	EventSearchCompleted = domain.EventSearchCompleted
	EventSearchFailed    = domain.EventSearchFailed
	EventSessionClosed   = domain.EventSessionClosed
	EventConfigLoaded    = domain.EventConfigLoaded
	EventConfigChanged   = domain.EventConfigChanged
	EventError           = domain.EventError
)

// Re-export domain event types
type SearchRequestedEvent = domain.SearchRequestedEvent
type SearchStartedEvent = domain.SearchStartedEvent
type ResultChunkEvent = domain.ResultChunkEvent
type SearchCompletedEvent = domain.SearchCompletedEvent
type SearchFailedEvent = domain.SearchFailedEvent
type SessionClosedEvent = domain.SessionClosedEvent
type ConfigLoadedEvent = domain.ConfigLoadedEvent
type ConfigChangedEvent = domain.ConfigChangedEvent
type ErrorEvent = domain.ErrorEvent

// EventHandler is a function that handles domain events
type EventHandler func(DomainEvent)

// EventBus is the interface for the event bus
type EventBus interface {
	Publish(event DomainEvent)
	Subscribe(eventType EventType, handler EventHandler) func()
}

// bus is the concrete implementation of EventBus
type bus struct {
	mu        sync.RWMutex
	handlers  map[EventType][]EventHandler
	eventChan chan DomainEvent
	wg        sync.WaitGroup
	quit      chan struct{}
}

// New creates a new event bus
func New() EventBus {
	b := &bus{
		handlers:  make(map[EventType][]EventHandler),
		eventChan: make(chan DomainEvent, 1000),
		quit:      make(chan struct{}),
	}

	// Start the event dispatcher
	b.wg.Add(1)
	go b.dispatch()

	return b
}

// Publish publishes an event to all subscribers
func (b *bus) Publish(event DomainEvent) {
	// Skip logging for high-frequency events
	switch event.Type() {
	case EventResultChunk:
		// Result chunks arrive too often to log each one
	default:
		log.Printf("EventBus: Publishing event %s", event.Type())
	}

	select {
	case b.eventChan <- event:
		// Event sent successfully
	default:
		// Channel full, log and drop
		log.Printf("Event bus channel full, dropping event: %v", event.Type())
	}
}

// Subscribe subscribes to events of a specific type
// Returns an unsubscribe function
func (b *bus) Subscribe(eventType EventType, handler EventHandler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	// Add handler to the list
	b.handlers[eventType] = append(b.handlers[eventType], handler)

	// Return unsubscribe function
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		// Find and remove the handler
		handlers := b.handlers[eventType]
		for i, h := range handlers {
			// Compare function pointers
			if &h == &handler {
				// Remove handler by slicing
				b.handlers[eventType] = append(handlers[:i], handlers[i+1:]...)
				break
			}
		}
	}
}

// dispatch handles event distribution to subscribers
func (b *bus) dispatch() {
	defer b.wg.Done()

	for {
		select {
		case event := <-b.eventChan:
			// Get handlers for this event type
			b.mu.RLock()
			handlers := b.handlers[event.Type()]
			// Make a copy to avoid holding lock during handler execution
			handlersCopy := make([]EventHandler, len(handlers))
			copy(handlersCopy, handlers)
			b.mu.RUnlock()

			// Call each handler
			for _, handler := range handlersCopy {
				// Call handler in a goroutine to avoid blocking
				go func(h EventHandler, eventType EventType) {
					defer func() {
						if r := recover(); r != nil {
							log.Printf("Event handler panic for %s: %v\nStack: %s", eventType, r, debug.Stack())
						}
					}()
					h(event)
				}(handler, event.Type())
			}

		case <-b.quit:
			// Drain remaining events
			for {
				select {
				case <-b.eventChan:
					// Discard event
				default:
					return
				}
			}
		}
	}
}

package messaging

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

// Bus is an in-process Publisher and Subscriber. Publish delivers the event
// to every handler registered for its subject before returning, so a
// publisher observes the effects of its subscribers.
type Bus struct {
	mu       sync.RWMutex
	nextID   int
	handlers map[string]map[int]Handler
	logger   *slog.Logger
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		handlers: make(map[string]map[int]Handler),
		logger:   logger.With("component", "bus"),
	}
}

// Subscribe registers h for subject and returns a function removing it.
func (b *Bus) Subscribe(subject string, h Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	if b.handlers[subject] == nil {
		b.handlers[subject] = make(map[int]Handler)
	}
	b.handlers[subject][id] = h
	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.handlers[subject], id)
	}
}

// Publish runs every handler for the event's subject. Handler errors are
// joined and returned; a failing handler does not stop the others.
func (b *Bus) Publish(ctx context.Context, event Event) error {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.handlers[event.Subject()]))
	for _, h := range b.handlers[event.Subject()] {
		handlers = append(handlers, h)
	}
	b.mu.RUnlock()

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			b.logger.WarnContext(ctx, "Event handler failed", "subject", event.Subject(), "error", err)
			errs = append(errs, fmt.Errorf("handler for %s: %w", event.Subject(), err))
		}
	}
	return errors.Join(errs...)
}

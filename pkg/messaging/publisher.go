package messaging

import (
	"context"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Identified is implemented by events that carry a unique ID. Transports
// use it for deduplication.
type Identified interface {
	ID() string
}

// Handler consumes one event. Handlers run on the publisher's goroutine.
type Handler func(ctx context.Context, event Event) error

type Subscriber interface {
	Subscribe(subject string, h Handler) (unsubscribe func())
}

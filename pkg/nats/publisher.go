package nats

import (
	"context"
	"errors"
	"fmt"

	"github.com/abgdnv/gocommerce-storefront/pkg/messaging"
	"github.com/nats-io/nats.go/jetstream"
)

// ErrDuplicate is returned when JetStream already stored an event with the
// same ID.
var ErrDuplicate = errors.New("duplicate event")

// NatsPublisher mirrors storefront events into a JetStream stream. Events
// that carry an ID are published with it as the message ID, so JetStream
// drops a retried duplicate within the stream's dedupe window.
type NatsPublisher struct {
	js jetstream.JetStream
}

func NewNatsPublisher(js jetstream.JetStream) *NatsPublisher {
	return &NatsPublisher{js: js}
}

func (p *NatsPublisher) Publish(ctx context.Context, event messaging.Event) error {
	data, err := event.Payload()
	if err != nil {
		return fmt.Errorf("failed to get event payload: %w", err)
	}
	var opts []jetstream.PublishOpt
	if identified, ok := event.(messaging.Identified); ok {
		opts = append(opts, jetstream.WithMsgID(identified.ID()))
	}
	ack, err := p.js.Publish(ctx, event.Subject(), data, opts...)
	if err != nil {
		return fmt.Errorf("failed to publish %s: %w", event.Subject(), err)
	}
	if ack.Duplicate {
		return fmt.Errorf("%w: %s", ErrDuplicate, event.Subject())
	}
	return nil
}

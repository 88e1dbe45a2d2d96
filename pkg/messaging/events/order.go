package events

import (
	"encoding/json"
	"time"

	"github.com/abgdnv/gocommerce-storefront/pkg/messaging"
	"github.com/google/uuid"
)

type OrderPlacedEvent struct {
	EventID       uuid.UUID `json:"event_id"`
	OrderID       string    `json:"order_id"`
	PaymentMethod string    `json:"payment_method"`
	Total         string    `json:"total"`
	PlacedAt      time.Time `json:"placed_at"`
}

func (o OrderPlacedEvent) Subject() string {
	return messaging.OrdersPlacedSubject
}

func (o OrderPlacedEvent) ID() string {
	return o.EventID.String()
}

func (o OrderPlacedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}

// OrderReplayedEvent announces that the items of a past order were copied
// into the cart on the server.
type OrderReplayedEvent struct {
	EventID    uuid.UUID       `json:"event_id"`
	OrderID    string          `json:"order_id"`
	Data       json.RawMessage `json:"data,omitempty"`
	ReplayedAt time.Time       `json:"replayed_at"`
}

func (o OrderReplayedEvent) Subject() string {
	return messaging.OrdersReplayedSubject
}

func (o OrderReplayedEvent) ID() string {
	return o.EventID.String()
}

func (o OrderReplayedEvent) Payload() ([]byte, error) {
	return json.Marshal(o)
}

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/abgdnv/gocommerce-storefront/internal/domain"
	storeerrors "github.com/abgdnv/gocommerce-storefront/internal/errors"
	"github.com/abgdnv/gocommerce-storefront/pkg/messaging"
	"github.com/abgdnv/gocommerce-storefront/pkg/messaging/events"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// OrderAPI is the part of the backend client used by OrderStore.
type OrderAPI interface {
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.Order, error)
	ListOrders(ctx context.Context, q domain.OrderQuery) ([]domain.Order, domain.Pagination, error)
	GetOrder(ctx context.Context, orderID domain.ID) (domain.Order, error)
	CancelOrder(ctx context.Context, orderID domain.ID, reason string) (string, error)
	Reorder(ctx context.Context, orderID domain.ID) (json.RawMessage, string, error)
}

// OrderState is a point-in-time copy of the order state for views.
type OrderState struct {
	Orders       []domain.Order    `json:"orders"`
	CurrentOrder *domain.Order     `json:"currentOrder,omitempty"`
	Pagination   domain.Pagination `json:"pagination"`
	Loading      bool              `json:"loading"`
	Error        string            `json:"error,omitempty"`
}

// OrderStore owns the order history page and the currently viewed order.
// The list and the current order are sequenced independently.
type OrderStore struct {
	api          OrderAPI
	publisher    messaging.Publisher
	logger       *slog.Logger
	metrics      *storeMetrics
	ordersPlaced metric.Int64Counter

	mu           sync.RWMutex
	orders       []domain.Order
	currentOrder *domain.Order
	pagination   domain.Pagination
	lastQuery    domain.OrderQuery
	loading      int
	err          string
	listSeq      uint64
	detailSeq    uint64
}

func NewOrderStore(api OrderAPI, publisher messaging.Publisher, logger *slog.Logger) *OrderStore {
	meter := otel.Meter(meterName)
	ordersPlaced, err := meter.Int64Counter("orders_placed", metric.WithDescription("Total number of orders placed from this client"))
	if err != nil {
		panic(fmt.Sprintf("failed to create orders_placed counter: %v", err))
	}
	return &OrderStore{
		api:          api,
		publisher:    publisher,
		logger:       logger.With("component", "order_store"),
		metrics:      newStoreMetrics("order"),
		ordersPlaced: ordersPlaced,
		orders:       []domain.Order{},
		pagination:   domain.DefaultPagination(),
		lastQuery:    domain.OrderQuery{}.WithDefaults(),
	}
}

// Snapshot returns a copy of the current order state.
func (s *OrderStore) Snapshot() OrderState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	orders := make([]domain.Order, len(s.orders))
	copy(orders, s.orders)
	state := OrderState{
		Orders:     orders,
		Pagination: s.pagination,
		Loading:    s.loading > 0,
		Error:      s.err,
	}
	if s.currentOrder != nil {
		current := *s.currentOrder
		state.CurrentOrder = &current
	}
	return state
}

// PlaceOrder creates an order and makes it the current order. Clearing the
// cart afterwards is the caller's decision.
func (s *OrderStore) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) Result[domain.Order] {
	s.mu.Lock()
	s.detailSeq++
	seq := s.detailSeq
	s.loading++
	s.err = ""
	s.mu.Unlock()

	order, err := s.api.PlaceOrder(ctx, req)
	s.metrics.record(ctx, "place_order", err == nil)
	if err != nil {
		s.finishWithError(ctx, "place_order", err, "Failed to place order")
		return fail[domain.Order](err, "Failed to place order")
	}

	s.mu.Lock()
	s.loading--
	if seq == s.detailSeq {
		s.currentOrder = &order
	} else {
		// the store was reset or moved on to another order meanwhile; the
		// order exists on the server but is not shown
		s.logger.DebugContext(ctx, "Not showing superseded placed order", "order_id", order.OrderID)
		s.metrics.stale(ctx, "place_order")
	}
	s.mu.Unlock()

	s.ordersPlaced.Add(ctx, 1)
	s.publish(ctx, events.OrderPlacedEvent{
		EventID:       uuid.New(),
		OrderID:       order.OrderID.String(),
		PaymentMethod: string(req.PaymentMethod),
		Total:         order.Total.String(),
		PlacedAt:      time.Now().UTC(),
	})
	s.logger.InfoContext(ctx, "Order placed", "order_id", order.OrderID)
	return succeed(order, "")
}

// FetchOrders loads one page of the order history. Unset query fields take
// the defaults: page 1, 10 per page, newest first. The returned page carries
// the pagination of this response even when it is superseded.
func (s *OrderStore) FetchOrders(ctx context.Context, q domain.OrderQuery) Result[domain.OrderPage] {
	q = q.WithDefaults()

	s.mu.Lock()
	s.listSeq++
	seq := s.listSeq
	s.lastQuery = q
	s.loading++
	s.err = ""
	s.mu.Unlock()

	orders, pagination, err := s.api.ListOrders(ctx, q)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if seq != s.listSeq {
		s.logger.DebugContext(ctx, "Discarding superseded order list response", "seq", seq, "latest", s.listSeq)
		s.metrics.stale(ctx, "fetch_orders")
		if err != nil {
			return fail[domain.OrderPage](err, "Failed to fetch orders")
		}
		return succeed(domain.OrderPage{Orders: orders, Pagination: pagination}, "")
	}
	s.metrics.record(ctx, "fetch_orders", err == nil)
	if err != nil {
		s.orders = []domain.Order{}
		if !errors.Is(err, storeerrors.ErrUnauthorized) {
			s.err = storeerrors.Message(err, "Failed to fetch orders")
		}
		s.logger.WarnContext(ctx, "Failed to fetch orders", "error", err)
		return fail[domain.OrderPage](err, "Failed to fetch orders")
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	s.orders = orders
	s.pagination = pagination
	return succeed(domain.OrderPage{Orders: orders, Pagination: pagination}, "")
}

// FetchOrderDetails loads one order and makes it the current order.
func (s *OrderStore) FetchOrderDetails(ctx context.Context, orderID domain.ID) Result[domain.Order] {
	s.mu.Lock()
	s.detailSeq++
	seq := s.detailSeq
	s.loading++
	s.err = ""
	s.mu.Unlock()

	order, err := s.api.GetOrder(ctx, orderID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if seq != s.detailSeq {
		s.logger.DebugContext(ctx, "Discarding superseded order details response", "order_id", orderID)
		s.metrics.stale(ctx, "fetch_order_details")
		if err != nil {
			return fail[domain.Order](err, "Failed to fetch order details")
		}
		return succeed(order, "")
	}
	s.metrics.record(ctx, "fetch_order_details", err == nil)
	if err != nil {
		if !errors.Is(err, storeerrors.ErrUnauthorized) {
			s.err = storeerrors.Message(err, "Failed to fetch order details")
		}
		s.logger.WarnContext(ctx, "Failed to fetch order details", "order_id", orderID, "error", err)
		return fail[domain.Order](err, "Failed to fetch order details")
	}
	s.currentOrder = &order
	return succeed(order, "")
}

// CancelOrder asks the server to cancel the order, then reloads the order
// list at the current page. The local status is never patched.
func (s *OrderStore) CancelOrder(ctx context.Context, orderID domain.ID, reason string) Ack {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		s.metrics.record(ctx, "cancel_order", false)
		return fail[struct{}](storeerrors.ErrEmptyCancelReason, "")
	}

	s.begin()
	msg, err := s.api.CancelOrder(ctx, orderID, reason)
	s.metrics.record(ctx, "cancel_order", err == nil)
	if err != nil {
		s.finishWithError(ctx, "cancel_order", err, "Failed to cancel order")
		return fail[struct{}](err, "Failed to cancel order")
	}
	s.mu.Lock()
	s.loading--
	q := s.lastQuery
	q.Page = s.pagination.CurrentPage
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Order cancelled", "order_id", orderID)
	s.FetchOrders(ctx, q)
	return succeed(struct{}{}, msg)
}

// Reorder copies a past order into the cart on the server and announces it
// with an OrderReplayed event. The order state is left untouched.
func (s *OrderStore) Reorder(ctx context.Context, orderID domain.ID) Result[json.RawMessage] {
	s.begin()
	data, msg, err := s.api.Reorder(ctx, orderID)
	s.metrics.record(ctx, "reorder", err == nil)
	if err != nil {
		s.finishWithError(ctx, "reorder", err, "Failed to reorder")
		return fail[json.RawMessage](err, "Failed to reorder")
	}
	s.mu.Lock()
	s.loading--
	s.mu.Unlock()

	s.publish(ctx, events.OrderReplayedEvent{
		EventID:    uuid.New(),
		OrderID:    orderID.String(),
		Data:       data,
		ReplayedAt: time.Now().UTC(),
	})
	return succeed(data, msg)
}

// Reset drops all order state without contacting the server.
func (s *OrderStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listSeq++
	s.detailSeq++
	s.orders = []domain.Order{}
	s.currentOrder = nil
	s.pagination = domain.DefaultPagination()
	s.lastQuery = domain.OrderQuery{}.WithDefaults()
	s.err = ""
}

func (s *OrderStore) begin() {
	s.mu.Lock()
	s.loading++
	s.err = ""
	s.mu.Unlock()
}

func (s *OrderStore) finishWithError(ctx context.Context, op string, err error, fallback string) {
	s.logger.WarnContext(ctx, "Order operation failed", "operation", op, "error", err)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if !errors.Is(err, storeerrors.ErrUnauthorized) {
		s.err = storeerrors.Message(err, fallback)
	}
}

func (s *OrderStore) publish(ctx context.Context, event messaging.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "subject", event.Subject(), "error", err)
	}
}

package store

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/abgdnv/gocommerce-storefront/internal/domain"
	storeerrors "github.com/abgdnv/gocommerce-storefront/internal/errors"
	"github.com/abgdnv/gocommerce-storefront/pkg/messaging"
)

// CartAPI is the part of the backend client used by CartStore.
type CartAPI interface {
	GetCart(ctx context.Context) ([]domain.CartLineItem, domain.CartSummary, error)
	AddToCart(ctx context.Context, productID domain.ID, quantity int) (string, error)
	UpdateCartItem(ctx context.Context, productID domain.ID, quantity int) (string, error)
	RemoveFromCart(ctx context.Context, productID domain.ID) (string, error)
	ClearCart(ctx context.Context) (string, error)
}

// CartState is a point-in-time copy of the cart for views.
type CartState struct {
	Items   []domain.CartLineItem `json:"items"`
	Summary domain.CartSummary    `json:"summary"`
	Loading bool                  `json:"loading"`
	Error   string                `json:"error,omitempty"`
}

// CartStore owns the cart line items and summary of the session.
type CartStore struct {
	api     CartAPI
	logger  *slog.Logger
	metrics *storeMetrics

	mu      sync.RWMutex
	items   []domain.CartLineItem
	summary domain.CartSummary
	loading int
	err     string
	seq     uint64
}

func NewCartStore(api CartAPI, logger *slog.Logger) *CartStore {
	return &CartStore{
		api:     api,
		logger:  logger.With("component", "cart_store"),
		metrics: newStoreMetrics("cart"),
		items:   []domain.CartLineItem{},
		summary: domain.ZeroSummary(),
	}
}

// Snapshot returns a copy of the current cart state.
func (s *CartStore) Snapshot() CartState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]domain.CartLineItem, len(s.items))
	copy(items, s.items)
	return CartState{
		Items:   items,
		Summary: s.summary,
		Loading: s.loading > 0,
		Error:   s.err,
	}
}

// FetchCart replaces the cart with the server's. On failure the cart is
// emptied and the error recorded; a result superseded by a newer fetch or
// clear is dropped.
func (s *CartStore) FetchCart(ctx context.Context) error {
	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.loading++
	s.err = ""
	s.mu.Unlock()

	items, summary, err := s.api.GetCart(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading--
	if seq != s.seq {
		s.logger.DebugContext(ctx, "Discarding superseded cart response", "seq", seq, "latest", s.seq)
		s.metrics.stale(ctx, "fetch_cart")
		return err
	}
	s.metrics.record(ctx, "fetch_cart", err == nil)
	if err != nil {
		s.items = []domain.CartLineItem{}
		s.summary = domain.ZeroSummary()
		if !errors.Is(err, storeerrors.ErrUnauthorized) {
			s.err = storeerrors.Message(err, "Failed to load cart")
		}
		s.logger.WarnContext(ctx, "Failed to fetch cart", "error", err)
		return err
	}
	if items == nil {
		items = []domain.CartLineItem{}
	}
	s.items = items
	s.summary = summary
	return nil
}

// AddToCart adds quantity units of a product.
func (s *CartStore) AddToCart(ctx context.Context, productID domain.ID, quantity int) Ack {
	return s.mutate(ctx, "add_to_cart", "Failed to add item to cart", func() (string, error) {
		if !domain.ValidQuantity(quantity) {
			return "", storeerrors.ErrInvalidQuantity
		}
		return s.api.AddToCart(ctx, productID, quantity)
	})
}

func (s *CartStore) UpdateQuantity(ctx context.Context, productID domain.ID, quantity int) Ack {
	return s.mutate(ctx, "update_quantity", "Failed to update quantity", func() (string, error) {
		if !domain.ValidQuantity(quantity) {
			return "", storeerrors.ErrInvalidQuantity
		}
		return s.api.UpdateCartItem(ctx, productID, quantity)
	})
}

func (s *CartStore) RemoveItem(ctx context.Context, productID domain.ID) Ack {
	return s.mutate(ctx, "remove_item", "Failed to remove item", func() (string, error) {
		return s.api.RemoveFromCart(ctx, productID)
	})
}

// ClearCart empties the cart on the server and sets the zeroed state
// directly, superseding any fetch still in flight.
func (s *CartStore) ClearCart(ctx context.Context) Ack {
	s.clearError()
	msg, err := s.api.ClearCart(ctx)
	s.metrics.record(ctx, "clear_cart", err == nil)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to clear cart", "error", err)
		s.setError(err, "Failed to clear cart")
		return fail[struct{}](err, "Failed to clear cart")
	}
	s.mu.Lock()
	s.seq++
	s.items = []domain.CartLineItem{}
	s.summary = domain.ZeroSummary()
	s.mu.Unlock()
	return succeed(struct{}{}, msg)
}

// Reset drops all cart state without contacting the server.
func (s *CartStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	s.items = []domain.CartLineItem{}
	s.summary = domain.ZeroSummary()
	s.err = ""
}

// Subscribe refreshes the cart whenever an order is replayed into it.
func (s *CartStore) Subscribe(sub messaging.Subscriber) func() {
	return sub.Subscribe(messaging.OrdersReplayedSubject, func(ctx context.Context, _ messaging.Event) error {
		return s.FetchCart(ctx)
	})
}

// mutate runs one fire-and-confirm mutation: call, then refetch on success.
func (s *CartStore) mutate(ctx context.Context, op, fallback string, call func() (string, error)) Ack {
	s.clearError()
	msg, err := call()
	s.metrics.record(ctx, op, err == nil)
	if err != nil {
		s.logger.WarnContext(ctx, "Cart mutation failed", "operation", op, "error", err)
		s.setError(err, fallback)
		return fail[struct{}](err, fallback)
	}
	// The refetch outcome lands in the state; the mutation itself succeeded.
	_ = s.FetchCart(ctx)
	return succeed(struct{}{}, msg)
}

func (s *CartStore) clearError() {
	s.mu.Lock()
	s.err = ""
	s.mu.Unlock()
}

func (s *CartStore) setError(err error, fallback string) {
	if errors.Is(err, storeerrors.ErrUnauthorized) {
		return
	}
	s.mu.Lock()
	s.err = storeerrors.Message(err, fallback)
	s.mu.Unlock()
}

package store

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"sort"
	"strconv"
	"sync"

	"github.com/abgdnv/gocommerce-storefront/internal/domain"
	storeerrors "github.com/abgdnv/gocommerce-storefront/internal/errors"
	"github.com/abgdnv/gocommerce-storefront/pkg/messaging"
	"github.com/shopspring/decimal"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	taxRate        = decimal.RequireFromString("0.05")
	deliveryCharge = decimal.NewFromInt(40)
)

// fakeCartAPI keeps an authoritative cart the way the backend would.
type fakeCartAPI struct {
	mu       sync.Mutex
	prices   map[domain.ID]decimal.Decimal
	quantity map[domain.ID]int
	calls    map[string]int

	// failures injected per operation name
	errs map[string]error
	// gate, when set for GetCart, blocks the n-th call until released
	gates map[int]chan struct{}
}

func newFakeCartAPI() *fakeCartAPI {
	return &fakeCartAPI{
		prices:   map[domain.ID]decimal.Decimal{},
		quantity: map[domain.ID]int{},
		calls:    map[string]int{},
		errs:     map[string]error{},
		gates:    map[int]chan struct{}{},
	}
}

func (f *fakeCartAPI) withItem(id domain.ID, price int64, quantity int) *fakeCartAPI {
	f.prices[id] = decimal.NewFromInt(price)
	f.quantity[id] = quantity
	return f
}

func (f *fakeCartAPI) failWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

func (f *fakeCartAPI) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeCartAPI) enter(op string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.calls[op], f.errs[op]
}

func (f *fakeCartAPI) snapshot() ([]domain.CartLineItem, domain.CartSummary) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ids := make([]string, 0, len(f.quantity))
	for id := range f.quantity {
		ids = append(ids, string(id))
	}
	sort.Strings(ids)

	items := make([]domain.CartLineItem, 0, len(ids))
	summary := domain.ZeroSummary()
	for _, raw := range ids {
		id := domain.ID(raw)
		qty := f.quantity[id]
		subtotal := f.prices[id].Mul(decimal.NewFromInt(int64(qty)))
		items = append(items, domain.CartLineItem{
			ProductID:   id,
			ProductName: "Product " + raw,
			Price:       f.prices[id],
			Quantity:    qty,
			Subtotal:    subtotal,
			InStock:     true,
		})
		summary.TotalItems++
		summary.TotalQuantity += qty
		summary.Subtotal = summary.Subtotal.Add(subtotal)
	}
	if len(items) > 0 {
		summary.Tax = summary.Subtotal.Mul(taxRate)
		summary.DeliveryCharge = deliveryCharge
		summary.Total = summary.Subtotal.Add(summary.Tax).Add(summary.DeliveryCharge).Sub(summary.Discount)
	}
	return items, summary
}

func (f *fakeCartAPI) GetCart(ctx context.Context) ([]domain.CartLineItem, domain.CartSummary, error) {
	n, err := f.enter("get")
	f.mu.Lock()
	gate := f.gates[n]
	f.mu.Unlock()
	// snapshot before blocking so a gated call returns what the server held
	// when the request was served
	items, summary := f.snapshot()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, domain.ZeroSummary(), ctx.Err()
		}
	}
	if err != nil {
		return nil, domain.ZeroSummary(), err
	}
	return items, summary, nil
}

func (f *fakeCartAPI) AddToCart(_ context.Context, productID domain.ID, quantity int) (string, error) {
	if _, err := f.enter("add"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.prices[productID]; !ok {
		f.prices[productID] = decimal.NewFromInt(100)
	}
	f.quantity[productID] += quantity
	return "Item added to cart", nil
}

func (f *fakeCartAPI) UpdateCartItem(_ context.Context, productID domain.ID, quantity int) (string, error) {
	if _, err := f.enter("update"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.quantity[productID]; !ok {
		return "", &storeerrors.APIError{StatusCode: 404, Message: "Item not in cart"}
	}
	f.quantity[productID] = quantity
	return "Cart updated", nil
}

func (f *fakeCartAPI) RemoveFromCart(_ context.Context, productID domain.ID) (string, error) {
	if _, err := f.enter("remove"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.quantity, productID)
	return "Item removed", nil
}

func (f *fakeCartAPI) ClearCart(context.Context) (string, error) {
	if _, err := f.enter("clear"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.quantity = map[domain.ID]int{}
	return "", nil
}

// fakeOrderAPI is a backend order book.
type fakeOrderAPI struct {
	mu        sync.Mutex
	orders    []domain.Order
	calls     map[string]int
	errs      map[string]error
	queries   []domain.OrderQuery
	nextID    int
	// listGates blocks the n-th ListOrders call until released
	listGates map[int]chan struct{}
	// placeGate, when set, blocks PlaceOrder after the order is created
	placeGate chan struct{}
}

func newFakeOrderAPI(orders ...domain.Order) *fakeOrderAPI {
	return &fakeOrderAPI{
		orders:    orders,
		calls:     map[string]int{},
		errs:      map[string]error{},
		listGates: map[int]chan struct{}{},
		nextID:    200,
	}
}

func (f *fakeOrderAPI) enter(op string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
	return f.calls[op], f.errs[op]
}

func (f *fakeOrderAPI) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeOrderAPI) failWith(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[op] = err
}

func (f *fakeOrderAPI) PlaceOrder(_ context.Context, req domain.PlaceOrderRequest) (domain.Order, error) {
	if _, err := f.enter("place"); err != nil {
		return domain.Order{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	order := domain.Order{
		OrderID:         domain.ID("ORD" + strconv.Itoa(f.nextID)),
		Status:          domain.StatusPending,
		DeliveryAddress: req.DeliveryAddress,
		PaymentMethod:   req.PaymentMethod,
		Total:           decimal.NewFromInt(292),
	}
	order.OrderNumber = order.OrderID.String()
	f.orders = append([]domain.Order{order}, f.orders...)
	gate := f.placeGate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	f.mu.Lock()
	return order, nil
}

func (f *fakeOrderAPI) ListOrders(ctx context.Context, q domain.OrderQuery) ([]domain.Order, domain.Pagination, error) {
	n, err := f.enter("list")
	f.mu.Lock()
	f.queries = append(f.queries, q)
	gate := f.listGates[n]
	all := make([]domain.Order, 0, len(f.orders))
	for _, o := range f.orders {
		if q.Status == "" || o.Status == q.Status {
			all = append(all, o)
		}
	}
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, domain.Pagination{}, ctx.Err()
		}
	}
	if err != nil {
		return nil, domain.Pagination{}, err
	}

	totalPages := (len(all) + q.PageSize - 1) / q.PageSize
	if totalPages == 0 {
		totalPages = 1
	}
	start := (q.Page - 1) * q.PageSize
	page := []domain.Order{}
	if start < len(all) {
		end := min(start+q.PageSize, len(all))
		page = append(page, all[start:end]...)
	}
	return page, domain.Pagination{
		CurrentPage: q.Page,
		PageSize:    q.PageSize,
		TotalPages:  totalPages,
		TotalItems:  len(all),
	}, nil
}

func (f *fakeOrderAPI) GetOrder(_ context.Context, orderID domain.ID) (domain.Order, error) {
	if _, err := f.enter("get"); err != nil {
		return domain.Order{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, o := range f.orders {
		if o.OrderID == orderID {
			return o, nil
		}
	}
	return domain.Order{}, &storeerrors.APIError{StatusCode: 404, Message: "Order not found"}
}

func (f *fakeOrderAPI) CancelOrder(_ context.Context, orderID domain.ID, _ string) (string, error) {
	if _, err := f.enter("cancel"); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, o := range f.orders {
		if o.OrderID != orderID {
			continue
		}
		if !o.Status.Cancellable() {
			return "", &storeerrors.APIError{StatusCode: 400, Message: "Order cannot be cancelled"}
		}
		f.orders[i].Status = domain.StatusCancelled
		return "Order cancelled successfully", nil
	}
	return "", &storeerrors.APIError{StatusCode: 404, Message: "Order not found"}
}

func (f *fakeOrderAPI) Reorder(_ context.Context, orderID domain.ID) (json.RawMessage, string, error) {
	if _, err := f.enter("reorder"); err != nil {
		return nil, "", err
	}
	return json.RawMessage(`{"orderId":"` + orderID.String() + `"}`), "Items added to cart", nil
}

// recordingPublisher remembers every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []messaging.Event
}

func (p *recordingPublisher) Publish(_ context.Context, event messaging.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *recordingPublisher) subjects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Subject())
	}
	return out
}

package rest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/abgdnv/gocommerce-storefront/internal/api"
	"github.com/abgdnv/gocommerce-storefront/internal/domain"
	storeerrors "github.com/abgdnv/gocommerce-storefront/internal/errors"
	"github.com/abgdnv/gocommerce-storefront/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockCartStore is a mock implementation of the CartStore interface
type mockCartStore struct {
	state    store.CartState
	fetchErr error
	ack      store.Ack
	clearAck store.Ack

	added      []domain.ID
	quantities []int
	cleared    int
}

func (m *mockCartStore) FetchCart(context.Context) error { return m.fetchErr }
func (m *mockCartStore) Snapshot() store.CartState      { return m.state }

func (m *mockCartStore) AddToCart(_ context.Context, productID domain.ID, quantity int) store.Ack {
	m.added = append(m.added, productID)
	m.quantities = append(m.quantities, quantity)
	return m.ack
}

func (m *mockCartStore) UpdateQuantity(context.Context, domain.ID, int) store.Ack { return m.ack }
func (m *mockCartStore) RemoveItem(context.Context, domain.ID) store.Ack          { return m.ack }

func (m *mockCartStore) ClearCart(context.Context) store.Ack {
	m.cleared++
	return m.clearAck
}

// mockOrderStore is a mock implementation of the OrderStore interface
type mockOrderStore struct {
	order      domain.Order
	orders     []domain.Order
	pagination domain.Pagination
	error      error
	cancelled  []string
	replayed   []domain.ID
	placed     []domain.PlaceOrderRequest
	queries    []domain.OrderQuery
}

func (m *mockOrderStore) result() store.Result[domain.Order] {
	if m.error != nil {
		return store.Result[domain.Order]{Message: storeerrors.Message(m.error, "failed"), Err: m.error}
	}
	return store.Result[domain.Order]{Success: true, Data: m.order}
}

func (m *mockOrderStore) PlaceOrder(_ context.Context, req domain.PlaceOrderRequest) store.Result[domain.Order] {
	m.placed = append(m.placed, req)
	return m.result()
}

func (m *mockOrderStore) FetchOrders(_ context.Context, q domain.OrderQuery) store.Result[domain.OrderPage] {
	m.queries = append(m.queries, q)
	if m.error != nil {
		return store.Result[domain.OrderPage]{Message: storeerrors.Message(m.error, "Failed to fetch orders"), Err: m.error}
	}
	return store.Result[domain.OrderPage]{Success: true, Data: domain.OrderPage{Orders: m.orders, Pagination: m.pagination}}
}

func (m *mockOrderStore) FetchOrderDetails(context.Context, domain.ID) store.Result[domain.Order] {
	return m.result()
}

func (m *mockOrderStore) CancelOrder(_ context.Context, _ domain.ID, reason string) store.Ack {
	m.cancelled = append(m.cancelled, reason)
	return store.Ack{Success: true, Message: "Order cancelled successfully"}
}

func (m *mockOrderStore) Reorder(_ context.Context, orderID domain.ID) store.Result[json.RawMessage] {
	m.replayed = append(m.replayed, orderID)
	return store.Result[json.RawMessage]{Success: true, Message: "Items added to cart"}
}

func (m *mockOrderStore) Snapshot() store.OrderState {
	return store.OrderState{Orders: m.orders, Pagination: domain.Pagination{CurrentPage: 2, PageSize: 5, TotalPages: 3, TotalItems: 12}}
}

type mockAuth struct {
	user      json.RawMessage
	error     error
	loggedOut bool
	signedUp  string
}

func (m *mockAuth) Login(context.Context, api.Credentials) (json.RawMessage, error) {
	return m.user, m.error
}

func (m *mockAuth) Signup(_ context.Context, _ api.Credentials, name string) (json.RawMessage, error) {
	m.signedUp = name
	return m.user, m.error
}

func (m *mockAuth) Logout(context.Context) { m.loggedOut = true }

type mockCatalog struct {
	page    domain.ProductPage
	product domain.Product
	error   error
	query   domain.ProductQuery
}

func (m *mockCatalog) SearchProducts(_ context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	m.query = q
	return m.page, m.error
}

func (m *mockCatalog) GetProduct(context.Context, domain.ID) (domain.Product, error) {
	return m.product, m.error
}

type mockSession struct {
	authenticated bool
	user          json.RawMessage
}

func (m mockSession) Authenticated(context.Context) bool { return m.authenticated }
func (m mockSession) User() json.RawMessage              { return m.user }

type mockBreaker gobreaker.State

func (m mockBreaker) State() gobreaker.State { return gobreaker.State(m) }

func setupRouter(deps Dependencies) *chi.Mux {
	if deps.Session == nil {
		deps.Session = mockSession{authenticated: true}
	}
	if deps.Cart == nil {
		deps.Cart = &mockCartStore{}
	}
	if deps.Orders == nil {
		deps.Orders = &mockOrderStore{}
	}
	if deps.Auth == nil {
		deps.Auth = &mockAuth{}
	}
	if deps.Catalog == nil {
		deps.Catalog = &mockCatalog{}
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	r := chi.NewRouter()
	NewHandler(deps, logger).RegisterRoutes(r)
	return r
}

func serve(r http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	return rr
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	return body
}

func Test_Handler_RequiresSession(t *testing.T) {
	// given
	cart := &mockCartStore{}
	r := setupRouter(Dependencies{Cart: cart, Session: mockSession{authenticated: false}})

	for _, target := range []string{"/api/v1/cart", "/api/v1/orders", "/api/v1/checkout/address"} {
		t.Run(target, func(t *testing.T) {
			// when
			rr := serve(r, http.MethodGet, target, "")

			// then
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
			assert.JSONEq(t, `{"error":"not authenticated","redirect":"/login"}`, rr.Body.String())
		})
	}
	assert.Empty(t, cart.added)
}

func Test_Handler_GetCart(t *testing.T) {
	items := []domain.CartLineItem{{ProductID: "1", ProductName: "Paneer Tikka", Price: decimal.NewFromInt(100), Quantity: 2, Subtotal: decimal.NewFromInt(200), InStock: true}}
	testCases := []struct {
		name         string
		cart         *mockCartStore
		expectedCode int
		expectedBody string
	}{
		{
			name:         "cart loaded",
			cart:         &mockCartStore{state: store.CartState{Items: items, Summary: domain.ZeroSummary()}},
			expectedCode: http.StatusOK,
		},
		{
			name:         "session rejected by backend",
			cart:         &mockCartStore{fetchErr: &storeerrors.APIError{StatusCode: http.StatusUnauthorized}},
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"error":"session expired, please log in again","redirect":"/login"}`,
		},
		{
			name:         "backend unreachable",
			cart:         &mockCartStore{fetchErr: fmt.Errorf("%w: dial tcp", storeerrors.ErrTransport), state: store.CartState{Error: "Failed to load cart"}},
			expectedCode: http.StatusBadGateway,
		},
		{
			name:         "circuit open",
			cart:         &mockCartStore{fetchErr: fmt.Errorf("%w: GET /cart: %w", storeerrors.ErrTransport, gobreaker.ErrOpenState)},
			expectedCode: http.StatusServiceUnavailable,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			r := setupRouter(Dependencies{Cart: tc.cart})

			// when
			rr := serve(r, http.MethodGet, "/api/v1/cart", "")

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
		})
	}
}

func Test_Handler_GetCart_Body(t *testing.T) {
	// given
	cart := &mockCartStore{state: store.CartState{
		Items:   []domain.CartLineItem{{ProductID: "7", ProductName: "Dal", Quantity: 3}},
		Summary: domain.CartSummary{TotalItems: 1, TotalQuantity: 3},
	}}
	r := setupRouter(Dependencies{Cart: cart})

	// when
	rr := serve(r, http.MethodGet, "/api/v1/cart", "")

	// then
	require.Equal(t, http.StatusOK, rr.Code)
	var body store.Result[store.CartState]
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.True(t, body.Success)
	require.Len(t, body.Data.Items, 1)
	assert.Equal(t, domain.ID("7"), body.Data.Items[0].ProductID)
	assert.Equal(t, 3, body.Data.Summary.TotalQuantity)
}

func Test_Handler_AddItem(t *testing.T) {
	testCases := []struct {
		name             string
		body             string
		ack              store.Ack
		expectedCode     int
		expectedBody     string
		expectCall       bool
		expectedQuantity int
	}{
		{
			name:             "added",
			body:             `{"productId":"42","quantity":2}`,
			ack:              store.Ack{Success: true, Message: "Item added to cart"},
			expectedCode:     http.StatusOK,
			expectCall:       true,
			expectedQuantity: 2,
		},
		{
			name:             "quantity omitted",
			body:             `{"productId":"42"}`,
			ack:              store.Ack{Success: true, Message: "Item added to cart"},
			expectedCode:     http.StatusOK,
			expectCall:       true,
			expectedQuantity: 1,
		},
		{
			name:             "quantity 0",
			body:             `{"productId":"42","quantity":0}`,
			ack:              store.Ack{Message: storeerrors.ErrInvalidQuantity.Error(), Err: storeerrors.ErrInvalidQuantity},
			expectedCode:     http.StatusBadRequest,
			expectCall:       true,
			expectedQuantity: 0,
		},
		{
			name:         "missing product",
			body:         `{"quantity":2}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{"ProductID":"failed on rule: required"}}`,
		},
		{
			name:         "unknown field",
			body:         `{"productId":"42","qty":2}`,
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"error":"Invalid request body: unknown field \"qty\""}`,
		},
		{
			name:             "quantity out of bounds",
			body:             `{"productId":"42","quantity":11}`,
			ack:              store.Ack{Message: storeerrors.ErrInvalidQuantity.Error(), Err: storeerrors.ErrInvalidQuantity},
			expectedCode:     http.StatusBadRequest,
			expectCall:       true,
			expectedQuantity: 11,
		},
		{
			name:             "backend refused",
			body:             `{"productId":"42"}`,
			ack:              store.Ack{Message: "Product out of stock", Err: &storeerrors.APIError{StatusCode: http.StatusConflict, Message: "Product out of stock"}},
			expectedCode:     http.StatusConflict,
			expectCall:       true,
			expectedQuantity: 1,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			cart := &mockCartStore{ack: tc.ack}
			r := setupRouter(Dependencies{Cart: cart})

			// when
			rr := serve(r, http.MethodPost, "/api/v1/cart/items", tc.body)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedBody != "" {
				assert.JSONEq(t, tc.expectedBody, rr.Body.String())
			}
			if tc.expectCall {
				assert.Equal(t, []domain.ID{"42"}, cart.added)
				assert.Equal(t, []int{tc.expectedQuantity}, cart.quantities)
			} else {
				assert.Empty(t, cart.added)
			}
		})
	}
}

func Test_Handler_UpdateAndRemoveItem(t *testing.T) {
	// given
	cart := &mockCartStore{ack: store.Ack{Success: true, Message: "Cart updated"}}
	r := setupRouter(Dependencies{Cart: cart})

	// when
	updated := serve(r, http.MethodPut, "/api/v1/cart/items/42", `{"quantity":3}`)
	removed := serve(r, http.MethodDelete, "/api/v1/cart/items/42", "")

	// then
	assert.Equal(t, http.StatusOK, updated.Code)
	assert.Equal(t, "Cart updated", decodeBody(t, updated)["message"])
	assert.Equal(t, http.StatusOK, removed.Code)
}

const validCheckout = `{
	"deliveryAddress": {"street": " 12 MG Road ", "city": "Pune", "state": "MH", "zipCode": "411001", "phone": "9876543210"},
	"paymentMethod": "cod",
	"specialInstructions": "  ring twice  "
}`

func Test_Handler_Checkout(t *testing.T) {
	nonEmpty := store.CartState{Items: []domain.CartLineItem{{ProductID: "1", Quantity: 1}}}
	testCases := []struct {
		name          string
		body          string
		cart          *mockCartStore
		orders        *mockOrderStore
		expectedCode  int
		expectPlaced  bool
		expectCleared bool
	}{
		{
			name:          "order placed and cart cleared",
			body:          validCheckout,
			cart:          &mockCartStore{state: nonEmpty, clearAck: store.Ack{Success: true}},
			orders:        &mockOrderStore{order: domain.Order{OrderID: "ORD1", Status: domain.StatusPending}},
			expectedCode:  http.StatusCreated,
			expectPlaced:  true,
			expectCleared: true,
		},
		{
			name:          "clear failure does not fail checkout",
			body:          validCheckout,
			cart:          &mockCartStore{state: nonEmpty, clearAck: store.Ack{Message: "Failed to clear cart", Err: storeerrors.ErrTransport}},
			orders:        &mockOrderStore{order: domain.Order{OrderID: "ORD1"}},
			expectedCode:  http.StatusCreated,
			expectPlaced:  true,
			expectCleared: true,
		},
		{
			name:         "empty cart refused",
			body:         validCheckout,
			cart:         &mockCartStore{},
			orders:       &mockOrderStore{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "invalid zip code",
			body:         strings.Replace(validCheckout, "411001", "4110", 1),
			cart:         &mockCartStore{state: nonEmpty},
			orders:       &mockOrderStore{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "unsupported payment method",
			body:         strings.Replace(validCheckout, `"cod"`, `"cheque"`, 1),
			cart:         &mockCartStore{state: nonEmpty},
			orders:       &mockOrderStore{},
			expectedCode: http.StatusBadRequest,
		},
		{
			name:          "backend rejects order",
			body:          validCheckout,
			cart:          &mockCartStore{state: nonEmpty},
			orders:        &mockOrderStore{error: &storeerrors.APIError{StatusCode: http.StatusBadRequest, Message: "Restaurant closed"}},
			expectedCode:  http.StatusBadRequest,
			expectPlaced:  true,
			expectCleared: false,
		},
		{
			name:          "order id missing from response",
			body:          validCheckout,
			cart:          &mockCartStore{state: nonEmpty},
			orders:        &mockOrderStore{error: fmt.Errorf("%w: %w", storeerrors.ErrDecodeResponse, storeerrors.ErrOrderStatusUnknown)},
			expectedCode:  http.StatusBadGateway,
			expectPlaced:  true,
			expectCleared: false,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			r := setupRouter(Dependencies{Cart: tc.cart, Orders: tc.orders})

			// when
			rr := serve(r, http.MethodPost, "/api/v1/checkout", tc.body)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectPlaced {
				require.Len(t, tc.orders.placed, 1)
				placed := tc.orders.placed[0]
				assert.Equal(t, domain.PaymentCOD, placed.PaymentMethod)
				assert.Equal(t, "12 MG Road", placed.DeliveryAddress.Street)
				assert.Equal(t, "ring twice", placed.SpecialInstructions)
			} else {
				assert.Empty(t, tc.orders.placed)
			}
			if tc.expectCleared {
				assert.Equal(t, 1, tc.cart.cleared)
			} else {
				assert.Zero(t, tc.cart.cleared)
			}
		})
	}
}

func Test_Handler_Checkout_ValidationErrors(t *testing.T) {
	// given
	r := setupRouter(Dependencies{})
	body := strings.Replace(validCheckout, "9876543210", "98765", 1)

	// when
	rr := serve(r, http.MethodPost, "/api/v1/checkout", body)

	// then
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"validation_errors":{"Phone":"failed on rule: len"}}`, rr.Body.String())
}

func Test_Handler_SavedAddress(t *testing.T) {
	testCases := []struct {
		name         string
		user         json.RawMessage
		expectedBody string
	}{
		{
			name:         "saved address",
			user:         json.RawMessage(`{"name":"Asha","address":"12 MG Road","city":"Pune","state":"MH","zipCode":"411001","phone":"9876543210"}`),
			expectedBody: `{"success":true,"data":{"street":"12 MG Road","city":"Pune","state":"MH","zipCode":"411001","phone":"9876543210"}}`,
		},
		{
			name:         "no address",
			user:         json.RawMessage(`{"name":"Asha"}`),
			expectedBody: `{"success":true}`,
		},
		{
			name:         "no user data",
			expectedBody: `{"success":true}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(Dependencies{Session: mockSession{authenticated: true, user: tc.user}})

			rr := serve(r, http.MethodGet, "/api/v1/checkout/address", "")

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_Handler_ListOrders(t *testing.T) {
	testCases := []struct {
		name          string
		target        string
		expectedCode  int
		expectedQuery *domain.OrderQuery
	}{
		{
			name:          "explicit query",
			target:        "/api/v1/orders?page=2&pageSize=5&status=Pending&sortBy=total&sortOrder=ASC",
			expectedCode:  http.StatusOK,
			expectedQuery: &domain.OrderQuery{Page: 2, PageSize: 5, Status: domain.StatusPending, SortBy: "total", SortOrder: "asc"},
		},
		{
			name:          "defaults left to the store",
			target:        "/api/v1/orders",
			expectedCode:  http.StatusOK,
			expectedQuery: &domain.OrderQuery{},
		},
		{
			name:         "page below one",
			target:       "/api/v1/orders?page=0",
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "page size too large",
			target:       "/api/v1/orders?pageSize=500",
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "unknown status",
			target:       "/api/v1/orders?status=lost",
			expectedCode: http.StatusBadRequest,
		},
		{
			name:         "unknown sort order",
			target:       "/api/v1/orders?sortOrder=sideways",
			expectedCode: http.StatusBadRequest,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			orders := &mockOrderStore{
				orders:     []domain.Order{{OrderID: "ORD1"}},
				pagination: domain.Pagination{CurrentPage: 1, PageSize: 10, TotalPages: 4, TotalItems: 31},
			}
			r := setupRouter(Dependencies{Orders: orders})

			// when
			rr := serve(r, http.MethodGet, tc.target, "")

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectedQuery == nil {
				assert.Empty(t, orders.queries)
				return
			}
			require.Len(t, orders.queries, 1)
			assert.Equal(t, *tc.expectedQuery, orders.queries[0])

			var body store.Result[domain.OrderPage]
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
			assert.Len(t, body.Data.Orders, 1)
			assert.Equal(t, 4, body.Data.Pagination.TotalPages, "pagination of the fetched page, not the snapshot")
		})
	}
}

func Test_Handler_ListOrders_FailureCarriesNoPagination(t *testing.T) {
	// given
	orders := &mockOrderStore{error: storeerrors.ErrTransport}
	r := setupRouter(Dependencies{Orders: orders})

	// when
	rr := serve(r, http.MethodGet, "/api/v1/orders", "")

	// then
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Failed to fetch orders"}`, rr.Body.String())
}

func Test_Handler_GetOrder_NotFound(t *testing.T) {
	// given
	orders := &mockOrderStore{error: &storeerrors.APIError{StatusCode: http.StatusNotFound, Message: "Order not found"}}
	r := setupRouter(Dependencies{Orders: orders})

	// when
	rr := serve(r, http.MethodGet, "/api/v1/orders/ORD9", "")

	// then
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Order not found"}`, rr.Body.String())
}

func Test_Handler_CancelOrder(t *testing.T) {
	testCases := []struct {
		name         string
		status       domain.Status
		body         string
		expectedCode int
		expectCancel bool
	}{
		{name: "pending order", status: domain.StatusPending, body: `{"reason":" changed my mind "}`, expectedCode: http.StatusOK, expectCancel: true},
		{name: "confirmed order", status: domain.StatusConfirmed, body: `{"reason":"late"}`, expectedCode: http.StatusOK, expectCancel: true},
		{name: "preparing order", status: domain.StatusPreparing, body: `{"reason":"late"}`, expectedCode: http.StatusConflict},
		{name: "delivered order", status: domain.StatusDelivered, body: `{"reason":"late"}`, expectedCode: http.StatusConflict},
		{name: "blank reason", status: domain.StatusPending, body: `{"reason":"   "}`, expectedCode: http.StatusBadRequest},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			// given
			orders := &mockOrderStore{order: domain.Order{OrderID: "ORD1", Status: tc.status}}
			r := setupRouter(Dependencies{Orders: orders})

			// when
			rr := serve(r, http.MethodPost, "/api/v1/orders/ORD1/cancel", tc.body)

			// then
			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectCancel {
				require.Len(t, orders.cancelled, 1)
				assert.Equal(t, strings.TrimSpace(orders.cancelled[0]), orders.cancelled[0])
			} else {
				assert.Empty(t, orders.cancelled)
			}
		})
	}
}

func Test_Handler_CancelOrder_NotAllowedMessage(t *testing.T) {
	orders := &mockOrderStore{order: domain.Order{OrderID: "ORD1", Status: domain.StatusOutForDelivery}}
	r := setupRouter(Dependencies{Orders: orders})

	rr := serve(r, http.MethodPost, "/api/v1/orders/ORD1/cancel", `{"reason":"late"}`)

	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"order can no longer be cancelled"}`, rr.Body.String())
}

func Test_Handler_Reorder(t *testing.T) {
	testCases := []struct {
		name          string
		status        domain.Status
		expectedCode  int
		expectReorder bool
	}{
		{name: "delivered", status: domain.StatusDelivered, expectedCode: http.StatusOK, expectReorder: true},
		{name: "pending", status: domain.StatusPending, expectedCode: http.StatusConflict},
		{name: "cancelled", status: domain.StatusCancelled, expectedCode: http.StatusConflict},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			orders := &mockOrderStore{order: domain.Order{OrderID: "ORD1", Status: tc.status}}
			r := setupRouter(Dependencies{Orders: orders})

			rr := serve(r, http.MethodPost, "/api/v1/orders/ORD1/reorder", "")

			assert.Equal(t, tc.expectedCode, rr.Code)
			if tc.expectReorder {
				assert.Equal(t, []domain.ID{"ORD1"}, orders.replayed)
			} else {
				assert.Empty(t, orders.replayed)
			}
		})
	}
}

func Test_Handler_Login(t *testing.T) {
	testCases := []struct {
		name         string
		body         string
		auth         *mockAuth
		expectedCode int
		expectedBody string
	}{
		{
			name:         "logged in",
			body:         `{"phoneNo":"9876543210","password":"secret"}`,
			auth:         &mockAuth{user: json.RawMessage(`{"name":"Asha"}`)},
			expectedCode: http.StatusOK,
			expectedBody: `{"success":true,"message":"Login successful","data":{"name":"Asha"}}`,
		},
		{
			name:         "invalid phone number",
			body:         `{"phoneNo":"98765","password":"secret"}`,
			auth:         &mockAuth{},
			expectedCode: http.StatusBadRequest,
			expectedBody: `{"validation_errors":{"PhoneNo":"failed on rule: len"}}`,
		},
		{
			name:         "wrong credentials",
			body:         `{"phoneNo":"9876543210","password":"nope"}`,
			auth:         &mockAuth{error: &storeerrors.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid credentials"}},
			expectedCode: http.StatusUnauthorized,
			expectedBody: `{"success":false,"message":"Invalid credentials"}`,
		},
		{
			name:         "no token issued",
			body:         `{"phoneNo":"9876543210","password":"secret"}`,
			auth:         &mockAuth{error: api.ErrNoToken},
			expectedCode: http.StatusBadGateway,
			expectedBody: `{"success":false,"message":"Login failed"}`,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(Dependencies{Auth: tc.auth})

			rr := serve(r, http.MethodPost, "/api/v1/auth/login", tc.body)

			assert.Equal(t, tc.expectedCode, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_Handler_SignupAndLogout(t *testing.T) {
	// given
	auth := &mockAuth{user: json.RawMessage(`{"name":"Asha"}`)}
	r := setupRouter(Dependencies{Auth: auth, Session: mockSession{}})

	// when
	signup := serve(r, http.MethodPost, "/api/v1/auth/signup", `{"phoneNo":"9876543210","password":"secret","name":" Asha "}`)
	logout := serve(r, http.MethodPost, "/api/v1/auth/logout", "")

	// then
	assert.Equal(t, http.StatusCreated, signup.Code)
	assert.Equal(t, "Asha", auth.signedUp)
	assert.Equal(t, http.StatusOK, logout.Code)
	assert.True(t, auth.loggedOut)
}

func Test_Handler_SearchProducts(t *testing.T) {
	// given
	catalog := &mockCatalog{page: domain.ProductPage{Products: []domain.Product{{ID: "1", Name: "Masala Dosa"}}}}
	r := setupRouter(Dependencies{Catalog: catalog, Session: mockSession{}})

	// when
	rr := serve(r, http.MethodGet, "/api/v1/products?page=2&sortBy=price-low&category=south&dietary=vegan,jain&dietary=gluten-free", "")

	// then
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, catalog.query.Page)
	assert.Equal(t, "price-low", catalog.query.SortBy)
	assert.Equal(t, "south", catalog.query.Filters.Category)
	assert.Equal(t, []string{"vegan", "jain", "gluten-free"}, catalog.query.Filters.Dietary)
}

func Test_Handler_GetProduct_BackendDown(t *testing.T) {
	catalog := &mockCatalog{error: fmt.Errorf("%w: GET /products/1: connection refused", storeerrors.ErrTransport)}
	r := setupRouter(Dependencies{Catalog: catalog})

	rr := serve(r, http.MethodGet, "/api/v1/products/1", "")

	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.JSONEq(t, `{"success":false,"message":"Failed to load product"}`, rr.Body.String())
}

func Test_Handler_HealthCheck(t *testing.T) {
	testCases := []struct {
		name         string
		breaker      BreakerState
		expectedBody string
	}{
		{name: "no breaker", expectedBody: `{"status":"ok"}`},
		{name: "closed", breaker: mockBreaker(gobreaker.StateClosed), expectedBody: `{"status":"ok","backend":"closed"}`},
		{name: "open", breaker: mockBreaker(gobreaker.StateOpen), expectedBody: `{"status":"degraded","backend":"open"}`},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupRouter(Dependencies{Breaker: tc.breaker})

			rr := serve(r, http.MethodGet, "/healthz", "")

			assert.Equal(t, http.StatusOK, rr.Code)
			assert.JSONEq(t, tc.expectedBody, rr.Body.String())
		})
	}
}

func Test_statusFor(t *testing.T) {
	testCases := []struct {
		err      error
		expected int
	}{
		{err: &storeerrors.APIError{StatusCode: http.StatusUnauthorized}, expected: http.StatusUnauthorized},
		{err: storeerrors.ErrEmptyCancelReason, expected: http.StatusBadRequest},
		{err: storeerrors.ErrReorderNotAllowed, expected: http.StatusConflict},
		{err: &storeerrors.APIError{StatusCode: http.StatusNotFound}, expected: http.StatusNotFound},
		{err: &storeerrors.APIError{StatusCode: http.StatusInternalServerError}, expected: http.StatusBadGateway},
		{err: &storeerrors.APIError{StatusCode: http.StatusOK, Message: "Out of stock"}, expected: http.StatusUnprocessableEntity},
		{err: fmt.Errorf("%w: read", storeerrors.ErrDecodeResponse), expected: http.StatusBadGateway},
		{err: fmt.Errorf("%w: %w", storeerrors.ErrDecodeResponse, storeerrors.ErrOrderStatusUnknown), expected: http.StatusBadGateway},
		{err: fmt.Errorf("%w: %w", storeerrors.ErrTransport, gobreaker.ErrTooManyRequests), expected: http.StatusServiceUnavailable},
		{err: errors.New("boom"), expected: http.StatusInternalServerError},
	}
	for _, tc := range testCases {
		t.Run(tc.err.Error(), func(t *testing.T) {
			assert.Equal(t, tc.expected, statusFor(tc.err))
		})
	}
}

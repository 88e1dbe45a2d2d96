// Package rest exposes the storefront stores as a JSON view API.
package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/abgdnv/gocommerce-storefront/internal/api"
	"github.com/abgdnv/gocommerce-storefront/internal/domain"
	storeerrors "github.com/abgdnv/gocommerce-storefront/internal/errors"
	"github.com/abgdnv/gocommerce-storefront/internal/store"
	"github.com/abgdnv/gocommerce-storefront/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/sony/gobreaker/v2"
)

// LoginPath is where clients are sent once the session is gone.
const LoginPath = "/login"

type CartStore interface {
	FetchCart(ctx context.Context) error
	Snapshot() store.CartState
	AddToCart(ctx context.Context, productID domain.ID, quantity int) store.Ack
	UpdateQuantity(ctx context.Context, productID domain.ID, quantity int) store.Ack
	RemoveItem(ctx context.Context, productID domain.ID) store.Ack
	ClearCart(ctx context.Context) store.Ack
}

type OrderStore interface {
	PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) store.Result[domain.Order]
	FetchOrders(ctx context.Context, q domain.OrderQuery) store.Result[domain.OrderPage]
	FetchOrderDetails(ctx context.Context, orderID domain.ID) store.Result[domain.Order]
	CancelOrder(ctx context.Context, orderID domain.ID, reason string) store.Ack
	Reorder(ctx context.Context, orderID domain.ID) store.Result[json.RawMessage]
	Snapshot() store.OrderState
}

type AuthClient interface {
	Login(ctx context.Context, creds api.Credentials) (json.RawMessage, error)
	Signup(ctx context.Context, creds api.Credentials, name string) (json.RawMessage, error)
	Logout(ctx context.Context)
}

type Catalog interface {
	SearchProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error)
	GetProduct(ctx context.Context, productID domain.ID) (domain.Product, error)
}

type Session interface {
	Authenticated(ctx context.Context) bool
	User() json.RawMessage
}

// BreakerState reports the state of the backend circuit breaker.
type BreakerState interface {
	State() gobreaker.State
}

// Dependencies are the collaborators the view API is built on.
type Dependencies struct {
	Cart    CartStore
	Orders  OrderStore
	Auth    AuthClient
	Catalog Catalog
	Session Session
	Breaker BreakerState
}

type Handler struct {
	cart     CartStore
	orders   OrderStore
	auth     AuthClient
	catalog  Catalog
	session  Session
	breaker  BreakerState
	validate *validator.Validate
	logger   *slog.Logger
}

// NewHandler creates the view API handler.
func NewHandler(deps Dependencies, logger *slog.Logger) *Handler {
	return &Handler{
		cart:     deps.Cart,
		orders:   deps.Orders,
		auth:     deps.Auth,
		catalog:  deps.Catalog,
		session:  deps.Session,
		breaker:  deps.Breaker,
		validate: validator.New(),

		logger: logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes of the view API.
func (h *Handler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/signup", h.Signup)
			r.Post("/logout", h.Logout)
		})
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.SearchProducts)
			r.Get("/{id}", h.GetProduct)
		})

		r.Group(func(r chi.Router) {
			r.Use(h.requireSession)
			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.GetCart)
				r.Delete("/", h.ClearCart)
				r.Post("/items", h.AddItem)
				r.Put("/items/{productId}", h.UpdateItem)
				r.Delete("/items/{productId}", h.RemoveItem)
			})
			r.Route("/checkout", func(r chi.Router) {
				r.Post("/", h.Checkout)
				r.Get("/address", h.SavedAddress)
			})
			r.Route("/orders", func(r chi.Router) {
				r.Get("/", h.ListOrders)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", h.GetOrder)
					r.Post("/cancel", h.CancelOrder)
					r.Post("/reorder", h.Reorder)
				})
			})
		})
	})
	r.Get("/healthz", h.HealthCheck)
}

// requireSession turns away requests without a live session before any
// backend call is made.
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !h.session.Authenticated(r.Context()) {
			mLogger := h.loggerWithReqID(r)
			mLogger.DebugContext(r.Context(), "Request without session", "path", r.URL.Path)
			web.RespondRedirect(w, mLogger, http.StatusUnauthorized, storeerrors.ErrNotAuthenticated.Error(), LoginPath)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HealthCheck reports liveness and the state of the backend breaker.
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	body := map[string]string{"status": "ok"}
	if h.breaker != nil {
		state := h.breaker.State()
		body["backend"] = state.String()
		if state == gobreaker.StateOpen {
			body["status"] = "degraded"
		}
	}
	web.RespondJSON(w, h.loggerWithReqID(r), http.StatusOK, body)
}

// statusFor maps an operation failure to the HTTP status of the view API.
func statusFor(err error) int {
	var apiErr *storeerrors.APIError
	switch {
	case errors.Is(err, storeerrors.ErrUnauthorized), errors.Is(err, storeerrors.ErrNotAuthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, storeerrors.ErrInvalidQuantity),
		errors.Is(err, storeerrors.ErrEmptyCancelReason),
		errors.Is(err, storeerrors.ErrMissingID),
		errors.Is(err, storeerrors.ErrEmptyCart):
		return http.StatusBadRequest
	case errors.Is(err, storeerrors.ErrCancelNotAllowed), errors.Is(err, storeerrors.ErrReorderNotAllowed):
		return http.StatusConflict
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.Is(err, storeerrors.ErrTransport), errors.Is(err, storeerrors.ErrDecodeResponse):
		return http.StatusBadGateway
	case errors.As(err, &apiErr):
		switch {
		case apiErr.StatusCode >= 500:
			return http.StatusBadGateway
		case apiErr.StatusCode >= 400:
			return apiErr.StatusCode
		default:
			// the backend answered 2xx but refused the operation
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// respondResult writes a store result. Failures get the mapped status, and
// an expired session is answered with a redirect to the login entry point.
func respondResult[T any](w http.ResponseWriter, logger *slog.Logger, okStatus int, res store.Result[T]) {
	if res.Success {
		web.RespondJSON(w, logger, okStatus, res)
		return
	}
	status := statusFor(res.Err)
	if status == http.StatusUnauthorized {
		web.RespondRedirect(w, logger, status, res.Message, LoginPath)
		return
	}
	web.RespondJSON(w, logger, status, res)
}

// failure builds a failed result for operations that do not go through a
// store.
func failure[T any](err error, fallback string) store.Result[T] {
	return store.Result[T]{Message: storeerrors.Message(err, fallback), Err: err}
}

// validateStruct writes the validation errors of v, if any.
func (h *Handler) validateStruct(w http.ResponseWriter, r *http.Request, logger *slog.Logger, v any) bool {
	err := h.validate.Struct(v)
	if err == nil {
		return true
	}
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		errorResponse := make(map[string]string)
		for _, fieldErr := range validationErrors {
			errorResponse[fieldErr.Field()] = "failed on rule: " + fieldErr.Tag()
		}
		logger.WarnContext(r.Context(), "Validation errors occurred", "errors", errorResponse)
		web.RespondJSON(w, logger, http.StatusBadRequest, map[string]any{"validation_errors": errorResponse})
		return false
	}
	logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
	web.RespondError(w, logger, http.StatusBadRequest, "Invalid request body")
	return false
}

// loggerWithReqID creates a logger with the request ID from the context.
func (h *Handler) loggerWithReqID(r *http.Request) *slog.Logger {
	reqID := middleware.GetReqID(r.Context())
	return h.logger.With("request_id", reqID)
}

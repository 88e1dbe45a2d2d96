package rest

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/gocommerce-storefront/internal/domain"
	storeerrors "github.com/abgdnv/gocommerce-storefront/internal/errors"
	"github.com/abgdnv/gocommerce-storefront/internal/store"
	"github.com/abgdnv/gocommerce-storefront/pkg/web"
)

type addItemRequest struct {
	ProductID domain.ID `json:"productId" validate:"required"`
	// omitted means one; the bounds are enforced by the cart store
	Quantity *int `json:"quantity"`
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

// GetCart reloads the cart from the backend and returns it.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	err := h.cart.FetchCart(r.Context())
	state := h.cart.Snapshot()
	res := store.Result[store.CartState]{Success: err == nil, Data: state, Err: err}
	if err != nil {
		res.Message = storeerrors.Message(err, "Failed to load cart")
	}
	respondResult(w, mLogger, http.StatusOK, res)
}

// AddItem adds a product to the cart and returns the refreshed cart.
func (h *Handler) AddItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req addItemRequest
	if !web.DecodeJSON(w, r, mLogger, &req) {
		return
	}
	req.ProductID = domain.ID(strings.TrimSpace(req.ProductID.String()))
	if !h.validateStruct(w, r, mLogger, req) {
		return
	}
	quantity := domain.MinQuantity
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	mLogger.DebugContext(r.Context(), "Received request to add item", "product_id", req.ProductID, "quantity", quantity)
	h.respondCartAck(w, mLogger, h.cart.AddToCart(r.Context(), req.ProductID, quantity))
}

// UpdateItem sets the quantity of a cart line.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID, ok := web.PathParam(w, r, mLogger, "productId")
	if !ok {
		return
	}
	var req updateItemRequest
	if !web.DecodeJSON(w, r, mLogger, &req) {
		return
	}
	mLogger.DebugContext(r.Context(), "Received request to update item", "product_id", productID, "quantity", req.Quantity)
	h.respondCartAck(w, mLogger, h.cart.UpdateQuantity(r.Context(), domain.ID(productID), req.Quantity))
}

// RemoveItem drops a line from the cart.
func (h *Handler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	productID, ok := web.PathParam(w, r, mLogger, "productId")
	if !ok {
		return
	}
	h.respondCartAck(w, mLogger, h.cart.RemoveItem(r.Context(), domain.ID(productID)))
}

// ClearCart empties the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	h.respondCartAck(w, mLogger, h.cart.ClearCart(r.Context()))
}

// respondCartAck answers a cart mutation with the cart as the store holds it
// afterwards.
func (h *Handler) respondCartAck(w http.ResponseWriter, logger *slog.Logger, ack store.Ack) {
	respondResult(w, logger, http.StatusOK, store.Result[store.CartState]{
		Success: ack.Success,
		Message: ack.Message,
		Data:    h.cart.Snapshot(),
		Err:     ack.Err,
	})
}

// savedProfile is the part of the cached user data that holds a delivery
// address.
type savedProfile struct {
	Address string `json:"address"`
	City    string `json:"city"`
	State   string `json:"state"`
	ZipCode string `json:"zipCode"`
	Phone   string `json:"phone"`
}

// SavedAddress returns the delivery address cached with the user data, for
// prefilling the checkout form. No saved address yields an empty result.
func (h *Handler) SavedAddress(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	res := store.Result[domain.Address]{Success: true}
	if raw := h.session.User(); len(raw) > 0 {
		var profile savedProfile
		if err := json.Unmarshal(raw, &profile); err != nil {
			mLogger.WarnContext(r.Context(), "Cached user data is not an object", "error", err)
		} else if profile.Address != "" {
			res.Data = domain.Address{
				Street:  profile.Address,
				City:    profile.City,
				State:   profile.State,
				ZipCode: profile.ZipCode,
				Phone:   profile.Phone,
			}
		}
	}
	web.RespondJSON(w, mLogger, http.StatusOK, res)
}

// Checkout validates the form, places the order from the current cart and
// then clears the cart. A failed clear does not fail the checkout.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req domain.PlaceOrderRequest
	if !web.DecodeJSON(w, r, mLogger, &req) {
		return
	}
	req = normalizeCheckout(req)
	if !h.validateStruct(w, r, mLogger, req) {
		return
	}

	if err := h.cart.FetchCart(r.Context()); err != nil {
		respondResult(w, mLogger, http.StatusCreated, failure[domain.Order](err, "Failed to load cart"))
		return
	}
	if len(h.cart.Snapshot().Items) == 0 {
		mLogger.InfoContext(r.Context(), "Checkout with empty cart refused")
		respondResult(w, mLogger, http.StatusCreated, failure[domain.Order](storeerrors.ErrEmptyCart, ""))
		return
	}

	res := h.orders.PlaceOrder(r.Context(), req)
	if !res.Success {
		respondResult(w, mLogger, http.StatusCreated, res)
		return
	}
	if ack := h.cart.ClearCart(r.Context()); !ack.Success {
		mLogger.WarnContext(r.Context(), "Order placed but the cart could not be cleared", "order_id", res.Data.OrderID, "error", ack.Err)
	}
	mLogger.InfoContext(r.Context(), "Checkout completed", "order_id", res.Data.OrderID)
	respondResult(w, mLogger, http.StatusCreated, res)
}

func normalizeCheckout(req domain.PlaceOrderRequest) domain.PlaceOrderRequest {
	a := &req.DeliveryAddress
	a.Street = strings.TrimSpace(a.Street)
	a.City = strings.TrimSpace(a.City)
	a.State = strings.TrimSpace(a.State)
	a.ZipCode = strings.TrimSpace(a.ZipCode)
	a.Phone = strings.TrimSpace(a.Phone)
	req.PaymentMethod = domain.PaymentMethod(strings.ToUpper(strings.TrimSpace(string(req.PaymentMethod))))
	req.SpecialInstructions = strings.TrimSpace(req.SpecialInstructions)
	return req
}

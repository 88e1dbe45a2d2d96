package rest

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/abgdnv/gocommerce-storefront/internal/domain"
	storeerrors "github.com/abgdnv/gocommerce-storefront/internal/errors"
	"github.com/abgdnv/gocommerce-storefront/pkg/web"
)

const maxOrderPageSize = 50

type cancelRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

// ListOrders returns one page of the order history.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, ok := web.ParseOptionalGte(r, w, mLogger, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := web.ParseOptionalRange(r, w, mLogger, "pageSize", 1, maxOrderPageSize)
	if !ok {
		return
	}
	query := r.URL.Query()
	q := domain.OrderQuery{
		Page:      page,
		PageSize:  pageSize,
		Status:    domain.Status(strings.ToLower(strings.TrimSpace(query.Get("status")))),
		SortBy:    strings.TrimSpace(query.Get("sortBy")),
		SortOrder: strings.ToLower(strings.TrimSpace(query.Get("sortOrder"))),
	}
	if q.Status != "" && !q.Status.Valid() {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid status: "+string(q.Status))
		return
	}
	if q.SortOrder != "" && q.SortOrder != "asc" && q.SortOrder != "desc" {
		web.RespondError(w, mLogger, http.StatusBadRequest, "Invalid sortOrder: "+q.SortOrder)
		return
	}

	mLogger.DebugContext(r.Context(), "Received request to list orders", "page", q.Page, "page_size", q.PageSize, "status", q.Status)
	respondResult(w, mLogger, http.StatusOK, h.orders.FetchOrders(r.Context(), q))
}

// GetOrder returns one order.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.PathParam(w, r, mLogger, "id")
	if !ok {
		return
	}
	respondResult(w, mLogger, http.StatusOK, h.orders.FetchOrderDetails(r.Context(), domain.ID(id)))
}

// CancelOrder cancels an order that is still pending or confirmed.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.PathParam(w, r, mLogger, "id")
	if !ok {
		return
	}
	var req cancelRequest
	if !web.DecodeJSON(w, r, mLogger, &req) {
		return
	}
	req.Reason = strings.TrimSpace(req.Reason)
	if !h.validateStruct(w, r, mLogger, req) {
		return
	}
	if !h.gate(w, r, mLogger, domain.ID(id), domain.Status.Cancellable, storeerrors.ErrCancelNotAllowed) {
		return
	}
	respondResult(w, mLogger, http.StatusOK, h.orders.CancelOrder(r.Context(), domain.ID(id), req.Reason))
}

// Reorder copies a delivered order back into the cart.
func (h *Handler) Reorder(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.PathParam(w, r, mLogger, "id")
	if !ok {
		return
	}
	if !h.gate(w, r, mLogger, domain.ID(id), domain.Status.Reorderable, storeerrors.ErrReorderNotAllowed) {
		return
	}
	res := h.orders.Reorder(r.Context(), domain.ID(id))
	if res.Success {
		mLogger.InfoContext(r.Context(), "Order replayed into cart", "order_id", id)
	}
	respondResult(w, mLogger, http.StatusOK, res)
}

// gate loads the order and checks that allowed holds for its current status.
// On failure the response has already been written.
func (h *Handler) gate(w http.ResponseWriter, r *http.Request, logger *slog.Logger, id domain.ID, allowed func(domain.Status) bool, denied error) bool {
	details := h.orders.FetchOrderDetails(r.Context(), id)
	if !details.Success {
		respondResult(w, logger, http.StatusOK, details)
		return false
	}
	if !allowed(details.Data.Status) {
		logger.InfoContext(r.Context(), "Order action refused for status", "order_id", id, "status", details.Data.Status)
		respondResult(w, logger, http.StatusOK, failure[domain.Order](denied, ""))
		return false
	}
	return true
}

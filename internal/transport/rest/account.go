package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/abgdnv/gocommerce-storefront/internal/api"
	"github.com/abgdnv/gocommerce-storefront/internal/domain"
	"github.com/abgdnv/gocommerce-storefront/internal/store"
	"github.com/abgdnv/gocommerce-storefront/pkg/web"
)

const maxProductPageSize = 100

type signupRequest struct {
	api.Credentials
	Name string `json:"name" validate:"required,max=100"`
}

// Login authenticates against the backend and starts a session.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var creds api.Credentials
	if !web.DecodeJSON(w, r, mLogger, &creds) {
		return
	}
	creds.PhoneNo = strings.TrimSpace(creds.PhoneNo)
	if !h.validateStruct(w, r, mLogger, creds) {
		return
	}
	user, err := h.auth.Login(r.Context(), creds)
	if err != nil {
		h.respondAuthFailure(w, r, err, "Login failed")
		return
	}
	mLogger.InfoContext(r.Context(), "Customer logged in")
	web.RespondJSON(w, mLogger, http.StatusOK, store.Result[json.RawMessage]{Success: true, Message: "Login successful", Data: user})
}

// Signup registers a customer and logs them in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	var req signupRequest
	if !web.DecodeJSON(w, r, mLogger, &req) {
		return
	}
	req.PhoneNo = strings.TrimSpace(req.PhoneNo)
	req.Name = strings.TrimSpace(req.Name)
	if !h.validateStruct(w, r, mLogger, req) {
		return
	}
	user, err := h.auth.Signup(r.Context(), req.Credentials, req.Name)
	if err != nil {
		h.respondAuthFailure(w, r, err, "Signup failed")
		return
	}
	mLogger.InfoContext(r.Context(), "Customer signed up")
	web.RespondJSON(w, mLogger, http.StatusCreated, store.Result[json.RawMessage]{Success: true, Message: "Signup successful", Data: user})
}

// Logout ends the session. The stores are reset by the session hooks.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	h.auth.Logout(r.Context())
	web.RespondJSON(w, mLogger, http.StatusOK, store.Ack{Success: true, Message: "Logged out"})
}

// respondAuthFailure answers a failed login or signup. Wrong credentials come
// back from the backend as 401 and are reported as such, without a redirect.
func (h *Handler) respondAuthFailure(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	mLogger := h.loggerWithReqID(r)
	mLogger.WarnContext(r.Context(), fallback, "error", err)
	res := failure[json.RawMessage](err, fallback)
	status := statusFor(err)
	if errors.Is(err, api.ErrNoToken) {
		status = http.StatusBadGateway
	}
	web.RespondJSON(w, mLogger, status, res)
}

// SearchProducts returns one page of the menu.
func (h *Handler) SearchProducts(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	page, ok := web.ParseOptionalGte(r, w, mLogger, "page", 1)
	if !ok {
		return
	}
	pageSize, ok := web.ParseOptionalRange(r, w, mLogger, "pageSize", 1, maxProductPageSize)
	if !ok {
		return
	}
	query := r.URL.Query()
	q := domain.ProductQuery{
		Page:      page,
		PageSize:  pageSize,
		SortBy:    strings.TrimSpace(query.Get("sortBy")),
		SortOrder: strings.ToLower(strings.TrimSpace(query.Get("sortOrder"))),
		Filters: domain.ProductFilters{
			Category: strings.TrimSpace(query.Get("category")),
			Search:   strings.TrimSpace(query.Get("search")),
			Dietary:  splitList(query["dietary"]),
		},
	}
	result, err := h.catalog.SearchProducts(r.Context(), q)
	if err != nil {
		mLogger.WarnContext(r.Context(), "Product search failed", "error", err)
		respondResult(w, mLogger, http.StatusOK, failure[domain.ProductPage](err, "Failed to load products"))
		return
	}
	respondResult(w, mLogger, http.StatusOK, store.Result[domain.ProductPage]{Success: true, Data: result})
}

// GetProduct returns one menu entry.
func (h *Handler) GetProduct(w http.ResponseWriter, r *http.Request) {
	mLogger := h.loggerWithReqID(r)
	id, ok := web.PathParam(w, r, mLogger, "id")
	if !ok {
		return
	}
	product, err := h.catalog.GetProduct(r.Context(), domain.ID(id))
	if err != nil {
		mLogger.WarnContext(r.Context(), "Product lookup failed", "product_id", id, "error", err)
		respondResult(w, mLogger, http.StatusOK, failure[domain.Product](err, "Failed to load product"))
		return
	}
	respondResult(w, mLogger, http.StatusOK, store.Result[domain.Product]{Success: true, Data: product})
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

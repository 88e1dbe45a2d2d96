package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/abgdnv/gocommerce-storefront/internal/domain"
	storeerrors "github.com/abgdnv/gocommerce-storefront/internal/errors"
)

// PlaceOrder creates an order from the current server-side cart.
func (c *Client) PlaceOrder(ctx context.Context, req domain.PlaceOrderRequest) (domain.Order, error) {
	env, err := c.call(ctx, http.MethodPost, "/api/orders/place", nil, req)
	if err != nil {
		return domain.Order{}, err
	}
	var payload orderPayload
	if err := decodeData(env, &payload); err != nil {
		return domain.Order{}, err
	}
	order := payload.normalize()
	if order.OrderID.IsZero() {
		// the order may exist server side, so this is not a caller error
		return domain.Order{}, fmt.Errorf("%w: %w", storeerrors.ErrDecodeResponse, storeerrors.ErrOrderStatusUnknown)
	}
	return order, nil
}

// ListOrders returns one page of the order history. The query is expected to
// carry defaults already.
func (c *Client) ListOrders(ctx context.Context, q domain.OrderQuery) ([]domain.Order, domain.Pagination, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(q.Page))
	query.Set("pageSize", strconv.Itoa(q.PageSize))
	query.Set("sortBy", q.SortBy)
	query.Set("sortOrder", q.SortOrder)
	if q.Status != "" {
		query.Set("status", string(q.Status))
	}
	env, err := c.call(ctx, http.MethodGet, "/api/orders", query, nil)
	if err != nil {
		return nil, domain.DefaultPagination(), err
	}
	var payload orderListPayload
	if err := decodeData(env, &payload); err != nil {
		return nil, domain.DefaultPagination(), err
	}
	orders, pagination := payload.normalize()
	return orders, pagination, nil
}

func (c *Client) GetOrder(ctx context.Context, orderID domain.ID) (domain.Order, error) {
	id, err := escapeID(orderID.String())
	if err != nil {
		return domain.Order{}, err
	}
	env, err := c.call(ctx, http.MethodGet, "/api/orders/"+id, nil, nil)
	if err != nil {
		return domain.Order{}, err
	}
	var payload orderPayload
	if err := decodeData(env, &payload); err != nil {
		return domain.Order{}, err
	}
	order := payload.normalize()
	if order.OrderID.IsZero() {
		order.OrderID = orderID
	}
	return order, nil
}

type cancelRequest struct {
	Reason string `json:"reason"`
}

// CancelOrder asks the server to move the order to cancelled.
func (c *Client) CancelOrder(ctx context.Context, orderID domain.ID, reason string) (string, error) {
	id, err := escapeID(orderID.String())
	if err != nil {
		return "", err
	}
	env, err := c.call(ctx, http.MethodPut, "/api/orders/"+id+"/cancel", nil, cancelRequest{Reason: reason})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// Reorder copies the items of a past order into the cart. The data payload
// is passed through as is.
func (c *Client) Reorder(ctx context.Context, orderID domain.ID) (json.RawMessage, string, error) {
	id, err := escapeID(orderID.String())
	if err != nil {
		return nil, "", err
	}
	env, err := c.call(ctx, http.MethodPost, "/api/orders/"+id+"/reorder", nil, nil)
	if err != nil {
		return nil, "", err
	}
	return env.Data, env.Message, nil
}

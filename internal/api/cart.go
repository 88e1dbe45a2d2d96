package api

import (
	"context"
	"net/http"

	"github.com/abgdnv/gocommerce-storefront/internal/domain"
	storeerrors "github.com/abgdnv/gocommerce-storefront/internal/errors"
)

type cartItemRequest struct {
	ProductID domain.ID `json:"productId"`
	Quantity  int       `json:"quantity"`
}

// GetCart returns the current cart. A missing summary becomes the zeroed default.
func (c *Client) GetCart(ctx context.Context) ([]domain.CartLineItem, domain.CartSummary, error) {
	env, err := c.call(ctx, http.MethodGet, "/api/cart", nil, nil)
	if err != nil {
		return nil, domain.ZeroSummary(), err
	}
	var payload cartPayload
	if err := decodeData(env, &payload); err != nil {
		return nil, domain.ZeroSummary(), err
	}
	items, summary := payload.normalize()
	return items, summary, nil
}

// AddToCart adds quantity units of a product and returns the server message.
func (c *Client) AddToCart(ctx context.Context, productID domain.ID, quantity int) (string, error) {
	if productID.IsZero() {
		return "", storeerrors.ErrMissingID
	}
	env, err := c.call(ctx, http.MethodPost, "/api/cart/add", nil, cartItemRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

// UpdateCartItem sets the quantity of an existing line.
func (c *Client) UpdateCartItem(ctx context.Context, productID domain.ID, quantity int) (string, error) {
	if productID.IsZero() {
		return "", storeerrors.ErrMissingID
	}
	env, err := c.call(ctx, http.MethodPut, "/api/cart/update", nil, cartItemRequest{ProductID: productID, Quantity: quantity})
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) RemoveFromCart(ctx context.Context, productID domain.ID) (string, error) {
	id, err := escapeID(productID.String())
	if err != nil {
		return "", err
	}
	env, err := c.call(ctx, http.MethodDelete, "/api/cart/remove/"+id, nil, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

func (c *Client) ClearCart(ctx context.Context) (string, error) {
	env, err := c.call(ctx, http.MethodDelete, "/api/cart/clear", nil, nil)
	if err != nil {
		return "", err
	}
	return env.Message, nil
}

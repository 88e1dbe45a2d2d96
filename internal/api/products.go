package api

import (
	"context"
	"net/http"

	"github.com/abgdnv/gocommerce-storefront/internal/domain"
)

type productPagePayload struct {
	Products   []domain.Product   `json:"products"`
	Pagination *domain.Pagination `json:"pagination"`
}

// SearchProducts returns one page of the menu.
func (c *Client) SearchProducts(ctx context.Context, q domain.ProductQuery) (domain.ProductPage, error) {
	q = q.WithDefaults()
	env, err := c.call(ctx, http.MethodPost, "/api/products/search", nil, q)
	if err != nil {
		return domain.ProductPage{}, err
	}
	var payload productPagePayload
	if err := decodeData(env, &payload); err != nil {
		return domain.ProductPage{}, err
	}
	page := domain.ProductPage{
		Products: payload.Products,
		Pagination: domain.Pagination{
			CurrentPage: q.Page,
			PageSize:    q.PageSize,
			TotalPages:  1,
			TotalItems:  len(payload.Products),
		},
	}
	if page.Products == nil {
		page.Products = []domain.Product{}
	}
	if payload.Pagination != nil {
		page.Pagination = *payload.Pagination
	}
	return page, nil
}

func (c *Client) GetProduct(ctx context.Context, productID domain.ID) (domain.Product, error) {
	id, err := escapeID(productID.String())
	if err != nil {
		return domain.Product{}, err
	}
	env, err := c.call(ctx, http.MethodGet, "/api/products/"+id, nil, nil)
	if err != nil {
		return domain.Product{}, err
	}
	var product domain.Product
	if err := decodeData(env, &product); err != nil {
		return domain.Product{}, err
	}
	return product, nil
}

package domain

import "github.com/shopspring/decimal"

const (
	// MinQuantity and MaxQuantity bound the quantity of a single cart line.
	MinQuantity = 1
	MaxQuantity = 10
)

// CartLineItem is one product-and-quantity entry of the cart.
// Subtotal is computed by the server and trusted as is.
type CartLineItem struct {
	ProductID          ID              `json:"productId"`
	ProductName        string          `json:"productName"`
	ProductImage       string          `json:"productImage"`
	ProductDescription string          `json:"productDescription"`
	Price              decimal.Decimal `json:"price"`
	Quantity           int             `json:"quantity"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	InStock            bool            `json:"inStock"`
}

// CartSummary is the server-computed aggregate of the cart.
type CartSummary struct {
	TotalItems     int             `json:"totalItems"`
	TotalQuantity  int             `json:"totalQuantity"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	Tax            decimal.Decimal `json:"tax"`
	DeliveryCharge decimal.Decimal `json:"deliveryCharge"`
	Discount       decimal.Decimal `json:"discount"`
	Total          decimal.Decimal `json:"total"`
}

// ZeroSummary returns the summary shown when the cart is empty or unknown.
func ZeroSummary() CartSummary {
	return CartSummary{
		Subtotal:       decimal.Zero,
		Tax:            decimal.Zero,
		DeliveryCharge: decimal.Zero,
		Discount:       decimal.Zero,
		Total:          decimal.Zero,
	}
}

// IsZero reports whether every field of the summary is zero.
func (s CartSummary) IsZero() bool {
	return s.TotalItems == 0 && s.TotalQuantity == 0 &&
		s.Subtotal.IsZero() && s.Tax.IsZero() && s.DeliveryCharge.IsZero() &&
		s.Discount.IsZero() && s.Total.IsZero()
}

// ValidQuantity reports whether q is an allowed line quantity.
func ValidQuantity(q int) bool {
	return q >= MinQuantity && q <= MaxQuantity
}

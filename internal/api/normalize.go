package api

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/abgdnv/gocommerce-storefront/internal/domain"
	"github.com/shopspring/decimal"
)

// The backend is not consistent about field names across endpoints. The
// payload types below accept every known spelling and normalise into the
// domain schema in one place.

type cartPayload struct {
	Items   []cartItemPayload   `json:"items"`
	Summary *domain.CartSummary `json:"summary"`
}

type cartItemPayload struct {
	ProductID          domain.ID       `json:"productId"`
	ID                 domain.ID       `json:"id"`
	ProductName        string          `json:"productName"`
	Name               string          `json:"name"`
	ProductImage       string          `json:"productImage"`
	Image              string          `json:"image"`
	ProductDescription string          `json:"productDescription"`
	Description        string          `json:"description"`
	Price              decimal.Decimal `json:"price"`
	Quantity           int             `json:"quantity"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	InStock            *bool           `json:"inStock"`
}

func (p cartPayload) normalize() ([]domain.CartLineItem, domain.CartSummary) {
	items := make([]domain.CartLineItem, 0, len(p.Items))
	for _, it := range p.Items {
		items = append(items, it.normalize())
	}
	summary := domain.ZeroSummary()
	if p.Summary != nil {
		summary = *p.Summary
	}
	return items, summary
}

func (p cartItemPayload) normalize() domain.CartLineItem {
	item := domain.CartLineItem{
		ProductID:          firstID(p.ProductID, p.ID),
		ProductName:        firstString(p.ProductName, p.Name),
		ProductImage:       firstString(p.ProductImage, p.Image),
		ProductDescription: firstString(p.ProductDescription, p.Description),
		Price:              p.Price,
		Quantity:           p.Quantity,
		Subtotal:           p.Subtotal,
		InStock:            true,
	}
	if p.InStock != nil {
		item.InStock = *p.InStock
	}
	return item
}

type orderPayload struct {
	OrderID             domain.ID            `json:"orderId"`
	ID                  domain.ID            `json:"id"`
	OrderNumber         string               `json:"orderNumber"`
	Status              string               `json:"status"`
	OrderDate           json.RawMessage      `json:"orderDate"`
	CreatedAt           json.RawMessage      `json:"createdAt"`
	Items               []orderItemPayload   `json:"items"`
	DeliveryAddress     domain.Address       `json:"deliveryAddress"`
	PaymentMethod       domain.PaymentMethod `json:"paymentMethod"`
	PaymentStatus       string               `json:"paymentStatus"`
	SpecialInstructions string               `json:"specialInstructions"`
	Subtotal            decimal.Decimal      `json:"subtotal"`
	Tax                 decimal.Decimal      `json:"tax"`
	DeliveryCharge      decimal.Decimal      `json:"deliveryCharge"`
	Total               decimal.Decimal      `json:"total"`
	TotalAmount         decimal.Decimal      `json:"totalAmount"`
}

type orderItemPayload struct {
	ProductID    domain.ID       `json:"productId"`
	ProductName  string          `json:"productName"`
	Name         string          `json:"name"`
	Image        string          `json:"image"`
	ProductImage string          `json:"productImage"`
	Price        decimal.Decimal `json:"price"`
	Quantity     int             `json:"quantity"`
}

func (p orderPayload) normalize() domain.Order {
	order := domain.Order{
		OrderID:             firstID(p.OrderID, p.ID),
		OrderNumber:         p.OrderNumber,
		Status:              domain.Status(strings.ToLower(strings.TrimSpace(p.Status))),
		OrderDate:           firstTime(p.OrderDate, p.CreatedAt),
		Items:               make([]domain.OrderItem, 0, len(p.Items)),
		DeliveryAddress:     p.DeliveryAddress,
		PaymentMethod:       domain.PaymentMethod(strings.ToUpper(string(p.PaymentMethod))),
		PaymentStatus:       p.PaymentStatus,
		SpecialInstructions: p.SpecialInstructions,
		Subtotal:            p.Subtotal,
		Tax:                 p.Tax,
		DeliveryCharge:      p.DeliveryCharge,
		Total:               p.TotalAmount,
	}
	if order.OrderNumber == "" {
		order.OrderNumber = order.OrderID.String()
	}
	if order.Total.IsZero() {
		order.Total = p.Total
	}
	if order.Total.IsZero() {
		order.Total = p.Subtotal.Add(p.Tax).Add(p.DeliveryCharge)
	}
	for _, it := range p.Items {
		order.Items = append(order.Items, domain.OrderItem{
			ProductID:   it.ProductID,
			ProductName: firstString(it.ProductName, it.Name),
			Image:       firstString(it.Image, it.ProductImage),
			Price:       it.Price,
			Quantity:    it.Quantity,
		})
	}
	return order
}

type orderListPayload struct {
	Orders     []orderPayload     `json:"orders"`
	Pagination *domain.Pagination `json:"pagination"`
}

func (p orderListPayload) normalize() ([]domain.Order, domain.Pagination) {
	orders := make([]domain.Order, 0, len(p.Orders))
	for _, o := range p.Orders {
		orders = append(orders, o.normalize())
	}
	pagination := domain.DefaultPagination()
	if p.Pagination != nil {
		pagination = *p.Pagination
	}
	return orders, pagination
}

func firstString(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

func firstID(values ...domain.ID) domain.ID {
	for _, v := range values {
		if !v.IsZero() {
			return v
		}
	}
	return ""
}

func firstTime(values ...json.RawMessage) time.Time {
	for _, v := range values {
		if ts := parseTime(v); !ts.IsZero() {
			return ts
		}
	}
	return time.Time{}
}

// parseTime accepts RFC 3339 strings, plain date-times and epoch milliseconds.
func parseTime(raw json.RawMessage) time.Time {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return time.Time{}
	}
	if raw[0] != '"' {
		ms, err := strconv.ParseInt(string(raw), 10, 64)
		if err != nil {
			return time.Time{}
		}
		return time.UnixMilli(ms).UTC()
	}
	var val string
	if err := json.Unmarshal(raw, &val); err != nil {
		return time.Time{}
	}
	val = strings.TrimSpace(val)
	layouts := []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02 15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if ts, err := time.Parse(layout, val); err == nil {
			return ts
		}
	}
	return time.Time{}
}

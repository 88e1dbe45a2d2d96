package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status is the lifecycle state of an order as reported by the server.
type Status string

const (
	StatusPending        Status = "pending"
	StatusConfirmed      Status = "confirmed"
	StatusPreparing      Status = "preparing"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// progression is the linear path an order follows; cancelled sits outside it.
var progression = []Status{
	StatusPending,
	StatusConfirmed,
	StatusPreparing,
	StatusOutForDelivery,
	StatusDelivered,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusCancelled || s.Step() >= 0
}

// Step returns the index of s on the delivery progression, or -1 for
// cancelled and unknown statuses.
func (s Status) Step() int {
	for i, st := range progression {
		if st == s {
			return i
		}
	}
	return -1
}

// Terminal reports whether no further transition is possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// Cancellable reports whether the customer may still cancel the order.
func (s Status) Cancellable() bool {
	return s == StatusPending || s == StatusConfirmed
}

// Reorderable reports whether the order may be replayed into the cart.
func (s Status) Reorderable() bool {
	return s == StatusDelivered
}

// PaymentMethod is one of the payment options offered at checkout.
type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentCard   PaymentMethod = "CARD"
	PaymentUPI    PaymentMethod = "UPI"
	PaymentWallet PaymentMethod = "WALLET"
)

// Valid reports whether m is a supported payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentCOD, PaymentCard, PaymentUPI, PaymentWallet:
		return true
	default:
		return false
	}
}

type Address struct {
	Street  string `json:"street" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	ZipCode string `json:"zipCode" validate:"required,numeric,len=6"`
	Phone   string `json:"phone" validate:"required,numeric,len=10"`
}

type OrderItem struct {
	ProductID   ID              `json:"productId,omitempty"`
	ProductName string          `json:"productName"`
	Image       string          `json:"image,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

// Order is the canonical order schema. Payloads with alternative field
// names are normalised into it by the API client.
type Order struct {
	OrderID             ID              `json:"orderId"`
	OrderNumber         string          `json:"orderNumber"`
	Status              Status          `json:"status"`
	OrderDate           time.Time       `json:"orderDate"`
	Items               []OrderItem     `json:"items"`
	DeliveryAddress     Address         `json:"deliveryAddress"`
	PaymentMethod       PaymentMethod   `json:"paymentMethod"`
	PaymentStatus       string          `json:"paymentStatus"`
	SpecialInstructions string          `json:"specialInstructions,omitempty"`
	Subtotal            decimal.Decimal `json:"subtotal"`
	Tax                 decimal.Decimal `json:"tax"`
	DeliveryCharge      decimal.Decimal `json:"deliveryCharge"`
	Total               decimal.Decimal `json:"total"`
}

// PlaceOrderRequest is the checkout payload.
type PlaceOrderRequest struct {
	DeliveryAddress     Address       `json:"deliveryAddress" validate:"required"`
	PaymentMethod       PaymentMethod `json:"paymentMethod" validate:"required,oneof=COD CARD UPI WALLET"`
	SpecialInstructions string        `json:"specialInstructions"`
}

type Pagination struct {
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
	TotalPages  int `json:"totalPages"`
	TotalItems  int `json:"totalItems"`
}

// OrderPage is one page of the order history with the pagination it came with.
type OrderPage struct {
	Orders     []Order    `json:"orders"`
	Pagination Pagination `json:"pagination"`
}

const DefaultPageSize = 10

// DefaultPagination is used until the first successful list fetch.
func DefaultPagination() Pagination {
	return Pagination{CurrentPage: 1, PageSize: DefaultPageSize, TotalPages: 1}
}

// OrderQuery selects one page of the order history.
type OrderQuery struct {
	Page      int
	PageSize  int
	Status    Status
	SortBy    string
	SortOrder string
}

// WithDefaults fills unset fields: page 1, 10 per page, newest first.
func (q OrderQuery) WithDefaults() OrderQuery {
	if q.Page <= 0 {
		q.Page = 1
	}
	if q.PageSize <= 0 {
		q.PageSize = DefaultPageSize
	}
	if q.SortBy == "" {
		q.SortBy = "orderDate"
	}
	if q.SortOrder == "" {
		q.SortOrder = "desc"
	}
	return q
}

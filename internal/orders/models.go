package orders

import (
	"time"

	"storefront-service/internal/pricing"
)

// Item is an order line with the price captured when the order was placed.
type Item struct {
	ProductID string        `json:"product_id"`
	Name      string        `json:"name"`
	Image     string        `json:"image,omitempty"`
	Quantity  int           `json:"quantity"`
	Price     pricing.Money `json:"price"`
}

type ShippingInfo struct {
	Address string `json:"address" validate:"required,min=5"`
	Phone   string `json:"phone" validate:"required,min=9,max=15"`
}

type Order struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id,omitempty"`
	Items         []Item        `json:"items"`
	Shipping      ShippingInfo  `json:"shipping"`
	PaymentMethod string        `json:"payment_method"`
	Status        Status        `json:"status"`
	RawStatus     string        `json:"raw_status"`
	TotalPrice    pricing.Money `json:"total_price"`
	CreatedAt     time.Time     `json:"created_at"`
}

// Review is one product rating submitted for a completed order.
type Review struct {
	ProductID string   `json:"product_id" validate:"required"`
	Rating    int      `json:"rating" validate:"required,min=1,max=5"`
	Comment   string   `json:"comment,omitempty" validate:"max=2000"`
	Images    []string `json:"images,omitempty"`
}

type Page struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

const (
	DefaultPage  = 1
	DefaultLimit = 10
	MaxLimit     = 50
)

// Normalize fills in defaults and caps the page size.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

// Draft is an order about to be placed from the checked-out cart items.
type Draft struct {
	Items         []Item
	Shipping      ShippingInfo
	PaymentMethod string
	TotalPrice    pricing.Money
}

package kafka

import "time"

const (
	TopicOrderPlaced        = `storefront.order-placed`
	TopicOrderCancelled     = `storefront.order-cancelled`
	TopicOrderReceived      = `storefront.order-received`
	TopicOrderReviewed      = `storefront.order-reviewed`
	TopicOrderStatusChanged = `storefront.order-status-changed`
)

// OrderActivityEvent records a shopper or admin action taken on an order through the
// storefront. The order id is used as the record key.
type OrderActivityEvent struct {
	EventID       string    `json:"event_id"`
	OrderID       string    `json:"order_id"`
	UserID        string    `json:"user_id"`
	Action        string    `json:"action"`
	Status        string    `json:"status"`
	PaymentMethod string    `json:"payment_method,omitempty"`
	Reviews       int       `json:"reviews,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

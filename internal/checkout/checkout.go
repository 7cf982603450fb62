// Package checkout turns the selected cart items into an order.
package checkout

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/orders"
	"storefront-service/internal/pricing"
	"storefront-service/internal/stores/kafka"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

const (
	PaymentCOD    = "cod"
	PaymentStripe = "stripe"
)

const (
	ErrMsgLoginRequired      = "Please log in to place an order"
	ErrMsgSelectionStale     = "Some selected items are no longer in your cart"
	ErrMsgPaymentUnavailable = "Card payment is not available right now"
)

type Request struct {
	SelectedIDs   []string            `json:"selected_ids" validate:"required,min=1,dive,required"`
	Shipping      orders.ShippingInfo `json:"shipping"`
	PaymentMethod string              `json:"payment_method" validate:"required,oneof=cod stripe"`
}

type Result struct {
	OrderID    string              `json:"order_id"`
	PaymentURL string              `json:"payment_url,omitempty"`
	Totals     cart.SelectedTotals `json:"totals"`
}

type CartSource interface {
	FetchCart(ctx context.Context, sess *auth.Session) (*cart.View, error)
	Invalidate(sess *auth.Session)
}

type OrderCreator interface {
	CreateOrder(ctx context.Context, sess *auth.Session, d orders.Draft) (string, error)
}

// PaymentGateway opens a hosted payment page; *payments.Conf satisfies it.
type PaymentGateway interface {
	CreateCheckoutSession(orderID, userID string, d orders.Draft) (string, error)
}

type OrderCache interface {
	Invalidate(sess *auth.Session)
}

type Conf struct {
	carts    CartSource
	creator  OrderCreator
	payments PaymentGateway
	orders   OrderCache
	events   orders.Publisher
	validate *validator.Validate
}

// NewConf wires checkout. payments and events may be nil; without payments only cash on
// delivery is accepted.
func NewConf(carts CartSource, creator OrderCreator, orderCache OrderCache, payments PaymentGateway, events orders.Publisher) (*Conf, error) {
	if carts == nil || creator == nil || orderCache == nil {
		return nil, fmt.Errorf("checkout needs a cart source, an order creator and an order cache")
	}
	return &Conf{
		carts:    carts,
		creator:  creator,
		payments: payments,
		orders:   orderCache,
		events:   events,
		validate: validator.New(),
	}, nil
}

// Place orders the selected items of a freshly fetched cart. The backend removes ordered
// items from the cart; both cached queries are dropped so the next read shows that.
func (c *Conf) Place(ctx context.Context, sess *auth.Session, req Request) (Result, error) {
	traceId := ctxmanage.GetTraceId(ctx)
	if !sess.Authenticated() {
		return Result{}, apperr.Unauthenticated(ErrMsgLoginRequired)
	}
	if err := c.validate.Struct(req); err != nil {
		return Result{}, apperr.FromValidator(err)
	}
	if req.PaymentMethod == PaymentStripe && c.payments == nil {
		return Result{}, apperr.Precondition(ErrMsgPaymentUnavailable)
	}

	c.carts.Invalidate(sess)
	view, err := c.carts.FetchCart(ctx, sess)
	if err != nil {
		return Result{}, fmt.Errorf("loading cart for checkout: %w", err)
	}

	selection := cart.NewSelection(view)
	selection.Select(req.SelectedIDs...)
	items := selection.Items(view)
	if len(items) != len(selection.IDs()) {
		slog.Info("checkout selection is stale", slog.String(logkey.TraceID, traceId),
			slog.Int("Selected", len(selection.IDs())), slog.Int("Found", len(items)))
		return Result{}, apperr.Precondition(ErrMsgSelectionStale)
	}
	totals := selection.Totals(view)

	draft := orders.Draft{
		Items:         toOrderItems(items),
		Shipping:      req.Shipping,
		PaymentMethod: req.PaymentMethod,
		TotalPrice:    totals.SelectedTotalPrice,
	}
	orderID, err := c.creator.CreateOrder(ctx, sess, draft)
	if err != nil {
		return Result{}, fmt.Errorf("placing order: %w", err)
	}
	c.carts.Invalidate(sess)
	c.orders.Invalidate(sess)
	slog.Info("order placed", slog.String(logkey.TraceID, traceId), slog.String(logkey.OrderID, orderID),
		slog.String(logkey.UserID, sess.UserID()), slog.Int64("Total", int64(totals.SelectedTotalPrice)))

	result := Result{OrderID: orderID, Totals: totals}
	if req.PaymentMethod == PaymentStripe {
		link, err := c.payments.CreateCheckoutSession(orderID, sess.UserID(), draft)
		if err != nil {
			slog.Error("error creating Stripe checkout session", slog.String(logkey.TraceID, traceId),
				slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
			return Result{OrderID: orderID, Totals: totals}, apperr.Remote("Failed to create Stripe checkout session", err)
		}
		result.PaymentURL = link
	}

	c.publish(ctx, sess, orderID, draft)
	return result, nil
}

// toOrderItems captures the discounted unit price at the moment of ordering.
func toOrderItems(items []cart.LineItem) []orders.Item {
	out := make([]orders.Item, 0, len(items))
	for _, item := range items {
		var image string
		if len(item.Product.Images) > 0 {
			image = item.Product.Images[0]
		}
		out = append(out, orders.Item{
			ProductID: item.Product.ID,
			Name:      item.Product.Name,
			Image:     image,
			Quantity:  item.Quantity,
			Price:     pricing.DiscountedPrice(item.Product.Price, item.Product.Discount),
		})
	}
	return out
}

func (c *Conf) publish(ctx context.Context, sess *auth.Session, orderID string, d orders.Draft) {
	if c.events == nil {
		return
	}
	traceId := ctxmanage.GetTraceId(ctx)
	data, err := json.Marshal(kafka.OrderActivityEvent{
		EventID:       uuid.NewString(),
		OrderID:       orderID,
		UserID:        sess.UserID(),
		Action:        "place",
		Status:        orders.StatusPending.String(),
		PaymentMethod: d.PaymentMethod,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal order activity event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return
	}
	if err := c.events.ProduceMessage(kafka.TopicOrderPlaced, []byte(orderID), data); err != nil {
		slog.Error("failed to publish order activity event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
	}
}

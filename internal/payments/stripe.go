// Package payments creates Stripe Checkout sessions for storefront orders and reads the
// payment webhooks Stripe sends back.
package payments

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/checkout/session"
	"github.com/stripe/stripe-go/v81/webhook"

	"storefront-service/internal/orders"
)

const (
	MetadataOrderID = "order_id"
	MetadataUserID  = "user_id"
)

var ErrNoOrderID = errors.New("payment event carries no order id")

type Conf struct {
	sessions      session.Client
	webhookSecret string
	successURL    string
	cancelURL     string
}

type Options struct {
	SecretKey     string
	WebhookSecret string
	SuccessURL    string
	CancelURL     string
}

func NewConf(opts Options) (*Conf, error) {
	if opts.SecretKey == "" {
		return nil, errors.New("stripe secret key not found")
	}
	stripe.Key = opts.SecretKey
	return newConf(opts, stripe.GetBackend(stripe.APIBackend)), nil
}

func newConf(opts Options, backend stripe.Backend) *Conf {
	return &Conf{
		sessions:      session.Client{B: backend, Key: opts.SecretKey},
		webhookSecret: opts.WebhookSecret,
		successURL:    opts.SuccessURL,
		cancelURL:     opts.CancelURL,
	}
}

// CreateCheckoutSession opens a hosted payment page for an order that was already
// placed. Amounts are in whole dong; VND has no minor unit.
func (c *Conf) CreateCheckoutSession(orderID, userID string, d orders.Draft) (string, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(d.Items))
	for _, item := range d.Items {
		product := &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
			Name: stripe.String(item.Name),
		}
		if item.Image != "" {
			product.Images = stripe.StringSlice([]string{item.Image})
		}
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:    stripe.String(string(stripe.CurrencyVND)),
				ProductData: product,
				UnitAmount:  stripe.Int64(int64(item.Price)),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	metadata := map[string]string{MetadataOrderID: orderID, MetadataUserID: userID}
	params := &stripe.CheckoutSessionParams{
		ClientReferenceID: stripe.String(orderID),
		LineItems:         lineItems,
		Mode:              stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:        stripe.String(c.successURL),
		CancelURL:         stripe.String(c.cancelURL),
		PaymentIntentData: &stripe.CheckoutSessionPaymentIntentDataParams{
			Metadata: metadata,
		},
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	params.AddMetadata("total", strconv.FormatInt(int64(d.TotalPrice), 10))
	params.SetIdempotencyKey("checkout-" + orderID)

	s, err := c.sessions.New(params)
	if err != nil {
		return "", fmt.Errorf("creating stripe checkout session: %w", err)
	}
	return s.URL, nil
}

// Payment is a completed payment reported by the webhook.
type Payment struct {
	EventID   string
	EventType string
	OrderID   string
	UserID    string
	Reference string
}

// ParseWebhook verifies the Stripe signature and extracts the paid order. ok is false
// for event types that do not settle an order.
func (c *Conf) ParseWebhook(payload []byte, signature string) (Payment, bool, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return Payment{}, false, fmt.Errorf("verifying stripe event: %w", err)
	}

	p := Payment{EventID: event.ID, EventType: string(event.Type)}
	var metadata map[string]string
	var clientReference string
	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		var intent stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
			return Payment{}, false, fmt.Errorf("decoding payment intent: %w", err)
		}
		p.Reference, metadata = intent.ID, intent.Metadata
	case stripe.EventTypeCheckoutSessionCompleted:
		var s stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
			return Payment{}, false, fmt.Errorf("decoding checkout session: %w", err)
		}
		if s.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			return p, false, nil
		}
		p.Reference, metadata, clientReference = s.ID, s.Metadata, s.ClientReferenceID
	default:
		return p, false, nil
	}

	p.OrderID, p.UserID = metadata[MetadataOrderID], metadata[MetadataUserID]
	if p.OrderID == "" {
		p.OrderID = clientReference
	}
	if p.OrderID == "" {
		return p, false, ErrNoOrderID
	}
	return p, true, nil
}

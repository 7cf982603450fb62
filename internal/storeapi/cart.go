package storeapi

import (
	"context"
	"log/slog"
	"net/http"
	"net/url"

	"storefront-service/internal/auth"
	"storefront-service/internal/cart"
	"storefront-service/internal/pricing"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

func (c *Client) GetCart(ctx context.Context, sess *auth.Session) ([]cart.LineItem, error) {
	var data wireCart
	err := c.do(ctx, sess, request{method: http.MethodGet, path: "/cart", failMsg: "Failed to fetch cart items"}, &data)
	if err != nil {
		return nil, err
	}
	return toLineItems(ctx, data.CartItems), nil
}

func (c *Client) AddItem(ctx context.Context, sess *auth.Session, productID string, quantity int) error {
	body := map[string]any{"productId": productID, "quantity": quantity}
	return c.do(ctx, sess, request{method: http.MethodPost, path: "/cart", body: body, failMsg: "Failed to add product to cart"}, nil)
}

func (c *Client) UpdateItem(ctx context.Context, sess *auth.Session, productID string, quantity int) error {
	body := map[string]any{"quantity": quantity}
	path := "/cart/" + url.PathEscape(productID)
	return c.do(ctx, sess, request{method: http.MethodPatch, path: path, body: body, failMsg: "Failed to update quantity"}, nil)
}

func (c *Client) RemoveItem(ctx context.Context, sess *auth.Session, productID string) error {
	path := "/cart/" + url.PathEscape(productID)
	return c.do(ctx, sess, request{method: http.MethodDelete, path: path, failMsg: "Failed to remove product from cart"}, nil)
}

func (c *Client) Clear(ctx context.Context, sess *auth.Session) error {
	return c.do(ctx, sess, request{method: http.MethodDelete, path: "/cart", failMsg: "Failed to clear cart"}, nil)
}

// toLineItems validates cart entries at the boundary. Entries without a product id,
// with a missing or negative price, a discount outside [0, 100] or a quantity below 1
// are dropped rather than priced as zero.
func toLineItems(ctx context.Context, raw []wireCartItem) []cart.LineItem {
	items := make([]cart.LineItem, 0, len(raw))
	for _, w := range raw {
		if reason := rejectReason(w); reason != "" {
			slog.Warn("dropping malformed cart item", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)),
				slog.String("CartItemID", w.ID), slog.String("Reason", reason))
			continue
		}
		p := w.Product
		discount := 0
		if p.Discount != nil {
			discount = int(wholeUnits(*p.Discount))
		}
		id := w.ID
		if id == "" {
			id = p.ID
		}
		items = append(items, cart.LineItem{
			ID: id,
			Product: cart.Product{
				ID:       p.ID,
				Name:     p.Name,
				Price:    pricing.Money(wholeUnits(*p.Price)),
				Discount: discount,
				Images:   imageURLs(p.Images),
				Brand:    p.Brand.Name,
				Category: p.Category.Name,
			},
			Quantity: w.Quantity,
		})
	}
	return items
}

func rejectReason(w wireCartItem) string {
	switch {
	case w.Product == nil || w.Product.ID == "":
		return "missing product"
	case w.Product.Price == nil:
		return "missing price"
	case *w.Product.Price < 0:
		return "negative price"
	case w.Product.Discount != nil && (*w.Product.Discount < 0 || *w.Product.Discount > 100):
		return "discount out of range"
	case w.Quantity < 1:
		return "quantity below 1"
	default:
		return ""
	}
}

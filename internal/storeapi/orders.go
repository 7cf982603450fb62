package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/orders"
	"storefront-service/internal/pricing"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

func (c *Client) ListOrders(ctx context.Context, sess *auth.Session, page orders.Page) ([]orders.Order, error) {
	page = page.Normalize()
	query := url.Values{}
	query.Set("page", strconv.Itoa(page.Page))
	query.Set("limit", strconv.Itoa(page.Limit))

	var raw json.RawMessage
	err := c.do(ctx, sess, request{method: http.MethodGet, path: "/orders/user", query: query, failMsg: "Failed to fetch orders"}, &raw)
	if err != nil {
		return nil, err
	}
	items, err := decodeOrderList(raw)
	if err != nil {
		return nil, apperr.Remote("Failed to fetch orders", fmt.Errorf("decoding order list: %w", err))
	}

	list := make([]orders.Order, 0, len(items))
	for _, w := range items {
		if w.ID == "" {
			slog.Warn("dropping order without id", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)))
			continue
		}
		list = append(list, toOrder(ctx, w))
	}
	return list, nil
}

// decodeOrderList reads the bare array the backend documents for
// GET /orders/user, falling back to an {"orders": [...]} wrapper.
func decodeOrderList(raw json.RawMessage) ([]wireOrder, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	if raw[0] == '[' {
		var items []wireOrder
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, err
		}
		return items, nil
	}
	var wrapped struct {
		Orders []wireOrder `json:"orders"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Orders, nil
}

func (c *Client) GetOrder(ctx context.Context, sess *auth.Session, orderID string) (*orders.Order, error) {
	var data struct {
		Order wireOrder `json:"order"`
	}
	path := "/orders/" + url.PathEscape(orderID)
	err := c.do(ctx, sess, request{method: http.MethodGet, path: path, failMsg: "Failed to fetch order"}, &data)
	if err != nil {
		return nil, err
	}
	if data.Order.ID == "" {
		data.Order.ID = orderID
	}
	order := toOrder(ctx, data.Order)
	return &order, nil
}

func (c *Client) CancelOrder(ctx context.Context, sess *auth.Session, orderID string) error {
	path := "/orders/" + url.PathEscape(orderID) + "/cancel"
	return c.do(ctx, sess, request{method: http.MethodPatch, path: path, failMsg: "Failed to cancel order"}, nil)
}

func (c *Client) UpdateStatus(ctx context.Context, sess *auth.Session, orderID string, status orders.Status) error {
	path := "/orders/" + url.PathEscape(orderID) + "/status"
	body := map[string]string{"orderStatus": status.String()}
	return c.do(ctx, sess, request{method: http.MethodPatch, path: path, body: body, failMsg: "Failed to update order status"}, nil)
}

// CreateOrder places d and returns the new order's id.
func (c *Client) CreateOrder(ctx context.Context, sess *auth.Session, d orders.Draft) (string, error) {
	body := newOrder{
		OrderItems:    make([]newOrderItem, 0, len(d.Items)),
		ShippingInfo:  wireShipping{Address: d.Shipping.Address, Phone: d.Shipping.Phone},
		PaymentMethod: d.PaymentMethod,
		TotalPrice:    int64(d.TotalPrice),
	}
	for _, item := range d.Items {
		body.OrderItems = append(body.OrderItems, newOrderItem{
			Product:  item.ProductID,
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    int64(item.Price),
		})
	}

	var data struct {
		Order wireOrder `json:"order"`
	}
	err := c.do(ctx, sess, request{method: http.MethodPost, path: "/orders", body: body, failMsg: "Failed to place order"}, &data)
	if err != nil {
		return "", err
	}
	return data.Order.ID, nil
}

// toOrder canonicalizes the status once; the raw string is kept for display only.
func toOrder(ctx context.Context, w wireOrder) orders.Order {
	raw := w.OrderStatus
	if raw == "" {
		raw = w.Status
	}
	status := orders.ParseStatus(raw)
	if status == orders.StatusUnknown {
		slog.Warn("unrecognized order status", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)),
			slog.String(logkey.OrderID, w.ID), slog.String("Status", raw))
	}

	items := make([]orders.Item, 0, len(w.OrderItems))
	for _, wi := range w.OrderItems {
		item := orders.Item{
			ProductID: wi.Product.ID,
			Name:      wi.Name,
			Image:     wi.Image,
			Quantity:  wi.Quantity,
			Price:     pricing.Money(wholeUnits(wi.Price)),
		}
		if item.Name == "" {
			item.Name = wi.Product.Name
		}
		if item.Image == "" && len(wi.Product.Images) > 0 {
			item.Image = wi.Product.Images[0]
		}
		items = append(items, item)
	}

	return orders.Order{
		ID:            w.ID,
		UserID:        w.User.ID,
		Items:         items,
		Shipping:      orders.ShippingInfo{Address: w.ShippingInfo.Address, Phone: w.ShippingInfo.Phone},
		PaymentMethod: w.PaymentMethod,
		Status:        status,
		RawStatus:     raw,
		TotalPrice:    pricing.Money(wholeUnits(w.TotalPrice)),
		CreatedAt:     w.CreatedAt,
	}
}

package cart

import (
	"context"
	"fmt"
	"log/slog"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/querycache"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

const (
	ErrMsgLoginRequired     = "Please log in to manage your cart"
	ErrMsgProductIDRequired = "Product ID is required"
)

// Service is the remote cart collaborator. Every call acts for the given session.
type Service interface {
	GetCart(ctx context.Context, sess *auth.Session) ([]LineItem, error)
	AddItem(ctx context.Context, sess *auth.Session, productID string, quantity int) error
	UpdateItem(ctx context.Context, sess *auth.Session, productID string, quantity int) error
	RemoveItem(ctx context.Context, sess *auth.Session, productID string) error
	Clear(ctx context.Context, sess *auth.Session) error
}

// Conf keeps the cart shown to a session in step with the backend. Mutations are never
// applied locally: a successful call drops the cached snapshot and the next read refetches.
type Conf struct {
	service Service
	cache   *querycache.Cache
	seq     *sequencer
}

func NewConf(service Service, cache *querycache.Cache) (*Conf, error) {
	if service == nil {
		return nil, fmt.Errorf("cart service is nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("query cache is nil")
	}
	return &Conf{service: service, cache: cache, seq: newSequencer()}, nil
}

func cacheKey(sess *auth.Session) string {
	return "cart/" + sess.UserID()
}

// FetchCart returns the session's cart. Anonymous visitors get an empty cart without a
// backend call, and a backend "unauthenticated" answer is treated the same way.
func (c *Conf) FetchCart(ctx context.Context, sess *auth.Session) (*View, error) {
	if !sess.Authenticated() {
		return EmptyView(), nil
	}
	key := cacheKey(sess)
	if cached, ok := c.cache.Get(key); ok {
		if view, ok := cached.(*View); ok {
			return view, nil
		}
	}

	gen := c.cache.Generation()
	items, err := c.service.GetCart(ctx, sess)
	if err != nil {
		if apperr.IsKind(err, apperr.KindUnauthenticated) {
			slog.Debug("cart fetch unauthenticated", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)),
				slog.String(logkey.UserID, sess.UserID()))
			return EmptyView(), nil
		}
		return nil, fmt.Errorf("fetching cart: %w", err)
	}

	view := newView(items)
	c.cache.SetIfGeneration(key, gen, view)
	return view, nil
}

// Stats returns the badge totals of the current cart.
func (c *Conf) Stats(ctx context.Context, sess *auth.Session) (Totals, error) {
	view, err := c.FetchCart(ctx, sess)
	if err != nil {
		return Totals{}, err
	}
	return view.Totals, nil
}

func (c *Conf) AddToCart(ctx context.Context, sess *auth.Session, productID string, quantity int) error {
	traceId := ctxmanage.GetTraceId(ctx)
	if productID == "" {
		slog.Warn("add to cart without product id", slog.String(logkey.TraceID, traceId))
		return apperr.Validation(ErrMsgProductIDRequired)
	}
	if !sess.Authenticated() {
		return apperr.Unauthenticated(ErrMsgLoginRequired)
	}
	if quantity < 1 {
		quantity = 1
	}

	if err := c.service.AddItem(ctx, sess, productID, quantity); err != nil {
		return fmt.Errorf("adding product %s to cart: %w", productID, err)
	}
	c.invalidate(sess)
	return nil
}

// UpdateQuantity sets a line item's quantity. Quantities below 1 are ignored; removing an
// item goes through RemoveItem. Concurrent calls for one product are serialized and only
// the most recent queued quantity is sent.
func (c *Conf) UpdateQuantity(ctx context.Context, sess *auth.Session, productID string, quantity int) error {
	if quantity < 1 {
		slog.Debug("ignoring quantity below 1", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)),
			slog.String("ProductID", productID), slog.Int("Quantity", quantity))
		return nil
	}
	if productID == "" {
		return apperr.Validation(ErrMsgProductIDRequired)
	}
	if !sess.Authenticated() {
		return apperr.Unauthenticated(ErrMsgLoginRequired)
	}

	sent, err := c.seq.Do(ctx, c.itemKey(sess, productID), func(ctx context.Context) error {
		return c.service.UpdateItem(ctx, sess, productID, quantity)
	})
	if err != nil {
		return fmt.Errorf("updating quantity of %s: %w", productID, err)
	}
	if sent {
		c.invalidate(sess)
	}
	return nil
}

func (c *Conf) RemoveItem(ctx context.Context, sess *auth.Session, productID string) error {
	if productID == "" {
		return apperr.Validation(ErrMsgProductIDRequired)
	}
	if !sess.Authenticated() {
		return apperr.Unauthenticated(ErrMsgLoginRequired)
	}

	_, err := c.seq.Do(ctx, c.itemKey(sess, productID), func(ctx context.Context) error {
		return c.service.RemoveItem(ctx, sess, productID)
	})
	if err != nil {
		return fmt.Errorf("removing %s from cart: %w", productID, err)
	}
	c.invalidate(sess)
	return nil
}

func (c *Conf) ClearCart(ctx context.Context, sess *auth.Session) error {
	if !sess.Authenticated() {
		return apperr.Unauthenticated(ErrMsgLoginRequired)
	}
	if err := c.service.Clear(ctx, sess); err != nil {
		return fmt.Errorf("clearing cart: %w", err)
	}
	c.invalidate(sess)
	return nil
}

// Invalidate drops the cached cart of sess; checkout calls it after placing an order.
func (c *Conf) Invalidate(sess *auth.Session) {
	c.invalidate(sess)
}

func (c *Conf) invalidate(sess *auth.Session) {
	c.cache.Invalidate(cacheKey(sess))
}

func (c *Conf) itemKey(sess *auth.Session, productID string) string {
	return sess.UserID() + "/" + productID
}

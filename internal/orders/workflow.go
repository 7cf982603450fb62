package orders

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
	"storefront-service/internal/querycache"
	"storefront-service/internal/stores/kafka"
	"storefront-service/pkg/ctxmanage"
	"storefront-service/pkg/logkey"
)

const (
	ErrMsgLoginRequired   = "Please log in to view your orders"
	ErrMsgOrderIDRequired = "Order ID is required"
	ErrMsgAdminOnly       = "Only administrators can change order status"
	ErrMsgUnknownStatus   = "Unknown order status"
	ErrMsgReviewsRequired = "Please rate every product in the order"
)

// Service is the remote order and review collaborator. The backend owns every status
// transition; this package only decides which requests are worth sending.
type Service interface {
	ListOrders(ctx context.Context, sess *auth.Session, page Page) ([]Order, error)
	GetOrder(ctx context.Context, sess *auth.Session, orderID string) (*Order, error)
	CancelOrder(ctx context.Context, sess *auth.Session, orderID string) error
	UpdateStatus(ctx context.Context, sess *auth.Session, orderID string, status Status) error
	CreateReviews(ctx context.Context, sess *auth.Session, reviews []Review) error
}

// Publisher receives order activity events; *kafka.Conf satisfies it.
type Publisher interface {
	ProduceMessage(topic string, key []byte, value []byte) error
}

type Workflow struct {
	service  Service
	cache    *querycache.Cache
	events   Publisher
	validate *validator.Validate
}

// NewWorkflow builds the controller. events may be nil when no broker is configured.
func NewWorkflow(service Service, cache *querycache.Cache, events Publisher) (*Workflow, error) {
	if service == nil {
		return nil, fmt.Errorf("order service is nil")
	}
	if cache == nil {
		return nil, fmt.Errorf("query cache is nil")
	}
	return &Workflow{service: service, cache: cache, events: events, validate: validator.New()}, nil
}

func userPrefix(sess *auth.Session) string {
	return "orders/" + sess.UserID() + "/"
}

func listKey(sess *auth.Session, p Page) string {
	return fmt.Sprintf("%slist/%d/%d", userPrefix(sess), p.Page, p.Limit)
}

func detailKey(sess *auth.Session, orderID string) string {
	return userPrefix(sess) + "detail/" + orderID
}

func (w *Workflow) ListOrders(ctx context.Context, sess *auth.Session, page Page) ([]Order, error) {
	if !sess.Authenticated() {
		return nil, apperr.Unauthenticated(ErrMsgLoginRequired)
	}
	page = page.Normalize()
	key := listKey(sess, page)
	if cached, ok := w.cache.Get(key); ok {
		if list, ok := cached.([]Order); ok {
			return list, nil
		}
	}

	gen := w.cache.Generation()
	list, err := w.service.ListOrders(ctx, sess, page)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	if list == nil {
		list = []Order{}
	}
	w.cache.SetIfGeneration(key, gen, list)
	return list, nil
}

func (w *Workflow) GetOrder(ctx context.Context, sess *auth.Session, orderID string) (*Order, error) {
	if !sess.Authenticated() {
		return nil, apperr.Unauthenticated(ErrMsgLoginRequired)
	}
	if orderID == "" {
		return nil, apperr.Validation(ErrMsgOrderIDRequired)
	}
	key := detailKey(sess, orderID)
	if cached, ok := w.cache.Get(key); ok {
		if order, ok := cached.(*Order); ok {
			return order, nil
		}
	}

	gen := w.cache.Generation()
	order, err := w.service.GetOrder(ctx, sess, orderID)
	if err != nil {
		return nil, fmt.Errorf("fetching order %s: %w", orderID, err)
	}
	w.cache.SetIfGeneration(key, gen, order)
	return order, nil
}

// gate loads the order and checks that its current status permits action.
func (w *Workflow) gate(ctx context.Context, sess *auth.Session, orderID string, action Action) (*Order, error) {
	order, err := w.GetOrder(ctx, sess, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.Actions().Has(action) {
		return nil, apperr.Preconditionf("A %s order does not allow %s", order.Status.Meta().Label, action)
	}
	return order, nil
}

// Cancel asks the backend to cancel a pending order. The new status is only visible
// after the order is refetched.
func (w *Workflow) Cancel(ctx context.Context, sess *auth.Session, orderID string) error {
	order, err := w.gate(ctx, sess, orderID, ActionCancel)
	if err != nil {
		return err
	}
	if err := w.service.CancelOrder(ctx, sess, orderID); err != nil {
		return fmt.Errorf("cancelling order %s: %w", orderID, err)
	}
	w.invalidate(sess)
	w.publish(ctx, kafka.TopicOrderCancelled, sess, order, ActionCancel.String(), StatusCancelled, 0)
	return nil
}

// ConfirmReceipt marks a delivered order as completed.
func (w *Workflow) ConfirmReceipt(ctx context.Context, sess *auth.Session, orderID string) error {
	order, err := w.gate(ctx, sess, orderID, ActionConfirmReceipt)
	if err != nil {
		return err
	}
	if err := w.service.UpdateStatus(ctx, sess, orderID, StatusCompleted); err != nil {
		return fmt.Errorf("confirming receipt of order %s: %w", orderID, err)
	}
	w.invalidate(sess)
	w.publish(ctx, kafka.TopicOrderReceived, sess, order, ActionConfirmReceipt.String(), StatusCompleted, 0)
	return nil
}

// SubmitReviews sends one review per order line. Nothing is sent unless every product
// of the order carries a rating between 1 and 5.
func (w *Workflow) SubmitReviews(ctx context.Context, sess *auth.Session, orderID string, reviews []Review) error {
	order, err := w.gate(ctx, sess, orderID, ActionReview)
	if err != nil {
		return err
	}
	if err := w.validateReviews(order, reviews); err != nil {
		slog.Info("review submission rejected", slog.String(logkey.TraceID, ctxmanage.GetTraceId(ctx)),
			slog.String(logkey.OrderID, orderID), slog.String(logkey.ERROR, err.Error()))
		return err
	}
	if err := w.service.CreateReviews(ctx, sess, reviews); err != nil {
		return fmt.Errorf("submitting reviews for order %s: %w", orderID, err)
	}
	w.invalidate(sess)
	w.publish(ctx, kafka.TopicOrderReviewed, sess, order, ActionReview.String(), order.Status, len(reviews))
	return nil
}

func (w *Workflow) validateReviews(order *Order, reviews []Review) error {
	byProduct := make(map[string]Review, len(reviews))
	for _, r := range reviews {
		if err := w.validate.Struct(r); err != nil {
			return apperr.FromValidator(err)
		}
		if _, dup := byProduct[r.ProductID]; dup {
			return apperr.Validationf("Product %s was reviewed twice", r.ProductID)
		}
		byProduct[r.ProductID] = r
	}
	ordered := make(map[string]struct{}, len(order.Items))
	for _, item := range order.Items {
		ordered[item.ProductID] = struct{}{}
		r, ok := byProduct[item.ProductID]
		if !ok || r.Rating < 1 {
			return apperr.Validation(ErrMsgReviewsRequired)
		}
	}
	for productID := range byProduct {
		if _, ok := ordered[productID]; !ok {
			return apperr.Validationf("Product %s is not part of this order", productID)
		}
	}
	return nil
}

// SetStatus is the admin override. It trusts the backend to reject transitions it does
// not allow.
func (w *Workflow) SetStatus(ctx context.Context, sess *auth.Session, orderID string, status Status) error {
	if !sess.Authenticated() {
		return apperr.Unauthenticated(ErrMsgLoginRequired)
	}
	if !sess.IsAdmin() {
		return apperr.Forbidden(ErrMsgAdminOnly)
	}
	if orderID == "" {
		return apperr.Validation(ErrMsgOrderIDRequired)
	}
	if status == StatusUnknown {
		return apperr.Validation(ErrMsgUnknownStatus)
	}
	if err := w.service.UpdateStatus(ctx, sess, orderID, status); err != nil {
		return fmt.Errorf("setting order %s to %s: %w", orderID, status, err)
	}
	// the order belongs to some other user, so every cached order query is suspect
	w.cache.InvalidatePrefix("orders/")
	w.publish(ctx, kafka.TopicOrderStatusChanged, sess, &Order{ID: orderID}, "set_status", status, 0)
	return nil
}

// Invalidate drops every cached order query of sess.
func (w *Workflow) Invalidate(sess *auth.Session) {
	w.invalidate(sess)
}

func (w *Workflow) invalidate(sess *auth.Session) {
	w.cache.InvalidatePrefix(userPrefix(sess))
}

func (w *Workflow) publish(ctx context.Context, topic string, sess *auth.Session, order *Order, action string, status Status, reviews int) {
	if w.events == nil {
		return
	}
	traceId := ctxmanage.GetTraceId(ctx)
	data, err := json.Marshal(kafka.OrderActivityEvent{
		EventID:       uuid.NewString(),
		OrderID:       order.ID,
		UserID:        sess.UserID(),
		Action:        action,
		Status:        status.String(),
		PaymentMethod: order.PaymentMethod,
		Reviews:       reviews,
		CreatedAt:     time.Now().UTC(),
	})
	if err != nil {
		slog.Error("failed to marshal order activity event", slog.String(logkey.TraceID, traceId), slog.String(logkey.ERROR, err.Error()))
		return
	}
	if err := w.events.ProduceMessage(topic, []byte(order.ID), data); err != nil {
		slog.Error("failed to publish order activity event", slog.String(logkey.TraceID, traceId),
			slog.String(logkey.OrderID, order.ID), slog.String(logkey.ERROR, err.Error()))
	}
}

package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/querycache"
	"storefront-service/internal/stores/kafka"
)

type fakeService struct {
	orders   map[string]*Order
	calls    map[string]int
	statuses []Status
	reviews  []Review
	err      error
}

func newFakeService(orders ...*Order) *fakeService {
	f := &fakeService{orders: map[string]*Order{}, calls: map[string]int{}}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeService) remoteCalls() int {
	return f.calls["cancel"] + f.calls["status"] + f.calls["reviews"]
}

func (f *fakeService) ListOrders(_ context.Context, _ *auth.Session, _ Page) ([]Order, error) {
	f.calls["list"]++
	var list []Order
	for _, o := range f.orders {
		list = append(list, *o)
	}
	return list, f.err
}

func (f *fakeService) GetOrder(_ context.Context, _ *auth.Session, orderID string) (*Order, error) {
	f.calls["get"]++
	o, ok := f.orders[orderID]
	if !ok {
		return nil, apperr.NotFound("Order not found")
	}
	cp := *o
	return &cp, nil
}

func (f *fakeService) CancelOrder(_ context.Context, _ *auth.Session, orderID string) error {
	f.calls["cancel"]++
	if f.err != nil {
		return f.err
	}
	f.orders[orderID].Status = StatusCancelled
	return nil
}

func (f *fakeService) UpdateStatus(_ context.Context, _ *auth.Session, orderID string, status Status) error {
	f.calls["status"]++
	f.statuses = append(f.statuses, status)
	if f.err != nil {
		return f.err
	}
	if o, ok := f.orders[orderID]; ok {
		o.Status = status
	}
	return nil
}

func (f *fakeService) CreateReviews(_ context.Context, _ *auth.Session, reviews []Review) error {
	f.calls["reviews"]++
	f.reviews = reviews
	return f.err
}

type record struct {
	topic string
	key   string
	event kafka.OrderActivityEvent
}

type fakePublisher struct {
	records []record
	err     error
}

func (p *fakePublisher) ProduceMessage(topic string, key []byte, value []byte) error {
	var evt kafka.OrderActivityEvent
	if err := json.Unmarshal(value, &evt); err != nil {
		return err
	}
	p.records = append(p.records, record{topic: topic, key: string(key), event: evt})
	return p.err
}

func session(roles ...string) *auth.Session {
	var claims auth.Claims
	claims.Subject = "user-1"
	claims.Roles = roles
	return auth.NewSession("token", claims)
}

func newOrder(id string, status Status, productIDs ...string) *Order {
	o := &Order{ID: id, Status: status, RawStatus: status.String(), PaymentMethod: "cod"}
	for _, p := range productIDs {
		o.Items = append(o.Items, Item{ProductID: p, Quantity: 1, Price: 10000})
	}
	return o
}

func newTestWorkflow(t *testing.T, svc *fakeService, pub Publisher) *Workflow {
	t.Helper()
	cache, err := querycache.New(32, 0)
	require.NoError(t, err)
	w, err := NewWorkflow(svc, cache, pub)
	require.NoError(t, err)
	return w
}

func TestCancelPendingOrder(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusPending, "p1"))
	pub := &fakePublisher{}
	w := newTestWorkflow(t, svc, pub)
	ctx := context.Background()
	sess := session()

	require.NoError(t, w.Cancel(ctx, sess, "o1"))
	assert.Equal(t, 1, svc.calls["cancel"])

	// status only changes through a refetch
	order, err := w.GetOrder(ctx, sess, "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, order.Status)
	assert.Equal(t, 2, svc.calls["get"])

	require.Len(t, pub.records, 1)
	assert.Equal(t, kafka.TopicOrderCancelled, pub.records[0].topic)
	assert.Equal(t, "o1", pub.records[0].key)
	assert.Equal(t, "user-1", pub.records[0].event.UserID)
	assert.Equal(t, "cancelled", pub.records[0].event.Status)
}

func TestCancelDeliveredRejectedLocally(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusDelivered, "p1"))
	w := newTestWorkflow(t, svc, nil)

	err := w.Cancel(context.Background(), session(), "o1")
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindPrecondition))
	assert.Equal(t, 0, svc.remoteCalls())
}

func TestCancelRemoteFailureNotRetried(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusPending, "p1"))
	svc.err = apperr.Remote("Failed to cancel order", errors.New("500"))
	pub := &fakePublisher{}
	w := newTestWorkflow(t, svc, pub)
	ctx := context.Background()

	err := w.Cancel(ctx, session(), "o1")
	require.Error(t, err)
	assert.Equal(t, "Failed to cancel order", apperr.UserMessage(err))
	assert.Equal(t, 1, svc.calls["cancel"])
	assert.Empty(t, pub.records)

	order, err := w.GetOrder(ctx, session(), "o1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, order.Status)
}

func TestCancelUnknownOrder(t *testing.T) {
	w := newTestWorkflow(t, newFakeService(), nil)

	err := w.Cancel(context.Background(), session(), "missing")
	assert.True(t, apperr.IsKind(err, apperr.KindNotFound))
}

func TestConfirmReceipt(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusDelivered, "p1"), newOrder("o2", StatusShipping, "p1"))
	w := newTestWorkflow(t, svc, nil)
	ctx := context.Background()

	require.NoError(t, w.ConfirmReceipt(ctx, session(), "o1"))
	assert.Equal(t, []Status{StatusCompleted}, svc.statuses)

	err := w.ConfirmReceipt(ctx, session(), "o2")
	assert.True(t, apperr.IsKind(err, apperr.KindPrecondition))
	assert.Equal(t, 1, svc.calls["status"])
}

func TestSubmitReviewsRequiresEveryItem(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusCompleted, "p1", "p2"))
	w := newTestWorkflow(t, svc, nil)

	err := w.SubmitReviews(context.Background(), session(), "o1", []Review{{ProductID: "p1", Rating: 5}})
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, ErrMsgReviewsRequired, apperr.UserMessage(err))
	assert.Equal(t, 0, svc.remoteCalls())
}

func TestSubmitReviewsValidation(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusCompleted, "p1", "p2"))
	w := newTestWorkflow(t, svc, nil)
	ctx := context.Background()

	tests := []struct {
		name    string
		reviews []Review
	}{
		{"zero rating", []Review{{ProductID: "p1", Rating: 0}, {ProductID: "p2", Rating: 4}}},
		{"rating above five", []Review{{ProductID: "p1", Rating: 6}, {ProductID: "p2", Rating: 4}}},
		{"duplicate product", []Review{{ProductID: "p1", Rating: 3}, {ProductID: "p1", Rating: 4}}},
		{"foreign product", []Review{{ProductID: "p1", Rating: 3}, {ProductID: "p2", Rating: 4}, {ProductID: "p9", Rating: 4}}},
		{"missing product id", []Review{{Rating: 3}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := w.SubmitReviews(ctx, session(), "o1", tt.reviews)
			assert.True(t, apperr.IsKind(err, apperr.KindValidation), "got %v", err)
		})
	}
	assert.Equal(t, 0, svc.remoteCalls())
}

func TestSubmitReviews(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusCompleted, "p1", "p2"))
	pub := &fakePublisher{}
	w := newTestWorkflow(t, svc, pub)
	reviews := []Review{{ProductID: "p1", Rating: 5, Comment: "Tốt"}, {ProductID: "p2", Rating: 3}}

	require.NoError(t, w.SubmitReviews(context.Background(), session(), "o1", reviews))
	assert.Equal(t, reviews, svc.reviews)
	require.Len(t, pub.records, 1)
	assert.Equal(t, 2, pub.records[0].event.Reviews)
}

func TestSubmitReviewsOrderWithRepeatedProduct(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusCompleted, "p1", "p1", "p2"))
	w := newTestWorkflow(t, svc, nil)
	reviews := []Review{{ProductID: "p1", Rating: 4}, {ProductID: "p2", Rating: 5}}

	require.NoError(t, w.SubmitReviews(context.Background(), session(), "o1", reviews))
	assert.Equal(t, 1, svc.calls["reviews"])
	assert.Equal(t, reviews, svc.reviews)
}

func TestSubmitReviewsNotCompleted(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusDelivered, "p1"))
	w := newTestWorkflow(t, svc, nil)

	err := w.SubmitReviews(context.Background(), session(), "o1", []Review{{ProductID: "p1", Rating: 5}})
	assert.True(t, apperr.IsKind(err, apperr.KindPrecondition))
	assert.Equal(t, 0, svc.remoteCalls())
}

func TestListOrdersCachedUntilMutation(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusPending, "p1"))
	w := newTestWorkflow(t, svc, nil)
	ctx := context.Background()
	sess := session()

	_, err := w.ListOrders(ctx, sess, Page{})
	require.NoError(t, err)
	list, err := w.ListOrders(ctx, sess, Page{Page: 1, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.Equal(t, 1, svc.calls["list"])

	require.NoError(t, w.Cancel(ctx, sess, "o1"))
	list, err = w.ListOrders(ctx, sess, Page{})
	require.NoError(t, err)
	assert.Equal(t, 2, svc.calls["list"])
	assert.Equal(t, StatusCancelled, list[0].Status)
}

func TestListOrdersAnonymous(t *testing.T) {
	svc := newFakeService()
	w := newTestWorkflow(t, svc, nil)

	_, err := w.ListOrders(context.Background(), nil, Page{})
	assert.True(t, apperr.IsKind(err, apperr.KindUnauthenticated))
	assert.Zero(t, svc.calls["list"])
}

func TestSetStatus(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusPending, "p1"))
	pub := &fakePublisher{}
	w := newTestWorkflow(t, svc, pub)
	ctx := context.Background()

	err := w.SetStatus(ctx, session(auth.RoleUser), "o1", StatusShipping)
	assert.True(t, apperr.IsKind(err, apperr.KindForbidden))

	err = w.SetStatus(ctx, session(auth.RoleAdmin), "o1", StatusUnknown)
	assert.True(t, apperr.IsKind(err, apperr.KindValidation))
	assert.Equal(t, 0, svc.remoteCalls())

	require.NoError(t, w.SetStatus(ctx, session(auth.RoleAdmin), "o1", StatusShipping))
	assert.Equal(t, []Status{StatusShipping}, svc.statuses)
	require.Len(t, pub.records, 1)
	assert.Equal(t, kafka.TopicOrderStatusChanged, pub.records[0].topic)
}

func TestPublishFailureDoesNotFailAction(t *testing.T) {
	svc := newFakeService(newOrder("o1", StatusPending, "p1"))
	w := newTestWorkflow(t, svc, &fakePublisher{err: errors.New("broker down")})

	assert.NoError(t, w.Cancel(context.Background(), session(), "o1"))
}

package storeapi

import (
	"context"
	"net/http"

	"storefront-service/internal/auth"
	"storefront-service/internal/orders"
)

func (c *Client) CreateReviews(ctx context.Context, sess *auth.Session, reviews []orders.Review) error {
	body := make([]wireReview, 0, len(reviews))
	for _, r := range reviews {
		body = append(body, wireReview{Product: r.ProductID, Rating: r.Rating, Comment: r.Comment, Images: r.Images})
	}
	return c.do(ctx, sess, request{method: http.MethodPost, path: "/reviews/bulk", body: body, failMsg: "Failed to submit reviews"}, nil)
}

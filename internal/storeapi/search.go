package storeapi

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"storefront-service/internal/search"
)

// Suggestions is anonymous; the search endpoint does not need a session.
func (c *Client) Suggestions(ctx context.Context, query string, limit int) ([]search.Suggestion, error) {
	q := url.Values{}
	q.Set("q", query)
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}

	var data []search.Suggestion
	err := c.do(ctx, nil, request{method: http.MethodGet, path: "/search/suggestions", query: q, failMsg: "Failed to fetch suggestions"}, &data)
	if err != nil {
		return nil, err
	}
	out := data[:0]
	for _, s := range data {
		if s.Text != "" {
			out = append(out, s)
		}
	}
	return out, nil
}

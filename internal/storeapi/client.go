// Package storeapi talks to the storefront REST backend. It is the only place that
// knows the backend's wire format; everything it returns is already canonicalized.
package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	consulapi "github.com/hashicorp/consul/api"

	"storefront-service/internal/apperr"
	"storefront-service/internal/auth"
	"storefront-service/internal/consul"
	"storefront-service/pkg/ctxmanage"
)

const maxResponseBytes = 1 << 20

type Config struct {
	// BaseURL pins the backend, e.g. "http://api.internal:5000/api". When empty the
	// address is looked up in consul under ServiceName on every call.
	BaseURL     string
	ServiceName string
	PathPrefix  string
	Timeout     time.Duration
}

type Client struct {
	http    *http.Client
	resolve func() (string, error)
}

func New(cfg Config, consulClient *consulapi.Client) (*Client, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	c := &Client{http: &http.Client{Timeout: timeout}}

	switch {
	case cfg.BaseURL != "":
		base := strings.TrimRight(cfg.BaseURL, "/")
		c.resolve = func() (string, error) { return base, nil }
	case cfg.ServiceName != "" && consulClient != nil:
		prefix := "/" + strings.Trim(cfg.PathPrefix, "/")
		if prefix == "/" {
			prefix = ""
		}
		c.resolve = func() (string, error) {
			address, port, err := consul.GetServiceAddress(consulClient, cfg.ServiceName)
			if err != nil {
				return "", err
			}
			return fmt.Sprintf("http://%s:%d%s", address, port, prefix), nil
		}
	default:
		return nil, fmt.Errorf("backend needs either a base url or a consul service name")
	}
	return c, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    any
	failMsg string
}

// do sends r and decodes the envelope's data into out. Backend answers are mapped onto
// the apperr taxonomy: 401/403 unauthenticated, 404 not found, anything else remote.
func (c *Client) do(ctx context.Context, sess *auth.Session, r request, out any) error {
	base, err := c.resolve()
	if err != nil {
		return apperr.Remote("Store service is unavailable", err)
	}
	target := base + r.path
	if len(r.query) > 0 {
		target += "?" + r.query.Encode()
	}

	var body io.Reader
	if r.body != nil {
		payload, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.method, target, body)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sess.Authenticated() {
		req.Header.Set("Authorization", "Bearer "+sess.Token)
	}
	req.Header.Set(ctxmanage.TraceIdHeader, ctxmanage.GetTraceId(ctx))

	resp, err := c.http.Do(req)
	if err != nil {
		return apperr.Remote(r.failMsg, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperr.Remote(r.failMsg, fmt.Errorf("reading response: %w", err))
	}

	var env envelope
	decodeErr := json.Unmarshal(raw, &env)
	message := r.failMsg
	if decodeErr == nil && env.Message != "" {
		message = env.Message
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return &apperr.Error{Kind: apperr.KindUnauthenticated, Message: message, Cause: statusError(resp)}
	case resp.StatusCode == http.StatusNotFound:
		return &apperr.Error{Kind: apperr.KindNotFound, Message: message, Cause: statusError(resp)}
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return apperr.Remote(message, statusError(resp))
	case decodeErr != nil:
		return apperr.Remote(r.failMsg, fmt.Errorf("decoding response: %w", decodeErr))
	case !env.Success:
		return apperr.Remote(message, fmt.Errorf("backend reported failure"))
	}

	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperr.Remote(r.failMsg, fmt.Errorf("decoding response data: %w", err))
	}
	return nil
}

func statusError(resp *http.Response) error {
	return fmt.Errorf("%s %s: %s", resp.Request.Method, resp.Request.URL.Path, resp.Status)
}

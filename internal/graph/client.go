// Package graph is the downstream consumer of a token provider: an HTTP
// client for the provider's base URL that authenticates every request with a
// freshly requested access token.
package graph

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/graphauth/internal/httpc"
	"github.com/tidwall/gjson"
)

// ErrNoToken is returned when the provider yields an empty token.
var ErrNoToken = errors.New("graph: provider returned an empty access token")

// TokenProvider is the part of a provider the client needs.
type TokenProvider interface {
	AccessToken(ctx context.Context) (string, error)
}

// APIError is a non-2xx response. Code and Message are read from the
// {"error":{"code","message"}} envelope when present.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code == "" && e.Message == "" {
		return fmt.Sprintf("graph: request failed with status %d", e.Status)
	}
	return fmt.Sprintf("graph: %d %s: %s", e.Status, e.Code, e.Message)
}

// Client sends authenticated requests to a base URL.
type Client struct {
	rc      *resty.Client
	baseURL string
}

// New builds a Client bound to p. A nil hc uses default client settings.
func New(p TokenProvider, baseURL string, hc *httpc.Httpc) *Client {
	rc := hc.New().
		SetBaseURL(strings.TrimRight(baseURL, "/")).
		SetHeader("Accept", "application/json")
	rc.OnBeforeRequest(func(_ *resty.Client, r *resty.Request) error {
		tok, err := p.AccessToken(r.Context())
		if err != nil {
			return err
		}
		if tok == "" {
			return ErrNoToken
		}
		r.SetAuthToken(tok)
		return nil
	})
	return &Client{rc: rc, baseURL: baseURL}
}

// BaseURL returns the base URL requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

// R starts an authenticated request bound to ctx.
func (c *Client) R(ctx context.Context) *resty.Request {
	return c.rc.R().SetContext(ctx)
}

// Get fetches path relative to the base URL and returns the raw body.
func (c *Client) Get(ctx context.Context, path string) ([]byte, error) {
	resp, err := c.R(ctx).Get(normalizePath(path))
	if err != nil {
		return nil, err
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		return nil, apiError(resp.StatusCode(), resp.Body())
	}
	return resp.Body(), nil
}

// GetJSON fetches path and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, path string, out any) error {
	body, err := c.Get(ctx, path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("graph: decode response: %w", err)
	}
	return nil
}

func normalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" || p[0] != '/' {
		return "/" + p
	}
	return p
}

func apiError(status int, body []byte) *APIError {
	e := &APIError{Status: status}
	if gjson.ValidBytes(body) {
		e.Code = gjson.GetBytes(body, "error.code").String()
		e.Message = gjson.GetBytes(body, "error.message").String()
	}
	return e
}

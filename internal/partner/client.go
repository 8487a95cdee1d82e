package partner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/cache"
	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/pkg/signature"
	"github.com/TemirB/esim-gateway/internal/transport"
)

const (
	slugToken        = "token"
	slugOrders       = "orders"
	slugAsyncOrders  = "future-orders"
	slugTopups       = "orders/topups"
	slugSims         = "sims"
	slugUsage        = "usage"
	slugInstructions = "instructions"
	slugDevices      = "compatible-devices"
	slugPackages     = "packages"
)

type Caller interface {
	Call(ctx context.Context, req transport.Request) (*transport.Response, error)
}

type Doer interface {
	Caller
	ExecBatch(ctx context.Context, b *transport.Batch) map[string]transport.Result
}

type TokenSource interface {
	GetAccessToken(ctx context.Context) (string, error)
}

// Client exposes the partner endpoints. Every call authenticates through TokenSource.
type Client struct {
	base    string
	doer    Doer
	tokens  TokenSource
	signer  *signature.Signer
	memo    *cache.Memo
	headers map[string]string
	logger  *zap.Logger
}

// NewClient builds a partner client. headers are the configured extra headers;
// they take part in read cache keys.
func NewClient(base string, doer Doer, tokens TokenSource, signer *signature.Signer, memo *cache.Memo, headers map[string]string, logger *zap.Logger) *Client {
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &Client{
		base:    base,
		doer:    doer,
		tokens:  tokens,
		signer:  signer,
		memo:    memo,
		headers: headers,
		logger:  logger,
	}
}

type Meta struct {
	CurrentPage int    `json:"current_page"`
	LastPage    int    `json:"last_page"`
	PerPage     int    `json:"per_page"`
	Total       int    `json:"total"`
	Message     string `json:"message,omitempty"`
}

type envelope[T any] struct {
	Data T     `json:"data"`
	Meta *Meta `json:"meta,omitempty"`
}

func decode[T any](op string, resp *transport.Response, want int) (envelope[T], error) {
	var env envelope[T]
	if resp.StatusCode != want {
		return env, &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Body: string(resp.Body)}
	}
	if err := json.Unmarshal(resp.Body, &env); err != nil {
		return env, &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Reason: fmt.Sprintf("invalid response body: %v", err)}
	}
	return env, nil
}

func (c *Client) url(parts ...string) string {
	return c.base + strings.Join(parts, "/")
}

func (c *Client) authHeaders(ctx context.Context, contentType string) (map[string]string, string, error) {
	token, err := c.tokens.GetAccessToken(ctx)
	if err != nil {
		return nil, "", err
	}
	h := map[string]string{
		"Accept":        "application/json",
		"Authorization": "Bearer " + token,
	}
	if contentType != "" {
		h["Content-Type"] = contentType
	}
	return h, token, nil
}

// signedPost prepares a POST whose signature covers exactly body.
func (c *Client) signedPost(name, url, contentType string, body []byte, auth map[string]string) transport.Request {
	h := make(map[string]string, len(auth)+2)
	for k, v := range auth {
		h[k] = v
	}
	h["Content-Type"] = contentType
	if sig := c.signer.Sign(body); sig != "" {
		h[signature.Header] = sig
	}
	return transport.Request{
		Name:   name,
		Method: http.MethodPost,
		URL:    url,
		Header: h,
		Body:   body,
	}
}

func (c *Client) cacheKey(url string, params any, token string) string {
	return cache.Key(url, params, c.headers, token)
}

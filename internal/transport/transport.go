package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/observability"
)

const (
	Version        = "1.0.0"
	SDKHeader      = "X-Partner-Sdk"
	DefaultTimeout = 60 * time.Second
)

type Breaker interface {
	Allow() error
	Success()
	Failure()
}

type Request struct {
	// Name labels the call in metrics and logs, e.g. "orders".
	Name    string
	Method  string
	URL     string
	Header  map[string]string
	Body    []byte
	Timeout time.Duration
}

type Response struct {
	StatusCode int
	// Status is the raw status line, "HTTP/1.1 200 OK".
	Status string
	Header http.Header
	Body   []byte
}

func (r *Response) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

type Options struct {
	Timeout      time.Duration
	BatchTimeout time.Duration
	Headers      map[string]string
	Limiter      *rate.Limiter
	Breaker      Breaker
	HTTPClient   *http.Client
}

type Client struct {
	rc      *resty.Client
	opts    Options
	logger  *zap.Logger
	metrics observability.Metrics
}

func New(opts Options, logger *zap.Logger, metrics observability.Metrics) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.BatchTimeout <= 0 {
		opts.BatchTimeout = 2 * opts.Timeout
	}

	rc := resty.New()
	if opts.HTTPClient != nil {
		rc = resty.NewWithClient(opts.HTTPClient)
	}

	return &Client{
		rc:      rc,
		opts:    opts,
		logger:  logger,
		metrics: metrics,
	}
}

// headers are rebuilt on every call: defaults, then configured, then per call.
func (c *Client) headers(req Request) http.Header {
	h := http.Header{}
	h.Set(SDKHeader, "esim-gateway/"+Version)
	for k, v := range c.opts.Headers {
		h.Set(k, v)
	}
	for k, v := range req.Header {
		h.Set(k, v)
	}
	return h
}

// Call performs one request. Non-2xx statuses come back as a Response;
// only connection level failures return an error, always a *domain.TransportError.
func (c *Client) Call(ctx context.Context, req Request) (*Response, error) {
	if req.Method == "" {
		req.Method = http.MethodGet
	}
	name := req.Name
	if name == "" {
		name = req.Method
	}

	// Limiter before breaker: every allowed breaker call must end in Success or Failure.
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx); err != nil {
			return nil, &domain.TransportError{Method: req.Method, URL: req.URL, Err: err}
		}
	}
	if c.opts.Breaker != nil {
		if err := c.opts.Breaker.Allow(); err != nil {
			return nil, &domain.TransportError{Method: req.Method, URL: req.URL, Err: err}
		}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.opts.Timeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	h := c.headers(req)
	t0 := time.Now()

	resp, err := c.do(ctx, req, h)
	if err == nil && resp.StatusCode == http.StatusExpectationFailed {
		h.Del("Expect")
		c.logger.Debug("Retrying without Expect header", zap.String("url", req.URL))
		resp, err = c.do(ctx, req, h)
	}

	durMs := float64(time.Since(t0).Microseconds()) / 1000.0
	if err != nil {
		c.reportBreaker(false)
		c.metrics.ObservePartnerCall(name, 0, durMs)
		c.logger.Warn("Partner call failed",
			zap.String("name", name),
			zap.String("method", req.Method),
			zap.String("url", req.URL),
			zap.Error(err),
		)
		return nil, &domain.TransportError{Method: req.Method, URL: req.URL, Err: err}
	}

	c.reportBreaker(resp.StatusCode < http.StatusInternalServerError)
	c.metrics.ObservePartnerCall(name, resp.StatusCode, durMs)
	c.logger.Debug("Partner call",
		zap.String("name", name),
		zap.String("method", req.Method),
		zap.String("url", req.URL),
		zap.Int("status", resp.StatusCode),
		zap.Float64("dur_ms", durMs),
	)
	return resp, nil
}

func (c *Client) do(ctx context.Context, req Request, h http.Header) (*Response, error) {
	r := c.rc.R().SetContext(ctx)
	for k := range h {
		r.SetHeader(k, h.Get(k))
	}
	if len(req.Body) > 0 {
		r.SetBody(req.Body)
	}

	res, err := r.Execute(req.Method, req.URL)
	if err != nil {
		return nil, err
	}
	if res.RawResponse == nil {
		return nil, errors.New("empty response")
	}

	line := res.RawResponse.Proto + " " + res.Status()
	code := res.StatusCode()
	if code == 0 {
		if code, err = ParseStatusCode(line); err != nil {
			return nil, err
		}
	}
	return &Response{
		StatusCode: code,
		Status:     line,
		Header:     res.Header(),
		Body:       res.Body(),
	}, nil
}

func (c *Client) reportBreaker(ok bool) {
	if c.opts.Breaker == nil {
		return
	}
	if ok {
		c.opts.Breaker.Success()
	} else {
		c.opts.Breaker.Failure()
	}
}

// ParseStatusCode extracts the code from a status line like "HTTP/1.1 404 Not Found".
func ParseStatusCode(statusLine string) (int, error) {
	fields := strings.Fields(statusLine)
	if len(fields) < 2 || !strings.HasPrefix(fields[0], "HTTP/") {
		return 0, fmt.Errorf("malformed status line %q", statusLine)
	}
	code, err := strconv.Atoi(fields[1])
	if err != nil || code < 100 || code > 999 {
		return 0, fmt.Errorf("malformed status code in %q", statusLine)
	}
	return code, nil
}

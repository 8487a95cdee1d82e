package partner

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/transport"
)

const (
	// OrderLimit caps the quantity of a single order line.
	OrderLimit = 50
	// BulkOrderLimit caps the number of packages in one bulk call.
	BulkOrderLimit = 50

	defaultBulkDescription = "Bulk order placed via esim-gateway"
)

type OrderRequest struct {
	PackageID   string `json:"package_id"`
	Quantity    int    `json:"quantity"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	WebhookURL  string `json:"webhook_url,omitempty"`
}

func (r OrderRequest) Validate() error {
	if strings.TrimSpace(r.PackageID) == "" {
		return &domain.ValidationError{Field: "package_id", Reason: "is required"}
	}
	if r.Quantity < 1 {
		return &domain.ValidationError{Field: "quantity", Reason: "must be at least 1"}
	}
	if r.Quantity > OrderLimit {
		return &domain.ValidationError{Field: "quantity", Reason: fmt.Sprintf("may not be greater than %d", OrderLimit)}
	}
	return nil
}

type TopupRequest struct {
	PackageID   string
	ICCID       string
	Description string
}

func (r TopupRequest) Validate() error {
	if strings.TrimSpace(r.PackageID) == "" {
		return &domain.ValidationError{Field: "package_id", Reason: "is required"}
	}
	if strings.TrimSpace(r.ICCID) == "" {
		return &domain.ValidationError{Field: "iccid", Reason: "is required"}
	}
	return nil
}

// BulkResult is the outcome for one package of a bulk order.
type BulkResult struct {
	Order *domain.Order
	Async *domain.AsyncOrder
	Err   error
}

// ValidateBulk checks a package -> quantity map before anything is sent.
func ValidateBulk(items map[string]int) error {
	if len(items) == 0 {
		return &domain.ValidationError{Field: "packages", Reason: "at least one package is required"}
	}
	if len(items) > BulkOrderLimit {
		return &domain.ValidationError{Field: "packages", Reason: fmt.Sprintf("the packages count may not be greater than %d", BulkOrderLimit)}
	}
	for pkg, qty := range items {
		if err := (OrderRequest{PackageID: pkg, Quantity: qty}).Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (c *Client) CreateOrder(ctx context.Context, req OrderRequest) (*domain.Order, error) {
	if req.Type == "" {
		req.Type = string(domain.IntentSim)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	auth, _, err := c.authHeaders(ctx, "")
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.doer.Call(ctx, c.signedPost(slugOrders, c.url(slugOrders), "application/json", body, auth))
	if err != nil {
		return nil, err
	}
	return decodeOrder("order creation", resp)
}

func (c *Client) CreateOrderAsync(ctx context.Context, req OrderRequest) (*domain.AsyncOrder, error) {
	if req.Type == "" {
		req.Type = string(domain.IntentSim)
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	auth, _, err := c.authHeaders(ctx, "")
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}

	resp, err := c.doer.Call(ctx, c.signedPost(slugAsyncOrders, c.url(slugAsyncOrders), "application/json", body, auth))
	if err != nil {
		return nil, err
	}
	return decodeAsync("async order creation", resp)
}

// CreateTopup posts a form encoded top-up for an existing eSIM.
func (c *Client) CreateTopup(ctx context.Context, req TopupRequest) (*domain.Order, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	auth, _, err := c.authHeaders(ctx, "")
	if err != nil {
		return nil, err
	}

	form := url.Values{}
	form.Set("package_id", req.PackageID)
	form.Set("iccid", req.ICCID)
	if req.Description != "" {
		form.Set("description", req.Description)
	}
	body := []byte(form.Encode())

	resp, err := c.doer.Call(ctx, c.signedPost("topups", c.url(slugTopups), "application/x-www-form-urlencoded", body, auth))
	if err != nil {
		return nil, err
	}
	return decodeOrder("topup creation", resp)
}

func (c *Client) GetOrder(ctx context.Context, id int64, include ...string) (*domain.Order, error) {
	auth, _, err := c.authHeaders(ctx, "")
	if err != nil {
		return nil, err
	}
	u := c.url(slugOrders, strconv.FormatInt(id, 10))
	if len(include) > 0 {
		u += "?" + url.Values{"include": {strings.Join(include, ",")}}.Encode()
	}

	resp, err := c.doer.Call(ctx, transport.Request{Name: "order", Method: http.MethodGet, URL: u, Header: auth})
	if err != nil {
		return nil, err
	}
	env, err := decode[domain.Order]("order retrieval", resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

type OrderFilter struct {
	Include     []string
	CreatedAt   string
	Code        string
	OrderStatus string
	ICCID       string
	Description string
	Limit       int
	Page        int
}

func (f OrderFilter) query() url.Values {
	q := url.Values{}
	if len(f.Include) > 0 {
		q.Set("include", strings.Join(f.Include, ","))
	}
	set := func(k, v string) {
		if v != "" {
			q.Set(k, v)
		}
	}
	set("filter[created_at]", f.CreatedAt)
	set("filter[code]", f.Code)
	set("filter[order_status]", f.OrderStatus)
	set("filter[iccid]", f.ICCID)
	set("filter[description]", f.Description)
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	if f.Page > 0 {
		q.Set("page", strconv.Itoa(f.Page))
	}
	return q
}

func (c *Client) ListOrders(ctx context.Context, f OrderFilter) ([]domain.Order, *Meta, error) {
	auth, _, err := c.authHeaders(ctx, "")
	if err != nil {
		return nil, nil, err
	}
	u := c.url(slugOrders)
	if q := f.query(); len(q) > 0 {
		u += "?" + q.Encode()
	}

	resp, err := c.doer.Call(ctx, transport.Request{Name: "orders_list", Method: http.MethodGet, URL: u, Header: auth})
	if err != nil {
		return nil, nil, err
	}
	env, err := decode[[]domain.Order]("order list retrieval", resp, http.StatusOK)
	if err != nil {
		return nil, nil, err
	}
	return env.Data, env.Meta, nil
}

// CreateOrderBulk places one order per package concurrently, keyed by package id.
func (c *Client) CreateOrderBulk(ctx context.Context, items map[string]int, description string) (map[string]BulkResult, error) {
	return c.bulk(ctx, items, slugOrders, "", description)
}

// CreateOrderAsyncBulk is CreateOrderBulk against the asynchronous endpoint;
// the partner reports completion to webhookURL.
func (c *Client) CreateOrderAsyncBulk(ctx context.Context, items map[string]int, webhookURL, description string) (map[string]BulkResult, error) {
	return c.bulk(ctx, items, slugAsyncOrders, webhookURL, description)
}

func (c *Client) bulk(ctx context.Context, items map[string]int, slug, webhookURL, description string) (map[string]BulkResult, error) {
	if err := ValidateBulk(items); err != nil {
		return nil, err
	}
	if description == "" {
		description = defaultBulkDescription
	}
	auth, _, err := c.authHeaders(ctx, "")
	if err != nil {
		return nil, err
	}

	batch := transport.NewBatch()
	for pkg, qty := range items {
		body, err := json.Marshal(OrderRequest{
			PackageID:   pkg,
			Quantity:    qty,
			Type:        string(domain.IntentSim),
			Description: description,
			WebhookURL:  webhookURL,
		})
		if err != nil {
			return nil, err
		}
		if err := batch.Add(pkg, c.signedPost(slug, c.url(slug), "application/json", body, auth)); err != nil {
			return nil, err
		}
	}

	out := make(map[string]BulkResult, len(items))
	for pkg, res := range c.doer.ExecBatch(ctx, batch) {
		if res.Err != nil {
			out[pkg] = BulkResult{Err: res.Err}
			continue
		}
		if slug == slugAsyncOrders {
			a, err := decodeAsync("async order creation", res.Response)
			out[pkg] = BulkResult{Async: a, Err: err}
			continue
		}
		o, err := decodeOrder("order creation", res.Response)
		out[pkg] = BulkResult{Order: o, Err: err}
	}

	failed := 0
	for _, r := range out {
		if r.Err != nil {
			failed++
		}
	}
	c.logger.Info("Bulk order placed",
		zap.String("endpoint", slug),
		zap.Int("packages", len(items)),
		zap.Int("failed", failed),
	)
	return out, nil
}

func decodeOrder(op string, resp *transport.Response) (*domain.Order, error) {
	env, err := decode[domain.Order](op, resp, http.StatusOK)
	if err != nil {
		return nil, err
	}
	if env.Data.ID == 0 {
		return nil, &domain.UpstreamError{Op: op, StatusCode: resp.StatusCode, Reason: "invalid order response structure"}
	}
	return &env.Data, nil
}

func decodeAsync(op string, resp *transport.Response) (*domain.AsyncOrder, error) {
	env, err := decode[domain.AsyncOrder](op, resp, http.StatusAccepted)
	if err != nil {
		return nil, err
	}
	return &env.Data, nil
}

package partner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/pkg/signature"
)

type staticToken string

func (s staticToken) GetAccessToken(context.Context) (string, error) { return string(s), nil }

type failingToken struct{ err error }

func (f failingToken) GetAccessToken(context.Context) (string, error) { return "", f.err }

// fakePartner records requests per path and answers from a route table.
type fakePartner struct {
	t      *testing.T
	mu     sync.Mutex
	hits   map[string]int
	bodies map[string][]byte
	routes map[string]http.HandlerFunc
}

func newFakePartner(t *testing.T) (*fakePartner, *httptest.Server) {
	f := &fakePartner{t: t, hits: map[string]int{}, bodies: map[string][]byte{}, routes: map[string]http.HandlerFunc{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		path := strings.TrimPrefix(r.URL.Path, "/v2/")

		f.mu.Lock()
		f.hits[path]++
		f.bodies[path] = body
		h, ok := f.routes[path]
		f.mu.Unlock()

		assert.Equal(t, "Bearer tkn", r.Header.Get("Authorization"))
		if r.Method == http.MethodPost {
			assert.Equal(t, signature.New("secret").Sign(body), r.Header.Get(signature.Header), "signature must cover the wire body")
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		r.Body = io.NopCloser(strings.NewReader(string(body)))
		h(w, r)
	}))
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakePartner) handle(path string, h http.HandlerFunc) {
	f.mu.Lock()
	f.routes[path] = h
	f.mu.Unlock()
}

func (f *fakePartner) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hits[path]
}

func reply(status int, payload string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}
}

func newTestPartnerClient(t *testing.T, srv *httptest.Server) *Client {
	return NewClient(srv.URL+"/v2", newTransport(), staticToken("tkn"), signature.New("secret"), newMemo(t),
		map[string]string{"Accept": "application/json"}, zap.NewNop())
}

const orderPayload = `{"data":{"id":9666,"code":"20240101-009666","package_id":"US-7days-1GB","quantity":1,"type":"sim",
"description":"42","price":4.5,"currency":"USD","sims":[{"id":1,"iccid":"8944465400000267221","lpa":"lpa.airalo.com","matching_id":"TEST"}]}}`

func TestCreateOrder(t *testing.T) {
	f, srv := newFakePartner(t)
	f.handle("orders", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		var req OrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, OrderRequest{PackageID: "US-7days-1GB", Quantity: 1, Type: "sim", Description: "42"}, req)
		_, _ = w.Write([]byte(orderPayload))
	})
	c := newTestPartnerClient(t, srv)

	order, err := c.CreateOrder(context.Background(), OrderRequest{PackageID: "US-7days-1GB", Quantity: 1, Description: "42"})
	require.NoError(t, err)
	require.Equal(t, int64(9666), order.ID)
	require.Equal(t, "8944465400000267221", order.Sims[0].ICCID)
	require.True(t, decimal.RequireFromString("4.5").Equal(order.Price))
}

func TestCreateOrderErrors(t *testing.T) {
	testCases := []struct {
		name    string
		req     OrderRequest
		route   http.HandlerFunc
		check   func(t *testing.T, err error)
		wantHit int
	}{
		{
			name: "missing package",
			req:  OrderRequest{Quantity: 1},
			check: func(t *testing.T, err error) {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
				require.Equal(t, "package_id", verr.Field)
			},
		},
		{
			name: "quantity over limit",
			req:  OrderRequest{PackageID: "p", Quantity: OrderLimit + 1},
			check: func(t *testing.T, err error) {
				var verr *domain.ValidationError
				require.ErrorAs(t, err, &verr)
			},
		},
		{
			name:  "non success status",
			req:   OrderRequest{PackageID: "p", Quantity: 1},
			route: reply(http.StatusUnprocessableEntity, `{"message":"insufficient balance"}`),
			check: func(t *testing.T, err error) {
				var uerr *domain.UpstreamError
				require.ErrorAs(t, err, &uerr)
				require.Equal(t, http.StatusUnprocessableEntity, uerr.StatusCode)
				require.Contains(t, uerr.Error(), "insufficient balance")
			},
			wantHit: 1,
		},
		{
			name:  "missing order id",
			req:   OrderRequest{PackageID: "p", Quantity: 1},
			route: reply(http.StatusOK, `{"data":{"code":"x"}}`),
			check: func(t *testing.T, err error) {
				var uerr *domain.UpstreamError
				require.ErrorAs(t, err, &uerr)
				require.Equal(t, "invalid order response structure", uerr.Reason)
			},
			wantHit: 1,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, srv := newFakePartner(t)
			if tc.route != nil {
				f.handle("orders", tc.route)
			}
			c := newTestPartnerClient(t, srv)

			order, err := c.CreateOrder(context.Background(), tc.req)
			require.Nil(t, order)
			tc.check(t, err)
			require.Equal(t, tc.wantHit, f.count("orders"))
		})
	}
}

func TestCreateOrderAuthFailure(t *testing.T) {
	_, srv := newFakePartner(t)
	authErr := &domain.AuthError{Attempts: 2, Err: fmt.Errorf("down")}
	c := NewClient(srv.URL, newTransport(), failingToken{err: authErr}, signature.New("secret"), newMemo(t), nil, zap.NewNop())

	_, err := c.CreateOrder(context.Background(), OrderRequest{PackageID: "p", Quantity: 1})
	require.ErrorIs(t, err, authErr)
}

func TestCreateOrderAsync(t *testing.T) {
	f, srv := newFakePartner(t)
	f.handle("future-orders", func(w http.ResponseWriter, r *http.Request) {
		var req OrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://hooks.example/esim", req.WebhookURL)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"data":{"request_id":"req-1","accepted_at":"2024-01-01 10:00"}}`))
	})
	c := newTestPartnerClient(t, srv)

	ack, err := c.CreateOrderAsync(context.Background(), OrderRequest{PackageID: "p", Quantity: 2, WebhookURL: "https://hooks.example/esim"})
	require.NoError(t, err)
	require.Equal(t, "req-1", ack.RequestID)
}

func TestCreateTopup(t *testing.T) {
	f, srv := newFakePartner(t)
	f.handle("orders/topups", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "US-topup-1GB", r.PostForm.Get("package_id"))
		assert.Equal(t, "8944465400000267221", r.PostForm.Get("iccid"))
		_, _ = w.Write([]byte(`{"data":{"id":77,"code":"T-77","package_id":"US-topup-1GB","quantity":1,"type":"topup"}}`))
	})
	c := newTestPartnerClient(t, srv)

	order, err := c.CreateTopup(context.Background(), TopupRequest{PackageID: "US-topup-1GB", ICCID: "8944465400000267221"})
	require.NoError(t, err)
	require.Equal(t, int64(77), order.ID)
	require.Equal(t, "T-77", order.Code)

	_, err = c.CreateTopup(context.Background(), TopupRequest{PackageID: "US-topup-1GB"})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 1, f.count("orders/topups"))
}

func TestGetAndListOrders(t *testing.T) {
	f, srv := newFakePartner(t)
	f.handle("orders/9666", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "sims,user", r.URL.Query().Get("include"))
		_, _ = w.Write([]byte(orderPayload))
	})
	f.handle("orders", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "8944465400000267221", q.Get("filter[iccid]"))
		assert.Equal(t, "2", q.Get("page"))
		_, _ = w.Write([]byte(`{"data":[{"id":1},{"id":2}],"meta":{"current_page":2,"last_page":3}}`))
	})
	c := newTestPartnerClient(t, srv)

	order, err := c.GetOrder(context.Background(), 9666, "sims", "user")
	require.NoError(t, err)
	require.Equal(t, "US-7days-1GB", order.PackageID)

	orders, meta, err := c.ListOrders(context.Background(), OrderFilter{ICCID: "8944465400000267221", Page: 2})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	require.Equal(t, 3, meta.LastPage)
}

func TestValidateBulk(t *testing.T) {
	tooMany := map[string]int{}
	for i := 0; i <= BulkOrderLimit; i++ {
		tooMany[fmt.Sprintf("pkg-%d", i)] = 1
	}

	testCases := []struct {
		name    string
		items   map[string]int
		wantErr bool
	}{
		{name: "ok", items: map[string]int{"a": 1, "b": OrderLimit}},
		{name: "empty", items: map[string]int{}, wantErr: true},
		{name: "too many packages", items: tooMany, wantErr: true},
		{name: "zero quantity", items: map[string]int{"a": 0}, wantErr: true},
		{name: "quantity over limit", items: map[string]int{"a": OrderLimit + 1}, wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateBulk(tc.items)
			if !tc.wantErr {
				require.NoError(t, err)
				return
			}
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestCreateOrderBulk(t *testing.T) {
	f, srv := newFakePartner(t)
	f.handle("orders", func(w http.ResponseWriter, r *http.Request) {
		var req OrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, defaultBulkDescription, req.Description)
		if req.PackageID == "broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprintf(w, `{"data":{"id":%d,"package_id":%q,"quantity":%d}}`, req.Quantity*100, req.PackageID, req.Quantity)
	})
	c := newTestPartnerClient(t, srv)

	res, err := c.CreateOrderBulk(context.Background(), map[string]int{"a": 1, "b": 2, "broken": 1}, "")
	require.NoError(t, err)
	require.Len(t, res, 3)

	require.NoError(t, res["a"].Err)
	require.Equal(t, 1, res["a"].Order.Quantity)
	require.NoError(t, res["b"].Err)
	require.Equal(t, int64(200), res["b"].Order.ID)

	var uerr *domain.UpstreamError
	require.ErrorAs(t, res["broken"].Err, &uerr)
	require.Equal(t, http.StatusInternalServerError, uerr.StatusCode)
}

func TestCreateOrderBulkValidatesFirst(t *testing.T) {
	f, srv := newFakePartner(t)
	c := newTestPartnerClient(t, srv)

	_, err := c.CreateOrderBulk(context.Background(), map[string]int{"a": 1, "b": 0}, "")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Equal(t, 0, f.count("orders"))
}

func TestCreateOrderAsyncBulk(t *testing.T) {
	f, srv := newFakePartner(t)
	f.handle("future-orders", func(w http.ResponseWriter, r *http.Request) {
		var req OrderRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "https://hooks.example", req.WebhookURL)
		assert.Equal(t, "resellers", req.Description)
		w.WriteHeader(http.StatusAccepted)
		fmt.Fprintf(w, `{"data":{"request_id":"req-%s"}}`, req.PackageID)
	})
	c := newTestPartnerClient(t, srv)

	res, err := c.CreateOrderAsyncBulk(context.Background(), map[string]int{"x": 3, "y": 4}, "https://hooks.example", "resellers")
	require.NoError(t, err)
	require.Equal(t, "req-x", res["x"].Async.RequestID)
	require.Equal(t, "req-y", res["y"].Async.RequestID)
}

func TestDecodeRejectsUnexpectedStatus(t *testing.T) {
	_, srv := newFakePartner(t)
	c := newTestPartnerClient(t, srv)

	_, err := c.GetOrder(context.Background(), 1)
	var uerr *domain.UpstreamError
	require.ErrorAs(t, err, &uerr)
	require.Equal(t, http.StatusNotFound, uerr.StatusCode)
}

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/application/handler"
	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/observability"
	"github.com/TemirB/esim-gateway/internal/partner"
	"github.com/TemirB/esim-gateway/internal/pkg/signature"
)

//go:generate mockgen -source=httpapi.go -destination=httpapi_mock_test.go -package=httpapi

const maxBody = 1 << 20

type Intents interface {
	CreateOrGetIntent(ctx context.Context, accountID int64, packageID string, params domain.IntentParams, status domain.IntentStatus) (domain.OrderIntent, error)
	Start(ctx context.Context, intentID, accountID int64) (domain.OrderIntent, error)
	ResolveIntent(ctx context.Context, intentID int64, expected domain.IntentStatus, accountID int64) (domain.ResolvedIntent, error)
}

type Payments interface {
	Process(ctx context.Context, ev handler.PaymentEvent) (*domain.Order, error)
}

type Cache interface {
	Flush(ctx context.Context) error
}

type Catalog interface {
	SyncCatalog(ctx context.Context, q partner.PackageQuery) (int, error)
}

// Deps are the collaborators of the server. Verifier and Metrics are optional:
// without a verifier callbacks are accepted unsigned, without a metrics handler
// /metrics is not mounted.
type Deps struct {
	Intents  Intents
	Payments Payments
	Cache    Cache
	Catalog  Catalog
	Verifier *signature.Signer
	Metrics  http.Handler
}

type Server struct {
	deps    Deps
	router  chi.Router
	logger  *zap.Logger
	metrics observability.Metrics
}

func New(deps Deps, logger *zap.Logger, metrics observability.Metrics) *Server {
	s := &Server{
		deps:    deps,
		router:  chi.NewRouter(),
		logger:  logger,
		metrics: metrics,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(ServerTimingApp(s.metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	if s.deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.deps.Metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Post("/intents", s.createIntent)
		r.Post("/intents/{id}/start", s.startIntent)
		r.Get("/intents/{id}/quote", s.quote)
		r.Post("/callbacks/payments", s.paymentCallback)
		r.Post("/admin/cache/flush", s.flushCache)
		r.Post("/admin/catalog/sync", s.syncCatalog)
	})
}

type createIntentRequest struct {
	AccountID int64  `json:"account_id"`
	PackageID string `json:"package_id"`
	ICCID     string `json:"iccid"`
	Status    string `json:"status"`
}

func (s *Server) createIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.AccountID <= 0 {
		http.Error(w, "account_id is required", http.StatusBadRequest)
		return
	}
	status := domain.StatusInitiated
	if req.Status != "" {
		status = domain.IntentStatus(req.Status)
	}

	start := time.Now()
	in, err := s.deps.Intents.CreateOrGetIntent(r.Context(), req.AccountID, req.PackageID, domain.IntentParams{ICCID: req.ICCID}, status)
	if err != nil {
		s.writeError(w, err)
		return
	}
	observability.WriteTiming(w, observability.Phase{Name: "intent", Ms: ms(start), Desc: string(in.Status)})
	writeJSON(w, http.StatusOK, in)
}

type startIntentRequest struct {
	AccountID int64 `json:"account_id"`
}

func (s *Server) startIntent(w http.ResponseWriter, r *http.Request) {
	id, ok := intentID(w, r)
	if !ok {
		return
	}
	var req startIntentRequest
	if !s.decode(w, r, &req) {
		return
	}

	in, err := s.deps.Intents.Start(r.Context(), id, req.AccountID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// quote prices the intent for the account. The first quote fixes the price.
func (s *Server) quote(w http.ResponseWriter, r *http.Request) {
	id, ok := intentID(w, r)
	if !ok {
		return
	}
	accountID, err := strconv.ParseInt(r.URL.Query().Get("account_id"), 10, 64)
	if err != nil || accountID <= 0 {
		http.Error(w, "account_id is required", http.StatusBadRequest)
		return
	}
	expected := domain.StatusInitiated
	if st := r.URL.Query().Get("status"); st != "" {
		expected = domain.IntentStatus(st)
	}
	if !expected.Active() {
		http.Error(w, "status must be initiated or started", http.StatusBadRequest)
		return
	}

	resolved, err := s.deps.Intents.ResolveIntent(r.Context(), id, expected, accountID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resolved)
}

func (s *Server) paymentCallback(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		http.Error(w, "cannot read body", http.StatusBadRequest)
		return
	}
	if s.deps.Verifier != nil && !s.deps.Verifier.Verify(body, r.Header.Get(signature.Header)) {
		s.logger.Warn("Rejected payment callback with bad signature",
			zap.String("remote", r.RemoteAddr),
		)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
		return
	}

	var ev handler.PaymentEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		s.logger.Error("Error while decoding JSON", zap.Error(err))
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	start := time.Now()
	order, err := s.deps.Payments.Process(r.Context(), ev)
	if handler.AlreadyProcessed(err) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "already processed"})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	took := ms(start)
	fulfil := observability.Phase{Name: "fulfil", Ms: took}
	if order.Caution != "" {
		fulfil.Desc = "caution"
		w.Header().Set("X-Caution", "bookkeeping")
	}
	observability.WriteTiming(w, fulfil)
	observability.SetMillis(w, "X-Fulfil-Time", took)
	writeJSON(w, http.StatusOK, order)
}

func (s *Server) flushCache(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Cache.Flush(r.Context()); err != nil {
		s.logger.Error("Cache flush failed", zap.Error(err))
		http.Error(w, "cache flush failed", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// syncCatalog accepts an optional JSON query; an empty body syncs the whole catalog.
func (s *Server) syncCatalog(w http.ResponseWriter, r *http.Request) {
	var q partner.PackageQuery
	if r.ContentLength != 0 && !s.decode(w, r, &q) {
		return
	}
	n, err := s.deps.Catalog.SyncCatalog(r.Context(), q)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"synced": n})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	ct := r.Header.Get("Content-Type")
	if !strings.HasPrefix(strings.ToLower(ct), "application/json") {
		http.Error(w, "Content-Type must be application/json", http.StatusUnsupportedMediaType)
		return false
	}
	decoder := json.NewDecoder(io.LimitReader(r.Body, maxBody))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(v); err != nil {
		s.logger.Error("Error while decoding JSON", zap.Error(err))
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

func intentID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid intent id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// StatusOf maps a domain error to the HTTP status returned to callers.
func StatusOf(err error) int {
	var (
		verr *domain.ValidationError
		derr *domain.DuplicateOrderError
		serr *domain.StateError
		aerr *domain.AuthError
		uerr *domain.UpstreamError
		terr *domain.TransportError
		perr *domain.PersistenceError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.As(err, &derr), errors.As(err, &serr):
		return http.StatusConflict
	case errors.As(err, &aerr), errors.As(err, &uerr), errors.As(err, &terr):
		return http.StatusBadGateway
	case errors.As(err, &perr):
		return http.StatusInternalServerError
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}

func ms(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}

func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	err := srv.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Handler() http.Handler { return s.router }

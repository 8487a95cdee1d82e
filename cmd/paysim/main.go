package main

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/application/handler"
	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/logger"
)

// Simulator plays a payment gateway: it opens intents on the gateway, starts
// and prices them, then publishes the confirmed payment to the payments topic.
type Simulator struct {
	writer    *kafka.Writer
	gateway   *resty.Client
	accounts  []int64
	packageID string
	log       *zap.Logger

	mu        sync.Mutex
	isRunning atomic.Bool
	wg        sync.WaitGroup
	cancel    context.CancelFunc
	totalSent atomic.Int64
	failed    atomic.Int64
	startedAt time.Time
}

type SimRequest struct {
	Rate     int    `json:"rate"`
	Duration string `json:"duration"`
}

type SimStats struct {
	IsRunning bool    `json:"is_running"`
	TotalSent int64   `json:"total_sent"`
	Failed    int64   `json:"failed"`
	Rate      float64 `json:"rate"`
}

func NewSimulator(brokers []string, topic, gatewayURL string, accounts []int64, packageID string, log *zap.Logger) *Simulator {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		BatchSize:    100,
	}

	return &Simulator{
		writer:    writer,
		gateway:   resty.New().SetBaseURL(strings.TrimSuffix(gatewayURL, "/")).SetTimeout(30 * time.Second),
		accounts:  accounts,
		packageID: packageID,
		log:       log,
		startedAt: time.Now(),
	}
}

func (s *Simulator) Start(rate int, duration time.Duration) {
	if !s.isRunning.CompareAndSwap(false, true) {
		return
	}
	s.totalSent.Store(0)
	s.failed.Store(0)
	s.startedAt = time.Now()

	ctx, cancel := context.WithCancel(context.Background())
	s.mu.Lock()
	s.cancel = cancel
	s.mu.Unlock()

	s.log.Info("Starting payment simulation", zap.Int("rate", rate), zap.Duration("duration", duration))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.isRunning.Store(false)

		ticker := time.NewTicker(time.Second / time.Duration(rate))
		defer ticker.Stop()

		timer := time.NewTimer(duration)
		defer timer.Stop()

		for {
			select {
			case <-ticker.C:
				if err := s.payOnce(ctx); err != nil {
					s.failed.Add(1)
					s.log.Warn("Payment not sent", zap.Error(err))
					continue
				}
				s.totalSent.Add(1)

			case <-timer.C:
				s.log.Info("Simulation completed", zap.Int64("total_sent", s.totalSent.Load()))
				return

			case <-ctx.Done():
				s.log.Info("Simulation stopped", zap.Int64("total_sent", s.totalSent.Load()))
				return
			}
		}
	}()
}

// payOnce walks one intent through create, start and quote, then publishes its payment.
func (s *Simulator) payOnce(ctx context.Context) error {
	accountID := s.accounts[rand.Intn(len(s.accounts))]

	var in domain.OrderIntent
	if err := s.post(ctx, "/v1/intents", map[string]any{"account_id": accountID, "package_id": s.packageID}, &in); err != nil {
		return err
	}
	if in.Status == domain.StatusInitiated {
		if err := s.post(ctx, fmt.Sprintf("/v1/intents/%d/start", in.ID), map[string]any{"account_id": accountID}, &in); err != nil {
			return err
		}
	}

	var quote domain.ResolvedIntent
	resp, err := s.gateway.R().
		SetContext(ctx).
		SetQueryParam("account_id", strconv.FormatInt(accountID, 10)).
		SetQueryParam("status", string(domain.StatusStarted)).
		SetResult(&quote).
		Get(fmt.Sprintf("/v1/intents/%d/quote", in.ID))
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("quote intent %d: %s: %s", in.ID, resp.Status(), resp.String())
	}

	ev := handler.PaymentEvent{
		IntentID: in.ID,
		Payment: domain.Payment{
			AccountID:        accountID,
			Amount:           quote.Price.Price,
			TransactionToken: uuid.NewString(),
			Type:             in.Type,
		},
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(strconv.FormatInt(in.ID, 10)),
		Value: value,
		Time:  time.Now(),
	})
}

func (s *Simulator) post(ctx context.Context, path string, body, out any) error {
	resp, err := s.gateway.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		SetResult(out).
		Post(path)
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("%s: %s: %s", path, resp.Status(), resp.String())
	}
	return nil
}

func (s *Simulator) Stop() {
	s.mu.Lock()
	cancel := s.cancel
	s.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Simulator) Stats() SimStats {
	st := SimStats{
		IsRunning: s.isRunning.Load(),
		TotalSent: s.totalSent.Load(),
		Failed:    s.failed.Load(),
	}
	if secs := time.Since(s.startedAt).Seconds(); secs > 0 {
		st.Rate = float64(st.TotalSent) / secs
	}
	return st
}

func (s *Simulator) Close() {
	s.Stop()
	_ = s.writer.Close()
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func parseAccounts(raw string) []int64 {
	var out []int64
	for _, p := range strings.Split(raw, ",") {
		if id, err := strconv.ParseInt(strings.TrimSpace(p), 10, 64); err == nil && id > 0 {
			out = append(out, id)
		}
	}
	return out
}

func env(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func main() {
	_ = godotenv.Load("env/.env")
	log := logger.Must(env("LOG_LEVEL", "info"), env("LOG_DEVELOPMENT", "false") == "true")
	defer func() { _ = log.Sync() }()

	accounts := parseAccounts(env("PAYSIM_ACCOUNTS", "1"))
	if len(accounts) == 0 {
		log.Fatal("PAYSIM_ACCOUNTS has no valid account ids")
	}

	sim := NewSimulator(
		strings.Split(env("KAFKA_BROKERS", "kafka:9092"), ","),
		env("KAFKA_PAYMENTS_TOPIC", "esim.payments"),
		env("GATEWAY_URL", "http://gateway:8081"),
		accounts,
		env("PAYSIM_PACKAGE", "change-7days-1gb"),
		log,
	)
	defer sim.Close()

	r := chi.NewRouter()
	r.Post("/start", func(w http.ResponseWriter, r *http.Request) {
		var req SimRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid JSON", http.StatusBadRequest)
			return
		}
		if req.Rate <= 0 {
			req.Rate = 1
		}
		duration, err := time.ParseDuration(req.Duration)
		if err != nil {
			http.Error(w, "Invalid duration format: "+err.Error(), http.StatusBadRequest)
			return
		}

		sim.Start(req.Rate, duration)
		writeJSON(w, map[string]any{
			"status":   "started",
			"rate":     req.Rate,
			"duration": duration.String(),
		})
	})
	r.Post("/stop", func(w http.ResponseWriter, _ *http.Request) {
		sim.Stop()
		writeJSON(w, sim.Stats())
	})
	r.Get("/stats", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, sim.Stats())
	})

	addr := ":" + env("PAYSIM_PORT", "8082")
	log.Info("Payment simulator started", zap.String("addr", addr), zap.Strings("endpoints", []string{"POST /start", "POST /stop", "GET /stats"}))
	srv := &http.Server{Addr: addr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
	if err := srv.ListenAndServe(); err != nil {
		log.Fatal("listen", zap.Error(err))
	}
}

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/config"
	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/observability"
	"github.com/TemirB/esim-gateway/internal/pkg/retry"
)

//go:generate mockgen -source=handler.go -destination=handler_mock_test.go -package=handler

var (
	ErrFulfill     = errors.New("fulfilment failed")
	ErrCircuitOpen = errors.New("circuit breaker open")
)

type Service interface {
	ResolveIntent(ctx context.Context, intentID int64, expected domain.IntentStatus, accountID int64) (domain.ResolvedIntent, error)
	Fulfill(ctx context.Context, payment domain.Payment, resolved domain.ResolvedIntent) (*domain.Order, error)
}

type Breaker interface {
	Allow() error
	Success()
	Failure()
}

// PaymentEvent is a confirmed payment for an order intent, as delivered by a
// payment gateway webhook or the payments topic.
type PaymentEvent struct {
	IntentID int64 `json:"intent_id"`
	domain.Payment
}

func (e PaymentEvent) Validate() error {
	switch {
	case e.IntentID <= 0:
		return &domain.ValidationError{Field: "intent_id", Reason: "is required"}
	case e.AccountID <= 0:
		return &domain.ValidationError{Field: "account_id", Reason: "is required"}
	case !e.Amount.IsPositive():
		return &domain.ValidationError{Field: "amount", Reason: "must be positive"}
	case e.TransactionToken == "":
		return &domain.ValidationError{Field: "transaction_token", Reason: "is required"}
	}
	return nil
}

// AlreadyProcessed reports whether err says the intent has already reached a terminal state.
func AlreadyProcessed(err error) bool {
	var serr *domain.StateError
	return errors.As(err, &serr) && serr.Current.Terminal()
}

// PaymentHandler is the single entry point for confirmed payments.
type PaymentHandler struct {
	service     Service
	breaker     Breaker
	logger      *zap.Logger
	metrics     observability.Metrics
	retryPolicy config.Retry
}

func NewPaymentHandler(service Service, brk Breaker, retryPolicy config.Retry, logger *zap.Logger, metrics observability.Metrics) *PaymentHandler {
	return &PaymentHandler{
		service:     service,
		breaker:     brk,
		logger:      logger,
		metrics:     metrics,
		retryPolicy: retryPolicy,
	}
}

// Process resolves the started intent and fulfils it. Only the resolve step is
// retried: a failed purchase marks the intent failed and is final.
func (h *PaymentHandler) Process(ctx context.Context, ev PaymentEvent) (*domain.Order, error) {
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	var resolved domain.ResolvedIntent
	err := retry.Do(ctx, h.retryPolicy, func() error {
		var err error
		resolved, err = h.service.ResolveIntent(ctx, ev.IntentID, domain.StatusStarted, ev.AccountID)
		var perr *domain.PersistenceError
		if err != nil && !errors.As(err, &perr) {
			return retry.Stop(err)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return h.service.Fulfill(ctx, ev.Payment, resolved)
}

// Retryable reports whether handling the same payment again can succeed.
func Retryable(err error) bool {
	var perr *domain.PersistenceError
	return errors.Is(err, ErrCircuitOpen) ||
		errors.As(err, &perr) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// downstream reports whether err says something about the partner or the store
// rather than about the event itself.
func downstream(err error) bool {
	var (
		perr *domain.PersistenceError
		uerr *domain.UpstreamError
		aerr *domain.AuthError
		terr *domain.TransportError
	)
	return errors.As(err, &perr) || errors.As(err, &uerr) || errors.As(err, &aerr) || errors.As(err, &terr)
}

// Handle is called by the consumer for one message of the payments topic.
// A non-nil return asks for the same message again; payments that can never
// succeed are logged as dropped and acknowledged with nil.
func (h *PaymentHandler) Handle(ctx context.Context, message kafkago.Message) error {
	start := time.Now()
	log := h.logger.With(
		zap.Int("partition", message.Partition),
		zap.Int64("offset", message.Offset),
	)

	var ev PaymentEvent
	if err := json.Unmarshal(message.Value, &ev); err != nil {
		log.Error("Dropping payment message with bad json", zap.Error(err))
		h.metrics.ObserveKafka(ms(start), false)
		return nil
	}
	if err := ev.Validate(); err != nil {
		log.Error("Dropping invalid payment", zap.Int64("intent_id", ev.IntentID), zap.Error(err))
		h.metrics.ObserveKafka(ms(start), false)
		return nil
	}

	if err := h.breaker.Allow(); err != nil {
		log.Warn("Circuit breaker is open", zap.Int64("intent_id", ev.IntentID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrCircuitOpen, err)
	}

	order, err := h.Process(ctx, ev)
	if err != nil && !AlreadyProcessed(err) {
		if downstream(err) {
			h.breaker.Failure()
		} else {
			h.breaker.Success()
		}
		h.metrics.ObserveKafka(ms(start), false)
		if Retryable(err) {
			log.Error("Payment processing failed, will retry", zap.Int64("intent_id", ev.IntentID), zap.Error(err))
			return fmt.Errorf("%w: %v", ErrFulfill, err)
		}
		log.Error("Dropping payment that cannot be fulfilled",
			zap.Int64("intent_id", ev.IntentID),
			zap.String("transaction_token", ev.TransactionToken),
			zap.Error(err),
		)
		return nil
	}

	h.breaker.Success()
	h.metrics.ObserveKafka(ms(start), true)
	if err != nil {
		log.Info("Payment already processed",
			zap.Int64("intent_id", ev.IntentID),
			zap.String("transaction_token", ev.TransactionToken),
		)
		return nil
	}
	log.Info("Payment processed",
		zap.Int64("intent_id", ev.IntentID),
		zap.Int64("order_id", order.ID),
		zap.Bool("caution", order.Caution != ""),
	)
	return nil
}

func ms(t time.Time) float64 {
	return float64(time.Since(t).Microseconds()) / 1000.0
}

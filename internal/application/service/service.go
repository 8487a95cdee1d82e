package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/observability"
	"github.com/TemirB/esim-gateway/internal/partner"
)

//go:generate mockgen -source=service.go -destination=service_mock_test.go -package=service

type Store interface {
	domain.IntentRepository
	domain.AccountRepository
	domain.CatalogRepository
	domain.LedgerRepository
}

type Partner interface {
	CreateOrder(ctx context.Context, req partner.OrderRequest) (*domain.Order, error)
	CreateTopup(ctx context.Context, req partner.TopupRequest) (*domain.Order, error)
	CreateOrderBulk(ctx context.Context, items map[string]int, description string) (map[string]partner.BulkResult, error)
	CreateOrderAsyncBulk(ctx context.Context, items map[string]int, webhookURL, description string) (map[string]partner.BulkResult, error)
	FlatPackages(ctx context.Context, q partner.PackageQuery) ([]partner.FlatPackage, error)
}

type Publisher interface {
	Publish(ctx context.Context, ev domain.OrderEvent) error
}

// Service drives the order intent workflow against the partner API and the local store.
type Service struct {
	store     Store
	partner   Partner
	publisher Publisher
	logger    *zap.Logger
	metrics   observability.Metrics
	now       func() time.Time
}

// NewService wires the orchestrator. publisher may be nil when no event sink is configured.
func NewService(store Store, p Partner, publisher Publisher, logger *zap.Logger, metrics observability.Metrics) *Service {
	return &Service{
		store:     store,
		partner:   p,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		now:       time.Now,
	}
}

func persistence(op string, err error) error {
	var perr *domain.PersistenceError
	if errors.As(err, &perr) {
		return err
	}
	return &domain.PersistenceError{Op: op, Err: err}
}

func (s *Service) publish(ctx context.Context, ev domain.OrderEvent) {
	if s.publisher == nil {
		return
	}
	ev.OccurredAt = s.now().UTC()
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("Order event not published",
			zap.String("type", ev.Type),
			zap.Int64("intent_id", ev.IntentID),
			zap.Error(err),
		)
	}
}

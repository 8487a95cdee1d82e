package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/partner"
)

// CreateOrderBulk places one partner order per package; failures are reported per package.
func (s *Service) CreateOrderBulk(ctx context.Context, items map[string]int, description string) (map[string]partner.BulkResult, error) {
	if err := partner.ValidateBulk(items); err != nil {
		return nil, err
	}
	return s.partner.CreateOrderBulk(ctx, items, description)
}

func (s *Service) CreateOrderAsyncBulk(ctx context.Context, items map[string]int, webhookURL, description string) (map[string]partner.BulkResult, error) {
	if err := partner.ValidateBulk(items); err != nil {
		return nil, err
	}
	return s.partner.CreateOrderAsyncBulk(ctx, items, webhookURL, description)
}

// SyncCatalog copies the partner package catalog into the local store.
// Known packages keep their markup; new ones get domain.DefaultMarkup.
func (s *Service) SyncCatalog(ctx context.Context, q partner.PackageQuery) (int, error) {
	t0 := time.Now()
	flat, err := s.partner.FlatPackages(ctx, q)
	if err != nil {
		return 0, err
	}

	pkgs := make([]domain.Package, 0, len(flat))
	seen := make(map[string]struct{}, len(flat))
	for _, p := range flat {
		if _, dup := seen[p.PackageID]; dup || p.PackageID == "" {
			continue
		}
		seen[p.PackageID] = struct{}{}
		pkgs = append(pkgs, p.Domain())
	}

	n, err := s.store.UpsertPackages(ctx, pkgs)
	if err != nil {
		return 0, persistence("package upsert", err)
	}
	s.logger.Info("Catalog synced",
		zap.Int("packages", n),
		zap.Float64("duration_ms", convertToMs(t0)),
	)
	return n, nil
}

package main

import (
	"context"
	"errors"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/TemirB/esim-gateway/internal/application/handler"
	"github.com/TemirB/esim-gateway/internal/application/service"
	"github.com/TemirB/esim-gateway/internal/cache"
	"github.com/TemirB/esim-gateway/internal/config"
	"github.com/TemirB/esim-gateway/internal/database"
	"github.com/TemirB/esim-gateway/internal/httpapi"
	"github.com/TemirB/esim-gateway/internal/kafka"
	"github.com/TemirB/esim-gateway/internal/logger"
	"github.com/TemirB/esim-gateway/internal/observability"
	"github.com/TemirB/esim-gateway/internal/partner"
	"github.com/TemirB/esim-gateway/internal/pkg/breaker"
	"github.com/TemirB/esim-gateway/internal/pkg/signature"
	"github.com/TemirB/esim-gateway/internal/transport"
)

func main() {
	cfg := config.MustLoad()
	log := logger.Must(cfg.Log.Level, cfg.Log.Development)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	metrics := observability.NewPrometheus()

	backend, closeBackend := mustCacheBackend(cfg, log)
	defer closeBackend()
	memo := cache.New(backend, log.Named("cache"), metrics)

	tr := transport.New(transport.Options{
		Timeout:      cfg.Transport.Timeout,
		BatchTimeout: cfg.Transport.BatchTimeout,
		Headers:      cfg.Partner.Headers,
		Limiter:      rate.NewLimiter(rate.Limit(cfg.Transport.RateLimit), cfg.Transport.Burst),
		Breaker:      breaker.New(cfg.Breaker),
	}, log.Named("transport"), metrics)

	tokens, err := partner.NewTokenManager(cfg.Credentials(), cfg.PartnerURL(), tr, memo, cfg.TokenRetry, cfg.Token.TTL, log.Named("token"), metrics)
	if err != nil {
		log.Fatal("token manager", zap.Error(err))
	}
	client := partner.NewClient(cfg.PartnerURL(), tr, tokens, signature.New(cfg.Partner.ClientSecret), memo, cfg.Partner.Headers, log.Named("partner"))

	store, closeStore := mustStore(ctx, cfg, log)
	defer closeStore()

	var (
		publisher service.Publisher
		kafkaOn   = len(cfg.Kafka.Brokers) > 0
	)
	if kafkaOn {
		if err := kafka.EnsureTopics(ctx, cfg.Kafka, log); err != nil {
			log.Fatal("ensure kafka topics", zap.Error(err))
		}
		pub := kafka.NewPublisher(kafka.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic), log.Named("events"))
		defer func() { _ = pub.Close() }()
		publisher = pub
	} else {
		log.Warn("KAFKA_BROKERS is empty, payments consumer and order events are disabled")
	}

	svc := service.NewService(store, client, publisher, log.Named("service"), metrics)
	payments := handler.NewPaymentHandler(svc, breaker.New(cfg.Breaker), cfg.Retry, log.Named("payments"), metrics)

	var verifier *signature.Signer
	if cfg.Callback.Secret != "" {
		verifier = signature.New(cfg.Callback.Secret)
	} else {
		log.Warn("CALLBACK_SECRET is empty, payment callbacks are accepted unsigned")
	}
	server := httpapi.New(httpapi.Deps{
		Intents:  svc,
		Payments: payments,
		Cache:    memo,
		Catalog:  svc,
		Verifier: verifier,
		Metrics:  metrics.Handler(),
	}, log.Named("http"), metrics)

	var wg sync.WaitGroup
	if kafkaOn {
		reader := kafka.NewReader(cfg.Kafka)
		consumer := kafka.NewConsumer(payments, reader, kafka.Backoff{Base: cfg.Kafka.RetryBase, Max: cfg.Kafka.RetryMax}, log.Named("consumer"))
		wg.Add(1)
		go func() {
			defer wg.Done()
			consumer.Start(ctx)
			if err := reader.Close(); err != nil {
				log.Warn("kafka reader close", zap.Error(err))
			}
		}()
	}

	if cfg.Catalog.SyncInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			syncCatalog(ctx, svc, partner.PackageQuery{Country: cfg.Catalog.Country}, cfg.Catalog.SyncInterval, log)
		}()
	}

	log.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr), zap.String("partner", cfg.PartnerURL()))
	if err := server.ListenAndServe(ctx, cfg.HTTPAddr); err != nil {
		log.Error("HTTP server stopped", zap.Error(err))
		stop()
	}
	wg.Wait()
	log.Info("Shutdown complete")
}

func mustCacheBackend(cfg config.Config, log *zap.Logger) (cache.Backend, func()) {
	if cfg.Cache.Backend == "redis" {
		r, err := cache.NewRedis(cfg.Redis.URL, cfg.Cache.Prefix)
		if err != nil {
			log.Fatal("redis cache", zap.Error(err))
		}
		return r, func() { _ = r.Close() }
	}
	size := cfg.Cache.Size
	if size < 1 {
		size = 1
	}
	l, err := cache.NewLRU(size)
	if err != nil {
		log.Fatal("lru cache", zap.Error(err))
	}
	return l, func() {}
}

func mustStore(ctx context.Context, cfg config.Config, log *zap.Logger) (service.Store, func()) {
	if cfg.StoreDriver == "memory" {
		log.Warn("Using in-memory store, state is lost on restart")
		return database.NewMemory(), func() {}
	}
	pool := database.MustPool(ctx, cfg.DSN(), log)
	if err := database.Migrate(ctx, pool); err != nil {
		log.Fatal("migrate", zap.Error(err))
	}
	return database.New(pool), pool.Close
}

func syncCatalog(ctx context.Context, svc *service.Service, q partner.PackageQuery, every time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		n, err := svc.SyncCatalog(ctx, q)
		switch {
		case errors.Is(err, context.Canceled):
			return
		case err != nil:
			log.Warn("Catalog sync failed", zap.Error(err))
		default:
			log.Info("Catalog synced", zap.Int("packages", n))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

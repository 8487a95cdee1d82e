package cache

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/observability"
)

//go:generate mockgen -source internal/cache/cache.go -destination=internal/cache/cache_mock_test.go -package=cache

// ErrMiss is returned by a Backend for absent or expired keys.
var ErrMiss = errors.New("cache miss")

type Backend interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Flush(ctx context.Context) error
}

// Memo stores JSON encoded producer results in a Backend.
// Concurrent misses for the same key may all run the producer; last write wins.
type Memo struct {
	backend Backend
	logger  *zap.Logger
	metrics observability.Metrics
}

func New(backend Backend, logger *zap.Logger, metrics observability.Metrics) *Memo {
	return &Memo{
		backend: backend,
		logger:  logger,
		metrics: metrics,
	}
}

// GetOrCompute returns the live value under key or runs producer and stores its result for ttl.
// Producer errors are returned and never cached. Backend failures degrade to a recompute.
func GetOrCompute[T any](ctx context.Context, m *Memo, key string, ttl time.Duration, producer func(ctx context.Context) (T, error)) (T, error) {
	if v, ok := Lookup[T](ctx, m, key); ok {
		return v, nil
	}

	v, err := producer(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	Store(ctx, m, key, ttl, v)
	return v, nil
}

// Lookup reports a live decoded value under key and counts the hit or miss.
func Lookup[T any](ctx context.Context, m *Memo, key string) (T, bool) {
	var v T
	raw, err := m.backend.Get(ctx, key)
	switch {
	case err == nil:
		uerr := json.Unmarshal(raw, &v)
		if uerr == nil {
			m.metrics.IncCacheHit()
			return v, true
		}
		m.logger.Warn("Dropping undecodable cache entry",
			zap.String("key", key),
			zap.Error(uerr),
		)
		_ = m.backend.Delete(ctx, key)
		var zero T
		v = zero
	case !errors.Is(err, ErrMiss):
		m.logger.Warn("Cache read failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
	m.metrics.IncCacheMiss()
	return v, false
}

// Store writes v under key. Failures are logged, never returned.
func Store[T any](ctx context.Context, m *Memo, key string, ttl time.Duration, v T) {
	raw, err := json.Marshal(v)
	if err != nil {
		m.logger.Warn("Cache value not serializable", zap.String("key", key), zap.Error(err))
		return
	}
	if err := m.backend.Set(ctx, key, raw, ttl); err != nil {
		m.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func (m *Memo) Delete(ctx context.Context, key string) error {
	return m.backend.Delete(ctx, key)
}

func (m *Memo) Flush(ctx context.Context) error {
	if err := m.backend.Flush(ctx); err != nil {
		return err
	}
	m.logger.Info("Cache flushed")
	return nil
}

// Key fingerprints arbitrary request parts into an opaque cache key.
func Key(parts ...any) string {
	raw, err := json.Marshal(parts)
	if err != nil {
		// parts are strings and maps of strings in practice
		raw = []byte(err.Error())
	}
	sum := md5.Sum(raw)
	return hex.EncodeToString(sum[:])
}

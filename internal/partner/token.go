package partner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"

	"github.com/TemirB/esim-gateway/internal/cache"
	"github.com/TemirB/esim-gateway/internal/config"
	"github.com/TemirB/esim-gateway/internal/domain"
	"github.com/TemirB/esim-gateway/internal/observability"
	"github.com/TemirB/esim-gateway/internal/pkg/crypt"
	"github.com/TemirB/esim-gateway/internal/pkg/retry"
	"github.com/TemirB/esim-gateway/internal/pkg/signature"
	"github.com/TemirB/esim-gateway/internal/transport"
)

const tokenKeyPrefix = "access_token_"

var errTokenExpired = errors.New("cached access token has expired")

// TokenManager exchanges client credentials for a bearer token and keeps the
// encrypted token in the memo cache. Managers with identical credentials share one entry.
type TokenManager struct {
	creds   domain.Credentials
	base    string
	caller  Caller
	signer  *signature.Signer
	memo    *cache.Memo
	box     *crypt.Box
	policy  config.Retry
	ttl     time.Duration
	logger  *zap.Logger
	metrics observability.Metrics
	now     func() time.Time
}

func NewTokenManager(
	creds domain.Credentials,
	base string,
	caller Caller,
	memo *cache.Memo,
	policy config.Retry,
	ttl time.Duration,
	logger *zap.Logger,
	metrics observability.Metrics,
) (*TokenManager, error) {
	box, err := crypt.New(creds.Encode())
	if err != nil {
		return nil, err
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return &TokenManager{
		creds:   creds,
		base:    base,
		caller:  caller,
		signer:  signature.New(creds.ClientSecret),
		memo:    memo,
		box:     box,
		policy:  policy,
		ttl:     ttl,
		logger:  logger,
		metrics: metrics,
		now:     time.Now,
	}, nil
}

func (t *TokenManager) cacheKey() string {
	return tokenKeyPrefix + t.creds.Fingerprint()
}

func (t *TokenManager) GetAccessToken(ctx context.Context) (string, error) {
	key := t.cacheKey()
	attempts := 0
	var token string

	err := retry.Do(ctx, t.policy, func() error {
		attempts++
		sealed, err := cache.GetOrCompute(ctx, t.memo, key, t.ttl, t.exchange)
		if err != nil {
			return err
		}

		plain, err := t.box.Open(sealed)
		if err != nil {
			_ = t.memo.Delete(ctx, key)
			return err
		}
		if t.expired(plain) {
			_ = t.memo.Delete(ctx, key)
			return errTokenExpired
		}
		token = plain
		return nil
	})

	t.metrics.ObserveTokenFetch(attempts, err == nil)
	if err != nil {
		t.logger.Error("Access token unavailable",
			zap.Int("attempts", attempts),
			zap.Error(err),
		)
		return "", &domain.AuthError{Attempts: attempts, Err: err}
	}
	return token, nil
}

// exchange calls the token endpoint and returns the sealed token.
func (t *TokenManager) exchange(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("client_id", t.creds.ClientID)
	form.Set("client_secret", t.creds.ClientSecret)
	form.Set("grant_type", "client_credentials")
	body := []byte(form.Encode())

	resp, err := t.caller.Call(ctx, transport.Request{
		Name:   slugToken,
		Method: http.MethodPost,
		URL:    t.base + slugToken,
		Header: map[string]string{
			"Accept":         "application/json",
			"Content-Type":   "application/x-www-form-urlencoded",
			signature.Header: t.signer.Sign(body),
		},
		Body: body,
	})
	if err != nil {
		return "", err
	}

	env, err := decode[struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}]("access token generation", resp, http.StatusOK)
	if err != nil {
		return "", err
	}
	if env.Data.AccessToken == "" {
		return "", &domain.UpstreamError{Op: "access token generation", StatusCode: resp.StatusCode, Reason: "access token not found in response"}
	}

	sealed, err := t.box.Seal(env.Data.AccessToken)
	if err != nil {
		return "", fmt.Errorf("seal token: %w", err)
	}
	t.logger.Info("Access token issued", zap.Int64("expires_in", env.Data.ExpiresIn))
	return sealed, nil
}

// expired reports whether a JWT token carries an exp in the past.
// Opaque tokens never expire here; the cache ttl bounds them.
func (t *TokenManager) expired(token string) bool {
	var claims jwt.RegisteredClaims
	if _, _, err := new(jwt.Parser).ParseUnverified(token, &claims); err != nil {
		return false
	}
	return claims.ExpiresAt != nil && !claims.ExpiresAt.Time.After(t.now())
}

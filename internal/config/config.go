package config

import (
	"fmt"
	"log"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/TemirB/esim-gateway/internal/domain"
)

const (
	SandboxURL    = "https://sandbox-partners-api.airalo.com/v2/"
	ProductionURL = "https://partners-api.airalo.com/v2/"
)

type Partner struct {
	ClientID     string
	ClientSecret string
	Env          domain.Environment
	URL          string
	Headers      map[string]string
	HeadersFile  string
}

type Transport struct {
	Timeout      time.Duration
	BatchTimeout time.Duration
	RateLimit    float64
	Burst        int
}

type Token struct {
	TTL time.Duration
}

type Cache struct {
	Backend string
	Size    int
	Prefix  string
}

type Redis struct {
	URL string
}

type Postgres struct {
	Host     string
	Port     string
	DB       string
	User     string
	Password string
	SSLMode  string
}

type Kafka struct {
	Brokers       []string
	PaymentsTopic string
	EventsTopic   string
	Group         string
	Partitions    int
	// A payment the handler could not accept is retried in place, backing
	// off from RetryBase up to RetryMax.
	RetryBase time.Duration
	RetryMax  time.Duration
}

type Breaker struct {
	Threshold   uint32
	OpenTimeout time.Duration
	MaxHalfOpen uint32
}

type Retry struct {
	Attempts     int
	Base         time.Duration
	Max          time.Duration
	JitterFactor float64
}

type Log struct {
	Level       string
	Development bool
}

type Callback struct {
	Secret string
}

type Catalog struct {
	// SyncInterval of zero disables the background catalog sync.
	SyncInterval time.Duration
	Country      string
}

type Config struct {
	HTTPAddr    string
	StoreDriver string

	Partner    Partner
	Transport  Transport
	Token      Token
	TokenRetry Retry
	Cache      Cache
	Redis      Redis
	Pg         Postgres
	Kafka      Kafka
	Breaker    Breaker
	Retry      Retry
	Log        Log
	Callback   Callback
	Catalog    Catalog
}

// MustLoad fatals on error, for main().
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}
	return cfg
}

func Load() (Config, error) {
	_ = godotenv.Load("env/.env")

	cfg := Config{
		HTTPAddr:    envDefault("HTTP_ADDR", ":8081"),
		StoreDriver: strings.ToLower(envDefault("STORE_DRIVER", "postgres")),

		Partner: Partner{
			ClientID:     strings.TrimSpace(os.Getenv("PARTNER_CLIENT_ID")),
			ClientSecret: strings.TrimSpace(os.Getenv("PARTNER_CLIENT_SECRET")),
			Env:          domain.Environment(strings.ToLower(envDefault("PARTNER_ENV", string(domain.Production)))),
			URL:          strings.TrimSpace(os.Getenv("PARTNER_URL")),
			Headers: map[string]string{
				"Accept": "application/json",
			},
			HeadersFile: strings.TrimSpace(os.Getenv("PARTNER_HEADERS_FILE")),
		},

		Transport: Transport{
			Timeout:      envDurationMS("TRANSPORT_TIMEOUT", 60*time.Second),
			BatchTimeout: envDurationMS("TRANSPORT_BATCH_TIMEOUT", 120*time.Second),
			RateLimit:    envFloat64("TRANSPORT_RATE_LIMIT", 20),
			Burst:        envInt("TRANSPORT_BURST", 20),
		},

		Token: Token{
			TTL: envDurationMS("TOKEN_TTL", 24*time.Hour),
		},

		TokenRetry: Retry{
			Attempts: envInt("TOKEN_RETRY_ATTEMPTS", 2),
			Base:     envDurationMS("TOKEN_RETRY_SLEEP", 500*time.Millisecond),
			Max:      envDurationMS("TOKEN_RETRY_SLEEP", 500*time.Millisecond),
		},

		Cache: Cache{
			Backend: strings.ToLower(envDefault("CACHE_BACKEND", "lru")),
			Size:    envInt("CACHE_SIZE", 1000),
			Prefix:  envDefault("CACHE_PREFIX", "esim-gateway:"),
		},

		Redis: Redis{
			URL: strings.TrimSpace(os.Getenv("REDIS_URL")),
		},

		Pg: Postgres{
			Host:     strings.TrimSpace(os.Getenv("PG_HOST")),
			Port:     strings.TrimSpace(envDefault("PG_PORT", "5432")),
			DB:       strings.TrimSpace(os.Getenv("PG_DB")),
			User:     strings.TrimSpace(os.Getenv("PG_USER")),
			Password: strings.TrimSpace(os.Getenv("PG_PASSWORD")),
			SSLMode:  strings.TrimSpace(envDefault("PG_SSLMODE", "disable")),
		},

		Kafka: Kafka{
			Brokers:       splitCSV(strings.TrimSpace(os.Getenv("KAFKA_BROKERS"))),
			PaymentsTopic: envDefault("KAFKA_PAYMENTS_TOPIC", "esim.payments"),
			EventsTopic:   envDefault("KAFKA_EVENTS_TOPIC", "esim.orders"),
			Group:         envDefault("KAFKA_GROUP", "esim-gateway"),
			Partitions:    envInt("KAFKA_PARTITIONS", 3),
			RetryBase:     envDurationMS("KAFKA_RETRY_BASE", 500*time.Millisecond),
			RetryMax:      envDurationMS("KAFKA_RETRY_MAX", 30*time.Second),
		},

		Breaker: Breaker{
			Threshold:   envUint32("BREAKER_THRESHOLD", 5),
			OpenTimeout: envDurationMS("BREAKER_OPENTIMEOUT", 10*time.Second),
			MaxHalfOpen: envUint32("BREAKER_MAXHALFOPEN", 3),
		},

		Retry: Retry{
			Attempts:     envInt("RETRY_ATTEMPTS", 3),
			Base:         envDurationMS("RETRY_BASE", 100*time.Millisecond),
			Max:          envDurationMS("RETRY_MAX", 2*time.Second),
			JitterFactor: envFloat64("RETRY_JITTERFACTOR", 0.3),
		},

		Log: Log{
			Level:       envDefault("LOG_LEVEL", "info"),
			Development: envDefault("LOG_DEVELOPMENT", "false") == "true",
		},

		Callback: Callback{
			Secret: strings.TrimSpace(os.Getenv("CALLBACK_SECRET")),
		},

		Catalog: Catalog{
			SyncInterval: envDurationMS("CATALOG_SYNC_INTERVAL", 0),
			Country:      strings.ToUpper(strings.TrimSpace(os.Getenv("CATALOG_COUNTRY"))),
		},
	}

	if cfg.Partner.HeadersFile != "" {
		if err := cfg.Partner.loadHeaders(cfg.Partner.HeadersFile); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (p *Partner) loadHeaders(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return &domain.ConfigError{Field: "PARTNER_HEADERS_FILE", Reason: err.Error()}
	}
	var headers map[string]string
	if err := yaml.Unmarshal(raw, &headers); err != nil {
		return &domain.ConfigError{Field: "PARTNER_HEADERS_FILE", Reason: fmt.Sprintf("invalid yaml: %v", err)}
	}
	for k, v := range headers {
		p.Headers[k] = v
	}
	return nil
}

// validate rejects unusable settings and clamps the ones that have a safe floor.
func (c *Config) validate() error {
	if c.Partner.ClientID == "" {
		return &domain.ConfigError{Field: "PARTNER_CLIENT_ID", Reason: "mandatory field is missing"}
	}
	if c.Partner.ClientSecret == "" {
		return &domain.ConfigError{Field: "PARTNER_CLIENT_SECRET", Reason: "mandatory field is missing"}
	}
	if !c.Partner.Env.Valid() {
		return &domain.ConfigError{
			Field:  "PARTNER_ENV",
			Reason: fmt.Sprintf("invalid environment %q, allowed: %s, %s", c.Partner.Env, domain.Sandbox, domain.Production),
		}
	}
	if c.Partner.URL != "" {
		if _, err := url.ParseRequestURI(c.Partner.URL); err != nil {
			return &domain.ConfigError{Field: "PARTNER_URL", Reason: err.Error()}
		}
	}

	switch c.StoreDriver {
	case "memory":
	case "postgres":
		var missing []string
		req := map[string]string{
			"PG_HOST":     c.Pg.Host,
			"PG_DB":       c.Pg.DB,
			"PG_USER":     c.Pg.User,
			"PG_PASSWORD": c.Pg.Password,
		}
		for k, v := range req {
			if v == "" {
				missing = append(missing, k)
			}
		}
		if len(missing) > 0 {
			return &domain.ConfigError{Field: strings.Join(missing, ", "), Reason: "missing required envs"}
		}
	default:
		return &domain.ConfigError{Field: "STORE_DRIVER", Reason: fmt.Sprintf("unknown driver %q", c.StoreDriver)}
	}

	switch c.Cache.Backend {
	case "lru":
	case "redis":
		if c.Redis.URL == "" {
			return &domain.ConfigError{Field: "REDIS_URL", Reason: "required when CACHE_BACKEND=redis"}
		}
	default:
		return &domain.ConfigError{Field: "CACHE_BACKEND", Reason: fmt.Sprintf("unknown backend %q", c.Cache.Backend)}
	}

	if c.Cache.Size <= 0 {
		log.Printf("CACHE_SIZE is %d, adjusting to 1", c.Cache.Size)
		c.Cache.Size = 1
	}
	if c.TokenRetry.Attempts < 1 {
		return &domain.ConfigError{Field: "TOKEN_RETRY_ATTEMPTS", Reason: "must be at least 1"}
	}
	if c.Retry.Max < c.Retry.Base {
		log.Printf("RETRY_MAX (%v) < RETRY_BASE (%v), adjusting max to base", c.Retry.Max, c.Retry.Base)
		c.Retry.Max = c.Retry.Base
	}
	if c.Kafka.RetryBase <= 0 {
		return &domain.ConfigError{Field: "KAFKA_RETRY_BASE", Reason: "must be positive"}
	}
	if c.Kafka.RetryMax < c.Kafka.RetryBase {
		log.Printf("KAFKA_RETRY_MAX (%v) < KAFKA_RETRY_BASE (%v), adjusting max to base", c.Kafka.RetryMax, c.Kafka.RetryBase)
		c.Kafka.RetryMax = c.Kafka.RetryBase
	}
	return nil
}

// PartnerURL is the API root for the configured environment, always with a trailing slash.
func (c Config) PartnerURL() string {
	u := c.Partner.URL
	if u == "" {
		u = ProductionURL
		if c.Partner.Env == domain.Sandbox {
			u = SandboxURL
		}
	}
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u
}

func (c Config) Credentials() domain.Credentials {
	return domain.Credentials{
		ClientID:     c.Partner.ClientID,
		ClientSecret: c.Partner.ClientSecret,
		Environment:  c.Partner.Env,
	}
}

// DSN builds a proper Postgres URL, safely escaping user/pass and query.
func (c Config) DSN() string {
	u := &url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Pg.User, c.Pg.Password),
		Host:   net.JoinHostPort(c.Pg.Host, c.Pg.Port),
		Path:   "/" + c.Pg.DB,
	}
	q := url.Values{}
	if c.Pg.SSLMode != "" {
		q.Set("sslmode", c.Pg.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func envDefault(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return n
}

func envUint32(k string, def uint32) uint32 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	u, err := strconv.ParseUint(v, 10, 32)
	if err != nil {
		log.Printf("invalid %s=%q, using default %d: %v", k, v, def, err)
		return def
	}
	return uint32(u)
}

func envFloat64(k string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("invalid %s=%q, using default %.3f: %v", k, v, def, err)
		return def
	}
	return f
}

// envDurationMS supports either plain integer milliseconds ("1500") or
// Go duration strings ("1.5s", "250ms", "2m").
func envDurationMS(k string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(k))
	if v == "" {
		return def
	}
	if strings.IndexFunc(v, func(r rune) bool { return r < '0' || r > '9' }) != -1 {
		d, err := time.ParseDuration(v)
		if err != nil {
			log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
			return def
		}
		return d
	}
	ms, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("invalid %s=%q, using default %v: %v", k, v, def, err)
		return def
	}
	return time.Duration(ms) * time.Millisecond
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	raw := strings.Split(s, ",")
	out := make([]string, 0, len(raw))
	for _, p := range raw {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

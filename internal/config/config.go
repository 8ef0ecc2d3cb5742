// Package config defines service configuration structures and loading hooks.
package config

// Store drivers.
const (
	StoreMemory   = "memory"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
)

// Source kinds.
const (
	SourceStatic = "static"
	SourceHTTP   = "http"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`
	// LogFormat selects the handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`
	// CORSOrigins lists allowed browser origins.
	CORSOrigins []string `koanf:"cors_origins"`

	// PollIntervalMS is the delay between ticks of a live match schedule.
	PollIntervalMS int `koanf:"poll_interval_ms"`
	// FetchTimeoutMS bounds a single upstream fetch.
	FetchTimeoutMS int `koanf:"fetch_timeout_ms"`
	// MaxBackoffMS caps the tick delay after consecutive fetch failures.
	MaxBackoffMS int `koanf:"max_backoff_ms"`

	// NotificationRetention bounds the per-user notification history.
	NotificationRetention int `koanf:"notification_retention"`
	// MaxNotificationLimit caps GET /api/notifications/{userId}?limit.
	MaxNotificationLimit int `koanf:"max_notification_limit"`
	// DedupeSize bounds the delivered event key cache.
	DedupeSize int `koanf:"dedupe_size"`

	// PushQueueSize bounds the push delivery queue.
	PushQueueSize int `koanf:"push_queue_size"`
	// PushWorkerCount sets the number of push workers.
	PushWorkerCount int `koanf:"push_worker_count"`
	// PushTimeoutMS bounds a single push delivery.
	PushTimeoutMS int `koanf:"push_timeout_ms"`

	// StoreDriver selects the ledger backend: memory, redis or postgres.
	StoreDriver    string `koanf:"store_driver"`
	RedisURL       string `koanf:"redis_url"`
	PostgresDSN    string `koanf:"postgres_dsn"`
	StoreKeyPrefix string `koanf:"store_key_prefix"`

	// SourceKind selects the scorecard source: static or http.
	SourceKind    string `koanf:"source_kind"`
	SourceBaseURL string `koanf:"source_base_url"`
	SourceAPIKey  string `koanf:"source_api_key"`

	// Push channels; each is enabled when configured.
	PushWebhookURL    string `koanf:"push_webhook_url"`
	PushRedisStream   string `koanf:"push_redis_stream"`
	DiscordWebhookURL string `koanf:"discord_webhook_url"`
	TelegramToken     string `koanf:"telegram_token"`
	TelegramChatID    int64  `koanf:"telegram_chat_id"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		LogFormat:             "text",
		Addr:                  ":9080",
		CORSOrigins:           []string{"*"},
		PollIntervalMS:        5_000,
		FetchTimeoutMS:        10_000,
		MaxBackoffMS:          60_000,
		NotificationRetention: 100,
		MaxNotificationLimit:  100,
		DedupeSize:            50_000,
		PushQueueSize:         1_024,
		PushWorkerCount:       4,
		PushTimeoutMS:         10_000,
		StoreDriver:           StoreMemory,
		StoreKeyPrefix:        "crease",
		SourceKind:            SourceStatic,
	}
}

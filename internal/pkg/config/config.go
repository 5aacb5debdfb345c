package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

// Config holds all application configuration for the gateway and the proxy.
type Config struct {
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`
	APIKey    string `env:"API_KEY"` // empty disables the key check
	RedisAddr string `env:"REDIS_ADDR" envDefault:"redis://localhost:6379"`

	// Gateway
	ListenAddr           string        `env:"LISTEN_ADDR" envDefault:":8080"`
	AdminAddr            string        `env:"ADMIN_ADDR" envDefault:":9091"`
	PostgresURL          string        `env:"POSTGRES_URL"` // empty falls back to the CSV sheet store
	SheetPath            string        `env:"SHEET_PATH" envDefault:"submissions.csv"`
	MaxBodySize          int64         `env:"MAX_BODY_SIZE_BYTES" envDefault:"51200"` // 50KB
	MaxDescriptionLength int           `env:"MAX_DESCRIPTION_LENGTH" envDefault:"2000"`
	RequireFields        bool          `env:"REQUIRE_FIELDS" envDefault:"false"`
	RateLimitWindow      time.Duration `env:"RATE_LIMIT_WINDOW" envDefault:"1m"`
	RateLimitMax         int           `env:"RATE_LIMIT_MAX" envDefault:"30"`
	RateLockWait         time.Duration `env:"RATE_LOCK_WAIT" envDefault:"5s"`
	StoreLockWait        time.Duration `env:"STORE_LOCK_WAIT" envDefault:"10s"`
	AlertEmail           string        `env:"ALERT_EMAIL"` // empty disables error notifications

	// Proxy
	ProxyListenAddr      string        `env:"PROXY_LISTEN_ADDR" envDefault:":3000"`
	UpstreamURL          string        `env:"UPSTREAM_URL"`
	UpstreamTimeout      time.Duration `env:"UPSTREAM_TIMEOUT" envDefault:"10s"`
	ProxyRateLimitMax    int           `env:"PROXY_RATE_LIMIT_MAX" envDefault:"30"`
	ProxyRateLimitWindow time.Duration `env:"PROXY_RATE_LIMIT_WINDOW" envDefault:"1m"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	// Attempt to load .env file for local development.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

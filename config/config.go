package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration loaded from environment variables.
type Config struct {
	// Server
	Port       int    `mapstructure:"PORT"`
	GinMode    string `mapstructure:"GIN_MODE"`
	CORSOrigin string `mapstructure:"CORS_ORIGIN"`

	// Database
	DBDriver    string `mapstructure:"DB_DRIVER"` // mysql | postgres | sqlite
	DatabaseURL string `mapstructure:"DATABASE_URL"`

	// Sessions
	SessionSecret      string `mapstructure:"SESSION_SECRET"`
	SessionIdleMinutes int    `mapstructure:"SESSION_IDLE_MINUTES"`
	SessionStore       string `mapstructure:"SESSION_STORE"` // memory | redis
	RedisURL           string `mapstructure:"REDIS_URL"`

	// Forecast service
	AIBaseURL        string `mapstructure:"AI_BASE_URL"`
	AITimeoutSeconds int    `mapstructure:"AI_TIMEOUT_SECONDS"`

	// Business
	LowStockThreshold int `mapstructure:"LOW_STOCK_THRESHOLD"`

	// Bootstrap manager, created only when no staff exists.
	AdminUsername string `mapstructure:"ADMIN_USERNAME"`
	AdminPassword string `mapstructure:"ADMIN_PASSWORD"`

	// Rate limits
	RateLimitRPS       float64 `mapstructure:"RATE_LIMIT_RPS"`
	LoginRatePerMinute int     `mapstructure:"LOGIN_RATE_PER_MINUTE"`
}

// Load reads configuration from the environment, with defaults for local
// development. The .env file is loaded by godotenv before this runs.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("PORT", 8080)
	v.SetDefault("GIN_MODE", "debug")
	v.SetDefault("CORS_ORIGIN", "*")
	v.SetDefault("DB_DRIVER", "mysql")
	v.SetDefault("DATABASE_URL", "root:@tcp(127.0.0.1:3306)/restaurant_pos?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("SESSION_SECRET", "")
	v.SetDefault("SESSION_IDLE_MINUTES", 60)
	v.SetDefault("SESSION_STORE", "memory")
	v.SetDefault("REDIS_URL", "redis://localhost:6379/0")
	v.SetDefault("AI_BASE_URL", "http://localhost:8000")
	v.SetDefault("AI_TIMEOUT_SECONDS", 5)
	v.SetDefault("LOW_STOCK_THRESHOLD", 10)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "")
	v.SetDefault("RATE_LIMIT_RPS", 20)
	v.SetDefault("LOGIN_RATE_PER_MINUTE", 10)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	cfg.DBDriver = strings.ToLower(strings.TrimSpace(cfg.DBDriver))
	cfg.SessionStore = strings.ToLower(strings.TrimSpace(cfg.SessionStore))

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.DBDriver {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported DB_DRIVER %q", c.DBDriver)
	}
	switch c.SessionStore {
	case "memory", "redis":
	default:
		return fmt.Errorf("config: unsupported SESSION_STORE %q", c.SessionStore)
	}
	if len(c.SessionSecret) < 16 {
		return fmt.Errorf("config: SESSION_SECRET must be at least 16 characters")
	}
	if c.SessionIdleMinutes <= 0 {
		return fmt.Errorf("config: SESSION_IDLE_MINUTES must be positive")
	}
	return nil
}

func (c *Config) SessionIdle() time.Duration {
	return time.Duration(c.SessionIdleMinutes) * time.Minute
}

func (c *Config) AITimeout() time.Duration {
	return time.Duration(c.AITimeoutSeconds) * time.Second
}

func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

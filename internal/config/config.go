package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config is the full application configuration, populated from
// environment variables.
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Checkout CheckoutConfig
	Worker   WorkerConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

// CheckoutConfig carries the reservation and settlement tuning knobs.
type CheckoutConfig struct {
	HoldTTL  time.Duration // reservation lifetime
	CacheTTL time.Duration // advisory stock counter lifetime

	ProductLockWait time.Duration // advisory lock wait on hold creation
	ProductLockTTL  time.Duration
	HoldLockWait    time.Duration // advisory lock wait on hold release
	HoldLockTTL     time.Duration
	RestoreLockWait time.Duration // shorter budget for the post-release cache restore
	RestoreLockTTL  time.Duration

	DeadlockRetries  int           // attempts per hold creation
	RetryBackoffBase time.Duration // backoff unit, doubled per attempt
}

type WorkerConfig struct {
	Concurrency int
	HealthPort  string
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Flashsale API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "flashsale"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Checkout: CheckoutConfig{
			HoldTTL:          getEnvDuration("CHECKOUT_HOLD_TTL", 2*time.Minute),
			CacheTTL:         getEnvDuration("CHECKOUT_CACHE_TTL", 5*time.Minute),
			ProductLockWait:  getEnvDuration("CHECKOUT_PRODUCT_LOCK_WAIT", 3*time.Second),
			ProductLockTTL:   getEnvDuration("CHECKOUT_PRODUCT_LOCK_TTL", 10*time.Second),
			HoldLockWait:     getEnvDuration("CHECKOUT_HOLD_LOCK_WAIT", 3*time.Second),
			HoldLockTTL:      getEnvDuration("CHECKOUT_HOLD_LOCK_TTL", 10*time.Second),
			RestoreLockWait:  getEnvDuration("CHECKOUT_RESTORE_LOCK_WAIT", 2*time.Second),
			RestoreLockTTL:   getEnvDuration("CHECKOUT_RESTORE_LOCK_TTL", 5*time.Second),
			DeadlockRetries:  getEnvInt("CHECKOUT_DEADLOCK_RETRIES", 3),
			RetryBackoffBase: getEnvDuration("CHECKOUT_RETRY_BACKOFF_BASE", 100*time.Millisecond),
		},
		Worker: WorkerConfig{
			Concurrency: getEnvInt("WORKER_CONCURRENCY", 20),
			HealthPort:  getEnv("WORKER_HEALTH_PORT", "9999"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate rejects configurations that cannot work.
func (c *Config) Validate() error {
	if c.App.Environment == "production" && c.Database.Password == "" {
		return fmt.Errorf("DB_PASSWORD must be set in production")
	}
	if c.Checkout.HoldTTL <= 0 {
		return fmt.Errorf("CHECKOUT_HOLD_TTL must be positive")
	}
	if c.Checkout.DeadlockRetries < 1 {
		return fmt.Errorf("CHECKOUT_DEADLOCK_RETRIES must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

// Package config loads runtime configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"freightdesk/internal/domain/shipment"
	"freightdesk/internal/infrastructure/storage/postgres"
)

// Prefix is prepended to every variable name, e.g. FREIGHTDESK_DATABASE_URL.
const Prefix = "FREIGHTDESK"

// Config holds runtime configuration for the server and the worker.
type Config struct {
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	HTTPPort         string        `envconfig:"HTTP_PORT" default:"8080"`
	HTTPReadTimeout  time.Duration `envconfig:"HTTP_READ_TIMEOUT" default:"15s"`
	HTTPWriteTimeout time.Duration `envconfig:"HTTP_WRITE_TIMEOUT" default:"30s"`
	HTTPIdleTimeout  time.Duration `envconfig:"HTTP_IDLE_TIMEOUT" default:"60s"`

	DatabaseURL    string        `envconfig:"DATABASE_URL"`
	DBMaxConns     int32         `envconfig:"DB_MAX_CONNS" default:"20"`
	DBMinConns     int32         `envconfig:"DB_MIN_CONNS" default:"2"`
	DBConnLifetime time.Duration `envconfig:"DB_CONN_LIFETIME" default:"1h"`

	// RedisAddr enables the edit lock and the worker queue. Empty disables both.
	RedisAddr string        `envconfig:"REDIS_ADDR"`
	LockTTL   time.Duration `envconfig:"LOCK_TTL" default:"30s"`

	IdempotencyEnabled bool          `envconfig:"IDEMPOTENCY_ENABLED" default:"true"`
	IdempotencyTTL     time.Duration `envconfig:"IDEMPOTENCY_TTL" default:"10m"`

	WorkerPollInterval time.Duration `envconfig:"WORKER_POLL_INTERVAL" default:"2s"`
	WorkerBatchSize    int           `envconfig:"WORKER_BATCH_SIZE" default:"100"`
	WorkerConcurrency  int           `envconfig:"WORKER_CONCURRENCY" default:"5"`

	TransitDaysAir        int    `envconfig:"TRANSIT_DAYS_AIR" default:"12"`
	TransitDaysSea        int    `envconfig:"TRANSIT_DAYS_SEA" default:"45"`
	TransitDaysRail       int    `envconfig:"TRANSIT_DAYS_RAIL" default:"30"`
	TransitDaysMultimodal int    `envconfig:"TRANSIT_DAYS_MULTIMODAL" default:"35"`
	OriginLabel           string `envconfig:"ORIGIN_LABEL"`
}

// Load reads configuration from environment variables and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects configurations the services cannot run with.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("config: DATABASE_URL must be provided"))
	}
	for mode, days := range c.transitDays() {
		if days <= 0 {
			errs = append(errs, fmt.Errorf("config: transit days for %s must be positive, got %d", mode, days))
		}
	}
	if c.WorkerBatchSize <= 0 {
		errs = append(errs, fmt.Errorf("config: WORKER_BATCH_SIZE must be positive, got %d", c.WorkerBatchSize))
	}
	return errors.Join(errs...)
}

// IsDevelopment reports whether the process runs in development mode.
func (c Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c Config) transitDays() map[shipment.DeliveryType]int {
	return map[shipment.DeliveryType]int{
		shipment.DeliveryAir:        c.TransitDaysAir,
		shipment.DeliverySea:        c.TransitDaysSea,
		shipment.DeliveryRail:       c.TransitDaysRail,
		shipment.DeliveryMultimodal: c.TransitDaysMultimodal,
	}
}

// ShipmentPolicy builds the status machine policy.
func (c Config) ShipmentPolicy() shipment.Policy {
	return shipment.Policy{
		TransitDays: c.transitDays(),
		OriginLabel: strings.TrimSpace(c.OriginLabel),
	}
}

// PoolConfig builds the Postgres pool settings.
func (c Config) PoolConfig() postgres.PoolConfig {
	pc := postgres.DefaultPoolConfig(c.DatabaseURL)
	if c.DBMaxConns > 0 {
		pc.MaxConns = c.DBMaxConns
	}
	if c.DBMinConns > 0 {
		pc.MinConns = c.DBMinConns
	}
	if c.DBConnLifetime > 0 {
		pc.MaxConnLifetime = c.DBConnLifetime
	}
	return pc
}

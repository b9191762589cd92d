package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// AppConfig holds the process-level settings shared by the api and worker
// binaries. Store specific settings live next to their store.
type AppConfig struct {
	HTTPAddr          string        `env:"HTTP_ADDR,default=:8080"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
	LogFormat         string        `env:"LOG_FORMAT,default=json"`
	MaxWorkers        int           `env:"MAX_WORKERS,default=10"`
	RetryBaseDelay    time.Duration `env:"RETRY_BASE_DELAY,default=1s"`
	SimulatedJobDelay time.Duration `env:"SIMULATED_JOB_DELAY,default=2s"`
	UploadDir         string        `env:"UPLOAD_DIR,default=media/uploads"`
	MaxUploadBytes    int64         `env:"MAX_UPLOAD_BYTES,default=10485760"`
	ScheduleTimezone  string        `env:"SCHEDULE_TIMEZONE,default=UTC"`
	BeatInterval      time.Duration `env:"BEAT_INTERVAL,default=1s"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT,default=10s"`
	StaleJobTimeout   time.Duration `env:"STALE_JOB_TIMEOUT,default=10m"`

	loc *time.Location
}

// to help with testing
var envProcess = envconfig.Process

func LoadAppConfigFromEnv(ctx context.Context) (*AppConfig, error) {
	var cfg AppConfig
	if err := envProcess(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process env config: %w", err)
	}

	if err := validateAppConfig(&cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	loc, err := time.LoadLocation(cfg.ScheduleTimezone)
	if err != nil {
		return nil, fmt.Errorf("config validation failed: SCHEDULE_TIMEZONE: %w", err)
	}
	cfg.loc = loc

	return &cfg, nil
}

// Location is the zone recurring schedules are evaluated in.
func (c *AppConfig) Location() *time.Location {
	if c.loc == nil {
		return time.UTC
	}
	return c.loc
}

func validateAppConfig(cfg *AppConfig) error {
	var errs []string

	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		errs = append(errs, "HTTP_ADDR is required")
	}
	if cfg.MaxWorkers < 1 {
		errs = append(errs, "MAX_WORKERS must be at least 1")
	}
	if cfg.RetryBaseDelay <= 0 {
		errs = append(errs, "RETRY_BASE_DELAY must be positive")
	}
	if cfg.SimulatedJobDelay < 0 {
		errs = append(errs, "SIMULATED_JOB_DELAY must be non-negative")
	}
	if strings.TrimSpace(cfg.UploadDir) == "" {
		errs = append(errs, "UPLOAD_DIR is required")
	}
	if cfg.MaxUploadBytes <= 0 {
		errs = append(errs, "MAX_UPLOAD_BYTES must be positive")
	}
	if cfg.BeatInterval <= 0 {
		errs = append(errs, "BEAT_INTERVAL must be positive")
	}
	if cfg.RequestTimeout <= 0 {
		errs = append(errs, "REQUEST_TIMEOUT must be positive")
	}
	if cfg.StaleJobTimeout <= 0 {
		errs = append(errs, "STALE_JOB_TIMEOUT must be positive")
	}

	if len(errs) > 0 {
		return fmt.Errorf("%s", strings.Join(errs, "; "))
	}
	return nil
}

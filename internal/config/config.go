// Package config loads server settings from the environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/mmynk/settlements/internal/calculator"
)

type Config struct {
	ListenAddr  string
	DBDriver    string
	DBPath      string
	DatabaseURL string

	JWTSecret     string
	SystemKeyHash string

	PlatformFeeRate float64
	PayoutDelayDays int
	Timezone        string

	ShutdownTimeout time.Duration

	// parseErrs holds malformed values seen by Load, reported by Validate.
	parseErrs []error
}

// Load reads the configuration. Malformed numbers keep their defaults and
// are reported by Validate.
func Load() Config {
	c := Config{
		ListenAddr:    getenv("LISTEN_ADDR", ":8080"),
		DBDriver:      getenv("DB_DRIVER", "sqlite"),
		DBPath:        getenv("DB_PATH", "./data/settlements.db"),
		DatabaseURL:   getenv("DATABASE_URL", ""),
		JWTSecret:     getenv("JWT_SECRET", ""),
		SystemKeyHash: getenv("SYSTEM_KEY_HASH", ""),
		Timezone:      getenv("SETTLEMENT_TIMEZONE", "UTC"),
	}
	c.PlatformFeeRate = c.parseFloat("PLATFORM_FEE_RATE", calculator.DefaultPlatformFeeRate)
	c.PayoutDelayDays = c.parseInt("PAYOUT_DELAY_DAYS", calculator.DefaultPayoutDelayDays)
	c.ShutdownTimeout = c.parseDuration("SHUTDOWN_TIMEOUT", 15*time.Second)
	return c
}

// Validate checks the settings the server cannot start without.
func (c Config) Validate() error {
	errs := append([]error(nil), c.parseErrs...)

	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH is required for the sqlite driver"))
		}
	case "postgres":
		if c.DatabaseURL == "" {
			errs = append(errs, errors.New("DATABASE_URL is required for the postgres driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown DB_DRIVER %q (want sqlite or postgres)", c.DBDriver))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if err := calculator.ValidateRate(c.PlatformFeeRate); err != nil {
		errs = append(errs, err)
	}
	if c.PayoutDelayDays < 0 {
		errs = append(errs, fmt.Errorf("PAYOUT_DELAY_DAYS must be >= 0, got %d", c.PayoutDelayDays))
	}
	if _, err := c.Location(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Location resolves the business timezone.
func (c Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown SETTLEMENT_TIMEZONE %q: %w", c.Timezone, err)
	}
	return loc, nil
}

func getenv(k, d string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return d
}

func (c *Config) parseFloat(key string, d float64) float64 {
	s := os.Getenv(key)
	if s == "" {
		return d
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("%s=%q is not a number", key, s))
		return d
	}
	return v
}

func (c *Config) parseInt(key string, d int) int {
	s := os.Getenv(key)
	if s == "" {
		return d
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("%s=%q is not an integer", key, s))
		return d
	}
	return v
}

func (c *Config) parseDuration(key string, d time.Duration) time.Duration {
	s := os.Getenv(key)
	if s == "" {
		return d
	}
	v, err := time.ParseDuration(s)
	if err != nil {
		c.parseErrs = append(c.parseErrs, fmt.Errorf("%s=%q is not a duration", key, s))
		return d
	}
	return v
}

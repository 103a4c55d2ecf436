// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/okian/bankroll/internal/domain/staking"
	"github.com/shopspring/decimal"
)

// Store kinds.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// Store selects ledger persistence: memory or redis.
	Store         string `koanf:"store"`
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`
	RedisPrefix   string `koanf:"redis_prefix"`

	// ResultsFeed and SignalsFeed are file paths or http(s) URLs.
	ResultsFeed   string `koanf:"results_feed"`
	SignalsFeed   string `koanf:"signals_feed"`
	FeedTimeoutMS int    `koanf:"feed_timeout_ms"`

	// FeedRefreshS is how often feeds are reloaded; 0 disables reloading.
	FeedRefreshS int `koanf:"feed_refresh_s"`

	// FreeSignals is how many leading signals are marked free.
	FreeSignals int `koanf:"free_signals"`

	// SessionIdleTTLS drops in-memory ledger sessions idle this long; 0 keeps
	// them until shutdown.
	SessionIdleTTLS int `koanf:"session_idle_ttl_s"`

	// Staking policy.
	WinRate            float64 `koanf:"win_rate"`
	LowOddThreshold    float64 `koanf:"low_odd_threshold"`
	FixedStakeFraction float64 `koanf:"fixed_stake_fraction"`
	MinimumViableOdd   float64 `koanf:"minimum_viable_odd"`

	// AverageOdd is the odd applied to every historical replay step.
	AverageOdd float64 `koanf:"average_odd"`

	// InitialBankroll seeds new ledgers and replays.
	InitialBankroll float64 `koanf:"initial_bankroll"`

	// FlatStake is the fixed unit of the flat-stake curve.
	FlatStake float64 `koanf:"flat_stake"`
}

// New returns a Config holding the defaults.
func New() *Config {
	sc := staking.DefaultConfig()
	return &Config{
		LogLevel:           "info",
		LogFormat:          "text",
		Addr:               ":9080",
		Store:              StoreMemory,
		RedisAddr:          "localhost:6379",
		RedisPrefix:        "bankroll",
		FeedTimeoutMS:      10_000,
		FeedRefreshS:       300,
		FreeSignals:        2,
		SessionIdleTTLS:    1800,
		WinRate:            sc.WinRate,
		LowOddThreshold:    sc.LowOddThreshold,
		FixedStakeFraction: sc.FixedStakeFraction,
		MinimumViableOdd:   sc.MinimumViableOdd,
		AverageOdd:         1.28,
		InitialBankroll:    100,
		FlatStake:          5,
	}
}

// Staking returns the staking policy part of c.
func (c *Config) Staking() staking.Config {
	return staking.Config{
		WinRate:            c.WinRate,
		LowOddThreshold:    c.LowOddThreshold,
		FixedStakeFraction: c.FixedStakeFraction,
		MinimumViableOdd:   c.MinimumViableOdd,
	}
}

// Bankroll returns InitialBankroll as a decimal amount.
func (c *Config) Bankroll() decimal.Decimal {
	return decimal.NewFromFloat(c.InitialBankroll)
}

// FeedTimeout returns the feed fetch timeout.
func (c *Config) FeedTimeout() time.Duration {
	return time.Duration(c.FeedTimeoutMS) * time.Millisecond
}

// FeedRefresh returns the feed reload interval; zero means never.
func (c *Config) FeedRefresh() time.Duration {
	return time.Duration(c.FeedRefreshS) * time.Second
}

// SessionIdleTTL returns how long an unused session stays in memory.
func (c *Config) SessionIdleTTL() time.Duration {
	return time.Duration(c.SessionIdleTTLS) * time.Second
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Addr) == "" {
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	}
	switch c.Store {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("%w: %w %q", ErrInvalidConfig, ErrUnknownStore, c.Store)
	}
	if c.Store == StoreRedis && c.RedisAddr == "" {
		return fmt.Errorf("%w: redis_addr is required for the redis store", ErrInvalidConfig)
	}
	if c.FeedRefreshS < 0 {
		return fmt.Errorf("%w: feed_refresh_s must not be negative", ErrInvalidConfig)
	}
	if c.SessionIdleTTLS < 0 {
		return fmt.Errorf("%w: session_idle_ttl_s must not be negative", ErrInvalidConfig)
	}
	if c.FreeSignals < 0 {
		return fmt.Errorf("%w: free_signals must not be negative", ErrInvalidConfig)
	}
	if !(c.AverageOdd > 1) {
		return fmt.Errorf("%w: average_odd %v must exceed 1", ErrInvalidConfig, c.AverageOdd)
	}
	if !(c.InitialBankroll > 0) {
		return fmt.Errorf("%w: initial_bankroll must be positive", ErrInvalidConfig)
	}
	if !(c.FlatStake > 0) {
		return fmt.Errorf("%w: flat_stake must be positive", ErrInvalidConfig)
	}
	if err := c.Staking().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}

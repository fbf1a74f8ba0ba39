package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

// Config bounds how aggressively a Client is allowed to hit an
// upstream chain server: request spacing plus the retry/backoff
// envelope applied on top of it.
type Config struct {
	RequestsPerSecond int `json:"requestsPerSecond"`
	MaxRetries        int `json:"maxRetries"`
	InitialBackoffMs  int `json:"initialBackoffMs"`
	MaxBackoffMs      int `json:"maxBackoffMs"`
}

// DefaultConfig is a conservative baseline suitable for scraping a
// retailer's public price feed without tripping its rate limiting.
func DefaultConfig() Config {
	return Config{
		RequestsPerSecond: 2,
		MaxRetries:        3,
		InitialBackoffMs:  100,
		MaxBackoffMs:      30000,
	}
}

// PartialConfig carries optional overrides for a subset of Config's
// fields, for chain-specific tuning layered on top of DefaultConfig.
type PartialConfig struct {
	RequestsPerSecond *int `json:"requestsPerSecond,omitempty"`
	MaxRetries        *int `json:"maxRetries,omitempty"`
	InitialBackoffMs  *int `json:"initialBackoffMs,omitempty"`
	MaxBackoffMs      *int `json:"maxBackoffMs,omitempty"`
}

// WithOverrides applies overrides on top of DefaultConfig, leaving
// any unset field at its default.
func WithOverrides(overrides PartialConfig) Config {
	cfg := DefaultConfig()
	if overrides.RequestsPerSecond != nil {
		cfg.RequestsPerSecond = *overrides.RequestsPerSecond
	}
	if overrides.MaxRetries != nil {
		cfg.MaxRetries = *overrides.MaxRetries
	}
	if overrides.InitialBackoffMs != nil {
		cfg.InitialBackoffMs = *overrides.InitialBackoffMs
	}
	if overrides.MaxBackoffMs != nil {
		cfg.MaxBackoffMs = *overrides.MaxBackoffMs
	}
	return cfg
}

// requestBurst is the token bucket's capacity: one slot, so a caller
// never gets to send two requests back to back regardless of how long
// it's been idle.
const requestBurst = 1

// RateLimiter enforces a minimum spacing between requests, backed by
// golang.org/x/time/rate's token bucket.
type RateLimiter struct {
	config  Config
	limiter *rate.Limiter
}

func newLimiter(config Config) *rate.Limiter {
	return rate.NewLimiter(rate.Limit(config.RequestsPerSecond), requestBurst)
}

// NewRateLimiter builds a RateLimiter governed by config.
func NewRateLimiter(config Config) *RateLimiter {
	return &RateLimiter{config: config, limiter: newLimiter(config)}
}

// NewRateLimiterDefault builds a RateLimiter using DefaultConfig.
func NewRateLimiterDefault() *RateLimiter {
	return NewRateLimiter(DefaultConfig())
}

// GetConfig returns the limiter's current configuration.
func (r *RateLimiter) GetConfig() Config {
	return r.config
}

// SetConfig replaces the limiter's configuration; the new
// RequestsPerSecond takes effect on the very next Throttle call.
func (r *RateLimiter) SetConfig(config Config) {
	r.config = config
	r.limiter.SetLimit(rate.Limit(config.RequestsPerSecond))
}

// Throttle blocks, if necessary, until the token bucket has room for
// another request. Call it immediately before issuing a request.
func (r *RateLimiter) Throttle() error {
	return r.limiter.Wait(context.Background())
}

// Reset discards the limiter's accumulated state, as if it had never
// been used — the bucket starts full again. Intended for tests and for
// resuming after a long idle period where throttling no longer applies.
func (r *RateLimiter) Reset() {
	r.limiter = newLimiter(r.config)
}

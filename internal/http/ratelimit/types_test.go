package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithOverrides_AppliesOnlyProvidedFields(t *testing.T) {
	rps := 10
	cfg := WithOverrides(PartialConfig{RequestsPerSecond: &rps})

	assert.Equal(t, 10, cfg.RequestsPerSecond)
	assert.Equal(t, DefaultConfig().MaxRetries, cfg.MaxRetries)
	assert.Equal(t, DefaultConfig().InitialBackoffMs, cfg.InitialBackoffMs)
}

func TestRateLimiter_ThrottleEnforcesMinimumInterval(t *testing.T) {
	r := NewRateLimiter(Config{RequestsPerSecond: 20})

	start := time.Now()
	require.NoError(t, r.Throttle())
	require.NoError(t, r.Throttle())
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 50*time.Millisecond, "second call must wait out the 1/20s interval")
}

func TestRateLimiter_ResetClearsLastRequest(t *testing.T) {
	r := NewRateLimiter(Config{RequestsPerSecond: 1})
	assert.NoError(t, r.Throttle())
	r.Reset()

	start := time.Now()
	assert.NoError(t, r.Throttle())
	assert.Less(t, time.Since(start), 100*time.Millisecond, "after Reset the next Throttle should not wait")
}

func TestRateLimiter_SetConfigUpdatesGetConfig(t *testing.T) {
	r := NewRateLimiterDefault()
	r.SetConfig(Config{RequestsPerSecond: 99})
	assert.Equal(t, 99, r.GetConfig().RequestsPerSecond)
}

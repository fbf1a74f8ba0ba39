package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestConfig_WithDefaultsFillsZeroValues(t *testing.T) {
	cfg := Config{}.withDefaults()
	assert.Equal(t, int32(10), cfg.MaxConns)
	assert.Equal(t, time.Hour, cfg.MaxConnLifetime)
	assert.Equal(t, 30*time.Minute, cfg.MaxConnIdleTime)
}

func TestConfig_WithDefaultsPreservesExplicitValues(t *testing.T) {
	cfg := Config{MaxConns: 5, MaxConnLifetime: time.Minute, MaxConnIdleTime: time.Second}.withDefaults()
	assert.Equal(t, int32(5), cfg.MaxConns)
	assert.Equal(t, time.Minute, cfg.MaxConnLifetime)
	assert.Equal(t, time.Second, cfg.MaxConnIdleTime)
}

func TestConnect_InvalidConnectionStringReturnsParseError(t *testing.T) {
	Close() // ensure a clean singleton regardless of prior tests in this package
	defer Close()

	err := Connect(context.Background(), "not a valid postgres url", Config{})
	assert.Error(t, err)
	assert.Nil(t, Pool())
}

func TestPing_WithoutConnectReturnsError(t *testing.T) {
	Close()
	defer Close()

	err := Ping(context.Background())
	assert.Error(t, err)
}

func TestClose_IsSafeWhenNeverConnected(t *testing.T) {
	Close()
	assert.Nil(t, Pool())
	Close() // calling twice must not panic
}

// Package config loads the module's narrow runtime configuration
// surface: a database URI, required only when DB writes are enabled,
// and a time zone that only decides which calendar day "today" is. No
// other runtime configuration exists.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the whole of this module's runtime configuration.
type Config struct {
	// DatabaseURL is the Postgres connection string the reconciler
	// connects with. Required only when a crawl or history run asks
	// for DB reconciliation; missing it is fatal before any work
	// starts.
	DatabaseURL string `mapstructure:"database_url"`

	// TimeZone decides which calendar day "today" is when no date is
	// given on the command line, and is the zone explicit date flags
	// are read in (see Location; an unknown name means UTC). Stored
	// dates are calendar dates with no zone attached, and the value is
	// not written to the logs.
	TimeZone string `mapstructure:"timezone"`
}

// Load reads configuration from the environment (prefix PRICEHIST_,
// e.g. PRICEHIST_DATABASE_URL) and from a config file at path if one
// is given; an empty path is not an error, since config is optional.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("pricehist")
	v.AutomaticEnv()
	v.SetDefault("timezone", "Europe/Zagreb")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: failed to read %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: failed to unmarshal: %w", err)
	}
	return cfg, nil
}

// Location resolves TimeZone, falling back to UTC on an unknown name.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.TimeZone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// ErrMissingDatabaseURL is returned when DB writes were requested but
// no database URI is configured.
var ErrMissingDatabaseURL = fmt.Errorf("config: database URL is required when DB writes are enabled")

// RequireDatabaseURL returns the configured DatabaseURL, or
// ErrMissingDatabaseURL if it is empty.
func (c Config) RequireDatabaseURL() (string, error) {
	if c.DatabaseURL == "" {
		return "", ErrMissingDatabaseURL
	}
	return c.DatabaseURL, nil
}

// Package base provides the shared chain-adapter scaffolding every
// concrete adapter in internal/adapters/chains builds on: rate-limited
// HTTP fetch, filename-based store-identifier extraction, and the
// discover-then-parse loop that turns a day's worth of discovered
// upstream files into domain.Stores. A single configurable Adapter
// type has its Discover/Parse steps supplied as function values,
// rather than a per-format subtype hierarchy.
package base

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/kosarica/pricehist/internal/domain"
	kohttp "github.com/kosarica/pricehist/internal/http"
	"github.com/kosarica/pricehist/internal/http/ratelimit"
)

// DiscoveredFile is one upstream file an adapter's Discover step
// found, ready to be downloaded and parsed.
type DiscoveredFile struct {
	URL      string
	Filename string
	// StoreID, when non-empty, overrides filename-based extraction
	// (used by portal_id and national resolution chains whose store
	// identity doesn't live in the filename).
	StoreID string
}

// Discoverer finds the set of files a chain published for date.
type Discoverer func(ctx context.Context, client *kohttp.Client, date time.Time) ([]DiscoveredFile, error)

// ContentParser turns one downloaded file's bytes into Products.
type ContentParser func(content []byte) ([]domain.Product, error)

// Config wires one chain's adapter.
type Config struct {
	Slug    string
	Name    string
	BaseURL string

	// FilenamePrefixPatterns strip a chain's store-type/date boilerplate
	// prefix off a filename before what remains is treated as the
	// store identifier. Matched in order; first match wins.
	FilenamePrefixPatterns []*regexp.Regexp

	Discover Discoverer
	Parse    ContentParser

	RateLimit ratelimit.Config
}

// Adapter is a chains.Source built from a Config. It satisfies the
// chains.Source interface: Slug() and Fetch(ctx, date).
type Adapter struct {
	cfg    Config
	client *kohttp.Client
}

// New builds an Adapter, defaulting RateLimit if unset.
func New(cfg Config) *Adapter {
	rl := cfg.RateLimit
	if rl.RequestsPerSecond == 0 {
		rl = ratelimit.DefaultConfig()
	}
	return &Adapter{
		cfg:    cfg,
		client: kohttp.NewClient(rl),
	}
}

// Slug implements chains.Source.
func (a *Adapter) Slug() string { return a.cfg.Slug }

// Fetch implements chains.Source. Per the Source contract, Fetch
// never returns an error: any failure is logged and yields an empty
// slice so one broken chain doesn't block the others in a pipeline
// run.
func (a *Adapter) Fetch(ctx context.Context, date time.Time) []domain.Store {
	logger := log.With().Str("chain", a.cfg.Slug).Time("date", date).Logger()

	files, err := a.cfg.Discover(ctx, a.client, date)
	if err != nil {
		logger.Error().Err(err).Msg("chain discovery failed")
		return nil
	}
	if len(files) == 0 {
		logger.Warn().Msg("chain discovery found no files for date")
		return nil
	}

	stores := make([]domain.Store, 0, len(files))
	for _, f := range files {
		content, err := a.client.GetBytes(f.URL)
		if err != nil {
			logger.Error().Err(err).Str("url", f.URL).Msg("failed to download chain file")
			continue
		}

		products, err := a.cfg.Parse(content)
		if err != nil {
			logger.Error().Err(err).Str("url", f.URL).Msg("failed to parse chain file")
			continue
		}
		if len(products) == 0 {
			logger.Warn().Str("url", f.URL).Msg("chain file parsed to zero products")
			continue
		}

		storeID := f.StoreID
		if storeID == "" {
			storeID = a.ExtractStoreIdentifier(f.Filename)
		}

		store, err := domain.NewStore(domain.Store{
			Chain:    a.cfg.Slug,
			StoreID:  storeID,
			Name:     a.cfg.Name,
			Products: products,
		})
		if err != nil {
			logger.Error().Err(err).Str("url", f.URL).Msg("invalid store built from chain file")
			continue
		}
		stores = append(stores, store)
	}
	return stores
}

// ExtractStoreIdentifier strips any configured filename prefix and
// file extension, leaving the store-identifying remainder of a
// filename.
func (a *Adapter) ExtractStoreIdentifier(filename string) string {
	name := filename
	if idx := strings.LastIndex(name, "."); idx > 0 {
		name = name[:idx]
	}
	for _, pat := range a.cfg.FilenamePrefixPatterns {
		if loc := pat.FindStringIndex(name); loc != nil && loc[0] == 0 {
			name = name[loc[1]:]
			break
		}
	}
	name = strings.Trim(name, "_- ")
	if name == "" {
		return filename
	}
	return name
}

// HTTPClient exposes the adapter's rate-limited client to Discoverer
// functions defined alongside each concrete chain adapter.
func (a *Adapter) HTTPClient() *kohttp.Client { return a.client }

// ErrNoFilesForDate is returned by Discoverer implementations when an
// upstream publishes nothing for the requested date — distinct from a
// transport error, since callers may want to treat "nothing yet
// published" as non-fatal.
var ErrNoFilesForDate = fmt.Errorf("base: no files published for requested date")

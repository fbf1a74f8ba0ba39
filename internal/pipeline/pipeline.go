// Package pipeline drives one date's crawl end to end: fetch every
// chain, write canonical CSVs, optionally reconcile into Postgres, and
// bundle the result into the dated ZIP.
package pipeline

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/kosarica/pricehist/internal/archive"
	"github.com/kosarica/pricehist/internal/chains"
	"github.com/kosarica/pricehist/internal/csvio"
	"github.com/kosarica/pricehist/internal/domain"
	"github.com/kosarica/pricehist/internal/observability"
	"github.com/kosarica/pricehist/internal/reconcile"
)

// ChainStats is the per-chain outcome record the driver collects.
type ChainStats struct {
	Chain           string
	Elapsed         time.Duration
	Stores          int
	DistinctProducts int
	PriceObservations int
	Err             error
}

// Result is returned by Run/RunFromCSV.
type Result struct {
	RunID    string
	ZipPath  string
	DateDir  string
	Chains   []ChainStats
}

// Driver orchestrates chains for one date.
type Driver struct {
	Registry    *chains.Registry
	Reconciler  *reconcile.Reconciler
	// MaxConcurrency bounds concurrent chain processing; 0 or 1 means
	// strictly sequential (the spec's default scheduling model).
	MaxConcurrency int
}

func New(registry *chains.Registry, reconciler *reconcile.Reconciler) *Driver {
	return &Driver{Registry: registry, Reconciler: reconciler}
}

// Run fetches chainSlugs (or every registered slug if empty) for date,
// writes their canonical CSVs under root/<date>/<chain>/, optionally
// reconciles each chain into the database, and produces root/<date>.zip.
func (d *Driver) Run(ctx context.Context, root string, date time.Time, chainSlugs []string, processDB bool) (Result, error) {
	runID := uuid.NewString()
	dateDir := filepath.Join(root, date.Format("2006-01-02"))
	if err := os.MkdirAll(dateDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("pipeline: create date dir: %w", err)
	}

	if len(chainSlugs) == 0 {
		chainSlugs = d.Registry.Slugs()
	}

	process := func(slug string) ChainStats {
		return d.processChain(ctx, runID, dateDir, date, slug, processDB, func(slug string) []domain.Store {
			src, ok := d.Registry.Get(slug)
			if !ok {
				log.Warn().Str("run_id", runID).Str("chain", slug).Msg("no source registered, skipping")
				return nil
			}
			return src.Fetch(ctx, date)
		})
	}

	stats, err := d.runAll(ctx, chainSlugs, process)
	if err != nil {
		return Result{}, err
	}

	zipPath, err := d.finalize(dateDir, root, date)
	if err != nil {
		return Result{}, err
	}

	return Result{RunID: runID, ZipPath: zipPath, DateDir: dateDir, Chains: stats}, nil
}

// RunFromCSV is the CSV-mode variant: the Source step is replaced with
// the CSV Reader rooted at csvDir/<date>/<chain>/. Missing per-chain
// inputs are skipped, not errors.
func (d *Driver) RunFromCSV(ctx context.Context, root, csvDir string, date time.Time, chainSlugs []string, processDB bool) (Result, error) {
	runID := uuid.NewString()
	dateDir := filepath.Join(root, date.Format("2006-01-02"))
	if err := os.MkdirAll(dateDir, 0o755); err != nil {
		return Result{}, fmt.Errorf("pipeline: create date dir: %w", err)
	}
	if len(chainSlugs) == 0 {
		chainSlugs = d.Registry.Slugs()
	}
	inputDir := filepath.Join(csvDir, date.Format("2006-01-02"))

	process := func(slug string) ChainStats {
		return d.processChain(ctx, runID, dateDir, date, slug, processDB, func(slug string) []domain.Store {
			stores, err := csvio.ReadChain(slug, inputDir)
			if err != nil {
				log.Warn().Str("run_id", runID).Str("chain", slug).Err(err).Msg("csv input missing or unreadable, skipping")
				return nil
			}
			return stores
		})
	}

	stats, err := d.runAll(ctx, chainSlugs, process)
	if err != nil {
		return Result{}, err
	}

	zipPath, err := d.finalize(dateDir, root, date)
	if err != nil {
		return Result{}, err
	}

	return Result{RunID: runID, ZipPath: zipPath, DateDir: dateDir, Chains: stats}, nil
}

func (d *Driver) runAll(ctx context.Context, chainSlugs []string, process func(string) ChainStats) ([]ChainStats, error) {
	stats := make([]ChainStats, len(chainSlugs))

	if d.MaxConcurrency <= 1 {
		for i, slug := range chainSlugs {
			stats[i] = process(slug)
		}
		return stats, nil
	}

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(d.MaxConcurrency)
	for i, slug := range chainSlugs {
		i, slug := i, slug
		g.Go(func() error {
			stats[i] = process(slug)
			return nil
		})
	}
	_ = g.Wait() // per-chain failures are contained in ChainStats.Err, never abort the run
	return stats, nil
}

func (d *Driver) processChain(ctx context.Context, runID, dateDir string, date time.Time, slug string, processDB bool, fetch func(string) []domain.Store) ChainStats {
	start := time.Now()
	stat := ChainStats{Chain: slug}

	stores := fetch(slug)
	if len(stores) == 0 {
		log.Info().Str("run_id", runID).Str("chain", slug).Msg("empty result, skipping")
		stat.Elapsed = time.Since(start)
		return stat
	}

	stat.Stores = len(stores)
	products := make(map[string]bool)
	for _, s := range stores {
		for _, p := range s.Products {
			products[domain.EffectiveBarcode(slug, p.ProductID, p.Barcode)] = true
			stat.PriceObservations++
		}
	}
	stat.DistinctProducts = len(products)

	chainDir := filepath.Join(dateDir, slug)
	if err := os.MkdirAll(chainDir, 0o755); err != nil {
		stat.Err = fmt.Errorf("pipeline: create chain dir: %w", err)
		log.Error().Str("run_id", runID).Str("chain", slug).Err(stat.Err).Msg("chain failed")
		stat.Elapsed = time.Since(start)
		return stat
	}
	if err := csvio.WriteChain(chainDir, stores); err != nil {
		stat.Err = fmt.Errorf("pipeline: write csv: %w", err)
		log.Error().Str("run_id", runID).Str("chain", slug).Err(stat.Err).Msg("chain failed")
		stat.Elapsed = time.Since(start)
		return stat
	}

	if processDB && d.Reconciler != nil {
		rstats, err := d.Reconciler.Reconcile(ctx, date, slug, stores)
		if err != nil {
			stat.Err = fmt.Errorf("pipeline: reconcile: %w", err)
			log.Error().Str("run_id", runID).Str("chain", slug).Err(stat.Err).Msg("chain failed")
			observability.DbErrors.WithLabelValues(slug).Inc()
			stat.Elapsed = time.Since(start)
			observability.ObserveChainFetch(slug, stat.Elapsed, stat.Err)
			return stat
		}
		log.Info().Str("run_id", runID).Str("chain", slug).
			Int("prices_added", rstats.PricesAdded).Int("prices_updated", rstats.PricesUpdated).
			Int("duplicates_skipped", rstats.DuplicatesSkipped).Msg("reconciled")
		observability.RowsReconciled.WithLabelValues(slug, "insert").Add(float64(rstats.PricesAdded))
		observability.RowsReconciled.WithLabelValues(slug, "update").Add(float64(rstats.PricesUpdated))
		observability.DuplicatesSkipped.WithLabelValues(slug).Add(float64(rstats.DuplicatesSkipped))
	}

	stat.Elapsed = time.Since(start)
	observability.ObserveChainFetch(slug, stat.Elapsed, stat.Err)
	return stat
}

func (d *Driver) finalize(dateDir, root string, date time.Time) (string, error) {
	if err := archive.WriteNotice(dateDir); err != nil {
		return "", fmt.Errorf("pipeline: write notice: %w", err)
	}
	zipPath := filepath.Join(root, date.Format("2006-01-02")+".zip")
	if err := archive.Build(dateDir, zipPath); err != nil {
		return "", fmt.Errorf("pipeline: build archive: %w", err)
	}
	return zipPath, nil
}

package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kosarica/pricehist/internal/adapters/registry"
	"github.com/kosarica/pricehist/internal/chains"
	"github.com/kosarica/pricehist/internal/db"
	"github.com/kosarica/pricehist/internal/pipeline"
	"github.com/kosarica/pricehist/internal/reconcile"
)

func newCrawlCmd() *cobra.Command {
	var (
		dateStr     string
		chainsFlag  []string
		storeToDB   bool
		dropDB      bool
		fromCSVDir  string
		listChains  bool
	)

	cmd := &cobra.Command{
		Use:   "crawl <output_root>",
		Short: "Crawl one day's chain price lists into a dated CSV archive",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromCSVDir != "" && (listChains || dropDB) {
				return fmt.Errorf("crawl: --from-csv-dir forbids -l and --dropdb")
			}
			if listChains {
				reg := chains.NewRegistry()
				registry.InitializeDefaultAdapters(reg)
				for _, slug := range reg.Slugs() {
					fmt.Println(slug)
				}
				return nil
			}

			if fromCSVDir != "" && len(args) == 0 {
				return fmt.Errorf("crawl: --from-csv-dir requires <output_root>")
			}

			ctx := cmd.Context()

			if storeToDB || dropDB {
				dbURL, err := cfg.RequireDatabaseURL()
				if err != nil {
					return err
				}
				if err := db.Connect(ctx, dbURL, db.Config{}); err != nil {
					return fmt.Errorf("crawl: connect to database: %w", err)
				}
				defer db.Close()
			}

			if dropDB {
				if err := dropAllTables(ctx); err != nil {
					return fmt.Errorf("crawl: dropdb: %w", err)
				}
				log.Info().Msg("database schema dropped")
				if len(args) == 0 {
					return nil
				}
			}

			if len(args) == 0 {
				return fmt.Errorf("crawl: <output_root> is required")
			}
			outputRoot := args[0]

			date, err := parseDateFlag(dateStr)
			if err != nil {
				return err
			}

			reg := chains.NewRegistry()
			registry.InitializeDefaultAdapters(reg)

			var reconciler *reconcile.Reconciler
			if storeToDB {
				if err := reconcile.EnsureSchema(ctx, db.Pool()); err != nil {
					return fmt.Errorf("crawl: ensure schema: %w", err)
				}
				reconciler = reconcile.New(db.Pool())
			}

			driver := pipeline.New(reg, reconciler)

			var result pipeline.Result
			if fromCSVDir != "" {
				result, err = driver.RunFromCSV(ctx, outputRoot, fromCSVDir, date, chainsFlag, storeToDB)
			} else {
				result, err = driver.Run(ctx, outputRoot, date, chainsFlag, storeToDB)
			}
			if err != nil {
				return fmt.Errorf("crawl: %w", err)
			}

			for _, cs := range result.Chains {
				if cs.Err != nil {
					log.Warn().Str("chain", cs.Chain).Err(cs.Err).Msg("chain failed")
				}
			}
			fmt.Println(result.ZipPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&dateStr, "date", "d", "", "date to crawl, YYYY-MM-DD (default: today)")
	cmd.Flags().StringSliceVarP(&chainsFlag, "chains", "c", nil, "comma-separated chain slugs (default: every registered chain)")
	cmd.Flags().BoolVarP(&storeToDB, "store", "s", false, "reconcile the day's output into the database")
	cmd.Flags().BoolVar(&dropDB, "dropdb", false, "drop the reconciler's schema before (optionally) crawling")
	cmd.Flags().StringVar(&fromCSVDir, "from-csv-dir", "", "read from existing canonical CSVs instead of crawling upstream")
	cmd.Flags().BoolVarP(&listChains, "list-chains", "l", false, "print registered chain slugs and exit")

	return cmd
}

func dropAllTables(ctx context.Context) error {
	_, err := db.Pool().Exec(ctx, `DROP TABLE IF EXISTS product_prices, store_products, products, stores, chains CASCADE`)
	return err
}

package main

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/kosarica/pricehist/internal/adapters/registry"
	"github.com/kosarica/pricehist/internal/chains"
	"github.com/kosarica/pricehist/internal/db"
	"github.com/kosarica/pricehist/internal/history"
	"github.com/kosarica/pricehist/internal/pipeline"
	"github.com/kosarica/pricehist/internal/reconcile"
)

func newHistoryCmd() *cobra.Command {
	var (
		startStr   string
		endStr     string
		chainsFlag []string
	)

	cmd := &cobra.Command{
		Use:   "history <output_root>",
		Short: "Backfill a date range, skipping days already crawled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outputRoot := args[0]
			ctx := cmd.Context()

			start := history.DefaultStartDate
			if startStr != "" {
				d, err := parseDateFlag(startStr)
				if err != nil {
					return err
				}
				start = d
			}
			end, err := parseDateFlag(endStr)
			if err != nil {
				return err
			}

			reg := chains.NewRegistry()
			registry.InitializeDefaultAdapters(reg)

			var reconciler *reconcile.Reconciler
			if dbURL, derr := cfg.RequireDatabaseURL(); derr == nil {
				if err := db.Connect(ctx, dbURL, db.Config{}); err != nil {
					return fmt.Errorf("history: connect to database: %w", err)
				}
				defer db.Close()
				if err := reconcile.EnsureSchema(ctx, db.Pool()); err != nil {
					return fmt.Errorf("history: ensure schema: %w", err)
				}
				reconciler = reconcile.New(db.Pool())
			}

			driver := pipeline.New(reg, reconciler)
			results := history.RunRange(ctx, driver, outputRoot, start, end, chainsFlag)

			var firstErr error
			for _, r := range results {
				switch {
				case r.Skipped:
					log.Info().Time("date", r.Date).Msg("already exists, skipped")
				case r.Err != nil:
					log.Error().Time("date", r.Date).Err(r.Err).Msg("day failed")
					if firstErr == nil {
						firstErr = r.Err
					}
				default:
					fmt.Println(r.Result.ZipPath)
				}
			}
			if firstErr != nil {
				return fmt.Errorf("history: %w", firstErr)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&startStr, "start", "s", "", "start date, YYYY-MM-DD (default: 2025-05-02)")
	cmd.Flags().StringVarP(&endStr, "end", "e", "", "end date, YYYY-MM-DD (default: today)")
	cmd.Flags().StringSliceVarP(&chainsFlag, "chains", "c", nil, "comma-separated chain slugs (default: every registered chain)")

	return cmd
}

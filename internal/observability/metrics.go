// Package observability exposes this module's Prometheus counters:
// chains processed, rows reconciled, and DB errors, served by the
// read-only HTTP service's /metrics endpoint.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ChainsProcessed counts completed chain fetches by slug and
	// outcome ("ok" or "error").
	ChainsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricehist_chains_processed_total",
		Help: "Total chain fetch attempts by chain and outcome",
	}, []string{"chain", "outcome"})

	// ChainFetchDuration tracks wall-clock time per chain fetch.
	ChainFetchDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "pricehist_chain_fetch_duration_seconds",
		Help:    "Time taken to fetch and process one chain",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 120, 300},
	}, []string{"chain"})

	// RowsReconciled counts product_prices rows inserted or updated by
	// the reconciler, by chain and action ("insert" or "update").
	RowsReconciled = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricehist_rows_reconciled_total",
		Help: "Total price rows inserted or updated by the reconciler",
	}, []string{"chain", "action"})

	// DuplicatesSkipped counts within-batch duplicate rows dropped
	// before reconciliation.
	DuplicatesSkipped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricehist_duplicates_skipped_total",
		Help: "Total within-batch duplicate (store_id, product_id) rows skipped",
	}, []string{"chain"})

	// DbErrors counts reconciliation failures by chain: the transaction
	// is rolled back and the driver continues to the next chain.
	DbErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pricehist_db_errors_total",
		Help: "Total reconciliation failures by chain",
	}, []string{"chain"})
)

// ObserveChainFetch records one chain's outcome and elapsed time.
func ObserveChainFetch(chain string, elapsed time.Duration, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	ChainsProcessed.WithLabelValues(chain, outcome).Inc()
	ChainFetchDuration.WithLabelValues(chain).Observe(elapsed.Seconds())
}

// Package reconcile implements the DB Reconciler: the transactional
// component that materializes one (date, chain, stores) batch into the
// persistent schema, idempotently and with sparse price-history change
// detection.
//
// The transactional mechanics are one pgx.Tx per call, an advisory
// lock keyed by the chain slug, and layered select-then-insert upsert
// passes over chains, products, stores, and store products before a
// final sparse price-history pass. Only the product insert carries an
// ON CONFLICT clause (DO NOTHING).
package reconcile

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kosarica/pricehist/internal/domain"
)

var tracer = otel.Tracer("github.com/kosarica/pricehist/internal/reconcile")

//go:embed schema.sql
var schemaSQL string

// EnsureSchema creates every table and index the reconciler needs, if
// they do not already exist.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range strings.Split(schemaSQL, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("reconcile: ensure schema: %w", err)
		}
	}
	return nil
}

// Stats summarizes one Reconcile call for the pipeline's per-chain
// stats record.
type Stats struct {
	ChainCreated         bool
	ProductsCreated      int
	StoresCreated        int
	StoresUpdated        int
	StoreProductsCreated int
	PricesAdded          int
	PricesUpdated        int
	DuplicatesSkipped    int
	RowsSkippedNoPrice   int
}

// Reconciler materializes batches into Postgres.
type Reconciler struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Reconciler {
	return &Reconciler{pool: pool}
}

// Reconcile runs every upsert pass listed in the package doc inside a
// single transaction. Any error rolls back the whole transaction; the
// reconciler is idempotent: reconciling identical input twice yields
// no further changes on the second call.
func (r *Reconciler) Reconcile(ctx context.Context, date time.Time, chainSlug string, stores []domain.Store) (Stats, error) {
	ctx, span := tracer.Start(ctx, "reconcile.Reconcile",
		trace.WithAttributes(
			attribute.String("chain", chainSlug),
			attribute.String("date", date.Format("2006-01-02")),
			attribute.Int("stores", len(stores)),
		),
	)
	defer span.End()

	var stats Stats

	err := pgx.BeginTxFunc(ctx, r.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, chainSlug); err != nil {
			return fmt.Errorf("advisory lock: %w", err)
		}

		chainID, created, err := upsertChain(ctx, tx, chainSlug)
		if err != nil {
			return fmt.Errorf("upsert chain: %w", err)
		}
		stats.ChainCreated = created

		productsCreated, err := upsertProducts(ctx, tx, chainSlug, stores)
		if err != nil {
			return fmt.Errorf("upsert products: %w", err)
		}
		stats.ProductsCreated = productsCreated

		storeIDs, storesCreated, storesUpdated, err := upsertStores(ctx, tx, chainID, stores)
		if err != nil {
			return fmt.Errorf("upsert stores: %w", err)
		}
		stats.StoresCreated = storesCreated
		stats.StoresUpdated = storesUpdated

		spCreated, duplicates, noPriceSkips, err := upsertStoreProductsAndPrices(ctx, tx, chainSlug, date, stores, storeIDs, &stats)
		if err != nil {
			return fmt.Errorf("upsert store products/prices: %w", err)
		}
		stats.StoreProductsCreated = spCreated
		stats.DuplicatesSkipped = duplicates
		stats.RowsSkippedNoPrice = noPriceSkips

		return nil
	})
	if err != nil {
		span.RecordError(err)
		return Stats{}, fmt.Errorf("reconcile: %w", err)
	}
	return stats, nil
}

func upsertChain(ctx context.Context, tx pgx.Tx, slug string) (int, bool, error) {
	var id int
	err := tx.QueryRow(ctx, `SELECT id FROM chains WHERE slug = $1`, slug).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, false, err
	}
	err = tx.QueryRow(ctx, `INSERT INTO chains (name, slug) VALUES ($1, $1) RETURNING id`, slug).Scan(&id)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// upsertProducts creates one Product row per unique effective barcode
// not already in the catalog, carrying the first-seen descriptive
// fields. Existing products are never updated here: descriptive-field
// upgrades on a later sighting are not implemented.
func upsertProducts(ctx context.Context, tx pgx.Tx, chainSlug string, stores []domain.Store) (int, error) {
	type firstSeen struct {
		barcode, name, brand, category, unit, quantity string
	}
	seenOrder := make([]string, 0)
	seen := make(map[string]firstSeen)

	for _, s := range stores {
		for _, p := range s.Products {
			barcode := domain.EffectiveBarcode(chainSlug, p.ProductID, p.Barcode)
			if _, ok := seen[barcode]; ok {
				continue
			}
			seen[barcode] = firstSeen{barcode, p.Name, p.Brand, p.Category, p.Unit, p.Quantity}
			seenOrder = append(seenOrder, barcode)
		}
	}
	if len(seenOrder) == 0 {
		return 0, nil
	}

	existing := make(map[string]bool)
	rows, err := tx.Query(ctx, `SELECT barcode FROM products WHERE barcode = ANY($1)`, seenOrder)
	if err != nil {
		return 0, err
	}
	for rows.Next() {
		var b string
		if err := rows.Scan(&b); err != nil {
			rows.Close()
			return 0, err
		}
		existing[b] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	created := 0
	for _, barcode := range seenOrder {
		if existing[barcode] {
			continue
		}
		fs := seen[barcode]
		_, err := tx.Exec(ctx, `
			INSERT INTO products (barcode, ext_name, ext_brand, ext_category, ext_unit, ext_quantity)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (barcode) DO NOTHING`,
			fs.barcode, fs.name, fs.brand, fs.category, fs.unit, fs.quantity)
		if err != nil {
			return created, err
		}
		created++
	}
	return created, nil
}

// upsertStores creates or descriptively-updates stores for this chain
// and returns a (chain, store_id) -> DB id map for every store in the
// batch.
func upsertStores(ctx context.Context, tx pgx.Tx, chainID int, stores []domain.Store) (map[string]int, int, int, error) {
	existing := make(map[string]int)
	rows, err := tx.Query(ctx, `SELECT id, ext_store_id FROM stores WHERE chain_id = $1`, chainID)
	if err != nil {
		return nil, 0, 0, err
	}
	for rows.Next() {
		var id int
		var extID string
		if err := rows.Scan(&id, &extID); err != nil {
			rows.Close()
			return nil, 0, 0, err
		}
		existing[extID] = id
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, 0, 0, err
	}

	ids := make(map[string]int, len(stores))
	created, updated := 0, 0
	for _, s := range stores {
		if id, ok := existing[s.StoreID]; ok {
			_, err := tx.Exec(ctx, `
				UPDATE stores SET ext_name=$2, ext_store_type=$3, ext_street_address=$4, ext_city=$5, ext_zipcode=$6
				WHERE id = $1`,
				id, s.Name, s.StoreType, s.StreetAddress, s.City, s.Zipcode)
			if err != nil {
				return nil, 0, 0, err
			}
			ids[s.StoreID] = id
			updated++
			continue
		}

		var id int
		err := tx.QueryRow(ctx, `
			INSERT INTO stores (chain_id, ext_store_id, ext_name, ext_store_type, ext_street_address, ext_city, ext_zipcode)
			VALUES ($1, $2, $3, $4, $5, $6, $7) RETURNING id`,
			chainID, s.StoreID, s.Name, s.StoreType, s.StreetAddress, s.City, s.Zipcode).Scan(&id)
		if err != nil {
			return nil, 0, 0, err
		}
		existing[s.StoreID] = id
		ids[s.StoreID] = id
		created++
	}
	return ids, created, updated, nil
}

type priceRow struct {
	storeProductID int
	validDate      time.Time
	price          string
	unitPrice      *string
	bestPrice30    *string
	anchorPrice    *string
	specialPrice   *string
}

func upsertStoreProductsAndPrices(ctx context.Context, tx pgx.Tx, chainSlug string, date time.Time, stores []domain.Store, storeIDs map[string]int, stats *Stats) (int, int, int, error) {
	touchedIDs := make([]int, 0, len(stores))
	for _, s := range stores {
		touchedIDs = append(touchedIDs, storeIDs[s.StoreID])
	}

	existingSPByKey := make(map[string]int)
	if len(touchedIDs) > 0 {
		rows, err := tx.Query(ctx, `SELECT id, store_id, ext_product_id FROM store_products WHERE store_id = ANY($1)`, touchedIDs)
		if err != nil {
			return 0, 0, 0, err
		}
		for rows.Next() {
			var id, storeID int
			var extProductID string
			if err := rows.Scan(&id, &storeID, &extProductID); err != nil {
				rows.Close()
				return 0, 0, 0, err
			}
			existingSPByKey[fmt.Sprintf("%d:%s", storeID, extProductID)] = id
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return 0, 0, 0, err
		}
	}

	spCreated := 0
	duplicates := 0
	noPriceSkips := 0

	// storeProductID -> []input product (post-dedup), preserving per-store processing.
	type touchedProduct struct {
		storeProductID int
		product        domain.Product
	}
	byStore := make(map[int][]touchedProduct)

	for _, s := range stores {
		sid := storeIDs[s.StoreID]
		seenInBatch := make(map[string]bool)

		for _, p := range s.Products {
			if seenInBatch[p.ProductID] {
				duplicates++
				log.Warn().Str("chain", chainSlug).Str("store_id", s.StoreID).Str("product_id", p.ProductID).
					Msg("duplicate (store_id, product_id) in batch, skipping")
				continue
			}
			seenInBatch[p.ProductID] = true

			key := fmt.Sprintf("%d:%s", sid, p.ProductID)
			spID, ok := existingSPByKey[key]
			if !ok {
				effectiveBarcode := domain.EffectiveBarcode(chainSlug, p.ProductID, p.Barcode)
				err := tx.QueryRow(ctx, `
					INSERT INTO store_products (store_id, barcode, ext_product_id)
					VALUES ($1, $2, $3) RETURNING id`,
					sid, effectiveBarcode, p.ProductID).Scan(&spID)
				if err != nil {
					return spCreated, duplicates, noPriceSkips, err
				}
				existingSPByKey[key] = spID
				spCreated++
			}

			byStore[sid] = append(byStore[sid], touchedProduct{storeProductID: spID, product: p})
		}
	}

	for _, products := range byStore {
		spIDs := make([]int, 0, len(products))
		for _, tp := range products {
			spIDs = append(spIDs, tp.storeProductID)
		}

		latest, err := loadLatestPrices(ctx, tx, spIDs, date)
		if err != nil {
			return spCreated, duplicates, noPriceSkips, err
		}

		for _, tp := range products {
			p := tp.product
			last, hasLast := latest[tp.storeProductID]

			if hasLast && sameDate(last.validDate, date) {
				if priceFieldsDiffer(last, p) {
					if err := updatePriceRow(ctx, tx, last, p); err != nil {
						return spCreated, duplicates, noPriceSkips, err
					}
					stats.PricesUpdated++
				}
				continue
			}

			if !hasLast || priceFieldsDiffer(last, p) {
				if err := insertPriceRow(ctx, tx, tp.storeProductID, date, p); err != nil {
					return spCreated, duplicates, noPriceSkips, err
				}
				stats.PricesAdded++
			}
		}
	}

	return spCreated, duplicates, noPriceSkips, nil
}

func loadLatestPrices(ctx context.Context, tx pgx.Tx, storeProductIDs []int, date time.Time) (map[int]priceRow, error) {
	out := make(map[int]priceRow)
	if len(storeProductIDs) == 0 {
		return out, nil
	}

	rows, err := tx.Query(ctx, `
		SELECT DISTINCT ON (store_product_id)
			store_product_id, valid_date,
			price::text, unit_price::text, best_price_30::text, anchor_price::text, special_price::text
		FROM product_prices
		WHERE store_product_id = ANY($1) AND valid_date <= $2
		ORDER BY store_product_id, valid_date DESC`,
		storeProductIDs, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var pr priceRow
		if err := rows.Scan(&pr.storeProductID, &pr.validDate, &pr.price, &pr.unitPrice, &pr.bestPrice30, &pr.anchorPrice, &pr.specialPrice); err != nil {
			return nil, err
		}
		out[pr.storeProductID] = pr
	}
	return out, rows.Err()
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

func priceFieldsDiffer(last priceRow, p domain.Product) bool {
	lastPrice, err := domain.ParseMoney(last.price)
	if err != nil || !lastPrice.Equal(p.Price) {
		return true
	}
	if !moneyStrPtrEqual(last.unitPrice, p.UnitPrice) {
		return true
	}
	if !moneyStrPtrEqual(last.bestPrice30, p.BestPrice30) {
		return true
	}
	if !moneyStrPtrEqual(last.anchorPrice, p.AnchorPrice) {
		return true
	}
	if !moneyStrPtrEqual(last.specialPrice, p.SpecialPrice) {
		return true
	}
	return false
}

func moneyStrPtrEqual(dbVal *string, incoming *domain.Money) bool {
	if dbVal == nil || incoming == nil {
		return dbVal == nil && incoming == nil
	}
	m, err := domain.ParseMoney(*dbVal)
	if err != nil {
		return false
	}
	return m.Equal(*incoming)
}

func insertPriceRow(ctx context.Context, tx pgx.Tx, storeProductID int, date time.Time, p domain.Product) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO product_prices (store_product_id, valid_date, price, unit_price, best_price_30, anchor_price, special_price)
		VALUES ($1, $2, $3::numeric, $4::numeric, $5::numeric, $6::numeric, $7::numeric)`,
		storeProductID, date, p.Price.String(), moneyParam(p.UnitPrice), moneyParam(p.BestPrice30), moneyParam(p.AnchorPrice), moneyParam(p.SpecialPrice))
	return err
}

func updatePriceRow(ctx context.Context, tx pgx.Tx, last priceRow, p domain.Product) error {
	_, err := tx.Exec(ctx, `
		UPDATE product_prices
		SET price = $2::numeric, unit_price = $3::numeric, best_price_30 = $4::numeric,
		    anchor_price = $5::numeric, special_price = $6::numeric, crawled_at = now()
		WHERE store_product_id = $1 AND valid_date = $7`,
		last.storeProductID, p.Price.String(), moneyParam(p.UnitPrice), moneyParam(p.BestPrice30),
		moneyParam(p.AnchorPrice), moneyParam(p.SpecialPrice), last.validDate)
	return err
}

func moneyParam(m *domain.Money) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}

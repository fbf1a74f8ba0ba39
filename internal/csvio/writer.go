// Package csvio implements the canonical stores.csv / products.csv /
// prices.csv contract: the CSV Writer and its inverse, the CSV
// Reader.
package csvio

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/kosarica/pricehist/internal/domain"
)

var (
	storeColumns  = []string{"store_id", "type", "address", "city", "zipcode"}
	productColumns = []string{"product_id", "barcode", "name", "brand", "category", "unit", "quantity"}
	priceColumns  = []string{"store_id", "product_id", "price", "unit_price", "best_price_30", "anchor_price", "special_price"}
)

// WriteChain emits stores.csv, products.csv and prices.csv for one
// chain's stores into dir, creating it if needed. A file with zero
// data rows is skipped (not created) and a warning logged.
func WriteChain(dir string, stores []domain.Store) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("csvio: create chain dir: %w", err)
	}

	storeRows, productRows, priceRows := transform(stores)

	if err := writeCSV(filepath.Join(dir, "stores.csv"), storeColumns, storeRows); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "products.csv"), productColumns, productRows); err != nil {
		return err
	}
	if err := writeCSV(filepath.Join(dir, "prices.csv"), priceColumns, priceRows); err != nil {
		return err
	}
	return nil
}

// transform flattens Stores-with-Products into the three canonical
// row sets. products.csv is de-duplicated by "{chain}:{product_id}",
// first occurrence wins.
func transform(stores []domain.Store) (storeRows, productRows, priceRows [][]string) {
	seenProducts := make(map[string]bool)

	for _, s := range stores {
		storeRows = append(storeRows, []string{s.StoreID, s.StoreType, s.StreetAddress, s.City, s.Zipcode})

		for _, p := range s.Products {
			key := s.Chain + ":" + p.ProductID
			if !seenProducts[key] {
				seenProducts[key] = true
				barcode := p.Barcode
				if barcode == "" {
					barcode = key
				}
				productRows = append(productRows, []string{
					p.ProductID, barcode, p.Name, p.Brand, p.Category, p.Unit, p.Quantity,
				})
			}

			priceRows = append(priceRows, []string{
				s.StoreID,
				p.ProductID,
				p.Price.String(),
				moneyOrEmpty(p.UnitPrice),
				moneyOrEmpty(p.BestPrice30),
				moneyOrEmpty(p.AnchorPrice),
				moneyOrEmpty(p.SpecialPrice),
			})
		}
	}
	return
}

func moneyOrEmpty(m *domain.Money) string {
	if m == nil {
		return ""
	}
	return m.String()
}

func writeCSV(path string, columns []string, rows [][]string) error {
	if len(rows) == 0 {
		log.Warn().Str("path", path).Msg("no data to write, skipping file")
		return nil
	}

	for _, row := range rows {
		if len(row) != len(columns) {
			return fmt.Errorf("csvio: column mismatch writing %s: expected %d fields, got %d", path, len(columns), len(row))
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("csvio: create %s: %w", path, err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.UseCRLF = false

	if err := w.Write(columns); err != nil {
		return fmt.Errorf("csvio: write header %s: %w", path, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			return fmt.Errorf("csvio: write row %s: %w", path, err)
		}
	}
	w.Flush()
	return w.Error()
}

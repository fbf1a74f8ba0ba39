package csvio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/kosarica/pricehist/internal/domain"
)

// ErrChainNotFound is returned by ReadChain when the chain's directory
// does not exist. This is a "not found" signal, not a fatal error; any
// other I/O error is fatal.
var ErrChainNotFound = errors.New("csvio: chain directory not found")

// ReadChain reconstructs the in-memory Stores-with-Products for one
// chain from dir (a "<date>/<chain>/" directory). Unknown columns are
// ignored; missing optional columns default to empty. Decimals that
// fail to parse become absent, not zero. A missing required price
// defaults to zero.
func ReadChain(chain, dir string) ([]domain.Store, error) {
	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrChainNotFound
		}
		return nil, fmt.Errorf("csvio: stat %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, ErrChainNotFound
	}

	storeRows, err := readCSVFile(filepath.Join(dir, "stores.csv"))
	if err != nil {
		return nil, err
	}
	productRows, err := readCSVFile(filepath.Join(dir, "products.csv"))
	if err != nil {
		return nil, err
	}
	priceRows, err := readCSVFile(filepath.Join(dir, "prices.csv"))
	if err != nil {
		return nil, err
	}

	stores := make(map[string]*domain.Store)
	order := make([]string, 0, len(storeRows))
	for _, row := range storeRows {
		get := colGetter(row)
		id := get("store_id")
		if id == "" {
			continue
		}
		stores[id] = &domain.Store{
			Chain:         chain,
			StoreID:       id,
			StoreType:     get("type"),
			StreetAddress: get("address"),
			City:          get("city"),
			Zipcode:       get("zipcode"),
		}
		order = append(order, id)
	}

	type productMaster struct {
		barcode, name, brand, category, unit, quantity string
	}
	products := make(map[string]productMaster)
	for _, row := range productRows {
		get := colGetter(row)
		pid := get("product_id")
		if pid == "" {
			continue
		}
		products[pid] = productMaster{
			barcode:  get("barcode"),
			name:     get("name"),
			brand:    get("brand"),
			category: get("category"),
			unit:     get("unit"),
			quantity: get("quantity"),
		}
	}

	for _, row := range priceRows {
		get := colGetter(row)
		storeID := get("store_id")
		productID := get("product_id")
		store, ok := stores[storeID]
		if !ok || productID == "" {
			continue
		}
		master := products[productID]

		price, _ := domain.ParseMoney(get("price"))

		p := domain.Product{
			ProductID: productID,
			Name:      master.name,
			Brand:     master.brand,
			Category:  master.category,
			Unit:      master.unit,
			Quantity:  master.quantity,
			Barcode:   master.barcode,
			Price:     price,
		}
		p.UnitPrice, _ = domain.ParseMoneyPtr(get("unit_price"))
		p.BestPrice30, _ = domain.ParseMoneyPtr(get("best_price_30"))
		p.AnchorPrice, _ = domain.ParseMoneyPtr(get("anchor_price"))
		p.SpecialPrice, _ = domain.ParseMoneyPtr(get("special_price"))

		store.Products = append(store.Products, p)
	}

	out := make([]domain.Store, 0, len(order))
	for _, id := range order {
		out = append(out, *stores[id])
	}
	return out, nil
}

func colGetter(row map[string]string) func(string) string {
	return func(col string) string {
		return row[col]
	}
}

// readCSVFile reads a header+rows CSV file into a slice of column->value
// maps. A missing file yields an empty slice, not an error — the
// writer skips zero-row files, so their absence is expected.
func readCSVFile(path string) ([]map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("csvio: open %s: %w", path, err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("csvio: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	header := records[0]
	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

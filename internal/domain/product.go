package domain

import (
	"fmt"
	"strings"
	"time"
)

// Product is a single per-observation price row as published by a
// chain for one store. It is the in-memory contract every Chain
// Source, the CSV layer, and the reconciler agree on.
type Product struct {
	ProductID string // chain-local identifier, non-empty

	Name     string
	Brand    string
	Category string
	Unit     string
	Quantity string
	Packaging string

	Barcode string // may be empty, invalid, or a digit string >= 8 chars

	Price Money // required, >= 0

	UnitPrice       *Money
	BestPrice30     *Money
	AnchorPrice     *Money
	SpecialPrice    *Money
	InitialPrice    *Money
	AnchorPriceDate string
	DateAdded       *time.Time
}

// NewProduct validates and normalizes a Product: required price,
// non-negative decimals, trimmed strings.
func NewProduct(p Product) (Product, error) {
	p.ProductID = strings.TrimSpace(p.ProductID)
	if p.ProductID == "" {
		return Product{}, fmt.Errorf("domain: product_id is required")
	}
	if p.Price.IsNegative() {
		return Product{}, fmt.Errorf("domain: price must be non-negative, got %s", p.Price)
	}

	p.Name = strings.TrimSpace(p.Name)
	p.Brand = strings.TrimSpace(p.Brand)
	p.Category = strings.TrimSpace(p.Category)
	p.Unit = strings.TrimSpace(p.Unit)
	p.Quantity = strings.TrimSpace(p.Quantity)
	p.Packaging = strings.TrimSpace(p.Packaging)
	p.Barcode = strings.TrimSpace(p.Barcode)
	p.AnchorPriceDate = strings.TrimSpace(p.AnchorPriceDate)

	for _, dec := range []*Money{p.UnitPrice, p.BestPrice30, p.AnchorPrice, p.SpecialPrice, p.InitialPrice} {
		if dec != nil && dec.IsNegative() {
			return Product{}, fmt.Errorf("domain: optional decimal must be non-negative, got %s", dec)
		}
	}

	return p, nil
}

// Equal reports identifying and price-field equality under
// normalized decimals. It is never used on the hot path; only
// normalization is observable downstream.
func (p Product) Equal(other Product) bool {
	if p.ProductID != other.ProductID || p.Barcode != other.Barcode {
		return false
	}
	if p.Name != other.Name || p.Brand != other.Brand || p.Category != other.Category ||
		p.Unit != other.Unit || p.Quantity != other.Quantity {
		return false
	}
	if !p.Price.Equal(other.Price) {
		return false
	}
	return MoneyPtrEqual(p.UnitPrice, other.UnitPrice) &&
		MoneyPtrEqual(p.BestPrice30, other.BestPrice30) &&
		MoneyPtrEqual(p.AnchorPrice, other.AnchorPrice) &&
		MoneyPtrEqual(p.SpecialPrice, other.SpecialPrice)
}

// Store is a physical location belonging to a chain, carrying the
// ordered list of Products observed there on one date.
type Store struct {
	Chain string // lowercase slug
	StoreID string
	Name string
	StoreType string
	City string
	StreetAddress string
	Zipcode string
	Products []Product
}

// NewStore validates and normalizes a Store: chain is a lowercase
// slug, identifying fields trimmed.
func NewStore(s Store) (Store, error) {
	s.Chain = strings.ToLower(strings.TrimSpace(s.Chain))
	s.StoreID = strings.TrimSpace(s.StoreID)
	if s.Chain == "" {
		return Store{}, fmt.Errorf("domain: chain is required")
	}
	if s.StoreID == "" {
		return Store{}, fmt.Errorf("domain: store_id is required")
	}
	s.Name = strings.TrimSpace(s.Name)
	s.StoreType = strings.TrimSpace(s.StoreType)
	s.City = strings.TrimSpace(s.City)
	s.StreetAddress = strings.TrimSpace(s.StreetAddress)
	s.Zipcode = strings.TrimSpace(s.Zipcode)
	return s, nil
}

// Key returns the (chain, store_id) identity tuple that uniquely
// identifies a store.
func (s Store) Key() string {
	return s.Chain + "\x00" + s.StoreID
}

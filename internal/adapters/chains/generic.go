package chains

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/kosarica/pricehist/internal/adapters/base"
	akconfig "github.com/kosarica/pricehist/internal/adapters/config"
	"github.com/kosarica/pricehist/internal/domain"
	kohttp "github.com/kosarica/pricehist/internal/http"
	"github.com/kosarica/pricehist/internal/parsers/csv"
)

// genericColumnMapping is the Croatian-header mapping most chains'
// price-list exports share; genericColumnMappingAlt is tried when the
// primary mapping yields zero valid rows, covering the handful of
// chains that instead publish English/Latin headers. Grounded on the
// teacher's per-chain primary/alternative mapping pairs (see
// interspar.go, kaufland.go in the reference pack).
var genericColumnMapping = csv.CsvColumnMapping{
	ExternalID:     strPtr("šifra proizvoda"),
	Name:           "naziv proizvoda",
	Category:       strPtr("kategorija proizvoda"),
	Brand:          strPtr("marka proizvoda"),
	Unit:           strPtr("jedinica mjere"),
	UnitQuantity:   strPtr("neto količina"),
	Price:          "maloprodajna cijena",
	DiscountPrice:  strPtr("maloprodajna cijena u posebnom obliku prodaje"),
	Barcodes:       strPtr("barkod"),
	UnitPrice:      strPtr("cijena za jedinicu mjere"),
	LowestPrice30d: strPtr("najniža cijena u posljednjih 30 dana"),
	AnchorPrice:    strPtr("sidrena cijena na 2.5.2025"),
}

var genericColumnMappingAlt = csv.CsvColumnMapping{
	ExternalID:     strPtr("Šifra"),
	Name:           "Naziv",
	Category:       strPtr("Kategorija"),
	Brand:          strPtr("Marka"),
	Unit:           strPtr("Mjerna jedinica"),
	UnitQuantity:   strPtr("Količina"),
	Price:          "Cijena",
	DiscountPrice:  strPtr("Akcijska cijena"),
	Barcodes:       strPtr("Barkod"),
	UnitPrice:      strPtr("Cijena za jedinicu mjere"),
	LowestPrice30d: strPtr("Najniža cijena u zadnjih 30 dana"),
	AnchorPrice:    strPtr("Sidrena cijena"),
}

var genericFilenamePrefixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^supermarket[_-]?`),
	regexp.MustCompile(`(?i)^hipermarket[_-]?`),
	regexp.MustCompile(`(?i)^diskont[_-]?`),
	regexp.MustCompile(`(?i)^cjenik[_-]?`),
	regexp.MustCompile(`(?i)^prodavaonica[_-]?`),
}

// NewGenericAdapter builds a chains.Source for any chain whose price
// lists are plain CSV files linked directly off their listing page —
// the case every chain covered by internal/adapters/config.Chains
// other than Konzum, Interspar, and Kaufland falls into. Discovery
// scans the listing page's HTML for links ending in ".csv" or ".CSV"
// only; links to archives such as ".zip" are not collected.
// Parse tries the chain's primary column mapping, then the shared
// alternative, mirroring every per-chain adapter in the reference
// pack's reliance on BaseCsvAdapter.Parse's try-then-fallback.
func NewGenericAdapter(slug string) (*base.Adapter, error) {
	cfg, ok := akconfig.ByFunc(slug)
	if !ok {
		return nil, fmt.Errorf("chains: no config registered for slug %q", slug)
	}

	parser := csv.NewParser(csv.CsvParserOptions{
		Delimiter:     cfg.CSV.Delimiter,
		Encoding:      cfg.CSV.Encoding,
		HasHeader:     cfg.CSV.HasHeader,
		ColumnMapping: &genericColumnMapping,
		SkipEmptyRows: true,
	})
	parser.SetAlternativeMapping(&genericColumnMappingAlt)

	return base.New(base.Config{
		Slug:                   cfg.Slug,
		Name:                   cfg.Name,
		BaseURL:                cfg.BaseURL,
		FilenamePrefixPatterns: genericFilenamePrefixes,
		Discover:               genericDiscover(cfg),
		Parse: func(content []byte) ([]domain.Product, error) {
			result, err := parser.Parse(content)
			if err != nil {
				return nil, err
			}
			return result.Products, nil
		},
	}), nil
}

var genericLinkPattern = regexp.MustCompile(`href=["']([^"']+\.(?:csv|CSV))["']`)

func genericDiscover(cfg akconfig.ChainConfig) base.Discoverer {
	return func(ctx context.Context, client *kohttp.Client, date time.Time) ([]base.DiscoveredFile, error) {
		body, err := client.GetBytes(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to fetch listing page: %w", cfg.Slug, err)
		}

		matches := genericLinkPattern.FindAllStringSubmatch(string(body), -1)
		seen := make(map[string]bool)
		var files []base.DiscoveredFile
		for _, m := range matches {
			link := m[1]
			if seen[link] {
				continue
			}
			seen[link] = true
			files = append(files, base.DiscoveredFile{
				URL:      resolveURL(cfg.BaseURL, link),
				Filename: filenameFromURL(link),
			})
		}
		return files, nil
	}
}

func filenameFromURL(link string) string {
	for i := len(link) - 1; i >= 0; i-- {
		if link[i] == '/' {
			return link[i+1:]
		}
	}
	return link
}

// RegisterableSlugs lists the chain slugs satisfied by NewGenericAdapter
// rather than a fully worked per-chain adapter.
var RegisterableSlugs = []string{
	"lidl", "plodine", "studenac", "eurospin", "dm", "ktc", "metro",
	"trgocentar", "spar", "tommy", "zabac", "vrutak", "ribola",
}

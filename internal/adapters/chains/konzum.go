// Package chains holds the concrete chains.Source implementations:
// one fully worked HTML-index + CSV adapter (Konzum), one XLSX
// adapter (Interspar), one XML adapter (Kaufland), and the generic
// CSV adapter the remaining slugs share.
package chains

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/kosarica/pricehist/internal/adapters/base"
	akconfig "github.com/kosarica/pricehist/internal/adapters/config"
	"github.com/kosarica/pricehist/internal/domain"
	kohttp "github.com/kosarica/pricehist/internal/http"
	"github.com/kosarica/pricehist/internal/parsers/csv"
)

// konzumColumnMapping is the Croatian-header column mapping Konzum
// publishes its per-store CSV exports under.
var konzumColumnMapping = csv.CsvColumnMapping{
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

var (
	konzumLinkPattern = regexp.MustCompile(`href=["'](/cjenici/download\?title=([^"'&]+)[^"']*)["']`)
	konzumStorePrefix = []*regexp.Regexp{
		regexp.MustCompile(`(?i)^supermarket[_-]?`,
		),
		regexp.MustCompile(`(?i)^hipermarket[_-]?`),
		regexp.MustCompile(`(?i)^maxi[_-]?`),
		regexp.MustCompile(`(?i)^konzum[_-]?`),
	}
	konzumStoreCode = regexp.MustCompile(`,(\d{4}),`)
)

const konzumMaxPages = 50

// NewKonzumAdapter builds the reference HTML-index + CSV adapter.
// Discover pages through Konzum's /cjenici listing until a page
// yields no previously-unseen file; Parse hands each downloaded CSV to
// the shared CSV parser with Konzum's column mapping.
func NewKonzumAdapter() *base.Adapter {
	cfg, _ := akconfig.ByFunc("konzum")

	parser := csv.NewParser(csv.CsvParserOptions{
		Delimiter:     cfg.CSV.Delimiter,
		Encoding:      cfg.CSV.Encoding,
		HasHeader:     cfg.CSV.HasHeader,
		ColumnMapping: &konzumColumnMapping,
		SkipEmptyRows: true,
	})

	return base.New(base.Config{
		Slug:                   cfg.Slug,
		Name:                   cfg.Name,
		BaseURL:                cfg.BaseURL,
		FilenamePrefixPatterns: konzumStorePrefix,
		Discover:               konzumDiscover(cfg.BaseURL),
		Parse: func(content []byte) ([]domain.Product, error) {
			result, err := parser.Parse(content)
			if err != nil {
				return nil, err
			}
			return result.Products, nil
		},
	})
}

func konzumDiscover(baseURL string) base.Discoverer {
	return func(ctx context.Context, client *kohttp.Client, date time.Time) ([]base.DiscoveredFile, error) {
		seen := make(map[string]bool)
		var files []base.DiscoveredFile

		for page := 0; page < konzumMaxPages; page++ {
			pageURL := fmt.Sprintf("%s?date=%s&page=%d", baseURL, date.Format("2006-01-02"), page)
			body, err := client.GetBytes(pageURL)
			if err != nil {
				if page == 0 {
					return nil, fmt.Errorf("konzum: failed to fetch listing page: %w", err)
				}
				break
			}

			matches := konzumLinkPattern.FindAllStringSubmatch(string(body), -1)
			newOnPage := 0
			for _, m := range matches {
				link := m[1]
				if seen[link] {
					continue
				}
				seen[link] = true
				newOnPage++

				filename, err := url.QueryUnescape(m[2])
				if err != nil {
					filename = m[2]
				}
				files = append(files, base.DiscoveredFile{
					URL:      resolveURL(baseURL, link),
					Filename: filename,
					StoreID:  konzumStoreCodeFromFilename(filename),
				})
			}
			if newOnPage == 0 {
				break
			}
		}
		return files, nil
	}
}

func resolveURL(baseURL, link string) string {
	if strings.HasPrefix(link, "http://") || strings.HasPrefix(link, "https://") {
		return link
	}
	root, err := url.Parse(baseURL)
	if err != nil {
		return link
	}
	ref, err := url.Parse(link)
	if err != nil {
		return link
	}
	return root.ResolveReference(ref).String()
}

// konzumStoreCodeFromFilename extracts Konzum's 4-digit store code
// from a "STORETYPE,ADDRESS CITY,STORE_ID,DATE,TIME.csv"-shaped
// filename, falling back to the whole base name when the pattern
// doesn't match.
func konzumStoreCodeFromFilename(filename string) string {
	if m := konzumStoreCode.FindStringSubmatch(filename); len(m) == 2 {
		return m[1]
	}
	return filename
}

func strPtr(s string) *string { return &s }

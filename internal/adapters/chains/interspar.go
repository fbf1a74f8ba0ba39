package chains

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kosarica/pricehist/internal/adapters/base"
	akconfig "github.com/kosarica/pricehist/internal/adapters/config"
	"github.com/kosarica/pricehist/internal/domain"
	kohttp "github.com/kosarica/pricehist/internal/http"
	"github.com/kosarica/pricehist/internal/parsers/xlsx"
)

// intersparAssetFile is one entry in Interspar's JSON asset-listing
// API.
type intersparAssetFile struct {
	Name string `json:"name"`
	URL  string `json:"URL"`
}

type intersparAssetResponse struct {
	Files []intersparAssetFile `json:"files"`
}

const intersparAssetAPIURL = "https://www.spar.hr/usluge/cjenici/assetSearch.json"

var intersparColumnMapping = xlsx.XlsxColumnMapping{
	Name:           xlsx.NewHeaderIndex("naziv"),
	Price:          xlsx.NewHeaderIndex("MPC (EUR)"),
	ExternalID:     hdr("šifra"),
	Category:       hdr("kategorija proizvoda"),
	Brand:          hdr("marka"),
	Unit:           hdr("jedinica mjere"),
	UnitQuantity:   hdr("neto količina"),
	DiscountPrice:  hdr("MPC za vrijeme posebnog oblika prodaje (EUR)"),
	Barcodes:       hdr("barkod"),
	UnitPrice:      hdr("cijena za jedinicu mjere (EUR)"),
	LowestPrice30d: hdr("Najniža cijena u posljednjih 30 dana (EUR)"),
	AnchorPrice:    hdr("sidrena cijena na 2.5.2025. (EUR)"),
}

func hdr(name string) *xlsx.XlsxColumnIndex {
	idx := xlsx.NewHeaderIndex(name)
	return &idx
}

// NewIntersparAdapter builds the XLSX reference adapter: discovery
// reads Interspar's JSON asset-listing API for the requested date, and
// each discovered workbook is handed to the shared XLSX parser with
// Interspar's header-based column mapping.
func NewIntersparAdapter() *base.Adapter {
	cfg, _ := akconfig.ByFunc("interspar")

	parser := xlsx.NewParser(xlsx.XlsxParserOptions{
		ColumnMapping: &intersparColumnMapping,
		HasHeader:     true,
		SkipEmptyRows: true,
	})

	return base.New(base.Config{
		Slug:     cfg.Slug,
		Name:     cfg.Name,
		BaseURL:  cfg.BaseURL,
		Discover: intersparDiscover,
		Parse: func(content []byte) ([]domain.Product, error) {
			result, err := parser.Parse(content)
			if err != nil {
				return nil, err
			}
			return result.Products, nil
		},
	})
}

func intersparDiscover(ctx context.Context, client *kohttp.Client, date time.Time) ([]base.DiscoveredFile, error) {
	body, err := client.GetBytes(intersparAssetAPIURL)
	if err != nil {
		return nil, fmt.Errorf("interspar: failed to fetch asset listing: %w", err)
	}

	var resp intersparAssetResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("interspar: failed to decode asset listing: %w", err)
	}

	dateTag := date.Format("02.01.2006")
	var files []base.DiscoveredFile
	for _, f := range resp.Files {
		if !strings.Contains(f.Name, dateTag) {
			continue
		}
		files = append(files, base.DiscoveredFile{
			URL:      f.URL,
			Filename: f.Name,
		})
	}
	return files, nil
}

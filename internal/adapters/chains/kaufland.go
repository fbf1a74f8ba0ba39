package chains

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/kosarica/pricehist/internal/adapters/base"
	akconfig "github.com/kosarica/pricehist/internal/adapters/config"
	"github.com/kosarica/pricehist/internal/domain"
	kohttp "github.com/kosarica/pricehist/internal/http"
	xmlparser "github.com/kosarica/pricehist/internal/parsers/xml"
)

// kauflandAsset is one entry in Kaufland's JSON asset-listing API.
type kauflandAsset struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

const kauflandAssetAPIURL = "https://www.kaufland.hr/akcije-novosti/popis-mpc.assetSearch.id=assetList_1599847924.json"

var kauflandFieldMapping = xmlparser.XmlFieldMapping{
	Name:            "naziv",
	Price:           "cijena",
	ExternalID:      xstr("sifra"),
	Category:        xstr("kategorija"),
	Brand:           xstr("marka"),
	Unit:            xstr("jedinica_mjere"),
	UnitQuantity:    xstr("neto_kolicina"),
	Barcodes:        xstr("barkod"),
	UnitPrice:       xstr("cijena_jedinica_mjere"),
	LowestPrice30d:  xstr("najniza_cijena_30_dana"),
	AnchorPrice:     xstr("sidrena_cijena"),
	DiscountPrice:   xstr("cijena_posebni_oblik_prodaje"),
	AnchorPriceAsOf: xstr("datum_sidrene_cijene"),
}

func xstr(s string) *string { return &s }

var kauflandStorePortalID = regexp.MustCompile(`(\d{4,})`)

// NewKauflandAdapter builds the XML reference adapter: discovery reads
// Kaufland's JSON asset-listing API, and each discovered document is
// handed to the shared XML parser. Kaufland resolution is portal_id:
// the store code is read out of the document path rather than a
// free-text filename.
func NewKauflandAdapter() *base.Adapter {
	cfg, _ := akconfig.ByFunc("kaufland")

	parser := xmlparser.NewParser(xmlparser.XmlParserOptions{
		FieldMapping: kauflandFieldMapping,
	})

	return base.New(base.Config{
		Slug:     cfg.Slug,
		Name:     cfg.Name,
		BaseURL:  cfg.BaseURL,
		Discover: kauflandDiscover,
		Parse: func(content []byte) ([]domain.Product, error) {
			result, err := parser.Parse(content)
			if err != nil {
				return nil, err
			}
			return result.Products, nil
		},
	})
}

func kauflandDiscover(ctx context.Context, client *kohttp.Client, date time.Time) ([]base.DiscoveredFile, error) {
	body, err := client.GetBytes(kauflandAssetAPIURL)
	if err != nil {
		return nil, fmt.Errorf("kaufland: failed to fetch asset listing: %w", err)
	}

	var assets []kauflandAsset
	if err := json.Unmarshal(body, &assets); err != nil {
		return nil, fmt.Errorf("kaufland: failed to decode asset listing: %w", err)
	}

	dateTag := date.Format("2006-01-02")
	var files []base.DiscoveredFile
	for _, a := range assets {
		if !strings.Contains(a.Path, dateTag) {
			continue
		}
		storeID := a.Label
		if m := kauflandStorePortalID.FindString(a.Path); m != "" {
			storeID = m
		}
		files = append(files, base.DiscoveredFile{
			URL:      a.Path,
			Filename: a.Label,
			StoreID:  storeID,
		})
	}
	return files, nil
}

package csv

// CsvDelimiter is a field delimiter a chain's CSV export might use.
type CsvDelimiter string

const (
	DelimiterComma     CsvDelimiter = ","
	DelimiterSemicolon CsvDelimiter = ";"
	DelimiterTab       CsvDelimiter = "\t"
)

// CsvEncoding is a source text encoding a chain's CSV export might use.
type CsvEncoding string

const (
	EncodingUTF8        CsvEncoding = "utf-8"
	EncodingWindows1250 CsvEncoding = "windows-1250"
	EncodingISO88592    CsvEncoding = "iso-8859-2"
)

// CsvColumnMapping names, per product field, the header (or a
// stand-in column name) a chain uses in its CSV export. Name and
// Price are mandatory; every other field is optional and left
// unpopulated on the parsed product when nil.
type CsvColumnMapping struct {
	StoreIdentifier       *string `json:"storeIdentifier,omitempty"`
	ExternalID            *string `json:"externalId,omitempty"`
	Name                  string  `json:"name"`
	Description           *string `json:"description,omitempty"`
	Category              *string `json:"category,omitempty"`
	Subcategory           *string `json:"subcategory,omitempty"`
	Brand                 *string `json:"brand,omitempty"`
	Unit                  *string `json:"unit,omitempty"`
	UnitQuantity          *string `json:"unitQuantity,omitempty"`
	Price                 string  `json:"price"`
	DiscountPrice         *string `json:"discountPrice,omitempty"`
	DiscountStart         *string `json:"discountStart,omitempty"`
	DiscountEnd           *string `json:"discountEnd,omitempty"`
	Barcodes              *string `json:"barcodes,omitempty"`
	ImageURL              *string `json:"imageUrl,omitempty"`
	UnitPrice             *string `json:"unitPrice,omitempty"`
	UnitPriceBaseQuantity *string `json:"unitPriceBaseQuantity,omitempty"`
	UnitPriceBaseUnit     *string `json:"unitPriceBaseUnit,omitempty"`
	LowestPrice30d        *string `json:"lowestPrice30d,omitempty"`
	AnchorPrice           *string `json:"anchorPrice,omitempty"`
	AnchorPriceAsOf       *string `json:"anchorPriceAsOf,omitempty"`
}

// CsvParserOptions configures how a CSV payload is read before its
// rows are mapped onto products.
type CsvParserOptions struct {
	Delimiter              CsvDelimiter      `json:"delimiter,omitempty"`
	Encoding               CsvEncoding       `json:"encoding,omitempty"`
	HasHeader              bool              `json:"hasHeader,omitempty"`
	ColumnMapping          *CsvColumnMapping `json:"columnMapping,omitempty"`
	DefaultStoreIdentifier string            `json:"defaultStoreIdentifier,omitempty"`
	SkipEmptyRows          bool              `json:"skipEmptyRows,omitempty"`
	QuoteChar              rune              `json:"quoteChar,omitempty"`
}

// DefaultOptions returns comma-delimited, UTF-8, header-row CSV
// options suitable as a starting point for most chains.
func DefaultOptions() CsvParserOptions {
	return CsvParserOptions{
		Delimiter:     DelimiterComma,
		Encoding:      EncodingUTF8,
		HasHeader:     true,
		SkipEmptyRows: true,
		QuoteChar:     '"',
	}
}

package xlsx

// XlsxColumnIndex locates a column either by its 0-based numeric
// position or by header text, matching whichever form a chain
// publishes its workbook layout in.
type XlsxColumnIndex struct {
	Index  *int
	Header *string
}

// NewNumericIndex builds an XlsxColumnIndex addressed by position.
func NewNumericIndex(index int) XlsxColumnIndex {
	return XlsxColumnIndex{Index: &index}
}

// NewHeaderIndex builds an XlsxColumnIndex addressed by header text.
func NewHeaderIndex(header string) XlsxColumnIndex {
	return XlsxColumnIndex{Header: &header}
}

// IsNumeric reports whether c addresses a column by position.
func (c XlsxColumnIndex) IsNumeric() bool {
	return c.Index != nil
}

// IsHeader reports whether c addresses a column by header text.
func (c XlsxColumnIndex) IsHeader() bool {
	return c.Header != nil
}

// XlsxColumnMapping names, per product field, which workbook column a
// chain uses, either by position or by header text. Name and Price
// are mandatory; the rest are optional.
type XlsxColumnMapping struct {
	StoreIdentifier       *XlsxColumnIndex `json:"storeIdentifier,omitempty"`
	ExternalID            *XlsxColumnIndex `json:"externalId,omitempty"`
	Name                  XlsxColumnIndex  `json:"name"`
	Description           *XlsxColumnIndex `json:"description,omitempty"`
	Category              *XlsxColumnIndex `json:"category,omitempty"`
	Subcategory           *XlsxColumnIndex `json:"subcategory,omitempty"`
	Brand                 *XlsxColumnIndex `json:"brand,omitempty"`
	Unit                  *XlsxColumnIndex `json:"unit,omitempty"`
	UnitQuantity          *XlsxColumnIndex `json:"unitQuantity,omitempty"`
	Price                 XlsxColumnIndex  `json:"price"`
	DiscountPrice         *XlsxColumnIndex `json:"discountPrice,omitempty"`
	DiscountStart         *XlsxColumnIndex `json:"discountStart,omitempty"`
	DiscountEnd           *XlsxColumnIndex `json:"discountEnd,omitempty"`
	Barcodes              *XlsxColumnIndex `json:"barcodes,omitempty"`
	ImageURL              *XlsxColumnIndex `json:"imageUrl,omitempty"`
	UnitPrice             *XlsxColumnIndex `json:"unitPrice,omitempty"`
	UnitPriceBaseQuantity *XlsxColumnIndex `json:"unitPriceBaseQuantity,omitempty"`
	UnitPriceBaseUnit     *XlsxColumnIndex `json:"unitPriceBaseUnit,omitempty"`
	LowestPrice30d        *XlsxColumnIndex `json:"lowestPrice30d,omitempty"`
	AnchorPrice           *XlsxColumnIndex `json:"anchorPrice,omitempty"`
	AnchorPriceAsOf       *XlsxColumnIndex `json:"anchorPriceAsOf,omitempty"`
}

// XlsxParserOptions configures how a workbook is read before its rows
// are mapped onto products.
type XlsxParserOptions struct {
	ColumnMapping *XlsxColumnMapping `json:"columnMapping,omitempty"`
	HasHeader     bool               `json:"hasHeader,omitempty"`
	// HeaderRowCount overrides how many leading rows to skip; if zero,
	// it is inferred from HasHeader (1 row) or defaults to 0.
	HeaderRowCount         int    `json:"headerRowCount,omitempty"`
	DefaultStoreIdentifier string `json:"defaultStoreIdentifier,omitempty"`
	SkipEmptyRows          bool   `json:"skipEmptyRows,omitempty"`
	// SheetNameOrIndex selects the sheet to parse: a string sheet name
	// or an int 0-based index. Nil selects the first sheet.
	SheetNameOrIndex interface{} `json:"sheetNameOrIndex,omitempty"`
}

// DefaultOptions returns header-row, empty-row-skipping options for
// the first sheet of the workbook.
func DefaultOptions() XlsxParserOptions {
	return XlsxParserOptions{
		HasHeader:      true,
		HeaderRowCount: 0,
		SkipEmptyRows:  true,
	}
}

// ResolvedColumnIndices holds a mapping's column references resolved
// down to concrete 0-based positions, after header text (if any) has
// been matched against the workbook's actual header row.
type ResolvedColumnIndices struct {
	StoreIdentifier       int
	ExternalID            int
	Name                  int
	Description           int
	Category              int
	Subcategory           int
	Brand                 int
	Unit                  int
	UnitQuantity          int
	Price                 int
	DiscountPrice         int
	DiscountStart         int
	DiscountEnd           int
	Barcodes              int
	ImageURL              int
	UnitPrice             int
	UnitPriceBaseQuantity int
	UnitPriceBaseUnit     int
	LowestPrice30d        int
	AnchorPrice           int
	AnchorPriceAsOf       int
}

// InvalidIndex marks a field that was not found or not mapped.
const InvalidIndex = -1

// NewResolvedColumnIndices returns a ResolvedColumnIndices with every
// field set to InvalidIndex, ready to be filled in as columns resolve.
func NewResolvedColumnIndices() ResolvedColumnIndices {
	return ResolvedColumnIndices{
		StoreIdentifier:       InvalidIndex,
		ExternalID:            InvalidIndex,
		Name:                  InvalidIndex,
		Description:           InvalidIndex,
		Category:              InvalidIndex,
		Subcategory:           InvalidIndex,
		Brand:                 InvalidIndex,
		Unit:                  InvalidIndex,
		UnitQuantity:          InvalidIndex,
		Price:                 InvalidIndex,
		DiscountPrice:         InvalidIndex,
		DiscountStart:         InvalidIndex,
		DiscountEnd:           InvalidIndex,
		Barcodes:              InvalidIndex,
		ImageURL:              InvalidIndex,
		UnitPrice:             InvalidIndex,
		UnitPriceBaseQuantity: InvalidIndex,
		UnitPriceBaseUnit:     InvalidIndex,
		LowestPrice30d:        InvalidIndex,
		AnchorPrice:           InvalidIndex,
		AnchorPriceAsOf:       InvalidIndex,
	}
}

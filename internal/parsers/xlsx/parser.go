// Package xlsx implements raw upstream chain XLSX workbook parsing:
// sheet selection, header-or-index column mapping, and row mapping
// into the canonical domain.Product shape, using excelize for sheet
// access.
package xlsx

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/kosarica/pricehist/internal/domain"
)

// ParseError reports one row that failed to map to a Product.
type ParseError struct {
	RowNumber     int
	Field         string
	Message       string
	OriginalValue string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("row %d, field %s: %s", e.RowNumber, e.Field, e.Message)
}

// ParseResult is the outcome of parsing one chain's raw upstream
// XLSX workbook into canonical Products.
type ParseResult struct {
	TotalRows int
	ValidRows int
	Products  []domain.Product
	Errors    []ParseError
}

// Parser implements XLSX parsing onto domain.Product.
type Parser struct {
	options    XlsxParserOptions
	altMapping *XlsxColumnMapping
}

// NewParser creates a new XLSX parser, filling in defaults.
func NewParser(options XlsxParserOptions) *Parser {
	opts := DefaultOptions()
	if options.ColumnMapping != nil {
		opts.ColumnMapping = options.ColumnMapping
	}
	opts.HasHeader = options.HasHeader
	opts.HeaderRowCount = options.HeaderRowCount
	if options.DefaultStoreIdentifier != "" {
		opts.DefaultStoreIdentifier = options.DefaultStoreIdentifier
	}
	if options.ColumnMapping != nil {
		opts.SkipEmptyRows = options.SkipEmptyRows
	}
	if options.SheetNameOrIndex != nil {
		opts.SheetNameOrIndex = options.SheetNameOrIndex
	}
	return &Parser{options: opts}
}

// SetAlternativeMapping sets an alternative column mapping to try if
// the primary mapping yields no valid rows.
func (p *Parser) SetAlternativeMapping(mapping *XlsxColumnMapping) {
	p.altMapping = mapping
}

// Parse parses XLSX content into a ParseResult of domain.Products.
func (p *Parser) Parse(content []byte) (*ParseResult, error) {
	result, err := p.parseWithMapping(content, p.options.ColumnMapping)
	if err != nil {
		return nil, err
	}
	if result.ValidRows == 0 && p.altMapping != nil {
		if alt, altErr := p.parseWithMapping(content, p.altMapping); altErr == nil && alt.ValidRows > 0 {
			return alt, nil
		}
	}
	return result, nil
}

func (p *Parser) parseWithMapping(content []byte, mapping *XlsxColumnMapping) (*ParseResult, error) {
	result := &ParseResult{}

	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse workbook: %w", err)
	}
	defer f.Close()

	sheetName, err := p.selectSheet(f)
	if err != nil {
		return nil, err
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read worksheet: %w", err)
	}
	if len(rows) == 0 {
		return result, nil
	}
	if mapping == nil {
		return nil, fmt.Errorf("no column mapping provided")
	}

	var headers []string
	dataStartRow := p.options.HeaderRowCount
	if p.options.HasHeader {
		headers = make([]string, len(rows[0]))
		for i, cell := range rows[0] {
			headers[i] = strings.TrimSpace(cell)
		}
		if dataStartRow == 0 {
			dataStartRow = 1
		}
	}
	if len(rows) > dataStartRow {
		result.TotalRows = len(rows) - dataStartRow
	}

	indices, err := p.buildColumnIndices(headers, mapping)
	if err != nil {
		return nil, err
	}

	for i := dataStartRow; i < len(rows); i++ {
		rawRow := rows[i]
		rowNumber := i + 1
		if p.options.SkipEmptyRows && isEmptyRow(rawRow) {
			continue
		}

		product, errs := p.mapRowToProduct(rawRow, rowNumber, indices)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		result.Products = append(result.Products, product)
		result.ValidRows++
	}
	return result, nil
}

func (p *Parser) selectSheet(f *excelize.File) (string, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if p.options.SheetNameOrIndex == nil {
		return sheets[0], nil
	}
	switch v := p.options.SheetNameOrIndex.(type) {
	case int:
		if v >= len(sheets) {
			return "", fmt.Errorf("sheet index %d not found: workbook has %d sheets", v, len(sheets))
		}
		return sheets[v], nil
	case string:
		for _, name := range sheets {
			if name == v {
				return name, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found: available sheets %s", v, strings.Join(sheets, ", "))
	default:
		return sheets[0], nil
	}
}

func (p *Parser) buildColumnIndices(headers []string, mapping *XlsxColumnMapping) (*ResolvedColumnIndices, error) {
	indices := NewResolvedColumnIndices()

	resolve := func(col *XlsxColumnIndex) int {
		if col == nil {
			return InvalidIndex
		}
		if col.IsNumeric() {
			return *col.Index
		}
		if col.IsHeader() {
			target := strings.ToLower(strings.TrimSpace(*col.Header))
			for i, h := range headers {
				if strings.ToLower(strings.TrimSpace(h)) == target {
					return i
				}
			}
		}
		return InvalidIndex
	}

	indices.Name = resolve(&mapping.Name)
	if indices.Name == InvalidIndex {
		return nil, fmt.Errorf("column mapping missing required field: name")
	}
	indices.Price = resolve(&mapping.Price)
	if indices.Price == InvalidIndex {
		return nil, fmt.Errorf("column mapping missing required field: price")
	}

	indices.ExternalID = resolve(mapping.ExternalID)
	indices.Category = resolve(mapping.Category)
	indices.Brand = resolve(mapping.Brand)
	indices.Unit = resolve(mapping.Unit)
	indices.UnitQuantity = resolve(mapping.UnitQuantity)
	indices.Barcodes = resolve(mapping.Barcodes)
	indices.UnitPrice = resolve(mapping.UnitPrice)
	indices.LowestPrice30d = resolve(mapping.LowestPrice30d)
	indices.AnchorPrice = resolve(mapping.AnchorPrice)
	indices.AnchorPriceAsOf = resolve(mapping.AnchorPriceAsOf)
	indices.DiscountPrice = resolve(mapping.DiscountPrice)

	return &indices, nil
}

func (p *Parser) mapRowToProduct(rawRow []string, rowNumber int, indices *ResolvedColumnIndices) (domain.Product, []ParseError) {
	get := func(idx int) string {
		if idx == InvalidIndex || idx >= len(rawRow) {
			return ""
		}
		return strings.TrimSpace(rawRow[idx])
	}

	name := get(indices.Name)
	if name == "" {
		return domain.Product{}, []ParseError{{RowNumber: rowNumber, Field: "name", Message: "name is required"}}
	}

	priceStr := get(indices.Price)
	if priceStr == "" {
		return domain.Product{}, []ParseError{{RowNumber: rowNumber, Field: "price", Message: "price is required"}}
	}
	price, err := domain.ParseMoney(priceStr)
	if err != nil {
		return domain.Product{}, []ParseError{{RowNumber: rowNumber, Field: "price", Message: err.Error(), OriginalValue: priceStr}}
	}

	barcode := ""
	if raw := get(indices.Barcodes); raw != "" {
		if parts := barcodeSplit.Split(raw, -1); len(parts) > 0 {
			barcode = strings.TrimSpace(parts[0])
		}
	}

	product := domain.Product{
		ProductID: get(indices.ExternalID),
		Name:      name,
		Category:  get(indices.Category),
		Brand:     get(indices.Brand),
		Unit:      get(indices.Unit),
		Quantity:  get(indices.UnitQuantity),
		Barcode:   barcode,
		Price:     price,
	}
	if v := get(indices.UnitPrice); v != "" {
		product.UnitPrice, _ = domain.ParseMoneyPtr(v)
	}
	if v := get(indices.LowestPrice30d); v != "" {
		product.BestPrice30, _ = domain.ParseMoneyPtr(v)
	}
	if v := get(indices.AnchorPrice); v != "" {
		product.AnchorPrice, _ = domain.ParseMoneyPtr(v)
	}
	if v := get(indices.DiscountPrice); v != "" {
		product.SpecialPrice, _ = domain.ParseMoneyPtr(v)
	}
	if v := get(indices.AnchorPriceAsOf); v != "" {
		product.AnchorPriceDate = v
	}

	product, err = domain.NewProduct(product)
	if err != nil {
		return domain.Product{}, []ParseError{{RowNumber: rowNumber, Field: "product", Message: err.Error()}}
	}
	return product, nil
}

var barcodeSplit = regexp.MustCompile(`[,;|]`)

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// parseDate parses a date string in ISO, European, or Excel-serial
// form. It is unexported and Parse does not call it: the canonical
// Product stores anchor_price_date as the raw cell string, not a
// time.Time.
func parseDate(value string) *time.Time {
	if value == "" {
		return nil
	}
	if serial, err := strconv.ParseFloat(value, 64); err == nil && serial > 0 {
		return excelDateToGo(serial)
	}
	if match := isoDatePattern.FindStringSubmatch(value); len(match) == 4 {
		year, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		day, _ := strconv.Atoi(match[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		return &t
	}
	if match := euDatePattern.FindStringSubmatch(value); len(match) == 4 {
		day, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		year, _ := strconv.Atoi(match[3])
		t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
		return &t
	}
	return nil
}

var (
	isoDatePattern = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})`)
	euDatePattern  = regexp.MustCompile(`^(\d{1,2})[./](\d{1,2})[./](\d{4})`)
)

// excelDateToGo converts an Excel 1900-epoch serial date to time.Time,
// correcting for Excel's spurious 1900 leap-year day.
func excelDateToGo(serial float64) *time.Time {
	if serial < 1 {
		return nil
	}
	adjusted := serial
	if serial > 59 {
		adjusted = serial - 1
	}
	epoch := time.Date(1899, 12, 31, 0, 0, 0, 0, time.UTC)
	t := epoch.Add(time.Duration(adjusted * 24 * float64(time.Hour)))
	return &t
}

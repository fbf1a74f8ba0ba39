package csv

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/kosarica/pricehist/internal/domain"
	"github.com/kosarica/pricehist/internal/parsers/charset"
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

// ParseResult is the outcome of parsing one chain's raw upstream CSV
// export into the canonical domain.Product shape.
type ParseResult struct {
	TotalRows int
	ValidRows int
	Products  []domain.Product
	Errors    []ParseError
}

// Parser implements raw upstream chain CSV parsing with encoding
// detection and column mapping, generalized to target domain.Product
// instead of a chain-agnostic normalized-row shape.
type Parser struct {
	options            CsvParserOptions
	alternativeMapping *CsvColumnMapping
}

// NewParser creates a new CSV parser with the given options.
func NewParser(options CsvParserOptions) *Parser {
	if options.QuoteChar == 0 {
		options.QuoteChar = '"'
	}
	return &Parser{options: options}
}

// SetAlternativeMapping sets an alternative column mapping to try if the primary fails.
func (p *Parser) SetAlternativeMapping(mapping *CsvColumnMapping) {
	p.alternativeMapping = mapping
}

// Parse parses raw CSV content into a ParseResult of domain.Products.
func (p *Parser) Parse(content []byte) (*ParseResult, error) {
	opts := p.resolveOptions()

	if opts.Encoding == "" {
		detected := charset.DetectEncoding(content)
		opts.Encoding = CsvEncoding(detected)
	}

	decoded, err := charset.Decode(content, charset.Encoding(opts.Encoding))
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	if opts.Delimiter == "" {
		opts.Delimiter = DetectDelimiter(decoded)
	}

	rawRows, err := p.parseCSV(decoded, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(rawRows) == 0 {
		return &ParseResult{}, nil
	}

	headers := make([]string, 0)
	dataStartRow := 0
	if opts.HasHeader && len(rawRows) > 0 {
		headers = rawRows[0]
		dataStartRow = 1
	}

	columnIndices, err := p.buildColumnIndices(headers, opts.ColumnMapping)
	if err != nil {
		if p.alternativeMapping != nil {
			altOpts := p.options
			altOpts.ColumnMapping = p.alternativeMapping
			return NewParser(altOpts).Parse(content)
		}
		return &ParseResult{
			Errors:    []ParseError{{Message: err.Error()}},
			TotalRows: len(rawRows) - dataStartRow,
		}, nil
	}

	result := &ParseResult{}
	for i := dataStartRow; i < len(rawRows); i++ {
		rawRow := rawRows[i]
		rowNumber := i + 1

		if opts.SkipEmptyRows && isEmptyRow(rawRow) {
			continue
		}
		result.TotalRows++

		product, rowErrs := p.mapRowToProduct(rawRow, rowNumber, columnIndices)
		if len(rowErrs) > 0 {
			result.Errors = append(result.Errors, rowErrs...)
			continue
		}

		result.Products = append(result.Products, product)
		result.ValidRows++
	}

	if result.ValidRows == 0 && p.alternativeMapping != nil {
		altOpts := p.options
		altOpts.ColumnMapping = p.alternativeMapping
		altParser := NewParser(altOpts)
		return altParser.Parse(content)
	}

	return result, nil
}

func (p *Parser) parseCSV(content string, opts CsvParserOptions) ([][]string, error) {
	lines := splitLines(content)
	rows := make([][]string, 0, len(lines))
	delimRune := rune(opts.Delimiter[0])

	for _, line := range lines {
		if line == "" {
			rows = append(rows, []string{})
			continue
		}
		fields := SplitCSVLine(line, delimRune, opts.QuoteChar)
		trimmed := make([]string, len(fields))
		for i, f := range fields {
			trimmed[i] = strings.TrimSpace(f)
		}
		rows = append(rows, trimmed)
	}
	return rows, nil
}

func (p *Parser) buildColumnIndices(headers []string, mapping *CsvColumnMapping) (map[string]int, error) {
	if mapping == nil {
		return nil, fmt.Errorf("no column mapping provided")
	}

	indices := make(map[string]int)

	normalizeHeader := func(h string) string {
		return strings.ToLower(
			strings.Map(func(r rune) rune {
				switch r {
				case 'š':
					return 's'
				case 'č', 'ć':
					return 'c'
				case 'ž':
					return 'z'
				case 'đ', 'Đ':
					return 'd'
				default:
					return r
				}
			}, strings.TrimSpace(h)))
	}

	resolveIndex := func(field string, value *string, required bool) error {
		if value == nil {
			if required {
				return fmt.Errorf("required field %s not in mapping", field)
			}
			return nil
		}

		if idx, err := parseColumnIndex(*value); err == nil {
			if idx < 0 {
				return fmt.Errorf("invalid column index for %s: %s", field, *value)
			}
			indices[field] = idx
			return nil
		}

		idx := -1
		for i, h := range headers {
			if strings.EqualFold(strings.TrimSpace(h), strings.TrimSpace(*value)) {
				idx = i
				break
			}
		}
		if idx == -1 {
			normalizedMapping := normalizeHeader(*value)
			for i, h := range headers {
				if normalizeHeader(h) == normalizedMapping {
					log.Warn().Str("mapping", *value).Str("header", h).Msg("fuzzy header match")
					idx = i
					break
				}
			}
		}
		if idx == -1 {
			if required {
				return fmt.Errorf("column '%s' for field '%s' not found in headers", *value, field)
			}
			return nil
		}
		indices[field] = idx
		return nil
	}

	if err := resolveIndex("name", &mapping.Name, true); err != nil {
		return nil, err
	}
	if err := resolveIndex("price", &mapping.Price, true); err != nil {
		return nil, err
	}
	resolveIndex("externalId", mapping.ExternalID, false)
	resolveIndex("category", mapping.Category, false)
	resolveIndex("brand", mapping.Brand, false)
	resolveIndex("unit", mapping.Unit, false)
	resolveIndex("unitQuantity", mapping.UnitQuantity, false)
	resolveIndex("barcodes", mapping.Barcodes, false)
	resolveIndex("unitPrice", mapping.UnitPrice, false)
	resolveIndex("lowestPrice30d", mapping.LowestPrice30d, false)
	resolveIndex("anchorPrice", mapping.AnchorPrice, false)
	resolveIndex("discountPrice", mapping.DiscountPrice, false)

	return indices, nil
}

func (p *Parser) mapRowToProduct(rawRow []string, rowNumber int, indices map[string]int) (domain.Product, []ParseError) {
	var errs []ParseError

	getValue := func(field string) *string {
		idx, ok := indices[field]
		if !ok || idx >= len(rawRow) {
			return nil
		}
		val := strings.TrimSpace(rawRow[idx])
		if val == "" {
			return nil
		}
		return &val
	}

	name := ""
	if v := getValue("name"); v != nil {
		name = *v
	}
	if name == "" {
		errs = append(errs, ParseError{RowNumber: rowNumber, Field: "name", Message: "name is required"})
	}

	priceStr := getValue("price")
	if priceStr == nil {
		errs = append(errs, ParseError{RowNumber: rowNumber, Field: "price", Message: "price is required"})
		return domain.Product{}, errs
	}
	cents, err := ParsePrice(*priceStr)
	if err != nil {
		errs = append(errs, ParseError{RowNumber: rowNumber, Field: "price", Message: err.Error(), OriginalValue: *priceStr})
		return domain.Product{}, errs
	}
	if len(errs) > 0 {
		return domain.Product{}, errs
	}

	extID := ""
	if v := getValue("externalId"); v != nil {
		extID = *v
	}

	barcode := ""
	if v := getValue("barcodes"); v != nil {
		parts := strings.FieldsFunc(*v, func(r rune) bool { return r == ',' || r == ';' })
		if len(parts) > 0 {
			barcode = strings.TrimSpace(parts[0])
		}
	}

	product := domain.Product{
		ProductID: extID,
		Name:      name,
		Barcode:   barcode,
		Price:     domain.MoneyFromCents(int64(cents)),
	}
	if v := getValue("category"); v != nil {
		product.Category = *v
	}
	if v := getValue("brand"); v != nil {
		product.Brand = *v
	}
	if v := getValue("unit"); v != nil {
		product.Unit = *v
	}
	if v := getValue("unitQuantity"); v != nil {
		product.Quantity = *v
	}
	if v := getValue("unitPrice"); v != nil {
		if m, err := domain.ParseMoneyPtr(*v); err == nil {
			product.UnitPrice = m
		}
	}
	if v := getValue("lowestPrice30d"); v != nil {
		if m, err := domain.ParseMoneyPtr(*v); err == nil {
			product.BestPrice30 = m
		}
	}
	if v := getValue("anchorPrice"); v != nil {
		if m, err := domain.ParseMoneyPtr(*v); err == nil {
			product.AnchorPrice = m
		}
	}
	if v := getValue("discountPrice"); v != nil {
		if m, err := domain.ParseMoneyPtr(*v); err == nil {
			product.SpecialPrice = m
		}
	}

	product, err = domain.NewProduct(product)
	if err != nil {
		errs = append(errs, ParseError{RowNumber: rowNumber, Field: "product", Message: err.Error()})
		return domain.Product{}, errs
	}

	return product, nil
}

func (p *Parser) resolveOptions() CsvParserOptions {
	opts := p.options
	if opts.Delimiter == "" {
		opts.Delimiter = DelimiterComma
	}
	if opts.Encoding == "" {
		opts.Encoding = EncodingUTF8
	}
	if opts.QuoteChar == 0 {
		opts.QuoteChar = '"'
	}
	return opts
}

func splitLines(content string) []string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")
	return strings.Split(content, "\n")
}

func isEmptyRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func parseColumnIndex(s string) (int, error) {
	s = strings.TrimSpace(s)
	var result int
	n, err := fmt.Sscanf(s, "%d", &result)
	if err != nil || n != 1 {
		return -1, fmt.Errorf("not a numeric index")
	}
	return result, nil
}

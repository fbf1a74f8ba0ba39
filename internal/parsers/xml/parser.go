// Package xml implements raw upstream chain XML catalog parsing:
// path-based item discovery over a decoded element tree plus
// dot-notation field mapping into the canonical domain.Product shape.
package xml

import (
	"encoding/xml"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/kosarica/pricehist/internal/domain"
	"github.com/kosarica/pricehist/internal/parsers/charset"
)

// ParseError reports one item that failed to map to a Product.
type ParseError struct {
	RowNumber     int
	Field         string
	Message       string
	OriginalValue string
}

func (e ParseError) Error() string {
	return fmt.Sprintf("item %d, field %s: %s", e.RowNumber, e.Field, e.Message)
}

// ParseResult is the outcome of parsing one chain's raw upstream XML
// catalog into canonical Products.
type ParseResult struct {
	TotalRows int
	ValidRows int
	Products  []domain.Product
	Errors    []ParseError
}

// Parser implements XML parsing with item-path detection and field
// mapping onto domain.Product.
type Parser struct {
	options            XmlParserOptions
	alternativeMapping *XmlFieldMapping
}

// NewParser creates a new XML parser with the given options.
func NewParser(options XmlParserOptions) *Parser {
	if options.AttributePrefix == "" {
		options.AttributePrefix = "@_"
	}
	if options.Encoding == "" {
		options.Encoding = "utf-8"
	}
	return &Parser{options: options}
}

// SetAlternativeMapping sets an alternative field mapping to try if
// the primary mapping yields no valid rows.
func (p *Parser) SetAlternativeMapping(mapping *XmlFieldMapping) {
	p.alternativeMapping = mapping
}

// Parse parses XML content into a ParseResult of domain.Products.
func (p *Parser) Parse(content []byte) (*ParseResult, error) {
	decoded, err := p.decodeContent(content)
	if err != nil {
		return nil, fmt.Errorf("failed to decode content: %w", err)
	}

	data, err := p.parseXMLToMap(decoded)
	if err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}

	itemsPath := p.options.ItemsPath
	if itemsPath == "" {
		itemsPath = p.detectItemsPath(data)
		if itemsPath == "" {
			return nil, fmt.Errorf("could not detect items path in XML")
		}
	}

	items, err := p.getItemsAtPath(data, itemsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to get items at path %s: %w", itemsPath, err)
	}

	result := p.parseItems(items, p.options.FieldMapping)
	if result.ValidRows == 0 && p.alternativeMapping != nil {
		result = p.parseItems(items, *p.alternativeMapping)
	}
	return result, nil
}

func (p *Parser) decodeContent(content []byte) (string, error) {
	if len(content) >= 3 && content[0] == 0xEF && content[1] == 0xBB && content[2] == 0xBF {
		return string(content[3:]), nil
	}

	enc := p.options.Encoding
	if enc == "" || enc == "auto" {
		enc = p.detectEncodingFromDeclaration(content)
		if enc == "" {
			enc = string(charset.DetectEncoding(content))
		}
	}

	decoded, err := charset.Decode(content, charset.Encoding(enc))
	if err != nil {
		return string(content), nil
	}
	return decoded, nil
}

var xmlDeclEncodingPattern = regexp.MustCompile(`<\?xml[^?]*encoding=["']([^"']+)["'][^?]*\?>`)

func (p *Parser) detectEncodingFromDeclaration(content []byte) string {
	head := content
	if len(head) > 200 {
		head = head[:200]
	}
	match := xmlDeclEncodingPattern.FindSubmatch(head)
	if len(match) <= 1 {
		return ""
	}
	switch strings.ToLower(string(match[1])) {
	case "windows-1250", "cp1250":
		return "windows-1250"
	case "iso-8859-2", "latin2":
		return "iso-8859-2"
	default:
		return strings.ToLower(string(match[1]))
	}
}

// parseXMLToMap parses XML content into a nested map structure,
// folding repeated sibling elements into slices.
func (p *Parser) parseXMLToMap(content string) (map[string]interface{}, error) {
	decoder := xml.NewDecoder(strings.NewReader(content))
	decoder.CharsetReader = func(_ string, input io.Reader) (io.Reader, error) { return input, nil }
	return p.decodeElement(decoder, nil)
}

func (p *Parser) decodeElement(decoder *xml.Decoder, start *xml.StartElement) (map[string]interface{}, error) {
	result := make(map[string]interface{})
	if start != nil {
		for _, attr := range start.Attr {
			result[p.options.AttributePrefix+attr.Name.Local] = attr.Value
		}
	}

	var text strings.Builder
	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch t := token.(type) {
		case xml.StartElement:
			childName := t.Name.Local
			childValue, err := p.decodeElement(decoder, &t)
			if err != nil {
				return nil, err
			}
			if existing, ok := result[childName]; ok {
				switch v := existing.(type) {
				case []interface{}:
					result[childName] = append(v, childValue)
				default:
					result[childName] = []interface{}{v, childValue}
				}
			} else {
				result[childName] = childValue
			}
		case xml.CharData:
			if s := strings.TrimSpace(string(t)); s != "" {
				text.WriteString(s)
			}
		case xml.EndElement:
			if s := text.String(); s != "" {
				result["#text"] = s
			}
			return result, nil
		}
	}

	if s := text.String(); s != "" {
		result["#text"] = s
	}
	return result, nil
}

var commonItemPaths = []string{
	"products.product", "Products.Product",
	"items.item", "Items.Item",
	"data.product", "Data.Product",
	"Cjenik.Proizvod", "cjenik.proizvod",
	"catalog.product", "Catalog.Product",
}

func (p *Parser) detectItemsPath(data map[string]interface{}) string {
	for _, path := range commonItemPaths {
		if items, err := p.getItemsAtPath(data, path); err == nil && len(items) > 0 {
			return path
		}
	}
	return p.findArrayPath(data, "", 2)
}

func (p *Parser) findArrayPath(data map[string]interface{}, prefix string, maxDepth int) string {
	if maxDepth <= 0 {
		return ""
	}
	for key, value := range data {
		currentPath := key
		if prefix != "" {
			currentPath = prefix + "." + key
		}
		switch v := value.(type) {
		case []interface{}:
			if len(v) > 0 {
				return currentPath
			}
		case map[string]interface{}:
			if found := p.findArrayPath(v, currentPath, maxDepth-1); found != "" {
				return found
			}
		}
	}
	return ""
}

func (p *Parser) getItemsAtPath(data map[string]interface{}, path string) ([]map[string]interface{}, error) {
	parts := strings.Split(path, ".")
	var current interface{} = data

	for i, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("cannot navigate through %T at %q", current, part)
		}
		value, found := m[part]
		if !found {
			for k, v := range m {
				if strings.EqualFold(k, part) {
					value, found = v, true
					break
				}
			}
		}
		if !found {
			return nil, fmt.Errorf("path segment %q not found", part)
		}
		if i == len(parts)-1 {
			return toItemSlice(value)
		}
		current = value
	}
	return nil, fmt.Errorf("path not found: %s", path)
}

func toItemSlice(value interface{}) ([]map[string]interface{}, error) {
	switch v := value.(type) {
	case []interface{}:
		out := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				out = append(out, m)
			}
		}
		return out, nil
	case map[string]interface{}:
		return []map[string]interface{}{v}, nil
	default:
		return nil, fmt.Errorf("expected array or map, got %T", value)
	}
}

func (p *Parser) parseItems(items []map[string]interface{}, mapping XmlFieldMapping) *ParseResult {
	result := &ParseResult{TotalRows: len(items)}

	for i, item := range items {
		rowNumber := i + 1
		product, errs := p.mapItemToProduct(item, rowNumber, mapping)
		if len(errs) > 0 {
			result.Errors = append(result.Errors, errs...)
			continue
		}
		result.Products = append(result.Products, product)
		result.ValidRows++
	}
	return result
}

func (p *Parser) mapItemToProduct(item map[string]interface{}, rowNumber int, mapping XmlFieldMapping) (domain.Product, []ParseError) {
	var errs []ParseError

	str := func(path *string, extractor FieldExtractor) *string {
		if extractor != nil {
			if v := extractor(item); v != "" {
				return &v
			}
			return nil
		}
		if path == nil {
			return nil
		}
		return p.extractStringValue(item, *path)
	}

	var name string
	if mapping.NameExtractor != nil {
		name = mapping.NameExtractor(item)
	} else if v := p.extractStringValue(item, mapping.Name); v != nil {
		name = *v
	}
	if name == "" {
		errs = append(errs, ParseError{RowNumber: rowNumber, Field: "name", Message: "name is required"})
	}

	var priceStr string
	if mapping.PriceExtractor != nil {
		priceStr = mapping.PriceExtractor(item)
	} else if v := p.extractStringValue(item, mapping.Price); v != nil {
		priceStr = *v
	}
	if priceStr == "" {
		errs = append(errs, ParseError{RowNumber: rowNumber, Field: "price", Message: "price is required"})
	}
	if len(errs) > 0 {
		return domain.Product{}, errs
	}

	money, err := domain.ParseMoney(priceStr)
	if err != nil {
		return domain.Product{}, []ParseError{{RowNumber: rowNumber, Field: "price", Message: err.Error(), OriginalValue: priceStr}}
	}

	extID := ""
	if v := str(mapping.ExternalID, nil); v != nil {
		extID = *v
	}

	barcode := ""
	if mapping.BarcodesExtractor != nil {
		if bs := mapping.BarcodesExtractor(item); len(bs) > 0 {
			barcode = bs[0]
		}
	} else if mapping.Barcodes != nil {
		if bs := p.extractBarcodes(item, *mapping.Barcodes); len(bs) > 0 {
			barcode = bs[0]
		}
	}

	product := domain.Product{
		ProductID: extID,
		Name:      name,
		Barcode:   barcode,
		Price:     money,
	}
	if v := str(mapping.Category, nil); v != nil {
		product.Category = *v
	}
	if v := str(mapping.Brand, nil); v != nil {
		product.Brand = *v
	}
	if v := str(mapping.Unit, nil); v != nil {
		product.Unit = *v
	}
	if v := str(mapping.UnitQuantity, nil); v != nil {
		product.Quantity = *v
	}
	if v := str(mapping.UnitPrice, nil); v != nil {
		product.UnitPrice, _ = domain.ParseMoneyPtr(*v)
	}
	if v := str(mapping.LowestPrice30d, nil); v != nil {
		product.BestPrice30, _ = domain.ParseMoneyPtr(*v)
	}
	if v := str(mapping.AnchorPrice, nil); v != nil {
		product.AnchorPrice, _ = domain.ParseMoneyPtr(*v)
	}
	if v := str(mapping.DiscountPrice, nil); v != nil {
		product.SpecialPrice, _ = domain.ParseMoneyPtr(*v)
	}
	if v := str(mapping.AnchorPriceAsOf, nil); v != nil {
		product.AnchorPriceDate = *v
	}

	product, err = domain.NewProduct(product)
	if err != nil {
		return domain.Product{}, []ParseError{{RowNumber: rowNumber, Field: "product", Message: err.Error()}}
	}
	return product, nil
}

func (p *Parser) extractStringValue(item map[string]interface{}, path string) *string {
	value := p.getValueAtPath(item, path)
	return p.valueToString(value)
}

func (p *Parser) getValueAtPath(item map[string]interface{}, path string) interface{} {
	parts := strings.Split(path, ".")
	var current interface{} = item

	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil
		}
		value, found := m[part]
		if !found {
			for k, v := range m {
				if strings.EqualFold(k, part) {
					value, found = v, true
					break
				}
			}
		}
		if !found {
			return nil
		}
		current = value
	}
	return current
}

func (p *Parser) valueToString(value interface{}) *string {
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		return &s
	case float64:
		s := fmt.Sprintf("%g", v)
		return &s
	case map[string]interface{}:
		for _, key := range []string{"#text", "_text", "."} {
			if tv, ok := v[key]; ok {
				return p.valueToString(tv)
			}
		}
		for _, val := range v {
			if s := p.valueToString(val); s != nil {
				return s
			}
		}
		return nil
	default:
		s := strings.TrimSpace(fmt.Sprintf("%v", v))
		if s == "" {
			return nil
		}
		return &s
	}
}

var barcodeSeparators = regexp.MustCompile(`[,;|]`)

func (p *Parser) extractBarcodes(item map[string]interface{}, path string) []string {
	value := p.getValueAtPath(item, path)
	if value == nil {
		return nil
	}
	switch v := value.(type) {
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, bc := range v {
			if s := p.valueToString(bc); s != nil {
				out = append(out, *s)
			}
		}
		return out
	case string:
		return splitBarcodes(v)
	default:
		if s := p.valueToString(v); s != nil {
			return splitBarcodes(*s)
		}
		return nil
	}
}

func splitBarcodes(s string) []string {
	parts := barcodeSeparators.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if t := strings.TrimSpace(part); t != "" {
			out = append(out, t)
		}
	}
	return out
}

package xml

// FieldExtractor pulls a single string value out of a decoded XML item.
type FieldExtractor func(map[string]interface{}) string

// BarcodeExtractor pulls a list of barcodes out of a decoded XML item,
// for chains that encode more than one barcode per product.
type BarcodeExtractor func(map[string]interface{}) []string

// XmlFieldMapping names, per product field, the element (dot-path for
// nested elements, e.g. "product.price.value") a chain uses in its
// XML export. Name and Price are mandatory. A *Extractor function
// takes precedence over its corresponding path field when set, for
// chains whose value needs more than a direct lookup to extract.
type XmlFieldMapping struct {
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

	NameExtractor     FieldExtractor   `json:"-"`
	PriceExtractor    FieldExtractor   `json:"-"`
	BarcodesExtractor BarcodeExtractor `json:"-"`
}

// XmlParserOptions configures how an XML payload is read before its
// items are mapped onto products.
type XmlParserOptions struct {
	// ItemsPath is the dot-path to the repeating item element (e.g.
	// "products.product"). Left empty, the parser searches for the
	// first repeating element itself.
	ItemsPath              string          `json:"itemsPath"`
	FieldMapping           XmlFieldMapping `json:"fieldMapping"`
	DefaultStoreIdentifier string          `json:"defaultStoreIdentifier,omitempty"`
	Encoding               string          `json:"encoding,omitempty"`
	// AttributePrefix distinguishes decoded XML attributes from child
	// elements sharing the same name; defaults to "@_".
	AttributePrefix string `json:"attributePrefix,omitempty"`
}

// DefaultXmlOptions returns UTF-8 options with the conventional
// attribute prefix and auto-detected items path.
func DefaultXmlOptions() XmlParserOptions {
	return XmlParserOptions{
		AttributePrefix: "@_",
		Encoding:        "utf-8",
	}
}

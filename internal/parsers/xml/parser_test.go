package xml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_AutoDetectsItemsPathAndMapsFields(t *testing.T) {
	content := []byte(`<?xml version="1.0" encoding="UTF-8"?>
<products>
  <product>
    <naziv>Mlijeko</naziv>
    <cijena>5.99</cijena>
    <sifra>P1</sifra>
    <barkod>12345678</barkod>
  </product>
  <product>
    <naziv>Kruh</naziv>
    <cijena>12.50</cijena>
    <sifra>P2</sifra>
  </product>
</products>`)

	mapping := XmlFieldMapping{
		Name:       "naziv",
		Price:      "cijena",
		ExternalID: strPtr("sifra"),
		Barcodes:   strPtr("barkod"),
	}
	p := NewParser(XmlParserOptions{FieldMapping: mapping})

	result, err := p.Parse(content)
	require.NoError(t, err)
	require.Len(t, result.Products, 2)
	assert.Equal(t, "Mlijeko", result.Products[0].Name)
	assert.Equal(t, "P1", result.Products[0].ProductID)
	assert.Equal(t, "12345678", result.Products[0].Barcode)
	assert.Equal(t, "Kruh", result.Products[1].Name)
}

func TestParse_ExplicitItemsPathOverridesDetection(t *testing.T) {
	content := []byte(`<catalog>
  <items>
    <item><naziv>Sok</naziv><cijena>3.20</cijena></item>
  </items>
</catalog>`)

	p := NewParser(XmlParserOptions{
		ItemsPath:    "catalog.items.item",
		FieldMapping: XmlFieldMapping{Name: "naziv", Price: "cijena"},
	})

	result, err := p.Parse(content)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Sok", result.Products[0].Name)
}

func TestParse_MissingRequiredFieldIsRowError(t *testing.T) {
	content := []byte(`<products>
  <product><naziv></naziv><cijena>5.99</cijena></product>
</products>`)

	p := NewParser(XmlParserOptions{FieldMapping: XmlFieldMapping{Name: "naziv", Price: "cijena"}})
	result, err := p.Parse(content)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ValidRows)
	assert.NotEmpty(t, result.Errors)
}

func TestParse_FallsBackToAlternativeMappingWhenPrimaryYieldsNothing(t *testing.T) {
	content := []byte(`<products>
  <product><name>Mlijeko</name><price>5.99</price></product>
</products>`)

	p := NewParser(XmlParserOptions{FieldMapping: XmlFieldMapping{Name: "naziv", Price: "cijena"}})
	p.SetAlternativeMapping(&XmlFieldMapping{Name: "name", Price: "price"})

	result, err := p.Parse(content)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Mlijeko", result.Products[0].Name)
}

func strPtr(s string) *string { return &s }

// Package config holds the per-chain wiring table: base URL, upstream
// format, and format-specific parser options for every chain slug this
// module ships an adapter for, keyed directly by the lowercase slug
// chains.Registry uses.
package config

import (
	"github.com/kosarica/pricehist/internal/parsers/csv"
)

// Format identifies which parser package an adapter's downloaded file
// should be handed to.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXML  Format = "xml"
	FormatXLSX Format = "xlsx"
)

// StoreResolution describes how an adapter recovers a store identity
// from a discovered file: "filename" (per-store files, identifier
// embedded in the name), "portal_id" (an upstream portal/store code
// carried in the payload itself), or "national" (one file covers every
// store, as published by chains with uniform nationwide pricing).
type StoreResolution string

const (
	ResolutionFilename StoreResolution = "filename"
	ResolutionPortalID StoreResolution = "portal_id"
	ResolutionNational StoreResolution = "national"
)

// CSVOptions carries the CSV-specific knobs a chain's export needs.
type CSVOptions struct {
	Delimiter csv.CsvDelimiter
	Encoding  csv.CsvEncoding
	HasHeader bool
}

// ChainConfig is the static wiring for one chain's upstream source.
type ChainConfig struct {
	Slug            string
	Name            string
	BaseURL         string
	Format          Format
	CSV             CSVOptions
	StoreResolution StoreResolution
}

// Chains lists the wiring for every supported slug. Konzum, Interspar,
// and Kaufland get fully worked adapters; the rest share the generic
// CSV adapter in internal/adapters/chains/generic.go.
var Chains = []ChainConfig{
	{
		Slug:            "konzum",
		Name:            "Konzum",
		BaseURL:         "https://www.konzum.hr/cjenici",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterComma, Encoding: csv.EncodingUTF8, HasHeader: true},
		StoreResolution: ResolutionFilename,
	},
	{
		Slug:            "interspar",
		Name:            "Interspar",
		BaseURL:         "https://www.spar.hr/usluge/cjenici",
		Format:          FormatXLSX,
		StoreResolution: ResolutionFilename,
	},
	{
		Slug:            "kaufland",
		Name:            "Kaufland",
		BaseURL:         "https://www.kaufland.hr/akcije-novosti/popis-mpc.html",
		Format:          FormatXML,
		StoreResolution: ResolutionPortalID,
	},
	{
		Slug:            "lidl",
		Name:            "Lidl",
		BaseURL:         "https://tvrtka.lidl.hr/cijene",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterComma, Encoding: csv.EncodingWindows1250, HasHeader: true},
		StoreResolution: ResolutionFilename,
	},
	{
		Slug:            "plodine",
		Name:            "Plodine",
		BaseURL:         "https://www.plodine.hr/info-o-cijenama",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterSemicolon, Encoding: csv.EncodingWindows1250, HasHeader: true},
		StoreResolution: ResolutionFilename,
	},
	{
		Slug:            "studenac",
		Name:            "Studenac",
		BaseURL:         "https://www.studenac.hr/popis-maloprodajnih-cijena",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterSemicolon, Encoding: csv.EncodingUTF8, HasHeader: true},
		StoreResolution: ResolutionPortalID,
	},
	{
		Slug:            "eurospin",
		Name:            "Eurospin",
		BaseURL:         "https://www.eurospin.hr/cjenik/",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterSemicolon, Encoding: csv.EncodingUTF8, HasHeader: true},
		StoreResolution: ResolutionFilename,
	},
	{
		Slug:            "dm",
		Name:            "DM",
		BaseURL:         "https://www.dm.hr/novo/promocije/nove-oznake-cijena-i-vazeci-cjenik",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterComma, Encoding: csv.EncodingUTF8, HasHeader: true},
		StoreResolution: ResolutionNational,
	},
	{
		Slug:            "ktc",
		Name:            "KTC",
		BaseURL:         "https://www.ktc.hr/cjenici",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterSemicolon, Encoding: csv.EncodingWindows1250, HasHeader: true},
		StoreResolution: ResolutionFilename,
	},
	{
		Slug:            "metro",
		Name:            "Metro",
		BaseURL:         "https://metrocjenik.com.hr/",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterComma, Encoding: csv.EncodingUTF8, HasHeader: true},
		StoreResolution: ResolutionPortalID,
	},
	{
		Slug:            "trgocentar",
		Name:            "Trgocentar",
		BaseURL:         "https://trgocentar.com/Trgovine-cjenik/",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterSemicolon, Encoding: csv.EncodingUTF8, HasHeader: true},
		StoreResolution: ResolutionFilename,
	},
	{
		Slug:            "spar",
		Name:            "Spar",
		BaseURL:         "https://www.spar.hr/usluge/cjenici",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterSemicolon, Encoding: csv.EncodingUTF8, HasHeader: true},
		StoreResolution: ResolutionFilename,
	},
	{
		Slug:            "tommy",
		Name:            "Tommy",
		BaseURL:         "https://www.tommy.hr/objava-cjenika",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterSemicolon, Encoding: csv.EncodingUTF8, HasHeader: true},
		StoreResolution: ResolutionFilename,
	},
	{
		Slug:            "zabac",
		Name:            "Zabac",
		BaseURL:         "https://zabac.hr/cjenici",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterSemicolon, Encoding: csv.EncodingUTF8, HasHeader: true},
		StoreResolution: ResolutionFilename,
	},
	{
		Slug:            "vrutak",
		Name:            "Vrutak",
		BaseURL:         "https://www.vrutak.hr/cjenici",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterSemicolon, Encoding: csv.EncodingUTF8, HasHeader: true},
		StoreResolution: ResolutionFilename,
	},
	{
		Slug:            "ribola",
		Name:            "Ribola",
		BaseURL:         "https://www.ribola.hr/cjenici",
		Format:          FormatCSV,
		CSV:             CSVOptions{Delimiter: csv.DelimiterSemicolon, Encoding: csv.EncodingUTF8, HasHeader: true},
		StoreResolution: ResolutionFilename,
	},
}

// ByFunc looks up one chain's config by slug.
func ByFunc(slug string) (ChainConfig, bool) {
	for _, c := range Chains {
		if c.Slug == slug {
			return c, true
		}
	}
	return ChainConfig{}, false
}

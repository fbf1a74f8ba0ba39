package charset

import (
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// croatianWindows1250 maps the Windows-1250 byte values for letters
// with Croatian/Central European diacritics to their runes.
var croatianWindows1250 = map[byte]rune{
	0x8A: 'Š',
	0x9A: 'š',
	0xD0: 'Đ',
	0xF0: 'đ',
	0xC8: 'Č',
	0xE8: 'č',
	0x8E: 'Ž',
	0x9E: 'ž',
	0xC6: 'Ć',
	0xE6: 'ć',
}

// Encoding identifies a source text encoding a chain export might use.
type Encoding string

const (
	EncodingUTF8        Encoding = "utf-8"
	EncodingWindows1250 Encoding = "windows-1250"
	EncodingISO88592    Encoding = "iso-8859-2"
)

// DetectEncoding guesses the encoding of a byte buffer. A UTF-8 BOM
// or generally valid UTF-8 content is reported as UTF-8; Croatian
// diacritics survive fine inside valid UTF-8 multibyte sequences, so
// validity alone is enough to decide without a secondary byte-pattern
// heuristic. Anything that fails UTF-8 validation is assumed to be
// Windows-1250, the encoding most legacy chain exports fall back to.
func DetectEncoding(data []byte) Encoding {
	if hasUTF8BOM(data) || utf8.Valid(data) {
		return EncodingUTF8
	}
	return EncodingWindows1250
}

func hasUTF8BOM(data []byte) bool {
	return len(data) >= 3 && data[0] == 0xEF && data[1] == 0xBB && data[2] == 0xBF
}

// Decode converts data into a UTF-8 string under the assumption that
// it is encoded as enc. Valid UTF-8 input is always returned as-is,
// even when enc claims otherwise, since a chain's declared encoding
// for a feed is sometimes stale or simply wrong.
func Decode(data []byte, enc Encoding) (string, error) {
	if utf8.Valid(data) {
		return string(data), nil
	}

	switch enc {
	case EncodingISO88592:
		return decodeISO88592(data)
	case EncodingWindows1250, EncodingUTF8, "":
		return decodeWindows1250(data)
	default:
		return string(data), nil
	}
}

// decodeWindows1250 remaps the Croatian diacritic byte range by hand
// and copies every other byte through unchanged, since
// golang.org/x/text's Windows1252 charmap lacks several of the
// Central European letters a Windows-1250 export actually uses.
func decodeWindows1250(data []byte) (string, error) {
	var b strings.Builder
	b.Grow(len(data))
	for _, raw := range data {
		if r, ok := croatianWindows1250[raw]; ok {
			b.WriteRune(r)
		} else {
			b.WriteByte(raw)
		}
	}
	return b.String(), nil
}

// decodeISO88592 decodes ISO-8859-2 bytes to UTF-8 via the standard
// charmap transformer; unlike Windows-1250, ISO-8859-2 is fully
// covered by golang.org/x/text so no manual byte table is needed.
func decodeISO88592(data []byte) (string, error) {
	reader := transform.NewReader(strings.NewReader(string(data)), charmap.ISO8859_2.NewDecoder())
	result, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return string(result), nil
}

// ToUTF8Reader wraps r with a streaming decoder that converts from enc
// to UTF-8. UTF-8 input passes through unwrapped.
func ToUTF8Reader(r io.Reader, enc Encoding) (io.Reader, error) {
	var dec encoding.Encoding
	switch enc {
	case EncodingWindows1250:
		dec = charmap.Windows1250
	case EncodingISO88592:
		dec = charmap.ISO8859_2
	default:
		return r, nil
	}
	return transform.NewReader(r, dec.NewDecoder()), nil
}

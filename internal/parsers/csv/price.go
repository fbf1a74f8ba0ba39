package csv

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

var currencySuffix = regexp.MustCompile(`\s*(KN|KUNA|HRK|EUR|USD)\s*$`)

// stripCurrencyMarkers removes currency symbols, non-breaking spaces,
// and trailing currency words a chain might append to a price cell
// (e.g. "5,99 kn"), leaving only digits and separators behind.
func stripCurrencyMarkers(value string) string {
	cleaned := strings.Map(func(r rune) rune {
		switch r {
		case '€', '$', '£', '₹', '¥', '¢', ' ':
			return -1
		default:
			return r
		}
	}, value)

	cleaned = currencySuffix.ReplaceAllString(strings.ToUpper(cleaned), "")
	return strings.TrimSpace(cleaned)
}

// normalizeDecimalSeparator picks whichever of '.' or ',' appears
// last as the decimal point and treats the other as a thousands
// separator to strip, matching both "1.234,56" (European) and
// "1,234.56" (US) price formats. A value with commas but no dot has
// every comma turned into a dot ("5,99" -> "5.99"); a value with dots
// but no comma, or with neither, is returned unchanged.
func normalizeDecimalSeparator(cleaned string) string {
	lastDot := strings.LastIndex(cleaned, ".")
	lastComma := strings.LastIndex(cleaned, ",")

	switch {
	case lastComma > lastDot:
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		return strings.ReplaceAll(cleaned, ",", ".")
	case lastDot > lastComma:
		return strings.ReplaceAll(cleaned, ",", "")
	default:
		return cleaned
	}
}

// ParsePrice converts a chain's raw price cell into integer cents.
// It tolerates currency symbols, trailing currency words, and both
// European (1.234,56) and US (1,234.56) thousands/decimal
// conventions.
func ParsePrice(value string) (int, error) {
	if value == "" {
		return 0, fmt.Errorf("price: empty value")
	}

	cleaned := normalizeDecimalSeparator(stripCurrencyMarkers(strings.TrimSpace(value)))
	if cleaned == "" {
		return 0, fmt.Errorf("price: %q has no numeric content", value)
	}

	amount, err := parseFloat(cleaned)
	if err != nil {
		return 0, fmt.Errorf("price: %q: %w", value, err)
	}

	return int(math.Round(amount * 100)), nil
}

// parseFloat parses s as a decimal number, rejecting strings that
// contain no digits at all rather than letting strconv silently
// accept an empty or sign-only string.
func parseFloat(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.ContainsFunc(s, unicode.IsDigit) {
		return 0, fmt.Errorf("no digits in %q", s)
	}
	return strconv.ParseFloat(s, 64)
}

// FormatCents renders cents using a dot decimal separator, e.g. 1299 -> "12.99".
func FormatCents(cents int) string {
	return fmt.Sprintf("%.2f", float64(cents)/100.0)
}

// FormatCentsEuropean renders cents using a comma decimal separator,
// e.g. 1299 -> "12,99", for chains that expect Croatian-style output.
func FormatCentsEuropean(cents int) string {
	return strings.ReplaceAll(FormatCents(cents), ".", ",")
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMoney_HalfUpRounding(t *testing.T) {
	assert.Equal(t, "11.00", NewMoney(10.995).String())
	assert.Equal(t, "10.99", NewMoney(10.994).String())
	assert.Equal(t, "1.99", NewMoney(1.99).String())
}

func TestParseMoney_CroatianComma(t *testing.T) {
	m, err := ParseMoney("12,99")
	require.NoError(t, err)
	assert.Equal(t, "12.99", m.String())
}

func TestParseMoney_Period(t *testing.T) {
	m, err := ParseMoney("12.99")
	require.NoError(t, err)
	assert.Equal(t, "12.99", m.String())
}

func TestParseMoney_Empty(t *testing.T) {
	_, err := ParseMoney("")
	assert.Error(t, err)
}

func TestParseMoneyPtr_BlankIsAbsentNotZero(t *testing.T) {
	m, err := ParseMoneyPtr("")
	require.NoError(t, err)
	assert.Nil(t, m, "blank optional decimal must be absent, not zero")
}

func TestParseMoneyPtr_ZeroIsNotAbsent(t *testing.T) {
	m, err := ParseMoneyPtr("0.00")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.True(t, m.Equal(MoneyFromCents(0)))
}

func TestMoneyPtrEqual_AbsentNeverEqualsZero(t *testing.T) {
	zero := MoneyFromCents(0)
	assert.False(t, MoneyPtrEqual(nil, &zero), "absent must never compare equal to zero")
	assert.True(t, MoneyPtrEqual(nil, nil))
	assert.True(t, MoneyPtrEqual(&zero, &zero))
}

func TestIsValidBarcode(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"12345678", true},
		{"123456789012", true},
		{"1234567", false}, // 7 digits, below the 8-digit floor
		{"", false},
		{"abc12345", false},
		{"1234-5678", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsValidBarcode(tt.in), "barcode %q", tt.in)
	}
}

func TestEffectiveBarcode(t *testing.T) {
	assert.Equal(t, "12345678", EffectiveBarcode("acme", "P1", "12345678"))
	assert.Equal(t, "acme:P1", EffectiveBarcode("acme", "P1", ""))
	assert.Equal(t, "acme:P1", EffectiveBarcode("acme", "P1", "not-a-barcode"))
	assert.Equal(t, "acme:P1", EffectiveBarcode("acme", "P1", "1234567")) // 7 digits: synthetic
}

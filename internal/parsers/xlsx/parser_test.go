package xlsx

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func buildWorkbook(t *testing.T, headers []string, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, h))
	}
	for r, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, cell, v))
		}
	}
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	return buf.Bytes()
}

func TestParse_HeaderMatchedColumns(t *testing.T) {
	content := buildWorkbook(t,
		[]string{"Naziv", "Cijena"},
		[][]string{{"Mlijeko", "5.99"}, {"Kruh", "12.50"}},
	)

	opts := DefaultOptions()
	opts.ColumnMapping = &XlsxColumnMapping{
		Name:  NewHeaderIndex("Naziv"),
		Price: NewHeaderIndex("Cijena"),
	}

	result, err := NewParser(opts).Parse(content)
	require.NoError(t, err)
	assert.Equal(t, 2, result.ValidRows)
	require.Len(t, result.Products, 2)
	assert.Equal(t, "Mlijeko", result.Products[0].Name)
}

func TestParse_NumericIndexColumns(t *testing.T) {
	content := buildWorkbook(t, nil, [][]string{{"Mlijeko", "5.99"}})

	opts := XlsxParserOptions{HasHeader: false, SkipEmptyRows: true}
	opts.ColumnMapping = &XlsxColumnMapping{
		Name:  NewNumericIndex(0),
		Price: NewNumericIndex(1),
	}

	result, err := NewParser(opts).Parse(content)
	require.NoError(t, err)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Mlijeko", result.Products[0].Name)
}

func TestParse_MissingRequiredFieldProducesRowError(t *testing.T) {
	content := buildWorkbook(t,
		[]string{"Naziv", "Cijena"},
		[][]string{{"", "5.99"}},
	)

	opts := DefaultOptions()
	opts.ColumnMapping = &XlsxColumnMapping{
		Name:  NewHeaderIndex("Naziv"),
		Price: NewHeaderIndex("Cijena"),
	}

	result, err := NewParser(opts).Parse(content)
	require.NoError(t, err)
	assert.Equal(t, 0, result.ValidRows)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "name", result.Errors[0].Field)
}

func TestParse_EmptyRowsAreSkipped(t *testing.T) {
	content := buildWorkbook(t,
		[]string{"Naziv", "Cijena"},
		[][]string{{"Mlijeko", "5.99"}, {"", ""}},
	)

	opts := DefaultOptions()
	opts.ColumnMapping = &XlsxColumnMapping{
		Name:  NewHeaderIndex("Naziv"),
		Price: NewHeaderIndex("Cijena"),
	}

	result, err := NewParser(opts).Parse(content)
	require.NoError(t, err)
	assert.Equal(t, 1, result.ValidRows)
	require.Len(t, result.Products, 1)
	assert.Equal(t, "Mlijeko", result.Products[0].Name)
}

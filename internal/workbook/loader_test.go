package workbook_test

import (
	"bytes"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/odyssey-erp/prospector/internal/workbook"
)

func buildWorkbook(t *testing.T, header []interface{}, rows ...[]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetList()[0]
	if err := f.SetCellValue(sheet, "A1", "SUPERINTENDENCIA DE SOCIEDADES"); err != nil {
		t.Fatalf("title: %v", err)
	}
	if err := f.SetSheetRow(sheet, "A5", &header); err != nil {
		t.Fatalf("header: %v", err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, 6+i)
		if err != nil {
			t.Fatalf("coords: %v", err)
		}
		row := row
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("row %d: %v", i, err)
		}
	}
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	return buf
}

func fullHeader() []interface{} {
	out := make([]interface{}, len(workbook.Columns))
	for i, name := range workbook.Columns {
		out[i] = name
	}
	return out
}

func TestLoadParsesRecords(t *testing.T) {
	buf := buildWorkbook(t, fullHeader(),
		[]interface{}{1, "900123456", "Lacteos del Valle SAS", "Superintendencia", "Pacífico", "VALLE", "CALI", "C1051", "MANUFACTURA",
			1500, 150, 2000, 800, 1200, 1000, 90, 1800, 700, 1100, "Grupo 1"},
		[]interface{}{2, "800", "", "", "", "", "", "C1011", "", 1},
		[]interface{}{3, "", "RAZON SOCIAL", "", "", "", "", "", ""},
		[]interface{}{4, "901", "  Mayorista  ", "", "Centro", "BOGOTA D.C.", "BOGOTA", "G4631", "COMERCIO", "n.d.", "1,250", "$3000"},
	)

	res, err := workbook.Load(buf)
	require.NoError(t, err)
	require.Len(t, res.Records, 2)
	assert.Equal(t, 2, res.Skipped)

	first := res.Records[0]
	assert.Equal(t, 6, first.Row)
	assert.Equal(t, "900123456", first.TaxID)
	assert.Equal(t, "C1051", first.IndustryCode)
	assert.Equal(t, "Grupo 1", first.AccountingGroup)
	require.NotNil(t, first.Y2024.Revenue)
	assert.Equal(t, 1500.0, *first.Y2024.Revenue)
	require.NotNil(t, first.Y2023.Equity)
	assert.Equal(t, 1100.0, *first.Y2023.Equity)

	second := res.Records[1]
	assert.Equal(t, 9, second.Row)
	assert.Equal(t, "Mayorista", second.LegalName)
	assert.Nil(t, second.Y2024.Revenue)
	require.NotNil(t, second.Y2024.Profit)
	assert.Equal(t, 1250.0, *second.Y2024.Profit)
	require.NotNil(t, second.Y2024.Assets)
	assert.Equal(t, 3000.0, *second.Y2024.Assets)
	assert.Nil(t, second.Y2023.Revenue)
	assert.Empty(t, second.AccountingGroup)
}

func TestLoadRejectsNarrowHeader(t *testing.T) {
	buf := buildWorkbook(t, fullHeader()[:12])
	_, err := workbook.Load(buf)
	assert.True(t, errors.Is(err, workbook.ErrSchemaMismatch))
}

func TestLoadRejectsMissingHeader(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	_, err = workbook.Load(buf)
	assert.True(t, errors.Is(err, workbook.ErrSchemaMismatch))
}

func TestLoadRejectsGarbage(t *testing.T) {
	_, err := workbook.Load(strings.NewReader("RAZON_SOCIAL;NIT\nfoo;1\n"))
	assert.True(t, errors.Is(err, workbook.ErrUnreadable))
}

func TestLoadFileMissing(t *testing.T) {
	_, err := workbook.LoadFile("does-not-exist.xlsx")
	assert.True(t, errors.Is(err, workbook.ErrUnreadable))
}

func TestParseNumber(t *testing.T) {
	cases := []struct {
		raw  string
		want *float64
	}{
		{"", nil},
		{"  ", nil},
		{"abc", nil},
		{"NaN", nil},
		{"+Inf", nil},
		{"42", ptr(42)},
		{" -3.5 ", ptr(-3.5)},
		{"1.5E+3", ptr(1500)},
		{"$ 1,234,567", ptr(1234567)},
		{"1,234.5", ptr(1234.5)},
		{"-1,000", ptr(-1000)},
		{"$ 1500", ptr(1500)},
		{"1,5", nil},
		{"12,34", nil},
		{"1,2345", nil},
	}
	for _, tc := range cases {
		got := workbook.ParseNumber(tc.raw)
		if tc.want == nil {
			assert.Nil(t, got, "raw %q", tc.raw)
			continue
		}
		require.NotNil(t, got, "raw %q", tc.raw)
		assert.False(t, math.IsNaN(*got))
		assert.Equal(t, *tc.want, *got, "raw %q", tc.raw)
	}
}

func ptr(v float64) *float64 { return &v }

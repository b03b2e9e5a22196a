// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package mapping

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/label-organizer/pkg/types"
)

// workbook builds an xlsx in memory. rows are written starting at startRow
// in columns A, B, C...
func workbook(t *testing.T, sheet string, startRow int, rows [][]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if sheet != "Sheet1" {
		_, err := f.NewSheet(sheet)
		require.NoError(t, err)
		require.NoError(t, f.DeleteSheet("Sheet1"))
	}
	for i, row := range rows {
		for j, v := range row {
			name, err := excelize.CoordinatesToCellName(j+1, startRow+i)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheet, name, v))
		}
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

// exportRows mimics the logistics export: preamble, header on row 9, data after.
func exportRows(data ...[]string) [][]string {
	rows := make([][]string, 0, 9+len(data))
	for i := 0; i < 8; i++ {
		rows = append(rows, []string{"Kwik export", "preamble"})
	}
	rows = append(rows, []string{"#", "SKU", "Model Number"})
	return append(rows, data...)
}

func TestRead_DefaultLayout(t *testing.T) {
	data := workbook(t, "Sheet1", 1, exportRows(
		[]string{"1", "AB-1234-567", "KS-100"},
		[]string{"2", "CDE-12345-6789", "KS-200"},
		[]string{"3", " FG-9876-543 ", " KS-300 "},
	))

	m, err := Read(bytes.NewReader(data), types.MappingConfig{})
	require.NoError(t, err)

	assert.Equal(t, 3, m.Len())
	model, ok := m.Lookup("AB-1234-567")
	assert.True(t, ok)
	assert.Equal(t, "KS-100", model)

	model, ok = m.Lookup("FG-9876-543")
	assert.True(t, ok, "keys are trimmed")
	assert.Equal(t, "KS-300", model)

	_, ok = m.Lookup("SKU")
	assert.False(t, ok, "header row is not data")
	_, ok = m.Lookup("preamble")
	assert.False(t, ok, "preamble rows are skipped")
}

func TestRead_SkipsIncompleteRows(t *testing.T) {
	data := workbook(t, "Sheet1", 1, exportRows(
		[]string{"1", "AB-1234-567", ""},
		[]string{"2", "", "KS-200"},
		[]string{"3", "CD-1234-567", "KS-300"},
	))

	m, err := Read(bytes.NewReader(data), types.MappingConfig{})
	require.NoError(t, err)

	assert.Equal(t, []Entry{{SKU: "CD-1234-567", Model: "KS-300"}}, m.Entries())
}

func TestRead_DuplicateSKULastWins(t *testing.T) {
	data := workbook(t, "Sheet1", 1, exportRows(
		[]string{"1", "AB-1234-567", "KS-100"},
		[]string{"2", "AB-1234-567", "KS-101"},
	))

	m, err := Read(bytes.NewReader(data), types.MappingConfig{})
	require.NoError(t, err)

	model, _ := m.Lookup("AB-1234-567")
	assert.Equal(t, "KS-101", model)
}

func TestRead_CustomLayout(t *testing.T) {
	data := workbook(t, "SKUs", 1, [][]string{
		{"Model", "SKU"},
		{"KS-100", "AB-1234-567"},
	})

	m, err := Read(bytes.NewReader(data), types.MappingConfig{
		Sheet:       "SKUs",
		HeaderRow:   1,
		SKUColumn:   "B",
		ModelColumn: "A",
	})
	require.NoError(t, err)

	model, ok := m.Lookup("AB-1234-567")
	assert.True(t, ok)
	assert.Equal(t, "KS-100", model)
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		cfg    types.MappingConfig
		errMsg string
	}{
		{
			name:   "missing sheet",
			data:   workbook(t, "Sheet1", 1, exportRows()),
			cfg:    types.MappingConfig{Sheet: "Nope"},
			errMsg: "sheet not found",
		},
		{
			name:   "not a workbook",
			data:   []byte("sku,model\n"),
			errMsg: "opening workbook",
		},
		{
			name:   "bad column",
			data:   workbook(t, "Sheet1", 1, exportRows()),
			cfg:    types.MappingConfig{SKUColumn: "1"},
			errMsg: "sku column",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(bytes.NewReader(tt.data), tt.cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "skus.xlsx")
	require.NoError(t, os.WriteFile(path, workbook(t, "Sheet1", 1, exportRows(
		[]string{"1", "AB-1234-567", "KS-100"},
	)), 0o644))

	m, err := Load(path, types.MappingConfig{})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())

	_, err = Load(filepath.Join(dir, "skus.csv"), types.MappingConfig{})
	assert.ErrorIs(t, err, ErrNotXLSX)

	_, err = Load(filepath.Join(dir, "missing.xlsx"), types.MappingConfig{})
	assert.Error(t, err)
}

func TestEntriesSorted(t *testing.T) {
	m := New([]Entry{
		{SKU: "ZZ-0000-000", Model: "Z"},
		{SKU: "AA-0000-000", Model: "A"},
	})
	assert.Equal(t, []Entry{
		{SKU: "AA-0000-000", Model: "A"},
		{SKU: "ZZ-0000-000", Model: "Z"},
	}, m.Entries())
}

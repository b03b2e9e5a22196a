// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mapping loads the SKU to model number table from an Excel workbook.
// The default layout matches the logistics export: eight preamble rows, a
// header on row 9, SKU codes in column B and model numbers in column C.
package mapping

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/label-organizer/pkg/types"
)

const (
	defaultHeaderRow   = 9
	defaultSKUColumn   = "B"
	defaultModelColumn = "C"
)

var (
	// ErrNotXLSX is returned for mapping files without an .xlsx extension.
	ErrNotXLSX = errors.New("mapping file must be an .xlsx workbook")

	// ErrSheetNotFound is returned when the configured sheet does not exist.
	ErrSheetNotFound = errors.New("sheet not found")
)

// Entry is one row of the SKU table.
type Entry struct {
	SKU   string `json:"sku" yaml:"sku"`
	Model string `json:"model" yaml:"model"`
}

// Mapping resolves SKU codes to model numbers.
type Mapping struct {
	models map[string]string
}

// New builds a Mapping from entries. Later entries override earlier ones.
func New(entries []Entry) Mapping {
	m := Mapping{models: make(map[string]string, len(entries))}
	for _, e := range entries {
		m.models[e.SKU] = e.Model
	}
	return m
}

// Lookup returns the model number for code.
func (m Mapping) Lookup(code string) (string, bool) {
	model, ok := m.models[code]
	return model, ok
}

// Len returns the number of distinct SKU codes.
func (m Mapping) Len() int {
	return len(m.models)
}

// Entries returns the table sorted by SKU.
func (m Mapping) Entries() []Entry {
	entries := make([]Entry, 0, len(m.models))
	for sku, model := range m.models {
		entries = append(entries, Entry{SKU: sku, Model: model})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].SKU < entries[j].SKU })
	return entries
}

// CheckName rejects file names that are not .xlsx workbooks.
func CheckName(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".xlsx") {
		return fmt.Errorf("%s: %w", name, ErrNotXLSX)
	}
	return nil
}

// Load opens the workbook at path and reads the SKU table.
func Load(path string, cfg types.MappingConfig) (Mapping, error) {
	if err := CheckName(path); err != nil {
		return Mapping{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return Mapping{}, fmt.Errorf("opening mapping %s: %w", path, err)
	}
	defer f.Close()

	m, err := Read(f, cfg)
	if err != nil {
		return Mapping{}, fmt.Errorf("reading mapping %s: %w", path, err)
	}
	return m, nil
}

// Read parses an xlsx workbook from r. Rows with an empty SKU or model number
// are skipped.
func Read(r io.Reader, cfg types.MappingConfig) (Mapping, error) {
	cfg = withDefaults(cfg)

	skuCol, err := excelize.ColumnNameToNumber(cfg.SKUColumn)
	if err != nil {
		return Mapping{}, fmt.Errorf("sku column %q: %w", cfg.SKUColumn, err)
	}
	modelCol, err := excelize.ColumnNameToNumber(cfg.ModelColumn)
	if err != nil {
		return Mapping{}, fmt.Errorf("model column %q: %w", cfg.ModelColumn, err)
	}

	wb, err := excelize.OpenReader(r)
	if err != nil {
		return Mapping{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer wb.Close()

	sheet := cfg.Sheet
	if sheet == "" {
		sheets := wb.GetSheetList()
		if len(sheets) == 0 {
			return Mapping{}, fmt.Errorf("workbook has no sheets: %w", ErrSheetNotFound)
		}
		sheet = sheets[0]
	} else if idx, err := wb.GetSheetIndex(sheet); err != nil || idx < 0 {
		return Mapping{}, fmt.Errorf("%q: %w", sheet, ErrSheetNotFound)
	}

	rows, err := wb.GetRows(sheet)
	if err != nil {
		return Mapping{}, fmt.Errorf("reading rows of %q: %w", sheet, err)
	}

	var entries []Entry
	for i := cfg.HeaderRow; i < len(rows); i++ {
		sku := cell(rows[i], skuCol)
		model := cell(rows[i], modelCol)
		if sku == "" || model == "" {
			continue
		}
		entries = append(entries, Entry{SKU: sku, Model: model})
	}
	return New(entries), nil
}

// cell returns the trimmed value at the 1-based column, or "" past the end
// of a short row.
func cell(row []string, col int) string {
	if col-1 >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col-1])
}

func withDefaults(cfg types.MappingConfig) types.MappingConfig {
	if cfg.HeaderRow <= 0 {
		cfg.HeaderRow = defaultHeaderRow
	}
	if cfg.SKUColumn == "" {
		cfg.SKUColumn = defaultSKUColumn
	}
	if cfg.ModelColumn == "" {
		cfg.ModelColumn = defaultModelColumn
	}
	return cfg
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// TextBackend identifies the library used to read page text.
type TextBackend string

const (
	BackendNative TextBackend = "native"
	BackendFitz   TextBackend = "fitz"
)

// MappingConfig describes where the SKU table lives inside the workbook.
type MappingConfig struct {
	// Sheet is the worksheet name. Empty selects the first sheet.
	Sheet string `json:"sheet" yaml:"sheet" mapstructure:"sheet"`

	// HeaderRow is the 1-based row holding the column headings (default 9).
	// Data rows start on the row after it.
	HeaderRow int `json:"header_row" yaml:"header_row" mapstructure:"header_row"`

	// SKUColumn is the column letter holding SKU codes (default "B").
	SKUColumn string `json:"sku_column" yaml:"sku_column" mapstructure:"sku_column"`

	// ModelColumn is the column letter holding model numbers (default "C").
	ModelColumn string `json:"model_column" yaml:"model_column" mapstructure:"model_column"`
}

// MatchConfig holds settings for finding the SKU code on a label page.
type MatchConfig struct {
	// Pattern is the regular expression used to find a SKU code. When it has
	// a capture group, group 1 is the code.
	Pattern string `json:"pattern" yaml:"pattern" mapstructure:"pattern"`

	// Fallback is the group label for pairs with no recognizable code
	// (default "Unknown").
	Fallback string `json:"fallback" yaml:"fallback" mapstructure:"fallback"`

	// Backend selects the page text library: native or fitz.
	Backend TextBackend `json:"backend" yaml:"backend" mapstructure:"backend"`
}

// OutputConfig controls what a run produces.
type OutputConfig struct {
	// ArchiveName is the file name of the zip archive (default "Processed_PDFs.zip").
	ArchiveName string `json:"archive_name" yaml:"archive_name" mapstructure:"archive_name"`

	// Dir, when set, also receives one PDF per group (e.g. "output_pdfs").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// OmitManifest drops manifest.yaml from the archive.
	OmitManifest bool `json:"omit_manifest" yaml:"omit_manifest" mapstructure:"omit_manifest"`
}

// ServerConfig holds settings for the upload form server.
type ServerConfig struct {
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`

	// MaxUploadBytes caps the multipart request body (default 256 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`

	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
}

// HistoryConfig holds settings for the run history database.
type HistoryConfig struct {
	// Dir contains history.db (default ".label-organizer").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`

	// Disabled turns off run recording.
	Disabled bool `json:"disabled" yaml:"disabled" mapstructure:"disabled"`
}

// LogConfig holds structured logging settings.
type LogConfig struct {
	// Level is a zerolog level name (default "info").
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "console" or "json" (default "console").
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups all settings read from label-organizer.yaml.
type Config struct {
	Mapping MappingConfig `json:"mapping" yaml:"mapping" mapstructure:"mapping"`
	Match   MatchConfig   `json:"match" yaml:"match" mapstructure:"match"`
	Output  OutputConfig  `json:"output" yaml:"output" mapstructure:"output"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}

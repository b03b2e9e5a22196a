// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfdoc reads label sheet PDFs, exposes per-page text, and writes
// page subsets as new PDFs. Several inputs are treated as one document in
// upload order.
//
// Page structure is handled by pdfcpu. Page text comes from a pluggable
// backend: ledongthuc/pdf (pure Go) or go-fitz (MuPDF).
package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/label-organizer/pkg/types"
)

var (
	// ErrNoSources is returned when Open is called without any PDF.
	ErrNoSources = errors.New("no PDF sources")

	// ErrNotPDF is returned for source names without a .pdf extension.
	ErrNotPDF = errors.New("source must be a .pdf file")

	// ErrPageRange is returned for page numbers outside the document.
	ErrPageRange = errors.New("page out of range")
)

// Source is one uploaded PDF.
type Source struct {
	Name string
	Data []byte
}

// CheckName rejects file names that are not PDFs.
func CheckName(name string) error {
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		return fmt.Errorf("%s: %w", name, ErrNotPDF)
	}
	return nil
}

// Document is the concatenation of one or more PDFs.
type Document struct {
	ctx  *model.Context
	text TextSource
}

// Open reads sources in order and merges them into a single document. Page
// text is read from each input so that merging never alters what
// the text backend sees.
func Open(sources []Source, backend types.TextBackend) (*Document, error) {
	if len(sources) == 0 {
		return nil, ErrNoSources
	}

	merged, err := merge(sources)
	if err != nil {
		return nil, err
	}

	conf := model.NewDefaultConfiguration()
	ctx, err := api.ReadValidateAndOptimize(bytes.NewReader(merged), conf)
	if err != nil {
		return nil, fmt.Errorf("reading merged document: %w", err)
	}

	parts := make([]TextSource, 0, len(sources))
	for _, s := range sources {
		ts, err := NewTextSource(s.Data, backend)
		if err != nil {
			closeAll(parts)
			return nil, fmt.Errorf("reading text of %s: %w", s.Name, err)
		}
		parts = append(parts, ts)
	}
	text := concat(parts)

	if text.PageCount() != ctx.PageCount {
		text.Close()
		return nil, fmt.Errorf("page count mismatch: %d pages of text, %d pages merged",
			text.PageCount(), ctx.PageCount)
	}

	return &Document{ctx: ctx, text: text}, nil
}

// merge concatenates sources with pdfcpu. A single source passes through.
func merge(sources []Source) ([]byte, error) {
	if len(sources) == 1 {
		return sources[0].Data, nil
	}

	rsc := make([]io.ReadSeeker, len(sources))
	for i, s := range sources {
		rsc[i] = bytes.NewReader(s.Data)
	}

	var out bytes.Buffer
	conf := model.NewDefaultConfiguration()
	if err := api.MergeRaw(rsc, &out, false, conf); err != nil {
		names := make([]string, len(sources))
		for i, s := range sources {
			names[i] = s.Name
		}
		return nil, fmt.Errorf("merging %s: %w", strings.Join(names, ", "), err)
	}
	return out.Bytes(), nil
}

// PageCount returns the number of pages across all sources.
func (d *Document) PageCount() int {
	return d.ctx.PageCount
}

// PageText returns the text of the 1-based page n.
func (d *Document) PageText(n int) (string, error) {
	return d.text.PageText(n)
}

// WritePages writes a new PDF holding the given 1-based pages, in order.
func (d *Document) WritePages(pages []int, w io.Writer) error {
	if len(pages) == 0 {
		return fmt.Errorf("writing pages: empty page list")
	}
	for _, p := range pages {
		if p < 1 || p > d.ctx.PageCount {
			return fmt.Errorf("page %d of %d: %w", p, d.ctx.PageCount, ErrPageRange)
		}
	}

	out, err := pdfcpu.ExtractPages(d.ctx, pages, false)
	if err != nil {
		return fmt.Errorf("extracting pages %v: %w", pages, err)
	}
	if err := api.WriteContext(out, w); err != nil {
		return fmt.Errorf("writing pages %v: %w", pages, err)
	}
	return nil
}

// Close releases the text backend.
func (d *Document) Close() error {
	return d.text.Close()
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfdoc

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/gen2brain/go-fitz"
	"github.com/ledongthuc/pdf"

	"github.com/pdiddy/label-organizer/pkg/types"
)

// TextSource reads the text of individual pages. Different backends
// (ledongthuc/pdf, go-fitz) implement this interface.
type TextSource interface {
	// PageCount returns the number of pages.
	PageCount() int

	// PageText returns the plain text of the 1-based page n.
	PageText(n int) (string, error)

	// Close releases backend resources.
	Close() error
}

// NewTextSource opens data with the chosen backend. An empty backend
// selects the native reader.
func NewTextSource(data []byte, backend types.TextBackend) (TextSource, error) {
	switch backend {
	case types.BackendNative, "":
		return newNativeText(data)
	case types.BackendFitz:
		return newFitzText(data)
	default:
		return nil, fmt.Errorf("unsupported text backend %q: use native or fitz", backend)
	}
}

// nativeText reads page text with ledongthuc/pdf.
type nativeText struct {
	r *pdf.Reader
}

func newNativeText(data []byte) (*nativeText, error) {
	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	return &nativeText{r: r}, nil
}

func (t *nativeText) PageCount() int { return t.r.NumPage() }

func (t *nativeText) PageText(n int) (string, error) {
	if n < 1 || n > t.r.NumPage() {
		return "", fmt.Errorf("page %d of %d: %w", n, t.r.NumPage(), ErrPageRange)
	}
	page := t.r.Page(n)
	if page.V.IsNull() {
		return "", nil
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", n, err)
	}
	return text, nil
}

func (t *nativeText) Close() error { return nil }

// fitzText reads page text with MuPDF through go-fitz.
type fitzText struct {
	doc *fitz.Document
}

func newFitzText(data []byte) (*fitzText, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("open pdf with fitz: %w", err)
	}
	return &fitzText{doc: doc}, nil
}

func (t *fitzText) PageCount() int { return t.doc.NumPage() }

func (t *fitzText) PageText(n int) (string, error) {
	if n < 1 || n > t.doc.NumPage() {
		return "", fmt.Errorf("page %d of %d: %w", n, t.doc.NumPage(), ErrPageRange)
	}
	text, err := t.doc.Text(n - 1)
	if err != nil {
		return "", fmt.Errorf("page %d text: %w", n, err)
	}
	return text, nil
}

func (t *fitzText) Close() error { return t.doc.Close() }

// multiText presents several sources as one page sequence.
type multiText struct {
	parts []TextSource
	total int
}

func concat(parts []TextSource) *multiText {
	m := &multiText{parts: parts}
	for _, p := range parts {
		m.total += p.PageCount()
	}
	return m
}

func (m *multiText) PageCount() int { return m.total }

func (m *multiText) PageText(n int) (string, error) {
	if n < 1 || n > m.total {
		return "", fmt.Errorf("page %d of %d: %w", n, m.total, ErrPageRange)
	}
	for _, p := range m.parts {
		if n <= p.PageCount() {
			return p.PageText(n)
		}
		n -= p.PageCount()
	}
	return "", ErrPageRange
}

func (m *multiText) Close() error {
	return closeAll(m.parts)
}

func closeAll(parts []TextSource) error {
	var errs []error
	for _, p := range parts {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

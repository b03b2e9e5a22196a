// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package archive packages grouped label pages into a zip download: one PDF
// per group plus a manifest.yaml describing where every page pair went.
package archive

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/label-organizer/pkg/types"
)

const (
	// DefaultName is the download name used when none is configured.
	DefaultName = "Processed_PDFs.zip"

	// ManifestName is the manifest entry inside the archive.
	ManifestName = "manifest.yaml"
)

// PageWriter writes the given 1-based pages as a standalone PDF.
type PageWriter interface {
	WritePages(pages []int, w io.Writer) error
}

// Manifest lists the archive contents.
type Manifest struct {
	RunID        string          `yaml:"run_id"`
	CreatedAt    time.Time       `yaml:"created_at"`
	Mapping      string          `yaml:"mapping"`
	Sources      []string        `yaml:"sources"`
	TotalPages   int             `yaml:"total_pages"`
	Pairs        int             `yaml:"pairs"`
	DroppedPages int             `yaml:"dropped_pages"`
	Groups       []ManifestGroup `yaml:"groups"`
}

// ManifestGroup describes one PDF in the archive.
type ManifestGroup struct {
	Label string   `yaml:"label"`
	File  string   `yaml:"file"`
	Codes []string `yaml:"codes,omitempty"`
	Pages []int    `yaml:"pages"`
}

// NewManifest builds a manifest for groups written under names.
func NewManifest(s types.RunSummary, groups []types.Group, names []string) *Manifest {
	m := &Manifest{
		RunID:        s.RunID,
		CreatedAt:    s.StartedAt.UTC(),
		Mapping:      s.Mapping,
		Sources:      s.Sources,
		TotalPages:   s.TotalPages,
		Pairs:        s.Pairs,
		DroppedPages: s.DroppedPages,
		Groups:       make([]ManifestGroup, len(groups)),
	}
	for i, g := range groups {
		m.Groups[i] = ManifestGroup{
			Label: g.Label,
			File:  names[i],
			Codes: g.Codes(),
			Pages: g.Pages(),
		}
	}
	return m
}

// Build writes a zip to w with one entry per group, named by names. A nil
// manifest is omitted.
func Build(w io.Writer, groups []types.Group, names []string, pw PageWriter, manifest *Manifest) error {
	if len(names) != len(groups) {
		return fmt.Errorf("building archive: %d names for %d groups", len(names), len(groups))
	}

	zw := zip.NewWriter(w)
	for i, g := range groups {
		var buf bytes.Buffer
		if err := pw.WritePages(g.Pages(), &buf); err != nil {
			zw.Close()
			return fmt.Errorf("group %q: %w", g.Label, err)
		}
		entry, err := zw.Create(names[i])
		if err != nil {
			zw.Close()
			return fmt.Errorf("creating zip entry %s: %w", names[i], err)
		}
		if _, err := io.Copy(entry, &buf); err != nil {
			zw.Close()
			return fmt.Errorf("writing zip entry %s: %w", names[i], err)
		}
	}

	if manifest != nil {
		data, err := yaml.Marshal(manifest)
		if err != nil {
			zw.Close()
			return fmt.Errorf("marshaling manifest: %w", err)
		}
		entry, err := zw.Create(ManifestName)
		if err != nil {
			zw.Close()
			return fmt.Errorf("creating manifest entry: %w", err)
		}
		if _, err := entry.Write(data); err != nil {
			zw.Close()
			return fmt.Errorf("writing manifest: %w", err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("finishing archive: %w", err)
	}
	return nil
}

// FileName turns a group label into a safe PDF file name. Path separators,
// reserved characters and control characters become underscores.
func FileName(label, fallback string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case unicode.IsControl(r):
			return '_'
		case strings.ContainsRune(`/\:*?"<>|`, r):
			return '_'
		}
		return r
	}, label)
	name = strings.TrimLeft(strings.TrimSpace(name), ".")
	if name == "" {
		name = fallback
	}
	if name == "" {
		name = types.DefaultFallbackLabel
	}
	return name + ".pdf"
}

// FileNames returns one distinct file name per group. Labels that collapse
// to the same name (ignoring case) get a numeric suffix.
func FileNames(groups []types.Group, fallback string) []string {
	names := make([]string, len(groups))
	used := make(map[string]bool, len(groups))
	for i, g := range groups {
		name := FileName(g.Label, fallback)
		base := strings.TrimSuffix(name, ".pdf")
		for n := 2; used[strings.ToLower(name)]; n++ {
			name = fmt.Sprintf("%s-%d.pdf", base, n)
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

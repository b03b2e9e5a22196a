// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package organize splits label sheets into page pairs and groups them by
// resolved model number.
//
// Every label occupies two consecutive pages; the SKU code is printed on the
// first. Each complete pair is filed under exactly one group and pages keep
// their input order within a group. A trailing odd page is dropped.
package organize

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"

	"github.com/pdiddy/label-organizer/internal/archive"
	"github.com/pdiddy/label-organizer/internal/sku"
	"github.com/pdiddy/label-organizer/pkg/types"
)

// Source provides page text for the pair walk.
type Source interface {
	PageCount() int
	PageText(n int) (string, error)
}

// ProgressFunc is called after each pair with the pairs done and the total.
type ProgressFunc func(done, total int)

// Stats counts what happened during a split.
type Stats struct {
	TotalPages   int
	Pairs        int
	DroppedPages int
	Unmatched    int
	Unmapped     int
	TextErrors   int
}

// Splitter walks page pairs and files them into groups.
type Splitter struct {
	resolver *sku.Resolver
	log      zerolog.Logger

	// Progress, when set, is reported after every pair.
	Progress ProgressFunc
}

// NewSplitter creates a Splitter that labels pairs with r.
func NewSplitter(r *sku.Resolver, log zerolog.Logger) *Splitter {
	return &Splitter{resolver: r, log: log}
}

// Split groups the pairs of src. Groups are returned in first-seen order.
// A page whose text cannot be read is filed under the fallback label.
func (s *Splitter) Split(ctx context.Context, src Source) ([]types.Group, Stats, error) {
	total := src.PageCount()
	stats := Stats{
		TotalPages:   total,
		Pairs:        total / 2,
		DroppedPages: total % 2,
	}

	var groups []types.Group
	index := make(map[string]int)

	for i := 0; i < stats.Pairs; i++ {
		select {
		case <-ctx.Done():
			return nil, stats, ctx.Err()
		default:
		}

		pair := types.PagePair{Index: i, First: 2*i + 1, Second: 2*i + 2}

		text, err := src.PageText(pair.First)
		if err != nil {
			s.log.Warn().Err(err).Int("page", pair.First).Msg("unreadable label page")
			stats.TextErrors++
			stats.Unmatched++
			pair.Label = s.resolver.Fallback()
		} else {
			res := s.resolver.Resolve(text)
			pair.Code = res.Code
			pair.Label = res.Label
			switch {
			case res.Code == "":
				stats.Unmatched++
			case !res.Mapped:
				stats.Unmapped++
			}
		}

		s.log.Debug().
			Int("first", pair.First).
			Int("second", pair.Second).
			Str("code", pair.Code).
			Str("label", pair.Label).
			Msg("pair filed")

		g, ok := index[pair.Label]
		if !ok {
			g = len(groups)
			index[pair.Label] = g
			groups = append(groups, types.Group{Label: pair.Label})
		}
		groups[g].Pairs = append(groups[g].Pairs, pair)

		if s.Progress != nil {
			s.Progress(i+1, stats.Pairs)
		}
	}

	if stats.DroppedPages > 0 {
		s.log.Warn().Int("page", total).Msg("odd trailing page dropped")
	}
	return groups, stats, nil
}

// WriteDir saves one PDF per group into dir and returns the written paths.
func WriteDir(dir string, groups []types.Group, names []string, pw archive.PageWriter) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", dir, err)
	}

	paths := make([]string, 0, len(groups))
	for i, g := range groups {
		path := filepath.Join(dir, names[i])
		if err := writeFile(path, g.Pages(), pw); err != nil {
			return paths, fmt.Errorf("group %q: %w", g.Label, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, pages []int, pw archive.PageWriter) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := pw.WritePages(pages, f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// discard is used when no logger is supplied.
var discard = zerolog.New(io.Discard)

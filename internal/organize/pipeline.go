// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package organize

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/pdiddy/label-organizer/internal/archive"
	"github.com/pdiddy/label-organizer/internal/mapping"
	"github.com/pdiddy/label-organizer/internal/pdfdoc"
	"github.com/pdiddy/label-organizer/internal/sku"
	"github.com/pdiddy/label-organizer/pkg/types"
)

// ErrNoPairs is returned when the inputs hold no complete page pair.
var ErrNoPairs = errors.New("no complete label page pairs")

// Recorder stores the outcome of a run.
type Recorder interface {
	Record(ctx context.Context, summary types.RunSummary, groups []types.Group) error
}

// Request is one organize job: a mapping workbook and the label PDFs in
// merge order.
type Request struct {
	MappingName string
	Mapping     io.Reader
	Sources     []pdfdoc.Source
}

// Result describes a finished run.
type Result struct {
	Summary types.RunSummary
	Groups  []types.Group

	// Files lists the per-group PDFs written to the output directory, if any.
	Files []string
}

// Pipeline runs mapping load, merge, split, and packaging.
type Pipeline struct {
	cfg      types.Config
	matcher  *sku.Matcher
	recorder Recorder
	log      zerolog.Logger
	now      func() time.Time

	// Progress, when set, is passed to the Splitter.
	Progress ProgressFunc
}

// NewPipeline validates cfg and returns a Pipeline. rec may be nil.
func NewPipeline(cfg types.Config, rec Recorder, log *zerolog.Logger) (*Pipeline, error) {
	m, err := sku.NewMatcher(cfg.Match.Pattern)
	if err != nil {
		return nil, err
	}
	l := discard
	if log != nil {
		l = *log
	}
	return &Pipeline{cfg: cfg, matcher: m, recorder: rec, log: l, now: time.Now}, nil
}

// Validate checks request file names before any parsing.
func (r Request) Validate() error {
	if r.Mapping == nil {
		return fmt.Errorf("mapping workbook required")
	}
	if err := mapping.CheckName(r.MappingName); err != nil {
		return err
	}
	if len(r.Sources) == 0 {
		return pdfdoc.ErrNoSources
	}
	for _, s := range r.Sources {
		if err := pdfdoc.CheckName(s.Name); err != nil {
			return err
		}
	}
	return nil
}

// Run processes req and writes the zip archive to w.
func (p *Pipeline) Run(ctx context.Context, req Request, w io.Writer) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	start := p.now()
	summary := types.RunSummary{
		RunID:     uuid.NewString(),
		StartedAt: start,
		Mapping:   req.MappingName,
		Sources:   make([]string, len(req.Sources)),
	}
	for i, s := range req.Sources {
		summary.Sources[i] = s.Name
	}
	log := p.log.With().Str("run_id", summary.RunID).Logger()

	table, err := mapping.Read(req.Mapping, p.cfg.Mapping)
	if err != nil {
		return Result{}, fmt.Errorf("reading mapping %s: %w", req.MappingName, err)
	}
	summary.MappingEntries = table.Len()
	log.Info().Int("entries", table.Len()).Str("mapping", req.MappingName).Msg("mapping loaded")

	doc, err := pdfdoc.Open(req.Sources, p.cfg.Match.Backend)
	if err != nil {
		return Result{}, err
	}
	defer doc.Close()

	resolver := sku.NewResolver(p.matcher, table, p.cfg.Match.Fallback)
	splitter := NewSplitter(resolver, log)
	splitter.Progress = p.Progress

	groups, stats, err := splitter.Split(ctx, doc)
	if err != nil {
		return Result{}, err
	}
	summary.TotalPages = stats.TotalPages
	summary.Pairs = stats.Pairs
	summary.DroppedPages = stats.DroppedPages
	summary.Unmatched = stats.Unmatched
	summary.Unmapped = stats.Unmapped
	summary.Groups = len(groups)

	if stats.Pairs == 0 {
		return Result{Summary: summary}, fmt.Errorf("%d page(s) in input: %w", stats.TotalPages, ErrNoPairs)
	}

	names := archive.FileNames(groups, resolver.Fallback())

	var manifest *archive.Manifest
	if !p.cfg.Output.OmitManifest {
		manifest = archive.NewManifest(summary, groups, names)
	}
	if err := archive.Build(w, groups, names, doc, manifest); err != nil {
		return Result{}, err
	}

	result := Result{Groups: groups}
	if p.cfg.Output.Dir != "" {
		files, err := WriteDir(p.cfg.Output.Dir, groups, names, doc)
		if err != nil {
			return Result{}, err
		}
		result.Files = files
	}

	summary.Duration = p.now().Sub(start)
	result.Summary = summary

	if p.recorder != nil {
		if err := p.recorder.Record(ctx, summary, groups); err != nil {
			log.Warn().Err(err).Msg("run not recorded in history")
		}
	}

	log.Info().
		Int("pages", summary.TotalPages).
		Int("pairs", summary.Pairs).
		Int("groups", summary.Groups).
		Int("unmatched", summary.Unmatched).
		Int("unmapped", summary.Unmapped).
		Int("dropped", summary.DroppedPages).
		Dur("took", summary.Duration).
		Msg("run complete")
	return result, nil
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pdiddy/label-organizer/internal/archive"
	"github.com/pdiddy/label-organizer/internal/history"
	"github.com/pdiddy/label-organizer/internal/organize"
	"github.com/pdiddy/label-organizer/internal/pdfdoc"
	"github.com/pdiddy/label-organizer/pkg/types"
)

var splitCmd = &cobra.Command{
	Use:   "split --mapping skus.xlsx [pdfs...]",
	Short: "Split label PDFs into one PDF per model number",
	Long: `Split reads each label as two consecutive pages, finds the SKU code on
the first page, maps it to a model number with the SKU workbook, and writes
one PDF per model number into a zip archive. Codes missing from the workbook
keep their raw code; labels without a code go to Unknown. A trailing odd page
is dropped.

Several PDFs are merged in argument order before splitting.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runSplit,
}

func init() {
	splitCmd.Flags().String("mapping", "", "SKU workbook (.xlsx)")
	splitCmd.Flags().String("out", "", "archive path (default Processed_PDFs.zip)")
	splitCmd.Flags().String("dir", "", "also write one PDF per model number into this directory")
	splitCmd.Flags().String("backend", "", "page text backend: native or fitz (default native)")
	splitCmd.Flags().String("pattern", "", "regular expression for SKU codes")
	splitCmd.Flags().String("sheet", "", "worksheet holding the SKU table (default first sheet)")
	splitCmd.Flags().Int("header-row", 0, "row of the SKU table header (default 9)")
	splitCmd.Flags().Bool("no-manifest", false, "omit manifest.yaml from the archive")
	splitCmd.Flags().Bool("no-history", false, "do not record the run in the history database")
	splitCmd.Flags().Bool("quiet", false, "hide the progress bar")
	_ = splitCmd.MarkFlagRequired("mapping")

	rootCmd.AddCommand(splitCmd)
}

func runSplit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	applySplitFlags(cmd, &cfg)
	log := newLogger(cfg)

	mappingPath, _ := cmd.Flags().GetString("mapping")
	mappingData, err := os.ReadFile(mappingPath)
	if err != nil {
		return fmt.Errorf("reading mapping: %w", err)
	}

	sources := make([]pdfdoc.Source, 0, len(args))
	for _, path := range args {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		sources = append(sources, pdfdoc.Source{Name: filepath.Base(path), Data: data})
	}

	var rec organize.Recorder
	if !cfg.History.Disabled {
		store, err := history.NewStore(cfg.History)
		if err != nil {
			return err
		}
		defer store.Close()
		rec = store
	}

	p, err := organize.NewPipeline(cfg, rec, &log)
	if err != nil {
		return err
	}
	if quiet, _ := cmd.Flags().GetBool("quiet"); !quiet {
		var bar *progressbar.ProgressBar
		p.Progress = func(done, total int) {
			if bar == nil {
				bar = newProgressBar(total, "Splitting labels")
			}
			_ = bar.Set(done)
		}
	}

	req := organize.Request{
		MappingName: filepath.Base(mappingPath),
		Mapping:     bytes.NewReader(mappingData),
		Sources:     sources,
	}

	outPath := cfg.Output.ArchiveName
	if outPath == "" {
		outPath = archive.DefaultName
	}
	res, err := writeArchive(cmd.Context(), p, req, outPath)
	if err != nil {
		return err
	}

	printSummary(os.Stdout, res, outPath)
	return nil
}

// writeArchive runs the pipeline into outPath, removing the file on failure.
func writeArchive(ctx context.Context, p *organize.Pipeline, req organize.Request, outPath string) (organize.Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	f, err := os.Create(outPath)
	if err != nil {
		return organize.Result{}, fmt.Errorf("creating archive: %w", err)
	}

	res, err := p.Run(ctx, req, f)
	if err != nil {
		f.Close()
		os.Remove(outPath)
		return res, err
	}
	if err := f.Close(); err != nil {
		return res, fmt.Errorf("closing archive: %w", err)
	}
	return res, nil
}

func applySplitFlags(cmd *cobra.Command, cfg *types.Config) {
	flags := cmd.Flags()
	if v, _ := flags.GetString("out"); v != "" {
		cfg.Output.ArchiveName = v
	}
	if v, _ := flags.GetString("dir"); v != "" {
		cfg.Output.Dir = v
	}
	if v, _ := flags.GetString("backend"); v != "" {
		cfg.Match.Backend = types.TextBackend(v)
	}
	if v, _ := flags.GetString("pattern"); v != "" {
		cfg.Match.Pattern = v
	}
	if v, _ := flags.GetString("sheet"); v != "" {
		cfg.Mapping.Sheet = v
	}
	if v, _ := flags.GetInt("header-row"); v > 0 {
		cfg.Mapping.HeaderRow = v
	}
	if v, _ := flags.GetBool("no-manifest"); v {
		cfg.Output.OmitManifest = true
	}
	if v, _ := flags.GetBool("no-history"); v {
		cfg.History.Disabled = true
	}
}

func newProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("labels"),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprint(os.Stderr, "\n")
		}),
	)
}

func printSummary(w io.Writer, res organize.Result, outPath string) {
	s := res.Summary
	fmt.Fprintf(w, "%-30s  %6s  %s\n", "Model Number", "Labels", "Pages")
	for _, g := range res.Groups {
		fmt.Fprintf(w, "%-30s  %6d  %d\n", truncate(g.Label, 30), len(g.Pairs), 2*len(g.Pairs))
	}
	fmt.Fprintf(w, "\nSplit summary: %d labels in %d groups from %d pages (unmapped: %d, unknown: %d, dropped pages: %d)\n",
		s.Pairs, s.Groups, s.TotalPages, s.Unmapped, s.Unmatched, s.DroppedPages)
	for _, f := range res.Files {
		fmt.Fprintf(w, "wrote: %s\n", f)
	}
	fmt.Fprintf(w, "archive: %s (run %s)\n", outPath, s.RunID)
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/label-organizer/internal/organize"
	"github.com/pdiddy/label-organizer/pkg/types"
)

func TestApplySplitFlags(t *testing.T) {
	flags := map[string]string{
		"out":         "labels.zip",
		"dir":         "out",
		"backend":     "fitz",
		"sheet":       "SKUs",
		"header-row":  "3",
		"no-manifest": "true",
		"no-history":  "true",
	}
	for name, value := range flags {
		require.NoError(t, splitCmd.Flags().Set(name, value))
	}
	t.Cleanup(func() {
		for name := range flags {
			f := splitCmd.Flags().Lookup(name)
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		}
	})

	cfg := types.Config{Match: types.MatchConfig{Pattern: "keep"}}
	applySplitFlags(splitCmd, &cfg)

	assert.Equal(t, "labels.zip", cfg.Output.ArchiveName)
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, types.BackendFitz, cfg.Match.Backend)
	assert.Equal(t, "keep", cfg.Match.Pattern, "unset flag leaves config alone")
	assert.Equal(t, "SKUs", cfg.Mapping.Sheet)
	assert.Equal(t, 3, cfg.Mapping.HeaderRow)
	assert.True(t, cfg.Output.OmitManifest)
	assert.True(t, cfg.History.Disabled)
}

func TestPrintSummary(t *testing.T) {
	res := organize.Result{
		Summary: types.RunSummary{
			RunID:        "run-1",
			TotalPages:   7,
			Pairs:        3,
			DroppedPages: 1,
			Unmatched:    1,
			Unmapped:     1,
			Groups:       2,
		},
		Groups: []types.Group{
			{Label: "MODEL-A", Pairs: make([]types.PagePair, 2)},
			{Label: "Unknown", Pairs: make([]types.PagePair, 1)},
		},
	}

	var buf bytes.Buffer
	printSummary(&buf, res, "Processed_PDFs.zip")
	out := buf.String()

	assert.Contains(t, out, "MODEL-A")
	assert.Contains(t, out, "3 labels in 2 groups from 7 pages")
	assert.Contains(t, out, "dropped pages: 1")
	assert.Contains(t, out, "archive: Processed_PDFs.zip (run run-1)")
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// DefaultFallbackLabel groups page pairs whose first page has no SKU code.
const DefaultFallbackLabel = "Unknown"

// PagePair is one product label: two consecutive pages of the merged input.
// Page numbers are 1-based.
type PagePair struct {
	// Index is the 0-based position of the pair in the merged input.
	Index int `json:"index" yaml:"index"`

	First  int `json:"first" yaml:"first"`
	Second int `json:"second" yaml:"second"`

	// Code is the SKU code found on the first page, empty if none matched.
	Code string `json:"code,omitempty" yaml:"code,omitempty"`

	// Label is the resolved model number, the raw code, or the fallback label.
	Label string `json:"label" yaml:"label"`
}

// Group collects the page pairs that resolved to the same label, in input order.
type Group struct {
	Label string     `json:"label" yaml:"label"`
	Pairs []PagePair `json:"pairs" yaml:"pairs"`
}

// Pages returns the page numbers of every pair in the group, in order.
func (g Group) Pages() []int {
	pages := make([]int, 0, 2*len(g.Pairs))
	for _, p := range g.Pairs {
		pages = append(pages, p.First, p.Second)
	}
	return pages
}

// Codes returns the distinct SKU codes seen in the group, in first-seen order.
func (g Group) Codes() []string {
	var codes []string
	seen := make(map[string]bool)
	for _, p := range g.Pairs {
		if p.Code == "" || seen[p.Code] {
			continue
		}
		seen[p.Code] = true
		codes = append(codes, p.Code)
	}
	return codes
}

// RunSummary records the outcome of one organize run.
type RunSummary struct {
	RunID     string        `json:"run_id" yaml:"run_id"`
	StartedAt time.Time     `json:"started_at" yaml:"started_at"`
	Duration  time.Duration `json:"duration" yaml:"duration"`

	// Mapping is the name of the spreadsheet used for lookups.
	Mapping        string `json:"mapping" yaml:"mapping"`
	MappingEntries int    `json:"mapping_entries" yaml:"mapping_entries"`

	// Sources lists the PDF names in merge order.
	Sources []string `json:"sources" yaml:"sources"`

	TotalPages int `json:"total_pages" yaml:"total_pages"`
	Pairs      int `json:"pairs" yaml:"pairs"`

	// DroppedPages counts trailing pages that did not form a complete pair.
	DroppedPages int `json:"dropped_pages" yaml:"dropped_pages"`

	// Unmatched counts pairs whose first page had no SKU code.
	Unmatched int `json:"unmatched" yaml:"unmatched"`

	// Unmapped counts pairs whose code was missing from the mapping.
	Unmapped int `json:"unmapped" yaml:"unmapped"`

	Groups int `json:"groups" yaml:"groups"`
}

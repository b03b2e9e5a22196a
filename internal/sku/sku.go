// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sku finds SKU codes in label text and resolves them to group labels.
package sku

import (
	"fmt"
	"regexp"

	"github.com/pdiddy/label-organizer/pkg/types"
)

// wordChar matches a Unicode letter, digit, or underscore.
const wordChar = `[\p{L}\p{N}_]`

// DefaultPattern matches codes shaped XX[X]-XXXX[X]-XXX[X].
const DefaultPattern = `(` + wordChar + `{2,3}-` + wordChar + `{4,5}-` + wordChar + `{3,4})`

// Matcher extracts the first SKU code from page text.
type Matcher struct {
	re *regexp.Regexp
}

// NewMatcher compiles pattern, or DefaultPattern when pattern is empty.
func NewMatcher(pattern string) (*Matcher, error) {
	if pattern == "" {
		pattern = DefaultPattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compiling sku pattern %q: %w", pattern, err)
	}
	return &Matcher{re: re}, nil
}

// Find returns the leftmost code in text. When the pattern has a capture
// group, the first group is returned instead of the whole match.
func (m *Matcher) Find(text string) (string, bool) {
	match := m.re.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	if len(match) > 1 {
		return match[1], match[1] != ""
	}
	return match[0], true
}

// Lookup resolves a code to a model number.
type Lookup interface {
	Lookup(code string) (string, bool)
}

// Resolution is the outcome of resolving one label page.
type Resolution struct {
	Code   string
	Label  string
	Mapped bool
}

// Resolver turns label page text into a group label: the mapped model
// number, else the raw code, else the fallback label.
type Resolver struct {
	matcher  *Matcher
	lookup   Lookup
	fallback string
}

// NewResolver creates a Resolver. A nil lookup treats every code as unmapped;
// an empty fallback becomes types.DefaultFallbackLabel.
func NewResolver(m *Matcher, lookup Lookup, fallback string) *Resolver {
	if fallback == "" {
		fallback = types.DefaultFallbackLabel
	}
	return &Resolver{matcher: m, lookup: lookup, fallback: fallback}
}

// Fallback returns the label used when no code is found.
func (r *Resolver) Fallback() string {
	return r.fallback
}

// Resolve finds the code in text and maps it to a label.
func (r *Resolver) Resolve(text string) Resolution {
	code, ok := r.matcher.Find(text)
	if !ok {
		return Resolution{Label: r.fallback}
	}
	if r.lookup != nil {
		if model, ok := r.lookup.Lookup(code); ok && model != "" {
			return Resolution{Code: code, Label: model, Mapped: true}
		}
	}
	return Resolution{Code: code, Label: code}
}

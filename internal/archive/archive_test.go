// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package archive

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/label-organizer/pkg/types"
)

// fakeWriter writes the requested page list as text instead of a PDF.
type fakeWriter struct {
	failOn int
}

func (f *fakeWriter) WritePages(pages []int, w io.Writer) error {
	for _, p := range pages {
		if p == f.failOn {
			return errors.New("corrupt page")
		}
	}
	_, err := fmt.Fprint(w, pages)
	return err
}

func pair(i int, code, label string) types.PagePair {
	return types.PagePair{Index: i, First: 2*i + 1, Second: 2*i + 2, Code: code, Label: label}
}

func readZip(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	files := make(map[string]string)
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		files[f.Name] = string(b)
	}
	return files
}

func TestBuild(t *testing.T) {
	groups := []types.Group{
		{Label: "KS-100", Pairs: []types.PagePair{pair(0, "AB-1234-567", "KS-100"), pair(2, "AB-1234-567", "KS-100")}},
		{Label: "Unknown", Pairs: []types.PagePair{pair(1, "", "Unknown")}},
	}
	names := FileNames(groups, "Unknown")
	summary := types.RunSummary{
		RunID:        "run-1",
		StartedAt:    time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		Mapping:      "skus.xlsx",
		Sources:      []string{"labels.pdf"},
		TotalPages:   7,
		Pairs:        3,
		DroppedPages: 1,
	}

	var buf bytes.Buffer
	err := Build(&buf, groups, names, &fakeWriter{}, NewManifest(summary, groups, names))
	require.NoError(t, err)

	files := readZip(t, buf.Bytes())
	assert.Len(t, files, 3)
	assert.Equal(t, "[1 2 5 6]", files["KS-100.pdf"])
	assert.Equal(t, "[3 4]", files["Unknown.pdf"])

	var m Manifest
	require.NoError(t, yaml.Unmarshal([]byte(files[ManifestName]), &m))
	assert.Equal(t, "run-1", m.RunID)
	assert.Equal(t, 1, m.DroppedPages)
	require.Len(t, m.Groups, 2)
	assert.Equal(t, ManifestGroup{
		Label: "KS-100",
		File:  "KS-100.pdf",
		Codes: []string{"AB-1234-567"},
		Pages: []int{1, 2, 5, 6},
	}, m.Groups[0])
	assert.Empty(t, m.Groups[1].Codes)
}

func TestBuild_NoManifest(t *testing.T) {
	groups := []types.Group{{Label: "A", Pairs: []types.PagePair{pair(0, "", "A")}}}

	var buf bytes.Buffer
	require.NoError(t, Build(&buf, groups, []string{"A.pdf"}, &fakeWriter{}, nil))

	files := readZip(t, buf.Bytes())
	assert.Len(t, files, 1)
	assert.Contains(t, files, "A.pdf")
}

func TestBuild_Errors(t *testing.T) {
	groups := []types.Group{{Label: "A", Pairs: []types.PagePair{pair(0, "", "A")}}}

	var buf bytes.Buffer
	err := Build(&buf, groups, nil, &fakeWriter{}, nil)
	assert.ErrorContains(t, err, "0 names for 1 groups")

	err = Build(&buf, groups, []string{"A.pdf"}, &fakeWriter{failOn: 2}, nil)
	assert.ErrorContains(t, err, "corrupt page")
	assert.ErrorContains(t, err, `group "A"`)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		label string
		want  string
	}{
		{label: "KS-100", want: "KS-100.pdf"},
		{label: "KS/100", want: "KS_100.pdf"},
		{label: `a\b:c*d?e"f<g>h|i`, want: "a_b_c_d_e_f_g_h_i.pdf"},
		{label: "tab\there", want: "tab_here.pdf"},
		{label: "../etc", want: "_etc.pdf"},
		{label: "  ", want: "Unknown.pdf"},
		{label: "...", want: "Unknown.pdf"},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.label, "Unknown"))
		})
	}
	assert.Equal(t, "Unknown.pdf", FileName("", ""))
}

func TestFileNames_Collisions(t *testing.T) {
	groups := []types.Group{
		{Label: "KS/100"},
		{Label: "KS_100"},
		{Label: "ks_100"},
		{Label: "Other"},
	}
	assert.Equal(t, []string{"KS_100.pdf", "KS_100-2.pdf", "ks_100-3.pdf", "Other.pdf"}, FileNames(groups, "Unknown"))
}

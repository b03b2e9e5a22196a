// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package organize

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/label-organizer/internal/archive"
	"github.com/pdiddy/label-organizer/internal/pdfdoc"
	"github.com/pdiddy/label-organizer/internal/pdftest"
	"github.com/pdiddy/label-organizer/pkg/types"
)

// fakeRecorder captures recorded runs.
type fakeRecorder struct {
	summaries []types.RunSummary
	err       error
}

func (f *fakeRecorder) Record(_ context.Context, s types.RunSummary, _ []types.Group) error {
	f.summaries = append(f.summaries, s)
	return f.err
}

// skuWorkbook returns an xlsx with the export layout: header on row 9.
func skuWorkbook(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	require.NoError(t, f.SetCellValue("Sheet1", "A1", "Kwik Safety SKU export"))
	require.NoError(t, f.SetCellValue("Sheet1", "B9", "SKU"))
	require.NoError(t, f.SetCellValue("Sheet1", "C9", "Model Number"))
	row := 10
	for code, model := range entries {
		b, _ := excelize.CoordinatesToCellName(2, row)
		c, _ := excelize.CoordinatesToCellName(3, row)
		require.NoError(t, f.SetCellValue("Sheet1", b, code))
		require.NoError(t, f.SetCellValue("Sheet1", c, model))
		row++
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func zipPageCounts(t *testing.T, data []byte) (map[string]int, []byte) {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)

	counts := make(map[string]int)
	var manifest []byte
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)

		if f.Name == archive.ManifestName {
			manifest = b
			continue
		}
		n, err := api.PageCount(bytes.NewReader(b), nil)
		require.NoError(t, err, f.Name)
		counts[f.Name] = n
	}
	return counts, manifest
}

func TestPipelineRun_MultipleSources(t *testing.T) {
	rec := &fakeRecorder{}
	outDir := filepath.Join(t.TempDir(), "output_pdfs")
	cfg := types.Config{Output: types.OutputConfig{Dir: outDir}}

	p, err := NewPipeline(cfg, rec, nil)
	require.NoError(t, err)
	p.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }

	req := Request{
		MappingName: "skus.xlsx",
		Mapping:     bytes.NewReader(skuWorkbook(t, map[string]string{"AB-1234-567": "KS-100"})),
		Sources: []pdfdoc.Source{
			{Name: "morning.pdf", Data: pdftest.Build("SKU AB-1234-567", "barcode", "SKU ZZ-9999-999", "barcode")},
			{Name: "evening.pdf", Data: pdftest.Build("SKU AB-1234-567", "barcode", "blank", "barcode", "stray")},
		},
	}

	var out bytes.Buffer
	res, err := p.Run(context.Background(), req, &out)
	require.NoError(t, err)

	assert.Equal(t, 9, res.Summary.TotalPages)
	assert.Equal(t, 4, res.Summary.Pairs)
	assert.Equal(t, 1, res.Summary.DroppedPages)
	assert.Equal(t, 1, res.Summary.Unmatched)
	assert.Equal(t, 1, res.Summary.Unmapped)
	assert.Equal(t, 3, res.Summary.Groups)
	assert.Equal(t, []string{"morning.pdf", "evening.pdf"}, res.Summary.Sources)
	assert.NotEmpty(t, res.Summary.RunID)

	require.Len(t, res.Groups, 3)
	assert.Equal(t, []int{1, 2, 5, 6}, res.Groups[0].Pages())

	counts, manifest := zipPageCounts(t, out.Bytes())
	assert.Equal(t, map[string]int{"KS-100.pdf": 4, "ZZ-9999-999.pdf": 2, "Unknown.pdf": 2}, counts)
	assert.Contains(t, string(manifest), "run_id: "+res.Summary.RunID)

	require.Len(t, res.Files, 3)
	for _, f := range res.Files {
		_, err := os.Stat(f)
		assert.NoError(t, err)
	}

	require.Len(t, rec.summaries, 1)
	assert.Equal(t, res.Summary.RunID, rec.summaries[0].RunID)
}

func TestPipelineRun_OmitManifestAndRecorderFailure(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("database locked")}
	p, err := NewPipeline(types.Config{Output: types.OutputConfig{OmitManifest: true}}, rec, nil)
	require.NoError(t, err)

	req := Request{
		MappingName: "skus.xlsx",
		Mapping:     bytes.NewReader(skuWorkbook(t, nil)),
		Sources:     []pdfdoc.Source{{Name: "a.pdf", Data: pdftest.Build("AB-1234-567", "back")}},
	}

	var out bytes.Buffer
	_, err = p.Run(context.Background(), req, &out)
	require.NoError(t, err, "history failures do not fail the run")

	counts, manifest := zipPageCounts(t, out.Bytes())
	assert.Equal(t, map[string]int{"AB-1234-567.pdf": 2}, counts)
	assert.Nil(t, manifest)
}

func TestPipelineRun_NoPairs(t *testing.T) {
	p, err := NewPipeline(types.Config{}, nil, nil)
	require.NoError(t, err)

	req := Request{
		MappingName: "skus.xlsx",
		Mapping:     bytes.NewReader(skuWorkbook(t, nil)),
		Sources:     []pdfdoc.Source{{Name: "a.pdf", Data: pdftest.Build("AB-1234-567")}},
	}
	_, err = p.Run(context.Background(), req, io.Discard)
	assert.ErrorIs(t, err, ErrNoPairs)
}

func TestRequestValidate(t *testing.T) {
	pdf := []pdfdoc.Source{{Name: "a.pdf"}}
	tests := []struct {
		name    string
		req     Request
		wantErr error
		errMsg  string
	}{
		{name: "ok", req: Request{MappingName: "m.xlsx", Mapping: bytes.NewReader(nil), Sources: pdf}},
		{name: "no mapping", req: Request{Sources: pdf}, errMsg: "mapping workbook required"},
		{name: "csv mapping", req: Request{MappingName: "m.csv", Mapping: bytes.NewReader(nil), Sources: pdf}, errMsg: ".xlsx"},
		{name: "no sources", req: Request{MappingName: "m.xlsx", Mapping: bytes.NewReader(nil)}, wantErr: pdfdoc.ErrNoSources},
		{
			name:    "not a pdf",
			req:     Request{MappingName: "m.xlsx", Mapping: bytes.NewReader(nil), Sources: []pdfdoc.Source{{Name: "a.png"}}},
			wantErr: pdfdoc.ErrNotPDF,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			switch {
			case tt.wantErr != nil:
				assert.ErrorIs(t, err, tt.wantErr)
			case tt.errMsg != "":
				assert.ErrorContains(t, err, tt.errMsg)
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewPipeline_BadPattern(t *testing.T) {
	_, err := NewPipeline(types.Config{Match: types.MatchConfig{Pattern: "("}}, nil, nil)
	assert.Error(t, err)
}

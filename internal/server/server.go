// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package server serves the upload form: an operator posts the SKU workbook
// and one or more label PDFs and receives the organized zip archive.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/pdiddy/label-organizer/internal/archive"
	"github.com/pdiddy/label-organizer/internal/mapping"
	"github.com/pdiddy/label-organizer/internal/organize"
	"github.com/pdiddy/label-organizer/internal/pdfdoc"
	"github.com/pdiddy/label-organizer/pkg/types"
)

const (
	defaultMaxUpload = 256 << 20
	memoryLimit      = 32 << 20
	defaultHistory   = 20
)

// Runner executes an organize request.
type Runner interface {
	Run(ctx context.Context, req organize.Request, w io.Writer) (organize.Result, error)
}

// RunLister lists recorded runs.
type RunLister interface {
	List(ctx context.Context, limit int) ([]types.RunSummary, error)
}

// Server holds the handlers' dependencies.
type Server struct {
	runner  Runner
	runs    RunLister
	log     zerolog.Logger
	cfg     types.ServerConfig
	archive string
}

// New creates a Server. runs may be nil when history is disabled.
func New(runner Runner, runs RunLister, cfg types.Config, log zerolog.Logger) *Server {
	if cfg.Server.MaxUploadBytes <= 0 {
		cfg.Server.MaxUploadBytes = defaultMaxUpload
	}
	name := cfg.Output.ArchiveName
	if name == "" {
		name = archive.DefaultName
	}
	return &Server{runner: runner, runs: runs, log: log, cfg: cfg.Server, archive: name}
}

// Router returns the HTTP handler with all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/", s.form)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "label-organizer"})
	})
	r.Post("/split", s.split)
	r.Get("/runs", s.listRuns)
	return r
}

// requestLogger logs each request through zerolog.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("request_id", chimiddleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) form(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("mode")
	if mode != "many" {
		mode = "one"
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := formTemplate.Execute(w, map[string]any{"Many": mode == "many"}); err != nil {
		s.log.Error().Err(err).Msg("rendering form")
	}
}

// split handles POST /split with multipart fields "mapping" (one xlsx) and
// "pdf" (one or more PDFs).
func (s *Server) split(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(memoryLimit); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.writeError(w, http.StatusRequestEntityTooLarge, "upload too large", err)
			return
		}
		s.writeError(w, http.StatusBadRequest, "invalid multipart form", err)
		return
	}
	defer r.MultipartForm.RemoveAll()

	req, err := requestFromForm(r.MultipartForm)
	if err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid upload", err)
		return
	}

	var buf bytes.Buffer
	res, err := s.runner.Run(r.Context(), req, &buf)
	if err != nil {
		s.writeError(w, statusFor(err), "processing failed", err)
		return
	}

	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", s.archive))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Run-ID", res.Summary.RunID)
	w.WriteHeader(http.StatusOK)
	if _, err := io.Copy(w, &buf); err != nil {
		s.log.Warn().Err(err).Msg("sending archive")
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		writeJSON(w, http.StatusOK, []types.RunSummary{})
		return
	}
	limit := defaultHistory
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit", fmt.Errorf("limit %q", v))
			return
		}
		limit = n
	}
	runs, err := s.runs.List(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, "listing runs", err)
		return
	}
	if runs == nil {
		runs = []types.RunSummary{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// requestFromForm reads the uploaded files into an organize request. Names
// are checked before any content is read.
func requestFromForm(form *multipart.Form) (organize.Request, error) {
	maps := form.File["mapping"]
	if len(maps) != 1 {
		return organize.Request{}, fmt.Errorf("exactly one mapping workbook required, got %d", len(maps))
	}
	pdfs := form.File["pdf"]
	if len(pdfs) == 0 {
		return organize.Request{}, pdfdoc.ErrNoSources
	}

	if err := mapping.CheckName(maps[0].Filename); err != nil {
		return organize.Request{}, err
	}
	for _, fh := range pdfs {
		if err := pdfdoc.CheckName(fh.Filename); err != nil {
			return organize.Request{}, err
		}
	}

	mappingData, err := readPart(maps[0])
	if err != nil {
		return organize.Request{}, err
	}

	req := organize.Request{
		MappingName: maps[0].Filename,
		Mapping:     bytes.NewReader(mappingData),
		Sources:     make([]pdfdoc.Source, 0, len(pdfs)),
	}
	for _, fh := range pdfs {
		data, err := readPart(fh)
		if err != nil {
			return organize.Request{}, err
		}
		req.Sources = append(req.Sources, pdfdoc.Source{Name: fh.Filename, Data: data})
	}
	return req, nil
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", fh.Filename, err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", fh.Filename, err)
	}
	return data, nil
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	case errors.Is(err, pdfdoc.ErrNoSources),
		errors.Is(err, pdfdoc.ErrNotPDF),
		errors.Is(err, mapping.ErrNotXLSX):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

// ErrorResponse is the JSON body of failed requests.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string, err error) {
	s.log.Warn().Err(err).Int("status", status).Msg(msg)
	resp := ErrorResponse{Error: msg}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

var formTemplate = template.Must(template.New("form").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>PDF Organizer</title>
<style>
body { font-family: sans-serif; max-width: 40em; margin: 2em auto; }
nav a { display: inline-block; padding: 1em 2em; margin-right: 1em; background: #ffac2c; color: black; border-radius: 10px; text-decoration: none; }
nav a:hover { background: #ffb84a; }
label { display: block; margin: 1em 0 .25em; }
</style>
</head>
<body>
<h1>{{if .Many}}Split Multiple PDFs{{else}}Split One PDF{{end}}</h1>
<p>Split and organize labels by model number. Upload the SKU workbook and
{{if .Many}}the label PDFs; they are merged in upload order{{else}}one label PDF{{end}}.</p>
<nav><a href="/?mode=one">One PDF</a><a href="/?mode=many">Multiple PDFs</a></nav>
<form method="post" action="/split" enctype="multipart/form-data">
<label for="mapping">Excel file (.xlsx)</label>
<input id="mapping" type="file" name="mapping" accept=".xlsx" required>
<label for="pdf">{{if .Many}}PDF files{{else}}PDF file{{end}}</label>
<input id="pdf" type="file" name="pdf" accept=".pdf" required{{if .Many}} multiple{{end}}>
<p><button type="submit">Download processed PDFs</button></p>
</form>
</body>
</html>
`))

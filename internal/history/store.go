// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history records organize runs in a local SQLite database so an
// operator can see which labels went into which download.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/label-organizer/pkg/types"
)

const (
	defaultDir   = ".label-organizer"
	dbFile       = "history.db"
	defaultLimit = 20

	// timeLayout is fixed width so started_at sorts correctly as text.
	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrRunNotFound is returned by Get for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Store manages the run history database.
type Store struct {
	db *sql.DB
}

// Run is a recorded run with its groups.
type Run struct {
	Summary types.RunSummary `json:"summary" yaml:"summary"`
	Groups  []GroupRecord    `json:"groups" yaml:"groups"`
}

// GroupRecord is one group as stored for a run.
type GroupRecord struct {
	Label string   `json:"label" yaml:"label"`
	Codes []string `json:"codes,omitempty" yaml:"codes,omitempty"`
	Pages []int    `json:"pages" yaml:"pages"`
}

// NewStore opens or creates cfg.Dir/history.db and its schema.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	dir := cfg.Dir
	if dir == "" {
		dir = defaultDir
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating history directory: %w", err)
	}

	dbPath := filepath.Join(dir, dbFile)
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			mapping TEXT,
			mapping_entries INTEGER,
			sources TEXT,
			total_pages INTEGER,
			pairs INTEGER,
			dropped_pages INTEGER,
			unmatched INTEGER,
			unmapped INTEGER,
			group_count INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS run_groups (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			position INTEGER NOT NULL,
			label TEXT NOT NULL,
			codes TEXT,
			pages TEXT,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_run_groups_label ON run_groups(label)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record stores a run and its groups in one transaction.
func (s *Store) Record(ctx context.Context, summary types.RunSummary, groups []types.Group) error {
	sources, err := json.Marshal(summary.Sources)
	if err != nil {
		return fmt.Errorf("marshaling sources: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `INSERT INTO runs
		(id, started_at, duration_ms, mapping, mapping_entries, sources,
		 total_pages, pairs, dropped_pages, unmatched, unmapped, group_count)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		summary.RunID,
		summary.StartedAt.UTC().Format(timeLayout),
		summary.Duration.Milliseconds(),
		summary.Mapping,
		summary.MappingEntries,
		string(sources),
		summary.TotalPages,
		summary.Pairs,
		summary.DroppedPages,
		summary.Unmatched,
		summary.Unmapped,
		len(groups),
	)
	if err != nil {
		return fmt.Errorf("inserting run %s: %w", summary.RunID, err)
	}

	for i, g := range groups {
		codes, _ := json.Marshal(g.Codes())
		pages, _ := json.Marshal(g.Pages())
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_groups (run_id, position, label, codes, pages) VALUES (?, ?, ?, ?, ?)`,
			summary.RunID, i, g.Label, string(codes), string(pages),
		); err != nil {
			return fmt.Errorf("inserting group %q: %w", g.Label, err)
		}
	}

	return tx.Commit()
}

const runColumns = `id, started_at, duration_ms, mapping, mapping_entries, sources,
	total_pages, pairs, dropped_pages, unmatched, unmapped, group_count`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (types.RunSummary, error) {
	var (
		s          types.RunSummary
		startedAt  string
		durationMS int64
		mapping    sql.NullString
		sources    sql.NullString
	)
	if err := row.Scan(&s.RunID, &startedAt, &durationMS, &mapping, &s.MappingEntries, &sources,
		&s.TotalPages, &s.Pairs, &s.DroppedPages, &s.Unmatched, &s.Unmapped, &s.Groups); err != nil {
		return s, err
	}
	t, err := time.Parse(timeLayout, startedAt)
	if err != nil {
		return s, fmt.Errorf("parsing started_at %q: %w", startedAt, err)
	}
	s.StartedAt = t
	s.Duration = time.Duration(durationMS) * time.Millisecond
	s.Mapping = mapping.String
	if sources.Valid && sources.String != "" {
		if err := json.Unmarshal([]byte(sources.String), &s.Sources); err != nil {
			return s, fmt.Errorf("decoding sources: %w", err)
		}
	}
	return s, nil
}

// List returns the most recent runs, newest first. limit <= 0 uses 20.
func (s *Store) List(ctx context.Context, limit int) ([]types.RunSummary, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []types.RunSummary
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// Get returns a run with its groups.
func (s *Store) Get(ctx context.Context, runID string) (Run, error) {
	summary, err := scanRun(s.db.QueryRowContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ?`, runID))
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%s: %w", runID, ErrRunNotFound)
	}
	if err != nil {
		return Run{}, fmt.Errorf("querying run %s: %w", runID, err)
	}

	groups, err := s.groups(ctx, runID)
	if err != nil {
		return Run{}, err
	}
	return Run{Summary: summary, Groups: groups}, nil
}

func (s *Store) groups(ctx context.Context, runID string) ([]GroupRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT label, codes, pages FROM run_groups WHERE run_id = ? ORDER BY position`, runID)
	if err != nil {
		return nil, fmt.Errorf("querying groups of %s: %w", runID, err)
	}
	defer rows.Close()

	var groups []GroupRecord
	for rows.Next() {
		var (
			g            GroupRecord
			codes, pages sql.NullString
		)
		if err := rows.Scan(&g.Label, &codes, &pages); err != nil {
			return nil, fmt.Errorf("scanning group: %w", err)
		}
		if codes.Valid && codes.String != "" && codes.String != "null" {
			if err := json.Unmarshal([]byte(codes.String), &g.Codes); err != nil {
				return nil, fmt.Errorf("decoding codes: %w", err)
			}
		}
		if pages.Valid && pages.String != "" {
			if err := json.Unmarshal([]byte(pages.String), &g.Pages); err != nil {
				return nil, fmt.Errorf("decoding pages: %w", err)
			}
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// ExportYAML writes the most recent runs with their groups to w.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer, limit int) error {
	summaries, err := s.List(ctx, limit)
	if err != nil {
		return err
	}

	runs := make([]Run, 0, len(summaries))
	for _, sum := range summaries {
		groups, err := s.groups(ctx, sum.RunID)
		if err != nil {
			return err
		}
		runs = append(runs, Run{Summary: sum, Groups: groups})
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(runs); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return enc.Close()
}

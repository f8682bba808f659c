// Package state records conversion runs in a local SQLite database so a
// migration can be tracked across many invocations.
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver

	"github.com/leapstack-labs/boxwind/internal/codemod"
)

// ErrRunNotFound is returned when no run matches an ID.
var ErrRunNotFound = errors.New("run not found")

// TagCount is the per-tag outcome of a run.
type TagCount struct {
	Tag       string `json:"tag"`
	Converted int    `json:"converted"`
	Deferred  int    `json:"deferred,omitempty"`
}

// Run is one recorded conversion run. Tags, Files and Failures are only
// populated by Get.
type Run struct {
	ID           string            `json:"id"`
	StartedAt    time.Time         `json:"started_at"`
	Duration     time.Duration     `json:"duration_ns"`
	DryRun       bool              `json:"dry_run"`
	FilesScanned int               `json:"files_scanned"`
	FilesChanged int               `json:"files_changed"`
	Elements     int               `json:"elements"`
	FailureCount int               `json:"failure_count"`
	Tags         []TagCount        `json:"tags,omitempty"`
	Files        []string          `json:"files,omitempty"`
	Failures     []codemod.Failure `json:"failures,omitempty"`
}

// Store persists runs.
type Store struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// Open opens (creating if needed) the database at path and migrates it.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, fmt.Errorf("failed to create history directory: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping history database: %w", err)
	}

	s := &Store{db: db, path: path, logger: logger}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	logger.Debug("history opened", "path", path)
	return s, nil
}

// New wraps an already migrated connection.
func New(db *sql.DB, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Store{db: db, logger: logger}
}

// Path returns the database file, or "" for a wrapped connection.
func (s *Store) Path() string { return s.path }

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Record stores a finished run. Paths are stored relative to root.
func (s *Store) Record(ctx context.Context, root string, sum *codemod.Summary) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, duration_ns, dry_run, files_scanned, files_changed, elements, failures)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sum.RunID, sum.StartedAt.UnixNano(), int64(sum.Duration), sum.DryRun,
		sum.FilesScanned, sum.FilesChanged, sum.Elements(), len(sum.Failures),
	); err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}

	for _, tc := range tagCounts(sum) {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_tags (run_id, tag, converted, deferred) VALUES (?, ?, ?, ?)`,
			sum.RunID, tc.Tag, tc.Converted, tc.Deferred,
		); err != nil {
			return fmt.Errorf("failed to record tag %s: %w", tc.Tag, err)
		}
	}

	for _, path := range sum.Changed {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_files (run_id, path) VALUES (?, ?)`,
			sum.RunID, relTo(root, path),
		); err != nil {
			return fmt.Errorf("failed to record file: %w", err)
		}
	}

	for _, f := range sum.Failures {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO run_failures (run_id, path, line, col, tag, message) VALUES (?, ?, ?, ?, ?, ?)`,
			sum.RunID, relTo(root, f.Path), f.Line, f.Column, f.Tag, f.Message,
		); err != nil {
			return fmt.Errorf("failed to record failure: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	s.logger.Debug("run recorded", "run_id", sum.RunID, "elements", sum.Elements())
	return nil
}

const runColumns = `id, started_at, duration_ns, dry_run, files_scanned, files_changed, elements, failures`

// List returns the most recent runs, newest first. limit <= 0 means all.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// Get returns the run whose ID starts with id, with its details.
func (s *Store) Get(ctx context.Context, id string) (*Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id LIKE ? ORDER BY started_at DESC LIMIT 2`, id+"%")
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			_ = rows.Close()
			return nil, err
		}
		matches = append(matches, run)
	}
	_ = rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	switch len(matches) {
	case 0:
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	case 1:
	default:
		return nil, fmt.Errorf("run id %q is ambiguous", id)
	}

	run := matches[0]
	if run.Tags, err = s.tags(ctx, run.ID); err != nil {
		return nil, err
	}
	if run.Files, err = s.files(ctx, run.ID); err != nil {
		return nil, err
	}
	if run.Failures, err = s.failures(ctx, run.ID); err != nil {
		return nil, err
	}
	return run, nil
}

// Totals sums converted and deferred elements per tag over runs that wrote
// files.
func (s *Store) Totals(ctx context.Context) ([]TagCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT t.tag, SUM(t.converted), SUM(t.deferred)
		 FROM run_tags t JOIN runs r ON r.id = t.run_id
		 WHERE r.dry_run = 0
		 GROUP BY t.tag ORDER BY t.tag`)
	if err != nil {
		return nil, fmt.Errorf("failed to sum runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var totals []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Converted, &tc.Deferred); err != nil {
			return nil, fmt.Errorf("failed to scan totals: %w", err)
		}
		totals = append(totals, tc)
	}
	return totals, rows.Err()
}

func (s *Store) tags(ctx context.Context, runID string) ([]TagCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tag, converted, deferred FROM run_tags WHERE run_id = ? ORDER BY tag`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run tags: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tags []TagCount
	for rows.Next() {
		var tc TagCount
		if err := rows.Scan(&tc.Tag, &tc.Converted, &tc.Deferred); err != nil {
			return nil, fmt.Errorf("failed to scan run tag: %w", err)
		}
		tags = append(tags, tc)
	}
	return tags, rows.Err()
}

func (s *Store) files(ctx context.Context, runID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path FROM run_files WHERE run_id = ? ORDER BY path`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run files: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var files []string
	for rows.Next() {
		var path string
		if err := rows.Scan(&path); err != nil {
			return nil, fmt.Errorf("failed to scan run file: %w", err)
		}
		files = append(files, path)
	}
	return files, rows.Err()
}

func (s *Store) failures(ctx context.Context, runID string) ([]codemod.Failure, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT path, line, col, tag, message FROM run_failures WHERE run_id = ? ORDER BY path, line, col`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to load run failures: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var failures []codemod.Failure
	for rows.Next() {
		var f codemod.Failure
		if err := rows.Scan(&f.Path, &f.Line, &f.Column, &f.Tag, &f.Message); err != nil {
			return nil, fmt.Errorf("failed to scan run failure: %w", err)
		}
		f.Err = errors.New(f.Message)
		failures = append(failures, f)
	}
	return failures, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run       Run
		startedAt int64
		duration  int64
	)
	if err := row.Scan(&run.ID, &startedAt, &duration, &run.DryRun,
		&run.FilesScanned, &run.FilesChanged, &run.Elements, &run.FailureCount); err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}
	run.StartedAt = time.Unix(0, startedAt)
	run.Duration = time.Duration(duration)
	return &run, nil
}

// tagCounts merges the converted and deferred maps in tag order.
func tagCounts(sum *codemod.Summary) []TagCount {
	byTag := make(map[string]*TagCount)
	get := func(tag string) *TagCount {
		tc, ok := byTag[tag]
		if !ok {
			tc = &TagCount{Tag: tag}
			byTag[tag] = tc
		}
		return tc
	}
	for tag, n := range sum.Converted {
		get(tag).Converted = n
	}
	for tag, n := range sum.Deferred {
		get(tag).Deferred = n
	}

	out := make([]TagCount, 0, len(byTag))
	for _, tc := range byTag {
		out = append(out, *tc)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Tag < out[j].Tag })
	return out
}

func relTo(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return filepath.ToSlash(path)
}

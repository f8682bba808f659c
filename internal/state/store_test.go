package state

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/boxwind/internal/codemod"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(context.Background(), filepath.Join(t.TempDir(), "nested", "history.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func testSummary(id string, started time.Time, dryRun bool) *codemod.Summary {
	return &codemod.Summary{
		RunID:        id,
		StartedAt:    started,
		DryRun:       dryRun,
		FilesScanned: 3,
		FilesChanged: 2,
		Changed:      []string{"/proj/src/A.tsx", "/proj/src/B.tsx"},
		Converted:    map[string]int{"Box": 4, "Grid": 1},
		Deferred:     map[string]int{"Box": 1},
		Failures: []codemod.Failure{{
			Path:    "/proj/src/C.tsx",
			Line:    7,
			Column:  3,
			Tag:     "Box",
			Message: "invalid tag",
			Err:     errors.New("invalid tag"),
		}},
		Duration: 1500 * time.Millisecond,
	}
}

func TestStore_OpenMigrates(t *testing.T) {
	store := setupTestStore(t)

	version, err := store.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.FileExists(t, store.Path())

	// Reopening an existing database is a no-op migration.
	again, err := Open(context.Background(), store.Path(), nil)
	require.NoError(t, err)
	require.NoError(t, again.Close())
}

func TestStore_RecordAndGet(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, "/proj", testSummary("6f1d2c3b-0000-4000-8000-000000000001", started, false)))

	run, err := store.Get(ctx, "6f1d")
	require.NoError(t, err)

	assert.Equal(t, "6f1d2c3b-0000-4000-8000-000000000001", run.ID)
	assert.True(t, run.StartedAt.Equal(started))
	assert.Equal(t, 1500*time.Millisecond, run.Duration)
	assert.False(t, run.DryRun)
	assert.Equal(t, 3, run.FilesScanned)
	assert.Equal(t, 2, run.FilesChanged)
	assert.Equal(t, 5, run.Elements)
	assert.Equal(t, 1, run.FailureCount)
	assert.Equal(t, []TagCount{
		{Tag: "Box", Converted: 4, Deferred: 1},
		{Tag: "Grid", Converted: 1},
	}, run.Tags)
	assert.Equal(t, []string{"src/A.tsx", "src/B.tsx"}, run.Files)
	require.Len(t, run.Failures, 1)
	assert.Equal(t, "src/C.tsx", run.Failures[0].Path)
	assert.Equal(t, 7, run.Failures[0].Line)
	assert.Equal(t, 3, run.Failures[0].Column)
	assert.Equal(t, "Box", run.Failures[0].Tag)
	assert.EqualError(t, run.Failures[0], "invalid tag")
}

func TestStore_Get_Errors(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	now := time.Now()
	require.NoError(t, store.Record(ctx, "/proj", testSummary("abc1", now, false)))
	require.NoError(t, store.Record(ctx, "/proj", testSummary("abc2", now.Add(time.Second), false)))

	tests := []struct {
		name     string
		id       string
		wantErr  string
		notFound bool
	}{
		{name: "missing", id: "zzz", wantErr: "run not found: zzz", notFound: true},
		{name: "ambiguous prefix", id: "abc", wantErr: `run id "abc" is ambiguous`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Get(ctx, tt.id)
			require.Error(t, err)
			assert.EqualError(t, err, tt.wantErr)
			assert.Equal(t, tt.notFound, errors.Is(err, ErrRunNotFound))
		})
	}
}

func TestStore_ListAndTotals(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Record(ctx, "/proj", testSummary("run-1", base, false)))
	require.NoError(t, store.Record(ctx, "/proj", testSummary("run-2", base.Add(time.Hour), true)))
	require.NoError(t, store.Record(ctx, "/proj", testSummary("run-3", base.Add(2*time.Hour), false)))

	runs, err := store.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "run-3", runs[0].ID)
	assert.Equal(t, "run-1", runs[2].ID)
	assert.True(t, runs[1].DryRun)
	assert.Nil(t, runs[0].Tags, "list does not load details")

	limited, err := store.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "run-3", limited[0].ID)

	totals, err := store.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, []TagCount{
		{Tag: "Box", Converted: 8, Deferred: 2},
		{Tag: "Grid", Converted: 2},
	}, totals, "dry runs are not counted")
}

func TestStore_RecordDuplicateRollsBack(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t)
	sum := testSummary("dup", time.Now(), false)

	require.NoError(t, store.Record(ctx, "/proj", sum))
	err := store.Record(ctx, "/proj", sum)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to record run")

	run, err := store.Get(ctx, "dup")
	require.NoError(t, err)
	assert.Len(t, run.Files, 2)
}

func TestStore_SQLErrors(t *testing.T) {
	tests := []struct {
		name      string
		setupMock func(mock sqlmock.Sqlmock)
		call      func(s *Store) error
		wantErr   string
	}{
		{
			name: "begin fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errors.New("locked"))
			},
			call: func(s *Store) error {
				return s.Record(context.Background(), "/proj", testSummary("x", time.Now(), false))
			},
			wantErr: "failed to begin transaction: locked",
		},
		{
			name: "tag insert fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO runs").WillReturnResult(sqlmock.NewResult(1, 1))
				mock.ExpectExec("INSERT INTO run_tags").WillReturnError(errors.New("disk full"))
				mock.ExpectRollback()
			},
			call: func(s *Store) error {
				return s.Record(context.Background(), "/proj", testSummary("x", time.Now(), false))
			},
			wantErr: "failed to record tag Box: disk full",
		},
		{
			name: "commit fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				sum := testSummary("x", time.Now(), false)
				mock.ExpectBegin()
				mock.ExpectExec("INSERT INTO runs").WillReturnResult(sqlmock.NewResult(1, 1))
				for range len(sum.Converted) + len(sum.Changed) + len(sum.Failures) {
					mock.ExpectExec("INSERT INTO run_").WillReturnResult(sqlmock.NewResult(1, 1))
				}
				mock.ExpectCommit().WillReturnError(errors.New("io error"))
			},
			call: func(s *Store) error {
				return s.Record(context.Background(), "/proj", testSummary("x", time.Now(), false))
			},
			wantErr: "failed to commit run: io error",
		},
		{
			name: "list query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT (.+) FROM runs").WillReturnError(errors.New("no such table"))
			},
			call: func(s *Store) error {
				_, err := s.List(context.Background(), 5)
				return err
			},
			wantErr: "failed to list runs: no such table",
		},
		{
			name: "detail query fails",
			setupMock: func(mock sqlmock.Sqlmock) {
				rows := sqlmock.NewRows([]string{"id", "started_at", "duration_ns", "dry_run", "files_scanned", "files_changed", "elements", "failures"}).
					AddRow("r1", int64(0), int64(0), false, 1, 0, 0, 0)
				mock.ExpectQuery("SELECT (.+) FROM runs WHERE id LIKE").WithArgs("r1%").WillReturnRows(rows)
				mock.ExpectQuery("SELECT (.+) FROM run_tags").WillReturnError(errors.New("corrupt"))
			},
			call: func(s *Store) error {
				_, err := s.Get(context.Background(), "r1")
				return err
			},
			wantErr: "failed to load run tags: corrupt",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer func() { _ = db.Close() }()

			tt.setupMock(mock)
			err = tt.call(New(db, nil))
			assert.EqualError(t, err, tt.wantErr)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS quota_state (
	provider   TEXT PRIMARY KEY,
	counter    INTEGER NOT NULL DEFAULT 0,
	window     TEXT NOT NULL,
	last_reset TEXT NOT NULL,
	max_calls  INTEGER NOT NULL,
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	vertical    TEXT NOT NULL,
	region      TEXT NOT NULL,
	max_results INTEGER NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	result      TEXT,
	created_at  DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at  DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadQuota(ctx context.Context) ([]model.QuotaState, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT provider, counter, window, last_reset, max_calls FROM quota_state`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: load quota")
	}
	defer rows.Close() //nolint:errcheck

	var states []model.QuotaState
	for rows.Next() {
		var st model.QuotaState
		if err := rows.Scan(&st.Provider, &st.Counter, &st.Window, &st.LastReset, &st.Limit); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan quota row")
		}
		states = append(states, st)
	}
	return states, eris.Wrap(rows.Err(), "sqlite: iterate quota rows")
}

func (s *SQLiteStore) SaveQuota(ctx context.Context, states []model.QuotaState) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin quota save")
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	for _, st := range states {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO quota_state (provider, counter, window, last_reset, max_calls, updated_at)
			 VALUES (?, ?, ?, ?, ?, ?)
			 ON CONFLICT(provider) DO UPDATE SET
			   counter = excluded.counter,
			   window = excluded.window,
			   last_reset = excluded.last_reset,
			   max_calls = excluded.max_calls,
			   updated_at = excluded.updated_at`,
			st.Provider, st.Counter, st.Window, st.LastReset, st.Limit, now,
		)
		if err != nil {
			return eris.Wrapf(err, "sqlite: upsert quota %s", st.Provider)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit quota save")
}

func (s *SQLiteStore) CreateRun(ctx context.Context, vertical, region string, maxResults int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, vertical, region, max_results, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, vertical, region, maxResults, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:         id,
		Vertical:   vertical,
		Region:     region,
		MaxResults: maxResults,
		Status:     model.RunStatusRunning,
		CreatedAt:  now,
		UpdatedAt:  now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal run result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, result = ?, updated_at = ? WHERE id = ?`,
		string(status), string(resultJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Errorf("sqlite: run not found: %s", runID)
	}
	return nil
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, vertical, region, max_results, status, result, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		var (
			r          model.Run
			status     string
			resultJSON sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Vertical, &r.Region, &r.MaxResults, &status, &resultJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run row")
		}
		r.Status = model.RunStatus(status)
		if resultJSON.Valid && resultJSON.String != "" {
			var result model.RunResult
			if err := json.Unmarshal([]byte(resultJSON.String), &result); err != nil {
				return nil, eris.Wrapf(err, "sqlite: unmarshal run result %s", r.ID)
			}
			r.Result = &result
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: iterate run rows")
}

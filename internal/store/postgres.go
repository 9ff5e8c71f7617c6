package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/leadgen-cli/internal/model"
)

// Pool is the subset of pgxpool.Pool used by PostgresStore. pgxmock
// satisfies it in tests.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresWithPool wraps an existing pool, for testing.
func NewPostgresWithPool(pool Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS quota_state (
	provider   TEXT PRIMARY KEY,
	counter    INTEGER NOT NULL DEFAULT 0,
	window     TEXT NOT NULL,
	last_reset TEXT NOT NULL,
	max_calls  INTEGER NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	vertical    TEXT NOT NULL,
	region      TEXT NOT NULL,
	max_results INTEGER NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	result      JSONB,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) LoadQuota(ctx context.Context) ([]model.QuotaState, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT provider, counter, window, last_reset, max_calls FROM quota_state`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: load quota")
	}
	defer rows.Close()

	var states []model.QuotaState
	for rows.Next() {
		var st model.QuotaState
		if err := rows.Scan(&st.Provider, &st.Counter, &st.Window, &st.LastReset, &st.Limit); err != nil {
			return nil, eris.Wrap(err, "postgres: scan quota row")
		}
		states = append(states, st)
	}
	return states, eris.Wrap(rows.Err(), "postgres: iterate quota rows")
}

func (s *PostgresStore) SaveQuota(ctx context.Context, states []model.QuotaState) error {
	now := time.Now().UTC()
	for _, st := range states {
		_, err := s.pool.Exec(ctx,
			`INSERT INTO quota_state (provider, counter, window, last_reset, max_calls, updated_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 ON CONFLICT (provider) DO UPDATE SET
			   counter = EXCLUDED.counter,
			   window = EXCLUDED.window,
			   last_reset = EXCLUDED.last_reset,
			   max_calls = EXCLUDED.max_calls,
			   updated_at = EXCLUDED.updated_at`,
			st.Provider, st.Counter, st.Window, st.LastReset, st.Limit, now,
		)
		if err != nil {
			return eris.Wrapf(err, "postgres: upsert quota %s", st.Provider)
		}
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, vertical, region string, maxResults int) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, vertical, region, max_results, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, vertical, region, maxResults, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
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

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, status model.RunStatus, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal run result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, result = $2, updated_at = $3 WHERE id = $4`,
		string(status), resultJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, vertical, region, max_results, status, result, created_at, updated_at
		 FROM runs ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			r          model.Run
			status     string
			resultJSON []byte
		)
		if err := rows.Scan(&r.ID, &r.Vertical, &r.Region, &r.MaxResults, &status, &resultJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run row")
		}
		r.Status = model.RunStatus(status)
		if len(resultJSON) > 0 {
			var result model.RunResult
			if err := json.Unmarshal(resultJSON, &result); err != nil {
				return nil, eris.Wrapf(err, "postgres: unmarshal run result %s", r.ID)
			}
			r.Result = &result
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: iterate run rows")
}

// Open selects a driver by name, mirroring the config store section.
func Open(ctx context.Context, driver, databaseURL, sqlitePath string) (Store, error) {
	switch driver {
	case "postgres":
		return NewPostgres(ctx, databaseURL)
	case "sqlite", "":
		return NewSQLite(sqlitePath)
	default:
		return nil, eris.Errorf("store: unknown driver %q", driver)
	}
}

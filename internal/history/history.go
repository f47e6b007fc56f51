// Package history records finished print runs in PostgreSQL.
//
// The ledger is optional: when no database URL is configured the CLI skips
// it entirely, and a failure to record a run is logged but never fails the
// run itself.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/JonMunkholm/fakeprinter/internal/engine"
)

// Execer is the subset of *pgxpool.Pool and pgx.Tx the store needs.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// Schema creates the ledger table.
const Schema = `
CREATE TABLE IF NOT EXISTS print_runs (
	id           UUID PRIMARY KEY,
	name         TEXT NOT NULL,
	mode         TEXT NOT NULL,
	started_at   TIMESTAMPTZ NOT NULL,
	finished_at  TIMESTAMPTZ NOT NULL,
	rows_read    INTEGER NOT NULL,
	successes    INTEGER NOT NULL,
	errors       INTEGER NOT NULL,
	terminated   BOOLEAN NOT NULL,
	reason       TEXT,
	setup_error  TEXT,
	summary      JSONB NOT NULL
)`

const insertRun = `
INSERT INTO print_runs (
	id, name, mode, started_at, finished_at, rows_read,
	successes, errors, terminated, reason, setup_error, summary
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (id) DO UPDATE SET
	finished_at = EXCLUDED.finished_at,
	rows_read   = EXCLUDED.rows_read,
	successes   = EXCLUDED.successes,
	errors      = EXCLUDED.errors,
	terminated  = EXCLUDED.terminated,
	reason      = EXCLUDED.reason,
	setup_error = EXCLUDED.setup_error,
	summary     = EXCLUDED.summary`

// Run is one ledger row.
type Run struct {
	ID         uuid.UUID
	Name       string
	Mode       string
	StartedAt  time.Time
	FinishedAt time.Time
	Rows       int
	Successes  int
	Errors     int
	Terminated bool
	Reason     string
	SetupError string
	Summary    json.RawMessage
}

// FromResult converts an engine result into a ledger row.
func FromResult(res engine.Result) (Run, error) {
	summary, err := json.Marshal(res.Summary)
	if err != nil {
		return Run{}, fmt.Errorf("encode summary: %w", err)
	}
	r := Run{
		ID:         res.RunID,
		Name:       res.Name,
		Mode:       string(res.Mode),
		StartedAt:  res.StartedAt,
		FinishedAt: res.FinishedAt,
		Rows:       res.Rows,
		Successes:  res.Summary.Successes,
		Errors:     res.Summary.Errors,
		Terminated: res.Terminated,
		Summary:    summary,
	}
	if res.Reason != nil {
		r.Reason = res.Reason.Error()
	}
	if res.SetupErr != nil {
		r.SetupError = res.SetupErr.Error()
	}
	return r, nil
}

// Store writes runs through an Execer.
type Store struct {
	db Execer
}

// New returns a Store using db.
func New(db Execer) *Store {
	return &Store{db: db}
}

// EnsureSchema creates the ledger table if it does not exist.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, Schema); err != nil {
		return fmt.Errorf("create print_runs: %w", err)
	}
	return nil
}

// Record inserts r, replacing the counters of an existing row with the same id.
func (s *Store) Record(ctx context.Context, r Run) error {
	tag, err := s.db.Exec(ctx, insertRun,
		pgtype.UUID{Bytes: r.ID, Valid: true},
		r.Name,
		r.Mode,
		pgtype.Timestamptz{Time: r.StartedAt, Valid: true},
		pgtype.Timestamptz{Time: r.FinishedAt, Valid: true},
		int32(r.Rows),
		int32(r.Successes),
		int32(r.Errors),
		r.Terminated,
		pgtype.Text{String: r.Reason, Valid: r.Reason != ""},
		pgtype.Text{String: r.SetupError, Valid: r.SetupError != ""},
		[]byte(r.Summary),
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.ID, err)
	}
	if tag.RowsAffected() != 1 {
		return fmt.Errorf("record run %s: %d rows affected", r.ID, tag.RowsAffected())
	}
	return nil
}

// Open connects a pool to url and verifies it with a ping.
func Open(ctx context.Context, url string, maxConns int) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}
	if maxConns > 0 {
		cfg.MaxConns = int32(maxConns)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return pool, nil
}

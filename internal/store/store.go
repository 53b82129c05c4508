// Package store implements the session store (spec.md C9): durable,
// cross-run persistence of a run's cache snapshots and accepted-rewrite
// history, keyed by run ID.
//
// Adapted from internal/ext/cache.go's on-disk cache pattern — the same
// "constructor scoped to a directory, lookup/store pair" shape, moved
// from an opaque content-hash-keyed binary cache onto a SQL-backed
// structured store, since what's cached here (expressions, their
// acceptance order, and a cost note) is structured and queryable rather
// than an opaque blob.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/exprsynth/synth/internal/expr"
)

// Store is a session store backed by a SQLite database file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: opening %s: %w", path, err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS cache_snapshots (
	run_id     TEXT NOT NULL,
	size       INTEGER NOT NULL,
	expr_text  TEXT NOT NULL,
	type_text  TEXT NOT NULL,
	taken_at   TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_cache_snapshots_run ON cache_snapshots(run_id);

CREATE TABLE IF NOT EXISTS rewrites (
	run_id     TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	old_expr   TEXT NOT NULL,
	new_expr   TEXT NOT NULL,
	note       TEXT NOT NULL,
	applied_at TEXT NOT NULL,
	PRIMARY KEY (run_id, seq)
);
`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("store: creating schema: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// DumpCacheSample records a post-mortem sample of a run's candidate
// cache, ported from spec.md §7's "optionally dump a random sample of
// the cache" on stop_callback/cancellation — the Go replacement is
// ctx.Err() propagating out of learner.Learner.Next.
func (s *Store) DumpCacheSample(ctx context.Context, runID string, size int, sample []expr.Expr) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: dumping cache sample: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO cache_snapshots(run_id, size, expr_text, type_text, taken_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("store: dumping cache sample: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UTC().Format(time.RFC3339Nano)
	for _, e := range sample {
		if _, err := stmt.ExecContext(ctx, runID, size, e.String(), e.ExprType().String(), now); err != nil {
			tx.Rollback()
			return fmt.Errorf("store: dumping cache sample: %w", err)
		}
	}
	return tx.Commit()
}

// RecordRewrite appends one accepted rewrite to a run's history, ported
// from the accepted-rewrite log SPEC_FULL.md's C9 section describes.
func (s *Store) RecordRewrite(ctx context.Context, runID string, seq int, old, new expr.Expr, note string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO rewrites(run_id, seq, old_expr, new_expr, note, applied_at) VALUES (?, ?, ?, ?, ?, ?)`,
		runID, seq, old.String(), new.String(), note, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("store: recording rewrite: %w", err)
	}
	return nil
}

// Rewrite is one row of a run's accepted-rewrite history.
type Rewrite struct {
	Seq       int
	Old, New  string
	Note      string
	AppliedAt time.Time
}

// Rewrites returns every rewrite recorded for runID, in application
// order.
func (s *Store) Rewrites(ctx context.Context, runID string) ([]Rewrite, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, old_expr, new_expr, note, applied_at FROM rewrites WHERE run_id = ? ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: listing rewrites: %w", err)
	}
	defer rows.Close()

	var out []Rewrite
	for rows.Next() {
		var r Rewrite
		var appliedAt string
		if err := rows.Scan(&r.Seq, &r.Old, &r.New, &r.Note, &appliedAt); err != nil {
			return nil, fmt.Errorf("store: listing rewrites: %w", err)
		}
		t, err := time.Parse(time.RFC3339Nano, appliedAt)
		if err != nil {
			return nil, fmt.Errorf("store: parsing rewrite timestamp: %w", err)
		}
		r.AppliedAt = t
		out = append(out, r)
	}
	return out, rows.Err()
}

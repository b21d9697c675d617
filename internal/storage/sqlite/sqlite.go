// Package sqlite stores ledger runs in a local SQLite file using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/cory-johannsen/skirmish/internal/ledger"
)

// Store is a ledger.Store backed by a SQLite database.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path, creating parent directories
// and the schema as needed. A leading "~" expands to the home directory and
// ":memory:" opens a private in-memory database.
//
// Postcondition: Returns a ready Store or a non-nil error.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if path != "" && path[0] == '~' {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("sqlite: expanding home directory: %w", err)
			}
			path = filepath.Join(home, path[1:])
		}
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite: creating directory %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite: opening database: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: connecting to database: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrating schema: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
		PRAGMA foreign_keys = ON;

		CREATE TABLE IF NOT EXISTS ledger_runs (
			id          TEXT     PRIMARY KEY,
			content     BLOB     NOT NULL,
			seed        INTEGER  NOT NULL,
			frames      INTEGER  NOT NULL,
			final       BLOB     NOT NULL,
			created_at  INTEGER  NOT NULL
		);

		CREATE TABLE IF NOT EXISTS ledger_entries (
			run_id  TEXT     NOT NULL REFERENCES ledger_runs (id) ON DELETE CASCADE,
			frame   INTEGER  NOT NULL,
			digest  BLOB     NOT NULL,
			PRIMARY KEY (run_id, frame)
		);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// SaveRun implements ledger.Store.
func (s *Store) SaveRun(ctx context.Context, run ledger.Run, entries []ledger.Entry) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO ledger_runs (id, content, seed, frames, final, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.Content[:], int64(run.Seed), int64(run.Frames), run.Final[:], run.CreatedAt.UnixNano(),
	); err != nil {
		return fmt.Errorf("sqlite: inserting run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO ledger_entries (run_id, frame, digest) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("sqlite: preparing entry insert: %w", err)
	}
	defer stmt.Close()
	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, run.ID.String(), int64(e.Frame), e.Digest[:]); err != nil {
			return fmt.Errorf("sqlite: inserting frame %d: %w", e.Frame, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing run: %w", err)
	}
	return nil
}

// Run implements ledger.Store.
func (s *Store) Run(ctx context.Context, id uuid.UUID) (ledger.Run, error) {
	var (
		content, final []byte
		seed, frames   int64
		created        int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT content, seed, frames, final, created_at FROM ledger_runs WHERE id = ?`,
		id.String(),
	).Scan(&content, &seed, &frames, &final, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ledger.Run{}, ledger.ErrRunNotFound
		}
		return ledger.Run{}, fmt.Errorf("sqlite: querying run: %w", err)
	}
	if len(content) != ledger.DigestSize || len(final) != ledger.DigestSize {
		return ledger.Run{}, fmt.Errorf("sqlite: run %s: stored digest has wrong length", id)
	}
	run := ledger.Run{
		ID:        id,
		Seed:      uint16(seed),
		Frames:    uint16(frames),
		CreatedAt: time.Unix(0, created).UTC(),
	}
	copy(run.Content[:], content)
	copy(run.Final[:], final)
	return run, nil
}

// Entries implements ledger.Store.
func (s *Store) Entries(ctx context.Context, id uuid.UUID) ([]ledger.Entry, error) {
	if _, err := s.Run(ctx, id); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT frame, digest FROM ledger_entries WHERE run_id = ? ORDER BY frame`,
		id.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: querying entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			frame  int64
			digest []byte
		)
		if err := rows.Scan(&frame, &digest); err != nil {
			return nil, fmt.Errorf("sqlite: scanning entry: %w", err)
		}
		if len(digest) != ledger.DigestSize {
			return nil, fmt.Errorf("sqlite: run %s frame %d: stored digest has wrong length", id, frame)
		}
		e := ledger.Entry{Frame: uint16(frame)}
		copy(e.Digest[:], digest)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating entries: %w", err)
	}
	return entries, nil
}

var _ ledger.Store = (*Store)(nil)

package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/cory-johannsen/skirmish/internal/ledger"
)

// LedgerRepository persists ledger runs in PostgreSQL.
type LedgerRepository struct {
	db *pgxpool.Pool
}

// NewLedgerRepository creates a LedgerRepository backed by the given pool.
//
// Precondition: db must be a valid, open connection pool with the ledger
// schema migrated.
func NewLedgerRepository(db *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{db: db}
}

// SaveRun inserts run and bulk-copies its entries in one transaction.
//
// Postcondition: either the run and all entries are stored or nothing is.
func (r *LedgerRepository) SaveRun(ctx context.Context, run ledger.Run, entries []ledger.Entry) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO ledger_runs (id, content, seed, frames, final, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		run.ID, run.Content[:], int32(run.Seed), int32(run.Frames), run.Final[:], run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}

	rows := make([][]any, len(entries))
	for i, e := range entries {
		rows[i] = []any{run.ID, int32(e.Frame), e.Digest[:]}
	}
	if _, err := tx.CopyFrom(ctx,
		pgx.Identifier{"ledger_entries"},
		[]string{"run_id", "frame", "digest"},
		pgx.CopyFromRows(rows),
	); err != nil {
		return fmt.Errorf("copying entries: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// Run returns the run with id.
//
// Postcondition: Returns ledger.ErrRunNotFound if no such run exists.
func (r *LedgerRepository) Run(ctx context.Context, id uuid.UUID) (ledger.Run, error) {
	var (
		run            ledger.Run
		content, final []byte
		seed, frames   int32
	)
	err := r.db.QueryRow(ctx,
		`SELECT id, content, seed, frames, final, created_at
		 FROM ledger_runs WHERE id = $1`, id,
	).Scan(&run.ID, &content, &seed, &frames, &final, &run.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ledger.Run{}, ledger.ErrRunNotFound
		}
		return ledger.Run{}, fmt.Errorf("querying run: %w", err)
	}
	if len(content) != ledger.DigestSize || len(final) != ledger.DigestSize {
		return ledger.Run{}, fmt.Errorf("run %s: stored digest has wrong length", id)
	}
	copy(run.Content[:], content)
	copy(run.Final[:], final)
	run.Seed = uint16(seed)
	run.Frames = uint16(frames)
	return run, nil
}

// Entries returns the entries of run id in frame order.
//
// Postcondition: Returns ledger.ErrRunNotFound if no such run exists.
func (r *LedgerRepository) Entries(ctx context.Context, id uuid.UUID) ([]ledger.Entry, error) {
	var exists bool
	if err := r.db.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM ledger_runs WHERE id = $1)`, id,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("checking run: %w", err)
	}
	if !exists {
		return nil, ledger.ErrRunNotFound
	}

	rows, err := r.db.Query(ctx,
		`SELECT frame, digest FROM ledger_entries
		 WHERE run_id = $1 ORDER BY frame`, id,
	)
	if err != nil {
		return nil, fmt.Errorf("querying entries: %w", err)
	}
	defer rows.Close()

	var entries []ledger.Entry
	for rows.Next() {
		var (
			frame  int32
			digest []byte
		)
		if err := rows.Scan(&frame, &digest); err != nil {
			return nil, fmt.Errorf("scanning entry: %w", err)
		}
		if len(digest) != ledger.DigestSize {
			return nil, fmt.Errorf("run %s frame %d: stored digest has wrong length", id, frame)
		}
		e := ledger.Entry{Frame: uint16(frame)}
		copy(e.Digest[:], digest)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating entries: %w", err)
	}
	return entries, nil
}

var _ ledger.Store = (*LedgerRepository)(nil)

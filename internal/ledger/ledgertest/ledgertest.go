// Package ledgertest holds the behaviour every ledger.Store must satisfy.
package ledgertest

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/skirmish/internal/ledger"
)

func digest(b byte) ledger.Digest {
	var d ledger.Digest
	for i := range d {
		d[i] = b + byte(i)
	}
	return d
}

// SampleRun returns a run with n entries and distinct digests.
func SampleRun(n int) (ledger.Run, []ledger.Entry) {
	entries := make([]ledger.Entry, n)
	for i := range entries {
		entries[i] = ledger.Entry{Frame: uint16(i + 1), Digest: digest(byte(i))}
	}
	run := ledger.Run{
		ID:        uuid.New(),
		Content:   digest(0xA0),
		Seed:      4242,
		Frames:    uint16(n),
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	if n > 0 {
		run.Final = entries[n-1].Digest
	}
	return run, entries
}

// StoreContract exercises store against the Store contract.
func StoreContract(t *testing.T, store ledger.Store) {
	t.Helper()
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		run, entries := SampleRun(5)
		require.NoError(t, store.SaveRun(ctx, run, entries))

		got, err := store.Run(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, run.ID, got.ID)
		assert.Equal(t, run.Content, got.Content)
		assert.Equal(t, run.Seed, got.Seed)
		assert.Equal(t, run.Frames, got.Frames)
		assert.Equal(t, run.Final, got.Final)
		assert.True(t, run.CreatedAt.Equal(got.CreatedAt), "created_at %v != %v", run.CreatedAt, got.CreatedAt)

		gotEntries, err := store.Entries(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, entries, gotEntries)
	})

	t.Run("empty run", func(t *testing.T) {
		run, _ := SampleRun(0)
		require.NoError(t, store.SaveRun(ctx, run, nil))
		entries, err := store.Entries(ctx, run.ID)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("unknown run", func(t *testing.T) {
		_, err := store.Run(ctx, uuid.New())
		assert.ErrorIs(t, err, ledger.ErrRunNotFound)
		_, err = store.Entries(ctx, uuid.New())
		assert.ErrorIs(t, err, ledger.ErrRunNotFound)
	})

	t.Run("runs are independent", func(t *testing.T) {
		a, ae := SampleRun(2)
		b, be := SampleRun(3)
		require.NoError(t, store.SaveRun(ctx, a, ae))
		require.NoError(t, store.SaveRun(ctx, b, be))
		got, err := store.Entries(ctx, a.ID)
		require.NoError(t, err)
		assert.Len(t, got, 2)
		got, err = store.Entries(ctx, b.ID)
		require.NoError(t, err)
		assert.Len(t, got, 3)
	})
}

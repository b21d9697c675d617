package ledger

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cory-johannsen/skirmish/internal/game/sim"
)

// ErrRunNotFound is returned when a run id is not in the store.
var ErrRunNotFound = errors.New("ledger: run not found")

// ErrMismatch is wrapped by every verification failure.
var ErrMismatch = errors.New("ledger: replay does not match")

// String renders the digest as lowercase hex.
func (d Digest) String() string { return hex.EncodeToString(d[:]) }

// ParseDigest decodes a hex digest.
func ParseDigest(s string) (Digest, error) {
	var d Digest
	b, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("ledger: parsing digest: %w", err)
	}
	if len(b) != DigestSize {
		return d, fmt.Errorf("ledger: digest has %d bytes, want %d", len(b), DigestSize)
	}
	copy(d[:], b)
	return d, nil
}

// Run describes one recorded simulation.
type Run struct {
	ID        uuid.UUID
	Content   Digest
	Seed      uint16
	Frames    uint16
	Final     Digest
	CreatedAt time.Time
}

// Entry is the chained digest after one frame.
type Entry struct {
	Frame  uint16
	Digest Digest
}

// Store persists runs and their frame entries.
type Store interface {
	// SaveRun stores run and its entries atomically.
	SaveRun(ctx context.Context, run Run, entries []Entry) error
	// Run returns the run with id, or ErrRunNotFound.
	Run(ctx context.Context, id uuid.UUID) (Run, error)
	// Entries returns the entries of run id in frame order.
	Entries(ctx context.Context, id uuid.UUID) ([]Entry, error)
}

// Recorder accumulates chained digests as frames complete.
type Recorder struct {
	run     Run
	last    Digest
	entries []Entry
}

// NewRecorder starts recording a run of the game described by content.
//
// Postcondition: the run has a fresh random id.
func NewRecorder(content Digest, seed uint16) *Recorder {
	return &Recorder{run: Run{ID: uuid.New(), Content: content, Seed: seed}}
}

// Observe records the state after a frame.
func (r *Recorder) Observe(snap sim.Snapshot) error {
	r.last = Chain(r.last, snap)
	r.entries = append(r.entries, Entry{Frame: snap.Frame, Digest: r.last})
	return nil
}

// Run returns the run summary so far.
func (r *Recorder) Run() Run {
	run := r.run
	run.Frames = uint16(len(r.entries))
	run.Final = r.last
	return run
}

// Entries returns the recorded entries.
func (r *Recorder) Entries() []Entry { return r.entries }

// Save writes the run to store, stamping CreatedAt.
func (r *Recorder) Save(ctx context.Context, store Store) (Run, error) {
	run := r.Run()
	run.CreatedAt = time.Now().UTC()
	if err := store.SaveRun(ctx, run, r.entries); err != nil {
		return Run{}, fmt.Errorf("saving run %s: %w", run.ID, err)
	}
	return run, nil
}

// MismatchError reports the first frame whose digest differs.
type MismatchError struct {
	Frame uint16
	Want  Digest
	Got   Digest
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%v at frame %d: want %s, got %s", ErrMismatch, e.Frame, e.Want, e.Got)
}

// Unwrap lets errors.Is match ErrMismatch.
func (e *MismatchError) Unwrap() error { return ErrMismatch }

// Verify replays game and compares each frame against run id.
//
// Precondition: game must be freshly created from the recorded content.
// Postcondition: Returns nil when every frame matches, a *MismatchError for
// the first divergent frame, or a wrapped ErrMismatch when the content or
// frame count differs.
func Verify(ctx context.Context, store Store, id uuid.UUID, content Digest, game *sim.Game) error {
	run, err := store.Run(ctx, id)
	if err != nil {
		return err
	}
	if run.Content != content {
		return fmt.Errorf("%w: content digest %s, recorded %s", ErrMismatch, content, run.Content)
	}
	entries, err := store.Entries(ctx, id)
	if err != nil {
		return err
	}
	var last Digest
	for _, want := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if game.Over() {
			return fmt.Errorf("%w: replay ended at frame %d, recorded %d frames", ErrMismatch, game.Frame(), run.Frames)
		}
		game.Step()
		snap := game.Snapshot()
		last = Chain(last, snap)
		if snap.Frame != want.Frame || last != want.Digest {
			return &MismatchError{Frame: want.Frame, Want: want.Digest, Got: last}
		}
	}
	if last != run.Final {
		return fmt.Errorf("%w: final digest %s, recorded %s", ErrMismatch, last, run.Final)
	}
	return nil
}

// Package runner drives a sim.Game frame by frame and hands each resulting
// snapshot to a list of observers.
package runner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/sim"
)

// ErrStop may be returned by an observer to end the run early without error.
var ErrStop = errors.New("runner: stop requested")

// Observer receives the state after every frame.
type Observer interface {
	Observe(snap sim.Snapshot) error
}

// Finisher is an Observer that also wants the final state once the run ends.
type Finisher interface {
	Finish(snap sim.Snapshot) error
}

// ObserverFunc adapts a function into an Observer.
type ObserverFunc func(snap sim.Snapshot) error

// Observe calls f.
func (f ObserverFunc) Observe(snap sim.Snapshot) error { return f(snap) }

// Result summarises a finished run.
type Result struct {
	// Frames is the number of frames stepped by this run.
	Frames int
	// Over reports whether the game reached its own end condition.
	Over bool
	// Stopped reports whether an observer ended the run.
	Stopped bool
	// Final is the state after the last frame.
	Final sim.Snapshot
}

// Runner owns the frame loop of one game. The game is only ever touched from
// the goroutine calling Run.
type Runner struct {
	game      *sim.Game
	observers []Observer
	interval  time.Duration
	logger    *zap.Logger
}

// New creates a Runner for game.
//
// Precondition: game must be non-nil.
// Postcondition: a nil logger is replaced by a no-op logger.
func New(game *sim.Game, logger *zap.Logger, observers ...Observer) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runner{game: game, observers: observers, logger: logger}
}

// Pace makes Run wait for a ticker of period interval before each frame.
// A zero interval runs flat out.
func (r *Runner) Pace(interval time.Duration) {
	r.interval = interval
}

// Run steps the game until it is over, frames frames have run (0 means no
// cap), an observer returns ErrStop, or ctx is cancelled. Cancellation is
// only honoured between frames.
//
// Postcondition: every Finisher is called with the final state unless ctx
// was cancelled; their errors are joined into the returned error.
func (r *Runner) Run(ctx context.Context, frames int) (Result, error) {
	start := time.Now()
	var ticks <-chan time.Time
	if r.interval > 0 {
		ticker := time.NewTicker(r.interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	var res Result
	for !r.game.Over() && (frames == 0 || res.Frames < frames) {
		if ticks != nil {
			select {
			case <-ticks:
			case <-ctx.Done():
				return res, ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return res, err
		}

		r.game.Step()
		res.Frames++
		if len(r.observers) == 0 {
			continue
		}
		snap := r.game.Snapshot()
		stop, err := r.notify(snap)
		if err != nil {
			return res, err
		}
		if stop {
			res.Stopped = true
			r.logger.Debug("run stopped by observer", zap.Uint16("frame", snap.Frame))
			break
		}
	}

	res.Over = r.game.Over()
	res.Final = r.game.Snapshot()
	var errs []error
	for _, o := range r.observers {
		if f, ok := o.(Finisher); ok {
			if err := f.Finish(res.Final); err != nil {
				errs = append(errs, err)
			}
		}
	}

	r.logger.Info("run finished",
		zap.Int("frames", res.Frames),
		zap.Uint16("frame", res.Final.Frame),
		zap.Bool("over", res.Over),
		zap.Bool("stopped", res.Stopped),
		zap.Duration("elapsed", time.Since(start)),
	)
	return res, errors.Join(errs...)
}

// notify hands snap to every observer, even after one asks to stop.
func (r *Runner) notify(snap sim.Snapshot) (bool, error) {
	stop := false
	for i, o := range r.observers {
		err := o.Observe(snap)
		switch {
		case err == nil:
		case errors.Is(err, ErrStop):
			stop = true
		default:
			return false, fmt.Errorf("observer %d at frame %d: %w", i, snap.Frame, err)
		}
	}
	return stop, nil
}

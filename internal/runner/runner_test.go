package runner_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cory-johannsen/skirmish/internal/game/content"
	"github.com/cory-johannsen/skirmish/internal/game/sim"
	"github.com/cory-johannsen/skirmish/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func duel(t *testing.T, maxFrames uint16) *sim.Game {
	t.Helper()
	doc, err := content.LoadFile("../../content/duel.yaml")
	require.NoError(t, err)
	doc.MaxFrames = maxFrames
	doc.EndOnElimination = false
	cfg, err := doc.Config()
	require.NoError(t, err)
	g, err := sim.New(cfg, nil)
	require.NoError(t, err)
	return g
}

type finisher struct {
	frames []uint16
	final  uint16
	err    error
}

func (f *finisher) Observe(snap sim.Snapshot) error {
	f.frames = append(f.frames, snap.Frame)
	return nil
}

func (f *finisher) Finish(snap sim.Snapshot) error {
	f.final = snap.Frame
	return f.err
}

func TestRun_UntilOver(t *testing.T) {
	g := duel(t, 20)
	f := &finisher{}
	res, err := runner.New(g, nil, f).Run(context.Background(), 0)
	require.NoError(t, err)
	assert.True(t, res.Over)
	assert.Equal(t, 20, res.Frames)
	assert.Len(t, f.frames, 20)
	assert.Equal(t, uint16(1), f.frames[0])
	assert.Equal(t, uint16(20), f.final)
	assert.Equal(t, uint16(20), res.Final.Frame)
}

func TestRun_FrameCap(t *testing.T) {
	g := duel(t, 0)
	res, err := runner.New(g, nil).Run(context.Background(), 7)
	require.NoError(t, err)
	assert.False(t, res.Over)
	assert.Equal(t, 7, res.Frames)
	assert.Equal(t, uint16(7), g.Frame())

	res, err = runner.New(g, nil).Run(context.Background(), 3)
	require.NoError(t, err)
	assert.Equal(t, uint16(10), res.Final.Frame)
}

func TestRun_ObserverStop(t *testing.T) {
	g := duel(t, 0)
	f := &finisher{}
	stop := runner.ObserverFunc(func(snap sim.Snapshot) error {
		if snap.Frame == 4 {
			return runner.ErrStop
		}
		return nil
	})
	res, err := runner.New(g, nil, stop, f).Run(context.Background(), 100)
	require.NoError(t, err)
	assert.True(t, res.Stopped)
	assert.Equal(t, 4, res.Frames)
	assert.Len(t, f.frames, 4, "later observers still see the stopping frame")
	assert.Equal(t, uint16(4), f.final)
}

func TestRun_ObserverError(t *testing.T) {
	g := duel(t, 0)
	boom := errors.New("boom")
	fail := runner.ObserverFunc(func(snap sim.Snapshot) error {
		if snap.Frame == 2 {
			return boom
		}
		return nil
	})
	res, err := runner.New(g, nil, fail).Run(context.Background(), 10)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, res.Frames)
}

func TestRun_FinisherErrorsJoined(t *testing.T) {
	g := duel(t, 0)
	a := &finisher{err: errors.New("a")}
	b := &finisher{err: errors.New("b")}
	_, err := runner.New(g, nil, a, b).Run(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, a.err)
	assert.ErrorIs(t, err, b.err)
}

func TestRun_Cancelled(t *testing.T) {
	g := duel(t, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res, err := runner.New(g, nil).Run(ctx, 0)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, res.Frames)
}

func TestRun_Paced(t *testing.T) {
	g := duel(t, 0)
	r := runner.New(g, nil)
	r.Pace(5 * time.Millisecond)
	start := time.Now()
	res, err := r.Run(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Frames)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
}

func TestRun_PacedCancelledMidRun(t *testing.T) {
	g := duel(t, 0)
	r := runner.New(g, nil)
	r.Pace(time.Hour)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	res, err := r.Run(ctx, 0)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, 0, res.Frames)
}

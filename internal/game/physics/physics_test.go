package physics_test

import (
	"testing"

	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/physics"
	"github.com/cory-johannsen/skirmish/internal/game/tilemap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

// arena is a 10x10 room of 16-unit tiles with solid walls, floor and ceiling.
func arena(t require.TestingT) *tilemap.Map {
	m, err := tilemap.Parse([]string{
		"##########",
		"#........#",
		"#........#",
		"#........#",
		"#........#",
		"#........#",
		"#....#...#",
		"#........#",
		"#........#",
		"##########",
	}, fixed.FromInt(16))
	require.NoError(t, err)
	return m
}

func u(n int) fixed.Fixed { return fixed.FromInt(n) }

func body(x, y fixed.Fixed, mode entity.Gravity) entity.Core {
	return entity.Core{
		Pos:      entity.Vec{X: x, Y: y},
		Size:     entity.Size{W: 8, H: 8},
		Vertical: mode,
	}
}

var params = physics.Params{Gravity: fixed.FromRatio(1, 4), MaxFallSpeed: u(8)}

func TestApplyGravity_MultiplierSigns(t *testing.T) {
	for _, tc := range []struct {
		mode entity.Gravity
		sign int
	}{
		{entity.GravityInverted, -1},
		{entity.GravityNeutral, 0},
		{entity.GravityNormal, 1},
	} {
		c := body(u(32), u(32), tc.mode)
		physics.ApplyGravity(&c, params)
		assert.Equal(t, tc.sign, int(c.Vel.Y.Sign().Int()), "mode %d", tc.mode)
	}
}

func TestApplyGravity_ClampsFallSpeed(t *testing.T) {
	c := body(u(32), u(32), entity.GravityNormal)
	c.Vel.Y = u(8)
	physics.ApplyGravity(&c, params)
	assert.Equal(t, u(8), c.Vel.Y)
}

func TestResolve_RestingContactIsStable(t *testing.T) {
	m := arena(t)
	// Floor row 9 starts at y=144; an 8-unit body rests at y=136.
	for _, mode := range []entity.Gravity{entity.GravityNormal, entity.GravityNeutral} {
		c := body(u(40), u(136), mode)
		for frame := 0; frame < 200; frame++ {
			physics.Step(&c, m, params)
			require.Equal(t, u(40), c.Pos.X, "frame %d", frame)
			require.Equal(t, u(136), c.Pos.Y, "frame %d", frame)
			require.Equal(t, fixed.Zero, c.Vel.Y, "frame %d", frame)
			require.True(t, c.Collision.Bottom, "frame %d", frame)
			require.True(t, c.Grounded(), "frame %d", frame)
		}
	}
}

func TestResolve_InvertedRestsOnCeiling(t *testing.T) {
	m := arena(t)
	c := body(u(40), u(16), entity.GravityInverted)
	for frame := 0; frame < 150; frame++ {
		physics.Step(&c, m, params)
		require.Equal(t, u(16), c.Pos.Y)
		require.True(t, c.Collision.Top)
		require.True(t, c.Grounded())
	}
}

func TestResolve_FallingBodyLandsExactly(t *testing.T) {
	m := arena(t)
	c := body(u(40), u(20), entity.GravityNormal)
	landed := false
	for frame := 0; frame < 200; frame++ {
		physics.Step(&c, m, params)
		assert.LessOrEqual(t, c.Pos.Y, u(136))
		if c.Collision.Bottom {
			landed = true
			assert.Equal(t, u(136), c.Pos.Y)
		}
	}
	assert.True(t, landed)
}

func TestResolve_WallClamp(t *testing.T) {
	m := arena(t)
	// Right wall column 9 starts at x=144; body right edge at 142.
	c := body(u(134), u(40), entity.GravityNeutral)
	c.Vel.X = u(3)
	physics.Resolve(&c, m)
	assert.Equal(t, u(136), c.Pos.X)
	assert.Equal(t, fixed.Zero, c.Vel.X)
	assert.True(t, c.Collision.Right)
	assert.False(t, c.Collision.Left)
}

func TestResolve_SlowApproachSnaps(t *testing.T) {
	m := arena(t)
	// Gap of 1/2 unit to the left wall (x=16) moving at 1/4: within tolerance.
	c := body(u(16).Add(fixed.Half), u(40), entity.GravityNeutral)
	c.Vel.X = fixed.FromRatio(-1, 4)
	physics.Resolve(&c, m)
	assert.Equal(t, u(16), c.Pos.X)
	assert.True(t, c.Collision.Left)
}

func TestResolve_FreeMovement(t *testing.T) {
	m := arena(t)
	c := body(u(40), u(40), entity.GravityNeutral)
	c.Vel = entity.Vec{X: u(2), Y: u(-3)}
	physics.Resolve(&c, m)
	assert.Equal(t, entity.Vec{X: u(42), Y: u(37)}, c.Pos)
	assert.Equal(t, entity.Vec{X: u(2), Y: u(-3)}, c.Vel)
	assert.False(t, c.Collision.Any())
}

func TestResolve_InteriorBlock(t *testing.T) {
	m := arena(t)
	// Block at column 5, row 6: x in [80,96), y in [96,112). Approach from the left.
	c := body(u(70), u(100), entity.GravityNeutral)
	c.Vel.X = u(5)
	physics.Resolve(&c, m)
	assert.Equal(t, u(72), c.Pos.X)
	assert.True(t, c.Collision.Right)
}

func TestResolve_ZeroVelocityExactContactFlags(t *testing.T) {
	m := arena(t)
	c := body(u(16), u(16), entity.GravityNeutral)
	physics.Resolve(&c, m)
	assert.True(t, c.Collision.Left)
	assert.True(t, c.Collision.Top)
	assert.False(t, c.Collision.Right)
	assert.False(t, c.Collision.Bottom)
}

func TestPropertyResolve_StaysInsideRoom(t *testing.T) {
	m := arena(t)
	rapid.Check(t, func(rt *rapid.T) {
		c := body(u(rapid.IntRange(16, 60).Draw(rt, "x")), u(rapid.IntRange(16, 80).Draw(rt, "y")), entity.GravityNormal)
		for i := 0; i < 50; i++ {
			c.Vel.X = fixed.Fixed(rapid.Int16Range(-200, 200).Draw(rt, "vx"))
			physics.Step(&c, m, params)
			assert.GreaterOrEqual(rt, c.Pos.X, u(16))
			assert.LessOrEqual(rt, c.Pos.X, u(136))
			assert.GreaterOrEqual(rt, c.Pos.Y, u(16))
			assert.LessOrEqual(rt, c.Pos.Y, u(136))
		}
	})
}

func TestPropertyResolve_Deterministic(t *testing.T) {
	m := arena(t)
	rapid.Check(t, func(rt *rapid.T) {
		a := body(u(rapid.IntRange(16, 60).Draw(rt, "x")), u(40), entity.GravityNormal)
		a.Vel.X = fixed.Fixed(rapid.Int16Range(-100, 100).Draw(rt, "vx"))
		b := a
		for i := 0; i < 30; i++ {
			physics.Step(&a, m, params)
			physics.Step(&b, m, params)
		}
		assert.Equal(rt, a, b)
	})
}

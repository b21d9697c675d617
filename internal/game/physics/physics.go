// Package physics applies gravity and resolves bodies against the tile map.
//
// All arithmetic is on raw fixed-point values widened to 32 bits. The
// resolver moves one axis at a time, X first, and never searches backwards
// for penetration: it only looks ahead of the leading edge, at most the
// travel distance plus a contact tolerance.
package physics

import (
	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/tilemap"
)

// Params are the world-wide physical constants.
type Params struct {
	Gravity fixed.Fixed
	// MaxFallSpeed clamps |vy| after gravity; zero disables the clamp.
	MaxFallSpeed fixed.Fixed
}

// ApplyGravity adds Gravity scaled by the body's gravity mode: -1 inverted,
// 0 neutral, +1 normal.
func ApplyGravity(c *entity.Core, p Params) {
	switch c.Vertical.Sign() {
	case 1:
		c.Vel.Y = c.Vel.Y.Add(p.Gravity)
	case -1:
		c.Vel.Y = c.Vel.Y.Sub(p.Gravity)
	}
	if p.MaxFallSpeed > 0 {
		c.Vel.Y = c.Vel.Y.Clamp(p.MaxFallSpeed.Neg(), p.MaxFallSpeed)
	}
}

// Tolerance is the resting-contact distance for m: one sixteenth of a tile,
// and at least one raw unit.
func Tolerance(m *tilemap.Map) int32 {
	return max(int32(m.TileSize())/16, 1)
}

// Step applies gravity and then resolves movement.
func Step(c *entity.Core, m *tilemap.Map, p Params) {
	ApplyGravity(c, p)
	Resolve(c, m)
}

// Resolve moves c by its velocity against m and recomputes its collision
// flags from scratch.
//
// Postcondition: c does not move through any solid tile along either axis.
func Resolve(c *entity.Core, m *tilemap.Map) {
	c.Collision = entity.Collision{}
	tol := Tolerance(m)

	b := boxOf(c)
	x, vx, lo, hi := resolveAxis(m, tol, axis{
		pos: b.x0, size: b.x1 - b.x0, vel: int32(c.Vel.X),
		spanLo: b.y0, spanHi: b.y1, solid: m.SolidInColumn,
	}, 0)
	c.Pos.X, c.Vel.X = toFixed(x), toFixed(vx)
	c.Collision.Left, c.Collision.Right = lo, hi

	b = boxOf(c)
	y, vy, lo, hi := resolveAxis(m, tol, axis{
		pos: b.y0, size: b.y1 - b.y0, vel: int32(c.Vel.Y),
		spanLo: b.x0, spanHi: b.x1, solid: m.SolidInRow,
	}, c.Vertical.Sign())
	c.Pos.Y, c.Vel.Y = toFixed(y), toFixed(vy)
	c.Collision.Top, c.Collision.Bottom = lo, hi
}

type box struct{ x0, y0, x1, y1 int32 }

func boxOf(c *entity.Core) box {
	x0, y0 := int32(c.Pos.X), int32(c.Pos.Y)
	return box{x0: x0, y0: y0, x1: x0 + int32(c.Width()), y1: y0 + int32(c.Height())}
}

// axis describes movement along one axis. spanLo/spanHi bound the box on
// the perpendicular axis; solid tests one line of tiles across that span.
type axis struct {
	pos, size, vel int32
	spanLo, spanHi int32
	solid          func(line, lo, hi int) bool
}

// cells returns the tile indices the perpendicular span covers.
func (a axis) cells(m *tilemap.Map) (int, int) {
	lo := m.Index(a.spanLo)
	hi := m.Index(a.spanHi - 1)
	if hi < lo {
		hi = lo
	}
	return lo, hi
}

// probe finds the nearest solid line ahead of the box in direction dir
// (-1 or +1) within reach. It returns the distance to it and the box
// position that places the leading edge exactly on it.
func probe(m *tilemap.Map, a axis, dir int, reach int32) (dist, clampPos int32, found bool) {
	lo, hi := a.cells(m)
	ts := int32(m.TileSize())
	if dir > 0 {
		edge := a.pos + a.size
		line := m.CeilIndex(edge)
		for d := m.Boundary(line) - edge; d <= reach; d += ts {
			if a.solid(line, lo, hi) {
				return d, m.Boundary(line) - a.size, true
			}
			line++
		}
		return 0, 0, false
	}
	line := m.Index(a.pos) - 1
	for d := a.pos - m.Boundary(line+1); d <= reach; d += ts {
		if a.solid(line, lo, hi) {
			return d, m.Boundary(line + 1), true
		}
		line--
	}
	return 0, 0, false
}

// resolveAxis returns the new position and velocity along the axis and
// whether the negative and positive sides are in contact. gravity is the
// sign of gravity along this axis; at zero velocity a gap of at most tol in
// that direction is closed.
func resolveAxis(m *tilemap.Map, tol int32, a axis, gravity int) (newPos, newVel int32, hitNeg, hitPos bool) {
	if a.vel == 0 {
		for _, dir := range []int{-1, 1} {
			reach := int32(0)
			if dir == gravity {
				reach = tol
			}
			_, clamp, ok := probe(m, a, dir, reach)
			if !ok {
				continue
			}
			a.pos = clamp
			if dir < 0 {
				hitNeg = true
			} else {
				hitPos = true
			}
		}
		return a.pos, 0, hitNeg, hitPos
	}

	dir, speed := 1, a.vel
	if speed < 0 {
		dir, speed = -1, -speed
	}
	if d, clamp, ok := probe(m, a, dir, speed+tol); ok && (d <= speed || speed <= tol) {
		return clamp, 0, dir < 0, dir > 0
	}
	return a.pos + a.vel, a.vel, false, false
}

// toFixed narrows a raw coordinate, saturating at the fixed-point range.
func toFixed(v int32) fixed.Fixed {
	return fixed.Fixed(max(min(v, int32(fixed.Max)), int32(fixed.Min)))
}

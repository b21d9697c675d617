// Package entity defines the simulated bodies and the per-occurrence
// instance records the world stores in its arenas.
package entity

import (
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/script"
)

// Direction is a stored horizontal facing. The zero value faces nowhere.
type Direction uint8

// Directions.
const (
	Neutral Direction = iota
	Negative
	Positive
)

// Valid reports whether d is a defined direction.
func (d Direction) Valid() bool { return d <= Positive }

// Sign returns -1, 0 or +1. Values outside the defined range are neutral.
func (d Direction) Sign() int {
	switch d {
	case Negative:
		return -1
	case Positive:
		return 1
	default:
		return 0
	}
}

// Fixed returns the direction as a script-facing -1, 0 or +1.
func (d Direction) Fixed() fixed.Fixed { return fixed.FromInt(d.Sign()) }

// DirectionOf maps the sign of f to a Direction.
func DirectionOf(f fixed.Fixed) Direction {
	switch {
	case f < 0:
		return Negative
	case f > 0:
		return Positive
	default:
		return Neutral
	}
}

// Gravity is a body's vertical gravity mode. The zero value selects the
// default for the kind of body: the world resolves it to GravityNormal for
// characters and to GravityNeutral for spawns when they are created.
type Gravity uint8

// Gravity modes.
const (
	GravityDefault Gravity = iota
	GravityNormal
	GravityNeutral
	GravityInverted
)

// Valid reports whether g is a defined gravity mode.
func (g Gravity) Valid() bool { return g <= GravityInverted }

// Or returns g, or def when g is GravityDefault.
func (g Gravity) Or(def Gravity) Gravity {
	if g == GravityDefault {
		return def
	}
	return g
}

// Sign returns the gravity multiplier: +1 normal, -1 inverted, 0 neutral.
// An unresolved default behaves as normal.
func (g Gravity) Sign() int {
	switch g {
	case GravityNormal, GravityDefault:
		return 1
	case GravityInverted:
		return -1
	default:
		return 0
	}
}

// Fixed returns the mode as a script-facing -1, 0 or +1.
func (g Gravity) Fixed() fixed.Fixed { return fixed.FromInt(g.Sign()) }

// GravityOf maps the sign of f to a gravity mode.
func GravityOf(f fixed.Fixed) Gravity {
	switch {
	case f < 0:
		return GravityInverted
	case f > 0:
		return GravityNormal
	default:
		return GravityNeutral
	}
}

// Vec is a fixed-point 2D vector. Y grows downward.
type Vec struct {
	X fixed.Fixed `yaml:"x"`
	Y fixed.Fixed `yaml:"y"`
}

// Size is a bounding box in whole world units.
type Size struct {
	W uint8 `yaml:"w"`
	H uint8 `yaml:"h"`
}

// Collision records which sides touched a solid boundary this frame.
type Collision struct {
	Top    bool `yaml:"top"`
	Right  bool `yaml:"right"`
	Bottom bool `yaml:"bottom"`
	Left   bool `yaml:"left"`
}

// Mask packs the flags as bit0 top, bit1 right, bit2 bottom, bit3 left.
func (c Collision) Mask() uint8 {
	var m uint8
	if c.Top {
		m |= 1
	}
	if c.Right {
		m |= 2
	}
	if c.Bottom {
		m |= 4
	}
	if c.Left {
		m |= 8
	}
	return m
}

// Any reports whether any side is in contact.
func (c Collision) Any() bool { return c != Collision{} }

// RefKind tags what a Ref points at.
type RefKind uint8

// Reference kinds.
const (
	RefNone RefKind = iota
	RefCharacter
	RefSpawn
)

// Ref is an index-based reference to another entity.
type Ref struct {
	Kind RefKind `yaml:"kind"`
	ID   uint8   `yaml:"id"`
}

// Core holds the fields shared by every simulated body.
//
// Invariant: Collision is recomputed by the physics resolver every frame.
type Core struct {
	ID         uint8     `yaml:"id"`
	Group      uint8     `yaml:"group"`
	Pos        Vec       `yaml:"pos"`
	Vel        Vec       `yaml:"vel"`
	Size       Size      `yaml:"size"`
	Collision  Collision `yaml:"collision"`
	Horizontal Direction `yaml:"horizontal"`
	Vertical   Gravity   `yaml:"vertical"`
	Enmity     uint8     `yaml:"enmity"`
	Target     Ref       `yaml:"target"`
}

// Grounded reports whether the body rests against its gravity direction:
// the bottom edge under normal gravity, the top edge when inverted, either
// edge when neutral.
func (c *Core) Grounded() bool {
	switch c.Vertical.Sign() {
	case 1:
		return c.Collision.Bottom
	case -1:
		return c.Collision.Top
	default:
		return c.Collision.Top || c.Collision.Bottom
	}
}

// Width returns the box width as a Fixed.
func (c *Core) Width() fixed.Fixed { return fixed.FromInt(int(c.Size.W)) }

// Height returns the box height as a Fixed.
func (c *Core) Height() fixed.Fixed { return fixed.FromInt(int(c.Size.H)) }

// Overlaps reports whether the boxes of c and o intersect with positive area.
func (c *Core) Overlaps(o *Core) bool {
	ax0, ay0 := int32(c.Pos.X), int32(c.Pos.Y)
	ax1, ay1 := ax0+int32(c.Width()), ay0+int32(c.Height())
	bx0, by0 := int32(o.Pos.X), int32(o.Pos.Y)
	bx1, by1 := bx0+int32(o.Width()), by0+int32(o.Height())
	return ax0 < bx1 && bx0 < ax1 && ay0 < by1 && by0 < ay1
}

// Get reads core field f with script-facing unit conversion.
func (c *Core) Get(f uint8) script.Value {
	switch f {
	case script.CoreID:
		return script.ByteValue(c.ID)
	case script.CoreGroup:
		return script.ByteValue(c.Group)
	case script.CoreX:
		return script.FixedValue(c.Pos.X)
	case script.CoreY:
		return script.FixedValue(c.Pos.Y)
	case script.CoreVX:
		return script.FixedValue(c.Vel.X)
	case script.CoreVY:
		return script.FixedValue(c.Vel.Y)
	case script.CoreWidth:
		return script.ByteValue(c.Size.W)
	case script.CoreHeight:
		return script.ByteValue(c.Size.H)
	case script.CoreCollision:
		return script.ByteValue(c.Collision.Mask())
	case script.CoreGrounded:
		if c.Grounded() {
			return script.ByteValue(1)
		}
		return script.ByteValue(0)
	case script.CoreHorizontal:
		return script.FixedValue(c.Horizontal.Fixed())
	case script.CoreVertical:
		return script.FixedValue(c.Vertical.Fixed())
	case script.CoreEnmity:
		return script.ByteValue(c.Enmity)
	case script.CoreTargetKind:
		return script.ByteValue(uint8(c.Target.Kind))
	case script.CoreTargetID:
		return script.ByteValue(c.Target.ID)
	}
	return script.Value{}
}

// Set writes core field f. Read-only fields and out-of-range target kinds
// are ignored.
func (c *Core) Set(f uint8, v script.Value) {
	switch f {
	case script.CoreGroup:
		c.Group = v.Byte
	case script.CoreX:
		c.Pos.X = v.Fixed
	case script.CoreY:
		c.Pos.Y = v.Fixed
	case script.CoreVX:
		c.Vel.X = v.Fixed
	case script.CoreVY:
		c.Vel.Y = v.Fixed
	case script.CoreWidth:
		c.Size.W = v.Byte
	case script.CoreHeight:
		c.Size.H = v.Byte
	case script.CoreHorizontal:
		c.Horizontal = DirectionOf(v.Fixed)
	case script.CoreVertical:
		c.Vertical = GravityOf(v.Fixed)
	case script.CoreEnmity:
		c.Enmity = v.Byte
	case script.CoreTargetKind:
		if RefKind(v.Byte) <= RefSpawn {
			c.Target.Kind = RefKind(v.Byte)
		}
	case script.CoreTargetID:
		c.Target.ID = v.Byte
	}
}

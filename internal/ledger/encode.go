// Package ledger records per-frame digests of a simulation run so that a
// later replay can be checked frame by frame.
package ledger

import (
	"encoding/binary"

	"golang.org/x/crypto/blake2b"

	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/script"
	"github.com/cory-johannsen/skirmish/internal/game/sim"
)

// DigestSize is the length of a frame digest in bytes.
const DigestSize = blake2b.Size256

// Digest is a blake2b-256 hash.
type Digest [DigestSize]byte

// encoder appends the canonical big-endian form of snapshot fields.
type encoder struct{ buf []byte }

func (e *encoder) u8(v uint8)   { e.buf = append(e.buf, v) }
func (e *encoder) u16(v uint16) { e.buf = binary.BigEndian.AppendUint16(e.buf, v) }
func (e *encoder) fx(v fixed.Fixed) {
	e.u16(uint16(v.Raw()))
}

func (e *encoder) flag(b bool) {
	if b {
		e.u8(1)
		return
	}
	e.u8(0)
}

// count writes a slice length; arenas never exceed 65535 entries.
func (e *encoder) count(n int) { e.u16(uint16(n)) }

func (e *encoder) core(c *entity.Core) {
	e.u8(c.ID)
	e.u8(c.Group)
	e.fx(c.Pos.X)
	e.fx(c.Pos.Y)
	e.fx(c.Vel.X)
	e.fx(c.Vel.Y)
	e.u8(c.Size.W)
	e.u8(c.Size.H)
	e.u8(c.Collision.Mask())
	e.u8(uint8(c.Horizontal))
	e.u8(uint8(c.Vertical))
	e.u8(c.Enmity)
	e.u8(uint8(c.Target.Kind))
	e.u8(c.Target.ID)
}

func (e *encoder) registers(r *script.Registers) {
	e.buf = append(e.buf, r.Vars[:]...)
	for _, f := range r.Fixed {
		e.fx(f)
	}
}

func (e *encoder) character(c *entity.Character) {
	e.core(&c.Core)
	s := &c.Stats
	for _, f := range []fixed.Fixed{
		s.Health, s.HealthCap, s.Energy, s.EnergyCap, s.HealthRegen,
		s.EnergyCharge, s.Power, s.Weight, s.JumpForce, s.MoveSpeed,
	} {
		e.fx(f)
	}
	e.buf = append(e.buf, c.Armor[:]...)
	e.count(len(c.Behaviors))
	for _, b := range c.Behaviors {
		e.u8(b.Condition)
		e.u8(b.Action)
	}
	e.flag(c.Locked != nil)
	if c.Locked != nil {
		e.u8(c.Locked.Action)
		e.u16(c.Locked.Remaining)
		e.flag(c.Locked.Indefinite)
	}
	e.count(len(c.StatusEffects))
	e.buf = append(e.buf, c.StatusEffects...)
}

// Encode returns the canonical byte form of snap. Equal snapshots always
// encode to equal bytes.
func Encode(snap sim.Snapshot) []byte {
	e := &encoder{buf: make([]byte, 0, 256)}
	e.u16(snap.Frame)
	e.flag(snap.Over)
	e.u16(snap.RandState)

	e.count(len(snap.Characters))
	for i := range snap.Characters {
		e.character(&snap.Characters[i])
	}
	e.count(len(snap.Spawns))
	for i := range snap.Spawns {
		s := &snap.Spawns[i]
		e.u8(s.Slot)
		e.core(&s.Core)
		e.u8(s.Def)
		e.u8(s.Owner)
		e.u16(s.Life)
		e.flag(s.Despawn)
		e.flag(s.Touched)
		e.registers(&s.Registers)
	}
	e.count(len(snap.StatusEffects))
	for i := range snap.StatusEffects {
		s := &snap.StatusEffects[i]
		e.u8(s.Slot)
		e.u8(s.Def)
		e.u8(s.Owner)
		e.u16(s.Life)
		e.u8(s.Stacks)
		e.flag(s.Started)
		e.registers(&s.Registers)
	}
	e.count(len(snap.Actions))
	for i := range snap.Actions {
		a := &snap.Actions[i]
		e.u8(a.Def)
		e.u8(a.Owner)
		e.flag(a.Used)
		e.u16(a.LastUsed)
		e.registers(&a.Registers)
	}
	e.count(len(snap.Conditions))
	for i := range snap.Conditions {
		c := &snap.Conditions[i]
		e.u8(c.Def)
		e.u8(c.Owner)
		e.registers(&c.Registers)
	}
	return e.buf
}

// Chain returns the digest of frame snap given the previous frame's digest.
// Each digest therefore commits to the whole run up to its frame.
func Chain(prev Digest, snap sim.Snapshot) Digest {
	h, _ := blake2b.New256(nil)
	h.Write(prev[:])
	h.Write(Encode(snap))
	var d Digest
	copy(d[:], h.Sum(nil))
	return d
}

// ContentDigest hashes the game document a run was started from.
func ContentDigest(doc []byte) Digest {
	return blake2b.Sum256(doc)
}

// Package world owns every piece of mutable simulation state. Entities
// refer to each other by index only; the arenas here are the single owner.
//
// A World is not safe for concurrent use; the caller must serialise access.
package world

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/definition"
	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/physics"
	"github.com/cory-johannsen/skirmish/internal/game/rng"
	"github.com/cory-johannsen/skirmish/internal/game/script"
	"github.com/cory-johannsen/skirmish/internal/game/tilemap"
)

// Arena capacities; ids are bytes.
const (
	MaxCharacters    = 256
	MaxSpawns        = 256
	MaxStatusEffects = 256
)

type instanceKey struct {
	owner uint8
	def   uint8
}

// World is the aggregate passed through every frame phase.
//
// Invariant: Characters[i].ID == i. A nil entry in Spawns or StatusEffects
// is a free slot; the slot index is the instance id.
type World struct {
	Frame   uint16
	Physics physics.Params
	Map     *tilemap.Map
	Defs    *definition.Set
	Rand    *rng.Source

	Characters    []entity.Character
	Spawns        []*entity.SpawnInstance
	StatusEffects []*entity.StatusEffectInstance
	Actions       []entity.ActionInstance
	Conditions    []entity.ConditionInstance

	actionIndex    map[instanceKey]int
	conditionIndex map[instanceKey]int
}

// New assembles a World. Character ids are reassigned to their index and
// zero-size bodies are rejected.
//
// Precondition: m and defs are non-nil.
// Postcondition: Returns an error naming the first offending character.
func New(m *tilemap.Map, defs *definition.Set, params physics.Params, seed uint16, chars []entity.Character) (*World, error) {
	if m == nil || defs == nil {
		return nil, fmt.Errorf("world: map and definitions are required")
	}
	if len(chars) > MaxCharacters {
		return nil, fmt.Errorf("world: %d characters exceed the maximum of %d", len(chars), MaxCharacters)
	}
	w := &World{
		Physics:        params,
		Map:            m,
		Defs:           defs,
		Rand:           rng.New(seed),
		Characters:     make([]entity.Character, len(chars)),
		actionIndex:    make(map[instanceKey]int),
		conditionIndex: make(map[instanceKey]int),
	}
	for i := range chars {
		c := chars[i].Clone()
		c.ID = uint8(i)
		c.Locked = nil
		c.StatusEffects = nil
		c.Vertical = c.Vertical.Or(entity.GravityNormal)
		if c.Size.W == 0 || c.Size.H == 0 {
			return nil, fmt.Errorf("world: character[%d]: size must be positive", i)
		}
		if err := defs.ValidateCharacter(&c); err != nil {
			return nil, fmt.Errorf("world: character[%d]: %w", i, err)
		}
		w.Characters[i] = c
	}
	return w, nil
}

// Character returns the character with id.
func (w *World) Character(id uint8) (*entity.Character, bool) {
	if int(id) >= len(w.Characters) {
		return nil, false
	}
	return &w.Characters[id], true
}

// Spawn returns the live spawn with id.
func (w *World) Spawn(id uint8) (*entity.SpawnInstance, bool) {
	if int(id) >= len(w.Spawns) || w.Spawns[id] == nil {
		return nil, false
	}
	return w.Spawns[id], true
}

// Status returns the live status effect with id.
func (w *World) Status(id uint8) (*entity.StatusEffectInstance, bool) {
	if int(id) >= len(w.StatusEffects) || w.StatusEffects[id] == nil {
		return nil, false
	}
	return w.StatusEffects[id], true
}

// ActionInstance returns the index in Actions of owner's instance of def,
// creating it on first use.
func (w *World) ActionInstance(owner, def uint8) int {
	k := instanceKey{owner: owner, def: def}
	if i, ok := w.actionIndex[k]; ok {
		return i
	}
	w.Actions = append(w.Actions, entity.ActionInstance{Def: def, Owner: owner})
	i := len(w.Actions) - 1
	w.actionIndex[k] = i
	return i
}

// ConditionInstance returns the index in Conditions of owner's instance of
// def, creating it on first use.
func (w *World) ConditionInstance(owner, def uint8) int {
	k := instanceKey{owner: owner, def: def}
	if i, ok := w.conditionIndex[k]; ok {
		return i
	}
	w.Conditions = append(w.Conditions, entity.ConditionInstance{Def: def, Owner: owner})
	i := len(w.Conditions) - 1
	w.conditionIndex[k] = i
	return i
}

// freeSlot returns the lowest free index in a slot arena of capacity limit.
func freeSlot[T any](slots []*T, limit int) (int, bool) {
	for i, s := range slots {
		if s == nil {
			return i, true
		}
	}
	if len(slots) < limit {
		return len(slots), true
	}
	return 0, false
}

// AddSpawn creates an instance of spawn def owned by character owner,
// centred on the owner and sharing its group, facing and target.
//
// Postcondition: returns false, changing nothing, when def or owner is
// unknown or every slot is taken.
func (w *World) AddSpawn(def, owner uint8, seed *script.SpawnSeed) (uint8, bool) {
	d, ok := w.Defs.Spawn(def)
	if !ok {
		return 0, false
	}
	o, ok := w.Character(owner)
	if !ok {
		return 0, false
	}
	slot, ok := freeSlot(w.Spawns, MaxSpawns)
	if !ok {
		return 0, false
	}
	s := &entity.SpawnInstance{
		Core: entity.Core{
			ID:         uint8(slot),
			Group:      o.Group,
			Size:       d.Size,
			Horizontal: o.Horizontal,
			Vertical:   d.Gravity.Or(entity.GravityNeutral),
			Target:     o.Target,
		},
		Def:       def,
		Owner:     owner,
		Life:      d.LifeSpan,
		Registers: d.Registers(),
	}
	s.Pos.X = o.Pos.X.Add(o.Width().Sub(s.Width()).Div(fixedTwo))
	s.Pos.Y = o.Pos.Y.Add(o.Height().Sub(s.Height()).Div(fixedTwo))
	if seed != nil {
		s.Registers.Vars[0] = seed.Var
		s.Registers.Fixed[0] = seed.Fixed
	}
	if slot == len(w.Spawns) {
		w.Spawns = append(w.Spawns, s)
	} else {
		w.Spawns[slot] = s
	}
	return uint8(slot), true
}

// RemoveSpawn frees the slot of spawn id.
func (w *World) RemoveSpawn(id uint8) {
	if int(id) < len(w.Spawns) {
		w.Spawns[id] = nil
	}
}

// ApplyStatus applies status effect def to character target. A repeated
// application adds a stack, capped at MaxStacks (unstackable effects stay at
// one), and extends the remaining life to the full duration. New instances
// run their On script at the next status phase.
//
// Postcondition: returns false when def or target is unknown or no slot is free.
func (w *World) ApplyStatus(def, target uint8) (uint8, bool) {
	d, ok := w.Defs.StatusEffect(def)
	if !ok {
		return 0, false
	}
	c, ok := w.Character(target)
	if !ok {
		return 0, false
	}
	for _, id := range c.StatusEffects {
		s, ok := w.Status(id)
		if !ok || s.Def != def {
			continue
		}
		if d.MaxStacks > 0 && s.Stacks < d.MaxStacks {
			s.Stacks++
		}
		if d.Duration > s.Life {
			s.Life = d.Duration
		}
		return id, true
	}
	slot, ok := freeSlot(w.StatusEffects, MaxStatusEffects)
	if !ok {
		return 0, false
	}
	s := &entity.StatusEffectInstance{
		Def:       def,
		Owner:     target,
		Life:      d.Duration,
		Stacks:    1,
		Registers: d.Registers(),
	}
	if slot == len(w.StatusEffects) {
		w.StatusEffects = append(w.StatusEffects, s)
	} else {
		w.StatusEffects[slot] = s
	}
	c.StatusEffects = append(c.StatusEffects, uint8(slot))
	return uint8(slot), true
}

// RemoveStatus frees status effect id and detaches it from its owner.
func (w *World) RemoveStatus(id uint8) {
	s, ok := w.Status(id)
	if !ok {
		return
	}
	if c, ok := w.Character(s.Owner); ok {
		kept := c.StatusEffects[:0]
		for _, sid := range c.StatusEffects {
			if sid != id {
				kept = append(kept, sid)
			}
		}
		c.StatusEffects = kept
	}
	w.StatusEffects[id] = nil
}

// Clone returns a deep copy sharing only the immutable map and definitions.
func (w *World) Clone() *World {
	out := *w
	rs := *w.Rand
	out.Rand = &rs
	out.Characters = make([]entity.Character, len(w.Characters))
	for i := range w.Characters {
		out.Characters[i] = w.Characters[i].Clone()
	}
	out.Spawns = make([]*entity.SpawnInstance, len(w.Spawns))
	for i, s := range w.Spawns {
		if s != nil {
			cp := *s
			out.Spawns[i] = &cp
		}
	}
	out.StatusEffects = make([]*entity.StatusEffectInstance, len(w.StatusEffects))
	for i, s := range w.StatusEffects {
		if s != nil {
			cp := *s
			out.StatusEffects[i] = &cp
		}
	}
	out.Actions = append([]entity.ActionInstance(nil), w.Actions...)
	out.Conditions = append([]entity.ConditionInstance(nil), w.Conditions...)
	out.actionIndex = make(map[instanceKey]int, len(w.actionIndex))
	for k, v := range w.actionIndex {
		out.actionIndex[k] = v
	}
	out.conditionIndex = make(map[instanceKey]int, len(w.conditionIndex))
	for k, v := range w.conditionIndex {
		out.conditionIndex[k] = v
	}
	return &out
}

// Living returns the number of distinct groups with a living character.
func (w *World) Living() int {
	groups := make(map[uint8]struct{})
	for i := range w.Characters {
		if w.Characters[i].Alive() {
			groups[w.Characters[i].Group] = struct{}{}
		}
	}
	return len(groups)
}

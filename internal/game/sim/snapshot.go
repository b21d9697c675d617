package sim

import (
	"github.com/cory-johannsen/skirmish/internal/game/entity"
)

// Spawn is a live spawn instance and its slot id.
type Spawn struct {
	Slot                 uint8 `yaml:"slot"`
	entity.SpawnInstance `yaml:",inline"`
}

// StatusEffect is a live status effect instance and its slot id.
type StatusEffect struct {
	Slot                        uint8 `yaml:"slot"`
	entity.StatusEffectInstance `yaml:",inline"`
}

// Snapshot is a deep copy of the observable game state. Free slots are
// omitted; live entries are in slot order.
type Snapshot struct {
	Frame         uint16                     `yaml:"frame"`
	Over          bool                       `yaml:"over"`
	RandState     uint16                     `yaml:"rand_state"`
	Characters    []entity.Character         `yaml:"characters,omitempty"`
	Spawns        []Spawn                    `yaml:"spawns,omitempty"`
	StatusEffects []StatusEffect             `yaml:"status_effects,omitempty"`
	Actions       []entity.ActionInstance    `yaml:"actions,omitempty"`
	Conditions    []entity.ConditionInstance `yaml:"conditions,omitempty"`
}

// Snapshot returns a copy of the current state that later steps do not modify.
func (g *Game) Snapshot() Snapshot {
	w := g.w
	snap := Snapshot{
		Frame:      w.Frame,
		Over:       g.over,
		RandState:  w.Rand.State(),
		Characters: make([]entity.Character, len(w.Characters)),
		Actions:    append([]entity.ActionInstance(nil), w.Actions...),
		Conditions: append([]entity.ConditionInstance(nil), w.Conditions...),
	}
	for i := range w.Characters {
		snap.Characters[i] = w.Characters[i].Clone()
	}
	for i, s := range w.Spawns {
		if s != nil {
			snap.Spawns = append(snap.Spawns, Spawn{Slot: uint8(i), SpawnInstance: *s})
		}
	}
	for i, s := range w.StatusEffects {
		if s != nil {
			snap.StatusEffects = append(snap.StatusEffects, StatusEffect{Slot: uint8(i), StatusEffectInstance: *s})
		}
	}
	return snap
}

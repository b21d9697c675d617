package entity

import (
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/script"
)

// Element is a damage element; it indexes Character.Armor.
type Element uint8

// Elements.
const (
	Punct Element = iota
	Blast
	Force
	Heat
	Cryo
	Jolt
	NumElements
)

var elementNames = [NumElements]string{"punct", "blast", "force", "heat", "cryo", "jolt"}

// String returns the lowercase element name.
func (e Element) String() string {
	if e < NumElements {
		return elementNames[e]
	}
	return "unknown"
}

// ParseElement resolves a lowercase element name.
func ParseElement(s string) (Element, bool) {
	for i, n := range elementNames {
		if n == s {
			return Element(i), true
		}
	}
	return 0, false
}

// Stats are the fixed-point character attributes.
type Stats struct {
	Health       fixed.Fixed `yaml:"health"`
	HealthCap    fixed.Fixed `yaml:"health_cap"`
	Energy       fixed.Fixed `yaml:"energy"`
	EnergyCap    fixed.Fixed `yaml:"energy_cap"`
	HealthRegen  fixed.Fixed `yaml:"health_regen"`
	EnergyCharge fixed.Fixed `yaml:"energy_charge"`
	Power        fixed.Fixed `yaml:"power"`
	Weight       fixed.Fixed `yaml:"weight"`
	JumpForce    fixed.Fixed `yaml:"jump_force"`
	MoveSpeed    fixed.Fixed `yaml:"move_speed"`
}

// Behavior pairs a condition definition with the action it gates.
type Behavior struct {
	Condition uint8 `yaml:"condition"`
	Action    uint8 `yaml:"action"`
}

// ActionLock suspends behavior evaluation. A lock with Indefinite set re-runs
// Action every frame until the script unlocks it; otherwise behaviors are
// skipped for Remaining frames.
type ActionLock struct {
	Action     uint8  `yaml:"action"`
	Remaining  uint16 `yaml:"remaining"`
	Indefinite bool   `yaml:"indefinite"`
}

// Character is a combatant. Characters are never removed from the world;
// death is Health reaching zero.
type Character struct {
	Core          `yaml:",inline"`
	Stats         `yaml:",inline"`
	Armor         [NumElements]uint8 `yaml:"armor"`
	Behaviors     []Behavior         `yaml:"behaviors,omitempty"`
	Locked        *ActionLock        `yaml:"locked,omitempty"`
	StatusEffects []uint8            `yaml:"status_effects,omitempty"`
}

// Alive reports whether the character has health left.
func (c *Character) Alive() bool { return c.Health > 0 }

// Clone returns a deep copy.
func (c *Character) Clone() Character {
	out := *c
	out.Behaviors = append([]Behavior(nil), c.Behaviors...)
	out.StatusEffects = append([]uint8(nil), c.StatusEffects...)
	if c.Locked != nil {
		l := *c.Locked
		out.Locked = &l
	}
	return out
}

// Regenerate moves health and energy toward their caps. Dead characters do
// not regenerate.
func (c *Character) Regenerate() {
	if !c.Alive() {
		return
	}
	c.Health = regen(c.Health, c.HealthRegen, c.HealthCap)
	c.Energy = regen(c.Energy, c.EnergyCharge, c.EnergyCap)
}

func regen(v, rate, limit fixed.Fixed) fixed.Fixed {
	if v >= limit {
		return v
	}
	return fixed.MinOf(v.Add(rate), limit)
}

// TakeDamage reduces health by amount less armor for element, flooring at
// zero. Armor is a flat reduction in whole units.
//
// Postcondition: returns the health actually removed.
func (c *Character) TakeDamage(amount fixed.Fixed, e Element) fixed.Fixed {
	if amount <= 0 || e >= NumElements {
		return fixed.Zero
	}
	dealt := amount.Sub(fixed.FromInt(int(c.Armor[e])))
	if dealt <= 0 {
		return fixed.Zero
	}
	if dealt > c.Health {
		dealt = c.Health
	}
	c.Health = c.Health.Sub(dealt)
	return dealt
}

// GetStat reads stats field f.
func (c *Character) GetStat(f uint8) script.Value {
	if f >= script.StatArmor {
		i := f - script.StatArmor
		if int(i) < int(NumElements) {
			return script.ByteValue(c.Armor[i])
		}
		return script.Value{}
	}
	if p := c.statPtr(f); p != nil {
		return script.FixedValue(*p)
	}
	return script.Value{}
}

// SetStat writes stats field f.
func (c *Character) SetStat(f uint8, v script.Value) {
	if f >= script.StatArmor {
		i := f - script.StatArmor
		if int(i) < int(NumElements) {
			c.Armor[i] = v.Byte
		}
		return
	}
	if p := c.statPtr(f); p != nil {
		*p = v.Fixed
	}
}

func (c *Character) statPtr(f uint8) *fixed.Fixed {
	switch f {
	case script.StatHealth:
		return &c.Health
	case script.StatHealthCap:
		return &c.HealthCap
	case script.StatEnergy:
		return &c.Energy
	case script.StatEnergyCap:
		return &c.EnergyCap
	case script.StatHealthRegen:
		return &c.HealthRegen
	case script.StatEnergyCharge:
		return &c.EnergyCharge
	case script.StatPower:
		return &c.Power
	case script.StatWeight:
		return &c.Weight
	case script.StatJumpForce:
		return &c.JumpForce
	case script.StatMoveSpeed:
		return &c.MoveSpeed
	}
	return nil
}

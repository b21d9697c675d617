package entity

import "github.com/cory-johannsen/skirmish/internal/game/script"

// The instance records below reference their definitions by id only; the
// scripts and static parameters live once in the definition set.

// ActionInstance is the runtime state of one character's use of an action.
type ActionInstance struct {
	Def       uint8            `yaml:"def"`
	Owner     uint8            `yaml:"owner"`
	Used      bool             `yaml:"used"`
	LastUsed  uint16           `yaml:"last_used"`
	Registers script.Registers `yaml:"registers"`
}

// CooldownRemaining returns how many frames remain before the action may
// fire again at frame now.
func (a *ActionInstance) CooldownRemaining(now, cooldown uint16) uint16 {
	if !a.Used || cooldown == 0 {
		return 0
	}
	elapsed := now - a.LastUsed
	if elapsed >= cooldown {
		return 0
	}
	return cooldown - elapsed
}

// ConditionInstance is the runtime state of one character's condition.
type ConditionInstance struct {
	Def       uint8            `yaml:"def"`
	Owner     uint8            `yaml:"owner"`
	Registers script.Registers `yaml:"registers"`
}

// SpawnInstance is a projectile or other temporary body.
//
// Touched records tile contact from the latest physics pass; Despawn flags
// the instance for removal at cleanup.
type SpawnInstance struct {
	Core      `yaml:",inline"`
	Def       uint8            `yaml:"def"`
	Owner     uint8            `yaml:"owner"`
	Life      uint16           `yaml:"life"`
	Despawn   bool             `yaml:"despawn"`
	Touched   bool             `yaml:"touched"`
	Registers script.Registers `yaml:"registers"`
}

// StatusEffectInstance is an effect applied to a character.
type StatusEffectInstance struct {
	Def       uint8            `yaml:"def"`
	Owner     uint8            `yaml:"owner"`
	Life      uint16           `yaml:"life"`
	Stacks    uint8            `yaml:"stacks"`
	Started   bool             `yaml:"started"`
	Registers script.Registers `yaml:"registers"`
}

// Package definition holds the immutable templates that instances reference
// by id: actions, conditions, spawns and status effects.
package definition

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/script"
	"gopkg.in/yaml.v3"
)

// MaxDefinitions bounds each collection so that ids fit in a byte.
const MaxDefinitions = 256

// Code is a bytecode script. In YAML it is either assembly text or a
// sequence of byte values.
type Code []byte

// UnmarshalYAML accepts a string of assembly or a sequence of integers.
func (c *Code) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		code, err := script.Assemble(node.Value)
		if err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*c = code
		return nil
	case yaml.SequenceNode:
		var raw []uint8
		if err := node.Decode(&raw); err != nil {
			return fmt.Errorf("line %d: %w", node.Line, err)
		}
		*c = raw
		return nil
	}
	return fmt.Errorf("line %d: script must be assembly text or a byte list", node.Line)
}

// MarshalYAML emits the disassembly, falling back to raw bytes when the code
// does not decode.
func (c Code) MarshalYAML() (interface{}, error) {
	text, err := script.Disassemble(c)
	if err != nil {
		return []uint8(c), nil
	}
	return text, nil
}

// Action is a behavior's effect.
type Action struct {
	Name       string                      `yaml:"name"`
	Script     Code                        `yaml:"script"`
	EnergyCost fixed.Fixed                 `yaml:"energy_cost"`
	Cooldown   uint16                      `yaml:"cooldown"`
	Duration   uint16                      `yaml:"duration"`
	Args       [script.NumArgs]uint8       `yaml:"args"`
	FixedArgs  [script.NumArgs]fixed.Fixed `yaml:"fixed_args"`
}

// Condition gates an action.
type Condition struct {
	Name      string                      `yaml:"name"`
	Script    Code                        `yaml:"script"`
	Args      [script.NumArgs]uint8       `yaml:"args"`
	FixedArgs [script.NumArgs]fixed.Fixed `yaml:"fixed_args"`
}

// Spawn is a projectile or temporary body template. LifeSpan 0 lives until
// despawned; a default Gravity spawns with neutral gravity.
type Spawn struct {
	Name            string                           `yaml:"name"`
	BehaviorScript  Code                             `yaml:"behavior"`
	CollisionScript Code                             `yaml:"collision"`
	DespawnScript   Code                             `yaml:"despawn"`
	LifeSpan        uint16                           `yaml:"life_span"`
	Size            entity.Size                      `yaml:"size"`
	Element         entity.Element                   `yaml:"element"`
	Power           fixed.Fixed                      `yaml:"power"`
	Gravity         entity.Gravity                   `yaml:"gravity"`
	Vars            [script.NumVars]uint8            `yaml:"vars"`
	FixedVars       [script.NumFixedVars]fixed.Fixed `yaml:"fixed_vars"`
}

// StatusEffect is an effect applied to characters. Duration 0 is permanent;
// MaxStacks 0 is unstackable.
type StatusEffect struct {
	Name       string                           `yaml:"name"`
	OnScript   Code                             `yaml:"on"`
	TickScript Code                             `yaml:"tick"`
	OffScript  Code                             `yaml:"off"`
	Duration   uint16                           `yaml:"duration"`
	MaxStacks  uint8                            `yaml:"max_stacks"`
	Vars       [script.NumVars]uint8            `yaml:"vars"`
	FixedVars  [script.NumFixedVars]fixed.Fixed `yaml:"fixed_vars"`
}

// Registers returns the initial registers for a new instance.
func (s *Spawn) Registers() script.Registers {
	return script.Registers{Vars: s.Vars, Fixed: s.FixedVars}
}

// Registers returns the initial registers for a new instance.
func (s *StatusEffect) Registers() script.Registers {
	return script.Registers{Vars: s.Vars, Fixed: s.FixedVars}
}

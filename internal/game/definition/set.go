package definition

import (
	"errors"
	"fmt"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/script"
)

// Set is the flat collection of all definitions for one game. A
// definition's id is its index in the corresponding slice.
type Set struct {
	Actions       []Action       `yaml:"actions"`
	Conditions    []Condition    `yaml:"conditions"`
	Spawns        []Spawn        `yaml:"spawns"`
	StatusEffects []StatusEffect `yaml:"status_effects"`
}

// Action returns the action with id.
func (s *Set) Action(id uint8) (*Action, bool) {
	if int(id) >= len(s.Actions) {
		return nil, false
	}
	return &s.Actions[id], true
}

// Condition returns the condition with id.
func (s *Set) Condition(id uint8) (*Condition, bool) {
	if int(id) >= len(s.Conditions) {
		return nil, false
	}
	return &s.Conditions[id], true
}

// Spawn returns the spawn with id.
func (s *Set) Spawn(id uint8) (*Spawn, bool) {
	if int(id) >= len(s.Spawns) {
		return nil, false
	}
	return &s.Spawns[id], true
}

// StatusEffect returns the status effect with id.
func (s *Set) StatusEffect(id uint8) (*StatusEffect, bool) {
	if int(id) >= len(s.StatusEffects) {
		return nil, false
	}
	return &s.StatusEffects[id], true
}

// ErrInvalid wraps every definition validation failure.
var ErrInvalid = errors.New("invalid definitions")

// Validate checks collection sizes, every script, the definition ids
// scripts refer to, and parameter ranges. All violations are reported
// together, each naming the offending definition.
//
// Postcondition: Returns nil iff all definitions are usable.
func (s *Set) Validate() error {
	var errs []string
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Sprintf(format, args...))
	}
	for _, c := range []struct {
		kind string
		n    int
	}{
		{"actions", len(s.Actions)},
		{"conditions", len(s.Conditions)},
		{"spawns", len(s.Spawns)},
		{"status_effects", len(s.StatusEffects)},
	} {
		if c.n > MaxDefinitions {
			add("%s: %d definitions exceed the maximum of %d", c.kind, c.n, MaxDefinitions)
		}
	}

	checkScript := func(owner, which string, code Code) {
		if err := script.Validate(code); err != nil {
			add("%s: %s: %v", owner, which, err)
			return
		}
		spawns, statuses := script.References(code)
		for _, id := range spawns {
			if _, ok := s.Spawn(id); !ok {
				add("%s: %s: unknown spawn %d", owner, which, id)
			}
		}
		for _, id := range statuses {
			if _, ok := s.StatusEffect(id); !ok {
				add("%s: %s: unknown status effect %d", owner, which, id)
			}
		}
	}

	for i := range s.Actions {
		a := &s.Actions[i]
		owner := fmt.Sprintf("action[%d] %q", i, a.Name)
		checkScript(owner, "script", a.Script)
		if a.EnergyCost < 0 {
			add("%s: energy_cost must be >= 0, got %s", owner, a.EnergyCost)
		}
	}
	for i := range s.Conditions {
		c := &s.Conditions[i]
		checkScript(fmt.Sprintf("condition[%d] %q", i, c.Name), "script", c.Script)
	}
	for i := range s.Spawns {
		sp := &s.Spawns[i]
		owner := fmt.Sprintf("spawn[%d] %q", i, sp.Name)
		checkScript(owner, "behavior", sp.BehaviorScript)
		checkScript(owner, "collision", sp.CollisionScript)
		checkScript(owner, "despawn", sp.DespawnScript)
		if sp.Element >= entity.NumElements {
			add("%s: unknown element %d", owner, sp.Element)
		}
		if !sp.Gravity.Valid() {
			add("%s: unknown gravity mode %d", owner, sp.Gravity)
		}
		if sp.Size.W == 0 || sp.Size.H == 0 {
			add("%s: size must be positive, got %dx%d", owner, sp.Size.W, sp.Size.H)
		}
	}
	for i := range s.StatusEffects {
		st := &s.StatusEffects[i]
		owner := fmt.Sprintf("status_effect[%d] %q", i, st.Name)
		checkScript(owner, "on", st.OnScript)
		checkScript(owner, "tick", st.TickScript)
		checkScript(owner, "off", st.OffScript)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// ValidateCharacter checks that every behavior of c references existing
// definitions.
func (s *Set) ValidateCharacter(c *entity.Character) error {
	var errs []string
	if !c.Horizontal.Valid() {
		errs = append(errs, fmt.Sprintf("unknown horizontal direction %d", c.Horizontal))
	}
	if !c.Vertical.Valid() {
		errs = append(errs, fmt.Sprintf("unknown gravity mode %d", c.Vertical))
	}
	for i, b := range c.Behaviors {
		if _, ok := s.Condition(b.Condition); !ok {
			errs = append(errs, fmt.Sprintf("behavior[%d]: unknown condition %d", i, b.Condition))
		}
		if _, ok := s.Action(b.Action); !ok {
			errs = append(errs, fmt.Sprintf("behavior[%d]: unknown action %d", i, b.Action))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(errs, "; "))
	}
	return nil
}

// Package behavior evaluates a character's prioritised condition/action
// list once per frame.
package behavior

import (
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/script"
	"github.com/cory-johannsen/skirmish/internal/game/world"
)

// Resolver runs behaviors with a shared Machine and logs script faults.
type Resolver struct {
	machine *script.Machine
	logger  *zap.Logger
}

// NewResolver creates a Resolver.
//
// Precondition: machine must be non-nil.
// Postcondition: a nil logger is replaced by a no-op logger.
func NewResolver(machine *script.Machine, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{machine: machine, logger: logger}
}

// Resolve advances character id by one frame of behavior evaluation.
//
// Dead characters are skipped. A duration lock counts down and skips
// evaluation; an indefinite lock re-runs its action instead. Otherwise the
// first behavior whose condition is truthy, whose action is affordable and
// off cooldown, and whose action returns truthy ends evaluation for the frame.
//
// Precondition: w must be non-nil.
// Postcondition: script errors abort only the behavior that raised them.
func (r *Resolver) Resolve(w *world.World, id uint8) {
	c, ok := w.Character(id)
	if !ok || !c.Alive() {
		return
	}
	if c.Locked != nil {
		if !c.Locked.Indefinite {
			c.Locked.Remaining--
			if c.Locked.Remaining == 0 {
				c.Locked = nil
			}
			return
		}
		r.runLocked(w, id, c.Locked.Action)
		return
	}
	for i, b := range c.Behaviors {
		if r.try(w, id, i, b.Condition, b.Action) {
			return
		}
	}
}

func (r *Resolver) runLocked(w *world.World, id, action uint8) {
	def, ok := w.Defs.Action(action)
	if !ok {
		w.Characters[id].Locked = nil
		return
	}
	ai := w.ActionInstance(id, action)
	regs := w.Actions[ai].Registers
	env := world.NewActionEnv(w, id, ai)
	if _, err := r.machine.Execute(def.Script, &regs, env); err != nil {
		r.fault(w, id, "locked action", action, err)
		return
	}
	w.Actions[ai].Registers = regs
}

// try evaluates behavior index i and reports whether it fired.
func (r *Resolver) try(w *world.World, id uint8, i int, cond, action uint8) bool {
	cdef, ok := w.Defs.Condition(cond)
	if !ok {
		return false
	}
	adef, ok := w.Defs.Action(action)
	if !ok {
		return false
	}
	ci := w.ConditionInstance(id, cond)
	ai := w.ActionInstance(id, action)

	regs := w.Conditions[ci].Registers
	out, err := r.machine.Execute(cdef.Script, &regs, world.NewConditionEnv(w, id, ci, ai))
	if err != nil {
		r.fault(w, id, "condition", cond, err, zap.Int("behavior", i))
		return false
	}
	w.Conditions[ci].Registers = regs
	if !out.Truthy() {
		return false
	}

	c := &w.Characters[id]
	inst := &w.Actions[ai]
	if c.Energy < adef.EnergyCost || inst.CooldownRemaining(w.Frame, adef.Cooldown) > 0 {
		return false
	}

	regs = inst.Registers
	env := world.NewActionEnv(w, id, ai)
	out, err = r.machine.Execute(adef.Script, &regs, env)
	if err != nil {
		r.fault(w, id, "action", action, err, zap.Int("behavior", i))
		return false
	}
	inst.Registers = regs
	if !out.Truthy() {
		return false
	}
	inst.Used = true
	inst.LastUsed = w.Frame
	if !env.EnergyApplied {
		c.Energy = fixed.MaxOf(c.Energy.Sub(adef.EnergyCost), fixed.Zero)
	}
	return true
}

func (r *Resolver) fault(w *world.World, id uint8, kind string, def uint8, err error, fields ...zap.Field) {
	r.logger.Debug("script fault",
		append([]zap.Field{
			zap.Uint16("frame", w.Frame),
			zap.Uint8("character", id),
			zap.String("kind", kind),
			zap.Uint8("definition", def),
			zap.Error(err),
		}, fields...)...,
	)
}

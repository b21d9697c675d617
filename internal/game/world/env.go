package world

import (
	"github.com/cory-johannsen/skirmish/internal/game/definition"
	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/script"
)

const fixedTwo = 2 * fixed.One

const none = -1

// binding is the execution context shared by every script category: the
// executing character plus the optional instances in scope. Unset
// instances are none.
type binding struct {
	w      *World
	self   uint8
	action int
	cond   int
	spawn  int
	status int
}

func newBinding(w *World, self uint8) binding {
	return binding{w: w, self: self, action: none, cond: none, spawn: none, status: none}
}

func (b *binding) character() (*entity.Character, bool) { return b.w.Character(b.self) }

func (b *binding) spawnInstance() (*entity.SpawnInstance, bool) {
	if b.spawn == none {
		return nil, false
	}
	return b.w.Spawn(uint8(b.spawn))
}

func (b *binding) actionInstance() (*entity.ActionInstance, *definition.Action, bool) {
	if b.action == none || b.action >= len(b.w.Actions) {
		return nil, nil, false
	}
	inst := &b.w.Actions[b.action]
	def, ok := b.w.Defs.Action(inst.Def)
	if !ok {
		return nil, nil, false
	}
	return inst, def, true
}

// executor is the core whose target and grounded state the script sees: the
// spawn for spawn scripts, the character otherwise.
func (b *binding) executor() (*entity.Core, bool) {
	if s, ok := b.spawnInstance(); ok {
		return &s.Core, true
	}
	if c, ok := b.character(); ok {
		return &c.Core, true
	}
	return nil, false
}

// targetCore resolves the executor's target reference.
func (b *binding) targetCore() (*entity.Core, *entity.Character, bool) {
	ex, ok := b.executor()
	if !ok {
		return nil, nil, false
	}
	switch ex.Target.Kind {
	case entity.RefCharacter:
		if c, ok := b.w.Character(ex.Target.ID); ok {
			return &c.Core, c, true
		}
	case entity.RefSpawn:
		if s, ok := b.w.Spawn(ex.Target.ID); ok {
			return &s.Core, nil, true
		}
	}
	return nil, nil, false
}

func (b *binding) gameProp(f uint8) script.Value {
	w := b.w
	switch f {
	case script.GameFrame:
		return script.ByteValue(uint8(w.Frame))
	case script.GameGravity:
		return script.FixedValue(w.Physics.Gravity)
	case script.GameCharacterCount:
		return script.ByteValue(uint8(len(w.Characters)))
	case script.GameMapWidth:
		return script.ByteValue(uint8(w.Map.Width()))
	case script.GameMapHeight:
		return script.ByteValue(uint8(w.Map.Height()))
	case script.GameTileSize:
		return script.FixedValue(w.Map.TileSize())
	}
	return script.Value{}
}

func framesToFixed(n uint16) fixed.Fixed { return fixed.FromInt(int(n)) }

func fixedToFrames(f fixed.Fixed) uint16 { return uint16(max(f.Int(), 0)) }

// Load implements script.Env.
func (b *binding) Load(a script.Address) script.Value {
	f := a.Field()
	switch a.Scope() {
	case script.ScopeGame:
		return b.gameProp(f)
	case script.ScopeSelf:
		if c, ok := b.character(); ok {
			return c.Get(f)
		}
	case script.ScopeSelfStats:
		if c, ok := b.character(); ok {
			return c.GetStat(f)
		}
	case script.ScopeTarget:
		if core, _, ok := b.targetCore(); ok {
			return core.Get(f)
		}
	case script.ScopeTargetStats:
		if _, c, ok := b.targetCore(); ok && c != nil {
			return c.GetStat(f)
		}
	case script.ScopeSpawn:
		if s, ok := b.spawnInstance(); ok {
			return s.Get(f)
		}
	case script.ScopeSpawnExtra:
		if s, ok := b.spawnInstance(); ok {
			return b.spawnExtra(s, f)
		}
	case script.ScopeAction:
		if inst, def, ok := b.actionInstance(); ok {
			return b.actionProp(inst, def, f)
		}
	case script.ScopeCondition:
		if b.cond != none && b.cond < len(b.w.Conditions) && f == script.ConditionDef {
			return script.ByteValue(b.w.Conditions[b.cond].Def)
		}
	case script.ScopeStatus:
		if b.status != none {
			if s, ok := b.w.Status(uint8(b.status)); ok {
				switch f {
				case script.StatusDef:
					return script.ByteValue(s.Def)
				case script.StatusLife:
					return script.FixedValue(framesToFixed(s.Life))
				case script.StatusStacks:
					return script.ByteValue(s.Stacks)
				}
			}
		}
	}
	return script.Value{}
}

func (b *binding) spawnExtra(s *entity.SpawnInstance, f uint8) script.Value {
	switch f {
	case script.SpawnLife:
		return script.FixedValue(framesToFixed(s.Life))
	case script.SpawnDef:
		return script.ByteValue(s.Def)
	case script.SpawnOwner:
		return script.ByteValue(s.Owner)
	}
	d, ok := b.w.Defs.Spawn(s.Def)
	if !ok {
		return script.Value{}
	}
	switch f {
	case script.SpawnElement:
		return script.ByteValue(uint8(d.Element))
	case script.SpawnPower:
		return script.FixedValue(d.Power)
	}
	return script.Value{}
}

func (b *binding) actionProp(inst *entity.ActionInstance, def *definition.Action, f uint8) script.Value {
	switch f {
	case script.ActionDef:
		return script.ByteValue(inst.Def)
	case script.ActionCooldown:
		return script.FixedValue(framesToFixed(inst.CooldownRemaining(b.w.Frame, def.Cooldown)))
	case script.ActionEnergyCost:
		return script.FixedValue(def.EnergyCost)
	case script.ActionDuration:
		return script.FixedValue(framesToFixed(def.Duration))
	}
	return script.Value{}
}

// Store implements script.Env. Read-only fields are ignored by the entity
// setters; scopes without a bound instance ignore the write.
func (b *binding) Store(a script.Address, v script.Value) {
	p, ok := script.Lookup(a)
	if !ok || p.ReadOnly {
		return
	}
	f := a.Field()
	switch a.Scope() {
	case script.ScopeSelf:
		if c, ok := b.character(); ok {
			c.Set(f, v)
		}
	case script.ScopeSelfStats:
		if c, ok := b.character(); ok {
			c.SetStat(f, v)
		}
	case script.ScopeTarget:
		if core, _, ok := b.targetCore(); ok {
			core.Set(f, v)
		}
	case script.ScopeTargetStats:
		if _, c, ok := b.targetCore(); ok && c != nil {
			c.SetStat(f, v)
		}
	case script.ScopeSpawn:
		if s, ok := b.spawnInstance(); ok {
			s.Set(f, v)
		}
	case script.ScopeSpawnExtra:
		if s, ok := b.spawnInstance(); ok && f == script.SpawnLife {
			s.Life = fixedToFrames(v.Fixed)
		}
	case script.ScopeStatus:
		if b.status == none {
			return
		}
		if s, ok := b.w.Status(uint8(b.status)); ok {
			switch f {
			case script.StatusLife:
				s.Life = fixedToFrames(v.Fixed)
			case script.StatusStacks:
				s.Stacks = v.Byte
			}
		}
	}
}

// LoadOf implements script.Env.
func (b *binding) LoadOf(id uint8, a script.Address) script.Value {
	c, ok := b.w.Character(id)
	if !ok {
		return script.Value{}
	}
	switch a.Scope() {
	case script.ScopeSelf:
		return c.Get(a.Field())
	case script.ScopeSelfStats:
		return c.GetStat(a.Field())
	}
	return script.Value{}
}

// StoreOf implements script.Env.
func (b *binding) StoreOf(id uint8, a script.Address, v script.Value) {
	p, ok := script.Lookup(a)
	if !ok || p.ReadOnly {
		return
	}
	c, ok := b.w.Character(id)
	if !ok {
		return
	}
	switch a.Scope() {
	case script.ScopeSelf:
		c.Set(a.Field(), v)
	case script.ScopeSelfStats:
		c.SetStat(a.Field(), v)
	}
}

// RandByte implements script.Env.
func (b *binding) RandByte() uint8 { return b.w.Rand.Byte() }

// RandFixed implements script.Env.
func (b *binding) RandFixed() fixed.Fixed { return b.w.Rand.Fixed() }

// Grounded implements script.Env.
func (b *binding) Grounded() bool {
	if ex, ok := b.executor(); ok {
		return ex.Grounded()
	}
	return false
}

// HasEnergy implements script.Env for contexts with an action in scope.
func (b *binding) HasEnergy() (bool, error) {
	_, def, ok := b.actionInstance()
	if !ok {
		return false, script.ErrUnsupported
	}
	c, ok := b.character()
	if !ok {
		return false, nil
	}
	return c.Energy >= def.EnergyCost, nil
}

// OnCooldown implements script.Env for contexts with an action in scope.
func (b *binding) OnCooldown() (bool, error) {
	inst, def, ok := b.actionInstance()
	if !ok {
		return false, script.ErrUnsupported
	}
	return inst.CooldownRemaining(b.w.Frame, def.Cooldown) > 0, nil
}

// Cooldown implements script.Env for contexts with an action in scope.
func (b *binding) Cooldown() (fixed.Fixed, error) {
	inst, def, ok := b.actionInstance()
	if !ok {
		return fixed.Zero, script.ErrUnsupported
	}
	return framesToFixed(inst.CooldownRemaining(b.w.Frame, def.Cooldown)), nil
}

// ResetCooldown is unsupported unless overridden.
func (b *binding) ResetCooldown() error { return script.ErrUnsupported }

// Arg is unsupported unless overridden.
func (b *binding) Arg(int) (uint8, error) { return 0, script.ErrUnsupported }

// FixedArg is unsupported unless overridden.
func (b *binding) FixedArg(int) (fixed.Fixed, error) { return fixed.Zero, script.ErrUnsupported }

// Lock is unsupported unless overridden.
func (b *binding) Lock() error { return script.ErrUnsupported }

// Unlock is unsupported unless overridden.
func (b *binding) Unlock() error { return script.ErrUnsupported }

// ApplyEnergyCost is unsupported unless overridden.
func (b *binding) ApplyEnergyCost() error { return script.ErrUnsupported }

// ApplyDuration is unsupported unless overridden.
func (b *binding) ApplyDuration() error { return script.ErrUnsupported }

// Spawn is unsupported unless overridden.
func (b *binding) Spawn(uint8, *script.SpawnSeed) error { return script.ErrUnsupported }

// ApplyStatus is unsupported unless overridden.
func (b *binding) ApplyStatus(uint8, uint8) error { return script.ErrUnsupported }

// Damage is unsupported unless overridden.
func (b *binding) Damage(fixed.Fixed, uint8, uint8) error { return script.ErrUnsupported }

// Despawn is unsupported unless overridden.
func (b *binding) Despawn() error { return script.ErrUnsupported }

// victim resolves who for ApplyStatus and Damage: the executing character
// or the executor's target when it is a character.
func (b *binding) victim(who uint8) (uint8, bool) {
	if who == script.WhoExecutor {
		_, ok := b.character()
		return b.self, ok
	}
	core, c, ok := b.targetCore()
	if !ok || c == nil {
		return 0, false
	}
	return core.ID, true
}

// effects implements the shared world-changing capabilities. New spawns are
// owned by the executing character.
type effects struct{ binding }

// Spawn creates an instance of spawn def; a full arena is a no-op.
func (e *effects) Spawn(def uint8, seed *script.SpawnSeed) error {
	e.w.AddSpawn(def, e.self, seed)
	return nil
}

// ApplyStatus applies status effect def to the executor or its target.
func (e *effects) ApplyStatus(def, who uint8) error {
	if id, ok := e.victim(who); ok {
		e.w.ApplyStatus(def, id)
	}
	return nil
}

// Damage applies armor-reduced damage to the executor or its target.
func (e *effects) Damage(amount fixed.Fixed, element, who uint8) error {
	if id, ok := e.victim(who); ok {
		c, _ := e.w.Character(id)
		c.TakeDamage(amount, entity.Element(element))
	}
	return nil
}

// ConditionEnv runs a behavior's condition. It can read the paired action
// but has no side effects.
type ConditionEnv struct{ binding }

// NewConditionEnv binds condition instance cond and its paired action
// instance action for character self.
func NewConditionEnv(w *World, self uint8, cond, action int) *ConditionEnv {
	b := newBinding(w, self)
	b.cond, b.action = cond, action
	return &ConditionEnv{binding: b}
}

// Arg returns the condition definition's byte argument i.
func (e *ConditionEnv) Arg(i int) (uint8, error) {
	d, ok := e.def()
	if !ok {
		return 0, nil
	}
	return d.Args[i], nil
}

// FixedArg returns the condition definition's fixed argument i.
func (e *ConditionEnv) FixedArg(i int) (fixed.Fixed, error) {
	d, ok := e.def()
	if !ok {
		return fixed.Zero, nil
	}
	return d.FixedArgs[i], nil
}

func (e *ConditionEnv) def() (*definition.Condition, bool) {
	if e.cond >= len(e.w.Conditions) {
		return nil, false
	}
	return e.w.Defs.Condition(e.w.Conditions[e.cond].Def)
}

// ActionEnv runs an action, including indefinitely locked re-runs.
type ActionEnv struct {
	effects
	// EnergyApplied records that the script paid the energy cost itself.
	EnergyApplied bool
}

// NewActionEnv binds action instance action for character self.
func NewActionEnv(w *World, self uint8, action int) *ActionEnv {
	b := newBinding(w, self)
	b.action = action
	return &ActionEnv{effects: effects{binding: b}}
}

// Arg returns the action definition's byte argument i.
func (e *ActionEnv) Arg(i int) (uint8, error) {
	_, d, ok := e.actionInstance()
	if !ok {
		return 0, nil
	}
	return d.Args[i], nil
}

// FixedArg returns the action definition's fixed argument i.
func (e *ActionEnv) FixedArg(i int) (fixed.Fixed, error) {
	_, d, ok := e.actionInstance()
	if !ok {
		return fixed.Zero, nil
	}
	return d.FixedArgs[i], nil
}

// ResetCooldown clears the action's cooldown.
func (e *ActionEnv) ResetCooldown() error {
	if inst, _, ok := e.actionInstance(); ok {
		inst.Used = false
	}
	return nil
}

// Lock re-runs this action every frame until Unlock.
func (e *ActionEnv) Lock() error {
	inst, _, ok := e.actionInstance()
	c, cok := e.character()
	if ok && cok {
		c.Locked = &entity.ActionLock{Action: inst.Def, Indefinite: true}
	}
	return nil
}

// Unlock clears any lock on the executing character.
func (e *ActionEnv) Unlock() error {
	if c, ok := e.character(); ok {
		c.Locked = nil
	}
	return nil
}

// ApplyEnergyCost deducts the action's cost now, at most once per run.
// Energy floors at zero.
func (e *ActionEnv) ApplyEnergyCost() error {
	if e.EnergyApplied {
		return nil
	}
	_, d, ok := e.actionInstance()
	c, cok := e.character()
	if ok && cok {
		c.Energy = fixed.MaxOf(c.Energy.Sub(d.EnergyCost), fixed.Zero)
		e.EnergyApplied = true
	}
	return nil
}

// ApplyDuration suspends behavior evaluation for the action's Duration.
func (e *ActionEnv) ApplyDuration() error {
	inst, d, ok := e.actionInstance()
	c, cok := e.character()
	if ok && cok && d.Duration > 0 {
		c.Locked = &entity.ActionLock{Action: inst.Def, Remaining: d.Duration}
	}
	return nil
}

// SpawnEnv runs a spawn's behavior, collision and despawn scripts. The Self
// scopes address the owner; Spawn scopes address the instance. Grounded and
// target checks follow the spawn, so exitifnotgrounded agrees with
// spawn.grounded rather than self.grounded.
type SpawnEnv struct{ effects }

// NewSpawnEnv binds spawn instance id.
//
// Precondition: id is a live spawn.
func NewSpawnEnv(w *World, id uint8) *SpawnEnv {
	var owner uint8
	if s, ok := w.Spawn(id); ok {
		owner = s.Owner
	}
	b := newBinding(w, owner)
	b.spawn = int(id)
	return &SpawnEnv{effects: effects{binding: b}}
}

// Despawn flags the spawn for removal at cleanup.
func (e *SpawnEnv) Despawn() error {
	if s, ok := e.spawnInstance(); ok {
		s.Despawn = true
	}
	return nil
}

// StatusEnv runs a status effect's on, tick and off scripts against the
// character it is applied to.
type StatusEnv struct{ effects }

// NewStatusEnv binds status instance id.
//
// Precondition: id is a live status effect.
func NewStatusEnv(w *World, id uint8) *StatusEnv {
	var owner uint8
	if s, ok := w.Status(id); ok {
		owner = s.Owner
	}
	b := newBinding(w, owner)
	b.status = int(id)
	return &StatusEnv{effects: effects{binding: b}}
}

var (
	_ script.Env = (*ConditionEnv)(nil)
	_ script.Env = (*ActionEnv)(nil)
	_ script.Env = (*SpawnEnv)(nil)
	_ script.Env = (*StatusEnv)(nil)
)

package world_test

import (
	"testing"

	"github.com/cory-johannsen/skirmish/internal/game/definition"
	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/physics"
	"github.com/cory-johannsen/skirmish/internal/game/script"
	"github.com/cory-johannsen/skirmish/internal/game/tilemap"
	"github.com/cory-johannsen/skirmish/internal/game/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func newWorld(t require.TestingT) *world.World {
	m, err := tilemap.Parse([]string{
		"########",
		"#......#",
		"#......#",
		"########",
	}, fixed.FromInt(16))
	require.NoError(t, err)
	defs := &definition.Set{
		Actions: []definition.Action{{
			Name: "strike", EnergyCost: fixed.FromInt(2), Cooldown: 4, Duration: 3,
			Args: [4]uint8{7}, FixedArgs: [4]fixed.Fixed{fixed.Half},
		}},
		Conditions: []definition.Condition{{Name: "always", Args: [4]uint8{0, 5}}},
		Spawns: []definition.Spawn{{
			Name: "bolt", Size: entity.Size{W: 2, H: 2}, LifeSpan: 10,
			Element: entity.Heat, Power: fixed.FromInt(3), Gravity: entity.GravityNeutral,
			Vars: [8]uint8{1, 1},
		}},
		StatusEffects: []definition.StatusEffect{
			{Name: "burn", Duration: 5, MaxStacks: 3},
			{Name: "mark", Duration: 2},
		},
	}
	chars := []entity.Character{
		{
			Core:  entity.Core{Group: 1, Pos: entity.Vec{X: fixed.FromInt(20), Y: fixed.FromInt(20)}, Size: entity.Size{W: 8, H: 8}, Vertical: entity.GravityNormal},
			Stats: entity.Stats{Health: fixed.FromInt(10), Energy: fixed.FromInt(5)},
		},
		{
			Core:  entity.Core{Group: 2, Pos: entity.Vec{X: fixed.FromInt(60), Y: fixed.FromInt(20)}, Size: entity.Size{W: 8, H: 8}},
			Stats: entity.Stats{Health: fixed.FromInt(10)},
		},
	}
	chars[0].Target = entity.Ref{Kind: entity.RefCharacter, ID: 1}
	w, err := world.New(m, defs, physics.Params{Gravity: fixed.One}, 42, chars)
	require.NoError(t, err)
	return w
}

func addr(s script.Scope, f uint8) script.Address { return script.NewAddress(s, f) }

func TestNew_AssignsIDsAndValidates(t *testing.T) {
	w := newWorld(t)
	assert.Equal(t, uint8(1), w.Characters[1].ID)

	_, err := world.New(w.Map, w.Defs, w.Physics, 1, []entity.Character{{
		Core:      entity.Core{Size: entity.Size{W: 1, H: 1}},
		Behaviors: []entity.Behavior{{Condition: 9, Action: 0}},
	}})
	assert.ErrorContains(t, err, "character[0]")
	_, err = world.New(w.Map, w.Defs, w.Physics, 1, []entity.Character{{}})
	assert.ErrorContains(t, err, "size must be positive")
}

func TestEnv_GameAndSelfProperties(t *testing.T) {
	w := newWorld(t)
	w.Frame = 300
	env := world.NewConditionEnv(w, 0, w.ConditionInstance(0, 0), w.ActionInstance(0, 0))
	assert.Equal(t, script.ByteValue(44), env.Load(addr(script.ScopeGame, script.GameFrame)))
	assert.Equal(t, script.FixedValue(fixed.One), env.Load(addr(script.ScopeGame, script.GameGravity)))
	assert.Equal(t, script.ByteValue(2), env.Load(addr(script.ScopeGame, script.GameCharacterCount)))
	assert.Equal(t, script.ByteValue(8), env.Load(addr(script.ScopeGame, script.GameMapWidth)))
	assert.Equal(t, script.FixedValue(fixed.FromInt(16)), env.Load(addr(script.ScopeGame, script.GameTileSize)))
	assert.Equal(t, script.FixedValue(fixed.FromInt(20)), env.Load(addr(script.ScopeSelf, script.CoreX)))
	assert.Equal(t, script.FixedValue(fixed.FromInt(10)), env.Load(addr(script.ScopeSelfStats, script.StatHealth)))
	assert.Equal(t, script.FixedValue(fixed.FromInt(2)), env.Load(addr(script.ScopeAction, script.ActionEnergyCost)))
	assert.Equal(t, script.FixedValue(fixed.FromInt(3)), env.Load(addr(script.ScopeAction, script.ActionDuration)))
	arg, err := env.Arg(1)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), arg)
}

func TestEnv_TargetResolution(t *testing.T) {
	w := newWorld(t)
	env := world.NewActionEnv(w, 0, w.ActionInstance(0, 0))
	assert.Equal(t, script.FixedValue(fixed.FromInt(60)), env.Load(addr(script.ScopeTarget, script.CoreX)))
	env.Store(addr(script.ScopeTargetStats, script.StatHealth), script.FixedValue(fixed.FromInt(4)))
	assert.Equal(t, fixed.FromInt(4), w.Characters[1].Health)

	// A dangling target reads zero and ignores writes.
	w.Characters[0].Target = entity.Ref{Kind: entity.RefSpawn, ID: 9}
	assert.Equal(t, script.Value{}, env.Load(addr(script.ScopeTarget, script.CoreX)))
	env.Store(addr(script.ScopeTarget, script.CoreX), script.FixedValue(fixed.One))
	assert.Equal(t, fixed.FromInt(60), w.Characters[1].Pos.X)
}

func TestEnv_UnboundScopesReadZero(t *testing.T) {
	w := newWorld(t)
	env := world.NewActionEnv(w, 0, w.ActionInstance(0, 0))
	assert.Equal(t, script.Value{}, env.Load(addr(script.ScopeSpawn, script.CoreX)))
	assert.Equal(t, script.Value{}, env.Load(addr(script.ScopeStatus, script.StatusStacks)))
	assert.Equal(t, script.Value{}, env.LoadOf(200, addr(script.ScopeSelf, script.CoreX)))
	env.StoreOf(200, addr(script.ScopeSelf, script.CoreX), script.FixedValue(fixed.One))
}

func TestEnv_CapabilitiesByCategory(t *testing.T) {
	w := newWorld(t)
	cond := world.NewConditionEnv(w, 0, w.ConditionInstance(0, 0), w.ActionInstance(0, 0))
	assert.ErrorIs(t, cond.Spawn(0, nil), script.ErrUnsupported)
	assert.ErrorIs(t, cond.Lock(), script.ErrUnsupported)
	assert.ErrorIs(t, cond.Despawn(), script.ErrUnsupported)
	ok, err := cond.HasEnergy()
	require.NoError(t, err)
	assert.True(t, ok)

	id, _ := w.AddSpawn(0, 0, nil)
	sp := world.NewSpawnEnv(w, id)
	assert.ErrorIs(t, sp.Lock(), script.ErrUnsupported)
	_, err = sp.HasEnergy()
	assert.ErrorIs(t, err, script.ErrUnsupported)
	require.NoError(t, sp.Despawn())
	s, _ := w.Spawn(id)
	assert.True(t, s.Despawn)

	sid, _ := w.ApplyStatus(0, 1)
	st := world.NewStatusEnv(w, sid)
	assert.ErrorIs(t, st.Despawn(), script.ErrUnsupported)
	assert.ErrorIs(t, st.ApplyDuration(), script.ErrUnsupported)
}

func TestActionEnv_LocksAndEnergy(t *testing.T) {
	w := newWorld(t)
	env := world.NewActionEnv(w, 0, w.ActionInstance(0, 0))
	require.NoError(t, env.ApplyEnergyCost())
	require.NoError(t, env.ApplyEnergyCost())
	assert.True(t, env.EnergyApplied)
	assert.Equal(t, fixed.FromInt(3), w.Characters[0].Energy)

	require.NoError(t, env.ApplyDuration())
	assert.Equal(t, &entity.ActionLock{Action: 0, Remaining: 3}, w.Characters[0].Locked)
	require.NoError(t, env.Lock())
	assert.True(t, w.Characters[0].Locked.Indefinite)
	require.NoError(t, env.Unlock())
	assert.Nil(t, w.Characters[0].Locked)

	v, err := env.FixedArg(0)
	require.NoError(t, err)
	assert.Equal(t, fixed.Half, v)
}

func TestActionEnv_CooldownAndReset(t *testing.T) {
	w := newWorld(t)
	i := w.ActionInstance(0, 0)
	w.Actions[i].Used, w.Actions[i].LastUsed = true, 0
	w.Frame = 1
	env := world.NewActionEnv(w, 0, i)
	cooling, err := env.OnCooldown()
	require.NoError(t, err)
	assert.True(t, cooling)
	cd, err := env.Cooldown()
	require.NoError(t, err)
	assert.Equal(t, fixed.FromInt(3), cd)
	require.NoError(t, env.ResetCooldown())
	cooling, _ = env.OnCooldown()
	assert.False(t, cooling)
}

func TestEffects_DamageAndStatus(t *testing.T) {
	w := newWorld(t)
	w.Characters[1].Armor[entity.Heat] = 1
	env := world.NewActionEnv(w, 0, w.ActionInstance(0, 0))
	require.NoError(t, env.Damage(fixed.FromInt(4), uint8(entity.Heat), script.WhoTarget))
	assert.Equal(t, fixed.FromInt(7), w.Characters[1].Health)
	require.NoError(t, env.ApplyStatus(1, script.WhoExecutor))
	assert.Len(t, w.Characters[0].StatusEffects, 1)

	// Targeting a spawn cannot damage it.
	w.Characters[0].Target = entity.Ref{Kind: entity.RefSpawn, ID: 0}
	require.NoError(t, env.Damage(fixed.FromInt(4), 0, script.WhoTarget))
	assert.Equal(t, fixed.FromInt(7), w.Characters[1].Health)
}

func TestApplyStatus_StacksAndExtends(t *testing.T) {
	w := newWorld(t)
	id, ok := w.ApplyStatus(0, 1)
	require.True(t, ok)
	s, _ := w.Status(id)
	assert.Equal(t, uint8(1), s.Stacks)
	assert.Equal(t, uint16(5), s.Life)
	assert.False(t, s.Started)

	s.Life = 2
	for i := 0; i < 4; i++ {
		again, ok := w.ApplyStatus(0, 1)
		require.True(t, ok)
		assert.Equal(t, id, again)
	}
	assert.Equal(t, uint8(3), s.Stacks, "capped at MaxStacks")
	assert.Equal(t, uint16(5), s.Life)

	mark, _ := w.ApplyStatus(1, 1)
	w.ApplyStatus(1, 1)
	m, _ := w.Status(mark)
	assert.Equal(t, uint8(1), m.Stacks, "unstackable")

	w.RemoveStatus(id)
	_, ok = w.Status(id)
	assert.False(t, ok)
	assert.Equal(t, []uint8{mark}, w.Characters[1].StatusEffects)
}

func TestAddSpawn_CentresAndReusesSlots(t *testing.T) {
	w := newWorld(t)
	id, ok := w.AddSpawn(0, 0, &script.SpawnSeed{Var: 9, Fixed: fixed.One})
	require.True(t, ok)
	s, _ := w.Spawn(id)
	assert.Equal(t, entity.Vec{X: fixed.FromInt(23), Y: fixed.FromInt(23)}, s.Pos)
	assert.Equal(t, uint8(1), s.Group)
	assert.Equal(t, uint16(10), s.Life)
	assert.Equal(t, uint8(9), s.Registers.Vars[0])
	assert.Equal(t, uint8(1), s.Registers.Vars[1])
	assert.Equal(t, fixed.One, s.Registers.Fixed[0])
	assert.Equal(t, entity.GravityNeutral, s.Vertical)

	second, _ := w.AddSpawn(0, 0, nil)
	w.RemoveSpawn(id)
	third, _ := w.AddSpawn(0, 1, nil)
	assert.Equal(t, id, third)
	assert.NotEqual(t, second, third)

	_, ok = w.AddSpawn(5, 0, nil)
	assert.False(t, ok)
}

func TestSpawnEnv_Properties(t *testing.T) {
	w := newWorld(t)
	id, _ := w.AddSpawn(0, 0, nil)
	env := world.NewSpawnEnv(w, id)
	assert.Equal(t, script.ByteValue(uint8(entity.Heat)), env.Load(addr(script.ScopeSpawnExtra, script.SpawnElement)))
	assert.Equal(t, script.FixedValue(fixed.FromInt(3)), env.Load(addr(script.ScopeSpawnExtra, script.SpawnPower)))
	assert.Equal(t, script.FixedValue(fixed.FromInt(20)), env.Load(addr(script.ScopeSelf, script.CoreX)), "self is the owner")
	env.Store(addr(script.ScopeSpawn, script.CoreVX), script.FixedValue(fixed.FromInt(2)))
	env.Store(addr(script.ScopeSpawnExtra, script.SpawnLife), script.FixedValue(fixed.FromInt(4)))
	s, _ := w.Spawn(id)
	assert.Equal(t, fixed.FromInt(2), s.Vel.X)
	assert.Equal(t, uint16(4), s.Life)
}

func TestSpawnEnv_GroundedFollowsSpawn(t *testing.T) {
	w := newWorld(t)
	id, _ := w.AddSpawn(0, 0, nil)
	s, _ := w.Spawn(id)
	s.Collision = entity.Collision{Top: true}
	env := world.NewSpawnEnv(w, id)
	assert.True(t, env.Grounded())
	assert.Equal(t, script.ByteValue(1), env.Load(addr(script.ScopeSpawn, script.CoreGrounded)))
	assert.Equal(t, script.ByteValue(0), env.Load(addr(script.ScopeSelf, script.CoreGrounded)), "self is the owner")

	s.Collision = entity.Collision{}
	w.Characters[0].Collision = entity.Collision{Bottom: true}
	assert.False(t, env.Grounded())
	assert.Equal(t, script.ByteValue(0), env.Load(addr(script.ScopeSpawn, script.CoreGrounded)))
}

func TestNew_ResolvesDefaultGravity(t *testing.T) {
	w := newWorld(t)
	assert.Equal(t, entity.GravityNormal, w.Characters[1].Vertical)
	assert.Equal(t, entity.Neutral, w.Characters[1].Horizontal)

	w.Defs.Spawns[0].Gravity = entity.GravityDefault
	id, _ := w.AddSpawn(0, 1, nil)
	s, _ := w.Spawn(id)
	assert.Equal(t, entity.GravityNeutral, s.Vertical)

	w.Defs.Spawns[0].Gravity = entity.GravityInverted
	id, _ = w.AddSpawn(0, 1, nil)
	s, _ = w.Spawn(id)
	assert.Equal(t, entity.GravityInverted, s.Vertical)
}

func TestClone_IsIndependent(t *testing.T) {
	w := newWorld(t)
	w.AddSpawn(0, 0, nil)
	w.ApplyStatus(0, 0)
	w.ActionInstance(0, 0)
	cp := w.Clone()
	cp.Characters[0].Health = 0
	cp.Spawns[0].Life = 0
	cp.StatusEffects[0].Stacks = 9
	cp.Actions[0].Used = true
	cp.Rand.Next()
	assert.Equal(t, fixed.FromInt(10), w.Characters[0].Health)
	assert.Equal(t, uint16(10), w.Spawns[0].Life)
	assert.Equal(t, uint8(1), w.StatusEffects[0].Stacks)
	assert.False(t, w.Actions[0].Used)
	assert.NotEqual(t, w.Rand.State(), cp.Rand.State())
	assert.Equal(t, 0, cp.ActionInstance(0, 0))
}

func TestLiving(t *testing.T) {
	w := newWorld(t)
	assert.Equal(t, 2, w.Living())
	w.Characters[1].Health = 0
	assert.Equal(t, 1, w.Living())
}

// writable enumerates every writable address reachable from a status env.
func writable() []script.Address {
	var out []script.Address
	for a := 0; a < 256; a++ {
		p, ok := script.Lookup(script.Address(a))
		if !ok || p.ReadOnly {
			continue
		}
		switch script.Address(a).Scope() {
		case script.ScopeSelf, script.ScopeSelfStats, script.ScopeTarget, script.ScopeTargetStats, script.ScopeStatus:
			out = append(out, script.Address(a))
		}
	}
	return out
}

func TestPropertyEnv_WriteReadRoundTrip(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		w := newWorld(rt)
		sid, _ := w.ApplyStatus(0, 0)
		env := world.NewStatusEnv(w, sid)
		a := rapid.SampledFrom(writable()).Draw(rt, "addr")
		p, _ := script.Lookup(a)
		f := a.Field()

		var v script.Value
		switch {
		case (a.Scope() == script.ScopeSelf || a.Scope() == script.ScopeTarget) && (f == script.CoreHorizontal || f == script.CoreVertical):
			v = script.FixedValue(fixed.FromInt(rapid.IntRange(-1, 1).Draw(rt, "dir")))
		case (a.Scope() == script.ScopeSelf || a.Scope() == script.ScopeTarget) && f == script.CoreTargetKind:
			v = script.ByteValue(rapid.ByteRange(0, 2).Draw(rt, "kind"))
		case a.Scope() == script.ScopeStatus && f == script.StatusLife:
			v = script.FixedValue(fixed.FromInt(rapid.IntRange(0, 2047).Draw(rt, "life")))
		case p.Kind == script.KindFixed:
			v = script.FixedValue(fixed.Fixed(rapid.Int16().Draw(rt, "fixed")))
		default:
			v = script.ByteValue(rapid.Byte().Draw(rt, "byte"))
		}
		env.Store(a, v)
		assert.Equal(rt, v, env.Load(a))
	})
}

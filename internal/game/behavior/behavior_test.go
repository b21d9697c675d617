package behavior_test

import (
	"testing"

	"github.com/cory-johannsen/skirmish/internal/game/behavior"
	"github.com/cory-johannsen/skirmish/internal/game/definition"
	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/physics"
	"github.com/cory-johannsen/skirmish/internal/game/script"
	"github.com/cory-johannsen/skirmish/internal/game/tilemap"
	"github.com/cory-johannsen/skirmish/internal/game/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const (
	condTrue uint8 = iota
	condFalse
	condEveryThird
	condFault
)

const (
	actRight uint8 = iota
	actLeft
	actMiss
	actChannel
	actHold
	actPrepaid
)

func asm(t *testing.T, src string) definition.Code {
	t.Helper()
	code, err := script.Assemble(src)
	require.NoError(t, err)
	require.NoError(t, script.Validate(code))
	return code
}

func defs(t *testing.T) *definition.Set {
	return &definition.Set{
		Conditions: []definition.Condition{
			{Name: "true", Script: asm(t, "exit 1")},
			{Name: "false", Script: asm(t, "exit 0")},
			{Name: "every_third", Script: asm(t, `
				setbyte b1 1
				addbyte b0 b0 b1
				setbyte b2 3
				eqbyte b3 b0 b2
				skipif b3 hit
				exit 0
			hit:
				setbyte b0 0
				exit 1
			`)},
			{Name: "fault", Script: asm(t, `
				setbyte b0 9
				setfixed f0 1
				div f1 f0 f2
				exit 1
			`)},
		},
		Actions: []definition.Action{
			{Name: "right", EnergyCost: fixed.One, Cooldown: 3, Script: asm(t, `
				setfixed f0 1
				write self.vx f0
				exit 1
			`)},
			{Name: "left", Script: asm(t, `
				setfixed f0 -1
				write self.vx f0
				exit 1
			`)},
			{Name: "miss", EnergyCost: fixed.One, Script: asm(t, "exit 0")},
			{Name: "channel", Duration: 2, Script: asm(t, `
				applyduration
				exit 1
			`)},
			{Name: "hold", Script: asm(t, `
				setbyte b1 1
				addbyte b0 b0 b1
				setbyte b2 3
				eqbyte b3 b0 b2
				skipif b3 done
				lock
				exit 1
			done:
				unlock
				exit 1
			`)},
			{Name: "prepaid", EnergyCost: fixed.FromInt(2), Script: asm(t, `
				applyenergycost
				applyenergycost
				exit 1
			`)},
		},
	}
}

func newWorld(t *testing.T, behaviors ...entity.Behavior) *world.World {
	t.Helper()
	m, err := tilemap.Parse([]string{"....", "...."}, fixed.FromInt(16))
	require.NoError(t, err)
	c := entity.Character{
		Core:      entity.Core{Size: entity.Size{W: 4, H: 4}},
		Stats:     entity.Stats{Health: fixed.FromInt(10), Energy: fixed.FromInt(5)},
		Behaviors: behaviors,
	}
	w, err := world.New(m, defs(t), physics.Params{}, 1, []entity.Character{c})
	require.NoError(t, err)
	return w
}

func resolver() *behavior.Resolver {
	return behavior.NewResolver(script.NewMachine(0), nil)
}

func TestResolve_FirstFiringBehaviorWins(t *testing.T) {
	w := newWorld(t,
		entity.Behavior{Condition: condTrue, Action: actRight},
		entity.Behavior{Condition: condTrue, Action: actLeft},
	)
	resolver().Resolve(w, 0)
	c := w.Characters[0]
	assert.Equal(t, fixed.One, c.Vel.X)
	assert.Equal(t, fixed.FromInt(4), c.Energy)
	inst := w.Actions[w.ActionInstance(0, actRight)]
	assert.True(t, inst.Used)
	assert.Equal(t, uint16(0), inst.LastUsed)
}

func TestResolve_FallsThroughFalseConditionAndFailedAction(t *testing.T) {
	w := newWorld(t,
		entity.Behavior{Condition: condFalse, Action: actRight},
		entity.Behavior{Condition: condTrue, Action: actMiss},
		entity.Behavior{Condition: condTrue, Action: actLeft},
	)
	resolver().Resolve(w, 0)
	assert.Equal(t, fixed.NegOne, w.Characters[0].Vel.X)
	assert.Equal(t, fixed.FromInt(5), w.Characters[0].Energy, "a falsy action costs nothing")
	assert.False(t, w.Actions[w.ActionInstance(0, actMiss)].Used)
}

func TestResolve_CooldownAndEnergyGate(t *testing.T) {
	w := newWorld(t,
		entity.Behavior{Condition: condTrue, Action: actRight},
		entity.Behavior{Condition: condTrue, Action: actLeft},
	)
	r := resolver()
	r.Resolve(w, 0)
	require.Equal(t, fixed.One, w.Characters[0].Vel.X)

	w.Frame = 1
	r.Resolve(w, 0)
	assert.Equal(t, fixed.NegOne, w.Characters[0].Vel.X, "right is cooling down")

	w.Frame = 3
	r.Resolve(w, 0)
	assert.Equal(t, fixed.One, w.Characters[0].Vel.X)

	w.Frame = 10
	w.Characters[0].Energy = fixed.Half
	r.Resolve(w, 0)
	assert.Equal(t, fixed.NegOne, w.Characters[0].Vel.X, "right is unaffordable")
}

func TestResolve_ConditionRegistersPersist(t *testing.T) {
	w := newWorld(t, entity.Behavior{Condition: condEveryThird, Action: actLeft})
	r := resolver()
	fired := 0
	for frame := uint16(0); frame < 9; frame++ {
		w.Frame = frame
		w.Characters[0].Vel.X = 0
		r.Resolve(w, 0)
		if w.Characters[0].Vel.X != 0 {
			fired++
		}
	}
	assert.Equal(t, 3, fired)
}

func TestResolve_ScriptFaultFallsThrough(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	r := behavior.NewResolver(script.NewMachine(0), zap.New(core))
	w := newWorld(t,
		entity.Behavior{Condition: condFault, Action: actRight},
		entity.Behavior{Condition: condTrue, Action: actLeft},
	)
	r.Resolve(w, 0)
	assert.Equal(t, fixed.NegOne, w.Characters[0].Vel.X)
	assert.Equal(t, uint8(0), w.Conditions[w.ConditionInstance(0, condFault)].Registers.Vars[0])
	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "script fault", entry.Message)
	assert.Contains(t, entry.ContextMap()["error"], script.ErrDivideByZero.Error())
	assert.Equal(t, "condition", entry.ContextMap()["kind"])
}

func TestResolve_DurationLockSkipsEvaluation(t *testing.T) {
	w := newWorld(t,
		entity.Behavior{Condition: condTrue, Action: actChannel},
	)
	r := resolver()
	r.Resolve(w, 0)
	require.NotNil(t, w.Characters[0].Locked)
	assert.Equal(t, uint16(2), w.Characters[0].Locked.Remaining)

	w.Frame = 1
	r.Resolve(w, 0)
	assert.Equal(t, uint16(1), w.Characters[0].Locked.Remaining)
	w.Frame = 2
	r.Resolve(w, 0)
	assert.Nil(t, w.Characters[0].Locked)

	w.Frame = 3
	r.Resolve(w, 0)
	assert.NotNil(t, w.Characters[0].Locked, "evaluation resumes after the lock")
}

func TestResolve_IndefiniteLockReruns(t *testing.T) {
	w := newWorld(t,
		entity.Behavior{Condition: condTrue, Action: actHold},
		entity.Behavior{Condition: condTrue, Action: actLeft},
	)
	r := resolver()
	r.Resolve(w, 0)
	require.NotNil(t, w.Characters[0].Locked)
	assert.True(t, w.Characters[0].Locked.Indefinite)

	r.Resolve(w, 0)
	assert.NotNil(t, w.Characters[0].Locked)
	assert.Equal(t, fixed.Zero, w.Characters[0].Vel.X, "behaviors are not evaluated while locked")

	r.Resolve(w, 0)
	assert.Nil(t, w.Characters[0].Locked)
	assert.Equal(t, uint8(3), w.Actions[w.ActionInstance(0, actHold)].Registers.Vars[0])
}

func TestResolve_ScriptPaidEnergyOnce(t *testing.T) {
	w := newWorld(t, entity.Behavior{Condition: condTrue, Action: actPrepaid})
	resolver().Resolve(w, 0)
	assert.Equal(t, fixed.FromInt(3), w.Characters[0].Energy)
}

func TestResolve_DeadCharacterIsSkipped(t *testing.T) {
	w := newWorld(t, entity.Behavior{Condition: condTrue, Action: actLeft})
	w.Characters[0].Health = 0
	resolver().Resolve(w, 0)
	assert.Equal(t, fixed.Zero, w.Characters[0].Vel.X)
	assert.Empty(t, w.Conditions)
}

package definition_test

import (
	"testing"

	"github.com/cory-johannsen/skirmish/internal/game/definition"
	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/script"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const setYAML = `
actions:
  - name: run
    script: |
      read f0 self.hdir
      read f1 self.move_speed
      mul f0 f0 f1
      write self.vx f0
      exit 1
    energy_cost: 1/2
    cooldown: 3
conditions:
  - name: always
    script: [0, 1]
spawns:
  - name: bolt
    size: {w: 2, h: 2}
    element: heat
    power: 3
status_effects:
  - name: burn
    duration: 5
    max_stacks: 3
    tick: "exit 0"
`

func loadSet(t *testing.T, src string) definition.Set {
	t.Helper()
	var s definition.Set
	require.NoError(t, yaml.Unmarshal([]byte(src), &s))
	return s
}

func TestUnmarshal_Set(t *testing.T) {
	s := loadSet(t, setYAML)
	require.NoError(t, s.Validate())

	run, ok := s.Action(0)
	require.True(t, ok)
	assert.Equal(t, "run", run.Name)
	assert.Equal(t, fixed.Half, run.EnergyCost)
	assert.Equal(t, uint16(3), run.Cooldown)
	assert.Equal(t, byte(script.OpRead), run.Script[0])

	cond, ok := s.Condition(0)
	require.True(t, ok)
	assert.Equal(t, definition.Code{0, 1}, cond.Script)

	bolt, ok := s.Spawn(0)
	require.True(t, ok)
	assert.Equal(t, entity.Heat, bolt.Element)
	assert.Equal(t, entity.GravityDefault, bolt.Gravity)
	assert.Equal(t, entity.Size{W: 2, H: 2}, bolt.Size)

	_, ok = s.StatusEffect(1)
	assert.False(t, ok)
}

func TestCode_MarshalRoundTrip(t *testing.T) {
	s := loadSet(t, setYAML)
	out, err := yaml.Marshal(s.Actions[0])
	require.NoError(t, err)
	var back definition.Action
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, s.Actions[0].Script, back.Script)
}

func TestValidate_AggregatesAndNamesOffenders(t *testing.T) {
	s := definition.Set{
		Actions: []definition.Action{
			{Name: "ok", Script: definition.Code{byte(script.OpExit), 1}},
			{Name: "dash", Script: definition.Code{0xEE}},
			{Name: "shoot", Script: definition.Code{byte(script.OpSpawn), 4}},
		},
		Spawns: []definition.Spawn{{Name: "blob", Size: entity.Size{}, Element: 9}},
	}
	err := s.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, definition.ErrInvalid)
	msg := err.Error()
	assert.Contains(t, msg, `action[1] "dash": script:`)
	assert.Contains(t, msg, `action[2] "shoot": script: unknown spawn 4`)
	assert.Contains(t, msg, `spawn[0] "blob": unknown element 9`)
	assert.Contains(t, msg, `spawn[0] "blob": size must be positive`)
	assert.NotContains(t, msg, `"ok"`)
}

func TestValidateCharacter(t *testing.T) {
	s := loadSet(t, setYAML)
	good := entity.Character{Behaviors: []entity.Behavior{{Condition: 0, Action: 0}}}
	assert.NoError(t, s.ValidateCharacter(&good))
	bad := entity.Character{Behaviors: []entity.Behavior{{Condition: 2, Action: 0}}}
	assert.ErrorIs(t, s.ValidateCharacter(&bad), definition.ErrInvalid)
}

func TestRegisters_SeededFromDefinition(t *testing.T) {
	sp := definition.Spawn{Vars: [8]uint8{1, 2}, FixedVars: [4]fixed.Fixed{fixed.One}}
	regs := sp.Registers()
	assert.Equal(t, uint8(2), regs.Vars[1])
	assert.Equal(t, fixed.One, regs.Fixed[0])
}

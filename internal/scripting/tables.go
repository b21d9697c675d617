package scripting

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/cory-johannsen/skirmish/internal/game/entity"
	"github.com/cory-johannsen/skirmish/internal/game/fixed"
	"github.com/cory-johannsen/skirmish/internal/game/sim"
)

// number converts a fixed-point value for display in Lua.
func number(f fixed.Fixed) lua.LNumber {
	return lua.LNumber(float64(f.Raw()) / float64(fixed.One.Raw()))
}

func coreFields(L *lua.LState, t *lua.LTable, c *entity.Core) {
	t.RawSetString("id", lua.LNumber(c.ID))
	t.RawSetString("group", lua.LNumber(c.Group))
	t.RawSetString("x", number(c.Pos.X))
	t.RawSetString("y", number(c.Pos.Y))
	t.RawSetString("vx", number(c.Vel.X))
	t.RawSetString("vy", number(c.Vel.Y))
	t.RawSetString("w", lua.LNumber(c.Size.W))
	t.RawSetString("h", lua.LNumber(c.Size.H))
	t.RawSetString("hdir", lua.LNumber(c.Horizontal.Sign()))
	t.RawSetString("vdir", lua.LNumber(c.Vertical.Sign()))
	t.RawSetString("grounded", lua.LBool(c.Grounded()))
	t.RawSetString("enmity", lua.LNumber(c.Enmity))
	if c.Target.Kind == entity.RefCharacter {
		t.RawSetString("target", lua.LNumber(c.Target.ID))
	}
}

func characterTable(L *lua.LState, c *entity.Character, name string) *lua.LTable {
	t := L.NewTable()
	coreFields(L, t, &c.Core)
	if name != "" {
		t.RawSetString("name", lua.LString(name))
	}
	t.RawSetString("alive", lua.LBool(c.Alive()))
	t.RawSetString("health", number(c.Health))
	t.RawSetString("health_cap", number(c.HealthCap))
	t.RawSetString("energy", number(c.Energy))
	t.RawSetString("energy_cap", number(c.EnergyCap))
	t.RawSetString("power", number(c.Power))
	t.RawSetString("locked", lua.LBool(c.Locked != nil))

	armor := L.NewTable()
	for e := entity.Element(0); e < entity.NumElements; e++ {
		armor.RawSetString(e.String(), lua.LNumber(c.Armor[e]))
	}
	t.RawSetString("armor", armor)

	statuses := L.NewTable()
	for _, id := range c.StatusEffects {
		statuses.Append(lua.LNumber(id))
	}
	t.RawSetString("status_effects", statuses)
	return t
}

// snapshotTable builds a fresh Lua table describing snap. Character lists
// are 1-based; ids keep their 0-based game values.
func snapshotTable(L *lua.LState, snap *sim.Snapshot, names []string) *lua.LTable {
	t := L.NewTable()
	t.RawSetString("frame", lua.LNumber(snap.Frame))
	t.RawSetString("over", lua.LBool(snap.Over))

	chars := L.NewTable()
	for i := range snap.Characters {
		var name string
		if i < len(names) {
			name = names[i]
		}
		chars.Append(characterTable(L, &snap.Characters[i], name))
	}
	t.RawSetString("characters", chars)

	spawns := L.NewTable()
	for i := range snap.Spawns {
		s := &snap.Spawns[i]
		st := L.NewTable()
		coreFields(L, st, &s.Core)
		st.RawSetString("slot", lua.LNumber(s.Slot))
		st.RawSetString("def", lua.LNumber(s.Def))
		st.RawSetString("owner", lua.LNumber(s.Owner))
		st.RawSetString("life", lua.LNumber(s.Life))
		spawns.Append(st)
	}
	t.RawSetString("spawns", spawns)

	statuses := L.NewTable()
	for i := range snap.StatusEffects {
		s := &snap.StatusEffects[i]
		st := L.NewTable()
		st.RawSetString("slot", lua.LNumber(s.Slot))
		st.RawSetString("def", lua.LNumber(s.Def))
		st.RawSetString("owner", lua.LNumber(s.Owner))
		st.RawSetString("life", lua.LNumber(s.Life))
		st.RawSetString("stacks", lua.LNumber(s.Stacks))
		statuses.Append(st)
	}
	t.RawSetString("status_effects", statuses)
	return t
}

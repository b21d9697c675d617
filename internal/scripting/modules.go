package scripting

import (
	"fmt"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// RegisterModules registers the skirmish.* Lua table into L.
//
// Precondition: L must be from NewSandboxedState.
// Postcondition: the skirmish global is defined in L.
func (s *Scenario) RegisterModules(L *lua.LState) {
	mod := L.NewTable()
	L.SetFuncs(mod, map[string]lua.LGFunction{
		"fail":   s.luaFail,
		"check":  s.luaCheck,
		"log":    s.luaLog,
		"find":   luaFind,
		"living": luaLiving,
	})
	L.SetGlobal("skirmish", mod)
}

// skirmish.fail(msg) records a failed expectation.
func (s *Scenario) luaFail(L *lua.LState) int {
	s.failf("%s", L.CheckString(1))
	return 0
}

// skirmish.check(cond, msg) records msg when cond is falsy and returns cond.
func (s *Scenario) luaCheck(L *lua.LState) int {
	ok := lua.LVAsBool(L.Get(1))
	if !ok {
		s.failf("%s", L.OptString(2, "check failed"))
	}
	L.Push(lua.LBool(ok))
	return 1
}

// skirmish.log(msg, ...) formats with string.format rules and logs at Info.
func (s *Scenario) luaLog(L *lua.LState) int {
	msg := L.CheckString(1)
	if L.GetTop() > 1 {
		args := make([]any, 0, L.GetTop()-1)
		for i := 2; i <= L.GetTop(); i++ {
			args = append(args, L.Get(i).String())
		}
		msg = fmt.Sprintf(msg, args...)
	}
	s.logger.Info("scenario", zap.String("script", s.name), zap.Uint16("frame", s.frame), zap.String("msg", msg))
	return 0
}

// skirmish.find(snap, name) returns the character table called name or nil.
func luaFind(L *lua.LState) int {
	snap := L.CheckTable(1)
	name := L.CheckString(2)
	chars, ok := snap.RawGetString("characters").(*lua.LTable)
	if !ok {
		L.Push(lua.LNil)
		return 1
	}
	var found lua.LValue = lua.LNil
	chars.ForEach(func(_, v lua.LValue) {
		if c, ok := v.(*lua.LTable); ok && found == lua.LNil && c.RawGetString("name").String() == name {
			found = c
		}
	})
	L.Push(found)
	return 1
}

// skirmish.living(snap) returns the number of living characters.
func luaLiving(L *lua.LState) int {
	snap := L.CheckTable(1)
	n := 0
	if chars, ok := snap.RawGetString("characters").(*lua.LTable); ok {
		chars.ForEach(func(_, v lua.LValue) {
			if c, ok := v.(*lua.LTable); ok && lua.LVAsBool(c.RawGetString("alive")) {
				n++
			}
		})
	}
	L.Push(lua.LNumber(n))
	return 1
}

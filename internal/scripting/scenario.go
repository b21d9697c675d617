package scripting

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/cory-johannsen/skirmish/internal/game/sim"
	"github.com/cory-johannsen/skirmish/internal/runner"
)

// Hook names looked up as Lua globals.
const (
	HookFrame = "on_frame"
	HookEnd   = "on_end"
)

// ErrFailed is wrapped by the error Finish returns when any expectation failed.
var ErrFailed = errors.New("scenario failed")

// Scenario runs one Lua script as a game observer. on_frame(snap) is called
// after every frame and may return true to stop the run; on_end(snap) is
// called once with the final state.
//
// A Scenario is not safe for concurrent use.
type Scenario struct {
	L        *lua.LState
	name     string
	limit    int
	names    []string
	logger   *zap.Logger
	frame    uint16
	failures []string
}

// NewScenario loads src under a sandboxed VM. names labels characters by id
// in the snapshot tables and may be nil.
//
// Precondition: instLimit >= 0; 0 uses DefaultInstructionLimit.
// Postcondition: Returns an error when the chunk fails to compile or its top
// level raises an error. A nil logger is replaced by a no-op logger.
func NewScenario(name, src string, names []string, instLimit int, logger *zap.Logger) (*Scenario, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Scenario{
		L:      NewSandboxedState(),
		name:   name,
		limit:  instLimit,
		names:  names,
		logger: logger,
	}
	s.RegisterModules(s.L)

	release := limit(s.L, s.limit)
	err := s.L.DoString(src)
	release()
	if err != nil {
		s.L.Close()
		return nil, fmt.Errorf("scripting: loading %q: %w", name, err)
	}
	return s, nil
}

// LoadScenarioFile reads path and calls NewScenario with its base name.
func LoadScenarioFile(path string, names []string, instLimit int, logger *zap.Logger) (*Scenario, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("scripting: reading %q: %w", path, err)
	}
	return NewScenario(filepath.Base(path), string(src), names, instLimit, logger)
}

// Close releases the Lua VM.
func (s *Scenario) Close() {
	s.L.Close()
}

// Observe implements runner.Observer by calling on_frame.
//
// Postcondition: Returns runner.ErrStop when the hook returned a truthy value.
// Lua errors are recorded as failures and never returned.
func (s *Scenario) Observe(snap sim.Snapshot) error {
	s.frame = snap.Frame
	ret, ok := s.call(HookFrame, &snap)
	if ok && lua.LVAsBool(ret) {
		return runner.ErrStop
	}
	return nil
}

// Finish implements runner.Finisher by calling on_end.
//
// Postcondition: Returns an error wrapping ErrFailed listing every recorded
// failure, or nil.
func (s *Scenario) Finish(snap sim.Snapshot) error {
	s.frame = snap.Frame
	s.call(HookEnd, &snap)
	if len(s.failures) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s: %s", ErrFailed, s.name, strings.Join(s.failures, "; "))
}

// Failures returns the messages recorded so far.
func (s *Scenario) Failures() []string {
	return s.failures
}

func (s *Scenario) failf(format string, args ...any) {
	msg := fmt.Sprintf("frame %d: ", s.frame) + fmt.Sprintf(format, args...)
	s.failures = append(s.failures, msg)
}

// call invokes hook with a fresh snapshot table. Returns false when the hook
// is undefined or raised an error.
func (s *Scenario) call(hook string, snap *sim.Snapshot) (lua.LValue, bool) {
	fn, ok := s.L.GetGlobal(hook).(*lua.LFunction)
	if !ok {
		return lua.LNil, false
	}

	release := limit(s.L, s.limit)
	defer release()
	if err := s.L.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, snapshotTable(s.L, snap, s.names)); err != nil {
		s.logger.Warn("scripting: Lua runtime error",
			zap.String("script", s.name),
			zap.String("hook", hook),
			zap.Uint16("frame", snap.Frame),
			zap.Error(err),
		)
		s.failf("%s: %v", hook, err)
		return lua.LNil, false
	}

	ret := s.L.Get(-1)
	s.L.Pop(1)
	return ret, true
}

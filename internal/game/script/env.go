// Package script implements the bytecode virtual machine that drives
// character behaviors, spawns and status effects.
//
// A script is a flat byte slice of variable-length instructions. Scripts
// operate on a Registers file and reach the rest of the world only through
// an Env, which decides which properties and side effects are available to
// the script category being executed.
package script

import (
	"errors"

	"github.com/cory-johannsen/skirmish/internal/game/fixed"
)

// Execution errors. Callers recover from all of them by discarding the
// invocation.
var (
	ErrUnknownOpcode    = errors.New("script: unknown opcode")
	ErrTruncated        = errors.New("script: truncated instruction")
	ErrBadVariable      = errors.New("script: variable index out of range")
	ErrBadAddress       = errors.New("script: undefined property address")
	ErrDivideByZero     = errors.New("script: division by zero")
	ErrInstructionLimit = errors.New("script: instruction limit exceeded")
	ErrUnsupported      = errors.New("script: operation unsupported in this context")
	ErrJumpOutOfRange   = errors.New("script: jump target out of range")
	ErrTooLong          = errors.New("script: exceeds maximum length")
)

// Registers is the scratch state a script instance keeps between runs.
type Registers struct {
	Vars  [NumVars]uint8            `yaml:"vars"`
	Fixed [NumFixedVars]fixed.Fixed `yaml:"fixed"`
}

// SpawnSeed initialises the first registers of a spawned instance.
type SpawnSeed struct {
	Var   uint8
	Fixed fixed.Fixed
}

// Env is the capability set a script executes against.
//
// Property access never fails: unsupported scopes and missing entities read
// as zero and ignore writes. Side-effect methods return ErrUnsupported when
// the script category does not provide them.
type Env interface {
	// Load reads the property at a relative to the executing context.
	Load(a Address) Value
	// Store writes the property at a relative to the executing context.
	Store(a Address, v Value)
	// LoadOf reads a character-scoped property of the character with id.
	LoadOf(id uint8, a Address) Value
	// StoreOf writes a character-scoped property of the character with id.
	StoreOf(id uint8, a Address, v Value)

	RandByte() uint8
	RandFixed() fixed.Fixed

	// HasEnergy reports whether the executor can pay the current action's cost.
	HasEnergy() (bool, error)
	// OnCooldown reports whether the current action is cooling down.
	OnCooldown() (bool, error)
	// Grounded reports whether the executor rests against gravity.
	Grounded() bool
	// Cooldown returns the remaining cooldown frames of the current action.
	Cooldown() (fixed.Fixed, error)
	ResetCooldown() error
	Arg(i int) (uint8, error)
	FixedArg(i int) (fixed.Fixed, error)

	Lock() error
	Unlock() error
	ApplyEnergyCost() error
	ApplyDuration() error
	Spawn(def uint8, seed *SpawnSeed) error
	ApplyStatus(def uint8, who uint8) error
	Damage(amount fixed.Fixed, element uint8, who uint8) error
	Despawn() error
}

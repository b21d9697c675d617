package script

import (
	"fmt"

	"github.com/cory-johannsen/skirmish/internal/game/fixed"
)

// Outcome is the result of a completed script run.
type Outcome struct {
	Code uint8
}

// Truthy reports whether the script exited with a non-zero code.
func (o Outcome) Truthy() bool { return o.Code != 0 }

// Machine executes scripts.
//
// A Machine holds no per-run state and may be shared by sequential callers.
type Machine struct {
	// Limit is the maximum number of instructions per run.
	Limit int
}

// NewMachine returns a Machine with the given instruction limit.
//
// Postcondition: a non-positive limit selects DefaultLimit.
func NewMachine(limit int) *Machine {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Machine{Limit: limit}
}

// Execute runs code against regs and env.
//
// Precondition: regs is a scratch copy owned by the caller; it is mutated in
// place and the caller persists it only when err is nil.
// Postcondition: never panics. Running off the end of code exits with 0.
func (m *Machine) Execute(code []byte, regs *Registers, env Env) (Outcome, error) {
	if len(code) > MaxScriptLength {
		return Outcome{}, ErrTooLong
	}
	limit := m.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}
	r := runner{code: code, regs: regs, env: env}
	for steps := 0; ; steps++ {
		if r.pc >= len(code) {
			return Outcome{}, nil
		}
		if steps >= limit {
			return Outcome{}, ErrInstructionLimit
		}
		out, done, err := r.step()
		if err != nil {
			return Outcome{}, fmt.Errorf("at %d: %w", r.at, err)
		}
		if done {
			return out, nil
		}
	}
}

type runner struct {
	code []byte
	regs *Registers
	env  Env
	pc   int
	at   int
}

func (r *runner) next() (byte, error) {
	if r.pc >= len(r.code) {
		return 0, ErrTruncated
	}
	b := r.code[r.pc]
	r.pc++
	return b, nil
}

func (r *runner) byteVar() (*uint8, error) {
	i, err := r.next()
	if err != nil {
		return nil, err
	}
	if int(i) >= NumVars {
		return nil, ErrBadVariable
	}
	return &r.regs.Vars[i], nil
}

func (r *runner) fixedVar() (*fixed.Fixed, error) {
	i, err := r.next()
	if err != nil {
		return nil, err
	}
	if int(i) >= NumFixedVars {
		return nil, ErrBadVariable
	}
	return &r.regs.Fixed[i], nil
}

// fixedVars decodes n fixed variable operands.
func (r *runner) fixedVars(n int) ([]*fixed.Fixed, error) {
	out := make([]*fixed.Fixed, n)
	for i := range out {
		v, err := r.fixedVar()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *runner) byteVars(n int) ([]*uint8, error) {
	out := make([]*uint8, n)
	for i := range out {
		v, err := r.byteVar()
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (r *runner) address(charScoped bool) (Address, Property, error) {
	b, err := r.next()
	if err != nil {
		return 0, Property{}, err
	}
	a := Address(b)
	p, ok := Lookup(a)
	if !ok || (charScoped && !a.CharacterScoped()) {
		return 0, Property{}, ErrBadAddress
	}
	return a, p, nil
}

// load stores v into the variable selected by the next operand, whose
// register file is chosen by kind.
func (r *runner) load(kind Kind, v Value) error {
	if kind == KindFixed {
		dst, err := r.fixedVar()
		if err != nil {
			return err
		}
		*dst = v.Fixed
		return nil
	}
	dst, err := r.byteVar()
	if err != nil {
		return err
	}
	*dst = v.Byte
	return nil
}

func (r *runner) value(kind Kind) (Value, error) {
	if kind == KindFixed {
		src, err := r.fixedVar()
		if err != nil {
			return Value{}, err
		}
		return FixedValue(*src), nil
	}
	src, err := r.byteVar()
	if err != nil {
		return Value{}, err
	}
	return ByteValue(*src), nil
}

func (r *runner) jump(target int) error {
	if target < 0 || target > len(r.code) {
		return ErrJumpOutOfRange
	}
	r.pc = target
	return nil
}

func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// step decodes and executes one instruction.
func (r *runner) step() (Outcome, bool, error) {
	r.at = r.pc
	b, _ := r.next()
	op := Opcode(b)
	if !op.Known() {
		return Outcome{}, false, fmt.Errorf("%w 0x%02x", ErrUnknownOpcode, b)
	}
	if r.at+op.Len() > len(r.code) {
		return Outcome{}, false, ErrTruncated
	}

	switch op {
	case OpExit:
		code, _ := r.next()
		return Outcome{Code: code}, true, nil
	case OpExitVar:
		v, err := r.byteVar()
		if err != nil {
			return Outcome{}, false, err
		}
		return Outcome{Code: *v}, true, nil
	case OpExitIfNoEnergy, OpExitIfCooldown, OpExitIfNotGrounded:
		code, _ := r.next()
		var exit bool
		switch op {
		case OpExitIfNoEnergy:
			ok, err := r.env.HasEnergy()
			if err != nil {
				return Outcome{}, false, err
			}
			exit = !ok
		case OpExitIfCooldown:
			cooling, err := r.env.OnCooldown()
			if err != nil {
				return Outcome{}, false, err
			}
			exit = cooling
		default:
			exit = !r.env.Grounded()
		}
		if exit {
			return Outcome{Code: code}, true, nil
		}
	case OpExitIf:
		v, err := r.byteVar()
		if err != nil {
			return Outcome{}, false, err
		}
		code, _ := r.next()
		if *v != 0 {
			return Outcome{Code: code}, true, nil
		}
	case OpSkip:
		n, _ := r.next()
		return Outcome{}, false, r.jump(r.pc + int(n))
	case OpSkipIf:
		v, err := r.byteVar()
		if err != nil {
			return Outcome{}, false, err
		}
		n, _ := r.next()
		if *v != 0 {
			return Outcome{}, false, r.jump(r.pc + int(n))
		}
	case OpGoto:
		t, _ := r.next()
		return Outcome{}, false, r.jump(int(t))
	case OpNop:

	case OpRead:
		// The destination register file depends on the address, which
		// follows it; decode the address first.
		a, p, err := r.peekAddress(1)
		if err != nil {
			return Outcome{}, false, err
		}
		if err := r.load(p.Kind, r.env.Load(a)); err != nil {
			return Outcome{}, false, err
		}
		r.pc++
	case OpWrite:
		a, p, err := r.address(false)
		if err != nil {
			return Outcome{}, false, err
		}
		v, err := r.value(p.Kind)
		if err != nil {
			return Outcome{}, false, err
		}
		if !p.ReadOnly {
			r.env.Store(a, v)
		}
	case OpReadOf:
		a, p, err := r.peekAddress(1)
		if err != nil {
			return Outcome{}, false, err
		}
		if !a.CharacterScoped() {
			return Outcome{}, false, ErrBadAddress
		}
		idVar := int(r.code[r.pc+2])
		if idVar >= NumVars {
			return Outcome{}, false, ErrBadVariable
		}
		id := r.regs.Vars[idVar]
		if err := r.load(p.Kind, r.env.LoadOf(id, a)); err != nil {
			return Outcome{}, false, err
		}
		r.pc += 2
	case OpWriteOf:
		a, p, err := r.address(true)
		if err != nil {
			return Outcome{}, false, err
		}
		idVar, err := r.byteVar()
		if err != nil {
			return Outcome{}, false, err
		}
		v, err := r.value(p.Kind)
		if err != nil {
			return Outcome{}, false, err
		}
		if !p.ReadOnly {
			r.env.StoreOf(*idVar, a, v)
		}

	case OpSetByte:
		dst, err := r.byteVar()
		if err != nil {
			return Outcome{}, false, err
		}
		*dst, _ = r.next()
	case OpSetFixed:
		dst, err := r.fixedVar()
		if err != nil {
			return Outcome{}, false, err
		}
		hi, _ := r.next()
		lo, _ := r.next()
		*dst = fixed.FromRaw(int16(uint16(hi)<<8 | uint16(lo)))
	case OpRandByte:
		dst, err := r.byteVar()
		if err != nil {
			return Outcome{}, false, err
		}
		*dst = r.env.RandByte()
	case OpRandFixed:
		dst, err := r.fixedVar()
		if err != nil {
			return Outcome{}, false, err
		}
		*dst = r.env.RandFixed()
	case OpToFixed:
		dst, err := r.fixedVar()
		if err != nil {
			return Outcome{}, false, err
		}
		src, err := r.byteVar()
		if err != nil {
			return Outcome{}, false, err
		}
		*dst = fixed.FromInt(int(*src))
	case OpToByte:
		dst, err := r.byteVar()
		if err != nil {
			return Outcome{}, false, err
		}
		src, err := r.fixedVar()
		if err != nil {
			return Outcome{}, false, err
		}
		*dst = uint8(max(0, min(255, src.Int())))
	case OpCopyByte:
		v, err := r.byteVars(2)
		if err != nil {
			return Outcome{}, false, err
		}
		*v[0] = *v[1]
	case OpCopyFixed:
		v, err := r.fixedVars(2)
		if err != nil {
			return Outcome{}, false, err
		}
		*v[0] = *v[1]

	case OpAdd, OpSub, OpMul, OpDiv, OpMin, OpMax:
		v, err := r.fixedVars(3)
		if err != nil {
			return Outcome{}, false, err
		}
		a, b := *v[1], *v[2]
		switch op {
		case OpAdd:
			*v[0] = a.Add(b)
		case OpSub:
			*v[0] = a.Sub(b)
		case OpMul:
			*v[0] = a.Mul(b)
		case OpDiv:
			q, ok := a.CheckedDiv(b)
			if !ok {
				return Outcome{}, false, ErrDivideByZero
			}
			*v[0] = q
		case OpMin:
			*v[0] = fixed.MinOf(a, b)
		default:
			*v[0] = fixed.MaxOf(a, b)
		}
	case OpNeg, OpAbs:
		v, err := r.fixedVars(2)
		if err != nil {
			return Outcome{}, false, err
		}
		if op == OpNeg {
			*v[0] = v[1].Neg()
		} else {
			*v[0] = v[1].Abs()
		}
	case OpAddByte, OpSubByte, OpMulByte, OpDivByte, OpMinByte, OpMaxByte,
		OpEqByte, OpLtByte, OpAnd, OpOr:
		v, err := r.byteVars(3)
		if err != nil {
			return Outcome{}, false, err
		}
		a, b := *v[1], *v[2]
		switch op {
		case OpAddByte:
			*v[0] = a + b
		case OpSubByte:
			*v[0] = a - b
		case OpMulByte:
			*v[0] = a * b
		case OpDivByte:
			if b == 0 {
				return Outcome{}, false, ErrDivideByZero
			}
			*v[0] = a / b
		case OpMinByte:
			*v[0] = min(a, b)
		case OpMaxByte:
			*v[0] = max(a, b)
		case OpEqByte:
			*v[0] = boolByte(a == b)
		case OpLtByte:
			*v[0] = boolByte(a < b)
		case OpAnd:
			*v[0] = boolByte(a != 0 && b != 0)
		default:
			*v[0] = boolByte(a != 0 || b != 0)
		}
	case OpEq, OpLt, OpLe:
		dst, err := r.byteVar()
		if err != nil {
			return Outcome{}, false, err
		}
		v, err := r.fixedVars(2)
		if err != nil {
			return Outcome{}, false, err
		}
		a, b := *v[0], *v[1]
		switch op {
		case OpEq:
			*dst = boolByte(a == b)
		case OpLt:
			*dst = boolByte(a < b)
		default:
			*dst = boolByte(a <= b)
		}
	case OpNot:
		v, err := r.byteVars(2)
		if err != nil {
			return Outcome{}, false, err
		}
		*v[0] = boolByte(*v[1] == 0)

	case OpSin, OpCos:
		v, err := r.fixedVars(2)
		if err != nil {
			return Outcome{}, false, err
		}
		if op == OpSin {
			*v[0] = fixed.Sin(v[1].Int())
		} else {
			*v[0] = fixed.Cos(v[1].Int())
		}
	case OpAtan2:
		v, err := r.fixedVars(3)
		if err != nil {
			return Outcome{}, false, err
		}
		*v[0] = fixed.FromInt(fixed.Atan2(*v[1], *v[2]))

	case OpLock:
		return Outcome{}, false, r.env.Lock()
	case OpUnlock:
		return Outcome{}, false, r.env.Unlock()
	case OpApplyEnergyCost:
		return Outcome{}, false, r.env.ApplyEnergyCost()
	case OpApplyDuration:
		return Outcome{}, false, r.env.ApplyDuration()
	case OpSpawn:
		def, _ := r.next()
		return Outcome{}, false, r.env.Spawn(def, nil)
	case OpSpawnArgs:
		def, _ := r.next()
		bv, err := r.byteVar()
		if err != nil {
			return Outcome{}, false, err
		}
		fv, err := r.fixedVar()
		if err != nil {
			return Outcome{}, false, err
		}
		return Outcome{}, false, r.env.Spawn(def, &SpawnSeed{Var: *bv, Fixed: *fv})
	case OpApplyStatus:
		def, _ := r.next()
		who, _ := r.next()
		if who > WhoTarget {
			return Outcome{}, false, fmt.Errorf("%w: who %d", ErrUnsupported, who)
		}
		return Outcome{}, false, r.env.ApplyStatus(def, who)
	case OpDamage:
		amount, err := r.fixedVar()
		if err != nil {
			return Outcome{}, false, err
		}
		element, _ := r.next()
		who, _ := r.next()
		if int(element) >= NumElements || who > WhoTarget {
			return Outcome{}, false, fmt.Errorf("%w: element %d who %d", ErrUnsupported, element, who)
		}
		return Outcome{}, false, r.env.Damage(*amount, element, who)
	case OpDespawn:
		return Outcome{}, false, r.env.Despawn()

	case OpCooldown:
		dst, err := r.fixedVar()
		if err != nil {
			return Outcome{}, false, err
		}
		cd, err := r.env.Cooldown()
		if err != nil {
			return Outcome{}, false, err
		}
		*dst = cd
	case OpResetCooldown:
		return Outcome{}, false, r.env.ResetCooldown()
	case OpArg:
		dst, err := r.byteVar()
		if err != nil {
			return Outcome{}, false, err
		}
		i, _ := r.next()
		if int(i) >= NumArgs {
			return Outcome{}, false, ErrBadVariable
		}
		v, err := r.env.Arg(int(i))
		if err != nil {
			return Outcome{}, false, err
		}
		*dst = v
	case OpFixedArg:
		dst, err := r.fixedVar()
		if err != nil {
			return Outcome{}, false, err
		}
		i, _ := r.next()
		if int(i) >= NumArgs {
			return Outcome{}, false, ErrBadVariable
		}
		v, err := r.env.FixedArg(int(i))
		if err != nil {
			return Outcome{}, false, err
		}
		*dst = v
	}
	return Outcome{}, false, nil
}

// peekAddress decodes the address operand at offset off past the current
// pc without consuming it.
func (r *runner) peekAddress(off int) (Address, Property, error) {
	a := Address(r.code[r.pc+off])
	p, ok := Lookup(a)
	if !ok {
		return 0, Property{}, ErrBadAddress
	}
	return a, p, nil
}

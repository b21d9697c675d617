package script

import (
	"errors"
	"fmt"
)

// Instruction is one decoded instruction.
type Instruction struct {
	Offset   int
	Op       Opcode
	Operands []byte
}

// Decode splits code into instructions without checking operand values.
//
// Postcondition: returns ErrUnknownOpcode or ErrTruncated at the first
// offending offset.
func Decode(code []byte) ([]Instruction, error) {
	var out []Instruction
	for pc := 0; pc < len(code); {
		op := Opcode(code[pc])
		if !op.Known() {
			return out, fmt.Errorf("at %d: %w 0x%02x", pc, ErrUnknownOpcode, code[pc])
		}
		n := op.Len()
		if pc+n > len(code) {
			return out, fmt.Errorf("at %d: %s: %w", pc, op, ErrTruncated)
		}
		out = append(out, Instruction{Offset: pc, Op: op, Operands: code[pc+1 : pc+n]})
		pc += n
	}
	return out, nil
}

// Next returns the offset of the instruction following in.
func (in Instruction) Next() int { return in.Offset + 1 + len(in.Operands) }

// Target returns the jump destination of a goto, skip or skipif.
func (in Instruction) Target() (int, bool) {
	switch in.Op {
	case OpGoto:
		return int(in.Operands[0]), true
	case OpSkip:
		return in.Next() + int(in.Operands[0]), true
	case OpSkipIf:
		return in.Next() + int(in.Operands[1]), true
	}
	return 0, false
}

// ErrReadOnly marks a static write to a read-only property.
var ErrReadOnly = errors.New("script: property is read-only")

// Validate statically checks code: known opcodes, complete operands,
// variable and argument indices, defined property addresses, writable
// write targets, and jump targets that land on instruction boundaries or
// the end of the script.
func Validate(code []byte) error {
	if len(code) > MaxScriptLength {
		return fmt.Errorf("%w: %d bytes", ErrTooLong, len(code))
	}
	ins, err := Decode(code)
	if err != nil {
		return err
	}
	boundary := make(map[int]bool, len(ins)+1)
	for _, in := range ins {
		boundary[in.Offset] = true
	}
	boundary[len(code)] = true

	for _, in := range ins {
		if err := checkOperands(in); err != nil {
			return fmt.Errorf("at %d: %s: %w", in.Offset, in.Op, err)
		}
		if t, ok := in.Target(); ok && !boundary[t] {
			return fmt.Errorf("at %d: %s: %w: %d", in.Offset, in.Op, ErrJumpOutOfRange, t)
		}
	}
	return nil
}

// addressKind returns the kind of the instruction's address operand.
func addressKind(in Instruction) (Kind, error) {
	info := opTable[in.Op]
	for i, o := range info.operands {
		if o == opAddress || o == opCharAddr {
			p, ok := Lookup(Address(in.Operands[i]))
			if !ok {
				return 0, fmt.Errorf("%w: 0x%02x", ErrBadAddress, in.Operands[i])
			}
			return p.Kind, nil
		}
	}
	return KindByte, nil
}

func checkOperands(in Instruction) error {
	info := opTable[in.Op]
	kind, err := addressKind(in)
	if err != nil {
		return err
	}
	i := 0
	for _, o := range info.operands {
		b := in.Operands[i]
		switch o {
		case opByteVar:
			if int(b) >= NumVars {
				return fmt.Errorf("%w: b%d", ErrBadVariable, b)
			}
		case opFixedVar:
			if int(b) >= NumFixedVars {
				return fmt.Errorf("%w: f%d", ErrBadVariable, b)
			}
		case opValueVar:
			if (kind == KindFixed && int(b) >= NumFixedVars) || int(b) >= NumVars {
				return fmt.Errorf("%w: %d", ErrBadVariable, b)
			}
		case opAddress, opCharAddr:
			a := Address(b)
			if o == opCharAddr && !a.CharacterScoped() {
				return fmt.Errorf("%w: %s is not character-scoped", ErrBadAddress, a)
			}
			p, _ := Lookup(a)
			if p.ReadOnly && (in.Op == OpWrite || in.Op == OpWriteOf) {
				return fmt.Errorf("%w: %s", ErrReadOnly, a)
			}
		case opWho:
			if b > WhoTarget {
				return fmt.Errorf("%w: who %d", ErrUnsupported, b)
			}
		case opElement:
			if int(b) >= NumElements {
				return fmt.Errorf("%w: element %d", ErrUnsupported, b)
			}
		case opArgIndex:
			if int(b) >= NumArgs {
				return fmt.Errorf("%w: arg %d", ErrBadVariable, b)
			}
		}
		i += o.width()
	}
	return nil
}

// References returns the spawn and status-effect definition ids code refers
// to, so configuration loading can check them against the definition set.
func References(code []byte) (spawns, statuses []uint8) {
	ins, _ := Decode(code)
	for _, in := range ins {
		switch in.Op {
		case OpSpawn, OpSpawnArgs:
			spawns = append(spawns, in.Operands[0])
		case OpApplyStatus:
			statuses = append(statuses, in.Operands[0])
		}
	}
	return spawns, statuses
}

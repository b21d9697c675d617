package script

// Opcode is the first byte of every instruction.
type Opcode uint8

// Control flow.
const (
	OpExit              Opcode = 0x00
	OpExitVar           Opcode = 0x01
	OpExitIfNoEnergy    Opcode = 0x02
	OpExitIfCooldown    Opcode = 0x03
	OpExitIfNotGrounded Opcode = 0x04
	OpExitIf            Opcode = 0x05
	OpSkip              Opcode = 0x06
	OpSkipIf            Opcode = 0x07
	OpGoto              Opcode = 0x08
	OpNop               Opcode = 0x09
)

// Property access.
const (
	OpRead    Opcode = 0x10
	OpWrite   Opcode = 0x11
	OpReadOf  Opcode = 0x12
	OpWriteOf Opcode = 0x13
)

// Assignment and conversion.
const (
	OpSetByte   Opcode = 0x20
	OpSetFixed  Opcode = 0x21
	OpRandByte  Opcode = 0x22
	OpRandFixed Opcode = 0x23
	OpToFixed   Opcode = 0x24
	OpToByte    Opcode = 0x25
	OpCopyByte  Opcode = 0x26
	OpCopyFixed Opcode = 0x27
)

// Arithmetic.
const (
	OpAdd     Opcode = 0x30
	OpSub     Opcode = 0x31
	OpMul     Opcode = 0x32
	OpDiv     Opcode = 0x33
	OpNeg     Opcode = 0x34
	OpAbs     Opcode = 0x35
	OpMin     Opcode = 0x36
	OpMax     Opcode = 0x37
	OpAddByte Opcode = 0x38
	OpSubByte Opcode = 0x39
	OpMulByte Opcode = 0x3A
	OpDivByte Opcode = 0x3B
	OpMinByte Opcode = 0x3C
	OpMaxByte Opcode = 0x3D
)

// Comparison and logic.
const (
	OpEq     Opcode = 0x40
	OpLt     Opcode = 0x41
	OpLe     Opcode = 0x42
	OpEqByte Opcode = 0x43
	OpLtByte Opcode = 0x44
	OpNot    Opcode = 0x45
	OpAnd    Opcode = 0x46
	OpOr     Opcode = 0x47
)

// Trigonometry.
const (
	OpSin   Opcode = 0x50
	OpCos   Opcode = 0x51
	OpAtan2 Opcode = 0x52
)

// Lifecycle side effects.
const (
	OpLock            Opcode = 0x60
	OpUnlock          Opcode = 0x61
	OpApplyEnergyCost Opcode = 0x62
	OpApplyDuration   Opcode = 0x63
	OpSpawn           Opcode = 0x64
	OpSpawnArgs       Opcode = 0x65
	OpApplyStatus     Opcode = 0x66
	OpDamage          Opcode = 0x67
	OpDespawn         Opcode = 0x68
)

// Accessors.
const (
	OpCooldown      Opcode = 0x70
	OpResetCooldown Opcode = 0x71
	OpArg           Opcode = 0x72
	OpFixedArg      Opcode = 0x73
)

// operand describes how one operand byte (or pair) is interpreted.
type operand uint8

const (
	opLiteral  operand = iota // any byte
	opByteVar                 // Vars index
	opFixedVar                // Fixed index
	opValueVar                // Vars or Fixed index depending on the address operand
	opAddress                 // any defined property address
	opCharAddr                // character-scoped property address
	opSkip                    // relative forward offset
	opTarget                  // absolute instruction offset
	opFixedLit                // two bytes, big-endian raw Fixed
	opDef                     // definition id
	opWho                     // 0 executor, 1 target
	opElement                 // damage element
	opArgIndex                // definition argument index
)

func (o operand) width() int {
	if o == opFixedLit {
		return 2
	}
	return 1
}

type opInfo struct {
	name     string
	operands []operand
}

var opTable = map[Opcode]opInfo{
	OpExit:              {"exit", []operand{opLiteral}},
	OpExitVar:           {"exitvar", []operand{opByteVar}},
	OpExitIfNoEnergy:    {"exitifnoenergy", []operand{opLiteral}},
	OpExitIfCooldown:    {"exitifcooldown", []operand{opLiteral}},
	OpExitIfNotGrounded: {"exitifnotgrounded", []operand{opLiteral}},
	OpExitIf:            {"exitif", []operand{opByteVar, opLiteral}},
	OpSkip:              {"skip", []operand{opSkip}},
	OpSkipIf:            {"skipif", []operand{opByteVar, opSkip}},
	OpGoto:              {"goto", []operand{opTarget}},
	OpNop:               {"nop", nil},

	OpRead:    {"read", []operand{opValueVar, opAddress}},
	OpWrite:   {"write", []operand{opAddress, opValueVar}},
	OpReadOf:  {"readof", []operand{opValueVar, opCharAddr, opByteVar}},
	OpWriteOf: {"writeof", []operand{opCharAddr, opByteVar, opValueVar}},

	OpSetByte:   {"setbyte", []operand{opByteVar, opLiteral}},
	OpSetFixed:  {"setfixed", []operand{opFixedVar, opFixedLit}},
	OpRandByte:  {"randbyte", []operand{opByteVar}},
	OpRandFixed: {"randfixed", []operand{opFixedVar}},
	OpToFixed:   {"tofixed", []operand{opFixedVar, opByteVar}},
	OpToByte:    {"tobyte", []operand{opByteVar, opFixedVar}},
	OpCopyByte:  {"copybyte", []operand{opByteVar, opByteVar}},
	OpCopyFixed: {"copyfixed", []operand{opFixedVar, opFixedVar}},

	OpAdd:     {"add", []operand{opFixedVar, opFixedVar, opFixedVar}},
	OpSub:     {"sub", []operand{opFixedVar, opFixedVar, opFixedVar}},
	OpMul:     {"mul", []operand{opFixedVar, opFixedVar, opFixedVar}},
	OpDiv:     {"div", []operand{opFixedVar, opFixedVar, opFixedVar}},
	OpNeg:     {"neg", []operand{opFixedVar, opFixedVar}},
	OpAbs:     {"abs", []operand{opFixedVar, opFixedVar}},
	OpMin:     {"min", []operand{opFixedVar, opFixedVar, opFixedVar}},
	OpMax:     {"max", []operand{opFixedVar, opFixedVar, opFixedVar}},
	OpAddByte: {"addbyte", []operand{opByteVar, opByteVar, opByteVar}},
	OpSubByte: {"subbyte", []operand{opByteVar, opByteVar, opByteVar}},
	OpMulByte: {"mulbyte", []operand{opByteVar, opByteVar, opByteVar}},
	OpDivByte: {"divbyte", []operand{opByteVar, opByteVar, opByteVar}},
	OpMinByte: {"minbyte", []operand{opByteVar, opByteVar, opByteVar}},
	OpMaxByte: {"maxbyte", []operand{opByteVar, opByteVar, opByteVar}},

	OpEq:     {"eq", []operand{opByteVar, opFixedVar, opFixedVar}},
	OpLt:     {"lt", []operand{opByteVar, opFixedVar, opFixedVar}},
	OpLe:     {"le", []operand{opByteVar, opFixedVar, opFixedVar}},
	OpEqByte: {"eqbyte", []operand{opByteVar, opByteVar, opByteVar}},
	OpLtByte: {"ltbyte", []operand{opByteVar, opByteVar, opByteVar}},
	OpNot:    {"not", []operand{opByteVar, opByteVar}},
	OpAnd:    {"and", []operand{opByteVar, opByteVar, opByteVar}},
	OpOr:     {"or", []operand{opByteVar, opByteVar, opByteVar}},

	OpSin:   {"sin", []operand{opFixedVar, opFixedVar}},
	OpCos:   {"cos", []operand{opFixedVar, opFixedVar}},
	OpAtan2: {"atan2", []operand{opFixedVar, opFixedVar, opFixedVar}},

	OpLock:            {"lock", nil},
	OpUnlock:          {"unlock", nil},
	OpApplyEnergyCost: {"applyenergycost", nil},
	OpApplyDuration:   {"applyduration", nil},
	OpSpawn:           {"spawn", []operand{opDef}},
	OpSpawnArgs:       {"spawnargs", []operand{opDef, opByteVar, opFixedVar}},
	OpApplyStatus:     {"applystatus", []operand{opDef, opWho}},
	OpDamage:          {"damage", []operand{opFixedVar, opElement, opWho}},
	OpDespawn:         {"despawn", nil},

	OpCooldown:      {"cooldown", []operand{opFixedVar}},
	OpResetCooldown: {"resetcooldown", nil},
	OpArg:           {"arg", []operand{opByteVar, opArgIndex}},
	OpFixedArg:      {"fixedarg", []operand{opFixedVar, opArgIndex}},
}

var opByName = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opTable))
	for op, info := range opTable {
		m[info.name] = op
	}
	return m
}()

// String returns the mnemonic, or a hex form for unknown opcodes.
func (o Opcode) String() string {
	if info, ok := opTable[o]; ok {
		return info.name
	}
	return "op_" + hexByte(uint8(o))
}

// Known reports whether o is a defined opcode.
func (o Opcode) Known() bool {
	_, ok := opTable[o]
	return ok
}

// Len returns the encoded length of an instruction starting with o,
// including the opcode byte. Unknown opcodes report 0.
func (o Opcode) Len() int {
	info, ok := opTable[o]
	if !ok {
		return 0
	}
	n := 1
	for _, op := range info.operands {
		n += op.width()
	}
	return n
}

// Who values for ApplyStatus and Damage.
const (
	WhoExecutor uint8 = 0
	WhoTarget   uint8 = 1
)

// Register file sizes.
const (
	NumVars      = 8
	NumFixedVars = 4
	NumArgs      = 4
	NumElements  = 6
)

// MaxScriptLength bounds the encoded size of any script.
const MaxScriptLength = 256

// DefaultLimit is the default per-invocation instruction budget.
const DefaultLimit = 1024

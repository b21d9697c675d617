package script

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cory-johannsen/skirmish/internal/game/fixed"
)

// Disassemble renders code in the text form accepted by Assemble. Jump
// targets become labels named after their offset.
func Disassemble(code []byte) (string, error) {
	ins, err := Decode(code)
	if err != nil {
		return "", err
	}
	labels := make(map[int]bool)
	for _, in := range ins {
		if t, ok := in.Target(); ok {
			labels[t] = true
		}
	}
	var sb strings.Builder
	for _, in := range ins {
		if labels[in.Offset] {
			fmt.Fprintf(&sb, "L%d:\n", in.Offset)
		}
		sb.WriteString("\t")
		sb.WriteString(formatInstruction(in))
		sb.WriteString("\n")
	}
	if labels[len(code)] {
		fmt.Fprintf(&sb, "L%d:\n", len(code))
	}
	return sb.String(), nil
}

func formatInstruction(in Instruction) string {
	info := opTable[in.Op]
	kind, _ := addressKind(in)
	parts := []string{info.name}
	i := 0
	for _, o := range info.operands {
		b := in.Operands[i]
		switch o {
		case opByteVar:
			parts = append(parts, fmt.Sprintf("b%d", b))
		case opFixedVar:
			parts = append(parts, fmt.Sprintf("f%d", b))
		case opValueVar:
			if kind == KindFixed {
				parts = append(parts, fmt.Sprintf("f%d", b))
			} else {
				parts = append(parts, fmt.Sprintf("b%d", b))
			}
		case opAddress, opCharAddr:
			parts = append(parts, Address(b).String())
		case opSkip, opTarget:
			t, _ := in.Target()
			parts = append(parts, fmt.Sprintf("L%d", t))
		case opFixedLit:
			raw := int16(uint16(b)<<8 | uint16(in.Operands[i+1]))
			parts = append(parts, fixed.FromRaw(raw).String())
		default:
			parts = append(parts, strconv.Itoa(int(b)))
		}
		i += o.width()
	}
	return strings.Join(parts, " ")
}

type asmLine struct {
	num    int
	op     Opcode
	args   []string
	offset int
}

// Assemble translates mnemonic text into bytecode.
//
// Each line holds at most one instruction, optionally preceded by a
// "label:" definition. Text after ';' is a comment. Byte variables are
// written b0..b7, fixed variables f0..f3, properties by name (self.x) or
// number, fixed literals as integers, decimals or num/den ratios, and jump
// operands as labels or numbers.
func Assemble(src string) ([]byte, error) {
	labels := make(map[string]int)
	var lines []asmLine
	offset := 0
	for n, raw := range strings.Split(src, "\n") {
		line := raw
		if i := strings.IndexByte(line, ';'); i >= 0 {
			line = line[:i]
		}
		line = strings.TrimSpace(line)
		if label, rest, ok := strings.Cut(line, ":"); ok && !strings.ContainsAny(label, " \t") {
			if label == "" {
				return nil, fmt.Errorf("line %d: empty label", n+1)
			}
			if _, dup := labels[label]; dup {
				return nil, fmt.Errorf("line %d: duplicate label %q", n+1, label)
			}
			labels[label] = offset
			line = strings.TrimSpace(rest)
		}
		if line == "" {
			continue
		}
		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ' ' || r == '\t' || r == ','
		})
		op, ok := opByName[strings.ToLower(fields[0])]
		if !ok {
			return nil, fmt.Errorf("line %d: %w %q", n+1, ErrUnknownOpcode, fields[0])
		}
		info := opTable[op]
		if len(fields)-1 != len(info.operands) {
			return nil, fmt.Errorf("line %d: %s takes %d operands, got %d", n+1, info.name, len(info.operands), len(fields)-1)
		}
		lines = append(lines, asmLine{num: n + 1, op: op, args: fields[1:], offset: offset})
		offset += op.Len()
	}
	if offset > MaxScriptLength {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLong, offset)
	}

	out := make([]byte, 0, offset)
	for _, l := range lines {
		enc, err := encodeLine(l, labels)
		if err != nil {
			return nil, fmt.Errorf("line %d: %s: %w", l.num, l.op, err)
		}
		out = append(out, enc...)
	}
	return out, nil
}

func encodeLine(l asmLine, labels map[string]int) ([]byte, error) {
	info := opTable[l.op]
	kind := KindByte
	for i, o := range info.operands {
		if o == opAddress || o == opCharAddr {
			a, err := ParseAddress(l.args[i])
			if err != nil {
				return nil, err
			}
			p, _ := Lookup(a)
			kind = p.Kind
		}
	}
	next := l.offset + l.op.Len()
	enc := []byte{byte(l.op)}
	for i, o := range info.operands {
		arg := l.args[i]
		switch o {
		case opByteVar:
			v, err := parseVar(arg, 'b', NumVars)
			if err != nil {
				return nil, err
			}
			enc = append(enc, v)
		case opFixedVar:
			v, err := parseVar(arg, 'f', NumFixedVars)
			if err != nil {
				return nil, err
			}
			enc = append(enc, v)
		case opValueVar:
			prefix, limit := byte('b'), NumVars
			if kind == KindFixed {
				prefix, limit = 'f', NumFixedVars
			}
			v, err := parseVar(arg, prefix, limit)
			if err != nil {
				return nil, err
			}
			enc = append(enc, v)
		case opAddress, opCharAddr:
			a, _ := ParseAddress(arg)
			enc = append(enc, byte(a))
		case opTarget, opSkip:
			t, ok := labels[arg]
			if !ok {
				n, err := parseByte(arg)
				if err != nil {
					return nil, fmt.Errorf("unknown label %q", arg)
				}
				if o == opSkip {
					enc = append(enc, n)
					continue
				}
				t = int(n)
			}
			if o == opSkip {
				t -= next
			}
			if t < 0 || t > 255 {
				return nil, fmt.Errorf("%w: %q", ErrJumpOutOfRange, arg)
			}
			enc = append(enc, byte(t))
		case opFixedLit:
			f, err := fixed.Parse(arg)
			if err != nil {
				return nil, err
			}
			raw := uint16(f.Raw())
			enc = append(enc, byte(raw>>8), byte(raw))
		default:
			n, err := parseByte(arg)
			if err != nil {
				return nil, err
			}
			enc = append(enc, n)
		}
	}
	return enc, nil
}

func parseVar(s string, prefix byte, limit int) (byte, error) {
	if len(s) < 2 || (s[0] != prefix && s[0] != prefix-'a'+'A') {
		return 0, fmt.Errorf("%w: expected %c0..%c%d, got %q", ErrBadVariable, prefix, prefix, limit-1, s)
	}
	n, err := strconv.Atoi(s[1:])
	if err != nil || n < 0 || n >= limit {
		return 0, fmt.Errorf("%w: %q", ErrBadVariable, s)
	}
	return byte(n), nil
}

func parseByte(s string) (byte, error) {
	n, err := strconv.ParseUint(s, 0, 8)
	if err != nil {
		return 0, fmt.Errorf("invalid byte %q", s)
	}
	return byte(n), nil
}

func hexByte(b uint8) string { return fmt.Sprintf("%02x", b) }

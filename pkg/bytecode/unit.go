package bytecode

import (
	"fmt"
	"strconv"
	"strings"
)

// Unit is the compiled form of one function body. The program's top level is
// compiled into a Unit of its own. A Unit is never modified after the compiler
// returns it, so it can be shared by any number of frames.
type Unit struct {
	Name      string   // function name for diagnostics, "<main>" for the top level
	Code      []byte   // opcode/operand pairs
	Names     []string // local variable names, slot index = position
	Params    int      // number of leading Names bound from call arguments
	StackSize int      // maximum operand-stack depth reached by Code

	Floats    []float64
	Strings   []string
	Functions []*Unit
}

// Len returns the number of instructions in the unit.
func (u *Unit) Len() int {
	return len(u.Code) / InstructionSize
}

// Slot returns the slot index of name, or -1 if the unit has no such local.
func (u *Unit) Slot(name string) int {
	for i, n := range u.Names {
		if n == name {
			return i
		}
	}
	return -1
}

// Disassemble renders the unit, its pools and every nested unit.
func (u *Unit) Disassemble() string {
	var sb strings.Builder
	u.disassemble(&sb, "")
	return sb.String()
}

func (u *Unit) disassemble(sb *strings.Builder, indent string) {
	fmt.Fprintf(sb, "%s== %s (params=%d, stack=%d) ==\n", indent, u.Name, u.Params, u.StackSize)
	if len(u.Names) > 0 {
		fmt.Fprintf(sb, "%snames: %s\n", indent, strings.Join(u.Names, ", "))
	}
	if len(u.Floats) > 0 {
		floats := make([]string, len(u.Floats))
		for i, f := range u.Floats {
			floats[i] = strconv.FormatFloat(f, 'g', -1, 64)
		}
		fmt.Fprintf(sb, "%sfloats: %s\n", indent, strings.Join(floats, ", "))
	}
	if len(u.Strings) > 0 {
		strs := make([]string, len(u.Strings))
		for i, s := range u.Strings {
			strs[i] = strconv.Quote(s)
		}
		fmt.Fprintf(sb, "%sstrings: %s\n", indent, strings.Join(strs, ", "))
	}

	for pc := 0; pc+1 < len(u.Code); pc += InstructionSize {
		fmt.Fprintf(sb, "%s%4d  %s\n", indent, pc, DisOne(u.Code[pc], u.Code[pc+1]))
	}

	for _, fn := range u.Functions {
		fn.disassemble(sb, indent+"  ")
	}
}

// DisOne renders a single instruction as "NAME operand".
func DisOne(op, arg byte) string {
	return fmt.Sprintf("%s %d", Opcode(op), arg)
}

// Dis renders a raw instruction stream, one instruction per line.
func Dis(code []byte) string {
	lines := make([]string, 0, len(code)/InstructionSize)
	for pc := 0; pc+1 < len(code); pc += InstructionSize {
		lines = append(lines, DisOne(code[pc], code[pc+1]))
	}
	return strings.Join(lines, "\n")
}

// ToCode packs alternating opcode/operand values into an instruction stream.
func ToCode(ops ...int) []byte {
	code := make([]byte, len(ops))
	for i, op := range ops {
		code[i] = byte(op)
	}
	return code
}

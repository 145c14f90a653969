package bytecode

import "fmt"

// Opcode is the first byte of every instruction.
type Opcode byte

// List of opcodes. Every instruction is two bytes wide: the opcode and a
// one-byte operand whose meaning depends on the opcode.
const (
	OpLoadConstantFloat  Opcode = iota // push Floats[arg]
	OpLoadConstantString               // push Strings[arg]
	OpLoadConstantFn                   // push closure over Functions[arg]
	OpLoadVar                          // push variable in slot arg
	OpAssign                           // pop into slot arg
	OpDiscardTop                       // pop and drop
	OpReturn                           // arg 1: return top, arg 0: return no value
	OpJumpIfFalse                      // pop, jump to address arg if falsy
	OpJumpAbsolute                     // jump to address arg
	OpBinaryAdd
	OpBinarySub
	OpBinaryMul
	OpBinaryDiv
	OpBinaryMod
	OpBinaryEq
	OpBinaryLt
	OpCall // call with arg arguments

	opCount
)

// InstructionSize is the width in bytes of every instruction.
const InstructionSize = 2

// MaxOperand is the largest value a one-byte operand can carry.
const MaxOperand = 0xff

// OpcodeInfo holds metadata about an opcode.
type OpcodeInfo struct {
	Name        string // human-readable name
	StackEffect int    // net effect on the operand stack
	Jump        bool   // operand is an absolute code address
}

var opcodeTable = [opCount]OpcodeInfo{
	OpLoadConstantFloat:  {"LOAD_CONSTANT_FLOAT", 1, false},
	OpLoadConstantString: {"LOAD_CONSTANT_STRING", 1, false},
	OpLoadConstantFn:     {"LOAD_CONSTANT_FN", 1, false},
	OpLoadVar:            {"LOAD_VAR", 1, false},
	OpAssign:             {"ASSIGN", -1, false},
	OpDiscardTop:         {"DISCARD_TOP", -1, false},
	OpReturn:             {"RETURN", 0, false}, // see StackEffect
	OpJumpIfFalse:        {"JUMP_IF_FALSE", -1, true},
	OpJumpAbsolute:       {"JUMP_ABSOLUTE", 0, true},
	OpBinaryAdd:          {"BINARY_ADD", -1, false},
	OpBinarySub:          {"BINARY_SUB", -1, false},
	OpBinaryMul:          {"BINARY_MUL", -1, false},
	OpBinaryDiv:          {"BINARY_DIV", -1, false},
	OpBinaryMod:          {"BINARY_MOD", -1, false},
	OpBinaryEq:           {"BINARY_EQ", -1, false},
	OpBinaryLt:           {"BINARY_LT", -1, false},
	OpCall:               {"CALL", 0, false}, // see StackEffect
}

// Valid reports whether op is a known opcode.
func (op Opcode) Valid() bool {
	return op < opCount
}

// Info returns the metadata for an opcode.
func (op Opcode) Info() OpcodeInfo {
	if op.Valid() {
		return opcodeTable[op]
	}
	return OpcodeInfo{Name: fmt.Sprintf("UNKNOWN_%02X", byte(op))}
}

// String implements the Stringer interface.
func (op Opcode) String() string {
	return op.Info().Name
}

// StackEffect returns the net change in operand-stack height caused by
// executing op with the given operand.
func (op Opcode) StackEffect(arg byte) int {
	switch op {
	case OpCall:
		// pops arg arguments and the callee, pushes the result
		return -int(arg)
	case OpReturn:
		return -int(arg)
	default:
		return op.Info().StackEffect
	}
}

// BinaryOps maps operator symbols to their opcodes.
var BinaryOps = map[string]Opcode{
	"+":  OpBinaryAdd,
	"-":  OpBinarySub,
	"*":  OpBinaryMul,
	"/":  OpBinaryDiv,
	"%":  OpBinaryMod,
	"==": OpBinaryEq,
	"<":  OpBinaryLt,
}

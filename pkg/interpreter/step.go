package interpreter

import (
	"fmt"

	"jss/pkg/bytecode"
)

// execute is the fetch-decode-execute loop for one frame. It returns when a
// RETURN instruction runs or an error unwinds the call.
func (i *Interpreter) execute(f *Frame) (Value, error) {
	code := f.unit.Code
	pc := 0

	for {
		if pc < 0 || pc+1 >= len(code) {
			return Value{}, fmt.Errorf("%w: pc %d outside %s", ErrMalformedBytecode, pc, f.unit.Name)
		}

		if i.maxSteps > 0 && i.steps >= i.maxSteps {
			return Value{}, ErrMaxStepsExceeded
		}
		i.steps++

		op := bytecode.Opcode(code[pc])
		arg := int(code[pc+1])
		pc += bytecode.InstructionSize

		switch op {
		case bytecode.OpLoadConstantFloat:
			if arg >= len(f.unit.Floats) {
				return Value{}, badOperand(f, op, arg)
			}
			f.push(NewFloat(f.unit.Floats[arg]))

		case bytecode.OpLoadConstantString:
			if arg >= len(f.unit.Strings) {
				return Value{}, badOperand(f, op, arg)
			}
			f.push(NewString(f.unit.Strings[arg]))

		case bytecode.OpLoadConstantFn:
			if arg >= len(f.unit.Functions) {
				return Value{}, badOperand(f, op, arg)
			}
			f.push(NewClosure(f.unit.Functions[arg], f))

		case bytecode.OpLoadVar:
			if arg >= len(f.vars) {
				return Value{}, badOperand(f, op, arg)
			}
			v, err := i.loadVar(f, arg)
			if err != nil {
				return Value{}, err
			}
			f.push(v)

		case bytecode.OpAssign:
			if arg >= len(f.vars) {
				return Value{}, badOperand(f, op, arg)
			}
			v, err := f.pop()
			if err != nil {
				return Value{}, err
			}
			f.vars[arg] = v

		case bytecode.OpDiscardTop:
			if _, err := f.pop(); err != nil {
				return Value{}, err
			}

		case bytecode.OpBinaryAdd, bytecode.OpBinarySub, bytecode.OpBinaryMul, bytecode.OpBinaryDiv,
			bytecode.OpBinaryMod, bytecode.OpBinaryLt, bytecode.OpBinaryEq:
			// right was pushed last
			right, err := f.pop()
			if err != nil {
				return Value{}, err
			}
			left, err := f.pop()
			if err != nil {
				return Value{}, err
			}
			res, err := left.binary(op, right)
			if err != nil {
				return Value{}, err
			}
			f.push(res)

		case bytecode.OpJumpIfFalse:
			cond, err := f.pop()
			if err != nil {
				return Value{}, err
			}
			if !cond.IsTrue() {
				pc = arg
			}

		case bytecode.OpJumpAbsolute:
			pc = arg

		case bytecode.OpCall:
			// the callee is pushed after its arguments
			callee, err := f.pop()
			if err != nil {
				return Value{}, err
			}
			args, err := f.popArgs(arg)
			if err != nil {
				return Value{}, err
			}
			res, err := i.Call(callee, args)
			if err != nil {
				return Value{}, err
			}
			f.push(res)

		case bytecode.OpReturn:
			if arg == 0 {
				return None, nil
			}
			return f.pop()

		default:
			if op.Valid() {
				return Value{}, fmt.Errorf("%w: no handler for %s", ErrUnsupportedOperation, op)
			}
			return Value{}, fmt.Errorf("%w: %s at %d in %s", ErrMalformedBytecode, op, pc-bytecode.InstructionSize, f.unit.Name)
		}
	}
}

// loadVar resolves slot through the frame chain and then the builtins table
func (i *Interpreter) loadVar(f *Frame, slot int) (Value, error) {
	if v, ok := f.lookup(slot); ok {
		return v, nil
	}

	name := f.names[slot]
	if v, ok := i.builtins.Lookup(name); ok {
		return v, nil
	}

	return Value{}, fmt.Errorf("%w: %q", ErrUndefinedVariable, name)
}

func badOperand(f *Frame, op bytecode.Opcode, arg int) error {
	return fmt.Errorf("%w: %s operand %d out of range in %s", ErrMalformedBytecode, op, arg, f.unit.Name)
}

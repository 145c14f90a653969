package interpreter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"jss/pkg/bytecode"
)

type ValueKind int

const (
	KindUnbound ValueKind = iota // zero Value: an empty variable slot, never pushed
	KindNone                     // result of a call that returns nothing
	KindFloat
	KindBool
	KindString
	KindClosure
	KindNative
)

func (k ValueKind) String() string {
	switch k {
	case KindUnbound:
		return "unbound"
	case KindNone:
		return "undefined"
	case KindFloat:
		return "float"
	case KindBool:
		return "boolean"
	case KindString:
		return "string"
	case KindClosure:
		return "function"
	case KindNative:
		return "builtin"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Value represents a dynamically-typed value in the interpreter. Values are
// immutable; operations always return a new Value.
type Value struct {
	Kind    ValueKind
	F64     float64
	Bool    bool
	Str     string
	Closure *Closure
	Native  *NativeFunction
}

// Closure pairs a compiled function with the frame that was executing when
// the function literal was evaluated. The frame is shared, not copied.
type Closure struct {
	Unit   *bytecode.Unit
	Parent *Frame
}

// NativeFunction is a host function callable from programs.
type NativeFunction struct {
	Name string
	Func func(args []Value) (Value, error)
}

// None is the value of a call that returns nothing.
var None = Value{Kind: KindNone}

// NewFloat creates a new float Value.
func NewFloat(f float64) Value {
	return Value{Kind: KindFloat, F64: f}
}

// NewBool creates a new boolean Value.
func NewBool(b bool) Value {
	return Value{Kind: KindBool, Bool: b}
}

// NewString creates a new string Value.
func NewString(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// NewClosure creates a function Value closing over parent.
func NewClosure(unit *bytecode.Unit, parent *Frame) Value {
	return Value{Kind: KindClosure, Closure: &Closure{Unit: unit, Parent: parent}}
}

// NewNative creates a builtin function Value.
func NewNative(name string, fn func(args []Value) (Value, error)) Value {
	return Value{Kind: KindNative, Native: &NativeFunction{Name: name, Func: fn}}
}

// IsBound reports whether v holds a value at all.
func (v Value) IsBound() bool {
	return v.Kind != KindUnbound
}

// IsTrue reports the truthiness of v.
func (v Value) IsTrue() bool {
	switch v.Kind {
	case KindFloat:
		return v.F64 != 0
	case KindBool:
		return v.Bool
	case KindString:
		return v.Str != ""
	case KindClosure, KindNative:
		return true
	default:
		return false
	}
}

// String renders the value as a string.
func (v Value) String() string {
	switch v.Kind {
	case KindFloat:
		return formatFloat(v.F64)
	case KindBool:
		if v.Bool {
			return "true"
		}
		return "false"
	case KindString:
		return v.Str
	case KindClosure:
		return "<function " + v.Closure.Unit.Name + ">"
	case KindNative:
		return "<builtin " + v.Native.Name + ">"
	case KindNone:
		return "undefined"
	default:
		return "<unbound>"
	}
}

// formatFloat prints integral floats with a trailing ".0" so that they read
// as floats, e.g. 5 -> "5.0", 0.25 -> "0.25", 1e+21 -> "1e+21".
func formatFloat(f float64) string {
	if math.IsInf(f, 1) {
		return "inf"
	}
	if math.IsInf(f, -1) {
		return "-inf"
	}
	if math.IsNaN(f) {
		return "nan"
	}

	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// AsFloat64 converts the value to float64 if it is numeric. Booleans promote
// to 0 and 1.
func (v Value) AsFloat64() (float64, error) {
	switch v.Kind {
	case KindFloat:
		return v.F64, nil
	case KindBool:
		if v.Bool {
			return 1.0, nil
		}
		return 0.0, nil
	default:
		return 0, fmt.Errorf("%w: %s is not a number", ErrUnsupportedOperation, v.Kind)
	}
}

func (v Value) Add(other Value) (Value, error) { return v.binary(bytecode.OpBinaryAdd, other) }
func (v Value) Sub(other Value) (Value, error) { return v.binary(bytecode.OpBinarySub, other) }
func (v Value) Mul(other Value) (Value, error) { return v.binary(bytecode.OpBinaryMul, other) }
func (v Value) Div(other Value) (Value, error) { return v.binary(bytecode.OpBinaryDiv, other) }
func (v Value) Mod(other Value) (Value, error) { return v.binary(bytecode.OpBinaryMod, other) }
func (v Value) Lt(other Value) (Value, error)  { return v.binary(bytecode.OpBinaryLt, other) }
func (v Value) Eq(other Value) (Value, error)  { return v.binary(bytecode.OpBinaryEq, other) }

// binary evaluates v op right. Only numeric operands are supported.
func (v Value) binary(op bytecode.Opcode, right Value) (Value, error) {
	a, errA := v.AsFloat64()
	b, errB := right.AsFloat64()
	if errA != nil || errB != nil {
		return Value{}, fmt.Errorf("%w: %s %s %s", ErrUnsupportedOperation, v.Kind, opSymbol(op), right.Kind)
	}

	switch op {
	case bytecode.OpBinaryAdd:
		return NewFloat(a + b), nil
	case bytecode.OpBinarySub:
		return NewFloat(a - b), nil
	case bytecode.OpBinaryMul:
		return NewFloat(a * b), nil
	case bytecode.OpBinaryDiv:
		return NewFloat(a / b), nil
	case bytecode.OpBinaryMod:
		return NewFloat(math.Mod(a, b)), nil
	case bytecode.OpBinaryLt:
		return NewBool(a < b), nil
	case bytecode.OpBinaryEq:
		return NewBool(a == b), nil
	default:
		return Value{}, fmt.Errorf("%w: binary %s", ErrUnsupportedOperation, op)
	}
}

func opSymbol(op bytecode.Opcode) string {
	for sym, o := range bytecode.BinaryOps {
		if o == op {
			return sym
		}
	}
	return op.String()
}

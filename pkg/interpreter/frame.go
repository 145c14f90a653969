package interpreter

import (
	"fmt"

	"jss/pkg/bytecode"
	"jss/pkg/stack"
)

// Frame represents one function activation.
type Frame struct {
	unit   *bytecode.Unit
	stack  *stack.Stack[Value] // operand stack
	vars   []Value             // local slots, zero Value = unbound
	names  []string            // shared with unit, used for name-based lookup
	parent *Frame              // lexically enclosing frame, nil at top level
	result Value               // value returned by the activation
}

// NewFrame creates a frame for unit whose free variables resolve through parent.
func NewFrame(unit *bytecode.Unit, parent *Frame) *Frame {
	return &Frame{
		unit:   unit,
		stack:  stack.NewStack[Value](unit.StackSize),
		vars:   make([]Value, len(unit.Names)),
		names:  unit.Names,
		parent: parent,
	}
}

// Unit returns the bytecode unit the frame executes.
func (f *Frame) Unit() *bytecode.Unit { return f.unit }

// Parent returns the lexically enclosing frame.
func (f *Frame) Parent() *Frame { return f.parent }

// Depth returns the current operand-stack height.
func (f *Frame) Depth() int { return f.stack.Size() }

// Result returns the value the activation returned, None if it returned nothing.
func (f *Frame) Result() Value { return f.result }

// Var returns the value in slot, the zero Value if the slot is unbound or
// does not exist.
func (f *Frame) Var(slot int) Value {
	if slot < 0 || slot >= len(f.vars) {
		return Value{}
	}
	return f.vars[slot]
}

// Lookup resolves name in this frame and then along the parent chain.
func (f *Frame) Lookup(name string) (Value, bool) {
	for fr := f; fr != nil; fr = fr.parent {
		for i, n := range fr.names {
			if n == name && fr.vars[i].IsBound() {
				return fr.vars[i], true
			}
		}
	}
	return Value{}, false
}

func (f *Frame) push(v Value) {
	f.stack.Push(v)
}

func (f *Frame) pop() (Value, error) {
	v, ok := f.stack.Pop()
	if !ok {
		return Value{}, fmt.Errorf("%w: operand stack underflow in %s", ErrMalformedBytecode, f.unit.Name)
	}
	return v, nil
}

// popArgs pops n values and returns them in the order they were pushed
func (f *Frame) popArgs(n int) ([]Value, error) {
	args := make([]Value, n)
	for i := n - 1; i >= 0; i-- {
		v, err := f.pop()
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// lookup resolves the variable in slot: the slot itself, then the enclosing
// frames by name. ok is false when neither holds a bound value.
func (f *Frame) lookup(slot int) (Value, bool) {
	if v := f.vars[slot]; v.IsBound() {
		return v, true
	}
	if f.parent == nil {
		return Value{}, false
	}
	return f.parent.Lookup(f.names[slot])
}

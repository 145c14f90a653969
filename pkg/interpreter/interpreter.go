package interpreter

import (
	"errors"
	"fmt"

	"jss/pkg/bytecode"

	"github.com/charmbracelet/log"
)

// Builtins resolves names that are not bound in any frame.
type Builtins interface {
	Lookup(name string) (Value, bool)
}

// NoBuiltins is an empty builtins table.
type NoBuiltins struct{}

func (NoBuiltins) Lookup(string) (Value, bool) { return Value{}, false }

// Interpreter executes bytecode units. Calls run to completion on the calling
// goroutine; an Interpreter must not be used by several goroutines at once,
// and closures sharing an enclosing frame must not run concurrently.
type Interpreter struct {
	builtins Builtins
	logger   *log.Logger

	maxSteps int // maximum instructions (0 = unlimited)
	steps    int // instructions executed
	maxDepth int // maximum nested closure calls (0 = unlimited)
	depth    int // closure calls in progress
}

// DefaultMaxDepth bounds closure recursion unless WithMaxDepth overrides it
const DefaultMaxDepth = 1024

type Option func(*Interpreter)

// WithBuiltins sets the table consulted for names unbound in every frame
func WithBuiltins(b Builtins) Option {
	return func(i *Interpreter) { i.builtins = b }
}

// WithMaxSteps sets a maximum number of executed instructions before
// returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithMaxDepth sets the maximum number of nested closure calls before
// returning ErrCallDepthExceeded. 0 removes the limit.
func WithMaxDepth(n int) Option {
	return func(i *Interpreter) { i.maxDepth = n }
}

// WithLogger sets the logger used for call tracing
func WithLogger(l *log.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// New creates a new Interpreter instance
func New(opts ...Option) *Interpreter {
	it := &Interpreter{
		maxSteps: 0, // 0 => unlimited
		maxDepth: DefaultMaxDepth,
	}

	for _, o := range opts {
		o(it)
	}

	if it.builtins == nil {
		it.builtins = NoBuiltins{}
	}

	if it.logger == nil {
		it.logger = log.Default()
	}

	return it
}

// Interpret executes the top-level unit of a program in a fresh frame with no
// parent and no bound locals. The returned frame holds the program's locals
// and its result; it is returned even when execution fails.
func (i *Interpreter) Interpret(unit *bytecode.Unit) (*Frame, error) {
	frame := NewFrame(unit, nil)

	result, err := i.Run(frame)
	if err != nil {
		return frame, err
	}

	i.logger.Debug("program finished", "steps", i.steps, "result", result)
	return frame, nil
}

// Run executes frame's unit from its first instruction until it returns.
func (i *Interpreter) Run(frame *Frame) (Value, error) {
	result, err := i.execute(frame)
	if err != nil {
		return Value{}, err
	}

	frame.result = result
	return result, nil
}

// Call invokes a function value with args. Closures run in a new frame whose
// parent is the frame they captured; builtins are called directly.
func (i *Interpreter) Call(callee Value, args []Value) (Value, error) {
	switch callee.Kind {
	case KindNative:
		res, err := callee.Native.Func(args)
		if err != nil {
			return Value{}, fmt.Errorf("%s: %w", callee.Native.Name, err)
		}
		if !res.IsBound() {
			return None, nil
		}
		return res, nil

	case KindClosure:
		if i.maxDepth > 0 && i.depth >= i.maxDepth {
			return Value{}, fmt.Errorf("%w: %d nested calls", ErrCallDepthExceeded, i.depth)
		}
		i.depth++
		defer func() { i.depth-- }()

		unit := callee.Closure.Unit
		frame := NewFrame(unit, callee.Closure.Parent)

		// excess arguments are dropped, missing ones stay unbound
		for p := 0; p < unit.Params && p < len(args); p++ {
			frame.vars[p] = args[p]
		}

		i.logger.Debug("call", "function", unit.Name, "args", len(args))
		return i.Run(frame)

	default:
		return Value{}, fmt.Errorf("%w: %s is not callable", ErrUnsupportedOperation, callee.Kind)
	}
}

// Steps returns the number of instructions executed so far
func (i *Interpreter) Steps() int {
	return i.steps
}

// Interpret runs unit with a new Interpreter configured by opts
func Interpret(unit *bytecode.Unit, opts ...Option) (*Frame, error) {
	return New(opts...).Interpret(unit)
}

var (
	ErrUndefinedVariable    = errors.New("undefined variable")
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrMalformedBytecode    = errors.New("malformed bytecode")
	ErrMaxStepsExceeded     = errors.New("maximum steps exceeded")
	ErrCallDepthExceeded    = errors.New("maximum call depth exceeded")
)

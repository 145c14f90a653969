package compiler

import (
	"errors"
	"fmt"

	"jss/pkg/ast"
	"jss/pkg/bytecode"

	"github.com/charmbracelet/log"
)

const mainName = "<main>"

var (
	ErrUnsupportedNode = errors.New("unsupported node")
	ErrOperandOverflow = errors.New("operand does not fit in one byte")
)

// Error reports the node the compiler could not translate.
type Error struct {
	Node ast.Node
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("cannot compile %T: %v", e.Node, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Compile translates node into the bytecode unit of the program's implicit
// top-level function. When node is an expression its value is returned from
// the unit; statements and blocks return no value unless they contain an
// explicit return.
func Compile(node ast.Node) (*bytecode.Unit, error) {
	c := newCompiler(mainName)

	switch n := node.(type) {
	case ast.Expr:
		if err := c.compileExpr(n); err != nil {
			return nil, err
		}
		if err := c.emit(bytecode.OpReturn, 1); err != nil {
			return nil, err
		}

	case ast.Statement:
		if err := c.compileStmt(n); err != nil {
			return nil, err
		}
		if !endsWithReturn(n) {
			if err := c.emit(bytecode.OpReturn, 0); err != nil {
				return nil, err
			}
		}

	default:
		return nil, &Error{Node: node, Err: ErrUnsupportedNode}
	}

	log.Debug("compiled program", "instructions", c.unit.Len(), "names", len(c.unit.Names), "functions", len(c.unit.Functions))
	return c.unit, nil
}

type compiler struct {
	unit  *bytecode.Unit
	slots map[string]int // symbol table: name -> slot in unit.Names
	depth int            // operand-stack height after the last emitted instruction
}

func newCompiler(name string) *compiler {
	return &compiler{
		unit:  &bytecode.Unit{Name: name},
		slots: make(map[string]int),
	}
}

// currentIP returns the address the next instruction will be emitted at
func (c *compiler) currentIP() int {
	return len(c.unit.Code)
}

// emit appends one instruction and tracks the operand-stack high-water mark
func (c *compiler) emit(op bytecode.Opcode, arg int) error {
	if arg < 0 || arg > bytecode.MaxOperand {
		return fmt.Errorf("%s %d: %w", op, arg, ErrOperandOverflow)
	}

	c.unit.Code = append(c.unit.Code, byte(op), byte(arg))

	c.depth += op.StackEffect(byte(arg))
	if c.depth > c.unit.StackSize {
		c.unit.StackSize = c.depth
	}

	return nil
}

// emitJump appends a forward jump with a placeholder target and returns the
// address to patch once the target is known
func (c *compiler) emitJump(op bytecode.Opcode) (int, error) {
	ip := c.currentIP()
	if err := c.emit(op, 0); err != nil {
		return 0, err
	}
	return ip, nil
}

// patchJump points the jump at ip to target
func (c *compiler) patchJump(ip, target int) error {
	if target > bytecode.MaxOperand {
		return fmt.Errorf("jump target %d: %w", target, ErrOperandOverflow)
	}
	c.unit.Code[ip+1] = byte(target)
	return nil
}

// slot returns the slot of name, declaring it on first occurrence
func (c *compiler) slot(name string) int {
	if s, ok := c.slots[name]; ok {
		return s
	}

	s := len(c.unit.Names)
	c.unit.Names = append(c.unit.Names, name)
	c.slots[name] = s
	return s
}

func (c *compiler) compileStmt(stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.Block:
		return c.compileBlock(s)

	case *ast.Stmt:
		if err := c.compileExpr(s.X); err != nil {
			return err
		}
		return c.emit(bytecode.OpDiscardTop, 0)

	case *ast.Assignment:
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		return wrap(s, c.emit(bytecode.OpAssign, c.slot(s.Target)))

	case *ast.If:
		return wrap(s, c.compileIf(s))

	case *ast.While:
		return wrap(s, c.compileWhile(s))

	case *ast.Return:
		if s.Value == nil {
			return c.emit(bytecode.OpReturn, 0)
		}
		if err := c.compileExpr(s.Value); err != nil {
			return err
		}
		return c.emit(bytecode.OpReturn, 1)

	default:
		return &Error{Node: stmt, Err: ErrUnsupportedNode}
	}
}

func (c *compiler) compileBlock(b *ast.Block) error {
	if b == nil {
		return nil
	}

	for _, stmt := range b.Stmts {
		if err := c.compileStmt(stmt); err != nil {
			return err
		}
	}
	return nil
}

func (c *compiler) compileIf(s *ast.If) error {
	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}

	jumpFalseIP, err := c.emitJump(bytecode.OpJumpIfFalse)
	if err != nil {
		return err
	}

	if err := c.compileBlock(s.Body); err != nil {
		return err
	}

	return c.patchJump(jumpFalseIP, c.currentIP())
}

func (c *compiler) compileWhile(s *ast.While) error {
	startIP := c.currentIP()

	if err := c.compileExpr(s.Cond); err != nil {
		return err
	}

	jumpExitIP, err := c.emitJump(bytecode.OpJumpIfFalse)
	if err != nil {
		return err
	}

	if err := c.compileBlock(s.Body); err != nil {
		return err
	}

	if err := c.emit(bytecode.OpJumpAbsolute, startIP); err != nil {
		return err
	}

	return c.patchJump(jumpExitIP, c.currentIP())
}

func (c *compiler) compileExpr(expr ast.Expr) error {
	switch e := expr.(type) {
	case *ast.NumberLit:
		c.unit.Floats = append(c.unit.Floats, e.Value)
		return wrap(e, c.emit(bytecode.OpLoadConstantFloat, len(c.unit.Floats)-1))

	case *ast.StringLit:
		c.unit.Strings = append(c.unit.Strings, e.Value)
		return wrap(e, c.emit(bytecode.OpLoadConstantString, len(c.unit.Strings)-1))

	case *ast.Variable:
		return wrap(e, c.emit(bytecode.OpLoadVar, c.slot(e.Name)))

	case *ast.BinOp:
		op, ok := bytecode.BinaryOps[e.Op]
		if !ok {
			return &Error{Node: e, Err: fmt.Errorf("%w: operator %q", ErrUnsupportedNode, e.Op)}
		}
		if err := c.compileExpr(e.Left); err != nil {
			return err
		}
		if err := c.compileExpr(e.Right); err != nil {
			return err
		}
		return c.emit(op, 0)

	case *ast.Call:
		for _, arg := range e.Args {
			if err := c.compileExpr(arg); err != nil {
				return err
			}
		}
		if err := c.compileExpr(e.Callee); err != nil {
			return err
		}
		return wrap(e, c.emit(bytecode.OpCall, len(e.Args)))

	case *ast.FunctionLit:
		fn, err := compileFunction(e)
		if err != nil {
			return err
		}
		c.unit.Functions = append(c.unit.Functions, fn)
		return wrap(e, c.emit(bytecode.OpLoadConstantFn, len(c.unit.Functions)-1))

	default:
		return &Error{Node: expr, Err: ErrUnsupportedNode}
	}
}

// compileFunction compiles a function literal into a unit of its own. The
// parameters occupy the first slots so that call arguments bind positionally.
func compileFunction(fn *ast.FunctionLit) (*bytecode.Unit, error) {
	name := fn.Name
	if name == "" {
		name = "<anonymous>"
	}

	c := newCompiler(name)
	for _, p := range fn.Params {
		c.slot(p)
	}
	c.unit.Params = len(c.unit.Names)

	if err := c.compileBlock(fn.Body); err != nil {
		return nil, err
	}

	if !endsWithReturn(fn.Body) {
		if err := c.emit(bytecode.OpReturn, 0); err != nil {
			return nil, err
		}
	}

	log.Debug("compiled function", "name", name, "instructions", c.unit.Len(), "stack", c.unit.StackSize)
	return c.unit, nil
}

// wrap attaches node to a bare emit error
func wrap(node ast.Node, err error) error {
	if err == nil {
		return nil
	}

	var ce *Error
	if errors.As(err, &ce) {
		return err
	}
	return &Error{Node: node, Err: err}
}

// endsWithReturn reports whether the last statement executed in stmt is a
// return statement
func endsWithReturn(stmt ast.Statement) bool {
	switch s := stmt.(type) {
	case *ast.Return:
		return true
	case *ast.Block:
		if s == nil || len(s.Stmts) == 0 {
			return false
		}
		return endsWithReturn(s.Stmts[len(s.Stmts)-1])
	default:
		return false
	}
}

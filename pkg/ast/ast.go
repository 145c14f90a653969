package ast

import (
	"fmt"
	"strconv"
	"strings"
)

// Node is any syntax tree node consumed by the compiler.
type Node interface {
	node()
	String() string
}

// Expr is a node that produces exactly one value.
type Expr interface {
	Node
	expr()
}

// Statement is a node with no net effect on the operand stack.
type Statement interface {
	Node
	stmt()
}

type (
	// NumberLit is a numeric literal.
	NumberLit struct {
		Value float64
	}

	// StringLit is a string literal (already unquoted).
	StringLit struct {
		Value string
	}

	// Variable is a reference to a named variable.
	Variable struct {
		Name string
	}

	// BinOp applies Op to Left and Right. Op is one of + - * / % < ==.
	BinOp struct {
		Op    string
		Left  Expr
		Right Expr
	}

	// Call invokes Callee with positional Args.
	Call struct {
		Callee Expr
		Args   []Expr
	}

	// FunctionLit is a function literal.
	FunctionLit struct {
		Name   string // optional, used for diagnostics only
		Params []string
		Body   *Block
	}
)

type (
	// Assignment binds the value of Value to Target.
	Assignment struct {
		Target string
		Value  Expr
	}

	// Block is an ordered list of statements.
	Block struct {
		Stmts []Statement
	}

	// Stmt wraps an expression evaluated for its side effects.
	Stmt struct {
		X Expr
	}

	// If runs Body when Cond is truthy.
	If struct {
		Cond Expr
		Body *Block
	}

	// While runs Body as long as Cond is truthy.
	While struct {
		Cond Expr
		Body *Block
	}

	// Return leaves the current function. Value may be nil.
	Return struct {
		Value Expr
	}
)

func (*NumberLit) node()   {}
func (*StringLit) node()   {}
func (*Variable) node()    {}
func (*BinOp) node()       {}
func (*Call) node()        {}
func (*FunctionLit) node() {}
func (*Assignment) node()  {}
func (*Block) node()       {}
func (*Stmt) node()        {}
func (*If) node()          {}
func (*While) node()       {}
func (*Return) node()      {}

func (*NumberLit) expr()   {}
func (*StringLit) expr()   {}
func (*Variable) expr()    {}
func (*BinOp) expr()       {}
func (*Call) expr()        {}
func (*FunctionLit) expr() {}

func (*Assignment) stmt() {}
func (*Block) stmt()      {}
func (*Stmt) stmt()       {}
func (*If) stmt()         {}
func (*While) stmt()      {}
func (*Return) stmt()     {}

func (n *NumberLit) String() string {
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (n *StringLit) String() string {
	return strconv.Quote(n.Value)
}

func (n *Variable) String() string {
	return n.Name
}

func (n *BinOp) String() string {
	return fmt.Sprintf("(%s %s %s)", n.Left, n.Op, n.Right)
}

func (n *Call) String() string {
	args := make([]string, len(n.Args))
	for i, a := range n.Args {
		args[i] = a.String()
	}
	return fmt.Sprintf("%s(%s)", n.Callee, strings.Join(args, ", "))
}

func (n *FunctionLit) String() string {
	return fmt.Sprintf("function %s(%s) %s", n.Name, strings.Join(n.Params, ", "), n.Body)
}

func (n *Assignment) String() string {
	return fmt.Sprintf("%s = %s;", n.Target, n.Value)
}

func (n *Block) String() string {
	if n == nil || len(n.Stmts) == 0 {
		return "{}"
	}
	parts := make([]string, len(n.Stmts))
	for i, s := range n.Stmts {
		parts[i] = s.String()
	}
	return "{ " + strings.Join(parts, " ") + " }"
}

func (n *Stmt) String() string {
	return n.X.String() + ";"
}

func (n *If) String() string {
	return fmt.Sprintf("if (%s) %s", n.Cond, n.Body)
}

func (n *While) String() string {
	return fmt.Sprintf("while (%s) %s", n.Cond, n.Body)
}

func (n *Return) String() string {
	if n.Value == nil {
		return "return;"
	}
	return fmt.Sprintf("return %s;", n.Value)
}

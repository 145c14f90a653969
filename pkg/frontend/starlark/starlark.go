// Package starlark translates a subset of Starlark into the jss syntax tree,
// so programs written in Python-like syntax run on the same compiler and VM.
package starlark

import (
	"errors"
	"fmt"
	"math/big"

	"go.starlark.net/syntax"

	"jss/pkg/ast"
)

var ErrUnsupported = errors.New("unsupported starlark construct")

var fileOptions = &syntax.FileOptions{
	While:           true,
	TopLevelControl: true,
	GlobalReassign:  true,
}

var binaryOps = map[syntax.Token]string{
	syntax.PLUS:    "+",
	syntax.MINUS:   "-",
	syntax.STAR:    "*",
	syntax.SLASH:   "/",
	syntax.PERCENT: "%",
	syntax.LT:      "<",
	syntax.EQL:     "==",
}

var augmentedOps = map[syntax.Token]string{
	syntax.PLUS_EQ:    "+",
	syntax.MINUS_EQ:   "-",
	syntax.STAR_EQ:    "*",
	syntax.SLASH_EQ:   "/",
	syntax.PERCENT_EQ: "%",
}

// Parse parses src (a string, []byte or io.Reader) and translates it
func Parse(filename string, src any) (*ast.Block, error) {
	file, err := fileOptions.Parse(filename, src, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}

	return translateStmts(file.Stmts)
}

func translateStmts(stmts []syntax.Stmt) (*ast.Block, error) {
	block := &ast.Block{}
	for _, s := range stmts {
		stmt, err := translateStmt(s)
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}
	return block, nil
}

func translateStmt(stmt syntax.Stmt) (ast.Statement, error) {
	switch s := stmt.(type) {
	case *syntax.ExprStmt:
		x, err := translateExpr(s.X)
		if err != nil {
			return nil, err
		}
		return &ast.Stmt{X: x}, nil

	case *syntax.AssignStmt:
		return translateAssign(s)

	case *syntax.DefStmt:
		params, err := paramNames(s.Params)
		if err != nil {
			return nil, err
		}
		body, err := translateStmts(s.Body)
		if err != nil {
			return nil, err
		}
		fn := &ast.FunctionLit{Name: s.Name.Name, Params: params, Body: body}
		return &ast.Assignment{Target: s.Name.Name, Value: fn}, nil

	case *syntax.ReturnStmt:
		if s.Result == nil {
			return &ast.Return{}, nil
		}
		x, err := translateExpr(s.Result)
		if err != nil {
			return nil, err
		}
		return &ast.Return{Value: x}, nil

	case *syntax.IfStmt:
		if len(s.False) > 0 {
			return nil, unsupported(s, "else branch")
		}
		cond, body, err := translateCondBody(s.Cond, s.True)
		if err != nil {
			return nil, err
		}
		return &ast.If{Cond: cond, Body: body}, nil

	case *syntax.WhileStmt:
		cond, body, err := translateCondBody(s.Cond, s.Body)
		if err != nil {
			return nil, err
		}
		return &ast.While{Cond: cond, Body: body}, nil

	case *syntax.BranchStmt:
		if s.Token == syntax.PASS {
			return nil, nil
		}
		return nil, unsupported(s, s.Token.String())

	default:
		return nil, unsupported(stmt, fmt.Sprintf("%T", stmt))
	}
}

func translateAssign(s *syntax.AssignStmt) (ast.Statement, error) {
	target, ok := unparen(s.LHS).(*syntax.Ident)
	if !ok {
		return nil, unsupported(s, "assignment to "+fmt.Sprintf("%T", s.LHS))
	}

	value, err := translateExpr(s.RHS)
	if err != nil {
		return nil, err
	}

	if s.Op == syntax.EQ {
		return &ast.Assignment{Target: target.Name, Value: value}, nil
	}

	// x op= e is x = x op e
	op, ok := augmentedOps[s.Op]
	if !ok {
		return nil, unsupported(s, s.Op.String())
	}
	return &ast.Assignment{
		Target: target.Name,
		Value:  &ast.BinOp{Op: op, Left: &ast.Variable{Name: target.Name}, Right: value},
	}, nil
}

func translateCondBody(c syntax.Expr, stmts []syntax.Stmt) (ast.Expr, *ast.Block, error) {
	cond, err := translateExpr(c)
	if err != nil {
		return nil, nil, err
	}
	body, err := translateStmts(stmts)
	if err != nil {
		return nil, nil, err
	}
	return cond, body, nil
}

func translateExpr(expr syntax.Expr) (ast.Expr, error) {
	switch e := expr.(type) {
	case *syntax.Literal:
		return translateLiteral(e)

	case *syntax.Ident:
		return &ast.Variable{Name: e.Name}, nil

	case *syntax.ParenExpr:
		return translateExpr(e.X)

	case *syntax.UnaryExpr:
		x, err := translateExpr(e.X)
		if err != nil {
			return nil, err
		}
		switch e.Op {
		case syntax.PLUS:
			return x, nil
		case syntax.MINUS:
			if n, ok := x.(*ast.NumberLit); ok {
				return &ast.NumberLit{Value: -n.Value}, nil
			}
			return &ast.BinOp{Op: "-", Left: &ast.NumberLit{Value: 0}, Right: x}, nil
		}
		return nil, unsupported(e, "unary "+e.Op.String())

	case *syntax.BinaryExpr:
		op, ok := binaryOps[e.Op]
		if !ok {
			return nil, unsupported(e, "operator "+e.Op.String())
		}
		left, err := translateExpr(e.X)
		if err != nil {
			return nil, err
		}
		right, err := translateExpr(e.Y)
		if err != nil {
			return nil, err
		}
		return &ast.BinOp{Op: op, Left: left, Right: right}, nil

	case *syntax.CallExpr:
		callee, err := translateExpr(e.Fn)
		if err != nil {
			return nil, err
		}
		args := make([]ast.Expr, 0, len(e.Args))
		for _, a := range e.Args {
			if bin, ok := a.(*syntax.BinaryExpr); ok && bin.Op == syntax.EQ {
				return nil, unsupported(a, "keyword argument")
			}
			if u, ok := a.(*syntax.UnaryExpr); ok && (u.Op == syntax.STAR || u.Op == syntax.STARSTAR) {
				return nil, unsupported(a, "argument unpacking")
			}
			arg, err := translateExpr(a)
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
		return &ast.Call{Callee: callee, Args: args}, nil

	case *syntax.LambdaExpr:
		params, err := paramNames(e.Params)
		if err != nil {
			return nil, err
		}
		body, err := translateExpr(e.Body)
		if err != nil {
			return nil, err
		}
		return &ast.FunctionLit{
			Name:   "lambda",
			Params: params,
			Body:   &ast.Block{Stmts: []ast.Statement{&ast.Return{Value: body}}},
		}, nil

	default:
		return nil, unsupported(expr, fmt.Sprintf("%T", expr))
	}
}

func translateLiteral(e *syntax.Literal) (ast.Expr, error) {
	switch v := e.Value.(type) {
	case int64:
		return &ast.NumberLit{Value: float64(v)}, nil
	case *big.Int:
		f, _ := new(big.Float).SetInt(v).Float64()
		return &ast.NumberLit{Value: f}, nil
	case float64:
		return &ast.NumberLit{Value: v}, nil
	case string:
		if e.Token == syntax.BYTES {
			return nil, unsupported(e, "bytes literal")
		}
		return &ast.StringLit{Value: v}, nil
	default:
		return nil, unsupported(e, fmt.Sprintf("literal %s", e.Raw))
	}
}

func paramNames(params []syntax.Expr) ([]string, error) {
	names := make([]string, 0, len(params))
	for _, p := range params {
		id, ok := p.(*syntax.Ident)
		if !ok {
			return nil, unsupported(p, "parameter form")
		}
		names = append(names, id.Name)
	}
	return names, nil
}

func unparen(e syntax.Expr) syntax.Expr {
	for {
		p, ok := e.(*syntax.ParenExpr)
		if !ok {
			return e
		}
		e = p.X
	}
}

func unsupported(n syntax.Node, what string) error {
	start, _ := n.Span()
	return fmt.Errorf("%w: %s at %s", ErrUnsupported, what, start)
}

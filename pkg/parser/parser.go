package parser

import (
	"errors"
	"fmt"
	"strconv"

	"jss/pkg/ast"
	"jss/pkg/lexer"
)

var ErrSyntax = errors.New("syntax error")

type Parser struct {
	lexer        *lexer.Lexer // lexer instance
	currentToken lexer.Token  // current token
	errors       []*Error     // list of errors
}

// NewParser creates a new parser instance
func NewParser(l *lexer.Lexer) *Parser {
	p := &Parser{
		lexer:  l,
		errors: []*Error{},
	}

	// Initialize current token
	p.nextToken()

	return p
}

// Parse parses the whole input into the top-level block. After a syntax
// error the parser skips to the next statement boundary and carries on, so
// Errors reports every broken statement.
func (p *Parser) Parse() *ast.Block {
	program := &ast.Block{}

	for p.currentToken.Type != lexer.EOF {
		before := len(p.errors)

		stmt := p.parseStatement()
		if len(p.errors) > before {
			p.synchronize()
			continue
		}

		if stmt != nil {
			program.Stmts = append(program.Stmts, stmt)
		}
	}

	return program
}

// Parse parses src. The error, if any, is the first syntax error and notes
// how many followed it.
func Parse(src string) (*ast.Block, error) {
	p := NewParser(lexer.NewLexer(src))
	program := p.Parse()

	switch len(p.errors) {
	case 0:
		return program, nil
	case 1:
		return nil, p.errors[0]
	default:
		return nil, fmt.Errorf("%w (and %d more)", p.errors[0], len(p.errors)-1)
	}
}

// parseStatement returns nil for an empty statement
func (p *Parser) parseStatement() ast.Statement {
	switch p.currentToken.Type {
	case lexer.SEMICOLON:
		p.nextToken()
		return nil

	case lexer.IF:
		p.nextToken()
		cond, body := p.parseCondBlock()
		if cond == nil {
			return nil
		}
		return &ast.If{Cond: cond, Body: body}

	case lexer.WHILE:
		p.nextToken()
		cond, body := p.parseCondBlock()
		if cond == nil {
			return nil
		}
		return &ast.While{Cond: cond, Body: body}

	case lexer.RETURN:
		p.nextToken()
		ret := &ast.Return{}
		if !p.isStatementEnd(p.currentToken.Type) {
			if ret.Value = p.parseExpr(); ret.Value == nil {
				return nil
			}
		}
		p.optionalSemicolon()
		return ret

	case lexer.FUNCTION:
		// function f(...) {...} is sugar for f = function(...) {...}
		if p.lexer.Peek().Type != lexer.ID {
			break
		}
		p.nextToken()
		name := p.currentToken.Lexeme
		p.nextToken()

		fn := p.parseFunctionRest(name)
		if fn == nil {
			return nil
		}
		return &ast.Assignment{Target: name, Value: fn}

	case lexer.ID:
		if p.lexer.Peek().Type != lexer.ASSIGN {
			break
		}
		target := p.currentToken.Lexeme
		p.nextToken() // id
		p.nextToken() // =

		value := p.parseExpr()
		if value == nil {
			return nil
		}
		p.optionalSemicolon()
		return &ast.Assignment{Target: target, Value: value}

	case lexer.RBRACE:
		p.addError("Unexpected closing brace")
		return nil
	}

	x := p.parseExpr()
	if x == nil {
		return nil
	}
	p.optionalSemicolon()
	return &ast.Stmt{X: x}
}

// parseCondBlock parses '(' expr ')' block
func (p *Parser) parseCondBlock() (ast.Expr, *ast.Block) {
	if !p.expect(lexer.LPAREN) {
		return nil, nil
	}
	if p.currentToken.Type == lexer.RPAREN {
		p.addError("Empty condition")
		return nil, nil
	}

	cond := p.parseExpr()
	if cond == nil || !p.expect(lexer.RPAREN) {
		return nil, nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil, nil
	}
	return cond, body
}

func (p *Parser) parseBlock() *ast.Block {
	if !p.expect(lexer.LBRACE) {
		return nil
	}

	block := &ast.Block{}
	for p.currentToken.Type != lexer.RBRACE {
		if p.currentToken.Type == lexer.EOF {
			p.addError("Missing closing brace")
			return nil
		}

		before := len(p.errors)
		stmt := p.parseStatement()
		if len(p.errors) > before {
			return nil
		}
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
	}
	p.nextToken()

	return block
}

// parseFunctionRest parses '(' params ')' block
func (p *Parser) parseFunctionRest(name string) *ast.FunctionLit {
	if !p.expect(lexer.LPAREN) {
		return nil
	}

	params := []string{}
	for p.currentToken.Type != lexer.RPAREN {
		if p.currentToken.Type != lexer.ID {
			p.addError(p.categorizeError(lexer.ID, p.currentToken))
			return nil
		}
		params = append(params, p.currentToken.Lexeme)
		p.nextToken()

		if p.currentToken.Type != lexer.COMMA {
			break
		}
		p.nextToken()

		if p.currentToken.Type == lexer.RPAREN {
			p.addError("Expected identifier")
			return nil
		}
	}
	if !p.expect(lexer.RPAREN) {
		return nil
	}

	body := p.parseBlock()
	if body == nil {
		return nil
	}

	return &ast.FunctionLit{Name: name, Params: params, Body: body}
}

func (p *Parser) parseExpr() ast.Expr {
	return p.parseCompare()
}

func (p *Parser) parseCompare() ast.Expr {
	return p.parseBinary(p.parseAdditive, lexer.LT, lexer.EQ)
}

func (p *Parser) parseAdditive() ast.Expr {
	return p.parseBinary(p.parseTerm, lexer.PLUS, lexer.MINUS)
}

func (p *Parser) parseTerm() ast.Expr {
	return p.parseBinary(p.parsePostfix, lexer.MULT, lexer.DIV, lexer.MOD)
}

// parseBinary parses a left-associative chain of operands joined by ops
func (p *Parser) parseBinary(operand func() ast.Expr, ops ...lexer.TokenType) ast.Expr {
	left := operand()
	if left == nil {
		return nil
	}

	for p.isOneOf(p.currentToken.Type, ops...) {
		op := p.currentToken.Lexeme
		p.nextToken()

		right := operand()
		if right == nil {
			return nil
		}
		left = &ast.BinOp{Op: op, Left: left, Right: right}
	}

	return left
}

func (p *Parser) parsePostfix() ast.Expr {
	x := p.parsePrimary()
	if x == nil {
		return nil
	}

	for p.currentToken.Type == lexer.LPAREN {
		p.nextToken()

		args := []ast.Expr{}
		for p.currentToken.Type != lexer.RPAREN {
			if p.isStatementEnd(p.currentToken.Type) {
				p.addError("Missing closing parenthesis")
				return nil
			}

			arg := p.parseExpr()
			if arg == nil {
				return nil
			}
			args = append(args, arg)

			if p.currentToken.Type != lexer.COMMA {
				break
			}
			p.nextToken()

			if p.currentToken.Type == lexer.RPAREN {
				p.addError("Missing expression")
				return nil
			}
		}
		if !p.expect(lexer.RPAREN) {
			return nil
		}

		x = &ast.Call{Callee: x, Args: args}
	}

	return x
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.currentToken

	switch tok.Type {
	case lexer.NUM:
		f, err := strconv.ParseFloat(tok.Literal, 64)
		if err != nil {
			p.addError("Invalid number " + tok.Lexeme)
			return nil
		}
		p.nextToken()
		return &ast.NumberLit{Value: f}

	case lexer.STRING:
		p.nextToken()
		return &ast.StringLit{Value: tok.Literal}

	case lexer.ID:
		p.nextToken()
		return &ast.Variable{Name: tok.Lexeme}

	case lexer.LPAREN:
		p.nextToken()
		x := p.parseExpr()
		if x == nil || !p.expect(lexer.RPAREN) {
			return nil
		}
		return x

	case lexer.FUNCTION:
		p.nextToken()
		if p.currentToken.Type == lexer.ID {
			p.addError("Named function in expression position")
			return nil
		}
		if fn := p.parseFunctionRest(""); fn != nil {
			return fn
		}
		return nil
	}

	p.addError(p.categorizeError(lexer.NUM, tok))
	return nil
}

// expect consumes the current token if it has type t and reports an error
// otherwise
func (p *Parser) expect(t lexer.TokenType) bool {
	if p.currentToken.Type != t {
		p.addError(p.categorizeError(t, p.currentToken))
		return false
	}

	p.nextToken()
	return true
}

func (p *Parser) optionalSemicolon() {
	if p.currentToken.Type == lexer.SEMICOLON {
		p.nextToken()
	}
}

// synchronize skips tokens until just past the next ';' or '}', or to the
// end of input
func (p *Parser) synchronize() {
	for p.currentToken.Type != lexer.EOF {
		t := p.currentToken.Type
		p.nextToken()

		if t == lexer.SEMICOLON || t == lexer.RBRACE {
			return
		}
	}
}

// nextToken advances to the next token from the lexer
func (p *Parser) nextToken() {
	p.currentToken = p.lexer.NextToken()
}

func (p *Parser) isOneOf(t lexer.TokenType, types ...lexer.TokenType) bool {
	for _, tt := range types {
		if t == tt {
			return true
		}
	}
	return false
}

package parser

import (
	"fmt"

	"jss/pkg/color"
	"jss/pkg/lexer"
)

// Error is a syntax error at a source position. It matches ErrSyntax.
type Error struct {
	Msg string
	Pos lexer.Position
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s at line %d, column %d", e.Msg, e.Pos.Line, e.Pos.Column)
}

func (e *Error) Unwrap() error {
	return ErrSyntax
}

// addError records a parsing error at the current token
func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &Error{Msg: msg, Pos: p.currentToken.Pos})
}

// Errors returns the list of parsing errors, formatted for the terminal
func (p *Parser) Errors() []string {
	out := make([]string, len(p.errors))
	for i, e := range p.errors {
		out[i] = color.RedText(e.Msg) + " at " + color.YellowText(fmt.Sprintf("Line: %d, Column %d", e.Pos.Line, e.Pos.Column))
	}
	return out
}

// isStatementEnd checks if a token type ends the current statement
func (p *Parser) isStatementEnd(t lexer.TokenType) bool {
	switch t {
	case lexer.SEMICOLON, lexer.RBRACE, lexer.EOF:
		return true
	default:
		return false
	}
}

// categorizeError provides a specific error message based on the expected
// token type and the current token. NUM stands for any expression.
func (p *Parser) categorizeError(expected lexer.TokenType, current lexer.Token) string {
	// Delimiters
	switch expected {
	case lexer.RPAREN:
		return "Missing closing parenthesis"
	case lexer.RBRACE:
		return "Missing closing brace"
	case lexer.LBRACE:
		return "Missing opening brace"
	case lexer.LPAREN:
		if current.Type == lexer.LBRACE {
			return "Wrong bracket type - expected parenthesis"
		}
		return "Missing opening parenthesis"
	}

	if current.Type == lexer.ILLEGAL {
		return fmt.Sprintf("Illegal character '%s'", current.Lexeme)
	}

	switch expected {
	case lexer.ID:
		if current.Type.GetCategory() == lexer.KEYWORD {
			return "Cannot use reserved keyword as identifier"
		}
		return "Expected identifier"
	case lexer.NUM:
		if p.isStatementEnd(current.Type) || current.Type == lexer.RPAREN || current.Type == lexer.COMMA {
			return "Missing expression"
		}
		return fmt.Sprintf("Unexpected token '%s'", current.Lexeme)
	}

	return "Syntax error"
}

// Package parser builds the program tree from a token stream.
//
// Expressions are parsed into flat term lists; precedence is left for the
// evaluator to resolve. The parser's job is purely structural: statements,
// blocks, literals, and tagging each operator token with the right term.
package parser

import (
	"fmt"
	"strconv"

	"github.com/rafibayer/puffin/internal/ast"
	"github.com/rafibayer/puffin/internal/lexer"
	"github.com/rafibayer/puffin/internal/token"
)

type Parser struct {
	l      *lexer.Lexer
	errors []string

	curToken  token.Token
	peekToken token.Token
}

func New(l *lexer.Lexer) *Parser {
	p := &Parser{l: l}

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

func (p *Parser) Errors() []string {
	return p.errors
}

func (p *Parser) nextToken() {
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
}

func (p *Parser) curTokenIs(t token.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t token.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t token.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t token.TokenType) {
	line, column := p.l.LineAndColumn(p.peekToken.Position)
	p.errorf("expected next token to be %s, got %s instead (line %d, column %d)",
		t, p.peekToken.Type, line, column)
}

func (p *Parser) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

// sync skips ahead to the end of the current statement after a parse
// error so that later statements can still be reported on.
func (p *Parser) sync() {
	for !p.curTokenIs(token.SEMICOLON) && !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		p.nextToken()
	}
}

func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}

	for !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		p.nextToken()
	}

	return program
}

// parseStatement leaves curToken on the last token of the statement: the
// trailing semicolon, or the closing brace of a block statement.
func (p *Parser) parseStatement() ast.Statement {
	switch p.curToken.Type {
	case token.RETURN:
		return p.parseReturnStatement()
	case token.IF:
		return p.parseIfStatement()
	case token.WHILE:
		return p.parseWhileStatement()
	case token.FOR:
		return p.parseForStatement()
	default:
		stmt := p.parseSimpleStatement()
		if stmt == nil {
			p.sync()
			return nil
		}
		if !p.curTokenIs(token.SEMICOLON) {
			p.errorf("expected ; after statement, got %s instead", p.curToken.Type)
			p.sync()
			return nil
		}
		return stmt
	}
}

func (p *Parser) parseReturnStatement() ast.Statement {
	stmt := &ast.ReturnStatement{Token: p.curToken}

	p.nextToken()
	stmt.Value = p.parseExp()
	if stmt.Value == nil {
		p.sync()
		return nil
	}
	if !p.curTokenIs(token.SEMICOLON) {
		p.errorf("expected ; after return, got %s instead", p.curToken.Type)
		p.sync()
		return nil
	}

	return stmt
}

func (p *Parser) parseIfStatement() ast.Statement {
	stmt := &ast.IfStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Cond = p.parseExp()
	if stmt.Cond == nil || !p.requireCur(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Then = p.parseBlock()

	if p.peekTokenIs(token.ELSE) {
		p.nextToken()
		if p.peekTokenIs(token.IF) {
			// else-if chains nest as a single-statement else block
			p.nextToken()
			nested := p.parseIfStatement()
			if nested == nil {
				return nil
			}
			stmt.Else = &ast.Block{Token: p.curToken, Statements: []ast.Statement{nested}}
			return stmt
		}
		if !p.expectPeek(token.LBRACE) {
			return nil
		}
		stmt.Else = p.parseBlock()
	}

	return stmt
}

func (p *Parser) parseWhileStatement() ast.Statement {
	stmt := &ast.WhileStatement{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()
	stmt.Cond = p.parseExp()
	if stmt.Cond == nil || !p.requireCur(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Block = p.parseBlock()

	return stmt
}

func (p *Parser) parseForStatement() ast.Statement {
	forToken := p.curToken

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	p.nextToken()

	if p.curTokenIs(token.IDENT) && p.peekTokenIs(token.IN) {
		return p.parseForInStatement(forToken)
	}

	stmt := &ast.ForStatement{Token: forToken}

	stmt.Init = p.parseSimpleStatement()
	if stmt.Init == nil || !p.requireCur(token.SEMICOLON) {
		return nil
	}
	p.nextToken()

	stmt.Cond = p.parseExp()
	if stmt.Cond == nil || !p.requireCur(token.SEMICOLON) {
		return nil
	}
	p.nextToken()

	stmt.Advance = p.parseSimpleStatement()
	if stmt.Advance == nil || !p.requireCur(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Block = p.parseBlock()

	return stmt
}

func (p *Parser) parseForInStatement(forToken token.Token) ast.Statement {
	stmt := &ast.ForInStatement{Token: forToken, Name: p.curToken.Literal}

	p.nextToken() // the in keyword
	p.nextToken()
	stmt.Array = p.parseExp()
	if stmt.Array == nil || !p.requireCur(token.RPAREN) {
		return nil
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	stmt.Block = p.parseBlock()

	return stmt
}

// parseSimpleStatement parses an assignment or a bare expression
// statement, leaving curToken on the terminator. It is shared with the
// init and advance clauses of C-style for loops, which end on ; and )
// instead of ;.
func (p *Parser) parseSimpleStatement() ast.Statement {
	first := p.curToken

	exp := p.parseExp()
	if exp == nil {
		return nil
	}

	switch p.curToken.Type {
	case token.ASSIGN:
		target := p.toAssignable(exp, first)
		if target == nil {
			return nil
		}
		assignToken := p.curToken
		p.nextToken()
		value := p.parseExp()
		if value == nil {
			return nil
		}
		return &ast.AssignStatement{Token: assignToken, Target: target, Value: value}
	case token.PLUS_ASSIGN, token.MINUS_ASSIGN, token.ASTERISK_ASSIGN,
		token.SLASH_ASSIGN, token.PERCENT_ASSIGN:
		return p.parseCompoundAssign(exp, first)
	default:
		return &ast.ExpStatement{Token: first, Value: exp}
	}
}

var compoundOps = map[token.TokenType]ast.InfixOp{
	token.PLUS_ASSIGN:     ast.InfixPlus,
	token.MINUS_ASSIGN:    ast.InfixMinus,
	token.ASTERISK_ASSIGN: ast.InfixMul,
	token.SLASH_ASSIGN:    ast.InfixDiv,
	token.PERCENT_ASSIGN:  ast.InfixMod,
}

// parseCompoundAssign rewrites `target op= rhs` into
// `target = target op (rhs)`. The parens around rhs keep its operators
// from rebinding against the target terms.
func (p *Parser) parseCompoundAssign(lhs *ast.Exp, first token.Token) ast.Statement {
	target := p.toAssignable(lhs, first)
	if target == nil {
		return nil
	}
	assignToken := p.curToken
	op := compoundOps[assignToken.Type]

	p.nextToken()
	rhs := p.parseExp()
	if rhs == nil {
		return nil
	}

	terms := make([]ast.Term, 0, len(lhs.Terms)+2)
	terms = append(terms, lhs.Terms...)
	terms = append(terms,
		&ast.InfixTerm{Token: assignToken, Op: op},
		&ast.ParenTerm{Token: assignToken, Exp: rhs})

	return &ast.AssignStatement{Token: assignToken, Target: target, Value: &ast.Exp{Terms: terms}}
}

// toAssignable converts an already-parsed expression into an assignment
// target: a base name followed only by subscript and field steps.
func (p *Parser) toAssignable(exp *ast.Exp, first token.Token) *ast.Assignable {
	if len(exp.Terms) == 0 {
		p.errorf("invalid assignment target")
		return nil
	}
	name, ok := exp.Terms[0].(*ast.NameTerm)
	if !ok {
		p.errorf("invalid assignment target %q", exp.Terms[0].String())
		return nil
	}

	target := &ast.Assignable{Token: first, Name: name.Name}
	for _, term := range exp.Terms[1:] {
		switch t := term.(type) {
		case *ast.SubscriptTerm:
			target.Steps = append(target.Steps, &ast.IndexStep{Token: t.Token, Index: t.Index})
		case *ast.DotTerm:
			target.Steps = append(target.Steps, &ast.FieldStep{Token: t.Token, Field: t.Field})
		default:
			p.errorf("invalid assignment target %q", exp.String())
			return nil
		}
	}

	return target
}

// parseBlock parses `{ stmt* }`, entering on the opening brace and
// leaving curToken on the closing brace.
func (p *Parser) parseBlock() *ast.Block {
	block := &ast.Block{Token: p.curToken}

	p.nextToken()
	for !p.curTokenIs(token.RBRACE) && !p.curTokenIs(token.EOF) {
		stmt := p.parseStatement()
		if stmt != nil {
			block.Statements = append(block.Statements, stmt)
		}
		p.nextToken()
	}

	if p.curTokenIs(token.EOF) {
		p.errorf("unterminated block, expected }")
	}

	return block
}

var infixOps = map[token.TokenType]ast.InfixOp{
	token.PLUS:        ast.InfixPlus,
	token.MINUS:       ast.InfixMinus,
	token.ASTERISK:    ast.InfixMul,
	token.SLASH:       ast.InfixDiv,
	token.PERCENT:     ast.InfixMod,
	token.LT:          ast.InfixLt,
	token.GT:          ast.InfixGt,
	token.LT_EQ:       ast.InfixLe,
	token.GT_EQ:       ast.InfixGe,
	token.EQ:          ast.InfixEq,
	token.NOT_EQ:      ast.InfixNe,
	token.LOGICAL_AND: ast.InfixAnd,
	token.LOGICAL_OR:  ast.InfixOr,
}

// parseExp collects terms until a token that cannot continue the
// expression, leaving curToken on that terminator. Whether a token like
// ( [ or - is a prefix form or a postfix/infix form depends on whether
// the previous term produced a value. Two value terms may never sit side
// by side, and an infix operator needs a value to its left; both shapes
// are parse errors here so that every term list reduces to exactly one
// value.
func (p *Parser) parseExp() *ast.Exp {
	exp := &ast.Exp{}
	prevIsValue := false

	for {
		switch p.curToken.Type {
		case token.NUMBER:
			if !p.checkValueTerm(prevIsValue) {
				return nil
			}
			value, err := strconv.ParseFloat(p.curToken.Literal, 64)
			if err != nil {
				p.errorf("could not parse %q as a number", p.curToken.Literal)
				return nil
			}
			exp.Terms = append(exp.Terms, &ast.NumTerm{Token: p.curToken, Value: value})
			prevIsValue = true
			p.nextToken()
		case token.STRING:
			if !p.checkValueTerm(prevIsValue) {
				return nil
			}
			exp.Terms = append(exp.Terms, &ast.StringTerm{Token: p.curToken, Value: p.curToken.Literal})
			prevIsValue = true
			p.nextToken()
		case token.NULL:
			if !p.checkValueTerm(prevIsValue) {
				return nil
			}
			exp.Terms = append(exp.Terms, &ast.NullTerm{Token: p.curToken})
			prevIsValue = true
			p.nextToken()
		case token.IDENT:
			if !p.checkValueTerm(prevIsValue) {
				return nil
			}
			exp.Terms = append(exp.Terms, &ast.NameTerm{Token: p.curToken, Name: p.curToken.Literal})
			prevIsValue = true
			p.nextToken()
		case token.FUNCTION:
			if !p.checkValueTerm(prevIsValue) {
				return nil
			}
			fn := p.parseFunctionTerm()
			if fn == nil {
				return nil
			}
			exp.Terms = append(exp.Terms, fn)
			prevIsValue = true
			p.nextToken()
		case token.LPAREN:
			var term ast.Term
			if prevIsValue {
				term = p.parseCallTerm()
			} else {
				term = p.parseParenTerm()
			}
			if term == nil {
				return nil
			}
			exp.Terms = append(exp.Terms, term)
			prevIsValue = true
		case token.LBRACKET:
			var term ast.Term
			if prevIsValue {
				term = p.parseSubscriptTerm()
			} else {
				term = p.parseArrayTerm()
			}
			if term == nil {
				return nil
			}
			exp.Terms = append(exp.Terms, term)
			prevIsValue = true
		case token.LBRACE:
			if prevIsValue {
				return p.finishExp(exp)
			}
			term := p.parseStructureTerm()
			if term == nil {
				return nil
			}
			exp.Terms = append(exp.Terms, term)
			prevIsValue = true
		case token.PERIOD:
			if !p.checkOperand(prevIsValue) {
				return nil
			}
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			exp.Terms = append(exp.Terms, &ast.DotTerm{Token: p.curToken, Field: p.curToken.Literal})
			prevIsValue = true
			p.nextToken()
		case token.BANG:
			if !p.checkValueTerm(prevIsValue) {
				return nil
			}
			exp.Terms = append(exp.Terms, &ast.UnaryTerm{Token: p.curToken, Op: ast.UnaryNot})
			prevIsValue = false
			p.nextToken()
		case token.MINUS:
			if prevIsValue {
				exp.Terms = append(exp.Terms, &ast.InfixTerm{Token: p.curToken, Op: ast.InfixMinus})
			} else {
				exp.Terms = append(exp.Terms, &ast.UnaryTerm{Token: p.curToken, Op: ast.UnaryNeg})
			}
			prevIsValue = false
			p.nextToken()
		case token.PLUS, token.ASTERISK, token.SLASH, token.PERCENT,
			token.LT, token.GT, token.LT_EQ, token.GT_EQ,
			token.EQ, token.NOT_EQ, token.LOGICAL_AND, token.LOGICAL_OR:
			if !p.checkOperand(prevIsValue) {
				return nil
			}
			exp.Terms = append(exp.Terms, &ast.InfixTerm{Token: p.curToken, Op: infixOps[p.curToken.Type]})
			prevIsValue = false
			p.nextToken()
		default:
			return p.finishExp(exp)
		}
	}
}

// checkValueTerm rejects a value or prefix term arriving directly after
// another value, e.g. `1 2`.
func (p *Parser) checkValueTerm(prevIsValue bool) bool {
	if prevIsValue {
		line, column := p.l.LineAndColumn(p.curToken.Position)
		p.errorf("unexpected %s after a value (line %d, column %d)",
			p.curToken.Type, line, column)
		return false
	}
	return true
}

// checkOperand rejects an infix or field operator with nothing to its
// left, e.g. `+ 1` or `1 + + 2`.
func (p *Parser) checkOperand(prevIsValue bool) bool {
	if !prevIsValue {
		line, column := p.l.LineAndColumn(p.curToken.Position)
		p.errorf("operator %s is missing a left operand (line %d, column %d)",
			p.curToken.Type, line, column)
		return false
	}
	return true
}

func (p *Parser) finishExp(exp *ast.Exp) *ast.Exp {
	if len(exp.Terms) == 0 {
		p.errorf("expected expression, got %s instead", p.curToken.Type)
		return nil
	}
	last := exp.Terms[len(exp.Terms)-1]
	switch last.(type) {
	case *ast.UnaryTerm, *ast.InfixTerm:
		p.errorf("expression ends with operator %q", last.String())
		return nil
	}
	return exp
}

// parseParenTerm parses a grouped sub-expression, entering on ( and
// leaving curToken past the closing ).
func (p *Parser) parseParenTerm() ast.Term {
	term := &ast.ParenTerm{Token: p.curToken}

	p.nextToken()
	term.Exp = p.parseExp()
	if term.Exp == nil || !p.requireCur(token.RPAREN) {
		return nil
	}
	p.nextToken()

	return term
}

// parseCallTerm parses a postfix argument list, entering on ( and
// leaving curToken past the closing ).
func (p *Parser) parseCallTerm() ast.Term {
	term := &ast.CallTerm{Token: p.curToken}

	p.nextToken()
	if !p.curTokenIs(token.RPAREN) {
		for {
			arg := p.parseExp()
			if arg == nil {
				return nil
			}
			term.Args = append(term.Args, arg)
			if !p.curTokenIs(token.COMMA) {
				break
			}
			p.nextToken()
		}
	}
	if !p.requireCur(token.RPAREN) {
		return nil
	}
	p.nextToken()

	return term
}

// parseSubscriptTerm parses a postfix index, entering on [ and leaving
// curToken past the closing ].
func (p *Parser) parseSubscriptTerm() ast.Term {
	term := &ast.SubscriptTerm{Token: p.curToken}

	p.nextToken()
	term.Index = p.parseExp()
	if term.Index == nil || !p.requireCur(token.RBRACKET) {
		return nil
	}
	p.nextToken()

	return term
}

// parseArrayTerm parses an array initializer, either `[size]` or
// `[from:to]`, entering on [ and leaving curToken past the closing ].
func (p *Parser) parseArrayTerm() ast.Term {
	lbracket := p.curToken

	p.nextToken()
	first := p.parseExp()
	if first == nil {
		return nil
	}

	if p.curTokenIs(token.COLON) {
		p.nextToken()
		to := p.parseExp()
		if to == nil || !p.requireCur(token.RBRACKET) {
			return nil
		}
		p.nextToken()
		return &ast.ArrayRangeTerm{Token: lbracket, From: first, To: to}
	}

	if !p.requireCur(token.RBRACKET) {
		return nil
	}
	p.nextToken()

	return &ast.ArraySizeTerm{Token: lbracket, Size: first}
}

// parseStructureTerm parses `{name: exp, ...}`, entering on { and
// leaving curToken past the closing }.
func (p *Parser) parseStructureTerm() ast.Term {
	term := &ast.StructureTerm{Token: p.curToken}

	p.nextToken()
	for !p.curTokenIs(token.RBRACE) {
		if !p.curTokenIs(token.IDENT) {
			p.errorf("expected field name in structure literal, got %s instead", p.curToken.Type)
			return nil
		}
		name := p.curToken.Literal
		if !p.expectPeek(token.COLON) {
			return nil
		}
		p.nextToken()
		value := p.parseExp()
		if value == nil {
			return nil
		}
		term.Fields = append(term.Fields, ast.StructureField{Name: name, Value: value})

		if p.curTokenIs(token.COMMA) {
			p.nextToken()
			continue
		}
		break
	}
	if !p.requireCur(token.RBRACE) {
		return nil
	}
	p.nextToken()

	return term
}

// parseFunctionTerm parses `fn(params) { body }`, entering on fn and
// leaving curToken on the closing brace of the body.
func (p *Parser) parseFunctionTerm() ast.Term {
	term := &ast.FunctionTerm{Token: p.curToken}

	if !p.expectPeek(token.LPAREN) {
		return nil
	}
	if p.peekTokenIs(token.RPAREN) {
		p.nextToken()
	} else {
		if !p.expectPeek(token.IDENT) {
			return nil
		}
		term.Params = append(term.Params, p.curToken.Literal)
		for p.peekTokenIs(token.COMMA) {
			p.nextToken()
			if !p.expectPeek(token.IDENT) {
				return nil
			}
			term.Params = append(term.Params, p.curToken.Literal)
		}
		if !p.expectPeek(token.RPAREN) {
			return nil
		}
	}
	if !p.expectPeek(token.LBRACE) {
		return nil
	}
	term.Body = p.parseBlock()

	return term
}

func (p *Parser) requireCur(t token.TokenType) bool {
	if p.curTokenIs(t) {
		return true
	}
	line, column := p.l.LineAndColumn(p.curToken.Position)
	p.errorf("expected %s, got %s instead (line %d, column %d)",
		t, p.curToken.Type, line, column)
	return false
}

// Package parser provides the MiniSQL lexer and recursive-descent parser.
//
// # Usage
//
//	actx, stmts, diags := parser.Parse("SELECT name FROM t WHERE math >= 60;")
//	if diags.HasErrors() {
//	    // render diags against actx.Source
//	}
//
// # Grammar Overview
//
//	sql_stmt    → select_stmt | insert_stmt | update_stmt | delete_stmt
//	select_stmt → SELECT select_list FROM ident [WHERE cond] [ORDER BY order_list] ";"
//	insert_stmt → INSERT INTO ident VALUES "(" value_list ")" ";"
//	update_stmt → UPDATE ident SET ident "=" value ("," ident "=" value)* [WHERE cond] ";"
//	delete_stmt → DELETE FROM ident [WHERE cond] ";"
//	select_list → "*" | item ("," item)*
//	order_list  → ident [ASC|DESC] ("," ident [ASC|DESC])*
//
// Expression precedence, loosest first: OR, AND, comparison/LIKE, additive,
// multiplicative, unary, primary. See expr.go.
package parser

import (
	"fmt"

	"github.com/leapstack-labs/minisql/pkg/ast"
	"github.com/leapstack-labs/minisql/pkg/diag"
	"github.com/leapstack-labs/minisql/pkg/token"
)

// Parser builds AST nodes from a token stream.
type Parser struct {
	src   string
	toks  []token.Token
	pos   int
	ctx   *ast.Context
	diags diag.List
}

// NewParser creates a parser over already-lexed tokens. Nodes are stored in
// ctx, whose Source must be the text the tokens were produced from.
func NewParser(ctx *ast.Context, toks []token.Token) *Parser {
	return &Parser{src: ctx.Source, toks: toks, ctx: ctx}
}

// Parse lexes and parses every statement in text. Each failing statement
// contributes one diagnostic and parsing resumes after its next ';'.
func Parse(text string) (*ast.Context, []ast.StmtRef, diag.List) {
	ctx := ast.NewContext(text)
	toks, lexErr := Lex(text)
	if lexErr != nil {
		return ctx, nil, diag.List{*lexErr}
	}
	p := NewParser(ctx, toks)
	var stmts []ast.StmtRef
	for {
		p.skipSemicolons()
		if p.AtEnd() {
			break
		}
		if ref, ok := p.ParseStmt(); ok {
			stmts = append(stmts, ref)
		}
	}
	return ctx, stmts, p.diags
}

// Diagnostics returns every diagnostic reported so far.
func (p *Parser) Diagnostics() diag.List {
	return p.diags
}

// AtEnd reports whether all input has been consumed.
func (p *Parser) AtEnd() bool {
	return p.token().Kind == token.EOF
}

// ParseStmt parses one statement. On failure it records a diagnostic,
// skips past the next ';' and returns false.
func (p *Parser) ParseStmt() (ast.StmtRef, bool) {
	stmt, err := p.parseStatement()
	if err != nil {
		p.diags = append(p.diags, *err)
		p.synchronize()
		return 0, false
	}
	return p.ctx.AddStmt(stmt), true
}

// ---------- Token Helpers ----------

// token returns the current token. A stream cut short by a '#' comment has
// no EOF token, so one is synthesised at the end of the source.
func (p *Parser) token() token.Token {
	if p.pos < len(p.toks) {
		return p.toks[p.pos]
	}
	return token.Token{Kind: token.EOF, Begin: len(p.src), End: len(p.src)}
}

// peek returns the token after the current one.
func (p *Parser) peek() token.Token {
	if p.pos+1 < len(p.toks) {
		return p.toks[p.pos+1]
	}
	return token.Token{Kind: token.EOF, Begin: len(p.src), End: len(p.src)}
}

// nextToken advances to the next token and returns the one it left.
func (p *Parser) nextToken() token.Token {
	tok := p.token()
	if p.pos < len(p.toks) {
		p.pos++
	}
	return tok
}

// check returns true if the current token is of the given kind.
func (p *Parser) check(k token.Kind) bool {
	return p.token().Kind == k
}

// match consumes the current token if it matches and returns true.
func (p *Parser) match(k token.Kind) bool {
	if p.check(k) {
		p.nextToken()
		return true
	}
	return false
}

// expect consumes the current token if it matches, otherwise returns an
// error spanning the offending token.
func (p *Parser) expect(k token.Kind, what string) (token.Token, *diag.Diagnostic) {
	if p.check(k) {
		return p.nextToken(), nil
	}
	return token.Token{}, p.errorf(ErrUnexpectedToken, p.describe(p.token()), what)
}

// errorf creates an error diagnostic at the current token.
func (p *Parser) errorf(format string, args ...any) *diag.Diagnostic {
	d := diag.Errorf(p.span(p.token()), format, args...)
	return &d
}

func (p *Parser) span(tok token.Token) diag.Span {
	return diag.Span{Begin: tok.Begin, End: tok.End}
}

// describe renders a token for messages: keywords and operators by their
// spelling, identifiers and literals with their text.
func (p *Parser) describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return tok.Kind.String()
	case token.IDENT, token.INT, token.FLOAT, token.STRING:
		return fmt.Sprintf("%s %s", tok.Kind, tok.Text(p.src))
	default:
		return fmt.Sprintf("'%s'", tok.Kind)
	}
}

func (p *Parser) skipSemicolons() {
	for p.match(token.SEMICOLON) {
	}
}

// synchronize skips to just after the next ';' (or to the end of input).
func (p *Parser) synchronize() {
	for !p.AtEnd() {
		if p.nextToken().Kind == token.SEMICOLON {
			return
		}
	}
}

// lastEnd returns the end offset of the most recently consumed token.
func (p *Parser) lastEnd() int {
	if p.pos == 0 {
		return 0
	}
	return p.toks[p.pos-1].End
}

func (p *Parser) ident(what string) (ast.Ident, *diag.Diagnostic) {
	tok, err := p.expect(token.IDENT, what)
	if err != nil {
		return ast.Ident{}, err
	}
	return ast.Ident{Name: tok.Text(p.src), Loc: p.span(tok)}, nil
}

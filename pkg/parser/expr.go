package parser

import (
	"strconv"

	"github.com/leapstack-labs/minisql/pkg/ast"
	"github.com/leapstack-labs/minisql/pkg/diag"
	"github.com/leapstack-labs/minisql/pkg/token"
)

// Expression grammar:
//
//	cond       → or_expr
//	or_expr    → and_expr (OR and_expr)*
//	and_expr   → comparison (AND comparison)*
//	comparison → add_expr (("="|"!="|"<"|"<="|">"|">="|LIKE) add_expr)?
//	add_expr   → mul_expr (("+"|"-") mul_expr)*
//	mul_expr   → unary (("*"|"/") unary)*
//	unary      → ("+"|"-")? primary
//	primary    → ident | ident "(" cond_list ")" | number | string | "(" cond ")"

func (p *Parser) parseCond() (ast.ExprRef, *diag.Diagnostic) {
	return p.parseOr()
}

func (p *Parser) parseOr() (ast.ExprRef, *diag.Diagnostic) {
	lhs, err := p.parseAnd()
	if err != nil {
		return ast.NoExpr, err
	}
	for p.check(token.OR) {
		p.nextToken()
		rhs, err := p.parseAnd()
		if err != nil {
			return ast.NoExpr, err
		}
		lhs = p.binary(token.OR, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseAnd() (ast.ExprRef, *diag.Diagnostic) {
	lhs, err := p.parseComparison()
	if err != nil {
		return ast.NoExpr, err
	}
	for p.check(token.AND) {
		p.nextToken()
		rhs, err := p.parseComparison()
		if err != nil {
			return ast.NoExpr, err
		}
		lhs = p.binary(token.AND, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseComparison() (ast.ExprRef, *diag.Diagnostic) {
	lhs, err := p.parseAdditive()
	if err != nil {
		return ast.NoExpr, err
	}
	if !token.IsComparison(p.token().Kind) {
		return lhs, nil
	}
	op := p.nextToken().Kind
	rhs, err := p.parseAdditive()
	if err != nil {
		return ast.NoExpr, err
	}
	return p.binary(op, lhs, rhs), nil
}

func (p *Parser) parseAdditive() (ast.ExprRef, *diag.Diagnostic) {
	lhs, err := p.parseMultiplicative()
	if err != nil {
		return ast.NoExpr, err
	}
	for p.check(token.PLUS) || p.check(token.MINUS) {
		op := p.nextToken().Kind
		rhs, err := p.parseMultiplicative()
		if err != nil {
			return ast.NoExpr, err
		}
		lhs = p.binary(op, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseMultiplicative() (ast.ExprRef, *diag.Diagnostic) {
	lhs, err := p.parseUnary()
	if err != nil {
		return ast.NoExpr, err
	}
	for p.check(token.STAR) || p.check(token.SLASH) {
		op := p.nextToken().Kind
		rhs, err := p.parseUnary()
		if err != nil {
			return ast.NoExpr, err
		}
		lhs = p.binary(op, lhs, rhs)
	}
	return lhs, nil
}

func (p *Parser) parseUnary() (ast.ExprRef, *diag.Diagnostic) {
	if !p.check(token.PLUS) && !p.check(token.MINUS) {
		return p.parsePrimary()
	}
	opTok := p.nextToken()
	operand, err := p.parsePrimary()
	if err != nil {
		return ast.NoExpr, err
	}
	span := diag.Span{Begin: opTok.Begin, End: p.ctx.Expr(operand).Span().End}
	return p.ctx.AddExpr(&ast.UnaryExpr{NodeInfo: ast.NodeInfo{Loc: span}, Op: opTok.Kind, Operand: operand}), nil
}

func (p *Parser) parsePrimary() (ast.ExprRef, *diag.Diagnostic) {
	tok := p.token()
	info := ast.NodeInfo{Loc: p.span(tok)}
	text := tok.Text(p.src)

	switch tok.Kind {
	case token.IDENT:
		p.nextToken()
		if p.check(token.LPAREN) {
			return p.parseCall(ast.Ident{Name: text, Loc: info.Loc})
		}
		return p.ctx.AddExpr(&ast.Identifier{NodeInfo: info, Name: text}), nil

	case token.INT:
		v, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return ast.NoExpr, p.errorf(ErrIntOutOfRange, text)
		}
		p.nextToken()
		return p.ctx.AddExpr(&ast.IntLiteral{NodeInfo: info, Value: v}), nil

	case token.FLOAT:
		v, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return ast.NoExpr, p.errorf("invalid float literal %s", text)
		}
		p.nextToken()
		return p.ctx.AddExpr(&ast.FloatLiteral{NodeInfo: info, Value: v}), nil

	case token.STRING:
		p.nextToken()
		return p.ctx.AddExpr(&ast.StringLiteral{NodeInfo: info, Value: unquote(text)}), nil

	case token.LPAREN:
		p.nextToken()
		inner, err := p.parseCond()
		if err != nil {
			return ast.NoExpr, err
		}
		if err := p.closeParen(); err != nil {
			return ast.NoExpr, err
		}
		return inner, nil

	default:
		return ast.NoExpr, p.errorf(ErrExpectedExpression, p.describe(tok))
	}
}

// parseCall parses the argument list of callee "(" [cond ("," cond)*] ")".
func (p *Parser) parseCall(callee ast.Ident) (ast.ExprRef, *diag.Diagnostic) {
	p.nextToken() // (
	call := &ast.CallExpr{Callee: callee}
	if !p.check(token.RPAREN) {
		for {
			arg, err := p.parseCond()
			if err != nil {
				return ast.NoExpr, err
			}
			call.Args = append(call.Args, arg)
			if !p.match(token.COMMA) {
				break
			}
		}
	}
	if err := p.closeParen(); err != nil {
		return ast.NoExpr, err
	}
	call.Loc = diag.Span{Begin: callee.Loc.Begin, End: p.lastEnd()}
	return p.ctx.AddExpr(call), nil
}

func (p *Parser) binary(op token.Kind, lhs, rhs ast.ExprRef) ast.ExprRef {
	span := p.ctx.Expr(lhs).Span().Join(p.ctx.Expr(rhs).Span())
	return p.ctx.AddExpr(&ast.BinaryExpr{NodeInfo: ast.NodeInfo{Loc: span}, Op: op, LHS: lhs, RHS: rhs})
}

package parser

import (
	"github.com/leapstack-labs/minisql/pkg/ast"
	"github.com/leapstack-labs/minisql/pkg/diag"
	"github.com/leapstack-labs/minisql/pkg/token"
)

// parseStatement dispatches on the leading keyword.
func (p *Parser) parseStatement() (ast.Stmt, *diag.Diagnostic) {
	start := p.token().Begin
	var (
		stmt ast.Stmt
		err  *diag.Diagnostic
	)
	switch p.token().Kind {
	case token.SELECT:
		stmt, err = p.parseSelect()
	case token.INSERT:
		stmt, err = p.parseInsert()
	case token.UPDATE:
		stmt, err = p.parseUpdate()
	case token.DELETE:
		stmt, err = p.parseDelete()
	default:
		return nil, p.errorf(ErrExpectedStatement, p.describe(p.token()))
	}
	if err != nil {
		return nil, err
	}
	if err := p.terminate(); err != nil {
		return nil, err
	}
	setSpan(stmt, diag.Span{Begin: start, End: p.lastEnd()})
	return stmt, nil
}

// terminate consumes the closing ';'. A missing ';' before the end of input
// or before the next statement is only a warning.
func (p *Parser) terminate() *diag.Diagnostic {
	if p.match(token.SEMICOLON) {
		return nil
	}
	switch p.token().Kind {
	case token.EOF, token.SELECT, token.INSERT, token.UPDATE, token.DELETE:
		p.diags = append(p.diags, diag.Warningf(p.span(p.token()), ErrMissingSemicolon))
		return nil
	}
	return p.errorf(ErrUnexpectedToken, p.describe(p.token()), "';'")
}

func setSpan(s ast.Stmt, span diag.Span) {
	switch s := s.(type) {
	case *ast.SelectStmt:
		s.Loc = span
	case *ast.InsertStmt:
		s.Loc = span
	case *ast.UpdateStmt:
		s.Loc = span
	case *ast.DeleteStmt:
		s.Loc = span
	}
}

// parseSelect parses SELECT select_list FROM ident [WHERE cond] [ORDER BY order_list].
func (p *Parser) parseSelect() (*ast.SelectStmt, *diag.Diagnostic) {
	p.nextToken() // SELECT
	stmt := &ast.SelectStmt{Where: ast.NoExpr}

	if !p.match(token.STAR) {
		for {
			item, err := p.parseCond()
			if err != nil {
				return nil, err
			}
			stmt.Items = append(stmt.Items, item)
			if !p.match(token.COMMA) {
				break
			}
		}
	}

	if _, err := p.expect(token.FROM, "FROM"); err != nil {
		return nil, err
	}
	from, err := p.ident("table name")
	if err != nil {
		return nil, err
	}
	stmt.From = from

	if stmt.Where, err = p.parseWhere(); err != nil {
		return nil, err
	}

	if p.match(token.ORDER) {
		if _, err := p.expect(token.BY, "BY"); err != nil {
			return nil, err
		}
		items, err := p.parseOrderList()
		if err != nil {
			return nil, err
		}
		stmt.SetOrderBy(items)
	}
	return stmt, nil
}

// parseOrderList parses ident [ASC|DESC] ("," ident [ASC|DESC])*.
func (p *Parser) parseOrderList() ([]ast.OrderItem, *diag.Diagnostic) {
	var items []ast.OrderItem
	for {
		col, err := p.ident("column name")
		if err != nil {
			return nil, err
		}
		item := ast.OrderItem{Column: col}
		if p.match(token.DESC) {
			item.Desc = true
		} else {
			p.match(token.ASC)
		}
		items = append(items, item)
		if !p.match(token.COMMA) {
			return items, nil
		}
	}
}

// parseInsert parses INSERT INTO ident VALUES "(" value_list ")".
func (p *Parser) parseInsert() (*ast.InsertStmt, *diag.Diagnostic) {
	p.nextToken() // INSERT
	stmt := &ast.InsertStmt{}

	if _, err := p.expect(token.INTO, "INTO"); err != nil {
		return nil, err
	}
	table, err := p.ident("table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = table
	if _, err := p.expect(token.VALUES, "VALUES"); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.LPAREN, "'('"); err != nil {
		return nil, err
	}
	if p.check(token.RPAREN) {
		return nil, p.errorf(ErrEmptyValueList)
	}
	for {
		v, err := p.parseCond()
		if err != nil {
			return nil, err
		}
		stmt.Values = append(stmt.Values, v)
		if !p.match(token.COMMA) {
			break
		}
	}
	if err := p.closeParen(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseUpdate parses UPDATE ident SET ident "=" value ("," ...)* [WHERE cond].
func (p *Parser) parseUpdate() (*ast.UpdateStmt, *diag.Diagnostic) {
	p.nextToken() // UPDATE
	stmt := &ast.UpdateStmt{Where: ast.NoExpr}

	table, err := p.ident("table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = table
	if _, err := p.expect(token.SET, "SET"); err != nil {
		return nil, err
	}
	for {
		col, err := p.ident("column name")
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.EQ, "'='"); err != nil {
			return nil, err
		}
		v, err := p.parseAdditive()
		if err != nil {
			return nil, err
		}
		stmt.Assignments = append(stmt.Assignments, ast.Assignment{Column: col, Value: v})
		if !p.match(token.COMMA) {
			break
		}
	}
	if stmt.Where, err = p.parseWhere(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseDelete parses DELETE FROM ident [WHERE cond].
func (p *Parser) parseDelete() (*ast.DeleteStmt, *diag.Diagnostic) {
	p.nextToken() // DELETE
	stmt := &ast.DeleteStmt{Where: ast.NoExpr}

	if _, err := p.expect(token.FROM, "FROM"); err != nil {
		return nil, err
	}
	table, err := p.ident("table name")
	if err != nil {
		return nil, err
	}
	stmt.Table = table
	if stmt.Where, err = p.parseWhere(); err != nil {
		return nil, err
	}
	return stmt, nil
}

// parseWhere parses an optional WHERE clause.
func (p *Parser) parseWhere() (ast.ExprRef, *diag.Diagnostic) {
	if !p.match(token.WHERE) {
		return ast.NoExpr, nil
	}
	return p.parseCond()
}

// closeParen consumes the ')' closing an open '('.
func (p *Parser) closeParen() *diag.Diagnostic {
	if p.match(token.RPAREN) {
		return nil
	}
	return p.errorf(ErrUnmatchedParen, p.describe(p.token()))
}

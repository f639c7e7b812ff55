// Package ast defines the MiniSQL syntax tree.
//
// All nodes of one parsed batch live in a Context arena and refer to each
// other by index (ExprRef). References are valid only for the Context that
// issued them.
package ast

import (
	"fmt"

	"github.com/leapstack-labs/minisql/pkg/diag"
)

// ExprRef addresses an expression inside a Context.
type ExprRef int32

// NoExpr marks an absent optional expression (e.g. a missing WHERE).
const NoExpr ExprRef = -1

// Valid reports whether r refers to an expression.
func (r ExprRef) Valid() bool { return r >= 0 }

// StmtRef addresses a statement inside a Context.
type StmtRef int32

// NodeInfo carries the source span shared by every node.
type NodeInfo struct {
	Loc diag.Span
}

// Span returns the half-open byte range of the node in the source.
func (n NodeInfo) Span() diag.Span { return n.Loc }

// Node is the base interface for all AST nodes.
type Node interface {
	Span() diag.Span
}

// Expr is a marker interface for expression nodes.
type Expr interface {
	Node
	exprNode()
}

// Stmt is a marker interface for statement nodes.
type Stmt interface {
	Node
	stmtNode()
}

// Context owns every node produced while parsing one source text.
type Context struct {
	Source string

	exprs []Expr
	stmts []Stmt
}

// NewContext creates an empty arena for the given source text.
func NewContext(source string) *Context {
	return &Context{Source: source}
}

// AddExpr stores e and returns its reference.
func (c *Context) AddExpr(e Expr) ExprRef {
	c.exprs = append(c.exprs, e)
	return ExprRef(len(c.exprs) - 1)
}

// Expr returns the expression for r. It panics on NoExpr or a foreign
// reference, both of which are programming errors.
func (c *Context) Expr(r ExprRef) Expr {
	if r < 0 || int(r) >= len(c.exprs) {
		panic(fmt.Sprintf("ast: invalid expression reference %d", r))
	}
	return c.exprs[r]
}

// AddStmt stores s and returns its reference.
func (c *Context) AddStmt(s Stmt) StmtRef {
	c.stmts = append(c.stmts, s)
	return StmtRef(len(c.stmts) - 1)
}

// Stmt returns the statement for r.
func (c *Context) Stmt(r StmtRef) Stmt {
	if r < 0 || int(r) >= len(c.stmts) {
		panic(fmt.Sprintf("ast: invalid statement reference %d", r))
	}
	return c.stmts[r]
}

// NumExprs returns the number of expressions in the arena.
func (c *Context) NumExprs() int { return len(c.exprs) }

// Text returns the source text covered by span.
func (c *Context) Text(span diag.Span) string {
	begin := min(max(span.Begin, 0), len(c.Source))
	end := min(max(span.End, begin), len(c.Source))
	return c.Source[begin:end]
}

// ExprText returns the source text of the expression r.
func (c *Context) ExprText(r ExprRef) string {
	return c.Text(c.Expr(r).Span())
}

// IsLiteral reports whether r is a literal or a unary operator applied to
// a literal.
func (c *Context) IsLiteral(r ExprRef) bool {
	switch e := c.Expr(r).(type) {
	case *IntLiteral, *FloatLiteral, *StringLiteral:
		return true
	case *UnaryExpr:
		return c.IsLiteral(e.Operand)
	default:
		return false
	}
}

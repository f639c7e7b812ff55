package planner

import (
	"github.com/leapstack-labs/minisql/pkg/ast"
	"github.com/leapstack-labs/minisql/pkg/core"
	"github.com/leapstack-labs/minisql/pkg/plan"
	"github.com/leapstack-labs/minisql/pkg/storage"
	"github.com/leapstack-labs/minisql/pkg/token"
)

// value compiles an expression that produces a value: a column, a literal,
// or arithmetic over those.
func (b *builder) value(t *storage.Table, ref ast.ExprRef) (plan.ValueExpr, bool) {
	switch e := b.actx.Expr(ref).(type) {
	case *ast.Identifier:
		col, ok := b.column(t, e.Name, e.Loc)
		if !ok {
			return nil, false
		}
		return col, true
	case *ast.IntLiteral:
		return &plan.Const{Value: core.IntValue(e.Value)}, true
	case *ast.FloatLiteral:
		return &plan.Const{Value: core.FloatValue(e.Value)}, true
	case *ast.StringLiteral:
		return &plan.Const{Value: core.StringValue(e.Value)}, true

	case *ast.UnaryExpr:
		operand, ok := b.value(t, e.Operand)
		if !ok {
			return nil, false
		}
		expr, err := plan.NewUnaryOp(e.Op, operand)
		if err != nil {
			b.errorf(e.Loc, "%v", err)
			return nil, false
		}
		return expr, true

	case *ast.BinaryExpr:
		switch e.Op {
		case token.PLUS, token.MINUS, token.STAR, token.SLASH:
		default:
			b.errorf(e.Loc, ErrNotValue)
			return nil, false
		}
		lhs, okL := b.value(t, e.LHS)
		rhs, okR := b.value(t, e.RHS)
		if !okL || !okR {
			return nil, false
		}
		expr, err := plan.NewBinaryOp(e.Op, lhs, rhs)
		if err != nil {
			b.errorf(e.Loc, "%v", err)
			return nil, false
		}
		return expr, true

	case *ast.CallExpr:
		b.errorf(e.Loc, ErrAggregateContext, e.Callee.Name)
		return nil, false

	default:
		panic("planner: unknown expression type")
	}
}

// predicate compiles a WHERE condition. Only comparisons, LIKE, and AND/OR
// over those are conditions.
func (b *builder) predicate(t *storage.Table, ref ast.ExprRef) (plan.Predicate, bool) {
	e, ok := b.actx.Expr(ref).(*ast.BinaryExpr)
	if !ok {
		b.errorf(b.actx.Expr(ref).Span(), ErrNotCondition)
		return nil, false
	}

	switch {
	case e.Op == token.AND || e.Op == token.OR:
		lhs, okL := b.predicate(t, e.LHS)
		rhs, okR := b.predicate(t, e.RHS)
		if !okL || !okR {
			return nil, false
		}
		return &plan.Logical{Op: e.Op, LHS: lhs, RHS: rhs}, true

	case token.IsComparison(e.Op):
		lhs, okL := b.value(t, e.LHS)
		rhs, okR := b.value(t, e.RHS)
		if !okL || !okR {
			return nil, false
		}
		cmp, err := plan.NewCompare(e.Op, lhs, rhs)
		if err != nil {
			b.errorf(e.Loc, "%v", err)
			return nil, false
		}
		return cmp, true

	default:
		b.errorf(e.Loc, ErrNotCondition)
		return nil, false
	}
}

package plan

import (
	"fmt"

	"github.com/leapstack-labs/minisql/pkg/core"
	"github.com/leapstack-labs/minisql/pkg/storage"
	"github.com/leapstack-labs/minisql/pkg/token"
)

// ValueExpr computes a value from a row. Type is known when the
// expression is compiled; Eval always returns a value of that type.
type ValueExpr interface {
	Eval(row []core.Value) (core.Value, error)
	Type() core.FieldType
	String() string
}

// Predicate decides whether a row qualifies.
type Predicate interface {
	Test(row []core.Value) (bool, error)
	String() string
}

// Column reads the value at Index.
type Column struct {
	Index int
	Name  string
	Typ   core.FieldType
}

func (c *Column) Eval(row []core.Value) (core.Value, error) {
	if c.Index < 0 || c.Index >= len(row) {
		return core.Value{}, fmt.Errorf("%w: %s", storage.ErrNoSuchColumn, c.Name)
	}
	return row[c.Index], nil
}

func (c *Column) Type() core.FieldType { return c.Typ }
func (c *Column) String() string       { return c.Name }

// Const is a literal.
type Const struct {
	Value core.Value
}

func (c *Const) Eval([]core.Value) (core.Value, error) { return c.Value, nil }
func (c *Const) Type() core.FieldType                  { return c.Value.Type }
func (c *Const) String() string                        { return c.Value.Literal() }

// BinaryOp is arithmetic over two numeric operands. The result is FLOAT if
// either side is FLOAT, otherwise INT with truncating division.
type BinaryOp struct {
	Op       token.Kind // PLUS, MINUS, STAR or SLASH
	LHS, RHS ValueExpr
}

// NewBinaryOp checks the operand types and builds the node.
func NewBinaryOp(op token.Kind, lhs, rhs ValueExpr) (*BinaryOp, error) {
	switch op {
	case token.PLUS, token.MINUS, token.STAR, token.SLASH:
	default:
		return nil, fmt.Errorf("operator %s is not arithmetic", op)
	}
	if !lhs.Type().IsNumeric() || !rhs.Type().IsNumeric() {
		return nil, fmt.Errorf("operator %s needs numeric operands, got %s and %s", op, lhs.Type(), rhs.Type())
	}
	return &BinaryOp{Op: op, LHS: lhs, RHS: rhs}, nil
}

func (b *BinaryOp) Type() core.FieldType {
	if b.LHS.Type() == core.TypeFloat || b.RHS.Type() == core.TypeFloat {
		return core.TypeFloat
	}
	return core.TypeInt
}

func (b *BinaryOp) String() string {
	return fmt.Sprintf("(%s %s %s)", b.LHS, b.Op, b.RHS)
}

func (b *BinaryOp) Eval(row []core.Value) (core.Value, error) {
	l, err := b.LHS.Eval(row)
	if err != nil {
		return core.Value{}, err
	}
	r, err := b.RHS.Eval(row)
	if err != nil {
		return core.Value{}, err
	}

	if b.Type() == core.TypeInt {
		x, y := l.Int, r.Int
		switch b.Op {
		case token.PLUS:
			return core.IntValue(x + y), nil
		case token.MINUS:
			return core.IntValue(x - y), nil
		case token.STAR:
			return core.IntValue(x * y), nil
		default:
			if y == 0 {
				return core.Value{}, ErrDivisionByZero
			}
			return core.IntValue(x / y), nil
		}
	}

	x, _ := l.AsFloat()
	y, _ := r.AsFloat()
	switch b.Op {
	case token.PLUS:
		return core.FloatValue(x + y), nil
	case token.MINUS:
		return core.FloatValue(x - y), nil
	case token.STAR:
		return core.FloatValue(x * y), nil
	default:
		if y == 0 {
			return core.Value{}, ErrDivisionByZero
		}
		return core.FloatValue(x / y), nil
	}
}

// UnaryOp applies a sign to a numeric operand.
type UnaryOp struct {
	Op      token.Kind // PLUS or MINUS
	Operand ValueExpr
}

// NewUnaryOp checks the operand type and builds the node.
func NewUnaryOp(op token.Kind, operand ValueExpr) (*UnaryOp, error) {
	if op != token.PLUS && op != token.MINUS {
		return nil, fmt.Errorf("operator %s is not a sign", op)
	}
	if !operand.Type().IsNumeric() {
		return nil, fmt.Errorf("unary %s needs a numeric operand, got %s", op, operand.Type())
	}
	return &UnaryOp{Op: op, Operand: operand}, nil
}

func (u *UnaryOp) Type() core.FieldType { return u.Operand.Type() }
func (u *UnaryOp) String() string       { return u.Op.String() + u.Operand.String() }

func (u *UnaryOp) Eval(row []core.Value) (core.Value, error) {
	v, err := u.Operand.Eval(row)
	if err != nil || u.Op == token.PLUS {
		return v, err
	}
	if v.Type == core.TypeInt {
		return core.IntValue(-v.Int), nil
	}
	return core.FloatValue(-v.Float), nil
}

// Compare evaluates a comparison or LIKE between two values.
type Compare struct {
	Op       token.Kind
	LHS, RHS ValueExpr
}

// NewCompare checks operand compatibility: LIKE needs two strings, other
// comparisons need two numbers or two strings.
func NewCompare(op token.Kind, lhs, rhs ValueExpr) (*Compare, error) {
	if !token.IsComparison(op) {
		return nil, fmt.Errorf("operator %s is not a comparison", op)
	}
	lt, rt := lhs.Type(), rhs.Type()
	switch {
	case op == token.LIKE:
		if lt != core.TypeString || rt != core.TypeString {
			return nil, fmt.Errorf("LIKE needs string operands, got %s and %s", lt, rt)
		}
	case lt.IsNumeric() != rt.IsNumeric():
		return nil, fmt.Errorf("cannot compare %s with %s", lt, rt)
	}
	return &Compare{Op: op, LHS: lhs, RHS: rhs}, nil
}

func (c *Compare) String() string {
	return fmt.Sprintf("%s %s %s", c.LHS, c.Op, c.RHS)
}

func (c *Compare) Test(row []core.Value) (bool, error) {
	l, err := c.LHS.Eval(row)
	if err != nil {
		return false, err
	}
	r, err := c.RHS.Eval(row)
	if err != nil {
		return false, err
	}
	if c.Op == token.LIKE {
		return Like(l.Str, r.Str), nil
	}

	cmp, ok := core.Compare(l, r)
	if !ok {
		return false, fmt.Errorf("%w: cannot compare %s with %s", storage.ErrTypeMismatch, l.Type, r.Type)
	}
	switch c.Op {
	case token.EQ:
		return cmp == 0, nil
	case token.NE:
		return cmp != 0, nil
	case token.LT:
		return cmp < 0, nil
	case token.LE:
		return cmp <= 0, nil
	case token.GT:
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

// Logical combines two predicates with AND or OR. Both sides are always
// evaluated, so an error on either side fails the row even when the other
// side alone would decide it.
type Logical struct {
	Op       token.Kind // AND or OR
	LHS, RHS Predicate
}

func (l *Logical) String() string {
	return fmt.Sprintf("(%s %s %s)", l.LHS, l.Op, l.RHS)
}

func (l *Logical) Test(row []core.Value) (bool, error) {
	a, errA := l.LHS.Test(row)
	b, errB := l.RHS.Test(row)
	if errA != nil {
		return false, errA
	}
	if errB != nil {
		return false, errB
	}
	if l.Op == token.AND {
		return a && b, nil
	}
	return a || b, nil
}

// True accepts every row. It stands in for a missing WHERE clause.
type True struct{}

func (True) Test([]core.Value) (bool, error) { return true, nil }
func (True) String() string                  { return "true" }

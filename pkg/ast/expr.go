package ast

import "github.com/leapstack-labs/minisql/pkg/token"

// ---------- Expression Types ----------

// BinaryExpr is an arithmetic, comparison or logical operation.
type BinaryExpr struct {
	NodeInfo
	Op  token.Kind
	LHS ExprRef
	RHS ExprRef
}

func (*BinaryExpr) exprNode() {}

// UnaryExpr is a leading + or - applied to an operand.
type UnaryExpr struct {
	NodeInfo
	Op      token.Kind
	Operand ExprRef
}

func (*UnaryExpr) exprNode() {}

// IntLiteral is an integer constant.
type IntLiteral struct {
	NodeInfo
	Value int64
}

func (*IntLiteral) exprNode() {}

// FloatLiteral is a decimal constant.
type FloatLiteral struct {
	NodeInfo
	Value float64
}

func (*FloatLiteral) exprNode() {}

// StringLiteral is a quoted string with escapes already resolved.
type StringLiteral struct {
	NodeInfo
	Value string
}

func (*StringLiteral) exprNode() {}

// Identifier is a bare column (or table) name.
type Identifier struct {
	NodeInfo
	Name string
}

func (*Identifier) exprNode() {}

// CallExpr is a function call such as avg(math).
type CallExpr struct {
	NodeInfo
	Callee Ident
	Args   []ExprRef
}

func (*CallExpr) exprNode() {}

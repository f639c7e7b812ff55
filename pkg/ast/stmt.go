package ast

import "github.com/leapstack-labs/minisql/pkg/diag"

// ---------- Statement Types ----------

// Ident is a name together with where it appeared.
type Ident struct {
	Name string
	Loc  diag.Span
}

// OrderItem is one ORDER BY key.
type OrderItem struct {
	Column Ident
	Desc   bool
}

// SelectStmt represents SELECT items FROM table [WHERE] [ORDER BY].
// An empty Items list means "*".
type SelectStmt struct {
	NodeInfo
	Items   []ExprRef
	From    Ident
	Where   ExprRef
	OrderBy []OrderItem
}

func (*SelectStmt) stmtNode() {}

// SetOrderBy attaches ORDER BY keys after parsing.
func (s *SelectStmt) SetOrderBy(items []OrderItem) {
	s.OrderBy = items
}

// InsertStmt represents INSERT INTO table VALUES (...).
type InsertStmt struct {
	NodeInfo
	Table  Ident
	Values []ExprRef
}

func (*InsertStmt) stmtNode() {}

// Assignment is one column = value pair of an UPDATE.
type Assignment struct {
	Column Ident
	Value  ExprRef
}

// UpdateStmt represents UPDATE table SET ... [WHERE].
type UpdateStmt struct {
	NodeInfo
	Table       Ident
	Assignments []Assignment
	Where       ExprRef
}

func (*UpdateStmt) stmtNode() {}

// DeleteStmt represents DELETE FROM table [WHERE].
type DeleteStmt struct {
	NodeInfo
	Table Ident
	Where ExprRef
}

func (*DeleteStmt) stmtNode() {}

// TableName returns the table a statement targets.
func TableName(s Stmt) Ident {
	switch s := s.(type) {
	case *SelectStmt:
		return s.From
	case *InsertStmt:
		return s.Table
	case *UpdateStmt:
		return s.Table
	case *DeleteStmt:
		return s.Table
	default:
		panic("ast: unknown statement type")
	}
}

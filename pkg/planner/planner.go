// Package planner turns a parsed MiniSQL statement into an executable plan.
//
// Building a plan is the semantic pass: table and column names are resolved
// against the catalog, operand types are checked, and expressions are
// compiled into plan.ValueExpr and plan.Predicate trees. A statement that
// fails any check produces diagnostics and no plan.
//
// SELECT lowers to a fixed pipeline:
//
//	TableScan → Filter (WHERE) → Aggregate → OrderBy → Project
//
// where Filter, Aggregate and OrderBy appear only when needed, and Project
// only when there is no aggregate. INSERT, UPDATE and DELETE each lower to a
// single terminal node.
package planner

import (
	"github.com/leapstack-labs/minisql/pkg/ast"
	"github.com/leapstack-labs/minisql/pkg/diag"
	"github.com/leapstack-labs/minisql/pkg/plan"
	"github.com/leapstack-labs/minisql/pkg/storage"
)

// Catalog resolves table names to resident tables.
type Catalog interface {
	Lookup(name string) (*storage.Table, bool)
}

// MapCatalog is a Catalog backed by a map.
type MapCatalog map[string]*storage.Table

// Lookup implements Catalog.
func (m MapCatalog) Lookup(name string) (*storage.Table, bool) {
	t, ok := m[name]
	return t, ok
}

// Plan is a built statement.
type Plan struct {
	Root plan.Node
	// Columns names the values of each emitted row. Empty for statements
	// that emit nothing.
	Columns []string
	Table   *storage.Table
}

// Explain renders the plan tree.
func (p *Plan) Explain() string { return plan.Explain(p.Root) }

// Build type-checks stmt and lowers it to a plan. current, when non-nil, is
// preferred over the catalog for a table of the same name. The returned
// list holds every error found; the plan is nil when it is non-empty.
func Build(actx *ast.Context, stmt ast.Stmt, current *storage.Table, cat Catalog) (*Plan, diag.List) {
	b := &builder{actx: actx, current: current, catalog: cat}

	var p *Plan
	switch s := stmt.(type) {
	case *ast.SelectStmt:
		p = b.buildSelect(s)
	case *ast.InsertStmt:
		p = b.buildInsert(s)
	case *ast.UpdateStmt:
		p = b.buildUpdate(s)
	case *ast.DeleteStmt:
		p = b.buildDelete(s)
	default:
		panic("planner: unknown statement type")
	}

	if b.diags.HasErrors() {
		return nil, b.diags
	}
	return p, b.diags
}

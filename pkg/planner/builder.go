package planner

import (
	"strings"

	"github.com/leapstack-labs/minisql/pkg/ast"
	"github.com/leapstack-labs/minisql/pkg/core"
	"github.com/leapstack-labs/minisql/pkg/diag"
	"github.com/leapstack-labs/minisql/pkg/plan"
	"github.com/leapstack-labs/minisql/pkg/storage"
)

type builder struct {
	actx    *ast.Context
	current *storage.Table
	catalog Catalog
	diags   diag.List
}

func (b *builder) errorf(span diag.Span, format string, args ...any) {
	b.diags = append(b.diags, diag.Errorf(span, format, args...))
}

// resolveTable finds the table a statement names.
func (b *builder) resolveTable(name ast.Ident) *storage.Table {
	var t *storage.Table
	if b.current != nil && b.current.Name() == name.Name {
		t = b.current
	} else if b.catalog != nil {
		t, _ = b.catalog.Lookup(name.Name)
	}
	if t == nil {
		b.errorf(name.Loc, ErrUnknownTable, name.Name)
		return nil
	}
	if len(t.Schema()) == 0 {
		b.errorf(name.Loc, ErrNoSchema, name.Name)
		return nil
	}
	return t
}

// resolveColumn returns the position of a column of t.
func (b *builder) resolveColumn(t *storage.Table, name string, span diag.Span) (int, bool) {
	i := t.Schema().Index(name)
	if i < 0 {
		b.errorf(span, ErrUnknownColumn, name, t.Name())
		return 0, false
	}
	return i, true
}

func (b *builder) column(t *storage.Table, name string, span diag.Span) (*plan.Column, bool) {
	i, ok := b.resolveColumn(t, name, span)
	if !ok {
		return nil, false
	}
	f := t.Schema()[i]
	return &plan.Column{Index: i, Name: f.Name, Typ: f.Type}, true
}

// ---------- SELECT ----------

func (b *builder) buildSelect(s *ast.SelectStmt) *Plan {
	t := b.resolveTable(s.From)
	if t == nil {
		return nil
	}

	var (
		projections []plan.ProjectItem
		aggregates  []plan.AggItem
		firstPlain  *diag.Span
	)
	if len(s.Items) == 0 {
		for i, f := range t.Schema() {
			projections = append(projections, plan.ProjectItem{Index: i, Name: f.Name})
		}
	}
	for _, ref := range s.Items {
		switch e := b.actx.Expr(ref).(type) {
		case *ast.Identifier:
			if idx, ok := b.resolveColumn(t, e.Name, e.Loc); ok {
				projections = append(projections, plan.ProjectItem{Index: idx, Name: e.Name})
			}
			if firstPlain == nil {
				firstPlain = &e.Loc
			}
		case *ast.CallExpr:
			if item, ok := b.aggregate(t, e); ok {
				aggregates = append(aggregates, item)
			}
		default:
			b.errorf(e.Span(), ErrSelectItem)
		}
	}
	if len(aggregates) > 0 && firstPlain != nil {
		b.errorf(*firstPlain, ErrMixedAggregate)
	}

	var root plan.Node = &plan.TableScan{Table: t}
	if s.Where.Valid() {
		if pred, ok := b.predicate(t, s.Where); ok {
			root = &plan.Filter{Child: root, Pred: pred}
		}
	}
	columns := make([]string, 0, len(s.Items))
	if len(aggregates) > 0 {
		root = &plan.Aggregate{Child: root, Items: aggregates}
		for _, a := range aggregates {
			columns = append(columns, a.Label())
		}
	}
	if len(s.OrderBy) > 0 {
		keys := make([]plan.SortKey, 0, len(s.OrderBy))
		for _, item := range s.OrderBy {
			if idx, ok := b.resolveColumn(t, item.Column.Name, item.Column.Loc); ok {
				keys = append(keys, plan.SortKey{Index: idx, Name: item.Column.Name, Desc: item.Desc})
			}
		}
		root = &plan.OrderBy{Child: root, Keys: keys}
	}
	if len(aggregates) == 0 {
		root = &plan.Project{Child: root, Items: projections}
		for _, p := range projections {
			columns = append(columns, p.Name)
		}
	}
	return &Plan{Root: root, Columns: columns, Table: t}
}

// aggregate validates one aggregate call of the select list.
func (b *builder) aggregate(t *storage.Table, call *ast.CallExpr) (plan.AggItem, bool) {
	name := strings.ToLower(call.Callee.Name)
	fn, ok := plan.ParseAggFunc(name)
	if !ok {
		b.errorf(call.Callee.Loc, ErrUnknownAggregate, call.Callee.Name)
		return plan.AggItem{}, false
	}
	if len(call.Args) != 1 {
		b.errorf(call.Loc, ErrAggregateArity, name)
		return plan.AggItem{}, false
	}
	arg, ok := b.actx.Expr(call.Args[0]).(*ast.Identifier)
	if !ok {
		b.errorf(b.actx.Expr(call.Args[0]).Span(), ErrAggregateArgument, name)
		return plan.AggItem{}, false
	}
	idx, ok := b.resolveColumn(t, arg.Name, arg.Loc)
	if !ok {
		return plan.AggItem{}, false
	}
	return plan.AggItem{Func: fn, Index: idx, Name: arg.Name, Typ: t.Schema()[idx].Type}, true
}

// ---------- INSERT ----------

func (b *builder) buildInsert(s *ast.InsertStmt) *Plan {
	t := b.resolveTable(s.Table)
	if t == nil {
		return nil
	}
	schema := t.Schema()
	if len(s.Values) != len(schema) {
		b.errorf(s.Loc, ErrValueCount, t.Name(), len(schema), len(s.Values))
		return nil
	}

	values := make([]core.Value, len(schema))
	for i, ref := range s.Values {
		span := b.actx.Expr(ref).Span()
		if !b.actx.IsLiteral(ref) {
			b.errorf(span, ErrNotConstant)
			continue
		}
		expr, ok := b.value(t, ref)
		if !ok {
			continue
		}
		v, err := expr.Eval(nil)
		if err != nil {
			b.errorf(span, "%v", err)
			continue
		}
		cv, ok := core.Coerce(v, schema[i].Type)
		if !ok {
			b.errorf(span, ErrInsertType, v.Type, schema[i].Type, schema[i].Name)
			continue
		}
		values[i] = cv
	}
	return &Plan{Root: &plan.Insert{Table: t, Values: values}, Table: t}
}

// ---------- UPDATE ----------

func (b *builder) buildUpdate(s *ast.UpdateStmt) *Plan {
	t := b.resolveTable(s.Table)
	if t == nil {
		return nil
	}
	node := &plan.Update{Table: t, Pred: plan.True{}}
	if s.Where.Valid() {
		if pred, ok := b.predicate(t, s.Where); ok {
			node.Pred = pred
		}
	}
	for _, a := range s.Assignments {
		idx, ok := b.resolveColumn(t, a.Column.Name, a.Column.Loc)
		if !ok {
			continue
		}
		expr, ok := b.value(t, a.Value)
		if !ok {
			continue
		}
		f := t.Schema()[idx]
		if f.Type.IsNumeric() != expr.Type().IsNumeric() {
			b.errorf(b.actx.Expr(a.Value).Span(), ErrInsertType, expr.Type(), f.Type, f.Name)
			continue
		}
		node.Assignments = append(node.Assignments, plan.Assignment{Index: idx, Name: f.Name, Expr: expr})
	}
	return &Plan{Root: node, Table: t}
}

// ---------- DELETE ----------

func (b *builder) buildDelete(s *ast.DeleteStmt) *Plan {
	t := b.resolveTable(s.Table)
	if t == nil {
		return nil
	}
	node := &plan.Delete{Table: t, Pred: plan.True{}}
	if s.Where.Valid() {
		if pred, ok := b.predicate(t, s.Where); ok {
			node.Pred = pred
		}
	}
	return &Plan{Root: node, Table: t}
}

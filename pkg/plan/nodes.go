package plan

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/leapstack-labs/minisql/pkg/core"
	"github.com/leapstack-labs/minisql/pkg/storage"
)

// Node is one operator of a plan tree.
type Node interface {
	// Execute runs the subtree, emitting rows through ctx.
	Execute(ctx *ExecContext)
	Children() []Node
	// Describe returns a one-line summary used by Explain.
	Describe() string
}

// ---------- Scan ----------

// TableScan emits every live row of Table in logical order.
type TableScan struct {
	Table *storage.Table
}

func (s *TableScan) Execute(ctx *ExecContext) {
	s.Table.Scan(func(id uint64, values []core.Value) bool {
		ctx.Emit(RowView{Table: s.Table, ID: id, Values: values})
		return !ctx.Failed()
	})
}

func (s *TableScan) Children() []Node { return nil }
func (s *TableScan) Describe() string { return "scan table " + s.Table.Name() }

// ---------- Filter ----------

// Filter passes on the rows for which Pred holds.
type Filter struct {
	Child Node
	Pred  Predicate
}

func (f *Filter) Execute(ctx *ExecContext) {
	f.Child.Execute(ctx.WithConsumer(func(row RowView) {
		ok, err := f.Pred.Test(row.Values)
		if err != nil {
			ctx.Fail(runtimeError("filter", err))
			return
		}
		if ok {
			ctx.Emit(row)
		}
	}))
}

func (f *Filter) Children() []Node { return []Node{f.Child} }
func (f *Filter) Describe() string { return "filter " + f.Pred.String() }

// ---------- Project ----------

// ProjectItem selects one column of the input row.
type ProjectItem struct {
	Index int
	Name  string
}

// Project emits detached rows holding only the listed columns.
type Project struct {
	Child Node
	Items []ProjectItem
}

func (p *Project) Execute(ctx *ExecContext) {
	p.Child.Execute(ctx.WithConsumer(func(row RowView) {
		out := make([]core.Value, len(p.Items))
		for i, item := range p.Items {
			out[i] = row.Values[item.Index]
		}
		ctx.Emit(RowView{ID: row.ID, Values: out})
	}))
}

func (p *Project) Children() []Node { return []Node{p.Child} }

func (p *Project) Describe() string {
	names := make([]string, len(p.Items))
	for i, item := range p.Items {
		names[i] = item.Name
	}
	return "project (" + strings.Join(names, ", ") + ")"
}

// ---------- OrderBy ----------

// SortKey is one ORDER BY term.
type SortKey struct {
	Index int
	Name  string
	Desc  bool
}

// OrderBy buffers its input, sorts it stably by Keys and re-emits it.
type OrderBy struct {
	Child Node
	Keys  []SortKey
}

func (o *OrderBy) Execute(ctx *ExecContext) {
	var rows []RowView
	o.Child.Execute(ctx.WithConsumer(func(row RowView) {
		row.Values = slices.Clone(row.Values)
		rows = append(rows, row)
	}))
	if ctx.Failed() {
		return
	}

	slices.SortStableFunc(rows, func(a, b RowView) int {
		return o.compare(a.Values, b.Values)
	})
	for _, row := range rows {
		if ctx.Failed() {
			return
		}
		ctx.Emit(row)
	}
}

// compare orders two rows key by key. Keys outside the row are ignored.
func (o *OrderBy) compare(a, b []core.Value) int {
	for _, k := range o.Keys {
		if k.Index >= len(a) || k.Index >= len(b) {
			continue
		}
		c, ok := core.Compare(a[k.Index], b[k.Index])
		if !ok || c == 0 {
			continue
		}
		if k.Desc {
			return -c
		}
		return c
	}
	return 0
}

func (o *OrderBy) Children() []Node { return []Node{o.Child} }

func (o *OrderBy) Describe() string {
	keys := make([]string, len(o.Keys))
	for i, k := range o.Keys {
		keys[i] = k.Name
		if k.Desc {
			keys[i] += " desc"
		}
	}
	return "order by " + strings.Join(keys, ", ")
}

// ---------- Aggregate ----------

// AggFunc is an aggregate function.
type AggFunc int

// Aggregate functions.
const (
	AggCount AggFunc = iota
	AggAvg
	AggMin
	AggMax
)

var aggNames = [...]string{AggCount: "count", AggAvg: "avg", AggMin: "min", AggMax: "max"}

func (f AggFunc) String() string {
	if int(f) < len(aggNames) {
		return aggNames[f]
	}
	return fmt.Sprintf("AggFunc(%d)", int(f))
}

// ParseAggFunc maps a lowercase function name to its AggFunc.
func ParseAggFunc(name string) (AggFunc, bool) {
	for i, n := range aggNames {
		if n == name {
			return AggFunc(i), true
		}
	}
	return 0, false
}

// AggItem applies Func to the column at Index.
type AggItem struct {
	Func  AggFunc
	Index int
	Name  string // column name
	Typ   core.FieldType
}

// Label returns the output column name, e.g. "avg(math)".
func (a AggItem) Label() string { return a.Func.String() + "(" + a.Name + ")" }

// ResultType returns the type of the aggregate's output value.
func (a AggItem) ResultType() core.FieldType {
	switch a.Func {
	case AggCount:
		return core.TypeInt
	case AggAvg:
		return core.TypeFloat
	default:
		return a.Typ
	}
}

// Aggregate consumes its whole input and emits one row with one value per
// item.
type Aggregate struct {
	Child Node
	Items []AggItem
}

type accumulator struct {
	count    int64
	sum      float64
	minInt   int64
	maxInt   int64
	minFloat float64
	maxFloat float64
}

func (a *Aggregate) Execute(ctx *ExecContext) {
	for _, item := range a.Items {
		if item.Func != AggCount && !item.Typ.IsNumeric() {
			ctx.Fail(runtimeError("aggregate", fmt.Errorf("%w: %s needs a numeric column, %s is %s",
				storage.ErrTypeMismatch, item.Func, item.Name, item.Typ)))
			return
		}
	}

	acc := make([]accumulator, len(a.Items))
	for i := range acc {
		acc[i] = accumulator{
			minInt: math.MaxInt64, maxInt: math.MinInt64,
			minFloat: math.Inf(1), maxFloat: math.Inf(-1),
		}
	}
	a.Child.Execute(ctx.WithConsumer(func(row RowView) {
		for i, item := range a.Items {
			v := row.Values[item.Index]
			s := &acc[i]
			s.count++
			if item.Func == AggCount {
				continue
			}
			f, _ := v.AsFloat()
			s.sum += f
			if v.Type == core.TypeInt {
				s.minInt = min(s.minInt, v.Int)
				s.maxInt = max(s.maxInt, v.Int)
			} else {
				s.minFloat = min(s.minFloat, f)
				s.maxFloat = max(s.maxFloat, f)
			}
		}
	}))
	if ctx.Failed() {
		return
	}

	out := make([]core.Value, len(a.Items))
	for i, item := range a.Items {
		s := acc[i]
		switch item.Func {
		case AggCount:
			out[i] = core.IntValue(s.count)
		case AggAvg:
			if s.count == 0 {
				out[i] = core.FloatValue(0)
			} else {
				out[i] = core.FloatValue(s.sum / float64(s.count))
			}
		case AggMin:
			out[i] = pick(item.Typ, s.minInt, s.minFloat)
		case AggMax:
			out[i] = pick(item.Typ, s.maxInt, s.maxFloat)
		}
	}
	ctx.Emit(RowView{Values: out})
}

func pick(t core.FieldType, i int64, f float64) core.Value {
	if t == core.TypeInt {
		return core.IntValue(i)
	}
	return core.FloatValue(f)
}

func (a *Aggregate) Children() []Node { return []Node{a.Child} }

func (a *Aggregate) Describe() string {
	labels := make([]string, len(a.Items))
	for i, item := range a.Items {
		labels[i] = item.Label()
	}
	return "aggregate (" + strings.Join(labels, ", ") + ")"
}

// ---------- Mutations ----------

// Insert adds one row to Table.
type Insert struct {
	Table  *storage.Table
	Values []core.Value
}

func (n *Insert) Execute(ctx *ExecContext) {
	if ctx.Failed() {
		return
	}
	if _, err := n.Table.Insert(n.Values); err != nil {
		ctx.Fail(runtimeError("insert", err))
		return
	}
	ctx.AddAffected(1)
}

func (n *Insert) Children() []Node { return nil }

func (n *Insert) Describe() string {
	vals := make([]string, len(n.Values))
	for i, v := range n.Values {
		vals[i] = v.Literal()
	}
	return fmt.Sprintf("insert into %s (%s)", n.Table.Name(), strings.Join(vals, ", "))
}

// Assignment is one "column = value" term of an UPDATE.
type Assignment struct {
	Index int
	Name  string
	Expr  ValueExpr
}

// Update rewrites the rows matching Pred in two phases: it first collects
// the matching ids, then evaluates every assignment against each row's
// values as they were before the row was touched. A failure stops the
// statement but keeps the writes already made.
type Update struct {
	Table       *storage.Table
	Pred        Predicate
	Assignments []Assignment
}

func (n *Update) Execute(ctx *ExecContext) {
	var ids []uint64
	n.Table.Scan(func(id uint64, values []core.Value) bool {
		ok, err := n.Pred.Test(values)
		if err != nil {
			ctx.Fail(runtimeError("update", err))
			return false
		}
		if ok {
			ids = append(ids, id)
		}
		return true
	})
	if ctx.Failed() {
		return
	}

	for _, id := range ids {
		before, ok := n.Table.Get(id)
		if !ok {
			ctx.Fail(runtimeError("update", fmt.Errorf("%w: id %d", storage.ErrRowNotFound, id)))
			return
		}
		for _, a := range n.Assignments {
			v, err := a.Expr.Eval(before)
			if err != nil {
				ctx.Fail(runtimeError("update", err))
				return
			}
			if err := n.Table.Set(id, a.Index, v); err != nil {
				ctx.Fail(runtimeError("update", err))
				return
			}
		}
		ctx.AddAffected(1)
	}
}

func (n *Update) Children() []Node { return nil }

func (n *Update) Describe() string {
	sets := make([]string, len(n.Assignments))
	for i, a := range n.Assignments {
		sets[i] = a.Name + " = " + a.Expr.String()
	}
	return fmt.Sprintf("update %s set %s where %s", n.Table.Name(), strings.Join(sets, ", "), n.Pred)
}

// Delete erases the rows matching Pred in a single structural scan.
type Delete struct {
	Table *storage.Table
	Pred  Predicate
}

func (n *Delete) Execute(ctx *ExecContext) {
	deleted := n.Table.ScanStruct(func(_ uint64, values []core.Value) storage.ScanAction {
		ok, err := n.Pred.Test(values)
		if err != nil {
			ctx.Fail(runtimeError("delete", err))
			return storage.ScanStop
		}
		if ok {
			return storage.ScanDelete
		}
		return storage.ScanKeep
	})
	ctx.AddAffected(deleted)
}

func (n *Delete) Children() []Node { return nil }

func (n *Delete) Describe() string {
	return fmt.Sprintf("delete from %s where %s", n.Table.Name(), n.Pred)
}

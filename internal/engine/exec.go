package engine

import (
	"strings"
	"time"

	"github.com/leapstack-labs/minisql/pkg/core"
	"github.com/leapstack-labs/minisql/pkg/diag"
	"github.com/leapstack-labs/minisql/pkg/parser"
	"github.com/leapstack-labs/minisql/pkg/plan"
	"github.com/leapstack-labs/minisql/pkg/planner"
)

// Statement is one compiled statement ready to run.
type Statement struct {
	// SQL is the statement's source text.
	SQL  string
	Span diag.Span
	Plan *planner.Plan
}

// Result summarises what a statement (or a batch) did.
type Result struct {
	// Columns names the emitted values; empty for INSERT/UPDATE/DELETE.
	Columns  []string
	Rows     int
	Affected int
	Warnings diag.List
	Elapsed  time.Duration
}

// RowFunc receives each emitted row with the column names of the
// statement that produced it. values is only valid during the call.
type RowFunc func(columns []string, values []core.Value)

// Prepare parses and plans every statement of sql. On any error-level
// diagnostic no statement is returned. Warnings are returned either way.
func (e *Engine) Prepare(sql string) ([]*Statement, diag.List) {
	actx, refs, diags := parser.Parse(sql)
	if diags.HasErrors() {
		return nil, diags
	}

	stmts := make([]*Statement, 0, len(refs))
	for _, ref := range refs {
		s := actx.Stmt(ref)
		p, planDiags := planner.Build(actx, s, e.current, e)
		diags = append(diags, planDiags...)
		if p == nil {
			continue
		}
		stmts = append(stmts, &Statement{SQL: actx.Text(s.Span()), Span: s.Span(), Plan: p})
	}
	if diags.HasErrors() {
		return nil, diags
	}
	return stmts, diags
}

// Run executes one prepared statement. A runtime failure is returned as a
// *plan.RuntimeError; rows emitted before the failure have already been
// delivered.
func (e *Engine) Run(st *Statement, onRow RowFunc) (Result, error) {
	start := time.Now()
	res := Result{Columns: st.Plan.Columns}
	affected, err := plan.Run(st.Plan.Root, func(row plan.RowView) {
		res.Rows++
		if onRow != nil {
			onRow(st.Plan.Columns, row.Values)
		}
	})
	res.Affected = affected
	res.Elapsed = time.Since(start)

	e.logger.Debug("executed statement",
		"sql", st.SQL,
		"rows", res.Rows,
		"affected", res.Affected,
		"elapsed", res.Elapsed,
	)
	if err != nil {
		e.logger.Debug("statement failed", "sql", st.SQL, "error", err)
	}
	return res, err
}

// Execute compiles sql and runs its statements in order, stopping at the
// first failure. Compile errors are returned as a diag.List. The result
// carries the columns of the last statement that emitted rows, the total
// row and affected counts, and any warnings.
func (e *Engine) Execute(sql string, onRow RowFunc) (Result, error) {
	stmts, diags := e.Prepare(sql)
	total := Result{Warnings: diags.Warnings()}
	if diags.HasErrors() {
		return total, diags
	}

	start := time.Now()
	for _, st := range stmts {
		res, err := e.Run(st, onRow)
		if len(res.Columns) > 0 {
			total.Columns = res.Columns
		}
		total.Rows += res.Rows
		total.Affected += res.Affected
		if err != nil {
			total.Elapsed = time.Since(start)
			return total, err
		}
	}
	total.Elapsed = time.Since(start)
	return total, nil
}

// Explain compiles sql and renders the plan of each statement.
func (e *Engine) Explain(sql string) (string, error) {
	stmts, diags := e.Prepare(sql)
	if diags.HasErrors() {
		return "", diags
	}
	var b strings.Builder
	for i, st := range stmts {
		if i > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(st.Plan.Explain())
	}
	return b.String(), nil
}

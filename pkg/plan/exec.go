// Package plan holds the executable side of a MiniSQL statement: compiled
// value and predicate expressions, the push-based operators that form a
// plan tree, and the execution context that wires them together.
//
// Execution is synchronous. The root's Execute installs consumers on the
// way down; the table scan at the leaf emits rows that flow back up
// through each operator's consumer until they reach the caller's sink.
package plan

import (
	"github.com/leapstack-labs/minisql/pkg/core"
	"github.com/leapstack-labs/minisql/pkg/storage"
)

// RowView is one row in flight. Table is nil for rows synthesised by an
// operator (projections, aggregates); in that case Values is owned by the
// view. Otherwise Values aliases table storage and is only valid until
// the consumer returns.
type RowView struct {
	Table  *storage.Table
	ID     uint64
	Values []core.Value
}

// Consumer receives emitted rows.
type Consumer func(RowView)

// execState is shared by every context derived from the same root.
type execState struct {
	err      error
	affected int
}

// ExecContext carries the active consumer and the shared failure latch.
type ExecContext struct {
	consumer Consumer
	state    *execState
}

// NewExecContext creates a root context that delivers rows to sink. A nil
// sink discards them.
func NewExecContext(sink Consumer) *ExecContext {
	return &ExecContext{consumer: sink, state: &execState{}}
}

// WithConsumer returns a context that shares the failure latch and the
// affected-row count but delivers rows to fn.
func (c *ExecContext) WithConsumer(fn Consumer) *ExecContext {
	return &ExecContext{consumer: fn, state: c.state}
}

// Emit passes a row to the consumer unless execution has failed.
func (c *ExecContext) Emit(row RowView) {
	if c.state.err != nil || c.consumer == nil {
		return
	}
	c.consumer(row)
}

// Fail latches err. Only the first failure is kept.
func (c *ExecContext) Fail(err error) {
	if c.state.err == nil && err != nil {
		c.state.err = err
	}
}

// Failed reports whether a failure has been latched.
func (c *ExecContext) Failed() bool { return c.state.err != nil }

// Err returns the latched failure, if any.
func (c *ExecContext) Err() error { return c.state.err }

// AddAffected records n rows changed by a mutating operator.
func (c *ExecContext) AddAffected(n int) { c.state.affected += n }

// Affected returns the number of rows changed so far.
func (c *ExecContext) Affected() int { return c.state.affected }

// Run executes root against a fresh context and returns the affected-row
// count and the latched failure.
func Run(root Node, sink Consumer) (int, error) {
	ctx := NewExecContext(sink)
	root.Execute(ctx)
	return ctx.Affected(), ctx.Err()
}

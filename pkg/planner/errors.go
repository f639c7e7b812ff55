package planner

// Diagnostic messages.
const (
	ErrUnknownTable      = "unknown table %q"
	ErrNoSchema          = "table %q has no schema"
	ErrUnknownColumn     = "unknown column %q in table %s"
	ErrUnknownAggregate  = "unknown aggregate function %q"
	ErrAggregateArity    = "%s() takes exactly one column argument"
	ErrAggregateArgument = "argument of %s() must be a column name"
	ErrMixedAggregate    = "mixing aggregate and non-aggregate columns without GROUP BY"
	ErrSelectItem        = "select list items must be columns or aggregate calls"
	ErrValueCount        = "table %s has %d columns but %d values were supplied"
	ErrNotConstant       = "INSERT values must be constant expressions"
	ErrInsertType        = "cannot store %s in %s column %s"
	ErrNotValue          = "expected a value, found a condition"
	ErrNotCondition      = "expected a condition"
	ErrAggregateContext  = "aggregate %s() is only allowed in the select list"
)

package pgcopy

import (
	"fmt"

	"pgbinload/internal/schema"
)

// ColumnCountMismatch reports a row whose arity differs from the schema's
// non-serial column count. Row is the zero-based index of the offending row.
type ColumnCountMismatch struct {
	Want int
	Got  int
	Row  int64
}

func (e *ColumnCountMismatch) Error() string {
	return fmt.Sprintf("pgcopy: row %d has %d values, schema has %d columns", e.Row, e.Got, e.Want)
}

// InvalidStateTransition reports an encoder method called in a state that
// does not allow it, e.g. AppendRow after Finalize.
type InvalidStateTransition struct {
	Op   string
	From State
}

func (e *InvalidStateTransition) Error() string {
	return fmt.Sprintf("pgcopy: %s not allowed in state %s", e.Op, e.From)
}

// ValueTypeError reports a value whose Go type does not match its column
// kind. Generated rows never trigger it; it means a RowSource broke its
// contract.
type ValueTypeError struct {
	Column string
	Kind   schema.Kind
	Value  any
}

func (e *ValueTypeError) Error() string {
	return fmt.Sprintf("pgcopy: internal error: column %q (kind %s) cannot encode %T", e.Column, e.Kind, e.Value)
}

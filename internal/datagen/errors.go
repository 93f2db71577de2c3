package datagen

import (
	"errors"
	"fmt"

	"pgbinload/internal/schema"
)

// ErrUnboundedText is returned for a text column declared without a length;
// the generator will not guess one.
var ErrUnboundedText = errors.New("text column has no length bound")

// InternalError reports a column kind that should never reach the generator.
// The type mapper rejects unknown types, so this indicates a programming
// error rather than bad input.
type InternalError struct {
	Column string
	Kind   schema.Kind
	Reason string
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("datagen: internal error: column %q (kind %s): %s", e.Column, e.Kind, e.Reason)
}

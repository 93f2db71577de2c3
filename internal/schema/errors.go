package schema

import "fmt"

// SchemaSyntaxError reports a malformed column-map entry. Index is the
// zero-based position of the entry in the comma separated list.
type SchemaSyntaxError struct {
	Entry  string
	Index  int
	Reason string
}

func (e *SchemaSyntaxError) Error() string {
	return fmt.Sprintf("schema: column-map entry %d %q: %s", e.Index, e.Entry, e.Reason)
}

// UnsupportedTypeError reports a type token with no semantic kind. Column is
// empty when the mapper is called outside of parsing.
type UnsupportedTypeError struct {
	Type   string
	Column string
}

func (e *UnsupportedTypeError) Error() string {
	if e.Column == "" {
		return fmt.Sprintf("schema: unsupported type %q", e.Type)
	}
	return fmt.Sprintf("schema: column %q: unsupported type %q", e.Column, e.Type)
}

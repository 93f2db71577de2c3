package schema

import "fmt"

// Unbounded is the MaxLength of a column declared without a length.
const Unbounded = -1

// Row holds one generated value per non-serial column, in schema order.
// Value types by kind: int32, int64, *big.Int (decimal), string (text, multibyte
// text, json) and bool.
type Row []any

// ColumnDefinition describes one column of the generated table.
type ColumnDefinition struct {
	// Name is the column name as written in the column map (case-sensitive).
	Name string
	// Kind selects the value generator and wire encoding.
	Kind Kind
	// TypeName is the declared type token without the length qualifier,
	// lower-cased (e.g. "varchar", "jsonb", "serial").
	TypeName string
	// MaxLength is the declared length, or Unbounded. Generators only honour
	// it for text kinds.
	MaxLength int
	// Tags holds the extension tags that followed the type (e.g. multibyte).
	Tags []string
	// IsSerial marks auto-increment columns; they are skipped by generation
	// and by the COPY column list.
	IsSerial bool
}

// HasTag reports whether the column carries the given extension tag.
func (c ColumnDefinition) HasTag(tag string) bool { return hasTag(c.Tags, tag) }

// OID returns the Postgres type OID used to encode values of this column.
func (c ColumnDefinition) OID() uint32 { return typeOID(c.TypeName, c.Kind) }

func (c ColumnDefinition) validate() error {
	if c.Name == "" {
		return fmt.Errorf("schema: column with empty name")
	}
	if !c.Kind.Valid() {
		return fmt.Errorf("schema: column %q has invalid kind %s", c.Name, c.Kind)
	}
	if c.IsSerial != (c.Kind == KindSerial) {
		return fmt.Errorf("schema: column %q: serial flag does not match kind %s", c.Name, c.Kind)
	}
	if c.MaxLength < Unbounded {
		return fmt.Errorf("schema: column %q: negative length %d", c.Name, c.MaxLength)
	}
	return nil
}

// Schema is an ordered, read-only list of columns. Build it with NewSchema
// or ParseColumnMap.
type Schema struct {
	cols       []ColumnDefinition
	nonSerial  []ColumnDefinition
	duplicates []string
}

// NewSchema validates cols and returns a Schema preserving their order.
// Column names must be unique.
func NewSchema(cols ...ColumnDefinition) (*Schema, error) {
	if len(cols) == 0 {
		return nil, fmt.Errorf("schema: at least one column is required")
	}
	s := &Schema{cols: make([]ColumnDefinition, 0, len(cols))}
	seen := make(map[string]struct{}, len(cols))
	for _, c := range cols {
		if err := c.validate(); err != nil {
			return nil, err
		}
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("schema: duplicate column %q", c.Name)
		}
		seen[c.Name] = struct{}{}

		c.Tags = append([]string(nil), c.Tags...)
		s.cols = append(s.cols, c)
		if !c.IsSerial {
			s.nonSerial = append(s.nonSerial, c)
		}
	}
	return s, nil
}

// Columns returns a copy of every column, serial ones included.
func (s *Schema) Columns() []ColumnDefinition {
	return append([]ColumnDefinition(nil), s.cols...)
}

// NonSerial returns a copy of the columns that receive generated values, in
// declared order.
func (s *Schema) NonSerial() []ColumnDefinition {
	return append([]ColumnDefinition(nil), s.nonSerial...)
}

// Column returns the i-th non-serial column.
func (s *Schema) Column(i int) ColumnDefinition { return s.nonSerial[i] }

// Len is the number of declared columns.
func (s *Schema) Len() int { return len(s.cols) }

// NonSerialLen is the arity of every generated row and encoded tuple.
func (s *Schema) NonSerialLen() int { return len(s.nonSerial) }

// Names returns the non-serial column names in order; this is the COPY
// target column list.
func (s *Schema) Names() []string {
	out := make([]string, len(s.nonSerial))
	for i, c := range s.nonSerial {
		out[i] = c.Name
	}
	return out
}

// Duplicates lists the column-map entries that were dropped because an
// earlier entry already used the same name.
func (s *Schema) Duplicates() []string {
	return append([]string(nil), s.duplicates...)
}

package ddl

// ColumnDef describes a single column in a table definition.
//
// Fields:
//   - Name: column name (unquoted; quoting happens at render time)
//   - SQLType: target SQL type (e.g. varchar(64), jsonb, serial)
//   - Nullable: whether NULL is allowed
type ColumnDef struct {
	Name     string
	SQLType  string
	Nullable bool
}

// TableDef holds the table name and its ordered columns. The FQN may be
// schema-qualified ("schema.table"); renderers quote each segment.
type TableDef struct {
	FQN     string
	Columns []ColumnDef
}

// IndexFQN is the name of the benchmark index that is dropped together with
// the table: the table name suffixed with "_idx", in the table's schema.
func (t TableDef) IndexFQN() string { return t.FQN + "_idx" }

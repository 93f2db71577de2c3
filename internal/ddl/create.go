// Package ddl derives the benchmark table from a parsed schema and renders
// the Postgres statements that recreate it before each load.
//
// Every run starts from an empty table: the old index and table are dropped
// and the table is created again with one column per schema entry, serial
// columns included.
package ddl

import (
	"fmt"
	"strconv"
	"strings"

	"pgbinload/internal/schema"
)

// FromSchema builds the table definition for s. Generated values are never
// NULL, but columns stay nullable so the table matches what a plain
// CREATE TABLE from the column map would give.
func FromSchema(fqn string, s *schema.Schema) (TableDef, error) {
	fqn = strings.TrimSpace(fqn)
	if fqn == "" {
		return TableDef{}, fmt.Errorf("ddl: table FQN must not be empty")
	}
	if s == nil {
		return TableDef{}, fmt.Errorf("ddl: schema is required")
	}

	def := TableDef{FQN: fqn, Columns: make([]ColumnDef, 0, s.Len())}
	for _, c := range s.Columns() {
		def.Columns = append(def.Columns, ColumnDef{
			Name:     c.Name,
			SQLType:  SQLType(c),
			Nullable: !c.IsSerial,
		})
	}
	return def, nil
}

// SQLType renders the column type for CREATE TABLE. The declared length is
// kept for character types; text, numeric and the fixed-width types are
// rendered without one.
func SQLType(c schema.ColumnDefinition) string {
	switch c.Kind {
	case schema.KindSerial:
		return schema.SerialType
	case schema.KindText, schema.KindMultibyteText:
		if c.TypeName == "text" || c.MaxLength == schema.Unbounded {
			return c.TypeName
		}
		return c.TypeName + "(" + strconv.Itoa(c.MaxLength) + ")"
	default:
		return c.TypeName
	}
}

// BuildCreateTableSQL renders a CREATE TABLE statement for t.
//
// Rules:
//   - t.FQN must be non-empty; each segment is double-quoted.
//   - Each column must have a non-empty Name and SQLType.
//   - A column is rendered as "<name>" <type> [NOT NULL].
func BuildCreateTableSQL(t TableDef) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", fmt.Errorf("ddl: table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", fmt.Errorf("ddl: column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", fmt.Errorf("ddl: column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(QuoteIdent(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		cols = append(cols, sb.String())
	}

	return fmt.Sprintf(
		"CREATE TABLE %s (\n  %s\n)",
		QuoteFQN(fqn),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildDropSQL renders the statements that remove a previous run's index
// and table.
func BuildDropSQL(t TableDef) ([]string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return nil, fmt.Errorf("ddl: table FQN must not be empty")
	}
	return []string{
		"DROP INDEX IF EXISTS " + QuoteFQN(strings.TrimSpace(t.IndexFQN())),
		"DROP TABLE IF EXISTS " + QuoteFQN(fqn),
	}, nil
}

// Recreate returns the drop statements followed by CREATE TABLE, in
// execution order.
func Recreate(t TableDef) ([]string, error) {
	stmts, err := BuildDropSQL(t)
	if err != nil {
		return nil, err
	}
	create, err := BuildCreateTableSQL(t)
	if err != nil {
		return nil, err
	}
	return append(stmts, create), nil
}

// QuoteIdent quotes a single identifier segment, e.g.:
//
//	QuoteIdent(`bench`)      => `"bench"`
//	QuoteIdent(`weird"name`) => `"weird""name"`
func QuoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

// QuoteFQN quotes a possibly schema-qualified name like "public.bench" to
// `"public"."bench"`. Empty segments are ignored.
func QuoteFQN(f string) string {
	parts := strings.Split(f, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p == "" {
			continue
		}
		out = append(out, QuoteIdent(p))
	}
	return strings.Join(out, ".")
}

// QuoteColumns quotes each column name.
func QuoteColumns(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = QuoteIdent(c)
	}
	return out
}

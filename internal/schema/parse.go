package schema

import (
	"strconv"
	"strings"
)

// ParseColumnMap parses a column-map expression into a Schema. Parsing is
// all or nothing: on error no schema is returned.
//
// Each entry is split on '=' into name and type, the type on ':' into the
// type proper and its extension tags, and the type on '(' into the type name
// and a length qualifier. Empty entries (e.g. a trailing comma) are skipped.
//
// When a name repeats, the first entry wins and later ones are dropped
// without error; they are reported by Schema.Duplicates.
func ParseColumnMap(columnMap string) (*Schema, error) {
	var (
		cols  []ColumnDefinition
		dups  []string
		seen  = map[string]struct{}{}
		index = -1
	)
	for _, raw := range strings.Split(columnMap, ",") {
		index++
		entry := strings.TrimSpace(raw)
		if entry == "" {
			continue
		}
		col, err := parseEntry(entry, index)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[col.Name]; dup {
			dups = append(dups, entry)
			continue
		}
		seen[col.Name] = struct{}{}
		cols = append(cols, col)
	}
	if len(cols) == 0 {
		return nil, &SchemaSyntaxError{Entry: columnMap, Index: 0, Reason: "no columns defined"}
	}

	s, err := NewSchema(cols...)
	if err != nil {
		return nil, err
	}
	s.duplicates = dups
	return s, nil
}

func parseEntry(entry string, index int) (ColumnDefinition, error) {
	syntaxErr := func(reason string) error {
		return &SchemaSyntaxError{Entry: entry, Index: index, Reason: reason}
	}

	fields := strings.Split(entry, "=")
	if len(fields) != 2 {
		return ColumnDefinition{}, syntaxErr("want exactly one '=' between name and type")
	}
	name := strings.TrimSpace(fields[0])
	if name == "" {
		return ColumnDefinition{}, syntaxErr("empty column name")
	}

	typeParts := strings.Split(fields[1], ":")
	typeToken := strings.TrimSpace(typeParts[0])
	var tags []string
	for _, t := range typeParts[1:] {
		t = strings.TrimSpace(t)
		if t == "" {
			return ColumnDefinition{}, syntaxErr("empty extension tag")
		}
		tags = append(tags, t)
	}

	typeName, length, err := splitLength(typeToken)
	if err != nil {
		return ColumnDefinition{}, syntaxErr(err.Error())
	}
	if typeName == "" {
		return ColumnDefinition{}, syntaxErr("empty type")
	}

	col := ColumnDefinition{
		Name:      name,
		TypeName:  normalizeType(typeName),
		MaxLength: length,
		Tags:      tags,
	}
	if col.TypeName == SerialType {
		col.Kind = KindSerial
		col.IsSerial = true
		return col, nil
	}

	kind, err := MapType(typeName, tags)
	if err != nil {
		return ColumnDefinition{}, &UnsupportedTypeError{Type: typeName, Column: name}
	}
	col.Kind = kind
	return col, nil
}

type lengthError string

func (e lengthError) Error() string { return string(e) }

// splitLength separates "varchar(64)" into ("varchar", 64). A token without
// a qualifier yields Unbounded.
func splitLength(token string) (string, int, error) {
	open := strings.IndexByte(token, '(')
	if open < 0 {
		if strings.ContainsRune(token, ')') {
			return "", 0, lengthError("unbalanced ')' in type")
		}
		return token, Unbounded, nil
	}
	if !strings.HasSuffix(token, ")") {
		return "", 0, lengthError("unterminated length qualifier")
	}
	typeName := strings.TrimSpace(token[:open])
	lenStr := strings.TrimSpace(token[open+1 : len(token)-1])
	n, err := strconv.Atoi(lenStr)
	if err != nil {
		return "", 0, lengthError("length " + strconv.Quote(lenStr) + " is not an integer")
	}
	if n < 0 {
		return "", 0, lengthError("length must not be negative")
	}
	return typeName, n, nil
}

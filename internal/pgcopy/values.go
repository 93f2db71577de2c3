package pgcopy

import (
	"math/big"

	"github.com/jackc/pgx/v5/pgtype"

	"pgbinload/internal/schema"
)

// wireValue converts a generated value into the pgtype value its column
// codec encodes. The Go type must match the column kind exactly.
func wireValue(col schema.ColumnDefinition, v any) (any, error) {
	mismatch := &ValueTypeError{Column: col.Name, Kind: col.Kind, Value: v}

	switch col.Kind {
	case schema.KindInt32:
		if x, ok := v.(int32); ok {
			return pgtype.Int4{Int32: x, Valid: true}, nil
		}
	case schema.KindInt64:
		if x, ok := v.(int64); ok {
			return pgtype.Int8{Int64: x, Valid: true}, nil
		}
	case schema.KindDecimal:
		if x, ok := v.(*big.Int); ok && x != nil {
			return pgtype.Numeric{Int: x, Exp: 0, Valid: true}, nil
		}
	case schema.KindText, schema.KindMultibyteText:
		if x, ok := v.(string); ok {
			return pgtype.Text{String: x, Valid: true}, nil
		}
	case schema.KindJSON:
		// The json codec writes the text as-is; jsonb prefixes it with the
		// format version byte.
		if x, ok := v.(string); ok {
			return x, nil
		}
	case schema.KindBoolean:
		if x, ok := v.(bool); ok {
			return pgtype.Bool{Bool: x, Valid: true}, nil
		}
	}
	return nil, mismatch
}

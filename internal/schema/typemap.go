package schema

import (
	"strings"

	"github.com/jackc/pgx/v5/pgtype"
)

// TagMultibyte marks a text column whose values come from the multibyte
// preset strings instead of random ASCII letters.
const TagMultibyte = "multibyte"

// SerialType is the reserved type token for auto-increment columns.
const SerialType = "serial"

// MapType maps a Postgres type name (without length qualifier) to its
// semantic kind. Text types become KindMultibyteText when tags carries
// TagMultibyte. There is no fallback: anything not listed below is an
// UnsupportedTypeError.
//
//	json, jsonb                          -> KindJSON
//	boolean, bool                        -> KindBoolean
//	integer, int, int4                   -> KindInt32
//	bigint, int8                         -> KindInt64
//	text, character*, varchar*, char*    -> KindText / KindMultibyteText
//	numeric*, decimal*                   -> KindDecimal
func MapType(typeName string, tags []string) (Kind, error) {
	t := normalizeType(typeName)
	switch {
	case t == "json" || t == "jsonb":
		return KindJSON, nil
	case t == "boolean" || t == "bool":
		return KindBoolean, nil
	case t == "integer" || t == "int" || t == "int4":
		return KindInt32, nil
	case t == "bigint" || t == "int8":
		return KindInt64, nil
	case t == "text" || strings.HasPrefix(t, "character") ||
		strings.HasPrefix(t, "varchar") || strings.HasPrefix(t, "char"):
		if hasTag(tags, TagMultibyte) {
			return KindMultibyteText, nil
		}
		return KindText, nil
	case strings.HasPrefix(t, "numeric") || strings.HasPrefix(t, "decimal"):
		return KindDecimal, nil
	default:
		return KindInvalid, &UnsupportedTypeError{Type: typeName}
	}
}

// typeOID resolves the wire type of a mapped column. Text flavours keep
// their own OID so the binary codec matches the target column exactly.
func typeOID(typeName string, kind Kind) uint32 {
	t := normalizeType(typeName)
	switch kind {
	case KindInt32, KindSerial:
		return pgtype.Int4OID
	case KindInt64:
		return pgtype.Int8OID
	case KindDecimal:
		return pgtype.NumericOID
	case KindBoolean:
		return pgtype.BoolOID
	case KindJSON:
		if t == "jsonb" {
			return pgtype.JSONBOID
		}
		return pgtype.JSONOID
	case KindText, KindMultibyteText:
		switch {
		case t == "text":
			return pgtype.TextOID
		case strings.HasPrefix(t, "varchar") || strings.HasPrefix(t, "character varying"):
			return pgtype.VarcharOID
		default:
			return pgtype.BPCharOID
		}
	default:
		return 0
	}
}

func normalizeType(typeName string) string {
	return strings.ToLower(strings.TrimSpace(typeName))
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

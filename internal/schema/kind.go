// Package schema turns a column-map expression into an ordered, typed table
// description used by the generator, the COPY encoder, and the DDL builder.
//
// A column map is a comma separated list of entries:
//
//	name=type[(length)][:tag[:tag...]]
//
// for example:
//
//	id=serial,code=varchar(5),note=text(64):multibyte,doc=jsonb,amount=numeric
//
// Serial columns keep their position in the schema (the table owns a sequence
// for them) but never appear in generated rows or in the COPY column list.
package schema

import "fmt"

// Kind is the semantic value kind of a column. It decides which generator
// produces values for the column and how those values are laid out on the
// COPY wire.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindInt32
	KindInt64
	KindDecimal
	KindText
	KindMultibyteText
	KindJSON
	KindBoolean
	// KindSerial is a placeholder kind for auto-increment columns. Values are
	// never generated for it.
	KindSerial
)

var kindNames = [...]string{
	KindInvalid:       "invalid",
	KindInt32:         "int32",
	KindInt64:         "int64",
	KindDecimal:       "decimal",
	KindText:          "text",
	KindMultibyteText: "multibyte_text",
	KindJSON:          "json",
	KindBoolean:       "boolean",
	KindSerial:        "serial",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds other than
// KindInvalid.
func (k Kind) Valid() bool {
	return k > KindInvalid && k <= KindSerial
}

// IsText reports whether values of this kind are bounded by a column length.
func (k Kind) IsText() bool {
	return k == KindText || k == KindMultibyteText
}

// Package pgcopy writes the PostgreSQL COPY binary format.
//
// An Encoder walks a strict lifecycle:
//
//	Unopened --Initialise--> HeaderWritten --AppendRow*--> HeaderWritten --Finalize--> Finalized
//
// Any write error moves it to Failed, after which every call is rejected.
// The encoder is pure with respect to its sink: the same schema and row
// sequence always produce the same bytes, so it can be tested without a
// database.
//
// Stream layout:
//
//	header  : "PGCOPY\n\377\r\n\0" | int32 flags (0) | int32 extension length (0)
//	tuple   : int16 field count | per field: int32 length | payload
//	trailer : int16 -1
//
// All integers are big-endian. Payloads use the server's binary send format
// for the column type (pgtype codecs).
package pgcopy

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgtype"

	"pgbinload/internal/schema"
)

// Signature is the fixed 11-byte prefix of every binary COPY stream.
const Signature = "PGCOPY\n\xff\r\n\x00"

// HeaderLen is the signature plus the flags and extension length words.
const HeaderLen = len(Signature) + 4 + 4

// Trailer is the int16 -1 that ends the stream.
var Trailer = []byte{0xff, 0xff}

// State is the lifecycle position of an Encoder.
type State uint8

const (
	StateUnopened State = iota
	StateHeaderWritten
	StateFinalized
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUnopened:
		return "unopened"
	case StateHeaderWritten:
		return "header_written"
	case StateFinalized:
		return "finalized"
	case StateFailed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}

// Encoder appends binary COPY tuples for one schema to a sink. It is owned
// by a single load and is not safe for concurrent use.
type Encoder struct {
	w     io.Writer
	cols  []schema.ColumnDefinition
	tm    *pgtype.Map
	plans []pgtype.EncodePlan

	state   State
	rows    int64
	written int64
	buf     []byte
}

// NewEncoder returns an Unopened encoder bound to w and the non-serial
// columns of s.
func NewEncoder(w io.Writer, s *schema.Schema) *Encoder {
	cols := s.NonSerial()
	return &Encoder{
		w:     w,
		cols:  cols,
		tm:    pgtype.NewMap(),
		plans: make([]pgtype.EncodePlan, len(cols)),
	}
}

// Initialise is NewEncoder followed by Encoder.Initialise.
func Initialise(w io.Writer, s *schema.Schema) (*Encoder, error) {
	e := NewEncoder(w, s)
	if err := e.Initialise(); err != nil {
		return nil, err
	}
	return e, nil
}

// State returns the current lifecycle state.
func (e *Encoder) State() State { return e.state }

// Rows returns the number of tuples appended so far.
func (e *Encoder) Rows() int64 { return e.rows }

// BytesWritten returns the number of bytes handed to the sink.
func (e *Encoder) BytesWritten() int64 { return e.written }

// Initialise writes the stream header. It may only be called once.
func (e *Encoder) Initialise() error {
	if e.state != StateUnopened {
		return &InvalidStateTransition{Op: "Initialise", From: e.state}
	}
	b := make([]byte, 0, HeaderLen)
	b = append(b, Signature...)
	b = binary.BigEndian.AppendUint32(b, 0) // flags
	b = binary.BigEndian.AppendUint32(b, 0) // header extension length
	if err := e.write(b); err != nil {
		return err
	}
	e.state = StateHeaderWritten
	return nil
}

// AppendRow encodes one tuple. values must hold exactly one value per
// non-serial column. isLastRow is informational only; the trailer is written
// by Finalize.
func (e *Encoder) AppendRow(values schema.Row, isLastRow bool) error {
	if e.state != StateHeaderWritten {
		return &InvalidStateTransition{Op: "AppendRow", From: e.state}
	}
	if len(values) != len(e.cols) {
		return &ColumnCountMismatch{Want: len(e.cols), Got: len(values), Row: e.rows}
	}

	b := binary.BigEndian.AppendUint16(e.buf[:0], uint16(len(values)))
	for i, v := range values {
		var err error
		if b, err = e.appendField(b, i, v); err != nil {
			return err
		}
	}
	e.buf = b

	if err := e.write(b); err != nil {
		return err
	}
	e.rows++
	return nil
}

// Finalize writes the trailer. After it the stream is complete and the sink
// can be rewound and read.
func (e *Encoder) Finalize() error {
	if e.state != StateHeaderWritten {
		return &InvalidStateTransition{Op: "Finalize", From: e.state}
	}
	if err := e.write(Trailer); err != nil {
		return err
	}
	e.state = StateFinalized
	return nil
}

// appendField appends the int32 length prefix and payload of column i.
func (e *Encoder) appendField(b []byte, i int, v any) ([]byte, error) {
	col := e.cols[i]
	wire, err := wireValue(col, v)
	if err != nil {
		return nil, err
	}

	plan := e.plans[i]
	if plan == nil {
		plan = e.tm.PlanEncode(col.OID(), pgtype.BinaryFormatCode, wire)
		if plan == nil {
			return nil, &ValueTypeError{Column: col.Name, Kind: col.Kind, Value: v}
		}
		e.plans[i] = plan
	}

	lenPos := len(b)
	b = append(b, 0, 0, 0, 0)
	b, err = plan.Encode(wire, b)
	if err != nil {
		return nil, fmt.Errorf("pgcopy: encode column %q: %w", col.Name, err)
	}
	if b == nil {
		// Only a nil or invalid value encodes to nil; wireValue never
		// produces one.
		return nil, &ValueTypeError{Column: col.Name, Kind: col.Kind, Value: v}
	}
	binary.BigEndian.PutUint32(b[lenPos:], uint32(len(b)-lenPos-4))
	return b, nil
}

func (e *Encoder) write(b []byte) error {
	n, err := e.w.Write(b)
	e.written += int64(n)
	if err == nil && n != len(b) {
		err = io.ErrShortWrite
	}
	if err != nil {
		e.state = StateFailed
		return fmt.Errorf("pgcopy: write: %w", err)
	}
	return nil
}

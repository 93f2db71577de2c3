package pipeline

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/big"
	"strconv"

	"pgbinload/internal/schema"
)

// Table is a fully generated data set, one Row per tuple in schema order.
type Table struct {
	Schema *schema.Schema
	Rows   []schema.Row
}

// Len is the number of rows.
func (t *Table) Len() int { return len(t.Rows) }

// WriteCSV writes one record per row, preceded by a header of column names
// when header is set.
func (t *Table) WriteCSV(w io.Writer, header bool) error {
	cw := csv.NewWriter(w)
	if header {
		if err := cw.Write(t.Schema.Names()); err != nil {
			return fmt.Errorf("pipeline: write csv header: %w", err)
		}
	}

	rec := make([]string, 0, t.Schema.NonSerialLen())
	for i, row := range t.Rows {
		rec = rec[:0]
		for _, v := range row {
			rec = append(rec, formatValue(v))
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("pipeline: write csv row %d: %w", i, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("pipeline: flush csv: %w", err)
	}
	return nil
}

func formatValue(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int32:
		return strconv.FormatInt(int64(x), 10)
	case int64:
		return strconv.FormatInt(x, 10)
	case *big.Int:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	case nil:
		return ""
	default:
		return fmt.Sprint(x)
	}
}

// Package pipeline drives a row source through the COPY encoder.
//
// Two modes produce byte-identical streams for the same source:
//
//   - Materialized generates every row into a Table first and then encodes
//     it. The table can be dumped to CSV for inspection.
//   - Streaming generates and encodes one row at a time, so memory use does
//     not grow with the row count.
//
// The encoder is initialised before the first row and finalized exactly
// once after the last, including for zero rows.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"pgbinload/internal/datagen"
	"pgbinload/internal/metrics"
	"pgbinload/internal/pgcopy"
	"pgbinload/internal/schema"
)

// DefaultProgressEvery is the row interval between progress callbacks.
const DefaultProgressEvery = 50000

// Mode selects how rows flow from the source to the encoder.
type Mode int

const (
	Materialized Mode = iota
	Streaming
)

func (m Mode) String() string {
	switch m {
	case Materialized:
		return "materialized"
	case Streaming:
		return "streaming"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Options configure one Run.
type Options struct {
	Mode   Mode
	Rows   int
	Schema *schema.Schema
	Source datagen.RowSource

	// Progress, when set, is called with the row index before rows
	// ProgressEvery, 2*ProgressEvery, ... are generated. Row 0 never reports.
	Progress      func(row int)
	ProgressEvery int

	// Inspect receives a CSV dump of the generated table. Materialized only.
	Inspect io.Writer
	// InspectAppend omits the CSV header, for appending to a dump that
	// already has one.
	InspectAppend bool

	// Job labels the encode metrics.
	Job    string
	Logger zerolog.Logger
}

// Result summarizes an encoded stream.
type Result struct {
	Rows     int64
	Bytes    int64
	Duration time.Duration
}

// Run generates opts.Rows rows and encodes them with enc, which must be
// Unopened and bound to opts.Schema. ctx is checked between rows only.
func Run(ctx context.Context, opts Options, enc *pgcopy.Encoder) (res Result, err error) {
	if opts.Schema == nil || opts.Source == nil {
		return Result{}, fmt.Errorf("pipeline: schema and source are required")
	}
	if opts.Rows < 0 {
		return Result{}, fmt.Errorf("pipeline: negative row count %d", opts.Rows)
	}
	if opts.Inspect != nil && opts.Mode != Materialized {
		return Result{}, fmt.Errorf("pipeline: inspect output requires %s mode", Materialized)
	}
	if opts.ProgressEvery <= 0 {
		opts.ProgressEvery = DefaultProgressEvery
	}

	log := opts.Logger.With().Str("component", "pipeline").Stringer("mode", opts.Mode).Logger()
	start := time.Now()
	defer func() {
		res.Rows = enc.Rows()
		res.Bytes = enc.BytesWritten()
		res.Duration = time.Since(start)
		metrics.RecordPhase(opts.Job, "encode", err, res.Duration)
		if err == nil {
			metrics.RecordRows(opts.Job, "generated", res.Rows)
			metrics.RecordBytes(opts.Job, res.Bytes)
		}
	}()

	if err = enc.Initialise(); err != nil {
		return res, err
	}
	log.Debug().Int("rows", opts.Rows).Msg("stream initialised")

	switch opts.Mode {
	case Materialized:
		var t *Table
		if t, err = Generate(ctx, opts); err != nil {
			return res, err
		}
		if opts.Inspect != nil {
			if err = t.WriteCSV(opts.Inspect, !opts.InspectAppend); err != nil {
				return res, err
			}
			log.Info().Int("rows", t.Len()).Msg("inspect table written")
		}
		err = encodeTable(ctx, t, enc)
	case Streaming:
		err = stream(ctx, opts, enc)
	default:
		err = fmt.Errorf("pipeline: unknown mode %v", opts.Mode)
	}
	if err != nil {
		return res, err
	}

	if err = enc.Finalize(); err != nil {
		return res, err
	}
	log.Debug().Int64("bytes", enc.BytesWritten()).Msg("stream finalized")
	return res, nil
}

// Generate materializes opts.Rows rows from opts.Source.
func Generate(ctx context.Context, opts Options) (*Table, error) {
	t := &Table{Schema: opts.Schema, Rows: make([]schema.Row, 0, opts.Rows)}
	for i := 0; i < opts.Rows; i++ {
		row, err := nextRow(ctx, opts, i)
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, row)
	}
	return t, nil
}

func encodeTable(ctx context.Context, t *Table, enc *pgcopy.Encoder) error {
	for i, row := range t.Rows {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := enc.AppendRow(row, i == len(t.Rows)-1); err != nil {
			return fmt.Errorf("pipeline: row %d: %w", i, err)
		}
	}
	return nil
}

func stream(ctx context.Context, opts Options, enc *pgcopy.Encoder) error {
	for i := 0; i < opts.Rows; i++ {
		row, err := nextRow(ctx, opts, i)
		if err != nil {
			return err
		}
		if err := enc.AppendRow(row, i == opts.Rows-1); err != nil {
			return fmt.Errorf("pipeline: row %d: %w", i, err)
		}
	}
	return nil
}

func nextRow(ctx context.Context, opts Options, i int) (schema.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if opts.Progress != nil && i > 0 && i%opts.ProgressEvery == 0 {
		opts.Progress(i)
	}
	row, err := opts.Source.NextRow(opts.Schema, i)
	if err != nil {
		return nil, fmt.Errorf("pipeline: generate row %d: %w", i, err)
	}
	return row, nil
}

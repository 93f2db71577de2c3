package storage

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"

	"pgbinload/internal/metrics"
)

// DefaultProgressBytes is how often Copy logs transfer progress.
const DefaultProgressBytes = 64 << 20

// Prepare executes stmts in order, stopping at the first failure.
func Prepare(ctx context.Context, repo Repository, stmts []string, job string, log zerolog.Logger) (err error) {
	start := time.Now()
	defer func() { metrics.RecordPhase(job, "prepare", err, time.Since(start)) }()

	for i, stmt := range stmts {
		log.Debug().Str("sql", stmt).Msg("exec")
		if err = repo.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("storage: statement %d of %d: %w", i+1, len(stmts), err)
		}
	}
	log.Info().Int("statements", len(stmts)).Dur("took", time.Since(start)).Msg("table prepared")
	return nil
}

// CopyRequest describes one COPY of an encoded stream.
type CopyRequest struct {
	Table   string
	Columns []string
	Stream  io.Reader
	// Size is the stream length in bytes, used for progress logs only.
	Size int64
	// WantRows, when >= 0, is the row count the server must report.
	WantRows int64

	ProgressBytes int64
	Job           string
}

// CopyResult reports a finished COPY.
type CopyResult struct {
	Rows     int64
	Bytes    int64
	Duration time.Duration
}

// Copy streams req.Stream into the target table and checks the row count the
// server acknowledged.
func Copy(ctx context.Context, repo Repository, req CopyRequest, log zerolog.Logger) (res CopyResult, err error) {
	if req.ProgressBytes <= 0 {
		req.ProgressBytes = DefaultProgressBytes
	}
	log = log.With().Str("component", "loader").Str("table", req.Table).Logger()

	pr := &progressReader{r: req.Stream, every: req.ProgressBytes, total: req.Size, start: time.Now(), log: log}
	pr.next = pr.every

	log.Info().Str("size", humanize.IBytes(uint64(req.Size))).Int("columns", len(req.Columns)).Msg("copy started")
	defer func() {
		res.Bytes = pr.n
		res.Duration = time.Since(pr.start)
		metrics.RecordPhase(req.Job, "copy", err, res.Duration)
	}()

	res.Rows, err = repo.CopyBinary(ctx, req.Table, req.Columns, pr)
	if err != nil {
		log.Error().Err(err).Int64("sent", pr.n).Msg("copy failed")
		return res, err
	}
	if req.WantRows >= 0 && res.Rows != req.WantRows {
		return res, fmt.Errorf("storage: server loaded %d rows, want %d", res.Rows, req.WantRows)
	}
	metrics.RecordRows(req.Job, "loaded", res.Rows)
	return res, nil
}

// progressReader logs throughput every 'every' bytes read.
type progressReader struct {
	r     io.Reader
	n     int64
	next  int64
	every int64
	total int64
	start time.Time
	log   zerolog.Logger
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.n += int64(n)
	if p.n >= p.next {
		elapsed := time.Since(p.start)
		rate := float64(0)
		if elapsed > 0 {
			rate = float64(p.n) / elapsed.Seconds()
		}
		ev := p.log.Info().
			Str("sent", humanize.IBytes(uint64(p.n))).
			Str("rate", humanize.IBytes(uint64(rate))+"/s").
			Dur("elapsed", elapsed.Truncate(time.Millisecond))
		if p.total > 0 {
			ev = ev.Float64("pct", float64(p.n)*100/float64(p.total))
		}
		ev.Msg("copy progress")
		for p.next <= p.n {
			p.next += p.every
		}
	}
	return n, err
}

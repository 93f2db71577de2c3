package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"pgbinload/internal/config"
	"pgbinload/internal/datagen"
	"pgbinload/internal/ddl"
	"pgbinload/internal/metrics"
	"pgbinload/internal/metrics/datadog"
	"pgbinload/internal/metrics/prompush"
	"pgbinload/internal/pgcopy"
	"pgbinload/internal/pipeline"
	"pgbinload/internal/schema"
	"pgbinload/internal/sink"
	"pgbinload/internal/storage"
	"pgbinload/internal/storage/postgres"
)

// Test seams.
var (
	newRepositoryFn = func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		return storage.New(ctx, cfg)
	}
	newSinkFn = func(cfg *config.Config) (sink.ByteSink, error) {
		if cfg.TemporaryFile == "" {
			return sink.NewMemory(), nil
		}
		return sink.NewFile(cfg.TemporaryFile, 0)
	}
	nowFn = time.Now
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate rows, encode them as binary COPY and load them",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			log := newLogger(cmd, cfg)
			s, issues := config.ValidateConfig(cfg)
			if err := reportIssues(log, issues); err != nil {
				return err
			}

			flush, err := setupMetrics(cfg.Metrics, log)
			if err != nil {
				return err
			}
			defer flush()

			rep, err := runLoad(cmd.Context(), cfg, s, log)
			if err != nil {
				log.Error().Err(err).Msg("load failed")
				return err
			}
			return rep.write(cmd.OutOrStdout())
		},
	}
	addDataFlags(cmd.Flags())
	addLoadFlags(cmd.Flags())
	return cmd
}

// setupMetrics installs the configured backend and returns the function that
// pushes what was recorded.
func setupMetrics(m config.Metrics, log zerolog.Logger) (func(), error) {
	var (
		b   metrics.Backend
		err error
	)
	switch m.Backend {
	case "", config.MetricsNone:
		return func() {}, nil
	case config.MetricsPrompush:
		b, err = prompush.NewBackend(m.Job, m.PushgatewayURL)
	case config.MetricsDatadog:
		b, err = datadog.NewBackend(datadog.Config{Addr: m.DatadogAddr, GlobalTags: []string{"job:" + m.Job}})
	default:
		return nil, fmt.Errorf("unknown metrics backend %q", m.Backend)
	}
	if err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	metrics.SetBackend(b)
	log.Info().Str("backend", m.Backend).Msg("metrics enabled")

	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn().Err(err).Msg("metrics flush failed")
		}
	}, nil
}

// report is what a finished run prints.
type report struct {
	Table      string
	Mode       pipeline.Mode
	Seed       int64
	Rows       int64
	StreamSize int64
	Checksum   uint64
	StreamTime time.Duration
	InsertTime time.Duration
	Overall    time.Duration
}

func (r report) write(w io.Writer) error {
	p := message.NewPrinter(language.English)
	lines := []struct {
		format string
		args   []any
	}{
		{"Table:          %s (%s, seed %d)\n", []any{r.Table, r.Mode, r.Seed}},
		{"Rows:           %d\n", []any{r.Rows}},
		{"Stream size:    %d bytes (%s)\n", []any{r.StreamSize, humanize.IBytes(uint64(r.StreamSize))}},
		{"Stream xxh3:    %s\n", []any{fmt.Sprintf("%016x", r.Checksum)}},
		{"Stream time:    %d ms\n", []any{r.StreamTime.Milliseconds()}},
		{"DB insert time: %d ms\n", []any{r.InsertTime.Milliseconds()}},
		{"Overall time:   %d ms\n", []any{r.Overall.Milliseconds()}},
	}
	for _, l := range lines {
		if _, err := p.Fprintf(w, l.format, l.args...); err != nil {
			return err
		}
	}
	return nil
}

// runLoad encodes the stream and recreates the table concurrently, then
// copies the stream in.
func runLoad(ctx context.Context, cfg *config.Config, s *schema.Schema, log zerolog.Logger) (*report, error) {
	start := nowFn()
	job := cfg.Metrics.Job
	seed := cfg.Seed
	if seed == 0 {
		seed = start.UnixNano()
	}
	mode := pipeline.Materialized
	if cfg.StreamData {
		mode = pipeline.Streaming
	}
	log = log.With().Str("table", cfg.TableName).Logger()
	log.Info().Int("rows", cfg.RowCount).Str("mode", mode.String()).Int64("seed", seed).
		Int("columns", s.Len()).Msg("run started")

	dsn, err := cfg.ConnString()
	if err != nil {
		return nil, err
	}
	def, err := ddl.FromSchema(cfg.TableName, s)
	if err != nil {
		return nil, err
	}
	stmts, err := ddl.Recreate(def)
	if err != nil {
		return nil, err
	}

	out, err := newSinkFn(cfg)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			log.Warn().Err(cerr).Msg("close spool")
		}
	}()

	var (
		repo    storage.Repository
		encoded pipeline.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r, err := newRepositoryFn(gctx, storage.Config{
			Kind:           postgres.Kind,
			DSN:            dsn,
			ConnectRetries: cfg.Connect.Retries,
			ConnectBackoff: cfg.Connect.Backoff,
		})
		if err != nil {
			return fmt.Errorf("connect: %w", err)
		}
		repo = r
		return storage.Prepare(gctx, repo, stmts, job, log)
	})
	g.Go(func() error {
		var err error
		encoded, err = encode(gctx, cfg, s, mode, seed, out, log)
		return err
	})
	err = g.Wait()
	if repo != nil {
		defer repo.Close()
	}
	if err != nil {
		return nil, err
	}

	stream, err := out.Rewind()
	if err != nil {
		return nil, err
	}
	copied, err := storage.Copy(ctx, repo, storage.CopyRequest{
		Table:    def.FQN,
		Columns:  s.Names(),
		Stream:   stream,
		Size:     out.Size(),
		WantRows: int64(cfg.RowCount),
		Job:      job,
	}, log)
	if err != nil {
		return nil, err
	}

	rep := &report{
		Table:      def.FQN,
		Mode:       mode,
		Seed:       seed,
		Rows:       copied.Rows,
		StreamSize: out.Size(),
		Checksum:   out.Sum64(),
		StreamTime: encoded.Duration,
		InsertTime: copied.Duration,
		Overall:    nowFn().Sub(start),
	}
	log.Info().Int64("rows", rep.Rows).Int64("bytes", rep.StreamSize).
		Dur("stream", rep.StreamTime).Dur("insert", rep.InsertTime).Dur("overall", rep.Overall).
		Msg("run finished")
	return rep, nil
}

// encode runs the pipeline into out, writing the inspect CSV when asked.
func encode(ctx context.Context, cfg *config.Config, s *schema.Schema, mode pipeline.Mode, seed int64, out io.Writer, log zerolog.Logger) (pipeline.Result, error) {
	opts := pipeline.Options{
		Mode:   mode,
		Rows:   cfg.RowCount,
		Schema: s,
		Source: datagen.NewGenerator(seed),
		Progress: func(row int) {
			log.Info().Int("row", row).Int("of", cfg.RowCount).Msg("generating")
		},
		Job:    cfg.Metrics.Job,
		Logger: log,
	}

	if mode == pipeline.Materialized && cfg.InspectFile != "" {
		path := cfg.InspectPath()
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("open inspect file: %w", err)
		}
		defer f.Close()
		fi, err := f.Stat()
		if err != nil {
			return pipeline.Result{}, fmt.Errorf("stat inspect file: %w", err)
		}
		// Runs append to the same dump; only the first writes the header.
		opts.InspectAppend = fi.Size() > 0
		bw := bufio.NewWriter(f)
		defer func() {
			if err := bw.Flush(); err != nil {
				log.Warn().Err(err).Str("path", path).Msg("flush inspect file")
			}
		}()
		opts.Inspect = bw
		log.Info().Str("path", path).Msg("writing inspect csv")
	}

	return pipeline.Run(ctx, opts, pgcopy.NewEncoder(out, s))
}

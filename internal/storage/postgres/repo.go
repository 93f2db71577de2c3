// Package postgres implements storage.Repository with pgx v5. A load runs
// a single COPY ... FROM STDIN (FORMAT binary) over one pooled connection,
// feeding the server the pre-encoded stream as is.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"pgbinload/internal/ddl"
	"pgbinload/internal/storage"
)

// Config holds Postgres repository configuration.
type Config struct {
	DSN            string
	ConnectRetries int
	ConnectBackoff time.Duration
}

// Repository is a Postgres-backed implementation of storage.Repository.
type Repository struct {
	pool *pgxpool.Pool
}

var _ storage.Repository = (*Repository)(nil)

// NewRepository opens a pool for cfg.DSN and waits until the server answers
// a ping, retrying with exponential backoff. It returns a close function for
// cleanup.
func NewRepository(ctx context.Context, cfg Config) (*Repository, func(), error) {
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, nil, fmt.Errorf("postgres: parse connection string: %w", err)
	}
	// One connection for DDL, one for COPY.
	pcfg.MaxConns = 2

	pool, err := pgxpool.NewWithConfig(ctx, pcfg)
	if err != nil {
		return nil, nil, fmt.Errorf("pgxpool: %w", err)
	}

	if err := retry.Do(ctx, connectBackoff(cfg), func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return retry.RetryableError(err)
		}
		return nil
	}); err != nil {
		pool.Close()
		return nil, nil, fmt.Errorf("postgres: connect to %s:%d: %w", pcfg.ConnConfig.Host, pcfg.ConnConfig.Port, err)
	}
	return &Repository{pool: pool}, pool.Close, nil
}

func connectBackoff(cfg Config) retry.Backoff {
	base := cfg.ConnectBackoff
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	retries := cfg.ConnectRetries
	if retries < 0 {
		retries = 0
	}
	b := retry.NewExponential(base)
	b = retry.WithCappedDuration(30*time.Second, b)
	return retry.WithMaxRetries(uint64(retries), b)
}

// Close closes the pool. It is safe to call more than once.
func (r *Repository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// Exec implements storage.Repository.Exec.
func (r *Repository) Exec(ctx context.Context, sql string) error {
	if _, err := r.pool.Exec(ctx, sql); err != nil {
		return describe(err)
	}
	return nil
}

// CopyBinary implements storage.Repository.CopyBinary. The stream goes to the
// server unchanged; pgx's row-based CopyFrom would re-encode every value.
func (r *Repository) CopyBinary(ctx context.Context, table string, columns []string, src io.Reader) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: acquire: %w", err)
	}
	defer conn.Release()

	tag, err := conn.Conn().PgConn().CopyFrom(ctx, src, BuildCopySQL(table, columns))
	if err != nil {
		return 0, fmt.Errorf("postgres: copy into %s: %w", table, describe(err))
	}
	return tag.RowsAffected(), nil
}

// BuildCopySQL renders the COPY statement for a binary stream. Serial
// columns are not part of the stream, so columns lists only the encoded
// ones.
func BuildCopySQL(table string, columns []string) string {
	var sb strings.Builder
	sb.WriteString("COPY ")
	sb.WriteString(ddl.QuoteFQN(table))
	if len(columns) > 0 {
		sb.WriteString(" (")
		sb.WriteString(strings.Join(ddl.QuoteColumns(columns), ", "))
		sb.WriteString(")")
	}
	sb.WriteString(" FROM STDIN (FORMAT binary)")
	return sb.String()
}

// PgError adds the server's SQLSTATE, detail and context to the message of a
// server-side error. The pgconn error stays reachable through errors.As.
type PgError struct {
	*pgconn.PgError
}

func (e *PgError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (SQLSTATE %s)", e.Message, e.Code)
	if e.Detail != "" {
		sb.WriteString(": ")
		sb.WriteString(e.Detail)
	}
	if e.Where != "" {
		sb.WriteString("; where: ")
		sb.WriteString(e.Where)
	}
	return sb.String()
}

func (e *PgError) Unwrap() error { return e.PgError }

func describe(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &PgError{PgError: pgErr}
	}
	return err
}

// Package storage defines the backend contract used by the loader and a
// small registry so the command can open a backend by kind without importing
// it directly.
package storage

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"
)

// Repository is a target database that accepts a binary COPY stream.
type Repository interface {
	// Exec runs a single statement that returns no rows.
	Exec(ctx context.Context, sql string) error
	// CopyBinary streams r, a complete binary COPY stream whose tuples hold
	// one field per entry of columns, into table. It returns the row count
	// reported by the server.
	CopyBinary(ctx context.Context, table string, columns []string, r io.Reader) (int64, error)
	// Close releases the connection pool.
	Close()
}

// Config selects and configures a backend.
type Config struct {
	Kind string
	DSN  string

	// ConnectRetries is how many times a failed initial connection is
	// retried. ConnectBackoff is the first retry delay; it doubles per retry.
	ConnectRetries int
	ConnectBackoff time.Duration
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. It is typically called from
// the backend package's init function. Registering a kind twice replaces the
// earlier factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[strings.ToLower(kind)] = f
}

// New opens the backend registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[strings.ToLower(cfg.Kind)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: no backend registered for kind %q (have %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	return f(ctx, cfg)
}

// Kinds lists the registered backend kinds in sorted order.
func Kinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

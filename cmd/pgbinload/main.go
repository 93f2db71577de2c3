// Command pgbinload generates synthetic rows, encodes them as a PostgreSQL
// binary COPY stream and loads the stream into a freshly created table,
// reporting how long each phase took.
//
// Usage:
//
//	pgbinload run      [--config FILE] [flags]   encode and load
//	pgbinload validate [--config FILE] [flags]   check the configuration
//	pgbinload encode   --out FILE [flags]        encode only, no database
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

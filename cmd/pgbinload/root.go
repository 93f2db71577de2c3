package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"pgbinload/internal/config"
	"pgbinload/internal/logging"
)

// flagKeys binds command-line flags to configuration keys.
var flagKeys = map[string]string{
	"connection-string": "connection_string",
	"table":             "table_name",
	"rows":              "row_count",
	"column-map":        "column_map",
	"stream":            "stream_data",
	"temp-file":         "temporary_file",
	"inspect":           "inspect_file",
	"seed":              "seed",
	"log-level":         "log_level",
	"log-format":        "log_format",
	"metrics-backend":   "metrics.backend",
	"pushgateway-url":   "metrics.pushgateway_url",
	"datadog-addr":      "metrics.datadog_addr",
	"job":               "metrics.job",
	"connect-retries":   "connect.retries",
	"connect-backoff":   "connect.backoff",
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "pgbinload",
		Short: "PostgreSQL binary COPY bulk-load benchmark",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (ini, yaml, json or toml); defaults to ./pgbinload.* when present")
	pf.String("log-level", "info", "log level: trace, debug, info, warn, error, disabled")
	pf.String("log-format", string(logging.FormatConsole), "log format: console or json")

	root.AddCommand(newRunCmd(), newValidateCmd(), newEncodeCmd())
	return root
}

// addDataFlags registers the flags that shape the generated stream.
func addDataFlags(fs *pflag.FlagSet) {
	fs.String("table", "", "target table name, optionally schema-qualified")
	fs.Int("rows", 0, "number of rows to generate")
	fs.String("column-map", "", "column definitions, e.g. a=serial,b=varchar(64),c=json")
	fs.Bool("stream", true, "encode rows as they are generated instead of materializing the table")
	fs.Int64("seed", 0, "random seed; 0 picks one and logs it")
}

// addLoadFlags registers the flags used when talking to the database.
func addLoadFlags(fs *pflag.FlagSet) {
	fs.String("connection-string", "", "PostgreSQL connection string (URL, keyword/value or Npgsql style)")
	fs.String("temp-file", "", "spool the stream to this file instead of memory")
	fs.String("inspect", "", "path prefix for a CSV dump of the generated table (materialized runs only)")
	fs.String("metrics-backend", "", "metrics backend: none, prompush or datadog")
	fs.String("pushgateway-url", "", "Prometheus Pushgateway URL")
	fs.String("datadog-addr", "", "DogStatsD address")
	fs.String("job", "", "job name for metrics")
	fs.Int("connect-retries", 0, "connection attempts retried before giving up")
	fs.Duration("connect-backoff", 0, "first connection retry delay; doubles per retry")
}

// loadConfig merges defaults, the config file, PGBINLOAD_* variables and the
// flags the user actually set.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	v := config.New()
	var bindErr error
	cmd.Flags().VisitAll(func(f *pflag.Flag) {
		key, ok := flagKeys[f.Name]
		if !ok || bindErr != nil {
			return
		}
		bindErr = v.BindPFlag(key, f)
	})
	if bindErr != nil {
		return nil, fmt.Errorf("bind flags: %w", bindErr)
	}

	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	return config.Load(v, path)
}

func newLogger(cmd *cobra.Command, cfg *config.Config) zerolog.Logger {
	return logging.New(cmd.ErrOrStderr(), cfg.LogLevel, logging.Format(cfg.LogFormat))
}

// reportIssues logs every issue and returns the joined errors, if any.
func reportIssues(log zerolog.Logger, issues []config.Issue) error {
	for _, iss := range issues {
		ev := log.Warn()
		if iss.Severity == config.SeverityError {
			ev = log.Error()
		}
		ev.Str("path", iss.Path).Msg(iss.Message)
	}
	if err := config.Errors(issues); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

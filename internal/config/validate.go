package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	"pgbinload/internal/datagen"
	"pgbinload/internal/logging"
	"pgbinload/internal/schema"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding. Path is the config key the
// finding is about (e.g. "column_map", "metrics.pushgateway_url").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue has SeverityError.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Errors joins the error-severity issues into one error, or returns nil.
func Errors(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}

// ValidateConfig performs static validation of c without touching the
// database. It returns the parsed schema when the column map is valid so
// callers do not parse it twice.
func ValidateConfig(c *Config) (*schema.Schema, []Issue) {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if cs, err := c.ConnString(); err != nil {
		add(SeverityError, "connection_string", "%v", err)
	} else if cs == "" {
		add(SeverityError, "connection_string", "connection_string must not be empty")
	} else if _, err := pgconn.ParseConfig(cs); err != nil {
		add(SeverityError, "connection_string", "cannot parse connection string: %v", err)
	}

	if strings.TrimSpace(c.TableName) == "" {
		add(SeverityError, "table_name", "table_name must not be empty")
	}

	switch {
	case c.RowCount < 0:
		add(SeverityError, "row_count", "row_count must not be negative, got %d", c.RowCount)
	case c.RowCount == 0:
		add(SeverityWarning, "row_count", "row_count is 0; only the table is recreated and an empty stream is loaded")
	}

	s, schemaIssues := validateColumnMap(c.ColumnMap)
	issues = append(issues, schemaIssues...)

	if c.InspectFile != "" && c.StreamData {
		add(SeverityWarning, "inspect_file", "inspect file is only written when stream_data is false")
	}

	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		add(SeverityWarning, "log_level", "unknown log level %q; using info", c.LogLevel)
	}
	switch logging.Format(c.LogFormat) {
	case logging.FormatConsole, logging.FormatJSON:
	default:
		add(SeverityError, "log_format", "log_format must be %q or %q, got %q", logging.FormatConsole, logging.FormatJSON, c.LogFormat)
	}

	issues = append(issues, validateMetrics(c.Metrics)...)

	if c.Connect.Retries < 0 {
		add(SeverityError, "connect.retries", "connect.retries must not be negative")
	}
	if c.Connect.Backoff < 0 {
		add(SeverityError, "connect.backoff", "connect.backoff must not be negative")
	}

	return s, issues
}

func validateColumnMap(columnMap string) (*schema.Schema, []Issue) {
	s, err := schema.ParseColumnMap(columnMap)
	if err != nil {
		return nil, []Issue{{Severity: SeverityError, Path: "column_map", Message: err.Error()}}
	}

	var issues []Issue
	for _, dup := range s.Duplicates() {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "column_map",
			Message:  fmt.Sprintf("entry %q repeats an earlier column name and is ignored", dup),
		})
	}
	if s.NonSerialLen() == 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "column_map",
			Message:  "column_map has only serial columns; there is nothing to generate",
		})
	}

	maxRunes := datagen.MaxMultibyteRunes()
	for _, c := range s.Columns() {
		path := "column_map." + c.Name
		switch {
		case c.Kind == schema.KindText && c.MaxLength == schema.Unbounded:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     path,
				Message:  fmt.Sprintf("text column %q needs a length, e.g. %s(64)", c.Name, c.TypeName),
			})
		case c.Kind == schema.KindMultibyteText && c.MaxLength != schema.Unbounded && c.MaxLength < maxRunes:
			sev := SeverityError
			if c.TypeName == "text" {
				// text ignores the declared length, so the server accepts it.
				sev = SeverityWarning
			}
			issues = append(issues, Issue{
				Severity: sev,
				Path:     path,
				Message:  fmt.Sprintf("multibyte values are up to %d characters but %q is declared with length %d", maxRunes, c.Name, c.MaxLength),
			})
		}
	}
	return s, issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", MetricsNone:
	case MetricsPrompush:
		if strings.TrimSpace(m.PushgatewayURL) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "metrics.pushgateway_url is required when metrics.backend is prompush",
			})
		}
	case MetricsDatadog:
		if strings.TrimSpace(m.DatadogAddr) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.datadog_addr",
				Message:  "metrics.datadog_addr is required when metrics.backend is datadog",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (want none, prompush or datadog)", m.Backend),
		})
	}
	if m.Backend != "" && m.Backend != MetricsNone && strings.TrimSpace(m.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.job",
			Message:  "metrics.job is empty; metrics will be grouped under the backend default",
		})
	}
	return issues
}

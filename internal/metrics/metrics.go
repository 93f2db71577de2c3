// Package metrics records counters and phase timings of a bulk-load run.
//
// Instrumentation goes through a process-wide Backend. Until SetBackend is
// called every Record* function is a no-op. Concrete systems (Prometheus
// Pushgateway, DogStatsD) live in subpackages and are selected at startup.
//
// Instrumented phases are the ones a run reports timings for: "connect",
// "prepare" (DDL), "encode" and "copy".
package metrics

import "time"

// Metric names shared by all backends.
const (
	PhaseTotal    = "pgbinload_phase_total"
	PhaseDuration = "pgbinload_phase_duration_seconds"
	RowsTotal     = "pgbinload_rows_total"
	BytesTotal    = "pgbinload_bytes_total"
)

// Labels annotate one observation.
type Labels map[string]string

// Backend receives observations. Implementations must tolerate unknown
// metric names.
type Backend interface {
	// IncCounter adds delta to a counter.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records one sample, in seconds for durations.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush hands buffered samples to the remote system.
	Flush() error
}

type discard struct{}

func (discard) IncCounter(string, float64, Labels)       {}
func (discard) ObserveHistogram(string, float64, Labels) {}
func (discard) Flush() error                             { return nil }

var current Backend = discard{}

// SetBackend replaces the process-wide backend. A nil b is ignored.
func SetBackend(b Backend) {
	if b != nil {
		current = b
	}
}

// Flush flushes the installed backend.
func Flush() error { return current.Flush() }

// RecordPhase counts one execution of a run phase and records its duration.
func RecordPhase(job, phase string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    job,
		"phase":  phase,
		"status": status,
	}

	current.IncCounter(PhaseTotal, 1, lbls)
	current.ObserveHistogram(PhaseDuration, d.Seconds(), lbls)
}

// RecordRows increments the row counter for the given job and kind.
//
// Kinds used by the loader:
//   - "generated": rows produced and encoded
//   - "loaded": rows acknowledged by the server's COPY command tag
func RecordRows(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current.IncCounter(RowsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordBytes increments the encoded byte counter for the given job.
func RecordBytes(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current.IncCounter(BytesTotal, float64(delta), Labels{
		"job": job,
	})
}

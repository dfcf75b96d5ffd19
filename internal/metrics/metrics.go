// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from record pipelines.
//
// Library code records through the package-level helpers (RecordStep,
// RecordRow, RecordStage, RecordBatches). A no-op backend is installed by
// default so instrumentation is always safe to call; the CLI installs a
// concrete backend (Prometheus Pushgateway or DogStatsD) from a subpackage,
// which keeps those dependencies out of the core.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the helpers in this package.
const (
	StepTotal    = "recflow_step_total"
	StepDuration = "recflow_step_duration_seconds"
	RecordsTotal = "recflow_records_total"
	StageRecords = "recflow_stage_records_total"
	BatchesTotal = "recflow_batches_total"
)

const (
	directionIn   = "in"
	directionOut  = "out"
	statusSuccess = "success"
	statusFailure = "failure"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep measures latency and success/failure of one pipeline step
// (produce, modify, consume, flush).
func RecordStep(job, step string, err error, d time.Duration) {
	status := statusSuccess
	if err != nil {
		status = statusFailure
	}
	lbls := Labels{
		"job":    job,
		"step":   step,
		"status": status,
	}
	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind.
//
// Typical kinds are "produced", "emitted" and "consumed".
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordStage counts records entering and leaving a named transform stage.
func RecordStage(job, stage string, in, out int64) {
	b := current()
	if in > 0 {
		b.IncCounter(StageRecords, float64(in), Labels{"job": job, "stage": stage, "direction": directionIn})
	}
	if out > 0 {
		b.IncCounter(StageRecords, float64(out), Labels{"job": job, "stage": stage, "direction": directionOut})
	}
}

// RecordBatches increments a batch-level counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{
		"job": job,
	})
}

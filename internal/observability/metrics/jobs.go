package metrics

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
)

const (
	JobErrorDeadlineExceeded = "deadline_exceeded"
	JobErrorLockTimeout      = "db_lock_timeout"
	JobErrorSerialization    = "serialization_failure"
	JobErrorDB               = "db"
	JobErrorUnknown          = "unknown"
)

// JobMetrics tracks background job runs such as the invitation sweeper.
type JobMetrics struct {
	runs     *prometheus.CounterVec
	affected *prometheus.CounterVec
	failures *prometheus.CounterVec
}

func NewJobMetrics() (*JobMetrics, error) {
	return NewJobMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewJobMetricsWithRegisterer(reg prometheus.Registerer) (*JobMetrics, error) {
	m := &JobMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_job_runs_total",
			Help: "Background job executions.",
		}, []string{"job"}),
		affected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_job_rows_affected_total",
			Help: "Rows changed by background jobs.",
		}, []string{"job"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marketplace_job_failures_total",
			Help: "Background job failures by classified reason.",
		}, []string{"job", "reason"}),
	}
	for _, c := range []prometheus.Collector{m.runs, m.affected, m.failures} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *JobMetrics) RecordRun(job string, affected int64, err error) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(job).Inc()
	if affected > 0 {
		m.affected.WithLabelValues(job).Add(float64(affected))
	}
	if err != nil {
		m.failures.WithLabelValues(job, ClassifyJobError(err)).Inc()
	}
}

// ClassifyJobError maps driver errors onto a bounded set of reasons.
func ClassifyJobError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return JobErrorDeadlineExceeded
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03":
			return JobErrorLockTimeout
		case "40001":
			return JobErrorSerialization
		default:
			return JobErrorDB
		}
	}
	return JobErrorUnknown
}

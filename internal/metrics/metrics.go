package metrics

import (
	"regexp"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// RequestDuration tracks HTTP request duration in seconds by method, path, status.
	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)

	// RequestTotal counts HTTP requests by method, path, status.
	RequestTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// AuditRecordsTotal counts written audit records by action and resource type.
	AuditRecordsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_records_total",
			Help: "Total number of audit records written",
		},
		[]string{"action", "resource_type"},
	)

	// AuditWriteFailuresTotal counts swallowed audit write failures.
	AuditWriteFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_write_failures_total",
			Help: "Total number of audit record writes that failed and were swallowed",
		},
	)

	// ArchiveRunsTotal counts archival job runs by outcome (ok, error).
	ArchiveRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "audit_archive_runs_total",
			Help: "Total number of audit archival runs by outcome",
		},
		[]string{"outcome"},
	)

	// ArchivedRecordsTotal counts audit records relocated to the archive table.
	ArchivedRecordsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "audit_archived_records_total",
			Help: "Total number of audit records moved to the archive table",
		},
	)
)

var (
	uuidPathSegment = regexp.MustCompile(`/[0-9a-fA-F-]{36}(/|$)`)
	initOnce        sync.Once
)

func init() {
	initOnce.Do(func() {
		prometheus.MustRegister(
			RequestDuration, RequestTotal,
			AuditRecordsTotal, AuditWriteFailuresTotal,
			ArchiveRunsTotal, ArchivedRecordsTotal,
		)
	})
}

// NormalizePath reduces cardinality by replacing uuid path segments with {id}.
// E.g. /api/admin/programs/9f3c... -> /api/admin/programs/{id}.
func NormalizePath(path string) string {
	return uuidPathSegment.ReplaceAllString(path, "/{id}$1")
}

// RecordRequest records duration and count for an HTTP request. Call from middleware with method, path, statusCode, duration.
func RecordRequest(method, path string, statusCode int, durationSeconds float64) {
	path = NormalizePath(path)
	status := strconv.Itoa(statusCode)
	RequestDuration.WithLabelValues(method, path, status).Observe(durationSeconds)
	RequestTotal.WithLabelValues(method, path, status).Inc()
}

// IncAuditRecords increments the written-records counter.
func IncAuditRecords(action, resourceType string) {
	AuditRecordsTotal.WithLabelValues(action, resourceType).Inc()
}

// IncAuditWriteFailures increments the swallowed-failure counter.
func IncAuditWriteFailures() {
	AuditWriteFailuresTotal.Inc()
}

// RecordArchiveRun records one archival run and the number of records it moved.
func RecordArchiveRun(outcome string, moved int64) {
	ArchiveRunsTotal.WithLabelValues(outcome).Inc()
	if moved > 0 {
		ArchivedRecordsTotal.Add(float64(moved))
	}
}

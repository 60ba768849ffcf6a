package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/yefosr/cms-backend/internal/metrics"
	"github.com/yefosr/cms-backend/internal/models"
	"github.com/yefosr/cms-backend/internal/repo"
)

// unknownValue is recorded when the request carries no usable header.
const unknownValue = "unknown"

// Entry is the caller-supplied part of an audit record. Request metadata
// (ip address, user agent) and the timestamp are derived at write time.
type Entry struct {
	AdminID      *uuid.UUID // nil for system actions
	Action       models.AuditAction
	ResourceType models.AuditResourceType
	ResourceID   string
	PreviousData json.RawMessage
	NewData      json.RawMessage
}

// Logger writes audit records. Writes are best-effort: failures are logged to
// the operational log and swallowed, so audit logging can never fail the
// business action it is attached to.
type Logger struct {
	audits *repo.AuditRepo
	log    *slog.Logger
}

// NewLogger returns a Logger writing through audits.
func NewLogger(audits *repo.AuditRepo, log *slog.Logger) *Logger {
	return &Logger{audits: audits, log: log}
}

// Record appends one audit record. r may be nil for system-triggered actions
// (e.g. the archival job), in which case ip address and user agent are "unknown".
// Record never returns an error.
func (l *Logger) Record(ctx context.Context, r *http.Request, e Entry) {
	rec := models.AuditRecord{
		AdminID:      e.AdminID,
		Action:       e.Action,
		ResourceType: e.ResourceType,
		ResourceID:   e.ResourceID,
		PreviousData: e.PreviousData,
		NewData:      e.NewData,
		IPAddress:    sourceAddress(r),
		UserAgent:    clientAgent(r),
	}

	if err := l.audits.Insert(ctx, &rec); err != nil {
		metrics.IncAuditWriteFailures()
		l.log.Error("audit record write failed",
			"action", string(e.Action),
			"resource_type", string(e.ResourceType),
			"resource_id", e.ResourceID,
			"error", err)
		return
	}
	metrics.IncAuditRecords(string(e.Action), string(e.ResourceType))
}

// sourceAddress derives the network origin from the proxy-forwarded header,
// falling back to the socket address.
func sourceAddress(r *http.Request) string {
	if r == nil {
		return unknownValue
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First value is the client when behind a single proxy
		return strings.TrimSpace(strings.Split(xff, ",")[0])
	}
	if r.RemoteAddr != "" {
		return r.RemoteAddr
	}
	return unknownValue
}

func clientAgent(r *http.Request) string {
	if r == nil {
		return unknownValue
	}
	if ua := r.Header.Get("User-Agent"); ua != "" {
		return ua
	}
	return unknownValue
}

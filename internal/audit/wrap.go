package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	"github.com/yefosr/cms-backend/internal/middleware"
	"github.com/yefosr/cms-backend/internal/models"
)

// Options configures WithAudit for one wrapped handler. Callbacks are
// strongly typed against the audit record fields they populate; every
// callback is optional and individually best-effort.
type Options struct {
	Action       models.AuditAction
	ResourceType models.AuditResourceType

	// ResourceID derives the affected resource id from the request and the
	// handler's response payload. Empty string leaves the field absent.
	ResourceID func(r *http.Request, result json.RawMessage) string

	// PreviousData fetches the pre-mutation snapshot before the handler runs.
	// Errors are logged, not fatal.
	PreviousData func(ctx context.Context, r *http.Request) (json.RawMessage, error)

	// NewData derives the post-mutation snapshot from the request and the
	// response payload. When nil, the raw response payload is recorded.
	NewData func(r *http.Request, result json.RawMessage) json.RawMessage

	// SkipOnError suppresses the audit record when the handler fails
	// (error status or panic). The failure response still reaches the client.
	SkipOnError bool
}

var errPayload = json.RawMessage(`{"error":"internal server error"}`)
var unparseablePayload = json.RawMessage(`{"error":"failed to parse response"}`)

// WithAudit wraps next so that one audit record is written around it, without
// next knowing about auditing. Order: resolve admin from the session (401
// short-circuit, next never runs) -> fetch previous data -> run next while
// teeing its response -> derive resource id and new data -> write the record.
// The response the client sees is byte-identical to what next wrote; auditing
// only adds the up-front session check.
func (l *Logger) WithAudit(next http.HandlerFunc, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := middleware.AdminFromContext(r.Context())
		if !ok {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
			return
		}

		var previousData json.RawMessage
		if opts.PreviousData != nil {
			data, err := opts.PreviousData(r.Context(), r)
			if err != nil {
				l.log.Warn("audit previous data fetch failed",
					"resource_type", string(opts.ResourceType), "error", err)
			} else {
				previousData = data
			}
		}

		cw := &captureWriter{ResponseWriter: w, status: http.StatusOK}
		failed := false

		func() {
			defer func() {
				if rec := recover(); rec != nil {
					failed = true
					l.log.Error("audited handler panicked",
						"resource_type", string(opts.ResourceType), "panic", rec)
					if !cw.wroteHeader {
						cw.Header().Set("Content-Type", "application/json")
						cw.WriteHeader(http.StatusInternalServerError)
						cw.ResponseWriter.Write(errPayload)
					}
					cw.buf.Reset()
					cw.buf.Write(errPayload)
				}
			}()
			next(cw, r)
		}()

		if cw.status >= http.StatusBadRequest {
			failed = true
		}
		if failed && opts.SkipOnError {
			return
		}

		result := cw.payload()

		resourceID := ""
		if opts.ResourceID != nil {
			resourceID = l.safeResourceID(opts, r, result)
		}

		newData := result
		if opts.NewData != nil {
			if derived := l.safeNewData(opts, r, result); derived != nil {
				newData = derived
			}
		}

		l.Record(r.Context(), r, Entry{
			AdminID:      &adminID,
			Action:       opts.Action,
			ResourceType: opts.ResourceType,
			ResourceID:   resourceID,
			PreviousData: previousData,
			NewData:      newData,
		})
	}
}

// safeResourceID runs the ResourceID callback, treating a panic as "no id".
func (l *Logger) safeResourceID(opts Options, r *http.Request, result json.RawMessage) (id string) {
	defer func() {
		if rec := recover(); rec != nil {
			l.log.Warn("audit resource id derivation failed",
				"resource_type", string(opts.ResourceType), "panic", rec)
			id = ""
		}
	}()
	return opts.ResourceID(r, result)
}

// safeNewData runs the NewData callback, treating a panic as "use the raw payload".
func (l *Logger) safeNewData(opts Options, r *http.Request, result json.RawMessage) (data json.RawMessage) {
	defer func() {
		if rec := recover(); rec != nil {
			l.log.Warn("audit new data derivation failed",
				"resource_type", string(opts.ResourceType), "panic", rec)
			data = nil
		}
	}()
	return opts.NewData(r, result)
}

// captureWriter tees the response body into a buffer while streaming it to the
// client, so the wrapper can inspect the payload without altering the response.
type captureWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
	buf         bytes.Buffer
}

func (w *captureWriter) WriteHeader(code int) {
	if !w.wroteHeader {
		w.status = code
		w.wroteHeader = true
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.wroteHeader = true
	w.buf.Write(b)
	return w.ResponseWriter.Write(b)
}

// payload returns the captured body as JSON, degrading to an error placeholder
// when the body is empty or not valid JSON.
func (w *captureWriter) payload() json.RawMessage {
	body := bytes.TrimSpace(w.buf.Bytes())
	if len(body) == 0 {
		return nil
	}
	if !json.Valid(body) {
		return unparseablePayload
	}
	return json.RawMessage(append([]byte(nil), body...))
}

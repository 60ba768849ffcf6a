package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/yefosr/cms-backend/internal/archive"
)

// ArchiveHandler exposes the retention job: a manual admin trigger and a
// token-guarded endpoint for the external cron scheduler.
type ArchiveHandler struct {
	Runner *archive.Runner
	// CronToken is the shared secret for the scheduled endpoint.
	CronToken string
	Log       *slog.Logger
}

// TriggerArchive runs one archival pass on behalf of an authenticated admin.
// Responds {"success": true, "archivedCount": N}.
func (h *ArchiveHandler) TriggerArchive(w http.ResponseWriter, r *http.Request) {
	res, err := h.Runner.Run(r.Context())
	if err != nil {
		h.Log.Error("manual archive run failed", "error", err)
		JSONError(w, "failed to archive audit logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":       true,
		"archivedCount": res.ArchivedCount,
	})
}

// CronArchive runs one archival pass for the external scheduler. The caller
// must present the shared secret in the token query param; a missing or
// mismatched token gets an empty 404 so the endpoint's existence is not
// revealed. The comparison is plain equality, matching the scheduler contract.
func (h *ArchiveHandler) CronArchive(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if h.CronToken == "" || token != h.CronToken {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	res, err := h.Runner.Run(r.Context())
	if err != nil {
		h.Log.Error("scheduled archive run failed", "error", err)
		JSONError(w, "failed to archive audit logs", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"success":       true,
		"message":       "Archived audit logs older than " + res.CutoffDate.Format("2006-01-02"),
		"archivedCount": res.ArchivedCount,
	})
}

package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mssola/useragent"
	"github.com/yefosr/cms-backend/internal/models"
	"github.com/yefosr/cms-backend/internal/repo"
)

// AuditHandler serves the audit log query and export endpoints.
type AuditHandler struct {
	Repo *repo.AuditRepo
	Log  *slog.Logger
}

const defaultPageSize = 20

// parseFilter reads the shared filter query params (adminId, resourceType,
// action, startDate, endDate, search). Date params are whole days in UTC:
// startDate begins at 00:00:00, endDate ends at 23:59:59.
func parseFilter(r *http.Request) (repo.AuditFilter, error) {
	q := r.URL.Query()
	f := repo.AuditFilter{
		AdminID: q.Get("adminId"),
		Search:  q.Get("search"),
	}

	if rt := q.Get("resourceType"); rt != "" {
		if !models.AuditResourceType(rt).Valid() {
			return f, fmt.Errorf("unknown resource type %q", rt)
		}
		f.ResourceType = rt
	}
	if a := q.Get("action"); a != "" {
		if !models.AuditAction(a).Valid() {
			return f, fmt.Errorf("unknown action %q", a)
		}
		f.Action = a
	}

	if s := q.Get("startDate"); s != "" {
		day, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			return f, fmt.Errorf("invalid startDate %q", s)
		}
		f.From = &day
	}
	if s := q.Get("endDate"); s != "" {
		day, err := time.ParseInLocation("2006-01-02", s, time.UTC)
		if err != nil {
			return f, fmt.Errorf("invalid endDate %q", s)
		}
		end := day.Add(24*time.Hour - time.Second)
		f.To = &end
	}

	return f, nil
}

// ListAuditLogs returns one page of filtered records plus the total matching
// count. Query: page (>=1, default 1), pageSize (default 20, max 100), plus
// the shared filters. Response: {"logs": [...], "count": N}.
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	page := 1
	pageSize := defaultPageSize
	if p := r.URL.Query().Get("page"); p != "" {
		if n, err := strconv.Atoi(p); err == nil && n >= 1 {
			page = n
		}
	}
	if ps := r.URL.Query().Get("pageSize"); ps != "" {
		if n, err := strconv.Atoi(ps); err == nil && n > 0 && n <= 100 {
			pageSize = n
		}
	}

	// Count and slice are two reads; a concurrent write between them can skew
	// the total. Accepted race.
	count, err := h.Repo.Count(r.Context(), f)
	if err != nil {
		h.Log.Error("audit count failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	logs, err := h.Repo.Search(r.Context(), f, pageSize, (page-1)*pageSize)
	if err != nil {
		h.Log.Error("audit search failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	for i := range logs {
		logs[i].Client = humanizeAgent(logs[i].UserAgent)
	}
	if logs == nil {
		logs = []models.AuditRecord{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"logs":  logs,
		"count": count,
	})
}

// csvHeader is the fixed export header row.
var csvHeader = []string{"Date", "Time", "Admin Name", "Admin Email", "Action", "Resource Type", "Resource ID", "IP Address"}

// ExportAuditLogs streams the entire filtered set as CSV, no pagination.
// Same filters as ListAuditLogs.
func (h *AuditHandler) ExportAuditLogs(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		JSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	logs, err := h.Repo.SearchAll(r.Context(), f)
	if err != nil {
		h.Log.Error("audit export failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="audit-logs-%s.csv"`, time.Now().Format("2006-01-02")))

	cw := csv.NewWriter(w)
	cw.Write(csvHeader)
	for _, rec := range logs {
		cw.Write(exportRow(rec))
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		h.Log.Error("audit export write failed", "error", err)
	}
}

// exportRow renders one record as CSV fields. Date and time use the server's
// local rendering of the record timestamp; resource type is humanized; missing
// resource id and actor get literal placeholders.
func exportRow(rec models.AuditRecord) []string {
	ts := rec.CreatedAt.Local()

	name := rec.AdminName
	if name == "" {
		name = "Unknown"
	}
	email := rec.AdminEmail
	if email == "" {
		email = "Unknown"
	}
	resourceID := rec.ResourceID
	if resourceID == "" {
		resourceID = "N/A"
	}

	return []string{
		ts.Format("2006-01-02"),
		ts.Format("15:04:05"),
		name,
		email,
		string(rec.Action),
		humanizeResourceType(string(rec.ResourceType)),
		resourceID,
		rec.IPAddress,
	}
}

// humanizeResourceType turns "blog_post" into "Blog Post".
func humanizeResourceType(rt string) string {
	words := strings.Split(rt, "_")
	for i, word := range words {
		if word == "" {
			continue
		}
		words[i] = strings.ToUpper(word[:1]) + word[1:]
	}
	return strings.Join(words, " ")
}

// humanizeAgent condenses a raw user agent into "Browser version (OS)" for the
// log viewer. Unrecognized or absent agents pass through unchanged.
func humanizeAgent(raw string) string {
	if raw == "" || raw == "unknown" {
		return raw
	}
	ua := useragent.New(raw)
	name, version := ua.Browser()
	if name == "" {
		return raw
	}
	out := name
	if version != "" {
		out += " " + version
	}
	if os := ua.OS(); os != "" {
		out += " (" + os + ")"
	}
	return out
}

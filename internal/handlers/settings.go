package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/yefosr/cms-backend/internal/cache"
	"github.com/yefosr/cms-backend/internal/repo"
)

// SettingsHandler serves the audit retention setting. Reads go through the
// injected TTL cache; writes persist and invalidate the cached entry.
type SettingsHandler struct {
	Repo  *repo.SettingRepo
	Cache *cache.Cache
	Log   *slog.Logger
}

const defaultRetentionValue = "90"

// GetAuditRetention responds {"days": N}, defaulting to 90 when unset.
func (h *SettingsHandler) GetAuditRetention(w http.ResponseWriter, r *http.Request) {
	value, ok := h.Cache.Get(repo.SettingKeyAuditRetention)
	if !ok {
		var err error
		value, err = h.Repo.Get(r.Context(), repo.SettingKeyAuditRetention)
		if errors.Is(err, sql.ErrNoRows) {
			value = defaultRetentionValue
		} else if err != nil {
			h.Log.Error("read retention setting failed", "error", err)
			JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
			return
		}
		h.Cache.Set(repo.SettingKeyAuditRetention, value)
	}

	days, err := strconv.Atoi(value)
	if err != nil || days < 1 {
		days, _ = strconv.Atoi(defaultRetentionValue)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]int{"days": days})
}

// SetAuditRetention accepts {"days": N} with N an integer >= 1, persists it
// and invalidates the cached value.
func (h *SettingsHandler) SetAuditRetention(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Days *int `json:"days"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if input.Days == nil || *input.Days < 1 {
		JSONValidationError(w, "invalid retention period",
			map[string]string{"days": "must be an integer >= 1"}, http.StatusBadRequest)
		return
	}

	if err := h.Repo.Set(r.Context(), repo.SettingKeyAuditRetention, strconv.Itoa(*input.Days)); err != nil {
		h.Log.Error("write retention setting failed", "error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
		return
	}
	h.Cache.Invalidate(repo.SettingKeyAuditRetention)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "days": *input.Days})
}

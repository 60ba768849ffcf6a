package audit

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// ResourceIDFromPath derives the resource id from a chi URL parameter.
// Typical for update/delete routes (/programs/{id}).
func ResourceIDFromPath(param string) func(r *http.Request, result json.RawMessage) string {
	return func(r *http.Request, _ json.RawMessage) string {
		return chi.URLParam(r, param)
	}
}

// ResourceIDFromResult derives the resource id from a string field of the
// handler's JSON response. Typical for create routes, where the id is only
// known after the insert.
func ResourceIDFromResult(field string) func(r *http.Request, result json.RawMessage) string {
	return func(_ *http.Request, result json.RawMessage) string {
		var payload map[string]json.RawMessage
		if err := json.Unmarshal(result, &payload); err != nil {
			return ""
		}
		var id string
		if err := json.Unmarshal(payload[field], &id); err != nil {
			return ""
		}
		return id
	}
}

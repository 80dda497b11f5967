// internal/controller/respond.go
package controller

import (
	"encoding/json"
	"net/http"

	appErrors "github.com/coldpilot/coldpilot-backend/internal/errors"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto structured HTTP responses.
// Quota rejections carry their numbers verbatim for display.
func writeError(w http.ResponseWriter, err error) {
	if ce, ok := appErrors.IsInvalidConfig(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":  "invalid_config",
			"field":  ce.Field,
			"reason": ce.Reason,
		})
		return
	}
	if qe, ok := appErrors.IsInsufficientQuota(err); ok {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error":     "insufficient_quota",
			"required":  qe.Required,
			"available": qe.Available,
		})
		return
	}
	if err == appErrors.ErrNoActiveSMTP {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": "no_active_smtp",
		})
		return
	}
	switch err.(type) {
	case *appErrors.ErrCampaignNotFound, *appErrors.ErrProspectNotFound:
		writeJSON(w, http.StatusNotFound, map[string]interface{}{
			"error":   "not_found",
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusInternalServerError, map[string]interface{}{
		"error":   "internal",
		"message": err.Error(),
	})
}

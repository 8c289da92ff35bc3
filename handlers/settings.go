package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/facelens/facelensbackend/config"
)

// SettingsHandler reads and updates the clustering thresholds. Changes take
// effect on the next clustering pass, never retroactively on a running one.
type SettingsHandler struct {
	Settings *config.Settings
}

// GetSettings returns the current thresholds
func (h *SettingsHandler) GetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Settings.Thresholds())
}

// UpdateSettings replaces the thresholds. Validation happens here — the
// clusterer trusts whatever it is handed: the cosine threshold must sit in
// the open interval (0, 1), the euclidean threshold must be positive.
func (h *SettingsHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var t config.Thresholds
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		WriteAPIError(w, http.StatusBadRequest, "invalid_request_body", "failed to decode settings: "+err.Error())
		return
	}

	if t.Cosine <= 0 || t.Cosine >= 1 {
		WriteAPIError(w, http.StatusBadRequest, "invalid_threshold", "cosine_threshold must be strictly between 0 and 1")
		return
	}
	if t.Euclidean <= 0 {
		WriteAPIError(w, http.StatusBadRequest, "invalid_threshold", "euclidean_threshold must be greater than 0")
		return
	}

	if err := h.Settings.SetThresholds(t); err != nil {
		log.Printf("settings: failed to persist thresholds: %v", err)
		WriteAPIError(w, http.StatusInternalServerError, "internal_server_error", "failed to persist settings")
		return
	}

	writeJSON(w, http.StatusOK, t)
}

package api

import (
	"log/slog"
	"net/http"

	"trailbook/pkg/store"
)

// prefPrefix namespaces UI preferences inside the persistent state table.
const prefPrefix = "pref:"

// PrefsHandler persists small UI preferences (color mode, chart metric,
// last speed) across restarts.
type PrefsHandler struct {
	store store.StateStore
}

// NewPrefsHandler creates a new preferences handler.
func NewPrefsHandler(st store.StateStore) *PrefsHandler {
	return &PrefsHandler{store: st}
}

type prefResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// HandleGet handles GET /api/prefs/{key}.
func (h *PrefsHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	val, ok := h.store.GetState(r.Context(), prefPrefix+key)
	if !ok {
		writeError(w, http.StatusNotFound, "preference not set")
		return
	}
	writeJSON(w, http.StatusOK, prefResponse{Key: key, Value: val})
}

type prefRequest struct {
	Value string `json:"value"`
}

// HandleSet handles PUT /api/prefs/{key}.
func (h *PrefsHandler) HandleSet(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	var req prefRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if err := h.store.SetState(r.Context(), prefPrefix+key, req.Value); err != nil {
		slog.Error("Failed to save preference", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save preference")
		return
	}
	writeJSON(w, http.StatusOK, prefResponse{Key: key, Value: req.Value})
}

// HandleDelete handles DELETE /api/prefs/{key}.
func (h *PrefsHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	key := r.PathValue("key")
	if err := h.store.DeleteState(r.Context(), prefPrefix+key); err != nil {
		slog.Error("Failed to delete preference", "key", key, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete preference")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

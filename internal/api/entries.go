package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"trailbook/pkg/model"
	"trailbook/pkg/render"
	"trailbook/pkg/store"
	"trailbook/pkg/track"
)

// EntryHandler exposes journal entry CRUD and derived views to the frontend.
type EntryHandler struct {
	store       store.Store
	chartBudget int
}

// NewEntryHandler creates a new entry handler.
func NewEntryHandler(st store.Store, chartBudget int) *EntryHandler {
	return &EntryHandler{store: st, chartBudget: chartBudget}
}

type entryRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Date        time.Time       `json:"date"`
	Location    string          `json:"location"`
	Weather     string          `json:"weather"`
	GPXData     string          `json:"gpxData"`
	WatchPayload json.RawMessage `json:"watchPayload"`
}

// HandleList handles GET /api/entries.
func (h *EntryHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	entries, err := h.store.ListEntries(r.Context())
	if err != nil {
		slog.Error("Failed to list entries", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list entries")
		return
	}
	if entries == nil {
		entries = []store.EntrySummary{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// HandleCreate handles POST /api/entries.
func (h *EntryHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	e := &model.Entry{
		ID:           uuid.NewString(),
		Title:        req.Title,
		Description:  req.Description,
		Date:         req.Date,
		Location:     req.Location,
		Weather:      req.Weather,
		GPXData:      req.GPXData,
		WatchPayload: req.WatchPayload,
		CreatedAt:    time.Now().UTC(),
	}
	if err := h.store.CreateEntry(r.Context(), e); err != nil {
		slog.Error("Failed to create entry", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to create entry")
		return
	}
	writeJSON(w, http.StatusCreated, e)
}

// HandleGet handles GET /api/entries/{id}.
func (h *EntryHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleUpdate handles PUT /api/entries/{id}.
func (h *EntryHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	var req entryRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title is required")
		return
	}

	e.Title = req.Title
	e.Description = req.Description
	e.Date = req.Date
	e.Location = req.Location
	e.Weather = req.Weather
	e.GPXData = req.GPXData
	e.WatchPayload = req.WatchPayload

	if err := h.store.UpdateEntry(r.Context(), e); err != nil {
		slog.Error("Failed to update entry", "entry", e.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update entry")
		return
	}
	writeJSON(w, http.StatusOK, e)
}

// HandleDelete handles DELETE /api/entries/{id}.
func (h *EntryHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteEntry(r.Context(), id); err != nil {
		slog.Error("Failed to delete entry", "entry", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleThumbnail handles GET /api/entries/{id}/thumbnail.
// Renders the entry's track as a small PNG for the list view.
func (h *EntryHandler) HandleThumbnail(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	activity, ok := h.parseTrack(w, e)
	if !ok {
		return
	}

	png, err := render.Thumbnail(activity, render.DefaultThumbnailOptions)
	if err != nil {
		slog.Error("Failed to render thumbnail", "entry", e.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to render thumbnail")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "max-age=3600")
	if _, err := w.Write(png); err != nil {
		slog.Error("Failed to write thumbnail", "error", err)
	}
}

// HandleExportChart handles GET /api/entries/{id}/export/chart.
// Produces a standalone HTML profile chart for sharing.
func (h *EntryHandler) HandleExportChart(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}
	activity, ok := h.parseTrack(w, e)
	if !ok {
		return
	}

	metric := render.Metric(r.URL.Query().Get("metric"))
	if metric == "" {
		metric = render.MetricElevation
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.ExportChart(activity, e.Title, metric, h.chartBudget, w); err != nil {
		slog.Error("Failed to export chart", "entry", e.ID, "error", err)
	}
}

// HandleAddMedia handles POST /api/entries/{id}/media.
func (h *EntryHandler) HandleAddMedia(w http.ResponseWriter, r *http.Request) {
	e, ok := h.loadEntry(w, r)
	if !ok {
		return
	}

	var m model.EntryMedia
	if err := decodeJSON(r, &m); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if m.Kind != model.MediaPhoto && m.Kind != model.MediaVideo {
		writeError(w, http.StatusBadRequest, "kind must be photo or video")
		return
	}
	if m.URL == "" {
		writeError(w, http.StatusBadRequest, "url is required")
		return
	}

	m.ID = uuid.NewString()
	m.EntryID = e.ID
	m.CreatedAt = time.Now().UTC()
	if err := h.store.AddMedia(r.Context(), &m); err != nil {
		slog.Error("Failed to add media", "entry", e.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add media")
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

// HandleDeleteMedia handles DELETE /api/media/{id}.
func (h *EntryHandler) HandleDeleteMedia(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.DeleteMedia(r.Context(), id); err != nil {
		slog.Error("Failed to delete media", "media", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete media")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *EntryHandler) loadEntry(w http.ResponseWriter, r *http.Request) (*model.Entry, bool) {
	id := r.PathValue("id")
	e, err := h.store.GetEntry(r.Context(), id)
	if err != nil {
		slog.Error("Failed to load entry", "entry", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load entry")
		return nil, false
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return nil, false
	}
	return e, true
}

// parseTrack parses the entry's raw track data. Entries without activity
// data answer 204; malformed data answers 422 so the client can tell "no
// track" from "broken track".
func (h *EntryHandler) parseTrack(w http.ResponseWriter, e *model.Entry) (*model.ActivityData, bool) {
	activity, err := track.Parse(track.Input{
		Type:         track.InputAuto,
		WatchPayload: e.WatchPayload,
		GPXText:      e.GPXData,
	})
	if err != nil {
		if errors.Is(err, track.ErrNoActivityData) {
			w.WriteHeader(http.StatusNoContent)
			return nil, false
		}
		var perr *track.ParseError
		if errors.As(err, &perr) {
			writeError(w, http.StatusUnprocessableEntity, perr.Error())
			return nil, false
		}
		slog.Error("Failed to parse track", "entry", e.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to parse track")
		return nil, false
	}
	return activity, true
}

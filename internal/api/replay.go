package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"trailbook/pkg/media"
	"trailbook/pkg/model"
	"trailbook/pkg/render"
	"trailbook/pkg/session"
	"trailbook/pkg/store"
	"trailbook/pkg/track"
)

// ReplayHandler drives playback sessions: creation, transport controls,
// render frames, and media reveals.
type ReplayHandler struct {
	store       store.Store
	sessions    *session.Manager
	cfg         session.Config
	chartBudget int
	// baseCtx is the server's lifetime context. Sessions outlive the
	// request that created them, so their clocks hang off this instead of
	// the request context.
	baseCtx context.Context
	log     *slog.Logger
}

// NewReplayHandler creates a new replay handler.
func NewReplayHandler(baseCtx context.Context, st store.Store, sessions *session.Manager, cfg session.Config, chartBudget int, logger *slog.Logger) *ReplayHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReplayHandler{store: st, sessions: sessions, cfg: cfg, chartBudget: chartBudget, baseCtx: baseCtx, log: logger}
}

// stateResponse is the per-frame playback snapshot the frontend polls or
// receives over the stream.
type stateResponse struct {
	SessionID   string               `json:"sessionId"`
	EntryID     string               `json:"entryId"`
	Playback    model.PlaybackState  `json:"playback"`
	TimestampMs int64                `json:"timestampMs"`
	Reveal      *media.Reveal        `json:"reveal,omitempty"`
	Media       []model.ActivityMedia `json:"media"`
}

// HandleCreate handles POST /api/entries/{id}/replay.
// Parses the entry's track, builds a session, and returns its ID.
func (h *ReplayHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	e, err := h.store.GetEntry(r.Context(), id)
	if err != nil {
		h.log.Error("Failed to load entry for replay", "entry", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load entry")
		return
	}
	if e == nil {
		writeError(w, http.StatusNotFound, "entry not found")
		return
	}

	activity, err := track.Parse(track.Input{
		Type:         track.InputAuto,
		WatchPayload: e.WatchPayload,
		GPXText:      e.GPXData,
	})
	if err != nil {
		if errors.Is(err, track.ErrNoActivityData) {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		var perr *track.ParseError
		if errors.As(err, &perr) {
			writeError(w, http.StatusUnprocessableEntity, perr.Error())
			return
		}
		h.log.Error("Failed to parse track for replay", "entry", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to parse track")
		return
	}

	s := session.New(h.baseCtx, e.ID, activity, e.Media, h.cfg, h.log)
	h.sessions.Add(s)

	writeJSON(w, http.StatusCreated, h.snapshot(s))
}

// HandleState handles GET /api/replay/{sid}/state.
func (h *ReplayHandler) HandleState(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot(s))
}

// HandleClose handles DELETE /api/replay/{sid}.
func (h *ReplayHandler) HandleClose(w http.ResponseWriter, r *http.Request) {
	h.sessions.Close(r.PathValue("sid"))
	w.WriteHeader(http.StatusNoContent)
}

// HandlePlay handles POST /api/replay/{sid}/play.
func (h *ReplayHandler) HandlePlay(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Clock.Play()
	writeJSON(w, http.StatusOK, h.snapshot(s))
}

// HandlePause handles POST /api/replay/{sid}/pause.
func (h *ReplayHandler) HandlePause(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Clock.Pause()
	writeJSON(w, http.StatusOK, h.snapshot(s))
}

type seekRequest struct {
	Index    *int     `json:"index,omitempty"`
	Fraction *float64 `json:"fraction,omitempty"`
}

// HandleSeek handles POST /api/replay/{sid}/seek.
// Accepts either a point index or a chart fraction (click-to-seek).
func (h *ReplayHandler) HandleSeek(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	var req seekRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	switch {
	case req.Index != nil:
		s.Clock.Seek(*req.Index)
	case req.Fraction != nil:
		idx, err := render.IndexAtFraction(s.Activity, *req.Fraction)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		s.Clock.Seek(idx)
	default:
		writeError(w, http.StatusBadRequest, "index or fraction required")
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot(s))
}

type speedRequest struct {
	Multiplier float64 `json:"multiplier"`
}

// HandleSpeed handles POST /api/replay/{sid}/speed.
func (h *ReplayHandler) HandleSpeed(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req speedRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if !s.Clock.SetSpeed(req.Multiplier) {
		writeError(w, http.StatusBadRequest, "unsupported speed multiplier")
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot(s))
}

type segmentRequest struct {
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
}

// HandleSegment handles POST /api/replay/{sid}/segment.
func (h *ReplayHandler) HandleSegment(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	var req segmentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	s.Clock.SetSegment(req.StartIndex, req.EndIndex)
	writeJSON(w, http.StatusOK, h.snapshot(s))
}

// HandleClearSegment handles DELETE /api/replay/{sid}/segment.
func (h *ReplayHandler) HandleClearSegment(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Clock.ClearSegment()
	writeJSON(w, http.StatusOK, h.snapshot(s))
}

// HandleSegmentBounds handles GET /api/replay/{sid}/segment/bounds.
// Returns the bounding box for a fly-to-segment map move.
func (h *ReplayHandler) HandleSegmentBounds(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	start, err1 := strconv.Atoi(r.URL.Query().Get("start"))
	end, err2 := strconv.Atoi(r.URL.Query().Get("end"))
	if err1 != nil || err2 != nil {
		writeError(w, http.StatusBadRequest, "start and end query params required")
		return
	}
	bounds, err := render.SegmentBounds(s.Activity, model.Segment{StartIndex: start, EndIndex: end})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, bounds)
}

// HandleMapFrame handles GET /api/replay/{sid}/map.
func (h *ReplayHandler) HandleMapFrame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	mode := render.ColorMode(r.URL.Query().Get("color"))
	frame := render.BuildMapFrame(s.Activity, s.Clock.State(), mode, s.Timeline.Media(), s.Timeline.Shown)
	writeJSON(w, http.StatusOK, frame)
}

// HandleChartFrame handles GET /api/replay/{sid}/chart.
func (h *ReplayHandler) HandleChartFrame(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	metric := render.Metric(r.URL.Query().Get("metric"))
	if metric == "" {
		metric = render.MetricElevation
	}
	frame := render.BuildChartFrame(s.Activity, s.Clock.State(), metric, h.chartBudget)
	writeJSON(w, http.StatusOK, frame)
}

// HandleReveal handles POST /api/replay/{sid}/reveal/{mediaID}.
// A marker click opens the asset regardless of playback position.
func (h *ReplayHandler) HandleReveal(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	if err := s.Timeline.TriggerManual(r.PathValue("mediaID")); err != nil {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, h.snapshot(s))
}

// HandleDismiss handles POST /api/replay/{sid}/reveal/dismiss.
func (h *ReplayHandler) HandleDismiss(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}
	s.Timeline.Dismiss()
	writeJSON(w, http.StatusOK, h.snapshot(s))
}

func (h *ReplayHandler) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	s, err := h.sessions.Get(r.PathValue("sid"))
	if err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return nil, false
	}
	return s, true
}

func (h *ReplayHandler) snapshot(s *session.Session) stateResponse {
	st := s.Clock.State()
	points := s.Activity.DataPoints
	var ts int64
	if st.CurrentIndex >= 0 && st.CurrentIndex < len(points) {
		ts = points[st.CurrentIndex].TimestampMs
	}
	return stateResponse{
		SessionID:   s.ID,
		EntryID:     s.EntryID,
		Playback:    st,
		TimestampMs: ts,
		Reveal:      s.Timeline.ActiveReveal(),
		Media:       s.Timeline.Media(),
	}
}

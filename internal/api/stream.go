package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// streamInterval is how often the state stream pushes a frame. Faster than
// the eye needs is wasted bandwidth; the clock's own cadence is finer.
const streamInterval = 100 * time.Millisecond

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Same-origin app; the SPA and API share one listener.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleStream handles GET /api/replay/{sid}/stream.
// Pushes playback state frames over a websocket so the frontend animates
// without polling. The connection closes when the session goes away.
func (h *ReplayHandler) HandleStream(w http.ResponseWriter, r *http.Request) {
	s, ok := h.session(w, r)
	if !ok {
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error("Websocket upgrade failed", "session", s.ID, "error", err)
		return
	}
	defer conn.Close()
	h.log.Debug("stream opened", "session", s.ID)

	// Reader goroutine: we ignore client messages but need to consume them
	// to notice the peer going away.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(streamInterval)
	defer ticker.Stop()

	var last []byte
	for {
		select {
		case <-done:
			h.log.Debug("stream closed by peer", "session", s.ID)
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			// Re-resolve each frame so TTL eviction ends the stream.
			if _, err := h.sessions.Get(s.ID); err != nil {
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"),
					time.Now().Add(time.Second))
				return
			}

			payload, err := json.Marshal(h.snapshot(s))
			if err != nil {
				h.log.Error("Failed to marshal stream frame", "error", err)
				return
			}
			// Idle sessions produce identical frames; skip them.
			if string(payload) == string(last) {
				continue
			}
			last = payload

			if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}

package api

import (
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"trailbook/internal/ui"
	"trailbook/pkg/version"
)

// NewServer creates and configures the HTTP server.
// It accepts handlers for all API endpoints and a shutdownFunc for graceful shutdown.
func NewServer(addr string, entries *EntryHandler, replay *ReplayHandler, prefs *PrefsHandler, mediaDir string, requestLog *slog.Logger, shutdown func()) *http.Server {
	mux := http.NewServeMux()

	// 1. Health Endpoint
	mux.HandleFunc("GET /health", handleHealth)

	// 1b. Version Endpoint
	mux.HandleFunc("GET /api/version", handleVersion)

	// 2. Journal Entries
	mux.HandleFunc("GET /api/entries", entries.HandleList)
	mux.HandleFunc("POST /api/entries", entries.HandleCreate)
	mux.HandleFunc("GET /api/entries/{id}", entries.HandleGet)
	mux.HandleFunc("PUT /api/entries/{id}", entries.HandleUpdate)
	mux.HandleFunc("DELETE /api/entries/{id}", entries.HandleDelete)
	mux.HandleFunc("GET /api/entries/{id}/thumbnail", entries.HandleThumbnail)
	mux.HandleFunc("GET /api/entries/{id}/export/chart", entries.HandleExportChart)
	mux.HandleFunc("POST /api/entries/{id}/media", entries.HandleAddMedia)
	mux.HandleFunc("DELETE /api/media/{id}", entries.HandleDeleteMedia)

	// 3. Replay Sessions
	mux.HandleFunc("POST /api/entries/{id}/replay", replay.HandleCreate)
	mux.HandleFunc("GET /api/replay/{sid}/state", replay.HandleState)
	mux.HandleFunc("DELETE /api/replay/{sid}", replay.HandleClose)
	mux.HandleFunc("POST /api/replay/{sid}/play", replay.HandlePlay)
	mux.HandleFunc("POST /api/replay/{sid}/pause", replay.HandlePause)
	mux.HandleFunc("POST /api/replay/{sid}/seek", replay.HandleSeek)
	mux.HandleFunc("POST /api/replay/{sid}/speed", replay.HandleSpeed)
	mux.HandleFunc("POST /api/replay/{sid}/segment", replay.HandleSegment)
	mux.HandleFunc("DELETE /api/replay/{sid}/segment", replay.HandleClearSegment)
	mux.HandleFunc("GET /api/replay/{sid}/segment/bounds", replay.HandleSegmentBounds)
	mux.HandleFunc("GET /api/replay/{sid}/map", replay.HandleMapFrame)
	mux.HandleFunc("GET /api/replay/{sid}/chart", replay.HandleChartFrame)
	mux.HandleFunc("POST /api/replay/{sid}/reveal/dismiss", replay.HandleDismiss)
	mux.HandleFunc("POST /api/replay/{sid}/reveal/{mediaID}", replay.HandleReveal)
	mux.HandleFunc("GET /api/replay/{sid}/stream", replay.HandleStream)

	// 4. UI Preferences
	mux.HandleFunc("GET /api/prefs/{key}", prefs.HandleGet)
	mux.HandleFunc("PUT /api/prefs/{key}", prefs.HandleSet)
	mux.HandleFunc("DELETE /api/prefs/{key}", prefs.HandleDelete)

	// 5. Uploaded media assets
	if mediaDir != "" {
		mux.Handle("GET /media/", http.StripPrefix("/media/", http.FileServer(http.Dir(mediaDir))))
	}

	// 6. Shutdown Endpoint
	mux.HandleFunc("POST /api/shutdown", func(w http.ResponseWriter, r *http.Request) {
		slog.Info("Graceful shutdown initiated via API")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("Shutting down...")); err != nil {
			slog.Error("Failed to write shutdown response", "error", err)
		}
		// Call shutdown in a goroutine to allow response to flush
		go func() {
			time.Sleep(100 * time.Millisecond)
			shutdown()
		}()
	})

	// 7. Static Frontend Serving (SPA)
	// We need to serve from the "dist" subdirectory of the embedded FS
	distFS, err := fs.Sub(ui.DistFS, "dist")
	if err != nil {
		panic(fmt.Sprintf("Failed to subtree dist from embedded assets: %v", err))
	}

	spaFS := &spaFileSystem{root: http.FS(distFS)}
	mux.Handle("/", http.FileServer(spaFS))

	return &http.Server{
		Addr:         addr,
		Handler:      withRequestLog(requestLog, mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // streams stay open
		IdleTimeout:  60 * time.Second,
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("OK")); err != nil {
		slog.Error("Failed to write health response", "error", err)
	}
}

func handleVersion(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if _, err := fmt.Fprintf(w, `{"version": "%s"}`, version.Version); err != nil {
		slog.Error("Failed to write version response", "error", err)
	}
}

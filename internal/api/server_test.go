package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

func TestHealthAndVersion(t *testing.T) {
	env := newTestEnv(t)

	resp := env.doJSON(t, "GET", "/health", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from /health, got %d", resp.StatusCode)
	}

	var v struct {
		Version string `json:"version"`
	}
	resp = env.doJSON(t, "GET", "/api/version", nil, &v)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected 200 from /api/version, got %d", resp.StatusCode)
	}
	if v.Version == "" {
		t.Error("Expected a version string")
	}
}

func TestPrefsRoundtrip(t *testing.T) {
	env := newTestEnv(t)

	t.Run("GetUnset", func(t *testing.T) {
		resp := env.doJSON(t, "GET", "/api/prefs/colorMode", nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404 for unset pref, got %d", resp.StatusCode)
		}
	})

	t.Run("SetAndGet", func(t *testing.T) {
		var pref struct {
			Key   string `json:"key"`
			Value string `json:"value"`
		}
		resp := env.doJSON(t, "PUT", "/api/prefs/colorMode", map[string]any{"value": "heartrate"}, &pref)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}

		resp = env.doJSON(t, "GET", "/api/prefs/colorMode", nil, &pref)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if pref.Key != "colorMode" || pref.Value != "heartrate" {
			t.Errorf("Pref did not round-trip: %+v", pref)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		resp := env.doJSON(t, "DELETE", "/api/prefs/colorMode", nil, nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", resp.StatusCode)
		}
		resp = env.doJSON(t, "GET", "/api/prefs/colorMode", nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
		}
	})
}

func TestSPAFallback(t *testing.T) {
	env := newTestEnv(t)

	// Deep links resolve to index.html so client-side routing works.
	resp := env.doJSON(t, "GET", "/entries/abc/replay", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200 for deep link, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "<html") {
		t.Error("Expected index.html content for deep link")
	}
}

func TestReplayStream(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEntry(t, "Streamed", sampleGPX)
	sid := env.startReplay(t, id)

	wsURL := strings.Replace(env.server.URL, "http://", "ws://", 1) + "/api/replay/" + sid + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to dial stream: %v", err)
	}
	defer conn.Close()
	defer resp.Body.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read stream frame: %v", err)
	}

	var state replayState
	if err := json.Unmarshal(payload, &state); err != nil {
		t.Fatalf("Stream frame is not valid JSON: %v", err)
	}
	if state.SessionID != sid {
		t.Errorf("Expected frame for session %s, got %s", sid, state.SessionID)
	}
}

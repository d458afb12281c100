package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"trailbook/pkg/db"
	"trailbook/pkg/session"
	"trailbook/pkg/store"
)

// sampleGPX is a short hike: four points, 10s apart, climbing.
const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
  <trk><trkseg>
    <trkpt lat="47.0000" lon="11.0000"><ele>600.0</ele><time>2026-06-14T08:00:00Z</time></trkpt>
    <trkpt lat="47.0010" lon="11.0000"><ele>605.0</ele><time>2026-06-14T08:00:10Z</time></trkpt>
    <trkpt lat="47.0020" lon="11.0000"><ele>612.5</ele><time>2026-06-14T08:00:20Z</time></trkpt>
    <trkpt lat="47.0030" lon="11.0000"><ele>618.0</ele><time>2026-06-14T08:00:30Z</time></trkpt>
  </trkseg></trk>
</gpx>`

type testEnv struct {
	server *httptest.Server
	store  store.Store
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	d, err := db.Init(filepath.Join(t.TempDir(), "api_test.db"))
	if err != nil {
		t.Fatalf("db.Init failed: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	st := store.NewSQLiteStore(d)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	sessions := session.NewManager(time.Minute, slog.Default())
	t.Cleanup(sessions.CloseAll)

	sessionCfg := session.Config{
		ResampleInterval: 5 * time.Second,
		BaseInterval:     50 * time.Millisecond,
		FrameInterval:    16 * time.Millisecond,
		SnapRadiusM:      500,
		RevealDuration:   5 * time.Second,
	}

	srv := NewServer("localhost:0",
		NewEntryHandler(st, 200),
		NewReplayHandler(ctx, st, sessions, sessionCfg, 200, slog.Default()),
		NewPrefsHandler(st),
		"", // no media dir in tests
		nil,
		func() {},
	)

	ts := httptest.NewServer(srv.Handler)
	t.Cleanup(ts.Close)
	return &testEnv{server: ts, store: st}
}

// doJSON performs a request with an optional JSON body and decodes the
// response into out when it is non-nil.
func (e *testEnv) doJSON(t *testing.T, method, path string, body, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req, err := http.NewRequest(method, e.server.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := e.server.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
	return resp
}

func (e *testEnv) createEntry(t *testing.T, title, gpx string) string {
	t.Helper()
	var created struct {
		ID string `json:"id"`
	}
	resp := e.doJSON(t, "POST", "/api/entries", map[string]any{
		"title":   title,
		"date":    "2026-06-14T00:00:00Z",
		"gpxData": gpx,
	}, &created)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create entry: status %d", resp.StatusCode)
	}
	return created.ID
}

func (e *testEnv) startReplay(t *testing.T, entryID string) string {
	t.Helper()
	var state struct {
		SessionID string `json:"sessionId"`
	}
	resp := e.doJSON(t, "POST", fmt.Sprintf("/api/entries/%s/replay", entryID), nil, &state)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("start replay: status %d", resp.StatusCode)
	}
	return state.SessionID
}

package api

import (
	"bytes"
	"image/png"
	"io"
	"net/http"
	"strings"
	"testing"

	"trailbook/pkg/model"
)

func TestEntriesCRUD(t *testing.T) {
	env := newTestEnv(t)

	t.Run("ListEmpty", func(t *testing.T) {
		var entries []model.Entry
		resp := env.doJSON(t, "GET", "/api/entries", nil, &entries)
		if resp.StatusCode != http.StatusOK {
			t.Errorf("Expected 200, got %d", resp.StatusCode)
		}
		if len(entries) != 0 {
			t.Errorf("Expected empty list, got %d entries", len(entries))
		}
	})

	t.Run("CreateMissingTitle", func(t *testing.T) {
		resp := env.doJSON(t, "POST", "/api/entries", map[string]any{"location": "Alps"}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("CreateAndGet", func(t *testing.T) {
		id := env.createEntry(t, "Zirbenweg", sampleGPX)

		var e model.Entry
		resp := env.doJSON(t, "GET", "/api/entries/"+id, nil, &e)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if e.Title != "Zirbenweg" {
			t.Errorf("Expected title Zirbenweg, got %q", e.Title)
		}
		if e.GPXData == "" {
			t.Error("Expected GPX data to round-trip")
		}
	})

	t.Run("GetUnknown", func(t *testing.T) {
		resp := env.doJSON(t, "GET", "/api/entries/no-such-id", nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("Update", func(t *testing.T) {
		id := env.createEntry(t, "Before", "")

		var e model.Entry
		resp := env.doJSON(t, "PUT", "/api/entries/"+id, map[string]any{
			"title":    "After",
			"date":     "2026-06-15T00:00:00Z",
			"location": "Patscherkofel",
		}, &e)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if e.Title != "After" || e.Location != "Patscherkofel" {
			t.Errorf("Update not applied: %+v", e)
		}
	})

	t.Run("Delete", func(t *testing.T) {
		id := env.createEntry(t, "Short-lived", "")

		resp := env.doJSON(t, "DELETE", "/api/entries/"+id, nil, nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", resp.StatusCode)
		}
		resp = env.doJSON(t, "GET", "/api/entries/"+id, nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404 after delete, got %d", resp.StatusCode)
		}
	})
}

func TestEntryThumbnail(t *testing.T) {
	env := newTestEnv(t)

	t.Run("WithTrack", func(t *testing.T) {
		id := env.createEntry(t, "With track", sampleGPX)

		resp := env.doJSON(t, "GET", "/api/entries/"+id+"/thumbnail", nil, nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if ct := resp.Header.Get("Content-Type"); ct != "image/png" {
			t.Errorf("Expected image/png, got %q", ct)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := png.Decode(bytes.NewReader(data)); err != nil {
			t.Errorf("Response is not a decodable PNG: %v", err)
		}
	})

	t.Run("NoTrack", func(t *testing.T) {
		id := env.createEntry(t, "No track", "")

		resp := env.doJSON(t, "GET", "/api/entries/"+id+"/thumbnail", nil, nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", resp.StatusCode)
		}
	})

	t.Run("MalformedTrack", func(t *testing.T) {
		id := env.createEntry(t, "Broken track", "<gpx><unclosed")

		resp := env.doJSON(t, "GET", "/api/entries/"+id+"/thumbnail", nil, nil)
		if resp.StatusCode != http.StatusUnprocessableEntity {
			t.Errorf("Expected 422, got %d", resp.StatusCode)
		}
	})
}

func TestEntryExportChart(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEntry(t, "Profile export", sampleGPX)

	resp := env.doJSON(t, "GET", "/api/entries/"+id+"/export/chart", nil, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Expected text/html, got %q", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(body), "echarts") {
		t.Error("Expected exported HTML to embed the chart library")
	}
}

func TestEntryMedia(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEntry(t, "With photos", sampleGPX)

	t.Run("InvalidKind", func(t *testing.T) {
		resp := env.doJSON(t, "POST", "/api/entries/"+id+"/media", map[string]any{
			"kind": "audio",
			"url":  "/media/clip.mp3",
		}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("MissingURL", func(t *testing.T) {
		resp := env.doJSON(t, "POST", "/api/entries/"+id+"/media", map[string]any{
			"kind": "photo",
		}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("AddAndDelete", func(t *testing.T) {
		var m model.EntryMedia
		resp := env.doJSON(t, "POST", "/api/entries/"+id+"/media", map[string]any{
			"kind":      "photo",
			"url":       "/media/summit.jpg",
			"caption":   "Summit cross",
			"latitude":  47.0010,
			"longitude": 11.0000,
		}, &m)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected 201, got %d", resp.StatusCode)
		}
		if m.ID == "" || m.EntryID != id {
			t.Errorf("Media not linked to entry: %+v", m)
		}

		var e model.Entry
		env.doJSON(t, "GET", "/api/entries/"+id, nil, &e)
		if len(e.Media) != 1 {
			t.Fatalf("Expected 1 media item on entry, got %d", len(e.Media))
		}

		resp = env.doJSON(t, "DELETE", "/api/media/"+m.ID, nil, nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", resp.StatusCode)
		}
	})
}

package api

import (
	"net/http"
	"testing"

	"trailbook/pkg/model"
)

// replayState mirrors the handler's playback snapshot.
type replayState struct {
	SessionID   string               `json:"sessionId"`
	EntryID     string               `json:"entryId"`
	Playback    model.PlaybackState  `json:"playback"`
	TimestampMs int64                `json:"timestampMs"`
	Reveal      *struct {
		MediaID string `json:"mediaId"`
		Manual  bool   `json:"manual"`
	} `json:"reveal"`
	Media []model.ActivityMedia `json:"media"`
}

func TestReplayCreate(t *testing.T) {
	env := newTestEnv(t)

	t.Run("UnknownEntry", func(t *testing.T) {
		resp := env.doJSON(t, "POST", "/api/entries/no-such-id/replay", nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("NoTrack", func(t *testing.T) {
		id := env.createEntry(t, "No track", "")
		resp := env.doJSON(t, "POST", "/api/entries/"+id+"/replay", nil, nil)
		if resp.StatusCode != http.StatusNoContent {
			t.Errorf("Expected 204, got %d", resp.StatusCode)
		}
	})

	t.Run("WithTrack", func(t *testing.T) {
		id := env.createEntry(t, "Morning hike", sampleGPX)

		var state replayState
		resp := env.doJSON(t, "POST", "/api/entries/"+id+"/replay", nil, &state)
		if resp.StatusCode != http.StatusCreated {
			t.Fatalf("Expected 201, got %d", resp.StatusCode)
		}
		if state.SessionID == "" {
			t.Fatal("Expected a session ID")
		}
		if state.EntryID != id {
			t.Errorf("Expected entry %s, got %s", id, state.EntryID)
		}
		if state.Playback.CurrentIndex != 0 || state.Playback.IsPlaying {
			t.Errorf("Expected paused session at index 0, got %+v", state.Playback)
		}
	})
}

func TestReplayTransport(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEntry(t, "Transport", sampleGPX)
	sid := env.startReplay(t, id)

	var state replayState

	t.Run("Play", func(t *testing.T) {
		env.doJSON(t, "POST", "/api/replay/"+sid+"/play", nil, &state)
		if !state.Playback.IsPlaying {
			t.Error("Expected playing after play")
		}
	})

	t.Run("Pause", func(t *testing.T) {
		env.doJSON(t, "POST", "/api/replay/"+sid+"/pause", nil, &state)
		if state.Playback.IsPlaying {
			t.Error("Expected paused after pause")
		}
	})

	t.Run("SeekIndex", func(t *testing.T) {
		env.doJSON(t, "POST", "/api/replay/"+sid+"/seek", map[string]any{"index": 3}, &state)
		if state.Playback.CurrentIndex != 3 {
			t.Errorf("Expected index 3, got %d", state.Playback.CurrentIndex)
		}
		// 30s of track resampled at 5s cadence puts index 3 at 15s.
		if state.TimestampMs%5000 != 0 {
			t.Errorf("Expected timestamp on resample grid, got %d", state.TimestampMs)
		}
	})

	t.Run("SeekFraction", func(t *testing.T) {
		env.doJSON(t, "POST", "/api/replay/"+sid+"/seek", map[string]any{"fraction": 1.0}, &state)
		if state.Playback.CurrentIndex != 6 {
			t.Errorf("Expected last index 6, got %d", state.Playback.CurrentIndex)
		}
	})

	t.Run("SeekFractionOutOfRange", func(t *testing.T) {
		resp := env.doJSON(t, "POST", "/api/replay/"+sid+"/seek", map[string]any{"fraction": 2.0}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("SeekEmptyBody", func(t *testing.T) {
		resp := env.doJSON(t, "POST", "/api/replay/"+sid+"/seek", map[string]any{}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("Speed", func(t *testing.T) {
		env.doJSON(t, "POST", "/api/replay/"+sid+"/speed", map[string]any{"multiplier": 2.0}, &state)
		if state.Playback.SpeedMultiplier != 2.0 {
			t.Errorf("Expected speed 2.0, got %v", state.Playback.SpeedMultiplier)
		}
	})

	t.Run("SpeedUnsupported", func(t *testing.T) {
		resp := env.doJSON(t, "POST", "/api/replay/"+sid+"/speed", map[string]any{"multiplier": 3.0}, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", resp.StatusCode)
		}
	})
}

func TestReplaySegment(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEntry(t, "Segment", sampleGPX)
	sid := env.startReplay(t, id)

	var state replayState

	t.Run("Set", func(t *testing.T) {
		env.doJSON(t, "POST", "/api/replay/"+sid+"/segment", map[string]any{
			"startIndex": 1, "endIndex": 4,
		}, &state)
		seg := state.Playback.HighlightedSegment
		if seg == nil || seg.StartIndex != 1 || seg.EndIndex != 4 {
			t.Errorf("Expected segment [1,4], got %+v", seg)
		}
	})

	t.Run("Bounds", func(t *testing.T) {
		var bounds model.Bounds
		resp := env.doJSON(t, "GET", "/api/replay/"+sid+"/segment/bounds?start=0&end=3", nil, &bounds)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if bounds.North <= bounds.South {
			t.Errorf("Expected north > south, got %+v", bounds)
		}
	})

	t.Run("BoundsBadParams", func(t *testing.T) {
		resp := env.doJSON(t, "GET", "/api/replay/"+sid+"/segment/bounds?start=x&end=3", nil, nil)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("Expected 400, got %d", resp.StatusCode)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		env.doJSON(t, "DELETE", "/api/replay/"+sid+"/segment", nil, &state)
		if state.Playback.HighlightedSegment != nil {
			t.Errorf("Expected segment cleared, got %+v", state.Playback.HighlightedSegment)
		}
	})
}

func TestReplayFrames(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEntry(t, "Frames", sampleGPX)
	sid := env.startReplay(t, id)

	t.Run("Map", func(t *testing.T) {
		var frame map[string]any
		resp := env.doJSON(t, "GET", "/api/replay/"+sid+"/map?color=elevation", nil, &frame)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if len(frame) == 0 {
			t.Error("Expected a non-empty map frame")
		}
	})

	t.Run("Chart", func(t *testing.T) {
		var frame struct {
			Points []any `json:"points"`
		}
		resp := env.doJSON(t, "GET", "/api/replay/"+sid+"/chart?metric=elevation", nil, &frame)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("Expected 200, got %d", resp.StatusCode)
		}
		if len(frame.Points) == 0 {
			t.Error("Expected chart points")
		}
		if len(frame.Points) > 200 {
			t.Errorf("Expected at most 200 points, got %d", len(frame.Points))
		}
	})
}

func TestReplayReveal(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEntry(t, "Reveals", sampleGPX)

	// A photo near the second track point snaps onto the route.
	var m model.EntryMedia
	env.doJSON(t, "POST", "/api/entries/"+id+"/media", map[string]any{
		"kind":      "photo",
		"url":       "/media/summit.jpg",
		"latitude":  47.0010,
		"longitude": 11.0000,
	}, &m)

	sid := env.startReplay(t, id)

	var state replayState
	env.doJSON(t, "GET", "/api/replay/"+sid+"/state", nil, &state)
	if len(state.Media) != 1 {
		t.Fatalf("Expected 1 matched media item, got %d", len(state.Media))
	}
	if !state.Media[0].Snapped {
		t.Error("Expected photo to snap onto the route")
	}

	t.Run("ManualUnknown", func(t *testing.T) {
		resp := env.doJSON(t, "POST", "/api/replay/"+sid+"/reveal/no-such-media", nil, nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Errorf("Expected 404, got %d", resp.StatusCode)
		}
	})

	t.Run("ManualAndDismiss", func(t *testing.T) {
		env.doJSON(t, "POST", "/api/replay/"+sid+"/reveal/"+m.ID, nil, &state)
		if state.Reveal == nil || state.Reveal.MediaID != m.ID {
			t.Fatalf("Expected active reveal for %s, got %+v", m.ID, state.Reveal)
		}

		env.doJSON(t, "POST", "/api/replay/"+sid+"/reveal/dismiss", nil, &state)
		if state.Reveal != nil {
			t.Errorf("Expected reveal cleared after dismiss, got %+v", state.Reveal)
		}
	})
}

func TestReplayClose(t *testing.T) {
	env := newTestEnv(t)
	id := env.createEntry(t, "Closeable", sampleGPX)
	sid := env.startReplay(t, id)

	resp := env.doJSON(t, "DELETE", "/api/replay/"+sid, nil, nil)
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", resp.StatusCode)
	}

	resp = env.doJSON(t, "GET", "/api/replay/"+sid+"/state", nil, nil)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 after close, got %d", resp.StatusCode)
	}
}

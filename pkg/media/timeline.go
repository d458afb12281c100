package media

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"trailbook/pkg/model"
)

// DefaultRevealDuration is how long an auto-triggered reveal stays up
// before playback resumes on its own.
const DefaultRevealDuration = 5 * time.Second

// Reveal is an overlay in progress. Auto reveals dismiss themselves after
// the display duration; manual ones (marker clicks) stay until dismissed.
type Reveal struct {
	MediaID   string    `json:"mediaId"`
	Manual    bool      `json:"manual"`
	StartedAt time.Time `json:"startedAt"`
}

// Timeline tracks which assets have been revealed during the current
// forward pass and gates the playback clock while an overlay is active.
// It implements playback.Gate.
type Timeline struct {
	mu     sync.Mutex
	media  []model.ActivityMedia
	shown  map[string]bool
	active *Reveal

	displayFor time.Duration
	now        func() time.Time
	log        *slog.Logger
}

// NewTimeline creates a timeline over matched media.
func NewTimeline(media []model.ActivityMedia, displayFor time.Duration, logger *slog.Logger) *Timeline {
	if displayFor <= 0 {
		displayFor = DefaultRevealDuration
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Timeline{
		media:      media,
		shown:      make(map[string]bool),
		displayFor: displayFor,
		now:        time.Now,
		log:        logger,
	}
}

// Media returns the matched media list.
func (t *Timeline) Media() []model.ActivityMedia {
	return t.media
}

// RevealActive reports whether an overlay is currently up. Expired auto
// reveals are cleared here, which is what resumes playback without user
// input: the clock polls this every tick.
func (t *Timeline) RevealActive() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return false
	}
	if !t.active.Manual && t.now().Sub(t.active.StartedAt) >= t.displayFor {
		t.log.Debug("reveal auto-dismissed", "media", t.active.MediaID)
		t.active = nil
		return false
	}
	return true
}

// OnAdvance checks unshown assets against the new position and reveals at
// most one whose matched timestamp has been crossed.
func (t *Timeline) OnAdvance(index int, timestampMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		return
	}
	for i := range t.media {
		m := &t.media[i]
		if !m.Matched() || t.shown[m.ID] {
			continue
		}
		if *m.MatchedTimestampMs <= timestampMs {
			t.shown[m.ID] = true
			t.active = &Reveal{MediaID: m.ID, StartedAt: t.now()}
			t.log.Info("media reveal triggered", "media", m.ID, "index", index, "matched_ms", *m.MatchedTimestampMs)
			return
		}
	}
}

// OnSeek rewinds shown-flags. Seeking to index 0 clears every flag (fresh
// pass); any other seek un-shows only assets at or after the new position,
// so they retrigger on the next forward pass. A pending auto reveal is
// dropped; a manual one survives scrubbing.
func (t *Timeline) OnSeek(index int, timestampMs int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if index == 0 {
		t.shown = make(map[string]bool)
	} else {
		for i := range t.media {
			m := &t.media[i]
			if m.Matched() && *m.MatchedTimestampMs >= timestampMs {
				delete(t.shown, m.ID)
			}
		}
	}

	if t.active != nil && !t.active.Manual {
		t.active = nil
	}
}

// TriggerManual opens a manual-dismiss reveal for a clicked marker,
// independent of playback position.
func (t *Timeline) TriggerManual(mediaID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i := range t.media {
		if t.media[i].ID != mediaID {
			continue
		}
		t.shown[mediaID] = true
		t.active = &Reveal{MediaID: mediaID, Manual: true, StartedAt: t.now()}
		t.log.Info("manual media reveal", "media", mediaID)
		return nil
	}
	return fmt.Errorf("unknown media %q", mediaID)
}

// Dismiss closes the active overlay, if any.
func (t *Timeline) Dismiss() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active != nil {
		t.log.Debug("reveal dismissed", "media", t.active.MediaID)
		t.active = nil
	}
}

// ActiveReveal returns a snapshot of the overlay in progress, or nil.
func (t *Timeline) ActiveReveal() *Reveal {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.active == nil {
		return nil
	}
	r := *t.active
	return &r
}

// Shown reports whether the asset was already revealed this pass.
func (t *Timeline) Shown(mediaID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shown[mediaID]
}

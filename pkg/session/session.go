// Package session ties one journal entry's parsed activity to a playback
// clock and a media timeline, keyed by a server-generated session ID.
package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"trailbook/pkg/media"
	"trailbook/pkg/model"
	"trailbook/pkg/playback"
	"trailbook/pkg/track"
)

// Config carries the playback tuning a session is created with.
type Config struct {
	ResampleInterval time.Duration
	BaseInterval     time.Duration
	FrameInterval    time.Duration
	SnapRadiusM      float64
	RevealDuration   time.Duration
}

// Session is one live replay of an entry's activity.
type Session struct {
	ID        string
	EntryID   string
	Activity  *model.ActivityData
	Clock     *playback.Clock
	Timeline  *media.Timeline
	CreatedAt time.Time

	cancel context.CancelFunc
}

// New builds a replay session: resample the activity to the playback
// cadence, correlate the entry's media, and wire the timeline into the
// clock as its reveal gate.
func New(ctx context.Context, entryID string, activity *model.ActivityData, items []model.EntryMedia, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}

	resampled := track.ResampleActivity(activity, cfg.ResampleInterval)

	var refStart *time.Time
	if !resampled.Summary.StartTime.IsZero() {
		t := resampled.Summary.StartTime
		refStart = &t
	}
	matched := media.Match(resampled, items, media.MatchOptions{
		SnapRadiusM:    cfg.SnapRadiusM,
		ReferenceStart: refStart,
	}, logger)
	timeline := media.NewTimeline(matched, cfg.RevealDuration, logger)

	timestamps := make([]int64, len(resampled.DataPoints))
	for i, p := range resampled.DataPoints {
		timestamps[i] = p.TimestampMs
	}

	ctx, cancel := context.WithCancel(ctx)
	clock := playback.New(ctx, timestamps, logger,
		playback.WithBaseInterval(cfg.BaseInterval),
		playback.WithFrameInterval(cfg.FrameInterval),
		playback.WithGate(timeline),
	)

	s := &Session{
		ID:        uuid.NewString(),
		EntryID:   entryID,
		Activity:  resampled,
		Clock:     clock,
		Timeline:  timeline,
		CreatedAt: time.Now(),
		cancel:    cancel,
	}
	logger.Info("replay session created", "session", s.ID, "entry", entryID, "points", len(timestamps), "media", len(matched))
	return s
}

// Close stops the clock and releases the session's resources.
func (s *Session) Close() {
	s.Clock.Stop()
	s.cancel()
}

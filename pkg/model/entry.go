package model

import (
	"encoding/json"
	"time"
)

// Entry is one journal entry: a hike with optional raw track payloads and
// attached media. The replay core only ever reads entries; the CRUD surface
// exists to feed the player.
type Entry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Date        time.Time `json:"date"`
	Location    string    `json:"location,omitempty"`
	Weather     string    `json:"weather,omitempty"`

	// Raw track payloads, either of which may be empty.
	GPXData      string          `json:"gpxData,omitempty"`
	WatchPayload json.RawMessage `json:"watchPayload,omitempty"`

	Media []EntryMedia `json:"media,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// HasTrack reports whether the entry carries any raw track data at all.
// Entries without a track render no player (a legitimate state, not an error).
func (e *Entry) HasTrack() bool {
	return e.GPXData != "" || len(e.WatchPayload) > 0
}

// EntryMedia is a stored photo/video record as supplied by the journal,
// before timeline matching.
type EntryMedia struct {
	ID           string    `json:"id"`
	EntryID      string    `json:"entryId"`
	Kind         MediaKind `json:"kind"`
	URL          string    `json:"url"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	Caption      string    `json:"caption,omitempty"`

	Latitude  *float64   `json:"latitude,omitempty"`
	Longitude *float64   `json:"longitude,omitempty"`
	// CapturedAt is the absolute capture time, used for timestamp
	// correlation when no GPS is available.
	CapturedAt *time.Time `json:"capturedAt,omitempty"`
	DurationS  *float64   `json:"durationS,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
}

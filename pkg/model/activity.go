package model

import (
	"time"

	"github.com/paulmach/orb"
)

// Source identifies which input format an activity was parsed from.
type Source string

const (
	SourceWatch Source = "watch"
	SourceGPX   Source = "gpx"
)

// ActivityDataPoint is one moment along a recorded track. Timestamps are
// milliseconds relative to activity start and strictly non-decreasing within
// a sequence. Sensor fields are nil when the source had no sample at that
// instant; whether a sensor exists at all is declared by the capability
// flags on ActivityData.
type ActivityDataPoint struct {
	TimestampMs int64    `json:"timestampMs"`
	Lat         float64  `json:"lat"`
	Lon         float64  `json:"lon"`
	ElevationM  *float64 `json:"elevationM,omitempty"`
	SpeedMps    *float64 `json:"speedMps,omitempty"`
	HRBpm       *int     `json:"hrBpm,omitempty"`
	CadenceSpm  *int     `json:"cadenceSpm,omitempty"`
	DistanceM   *float64 `json:"distanceM,omitempty"`
}

// Bounds is the geographic bounding box of a track, used once to fit the
// initial map view.
type Bounds struct {
	North float64 `json:"north"`
	South float64 `json:"south"`
	East  float64 `json:"east"`
	West  float64 `json:"west"`
}

// Orb converts the bounds to an orb.Bound (min/max corner form).
func (b Bounds) Orb() orb.Bound {
	return orb.Bound{
		Min: orb.Point{b.West, b.South},
		Max: orb.Point{b.East, b.North},
	}
}

// BoundsFromOrb converts an orb.Bound back to the API form.
func BoundsFromOrb(bound orb.Bound) Bounds {
	return Bounds{
		North: bound.Max[1],
		South: bound.Min[1],
		East:  bound.Max[0],
		West:  bound.Min[0],
	}
}

// Summary holds headline statistics for an activity.
type Summary struct {
	DistanceM      float64   `json:"distanceM"`
	DurationS      float64   `json:"durationS"`
	ElevationGainM float64   `json:"elevationGainM"`
	StartTime      time.Time `json:"startTime"`
}

// ActivityData is a parsed (or resampled) track: an ordered, chronological
// point sequence plus summary statistics and bounds. It is immutable once
// produced and safe for concurrent reads.
type ActivityData struct {
	Source       Source              `json:"source"`
	DataPoints   []ActivityDataPoint `json:"dataPoints"`
	Bounds       Bounds              `json:"bounds"`
	Summary      Summary             `json:"summary"`
	HasHeartRate bool                `json:"hasHeartRate"`
	HasCadence   bool                `json:"hasCadence"`
	HasSpeed     bool                `json:"hasSpeed"`
}

// DurationMs returns the timestamp of the final point, or 0 for an empty track.
func (a *ActivityData) DurationMs() int64 {
	if len(a.DataPoints) == 0 {
		return 0
	}
	return a.DataPoints[len(a.DataPoints)-1].TimestampMs
}

// MediaKind distinguishes photos from videos on the replay timeline.
type MediaKind string

const (
	MediaPhoto MediaKind = "photo"
	MediaVideo MediaKind = "video"
)

// ActivityMedia is a photo or video correlated to the replay timeline.
// MatchedTimestampMs is nil when no correlation was found; such assets are
// still listed but never trigger a reveal.
type ActivityMedia struct {
	ID           string    `json:"id"`
	Kind         MediaKind `json:"kind"`
	URL          string    `json:"url"`
	Caption      string    `json:"caption,omitempty"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
	DurationS    *float64  `json:"durationS,omitempty"`

	Lat *float64 `json:"lat,omitempty"`
	Lon *float64 `json:"lon,omitempty"`

	MatchedTimestampMs *int64 `json:"matchedTimestampMs,omitempty"`
	// RouteIndex is the route point backing the match, -1 if unmatched.
	RouteIndex int `json:"routeIndex"`
	// Snapped reports that the displayed position was moved onto the route.
	Snapped bool `json:"snapped"`
}

// Matched reports whether the asset has a timeline position.
func (m *ActivityMedia) Matched() bool {
	return m.MatchedTimestampMs != nil
}

// Segment is a user-selected sub-range of the timeline, cross-indicated on
// chart and map. Indices are inclusive.
type Segment struct {
	StartIndex int `json:"startIndex"`
	EndIndex   int `json:"endIndex"`
}

// PlaybackState is the session-scoped playback position. It has exactly one
// writer (the clock and its mutators); everything else reads snapshots.
type PlaybackState struct {
	CurrentIndex       int      `json:"currentIndex"`
	IsPlaying          bool     `json:"isPlaying"`
	SpeedMultiplier    float64  `json:"speedMultiplier"`
	HighlightedSegment *Segment `json:"highlightedSegment,omitempty"`
}

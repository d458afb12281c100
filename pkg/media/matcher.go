// Package media correlates photo/video assets with points on a replayed
// track and decides when an asset interrupts playback with a reveal overlay.
package media

import (
	"log/slog"
	"time"

	"trailbook/pkg/geo"
	"trailbook/pkg/model"
)

// DefaultSnapRadius is the maximum distance at which an asset's capture GPS
// is considered "on the route". Inclusive: exactly at the radius snaps.
const DefaultSnapRadius = 500.0 // meters

// MatchOptions tune the matcher.
type MatchOptions struct {
	// SnapRadiusM defaults to DefaultSnapRadius when zero.
	SnapRadiusM float64
	// ReferenceStart anchors timestamp correlation for assets without
	// GPS. Nil disables that path.
	ReferenceStart *time.Time
}

// Match produces the timeline-attached media list for one replay session.
// Precedence per asset: capture GPS (nearest route point, snap within
// radius), else capture timestamp against ReferenceStart, else unmatched.
// Unmatched assets keep MatchedTimestampMs nil: still listed, never
// triggering. Pure function; the logger is the only observer.
func Match(activity *model.ActivityData, items []model.EntryMedia, opts MatchOptions, logger *slog.Logger) []model.ActivityMedia {
	if logger == nil {
		logger = slog.Default()
	}
	radius := opts.SnapRadiusM
	if radius == 0 {
		radius = DefaultSnapRadius
	}

	out := make([]model.ActivityMedia, 0, len(items))
	for _, item := range items {
		m := model.ActivityMedia{
			ID:           item.ID,
			Kind:         item.Kind,
			URL:          item.URL,
			ThumbnailURL: item.ThumbnailURL,
			Caption:      item.Caption,
			DurationS:    item.DurationS,
			Lat:          item.Latitude,
			Lon:          item.Longitude,
			RouteIndex:   -1,
		}

		switch {
		case item.Latitude != nil && item.Longitude != nil:
			matchByProximity(&m, activity, radius, logger)
		case item.CapturedAt != nil && opts.ReferenceStart != nil:
			matchByTimestamp(&m, activity, *item.CapturedAt, *opts.ReferenceStart, logger)
		default:
			logger.Debug("media unmatched, no GPS or reference time", "media", item.ID)
		}
		out = append(out, m)
	}
	return out
}

// matchByProximity snaps the asset to its nearest route point. Within the
// radius the asset adopts the point's position and timestamp; outside, it
// keeps its own coordinates but still records the nearest timestamp as a
// best-effort correlation.
func matchByProximity(m *model.ActivityMedia, activity *model.ActivityData, radius float64, logger *slog.Logger) {
	if len(activity.DataPoints) == 0 {
		return
	}
	pos := geo.Point{Lat: *m.Lat, Lon: *m.Lon}

	best := 0
	bestDist := geo.PlanarDistance(pos, geo.Point{Lat: activity.DataPoints[0].Lat, Lon: activity.DataPoints[0].Lon})
	for i := 1; i < len(activity.DataPoints); i++ {
		d := geo.PlanarDistance(pos, geo.Point{Lat: activity.DataPoints[i].Lat, Lon: activity.DataPoints[i].Lon})
		if d < bestDist {
			best, bestDist = i, d
		}
	}

	point := activity.DataPoints[best]
	ts := point.TimestampMs
	m.MatchedTimestampMs = &ts
	m.RouteIndex = best

	if bestDist <= radius {
		// Snap the displayed position onto the drawn line.
		lat, lon := point.Lat, point.Lon
		m.Lat, m.Lon = &lat, &lon
		m.Snapped = true
		logger.Debug("media snapped to route", "media", m.ID, "index", best, "distance_m", bestDist)
		return
	}
	logger.Debug("media outside snap radius, timestamp kept", "media", m.ID, "index", best, "distance_m", bestDist)
}

// matchByTimestamp correlates by capture time relative to the reference
// start. Offsets outside [0, activity duration] are rejected.
func matchByTimestamp(m *model.ActivityMedia, activity *model.ActivityData, capturedAt, refStart time.Time, logger *slog.Logger) {
	offset := capturedAt.Sub(refStart).Milliseconds()
	if offset < 0 || offset > activity.DurationMs() {
		logger.Debug("media capture time outside activity", "media", m.ID, "offset_ms", offset)
		return
	}

	// First route point at or after the offset carries the position.
	for i, p := range activity.DataPoints {
		if p.TimestampMs >= offset {
			lat, lon := p.Lat, p.Lon
			m.Lat, m.Lon = &lat, &lon
			m.RouteIndex = i
			ts := offset
			m.MatchedTimestampMs = &ts
			logger.Debug("media matched by timestamp", "media", m.ID, "offset_ms", offset, "index", i)
			return
		}
	}
}

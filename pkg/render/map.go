// Package render derives drawable state from an activity and the playback
// position. It owns no rendering technology: frames are plain primitives
// any map/chart view (or skin) can draw.
package render

import (
	"fmt"
	"math"

	"trailbook/pkg/model"
)

// ColorMode selects which sample field drives the route gradient.
type ColorMode string

const (
	ColorNone      ColorMode = ""
	ColorSpeed     ColorMode = "speed"
	ColorElevation ColorMode = "elevation"
	ColorHeartRate ColorMode = "heartrate"
)

// LatLon is a drawable coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// MediaMarker is a clickable media position on the map. Reached gates
// marker visibility by whether playback has crossed the asset's timestamp.
type MediaMarker struct {
	ID      string         `json:"id"`
	Kind    model.MediaKind `json:"kind"`
	Pos     LatLon         `json:"pos"`
	Snapped bool           `json:"snapped"`
	Reached bool           `json:"reached"`
	Shown   bool           `json:"shown"`
}

// MapFrame is everything a map view needs for one render pass.
type MapFrame struct {
	Route       []LatLon      `json:"route"`
	Traveled    []LatLon      `json:"traveled"`
	Marker      LatLon        `json:"marker"`
	MarkerIndex int           `json:"markerIndex"`
	RouteColors []string      `json:"routeColors,omitempty"`
	Segment     *model.Segment `json:"segment,omitempty"`
	SegmentPath []LatLon      `json:"segmentPath,omitempty"`
	Bounds      model.Bounds  `json:"bounds"`
	Media       []MediaMarker `json:"media"`
}

// ShownFunc reports whether a media asset was already revealed this pass.
type ShownFunc func(mediaID string) bool

// BuildMapFrame assembles the map state for the current playback position.
func BuildMapFrame(activity *model.ActivityData, st model.PlaybackState, mode ColorMode, media []model.ActivityMedia, shown ShownFunc) MapFrame {
	points := activity.DataPoints
	frame := MapFrame{
		Route:       toLatLon(points),
		MarkerIndex: st.CurrentIndex,
		Bounds:      activity.Bounds,
	}
	if len(points) == 0 {
		return frame
	}

	idx := st.CurrentIndex
	if idx < 0 {
		idx = 0
	}
	if idx > len(points)-1 {
		idx = len(points) - 1
	}
	frame.Traveled = frame.Route[:idx+1]
	frame.Marker = frame.Route[idx]
	frame.MarkerIndex = idx

	if mode != ColorNone {
		frame.RouteColors = gradientColors(points, mode)
	}

	if st.HighlightedSegment != nil {
		seg := *st.HighlightedSegment
		if seg.StartIndex >= 0 && seg.EndIndex < len(points) && seg.StartIndex <= seg.EndIndex {
			frame.Segment = &seg
			frame.SegmentPath = frame.Route[seg.StartIndex : seg.EndIndex+1]
		}
	}

	currentTs := points[idx].TimestampMs
	for _, m := range media {
		if m.Lat == nil || m.Lon == nil {
			continue
		}
		marker := MediaMarker{
			ID:      m.ID,
			Kind:    m.Kind,
			Pos:     LatLon{Lat: *m.Lat, Lon: *m.Lon},
			Snapped: m.Snapped,
		}
		if m.Matched() {
			marker.Reached = *m.MatchedTimestampMs <= currentTs
		}
		if shown != nil {
			marker.Shown = shown(m.ID)
		}
		frame.Media = append(frame.Media, marker)
	}
	return frame
}

// SegmentBounds computes the bounding box of a sub-segment, for the map's
// fly-to-segment operation used by chart selection.
func SegmentBounds(activity *model.ActivityData, seg model.Segment) (model.Bounds, error) {
	points := activity.DataPoints
	if seg.StartIndex < 0 || seg.EndIndex >= len(points) || seg.StartIndex > seg.EndIndex {
		return model.Bounds{}, fmt.Errorf("segment [%d,%d] out of range 0..%d", seg.StartIndex, seg.EndIndex, len(points)-1)
	}
	bound := activity.Bounds.Orb()
	sub := points[seg.StartIndex : seg.EndIndex+1]
	first := true
	for _, p := range sub {
		pt := [2]float64{p.Lon, p.Lat}
		if first {
			bound.Min, bound.Max = pt, pt
			first = false
			continue
		}
		bound = bound.Extend(pt)
	}
	return model.BoundsFromOrb(bound), nil
}

func toLatLon(points []model.ActivityDataPoint) []LatLon {
	out := make([]LatLon, len(points))
	for i, p := range points {
		out[i] = LatLon{Lat: p.Lat, Lon: p.Lon}
	}
	return out
}

// gradientColors maps each point's sample value onto a green→red ramp by
// linear normalization between the sequence's min and max for that field.
// Points without a sample render neutral.
const neutralColor = "#9ca3af"

func gradientColors(points []model.ActivityDataPoint, mode ColorMode) []string {
	values := make([]*float64, len(points))
	min, max := math.MaxFloat64, -math.MaxFloat64
	any := false
	for i, p := range points {
		v := sampleValue(p, mode)
		values[i] = v
		if v == nil {
			continue
		}
		any = true
		if *v < min {
			min = *v
		}
		if *v > max {
			max = *v
		}
	}

	colors := make([]string, len(points))
	for i, v := range values {
		if !any || v == nil {
			colors[i] = neutralColor
			continue
		}
		t := 0.0
		if max > min {
			t = (*v - min) / (max - min)
		}
		colors[i] = rampColor(t)
	}
	return colors
}

func sampleValue(p model.ActivityDataPoint, mode ColorMode) *float64 {
	switch mode {
	case ColorSpeed:
		return p.SpeedMps
	case ColorElevation:
		return p.ElevationM
	case ColorHeartRate:
		if p.HRBpm == nil {
			return nil
		}
		v := float64(*p.HRBpm)
		return &v
	}
	return nil
}

// rampColor interpolates green (slow/low) through yellow to red (fast/high).
func rampColor(t float64) string {
	if t < 0 {
		t = 0
	}
	if t > 1 {
		t = 1
	}
	var r, g int
	if t < 0.5 {
		r = int(255 * t * 2)
		g = 200
	} else {
		r = 255
		g = int(200 * (1 - t) * 2)
	}
	return fmt.Sprintf("#%02x%02x32", r, g)
}

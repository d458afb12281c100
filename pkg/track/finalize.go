package track

import (
	"time"

	"trailbook/pkg/geo"
	"trailbook/pkg/model"
)

// finalize turns a raw point sequence into a complete ActivityData:
// non-decreasing timestamps, cumulative distances, bounds, summary
// statistics, and capability flags. Bounds are computed over the full
// pre-resample point set.
func finalize(points []model.ActivityDataPoint, source model.Source, startTime time.Time) *model.ActivityData {
	for i := 1; i < len(points); i++ {
		if points[i].TimestampMs < points[i-1].TimestampMs {
			points[i].TimestampMs = points[i-1].TimestampMs
		}
	}

	fillDistances(points)

	data := &model.ActivityData{
		Source:     source,
		DataPoints: points,
		Bounds:     geo.BoundsOf(points),
	}

	// A capability is present when ANY point carries the field, not all.
	for _, p := range points {
		if p.HRBpm != nil {
			data.HasHeartRate = true
		}
		if p.CadenceSpm != nil {
			data.HasCadence = true
		}
		if p.SpeedMps != nil {
			data.HasSpeed = true
		}
	}

	data.Summary = summarize(points, startTime)
	return data
}

// fillDistances computes cumulative distance for points that don't carry it
// from the source (GPX has none; watch exports usually do).
func fillDistances(points []model.ActivityDataPoint) {
	if len(points) == 0 {
		return
	}
	var total float64
	if points[0].DistanceM == nil {
		zero := 0.0
		points[0].DistanceM = &zero
	} else {
		total = *points[0].DistanceM
	}
	for i := 1; i < len(points); i++ {
		if points[i].DistanceM != nil {
			total = *points[i].DistanceM
			continue
		}
		total += geo.Distance(
			geo.Point{Lat: points[i-1].Lat, Lon: points[i-1].Lon},
			geo.Point{Lat: points[i].Lat, Lon: points[i].Lon},
		)
		d := total
		points[i].DistanceM = &d
	}
}

func summarize(points []model.ActivityDataPoint, startTime time.Time) model.Summary {
	s := model.Summary{StartTime: startTime}
	if len(points) == 0 {
		return s
	}

	last := points[len(points)-1]
	s.DurationS = float64(last.TimestampMs) / 1000.0
	if last.DistanceM != nil {
		s.DistanceM = *last.DistanceM
	}

	var prevEle *float64
	for i := range points {
		ele := points[i].ElevationM
		if ele == nil {
			continue
		}
		if prevEle != nil && *ele > *prevEle {
			s.ElevationGainM += *ele - *prevEle
		}
		prevEle = ele
	}
	return s
}

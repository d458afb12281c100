package track

import (
	"encoding/json"
	"fmt"
	"time"

	"trailbook/pkg/model"
)

// watchExport is the proprietary watch JSON shape: an array of samples with
// GPS plus optional sensor channels, timed either absolutely (timestamp) or
// relatively (offsetMs).
type watchExport struct {
	Activity string        `json:"activity,omitempty"`
	Samples  []watchSample `json:"samples"`
}

type watchSample struct {
	Timestamp *time.Time `json:"timestamp,omitempty"`
	OffsetMs  *int64     `json:"offsetMs,omitempty"`

	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	AltitudeM *float64 `json:"altitude,omitempty"`
	SpeedMps  *float64 `json:"speed,omitempty"`
	HeartRate *int     `json:"heartRate,omitempty"`
	Cadence   *int     `json:"cadence,omitempty"`
	DistanceM *float64 `json:"distance,omitempty"`
}

// parseWatch extracts the richer per-sample record of a watch export and
// performs the same relative-time conversion as the GPX path.
func parseWatch(payload []byte) (*model.ActivityData, error) {
	var export watchExport
	if err := json.Unmarshal(payload, &export); err != nil {
		return nil, &ParseError{Source: "watch", Err: err}
	}
	if len(export.Samples) == 0 {
		return nil, &ParseError{Source: "watch", Err: fmt.Errorf("no samples")}
	}

	var startTime time.Time
	var startOffset int64
	first := export.Samples[0]
	switch {
	case first.Timestamp != nil:
		startTime = *first.Timestamp
	case first.OffsetMs != nil:
		startOffset = *first.OffsetMs
	default:
		return nil, &ParseError{Source: "watch", Err: fmt.Errorf("samples carry neither timestamp nor offsetMs")}
	}

	points := make([]model.ActivityDataPoint, 0, len(export.Samples))
	for _, s := range export.Samples {
		dp := model.ActivityDataPoint{
			Lat:        s.Latitude,
			Lon:        s.Longitude,
			ElevationM: s.AltitudeM,
			SpeedMps:   s.SpeedMps,
			HRBpm:      s.HeartRate,
			CadenceSpm: s.Cadence,
			DistanceM:  s.DistanceM,
		}
		switch {
		case s.Timestamp != nil && !startTime.IsZero():
			dp.TimestampMs = s.Timestamp.Sub(startTime).Milliseconds()
		case s.OffsetMs != nil:
			dp.TimestampMs = *s.OffsetMs - startOffset
		default:
			// Untimed sample; drop it rather than guess.
			continue
		}
		points = append(points, dp)
	}

	if len(points) == 0 {
		return nil, &ParseError{Source: "watch", Err: fmt.Errorf("no usable samples")}
	}
	return finalize(points, model.SourceWatch, startTime), nil
}

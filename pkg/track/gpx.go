package track

import (
	"fmt"
	"time"

	"github.com/tkrajina/gpxgo/gpx"

	"trailbook/pkg/model"
)

// parseGPX walks track segments in file order and extracts coordinates,
// elevation and time per point. Absolute ISO timestamps are converted to
// activity-relative milliseconds with the first point's time as zero.
func parseGPX(text string) (*model.ActivityData, error) {
	doc, err := gpx.ParseBytes([]byte(text))
	if err != nil {
		return nil, &ParseError{Source: "gpx", Err: err}
	}

	var points []model.ActivityDataPoint
	var startTime time.Time
	for _, trk := range doc.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				if startTime.IsZero() && !p.Timestamp.IsZero() {
					startTime = p.Timestamp
				}
				dp := model.ActivityDataPoint{
					Lat: p.Latitude,
					Lon: p.Longitude,
				}
				if p.Elevation.NotNull() {
					ele := p.Elevation.Value()
					dp.ElevationM = &ele
				}
				if !startTime.IsZero() && !p.Timestamp.IsZero() {
					dp.TimestampMs = p.Timestamp.Sub(startTime).Milliseconds()
				}
				points = append(points, dp)
			}
		}
	}

	if len(points) == 0 {
		return nil, &ParseError{Source: "gpx", Err: fmt.Errorf("no track points")}
	}
	return finalize(points, model.SourceGPX, startTime), nil
}

package track

import (
	"time"

	"trailbook/pkg/model"
)

// DefaultResampleInterval is the fixed cadence playback runs at.
const DefaultResampleInterval = 5 * time.Second

// Resample converts a variable-rate point sequence to a fixed-interval one.
// Consecutive output timestamps differ by exactly interval except possibly
// the final pair: the last point preserves the original end time rather
// than overshooting it.
//
// Each synthetic timestamp takes the nearest original point at or after it
// (nearest-following). No value interpolation is performed on elevation,
// speed or heart rate; smoothing sensor data would misrepresent it.
// Idempotent under the same interval. Inputs of 0 or 1 points are returned
// unchanged.
func Resample(points []model.ActivityDataPoint, interval time.Duration) []model.ActivityDataPoint {
	if len(points) < 2 {
		return points
	}
	step := interval.Milliseconds()
	if step <= 0 {
		return points
	}

	start := points[0].TimestampMs
	end := points[len(points)-1].TimestampMs

	out := make([]model.ActivityDataPoint, 0, (end-start)/step+2)
	j := 0
	for t := start; t <= end; t += step {
		for points[j].TimestampMs < t {
			j++
		}
		p := points[j]
		p.TimestampMs = t
		out = append(out, p)
	}

	// Preserve the original end time when the grid doesn't land on it.
	if out[len(out)-1].TimestampMs != end {
		out = append(out, points[len(points)-1])
	}
	return out
}

// ResampleActivity returns a copy of the activity with its points resampled.
// Bounds, summary and capability flags come from the pre-resample data.
func ResampleActivity(data *model.ActivityData, interval time.Duration) *model.ActivityData {
	resampled := *data
	resampled.DataPoints = Resample(data.DataPoints, interval)
	return &resampled
}

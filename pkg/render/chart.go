package render

import (
	"fmt"

	"trailbook/pkg/model"
)

// DefaultChartBudget caps how many visual points a chart frame carries.
// The playback cadence stays untouched; only the drawn series is thinned.
const DefaultChartBudget = 200

// Metric selects the chart's y-axis series.
type Metric string

const (
	MetricElevation Metric = "elevation"
	MetricSpeed     Metric = "speed"
	MetricHeartRate Metric = "heartrate"
)

// ChartPoint is one visual sample. SourceIndex points back into the
// resampled track so chart clicks can seek the clock.
type ChartPoint struct {
	SourceIndex int      `json:"sourceIndex"`
	TimestampMs int64    `json:"timestampMs"`
	DistanceM   float64  `json:"distanceM"`
	Value       *float64 `json:"value"`
}

// ChartCursor marks the playback position on the chart.
type ChartCursor struct {
	SourceIndex int     `json:"sourceIndex"`
	TimestampMs int64   `json:"timestampMs"`
	Fraction    float64 `json:"fraction"`
}

// ChartFrame is everything a profile chart needs for one render pass.
type ChartFrame struct {
	Metric  Metric         `json:"metric"`
	Points  []ChartPoint   `json:"points"`
	Cursor  ChartCursor    `json:"cursor"`
	Segment *model.Segment `json:"segment,omitempty"`
	MinVal  float64        `json:"minVal"`
	MaxVal  float64        `json:"maxVal"`
}

// BuildChartFrame assembles the profile chart state for the current
// playback position.
func BuildChartFrame(activity *model.ActivityData, st model.PlaybackState, metric Metric, budget int) ChartFrame {
	if budget <= 0 {
		budget = DefaultChartBudget
	}
	points := activity.DataPoints
	frame := ChartFrame{Metric: metric}
	if len(points) == 0 {
		return frame
	}

	frame.Points = downsample(points, metric, budget)
	frame.MinVal, frame.MaxVal = valueRange(frame.Points)

	idx := clampIndex(st.CurrentIndex, len(points))
	frame.Cursor = ChartCursor{
		SourceIndex: idx,
		TimestampMs: points[idx].TimestampMs,
		Fraction:    fractionAt(points, idx),
	}
	if st.HighlightedSegment != nil {
		seg := *st.HighlightedSegment
		frame.Segment = &seg
	}
	return frame
}

// IndexAtFraction maps a horizontal chart click (0..1 of total duration)
// back to the nearest track index, for click-to-seek.
func IndexAtFraction(activity *model.ActivityData, fraction float64) (int, error) {
	points := activity.DataPoints
	if len(points) == 0 {
		return 0, fmt.Errorf("empty activity")
	}
	if fraction < 0 || fraction > 1 {
		return 0, fmt.Errorf("fraction %g out of range [0,1]", fraction)
	}
	target := int64(fraction * float64(points[len(points)-1].TimestampMs))
	best, bestDelta := 0, int64(-1)
	for i, p := range points {
		d := p.TimestampMs - target
		if d < 0 {
			d = -d
		}
		if bestDelta < 0 || d < bestDelta {
			best, bestDelta = i, d
		}
		if p.TimestampMs > target && bestDelta >= 0 && d > bestDelta {
			break
		}
	}
	return best, nil
}

// downsample thins the track to at most budget visual points by uniform
// stride, always keeping the first and last samples.
func downsample(points []model.ActivityDataPoint, metric Metric, budget int) []ChartPoint {
	n := len(points)
	stride := 1
	if n > budget {
		stride = (n + budget - 1) / budget
	}

	out := make([]ChartPoint, 0, n/stride+2)
	for i := 0; i < n; i += stride {
		out = append(out, chartPoint(points, i, metric))
	}
	if last := n - 1; out[len(out)-1].SourceIndex != last {
		out = append(out, chartPoint(points, last, metric))
	}
	return out
}

func chartPoint(points []model.ActivityDataPoint, i int, metric Metric) ChartPoint {
	p := points[i]
	cp := ChartPoint{
		SourceIndex: i,
		TimestampMs: p.TimestampMs,
		Value:       metricValue(p, metric),
	}
	if p.DistanceM != nil {
		cp.DistanceM = *p.DistanceM
	}
	return cp
}

func metricValue(p model.ActivityDataPoint, metric Metric) *float64 {
	switch metric {
	case MetricElevation:
		return p.ElevationM
	case MetricSpeed:
		return p.SpeedMps
	case MetricHeartRate:
		if p.HRBpm == nil {
			return nil
		}
		v := float64(*p.HRBpm)
		return &v
	}
	return nil
}

func valueRange(points []ChartPoint) (min, max float64) {
	first := true
	for _, p := range points {
		if p.Value == nil {
			continue
		}
		if first {
			min, max = *p.Value, *p.Value
			first = false
			continue
		}
		if *p.Value < min {
			min = *p.Value
		}
		if *p.Value > max {
			max = *p.Value
		}
	}
	return min, max
}

func fractionAt(points []model.ActivityDataPoint, idx int) float64 {
	total := points[len(points)-1].TimestampMs
	if total == 0 {
		return 0
	}
	return float64(points[idx].TimestampMs) / float64(total)
}

func clampIndex(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}

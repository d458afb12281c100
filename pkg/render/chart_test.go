package render

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbook/pkg/model"
)

func TestBuildChartFrameDownsamples(t *testing.T) {
	activity := testActivity(1000)
	frame := BuildChartFrame(activity, model.PlaybackState{}, MetricElevation, 200)

	assert.LessOrEqual(t, len(frame.Points), 201, "budget plus the preserved last point")
	assert.Equal(t, 0, frame.Points[0].SourceIndex)
	assert.Equal(t, 999, frame.Points[len(frame.Points)-1].SourceIndex)
}

func TestBuildChartFrameSmallTrackUntouched(t *testing.T) {
	activity := testActivity(50)
	frame := BuildChartFrame(activity, model.PlaybackState{}, MetricElevation, 200)
	assert.Len(t, frame.Points, 50)
}

func TestBuildChartFrameCursor(t *testing.T) {
	activity := testActivity(11) // timestamps 0..50000
	frame := BuildChartFrame(activity, model.PlaybackState{CurrentIndex: 5}, MetricElevation, 0)

	assert.Equal(t, 5, frame.Cursor.SourceIndex)
	assert.Equal(t, int64(25000), frame.Cursor.TimestampMs)
	assert.InDelta(t, 0.5, frame.Cursor.Fraction, 1e-9)
}

func TestBuildChartFrameValueRange(t *testing.T) {
	activity := testActivity(10) // elevations 600..618
	frame := BuildChartFrame(activity, model.PlaybackState{}, MetricElevation, 0)
	assert.Equal(t, 600.0, frame.MinVal)
	assert.Equal(t, 618.0, frame.MaxVal)
}

func TestIndexAtFraction(t *testing.T) {
	activity := testActivity(11) // timestamps 0..50000

	tests := []struct {
		name     string
		fraction float64
		want     int
	}{
		{"start", 0, 0},
		{"end", 1, 10},
		{"middle", 0.5, 5},
		{"between samples rounds to nearest", 0.54, 5},
		{"between samples rounds up", 0.56, 6},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := IndexAtFraction(activity, tt.fraction)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIndexAtFractionErrors(t *testing.T) {
	activity := testActivity(11)
	for _, f := range []float64{-0.1, 1.1} {
		_, err := IndexAtFraction(activity, f)
		assert.Error(t, err, "fraction %g", f)
	}
	_, err := IndexAtFraction(&model.ActivityData{}, 0.5)
	assert.Error(t, err)
}

func TestExportChartRendersHTML(t *testing.T) {
	activity := testActivity(100)
	var buf bytes.Buffer
	err := ExportChart(activity, "Morning hike", MetricElevation, 50, &buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "echarts")
}

func TestExportChartEmptyActivity(t *testing.T) {
	var buf bytes.Buffer
	err := ExportChart(&model.ActivityData{}, "x", MetricElevation, 50, &buf)
	assert.Error(t, err)
}

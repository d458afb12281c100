package track

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trailbook/pkg/model"
)

const sampleGPX = `<?xml version="1.0" encoding="UTF-8"?>
<gpx version="1.1" creator="test">
  <trk><trkseg>
    <trkpt lat="47.2692" lon="11.4041"><ele>574.0</ele><time>2026-06-14T08:00:00Z</time></trkpt>
    <trkpt lat="47.2701" lon="11.4052"><ele>581.5</ele><time>2026-06-14T08:00:10Z</time></trkpt>
    <trkpt lat="47.2710" lon="11.4064"><ele>579.0</ele><time>2026-06-14T08:00:20Z</time></trkpt>
  </trkseg></trk>
</gpx>`

const sampleWatch = `{
  "activity": "hike",
  "samples": [
    {"timestamp": "2026-06-14T08:00:00Z", "latitude": 47.2692, "longitude": 11.4041, "altitude": 574.0, "heartRate": 102, "speed": 1.2},
    {"timestamp": "2026-06-14T08:00:05Z", "latitude": 47.2695, "longitude": 11.4046, "altitude": 576.0, "speed": 1.3},
    {"timestamp": "2026-06-14T08:00:10Z", "latitude": 47.2701, "longitude": 11.4052, "altitude": 581.5, "heartRate": 108, "speed": 1.1}
  ]
}`

func TestParseGPX(t *testing.T) {
	data, err := Parse(Input{Type: InputGPX, GPXText: sampleGPX})
	require.NoError(t, err)

	assert.Equal(t, model.SourceGPX, data.Source)
	require.Len(t, data.DataPoints, 3)

	// Relative time, first point is zero.
	assert.Equal(t, int64(0), data.DataPoints[0].TimestampMs)
	assert.Equal(t, int64(10000), data.DataPoints[1].TimestampMs)
	assert.Equal(t, int64(20000), data.DataPoints[2].TimestampMs)

	// GPX carries no sensor channels.
	assert.False(t, data.HasHeartRate)
	assert.False(t, data.HasCadence)
	assert.False(t, data.HasSpeed)

	// Elevation gain counts only ascent: +7.5 then -2.5.
	assert.InDelta(t, 7.5, data.Summary.ElevationGainM, 0.001)
	assert.Equal(t, 20.0, data.Summary.DurationS)

	// Bounds span the full point set.
	assert.Equal(t, 47.2710, data.Bounds.North)
	assert.Equal(t, 47.2692, data.Bounds.South)
	assert.Equal(t, 11.4064, data.Bounds.East)
	assert.Equal(t, 11.4041, data.Bounds.West)

	// Cumulative distance is filled in.
	require.NotNil(t, data.DataPoints[2].DistanceM)
	assert.Greater(t, *data.DataPoints[2].DistanceM, 0.0)
}

func TestParseWatch(t *testing.T) {
	data, err := Parse(Input{Type: InputWatch, WatchPayload: []byte(sampleWatch)})
	require.NoError(t, err)

	assert.Equal(t, model.SourceWatch, data.Source)
	require.Len(t, data.DataPoints, 3)
	assert.Equal(t, int64(5000), data.DataPoints[1].TimestampMs)

	// Any point carrying a channel flips the capability flag, even though
	// the middle sample has no heart rate.
	assert.True(t, data.HasHeartRate)
	assert.True(t, data.HasSpeed)
	assert.False(t, data.HasCadence)
	assert.Nil(t, data.DataPoints[1].HRBpm)
	require.NotNil(t, data.DataPoints[0].HRBpm)
	assert.Equal(t, 102, *data.DataPoints[0].HRBpm)
}

func TestParseWatchRelativeOffsets(t *testing.T) {
	payload := `{"samples": [
		{"offsetMs": 1000, "latitude": 47.0, "longitude": 11.0},
		{"offsetMs": 6000, "latitude": 47.1, "longitude": 11.1}
	]}`
	data, err := Parse(Input{Type: InputWatch, WatchPayload: []byte(payload)})
	require.NoError(t, err)
	assert.Equal(t, int64(0), data.DataPoints[0].TimestampMs)
	assert.Equal(t, int64(5000), data.DataPoints[1].TimestampMs)
}

func TestParseAutoPrefersWatch(t *testing.T) {
	data, err := Parse(Input{Type: InputAuto, WatchPayload: []byte(sampleWatch), GPXText: sampleGPX})
	require.NoError(t, err)
	assert.Equal(t, model.SourceWatch, data.Source)
}

func TestParseAutoFallsBackToGPX(t *testing.T) {
	data, err := Parse(Input{Type: InputAuto, WatchPayload: []byte("{not json"), GPXText: sampleGPX})
	require.NoError(t, err)
	assert.Equal(t, model.SourceGPX, data.Source)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name    string
		input   Input
		wantErr error
	}{
		{"nothing supplied", Input{Type: InputAuto}, ErrNoActivityData},
		{"empty gpx", Input{Type: InputGPX}, ErrNoActivityData},
		{"malformed gpx", Input{Type: InputGPX, GPXText: "<gpx"}, nil},
		{"gpx without points", Input{Type: InputGPX, GPXText: `<gpx version="1.1" creator="t"></gpx>`}, nil},
		{"malformed watch", Input{Type: InputWatch, WatchPayload: []byte("nope")}, nil},
		{"watch without samples", Input{Type: InputWatch, WatchPayload: []byte(`{"samples":[]}`)}, nil},
		{"auto both invalid", Input{Type: InputAuto, WatchPayload: []byte("nope"), GPXText: "<gpx"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.input)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			var perr *ParseError
			assert.True(t, errors.As(err, &perr), "want *ParseError, got %T", err)
		})
	}
}

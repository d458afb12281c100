package render

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	echopts "github.com/go-echarts/go-echarts/v2/opts"

	"trailbook/pkg/model"
)

// ExportChart renders a standalone HTML profile chart for sharing an entry
// outside the app. Uses the same downsampled series as the live chart.
func ExportChart(activity *model.ActivityData, title string, metric Metric, budget int, w io.Writer) error {
	if len(activity.DataPoints) == 0 {
		return fmt.Errorf("empty activity")
	}
	series := downsample(activity.DataPoints, metric, budget)

	xAxis := make([]string, len(series))
	items := make([]echopts.LineData, len(series))
	for i, p := range series {
		xAxis[i] = fmt.Sprintf("%.1f km", p.DistanceM/1000)
		items[i] = echopts.LineData{Value: p.Value}
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(echopts.Initialization{Theme: "macarons"}),
		charts.WithTitleOpts(echopts.Title{
			Title:    title,
			Subtitle: string(metric),
		}),
		charts.WithTooltipOpts(echopts.Tooltip{
			Show:    echopts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithXAxisOpts(echopts.XAxis{
			Name: "distance",
		}),
		charts.WithYAxisOpts(echopts.YAxis{
			Name:  yAxisName(metric),
			Scale: echopts.Bool(true),
		}),
	)
	line.SetXAxis(xAxis)
	line.AddSeries(string(metric), items)
	line.SetSeriesOptions(charts.WithLineChartOpts(echopts.LineChart{Smooth: echopts.Bool(true)}))

	return line.Render(w)
}

func yAxisName(metric Metric) string {
	switch metric {
	case MetricElevation:
		return "m"
	case MetricSpeed:
		return "m/s"
	case MetricHeartRate:
		return "bpm"
	}
	return ""
}

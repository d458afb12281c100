package render

import (
	"bytes"
	"fmt"

	"github.com/fogleman/gg"

	"trailbook/pkg/model"
)

// ThumbnailOptions size and style the generated track image.
type ThumbnailOptions struct {
	Width   int
	Height  int
	Padding float64
	Line    string // hex stroke color
	BG      string // hex background color
}

// DefaultThumbnailOptions is what the journal list view uses.
var DefaultThumbnailOptions = ThumbnailOptions{
	Width:   320,
	Height:  200,
	Padding: 16,
	Line:    "#2b6cb0",
	BG:      "#f7fafc",
}

// Thumbnail draws the track polyline into a small PNG for entry lists.
func Thumbnail(activity *model.ActivityData, opts ThumbnailOptions) ([]byte, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		opts = DefaultThumbnailOptions
	}
	points := activity.DataPoints
	if len(points) < 2 {
		return nil, fmt.Errorf("need at least 2 points, got %d", len(points))
	}

	b := activity.Bounds
	spanLon := b.East - b.West
	spanLat := b.North - b.South
	if spanLon == 0 {
		spanLon = 1e-6
	}
	if spanLat == 0 {
		spanLat = 1e-6
	}

	dc := gg.NewContext(opts.Width, opts.Height)
	dc.SetHexColor(opts.BG)
	dc.Clear()

	drawW := float64(opts.Width) - 2*opts.Padding
	drawH := float64(opts.Height) - 2*opts.Padding
	// Uniform scale keeps the track's aspect ratio; the shorter axis centers.
	scale := drawW / spanLon
	if s := drawH / spanLat; s < scale {
		scale = s
	}
	offX := opts.Padding + (drawW-spanLon*scale)/2
	offY := opts.Padding + (drawH-spanLat*scale)/2

	project := func(p model.ActivityDataPoint) (float64, float64) {
		x := offX + (p.Lon-b.West)*scale
		y := offY + (b.North-p.Lat)*scale
		return x, y
	}

	dc.SetHexColor(opts.Line)
	dc.SetLineWidth(2.5)
	x, y := project(points[0])
	dc.MoveTo(x, y)
	for _, p := range points[1:] {
		x, y = project(p)
		dc.LineTo(x, y)
	}
	dc.Stroke()

	// Start and end dots.
	sx, sy := project(points[0])
	ex, ey := project(points[len(points)-1])
	dc.SetHexColor("#38a169")
	dc.DrawCircle(sx, sy, 4)
	dc.Fill()
	dc.SetHexColor("#e53e3e")
	dc.DrawCircle(ex, ey, 4)
	dc.Fill()

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encoding thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

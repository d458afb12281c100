package geo

import (
	"math"

	"github.com/paulmach/orb"

	"trailbook/pkg/model"
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// metersPerDegreeLat is the approximate ground distance of one degree of
// latitude. Longitude shrinks with the cosine of the latitude.
const metersPerDegreeLat = 111320.0

// Distance calculates the Haversine distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	const R = 6371000 // Earth radius in meters
	dLat := (p2.Lat - p1.Lat) * (math.Pi / 180.0)
	dLon := (p2.Lon - p1.Lon) * (math.Pi / 180.0)
	lat1 := p1.Lat * (math.Pi / 180.0)
	lat2 := p2.Lat * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// PlanarDistance approximates the distance between two points in meters by
// scaling degree deltas with per-axis meters-per-degree constants. Cheap and
// adequate at hiking scale; not a great-circle distance.
func PlanarDistance(p1, p2 Point) float64 {
	dy := (p2.Lat - p1.Lat) * metersPerDegreeLat
	dx := (p2.Lon - p1.Lon) * metersPerDegreeLat * math.Cos(p1.Lat*math.Pi/180.0)
	return math.Sqrt(dx*dx + dy*dy)
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2 in degrees.
func Bearing(p1, p2 Point) float64 {
	lat1 := p1.Lat * (math.Pi / 180.0)
	lat2 := p2.Lat * (math.Pi / 180.0)
	dLon := (p2.Lon - p1.Lon) * (math.Pi / 180.0)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	brng := math.Atan2(y, x)

	return math.Mod(brng*(180.0/math.Pi)+360.0, 360.0)
}

// BoundsOf computes the bounding box of a point sequence by extending an
// orb.Bound across every coordinate. Returns the zero Bounds for no points.
func BoundsOf(points []model.ActivityDataPoint) model.Bounds {
	if len(points) == 0 {
		return model.Bounds{}
	}
	bound := orb.Bound{
		Min: orb.Point{points[0].Lon, points[0].Lat},
		Max: orb.Point{points[0].Lon, points[0].Lat},
	}
	for _, p := range points[1:] {
		bound = bound.Extend(orb.Point{p.Lon, p.Lat})
	}
	return model.BoundsFromOrb(bound)
}

// LineOf converts a point sequence to an orb.LineString.
func LineOf(points []model.ActivityDataPoint) orb.LineString {
	line := make(orb.LineString, len(points))
	for i, p := range points {
		line[i] = orb.Point{p.Lon, p.Lat}
	}
	return line
}

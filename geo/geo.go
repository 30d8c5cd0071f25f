// Package geo implements the two-phase proximity test used for quest
// discovery and duplicate detection: a coarse degree-delta bounding box that
// maps onto an indexed latitude range query, always followed by an exact
// great-circle distance check. The bounding box alone is over-inclusive
// (longitude degrees shrink toward the poles) and must never be treated as
// the final answer.
package geo

import (
	"math"

	"github.com/umahmood/haversine"

	"plantquest/models"
)

// MetersPerDegreeLat converts a latitude degree delta to meters on the
// 6371 km sphere haversine assumes (one degree of latitude ~ 111.19 km).
const MetersPerDegreeLat = 6371000 * math.Pi / 180

// Bounds is a degree-delta bounding box around a center point.
type Bounds struct {
	MinLat float64
	MaxLat float64
	MinLng float64
	MaxLng float64
}

// BoundingBox returns the box extending radiusDeg degrees in each direction
// from center. The latitude range is what the store can index; longitude is
// filtered in process via Contains.
func BoundingBox(center models.Location, radiusDeg float64) Bounds {
	return Bounds{
		MinLat: center.Lat - radiusDeg,
		MaxLat: center.Lat + radiusDeg,
		MinLng: center.Lng - radiusDeg,
		MaxLng: center.Lng + radiusDeg,
	}
}

// Contains reports whether loc falls inside the box, boundary inclusive.
func (b Bounds) Contains(loc models.Location) bool {
	return loc.Lat >= b.MinLat && loc.Lat <= b.MaxLat &&
		loc.Lng >= b.MinLng && loc.Lng <= b.MaxLng
}

// DistanceMeters returns the great-circle distance between two points.
func DistanceMeters(a, b models.Location) float64 {
	_, km := haversine.Distance(
		haversine.Coord{Lat: a.Lat, Lon: a.Lng},
		haversine.Coord{Lat: b.Lat, Lon: b.Lng},
	)
	return km * 1000
}

// IsWithin reports whether b lies within radiusMeters of a, boundary
// inclusive.
func IsWithin(a, b models.Location, radiusMeters float64) bool {
	return DistanceMeters(a, b) <= radiusMeters
}

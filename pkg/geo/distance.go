// Package geo holds the small amount of spherical geometry the location
// provider needs to apply its distance filter.
package geo

import (
	"math"

	"nearme/models"
)

// EarthRadius is the WGS84 semi-major axis in meters.
const EarthRadius = 6378137.0

func DegreesToRadians(d float64) float64 {
	return d * math.Pi / 180.0
}

// Distance returns the great-circle distance between a and b in meters
// using the haversine formula.
func Distance(a, b models.Coordinates) float64 {
	lat1 := DegreesToRadians(a.Lat)
	lon1 := DegreesToRadians(a.Lon)
	lat2 := DegreesToRadians(b.Lat)
	lon2 := DegreesToRadians(b.Lon)

	dLat := lat2 - lat1
	dLon := lon2 - lon1
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return EarthRadius * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// Moved reports whether b is more than threshold meters away from a.
func Moved(a, b models.Coordinates, threshold float64) bool {
	return Distance(a, b) > threshold
}

// Package geo contains pure geometry helpers.
package geo

import (
	"math"

	"github.com/UnknownOlympus/scout/internal/models"
)

// EarthRadiusMiles is the mean Earth radius used by Distance.
const EarthRadiusMiles = 3959.0

// Distance returns the great-circle distance in miles between two points
// using the Haversine formula.
func Distance(a, b models.Coordinates) float64 {
	lat1 := toRadians(a.Latitude)
	lat2 := toRadians(b.Latitude)
	dLat := toRadians(b.Latitude - a.Latitude)
	dLon := toRadians(b.Longitude - a.Longitude)

	x := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)

	return 2 * EarthRadiusMiles * math.Atan2(math.Sqrt(x), math.Sqrt(1-x))
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

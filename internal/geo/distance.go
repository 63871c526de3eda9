package geo

import (
	"math"

	"eatsdash/internal/models"
)

const (
	// EarthRadiusMeters is the mean radius of the spherical earth model.
	EarthRadiusMeters = 6371000
	FeetPerMeter      = 3.28084
)

// DistanceFeet returns the haversine distance between a and b on a spherical
// earth. ok is false when either point is absent.
func DistanceFeet(a, b *models.Coordinate) (feet float64, ok bool) {
	if a == nil || b == nil {
		return 0, false
	}
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(a.Lat))*math.Cos(toRad(b.Lat))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadiusMeters * c * FeetPerMeter, true
}

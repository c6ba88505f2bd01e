// Package geo provides great-circle distance math for radius filtering and
// distance ranking. Everything here is pure: same inputs, same bits.
package geo

import "math"

// EarthRadiusMeters is the mean radius of Earth used for Haversine distance.
const EarthRadiusMeters = 6_371_000.0

// Point is a geographic coordinate in degrees.
type Point struct {
	Lat float64
	Lon float64
}

// Haversine returns the great-circle distance in meters between two points
// specified by latitude and longitude in degrees.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1r := lat1 * math.Pi / 180
	lat2r := lat2 * math.Pi / 180
	dLat := (lat2 - lat1) * math.Pi / 180
	dLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1r)*math.Cos(lat2r)*math.Sin(dLon/2)*math.Sin(dLon/2)
	// asin form; a is clamped so antipodal points stay in asin's domain.
	if a > 1 {
		a = 1
	}
	c := 2 * math.Asin(math.Sqrt(a))

	return EarthRadiusMeters * c
}

// DistanceMeters returns the Haversine distance rounded to the nearest
// integer meter. This is the value exposed on search results and used for
// radius predicates, so rounding happens in exactly one place.
func DistanceMeters(from, to Point) float64 {
	return math.Round(Haversine(from.Lat, from.Lon, to.Lat, to.Lon))
}

// ValidCoordinates checks that latitude is in [-90,90] and longitude in
// [-180,180].
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

// BoundingBox returns the latitude/longitude bounds of a circle of the given
// radius around a center point. Used by backends that cannot evaluate the
// Haversine formula server-side: prefilter by box, refine by exact distance.
// Longitude bounds widen to the full range near the poles.
func BoundingBox(center Point, radiusMeters float64) (minLat, maxLat, minLon, maxLon float64) {
	dLat := radiusMeters / EarthRadiusMeters * 180 / math.Pi
	minLat = center.Lat - dLat
	maxLat = center.Lat + dLat

	cosLat := math.Cos(center.Lat * math.Pi / 180)
	if cosLat < 1e-9 {
		return minLat, maxLat, -180, 180
	}
	dLon := radiusMeters / (EarthRadiusMeters * cosLat) * 180 / math.Pi
	if dLon >= 180 {
		return minLat, maxLat, -180, 180
	}
	return minLat, maxLat, center.Lon - dLon, center.Lon + dLon
}

// Package geospatial holds the small amount of spherical math the planner needs.
package geospatial

import "math"

// earthRadiusMeters is the mean Earth radius.
const earthRadiusMeters = 6_371_000.0

// Haversine returns the great-circle distance in meters between two points
// given in degrees.
func Haversine(lat1, lng1, lat2, lng2 float64) float64 {
	phi1, phi2 := radians(lat1), radians(lat2)
	h := hav(phi2-phi1) + math.Cos(phi1)*math.Cos(phi2)*hav(radians(lng2-lng1))
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(min(h, 1)))
}

// Lerp returns the point at fraction t along the straight segment from
// (lat1, lng1) to (lat2, lng2). t is clamped to [0, 1]; NaN counts as 0.
// Stop-points are a few hundred meters apart, so planar interpolation is
// close enough to the great-circle path.
func Lerp(lat1, lng1, lat2, lng2, t float64) (lat, lng float64) {
	switch {
	case t < 0 || math.IsNaN(t):
		t = 0
	case t > 1:
		t = 1
	}
	return lat1 + (lat2-lat1)*t, lng1 + (lng2-lng1)*t
}

func hav(theta float64) float64 {
	s := math.Sin(theta / 2)
	return s * s
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

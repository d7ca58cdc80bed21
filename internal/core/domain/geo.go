package domain

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// RouteStep is one leg of a route with its own distance and endpoints.
type RouteStep struct {
	DistanceMeters int      `json:"distance_meters"`
	Start          GeoPoint `json:"start"`
	End            GeoPoint `json:"end"`
}

// Route is the first route returned by a mapping provider.
// TotalDistanceMeters should equal the sum of the step distances but that is
// not enforced.
type Route struct {
	TotalDistanceMeters int         `json:"total_distance_meters"`
	Steps               []RouteStep `json:"steps"`
	StartLocation       GeoPoint    `json:"start_location"`
	EndLocation         GeoPoint    `json:"end_location"`
	StartAddress        string      `json:"start_address,omitempty"`
	EndAddress          string      `json:"end_address,omitempty"`
}

// SampleRequest asks for stop-points along a route.
// A zero DesiredPointCount derives the count from the route distance.
type SampleRequest struct {
	Route             Route `json:"route"`
	DesiredPointCount int   `json:"desired_point_count,omitempty"`
}

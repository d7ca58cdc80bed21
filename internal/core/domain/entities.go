package domain

import (
	"strings"
	"time"
)

// TravelMode selects how the route is travelled.
type TravelMode string

const (
	TravelWalking   TravelMode = "WALKING"
	TravelDriving   TravelMode = "DRIVING"
	TravelBicycling TravelMode = "BICYCLING"
	TravelTransit   TravelMode = "TRANSIT"
)

// ParseTravelMode normalises a user-supplied mode. An empty string means walking.
func ParseTravelMode(s string) (TravelMode, bool) {
	switch TravelMode(strings.ToUpper(strings.TrimSpace(s))) {
	case "", TravelWalking:
		return TravelWalking, true
	case TravelDriving:
		return TravelDriving, true
	case TravelBicycling:
		return TravelBicycling, true
	case TravelTransit:
		return TravelTransit, true
	}
	return "", false
}

// PhotoRecord is a single geotagged photo. Link identifies it.
type PhotoRecord struct {
	Link     string   `json:"link"`
	ImageURL string   `json:"image_url"`
	Location GeoPoint `json:"location"`
}

// Valid reports whether the record carries everything a marker needs.
func (p PhotoRecord) Valid() bool {
	return p.Link != "" && p.ImageURL != ""
}

// CoordinatePhotoGroup holds the photos found around one sampled point,
// in the order the provider returned them.
type CoordinatePhotoGroup struct {
	Coordinate GeoPoint      `json:"coordinate"`
	Photos     []PhotoRecord `json:"photos"`
	Error      string        `json:"error,omitempty"` // set when the search failed or timed out
}

// Representative returns the point used to order the group: the first
// photo's location, or the queried coordinate for an empty group.
func (g CoordinatePhotoGroup) Representative() GeoPoint {
	if len(g.Photos) > 0 {
		return g.Photos[0].Location
	}
	return g.Coordinate
}

// AggregationJob tracks one fan-out of photo searches until every
// coordinate has produced a group. It lives for a single request.
type AggregationJob struct {
	Coordinates []GeoPoint
	Pending     int
	Groups      []CoordinatePhotoGroup
}

// NewAggregationJob starts a job expecting one group per coordinate.
func NewAggregationJob(coords []GeoPoint) *AggregationJob {
	return &AggregationJob{
		Coordinates: coords,
		Pending:     len(coords),
		Groups:      make([]CoordinatePhotoGroup, 0, len(coords)),
	}
}

// Add records an arrived group. Groups are kept in arrival order.
func (j *AggregationJob) Add(g CoordinatePhotoGroup) {
	j.Groups = append(j.Groups, g)
	j.Pending--
}

// Done reports whether every coordinate has produced a group.
func (j *AggregationJob) Done() bool {
	return j.Pending <= 0
}

// TripRequest is what a user asks for: two locations and a travel mode.
type TripRequest struct {
	Start  string     `json:"start"`
	End    string     `json:"end"`
	Mode   TravelMode `json:"mode"`
	Points int        `json:"points,omitempty"` // 0 derives from distance
}

// Trip is a planned route enriched with photo groups ordered along the
// direction of travel.
type Trip struct {
	ID                 string                 `json:"id"`
	Start              string                 `json:"start"`
	End                string                 `json:"end"`
	Mode               TravelMode             `json:"mode"`
	StartLocation      GeoPoint               `json:"start_location"`
	EndLocation        GeoPoint               `json:"end_location"`
	DistanceMeters     int                    `json:"distance_meters"`
	StraightLineMeters float64                `json:"straight_line_meters"`
	Points             []GeoPoint             `json:"points"`
	Groups             []CoordinatePhotoGroup `json:"groups"`
	CreatedAt          time.Time              `json:"created_at"`
}

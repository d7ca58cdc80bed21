package usecases

import (
	"math"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
	"github.com/mjsgreen01/Instatrip/internal/pkg/geospatial"
)

const (
	// MaxStopPoints is the most intermediate waypoints the directions
	// renderer accepts alongside origin and destination.
	MaxStopPoints = 6

	// metersPerStopPoint drives the point count when none is requested.
	metersPerStopPoint = 300
)

// RouteSampler picks evenly spaced stop-points along a route.
type RouteSampler struct{}

// NewRouteSampler creates a new RouteSampler.
func NewRouteSampler() *RouteSampler {
	return &RouteSampler{}
}

// SampleRequest is Sample for a domain.SampleRequest.
func (s *RouteSampler) SampleRequest(req domain.SampleRequest) []domain.GeoPoint {
	return s.Sample(req.Route, req.DesiredPointCount)
}

// Sample walks the route steps once and returns up to MaxStopPoints points
// in travel order. A zero desiredPointCount derives the count from the
// route distance. Routes without steps or distance yield no points.
func (s *RouteSampler) Sample(route domain.Route, desiredPointCount int) []domain.GeoPoint {
	total := route.TotalDistanceMeters
	if len(route.Steps) == 0 || total <= 0 {
		return []domain.GeoPoint{}
	}

	count := PointCount(total, desiredPointCount)
	// pointCount interior points split the route into pointCount+1 segments.
	interval := int(math.Round(float64(total) / float64(count+1)))

	result := make([]domain.GeoPoint, 0, count)

	var (
		traveled = 0 // meters along the whole route
		lastStop = 0 // traveled distance at the last emitted point
		inStep   = 0 // meters along the current step
		i        = 0
	)

	for i < len(route.Steps) {
		step := route.Steps[i]
		stepDist := max(step.DistanceMeters, 0)

		untilNextStop := interval - (traveled - lastStop)

		if stepDist-inStep > untilNextStop {
			advance := min(stepDist, untilNextStop)
			inStep += advance
			traveled += advance
		} else {
			traveled += stepDist - inStep
			inStep = stepDist
		}

		if traveled-lastStop >= interval {
			result = append(result, pointAlong(step, inStep, stepDist))
			lastStop = traveled
		}

		if inStep >= stepDist {
			inStep = 0
			i++
		}

		if traveled >= total || len(result) == count {
			break
		}
	}

	return result
}

// PointCount applies the stop-point policy: an explicit count is clamped to
// [1, MaxStopPoints]; zero derives one point per 300 m, within the same bounds.
func PointCount(totalDistanceMeters, desired int) int {
	if desired == 0 {
		desired = totalDistanceMeters / metersPerStopPoint
	}
	return min(max(desired, 1), MaxStopPoints)
}

// pointAlong interpolates linearly between the step endpoints. Zero length
// steps resolve to their start.
func pointAlong(step domain.RouteStep, inStep, stepDist int) domain.GeoPoint {
	var frac float64
	if stepDist > 0 {
		frac = float64(inStep) / float64(stepDist)
	}
	lat, lng := geospatial.Lerp(step.Start.Lat, step.Start.Lng, step.End.Lat, step.End.Lng, frac)
	return domain.GeoPoint{Lat: lat, Lng: lng}
}

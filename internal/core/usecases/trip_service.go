package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
	"github.com/mjsgreen01/Instatrip/internal/core/ports"
	"github.com/mjsgreen01/Instatrip/internal/pkg/geospatial"
	"github.com/mjsgreen01/Instatrip/internal/pkg/metrics"
	"github.com/mjsgreen01/Instatrip/internal/pkg/telemetry"
)

// TripService plans trips: route, stop-points, and photo groups.
type TripService struct {
	routes     ports.RouteProvider
	sampler    *RouteSampler
	aggregator *PhotoAggregator
	cache      ports.CacheService
	publisher  ports.EventPublisher
	routeTTL   int
	now        func() time.Time
}

// NewTripService creates a new TripService. cache and publisher may be nil.
func NewTripService(
	routes ports.RouteProvider,
	aggregator *PhotoAggregator,
	cache ports.CacheService,
	publisher ports.EventPublisher,
	routeTTLSeconds int,
) *TripService {
	return &TripService{
		routes:     routes,
		sampler:    NewRouteSampler(),
		aggregator: aggregator,
		cache:      cache,
		publisher:  publisher,
		routeTTL:   routeTTLSeconds,
		now:        time.Now,
	}
}

// Plan resolves the route, samples stop-points along it, and attaches the
// photo groups found around each point.
func (s *TripService) Plan(ctx context.Context, req domain.TripRequest) (*domain.Trip, error) {
	req, err := NormalizeRequest(req)
	if err != nil {
		return nil, err
	}

	ctx, span := otel.Tracer(telemetry.TracerName).Start(ctx, "TripService.Plan")
	defer span.End()
	span.SetAttributes(attribute.String(telemetry.AttrTravelMode, string(req.Mode)))

	route, points, err := s.waypoints(ctx, req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "route")
		return nil, err
	}
	span.SetAttributes(
		attribute.Int(telemetry.AttrRouteMeters, route.TotalDistanceMeters),
		attribute.Int(telemetry.AttrPointCount, len(points)),
	)

	groups, err := s.aggregator.Aggregate(ctx, points)
	if err != nil {
		return nil, fmt.Errorf("aggregate photos: %w", err)
	}

	straight := geospatial.Haversine(
		route.StartLocation.Lat, route.StartLocation.Lng,
		route.EndLocation.Lat, route.EndLocation.Lng,
	)

	trip := &domain.Trip{
		ID:                 uuid.NewString(),
		Start:              req.Start,
		End:                req.End,
		Mode:               req.Mode,
		StartLocation:      route.StartLocation,
		EndLocation:        route.EndLocation,
		DistanceMeters:     route.TotalDistanceMeters,
		StraightLineMeters: straight,
		Points:             points,
		Groups:             groups,
		CreatedAt:          s.now().UTC(),
	}
	metrics.TripsPlanned.WithLabelValues(string(req.Mode)).Inc()

	if s.publisher != nil {
		if err := s.publisher.PublishTripPlanned(ctx, trip); err != nil {
			slog.WarnContext(ctx, "publish trip planned failed", "trip_id", trip.ID, "error", err)
		}
	}

	return trip, nil
}

// Waypoints resolves the route and samples stop-points without photos.
func (s *TripService) Waypoints(ctx context.Context, req domain.TripRequest) (*domain.Route, []domain.GeoPoint, error) {
	req, err := NormalizeRequest(req)
	if err != nil {
		return nil, nil, err
	}
	return s.waypoints(ctx, req)
}

// RequestTrip hands the trip to the asynchronous planner and returns its ID.
func (s *TripService) RequestTrip(ctx context.Context, req domain.TripRequest) (string, error) {
	req, err := NormalizeRequest(req)
	if err != nil {
		return "", err
	}
	if s.publisher == nil {
		return "", domain.ErrPlannerUnavailable
	}

	id := uuid.NewString()
	if err := s.publisher.PublishTripRequested(ctx, id, req); err != nil {
		return "", fmt.Errorf("publish trip request: %w", err)
	}
	return id, nil
}

func (s *TripService) waypoints(ctx context.Context, req domain.TripRequest) (*domain.Route, []domain.GeoPoint, error) {
	route, err := s.route(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	points := s.sampler.Sample(*route, req.Points)
	metrics.PointsSampled.Observe(float64(len(points)))
	if len(points) == 0 {
		slog.InfoContext(ctx, "no stop-points sampled",
			"reason", domain.ErrMalformedRoute, "steps", len(route.Steps), "distance", route.TotalDistanceMeters)
	}
	return route, points, nil
}

// route fetches the route, reading through the cache when one is configured.
func (s *TripService) route(ctx context.Context, req domain.TripRequest) (*domain.Route, error) {
	cacheKey := fmt.Sprintf("route:%s:%s:%s", req.Mode, strings.ToLower(req.Start), strings.ToLower(req.End))
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var route domain.Route
			if err := json.Unmarshal(data, &route); err == nil {
				metrics.CacheHits.WithLabelValues("route").Inc()
				return &route, nil
			}
		}
		metrics.CacheMisses.WithLabelValues("route").Inc()
	}

	route, err := s.routes.GetRoute(ctx, req.Start, req.End, req.Mode)
	if err != nil {
		metrics.RouteFetches.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("get route: %w", err)
	}
	metrics.RouteFetches.WithLabelValues("ok").Inc()

	if s.cache != nil && s.routeTTL > 0 {
		if data, err := json.Marshal(route); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.routeTTL)
		}
	}

	return route, nil
}

// NormalizeRequest trims and validates a trip request, defaulting the mode
// to walking.
func NormalizeRequest(req domain.TripRequest) (domain.TripRequest, error) {
	req.Start = strings.TrimSpace(req.Start)
	req.End = strings.TrimSpace(req.End)
	if req.Start == "" || req.End == "" {
		return req, fmt.Errorf("%w: start and end are required", domain.ErrInvalidTripRequest)
	}
	if strings.EqualFold(req.Start, req.End) {
		return req, fmt.Errorf("%w: start and end must be different", domain.ErrInvalidTripRequest)
	}

	mode, ok := domain.ParseTravelMode(string(req.Mode))
	if !ok {
		return req, fmt.Errorf("%w: unknown travel mode %q", domain.ErrInvalidTripRequest, req.Mode)
	}
	req.Mode = mode

	if req.Points < 0 || req.Points > MaxStopPoints {
		return req, fmt.Errorf("%w: points must be between 0 and %d", domain.ErrInvalidTripRequest, MaxStopPoints)
	}
	return req, nil
}

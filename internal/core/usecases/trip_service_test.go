package usecases_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
	"github.com/mjsgreen01/Instatrip/internal/core/usecases"
)

// --- Mock RouteProvider ---

type mockRouteProvider struct {
	getRouteFn func(ctx context.Context, start, end string, mode domain.TravelMode) (*domain.Route, error)
	calls      int
}

func (m *mockRouteProvider) GetRoute(ctx context.Context, start, end string, mode domain.TravelMode) (*domain.Route, error) {
	m.calls++
	if m.getRouteFn != nil {
		return m.getRouteFn(ctx, start, end, mode)
	}
	return nil, nil
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]int
}

func newMockCache() *mockCache {
	return &mockCache{data: map[string][]byte{}, ttls: map[string]int{}}
}

func (c *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[key]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return v, nil
}

func (c *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = value
	c.ttls[key] = ttlSeconds
	return nil
}

func (c *mockCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	requestedErr error

	mu        sync.Mutex
	requested map[string]domain.TripRequest
	planned   []*domain.Trip
}

func (p *mockPublisher) PublishTripRequested(ctx context.Context, id string, req domain.TripRequest) error {
	if p.requestedErr != nil {
		return p.requestedErr
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.requested == nil {
		p.requested = map[string]domain.TripRequest{}
	}
	p.requested[id] = req
	return nil
}

func (p *mockPublisher) PublishTripPlanned(ctx context.Context, trip *domain.Trip) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.planned = append(p.planned, trip)
	return nil
}

// --- Helpers ---

// westbound is a 1500 m route heading west from (37.8, -122.40).
func westbound() *domain.Route {
	return &domain.Route{
		TotalDistanceMeters: 1500,
		StartLocation:       domain.GeoPoint{Lat: 37.8, Lng: -122.40},
		EndLocation:         domain.GeoPoint{Lat: 37.8, Lng: -122.415},
		Steps: []domain.RouteStep{
			{DistanceMeters: 1000, Start: domain.GeoPoint{Lat: 37.8, Lng: -122.40}, End: domain.GeoPoint{Lat: 37.8, Lng: -122.41}},
			{DistanceMeters: 500, Start: domain.GeoPoint{Lat: 37.8, Lng: -122.41}, End: domain.GeoPoint{Lat: 37.8, Lng: -122.415}},
		},
	}
}

func echoPhotos() *mockPhotoProvider {
	return &mockPhotoProvider{
		searchFn: func(ctx context.Context, pt domain.GeoPoint, radius int) ([]domain.PhotoRecord, error) {
			return []domain.PhotoRecord{photoAt("near", pt.Lng)}, nil
		},
	}
}

func newTripService(routes *mockRouteProvider, cache *mockCache, pub *mockPublisher) *usecases.TripService {
	agg := usecases.NewPhotoAggregator(echoPhotos(), 0, time.Second)
	// Nil interfaces, not typed nils, when a dependency is absent.
	switch {
	case cache == nil && pub == nil:
		return usecases.NewTripService(routes, agg, nil, nil, 600)
	case cache == nil:
		return usecases.NewTripService(routes, agg, nil, pub, 600)
	case pub == nil:
		return usecases.NewTripService(routes, agg, cache, nil, 600)
	}
	return usecases.NewTripService(routes, agg, cache, pub, 600)
}

// --- Tests ---

func TestTripService_Plan(t *testing.T) {
	var gotMode domain.TravelMode
	routes := &mockRouteProvider{
		getRouteFn: func(ctx context.Context, start, end string, mode domain.TravelMode) (*domain.Route, error) {
			gotMode = mode
			return westbound(), nil
		},
	}
	pub := &mockPublisher{}
	svc := newTripService(routes, nil, pub)

	trip, err := svc.Plan(context.Background(), domain.TripRequest{Start: " Ferry Building ", End: "Coit Tower"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotMode != domain.TravelWalking {
		t.Errorf("expected default mode WALKING, got %s", gotMode)
	}
	if trip.ID == "" || trip.Start != "Ferry Building" {
		t.Errorf("expected an ID and a trimmed start, got %q / %q", trip.ID, trip.Start)
	}
	// 1500 m derives five points.
	if len(trip.Points) != 5 || len(trip.Groups) != 5 {
		t.Fatalf("expected 5 points and 5 groups, got %d and %d", len(trip.Points), len(trip.Groups))
	}
	for i := 1; i < len(trip.Groups); i++ {
		if trip.Groups[i].Representative().Lng > trip.Groups[i-1].Representative().Lng {
			t.Errorf("westbound groups should run east to west, group %d is out of order", i)
		}
	}
	if trip.StraightLineMeters <= 0 {
		t.Errorf("expected a positive straight-line distance, got %f", trip.StraightLineMeters)
	}
	if len(pub.planned) != 1 || pub.planned[0].ID != trip.ID {
		t.Errorf("expected the planned trip to be published once")
	}
}

func TestTripService_Plan_InvalidLocation(t *testing.T) {
	routes := &mockRouteProvider{
		getRouteFn: func(ctx context.Context, start, end string, mode domain.TravelMode) (*domain.Route, error) {
			return nil, domain.ErrInvalidLocation
		},
	}
	svc := newTripService(routes, nil, nil)

	_, err := svc.Plan(context.Background(), domain.TripRequest{Start: "nowhere", End: "elsewhere"})
	if !errors.Is(err, domain.ErrInvalidLocation) {
		t.Fatalf("expected ErrInvalidLocation, got %v", err)
	}
}

func TestTripService_Plan_Validation(t *testing.T) {
	tests := []struct {
		name string
		req  domain.TripRequest
	}{
		{"missing start", domain.TripRequest{End: "b"}},
		{"blank end", domain.TripRequest{Start: "a", End: "   "}},
		{"same place", domain.TripRequest{Start: "Union Square", End: "union square"}},
		{"unknown mode", domain.TripRequest{Start: "a", End: "b", Mode: "TELEPORT"}},
		{"too many points", domain.TripRequest{Start: "a", End: "b", Points: 7}},
		{"negative points", domain.TripRequest{Start: "a", End: "b", Points: -1}},
	}

	routes := &mockRouteProvider{}
	svc := newTripService(routes, nil, nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Plan(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrInvalidTripRequest) {
				t.Errorf("expected ErrInvalidTripRequest, got %v", err)
			}
		})
	}
	if routes.calls != 0 {
		t.Errorf("invalid requests must not reach the route provider, got %d calls", routes.calls)
	}
}

func TestTripService_Waypoints_CachesRoute(t *testing.T) {
	routes := &mockRouteProvider{
		getRouteFn: func(ctx context.Context, start, end string, mode domain.TravelMode) (*domain.Route, error) {
			return westbound(), nil
		},
	}
	cache := newMockCache()
	svc := newTripService(routes, cache, nil)

	req := domain.TripRequest{Start: "Ferry Building", End: "Coit Tower", Mode: "driving", Points: 2}
	for range 2 {
		route, points, err := svc.Waypoints(context.Background(), req)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if route.TotalDistanceMeters != 1500 || len(points) != 2 {
			t.Fatalf("expected 1500 m and 2 points, got %d m and %d points", route.TotalDistanceMeters, len(points))
		}
	}

	if routes.calls != 1 {
		t.Errorf("expected 1 provider call, got %d", routes.calls)
	}
	key := "route:DRIVING:ferry building:coit tower"
	if _, ok := cache.data[key]; !ok {
		t.Errorf("expected cache key %q, have %v", key, cache.data)
	}
	if cache.ttls[key] != 600 {
		t.Errorf("expected ttl 600, got %d", cache.ttls[key])
	}
}

func TestTripService_Waypoints_ProviderError(t *testing.T) {
	routes := &mockRouteProvider{
		getRouteFn: func(ctx context.Context, start, end string, mode domain.TravelMode) (*domain.Route, error) {
			return nil, &domain.ProviderError{Provider: "google", Op: "directions", Err: errors.New("OVER_QUERY_LIMIT")}
		},
	}
	cache := newMockCache()
	svc := newTripService(routes, cache, nil)

	_, _, err := svc.Waypoints(context.Background(), domain.TripRequest{Start: "a", End: "b"})
	var perr *domain.ProviderError
	if !errors.As(err, &perr) || perr.Provider != "google" {
		t.Fatalf("expected a google ProviderError, got %v", err)
	}
	if len(cache.data) != 0 {
		t.Errorf("failed lookups must not be cached")
	}
}

func TestTripService_RequestTrip(t *testing.T) {
	pub := &mockPublisher{}
	svc := newTripService(&mockRouteProvider{}, nil, pub)

	id, err := svc.RequestTrip(context.Background(), domain.TripRequest{Start: "a", End: "b", Mode: "bicycling"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	req, ok := pub.requested[id]
	if !ok {
		t.Fatalf("expected request %s to be published", id)
	}
	if req.Mode != domain.TravelBicycling {
		t.Errorf("expected normalised mode BICYCLING, got %s", req.Mode)
	}
}

func TestTripService_RequestTrip_PublishError(t *testing.T) {
	pub := &mockPublisher{requestedErr: errors.New("nats: no responders")}
	svc := newTripService(&mockRouteProvider{}, nil, pub)

	_, err := svc.RequestTrip(context.Background(), domain.TripRequest{Start: "a", End: "b"})
	if err == nil || !strings.Contains(err.Error(), "no responders") {
		t.Fatalf("expected publish error, got %v", err)
	}
}

func TestTripService_RequestTrip_NoPublisher(t *testing.T) {
	svc := newTripService(&mockRouteProvider{}, nil, nil)

	_, err := svc.RequestTrip(context.Background(), domain.TripRequest{Start: "a", End: "b"})
	if !errors.Is(err, domain.ErrPlannerUnavailable) {
		t.Fatalf("expected ErrPlannerUnavailable, got %v", err)
	}
}

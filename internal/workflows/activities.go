package workflows

import (
	"context"
	"errors"
	"fmt"

	"go.temporal.io/sdk/activity"
	"go.temporal.io/sdk/temporal"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
	"github.com/mjsgreen01/Instatrip/internal/core/ports"
	"github.com/mjsgreen01/Instatrip/internal/core/usecases"
)

// ErrTypeInvalidLocation is the application error type for unresolvable
// trips. It is never retried.
const ErrTypeInvalidLocation = "InvalidLocation"

// TripActivities holds the activity implementations for the trip workflow.
type TripActivities struct {
	Routes             ports.RouteProvider
	Photos             ports.PhotoProvider
	Publisher          ports.EventPublisher // optional
	SearchRadiusMeters int
}

// FetchRoute resolves the route for a normalised request.
func (a *TripActivities) FetchRoute(ctx context.Context, req domain.TripRequest) (*domain.Route, error) {
	route, err := a.Routes.GetRoute(ctx, req.Start, req.End, req.Mode)
	if errors.Is(err, domain.ErrInvalidLocation) {
		return nil, temporal.NewNonRetryableApplicationError("invalid location", ErrTypeInvalidLocation, err)
	}
	if err != nil {
		return nil, fmt.Errorf("get route: %w", err)
	}
	return route, nil
}

// SearchPhotos returns the renderable photos around one stop-point.
func (a *TripActivities) SearchPhotos(ctx context.Context, point domain.GeoPoint) ([]domain.PhotoRecord, error) {
	radius := a.SearchRadiusMeters
	if radius <= 0 {
		radius = usecases.DefaultSearchRadiusMeters
	}
	photos, err := a.Photos.SearchPhotos(ctx, point, radius)
	if err != nil {
		return nil, err
	}
	return usecases.FilterPhotos(photos), nil
}

// PublishTripPlanned announces a finished trip. Without a publisher the
// trip is only logged.
func (a *TripActivities) PublishTripPlanned(ctx context.Context, trip *domain.Trip) error {
	if a.Publisher == nil {
		activity.GetLogger(ctx).Info("trip planned (no publisher)", "trip_id", trip.ID, "groups", len(trip.Groups))
		return nil
	}
	return a.Publisher.PublishTripPlanned(ctx, trip)
}

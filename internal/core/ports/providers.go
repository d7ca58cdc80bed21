package ports

import (
	"context"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
)

// RouteProvider resolves a route between two user-supplied locations.
type RouteProvider interface {
	// GetRoute returns the first route found. Unresolvable locations
	// yield domain.ErrInvalidLocation.
	GetRoute(ctx context.Context, start, end string, mode domain.TravelMode) (*domain.Route, error)
}

// PhotoProvider searches geotagged photos around a point.
type PhotoProvider interface {
	SearchPhotos(ctx context.Context, point domain.GeoPoint, radiusMeters int) ([]domain.PhotoRecord, error)
}

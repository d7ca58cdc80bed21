package ports

import (
	"context"

	"github.com/mjsgreen01/Instatrip/internal/core/domain"
)

// EventPublisher publishes trip events to a message broker.
type EventPublisher interface {
	PublishTripRequested(ctx context.Context, id string, req domain.TripRequest) error
	PublishTripPlanned(ctx context.Context, trip *domain.Trip) error
}

// EventSubscriber subscribes to trip events from a message broker.
type EventSubscriber interface {
	SubscribeTripRequests(ctx context.Context, handler func(ctx context.Context, id string, req domain.TripRequest) error) error
}

// CacheService provides read-through caching.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}
